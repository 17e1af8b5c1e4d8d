// Package transport defines the boundary to the chat transport collaborator.
// The connection itself (session persistence, reconnection, QR pairing) lives
// outside this module; the bot only consumes message batches, sends text, and
// manages conversations through these interfaces.
package transport

import (
	"context"
	"time"
)

// Message is one inbound chat message. Messages may arrive duplicated or out
// of order; the admission gate is responsible for filtering.
type Message struct {
	ConversationID string
	SenderID       string
	Text           string
	Timestamp      time.Time
	MessageID      string
	FromSelf       bool
}

// Event is one transport delivery: a batch of messages from a single poll or
// push notification.
type Event struct {
	Messages []Message
}

type Conversation struct {
	ID          string
	DisplayName string
	MemberCount int
}

// Handler consumes one transport event. The transport calls it sequentially.
type Handler func(ctx context.Context, event Event)

// Transport is the conversation transport collaborator.
type Transport interface {
	// Subscribe registers the single event handler and returns an
	// unsubscribe function. Subsequent calls replace the handler.
	Subscribe(handler Handler) (unsubscribe func())

	// Send delivers text to a conversation.
	Send(ctx context.Context, conversationID string, text string) error

	// ListConversations enumerates conversations the agent can act in.
	ListConversations(ctx context.Context) ([]Conversation, error)

	// ClearHistory wipes a conversation's history. Best effort; callers
	// treat failure as non-fatal.
	ClearHistory(ctx context.Context, conversationID string) error
}
