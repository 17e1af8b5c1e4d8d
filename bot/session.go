package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Eli-32/Ibra/transport"
)

// Session is the activation state. Owned by the state machine, reset on
// restart, never persisted.
type Session struct {
	Active         bool
	ConversationID string
	ActivatedAt    time.Time
	SessionID      string
}

// StateMachine interprets control commands and gates whether detection runs
// for a message. Privileged commands require the sender to be an owner.
type StateMachine struct {
	logger    *slog.Logger
	cfg       Config
	transport transport.Transport
	now       func() time.Time
	newID     func() string

	mu      sync.Mutex
	session Session
	// listed holds the conversations shown by the last list command, so a
	// numeric reply can be mapped back to a conversation.
	listed []transport.Conversation
}

func NewStateMachine(cfg Config, tr transport.Transport, logger *slog.Logger, now func() time.Time) *StateMachine {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &StateMachine{
		logger:    logger,
		cfg:       cfg,
		transport: tr,
		now:       now,
		newID:     newSessionID,
	}
}

func newSessionID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

func isCommand(text string, variants ...string) bool {
	for _, v := range variants {
		if text == v {
			return true
		}
	}
	return false
}

// HandleCommand consumes control commands. It returns true when the message
// was a command (whether or not it changed state); false means the text
// flows on to the detection pipeline.
func (m *StateMachine) HandleCommand(ctx context.Context, msg transport.Message) bool {
	text := strings.TrimSpace(msg.Text)
	privileged := m.cfg.IsOwner(msg.SenderID)

	switch {
	case isCommand(text, ".status", ".حالة"):
		m.reply(ctx, msg.ConversationID, m.statusText())
		return true

	case isCommand(text, ".a", ".ابدا"):
		if !privileged {
			m.logger.Debug("command_denied", "command", "list", "sender_id", msg.SenderID)
			return true
		}
		m.handleList(ctx, msg.ConversationID)
		return true

	case isCommand(text, ".x", ".وقف"):
		if !privileged {
			m.logger.Debug("command_denied", "command", "deactivate", "sender_id", msg.SenderID)
			return true
		}
		m.handleDeactivate(ctx, msg.ConversationID)
		return true

	case isCommand(text, ".clear", ".مسح"):
		if !privileged {
			m.logger.Debug("command_denied", "command", "clear", "sender_id", msg.SenderID)
			return true
		}
		m.handleClear(ctx, msg.ConversationID)
		return true
	}

	if selection, err := strconv.Atoi(text); err == nil {
		return m.handleSelection(ctx, msg, selection, privileged)
	}
	return false
}

func (m *StateMachine) handleList(ctx context.Context, replyTo string) {
	conversations, err := m.transport.ListConversations(ctx)
	if err != nil {
		m.logger.Warn("list_conversations_failed", "error", err.Error())
		m.reply(ctx, replyTo, "Could not list conversations, try again.")
		return
	}
	if len(conversations) == 0 {
		m.reply(ctx, replyTo, "No conversations found.")
		return
	}

	m.mu.Lock()
	m.listed = conversations
	selected := m.session.ConversationID
	m.mu.Unlock()

	var b strings.Builder
	b.WriteString("Available conversations:\n")
	for i, conv := range conversations {
		marker := ""
		if conv.ID == selected {
			marker = " (selected)"
		}
		fmt.Fprintf(&b, "%d. %s (%d members)%s\n", i+1, conv.DisplayName, conv.MemberCount, marker)
	}
	b.WriteString("\nReply with a number to activate. .وقف deactivates, .مسح clears, .حالة shows status.")
	m.reply(ctx, replyTo, b.String())
}

func (m *StateMachine) handleDeactivate(ctx context.Context, replyTo string) {
	m.mu.Lock()
	m.session = Session{}
	m.listed = nil
	m.mu.Unlock()
	m.logger.Info("session_deactivated")
	m.reply(ctx, replyTo, "Bot deactivated.")
}

func (m *StateMachine) handleClear(ctx context.Context, replyTo string) {
	m.mu.Lock()
	conversationID := m.session.ConversationID
	m.mu.Unlock()
	if conversationID == "" {
		m.reply(ctx, replyTo, "No conversation selected. Send .ابدا first.")
		return
	}
	if err := m.transport.ClearHistory(ctx, conversationID); err != nil {
		m.logger.Warn("clear_history_failed", "conversation_id", conversationID, "error", err.Error())
	}
	m.reply(ctx, replyTo, "Conversation history cleared.")
}

// handleSelection activates the bot in the numbered conversation. A numeric
// message outside a selection context is ordinary text.
func (m *StateMachine) handleSelection(ctx context.Context, msg transport.Message, selection int, privileged bool) bool {
	m.mu.Lock()
	listed := m.listed
	active := m.session.Active
	m.mu.Unlock()

	if listed == nil || active {
		return false
	}
	if !privileged {
		m.logger.Debug("command_denied", "command", "select", "sender_id", msg.SenderID)
		return true
	}
	if selection < 1 || selection > len(listed) {
		m.reply(ctx, msg.ConversationID, "Invalid conversation number.")
		return true
	}

	chosen := listed[selection-1]
	if err := m.transport.ClearHistory(ctx, chosen.ID); err != nil {
		m.logger.Warn("clear_history_failed", "conversation_id", chosen.ID, "error", err.Error())
	}

	activatedAt := m.now()
	if msg.Timestamp.After(activatedAt) {
		activatedAt = msg.Timestamp
	}
	session := Session{
		Active:         true,
		ConversationID: chosen.ID,
		ActivatedAt:    activatedAt,
		SessionID:      m.newID(),
	}
	m.mu.Lock()
	m.session = session
	m.listed = nil
	m.mu.Unlock()

	m.logger.Info("session_activated", "conversation_id", chosen.ID, "session_id", session.SessionID)
	m.reply(ctx, msg.ConversationID, fmt.Sprintf("Activated in: %s", chosen.DisplayName))
	return true
}

// ShouldDetect reports whether the detection pipeline runs for a message:
// active session, matching conversation, and a timestamp at or after
// activation.
func (m *StateMachine) ShouldDetect(msg transport.Message) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.session.Active {
		return false
	}
	if msg.ConversationID != m.session.ConversationID {
		return false
	}
	return !msg.Timestamp.Before(m.session.ActivatedAt)
}

// Session returns a copy of the current activation state.
func (m *StateMachine) Session() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

func (m *StateMachine) statusText() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session.Active {
		return fmt.Sprintf("Status: active in %s", m.session.ConversationID)
	}
	return "Status: inactive. Send .ابدا to activate."
}

func (m *StateMachine) reply(ctx context.Context, conversationID string, text string) {
	if err := m.transport.Send(ctx, conversationID, text); err != nil {
		m.logger.Warn("command_reply_failed", "conversation_id", conversationID, "error", err.Error())
	}
}
