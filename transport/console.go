package transport

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Console is a local stdin/stdout transport for development and dry runs.
// Each input line becomes one inbound message in a single fixed conversation;
// outbound sends are printed.
type Console struct {
	logger         *slog.Logger
	in             io.Reader
	out            io.Writer
	conversationID string
	senderID       string

	mu      sync.Mutex
	handler Handler
	seq     int
}

func NewConsole(logger *slog.Logger, in io.Reader, out io.Writer, senderID string) *Console {
	if logger == nil {
		logger = slog.Default()
	}
	if senderID == "" {
		senderID = "console"
	}
	return &Console{
		logger:         logger,
		in:             in,
		out:            out,
		conversationID: "console",
		senderID:       senderID,
	}
}

func (c *Console) Subscribe(handler Handler) func() {
	c.mu.Lock()
	c.handler = handler
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		c.handler = nil
		c.mu.Unlock()
	}
}

func (c *Console) Send(ctx context.Context, conversationID string, text string) error {
	_, err := fmt.Fprintf(c.out, "<- %s\n", text)
	return err
}

func (c *Console) ListConversations(ctx context.Context) ([]Conversation, error) {
	return []Conversation{{ID: c.conversationID, DisplayName: "Console", MemberCount: 1}}, nil
}

func (c *Console) ClearHistory(ctx context.Context, conversationID string) error {
	_, err := fmt.Fprintln(c.out, "-- history cleared --")
	return err
}

// Run reads input lines until EOF or cancellation, delivering each as a
// one-message event.
func (c *Console) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(c.in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" {
			continue
		}
		c.mu.Lock()
		handler := c.handler
		c.seq++
		seq := c.seq
		c.mu.Unlock()
		if handler == nil {
			continue
		}
		handler(ctx, Event{Messages: []Message{{
			ConversationID: c.conversationID,
			SenderID:       c.senderID,
			Text:           line,
			Timestamp:      time.Now(),
			MessageID:      fmt.Sprintf("console-%d", seq),
		}}})
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("console read: %w", err)
	}
	c.logger.Info("console_input_closed")
	return nil
}
