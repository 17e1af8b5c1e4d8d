package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Eli-32/Ibra/transport"
)

type sentMessage struct {
	ConversationID string
	Text           string
}

type fakeTransport struct {
	mu            sync.Mutex
	handler       transport.Handler
	sent          []sentMessage
	cleared       []string
	conversations []transport.Conversation
	failSends     int
}

func (f *fakeTransport) Subscribe(h transport.Handler) func() {
	f.mu.Lock()
	f.handler = h
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		f.handler = nil
		f.mu.Unlock()
	}
}

func (f *fakeTransport) Send(ctx context.Context, conversationID string, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSends > 0 {
		f.failSends--
		return errors.New("transport unavailable")
	}
	f.sent = append(f.sent, sentMessage{ConversationID: conversationID, Text: text})
	return nil
}

func (f *fakeTransport) ListConversations(ctx context.Context) ([]transport.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.conversations, nil
}

func (f *fakeTransport) ClearHistory(ctx context.Context, conversationID string) error {
	f.mu.Lock()
	f.cleared = append(f.cleared, conversationID)
	f.mu.Unlock()
	return nil
}

func (f *fakeTransport) deliver(ctx context.Context, event transport.Event) {
	f.mu.Lock()
	h := f.handler
	f.mu.Unlock()
	if h != nil {
		h(ctx, event)
	}
}

func (f *fakeTransport) sentMessages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

func (f *fakeTransport) clearedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.cleared...)
}

func newTestMachine(clock *fakeClock) (*StateMachine, *fakeTransport) {
	tr := &fakeTransport{
		conversations: []transport.Conversation{
			{ID: "group-1", DisplayName: "Anime Arena", MemberCount: 12},
			{ID: "group-2", DisplayName: "Side Chat", MemberCount: 3},
		},
	}
	return NewStateMachine(testConfig(), tr, discardLogger(), clock.Now), tr
}

func ownerMessage(clock *fakeClock, text string) transport.Message {
	return transport.Message{
		ConversationID: "dm-owner",
		SenderID:       "111@s.whatsapp.net",
		Text:           text,
		Timestamp:      clock.Now(),
		MessageID:      "cmd",
	}
}

func TestStateMachine_ListThenSelectActivates(t *testing.T) {
	clock := newFakeClock()
	m, tr := newTestMachine(clock)
	ctx := context.Background()

	if !m.HandleCommand(ctx, ownerMessage(clock, ".ابدا")) {
		t.Fatalf("HandleCommand(.ابدا) = false, want command consumed")
	}
	sent := tr.sentMessages()
	if len(sent) != 1 || !strings.Contains(sent[0].Text, "Anime Arena") {
		t.Fatalf("list reply = %+v, want conversation listing", sent)
	}

	if !m.HandleCommand(ctx, ownerMessage(clock, "1")) {
		t.Fatalf("HandleCommand(1) = false, want selection consumed")
	}
	session := m.Session()
	if !session.Active || session.ConversationID != "group-1" {
		t.Fatalf("Session() = %+v, want active in group-1", session)
	}
	if session.SessionID == "" {
		t.Fatalf("Session().SessionID empty after activation")
	}
	if cleared := tr.clearedIDs(); len(cleared) != 1 || cleared[0] != "group-1" {
		t.Fatalf("cleared = %v, want history clear on selection", cleared)
	}
}

func TestStateMachine_NonOwnerPrivilegedCommandsIgnored(t *testing.T) {
	clock := newFakeClock()
	m, tr := newTestMachine(clock)
	ctx := context.Background()

	intruder := ownerMessage(clock, ".ابدا")
	intruder.SenderID = "999@s.whatsapp.net"
	if !m.HandleCommand(ctx, intruder) {
		t.Fatalf("HandleCommand() = false, want command consumed without effect")
	}
	if len(tr.sentMessages()) != 0 {
		t.Fatalf("non-owner list command produced a reply")
	}
	if m.Session().Active {
		t.Fatalf("non-owner command activated the session")
	}
}

func TestStateMachine_InvalidSelectionReportsError(t *testing.T) {
	clock := newFakeClock()
	m, tr := newTestMachine(clock)
	ctx := context.Background()

	m.HandleCommand(ctx, ownerMessage(clock, ".a"))
	if !m.HandleCommand(ctx, ownerMessage(clock, "9")) {
		t.Fatalf("HandleCommand(9) = false, want consumed with error reply")
	}
	sent := tr.sentMessages()
	last := sent[len(sent)-1]
	if !strings.Contains(last.Text, "Invalid") {
		t.Fatalf("reply = %q, want invalid selection message", last.Text)
	}
	if m.Session().Active {
		t.Fatalf("invalid selection activated the session")
	}
}

func TestStateMachine_NumericWithoutListIsPlainText(t *testing.T) {
	clock := newFakeClock()
	m, _ := newTestMachine(clock)
	if m.HandleCommand(context.Background(), ownerMessage(clock, "3")) {
		t.Fatalf("HandleCommand(3) = true outside a selection context")
	}
}

func TestStateMachine_DeactivateResetsSession(t *testing.T) {
	clock := newFakeClock()
	m, _ := newTestMachine(clock)
	ctx := context.Background()

	m.HandleCommand(ctx, ownerMessage(clock, ".a"))
	m.HandleCommand(ctx, ownerMessage(clock, "2"))
	if !m.Session().Active {
		t.Fatalf("setup: session not active")
	}

	if !m.HandleCommand(ctx, ownerMessage(clock, ".وقف")) {
		t.Fatalf("HandleCommand(.وقف) = false")
	}
	if session := m.Session(); session.Active || session.ConversationID != "" {
		t.Fatalf("Session() = %+v after deactivate, want zero state", session)
	}
}

func TestStateMachine_StatusIsUnprivileged(t *testing.T) {
	clock := newFakeClock()
	m, tr := newTestMachine(clock)

	msg := ownerMessage(clock, ".حالة")
	msg.SenderID = "999"
	if !m.HandleCommand(context.Background(), msg) {
		t.Fatalf("HandleCommand(.حالة) = false")
	}
	sent := tr.sentMessages()
	if len(sent) != 1 || !strings.Contains(sent[0].Text, "inactive") {
		t.Fatalf("status reply = %+v, want inactive status", sent)
	}
}

func TestStateMachine_ClearWithoutSelection(t *testing.T) {
	clock := newFakeClock()
	m, tr := newTestMachine(clock)

	if !m.HandleCommand(context.Background(), ownerMessage(clock, ".مسح")) {
		t.Fatalf("HandleCommand(.مسح) = false")
	}
	sent := tr.sentMessages()
	if len(sent) != 1 || !strings.Contains(sent[0].Text, "No conversation selected") {
		t.Fatalf("reply = %+v, want selection hint", sent)
	}
	if len(tr.clearedIDs()) != 0 {
		t.Fatalf("clear without selection touched a conversation")
	}
}

func TestStateMachine_ShouldDetectFilters(t *testing.T) {
	clock := newFakeClock()
	m, _ := newTestMachine(clock)
	ctx := context.Background()

	m.HandleCommand(ctx, ownerMessage(clock, ".a"))
	m.HandleCommand(ctx, ownerMessage(clock, "1"))
	activatedAt := m.Session().ActivatedAt

	before := transport.Message{ConversationID: "group-1", Text: "x", Timestamp: activatedAt.Add(-time.Second)}
	if m.ShouldDetect(before) {
		t.Fatalf("ShouldDetect() = true for pre-activation message")
	}
	after := transport.Message{ConversationID: "group-1", Text: "x", Timestamp: activatedAt.Add(time.Second)}
	if !m.ShouldDetect(after) {
		t.Fatalf("ShouldDetect() = false for post-activation message")
	}
	elsewhere := after
	elsewhere.ConversationID = "group-2"
	if m.ShouldDetect(elsewhere) {
		t.Fatalf("ShouldDetect() = true for unbound conversation")
	}
}
