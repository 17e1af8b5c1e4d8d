package bot

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Eli-32/Ibra/internal/idempotency"
	"github.com/Eli-32/Ibra/transport"
)

// Gate filters the raw inbound stream before any other component runs. It
// owns the dedup ledger and the in-flight set; rejection is silent filtering,
// never an error.
type Gate struct {
	logger *slog.Logger
	cfg    Config
	now    func() time.Time

	mu           sync.Mutex
	ledger       []string
	ledgerSet    map[string]struct{}
	inFlight     map[string]time.Time
	lastAdmitted time.Time
}

func NewGate(cfg Config, logger *slog.Logger, now func() time.Time) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &Gate{
		logger:    logger,
		cfg:       cfg,
		now:       now,
		ledgerSet: map[string]struct{}{},
		inFlight:  map[string]time.Time{},
	}
}

// Admit decides whether a message enters the pipeline. On admission it
// records the fingerprint, the in-flight start, and the admission time in
// one critical section so concurrent tasks cannot double-admit an ID.
func (g *Gate) Admit(msg transport.Message) bool {
	now := g.now()
	fingerprint := idempotency.MessageFingerprint(msg.ConversationID, msg.MessageID, msg.Timestamp)

	g.mu.Lock()
	defer g.mu.Unlock()
	g.sweep(now)

	reason := ""
	switch {
	case msg.FromSelf:
		reason = "from_self"
	case strings.TrimSpace(msg.Text) == "":
		reason = "empty_text"
	case g.inLedger(fingerprint):
		reason = "duplicate"
	case now.Sub(msg.Timestamp) > g.cfg.MaxMessageAge:
		reason = "too_old"
	case g.isInFlight(msg.MessageID):
		reason = "in_flight"
	case !g.lastAdmitted.IsZero() && now.Sub(g.lastAdmitted) < g.cfg.MinMessageInterval:
		reason = "rate_limited"
	}
	if reason != "" {
		g.logger.Debug("admission_rejected", "reason", reason, "message_id", msg.MessageID, "conversation_id", msg.ConversationID)
		return false
	}

	g.recordFingerprint(fingerprint)
	g.inFlight[msg.MessageID] = now
	g.lastAdmitted = now
	return true
}

// Done clears the in-flight entry once downstream processing finishes,
// whatever the outcome.
func (g *Gate) Done(messageID string) {
	g.mu.Lock()
	delete(g.inFlight, messageID)
	g.mu.Unlock()
}

func (g *Gate) inLedger(fingerprint string) bool {
	_, ok := g.ledgerSet[fingerprint]
	return ok
}

func (g *Gate) isInFlight(messageID string) bool {
	_, ok := g.inFlight[messageID]
	return ok
}

func (g *Gate) recordFingerprint(fingerprint string) {
	if len(g.ledger) >= g.cfg.LedgerCapacity {
		oldest := g.ledger[0]
		g.ledger = g.ledger[1:]
		delete(g.ledgerSet, oldest)
	}
	g.ledger = append(g.ledger, fingerprint)
	g.ledgerSet[fingerprint] = struct{}{}
}

// sweep expires in-flight entries older than the queue timeout, guarding
// against processing that never signals completion. Callers hold the mutex.
func (g *Gate) sweep(now time.Time) {
	for id, started := range g.inFlight {
		if now.Sub(started) > g.cfg.QueueTimeout {
			g.logger.Debug("in_flight_expired", "message_id", id)
			delete(g.inFlight, id)
		}
	}
}
