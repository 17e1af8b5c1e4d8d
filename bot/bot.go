package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/Eli-32/Ibra/detector"
	"github.com/Eli-32/Ibra/internal/worker"
	"github.com/Eli-32/Ibra/resolve"
	"github.com/Eli-32/Ibra/transport"
)

type Options struct {
	Logger     *slog.Logger
	Config     Config
	Transport  transport.Transport
	Extractor  *detector.Extractor
	Classifier *detector.Classifier
	// Strict routes tokens through the classifier; otherwise every
	// extracted token is trusted.
	Strict   bool
	Resolver *resolve.Resolver
	Engine   *detector.Engine
	Now      func() time.Time
}

// Bot is the pipeline runtime: admission, commands, detection, response.
// One consumer loop reads transport events; each admitted detection message
// becomes an independent bounded task so response delays never stall
// admission of the next event.
type Bot struct {
	logger     *slog.Logger
	cfg        Config
	transport  transport.Transport
	gate       *Gate
	machine    *StateMachine
	extractor  *detector.Extractor
	classifier *detector.Classifier
	strict     bool
	resolver   *resolve.Resolver
	engine     *detector.Engine

	jobs chan transport.Message
	sem  chan struct{}
}

func New(opts Options) (*Bot, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	if opts.Transport == nil {
		return nil, fmt.Errorf("bot: transport is required")
	}
	if opts.Extractor == nil || opts.Classifier == nil || opts.Resolver == nil || opts.Engine == nil {
		return nil, fmt.Errorf("bot: extractor, classifier, resolver and engine are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		logger:     logger,
		cfg:        opts.Config,
		transport:  opts.Transport,
		gate:       NewGate(opts.Config, logger, opts.Now),
		machine:    NewStateMachine(opts.Config, opts.Transport, logger, opts.Now),
		extractor:  opts.Extractor,
		classifier: opts.Classifier,
		strict:     opts.Strict,
		resolver:   opts.Resolver,
		engine:     opts.Engine,
		jobs:       make(chan transport.Message, opts.Config.MaxConcurrent),
		sem:        make(chan struct{}, opts.Config.MaxConcurrent),
	}, nil
}

// Run subscribes to the transport and blocks until the context is canceled.
func (b *Bot) Run(ctx context.Context) error {
	worker.Start(worker.StartOptions[transport.Message]{
		Ctx:    ctx,
		Sem:    b.sem,
		Jobs:   b.jobs,
		Handle: b.handle,
	})

	unsubscribe := b.transport.Subscribe(func(evCtx context.Context, event transport.Event) {
		b.consume(evCtx, ctx, event)
	})
	defer unsubscribe()
	b.logger.Info("bot_started", "max_concurrent", b.cfg.MaxConcurrent)

	ticker := time.NewTicker(b.cfg.StatusLogInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			b.logger.Info("bot_stopped")
			return nil
		case <-ticker.C:
			status := b.Status()
			b.logger.Info("bot_status",
				"active", status.Active,
				"conversation_id", status.ConversationID,
				"tokens_learned", status.TokensLearned)
		}
	}
}

// consume runs one event batch through admission and the state machine,
// newest message first. Only detection messages become worker jobs.
func (b *Bot) consume(ctx, runCtx context.Context, event transport.Event) {
	messages := append([]transport.Message(nil), event.Messages...)
	sort.Slice(messages, func(i, j int) bool {
		return messages[i].Timestamp.After(messages[j].Timestamp)
	})

	for _, msg := range messages {
		if !b.gate.Admit(msg) {
			continue
		}
		if b.machine.HandleCommand(ctx, msg) {
			b.gate.Done(msg.MessageID)
			continue
		}
		if !b.machine.ShouldDetect(msg) {
			b.gate.Done(msg.MessageID)
			continue
		}
		if err := worker.Enqueue(ctx, runCtx, b.jobs, msg); err != nil {
			b.gate.Done(msg.MessageID)
			return
		}
	}
}

// handle is the per-message worker task, bounded by the hard process
// timeout. The in-flight entry is cleared whatever happens here; the sweep
// covers the pathological cases on top.
func (b *Bot) handle(ctx context.Context, msg transport.Message) {
	defer b.gate.Done(msg.MessageID)
	procCtx, cancel := context.WithTimeout(ctx, b.cfg.ProcessTimeout)
	defer cancel()
	b.process(procCtx, msg)
}

func (b *Bot) process(ctx context.Context, msg transport.Message) {
	tokens := b.extractor.Extract(msg.Text)
	if len(tokens) == 0 {
		return
	}

	names := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if b.strict {
			if cls := b.classifier.Classify(detector.Normalize(token.Text)); !cls.Accepted {
				continue
			}
		}
		name := token.Text
		resolved, ok, err := b.resolver.Resolve(ctx, token.Text)
		if err != nil {
			b.logger.Warn("process_abandoned", "message_id", msg.MessageID, "stage", "resolve")
			return
		}
		if ok {
			name = resolved.Name
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return
	}

	response := b.engine.Respond(names)
	b.logger.Debug("response_ready",
		"message_id", msg.MessageID,
		"tokens", len(names),
		"delay", response.Delay.String(),
		"mistake", string(response.Mistake))

	select {
	case <-ctx.Done():
		b.logger.Warn("process_abandoned", "message_id", msg.MessageID, "stage", "delay")
		return
	case <-time.After(response.Delay):
	}
	b.send(ctx, msg.ConversationID, response.Text)
}

// send tries the transport, retrying on failure with a short backoff, then
// drops the response with a log entry. Send failure never escalates.
func (b *Bot) send(ctx context.Context, conversationID string, text string) {
	var err error
	for attempt := 0; attempt <= b.cfg.SendRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				b.logger.Warn("send_dropped", "conversation_id", conversationID, "error", ctx.Err().Error())
				return
			case <-time.After(b.cfg.SendRetryBackoff):
			}
		}
		if err = b.transport.Send(ctx, conversationID, text); err == nil {
			return
		}
		b.logger.Warn("send_failed", "conversation_id", conversationID, "attempt", attempt+1, "error", err.Error())
	}
	b.logger.Warn("send_dropped", "conversation_id", conversationID, "error", err.Error())
}

// Status is the host-facing state summary, also served by the health
// endpoint.
type Status struct {
	Active         bool   `json:"active"`
	ConversationID string `json:"conversation_id,omitempty"`
	TokensLearned  int    `json:"tokens_learned"`
	StatusText     string `json:"status_text"`
}

func (b *Bot) Status() Status {
	session := b.machine.Session()
	status := Status{
		Active:         session.Active,
		ConversationID: session.ConversationID,
		TokensLearned:  b.resolver.LearnedCount(),
	}
	if session.Active {
		status.StatusText = fmt.Sprintf("active in %s", session.ConversationID)
	} else {
		status.StatusText = "inactive"
	}
	return status
}
