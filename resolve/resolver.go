package resolve

import (
	"context"
	"log/slog"
	"time"

	"github.com/Eli-32/Ibra/detector"
	"github.com/Eli-32/Ibra/internal/retryutil"
)

type ResolverOptions struct {
	Logger *slog.Logger
	// Fanout is the remote lookup layer. Nil disables remote resolution
	// and the resolver serves from the store alone.
	Fanout *Fanout
	// PersistRetryDelay and PersistRetryTimeout shape the background retry
	// when a learned-mapping write fails.
	PersistRetryDelay   time.Duration
	PersistRetryTimeout time.Duration
}

// Resolver answers token lookups through the layered cache: curated local
// mappings, then the learned cache, then the remote fan-out. Remote winners
// are written through to the learned layer.
type Resolver struct {
	logger *slog.Logger
	store  *Store
	fanout *Fanout

	persistRetryDelay   time.Duration
	persistRetryTimeout time.Duration
}

func NewResolver(store *Store, opts ResolverOptions) *Resolver {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		logger:              logger,
		store:               store,
		fanout:              opts.Fanout,
		persistRetryDelay:   opts.PersistRetryDelay,
		persistRetryTimeout: opts.PersistRetryTimeout,
	}
}

// Resolve looks a token up layer by layer. ok=false means no layer knew the
// token; the only error is a canceled context during the remote fan-out.
func (r *Resolver) Resolve(ctx context.Context, token string) (ResolvedName, bool, error) {
	key := detector.Normalize(token)
	if key == "" {
		return ResolvedName{}, false, nil
	}

	if resolved, ok := r.store.LookupLocal(key); ok {
		return resolved, true, nil
	}
	if resolved, ok := r.store.LookupLearned(key); ok {
		resolved.Source = SourceLearned
		return resolved, true, nil
	}
	if r.fanout == nil {
		return ResolvedName{}, false, nil
	}

	resolved, ok, err := r.fanout.Lookup(ctx, key)
	if err != nil {
		return ResolvedName{}, false, err
	}
	if !ok {
		return ResolvedName{}, false, nil
	}

	r.store.Learn(key, resolved)
	r.logger.Info("resolve_learned", "token", key, "name", resolved.Name, "service", string(resolved.Source))
	r.persist(ctx)
	return resolved, true, nil
}

// persist writes the snapshot once; on failure it schedules a single
// background retry. Persistence failures never reach the caller.
func (r *Resolver) persist(ctx context.Context) {
	err := r.store.Persist(ctx)
	if err == nil {
		return
	}
	r.logger.Warn("mappings_persist_failed", "error", err.Error())
	retryutil.AsyncRetry(r.logger, "mappings_persist", r.persistRetryDelay, r.persistRetryTimeout, func(retryCtx context.Context) error {
		return r.store.Persist(retryCtx)
	})
}

// LearnedCount reports the learned layer size for status output.
func (r *Resolver) LearnedCount() int {
	return r.store.LearnedCount()
}
