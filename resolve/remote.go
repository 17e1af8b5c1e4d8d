package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	defaultLookupTimeout   = 3 * time.Second
	defaultServiceCooldown = 30 * time.Second
)

// Service is a remote character-name lookup backend.
type Service interface {
	Name() string
	// Lookup returns the best match for a name, or ok=false when the
	// service has no match. A RateLimitError suspends the service.
	Lookup(ctx context.Context, name string) (ResolvedName, bool, error)
}

// RateLimitError signals an HTTP 429 from a service, carrying the server's
// Retry-After when it sent one.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}

func parseRetryAfter(header string) time.Duration {
	secs, err := strconv.Atoi(header)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

type FanoutOptions struct {
	Logger *slog.Logger
	// Timeout bounds every individual lookup request.
	Timeout time.Duration
	// Cooldown applies to a rate-limited service when the server sent no
	// Retry-After.
	Cooldown time.Duration
	Now      func() time.Time
}

// Fanout races the configured services and keeps whichever answer settles
// with the highest confidence. Service order is the tie-break: earlier wins.
type Fanout struct {
	logger   *slog.Logger
	services []Service
	timeout  time.Duration
	cooldown time.Duration
	now      func() time.Time

	mu          sync.Mutex
	pausedUntil map[string]time.Time
}

func NewFanout(services []Service, opts FanoutOptions) *Fanout {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultLookupTimeout
	}
	cooldown := opts.Cooldown
	if cooldown <= 0 {
		cooldown = defaultServiceCooldown
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Fanout{
		logger:      logger,
		services:    services,
		timeout:     timeout,
		cooldown:    cooldown,
		now:         now,
		pausedUntil: map[string]time.Time{},
	}
}

// Lookup queries all available services concurrently and waits for every one
// to settle. Per-service failures are logged and swallowed; only a canceled
// context surfaces as an error.
func (f *Fanout) Lookup(ctx context.Context, name string) (ResolvedName, bool, error) {
	available := f.availableServices()
	if len(available) == 0 {
		return ResolvedName{}, false, nil
	}

	results := make([]*ResolvedName, len(available))
	g, gctx := errgroup.WithContext(ctx)
	for i, svc := range available {
		i, svc := i, svc
		g.Go(func() error {
			reqCtx, cancel := context.WithTimeout(gctx, f.timeout)
			defer cancel()
			resolved, ok, err := svc.Lookup(reqCtx, name)
			if err != nil {
				f.handleLookupError(svc, err)
				return nil
			}
			if ok {
				results[i] = &resolved
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ResolvedName{}, false, err
	}
	if err := ctx.Err(); err != nil {
		return ResolvedName{}, false, err
	}

	var best *ResolvedName
	for _, r := range results {
		if r == nil {
			continue
		}
		if best == nil || r.Confidence > best.Confidence {
			best = r
		}
	}
	if best == nil {
		return ResolvedName{}, false, nil
	}
	return *best, true, nil
}

func (f *Fanout) availableServices() []Service {
	now := f.now()
	f.mu.Lock()
	defer f.mu.Unlock()
	available := make([]Service, 0, len(f.services))
	for _, svc := range f.services {
		if until, paused := f.pausedUntil[svc.Name()]; paused && now.Before(until) {
			continue
		}
		available = append(available, svc)
	}
	return available
}

func (f *Fanout) handleLookupError(svc Service, err error) {
	var rateLimited *RateLimitError
	if errors.As(err, &rateLimited) {
		cooldown := rateLimited.RetryAfter
		if cooldown <= 0 {
			cooldown = f.cooldown
		}
		until := f.now().Add(cooldown)
		f.mu.Lock()
		f.pausedUntil[svc.Name()] = until
		f.mu.Unlock()
		f.logger.Warn("resolve_service_rate_limited", "service", svc.Name(), "until", until.UTC().Format(time.RFC3339))
		return
	}
	f.logger.Warn("resolve_remote_error", "service", svc.Name(), "error", err.Error())
}

// BuildServices maps configured service names to their clients. Unknown
// names fail fast so a config typo does not silently drop a backend.
func BuildServices(names []string, httpClient *http.Client) ([]Service, error) {
	services := make([]Service, 0, len(names))
	for _, name := range names {
		switch name {
		case "anilist":
			services = append(services, NewAniListService(httpClient))
		case "jikan":
			services = append(services, NewJikanService(httpClient))
		case "kitsu":
			services = append(services, NewKitsuService(httpClient))
		default:
			return nil, fmt.Errorf("unknown lookup service %q", name)
		}
	}
	return services, nil
}
