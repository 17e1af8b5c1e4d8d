package resolve

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type fakeService struct {
	name   string
	result ResolvedName
	found  bool
	err    error
	calls  atomic.Int64
}

func (f *fakeService) Name() string { return f.name }

func (f *fakeService) Lookup(ctx context.Context, name string) (ResolvedName, bool, error) {
	f.calls.Add(1)
	if f.err != nil {
		return ResolvedName{}, false, f.err
	}
	return f.result, f.found, nil
}

func newTestResolver(t *testing.T, dir string, fanout *Fanout) (*Resolver, *Store) {
	t.Helper()
	store := newTestStore(t, dir)
	r := NewResolver(store, ResolverOptions{Logger: discardLogger(), Fanout: fanout})
	return r, store
}

func TestResolve_LocalBeatsLearned(t *testing.T) {
	dir := t.TempDir()
	seed := filepath.Join(dir, "local-mappings.yaml")
	if err := os.WriteFile(seed, []byte("غوكو: Son Goku\n"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	store, err := NewStore(StoreOptions{
		Path:     filepath.Join(dir, "character-mappings.json"),
		SeedPath: seed,
		Logger:   discardLogger(),
	})
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	store.Learn("غوكو", ResolvedName{Name: "Goku (learned)", Confidence: 0.8})

	r := NewResolver(store, ResolverOptions{Logger: discardLogger()})
	got, ok, err := r.Resolve(context.Background(), "غوكو")
	if err != nil || !ok {
		t.Fatalf("Resolve() = (%v, %v, %v), want local hit", got, ok, err)
	}
	if got.Name != "Son Goku" || got.Source != SourceLocal {
		t.Fatalf("Resolve() = %+v, want curated entry to win", got)
	}
}

func TestResolve_RemoteWriteThrough(t *testing.T) {
	dir := t.TempDir()
	svc := &fakeService{
		name:   "anilist",
		result: ResolvedName{Name: "Vegeta", Confidence: 0.9, Source: "anilist"},
		found:  true,
	}
	fanout := NewFanout([]Service{svc}, FanoutOptions{Logger: discardLogger()})
	r, store := newTestResolver(t, dir, fanout)

	got, ok, err := r.Resolve(context.Background(), "فيجيتا")
	if err != nil || !ok {
		t.Fatalf("Resolve() = (%v, %v, %v), want remote hit", got, ok, err)
	}
	if got.Name != "Vegeta" || got.Source != Source("anilist") {
		t.Fatalf("Resolve() = %+v, want anilist result", got)
	}

	// The same store, with remote disabled, must now serve the token from
	// the learned layer.
	local := NewResolver(store, ResolverOptions{Logger: discardLogger()})
	again, ok, err := local.Resolve(context.Background(), "فيجيتا")
	if err != nil || !ok {
		t.Fatalf("re-Resolve() = (%v, %v, %v), want learned hit", again, ok, err)
	}
	if again.Name != "Vegeta" || again.Source != SourceLearned {
		t.Fatalf("re-Resolve() = %+v, want learned entry", again)
	}
	if n := svc.calls.Load(); n != 1 {
		t.Fatalf("service called %d times, want 1", n)
	}
}

func TestResolve_UnknownTokenMisses(t *testing.T) {
	r, _ := newTestResolver(t, t.TempDir(), nil)
	got, ok, err := r.Resolve(context.Background(), "مجهول")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if ok {
		t.Fatalf("Resolve() = %+v, want miss", got)
	}
}

func TestFanout_HighestConfidenceWins(t *testing.T) {
	weak := &fakeService{name: "kitsu", result: ResolvedName{Name: "Weak", Confidence: 0.8, Source: "kitsu"}, found: true}
	strong := &fakeService{name: "anilist", result: ResolvedName{Name: "Strong", Confidence: 0.9, Source: "anilist"}, found: true}
	fanout := NewFanout([]Service{weak, strong}, FanoutOptions{Logger: discardLogger()})

	got, ok, err := fanout.Lookup(context.Background(), "ناروتو")
	if err != nil || !ok {
		t.Fatalf("Lookup() = (%v, %v, %v), want hit", got, ok, err)
	}
	if got.Name != "Strong" {
		t.Fatalf("Lookup().Name = %q, want highest confidence to win", got.Name)
	}
}

func TestFanout_TieBreaksByServiceOrder(t *testing.T) {
	first := &fakeService{name: "jikan", result: ResolvedName{Name: "First", Confidence: 0.8, Source: "jikan"}, found: true}
	second := &fakeService{name: "kitsu", result: ResolvedName{Name: "Second", Confidence: 0.8, Source: "kitsu"}, found: true}
	fanout := NewFanout([]Service{first, second}, FanoutOptions{Logger: discardLogger()})

	got, ok, err := fanout.Lookup(context.Background(), "ناروتو")
	if err != nil || !ok {
		t.Fatalf("Lookup() = (%v, %v, %v), want hit", got, ok, err)
	}
	if got.Name != "First" {
		t.Fatalf("Lookup().Name = %q, want configured order to break the tie", got.Name)
	}
}

func TestFanout_RateLimitSuspendsService(t *testing.T) {
	svc := &fakeService{name: "jikan", err: &RateLimitError{}}
	clock := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	fanout := NewFanout([]Service{svc}, FanoutOptions{
		Logger:   discardLogger(),
		Cooldown: 30 * time.Second,
		Now:      func() time.Time { return clock },
	})

	if _, ok, err := fanout.Lookup(context.Background(), "لوفي"); ok || err != nil {
		t.Fatalf("Lookup() = (_, %v, %v), want rate-limited miss", ok, err)
	}
	if _, ok, _ := fanout.Lookup(context.Background(), "لوفي"); ok {
		t.Fatalf("Lookup() = hit while service suspended")
	}
	if n := svc.calls.Load(); n != 1 {
		t.Fatalf("service called %d times during cooldown, want 1", n)
	}

	clock = clock.Add(31 * time.Second)
	_, _, _ = fanout.Lookup(context.Background(), "لوفي")
	if n := svc.calls.Load(); n != 2 {
		t.Fatalf("service called %d times after cooldown, want 2", n)
	}
}

func TestFanout_RetryAfterHeaderOverridesDefault(t *testing.T) {
	svc := &fakeService{name: "kitsu", err: &RateLimitError{RetryAfter: 5 * time.Second}}
	clock := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	fanout := NewFanout([]Service{svc}, FanoutOptions{
		Logger:   discardLogger(),
		Cooldown: 30 * time.Second,
		Now:      func() time.Time { return clock },
	})

	_, _, _ = fanout.Lookup(context.Background(), "زورو")
	clock = clock.Add(6 * time.Second)
	_, _, _ = fanout.Lookup(context.Background(), "زورو")
	if n := svc.calls.Load(); n != 2 {
		t.Fatalf("service called %d times, want 2 after short Retry-After", n)
	}
}
