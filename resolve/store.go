package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Eli-32/Ibra/detector"
	"github.com/Eli-32/Ibra/internal/fsstore"
)

const snapshotVersion = 1

// snapshot is the on-disk shape of the mapping store. The whole file is
// rewritten atomically on every learned update.
type snapshot struct {
	Version     int                     `json:"version"`
	Local       map[string]ResolvedName `json:"local"`
	Learned     map[string]ResolvedName `json:"learned"`
	LastUpdated time.Time               `json:"last_updated"`
}

type StoreOptions struct {
	// Path is the JSON snapshot file. Required.
	Path string
	// SeedPath is an optional YAML file of curated token -> name pairs
	// loaded into the local layer. Missing file is not an error.
	SeedPath string
	Logger   *slog.Logger
	Now      func() time.Time
}

// Store holds the two mapping layers. Local entries are curated and never
// mutated at runtime; learned entries accumulate from remote lookups.
type Store struct {
	logger   *slog.Logger
	path     string
	lockPath string
	now      func() time.Time

	mu      sync.RWMutex
	local   map[string]ResolvedName
	learned map[string]ResolvedName
}

func NewStore(opts StoreOptions) (*Store, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("resolve store: empty path")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	s := &Store{
		logger:   logger,
		path:     opts.Path,
		lockPath: opts.Path + ".lock",
		now:      now,
		local:    map[string]ResolvedName{},
		learned:  map[string]ResolvedName{},
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	if opts.SeedPath != "" {
		if err := s.loadSeed(opts.SeedPath); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// load reads the snapshot. A missing file starts empty; a corrupt file is
// logged and also starts empty so one bad write never takes the bot down.
func (s *Store) load() error {
	var snap snapshot
	found, err := fsstore.ReadJSON(s.path, &snap)
	if err != nil {
		if errors.Is(err, fsstore.ErrDecodeFailed) {
			s.logger.Warn("mappings_load_corrupt", "path", s.path, "error", err.Error())
			return nil
		}
		return fmt.Errorf("load mappings: %w", err)
	}
	if !found {
		return nil
	}
	if snap.Local != nil {
		s.local = snap.Local
	}
	if snap.Learned != nil {
		s.learned = snap.Learned
	}
	s.logger.Info("mappings_loaded", "path", s.path, "local", len(s.local), "learned", len(s.learned))
	return nil
}

// loadSeed merges curated YAML pairs into the local layer. Seed entries win
// over anything the snapshot carried under the same key.
func (s *Store) loadSeed(seedPath string) error {
	data, err := os.ReadFile(seedPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read mapping seed %s: %w", seedPath, err)
	}
	var pairs map[string]string
	if err := yaml.Unmarshal(data, &pairs); err != nil {
		return fmt.Errorf("parse mapping seed %s: %w", seedPath, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, name := range pairs {
		key := detector.Normalize(token)
		if key == "" || name == "" {
			continue
		}
		s.local[key] = ResolvedName{Name: name, Confidence: 1.0, Source: SourceLocal}
	}
	s.logger.Info("mapping_seed_loaded", "path", seedPath, "entries", len(pairs))
	return nil
}

// LookupLocal returns the curated entry for a normalized key.
func (s *Store) LookupLocal(key string) (ResolvedName, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.local[key]
	return r, ok
}

// LookupLearned returns the learned entry for a normalized key.
func (s *Store) LookupLearned(key string) (ResolvedName, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.learned[key]
	return r, ok
}

// Learn records a resolved name in the learned layer. The caller is expected
// to follow with Persist; the in-memory layer is authoritative either way.
func (s *Store) Learn(key string, resolved ResolvedName) {
	resolved.Source = SourceLearned
	s.mu.Lock()
	s.learned[key] = resolved
	s.mu.Unlock()
}

func (s *Store) LearnedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.learned)
}

// Persist rewrites the snapshot file atomically under an advisory lock so
// concurrent processes sharing the state dir cannot interleave writes.
func (s *Store) Persist(ctx context.Context) error {
	s.mu.RLock()
	snap := snapshot{
		Version:     snapshotVersion,
		Local:       cloneMappings(s.local),
		Learned:     cloneMappings(s.learned),
		LastUpdated: s.now().UTC(),
	}
	s.mu.RUnlock()

	if err := fsstore.EnsureDir(filepath.Dir(s.path), 0); err != nil {
		return err
	}
	return fsstore.WithLock(ctx, s.lockPath, func() error {
		return fsstore.WriteJSONAtomic(s.path, snap, fsstore.FileOptions{})
	})
}

func cloneMappings(in map[string]ResolvedName) map[string]ResolvedName {
	out := make(map[string]ResolvedName, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
