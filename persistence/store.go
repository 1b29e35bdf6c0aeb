// Package persistence remembers when each command last completed so the next
// run can report only what is new.
package persistence

import (
	"context"
	"fmt"
	"maps"
	"time"

	"go.uber.org/zap"

	"gicowa/config"
	"gicowa/logger"
)

// Record maps a command subject such as "lastrepocommits owner/name" to the
// time that command last completed.
type Record map[string]time.Time

// Backend reads and writes a whole Record.
type Backend interface {
	Load(ctx context.Context) (Record, error)
	Save(ctx context.Context, rec Record) error
	Close() error
}

// Store is the in-memory record plus the backend it came from. Changes made
// with Set only reach the backend on Save.
type Store struct {
	backend Backend
	rec     Record
}

// NewStore returns an empty store over backend. Call Load to populate it.
func NewStore(backend Backend) *Store {
	return &Store{backend: backend, rec: Record{}}
}

// Open picks the backend described by cfg and loads it.
func Open(ctx context.Context, cfg config.StateConfig) (*Store, error) {
	var backend Backend
	switch cfg.Driver {
	case "":
		backend = NewFileBackend(cfg.Path)
	default:
		sqlBackend, err := OpenSQL(ctx, cfg.Driver, cfg.DSN)
		if err != nil {
			return nil, err
		}
		backend = sqlBackend
	}

	store := NewStore(backend)
	if err := store.Load(ctx); err != nil {
		backend.Close()
		return nil, err
	}
	return store, nil
}

// Load replaces the in-memory record with the backend's.
func (s *Store) Load(ctx context.Context) error {
	rec, err := s.backend.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load last runs: %w", err)
	}
	if rec == nil {
		rec = Record{}
	}
	s.rec = rec
	logger.Debug("Loaded last runs", zap.Int("count", len(rec)))
	return nil
}

// Save writes the in-memory record to the backend, replacing what was there.
func (s *Store) Save(ctx context.Context) error {
	if err := s.backend.Save(ctx, s.rec); err != nil {
		return fmt.Errorf("failed to save last runs: %w", err)
	}
	logger.Debug("Saved last runs", zap.Int("count", len(s.rec)))
	return nil
}

// Get returns when subject last completed.
func (s *Store) Get(subject string) (time.Time, bool) {
	t, ok := s.rec[subject]
	return t, ok
}

// Set records that subject completed at t.
func (s *Store) Set(subject string, t time.Time) {
	s.rec[subject] = t.UTC()
}

// Timestamps returns a copy of the in-memory record.
func (s *Store) Timestamps() Record {
	return maps.Clone(s.rec)
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}
