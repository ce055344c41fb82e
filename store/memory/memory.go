// Package memory is an in-process babik.Store, useful for tests and
// short-lived tools.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/reoring/babik"
)

// Store keeps records in a map guarded by a mutex. It is safe for
// concurrent use.
type Store struct {
	mu      sync.RWMutex
	records map[string]babik.RawRecord
	order   []string
}

var _ babik.Store = (*Store)(nil)

func New() *Store {
	return &Store{records: map[string]babik.RawRecord{}}
}

// Commit inserts a record, assigning a UUID when raw.ID is empty, or
// replaces the record with the same ID.
func (s *Store) Commit(ctx context.Context, raw babik.RawRecord) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if raw.ID == "" {
		raw.ID = uuid.NewString()
	}
	if _, ok := s.records[raw.ID]; !ok {
		s.order = append(s.order, raw.ID)
	}
	raw.Fields = cloneFields(raw.Fields)
	raw.AttrsDeferred = false
	s.records[raw.ID] = raw
	return raw.ID, nil
}

func (s *Store) Load(ctx context.Context, id string) (babik.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return babik.RawRecord{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.records[id]
	if !ok {
		return babik.RawRecord{}, fmt.Errorf("memory: record %q: %w", id, babik.ErrNotFound)
	}
	raw.Fields = cloneFields(raw.Fields)
	return raw, nil
}

// List returns the records whose discriminator equals disc, in commit
// order. An empty disc lists everything.
func (s *Store) List(ctx context.Context, disc string) ([]babik.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []babik.RawRecord
	for _, id := range s.order {
		raw := s.records[id]
		if disc != "" && raw.Discriminator != disc {
			continue
		}
		raw.Fields = cloneFields(raw.Fields)
		out = append(out, raw)
	}
	return out, nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// IDs returns the stored identities, sorted.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]string(nil), s.order...)
	sort.Strings(out)
	return out
}

func cloneFields(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
