// Package memstore provides an in-memory gaudit.Store, useful for tests and
// single-process tools.
package memstore

import (
	"context"
	"sync"

	"github.com/mickamy/gaudit"
)

// Store keeps records in insertion order.
type Store struct {
	mu      sync.RWMutex
	records []gaudit.Record
}

var _ gaudit.Store = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// Create validates r and appends a copy.
func (s *Store) Create(_ context.Context, r *gaudit.Record) error {
	if err := r.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, clone(*r))
	return nil
}

// Query returns matching records, oldest first.
func (s *Store) Query(_ context.Context, f gaudit.Filter) ([]gaudit.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []gaudit.Record
	for _, r := range s.records {
		if f.Matches(r) {
			out = append(out, clone(r))
		}
	}
	return out, nil
}

// All returns every stored record.
func (s *Store) All() []gaudit.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]gaudit.Record, len(s.records))
	for i, r := range s.records {
		out[i] = clone(r)
	}
	return out
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
}

func clone(r gaudit.Record) gaudit.Record {
	r.AssociationChain = append([]gaudit.Association(nil), r.AssociationChain...)
	r.Original = cloneMap(r.Original)
	r.Modified = cloneMap(r.Modified)
	return r
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
