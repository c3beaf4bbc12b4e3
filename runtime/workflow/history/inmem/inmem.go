// Package inmem provides the in-memory history store used in tests and
// when FORCE_IN_MEMORY_DB is set.
package inmem

import (
	"context"
	"sync"

	"github.com/autoflow/autoflow/runtime/workflow"
	"github.com/autoflow/autoflow/runtime/workflow/history"
)

// Store keeps records and counters in process memory.
type Store struct {
	mu       sync.RWMutex
	records  []history.Record
	counters map[string]int
}

// New returns an empty store.
func New() *Store {
	return &Store{counters: make(map[string]int)}
}

// SaveExecution appends a copy of the record.
func (s *Store) SaveExecution(_ context.Context, rec history.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, cloneRecord(rec))
	return nil
}

// IncrementExecutionCount bumps the user's counter.
func (s *Store) IncrementExecutionCount(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[userID]++
	return nil
}

// Records returns a snapshot of all saved records.
func (s *Store) Records() []history.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]history.Record, len(s.records))
	for i, r := range s.records {
		out[i] = cloneRecord(r)
	}
	return out
}

// Count returns the user's execution counter.
func (s *Store) Count(userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counters[userID]
}

// Reset clears records and counters. Intended for tests.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	s.counters = make(map[string]int)
}

func cloneRecord(rec history.Record) history.Record {
	c := rec
	if rec.Result != nil {
		c.Result = make(map[string]string, len(rec.Result))
		for k, v := range rec.Result {
			c.Result[k] = v
		}
	}
	if rec.Nodes != nil {
		c.Nodes = make([]workflow.Node, len(rec.Nodes))
		copy(c.Nodes, rec.Nodes)
	}
	if rec.Edges != nil {
		c.Edges = make([]workflow.Edge, len(rec.Edges))
		copy(c.Edges, rec.Edges)
	}
	return c
}
