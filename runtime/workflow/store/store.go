// Package store holds the process-wide table of workflows registered
// for webhook or scheduled invocation. Entries live until the process
// exits or they are replaced; nothing is persisted across restarts.
package store

import (
	"errors"
	"sort"
	"sync"

	"github.com/autoflow/autoflow/runtime/workflow"
)

// ErrNotFound is returned when no workflow is stored under the id.
var ErrNotFound = errors.New("workflow not found")

// Store is a locked map from workflow id to workflow. The zero value is
// not usable; call New.
type Store struct {
	mu        sync.RWMutex
	workflows map[string]stored
}

type stored struct {
	workflow workflow.Workflow
	userID   string
}

// New returns an empty store.
func New() *Store {
	return &Store{workflows: make(map[string]stored)}
}

// Register stores the workflow under id, replacing any prior entry.
// The workflow is deep-copied so later mutation by the caller cannot
// change the stored graph.
func (s *Store) Register(id string, w workflow.Workflow, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workflows[id] = stored{workflow: w.Clone(), userID: userID}
}

// Get returns a copy of the workflow stored under id together with the
// user that registered it.
func (s *Store) Get(id string) (workflow.Workflow, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.workflows[id]
	if !ok {
		return workflow.Workflow{}, "", ErrNotFound
	}
	return e.workflow.Clone(), e.userID, nil
}

// Remove deletes the entry under id. Removing a missing id is a no-op.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.workflows, id)
}

// List returns the registered ids in sorted order.
func (s *Store) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.workflows))
	for id := range s.workflows {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Reset clears all entries. Intended for tests.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workflows = make(map[string]stored)
}
