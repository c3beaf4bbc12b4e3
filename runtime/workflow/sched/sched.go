// Package sched registers cron triggers that re-execute stored
// workflows. One instance per job: a fire that arrives while the prior
// run of the same workflow is still in flight is dropped, not queued.
package sched

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/autoflow/autoflow/runtime/workflow/telemetry"
)

type (
	// RunFunc executes the stored workflow registered under workflowID.
	// Fires run on the scheduler goroutine pool with a background
	// context since they outlive any HTTP request.
	RunFunc func(ctx context.Context, workflowID string)

	// Scheduler owns the process-wide cron registry.
	Scheduler struct {
		cron *cron.Cron
		run  RunFunc
		log  telemetry.Logger

		mu   sync.Mutex
		jobs map[string]*job
	}

	// Job describes one registered trigger for listing.
	Job struct {
		WorkflowID string    `json:"workflow_id"`
		NextRun    time.Time `json:"next_run"`
		Trigger    string    `json:"trigger"`
	}

	job struct {
		entryID cron.EntryID
		expr    string
		// inFlight enforces max one concurrent run per job.
		inFlight sync.Mutex
	}
)

// ErrNotFound is returned when stopping an id with no registered job.
var ErrNotFound = errors.New("no scheduled job for workflow")

// New builds a scheduler that invokes run on each fire. Call Start to
// begin firing.
func New(run RunFunc, log telemetry.Logger) *Scheduler {
	if log == nil {
		log = telemetry.NewNoopLogger()
	}
	return &Scheduler{
		cron: cron.New(),
		run:  run,
		log:  log,
		jobs: make(map[string]*job),
	}
}

// Start launches the cron runner.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts future fires. In-flight fires are not cancelled; the
// returned context signals when they have drained.
func (s *Scheduler) Stop() context.Context { return s.cron.Stop() }

// Add registers the 5-field cron expression for workflowID, replacing
// any prior trigger for the same id.
func (s *Scheduler) Add(workflowID, expr string) error {
	if _, err := cron.ParseStandard(expr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if prior, ok := s.jobs[workflowID]; ok {
		s.cron.Remove(prior.entryID)
	}
	j := &job{expr: expr}
	entryID, err := s.cron.AddFunc(expr, func() { s.fire(workflowID, j) })
	if err != nil {
		return fmt.Errorf("register cron job: %w", err)
	}
	j.entryID = entryID
	s.jobs[workflowID] = j
	return nil
}

// Remove stops the trigger for workflowID. Stopping an unknown id
// returns ErrNotFound and has no side effect.
func (s *Scheduler) Remove(workflowID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[workflowID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, workflowID)
	}
	s.cron.Remove(j.entryID)
	delete(s.jobs, workflowID)
	return nil
}

// List returns the registered jobs sorted by workflow id.
func (s *Scheduler) List() []Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Job, 0, len(s.jobs))
	for id, j := range s.jobs {
		out = append(out, Job{
			WorkflowID: id,
			NextRun:    s.cron.Entry(j.entryID).Next,
			Trigger:    j.expr,
		})
	}
	sort.Slice(out, func(i, k int) bool { return out[i].WorkflowID < out[k].WorkflowID })
	return out
}

// fire runs one tick. The per-job lock drops overlapping fires instead
// of queueing them.
func (s *Scheduler) fire(workflowID string, j *job) {
	if !j.inFlight.TryLock() {
		s.log.Warn(context.Background(), "scheduled run still in flight, dropping fire",
			"workflow_id", workflowID)
		return
	}
	defer j.inFlight.Unlock()
	s.log.Info(context.Background(), "scheduled run starting", "workflow_id", workflowID)
	s.run(context.Background(), workflowID)
}
