// Package history defines the durable execution log written after each
// engine run and the per-user counters kept beside it. The engine only
// writes; nothing in the core reads its own history.
package history

import (
	"context"
	"time"

	"github.com/autoflow/autoflow/runtime/workflow"
)

type (
	// Record is one appended history row. Status is derived from the
	// result map: "failed" when it carries a top-level error, else
	// "success".
	Record struct {
		UserID     string
		WorkflowID string
		Nodes      []workflow.Node
		Edges      []workflow.Edge
		Result     map[string]string
		ExecutedAt time.Time
		Status     string
	}

	// Store persists records and user counters. Implementations must be
	// safe for concurrent use; engine calls are best-effort and
	// failures must not affect run results.
	Store interface {
		SaveExecution(ctx context.Context, rec Record) error
		IncrementExecutionCount(ctx context.Context, userID string) error
	}
)

// Statuses recorded with each row.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)
