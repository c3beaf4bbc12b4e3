// Package telemetry defines the logging and metrics seams used by the
// execution engine and HTTP server, with clue/OTEL-backed and no-op
// implementations.
package telemetry

import (
	"context"
	"time"
)

type (
	// Logger emits structured log messages with key-value pairs.
	Logger interface {
		Debug(ctx context.Context, msg string, keyvals ...any)
		Info(ctx context.Context, msg string, keyvals ...any)
		Warn(ctx context.Context, msg string, keyvals ...any)
		Error(ctx context.Context, msg string, keyvals ...any)
	}

	// Metrics records engine instrumentation: run counters and per-node
	// execution timers.
	Metrics interface {
		IncCounter(name string, value float64, tags ...string)
		RecordTimer(name string, duration time.Duration, tags ...string)
	}
)

// Metric names recorded by the engine.
const (
	MetricRuns         = "autoflow_workflow_runs"
	MetricNodeDuration = "autoflow_node_duration"
)
