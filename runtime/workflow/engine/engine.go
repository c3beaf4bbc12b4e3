// Package engine drives workflow execution: it registers webhook and
// schedule nodes in a pre-pass, validates and orders the graph,
// executes each node sequentially with the input adapter applied, and
// records history best-effort.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/autoflow/autoflow/runtime/workflow"
	"github.com/autoflow/autoflow/runtime/workflow/creds"
	"github.com/autoflow/autoflow/runtime/workflow/graph"
	"github.com/autoflow/autoflow/runtime/workflow/history"
	"github.com/autoflow/autoflow/runtime/workflow/nodes"
	"github.com/autoflow/autoflow/runtime/workflow/result"
	"github.com/autoflow/autoflow/runtime/workflow/store"
	"github.com/autoflow/autoflow/runtime/workflow/telemetry"
)

type (
	// Cron is the scheduler seam used by the pre-pass.
	Cron interface {
		Add(workflowID, expr string) error
	}

	// Engine executes workflows. Construct with New; the zero value is
	// not usable.
	Engine struct {
		registry *nodes.Registry
		store    *store.Store
		cron     Cron
		source   creds.Source
		cipher   creds.Cipher
		history  history.Store
		log      telemetry.Logger
		metrics  telemetry.Metrics
	}

	// Options configures New. Registry and Store are required; every
	// other collaborator is optional and disabled when nil.
	Options struct {
		Registry *nodes.Registry
		Store    *store.Store
		Cron     Cron
		Source   creds.Source
		Cipher   creds.Cipher
		History  history.Store
		Logger   telemetry.Logger
		Metrics  telemetry.Metrics
	}
)

// ScheduledPrefix namespaces stored workflows registered by schedule
// nodes so a scheduler fire can find the graph to re-execute.
const ScheduledPrefix = "scheduled_"

// New validates the options and builds an engine.
func New(opts Options) (*Engine, error) {
	if opts.Registry == nil {
		return nil, errors.New("engine: registry is required")
	}
	if opts.Store == nil {
		return nil, errors.New("engine: workflow store is required")
	}
	if opts.Logger == nil {
		opts.Logger = telemetry.NewNoopLogger()
	}
	if opts.Metrics == nil {
		opts.Metrics = telemetry.NewNoopMetrics()
	}
	return &Engine{
		registry: opts.Registry,
		store:    opts.Store,
		cron:     opts.Cron,
		source:   opts.Source,
		cipher:   opts.Cipher,
		history:  opts.History,
		log:      opts.Logger,
		metrics:  opts.Metrics,
	}, nil
}

// Run executes the workflow for userID and returns the per-node result
// map. Graph-level failures return an error and an empty map; executor
// failures are stored as each node's result and never abort the run.
func (e *Engine) Run(ctx context.Context, w workflow.Workflow, userID string) (map[string]string, error) {
	e.prePass(ctx, w, userID)

	g, err := graph.Build(w)
	if err != nil {
		// Pre-pass registrations are deliberately kept.
		e.metrics.IncCounter(telemetry.MetricRuns, 1, "status", history.StatusFailed)
		e.record(ctx, w, userID, map[string]string{"error": err.Error()}, history.StatusFailed)
		return nil, err
	}

	broker := creds.NewBroker(userID, e.source, e.cipher)
	results := make(map[string]result.Result, len(w.Nodes))
	for _, id := range g.Order() {
		node, _ := w.NodeByID(id)
		inputs := e.inputs(g, id, results)
		started := time.Now()
		res := e.registry.Execute(ctx, nodes.Request{Node: node, Inputs: inputs, Creds: broker})
		e.metrics.RecordTimer(telemetry.MetricNodeDuration, time.Since(started), "kind", string(node.Kind))
		if res.IsError() {
			e.log.Warn(ctx, "node failed", "node", id, "kind", string(node.Kind), "result", res.Text)
		} else {
			e.log.Debug(ctx, "node executed", "node", id, "kind", string(node.Kind))
		}
		results[id] = res
	}

	out := make(map[string]string, len(results))
	for id, res := range results {
		out[id] = res.String()
	}
	e.metrics.IncCounter(telemetry.MetricRuns, 1, "status", history.StatusSuccess)
	e.record(ctx, w, userID, out, history.StatusSuccess)
	return out, nil
}

// prePass registers webhook workflows and schedule-node cron jobs
// before validation, matching the trigger-registration contract: a
// graph executed once stays triggerable even if this run fails.
func (e *Engine) prePass(ctx context.Context, w workflow.Workflow, userID string) {
	for _, n := range w.Nodes {
		switch n.Kind {
		case workflow.KindWebhook:
			e.store.Register(n.ID, w, userID)
			e.log.Info(ctx, "workflow registered for webhook trigger", "workflow_id", n.ID)
		case workflow.KindSchedule:
			if e.cron == nil {
				continue
			}
			expr := n.StringOr("cron", nodes.DefaultCron)
			id := ScheduledPrefix + n.ID
			e.store.Register(id, w, userID)
			if err := e.cron.Add(id, expr); err != nil {
				e.log.Error(ctx, "cron registration failed",
					"workflow_id", id, "cron", expr, "err", fmt.Sprint(err))
				continue
			}
			e.log.Info(ctx, "workflow scheduled", "workflow_id", id, "cron", expr)
		}
	}
}

// inputs assembles the immediate predecessors' results in the stable
// order the graph reports them.
func (e *Engine) inputs(g *graph.Graph, id string, results map[string]result.Result) []nodes.Input {
	preds := g.Predecessors(id)
	in := make([]nodes.Input, 0, len(preds))
	for _, p := range preds {
		res, ok := results[p]
		if !ok {
			continue
		}
		in = append(in, nodes.Input{NodeID: p, Result: res})
	}
	return in
}

// record appends the history row and bumps the user counter. Both are
// best-effort: failures are logged and swallowed.
func (e *Engine) record(ctx context.Context, w workflow.Workflow, userID string, results map[string]string, status string) {
	if e.history == nil {
		return
	}
	rec := history.Record{
		UserID:     userID,
		Nodes:      w.Nodes,
		Edges:      w.Edges,
		Result:     results,
		ExecutedAt: time.Now().UTC(),
		Status:     status,
	}
	if err := e.history.SaveExecution(ctx, rec); err != nil {
		e.log.Error(ctx, "history write failed", "err", fmt.Sprint(err))
	}
	if userID == "" {
		return
	}
	if err := e.history.IncrementExecutionCount(ctx, userID); err != nil {
		e.log.Error(ctx, "execution counter update failed", "user_id", userID, "err", fmt.Sprint(err))
	}
}
