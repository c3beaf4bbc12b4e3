// Package router implements webhook-triggered execution: explicit
// registration of workflows under an id, payload injection into webhook
// nodes, and engine invocation on trigger.
package router

import (
	"context"
	"fmt"

	"github.com/autoflow/autoflow/runtime/workflow"
	"github.com/autoflow/autoflow/runtime/workflow/store"
	"github.com/autoflow/autoflow/runtime/workflow/telemetry"
)

type (
	// Runner is the engine seam.
	Runner interface {
		Run(ctx context.Context, w workflow.Workflow, userID string) (map[string]string, error)
	}

	// Router serves the register/trigger/list operations over the
	// process-wide workflow store.
	Router struct {
		store  *store.Store
		runner Runner
		log    telemetry.Logger
	}

	// Trigger is an inbound webhook invocation.
	Trigger struct {
		Payload any    `json:"payload"`
		Source  string `json:"source,omitempty"`
	}
)

// New builds a router over the shared store.
func New(s *store.Store, r Runner, log telemetry.Logger) *Router {
	if log == nil {
		log = telemetry.NewNoopLogger()
	}
	return &Router{store: s, runner: r, log: log}
}

// Register stores the workflow under id for later triggering. The
// latest registration under an id wins.
func (r *Router) Register(ctx context.Context, id string, w workflow.Workflow, userID string) {
	r.store.Register(id, w, userID)
	r.log.Info(ctx, "workflow registered", "workflow_id", id)
}

// Trigger looks up the stored workflow, injects the payload into every
// webhook node's config and runs the engine.
func (r *Router) Trigger(ctx context.Context, id string, t Trigger) (map[string]string, error) {
	w, userID, err := r.store.Get(id)
	if err != nil {
		return nil, fmt.Errorf("trigger %s: %w", id, err)
	}
	for i := range w.Nodes {
		if w.Nodes[i].Kind != workflow.KindWebhook {
			continue
		}
		if w.Nodes[i].Config == nil {
			w.Nodes[i].Config = make(map[string]any, 2)
		}
		w.Nodes[i].Config["webhook_payload"] = t.Payload
		if t.Source != "" {
			w.Nodes[i].Config["webhook_source"] = t.Source
		} else {
			w.Nodes[i].Config["webhook_source"] = nil
		}
	}
	r.log.Info(ctx, "webhook trigger received", "workflow_id", id, "source", t.Source)
	return r.runner.Run(ctx, w, userID)
}

// List returns the registered workflow ids.
func (r *Router) List() []string {
	return r.store.List()
}
