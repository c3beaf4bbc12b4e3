// Package server exposes the execution core over HTTP: run, webhook
// registration and triggering, scheduling, file upload and document
// parsing.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/autoflow/autoflow/runtime/workflow"
	"github.com/autoflow/autoflow/runtime/workflow/nodes"
	"github.com/autoflow/autoflow/runtime/workflow/router"
	"github.com/autoflow/autoflow/runtime/workflow/sched"
	"github.com/autoflow/autoflow/runtime/workflow/store"
	"github.com/autoflow/autoflow/runtime/workflow/telemetry"
)

type (
	// Runner is the engine seam shared with the webhook router.
	Runner interface {
		Run(ctx context.Context, w workflow.Workflow, userID string) (map[string]string, error)
	}

	// Server wires the core services to HTTP handlers.
	Server struct {
		runner    Runner
		router    *router.Router
		scheduler *sched.Scheduler
		store     *store.Store
		parser    nodes.DocumentParser
		log       telemetry.Logger

		uploadsDir string
		reportsDir string
		imagesDir  string
	}

	// Options configures New. Runner, Router, Scheduler and Store are
	// required; Parser enables the upload/parse endpoints.
	Options struct {
		Runner    Runner
		Router    *router.Router
		Scheduler *sched.Scheduler
		Store     *store.Store
		Parser    nodes.DocumentParser
		Logger    telemetry.Logger

		UploadsDir string
		ReportsDir string
		ImagesDir  string
	}
)

// New validates the options and builds the server.
func New(opts Options) (*Server, error) {
	if opts.Runner == nil {
		return nil, errors.New("server: runner is required")
	}
	if opts.Router == nil {
		return nil, errors.New("server: webhook router is required")
	}
	if opts.Scheduler == nil {
		return nil, errors.New("server: scheduler is required")
	}
	if opts.Store == nil {
		return nil, errors.New("server: workflow store is required")
	}
	if opts.Logger == nil {
		opts.Logger = telemetry.NewNoopLogger()
	}
	if opts.UploadsDir == "" {
		opts.UploadsDir = "uploads"
	}
	if opts.ReportsDir == "" {
		opts.ReportsDir = "generated_reports"
	}
	if opts.ImagesDir == "" {
		opts.ImagesDir = "generated_images"
	}
	return &Server{
		runner:     opts.Runner,
		router:     opts.Router,
		scheduler:  opts.Scheduler,
		store:      opts.Store,
		parser:     opts.Parser,
		log:        opts.Logger,
		uploadsDir: opts.UploadsDir,
		reportsDir: opts.ReportsDir,
		imagesDir:  opts.ImagesDir,
	}, nil
}

// Handler builds the route tree. Middleware (request logging) is
// mounted by the caller so tests exercise bare handlers.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Post("/run", s.handleRun)
	r.Route("/webhook", func(r chi.Router) {
		r.Post("/register/{workflowID}", s.handleWebhookRegister)
		r.Post("/trigger/{workflowID}", s.handleWebhookTrigger)
		r.Get("/list", s.handleWebhookList)
	})
	r.Post("/schedule", s.handleScheduleAdd)
	r.Post("/schedule/stop/{workflowID}", s.handleScheduleStop)
	r.Get("/schedule/list", s.handleScheduleList)
	r.Post("/upload", s.handleUpload)
	r.Post("/parse-document", s.handleParseDocument)
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.uploadsDir))))
	r.Handle("/reports/*", http.StripPrefix("/reports/", http.FileServer(http.Dir(s.reportsDir))))
	r.Handle("/images/*", http.StripPrefix("/images/", http.FileServer(http.Dir(s.imagesDir))))
	return r
}
