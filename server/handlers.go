package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/autoflow/autoflow/runtime/workflow"
	"github.com/autoflow/autoflow/runtime/workflow/router"
	"github.com/autoflow/autoflow/runtime/workflow/sched"
	"github.com/autoflow/autoflow/runtime/workflow/store"
)

// userHeader carries the authenticated user id; authentication proper
// happens upstream of this service.
const userHeader = "X-User-ID"

const maxUploadSize = 25 << 20 // 25 MiB

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var wf workflow.Workflow
	if err := json.NewDecoder(r.Body).Decode(&wf); err != nil {
		writeError(w, http.StatusBadRequest, "invalid workflow payload")
		return
	}
	results, err := s.runner.Run(r.Context(), wf, r.Header.Get(userHeader))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": results})
}

func (s *Server) handleWebhookRegister(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "workflowID")
	var wf workflow.Workflow
	if err := json.NewDecoder(r.Body).Decode(&wf); err != nil {
		writeError(w, http.StatusBadRequest, "invalid workflow payload")
		return
	}
	s.router.Register(r.Context(), id, wf, r.Header.Get(userHeader))
	writeJSON(w, http.StatusOK, map[string]any{
		"message":     fmt.Sprintf("Workflow %s registered for webhook triggering", id),
		"webhook_url": "/webhook/trigger/" + id,
	})
}

func (s *Server) handleWebhookTrigger(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "workflowID")
	var trig router.Trigger
	if r.Body != nil {
		// An empty body triggers with a nil payload.
		if err := json.NewDecoder(r.Body).Decode(&trig); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid trigger payload")
			return
		}
	}
	results, err := s.router.Trigger(r.Context(), id, trig)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("Workflow %s not found", id))
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("Workflow %s triggered", id),
		"result":  results,
	})
}

func (s *Server) handleWebhookList(w http.ResponseWriter, _ *http.Request) {
	ids := s.router.List()
	writeJSON(w, http.StatusOK, map[string]any{
		"workflows": ids,
		"count":     len(ids),
	})
}

func (s *Server) handleScheduleAdd(w http.ResponseWriter, r *http.Request) {
	workflowID := r.URL.Query().Get("workflow_id")
	cron := r.URL.Query().Get("cron")
	if workflowID == "" || cron == "" {
		writeError(w, http.StatusBadRequest, "workflow_id and cron are required")
		return
	}
	// A workflow body stores the graph; without one the id must already
	// be registered (by a prior run or webhook registration).
	var wf workflow.Workflow
	if err := json.NewDecoder(r.Body).Decode(&wf); err == nil && len(wf.Nodes) > 0 {
		s.store.Register(workflowID, wf, r.Header.Get(userHeader))
	} else if _, _, err := s.store.Get(workflowID); err != nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Workflow %s not found", workflowID))
		return
	}
	if err := s.scheduler.Add(workflowID, cron); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("Workflow %s scheduled with cron '%s'", workflowID, cron),
	})
}

func (s *Server) handleScheduleStop(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "workflowID")
	if err := s.scheduler.Remove(id); err != nil {
		if errors.Is(err, sched.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("No scheduled job for workflow %s", id))
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("Schedule stopped for workflow %s", id),
	})
}

func (s *Server) handleScheduleList(w http.ResponseWriter, _ *http.Request) {
	jobs := s.scheduler.List()
	writeJSON(w, http.StatusOK, map[string]any{
		"scheduled_workflows": jobs,
		"count":               len(jobs),
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart payload")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	if err := os.MkdirAll(s.uploadsDir, 0o755); err != nil {
		writeError(w, http.StatusInternalServerError, "upload storage unavailable")
		return
	}
	name := fmt.Sprintf("%s_%s", uuid.NewString()[:8], filepath.Base(header.Filename))
	path := filepath.Join(s.uploadsDir, name)
	out, err := os.Create(path)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "upload storage unavailable")
		return
	}
	defer out.Close()
	if _, err := io.Copy(out, file); err != nil {
		writeError(w, http.StatusInternalServerError, "upload write failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "File uploaded",
		"file_path": path,
	})
}

func (s *Server) handleParseDocument(w http.ResponseWriter, r *http.Request) {
	if s.parser == nil {
		writeError(w, http.StatusServiceUnavailable, "document parsing not configured")
		return
	}
	var body struct {
		FilePath string `json:"file_path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.FilePath == "" {
		writeError(w, http.StatusBadRequest, "file_path is required")
		return
	}
	parsed, err := s.parser.Parse(r.Context(), body.FilePath)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "Document parsed",
		"parsed_file": parsed,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
