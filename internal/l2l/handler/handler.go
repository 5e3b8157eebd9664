// Package handler exposes the lead-to-lead endpoints.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"caseflow/internal/l2l"
	"caseflow/internal/platform/response"
	dErrors "caseflow/pkg/domain-errors"
)

// Service defines the l2l operations the handler delegates to.
type Service interface {
	QuickIntake(ctx context.Context, clientName, phone, leadSource string) (l2l.Process, error)
	Get(ctx context.Context, id string) (l2l.Process, error)
	List(ctx context.Context) ([]l2l.Process, error)
	ToggleWeek(ctx context.Context, id string, week int) (l2l.Process, error)
	Replace(ctx context.Context, process l2l.Process) (l2l.Process, error)
}

// Handler handles l2l endpoints.
type Handler struct {
	logger    *slog.Logger
	processes Service
}

// New creates the l2l Handler.
func New(processes Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:    logger,
		processes: processes,
	}
}

// Register mounts the session-protected l2l routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/l2l", func(r chi.Router) {
		r.Post("/quick-intake", h.handleQuickIntake)
		r.Get("/processes", h.handleList)
		r.Post("/processes", h.handleQuickIntake)
		r.Post("/processes/{processID}/weeks/{week}/toggle", h.handleToggleWeek)
		r.Get("/data", h.handleGetData)
		r.Post("/data", h.handlePostData)
	})
}

// processView is a process with its derived attendance percentage.
type processView struct {
	l2l.Process
	Attendance int `json:"attendance"`
}

func viewOf(p l2l.Process) processView {
	return processView{Process: p, Attendance: p.Attendance()}
}

func (h *Handler) handleQuickIntake(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClientName string `json:"clientName"`
		Phone      string `json:"phone"`
		LeadSource string `json:"leadSource"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	process, err := h.processes.QuickIntake(r.Context(), req.ClientName, req.Phone, req.LeadSource)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Created(w, viewOf(process))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	processes, err := h.processes.List(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}
	views := make([]processView, 0, len(processes))
	for _, p := range processes {
		views = append(views, viewOf(p))
	}
	response.OK(w, views)
}

func (h *Handler) handleToggleWeek(w http.ResponseWriter, r *http.Request) {
	week, err := strconv.Atoi(chi.URLParam(r, "week"))
	if err != nil {
		response.Error(w, dErrors.New(dErrors.CodeBadRequest, "week must be a number"))
		return
	}

	process, err := h.processes.ToggleWeek(r.Context(), chi.URLParam(r, "processID"), week)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, viewOf(process))
}

func (h *Handler) handleGetData(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		response.Error(w, dErrors.New(dErrors.CodeBadRequest, "id query parameter is required"))
		return
	}
	process, err := h.processes.Get(r.Context(), id)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, viewOf(process))
}

func (h *Handler) handlePostData(w http.ResponseWriter, r *http.Request) {
	var process l2l.Process
	if err := json.NewDecoder(r.Body).Decode(&process); err != nil {
		response.Error(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	updated, err := h.processes.Replace(r.Context(), process)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, viewOf(updated))
}
