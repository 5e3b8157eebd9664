// Package handler is the intake feature's HTTP layer: draft lifecycle,
// wizard navigation, submission, the enriched case list, and share links.
// It decodes requests, delegates to the service, and writes the envelope;
// no business rules live here.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"caseflow/internal/backend"
	"caseflow/internal/intake/form"
	"caseflow/internal/intake/service"
	"caseflow/internal/platform/response"
	dErrors "caseflow/pkg/domain-errors"
)

// Service defines the intake operations the handler delegates to.
type Service interface {
	CreateDraft(ctx context.Context, editOf string) (*form.Draft, error)
	GetDraft(ctx context.Context, id string) (*form.Draft, error)
	DiscardDraft(ctx context.Context, id string) error
	SetField(ctx context.Context, draftID string, subject int, key, value string) (*form.Draft, error)
	SetOnBehalfOf(ctx context.Context, draftID string, selection []string) (*form.Draft, error)
	Advance(ctx context.Context, draftID string) (*form.Draft, form.ErrorSet, error)
	Back(ctx context.Context, draftID string) (*form.Draft, error)
	JumpTo(ctx context.Context, draftID string, step int) (*form.Draft, error)
	SelectSubject(ctx context.Context, draftID string, index int) (*form.Draft, error)
	Submit(ctx context.Context, draftID string) (service.SubmitOutcome, error)
	List(ctx context.Context, page, size int, sort string) (service.ListPage, error)
	Get(ctx context.Context, id string) (backend.Intake, error)
	QuickReport(ctx context.Context, record form.Record) (form.ErrorSet, error)
	ShareLink(ctx context.Context, intakeID string) (string, error)
	Shared(ctx context.Context, token string) (backend.Intake, error)
}

// Autocompleter is the address-suggestion collaborator.
type Autocompleter interface {
	Autocomplete(ctx context.Context, query string) ([]backend.Place, error)
}

// Handler handles intake endpoints.
type Handler struct {
	logger *slog.Logger
	intake Service
	places Autocompleter
}

// New creates the intake Handler. places may be nil when the autocomplete
// collaborator is not configured.
func New(intake Service, places Autocompleter, logger *slog.Logger) *Handler {
	return &Handler{
		logger: logger,
		intake: intake,
		places: places,
	}
}

// Register mounts the session-protected intake routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/accident-report", h.handleQuickReport)

	r.Route("/intake", func(r chi.Router) {
		r.Get("/", h.handleList)

		r.Route("/drafts", func(r chi.Router) {
			r.Post("/", h.handleCreateDraft)
			r.Route("/{draftID}", func(r chi.Router) {
				r.Get("/", h.handleGetDraft)
				r.Delete("/", h.handleDiscardDraft)
				r.Post("/fields", h.handleSetField)
				r.Post("/next", h.handleNext)
				r.Post("/prev", h.handlePrev)
				r.Post("/goto", h.handleGoTo)
				r.Post("/subject", h.handleSelectSubject)
				r.Post("/submit", h.handleSubmit)
			})
		})

		r.Get("/{intakeID}", h.handleGetIntake)
		r.Post("/{intakeID}/share", h.handleShareLink)
	})

	r.Get("/places/autocomplete", h.handleAutocomplete)
}

// RegisterPublic mounts the routes reachable without a session: the signed
// read-only share links.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/intake/shared/{token}", h.handleShared)
}

// draftView is the wizard state as the front end consumes it: the raw
// record plus the active subject's merged view and navigation strip.
type draftView struct {
	ID              string              `json:"id"`
	Position        form.WizardPosition `json:"position"`
	Record          form.Record         `json:"record"`
	Effective       form.Values         `json:"effective"`
	Errors          form.ErrorSet       `json:"errors"`
	Subjects        []form.SubjectLabel `json:"subjects,omitempty"`
	SourcePanelOpen bool                `json:"sourcePanelOpen"`
	EditOf          string              `json:"editOf,omitempty"`
}

func viewOf(d *form.Draft) draftView {
	return draftView{
		ID:              d.ID,
		Position:        d.Position,
		Record:          d.Record,
		Effective:       d.Record.Effective(d.Position.Subject),
		Errors:          d.Errors,
		Subjects:        d.VisibleSubjects(),
		SourcePanelOpen: d.SourcePanelOpen,
		EditOf:          d.EditOf,
	}
}

func (h *Handler) handleCreateDraft(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EditOf string `json:"editOf"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
			return
		}
	}

	draft, err := h.intake.CreateDraft(r.Context(), req.EditOf)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Created(w, viewOf(draft))
}

func (h *Handler) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	draft, err := h.intake.GetDraft(r.Context(), chi.URLParam(r, "draftID"))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, viewOf(draft))
}

func (h *Handler) handleDiscardDraft(w http.ResponseWriter, r *http.Request) {
	if err := h.intake.DiscardDraft(r.Context(), chi.URLParam(r, "draftID")); err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, nil)
}

func (h *Handler) handleSetField(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Subject    int      `json:"subject"`
		Key        string   `json:"key"`
		Value      string   `json:"value"`
		OnBehalfOf []string `json:"onBehalfOf"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	draftID := chi.URLParam(r, "draftID")
	var draft *form.Draft
	var err error
	if req.OnBehalfOf != nil {
		draft, err = h.intake.SetOnBehalfOf(r.Context(), draftID, req.OnBehalfOf)
	} else {
		if req.Subject == 0 {
			req.Subject = 1
		}
		if req.Key == "" {
			response.Error(w, dErrors.New(dErrors.CodeBadRequest, "field key is required"))
			return
		}
		draft, err = h.intake.SetField(r.Context(), draftID, req.Subject, req.Key, req.Value)
	}
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, viewOf(draft))
}

// stepResult pairs the draft view with the step errors that blocked it.
type stepResult struct {
	Draft  draftView     `json:"draft"`
	Errors form.ErrorSet `json:"errors,omitempty"`
}

func (h *Handler) handleNext(w http.ResponseWriter, r *http.Request) {
	draft, errs, err := h.intake.Advance(r.Context(), chi.URLParam(r, "draftID"))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, stepResult{Draft: viewOf(draft), Errors: errs})
}

func (h *Handler) handlePrev(w http.ResponseWriter, r *http.Request) {
	draft, err := h.intake.Back(r.Context(), chi.URLParam(r, "draftID"))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, viewOf(draft))
}

func (h *Handler) handleGoTo(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Step int `json:"step"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	draft, err := h.intake.JumpTo(r.Context(), chi.URLParam(r, "draftID"), req.Step)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, viewOf(draft))
}

func (h *Handler) handleSelectSubject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Index int `json:"index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	draft, err := h.intake.SelectSubject(r.Context(), chi.URLParam(r, "draftID"), req.Index)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, viewOf(draft))
}

// submitResult tells the front end whether the intake went through, and
// when validation blocked it, which step to send the user to.
type submitResult struct {
	Submitted  bool          `json:"submitted"`
	TargetStep int           `json:"targetStep,omitempty"`
	Errors     form.ErrorSet `json:"errors,omitempty"`
	Messages   []string      `json:"messages,omitempty"`
	Draft      *draftView    `json:"draft,omitempty"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.intake.Submit(r.Context(), chi.URLParam(r, "draftID"))
	if err != nil {
		response.Error(w, err)
		return
	}

	result := submitResult{
		Submitted:  outcome.Submitted,
		TargetStep: outcome.Validation.TargetStep,
		Errors:     outcome.Validation.Errors,
		Messages:   outcome.Validation.Messages,
	}
	if outcome.Draft != nil {
		v := viewOf(outcome.Draft)
		result.Draft = &v
	}
	// A validation miss is still a well-formed 200 answer, not an HTTP
	// error: the front end routes the user to TargetStep.
	response.OK(w, result)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 0)
	size := queryInt(r, "size", 20)
	sort := r.URL.Query().Get("sort")

	listPage, err := h.intake.List(r.Context(), page, size, sort)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, listPage)
}

func (h *Handler) handleGetIntake(w http.ResponseWriter, r *http.Request) {
	intake, err := h.intake.Get(r.Context(), chi.URLParam(r, "intakeID"))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, intake)
}

func (h *Handler) handleShareLink(w http.ResponseWriter, r *http.Request) {
	token, err := h.intake.ShareLink(r.Context(), chi.URLParam(r, "intakeID"))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Created(w, map[string]string{"token": token})
}

func (h *Handler) handleShared(w http.ResponseWriter, r *http.Request) {
	intake, err := h.intake.Shared(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, intake)
}

func (h *Handler) handleQuickReport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Fields     map[string]string `json:"fields"`
		OnBehalfOf []string          `json:"onBehalfOf"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	record := form.NewRecord()
	for k, v := range req.Fields {
		record.Fields[k] = v
	}
	record.OnBehalfOf = append(record.OnBehalfOf, req.OnBehalfOf...)

	errs, err := h.intake.QuickReport(r.Context(), record)
	if err != nil {
		response.Error(w, err)
		return
	}
	if len(errs) > 0 {
		response.OK(w, map[string]any{"submitted": false, "errors": errs})
		return
	}
	response.OK(w, map[string]any{"submitted": true})
}

func (h *Handler) handleAutocomplete(w http.ResponseWriter, r *http.Request) {
	if h.places == nil {
		response.Error(w, dErrors.New(dErrors.CodeUnavailable, "address autocomplete is not configured"))
		return
	}
	query := r.URL.Query().Get("q")
	if query == "" {
		response.OK(w, []suggestion{})
		return
	}

	places, err := h.places.Autocomplete(r.Context(), query)
	if err != nil {
		response.Error(w, err)
		return
	}
	suggestions := make([]suggestion, 0, len(places))
	for _, p := range places {
		suggestions = append(suggestions, suggestion{Label: p.Label(), Place: p})
	}
	response.OK(w, suggestions)
}

type suggestion struct {
	Label string        `json:"label"`
	Place backend.Place `json:"place"`
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
