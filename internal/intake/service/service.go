// Package service orchestrates the intake domain: draft lifecycle, step
// navigation, the submission pipeline, and the enriched case list.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"caseflow/internal/backend"
	"caseflow/internal/intake/draftstore"
	"caseflow/internal/intake/form"
	"caseflow/internal/intake/sharetoken"
	"caseflow/internal/intake/validation"
	"caseflow/internal/intake/wizard"
	"caseflow/internal/platform/metrics"
	"caseflow/pkg/audit"
	dErrors "caseflow/pkg/domain-errors"
	"caseflow/pkg/requestcontext"
	"caseflow/pkg/sentinel"
)

// IntakeBackend is the slice of the intake collaborator this service uses.
type IntakeBackend interface {
	List(ctx context.Context, page, size int, sort string) (backend.Page, error)
	Get(ctx context.Context, id string) (backend.Intake, error)
	Create(ctx context.Context, payload map[string]any) error
	Update(ctx context.Context, id string, payload map[string]any) error
}

// UserDirectory resolves user IDs to profiles for screener display names.
type UserDirectory interface {
	Get(ctx context.Context, id string) (backend.UserProfile, error)
}

// Service owns the intake workflows.
type Service struct {
	drafts  draftstore.Store
	backend IntakeBackend
	users   UserDirectory
	shares  *sharetoken.Service
	audit   *audit.Publisher
	metrics *metrics.Metrics
	logger  *slog.Logger
}

type Option func(*Service)

// WithShareTokens enables read-only share links.
func WithShareTokens(shares *sharetoken.Service) Option {
	return func(s *Service) { s.shares = shares }
}

// WithAudit attaches the audit publisher.
func WithAudit(p *audit.Publisher) Option {
	return func(s *Service) { s.audit = p }
}

// WithMetrics attaches the metrics registry.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func NewService(drafts draftstore.Store, intakeBackend IntakeBackend, users UserDirectory, opts ...Option) *Service {
	s := &Service{
		drafts:  drafts,
		backend: intakeBackend,
		users:   users,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// CreateDraft starts a wizard session. When editOf names a saved intake,
// its flattened payload is rehydrated over the fresh record and the draft
// submits back to the same intake ID.
func (s *Service) CreateDraft(ctx context.Context, editOf string) (*form.Draft, error) {
	now := requestcontext.Now(ctx)
	draft := form.NewDraft(uuid.NewString(), requestcontext.UserID(ctx), now)

	if editOf != "" {
		saved, err := s.backend.Get(ctx, editOf)
		if err != nil {
			return nil, err
		}
		draft.Record.Rehydrate(RecordFromPayload(saved.TypeSpecificData))
		draft.EditOf = editOf
	}

	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "save draft")
	}
	s.emit(ctx, audit.EventDraftCreated, draft.ID, "")
	return draft, nil
}

// GetDraft loads a draft owned by the caller.
func (s *Service) GetDraft(ctx context.Context, id string) (*form.Draft, error) {
	return s.loadOwned(ctx, id)
}

// DiscardDraft deletes a draft owned by the caller.
func (s *Service) DiscardDraft(ctx context.Context, id string) error {
	if _, err := s.loadOwned(ctx, id); err != nil {
		return err
	}
	if err := s.drafts.Delete(ctx, id); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "delete draft")
	}
	s.emit(ctx, audit.EventDraftDiscarded, id, "")
	return nil
}

// SetField writes one field for the given subject (1 = the root record)
// and persists the draft. Error flags for the field clear on write.
func (s *Service) SetField(ctx context.Context, draftID string, subject int, key, value string) (*form.Draft, error) {
	draft, err := s.loadOwned(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if err := draft.SetSubjectField(subject, key, value); err != nil {
		return nil, err
	}
	return s.save(ctx, draft)
}

// SetOnBehalfOf replaces the on-behalf-of multi-select.
func (s *Service) SetOnBehalfOf(ctx context.Context, draftID string, selection []string) (*form.Draft, error) {
	draft, err := s.loadOwned(ctx, draftID)
	if err != nil {
		return nil, err
	}
	draft.SetOnBehalfOf(selection)
	return s.save(ctx, draft)
}

// Advance validates the current step and moves forward when clean. The
// returned error set is the step's failures; the draft is persisted either
// way so the highlighting state survives a reload.
func (s *Service) Advance(ctx context.Context, draftID string) (*form.Draft, form.ErrorSet, error) {
	draft, err := s.loadOwned(ctx, draftID)
	if err != nil {
		return nil, nil, err
	}
	errs := wizard.Next(draft)
	if len(errs) > 0 {
		s.metrics.IncValidationFailure(stepLabel(draft.Position.Step))
	}
	draft, err = s.save(ctx, draft)
	return draft, errs, err
}

// Back moves one step back unconditionally.
func (s *Service) Back(ctx context.Context, draftID string) (*form.Draft, error) {
	draft, err := s.loadOwned(ctx, draftID)
	if err != nil {
		return nil, err
	}
	wizard.Prev(draft)
	return s.save(ctx, draft)
}

// JumpTo jumps to a step without validation.
func (s *Service) JumpTo(ctx context.Context, draftID string, step int) (*form.Draft, error) {
	draft, err := s.loadOwned(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if err := wizard.GoTo(draft, step); err != nil {
		return nil, err
	}
	return s.save(ctx, draft)
}

// SelectSubject switches the active person.
func (s *Service) SelectSubject(ctx context.Context, draftID string, index int) (*form.Draft, error) {
	draft, err := s.loadOwned(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if err := draft.SwitchSubject(index); err != nil {
		return nil, err
	}
	return s.save(ctx, draft)
}

// SubmitOutcome reports what happened to a submission attempt. When the
// cross-step validation fails, Validation carries the surfaced group and
// Submitted is false with a nil error: a validation miss is data, not a
// fault.
type SubmitOutcome struct {
	Submitted  bool
	Validation validation.Result
	Draft      *form.Draft
}

// Submit runs the final validation and, when clean, flattens the record
// and posts it to the intake backend. Success resets the draft to a fresh
// wizard; any backend failure leaves the draft exactly as it was so the
// user can retry.
func (s *Service) Submit(ctx context.Context, draftID string) (SubmitOutcome, error) {
	draft, err := s.loadOwned(ctx, draftID)
	if err != nil {
		return SubmitOutcome{}, err
	}

	res := wizard.Final(draft)
	if !res.Valid() {
		s.metrics.IncValidationFailure("final")
		draft, err = s.save(ctx, draft)
		if err != nil {
			return SubmitOutcome{}, err
		}
		return SubmitOutcome{Validation: res, Draft: draft}, nil
	}

	payload := map[string]any{
		"type":             "accident",
		"typeSpecificData": Flatten(draft.Record),
	}

	action := audit.EventIntakeSubmitted
	if draft.EditOf != "" {
		action = audit.EventIntakeUpdated
		err = s.backend.Update(ctx, draft.EditOf, payload)
	} else {
		err = s.backend.Create(ctx, payload)
	}
	if err != nil {
		s.metrics.IncSubmissionFailure(failureReason(err))
		return SubmitOutcome{}, err
	}

	target := draft.EditOf
	draft.Reset(requestcontext.Now(ctx))
	draft, saveErr := s.save(ctx, draft)
	if saveErr != nil {
		// The intake went through; a failed reset must not read as a
		// failed submission.
		s.logger.ErrorContext(ctx, "draft reset after submit failed", "draft_id", draftID, "error", saveErr)
		draft = nil
	}

	s.metrics.IncSubmitted()
	s.emit(ctx, action, target, "")
	return SubmitOutcome{Submitted: true, Validation: res, Draft: draft}, nil
}

// ListItem is one case row with its screener name resolved.
type ListItem struct {
	backend.Intake
	ScreenerName string `json:"screenerName"`
}

// ListStats are the list header rollups, computed over the fetched page.
type ListStats struct {
	ByStatus map[string]int `json:"byStatus"`
	ByType   map[string]int `json:"byType"`
}

// ListPage is the enriched paginated case list.
type ListPage struct {
	TotalPages    int       `json:"totalPages"`
	TotalElements int       `json:"totalElements"`
	Items         []ListItem `json:"items"`
	Stats         ListStats  `json:"stats"`
}

// List fetches one page of intakes and resolves each row's screener
// display name, deduplicating lookups across rows. A failed lookup renders
// as "-" and never fails the page.
func (s *Service) List(ctx context.Context, page, size int, sort string) (ListPage, error) {
	fetched, err := s.backend.List(ctx, page, size, sort)
	if err != nil {
		return ListPage{}, err
	}

	names := s.resolveScreeners(ctx, fetched.Content)

	out := ListPage{
		TotalPages:    fetched.TotalPages,
		TotalElements: fetched.TotalElements,
		Items:         make([]ListItem, 0, len(fetched.Content)),
		Stats: ListStats{
			ByStatus: map[string]int{},
			ByType:   map[string]int{},
		},
	}
	for _, intake := range fetched.Content {
		name := names[intake.ScreenerID]
		if name == "" {
			name = "-"
		}
		out.Items = append(out.Items, ListItem{Intake: intake, ScreenerName: name})
		if intake.Status != "" {
			out.Stats.ByStatus[intake.Status]++
		}
		if intake.Type != "" {
			out.Stats.ByType[intake.Type]++
		}
	}
	return out, nil
}

// resolveScreeners scatter/gathers the user lookups for a page. Lookups
// run concurrently; failures are logged and counted but tolerated.
func (s *Service) resolveScreeners(ctx context.Context, intakes []backend.Intake) map[string]string {
	ids := make([]string, 0, len(intakes))
	seen := make(map[string]bool, len(intakes))
	for _, intake := range intakes {
		if intake.ScreenerID == "" || seen[intake.ScreenerID] {
			continue
		}
		seen[intake.ScreenerID] = true
		ids = append(ids, intake.ScreenerID)
	}

	names := make(map[string]string, len(ids))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			profile, err := s.users.Get(gctx, id)
			if err != nil {
				s.logger.WarnContext(ctx, "screener lookup failed", "user_id", id, "error", err)
				s.metrics.IncScreenerLookup("miss")
				return nil
			}
			s.metrics.IncScreenerLookup("hit")
			mu.Lock()
			names[id] = profile.DisplayName()
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return names
}

// Get fetches one intake's detail.
func (s *Service) Get(ctx context.Context, id string) (backend.Intake, error) {
	return s.backend.Get(ctx, id)
}

// QuickReport handles the one-shot accident report form: the step 1 and 2
// rules run against the record in a single pass, and a clean record goes
// straight to the backend without a draft.
func (s *Service) QuickReport(ctx context.Context, record form.Record) (form.ErrorSet, error) {
	errs := validation.Step(1, record, record.Fields)
	for k := range validation.Step(2, record, record.Fields) {
		errs[k] = true
	}
	if len(errs) > 0 {
		s.metrics.IncValidationFailure("quick_report")
		return errs, nil
	}

	payload := map[string]any{
		"type":             "accident",
		"typeSpecificData": Flatten(record),
	}
	if err := s.backend.Create(ctx, payload); err != nil {
		s.metrics.IncSubmissionFailure(failureReason(err))
		return nil, err
	}
	s.metrics.IncSubmitted()
	s.emit(ctx, audit.EventIntakeSubmitted, "", "quick report")
	return nil, nil
}

// ShareLink mints a signed read-only link token for a submitted intake.
func (s *Service) ShareLink(ctx context.Context, intakeID string) (string, error) {
	if s.shares == nil {
		return "", dErrors.New(dErrors.CodeUnavailable, "share links are not enabled")
	}
	// Confirm the intake exists before handing out a capability to it.
	if _, err := s.backend.Get(ctx, intakeID); err != nil {
		return "", err
	}
	return s.shares.Issue(intakeID, requestcontext.UserID(ctx), requestcontext.Now(ctx))
}

// Shared resolves a share token and returns the intake it points at.
func (s *Service) Shared(ctx context.Context, token string) (backend.Intake, error) {
	if s.shares == nil {
		return backend.Intake{}, dErrors.New(dErrors.CodeUnavailable, "share links are not enabled")
	}
	claims, err := s.shares.Validate(token)
	if err != nil {
		return backend.Intake{}, err
	}
	return s.backend.Get(ctx, claims.IntakeID)
}

func (s *Service) loadOwned(ctx context.Context, id string) (*form.Draft, error) {
	draft, err := s.drafts.Get(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "draft not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load draft")
	}
	if owner := requestcontext.UserID(ctx); owner != "" && draft.OwnerID != owner {
		return nil, dErrors.New(dErrors.CodeForbidden, "draft belongs to another user")
	}
	return draft, nil
}

func (s *Service) save(ctx context.Context, draft *form.Draft) (*form.Draft, error) {
	draft.UpdatedAt = requestcontext.Now(ctx)
	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "save draft")
	}
	return draft, nil
}

func (s *Service) emit(ctx context.Context, action, subject, reason string) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Emit(ctx, audit.Event{
		UserID:  requestcontext.UserID(ctx),
		Subject: subject,
		Action:  action,
		Reason:  reason,
	})
}

func failureReason(err error) string {
	if dErrors.HasCode(err, dErrors.CodeUnavailable) {
		return "network"
	}
	return "rejected"
}

func stepLabel(step int) string {
	return "step_" + strconv.Itoa(step)
}
