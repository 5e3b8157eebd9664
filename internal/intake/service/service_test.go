package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caseflow/internal/backend"
	"caseflow/internal/intake/draftstore"
	"caseflow/internal/intake/form"
	"caseflow/internal/intake/validation"
	dErrors "caseflow/pkg/domain-errors"
	"caseflow/pkg/requestcontext"
)

type fakeBackend struct {
	mu       sync.Mutex
	created  []map[string]any
	updated  map[string]map[string]any
	page     backend.Page
	intakes  map[string]backend.Intake
	listErr  error
	writeErr error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		updated: map[string]map[string]any{},
		intakes: map[string]backend.Intake{},
	}
}

func (f *fakeBackend) List(_ context.Context, _, _ int, _ string) (backend.Page, error) {
	if f.listErr != nil {
		return backend.Page{}, f.listErr
	}
	return f.page, nil
}

func (f *fakeBackend) Get(_ context.Context, id string) (backend.Intake, error) {
	intake, ok := f.intakes[id]
	if !ok {
		return backend.Intake{}, dErrors.New(dErrors.CodeNotFound, "no such intake")
	}
	return intake, nil
}

func (f *fakeBackend) Create(_ context.Context, payload map[string]any) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, payload)
	return nil
}

func (f *fakeBackend) Update(_ context.Context, id string, payload map[string]any) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated[id] = payload
	return nil
}

type fakeUsers struct {
	mu       sync.Mutex
	profiles map[string]backend.UserProfile
	calls    int
}

func (f *fakeUsers) Get(_ context.Context, id string) (backend.UserProfile, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	profile, ok := f.profiles[id]
	if !ok {
		return backend.UserProfile{}, dErrors.New(dErrors.CodeNotFound, "no such user")
	}
	return profile, nil
}

func newTestService(t *testing.T, be *fakeBackend, users *fakeUsers) *Service {
	t.Helper()
	if users == nil {
		users = &fakeUsers{profiles: map[string]backend.UserProfile{}}
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(draftstore.NewInMemoryStore(0), be, users, WithLogger(logger))
}

func authedCtx(userID string) context.Context {
	ctx := requestcontext.WithUserID(context.Background(), userID)
	return requestcontext.WithTime(ctx, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
}

func completeDraft(t *testing.T, svc *Service, ctx context.Context) *form.Draft {
	t.Helper()
	draft, err := svc.CreateDraft(ctx, "")
	require.NoError(t, err)
	for key, value := range map[string]string{
		form.FieldFirstName:      "Maria",
		form.FieldLastName:       "Lopez",
		form.FieldPhoneNumber:    "555-0100",
		form.FieldInvolvedInAuto: form.No,
		form.FieldAssignedLawyer: "lawyer-7",
		form.FieldSignature:      "Maria Lopez",
		form.FieldDisclosure:     form.Yes,
	} {
		_, err := svc.SetField(ctx, draft.ID, 1, key, value)
		require.NoError(t, err)
	}
	_, err = svc.SetOnBehalfOf(ctx, draft.ID, []string{validation.OnBehalfMyself})
	require.NoError(t, err)
	return draft
}

func TestSubmitSuccessResetsDraft(t *testing.T) {
	be := newFakeBackend()
	svc := newTestService(t, be, nil)
	ctx := authedCtx("u-1")
	draft := completeDraft(t, svc, ctx)

	outcome, err := svc.Submit(ctx, draft.ID)
	require.NoError(t, err)
	assert.True(t, outcome.Submitted)

	require.Len(t, be.created, 1)
	data, ok := be.created[0]["typeSpecificData"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Maria", data[form.FieldFirstName])

	// The draft survives as a fresh wizard at step 1.
	reloaded, err := svc.GetDraft(ctx, draft.ID)
	require.NoError(t, err)
	assert.Empty(t, reloaded.Record.Fields)
	assert.Equal(t, form.WizardPosition{Step: 1, Subject: 1}, reloaded.Position)
}

func TestSubmitValidationFailureIsDataNotError(t *testing.T) {
	be := newFakeBackend()
	svc := newTestService(t, be, nil)
	ctx := authedCtx("u-1")

	draft, err := svc.CreateDraft(ctx, "")
	require.NoError(t, err)

	outcome, err := svc.Submit(ctx, draft.ID)
	require.NoError(t, err)
	assert.False(t, outcome.Submitted)
	assert.Equal(t, 1, outcome.Validation.TargetStep)
	assert.Empty(t, be.created)

	// The merged errors and repositioning were persisted.
	reloaded, err := svc.GetDraft(ctx, draft.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.Errors[form.FieldFirstName])
	assert.Equal(t, 1, reloaded.Position.Step)
}

func TestSubmitBackendFailureLeavesDraftUntouched(t *testing.T) {
	be := newFakeBackend()
	be.writeErr = dErrors.New(dErrors.CodeUnavailable, "could not reach intake service")
	svc := newTestService(t, be, nil)
	ctx := authedCtx("u-1")
	draft := completeDraft(t, svc, ctx)

	_, err := svc.Submit(ctx, draft.ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))

	// Fields retain their last entered values for retry.
	reloaded, err := svc.GetDraft(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, "Maria", reloaded.Record.Fields[form.FieldFirstName])
}

func TestSubmitEditModeUsesUpdate(t *testing.T) {
	be := newFakeBackend()
	be.intakes["intake-42"] = backend.Intake{
		ID: "intake-42",
		TypeSpecificData: map[string]any{
			form.FieldFirstName:   "Maria",
			form.FieldLastName:    "Lopez",
			form.FieldPhoneNumber: "555-0100",
			"onBehalfOf":          []any{validation.OnBehalfMyself},
		},
	}
	svc := newTestService(t, be, nil)
	ctx := authedCtx("u-1")

	draft, err := svc.CreateDraft(ctx, "intake-42")
	require.NoError(t, err)
	assert.Equal(t, "Maria", draft.Record.Fields[form.FieldFirstName])
	assert.Equal(t, []string{validation.OnBehalfMyself}, draft.Record.OnBehalfOf)

	for key, value := range map[string]string{
		form.FieldInvolvedInAuto: form.No,
		form.FieldAssignedLawyer: "lawyer-7",
		form.FieldSignature:      "Maria Lopez",
		form.FieldDisclosure:     form.Yes,
	} {
		_, err := svc.SetField(ctx, draft.ID, 1, key, value)
		require.NoError(t, err)
	}

	outcome, err := svc.Submit(ctx, draft.ID)
	require.NoError(t, err)
	assert.True(t, outcome.Submitted)
	assert.Empty(t, be.created)
	assert.Contains(t, be.updated, "intake-42")
}

func TestSubmitFlattensOnlyInRangeOverlays(t *testing.T) {
	be := newFakeBackend()
	svc := newTestService(t, be, nil)
	ctx := authedCtx("u-1")
	draft := completeDraft(t, svc, ctx)

	_, err := svc.SetField(ctx, draft.ID, 1, form.FieldNumberOfPersons, "2")
	require.NoError(t, err)
	_, err = svc.SetField(ctx, draft.ID, 2, form.FieldFirstName, "Jose")
	require.NoError(t, err)
	_, err = svc.SetField(ctx, draft.ID, 2, form.FieldLastName, "Lopez")
	require.NoError(t, err)

	outcome, err := svc.Submit(ctx, draft.ID)
	require.NoError(t, err)
	require.True(t, outcome.Submitted)

	data := be.created[0]["typeSpecificData"].(map[string]any)
	persons := data["persons"].(map[string]map[string]string)
	assert.Contains(t, persons, "2")
	assert.NotContains(t, persons, "3")
}

func TestDraftOwnership(t *testing.T) {
	be := newFakeBackend()
	svc := newTestService(t, be, nil)

	draft, err := svc.CreateDraft(authedCtx("u-1"), "")
	require.NoError(t, err)

	_, err = svc.GetDraft(authedCtx("u-2"), draft.ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}

func TestGetDraftNotFound(t *testing.T) {
	svc := newTestService(t, newFakeBackend(), nil)
	_, err := svc.GetDraft(authedCtx("u-1"), "missing")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestListEnrichesScreenerNames(t *testing.T) {
	be := newFakeBackend()
	be.page = backend.Page{
		TotalPages:    1,
		TotalElements: 3,
		Content: []backend.Intake{
			{ID: "i-1", ScreenerID: "u-1", Status: "open", Type: "accident"},
			{ID: "i-2", ScreenerID: "u-1", Status: "open", Type: "accident"},
			{ID: "i-3", ScreenerID: "u-404", Status: "closed", Type: "injury"},
		},
	}
	users := &fakeUsers{profiles: map[string]backend.UserProfile{
		"u-1": {ID: "u-1", FirstName: "Dana", LastName: "Reyes"},
	}}
	svc := newTestService(t, be, users)

	page, err := svc.List(authedCtx("u-9"), 0, 10, "")
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	assert.Equal(t, "Dana Reyes", page.Items[0].ScreenerName)
	assert.Equal(t, "Dana Reyes", page.Items[1].ScreenerName)
	// Failed lookups render a placeholder dash, never an error.
	assert.Equal(t, "-", page.Items[2].ScreenerName)
	// Duplicate screener IDs resolve with one lookup.
	assert.Equal(t, 2, users.calls)

	assert.Equal(t, 2, page.Stats.ByStatus["open"])
	assert.Equal(t, 1, page.Stats.ByStatus["closed"])
	assert.Equal(t, 2, page.Stats.ByType["accident"])
}

func TestQuickReport(t *testing.T) {
	be := newFakeBackend()
	svc := newTestService(t, be, nil)
	ctx := authedCtx("u-1")

	record := form.NewRecord()
	errs, err := svc.QuickReport(ctx, record)
	require.NoError(t, err)
	assert.True(t, errs[form.FieldFirstName])
	assert.Empty(t, be.created)

	record.Fields[form.FieldFirstName] = "Maria"
	record.Fields[form.FieldLastName] = "Lopez"
	record.Fields[form.FieldPhoneNumber] = "555-0100"
	record.Fields[form.FieldInvolvedInAuto] = form.No
	record.OnBehalfOf = []string{validation.OnBehalfMyself}

	errs, err = svc.QuickReport(ctx, record)
	require.NoError(t, err)
	assert.Empty(t, errs)
	assert.Len(t, be.created, 1)
}
