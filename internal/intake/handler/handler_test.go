package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caseflow/internal/backend"
	"caseflow/internal/intake/draftstore"
	"caseflow/internal/intake/form"
	"caseflow/internal/intake/service"
	"caseflow/internal/intake/validation"
	dErrors "caseflow/pkg/domain-errors"
	"caseflow/pkg/requestcontext"
	"caseflow/pkg/testutil"
)

type stubBackend struct {
	created []map[string]any
	fail    error
}

func (s *stubBackend) List(context.Context, int, int, string) (backend.Page, error) {
	return backend.Page{TotalPages: 1, TotalElements: 1, Content: []backend.Intake{
		{ID: "i-1", Status: "open", Type: "accident", ScreenerID: "u-5"},
	}}, nil
}

func (s *stubBackend) Get(_ context.Context, id string) (backend.Intake, error) {
	return backend.Intake{ID: id, Status: "open"}, nil
}

func (s *stubBackend) Create(_ context.Context, payload map[string]any) error {
	if s.fail != nil {
		return s.fail
	}
	s.created = append(s.created, payload)
	return nil
}

func (s *stubBackend) Update(context.Context, string, map[string]any) error { return nil }

type stubUsers struct{}

func (stubUsers) Get(_ context.Context, id string) (backend.UserProfile, error) {
	return backend.UserProfile{ID: id, FirstName: "Dana", LastName: "Reyes"}, nil
}

type stubPlaces struct{}

func (stubPlaces) Autocomplete(context.Context, string) ([]backend.Place, error) {
	return []backend.Place{{Name: "Office Tower", FormattedAddress: "1 Main St"}}, nil
}

// authStub injects a fixed identity, standing in for RequireSession.
func authStub(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithUserID(r.Context(), "u-1")
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func newTestRouter(t *testing.T, be *stubBackend) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewService(draftstore.NewInMemoryStore(0), be, stubUsers{}, service.WithLogger(logger))
	h := New(svc, stubPlaces{}, logger)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authStub)
			h.Register(r)
		})
		h.RegisterPublic(r)
	})
	return r
}

type envelope struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func createDraft(t *testing.T, router http.Handler) string {
	t.Helper()
	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/api/intake/drafts", map[string]string{}))
	testutil.AssertStatus(t, rr, http.StatusCreated)
	env := testutil.UnmarshalResponse[envelope](t, rr)
	require.True(t, env.Success)
	id, _ := env.Data["id"].(string)
	require.NotEmpty(t, id)
	return id
}

func setField(t *testing.T, router http.Handler, draftID, key, value string) {
	t.Helper()
	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost,
		"/api/intake/drafts/"+draftID+"/fields", map[string]any{"key": key, "value": value}))
	testutil.AssertStatus(t, rr, http.StatusOK)
}

func TestDraftLifecycle(t *testing.T) {
	router := newTestRouter(t, &stubBackend{})
	draftID := createDraft(t, router)

	setField(t, router, draftID, form.FieldFirstName, "Maria")

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/intake/drafts/"+draftID))
	testutil.AssertStatus(t, rr, http.StatusOK)
	env := testutil.UnmarshalResponse[envelope](t, rr)
	record := env.Data["record"].(map[string]any)
	fields := record["fields"].(map[string]any)
	assert.Equal(t, "Maria", fields[form.FieldFirstName])
}

func TestNextBlockedReturnsErrors(t *testing.T) {
	router := newTestRouter(t, &stubBackend{})
	draftID := createDraft(t, router)

	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost,
		"/api/intake/drafts/"+draftID+"/next", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)
	env := testutil.UnmarshalResponse[envelope](t, rr)

	errs := env.Data["errors"].(map[string]any)
	assert.Equal(t, true, errs[form.FieldFirstName])
	draft := env.Data["draft"].(map[string]any)
	position := draft["position"].(map[string]any)
	assert.Equal(t, float64(1), position["step"])
}

func TestNextAdvances(t *testing.T) {
	router := newTestRouter(t, &stubBackend{})
	draftID := createDraft(t, router)

	setField(t, router, draftID, form.FieldFirstName, "Maria")
	setField(t, router, draftID, form.FieldLastName, "Lopez")
	setField(t, router, draftID, form.FieldPhoneNumber, "555-0100")
	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost,
		"/api/intake/drafts/"+draftID+"/fields", map[string]any{"onBehalfOf": []string{validation.OnBehalfMyself}}))
	testutil.AssertStatus(t, rr, http.StatusOK)

	rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost,
		"/api/intake/drafts/"+draftID+"/next", nil))
	env := testutil.UnmarshalResponse[envelope](t, rr)
	draft := env.Data["draft"].(map[string]any)
	position := draft["position"].(map[string]any)
	assert.Equal(t, float64(2), position["step"])
}

func TestSubmitValidationMissTargetsStep(t *testing.T) {
	router := newTestRouter(t, &stubBackend{})
	draftID := createDraft(t, router)

	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost,
		"/api/intake/drafts/"+draftID+"/submit", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)
	env := testutil.UnmarshalResponse[envelope](t, rr)
	assert.Equal(t, false, env.Data["submitted"])
	assert.Equal(t, float64(1), env.Data["targetStep"])
}

func TestSubmitBackendFailureKeepsEnvelope(t *testing.T) {
	be := &stubBackend{fail: dErrors.New(dErrors.CodeUnavailable, "could not reach intake service")}
	router := newTestRouter(t, be)
	draftID := createDraft(t, router)

	for key, value := range map[string]string{
		form.FieldFirstName:      "Maria",
		form.FieldLastName:       "Lopez",
		form.FieldPhoneNumber:    "555-0100",
		form.FieldInvolvedInAuto: form.No,
		form.FieldAssignedLawyer: "lawyer-7",
		form.FieldSignature:      "Maria Lopez",
		form.FieldDisclosure:     form.Yes,
	} {
		setField(t, router, draftID, key, value)
	}
	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost,
		"/api/intake/drafts/"+draftID+"/fields", map[string]any{"onBehalfOf": []string{validation.OnBehalfMyself}}))
	testutil.AssertStatus(t, rr, http.StatusOK)

	rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost,
		"/api/intake/drafts/"+draftID+"/submit", nil))
	testutil.AssertStatus(t, rr, http.StatusBadGateway)
	env := testutil.UnmarshalResponse[envelope](t, rr)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, "could not reach intake service", env.Error.Message)
}

func TestListEndpoint(t *testing.T) {
	router := newTestRouter(t, &stubBackend{})

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/intake?page=0&size=10"))
	testutil.AssertStatus(t, rr, http.StatusOK)
	env := testutil.UnmarshalResponse[envelope](t, rr)
	items := env.Data["items"].([]any)
	require.Len(t, items, 1)
	row := items[0].(map[string]any)
	assert.Equal(t, "Dana Reyes", row["screenerName"])
}

func TestQuickReportEndpoint(t *testing.T) {
	be := &stubBackend{}
	router := newTestRouter(t, be)

	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/api/accident-report", map[string]any{
		"fields": map[string]string{
			form.FieldFirstName:      "Maria",
			form.FieldLastName:       "Lopez",
			form.FieldPhoneNumber:    "555-0100",
			form.FieldInvolvedInAuto: form.No,
		},
		"onBehalfOf": []string{validation.OnBehalfMyself},
	}))
	testutil.AssertStatus(t, rr, http.StatusOK)
	env := testutil.UnmarshalResponse[envelope](t, rr)
	assert.Equal(t, true, env.Data["submitted"])
	assert.Len(t, be.created, 1)
}

func TestAutocompleteEndpoint(t *testing.T) {
	router := newTestRouter(t, &stubBackend{})

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/places/autocomplete?q=main"))
	testutil.AssertStatus(t, rr, http.StatusOK)
	body := testutil.ReadBody(t, rr)
	assert.Contains(t, string(body), "Office Tower, 1 Main St")
}
