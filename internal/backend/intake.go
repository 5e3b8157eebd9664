package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	dErrors "caseflow/pkg/domain-errors"
)

// Intake is one case record as the backend returns it. TypeSpecificData is
// the opaque flattened form payload; list rows usually omit it.
type Intake struct {
	ID               string         `json:"id"`
	Status           string         `json:"status"`
	Type             string         `json:"type"`
	ScreenerID       string         `json:"screenerId"`
	CreatedAt        string         `json:"createdAt"`
	TypeSpecificData map[string]any `json:"typeSpecificData,omitempty"`
}

// Page is the backend's pagination wrapper.
type Page struct {
	TotalPages    int      `json:"totalPages"`
	TotalElements int      `json:"totalElements"`
	Content       []Intake `json:"content"`
}

// IntakeClient talks to the intake service.
type IntakeClient struct {
	*Client
}

// NewIntakeClient wraps the shared transport.
func NewIntakeClient(c *Client) *IntakeClient {
	return &IntakeClient{Client: c}
}

// List fetches one page of intakes, passing pagination straight through.
func (c *IntakeClient) List(ctx context.Context, page, size int, sort string) (Page, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	if sort != "" {
		q.Set("sort", sort)
	}
	var out Page
	if err := c.do(ctx, "intake", "list", http.MethodGet, "/intake", q, nil, &out); err != nil {
		return Page{}, err
	}
	return out, nil
}

// Get fetches a single intake by ID.
func (c *IntakeClient) Get(ctx context.Context, id string) (Intake, error) {
	var out Intake
	if err := c.do(ctx, "intake", "get", http.MethodGet, "/intake/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return Intake{}, err
	}
	return out, nil
}

// Create submits a new intake and checks the success discriminator.
func (c *IntakeClient) Create(ctx context.Context, payload map[string]any) error {
	var env envelope
	if err := c.do(ctx, "intake", "create", http.MethodPost, "/intake", nil, payload, &env); err != nil {
		return err
	}
	return rejectionError(env)
}

// Update overwrites an existing intake and checks the success discriminator.
func (c *IntakeClient) Update(ctx context.Context, id string, payload map[string]any) error {
	var env envelope
	if err := c.do(ctx, "intake", "update", http.MethodPut, "/intake/"+url.PathEscape(id), nil, payload, &env); err != nil {
		return err
	}
	return rejectionError(env)
}

// rejectionError turns a completed-but-rejected envelope into a coded error
// carrying the backend's own message when it offered one.
func rejectionError(env envelope) error {
	if env.Success {
		return nil
	}
	msg := "the intake service rejected the submission"
	if env.Error != nil && env.Error.Message != "" {
		msg = env.Error.Message
	}
	return dErrors.New(dErrors.CodeBadRequest, msg)
}
