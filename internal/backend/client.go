// Package backend wraps the external case-management REST API and its
// sibling collaborators (user directory, auth, address autocomplete) in
// thin typed clients. The backend is an opaque system: these clients
// translate transport and envelope failures into coded errors and nothing
// more.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"caseflow/internal/platform/metrics"
	dErrors "caseflow/pkg/domain-errors"
	"caseflow/pkg/requestcontext"
)

// Client is the shared HTTP plumbing for all backend service clients.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewClient builds the shared transport. baseURL may be a bare path like
// "/v2" (same-origin deployments behind a proxy) or an absolute URL.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, m *metrics.Metrics) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
		metrics: m,
	}
}

// envelope is the success-discriminator body shape some backend endpoints
// answer with.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// do issues one JSON request. The caller's session cookie (captured at
// login) rides along on every call. A nil out skips body decoding.
func (c *Client) do(ctx context.Context, service, operation, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "encode request")
		}
		reader = bytes.NewReader(payload)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie := requestcontext.BackendAuth(ctx); cookie != "" {
		req.Header.Set("Cookie", cookie)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	c.metrics.ObserveBackend(service, operation, time.Since(start))
	if err != nil {
		c.logger.WarnContext(ctx, "backend request failed",
			"service", service,
			"operation", operation,
			"error", err,
		)
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "could not reach "+service+" service")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "read "+service+" response")
	}

	if resp.StatusCode >= 400 {
		return c.statusError(service, resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "decode "+service+" response")
	}
	return nil
}

// statusError maps an upstream non-2xx answer to a coded error, preferring
// the backend's own message when its body carries one.
func (c *Client) statusError(service string, status int, raw []byte) error {
	msg := upstreamMessage(raw)
	if msg == "" {
		msg = fmt.Sprintf("%s service returned status %d", service, status)
	}
	switch {
	case status == http.StatusUnauthorized:
		return dErrors.New(dErrors.CodeUnauthorized, msg)
	case status == http.StatusForbidden:
		return dErrors.New(dErrors.CodeForbidden, msg)
	case status == http.StatusNotFound:
		return dErrors.New(dErrors.CodeNotFound, msg)
	case status == http.StatusConflict:
		return dErrors.New(dErrors.CodeConflict, msg)
	case status < 500:
		return dErrors.New(dErrors.CodeBadRequest, msg)
	default:
		return dErrors.New(dErrors.CodeUnavailable, msg)
	}
}

// upstreamMessage pulls a human-readable reason out of an error body,
// accepting both the envelope form and a bare {"message": ...}.
func upstreamMessage(raw []byte) string {
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Error != nil && env.Error.Message != "" {
		return env.Error.Message
	}
	var flat struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &flat); err == nil {
		return flat.Message
	}
	return ""
}
