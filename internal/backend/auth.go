package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	dErrors "caseflow/pkg/domain-errors"
)

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is what a successful upstream login yields: the user's
// identity plus the upstream session cookie to forward on later calls.
type LoginResult struct {
	UserID    string
	FirstName string
	LastName  string
	// Cookie is the upstream session cookie in "name=value" form.
	Cookie string
}

// AuthClient proxies the authentication service.
type AuthClient struct {
	*Client
}

// NewAuthClient wraps the shared transport.
func NewAuthClient(c *Client) *AuthClient {
	return &AuthClient{Client: c}
}

// Login authenticates against the upstream auth service. Unlike the other
// calls it must read response headers, so it bypasses the shared do helper.
func (c *AuthClient) Login(ctx context.Context, creds Credentials) (LoginResult, error) {
	payload, err := json.Marshal(creds)
	if err != nil {
		return LoginResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "encode credentials")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", bytes.NewReader(payload))
	if err != nil {
		return LoginResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return LoginResult{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "could not reach auth service")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return LoginResult{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "read auth response")
	}
	if resp.StatusCode >= 400 {
		return LoginResult{}, c.statusError("auth", resp.StatusCode, raw)
	}

	var body struct {
		ID        string `json:"id"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return LoginResult{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "decode auth response")
	}

	result := LoginResult{
		UserID:    body.ID,
		FirstName: body.FirstName,
		LastName:  body.LastName,
	}
	for _, cookie := range resp.Cookies() {
		result.Cookie = cookie.Name + "=" + cookie.Value
		break
	}
	return result, nil
}

// Logout invalidates the upstream session.
func (c *AuthClient) Logout(ctx context.Context) error {
	return c.do(ctx, "auth", "logout", http.MethodPost, "/auth/logout", nil, nil, nil)
}

// Refresh extends the upstream session.
func (c *AuthClient) Refresh(ctx context.Context) error {
	return c.do(ctx, "auth", "refresh", http.MethodPost, "/auth/refresh", nil, nil, nil)
}

// Session returns the upstream session's current user, used as a liveness
// probe for the stored cookie.
func (c *AuthClient) Session(ctx context.Context) (UserProfile, error) {
	var out UserProfile
	if err := c.do(ctx, "auth", "session", http.MethodGet, "/auth/session", nil, nil, &out); err != nil {
		return UserProfile{}, err
	}
	return out, nil
}

// ForgotPassword starts the password-recovery flow.
func (c *AuthClient) ForgotPassword(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	return c.do(ctx, "auth", "forgot_password", http.MethodPost, "/auth/forgot-password", nil, body, nil)
}

// ResetPassword completes the password-recovery flow.
func (c *AuthClient) ResetPassword(ctx context.Context, token, newPassword string) error {
	body := map[string]string{"token": token, "password": newPassword}
	return c.do(ctx, "auth", "reset_password", http.MethodPost, "/auth/reset-password", nil, body, nil)
}

// ResendCode re-sends the email confirmation code.
func (c *AuthClient) ResendCode(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	return c.do(ctx, "auth", "resend_code", http.MethodPost, "/auth/resend-code", nil, body, nil)
}

// ConfirmEmail confirms a pending registration.
func (c *AuthClient) ConfirmEmail(ctx context.Context, email, code string) error {
	body := map[string]string{"email": email, "code": code}
	return c.do(ctx, "auth", "confirm_email", http.MethodPost, "/auth/confirm-email", nil, body, nil)
}
