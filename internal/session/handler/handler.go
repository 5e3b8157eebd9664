// Package handler exposes the auth endpoints: login/logout around the
// local session, and thin proxies for the upstream password flows.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"caseflow/internal/backend"
	"caseflow/internal/platform/middleware"
	"caseflow/internal/platform/response"
	"caseflow/internal/session"
	dErrors "caseflow/pkg/domain-errors"
)

// Service defines the session operations the handler delegates to.
type Service interface {
	Login(ctx context.Context, creds backend.Credentials) (session.Session, string, error)
	Logout(ctx context.Context) error
	Current(ctx context.Context) (session.Session, error)
	Refresh(ctx context.Context) (session.Session, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	ResendCode(ctx context.Context, email string) error
	ConfirmEmail(ctx context.Context, email, code string) error
}

// Handler handles auth endpoints.
type Handler struct {
	logger   *slog.Logger
	sessions Service
	ttl      time.Duration
}

// New creates the auth Handler. ttl sets the sid cookie lifetime.
func New(sessions Service, ttl time.Duration, logger *slog.Logger) *Handler {
	return &Handler{
		logger:   logger,
		sessions: sessions,
		ttl:      ttl,
	}
}

// RegisterPublic mounts the routes reachable without a session.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)
	r.Post("/auth/forgot-password", h.handleForgotPassword)
	r.Post("/auth/reset-password", h.handleResetPassword)
	r.Post("/auth/resend-code", h.handleResendCode)
	r.Post("/auth/confirm-email", h.handleConfirmEmail)
}

// Register mounts the session-protected routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/logout", h.handleLogout)
	r.Post("/auth/refresh", h.handleRefresh)
	r.Get("/auth/session", h.handleSession)
}

// sessionView is what clients learn about their own session; token hashes
// and the upstream cookie never leave the server.
type sessionView struct {
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func viewOf(s session.Session) sessionView {
	return sessionView{
		UserID:    s.UserID,
		UserName:  s.UserName,
		ExpiresAt: s.ExpiresAt,
	}
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds backend.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		response.Error(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if creds.Email == "" || creds.Password == "" {
		response.Error(w, dErrors.New(dErrors.CodeBadRequest, "email and password are required"))
		return
	}

	sess, cookieValue, err := h.sessions.Login(r.Context(), creds)
	if err != nil {
		response.Error(w, err)
		return
	}

	h.setSessionCookie(w, cookieValue)
	response.OK(w, viewOf(sess))
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(r.Context()); err != nil {
		response.Error(w, err)
		return
	}
	h.clearSessionCookie(w)
	response.OK(w, nil)
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Current(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, viewOf(sess))
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Refresh(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, viewOf(sess))
}

func (h *Handler) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		response.Error(w, dErrors.New(dErrors.CodeBadRequest, "email is required"))
		return
	}
	if err := h.sessions.ForgotPassword(r.Context(), req.Email); err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, nil)
}

func (h *Handler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" || req.Password == "" {
		response.Error(w, dErrors.New(dErrors.CodeBadRequest, "token and password are required"))
		return
	}
	if err := h.sessions.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, nil)
}

func (h *Handler) handleResendCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		response.Error(w, dErrors.New(dErrors.CodeBadRequest, "email is required"))
		return
	}
	if err := h.sessions.ResendCode(r.Context(), req.Email); err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, nil)
}

func (h *Handler) handleConfirmEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Code == "" {
		response.Error(w, dErrors.New(dErrors.CodeBadRequest, "email and code are required"))
		return
	}
	if err := h.sessions.ConfirmEmail(r.Context(), req.Email, req.Code); err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, nil)
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(h.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
