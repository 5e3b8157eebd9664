package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"caseflow/internal/backend"
	"caseflow/internal/platform/middleware"
	"caseflow/pkg/audit"
	dErrors "caseflow/pkg/domain-errors"
	"caseflow/pkg/requestcontext"
	"caseflow/pkg/secrets"
	"caseflow/pkg/sentinel"
)

// AuthBackend is the slice of the upstream auth service this module uses.
type AuthBackend interface {
	Login(ctx context.Context, creds backend.Credentials) (backend.LoginResult, error)
	Logout(ctx context.Context) error
	Refresh(ctx context.Context) error
	Session(ctx context.Context) (backend.UserProfile, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	ResendCode(ctx context.Context, email string) error
	ConfirmEmail(ctx context.Context, email, code string) error
}

// Service manages local sessions around the upstream auth service.
type Service struct {
	store  Store
	auth   AuthBackend
	ttl    time.Duration
	audit  *audit.Publisher
	logger *slog.Logger
}

type Option func(*Service)

// WithAudit attaches the audit publisher.
func WithAudit(p *audit.Publisher) Option {
	return func(s *Service) { s.audit = p }
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func NewService(store Store, auth AuthBackend, ttl time.Duration, opts ...Option) *Service {
	s := &Service{store: store, auth: auth, ttl: ttl}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Login authenticates against the upstream service and mints a local
// session. The returned cookie value is "<sessionID>.<token>"; only the
// token's bcrypt hash is stored.
func (s *Service) Login(ctx context.Context, creds backend.Credentials) (Session, string, error) {
	result, err := s.auth.Login(ctx, creds)
	if err != nil {
		s.emit(ctx, audit.EventLoginFailed, creds.Email, dErrors.MessageOf(err))
		return Session{}, "", err
	}

	token, err := secrets.Generate()
	if err != nil {
		return Session{}, "", dErrors.Wrap(err, dErrors.CodeInternal, "generate session token")
	}
	hash, err := secrets.Hash(token)
	if err != nil {
		return Session{}, "", dErrors.Wrap(err, dErrors.CodeInternal, "hash session token")
	}

	now := requestcontext.Now(ctx)
	session := Session{
		ID:            uuid.NewString(),
		UserID:        result.UserID,
		UserName:      strings.TrimSpace(result.FirstName + " " + result.LastName),
		TokenHash:     hash,
		BackendCookie: result.Cookie,
		CreatedAt:     now,
		ExpiresAt:     now.Add(s.ttl),
	}
	if err := s.store.Save(ctx, session); err != nil {
		return Session{}, "", dErrors.Wrap(err, dErrors.CodeInternal, "save session")
	}

	s.emit(ctx, audit.EventLoginSucceeded, result.UserID, "")
	return session, session.ID + "." + token, nil
}

// Resolve validates a raw sid cookie value and returns the caller's
// identity. It satisfies middleware.SessionResolver.
func (s *Service) Resolve(ctx context.Context, cookieValue string) (middleware.Identity, error) {
	id, token, ok := strings.Cut(cookieValue, ".")
	if !ok || id == "" || token == "" {
		return middleware.Identity{}, dErrors.New(dErrors.CodeUnauthorized, "malformed session cookie")
	}

	session, err := s.store.Get(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return middleware.Identity{}, dErrors.New(dErrors.CodeUnauthorized, "session not found")
	}
	if err != nil {
		return middleware.Identity{}, dErrors.Wrap(err, dErrors.CodeInternal, "load session")
	}
	if session.Expired(requestcontext.Now(ctx)) {
		return middleware.Identity{}, dErrors.New(dErrors.CodeUnauthorized, "session expired")
	}
	if err := secrets.Verify(token, session.TokenHash); err != nil {
		return middleware.Identity{}, dErrors.New(dErrors.CodeUnauthorized, "invalid session token")
	}

	return middleware.Identity{
		UserID:        session.UserID,
		SessionID:     session.ID,
		UserName:      session.UserName,
		BackendCookie: session.BackendCookie,
	}, nil
}

// Logout deletes the local session and tells the upstream service. The
// upstream call is best effort: the local session is gone either way.
func (s *Service) Logout(ctx context.Context) error {
	sessionID := requestcontext.SessionID(ctx)
	if sessionID == "" {
		return dErrors.New(dErrors.CodeUnauthorized, "no active session")
	}
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "delete session")
	}
	if err := s.auth.Logout(ctx); err != nil {
		s.logger.WarnContext(ctx, "upstream logout failed", "error", err)
	}
	s.emit(ctx, audit.EventLogout, requestcontext.UserID(ctx), "")
	return nil
}

// Current returns the caller's view of their own session.
func (s *Service) Current(ctx context.Context) (Session, error) {
	sessionID := requestcontext.SessionID(ctx)
	if sessionID == "" {
		return Session{}, dErrors.New(dErrors.CodeUnauthorized, "no active session")
	}
	session, err := s.store.Get(ctx, sessionID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return Session{}, dErrors.New(dErrors.CodeUnauthorized, "session not found")
	}
	if err != nil {
		return Session{}, dErrors.Wrap(err, dErrors.CodeInternal, "load session")
	}
	return session, nil
}

// Refresh extends the local session deadline and pings the upstream
// refresh endpoint so both sides stay alive together.
func (s *Service) Refresh(ctx context.Context) (Session, error) {
	session, err := s.Current(ctx)
	if err != nil {
		return Session{}, err
	}
	if err := s.auth.Refresh(ctx); err != nil {
		return Session{}, err
	}
	session.ExpiresAt = requestcontext.Now(ctx).Add(s.ttl)
	if err := s.store.Save(ctx, session); err != nil {
		return Session{}, dErrors.Wrap(err, dErrors.CodeInternal, "save session")
	}
	return session, nil
}

// ForgotPassword proxies the recovery flow.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	return s.auth.ForgotPassword(ctx, email)
}

// ResetPassword proxies the recovery completion.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	return s.auth.ResetPassword(ctx, token, newPassword)
}

// ResendCode proxies the confirmation-code resend.
func (s *Service) ResendCode(ctx context.Context, email string) error {
	return s.auth.ResendCode(ctx, email)
}

// ConfirmEmail proxies the registration confirmation.
func (s *Service) ConfirmEmail(ctx context.Context, email, code string) error {
	return s.auth.ConfirmEmail(ctx, email, code)
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
