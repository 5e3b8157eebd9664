package l2l

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"caseflow/pkg/audit"
	dErrors "caseflow/pkg/domain-errors"
	"caseflow/pkg/requestcontext"
	"caseflow/pkg/sentinel"
)

// Service owns the lead-to-lead workflows.
type Service struct {
	store  Store
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

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// QuickIntake starts a process from the minimal lead form: a name is
// enough, everything else is optional.
func (s *Service) QuickIntake(ctx context.Context, clientName, phone, leadSource string) (Process, error) {
	clientName = strings.TrimSpace(clientName)
	if clientName == "" {
		return Process{}, dErrors.New(dErrors.CodeBadRequest, "client name is required")
	}

	process := NewProcess(uuid.NewString(), clientName, strings.TrimSpace(phone), strings.TrimSpace(leadSource), requestcontext.Now(ctx))
	if err := s.store.Create(ctx, process); err != nil {
		return Process{}, dErrors.Wrap(err, dErrors.CodeInternal, "create process")
	}
	s.emit(ctx, audit.EventProcessCreated, process.ID)
	return process, nil
}

// Get returns one process.
func (s *Service) Get(ctx context.Context, id string) (Process, error) {
	process, err := s.store.Get(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return Process{}, dErrors.New(dErrors.CodeNotFound, "process not found")
	}
	if err != nil {
		return Process{}, dErrors.Wrap(err, dErrors.CodeInternal, "load process")
	}
	return process, nil
}

// List returns every process with attendance precomputed per row.
func (s *Service) List(ctx context.Context) ([]Process, error) {
	processes, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list processes")
	}
	return processes, nil
}

// ToggleWeek rotates one week slot a step along the status cycle and
// returns the updated process. Week numbers are 1-based.
func (s *Service) ToggleWeek(ctx context.Context, id string, week int) (Process, error) {
	if week < 1 || week > WeeksPerProcess {
		return Process{}, dErrors.New(dErrors.CodeBadRequest, "week number out of range")
	}

	process, err := s.Get(ctx, id)
	if err != nil {
		return Process{}, err
	}

	process.Weeks[week-1] = process.Weeks[week-1].Next()
	process.UpdatedAt = requestcontext.Now(ctx)
	if err := s.store.Update(ctx, process); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Process{}, dErrors.New(dErrors.CodeNotFound, "process not found")
		}
		return Process{}, dErrors.Wrap(err, dErrors.CodeInternal, "update process")
	}
	s.emit(ctx, audit.EventWeekToggled, id)
	return process, nil
}

// Replace overwrites a process's editable data wholesale. Used by the raw
// data endpoint where coaches correct records in place.
func (s *Service) Replace(ctx context.Context, process Process) (Process, error) {
	if process.ID == "" {
		return Process{}, dErrors.New(dErrors.CodeBadRequest, "process id is required")
	}
	for _, w := range process.Weeks {
		switch w {
		case StatusCumplio, StatusNoCumplio, StatusPendiente:
		default:
			return Process{}, dErrors.New(dErrors.CodeBadRequest, "unknown week status")
		}
	}

	current, err := s.Get(ctx, process.ID)
	if err != nil {
		return Process{}, err
	}
	process.CreatedAt = current.CreatedAt
	process.UpdatedAt = requestcontext.Now(ctx)
	if err := s.store.Update(ctx, process); err != nil {
		return Process{}, dErrors.Wrap(err, dErrors.CodeInternal, "update process")
	}
	return process, nil
}

func (s *Service) emit(ctx context.Context, action, subject string) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Emit(ctx, audit.Event{
		UserID:  requestcontext.UserID(ctx),
		Subject: subject,
		Action:  action,
	})
}
