// Package audit captures key domain actions (intake submissions, logins,
// draft lifecycle) for operational and compliance visibility.
package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies and routing per category.
type EventCategory string

const (
	// CategoryCompliance covers events with legal significance for the firm.
	// Examples: intake submitted, intake updated, client record deleted.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring.
	// Examples: login failures, session revocations.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers events useful for debugging and visibility.
	// Examples: draft created, screener lookup degraded.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	UserID    string        `json:"user_id,omitempty"`
	Subject   string        `json:"subject"`
	Action    string        `json:"action"`
	Reason    string        `json:"reason,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
}

// Actions recorded by the intake portal.
const (
	EventIntakeSubmitted = "intake.submitted"
	EventIntakeUpdated   = "intake.updated"
	EventDraftCreated    = "intake.draft_created"
	EventDraftDiscarded  = "intake.draft_discarded"
	EventLoginSucceeded  = "auth.login_succeeded"
	EventLoginFailed     = "auth.login_failed"
	EventLogout          = "auth.logout"
	EventProcessCreated  = "l2l.process_created"
	EventWeekToggled     = "l2l.week_toggled"
)

// eventCategories maps actions to categories; unknown actions fall back to
// operations so nothing is dropped.
var eventCategories = map[string]EventCategory{
	EventIntakeSubmitted: CategoryCompliance,
	EventIntakeUpdated:   CategoryCompliance,
	EventDraftCreated:    CategoryOperations,
	EventDraftDiscarded:  CategoryOperations,
	EventLoginSucceeded:  CategorySecurity,
	EventLoginFailed:     CategorySecurity,
	EventLogout:          CategorySecurity,
	EventProcessCreated:  CategoryCompliance,
	EventWeekToggled:     CategoryOperations,
}

// CategoryOf returns the category for an action.
func CategoryOf(action string) EventCategory {
	if c, ok := eventCategories[action]; ok {
		return c
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByUser(ctx context.Context, userID string) ([]Event, error)
}

// Sink receives a copy of every event for out-of-process delivery (Kafka).
// Sinks are best-effort: a failing sink never fails the emitting operation.
type Sink interface {
	Send(ctx context.Context, event Event) error
	Close()
}
