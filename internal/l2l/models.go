// Package l2l tracks the "lead-to-lead" coaching program: each client
// works through exactly twelve weekly sessions, and coaches mark every
// week as attended, missed, or still pending.
package l2l

import (
	"math"
	"time"
)

// WeekStatus is the tri-state outcome of one program week. The values are
// part of the stored data contract and must not be renamed.
type WeekStatus string

const (
	StatusCumplio   WeekStatus = "Cumplio"
	StatusNoCumplio WeekStatus = "no_cumplio"
	StatusPendiente WeekStatus = "pendiente"
)

// WeeksPerProcess is fixed: every client process has exactly 12 slots.
const WeeksPerProcess = 12

// Next rotates a week status one step along the strict cycle
// Cumplio → no_cumplio → pendiente → Cumplio.
func (s WeekStatus) Next() WeekStatus {
	switch s {
	case StatusCumplio:
		return StatusNoCumplio
	case StatusNoCumplio:
		return StatusPendiente
	default:
		return StatusCumplio
	}
}

// Process is one client's twelve-week program.
type Process struct {
	ID         string                      `json:"id"`
	ClientName string                      `json:"clientName"`
	Phone      string                      `json:"phone"`
	LeadSource string                      `json:"leadSource"`
	Weeks      [WeeksPerProcess]WeekStatus `json:"weeks"`
	CreatedAt  time.Time                   `json:"createdAt"`
	UpdatedAt  time.Time                   `json:"updatedAt"`
}

// NewProcess starts a program with every week pending.
func NewProcess(id, clientName, phone, leadSource string, now time.Time) Process {
	p := Process{
		ID:         id,
		ClientName: clientName,
		Phone:      phone,
		LeadSource: leadSource,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	for i := range p.Weeks {
		p.Weeks[i] = StatusPendiente
	}
	return p
}

// Attendance is the percentage of attended weeks, rounded to the nearest
// whole percent over the full twelve-week program.
func (p Process) Attendance() int {
	attended := 0
	for _, w := range p.Weeks {
		if w == StatusCumplio {
			attended++
		}
	}
	return int(math.Round(100 * float64(attended) / WeeksPerProcess))
}
