package model

import (
	"time"

	"github.com/google/uuid"
)

// ShiftStatus is the lifecycle state of a planned shift.
type ShiftStatus string

const (
	// ShiftPlanned is an in-memory or previewed shift, not yet persisted as
	// active coverage.
	ShiftPlanned ShiftStatus = "planned"
	// ShiftApplied is persisted, active coverage.
	ShiftApplied ShiftStatus = "applied"
	// ShiftSuperseded is a prior applied row replaced by a newer apply.
	// Retained for audit, excluded from active coverage.
	ShiftSuperseded ShiftStatus = "superseded"
)

// Shift is the output entity of the orchestrator: one employee (or a gap)
// covering one window of one product. The idempotency key among
// non-superseded shifts is (team, product, start).
type Shift struct {
	BaseModel
	TeamID     uuid.UUID  `json:"team_id" db:"team_id"`
	TemplateID *uuid.UUID `json:"template_id,omitempty" db:"template_id"`
	Product    Product    `json:"product" db:"product"`

	// EmployeeID is nil for an unassigned placeholder, persisted so
	// downstream tooling can see the gap.
	EmployeeID *uuid.UUID `json:"employee_id,omitempty" db:"employee_id"`

	Start time.Time `json:"start" db:"start_ts"`
	End   time.Time `json:"end" db:"end_ts"`

	SourceRunID uuid.UUID   `json:"source_run_id" db:"source_run_id"`
	Status      ShiftStatus `json:"status" db:"status"`
}

// Range returns the shift interval.
func (s *Shift) Range() TimeRange {
	return TimeRange{Start: s.Start, End: s.End}
}

// Hours returns the shift duration in hours.
func (s *Shift) Hours() float64 {
	return s.End.Sub(s.Start).Hours()
}

// Assigned reports whether the shift has an assignee.
func (s *Shift) Assigned() bool {
	return s.EmployeeID != nil
}

// AssignedTo reports whether the shift is assigned to the given employee.
func (s *Shift) AssignedTo(empID uuid.UUID) bool {
	return s.EmployeeID != nil && *s.EmployeeID == empID
}

// SameAssignment reports whether other plans the identical coverage:
// same assignee (or both unassigned) and same end. Used by the apply phase
// to decide between keeping and superseding an existing row.
func (s *Shift) SameAssignment(other *Shift) bool {
	if !s.End.Equal(other.End) {
		return false
	}
	if (s.EmployeeID == nil) != (other.EmployeeID == nil) {
		return false
	}
	return s.EmployeeID == nil || *s.EmployeeID == *other.EmployeeID
}
