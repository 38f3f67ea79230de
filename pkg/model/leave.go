package model

import (
	"time"

	"github.com/google/uuid"
)

// LeaveStatus is the lifecycle state of a leave request.
type LeaveStatus string

const (
	LeavePending   LeaveStatus = "pending"
	LeaveApproved  LeaveStatus = "approved"
	LeaveRejected  LeaveStatus = "rejected"
	LeaveCancelled LeaveStatus = "cancelled"
)

// ConflictHandling is the closed set of ways a leave type interacts with
// shift products.
type ConflictHandling string

const (
	// ConflictFullUnavailable blocks every product during the leave interval.
	ConflictFullUnavailable ConflictHandling = "full_unavailable"
	// ConflictDaytimeOnly blocks only business-hours products; waakdienst
	// remains available.
	ConflictDaytimeOnly ConflictHandling = "daytime_only"
	// ConflictNone is advisory only and never blocks.
	ConflictNone ConflictHandling = "no_conflict"
)

// LeaveRequest is the read model of a leave request. Only approved requests
// block scheduling; pending ones are informational.
type LeaveRequest struct {
	BaseModel
	EmployeeID uuid.UUID        `json:"employee_id" db:"employee_id"`
	Start      time.Time        `json:"start" db:"start_ts"`
	End        time.Time        `json:"end" db:"end_ts"`
	Status     LeaveStatus      `json:"status" db:"status"`
	LeaveType  string           `json:"leave_type" db:"leave_type"`
	Handling   ConflictHandling `json:"conflict_handling" db:"conflict_handling"`
}

// Range returns the leave interval.
func (l *LeaveRequest) Range() TimeRange {
	return TimeRange{Start: l.Start, End: l.End}
}

// Blocks reports whether this leave makes the employee infeasible for a
// product during the leave interval.
func (l *LeaveRequest) Blocks(p Product) bool {
	if l.Status != LeaveApproved {
		return false
	}
	switch l.Handling {
	case ConflictFullUnavailable:
		return true
	case ConflictDaytimeOnly:
		return p.BusinessHours()
	}
	return false
}

// CoverageType is the scope of a recurring leave pattern.
type CoverageType string

const (
	CoverageFull        CoverageType = "full"
	CoverageDaytimeOnly CoverageType = "daytime_only"
)

// Blocks reports whether the coverage type blocks a product.
func (c CoverageType) Blocks(p Product) bool {
	if c == CoverageFull {
		return true
	}
	return p.BusinessHours()
}

// RecurringLeavePattern is a weekly repeating unavailability, e.g. every
// Wednesday morning. Patterns are expanded lazily into concrete intervals
// over the planning horizon.
type RecurringLeavePattern struct {
	BaseModel
	EmployeeID uuid.UUID `json:"employee_id" db:"employee_id"`

	// Weekdays the pattern applies to.
	Weekdays []time.Weekday `json:"weekdays" db:"-"`

	// StartTime and EndTime are local times of day in HH:MM format.
	StartTime string `json:"start_time" db:"start_time"`
	EndTime   string `json:"end_time" db:"end_time"`

	EffectiveFrom  time.Time  `json:"effective_from" db:"effective_from"`
	EffectiveUntil *time.Time `json:"effective_until,omitempty" db:"effective_until"`

	Coverage CoverageType `json:"coverage_type" db:"coverage_type"`
}

// AppliesOn reports whether the pattern is active on a civil date.
func (r *RecurringLeavePattern) AppliesOn(date time.Time) bool {
	if date.Before(r.EffectiveFrom) {
		return false
	}
	if r.EffectiveUntil != nil && !date.Before(*r.EffectiveUntil) {
		return false
	}
	for _, wd := range r.Weekdays {
		if date.Weekday() == wd {
			return true
		}
	}
	return false
}

// IntervalOn expands the pattern to a concrete interval on a civil date in
// the given zone. The second return value is false when the pattern does not
// apply on that date.
func (r *RecurringLeavePattern) IntervalOn(date time.Time, loc *time.Location) (TimeRange, bool) {
	if !r.AppliesOn(date) {
		return TimeRange{}, false
	}
	start, err := atLocalTime(date, r.StartTime, loc)
	if err != nil {
		return TimeRange{}, false
	}
	end, err := atLocalTime(date, r.EndTime, loc)
	if err != nil {
		return TimeRange{}, false
	}
	if !end.After(start) {
		// Window crosses midnight.
		end = end.AddDate(0, 0, 1)
	}
	return TimeRange{Start: start, End: end}, true
}

// atLocalTime places an HH:MM time of day on a civil date in loc.
func atLocalTime(date time.Time, hhmm string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}

// Holiday is a civil date on which business-hours products are not scheduled
// unless the team overrides. Waakdienst continues on holidays.
type Holiday struct {
	Date  time.Time `json:"date" db:"date"`
	Name  string    `json:"name" db:"name"`
	Scope string    `json:"scope" db:"scope"` // national/regional/team
}
