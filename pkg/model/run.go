package model

import (
	"time"

	"github.com/google/uuid"
)

// RunMode selects between a dry run and a persisted run.
type RunMode string

const (
	ModePreview RunMode = "preview"
	ModeApply   RunMode = "apply"
)

// RunStatus is the lifecycle state of an orchestration run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// RunTotals summarizes a run's plan.
type RunTotals struct {
	WindowsGenerated int             `json:"windows_generated"`
	UnitsPlanned     int             `json:"units_planned"`
	ShiftsPlanned    int             `json:"shifts_planned"`
	Unassigned       int             `json:"unassigned"`
	Splits           int             `json:"splits"`
	Reassignments    int             `json:"reassignments"`
	ByProduct        map[Product]int `json:"by_product,omitempty"`
}

// FairnessBreakdown is the logged fairness state of one employee for one
// product at the end of a run.
type FairnessBreakdown struct {
	WeightedHours float64 `json:"weighted_hours"`
	PlanDebit     float64 `json:"plan_debit"`
	Assignments   int     `json:"assignments"`
}

// FairnessSnapshot is the per-product fairness state logged on the run.
type FairnessSnapshot map[Product]map[uuid.UUID]FairnessBreakdown

// OrchestrationRun is the audit record of a single planning run.
// Immutable after completion.
type OrchestrationRun struct {
	BaseModel
	TeamID       uuid.UUID        `json:"team_id" db:"team_id"`
	HorizonStart time.Time        `json:"horizon_start" db:"horizon_start"`
	HorizonEnd   time.Time        `json:"horizon_end" db:"horizon_end"`
	Mode         RunMode          `json:"mode" db:"mode"`
	Status       RunStatus        `json:"status" db:"status"`
	StartedAt    time.Time        `json:"started_at" db:"started_at"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty" db:"completed_at"`
	Totals       RunTotals        `json:"totals" db:"-"`
	Fairness     FairnessSnapshot `json:"fairness,omitempty" db:"-"`
}

// ConstraintKind classifies a constraint event.
type ConstraintKind string

const (
	ConstraintRecurringLeave   ConstraintKind = "recurring_leave"
	ConstraintApprovedLeave    ConstraintKind = "approved_leave"
	ConstraintDoubleAssignment ConstraintKind = "double_assignment"
	ConstraintSkillMismatch    ConstraintKind = "skill_mismatch"
	ConstraintOvertime         ConstraintKind = "overtime"
	ConstraintRestPeriod       ConstraintKind = "rest_period"
	ConstraintMinimumStaffing  ConstraintKind = "minimum_staffing"
)

// Severity grades a constraint event.
type Severity string

const (
	SeverityInfo      Severity = "info"
	SeverityWarning   Severity = "warning"
	SeverityViolation Severity = "violation"
)

// Resolution records how the planner dealt with a constraint event.
type Resolution string

const (
	ResolutionSkipped    Resolution = "skipped"
	ResolutionReassigned Resolution = "reassigned"
	ResolutionSplit      Resolution = "split"
	ResolutionAccepted   Resolution = "accepted"
)

// ConstraintEvent is one audit event emitted while planning: a candidate
// skipped, a unit split, a staffing gap. Violations are data, never errors.
type ConstraintEvent struct {
	ID          uuid.UUID      `json:"id" db:"id"`
	RunID       uuid.UUID      `json:"run_id" db:"run_id"`
	EmployeeID  *uuid.UUID     `json:"employee_id,omitempty" db:"employee_id"`
	Product     Product        `json:"product" db:"product"`
	WindowStart *time.Time     `json:"window_start,omitempty" db:"window_start"`
	Kind        ConstraintKind `json:"kind" db:"kind"`
	Severity    Severity       `json:"severity" db:"severity"`
	Resolution  Resolution     `json:"resolution" db:"resolution"`
	Note        string         `json:"note,omitempty" db:"note"`
}

// NewConstraintEvent builds an event with a fresh id.
func NewConstraintEvent(product Product, kind ConstraintKind, severity Severity, resolution Resolution) *ConstraintEvent {
	return &ConstraintEvent{
		ID:         uuid.New(),
		Product:    product,
		Kind:       kind,
		Severity:   severity,
		Resolution: resolution,
	}
}

// WithEmployee attaches the employee involved.
func (e *ConstraintEvent) WithEmployee(id uuid.UUID) *ConstraintEvent {
	e.EmployeeID = &id
	return e
}

// WithWindow attaches the window start involved.
func (e *ConstraintEvent) WithWindow(start time.Time) *ConstraintEvent {
	e.WindowStart = &start
	return e
}

// WithNote attaches a human-readable note.
func (e *ConstraintEvent) WithNote(note string) *ConstraintEvent {
	e.Note = note
	return e
}
