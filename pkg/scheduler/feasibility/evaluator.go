package feasibility

import (
	"time"

	"github.com/roosterd/roosterd/pkg/model"
	"github.com/roosterd/roosterd/pkg/scheduler/window"
)

// Outcome is the evaluator's judgement for one (employee, window) pair.
type Outcome string

const (
	// OutcomeOK: the assignment is clean.
	OutcomeOK Outcome = "ok"
	// OutcomeWarn: the assignment is allowed but leaves a gap the
	// reassignment pass must repair.
	OutcomeWarn Outcome = "warn"
	// OutcomeSkip: the assignment is forbidden.
	OutcomeSkip Outcome = "skip"
)

// Reason identifies which check produced a non-OK outcome.
type Reason string

const (
	ReasonAvailability        Reason = "availability"
	ReasonSkillMismatch       Reason = "skill_mismatch"
	ReasonApprovedLeaveFull   Reason = "approved_leave_full"
	ReasonApprovedLeaveDay    Reason = "approved_leave_daytime"
	ReasonRecurringLeave      Reason = "recurring_leave"
	ReasonDoubleAssignment    Reason = "double_assignment"
	ReasonRestPeriod          Reason = "rest_period"
	ReasonMaxConsecutiveUnits Reason = "max_consecutive_units"
)

// Kind maps a reason onto the audit-event classification. Availability has
// no kind: unavailable candidates are filtered, not reported.
func (r Reason) Kind() (model.ConstraintKind, bool) {
	switch r {
	case ReasonSkillMismatch:
		return model.ConstraintSkillMismatch, true
	case ReasonApprovedLeaveFull, ReasonApprovedLeaveDay:
		return model.ConstraintApprovedLeave, true
	case ReasonRecurringLeave:
		return model.ConstraintRecurringLeave, true
	case ReasonDoubleAssignment:
		return model.ConstraintDoubleAssignment, true
	case ReasonRestPeriod:
		return model.ConstraintRestPeriod, true
	case ReasonMaxConsecutiveUnits:
		return model.ConstraintOvertime, true
	}
	return "", false
}

// Verdict is the evaluator's result. A skip disqualifies the candidate for
// the whole planning unit; a warn permits assignment but flags the window.
type Verdict struct {
	Outcome Outcome
	Reason  Reason
}

var ok = Verdict{Outcome: OutcomeOK}

func skip(r Reason) Verdict  { return Verdict{Outcome: OutcomeSkip, Reason: r} }
func warn(r Reason) Verdict  { return Verdict{Outcome: OutcomeWarn, Reason: r} }
func (v Verdict) OK() bool   { return v.Outcome == OutcomeOK }
func (v Verdict) Skip() bool { return v.Outcome == OutcomeSkip }

// Feasible reports whether the assignment may be made at all.
func (v Verdict) Feasible() bool {
	return v.Outcome != OutcomeSkip
}

// Policy carries the tunable evaluator knobs.
type Policy struct {
	// MinRestHours is the minimum gap between two shifts of the same
	// employee, per product of the later shift. Zero disables the check.
	MinRestHours map[model.Product]float64
}

// Evaluator applies the constraint checks in a fixed order. Blocking checks
// win over warnings: a warning is only returned once every blocking check
// has passed.
type Evaluator struct {
	loc    *time.Location
	policy Policy
}

// NewEvaluator creates an evaluator for the given zone and policy.
func NewEvaluator(loc *time.Location, policy Policy) *Evaluator {
	return &Evaluator{loc: loc, policy: policy}
}

// Check evaluates one candidate employee against one window.
func (e *Evaluator) Check(emp *model.Employee, w window.Window, ctx *Context) Verdict {
	if !emp.IsActive() || !emp.AvailableFor(w.Product) {
		return skip(ReasonAvailability)
	}
	if !emp.HasSkills(ctx.Snapshot().RequiredSkills(w.Product)) {
		return skip(ReasonSkillMismatch)
	}

	r := w.Range()
	if h, found := ctx.Snapshot().LeaveOverlap(emp.ID, r); found {
		switch {
		case h == model.ConflictFullUnavailable:
			return skip(ReasonApprovedLeaveFull)
		case h == model.ConflictDaytimeOnly && w.Product.BusinessHours():
			return skip(ReasonApprovedLeaveDay)
		}
	}

	var warning Verdict
	if cov, found := ctx.Snapshot().RecurringOverlap(emp.ID, r); found && cov.Blocks(w.Product) {
		if w.Product.BusinessHours() {
			// Business products tolerate a recurring gap at assignment
			// time: the unit stays with one assignee and the gap days are
			// covered by a split afterwards.
			warning = warn(ReasonRecurringLeave)
		} else {
			return skip(ReasonRecurringLeave)
		}
	}

	for _, a := range ctx.Assignments(emp.ID) {
		overlap, overlaps := r.Intersection(a.Window.Range())
		if !overlaps {
			continue
		}
		if e.corridorAllowed(w, a.Window, overlap) {
			continue
		}
		return skip(ReasonDoubleAssignment)
	}

	if minRest := e.policy.MinRestHours[w.Product]; minRest > 0 {
		for _, a := range ctx.Assignments(emp.ID) {
			if !a.Window.End.After(w.Start) {
				if gap := w.Start.Sub(a.Window.End).Hours(); gap < minRest {
					if e.handoverGap(w, a.Window) {
						continue
					}
					return skip(ReasonRestPeriod)
				}
			}
		}
	}

	if limit := emp.MaxConsecutive(w.Product); limit > 0 {
		if ctx.ConsecutiveUnits(emp.ID, w.Product, w.UnitKey) >= limit {
			return skip(ReasonMaxConsecutiveUnits)
		}
	}

	if warning.Outcome == OutcomeWarn {
		return warning
	}
	return ok
}

// handoverGap reports whether the gap between a prior window and the new one
// is the Wednesday handover: a cross-family adjacency inside the corridor is
// exempt from the rest check.
func (e *Evaluator) handoverGap(w, prev window.Window) bool {
	if w.Product.BusinessHours() == prev.Product.BusinessHours() {
		return false
	}
	return window.InHandoverCorridor(model.TimeRange{Start: prev.End, End: w.Start}, e.loc)
}

// corridorAllowed reports whether an overlap between two windows of
// different duty families falls entirely inside the Wednesday handover
// corridor, where an incidents engineer may overlap the outgoing or incoming
// waakdienst.
func (e *Evaluator) corridorAllowed(a, b window.Window, overlap model.TimeRange) bool {
	if a.Product == b.Product {
		return false
	}
	if a.Product.BusinessHours() == b.Product.BusinessHours() {
		return false
	}
	return window.InHandoverCorridor(overlap, e.loc)
}
