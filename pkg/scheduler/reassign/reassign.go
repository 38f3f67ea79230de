// Package reassign is the post-plan pass that repairs units whose assignee
// is blocked on part of the unit: business weeks are split per day,
// waakdienst weeks are reassigned whole.
package reassign

import (
	"github.com/google/uuid"
	"github.com/roosterd/roosterd/pkg/model"
	"github.com/roosterd/roosterd/pkg/scheduler/fairness"
	"github.com/roosterd/roosterd/pkg/scheduler/feasibility"
	"github.com/roosterd/roosterd/pkg/scheduler/planner"
	"github.com/roosterd/roosterd/pkg/scheduler/window"
)

// Stats summarizes what the pass changed.
type Stats struct {
	Splits        int
	Reassignments int
}

// Pass resolves blocked coverage after the selection loop. It shares the
// evaluator, calculator and context with the planner so replacements respect
// every constraint and debit made so far.
type Pass struct {
	eval *feasibility.Evaluator
	calc *fairness.Calculator
}

// New creates a reassignment pass.
func New(eval *feasibility.Evaluator, calc *fairness.Calculator) *Pass {
	return &Pass{eval: eval, calc: calc}
}

// Resolve walks the plan and repairs every unit whose assignee intersects a
// blocking leave or recurring pattern. The plan is mutated in place.
func (p *Pass) Resolve(employees []*model.Employee, plan []*planner.PlannedUnit, ctx *feasibility.Context) ([]*model.ConstraintEvent, Stats) {
	var events []*model.ConstraintEvent
	var stats Stats

	for _, u := range plan {
		if !u.Assigned() {
			continue
		}
		blocked := p.blockedWindows(*u.EmployeeID, u, ctx.Snapshot())
		if len(blocked) == 0 {
			continue
		}

		if u.Product.BusinessHours() {
			evts, n := p.splitUnit(employees, u, blocked, ctx)
			events = append(events, evts...)
			stats.Splits += n
		} else {
			evts, moved := p.reassignUnit(employees, u, ctx)
			events = append(events, evts...)
			if moved {
				stats.Reassignments++
			}
		}
	}

	evts, moved := p.repairDoubleAssignments(employees, plan, ctx)
	events = append(events, evts...)
	stats.Reassignments += moved

	return events, stats
}

// repairDoubleAssignments moves an incidents-standby window off an engineer
// already covering incidents at the same time. The evaluator prevents this
// during selection; leave-driven splits can reintroduce it.
func (p *Pass) repairDoubleAssignments(employees []*model.Employee, plan []*planner.PlannedUnit, ctx *feasibility.Context) ([]*model.ConstraintEvent, int) {
	incidents := make(map[int64]uuid.UUID)
	for _, u := range plan {
		if u.Product != model.ProductIncidents {
			continue
		}
		for _, w := range u.Windows {
			if w.Assigned() {
				incidents[w.Window.Start.Unix()] = *w.EmployeeID
			}
		}
	}

	var events []*model.ConstraintEvent
	moved := 0
	for _, u := range plan {
		if u.Product != model.ProductIncidentsStandby {
			continue
		}
		for _, w := range u.Windows {
			if !w.Assigned() {
				continue
			}
			incID, ok := incidents[w.Window.Start.Unix()]
			if !ok || incID != *w.EmployeeID {
				continue
			}
			original := *w.EmployeeID
			ctx.Unassign(original, w.Window)
			p.calc.AddDebit(original, u.Product, -w.Window.Hours())

			replacement := p.bestReplacement(employees, original, w.Window, ctx)
			if replacement == nil {
				w.EmployeeID = nil
				events = append(events,
					model.NewConstraintEvent(u.Product, model.ConstraintMinimumStaffing, model.SeverityViolation, model.ResolutionSkipped).
						WithWindow(w.Window.Start).
						WithNote("no replacement for doubly assigned standby day"))
				continue
			}

			w.EmployeeID = &replacement.ID
			ctx.Assign(replacement.ID, w.Window)
			p.calc.AddDebit(replacement.ID, u.Product, w.Window.Hours())
			p.calc.RecordAssignment(replacement.ID)
			moved++

			events = append(events,
				model.NewConstraintEvent(u.Product, model.ConstraintDoubleAssignment, model.SeverityWarning, model.ResolutionReassigned).
					WithEmployee(original).
					WithWindow(w.Window.Start).
					WithNote("standby moved off the incidents assignee"))
		}
	}
	return events, moved
}

// blockedWindows returns the indexes of unit windows the assignee cannot
// cover.
func (p *Pass) blockedWindows(empID uuid.UUID, u *planner.PlannedUnit, snap *feasibility.Snapshot) []int {
	var ranges []model.TimeRange
	for _, w := range u.Windows {
		ranges = append(ranges, w.Window.Range())
	}
	return snap.BlockedDays(empID, u.Product, ranges)
}

// splitUnit keeps the original assignee on the unaffected day-windows and
// finds a per-day replacement for each blocked one.
func (p *Pass) splitUnit(employees []*model.Employee, u *planner.PlannedUnit, blocked []int, ctx *feasibility.Context) ([]*model.ConstraintEvent, int) {
	var events []*model.ConstraintEvent
	original := *u.EmployeeID
	splits := 0

	for _, i := range blocked {
		w := u.Windows[i]
		kind := p.blockKind(original, u.Product, w.Window.Range(), ctx.Snapshot())

		ctx.Unassign(original, w.Window)
		p.calc.AddDebit(original, u.Product, -w.Window.Hours())

		replacement := p.bestReplacement(employees, original, w.Window, ctx)
		if replacement == nil {
			w.EmployeeID = nil
			events = append(events,
				model.NewConstraintEvent(u.Product, model.ConstraintMinimumStaffing, model.SeverityViolation, model.ResolutionSkipped).
					WithWindow(w.Window.Start).
					WithNote("no replacement for blocked day"))
			continue
		}

		w.EmployeeID = &replacement.ID
		ctx.Assign(replacement.ID, w.Window)
		p.calc.AddDebit(replacement.ID, u.Product, w.Window.Hours())
		p.calc.RecordAssignment(replacement.ID)
		splits++

		events = append(events,
			model.NewConstraintEvent(u.Product, kind, model.SeverityWarning, model.ResolutionSplit).
				WithEmployee(original).
				WithWindow(w.Window.Start).
				WithNote("day covered by replacement"))
	}
	return events, splits
}

// reassignUnit moves a whole waakdienst unit to the best surviving
// candidate. Units of this product are never split.
func (p *Pass) reassignUnit(employees []*model.Employee, u *planner.PlannedUnit, ctx *feasibility.Context) ([]*model.ConstraintEvent, bool) {
	original := *u.EmployeeID
	span := model.TimeRange{
		Start: u.Windows[0].Window.Start,
		End:   u.Windows[len(u.Windows)-1].Window.End,
	}
	kind := p.blockKind(original, u.Product, span, ctx.Snapshot())

	for _, w := range u.Windows {
		ctx.Unassign(original, w.Window)
	}
	ctx.ClearUnitAssignee(u.Product, u.Key)
	p.calc.AddDebit(original, u.Product, -u.TotalHours())
	p.calc.WithdrawAssignment(original)

	var survivors []*model.Employee
	for _, emp := range employees {
		if emp.ID == original {
			continue
		}
		if p.feasibleUnit(emp, u, ctx) {
			survivors = append(survivors, emp)
		}
	}

	if len(survivors) == 0 {
		u.EmployeeID = nil
		for _, w := range u.Windows {
			w.EmployeeID = nil
		}
		return []*model.ConstraintEvent{
			model.NewConstraintEvent(u.Product, model.ConstraintMinimumStaffing, model.SeverityViolation, model.ResolutionSkipped).
				WithWindow(u.Key).
				WithNote("no replacement for blocked unit"),
		}, false
	}

	winner := p.calc.Rank(survivors, u.Product)[0]
	u.EmployeeID = &winner.ID
	for _, w := range u.Windows {
		w.EmployeeID = &winner.ID
		ctx.Assign(winner.ID, w.Window)
	}
	ctx.SetUnitAssignee(u.Product, u.Key, winner.ID)
	p.calc.AddDebit(winner.ID, u.Product, u.TotalHours())
	p.calc.RecordAssignment(winner.ID)

	return []*model.ConstraintEvent{
		model.NewConstraintEvent(u.Product, kind, model.SeverityWarning, model.ResolutionReassigned).
			WithEmployee(winner.ID).
			WithWindow(u.Key).
			WithNote("unit moved off blocked assignee"),
	}, true
}

// bestReplacement ranks the candidates that can cleanly take one window.
// Warnings disqualify here: a replacement blocked on the same day helps
// nobody.
func (p *Pass) bestReplacement(employees []*model.Employee, exclude uuid.UUID, w window.Window, ctx *feasibility.Context) *model.Employee {
	var survivors []*model.Employee
	for _, emp := range employees {
		if emp.ID == exclude {
			continue
		}
		if v := p.eval.Check(emp, w, ctx); v.OK() {
			survivors = append(survivors, emp)
		}
	}
	if len(survivors) == 0 {
		return nil
	}
	return p.calc.Rank(survivors, w.Product)[0]
}

// feasibleUnit reports whether the employee can take every window of the
// unit without a skip.
func (p *Pass) feasibleUnit(emp *model.Employee, u *planner.PlannedUnit, ctx *feasibility.Context) bool {
	for _, w := range u.Windows {
		if v := p.eval.Check(emp, w.Window, ctx); v.Skip() {
			return false
		}
	}
	return true
}

// blockKind classifies what blocks the assignee: an approved leave wins over
// a recurring pattern for the audit event.
func (p *Pass) blockKind(empID uuid.UUID, product model.Product, r model.TimeRange, snap *feasibility.Snapshot) model.ConstraintKind {
	if h, ok := snap.LeaveOverlap(empID, r); ok {
		if h == model.ConflictFullUnavailable || (h == model.ConflictDaytimeOnly && product.BusinessHours()) {
			return model.ConstraintApprovedLeave
		}
	}
	return model.ConstraintRecurringLeave
}
