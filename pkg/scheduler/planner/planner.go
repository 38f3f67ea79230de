// Package planner implements the per-product selection loop: for every
// planning unit, evaluate the candidates, rank the survivors by fairness and
// assign the whole unit to the winner.
package planner

import (
	"time"

	"github.com/google/uuid"
	"github.com/roosterd/roosterd/pkg/model"
	"github.com/roosterd/roosterd/pkg/scheduler/fairness"
	"github.com/roosterd/roosterd/pkg/scheduler/feasibility"
	"github.com/roosterd/roosterd/pkg/scheduler/window"
)

// PlannedWindow is one window with its (possibly split-adjusted) assignee.
type PlannedWindow struct {
	Window     window.Window
	EmployeeID *uuid.UUID
}

// Assigned reports whether the window has an assignee.
func (w *PlannedWindow) Assigned() bool {
	return w.EmployeeID != nil
}

// PlannedUnit is a planning unit with its intended assignee. After the
// reassignment pass, individual windows may diverge from the unit assignee.
type PlannedUnit struct {
	Product model.Product
	Key     time.Time

	// EmployeeID is the intended unit assignee, nil when no candidate
	// survived.
	EmployeeID *uuid.UUID

	Windows []*PlannedWindow
}

// Assigned reports whether the unit has an intended assignee.
func (u *PlannedUnit) Assigned() bool {
	return u.EmployeeID != nil
}

// TotalHours sums the unit's window durations.
func (u *PlannedUnit) TotalHours() float64 {
	var h float64
	for _, w := range u.Windows {
		h += w.Window.Hours()
	}
	return h
}

// Planner runs the selection loop for one team. Products are planned
// sequentially in a fixed order so later products see earlier debit and
// assignments through the shared context and calculator.
type Planner struct {
	eval *feasibility.Evaluator
	calc *fairness.Calculator
}

// New creates a planner over a shared evaluator and fairness calculator.
func New(eval *feasibility.Evaluator, calc *fairness.Calculator) *Planner {
	return &Planner{eval: eval, calc: calc}
}

// PlanProduct plans all units of one product. The context carries the
// assignments made for earlier products of the same run.
func (p *Planner) PlanProduct(employees []*model.Employee, units []window.Unit, ctx *feasibility.Context) ([]*PlannedUnit, []*model.ConstraintEvent) {
	var planned []*PlannedUnit
	var events []*model.ConstraintEvent

	for i := range units {
		u, evts := p.planUnit(employees, &units[i], ctx)
		planned = append(planned, u)
		events = append(events, evts...)
	}
	return planned, events
}

// planUnit evaluates every candidate against the whole unit, ranks the
// survivors and assigns the winner to all windows. A skip on any window
// disqualifies the candidate for the unit. A unit whose assignee is already
// recorded in the context keeps that engineer regardless of fairness, so a
// week whose head is applied stays with one engineer.
func (p *Planner) planUnit(employees []*model.Employee, u *window.Unit, ctx *feasibility.Context) (*PlannedUnit, []*model.ConstraintEvent) {
	planned := &PlannedUnit{Product: u.Product, Key: u.Key}
	for _, w := range u.Windows {
		planned.Windows = append(planned.Windows, &PlannedWindow{Window: w})
	}

	if id, ok := ctx.UnitAssignee(u.Product, u.Key); ok {
		if emp := findEmployee(employees, id); emp != nil {
			verdict, warns := p.checkUnit(emp, u, ctx)
			if !verdict.Skip() {
				return planned, p.assign(planned, u, emp, warns, ctx)
			}
		}
		// The recorded engineer left the roster or is now blocked; the
		// open selection below takes over.
	}

	var events []*model.ConstraintEvent
	var survivors []*model.Employee
	warned := make(map[uuid.UUID][]window.Window)

	for _, emp := range employees {
		verdict, ws := p.checkUnit(emp, u, ctx)
		if verdict.Skip() {
			if kind, ok := verdict.Reason.Kind(); ok {
				events = append(events,
					model.NewConstraintEvent(u.Product, kind, model.SeverityInfo, model.ResolutionSkipped).
						WithEmployee(emp.ID).
						WithWindow(ws[0].Start).
						WithNote(string(verdict.Reason)))
			}
			continue
		}
		if verdict.Outcome == feasibility.OutcomeWarn {
			warned[emp.ID] = ws
		}
		survivors = append(survivors, emp)
	}

	if len(survivors) == 0 {
		events = append(events,
			model.NewConstraintEvent(u.Product, model.ConstraintMinimumStaffing, model.SeverityViolation, model.ResolutionSkipped).
				WithWindow(u.Key).
				WithNote("no feasible candidate for planning unit"))
		return planned, events
	}

	winner := p.calc.Rank(survivors, u.Product)[0]
	return planned, append(events, p.assign(planned, u, winner, warned[winner.ID], ctx)...)
}

// assign gives every window of the unit to the winner and surfaces the
// winner's gap warnings; the reassignment pass turns them into splits.
func (p *Planner) assign(planned *PlannedUnit, u *window.Unit, winner *model.Employee, warns []window.Window, ctx *feasibility.Context) []*model.ConstraintEvent {
	planned.EmployeeID = &winner.ID
	for _, w := range planned.Windows {
		w.EmployeeID = &winner.ID
		ctx.Assign(winner.ID, w.Window)
	}
	ctx.SetUnitAssignee(u.Product, u.Key, winner.ID)
	p.calc.AddDebit(winner.ID, u.Product, planned.TotalHours())
	p.calc.RecordAssignment(winner.ID)

	var events []*model.ConstraintEvent
	for _, w := range warns {
		events = append(events,
			model.NewConstraintEvent(u.Product, model.ConstraintRecurringLeave, model.SeverityWarning, model.ResolutionAccepted).
				WithEmployee(winner.ID).
				WithWindow(w.Start).
				WithNote("assigned with a recurring gap, split pending"))
	}
	return events
}

// checkUnit evaluates the candidate against every window of the unit.
// The first skip wins, returned with its offending window; otherwise the
// warning verdict is returned with every window that warned.
func (p *Planner) checkUnit(emp *model.Employee, u *window.Unit, ctx *feasibility.Context) (feasibility.Verdict, []window.Window) {
	var warning feasibility.Verdict
	var warns []window.Window

	for _, w := range u.Windows {
		v := p.eval.Check(emp, w, ctx)
		if v.Skip() {
			return v, []window.Window{w}
		}
		if v.Outcome == feasibility.OutcomeWarn {
			if warning.Outcome != feasibility.OutcomeWarn {
				warning = v
			}
			warns = append(warns, w)
		}
	}
	if warning.Outcome == feasibility.OutcomeWarn {
		return warning, warns
	}
	return feasibility.Verdict{Outcome: feasibility.OutcomeOK}, nil
}

func findEmployee(employees []*model.Employee, id uuid.UUID) *model.Employee {
	for _, e := range employees {
		if e.ID == id {
			return e
		}
	}
	return nil
}
