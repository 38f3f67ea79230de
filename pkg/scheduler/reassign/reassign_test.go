package reassign

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/roosterd/roosterd/pkg/model"
	"github.com/roosterd/roosterd/pkg/scheduler/fairness"
	"github.com/roosterd/roosterd/pkg/scheduler/feasibility"
	"github.com/roosterd/roosterd/pkg/scheduler/planner"
	"github.com/roosterd/roosterd/pkg/scheduler/window"
)

func mustZone(t *testing.T) *time.Location {
	t.Helper()
	loc, err := window.Zone()
	if err != nil {
		t.Fatalf("load zone: %v", err)
	}
	return loc
}

func team(loc *time.Location, size int) []*model.Employee {
	var emps []*model.Employee
	for i := 0; i < size; i++ {
		emps = append(emps, &model.Employee{
			BaseModel:              model.BaseModel{ID: uuid.New()},
			Status:                 "active",
			AvailableForIncidents:  true,
			AvailableForWaakdienst: true,
			SeniorityStartDate:     time.Date(2020, 1, 1, 0, 0, 0, 0, loc),
		})
	}
	return emps
}

func generate(t *testing.T, loc *time.Location, p model.Product, from, to time.Time) []window.Unit {
	t.Helper()
	units, err := window.NewGenerator(loc).Generate(p, from, to, nil, false)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	return units
}

// Recurring Wednesday leave: the assignee keeps Mon, Tue, Thu, Fri and the
// Wednesday goes to the next-best engineer, logged as a split.
func TestPass_SplitOnRecurringLeave(t *testing.T) {
	loc := mustZone(t)
	emps := team(loc, 3)
	e2 := emps[0]

	pattern := &model.RecurringLeavePattern{
		BaseModel:     model.BaseModel{ID: uuid.New()},
		EmployeeID:    e2.ID,
		Weekdays:      []time.Weekday{time.Wednesday},
		StartTime:     "08:00",
		EndTime:       "17:00",
		EffectiveFrom: time.Date(2025, 1, 1, 0, 0, 0, 0, loc),
		Coverage:      model.CoverageDaytimeOnly,
	}
	snap := feasibility.NewSnapshot(loc, nil, []*model.RecurringLeavePattern{pattern}, nil)
	ctx := feasibility.NewContext(snap)

	calc := fairness.NewCalculator(fairness.DefaultParams())
	eval := feasibility.NewEvaluator(loc, feasibility.Policy{})

	// Make e2 the selector's pick by charging the others with history.
	now := time.Date(2026, 1, 5, 0, 0, 0, 0, loc)
	for _, other := range emps[1:] {
		calc.LoadHistory([]*model.Shift{{
			BaseModel:  model.BaseModel{ID: uuid.New()},
			Product:    model.ProductIncidents,
			EmployeeID: &other.ID,
			Start:      now.AddDate(0, 0, -7),
			End:        now.AddDate(0, 0, -7).Add(9 * time.Hour),
			Status:     model.ShiftApplied,
		}}, now)
	}

	pl := planner.New(eval, calc)
	units := generate(t, loc, model.ProductIncidents, now, time.Date(2026, 1, 9, 0, 0, 0, 0, loc))
	plan, _ := pl.PlanProduct(emps, units, ctx)
	if !plan[0].Assigned() || *plan[0].EmployeeID != e2.ID {
		t.Fatal("setup: e2 should win the unit")
	}

	pass := New(eval, calc)
	events, stats := pass.Resolve(emps, plan, ctx)

	if stats.Splits != 1 {
		t.Fatalf("expected 1 split, got %d", stats.Splits)
	}
	for i, w := range plan[0].Windows {
		if i == 2 { // Wednesday
			if w.EmployeeID == nil || *w.EmployeeID == e2.ID {
				t.Errorf("wednesday should be covered by a replacement")
			}
			continue
		}
		if w.EmployeeID == nil || *w.EmployeeID != e2.ID {
			t.Errorf("day %d should stay with e2", i)
		}
	}

	var split bool
	for _, e := range events {
		if e.Kind == model.ConstraintRecurringLeave && e.Resolution == model.ResolutionSplit {
			split = true
		}
	}
	if !split {
		t.Error("expected a recurring_leave/split event")
	}
}

// Full unavailability over a waakdienst week: the whole unit moves, no split.
func TestPass_WaakdienstReassignedWhole(t *testing.T) {
	loc := mustZone(t)
	emps := team(loc, 3)
	e3 := emps[0]

	snapEmpty := feasibility.NewSnapshot(loc, nil, nil, nil)
	ctx := feasibility.NewContext(snapEmpty)

	calc := fairness.NewCalculator(fairness.DefaultParams())
	eval := feasibility.NewEvaluator(loc, feasibility.Policy{})
	pl := planner.New(eval, calc)

	units := generate(t, loc, model.ProductWaakdienst, time.Date(2026, 1, 7, 0, 0, 0, 0, loc), time.Date(2026, 1, 13, 0, 0, 0, 0, loc))
	plan, _ := pl.PlanProduct([]*model.Employee{e3}, units, ctx)
	if !plan[0].Assigned() || *plan[0].EmployeeID != e3.ID {
		t.Fatal("setup: e3 should hold the unit")
	}

	// Leave approved after the selector ran: rebuild the context against
	// the richer snapshot, replaying the existing assignments.
	leave := &model.LeaveRequest{
		BaseModel:  model.BaseModel{ID: uuid.New()},
		EmployeeID: e3.ID,
		Start:      time.Date(2026, 1, 7, 0, 0, 0, 0, loc),
		End:        time.Date(2026, 1, 14, 0, 0, 0, 0, loc),
		Status:     model.LeaveApproved,
		Handling:   model.ConflictFullUnavailable,
	}
	snap := feasibility.NewSnapshot(loc, []*model.LeaveRequest{leave}, nil, nil)
	ctx2 := feasibility.NewContext(snap)
	for _, w := range plan[0].Windows {
		ctx2.Assign(e3.ID, w.Window)
	}
	ctx2.SetUnitAssignee(model.ProductWaakdienst, plan[0].Key, e3.ID)

	pass := New(eval, calc)
	events, stats := pass.Resolve(emps, plan, ctx2)

	if stats.Reassignments != 1 || stats.Splits != 0 {
		t.Fatalf("expected one whole-unit reassignment, got %+v", stats)
	}
	if !plan[0].Assigned() || *plan[0].EmployeeID == e3.ID {
		t.Fatal("unit should move off e3")
	}
	winner := *plan[0].EmployeeID
	for _, w := range plan[0].Windows {
		if w.EmployeeID == nil || *w.EmployeeID != winner {
			t.Error("every block should follow the new assignee")
		}
	}

	var reassigned bool
	for _, e := range events {
		if e.Kind == model.ConstraintApprovedLeave && e.Resolution == model.ResolutionReassigned {
			reassigned = true
		}
	}
	if !reassigned {
		t.Error("expected an approved_leave/reassigned event")
	}
}

// No replacement available: the blocked day becomes an unassigned gap with a
// staffing violation.
func TestPass_SplitWithoutReplacement(t *testing.T) {
	loc := mustZone(t)
	emps := team(loc, 1)
	e := emps[0]

	pattern := &model.RecurringLeavePattern{
		BaseModel:     model.BaseModel{ID: uuid.New()},
		EmployeeID:    e.ID,
		Weekdays:      []time.Weekday{time.Wednesday},
		StartTime:     "08:00",
		EndTime:       "17:00",
		EffectiveFrom: time.Date(2025, 1, 1, 0, 0, 0, 0, loc),
		Coverage:      model.CoverageDaytimeOnly,
	}
	ctx := feasibility.NewContext(feasibility.NewSnapshot(loc, nil, []*model.RecurringLeavePattern{pattern}, nil))

	calc := fairness.NewCalculator(fairness.DefaultParams())
	eval := feasibility.NewEvaluator(loc, feasibility.Policy{})
	pl := planner.New(eval, calc)

	units := generate(t, loc, model.ProductIncidents, time.Date(2026, 1, 5, 0, 0, 0, 0, loc), time.Date(2026, 1, 9, 0, 0, 0, 0, loc))
	plan, _ := pl.PlanProduct(emps, units, ctx)

	pass := New(eval, calc)
	events, stats := pass.Resolve(emps, plan, ctx)

	if stats.Splits != 0 {
		t.Errorf("no replacement means no split, got %d", stats.Splits)
	}
	if w := plan[0].Windows[2]; w.EmployeeID != nil {
		t.Error("blocked wednesday should be an unassigned gap")
	}

	var violation bool
	for _, ev := range events {
		if ev.Kind == model.ConstraintMinimumStaffing && ev.Severity == model.SeverityViolation {
			violation = true
		}
	}
	if !violation {
		t.Error("expected a minimum_staffing violation for the gap")
	}
}

// A standby day landing on the incidents assignee is moved to the next-best
// engineer by the post-pass recheck.
func TestPass_MovesStandbyOffIncidentsAssignee(t *testing.T) {
	loc := mustZone(t)
	emps := team(loc, 2)
	e1, e2 := emps[0], emps[1]

	ctx := feasibility.NewContext(feasibility.NewSnapshot(loc, nil, nil, nil))
	calc := fairness.NewCalculator(fairness.DefaultParams())
	eval := feasibility.NewEvaluator(loc, feasibility.Policy{})

	from := time.Date(2026, 1, 5, 0, 0, 0, 0, loc)
	to := time.Date(2026, 1, 9, 0, 0, 0, 0, loc)
	incUnit := generate(t, loc, model.ProductIncidents, from, to)[0]
	stbUnit := generate(t, loc, model.ProductIncidentsStandby, from, to)[0]

	build := func(u window.Unit, emp *model.Employee) *planner.PlannedUnit {
		pu := &planner.PlannedUnit{Product: u.Product, Key: u.Key, EmployeeID: &emp.ID}
		for _, w := range u.Windows {
			pu.Windows = append(pu.Windows, &planner.PlannedWindow{Window: w, EmployeeID: &emp.ID})
			ctx.Assign(emp.ID, w)
		}
		ctx.SetUnitAssignee(u.Product, u.Key, emp.ID)
		return pu
	}

	// Both products on e1, as a late swap or drifted apply could leave them.
	plan := []*planner.PlannedUnit{build(incUnit, e1), build(stbUnit, e1)}

	pass := New(eval, calc)
	events, stats := pass.Resolve(emps, plan, ctx)

	if stats.Reassignments != len(stbUnit.Windows) {
		t.Fatalf("expected every standby day moved, got %+v", stats)
	}
	for _, w := range plan[1].Windows {
		if w.EmployeeID == nil || *w.EmployeeID != e2.ID {
			t.Error("standby day should move to the other engineer")
		}
	}
	for _, w := range plan[0].Windows {
		if w.EmployeeID == nil || *w.EmployeeID != e1.ID {
			t.Error("incidents day should stay with e1")
		}
	}

	var logged bool
	for _, e := range events {
		if e.Kind == model.ConstraintDoubleAssignment && e.Resolution == model.ResolutionReassigned {
			logged = true
		}
	}
	if !logged {
		t.Error("expected double_assignment/reassigned events")
	}
}

// An untouched plan passes through unchanged.
func TestPass_NoopOnCleanPlan(t *testing.T) {
	loc := mustZone(t)
	emps := team(loc, 2)
	ctx := feasibility.NewContext(feasibility.NewSnapshot(loc, nil, nil, nil))

	calc := fairness.NewCalculator(fairness.DefaultParams())
	eval := feasibility.NewEvaluator(loc, feasibility.Policy{})
	pl := planner.New(eval, calc)

	units := generate(t, loc, model.ProductIncidents, time.Date(2026, 1, 5, 0, 0, 0, 0, loc), time.Date(2026, 1, 16, 0, 0, 0, 0, loc))
	plan, _ := pl.PlanProduct(emps, units, ctx)
	before := *plan[0].EmployeeID

	pass := New(eval, calc)
	events, stats := pass.Resolve(emps, plan, ctx)
	if len(events) != 0 || stats.Splits != 0 || stats.Reassignments != 0 {
		t.Errorf("clean plan should pass through, got %d events %+v", len(events), stats)
	}
	if *plan[0].EmployeeID != before {
		t.Error("assignee should be unchanged")
	}
}
