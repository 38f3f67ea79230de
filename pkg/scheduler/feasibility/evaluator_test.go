package feasibility

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/roosterd/roosterd/pkg/model"
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

func activeEmployee(forWaakdienst bool, skills ...string) *model.Employee {
	return &model.Employee{
		BaseModel:              model.BaseModel{ID: uuid.New()},
		Status:                 "active",
		AvailableForIncidents:  true,
		AvailableForWaakdienst: forWaakdienst,
		Skills:                 skills,
	}
}

func dayWindow(loc *time.Location, y int, m time.Month, d int, p model.Product) window.Window {
	g := window.NewGenerator(loc)
	units, err := g.Generate(p, time.Date(y, m, d, 0, 0, 0, 0, loc), time.Date(y, m, d, 0, 0, 0, 0, loc), nil, false)
	if err != nil || len(units) == 0 || len(units[0].Windows) == 0 {
		panic("no window generated")
	}
	return units[0].Windows[0]
}

func waakdienstUnit(t *testing.T, loc *time.Location, y int, m time.Month, d int) window.Unit {
	t.Helper()
	g := window.NewGenerator(loc)
	units, err := g.Generate(model.ProductWaakdienst,
		time.Date(y, m, d, 0, 0, 0, 0, loc),
		time.Date(y, m, d, 0, 0, 0, 0, loc).AddDate(0, 0, 6), nil, false)
	if err != nil || len(units) != 1 {
		t.Fatalf("expected 1 waakdienst unit, got %d (err %v)", len(units), err)
	}
	return units[0]
}

func TestEvaluator_Availability(t *testing.T) {
	loc := mustZone(t)
	e := NewEvaluator(loc, Policy{})
	ctx := NewContext(NewSnapshot(loc, nil, nil, nil))

	emp := activeEmployee(false)
	w := waakdienstUnit(t, loc, 2026, 1, 7).Windows[0]

	v := e.Check(emp, w, ctx)
	if !v.Skip() || v.Reason != ReasonAvailability {
		t.Errorf("waakdienst-unavailable employee should be skipped, got %+v", v)
	}

	emp.Status = "inactive"
	if v := e.Check(emp, dayWindow(loc, 2026, 1, 5, model.ProductIncidents), ctx); !v.Skip() {
		t.Errorf("inactive employee should be skipped, got %+v", v)
	}
}

func TestEvaluator_SkillMismatch(t *testing.T) {
	loc := mustZone(t)
	e := NewEvaluator(loc, Policy{})

	tmpl := &model.ShiftTemplate{Product: model.ProductIncidents, RequiredSkills: []string{"incident-response"}}
	ctx := NewContext(NewSnapshot(loc, nil, nil, []*model.ShiftTemplate{tmpl}))

	w := dayWindow(loc, 2026, 1, 5, model.ProductIncidents)

	if v := e.Check(activeEmployee(true), w, ctx); !v.Skip() || v.Reason != ReasonSkillMismatch {
		t.Errorf("missing skill should skip, got %+v", v)
	}
	if v := e.Check(activeEmployee(true, "incident-response"), w, ctx); !v.OK() {
		t.Errorf("matching skill should pass, got %+v", v)
	}
}

func TestEvaluator_ApprovedLeave(t *testing.T) {
	loc := mustZone(t)
	e := NewEvaluator(loc, Policy{})
	emp := activeEmployee(true)

	leave := func(h model.ConflictHandling, status model.LeaveStatus) *model.LeaveRequest {
		return &model.LeaveRequest{
			BaseModel:  model.BaseModel{ID: uuid.New()},
			EmployeeID: emp.ID,
			Start:      time.Date(2026, 1, 5, 0, 0, 0, 0, loc),
			End:        time.Date(2026, 1, 12, 0, 0, 0, 0, loc),
			Status:     status,
			Handling:   h,
		}
	}

	day := dayWindow(loc, 2026, 1, 5, model.ProductIncidents)
	night := waakdienstUnit(t, loc, 2026, 1, 7).Windows[0] // Wed 2026-01-07 evening

	// Full unavailability blocks both products.
	ctx := NewContext(NewSnapshot(loc, []*model.LeaveRequest{leave(model.ConflictFullUnavailable, model.LeaveApproved)}, nil, nil))
	if v := e.Check(emp, day, ctx); !v.Skip() || v.Reason != ReasonApprovedLeaveFull {
		t.Errorf("full leave should block incidents, got %+v", v)
	}
	if v := e.Check(emp, night, ctx); !v.Skip() {
		t.Errorf("full leave should block waakdienst, got %+v", v)
	}

	// Daytime-only leave blocks business products but not waakdienst.
	ctx = NewContext(NewSnapshot(loc, []*model.LeaveRequest{leave(model.ConflictDaytimeOnly, model.LeaveApproved)}, nil, nil))
	if v := e.Check(emp, day, ctx); !v.Skip() || v.Reason != ReasonApprovedLeaveDay {
		t.Errorf("daytime leave should block incidents, got %+v", v)
	}
	if v := e.Check(emp, night, ctx); !v.OK() {
		t.Errorf("daytime leave should not block waakdienst, got %+v", v)
	}

	// Pending leave never blocks.
	ctx = NewContext(NewSnapshot(loc, []*model.LeaveRequest{leave(model.ConflictFullUnavailable, model.LeavePending)}, nil, nil))
	if v := e.Check(emp, day, ctx); !v.OK() {
		t.Errorf("pending leave should not block, got %+v", v)
	}
}

func TestEvaluator_RecurringLeave(t *testing.T) {
	loc := mustZone(t)
	e := NewEvaluator(loc, Policy{})
	emp := activeEmployee(true)

	// Every Monday 08:00-12:00, daytime coverage.
	pattern := &model.RecurringLeavePattern{
		BaseModel:     model.BaseModel{ID: uuid.New()},
		EmployeeID:    emp.ID,
		Weekdays:      []time.Weekday{time.Monday},
		StartTime:     "08:00",
		EndTime:       "12:00",
		EffectiveFrom: time.Date(2025, 1, 1, 0, 0, 0, 0, loc),
		Coverage:      model.CoverageDaytimeOnly,
	}
	ctx := NewContext(NewSnapshot(loc, nil, []*model.RecurringLeavePattern{pattern}, nil))

	// Business products get a warning, not a skip: the unit is kept and
	// the gap handled by a split.
	day := dayWindow(loc, 2026, 1, 5, model.ProductIncidents) // a Monday
	if v := e.Check(emp, day, ctx); v.Outcome != OutcomeWarn || v.Reason != ReasonRecurringLeave {
		t.Errorf("recurring daytime pattern should warn on incidents, got %+v", v)
	}

	// Daytime coverage does not touch waakdienst blocks.
	mondayNight := waakdienstUnit(t, loc, 2025, 12, 31).Windows[5] // Mon 2026-01-05 evening
	if v := e.Check(emp, mondayNight, ctx); !v.OK() {
		t.Errorf("daytime pattern should not block waakdienst, got %+v", v)
	}

	// Full coverage on a waakdienst night disqualifies the candidate.
	full := &model.RecurringLeavePattern{
		BaseModel:     model.BaseModel{ID: uuid.New()},
		EmployeeID:    emp.ID,
		Weekdays:      []time.Weekday{time.Monday},
		StartTime:     "17:00",
		EndTime:       "08:00", // crosses midnight
		EffectiveFrom: time.Date(2025, 1, 1, 0, 0, 0, 0, loc),
		Coverage:      model.CoverageFull,
	}
	ctx = NewContext(NewSnapshot(loc, nil, []*model.RecurringLeavePattern{full}, nil))
	if v := e.Check(emp, mondayNight, ctx); !v.Skip() || v.Reason != ReasonRecurringLeave {
		t.Errorf("full-coverage pattern should skip waakdienst, got %+v", v)
	}
}

func TestEvaluator_DoubleAssignment(t *testing.T) {
	loc := mustZone(t)
	e := NewEvaluator(loc, Policy{})
	emp := activeEmployee(true)
	ctx := NewContext(NewSnapshot(loc, nil, nil, nil))

	day := dayWindow(loc, 2026, 1, 5, model.ProductIncidents)
	ctx.Assign(emp.ID, day)

	// Same window for a second product overlaps.
	standby := day
	standby.Product = model.ProductIncidentsStandby
	if v := e.Check(emp, standby, ctx); !v.Skip() || v.Reason != ReasonDoubleAssignment {
		t.Errorf("overlapping business products should skip, got %+v", v)
	}

	// Disjoint window passes.
	if v := e.Check(emp, dayWindow(loc, 2026, 1, 6, model.ProductIncidents), ctx); !v.OK() {
		t.Errorf("disjoint window should pass, got %+v", v)
	}
}

func TestEvaluator_HandoverCorridor(t *testing.T) {
	loc := mustZone(t)
	e := NewEvaluator(loc, Policy{})
	emp := activeEmployee(true)
	ctx := NewContext(NewSnapshot(loc, nil, nil, nil))

	unit := waakdienstUnit(t, loc, 2026, 1, 7)
	for _, w := range unit.Windows {
		ctx.Assign(emp.ID, w)
	}

	// Wednesday incidents day of the same week: overlaps no block (all
	// blocks are night or weekend), so it passes.
	wedDay := dayWindow(loc, 2026, 1, 7, model.ProductIncidents)
	if v := e.Check(emp, wedDay, ctx); !v.OK() {
		t.Errorf("wednesday incidents day should not conflict with night blocks, got %+v", v)
	}

	// Friday incidents of the same week also passes.
	friDay := dayWindow(loc, 2026, 1, 9, model.ProductIncidents)
	if v := e.Check(emp, friDay, ctx); !v.OK() {
		t.Errorf("friday incidents day should not conflict, got %+v", v)
	}

	// Saturday block covers daytime: a hypothetical weekend business
	// window would conflict. Assign a second incidents window overlapping
	// Saturday directly to prove the overlap path.
	sat := unit.Windows[3]
	clash := window.Window{
		Product: model.ProductIncidents,
		Start:   sat.Start.Add(2 * time.Hour),
		End:     sat.Start.Add(6 * time.Hour),
		UnitKey: sat.UnitKey,
	}
	if v := e.Check(emp, clash, ctx); !v.Skip() || v.Reason != ReasonDoubleAssignment {
		t.Errorf("overlap outside the corridor should skip, got %+v", v)
	}

	// A waakdienst block stretched over Wednesday daytime (as produced by
	// split coverage) may overlap an incidents day inside the corridor.
	ctx2 := NewContext(NewSnapshot(loc, nil, nil, nil))
	stretched := window.Window{
		Product: model.ProductWaakdienst,
		Start:   time.Date(2026, 1, 7, 8, 0, 0, 0, loc),
		End:     time.Date(2026, 1, 7, 17, 0, 0, 0, loc),
		UnitKey: time.Date(2026, 1, 7, 0, 0, 0, 0, loc),
	}
	ctx2.Assign(emp.ID, stretched)
	if v := e.Check(emp, wedDay, ctx2); !v.OK() {
		t.Errorf("corridor overlap between incidents and waakdienst should pass, got %+v", v)
	}
}

func TestEvaluator_RestPeriod(t *testing.T) {
	loc := mustZone(t)
	e := NewEvaluator(loc, Policy{MinRestHours: map[model.Product]float64{model.ProductIncidents: 11}})
	emp := activeEmployee(true)
	ctx := NewContext(NewSnapshot(loc, nil, nil, nil))

	unit := waakdienstUnit(t, loc, 2025, 12, 31)

	// Wed-evening block ends Thursday 08:00; incidents Thursday 08:00-17:00
	// leaves zero rest outside the corridor.
	ctx.Assign(emp.ID, unit.Windows[0])
	day := dayWindow(loc, 2026, 1, 1, model.ProductIncidents) // Thu, starts when the block ends
	if v := e.Check(emp, day, ctx); !v.Skip() || v.Reason != ReasonRestPeriod {
		t.Errorf("zero rest after a night block should skip, got %+v", v)
	}

	// A week later the gap is ample.
	later := dayWindow(loc, 2026, 1, 8, model.ProductIncidents)
	if v := e.Check(emp, later, ctx); !v.OK() {
		t.Errorf("ample rest should pass, got %+v", v)
	}

	// The Wednesday handover is exempt: the Tue-evening block ends Wed
	// 08:00, exactly where the incidents day begins.
	ctx2 := NewContext(NewSnapshot(loc, nil, nil, nil))
	ctx2.Assign(emp.ID, unit.Windows[6]) // ends Wed 2026-01-07 08:00
	wedDay := dayWindow(loc, 2026, 1, 7, model.ProductIncidents)
	if v := e.Check(emp, wedDay, ctx2); !v.OK() {
		t.Errorf("handover adjacency should be exempt from the rest check, got %+v", v)
	}
}

func TestEvaluator_MaxConsecutiveUnits(t *testing.T) {
	loc := mustZone(t)
	e := NewEvaluator(loc, Policy{})
	emp := activeEmployee(true)
	emp.MaxConsecutiveWeeks = map[model.Product]int{model.ProductWaakdienst: 2}
	ctx := NewContext(NewSnapshot(loc, nil, nil, nil))

	week := func(d int) time.Time { return time.Date(2026, 1, d, 0, 0, 0, 0, loc) }
	ctx.SetUnitAssignee(model.ProductWaakdienst, week(7), emp.ID)
	ctx.SetUnitAssignee(model.ProductWaakdienst, week(14), emp.ID)

	third := waakdienstUnit(t, loc, 2026, 1, 21).Windows[0]
	if v := e.Check(emp, third, ctx); !v.Skip() || v.Reason != ReasonMaxConsecutiveUnits {
		t.Errorf("third consecutive week over a cap of 2 should skip, got %+v", v)
	}

	// A break resets the streak.
	ctx.ClearUnitAssignee(model.ProductWaakdienst, week(14))
	if v := e.Check(emp, third, ctx); !v.OK() {
		t.Errorf("non-consecutive week should pass, got %+v", v)
	}
}

func TestSnapshot_BlockedDays(t *testing.T) {
	loc := mustZone(t)
	empID := uuid.New()

	// Approved full leave on Wednesday only.
	leave := &model.LeaveRequest{
		BaseModel:  model.BaseModel{ID: uuid.New()},
		EmployeeID: empID,
		Start:      time.Date(2026, 1, 7, 0, 0, 0, 0, loc),
		End:        time.Date(2026, 1, 8, 0, 0, 0, 0, loc),
		Status:     model.LeaveApproved,
		Handling:   model.ConflictFullUnavailable,
	}
	snap := NewSnapshot(loc, []*model.LeaveRequest{leave}, nil, nil)

	g := window.NewGenerator(loc)
	units, err := g.Generate(model.ProductIncidents,
		time.Date(2026, 1, 5, 0, 0, 0, 0, loc),
		time.Date(2026, 1, 9, 0, 0, 0, 0, loc), nil, false)
	if err != nil || len(units) != 1 {
		t.Fatalf("generate: %v", err)
	}
	var ranges []model.TimeRange
	for _, w := range units[0].Windows {
		ranges = append(ranges, w.Range())
	}

	blocked := snap.BlockedDays(empID, model.ProductIncidents, ranges)
	if len(blocked) != 1 || blocked[0] != 2 {
		t.Errorf("only the wednesday window should be blocked, got %v", blocked)
	}
}
