package validator

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/roosterd/roosterd/pkg/model"
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

func plannedUnit(t *testing.T, loc *time.Location, p model.Product, from, to time.Time, empID *uuid.UUID) *planner.PlannedUnit {
	t.Helper()
	units, err := window.NewGenerator(loc).Generate(p, from, to, nil, false)
	if err != nil || len(units) != 1 {
		t.Fatalf("generate: %v (%d units)", err, len(units))
	}
	u := &planner.PlannedUnit{Product: p, Key: units[0].Key, EmployeeID: empID}
	for _, w := range units[0].Windows {
		u.Windows = append(u.Windows, &planner.PlannedWindow{Window: w, EmployeeID: empID})
	}
	return u
}

func TestValidator_CleanPlan(t *testing.T) {
	loc := mustZone(t)
	v := New(loc)
	a, b := uuid.New(), uuid.New()

	plan := []*planner.PlannedUnit{
		plannedUnit(t, loc, model.ProductIncidents, time.Date(2026, 1, 5, 0, 0, 0, 0, loc), time.Date(2026, 1, 9, 0, 0, 0, 0, loc), &a),
		plannedUnit(t, loc, model.ProductWaakdienst, time.Date(2026, 1, 7, 0, 0, 0, 0, loc), time.Date(2026, 1, 13, 0, 0, 0, 0, loc), &b),
	}

	if got := v.ValidatePlan(plan, feasibility.NewSnapshot(loc, nil, nil, nil)); len(got) != 0 {
		t.Errorf("clean plan should have no violations, got %+v", got)
	}
}

func TestValidator_WaakdienstCohesion(t *testing.T) {
	loc := mustZone(t)
	v := New(loc)
	a, b := uuid.New(), uuid.New()

	u := plannedUnit(t, loc, model.ProductWaakdienst, time.Date(2026, 1, 7, 0, 0, 0, 0, loc), time.Date(2026, 1, 13, 0, 0, 0, 0, loc), &a)
	u.Windows[3].EmployeeID = &b // split a waakdienst unit

	got := v.ValidatePlan([]*planner.PlannedUnit{u}, feasibility.NewSnapshot(loc, nil, nil, nil))
	if len(got) != 1 || got[0].Kind != ViolationUnitCohesion {
		t.Errorf("expected a unit_cohesion violation, got %+v", got)
	}
}

func TestValidator_SplitBusinessUnitAllowed(t *testing.T) {
	loc := mustZone(t)
	v := New(loc)
	a, b := uuid.New(), uuid.New()

	u := plannedUnit(t, loc, model.ProductIncidents, time.Date(2026, 1, 5, 0, 0, 0, 0, loc), time.Date(2026, 1, 9, 0, 0, 0, 0, loc), &a)
	u.Windows[2].EmployeeID = &b // wednesday replacement

	if got := v.ValidatePlan([]*planner.PlannedUnit{u}, feasibility.NewSnapshot(loc, nil, nil, nil)); len(got) != 0 {
		t.Errorf("split business unit is legal, got %+v", got)
	}
}

func TestValidator_OverlapOutsideCorridor(t *testing.T) {
	loc := mustZone(t)
	v := New(loc)
	a := uuid.New()

	inc := plannedUnit(t, loc, model.ProductIncidents, time.Date(2026, 1, 5, 0, 0, 0, 0, loc), time.Date(2026, 1, 9, 0, 0, 0, 0, loc), &a)
	stb := plannedUnit(t, loc, model.ProductIncidentsStandby, time.Date(2026, 1, 5, 0, 0, 0, 0, loc), time.Date(2026, 1, 9, 0, 0, 0, 0, loc), &a)

	got := v.ValidatePlan([]*planner.PlannedUnit{inc, stb}, feasibility.NewSnapshot(loc, nil, nil, nil))
	if len(got) == 0 {
		t.Fatal("same employee on incidents and standby must violate")
	}
	for _, viol := range got {
		if viol.Kind != ViolationOverlap {
			t.Errorf("expected overlap violations, got %+v", viol)
		}
	}
}

func TestValidator_CorridorOverlapAllowed(t *testing.T) {
	loc := mustZone(t)
	v := New(loc)
	a := uuid.New()

	inc := plannedUnit(t, loc, model.ProductIncidents, time.Date(2026, 1, 7, 0, 0, 0, 0, loc), time.Date(2026, 1, 7, 0, 0, 0, 0, loc), &a)

	// A waakdienst block stretched over the Wednesday corridor, as split
	// coverage can produce.
	stretched := &planner.PlannedUnit{
		Product:    model.ProductWaakdienst,
		Key:        time.Date(2026, 1, 7, 0, 0, 0, 0, loc),
		EmployeeID: &a,
		Windows: []*planner.PlannedWindow{{
			Window: window.Window{
				Product: model.ProductWaakdienst,
				Start:   time.Date(2026, 1, 7, 8, 0, 0, 0, loc),
				End:     time.Date(2026, 1, 7, 17, 0, 0, 0, loc),
				UnitKey: time.Date(2026, 1, 7, 0, 0, 0, 0, loc),
			},
			EmployeeID: &a,
		}},
	}

	if got := v.ValidatePlan([]*planner.PlannedUnit{inc, stretched}, feasibility.NewSnapshot(loc, nil, nil, nil)); len(got) != 0 {
		t.Errorf("corridor overlap should be legal, got %+v", got)
	}
}

func TestValidator_LeaveViolation(t *testing.T) {
	loc := mustZone(t)
	v := New(loc)
	a := uuid.New()

	leave := &model.LeaveRequest{
		BaseModel:  model.BaseModel{ID: uuid.New()},
		EmployeeID: a,
		Start:      time.Date(2026, 1, 7, 0, 0, 0, 0, loc),
		End:        time.Date(2026, 1, 8, 0, 0, 0, 0, loc),
		Status:     model.LeaveApproved,
		Handling:   model.ConflictFullUnavailable,
	}
	snap := feasibility.NewSnapshot(loc, []*model.LeaveRequest{leave}, nil, nil)

	u := plannedUnit(t, loc, model.ProductIncidents, time.Date(2026, 1, 5, 0, 0, 0, 0, loc), time.Date(2026, 1, 9, 0, 0, 0, 0, loc), &a)
	got := v.ValidatePlan([]*planner.PlannedUnit{u}, snap)
	if len(got) != 1 || got[0].Kind != ViolationLeave {
		t.Errorf("expected one leave violation for the wednesday, got %+v", got)
	}
}
