package stats

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/roosterd/roosterd/pkg/model"
)

func mustZone(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Amsterdam")
	if err != nil {
		t.Fatalf("load zone: %v", err)
	}
	return loc
}

func shift(loc *time.Location, p model.Product, day int, empID *uuid.UUID, status model.ShiftStatus) *model.Shift {
	return &model.Shift{
		BaseModel:  model.BaseModel{ID: uuid.New()},
		Product:    p,
		EmployeeID: empID,
		Start:      time.Date(2026, 1, day, 8, 0, 0, 0, loc),
		End:        time.Date(2026, 1, day, 17, 0, 0, 0, loc),
		Status:     status,
	}
}

func TestCoverageAnalyzer_Analyze(t *testing.T) {
	loc := mustZone(t)
	a := NewCoverageAnalyzer(loc)
	emp := uuid.New()

	shifts := []*model.Shift{
		shift(loc, model.ProductIncidents, 5, &emp, model.ShiftApplied),
		shift(loc, model.ProductIncidents, 6, nil, model.ShiftApplied), // gap
		shift(loc, model.ProductIncidentsStandby, 5, &emp, model.ShiftApplied),
		shift(loc, model.ProductIncidents, 7, &emp, model.ShiftSuperseded), // excluded
	}

	m := a.Analyze(shifts)
	if m.TotalShifts != 3 || m.AssignedShifts != 2 {
		t.Fatalf("expected 2/3 assigned, got %d/%d", m.AssignedShifts, m.TotalShifts)
	}
	if len(m.Gaps) != 1 || m.Gaps[0].Product != model.ProductIncidents {
		t.Errorf("expected one incidents gap, got %+v", m.Gaps)
	}
	if pc := m.ByProduct[model.ProductIncidents]; pc.Total != 2 || pc.Assigned != 1 || pc.Rate != 50 {
		t.Errorf("incidents coverage should be 1/2, got %+v", pc)
	}
	if dc := m.Daily["2026-01-05"]; dc == nil || dc.Assigned != 2 || dc.Hours != 18 {
		t.Errorf("day coverage mismatch: %+v", dc)
	}
}

func TestCoverageAnalyzer_AnalyzeRange(t *testing.T) {
	loc := mustZone(t)
	a := NewCoverageAnalyzer(loc)
	emp := uuid.New()

	shifts := []*model.Shift{
		shift(loc, model.ProductIncidents, 5, &emp, model.ShiftApplied),
		shift(loc, model.ProductIncidents, 20, &emp, model.ShiftApplied),
	}

	m := a.AnalyzeRange(shifts, time.Date(2026, 1, 1, 0, 0, 0, 0, loc), time.Date(2026, 1, 10, 0, 0, 0, 0, loc))
	if m.TotalShifts != 1 {
		t.Errorf("range filter should keep one shift, got %d", m.TotalShifts)
	}
}

func TestCoverageAnalyzer_Empty(t *testing.T) {
	loc := mustZone(t)
	m := NewCoverageAnalyzer(loc).Analyze(nil)
	if m.OverallRate != 100 || m.TotalShifts != 0 {
		t.Errorf("empty schedule should report 100%%, got %+v", m)
	}
}

func TestAvailabilityAnalyzer_Analyze(t *testing.T) {
	loc := mustZone(t)
	a := NewAvailabilityAnalyzer(loc)

	emp := &model.Employee{
		BaseModel:              model.BaseModel{ID: uuid.New()},
		Name:                   "noor",
		Status:                 "active",
		AvailableForIncidents:  true,
		AvailableForWaakdienst: false,
	}

	leaves := []*model.LeaveRequest{
		{
			BaseModel:  model.BaseModel{ID: uuid.New()},
			EmployeeID: emp.ID,
			Start:      time.Date(2026, 1, 7, 0, 0, 0, 0, loc),
			End:        time.Date(2026, 1, 9, 0, 0, 0, 0, loc), // Wed+Thu
			Status:     model.LeaveApproved,
			Handling:   model.ConflictFullUnavailable,
		},
		{
			BaseModel:  model.BaseModel{ID: uuid.New()},
			EmployeeID: emp.ID,
			Start:      time.Date(2026, 1, 9, 0, 0, 0, 0, loc),
			End:        time.Date(2026, 1, 10, 0, 0, 0, 0, loc),
			Status:     model.LeavePending,
			Handling:   model.ConflictFullUnavailable,
		},
	}
	patterns := []*model.RecurringLeavePattern{{
		BaseModel:     model.BaseModel{ID: uuid.New()},
		EmployeeID:    emp.ID,
		Weekdays:      []time.Weekday{time.Monday},
		StartTime:     "08:00",
		EndTime:       "12:00",
		EffectiveFrom: time.Date(2025, 1, 1, 0, 0, 0, 0, loc),
		Coverage:      model.CoverageDaytimeOnly,
	}}

	// Mon 2026-01-05 .. Sun 2026-01-11: 7 days.
	reports := a.Analyze([]*model.Employee{emp}, leaves, patterns,
		time.Date(2026, 1, 5, 0, 0, 0, 0, loc), time.Date(2026, 1, 11, 0, 0, 0, 0, loc), "")
	if len(reports) != 1 {
		t.Fatalf("expected one report, got %d", len(reports))
	}
	r := reports[0]

	if len(r.Products) != 2 {
		t.Errorf("incidents-only employee should list both business products, got %v", r.Products)
	}
	if r.HorizonDays != 7 || r.LeaveDays != 2 || r.RecurringDays != 1 || r.PendingLeaveDay != 1 {
		t.Errorf("day counts mismatch: %+v", r)
	}
	// 7 days minus 2 leave days minus the recurring Monday.
	if r.AvailableDays != 4 {
		t.Errorf("expected 4 available days, got %d", r.AvailableDays)
	}
}

func TestAvailabilityAnalyzer_WaakdienstIgnoresDaytimeLeave(t *testing.T) {
	loc := mustZone(t)
	a := NewAvailabilityAnalyzer(loc)

	emp := &model.Employee{
		BaseModel:              model.BaseModel{ID: uuid.New()},
		Name:                   "jens",
		Status:                 "active",
		AvailableForIncidents:  true,
		AvailableForWaakdienst: true,
	}
	deskOnly := &model.Employee{
		BaseModel:             model.BaseModel{ID: uuid.New()},
		Name:                  "mira",
		Status:                "active",
		AvailableForIncidents: true,
	}

	leaves := []*model.LeaveRequest{{
		BaseModel:  model.BaseModel{ID: uuid.New()},
		EmployeeID: emp.ID,
		Start:      time.Date(2026, 1, 7, 0, 0, 0, 0, loc),
		End:        time.Date(2026, 1, 9, 0, 0, 0, 0, loc),
		Status:     model.LeaveApproved,
		Handling:   model.ConflictDaytimeOnly,
	}}
	patterns := []*model.RecurringLeavePattern{{
		BaseModel:     model.BaseModel{ID: uuid.New()},
		EmployeeID:    emp.ID,
		Weekdays:      []time.Weekday{time.Monday},
		StartTime:     "08:00",
		EndTime:       "12:00",
		EffectiveFrom: time.Date(2025, 1, 1, 0, 0, 0, 0, loc),
		Coverage:      model.CoverageDaytimeOnly,
	}}

	from := time.Date(2026, 1, 5, 0, 0, 0, 0, loc)
	to := time.Date(2026, 1, 11, 0, 0, 0, 0, loc)

	reports := a.Analyze([]*model.Employee{emp, deskOnly}, leaves, patterns, from, to, model.ProductWaakdienst)
	if len(reports) != 1 {
		t.Fatalf("waakdienst rollup should drop the desk-only employee, got %d reports", len(reports))
	}
	r := reports[0]
	if r.LeaveDays != 0 || r.RecurringDays != 0 || r.AvailableDays != 7 {
		t.Errorf("daytime-only leave must not count against waakdienst: %+v", r)
	}

	reports = a.Analyze([]*model.Employee{emp, deskOnly}, leaves, patterns, from, to, model.ProductIncidents)
	if len(reports) != 2 {
		t.Fatalf("incidents rollup should list both employees, got %d", len(reports))
	}
	if r := reports[0]; r.LeaveDays != 2 || r.RecurringDays != 1 {
		t.Errorf("daytime-only leave must count against incidents: %+v", r)
	}
}
