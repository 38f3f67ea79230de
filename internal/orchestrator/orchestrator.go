// Package orchestrator is the run controller: it loads the planning inputs,
// drives the scheduling engine over a horizon and persists the outcome as an
// auditable run.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/roosterd/roosterd/internal/config"
	"github.com/roosterd/roosterd/internal/metrics"
	"github.com/roosterd/roosterd/internal/repository"
	apperrors "github.com/roosterd/roosterd/pkg/errors"
	"github.com/roosterd/roosterd/pkg/logger"
	"github.com/roosterd/roosterd/pkg/model"
	"github.com/roosterd/roosterd/pkg/scheduler/fairness"
	"github.com/roosterd/roosterd/pkg/scheduler/feasibility"
	"github.com/roosterd/roosterd/pkg/scheduler/planner"
	"github.com/roosterd/roosterd/pkg/scheduler/reassign"
	"github.com/roosterd/roosterd/pkg/scheduler/window"
	"github.com/roosterd/roosterd/pkg/stats"
	"github.com/roosterd/roosterd/pkg/swap"
	"github.com/roosterd/roosterd/pkg/validator"
)

// TeamStore reads teams and writes their scheduling toggles.
type TeamStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Team, error)
	ListAutoScheduled(ctx context.Context) ([]*model.Team, error)
	SetAutoScheduling(ctx context.Context, id uuid.UUID, enabled bool) error
	SetProductEnabled(ctx context.Context, id uuid.UUID, p model.Product, enabled bool) error
}

// EmployeeStore reads the roster and the shift templates.
type EmployeeStore interface {
	ListActiveByTeam(ctx context.Context, teamID uuid.UUID) ([]*model.Employee, error)
	TemplatesByTeam(ctx context.Context, teamID uuid.UUID) ([]*model.ShiftTemplate, error)
}

// LeaveStore reads leave requests, recurring patterns and holidays.
type LeaveStore interface {
	ListOverlapping(ctx context.Context, teamID uuid.UUID, from, to time.Time) ([]*model.LeaveRequest, error)
	ListActivePatterns(ctx context.Context, teamID uuid.UUID, from, to time.Time) ([]*model.RecurringLeavePattern, error)
	ListHolidays(ctx context.Context, from, to time.Time) (map[string]bool, error)
}

// ShiftStore reads applied coverage and performs the idempotent apply.
type ShiftStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Shift, error)
	ListActiveRange(ctx context.Context, teamID uuid.UUID, from, to time.Time) ([]*model.Shift, error)
	ListHistory(ctx context.Context, teamID uuid.UUID, since, until time.Time) ([]*model.Shift, error)
	LatestAppliedEnd(ctx context.Context, teamID uuid.UUID) (time.Time, error)
	ApplyRun(ctx context.Context, run *model.OrchestrationRun, planned []*model.Shift, events []*model.ConstraintEvent) (repository.ApplyResult, error)
}

// RunStore reads run records and persists preview runs.
type RunStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.OrchestrationRun, []*model.ConstraintEvent, error)
	ListByTeam(ctx context.Context, teamID uuid.UUID, limit int) ([]*model.OrchestrationRun, error)
	RecordPreview(ctx context.Context, run *model.OrchestrationRun, events []*model.ConstraintEvent) error
}

// CreateRunInput are the parameters of one orchestration run.
type CreateRunInput struct {
	TeamID       uuid.UUID       `json:"team_id"`
	HorizonStart time.Time       `json:"horizon_start"`
	HorizonEnd   time.Time       `json:"horizon_end"`
	Mode         model.RunMode   `json:"mode"`
	Products     []model.Product `json:"products,omitempty"`
}

// RunResult is the outcome of one orchestration run. Shifts holds the full
// plan in both modes; in preview mode nothing is persisted beyond the run
// record itself.
type RunResult struct {
	Run    *model.OrchestrationRun  `json:"run"`
	Events []*model.ConstraintEvent `json:"events"`
	Shifts []*model.Shift           `json:"shifts"`
	Apply  repository.ApplyResult   `json:"apply"`
}

// RunDetail is a stored run with its events.
type RunDetail struct {
	Run    *model.OrchestrationRun  `json:"run"`
	Events []*model.ConstraintEvent `json:"events"`
}

// Service drives orchestration runs for teams.
type Service struct {
	cfg       config.OrchestratorConfig
	loc       *time.Location
	teams     TeamStore
	employees EmployeeStore
	leaves    LeaveStore
	shifts    ShiftStore
	runs      RunStore
	log       *logger.OrchestratorLogger
	now       func() time.Time
}

// New creates the orchestration service.
func New(cfg config.OrchestratorConfig, loc *time.Location, teams TeamStore, employees EmployeeStore, leaves LeaveStore, shifts ShiftStore, runs RunStore) *Service {
	return &Service{
		cfg:       cfg,
		loc:       loc,
		teams:     teams,
		employees: employees,
		leaves:    leaves,
		shifts:    shifts,
		runs:      runs,
		log:       logger.NewOrchestratorLogger(),
		now:       time.Now,
	}
}

// loadPad widens the leave and pattern queries around the horizon so blocks
// straddling the boundary are seen.
const loadPad = 7 * 24 * time.Hour

// CreateRun plans the team's enabled products over the horizon and either
// previews or applies the result.
func (s *Service) CreateRun(ctx context.Context, input CreateRunInput) (*RunResult, error) {
	if input.HorizonEnd.Before(input.HorizonStart) {
		return nil, apperrors.InvalidHorizon(
			model.DateKey(input.HorizonStart), model.DateKey(input.HorizonEnd))
	}
	mode := input.Mode
	if mode == "" {
		mode = model.ModePreview
	}

	if s.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RunTimeout)
		defer cancel()
	}

	team, err := s.teams.GetByID(ctx, input.TeamID)
	if err != nil {
		return nil, err
	}
	products, err := resolveProducts(team, input.Products)
	if err != nil {
		return nil, err
	}

	startedAt := s.now()
	from := model.CivilDate(input.HorizonStart, s.loc)
	to := model.CivilDate(input.HorizonEnd, s.loc)

	run := &model.OrchestrationRun{
		BaseModel:    model.NewBaseModel(),
		TeamID:       team.ID,
		HorizonStart: from,
		HorizonEnd:   to,
		Mode:         mode,
		Status:       model.RunRunning,
		StartedAt:    startedAt,
	}
	s.log.StartRun(run.ID, team.ID, string(mode), from, to)

	outcome, err := s.plan(ctx, team, products, from, to, startedAt)
	if err != nil {
		metrics.RecordRun(string(mode), false, time.Since(startedAt))
		return nil, err
	}

	shifts := buildShifts(team.ID, run.ID, outcome.units)
	run.Totals = totals(outcome.units, shifts)
	run.Totals.Splits = outcome.stats.Splits
	run.Totals.Reassignments = outcome.stats.Reassignments
	run.Fairness = outcome.fairness

	completed := s.now()
	run.Status = model.RunCompleted
	run.CompletedAt = &completed

	result := &RunResult{Run: run, Events: outcome.events, Shifts: shifts}

	if mode == model.ModeApply {
		applied, err := s.shifts.ApplyRun(ctx, run, shifts, outcome.events)
		if err != nil {
			metrics.RecordRun(string(mode), false, time.Since(startedAt))
			return nil, err
		}
		result.Apply = applied
		metrics.RecordShiftWrites(applied.Inserted, applied.Superseded)
		metrics.SetCoverageRate(team.ID.String(), coverageRate(shifts))
	} else {
		if err := s.runs.RecordPreview(ctx, run, outcome.events); err != nil {
			metrics.RecordRun(string(mode), false, time.Since(startedAt))
			return nil, err
		}
	}

	for _, e := range outcome.events {
		metrics.RecordConstraintEvent(string(e.Kind), string(e.Severity))
	}
	metrics.RecordRun(string(mode), true, time.Since(startedAt))
	s.log.RunComplete(run.ID, time.Since(startedAt), run.Totals.ShiftsPlanned, run.Totals.Unassigned)

	return result, nil
}

// planOutcome is what one engine pass produces for the run record.
type planOutcome struct {
	units    []*planner.PlannedUnit
	events   []*model.ConstraintEvent
	stats    reassign.Stats
	fairness model.FairnessSnapshot
}

// plan loads the inputs and runs the engine: generate, select, repair,
// validate. Constraint events are data; only broken engine invariants or
// storage failures surface as errors.
func (s *Service) plan(ctx context.Context, team *model.Team, products []model.Product, from, to, now time.Time) (*planOutcome, error) {
	employees, err := s.employees.ListActiveByTeam(ctx, team.ID)
	if err != nil {
		return nil, err
	}
	templates, err := s.employees.TemplatesByTeam(ctx, team.ID)
	if err != nil {
		return nil, err
	}
	leaves, err := s.leaves.ListOverlapping(ctx, team.ID, from.Add(-loadPad), to.Add(loadPad))
	if err != nil {
		return nil, err
	}
	patterns, err := s.leaves.ListActivePatterns(ctx, team.ID, from.Add(-loadPad), to.Add(loadPad))
	if err != nil {
		return nil, err
	}
	holidays, err := s.leaves.ListHolidays(ctx, from, to)
	if err != nil {
		return nil, err
	}
	prior, err := s.shifts.ListActiveRange(ctx, team.ID, from.Add(-loadPad), from)
	if err != nil {
		return nil, err
	}
	// Applied shifts up to the horizon start feed the score, committed
	// future load included; rows inside the horizon are about to be
	// re-planned and are excluded.
	histUntil := now
	if from.After(histUntil) {
		histUntil = from
	}
	history, err := s.shifts.ListHistory(ctx, team.ID, now.Add(-s.cfg.HistoryWindow), histUntil)
	if err != nil {
		return nil, err
	}

	gen := window.NewGenerator(s.loc)
	snap := feasibility.NewSnapshot(s.loc, leaves, patterns, templates)
	fctx := feasibility.NewContext(snap)
	eval := feasibility.NewEvaluator(s.loc, s.policy())
	calc := fairness.NewCalculator(fairness.DefaultParams())
	calc.LoadHistory(history, now)

	// Applied coverage just before the horizon is seeded into the context:
	// a unit whose head is already applied keeps its engineer for the tail
	// windows, and the overlap and rest checks see the committed load.
	for _, sh := range prior {
		if !sh.Assigned() {
			continue
		}
		key := window.UnitKeyFor(sh.Product, sh.Start, s.loc)
		fctx.Assign(*sh.EmployeeID, window.Window{
			Product: sh.Product,
			Start:   sh.Start,
			End:     sh.End,
			UnitKey: key,
		})
		fctx.SetUnitAssignee(sh.Product, key, *sh.EmployeeID)
	}

	pl := planner.New(eval, calc)
	var plan []*planner.PlannedUnit
	var events []*model.ConstraintEvent

	for _, p := range products {
		// A pool below the team's configured minimum is worth flagging even
		// when every unit still finds an assignee.
		if min := team.MinStaffing[p]; min > 0 {
			if n := eligibleCount(employees, p); n < min {
				events = append(events,
					model.NewConstraintEvent(p, model.ConstraintMinimumStaffing, model.SeverityWarning, model.ResolutionAccepted).
						WithNote(fmt.Sprintf("eligible pool %d below team minimum %d", n, min)))
			}
		}

		units, err := gen.Generate(p, from, to, holidays, team.ScheduleOnHolidays)
		if err != nil {
			return nil, err
		}
		planned, evts := pl.PlanProduct(employees, units, fctx)
		plan = append(plan, planned...)
		events = append(events, evts...)
	}

	evts, rstats := reassign.New(eval, calc).Resolve(employees, plan, fctx)
	events = append(events, evts...)

	if violations := validator.New(s.loc).ValidatePlan(plan, snap); len(violations) > 0 {
		v := violations[0]
		s.log.ConstraintEvent(string(v.Product), string(v.Kind), "violation", v.Message)
		return nil, apperrors.InternalInvariant(
			fmt.Sprintf("plan failed validation with %d violations, first: %s", len(violations), v.Message))
	}

	fsnap := make(model.FairnessSnapshot, len(products))
	for _, p := range products {
		fsnap[p] = calc.Snapshot(p)
	}

	return &planOutcome{units: plan, events: events, stats: rstats, fairness: fsnap}, nil
}

func (s *Service) policy() feasibility.Policy {
	return feasibility.Policy{
		MinRestHours: map[model.Product]float64{
			model.ProductIncidents:        s.cfg.MinRestIncidents,
			model.ProductIncidentsStandby: s.cfg.MinRestIncidents,
			model.ProductWaakdienst:       s.cfg.MinRestWaakdienst,
		},
	}
}

// resolveProducts picks the products of a run: the requested subset or all
// the team's enabled ones, always in planning order.
func resolveProducts(team *model.Team, requested []model.Product) ([]model.Product, error) {
	if len(requested) == 0 {
		products := team.EnabledProducts()
		if len(products) == 0 {
			return nil, apperrors.New(apperrors.CodeInvalidInput, "team has no enabled products").
				WithField("team_id", team.ID.String())
		}
		return products, nil
	}

	want := make(map[model.Product]bool, len(requested))
	for _, p := range requested {
		if !p.Valid() {
			return nil, apperrors.UnknownProduct(string(p))
		}
		if !team.ProductEnabled(p) {
			return nil, apperrors.New(apperrors.CodeInvalidInput,
				fmt.Sprintf("product %s is not enabled for the team", p))
		}
		want[p] = true
	}

	var products []model.Product
	for _, p := range model.PlanningOrder() {
		if want[p] {
			products = append(products, p)
		}
	}
	return products, nil
}

// buildShifts flattens the plan into shift rows, unassigned placeholders
// included.
func buildShifts(teamID, runID uuid.UUID, plan []*planner.PlannedUnit) []*model.Shift {
	var shifts []*model.Shift
	for _, u := range plan {
		for _, w := range u.Windows {
			shifts = append(shifts, &model.Shift{
				BaseModel:   model.BaseModel{ID: uuid.New()},
				TeamID:      teamID,
				Product:     u.Product,
				EmployeeID:  w.EmployeeID,
				Start:       w.Window.Start,
				End:         w.Window.End,
				SourceRunID: runID,
				Status:      model.ShiftPlanned,
			})
		}
	}
	return shifts
}

func totals(plan []*planner.PlannedUnit, shifts []*model.Shift) model.RunTotals {
	t := model.RunTotals{
		UnitsPlanned: len(plan),
		ByProduct:    make(map[model.Product]int),
	}
	for _, s := range shifts {
		t.WindowsGenerated++
		t.ShiftsPlanned++
		t.ByProduct[s.Product]++
		if !s.Assigned() {
			t.Unassigned++
		}
	}
	return t
}

// eligibleCount counts active employees whose availability flag allows the
// product.
func eligibleCount(employees []*model.Employee, p model.Product) int {
	n := 0
	for _, e := range employees {
		if e.IsActive() && e.AvailableFor(p) {
			n++
		}
	}
	return n
}

func coverageRate(shifts []*model.Shift) float64 {
	if len(shifts) == 0 {
		return 100
	}
	assigned := 0
	for _, s := range shifts {
		if s.Assigned() {
			assigned++
		}
	}
	return float64(assigned) / float64(len(shifts)) * 100
}

// GetRun fetches one stored run with its events.
func (s *Service) GetRun(ctx context.Context, id uuid.UUID) (*RunDetail, error) {
	run, events, err := s.runs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &RunDetail{Run: run, Events: events}, nil
}

// ListRuns returns the team's stored runs, newest first.
func (s *Service) ListRuns(ctx context.Context, teamID uuid.UUID, limit int) ([]*model.OrchestrationRun, error) {
	if _, err := s.teams.GetByID(ctx, teamID); err != nil {
		return nil, err
	}
	return s.runs.ListByTeam(ctx, teamID, limit)
}

// SetAutoScheduling flips the team's nightly extension toggle.
func (s *Service) SetAutoScheduling(ctx context.Context, teamID uuid.UUID, enabled bool) error {
	return s.teams.SetAutoScheduling(ctx, teamID, enabled)
}

// SetProductEnabled flips one product toggle of a team.
func (s *Service) SetProductEnabled(ctx context.Context, teamID uuid.UUID, p model.Product, enabled bool) error {
	if !p.Valid() {
		return apperrors.UnknownProduct(string(p))
	}
	return s.teams.SetProductEnabled(ctx, teamID, p, enabled)
}

// Coverage reports the applied coverage of the team over [from, to). A
// non-empty product restricts the report to that product.
func (s *Service) Coverage(ctx context.Context, teamID uuid.UUID, from, to time.Time, product model.Product) (*stats.CoverageMetrics, error) {
	if _, err := s.teams.GetByID(ctx, teamID); err != nil {
		return nil, err
	}
	shifts, err := s.shifts.ListActiveRange(ctx, teamID, from, to)
	if err != nil {
		return nil, err
	}
	if product != "" {
		filtered := make([]*model.Shift, 0, len(shifts))
		for _, sh := range shifts {
			if sh.Product == product {
				filtered = append(filtered, sh)
			}
		}
		shifts = filtered
	}
	return stats.NewCoverageAnalyzer(s.loc).Analyze(shifts), nil
}

// SwapCandidates ranks engineers able to take over an applied shift, for
// example when the assignee falls ill after the schedule was applied. The
// surrounding applied coverage is loaded so overlap and rest checks see it.
func (s *Service) SwapCandidates(ctx context.Context, shiftID uuid.UUID, limit int) ([]swap.Recommendation, error) {
	shift, err := s.shifts.GetByID(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	employees, err := s.employees.ListActiveByTeam(ctx, shift.TeamID)
	if err != nil {
		return nil, err
	}
	templates, err := s.employees.TemplatesByTeam(ctx, shift.TeamID)
	if err != nil {
		return nil, err
	}
	leaves, err := s.leaves.ListOverlapping(ctx, shift.TeamID, shift.Start.Add(-loadPad), shift.End.Add(loadPad))
	if err != nil {
		return nil, err
	}
	patterns, err := s.leaves.ListActivePatterns(ctx, shift.TeamID, shift.Start.Add(-loadPad), shift.End.Add(loadPad))
	if err != nil {
		return nil, err
	}
	applied, err := s.shifts.ListActiveRange(ctx, shift.TeamID, shift.Start.Add(-loadPad), shift.End.Add(loadPad))
	if err != nil {
		return nil, err
	}
	// Committed load up to the shift being handed over counts toward the
	// ranking; the shift itself starts at the bound and stays out.
	now := s.now()
	histUntil := now
	if shift.Start.After(histUntil) {
		histUntil = shift.Start
	}
	history, err := s.shifts.ListHistory(ctx, shift.TeamID, now.Add(-s.cfg.HistoryWindow), histUntil)
	if err != nil {
		return nil, err
	}

	snap := feasibility.NewSnapshot(s.loc, leaves, patterns, templates)
	fctx := feasibility.NewContext(snap)
	for _, a := range applied {
		if a.ID == shift.ID || !a.Assigned() {
			continue
		}
		fctx.Assign(*a.EmployeeID, window.Window{
			Product: a.Product,
			Start:   a.Start,
			End:     a.End,
			UnitKey: model.CivilDate(a.Start, s.loc),
		})
	}

	calc := fairness.NewCalculator(fairness.DefaultParams())
	calc.LoadHistory(history, now)

	rec := swap.New(feasibility.NewEvaluator(s.loc, s.policy()), calc)
	return rec.Recommend(employees, shift, fctx, &swap.Options{Limit: limit}), nil
}

// Availability reports per-employee plannability over civil dates [from, to],
// optionally scoped to one product.
func (s *Service) Availability(ctx context.Context, teamID uuid.UUID, from, to time.Time, product model.Product) ([]*stats.EmployeeAvailability, error) {
	if _, err := s.teams.GetByID(ctx, teamID); err != nil {
		return nil, err
	}
	employees, err := s.employees.ListActiveByTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	leaves, err := s.leaves.ListOverlapping(ctx, teamID, from, to.Add(loadPad))
	if err != nil {
		return nil, err
	}
	patterns, err := s.leaves.ListActivePatterns(ctx, teamID, from, to.Add(loadPad))
	if err != nil {
		return nil, err
	}
	return stats.NewAvailabilityAnalyzer(s.loc).Analyze(employees, leaves, patterns, from, to, product), nil
}
