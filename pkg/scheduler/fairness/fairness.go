// Package fairness ranks candidate employees by weighted historical load.
// One calculator instance lives for exactly one run; scores are never
// memoized across runs.
package fairness

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/roosterd/roosterd/pkg/model"
)

const hoursPerWeek = 24 * 7

// Params are the per-product tuning knobs of the score.
type Params struct {
	// Tau is the decay half-life in weeks per product. Older shifts count
	// for less; a shorter tau makes the rotation forget faster.
	Tau map[model.Product]float64

	// AvailabilityBonus is subtracted from the score, letting
	// rarely-available employees rank slightly better. Nil means zero.
	AvailabilityBonus func(e *model.Employee, p model.Product) float64
}

// DefaultParams returns the default decay constants.
func DefaultParams() Params {
	return Params{
		Tau: map[model.Product]float64{
			model.ProductIncidents:        26,
			model.ProductIncidentsStandby: 26,
			model.ProductWaakdienst:       13,
		},
	}
}

func (p Params) tau(product model.Product) float64 {
	if t, ok := p.Tau[product]; ok && t > 0 {
		return t
	}
	return 26
}

// Calculator accumulates decayed history and the debit of the current run.
// It never mutates persistent state.
type Calculator struct {
	params   Params
	history  map[model.Product]map[uuid.UUID]float64
	debit    map[model.Product]map[uuid.UUID]float64
	runCount map[uuid.UUID]int
}

// NewCalculator creates an empty calculator.
func NewCalculator(params Params) *Calculator {
	return &Calculator{
		params:   params,
		history:  make(map[model.Product]map[uuid.UUID]float64),
		debit:    make(map[model.Product]map[uuid.UUID]float64),
		runCount: make(map[uuid.UUID]int),
	}
}

// LoadHistory folds applied shifts into the per-product decayed hours.
// Shifts that have not started yet count at full weight: load already
// committed for upcoming weeks is load all the same. Unassigned placeholders
// and superseded rows are ignored.
func (c *Calculator) LoadHistory(shifts []*model.Shift, now time.Time) {
	for _, s := range shifts {
		if s.Status != model.ShiftApplied || !s.Assigned() {
			continue
		}
		ageWeeks := now.Sub(s.Start).Hours() / hoursPerWeek
		if ageWeeks < 0 {
			ageWeeks = 0
		}
		weight := math.Exp(-ageWeeks / c.params.tau(s.Product))
		c.add(c.history, s.Product, *s.EmployeeID, s.Hours()*weight)
	}
}

// AddDebit charges hours assigned during the current run. Negative hours
// refund a withdrawn assignment.
func (c *Calculator) AddDebit(empID uuid.UUID, p model.Product, hours float64) {
	c.add(c.debit, p, empID, hours)
}

func (c *Calculator) add(m map[model.Product]map[uuid.UUID]float64, p model.Product, empID uuid.UUID, hours float64) {
	inner, ok := m[p]
	if !ok {
		inner = make(map[uuid.UUID]float64)
		m[p] = inner
	}
	inner[empID] += hours
}

// RecordAssignment bumps the run-local assignment count, the first
// tie-break of the ordering.
func (c *Calculator) RecordAssignment(empID uuid.UUID) {
	c.runCount[empID]++
}

// WithdrawAssignment reverts a RecordAssignment.
func (c *Calculator) WithdrawAssignment(empID uuid.UUID) {
	if c.runCount[empID] > 0 {
		c.runCount[empID]--
	}
}

// Assignments returns the run-local assignment count.
func (c *Calculator) Assignments(empID uuid.UUID) int {
	return c.runCount[empID]
}

// Score computes the fairness score. Lower is preferred.
func (c *Calculator) Score(e *model.Employee, p model.Product) float64 {
	score := c.history[p][e.ID] + c.debit[p][e.ID]
	if c.params.AvailabilityBonus != nil {
		score -= c.params.AvailabilityBonus(e, p)
	}
	return score
}

// Snapshot returns the fairness state for a product, logged on the run
// record after planning completes.
func (c *Calculator) Snapshot(p model.Product) map[uuid.UUID]model.FairnessBreakdown {
	out := make(map[uuid.UUID]model.FairnessBreakdown)
	for id, h := range c.history[p] {
		b := out[id]
		b.WeightedHours = h
		out[id] = b
	}
	for id, d := range c.debit[p] {
		b := out[id]
		b.PlanDebit = d
		out[id] = b
	}
	for id, n := range c.runCount {
		b := out[id]
		b.Assignments = n
		out[id] = b
	}
	return out
}

// Rank orders candidates for a product: lowest score first, ties broken by
// fewest run-local assignments, earliest seniority date, then employee id.
// The order is total and reproducible for a given input.
func (c *Calculator) Rank(candidates []*model.Employee, p model.Product) []*model.Employee {
	ranked := make([]*model.Employee, len(candidates))
	copy(ranked, candidates)

	sort.Slice(ranked, func(i, j int) bool {
		return c.less(ranked[i], ranked[j], p)
	})
	return ranked
}

func (c *Calculator) less(a, b *model.Employee, p model.Product) bool {
	sa, sb := c.Score(a, p), c.Score(b, p)
	if sa != sb {
		return sa < sb
	}
	if na, nb := c.runCount[a.ID], c.runCount[b.ID]; na != nb {
		return na < nb
	}
	if !a.SeniorityStartDate.Equal(b.SeniorityStartDate) {
		return a.SeniorityStartDate.Before(b.SeniorityStartDate)
	}
	return a.ID.String() < b.ID.String()
}
