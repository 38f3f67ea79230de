// Package swap recommends take-over candidates for an applied shift, for
// example when the assignee falls ill after the schedule was applied.
package swap

import (
	"github.com/google/uuid"
	"github.com/roosterd/roosterd/pkg/model"
	"github.com/roosterd/roosterd/pkg/scheduler/fairness"
	"github.com/roosterd/roosterd/pkg/scheduler/feasibility"
	"github.com/roosterd/roosterd/pkg/scheduler/window"
)

// Recommendation is one candidate able to take over a shift, ranked by
// fairness.
type Recommendation struct {
	Employee *model.Employee `json:"employee"`
	Score    float64         `json:"score"`
	Rank     int             `json:"rank"`

	// Warning carries a non-blocking flag, such as a recurring gap inside
	// the shift.
	Warning string `json:"warning,omitempty"`
}

// Options tune a recommendation query.
type Options struct {
	// Limit caps the number of recommendations. Zero means 5.
	Limit int

	// Exclude removes candidates, on top of the current assignee.
	Exclude []uuid.UUID
}

// Recommender ranks take-over candidates with the same evaluator and
// fairness calculator the planner uses, so a recommendation is always a
// valid assignment.
type Recommender struct {
	eval *feasibility.Evaluator
	calc *fairness.Calculator
}

// New creates a recommender.
func New(eval *feasibility.Evaluator, calc *fairness.Calculator) *Recommender {
	return &Recommender{eval: eval, calc: calc}
}

// Recommend returns the feasible take-over candidates for the shift, best
// first. The context must carry the currently applied assignments so the
// overlap and rest checks see them.
func (r *Recommender) Recommend(employees []*model.Employee, shift *model.Shift, ctx *feasibility.Context, opts *Options) []Recommendation {
	limit := 5
	if opts != nil && opts.Limit > 0 {
		limit = opts.Limit
	}

	exclude := make(map[uuid.UUID]bool)
	if shift.EmployeeID != nil {
		exclude[*shift.EmployeeID] = true
	}
	if opts != nil {
		for _, id := range opts.Exclude {
			exclude[id] = true
		}
	}

	w := window.Window{
		Product: shift.Product,
		Start:   shift.Start,
		End:     shift.End,
		UnitKey: model.CivilDate(shift.Start, ctx.Snapshot().Location()),
	}

	var survivors []*model.Employee
	warnings := make(map[uuid.UUID]string)
	for _, emp := range employees {
		if exclude[emp.ID] {
			continue
		}
		v := r.eval.Check(emp, w, ctx)
		if v.Skip() {
			continue
		}
		if v.Outcome == feasibility.OutcomeWarn {
			warnings[emp.ID] = string(v.Reason)
		}
		survivors = append(survivors, emp)
	}

	ranked := r.calc.Rank(survivors, shift.Product)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	out := make([]Recommendation, len(ranked))
	for i, emp := range ranked {
		out[i] = Recommendation{
			Employee: emp,
			Score:    r.calc.Score(emp, shift.Product),
			Rank:     i + 1,
			Warning:  warnings[emp.ID],
		}
	}
	return out
}

// Best returns the single best take-over candidate, or nil when nobody can
// take the shift.
func (r *Recommender) Best(employees []*model.Employee, shift *model.Shift, ctx *feasibility.Context) *Recommendation {
	recs := r.Recommend(employees, shift, ctx, &Options{Limit: 1})
	if len(recs) == 0 {
		return nil
	}
	return &recs[0]
}
