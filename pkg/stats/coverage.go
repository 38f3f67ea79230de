// Package stats provides read-side analysis of applied schedules: coverage
// per product and day, and candidate availability over a horizon.
package stats

import (
	"time"

	"github.com/roosterd/roosterd/pkg/model"
)

// GapInfo is one unassigned shift window in the active schedule.
type GapInfo struct {
	Product model.Product `json:"product"`
	Start   time.Time     `json:"start"`
	End     time.Time     `json:"end"`
}

// ProductCoverage aggregates coverage for one product.
type ProductCoverage struct {
	Total    int     `json:"total"`
	Assigned int     `json:"assigned"`
	Rate     float64 `json:"rate"` // percent
}

// DayCoverage aggregates coverage for one civil date.
type DayCoverage struct {
	Date     string  `json:"date"`
	Total    int     `json:"total"`
	Assigned int     `json:"assigned"`
	Rate     float64 `json:"rate"`
	Hours    float64 `json:"hours"` // assigned hours starting on the date
}

// CoverageMetrics is the full coverage report over a set of shifts.
type CoverageMetrics struct {
	TotalShifts    int                              `json:"total_shifts"`
	AssignedShifts int                              `json:"assigned_shifts"`
	OverallRate    float64                          `json:"overall_rate"`
	ByProduct      map[model.Product]*ProductCoverage `json:"by_product"`
	Daily          map[string]*DayCoverage          `json:"daily"`
	Gaps           []GapInfo                        `json:"gaps,omitempty"`
}

// CoverageAnalyzer computes coverage over active shifts.
type CoverageAnalyzer struct {
	loc *time.Location
}

// NewCoverageAnalyzer creates an analyzer for the given zone.
func NewCoverageAnalyzer(loc *time.Location) *CoverageAnalyzer {
	return &CoverageAnalyzer{loc: loc}
}

// Analyze computes the report. Superseded shifts are excluded; unassigned
// placeholders count as gaps.
func (c *CoverageAnalyzer) Analyze(shifts []*model.Shift) *CoverageMetrics {
	m := &CoverageMetrics{
		ByProduct: make(map[model.Product]*ProductCoverage),
		Daily:     make(map[string]*DayCoverage),
	}

	for _, s := range shifts {
		if s.Status == model.ShiftSuperseded {
			continue
		}

		m.TotalShifts++

		pc := m.ByProduct[s.Product]
		if pc == nil {
			pc = &ProductCoverage{}
			m.ByProduct[s.Product] = pc
		}
		pc.Total++

		date := model.DateKey(model.CivilDate(s.Start, c.loc))
		dc := m.Daily[date]
		if dc == nil {
			dc = &DayCoverage{Date: date}
			m.Daily[date] = dc
		}
		dc.Total++

		if s.Assigned() {
			m.AssignedShifts++
			pc.Assigned++
			dc.Assigned++
			dc.Hours += s.Hours()
		} else {
			m.Gaps = append(m.Gaps, GapInfo{Product: s.Product, Start: s.Start, End: s.End})
		}
	}

	m.OverallRate = rate(m.AssignedShifts, m.TotalShifts)
	for _, pc := range m.ByProduct {
		pc.Rate = rate(pc.Assigned, pc.Total)
	}
	for _, dc := range m.Daily {
		dc.Rate = rate(dc.Assigned, dc.Total)
	}
	return m
}

// AnalyzeRange restricts the report to shifts starting inside [from, to).
func (c *CoverageAnalyzer) AnalyzeRange(shifts []*model.Shift, from, to time.Time) *CoverageMetrics {
	var filtered []*model.Shift
	for _, s := range shifts {
		if !s.Start.Before(from) && s.Start.Before(to) {
			filtered = append(filtered, s)
		}
	}
	return c.Analyze(filtered)
}

func rate(assigned, total int) float64 {
	if total == 0 {
		return 100
	}
	return float64(assigned) / float64(total) * 100
}
