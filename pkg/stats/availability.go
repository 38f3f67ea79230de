package stats

import (
	"time"

	"github.com/google/uuid"
	"github.com/roosterd/roosterd/pkg/model"
)

// EmployeeAvailability summarizes how plannable one employee is over a
// horizon. Pending leave is reported separately and never reduces the
// available day count.
type EmployeeAvailability struct {
	EmployeeID uuid.UUID       `json:"employee_id"`
	Name       string          `json:"name"`
	Products   []model.Product `json:"products"`

	HorizonDays     int `json:"horizon_days"`
	LeaveDays       int `json:"leave_days"`
	RecurringDays   int `json:"recurring_days"`
	AvailableDays   int `json:"available_days"`
	PendingLeaveDay int `json:"pending_leave_days"`
}

// AvailabilityAnalyzer computes per-employee availability over a horizon.
type AvailabilityAnalyzer struct {
	loc *time.Location
}

// NewAvailabilityAnalyzer creates an analyzer for the given zone.
func NewAvailabilityAnalyzer(loc *time.Location) *AvailabilityAnalyzer {
	return &AvailabilityAnalyzer{loc: loc}
}

// Analyze reports availability per employee over civil dates [from, to].
// A non-empty product scopes the rollup: only employees plannable for that
// product are listed and only leave that actually blocks it counts, so
// daytime-only leave never reduces waakdienst availability.
func (a *AvailabilityAnalyzer) Analyze(employees []*model.Employee, leaves []*model.LeaveRequest, patterns []*model.RecurringLeavePattern, from, to time.Time, product model.Product) []*EmployeeAvailability {
	start := model.CivilDate(from, a.loc)
	bound := model.CivilDate(to, a.loc).AddDate(0, 0, 1)

	leavesByEmp := make(map[uuid.UUID][]*model.LeaveRequest)
	for _, l := range leaves {
		leavesByEmp[l.EmployeeID] = append(leavesByEmp[l.EmployeeID], l)
	}
	patternsByEmp := make(map[uuid.UUID][]*model.RecurringLeavePattern)
	for _, p := range patterns {
		patternsByEmp[p.EmployeeID] = append(patternsByEmp[p.EmployeeID], p)
	}

	var out []*EmployeeAvailability
	for _, emp := range employees {
		if product != "" && !(emp.IsActive() && emp.AvailableFor(product)) {
			continue
		}
		report := &EmployeeAvailability{
			EmployeeID: emp.ID,
			Name:       emp.Name,
		}
		for _, p := range model.PlanningOrder() {
			if emp.IsActive() && emp.AvailableFor(p) {
				report.Products = append(report.Products, p)
			}
		}

		for day := start; day.Before(bound); day = day.AddDate(0, 0, 1) {
			report.HorizonDays++
			dayRange := model.TimeRange{Start: day, End: day.AddDate(0, 0, 1)}

			var onLeave, pending, recurring bool
			for _, l := range leavesByEmp[emp.ID] {
				if !l.Range().Overlaps(dayRange) || !leaveCounts(l.Handling, product) {
					continue
				}
				switch l.Status {
				case model.LeaveApproved:
					onLeave = true
				case model.LeavePending:
					pending = true
				}
			}
			for _, p := range patternsByEmp[emp.ID] {
				if product != "" && !p.Coverage.Blocks(product) {
					continue
				}
				if _, ok := p.IntervalOn(day, a.loc); ok {
					recurring = true
				}
			}

			if onLeave {
				report.LeaveDays++
			}
			if pending {
				report.PendingLeaveDay++
			}
			if recurring {
				report.RecurringDays++
			}
			if !onLeave && !recurring {
				report.AvailableDays++
			}
		}
		out = append(out, report)
	}
	return out
}

// leaveCounts reports whether a leave's handling reduces availability for
// the queried product. An empty product means any product.
func leaveCounts(h model.ConflictHandling, product model.Product) bool {
	switch h {
	case model.ConflictFullUnavailable:
		return true
	case model.ConflictDaytimeOnly:
		return product == "" || product.BusinessHours()
	}
	return false
}
