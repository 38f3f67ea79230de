// Package feasibility implements the per-(employee, window) constraint
// evaluator. The evaluator is a pure predicate over a prefetched snapshot:
// it performs no I/O and never mutates persistent state.
package feasibility

import (
	"time"

	"github.com/google/uuid"
	"github.com/roosterd/roosterd/pkg/model"
)

// LeaveInterval is one approved leave expanded to a concrete interval.
type LeaveInterval struct {
	Range    model.TimeRange
	Handling model.ConflictHandling
}

// Snapshot is the immutable per-run prefetch of everything the evaluator
// needs: approved leave, recurring patterns and required skills. Built once
// per run, never memoized across runs.
type Snapshot struct {
	loc      *time.Location
	leaves   map[uuid.UUID][]LeaveInterval
	patterns map[uuid.UUID][]*model.RecurringLeavePattern
	required map[model.Product][]string
}

// NewSnapshot builds a snapshot from the raw read models. Only approved
// leave with a blocking conflict handling is retained; pending leave is
// advisory and never enters the snapshot.
func NewSnapshot(loc *time.Location, leaves []*model.LeaveRequest, patterns []*model.RecurringLeavePattern, templates []*model.ShiftTemplate) *Snapshot {
	s := &Snapshot{
		loc:      loc,
		leaves:   make(map[uuid.UUID][]LeaveInterval),
		patterns: make(map[uuid.UUID][]*model.RecurringLeavePattern),
		required: make(map[model.Product][]string),
	}

	for _, l := range leaves {
		if l.Status != model.LeaveApproved || l.Handling == model.ConflictNone {
			continue
		}
		s.leaves[l.EmployeeID] = append(s.leaves[l.EmployeeID], LeaveInterval{
			Range:    l.Range(),
			Handling: l.Handling,
		})
	}

	for _, p := range patterns {
		s.patterns[p.EmployeeID] = append(s.patterns[p.EmployeeID], p)
	}

	for _, t := range templates {
		if len(t.RequiredSkills) > 0 {
			s.required[t.Product] = t.RequiredSkills
		}
	}

	return s
}

// Location returns the snapshot's zone.
func (s *Snapshot) Location() *time.Location {
	return s.loc
}

// RequiredSkills returns the skills the product's template demands.
func (s *Snapshot) RequiredSkills(p model.Product) []string {
	return s.required[p]
}

// LeaveOverlap returns the strongest conflict handling of any approved
// leave intersecting r for the employee. Full unavailability dominates
// daytime-only.
func (s *Snapshot) LeaveOverlap(empID uuid.UUID, r model.TimeRange) (model.ConflictHandling, bool) {
	var found model.ConflictHandling
	var any bool
	for _, li := range s.leaves[empID] {
		if !li.Range.Overlaps(r) {
			continue
		}
		if li.Handling == model.ConflictFullUnavailable {
			return model.ConflictFullUnavailable, true
		}
		found, any = li.Handling, true
	}
	return found, any
}

// RecurringOverlap expands the employee's recurring patterns inside r and
// returns the strongest coverage type that intersects. Full coverage
// dominates daytime-only.
func (s *Snapshot) RecurringOverlap(empID uuid.UUID, r model.TimeRange) (model.CoverageType, bool) {
	var found model.CoverageType
	var any bool

	// Start one day early: a pattern window crossing midnight can reach
	// into the range from the previous civil date.
	day := model.CivilDate(r.Start, s.loc).AddDate(0, 0, -1)
	bound := model.CivilDate(r.End, s.loc).AddDate(0, 0, 1)

	for ; day.Before(bound); day = day.AddDate(0, 0, 1) {
		for _, p := range s.patterns[empID] {
			iv, ok := p.IntervalOn(day, s.loc)
			if !ok || !iv.Overlaps(r) {
				continue
			}
			if p.Coverage == model.CoverageFull {
				return model.CoverageFull, true
			}
			found, any = p.Coverage, true
		}
	}
	return found, any
}

// BlockedDays returns, for a set of windows, those whose range intersects a
// blocking leave or recurring pattern of the employee for the product.
// Used by the reassignment pass to find the days of a unit that need split
// coverage.
func (s *Snapshot) BlockedDays(empID uuid.UUID, p model.Product, windows []model.TimeRange) []int {
	var blocked []int
	for i, r := range windows {
		if h, ok := s.LeaveOverlap(empID, r); ok {
			if h == model.ConflictFullUnavailable || (h == model.ConflictDaytimeOnly && p.BusinessHours()) {
				blocked = append(blocked, i)
				continue
			}
		}
		if cov, ok := s.RecurringOverlap(empID, r); ok && cov.Blocks(p) {
			blocked = append(blocked, i)
		}
	}
	return blocked
}
