// Package validator checks a finished plan against the engine invariants
// before it may be applied. A violation here is an engine defect, not an
// input problem: the run is aborted without persisting.
package validator

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/roosterd/roosterd/pkg/model"
	"github.com/roosterd/roosterd/pkg/scheduler/feasibility"
	"github.com/roosterd/roosterd/pkg/scheduler/planner"
	"github.com/roosterd/roosterd/pkg/scheduler/window"
)

// ViolationKind classifies a broken invariant.
type ViolationKind string

const (
	// ViolationUnitCohesion: a waakdienst unit carries more than one assignee.
	ViolationUnitCohesion ViolationKind = "unit_cohesion"
	// ViolationOverlap: one employee holds two overlapping windows outside
	// the handover corridor.
	ViolationOverlap ViolationKind = "overlap"
	// ViolationLeave: an assigned window intersects blocking approved leave.
	ViolationLeave ViolationKind = "leave"
)

// Violation is one broken invariant.
type Violation struct {
	Kind       ViolationKind `json:"kind"`
	Product    model.Product `json:"product"`
	EmployeeID *uuid.UUID    `json:"employee_id,omitempty"`
	Window     time.Time     `json:"window"`
	Message    string        `json:"message"`
}

// Validator verifies plan invariants.
type Validator struct {
	loc *time.Location
}

// New creates a validator for the given zone.
func New(loc *time.Location) *Validator {
	return &Validator{loc: loc}
}

// ValidatePlan runs every invariant check over the finished plan.
func (v *Validator) ValidatePlan(plan []*planner.PlannedUnit, snap *feasibility.Snapshot) []Violation {
	var out []Violation
	out = append(out, v.checkUnitCohesion(plan)...)
	out = append(out, v.checkOverlaps(plan)...)
	out = append(out, v.checkLeave(plan, snap)...)
	return out
}

// checkUnitCohesion verifies that waakdienst units keep a single assignee.
// Business units may diverge per day through split coverage.
func (v *Validator) checkUnitCohesion(plan []*planner.PlannedUnit) []Violation {
	var out []Violation
	for _, u := range plan {
		if u.Product.BusinessHours() {
			continue
		}
		assignees := make(map[uuid.UUID]bool)
		for _, w := range u.Windows {
			if w.EmployeeID != nil {
				assignees[*w.EmployeeID] = true
			}
		}
		if len(assignees) > 1 {
			out = append(out, Violation{
				Kind:    ViolationUnitCohesion,
				Product: u.Product,
				Window:  u.Key,
				Message: fmt.Sprintf("%d assignees on one %s unit", len(assignees), u.Product),
			})
		}
	}
	return out
}

// checkOverlaps verifies that no employee covers two intersecting windows,
// apart from the Wednesday handover corridor between duty families.
func (v *Validator) checkOverlaps(plan []*planner.PlannedUnit) []Violation {
	type owned struct {
		w   window.Window
		emp uuid.UUID
	}
	byEmployee := make(map[uuid.UUID][]owned)
	for _, u := range plan {
		for _, w := range u.Windows {
			if w.EmployeeID == nil {
				continue
			}
			byEmployee[*w.EmployeeID] = append(byEmployee[*w.EmployeeID], owned{w: w.Window, emp: *w.EmployeeID})
		}
	}

	var out []Violation
	for empID, windows := range byEmployee {
		sort.Slice(windows, func(i, j int) bool {
			return windows[i].w.Start.Before(windows[j].w.Start)
		})
		for i := 0; i < len(windows); i++ {
			for j := i + 1; j < len(windows); j++ {
				a, b := windows[i].w, windows[j].w
				if !b.Start.Before(a.End) {
					break
				}
				overlap, ok := a.Range().Intersection(b.Range())
				if !ok {
					continue
				}
				if a.Product.BusinessHours() != b.Product.BusinessHours() &&
					window.InHandoverCorridor(overlap, v.loc) {
					continue
				}
				id := empID
				out = append(out, Violation{
					Kind:       ViolationOverlap,
					Product:    b.Product,
					EmployeeID: &id,
					Window:     b.Start,
					Message:    fmt.Sprintf("windows %s and %s overlap", a.Start, b.Start),
				})
			}
		}
	}
	return out
}

// checkLeave verifies that no assigned window intersects blocking approved
// leave of its assignee.
func (v *Validator) checkLeave(plan []*planner.PlannedUnit, snap *feasibility.Snapshot) []Violation {
	var out []Violation
	for _, u := range plan {
		for _, w := range u.Windows {
			if w.EmployeeID == nil {
				continue
			}
			h, found := snap.LeaveOverlap(*w.EmployeeID, w.Window.Range())
			if !found {
				continue
			}
			if h == model.ConflictFullUnavailable ||
				(h == model.ConflictDaytimeOnly && u.Product.BusinessHours()) {
				id := *w.EmployeeID
				out = append(out, Violation{
					Kind:       ViolationLeave,
					Product:    u.Product,
					EmployeeID: &id,
					Window:     w.Window.Start,
					Message:    "assigned window intersects approved leave",
				})
			}
		}
	}
	return out
}
