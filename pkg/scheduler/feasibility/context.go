package feasibility

import (
	"time"

	"github.com/google/uuid"
	"github.com/roosterd/roosterd/pkg/model"
	"github.com/roosterd/roosterd/pkg/scheduler/window"
)

// Assignment is one window already given to an employee during this run or
// already applied in the database inside the horizon.
type Assignment struct {
	EmployeeID uuid.UUID
	Window     window.Window
}

// Context accumulates the assignments made so far in a run. The evaluator
// consults it for double-assignment, rest-period and consecutive-unit checks.
type Context struct {
	snap       *Snapshot
	byEmployee map[uuid.UUID][]Assignment

	// units maps product -> unit key -> assignee, for consecutive-unit
	// counting across weeks.
	units map[model.Product]map[time.Time]uuid.UUID
}

// NewContext creates an empty context over a snapshot.
func NewContext(snap *Snapshot) *Context {
	return &Context{
		snap:       snap,
		byEmployee: make(map[uuid.UUID][]Assignment),
		units:      make(map[model.Product]map[time.Time]uuid.UUID),
	}
}

// Snapshot returns the underlying snapshot.
func (c *Context) Snapshot() *Snapshot {
	return c.snap
}

// Assign records a window assignment.
func (c *Context) Assign(empID uuid.UUID, w window.Window) {
	c.byEmployee[empID] = append(c.byEmployee[empID], Assignment{EmployeeID: empID, Window: w})
}

// Unassign removes a previously recorded window assignment.
func (c *Context) Unassign(empID uuid.UUID, w window.Window) {
	list := c.byEmployee[empID]
	for i, a := range list {
		if a.Window.Start.Equal(w.Start) && a.Window.End.Equal(w.End) && a.Window.Product == w.Product {
			c.byEmployee[empID] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// Assignments returns the windows recorded for an employee.
func (c *Context) Assignments(empID uuid.UUID) []Assignment {
	return c.byEmployee[empID]
}

// SetUnitAssignee records the intended assignee of a planning unit.
func (c *Context) SetUnitAssignee(p model.Product, key time.Time, empID uuid.UUID) {
	m := c.units[p]
	if m == nil {
		m = make(map[time.Time]uuid.UUID)
		c.units[p] = m
	}
	m[key] = empID
}

// ClearUnitAssignee removes a unit assignment record.
func (c *Context) ClearUnitAssignee(p model.Product, key time.Time) {
	if m := c.units[p]; m != nil {
		delete(m, key)
	}
}

// UnitAssignee returns the recorded assignee of a unit, if any.
func (c *Context) UnitAssignee(p model.Product, key time.Time) (uuid.UUID, bool) {
	if m := c.units[p]; m != nil {
		id, ok := m[key]
		return id, ok
	}
	return uuid.Nil, false
}

// ConsecutiveUnits counts how many units of the product the employee holds
// in the weeks immediately preceding key. The streak stops at the first week
// assigned to someone else or to nobody.
func (c *Context) ConsecutiveUnits(empID uuid.UUID, p model.Product, key time.Time) int {
	m := c.units[p]
	if m == nil {
		return 0
	}
	count := 0
	for prev := key.AddDate(0, 0, -7); ; prev = prev.AddDate(0, 0, -7) {
		id, ok := m[prev]
		if !ok || id != empID {
			break
		}
		count++
	}
	return count
}
