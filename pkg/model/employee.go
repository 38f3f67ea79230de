package model

import (
	"time"

	"github.com/google/uuid"
)

// Employee is the read model of an engineer as provided by user management.
// The orchestrator never mutates employees.
type Employee struct {
	BaseModel
	TeamID uuid.UUID `json:"team_id" db:"team_id"`
	Name   string    `json:"name" db:"name"`
	Email  string    `json:"email,omitempty" db:"email"`
	Status string    `json:"status" db:"status"` // active/inactive

	AvailableForIncidents  bool     `json:"available_for_incidents" db:"available_for_incidents"`
	AvailableForWaakdienst bool     `json:"available_for_waakdienst" db:"available_for_waakdienst"`
	Skills                 []string `json:"skills,omitempty" db:"skills"`

	// SeniorityStartDate is a civil date, used as a fairness tie-break.
	SeniorityStartDate time.Time `json:"seniority_start_date" db:"seniority_start_date"`

	// MaxConsecutiveWeeks caps consecutive planning units per product.
	// Zero or absent means unlimited.
	MaxConsecutiveWeeks map[Product]int `json:"max_consecutive_weeks,omitempty" db:"-"`
}

// IsActive reports whether the employee can be planned at all.
func (e *Employee) IsActive() bool {
	return e.Status == "active"
}

// AvailableFor reports the availability flag for a product.
func (e *Employee) AvailableFor(p Product) bool {
	if p.BusinessHours() {
		return e.AvailableForIncidents
	}
	return e.AvailableForWaakdienst
}

// HasSkill reports whether the employee has a single skill.
func (e *Employee) HasSkill(skill string) bool {
	for _, s := range e.Skills {
		if s == skill {
			return true
		}
	}
	return false
}

// HasSkills reports whether required is a subset of the employee's skills.
func (e *Employee) HasSkills(required []string) bool {
	for _, skill := range required {
		if !e.HasSkill(skill) {
			return false
		}
	}
	return true
}

// MaxConsecutive returns the consecutive-week cap for a product (0 = none).
func (e *Employee) MaxConsecutive(p Product) int {
	if e.MaxConsecutiveWeeks == nil {
		return 0
	}
	return e.MaxConsecutiveWeeks[p]
}

// Team is the read model of a team, including the scheduling toggles the
// orchestration API may flip.
type Team struct {
	BaseModel
	DepartmentID uuid.UUID `json:"department_id" db:"department_id"`
	Name         string    `json:"name" db:"name"`

	AutoSchedulingEnabled bool `json:"auto_scheduling_enabled" db:"auto_scheduling_enabled"`
	IncidentsEnabled      bool `json:"incidents_enabled" db:"incidents_enabled"`
	StandbyEnabled        bool `json:"standby_enabled" db:"standby_enabled"`
	WaakdienstEnabled     bool `json:"waakdienst_enabled" db:"waakdienst_enabled"`

	// ScheduleOnHolidays overrides the default of skipping business-hours
	// products on holidays.
	ScheduleOnHolidays bool `json:"schedule_on_holidays" db:"schedule_on_holidays"`

	// MinStaffing is an optional minimum staffing level per product,
	// surfaced as violation events when the planner cannot meet it.
	MinStaffing map[Product]int `json:"min_staffing,omitempty" db:"-"`
}

// ProductEnabled reports whether the team runs a product.
func (t *Team) ProductEnabled(p Product) bool {
	switch p {
	case ProductIncidents:
		return t.IncidentsEnabled
	case ProductIncidentsStandby:
		return t.StandbyEnabled
	case ProductWaakdienst:
		return t.WaakdienstEnabled
	}
	return false
}

// EnabledProducts returns the team's products in planning order.
func (t *Team) EnabledProducts() []Product {
	var products []Product
	for _, p := range PlanningOrder() {
		if t.ProductEnabled(p) {
			products = append(products, p)
		}
	}
	return products
}

// ShiftTemplate describes the shape of a product's shifts for a team.
// Read-only for the orchestrator.
type ShiftTemplate struct {
	BaseModel
	TeamID         uuid.UUID `json:"team_id" db:"team_id"`
	Product        Product   `json:"product" db:"product"`
	Name           string    `json:"name" db:"name"`
	RequiredSkills []string  `json:"required_skills,omitempty" db:"required_skills"`
}
