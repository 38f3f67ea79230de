// Package constraints describes the fixed constraint catalog the planner
// enforces. The catalog is documentation for API consumers; the enforcement
// itself lives in the feasibility evaluator.
package constraints

import "github.com/roosterd/roosterd/pkg/model"

// Definition documents one constraint the planner checks.
type Definition struct {
	Kind        model.ConstraintKind `json:"kind"`
	DisplayName string               `json:"display_name"`
	Severity    model.Severity       `json:"severity"`
	Products    []string             `json:"products"`
	Description string               `json:"description"`

	// Resolution says what the planner does when the constraint fires.
	Resolution string `json:"resolution"`
}

// Library is the catalog response payload.
type Library struct {
	Constraints []Definition `json:"constraints"`
}

var allProducts = []string{"incidents", "incidents_standby", "waakdienst"}
var businessProducts = []string{"incidents", "incidents_standby"}

// Catalog returns every constraint the planner enforces. The catalog is
// static: constraints cannot be configured per team, only their policy knobs
// (rest hours, consecutive limits) vary.
func Catalog() []Definition {
	return []Definition{
		{
			Kind:        model.ConstraintSkillMismatch,
			DisplayName: "Required skills",
			Severity:    model.SeverityInfo,
			Products:    allProducts,
			Description: "The candidate must hold every skill the product's shift template requires.",
			Resolution:  "Candidate is skipped for the whole planning unit.",
		},
		{
			Kind:        model.ConstraintApprovedLeave,
			DisplayName: "Approved leave",
			Severity:    model.SeverityInfo,
			Products:    allProducts,
			Description: "Approved leave blocks assignment. Daytime-only leave blocks business products but leaves evening and weekend duty open.",
			Resolution:  "Candidate is skipped for the overlapping unit.",
		},
		{
			Kind:        model.ConstraintRecurringLeave,
			DisplayName: "Recurring leave pattern",
			Severity:    model.SeverityWarning,
			Products:    allProducts,
			Description: "A weekly recurring gap inside the window. Business products tolerate the gap; full-coverage duty does not.",
			Resolution:  "Business weeks stay assigned and the gap days are split off to a substitute; waakdienst candidates are skipped.",
		},
		{
			Kind:        model.ConstraintDoubleAssignment,
			DisplayName: "Double assignment",
			Severity:    model.SeverityWarning,
			Products:    allProducts,
			Description: "One engineer cannot hold two overlapping shifts, except where an incidents shift meets the waakdienst handover corridor on Wednesday.",
			Resolution:  "Candidate is skipped; an overlap surviving into the final plan aborts the run.",
		},
		{
			Kind:        model.ConstraintRestPeriod,
			DisplayName: "Rest period",
			Severity:    model.SeverityWarning,
			Products:    allProducts,
			Description: "A configurable minimum gap must separate a new shift from the candidate's previous one.",
			Resolution:  "Candidate is skipped for the unit.",
		},
		{
			Kind:        model.ConstraintOvertime,
			DisplayName: "Consecutive duty limit",
			Severity:    model.SeverityWarning,
			Products:    allProducts,
			Description: "An employee's personal cap on consecutive weeks of the same duty.",
			Resolution:  "Candidate is skipped once the cap is reached.",
		},
		{
			Kind:        model.ConstraintMinimumStaffing,
			DisplayName: "Minimum staffing",
			Severity:    model.SeverityViolation,
			Products:    businessProducts,
			Description: "Every planning unit needs an assignee, and standby needs a different engineer than incidents in the same week.",
			Resolution:  "The unit is written as an unassigned placeholder and the run reports a staffing event.",
		},
	}
}
