package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/lib/pq"
	apperrors "github.com/roosterd/roosterd/pkg/errors"
	"github.com/roosterd/roosterd/pkg/model"
)

// EmployeeRepository reads the employee roster. Employees are owned by
// external user management; this layer never writes them.
type EmployeeRepository struct {
	db DB
}

// NewEmployeeRepository creates an employee repository.
func NewEmployeeRepository(db DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

const employeeColumns = `
	id, team_id, name, email, status,
	available_for_incidents, available_for_waakdienst, skills,
	seniority_start_date, max_consecutive_weeks, created_at, updated_at
`

// ListActiveByTeam returns the team's active roster ordered by id, the
// stable order the planning loop relies on.
func (r *EmployeeRepository) ListActiveByTeam(ctx context.Context, teamID uuid.UUID) ([]*model.Employee, error) {
	query := `
		SELECT ` + employeeColumns + `
		FROM employees
		WHERE team_id = $1 AND status = 'active' AND deleted_at IS NULL
		ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, apperrors.TransientStorage(err)
	}
	defer rows.Close()

	var employees []*model.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, apperrors.TransientStorage(err)
		}
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

func scanEmployee(row Scanner) (*model.Employee, error) {
	emp := &model.Employee{}
	var maxConsecutive []byte
	err := row.Scan(
		&emp.ID, &emp.TeamID, &emp.Name, &emp.Email, &emp.Status,
		&emp.AvailableForIncidents, &emp.AvailableForWaakdienst, pq.Array(&emp.Skills),
		&emp.SeniorityStartDate, &maxConsecutive, &emp.CreatedAt, &emp.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(maxConsecutive) > 0 {
		json.Unmarshal(maxConsecutive, &emp.MaxConsecutiveWeeks)
	}
	return emp, nil
}

// TemplatesByTeam returns the team's shift templates.
func (r *EmployeeRepository) TemplatesByTeam(ctx context.Context, teamID uuid.UUID) ([]*model.ShiftTemplate, error) {
	query := `
		SELECT id, team_id, product, name, required_skills, created_at, updated_at
		FROM shift_templates
		WHERE team_id = $1 AND deleted_at IS NULL
		ORDER BY product`

	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, apperrors.TransientStorage(err)
	}
	defer rows.Close()

	var templates []*model.ShiftTemplate
	for rows.Next() {
		t := &model.ShiftTemplate{}
		if err := rows.Scan(
			&t.ID, &t.TeamID, &t.Product, &t.Name, pq.Array(&t.RequiredSkills),
			&t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, apperrors.TransientStorage(err)
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}
