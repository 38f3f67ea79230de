package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	apperrors "github.com/roosterd/roosterd/pkg/errors"
	"github.com/roosterd/roosterd/pkg/model"
)

// TeamRepository reads teams and writes their scheduling toggles.
type TeamRepository struct {
	db DB
}

// NewTeamRepository creates a team repository.
func NewTeamRepository(db DB) *TeamRepository {
	return &TeamRepository{db: db}
}

const teamColumns = `
	id, department_id, name, auto_scheduling_enabled,
	incidents_enabled, standby_enabled, waakdienst_enabled,
	schedule_on_holidays, min_staffing, created_at, updated_at
`

// GetByID fetches one team. Returns UnknownTeam when no row matches.
func (r *TeamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Team, error) {
	query := fmt.Sprintf(`SELECT %s FROM teams WHERE id = $1 AND deleted_at IS NULL`, teamColumns)

	team, err := scanTeam(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, apperrors.UnknownTeam(id.String())
	}
	if err != nil {
		return nil, apperrors.TransientStorage(err)
	}
	return team, nil
}

// ListAutoScheduled returns the teams the nightly extender maintains.
func (r *TeamRepository) ListAutoScheduled(ctx context.Context) ([]*model.Team, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM teams
		WHERE auto_scheduling_enabled = true AND deleted_at IS NULL
		ORDER BY name`, teamColumns)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.TransientStorage(err)
	}
	defer rows.Close()

	var teams []*model.Team
	for rows.Next() {
		team, err := scanTeam(rows)
		if err != nil {
			return nil, apperrors.TransientStorage(err)
		}
		teams = append(teams, team)
	}
	return teams, rows.Err()
}

// SetAutoScheduling flips the team's auto scheduling toggle.
func (r *TeamRepository) SetAutoScheduling(ctx context.Context, id uuid.UUID, enabled bool) error {
	return r.setToggle(ctx, id, "auto_scheduling_enabled", enabled)
}

// SetProductEnabled flips one product toggle.
func (r *TeamRepository) SetProductEnabled(ctx context.Context, id uuid.UUID, p model.Product, enabled bool) error {
	var column string
	switch p {
	case model.ProductIncidents:
		column = "incidents_enabled"
	case model.ProductIncidentsStandby:
		column = "standby_enabled"
	case model.ProductWaakdienst:
		column = "waakdienst_enabled"
	default:
		return apperrors.UnknownProduct(string(p))
	}
	return r.setToggle(ctx, id, column, enabled)
}

func (r *TeamRepository) setToggle(ctx context.Context, id uuid.UUID, column string, enabled bool) error {
	query := fmt.Sprintf(
		`UPDATE teams SET %s = $2, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`,
		column,
	)
	result, err := r.db.ExecContext(ctx, query, id, enabled)
	if err != nil {
		return apperrors.TransientStorage(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return apperrors.UnknownTeam(id.String())
	}
	return nil
}

func scanTeam(row Scanner) (*model.Team, error) {
	team := &model.Team{}
	var minStaffing []byte
	err := row.Scan(
		&team.ID, &team.DepartmentID, &team.Name, &team.AutoSchedulingEnabled,
		&team.IncidentsEnabled, &team.StandbyEnabled, &team.WaakdienstEnabled,
		&team.ScheduleOnHolidays, &minStaffing, &team.CreatedAt, &team.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(minStaffing) > 0 {
		if err := json.Unmarshal(minStaffing, &team.MinStaffing); err != nil {
			return nil, fmt.Errorf("decode min_staffing: %w", err)
		}
	}
	return team, nil
}
