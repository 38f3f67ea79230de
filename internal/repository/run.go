package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/roosterd/roosterd/internal/database"
	apperrors "github.com/roosterd/roosterd/pkg/errors"
	"github.com/roosterd/roosterd/pkg/model"
)

// RunRepository reads orchestration runs and their constraint events.
// Run rows are written by ShiftRepository.ApplyRun (apply mode) or
// RecordPreview (preview mode) and are immutable afterwards.
type RunRepository struct {
	db *database.DB
}

// NewRunRepository creates a run repository.
func NewRunRepository(db *database.DB) *RunRepository {
	return &RunRepository{db: db}
}

// GetByID fetches one run with its events.
func (r *RunRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.OrchestrationRun, []*model.ConstraintEvent, error) {
	query := `
		SELECT id, team_id, horizon_start, horizon_end, mode, status,
			started_at, completed_at, totals, fairness, created_at, updated_at
		FROM orchestration_runs
		WHERE id = $1`

	run := &model.OrchestrationRun{}
	var totals, fairness []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&run.ID, &run.TeamID, &run.HorizonStart, &run.HorizonEnd, &run.Mode, &run.Status,
		&run.StartedAt, &run.CompletedAt, &totals, &fairness, &run.CreatedAt, &run.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil, apperrors.New(apperrors.CodeNotFound, "run not found").WithField("run_id", id.String())
	}
	if err != nil {
		return nil, nil, apperrors.TransientStorage(err)
	}
	if err := decodeRunBlobs(run, totals, fairness); err != nil {
		return nil, nil, err
	}

	events, err := r.listEvents(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return run, events, nil
}

// ListByTeam returns the team's runs, newest first.
func (r *RunRepository) ListByTeam(ctx context.Context, teamID uuid.UUID, limit int) ([]*model.OrchestrationRun, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT id, team_id, horizon_start, horizon_end, mode, status,
			started_at, completed_at, totals, fairness, created_at, updated_at
		FROM orchestration_runs
		WHERE team_id = $1
		ORDER BY started_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, teamID, limit)
	if err != nil {
		return nil, apperrors.TransientStorage(err)
	}
	defer rows.Close()

	var runs []*model.OrchestrationRun
	for rows.Next() {
		run := &model.OrchestrationRun{}
		var totals, fairness []byte
		if err := rows.Scan(
			&run.ID, &run.TeamID, &run.HorizonStart, &run.HorizonEnd, &run.Mode, &run.Status,
			&run.StartedAt, &run.CompletedAt, &totals, &fairness, &run.CreatedAt, &run.UpdatedAt,
		); err != nil {
			return nil, apperrors.TransientStorage(err)
		}
		if err := decodeRunBlobs(run, totals, fairness); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// decodeRunBlobs unpacks the jsonb columns of a run row.
func decodeRunBlobs(run *model.OrchestrationRun, totals, fairness []byte) error {
	if len(totals) > 0 {
		if err := json.Unmarshal(totals, &run.Totals); err != nil {
			return apperrors.Wrap(err, apperrors.CodeInternal, "decode run totals")
		}
	}
	if len(fairness) > 0 {
		if err := json.Unmarshal(fairness, &run.Fairness); err != nil {
			return apperrors.Wrap(err, apperrors.CodeInternal, "decode run fairness")
		}
	}
	return nil
}

// RecordPreview persists the audit record of a preview run. Preview writes
// no shifts, so no team lock is needed.
func (r *RunRepository) RecordPreview(ctx context.Context, run *model.OrchestrationRun, events []*model.ConstraintEvent) error {
	return r.db.Transaction(ctx, func(tx *sql.Tx) error {
		if err := insertRun(ctx, tx, run); err != nil {
			return err
		}
		return insertEvents(ctx, tx, run.ID, events)
	})
}

func (r *RunRepository) listEvents(ctx context.Context, runID uuid.UUID) ([]*model.ConstraintEvent, error) {
	query := `
		SELECT id, run_id, employee_id, product, window_start,
			kind, severity, resolution, note
		FROM orchestration_constraints
		WHERE run_id = $1
		ORDER BY window_start NULLS FIRST, id`

	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, apperrors.TransientStorage(err)
	}
	defer rows.Close()

	var events []*model.ConstraintEvent
	for rows.Next() {
		e := &model.ConstraintEvent{}
		if err := rows.Scan(
			&e.ID, &e.RunID, &e.EmployeeID, &e.Product, &e.WindowStart,
			&e.Kind, &e.Severity, &e.Resolution, &e.Note,
		); err != nil {
			return nil, apperrors.TransientStorage(err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// insertRun writes the run row inside a transaction.
func insertRun(ctx context.Context, tx *sql.Tx, run *model.OrchestrationRun) error {
	totals, err := json.Marshal(run.Totals)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "marshal run totals")
	}
	fairness, err := json.Marshal(run.Fairness)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "marshal run fairness")
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO orchestration_runs (
			id, team_id, horizon_start, horizon_end, mode, status,
			started_at, completed_at, totals, fairness, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())`,
		run.ID, run.TeamID, run.HorizonStart, run.HorizonEnd, run.Mode, run.Status,
		run.StartedAt, run.CompletedAt, totals, fairness,
	); err != nil {
		return apperrors.TransientStorage(err)
	}
	return nil
}

// insertEvents writes the run's constraint events inside a transaction.
func insertEvents(ctx context.Context, tx *sql.Tx, runID uuid.UUID, events []*model.ConstraintEvent) error {
	for _, e := range events {
		e.RunID = runID
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO orchestration_constraints (
				id, run_id, employee_id, product, window_start,
				kind, severity, resolution, note
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			e.ID, e.RunID, e.EmployeeID, e.Product, e.WindowStart,
			e.Kind, e.Severity, e.Resolution, e.Note,
		); err != nil {
			return apperrors.TransientStorage(err)
		}
	}
	return nil
}
