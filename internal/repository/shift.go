package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/roosterd/roosterd/internal/database"
	apperrors "github.com/roosterd/roosterd/pkg/errors"
	"github.com/roosterd/roosterd/pkg/model"
)

// ShiftRepository reads applied coverage and performs the transactional,
// idempotent apply of a run.
type ShiftRepository struct {
	db *database.DB
}

// NewShiftRepository creates a shift repository.
func NewShiftRepository(db *database.DB) *ShiftRepository {
	return &ShiftRepository{db: db}
}

const shiftColumns = `
	id, team_id, template_id, product, employee_id,
	start_ts, end_ts, source_run_id, status, created_at, updated_at
`

// GetByID returns one shift row.
func (r *ShiftRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Shift, error) {
	query := `SELECT ` + shiftColumns + ` FROM shifts WHERE id = $1`
	shifts, err := r.queryShifts(ctx, query, id)
	if err != nil {
		return nil, err
	}
	if len(shifts) == 0 {
		return nil, apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("shift %s does not exist", id))
	}
	return shifts[0], nil
}

// ListActiveRange returns non-superseded shifts of the team starting inside
// [from, to).
func (r *ShiftRepository) ListActiveRange(ctx context.Context, teamID uuid.UUID, from, to time.Time) ([]*model.Shift, error) {
	query := `
		SELECT ` + shiftColumns + `
		FROM shifts
		WHERE team_id = $1 AND status = 'applied'
			AND start_ts >= $2 AND start_ts < $3
		ORDER BY product, start_ts`

	return r.queryShifts(ctx, query, teamID, from, to)
}

// ListHistory returns applied shifts starting inside [since, until), the
// fairness history feed.
func (r *ShiftRepository) ListHistory(ctx context.Context, teamID uuid.UUID, since, until time.Time) ([]*model.Shift, error) {
	query := `
		SELECT ` + shiftColumns + `
		FROM shifts
		WHERE team_id = $1 AND status = 'applied'
			AND start_ts >= $2 AND start_ts < $3
			AND employee_id IS NOT NULL
		ORDER BY start_ts`

	return r.queryShifts(ctx, query, teamID, since, until)
}

// LatestAppliedEnd returns the end of the team's last applied shift, or
// zero time when none exists.
func (r *ShiftRepository) LatestAppliedEnd(ctx context.Context, teamID uuid.UUID) (time.Time, error) {
	var end sql.NullTime
	err := r.db.QueryRowContext(ctx,
		`SELECT MAX(end_ts) FROM shifts WHERE team_id = $1 AND status = 'applied'`,
		teamID,
	).Scan(&end)
	if err != nil {
		return time.Time{}, apperrors.TransientStorage(err)
	}
	if !end.Valid {
		return time.Time{}, nil
	}
	return end.Time, nil
}

func (r *ShiftRepository) queryShifts(ctx context.Context, query string, args ...interface{}) ([]*model.Shift, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.TransientStorage(err)
	}
	defer rows.Close()

	var shifts []*model.Shift
	for rows.Next() {
		s := &model.Shift{}
		if err := rows.Scan(
			&s.ID, &s.TeamID, &s.TemplateID, &s.Product, &s.EmployeeID,
			&s.Start, &s.End, &s.SourceRunID, &s.Status, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, apperrors.TransientStorage(err)
		}
		shifts = append(shifts, s)
	}
	return shifts, rows.Err()
}

// ApplyResult reports what an apply changed.
type ApplyResult struct {
	Inserted   int `json:"inserted"`
	Superseded int `json:"superseded"`
	Kept       int `json:"kept"`
}

// Changed reports whether the apply wrote anything.
func (a ApplyResult) Changed() bool {
	return a.Inserted > 0 || a.Superseded > 0
}

// Diff is the planned mutation set of an apply, keyed by the idempotency
// rule: one active shift per (team, product, start_ts).
type Diff struct {
	Inserts      []*model.Shift
	SupersedeIDs []uuid.UUID
	Kept         int
}

// ComputeDiff compares the existing active shifts with the planned ones.
// Identical coverage is kept untouched; a changed assignee or end supersedes
// the old row and inserts the new one; planned shifts without a counterpart
// insert; stale active rows without a planned counterpart supersede.
func ComputeDiff(existing, planned []*model.Shift) Diff {
	type key struct {
		product model.Product
		start   time.Time
	}

	current := make(map[key]*model.Shift, len(existing))
	for _, s := range existing {
		current[key{s.Product, s.Start.UTC()}] = s
	}

	var diff Diff
	seen := make(map[key]bool, len(planned))
	for _, p := range planned {
		k := key{p.Product, p.Start.UTC()}
		seen[k] = true

		old, ok := current[k]
		if !ok {
			diff.Inserts = append(diff.Inserts, p)
			continue
		}
		if old.SameAssignment(p) {
			diff.Kept++
			continue
		}
		diff.SupersedeIDs = append(diff.SupersedeIDs, old.ID)
		diff.Inserts = append(diff.Inserts, p)
	}

	for k, old := range current {
		if !seen[k] {
			diff.SupersedeIDs = append(diff.SupersedeIDs, old.ID)
		}
	}
	return diff
}

// ApplyRun persists a completed run in one transaction: takes the team
// scheduling lock, re-reads the active rows, diffs against the plan and
// writes shifts, the run record and its constraint events. Returns
// ConcurrencyConflict when another run holds the team lock.
func (r *ShiftRepository) ApplyRun(ctx context.Context, run *model.OrchestrationRun, planned []*model.Shift, events []*model.ConstraintEvent) (ApplyResult, error) {
	var result ApplyResult

	err := r.db.Transaction(ctx, func(tx *sql.Tx) error {
		locked, err := database.TryTeamLock(ctx, tx, run.TeamID)
		if err != nil {
			return apperrors.TransientStorage(err)
		}
		if !locked {
			return apperrors.ConcurrencyConflict(run.TeamID.String())
		}

		// Horizon dates are inclusive civil dates; rows starting anywhere on
		// the final day belong to the diff.
		existing, err := r.lockedActiveRange(ctx, tx, run.TeamID, run.HorizonStart, run.HorizonEnd.AddDate(0, 0, 1))
		if err != nil {
			return err
		}

		diff := ComputeDiff(existing, planned)
		result = ApplyResult{
			Inserted:   len(diff.Inserts),
			Superseded: len(diff.SupersedeIDs),
			Kept:       diff.Kept,
		}

		now := time.Now()
		for _, id := range diff.SupersedeIDs {
			if _, err := tx.ExecContext(ctx,
				`UPDATE shifts SET status = 'superseded', updated_at = $2 WHERE id = $1`,
				id, now,
			); err != nil {
				return apperrors.TransientStorage(err)
			}
		}

		for _, s := range diff.Inserts {
			if s.ID == uuid.Nil {
				s.ID = uuid.New()
			}
			s.SourceRunID = run.ID
			s.Status = model.ShiftApplied
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO shifts (
					id, team_id, template_id, product, employee_id,
					start_ts, end_ts, source_run_id, status, created_at, updated_at
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
				s.ID, s.TeamID, s.TemplateID, s.Product, s.EmployeeID,
				s.Start, s.End, s.SourceRunID, s.Status, now, now,
			); err != nil {
				return apperrors.TransientStorage(err)
			}
		}

		if err := insertRun(ctx, tx, run); err != nil {
			return err
		}
		return insertEvents(ctx, tx, run.ID, events)
	})

	return result, err
}

// lockedActiveRange reads the active rows inside the apply transaction with
// FOR UPDATE so the diff is computed against a stable view.
func (r *ShiftRepository) lockedActiveRange(ctx context.Context, tx *sql.Tx, teamID uuid.UUID, from, to time.Time) ([]*model.Shift, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT `+shiftColumns+`
		FROM shifts
		WHERE team_id = $1 AND status = 'applied'
			AND start_ts >= $2 AND start_ts < $3
		ORDER BY product, start_ts
		FOR UPDATE`,
		teamID, from, to)
	if err != nil {
		return nil, apperrors.TransientStorage(err)
	}
	defer rows.Close()

	var shifts []*model.Shift
	for rows.Next() {
		s := &model.Shift{}
		if err := rows.Scan(
			&s.ID, &s.TeamID, &s.TemplateID, &s.Product, &s.EmployeeID,
			&s.Start, &s.End, &s.SourceRunID, &s.Status, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, apperrors.TransientStorage(err)
		}
		shifts = append(shifts, s)
	}
	return shifts, rows.Err()
}
