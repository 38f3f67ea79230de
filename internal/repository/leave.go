package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	apperrors "github.com/roosterd/roosterd/pkg/errors"
	"github.com/roosterd/roosterd/pkg/model"
)

// LeaveRepository reads leave requests, recurring patterns and holidays.
// All three are owned by external workflows; read-only here.
type LeaveRepository struct {
	db DB
}

// NewLeaveRepository creates a leave repository.
func NewLeaveRepository(db DB) *LeaveRepository {
	return &LeaveRepository{db: db}
}

// ListOverlapping returns approved and pending leave of the team's
// employees intersecting [from, to).
func (r *LeaveRepository) ListOverlapping(ctx context.Context, teamID uuid.UUID, from, to time.Time) ([]*model.LeaveRequest, error) {
	query := `
		SELECT l.id, l.employee_id, l.start_ts, l.end_ts, l.status,
			l.leave_type, l.conflict_handling, l.created_at, l.updated_at
		FROM leave_requests l
		JOIN employees e ON e.id = l.employee_id
		WHERE e.team_id = $1
			AND l.status IN ('approved', 'pending')
			AND l.start_ts < $3 AND l.end_ts > $2
			AND l.deleted_at IS NULL
		ORDER BY l.start_ts`

	rows, err := r.db.QueryContext(ctx, query, teamID, from, to)
	if err != nil {
		return nil, apperrors.TransientStorage(err)
	}
	defer rows.Close()

	var leaves []*model.LeaveRequest
	for rows.Next() {
		l := &model.LeaveRequest{}
		if err := rows.Scan(
			&l.ID, &l.EmployeeID, &l.Start, &l.End, &l.Status,
			&l.LeaveType, &l.Handling, &l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, apperrors.TransientStorage(err)
		}
		leaves = append(leaves, l)
	}
	return leaves, rows.Err()
}

// ListActivePatterns returns the team's recurring leave patterns active
// anywhere inside [from, to).
func (r *LeaveRepository) ListActivePatterns(ctx context.Context, teamID uuid.UUID, from, to time.Time) ([]*model.RecurringLeavePattern, error) {
	query := `
		SELECT p.id, p.employee_id, p.weekdays, p.start_time, p.end_time,
			p.effective_from, p.effective_until, p.coverage_type,
			p.created_at, p.updated_at
		FROM recurring_leave_patterns p
		JOIN employees e ON e.id = p.employee_id
		WHERE e.team_id = $1
			AND p.effective_from < $3
			AND (p.effective_until IS NULL OR p.effective_until > $2)
			AND p.deleted_at IS NULL
		ORDER BY p.effective_from`

	rows, err := r.db.QueryContext(ctx, query, teamID, from, to)
	if err != nil {
		return nil, apperrors.TransientStorage(err)
	}
	defer rows.Close()

	var patterns []*model.RecurringLeavePattern
	for rows.Next() {
		p := &model.RecurringLeavePattern{}
		var weekdays []int64
		if err := rows.Scan(
			&p.ID, &p.EmployeeID, pq.Array(&weekdays), &p.StartTime, &p.EndTime,
			&p.EffectiveFrom, &p.EffectiveUntil, &p.Coverage,
			&p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, apperrors.TransientStorage(err)
		}
		for _, wd := range weekdays {
			p.Weekdays = append(p.Weekdays, time.Weekday(wd))
		}
		patterns = append(patterns, p)
	}
	return patterns, rows.Err()
}

// ListHolidays returns the holiday dates, keyed YYYY-MM-DD, falling in
// civil dates [from, to].
func (r *LeaveRepository) ListHolidays(ctx context.Context, from, to time.Time) (map[string]bool, error) {
	query := `SELECT date FROM holidays WHERE date >= $1 AND date <= $2`

	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, apperrors.TransientStorage(err)
	}
	defer rows.Close()

	holidays := make(map[string]bool)
	for rows.Next() {
		var date time.Time
		if err := rows.Scan(&date); err != nil {
			return nil, apperrors.TransientStorage(err)
		}
		holidays[model.DateKey(date)] = true
	}
	return holidays, rows.Err()
}
