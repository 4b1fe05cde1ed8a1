package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/showbase-dev/showbase/backend/internal/domain"
)

const shiftSelect = `
	SELECT
		s.id,
		s.worker_id,
		COALESCE(w.first_name || ' ' || w.last_name, ''),
		s.event_id,
		e.show_name,
		e.show_number,
		COALESCE(am.first_name || ' ' || am.last_name, ''),
		s.crew_assignment_id,
		s.role,
		s.start_time,
		s.end_time,
		s.location,
		s.created_at
	FROM shifts s
	JOIN events e ON e.id = s.event_id
	LEFT JOIN workers w ON w.id = s.worker_id
	LEFT JOIN workers am ON am.id = e.account_manager_id
`

func scanShift(row scanner) (*domain.Shift, error) {
	shift := &domain.Shift{}
	var workerID, assignmentID sql.NullInt64

	dst := []any{
		&shift.ID,
		&workerID,
		&shift.WorkerName,
		&shift.EventID,
		&shift.ShowName,
		&shift.ShowNumber,
		&shift.AccountManager,
		&assignmentID,
		&shift.Role,
		&shift.Start,
		&shift.End,
		&shift.Location,
		&shift.CreatedAt,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}

	if workerID.Valid {
		shift.WorkerID = &workerID.Int64
	}
	if assignmentID.Valid {
		shift.CrewAssignmentID = &assignmentID.Int64
	}

	return shift, nil
}

// scopeFilter renders the WHERE conditions restricting rows to a ledger scope.
// workerCol and managerCol name the columns compared against the scope IDs.
func scopeFilter(scope domain.LedgerScope, workerCol, managerCol string, args []any) ([]string, []any) {
	switch {
	case scope.All:
		return nil, args
	case scope.AccountManagerID != 0:
		args = append(args, scope.AccountManagerID)
		return []string{fmt.Sprintf("%s = $%d", managerCol, len(args))}, args
	default:
		args = append(args, scope.WorkerID)
		return []string{fmt.Sprintf("%s = $%d", workerCol, len(args))}, args
	}
}

func whereClause(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

func (r *Repository) queryShifts(query string, args ...any) ([]*domain.Shift, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shifts := make([]*domain.Shift, 0)
	for rows.Next() {
		shift, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		shifts = append(shifts, shift)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return shifts, nil
}

// GetShifts lists shifts visible within scope. A non-zero from/to pair limits
// the result to shifts starting in [from, to).
func (r *Repository) GetShifts(scope domain.LedgerScope, from, to time.Time) ([]*domain.Shift, error) {
	conds, args := scopeFilter(scope, "s.worker_id", "e.account_manager_id", nil)
	if !from.IsZero() && !to.IsZero() {
		args = append(args, from, to)
		conds = append(conds, fmt.Sprintf("s.start_time >= $%d AND s.start_time < $%d", len(args)-1, len(args)))
	}

	return r.queryShifts(shiftSelect+whereClause(conds)+` ORDER BY s.start_time, s.id`, args...)
}

func (r *Repository) GetShiftsByEventID(eventID int64) ([]*domain.Shift, error) {
	return r.queryShifts(shiftSelect+` WHERE s.event_id = $1 ORDER BY s.start_time, s.id`, eventID)
}

// GetUpcomingShifts lists the worker's shifts that have not ended yet.
func (r *Repository) GetUpcomingShifts(workerID int64, now time.Time) ([]*domain.Shift, error) {
	return r.queryShifts(shiftSelect+` WHERE s.worker_id = $1 AND s.end_time > $2 ORDER BY s.start_time`, workerID, now)
}

func (r *Repository) GetShiftByID(id int64) (*domain.Shift, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	return scanShift(r.dbpool.QueryRowContext(ctx, shiftSelect+` WHERE s.id = $1`, id))
}

func (r *Repository) CreateShift(shift *domain.Shift) error {
	query := `
		INSERT INTO shifts (worker_id, event_id, role, start_time, end_time, location)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	args := []any{shift.WorkerID, shift.EventID, shift.Role, shift.Start, shift.End, shift.Location}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&shift.ID, &shift.CreatedAt); err != nil {
		return err
	}

	return nil
}

func (r *Repository) DeleteShift(id int64) error {
	ctx, cancel := r.queryContext()
	defer cancel()

	if _, err := r.dbpool.ExecContext(ctx, `DELETE FROM shifts WHERE id = $1`, id); err != nil {
		return err
	}

	return nil
}
