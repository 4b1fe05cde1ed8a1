package repository

import (
	"database/sql"

	"github.com/showbase-dev/showbase/backend/internal/domain"
)

// AssignWorker offers a role slot on the crew to the worker. The worker row
// and the crew row stay locked until commit: offers to the same worker are
// serialized for the overlap check, and offers or edits on the same crew for
// the role counts.
func (r *Repository) AssignWorker(crewID, workerID int64, role string) (*domain.CrewAssignment, error) {
	ctx, cancel := r.transactionContext()
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	worker, err := scanWorker(tx.QueryRowContext(ctx, `SELECT`+workerColumns+`FROM workers WHERE id = $1 FOR UPDATE`, workerID))
	if err != nil {
		return nil, err
	}
	if err := worker.CheckAssignable(role); err != nil {
		return nil, err
	}

	crew, err := scanCrew(tx.QueryRowContext(ctx, `SELECT `+crewColumns+` FROM crews WHERE id = $1 FOR UPDATE`, crewID))
	if err != nil {
		return nil, err
	}

	if err := loadAssignments(ctx, tx, map[int64]*domain.Crew{crew.ID: crew}); err != nil {
		return nil, err
	}

	assignment, err := crew.AssignWorker(workerID, role)
	if err != nil {
		return nil, err
	}

	overlapQuery := `
		SELECT EXISTS (
			SELECT 1
			FROM crew_assignments ca
			JOIN crews c ON c.id = ca.crew_id
			WHERE ca.worker_id = $1
				AND ca.crew_id <> $2
				AND ca.status IN ('offered', 'accepted')
				AND c.start_time < $4
				AND c.end_time > $3
		)
	`
	var busy bool
	if err := tx.QueryRowContext(ctx, overlapQuery, workerID, crew.ID, crew.StartTime, crew.EndTime).Scan(&busy); err != nil {
		return nil, err
	}
	if busy {
		return nil, domain.ErrWorkerUnavailable
	}

	insertQuery := `
		INSERT INTO crew_assignments (crew_id, worker_id, role, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, assigned_at, version
	`
	args := []any{assignment.CrewID, assignment.WorkerID, assignment.Role, assignment.Status}
	if err := tx.QueryRowContext(ctx, insertQuery, args...).Scan(&assignment.ID, &assignment.AssignedAt, &assignment.Version); err != nil {
		return nil, err
	}

	assignment.WorkerName = worker.FullName()

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return assignment, nil
}

func (r *Repository) GetAssignmentByID(id int64) (*domain.CrewAssignment, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	return scanAssignment(r.dbpool.QueryRowContext(ctx, assignmentSelect+` WHERE ca.id = $1`, id))
}

// UpdateAssignmentStatus persists a transition made by CrewAssignment.Transition.
// Accepting also records the worked shift for the crew window.
func (r *Repository) UpdateAssignmentStatus(a *domain.CrewAssignment) error {
	ctx, cancel := r.transactionContext()
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		UPDATE crew_assignments
		SET
			status = $1,
			responded_at = $2,
			version = version + 1
		WHERE id = $3 AND version = $4 AND status = 'offered'
		RETURNING version
	`
	if err := tx.QueryRowContext(ctx, query, a.Status, a.RespondedAt, a.ID, a.Version).Scan(&a.Version); err != nil {
		return err
	}

	if a.Status == domain.AssignmentAccepted {
		shiftQuery := `
			INSERT INTO shifts (worker_id, event_id, crew_assignment_id, role, start_time, end_time, location)
			SELECT ca.worker_id, c.event_id, ca.id, ca.role, c.start_time, c.end_time, e.location
			FROM crew_assignments ca
			JOIN crews c ON c.id = ca.crew_id
			JOIN events e ON e.id = c.event_id
			WHERE ca.id = $1
		`
		if _, err := tx.ExecContext(ctx, shiftQuery, a.ID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// DeleteAssignment revokes the assignment in any state. A derived shift goes with it.
func (r *Repository) DeleteAssignment(id int64) error {
	ctx, cancel := r.queryContext()
	defer cancel()

	result, err := r.dbpool.ExecContext(ctx, `DELETE FROM crew_assignments WHERE id = $1`, id)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// GetOffersByWorkerID lists the worker's assignments with crew and event details,
// pending offers first.
func (r *Repository) GetOffersByWorkerID(workerID int64, pendingOnly bool) ([]*domain.Offer, error) {
	query := `
		SELECT
			ca.id,
			ca.crew_id,
			ca.worker_id,
			w.first_name || ' ' || w.last_name,
			ca.role,
			ca.status,
			ca.assigned_at,
			ca.responded_at,
			ca.version,
			e.id,
			e.show_name,
			e.show_number,
			e.location,
			c.start_time,
			c.end_time,
			c.description
		FROM crew_assignments ca
		JOIN workers w ON w.id = ca.worker_id
		JOIN crews c ON c.id = ca.crew_id
		JOIN events e ON e.id = c.event_id
		WHERE ca.worker_id = $1 AND ($2 = FALSE OR ca.status = 'offered')
		ORDER BY ca.status <> 'offered', c.start_time
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, workerID, pendingOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	offers := make([]*domain.Offer, 0)
	for rows.Next() {
		offer := &domain.Offer{}
		var respondedAt sql.NullTime

		dst := []any{
			&offer.ID,
			&offer.CrewID,
			&offer.WorkerID,
			&offer.WorkerName,
			&offer.Role,
			&offer.Status,
			&offer.AssignedAt,
			&respondedAt,
			&offer.Version,
			&offer.EventID,
			&offer.ShowName,
			&offer.ShowNumber,
			&offer.Location,
			&offer.StartTime,
			&offer.EndTime,
			&offer.Description,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		if respondedAt.Valid {
			offer.RespondedAt = &respondedAt.Time
		}

		offers = append(offers, offer)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return offers, nil
}
