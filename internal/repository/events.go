package repository

import (
	"database/sql"

	"github.com/showbase-dev/showbase/backend/internal/domain"
)

const eventSelect = `
	SELECT
		e.id,
		e.show_name,
		e.show_number,
		e.account_manager_id,
		COALESCE(w.first_name || ' ' || w.last_name, ''),
		e.location,
		e.active,
		e.sharepoint_link,
		e.created_at,
		e.version
	FROM events e
	LEFT JOIN workers w ON w.id = e.account_manager_id
`

func scanEvent(row scanner) (*domain.Event, error) {
	event := &domain.Event{}
	var accountManagerID sql.NullInt64

	dst := []any{
		&event.ID,
		&event.ShowName,
		&event.ShowNumber,
		&accountManagerID,
		&event.AccountManagerName,
		&event.Location,
		&event.Active,
		&event.SharepointLink,
		&event.CreatedAt,
		&event.Version,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}

	if accountManagerID.Valid {
		event.AccountManagerID = &accountManagerID.Int64
	}

	return event, nil
}

func (r *Repository) GetAllEvents(activeOnly bool) ([]*domain.Event, error) {
	query := eventSelect + ` WHERE ($1 = FALSE OR e.active) ORDER BY e.show_number`

	ctx, cancel := r.queryContext()
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*domain.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

func (r *Repository) GetEventByID(id int64) (*domain.Event, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	return scanEvent(r.dbpool.QueryRowContext(ctx, eventSelect+` WHERE e.id = $1`, id))
}

func (r *Repository) GetEventByShowNumber(showNumber int64) (*domain.Event, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	return scanEvent(r.dbpool.QueryRowContext(ctx, eventSelect+` WHERE e.show_number = $1`, showNumber))
}

func (r *Repository) CreateEvent(event *domain.Event) error {
	query := `
		INSERT INTO events (show_name, show_number, account_manager_id, location, active, sharepoint_link)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, version
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	args := []any{
		event.ShowName,
		event.ShowNumber,
		event.AccountManagerID,
		event.Location,
		event.Active,
		event.SharepointLink,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&event.ID, &event.CreatedAt, &event.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) UpdateEvent(event *domain.Event) error {
	query := `
		UPDATE events
		SET
			show_name = $1,
			show_number = $2,
			account_manager_id = $3,
			location = $4,
			active = $5,
			sharepoint_link = $6,
			version = version + 1
		WHERE id = $7 AND version = $8
		RETURNING version
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	args := []any{
		event.ShowName,
		event.ShowNumber,
		event.AccountManagerID,
		event.Location,
		event.Active,
		event.SharepointLink,
		event.ID,
		event.Version,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&event.Version); err != nil {
		return err
	}

	return nil
}

// DeleteEvent removes the event with everything hanging off it and returns
// the stored names of its documents and receipts so the files can be removed.
func (r *Repository) DeleteEvent(id int64) (documents []string, receipts []string, err error) {
	ctx, cancel := r.transactionContext()
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	documents, err = collectStrings(tx.QueryContext(ctx, `DELETE FROM documents WHERE event_id = $1 RETURNING stored_name`, id))
	if err != nil {
		return nil, nil, err
	}

	receipts, err = collectStrings(tx.QueryContext(ctx, `DELETE FROM expenses WHERE event_id = $1 AND stored_name <> '' RETURNING stored_name`, id))
	if err != nil {
		return nil, nil, err
	}

	// crews, assignments, shifts, notes and remaining expenses cascade
	if _, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}

	return documents, receipts, nil
}

func collectStrings(rows *sql.Rows, err error) ([]string, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := make([]string, 0)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return values, nil
}

// IsAcceptedTD reports whether the worker holds an accepted TD slot on any crew of the event.
func (r *Repository) IsAcceptedTD(eventID, workerID int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM crew_assignments ca
			JOIN crews c ON c.id = ca.crew_id
			WHERE c.event_id = $1 AND ca.worker_id = $2 AND ca.role = $3 AND ca.status = 'accepted'
		)
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	var isTD bool
	if err := r.dbpool.QueryRowContext(ctx, query, eventID, workerID, domain.EventRoleTD).Scan(&isTD); err != nil {
		return false, err
	}

	return isTD, nil
}
