package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/showbase-dev/showbase/backend/internal/domain"
)

const crewColumns = `id, event_id, start_time, end_time, roles, shift_types, description, created_at, version`

func scanCrew(row scanner) (*domain.Crew, error) {
	crew := &domain.Crew{}
	var roles, shiftTypes []byte

	dst := []any{
		&crew.ID,
		&crew.EventID,
		&crew.StartTime,
		&crew.EndTime,
		&roles,
		&shiftTypes,
		&crew.Description,
		&crew.CreatedAt,
		&crew.Version,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}

	parsed, err := domain.ParseRoles(roles)
	if err != nil {
		return nil, err
	}
	crew.Roles = parsed

	crew.ShiftTypes = []string{}
	if len(shiftTypes) > 0 {
		if err := json.Unmarshal(shiftTypes, &crew.ShiftTypes); err != nil {
			return nil, err
		}
	}

	crew.Assignments = []domain.CrewAssignment{}

	return crew, nil
}

func marshalCrew(crew *domain.Crew) (string, string, error) {
	roles, err := json.Marshal(crew.GetRoles())
	if err != nil {
		return "", "", err
	}

	shiftTypes := crew.ShiftTypes
	if shiftTypes == nil {
		shiftTypes = []string{}
	}
	types, err := json.Marshal(shiftTypes)
	if err != nil {
		return "", "", err
	}

	return string(roles), string(types), nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

const assignmentSelect = `
	SELECT
		ca.id,
		ca.crew_id,
		ca.worker_id,
		w.first_name || ' ' || w.last_name,
		ca.role,
		ca.status,
		ca.assigned_at,
		ca.responded_at,
		ca.version
	FROM crew_assignments ca
	JOIN workers w ON w.id = ca.worker_id
`

func scanAssignment(row scanner) (*domain.CrewAssignment, error) {
	a := &domain.CrewAssignment{}
	var respondedAt sql.NullTime

	dst := []any{
		&a.ID,
		&a.CrewID,
		&a.WorkerID,
		&a.WorkerName,
		&a.Role,
		&a.Status,
		&a.AssignedAt,
		&respondedAt,
		&a.Version,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}

	if respondedAt.Valid {
		a.RespondedAt = &respondedAt.Time
	}

	return a, nil
}

// loadAssignments attaches every assignment of the given crews, keyed by crew ID.
func loadAssignments(ctx context.Context, q queryer, crews map[int64]*domain.Crew) error {
	if len(crews) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(crews))
	for id := range crews {
		ids = append(ids, id)
	}

	rows, err := q.QueryContext(ctx, assignmentSelect+` WHERE ca.crew_id = ANY($1) ORDER BY ca.id`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return err
		}
		crew := crews[a.CrewID]
		crew.Assignments = append(crew.Assignments, *a)
	}

	return rows.Err()
}

func (r *Repository) queryCrews(query string, args ...any) ([]*domain.Crew, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	crews := make([]*domain.Crew, 0)
	byID := make(map[int64]*domain.Crew)
	for rows.Next() {
		crew, err := scanCrew(rows)
		if err != nil {
			return nil, err
		}
		crews = append(crews, crew)
		byID[crew.ID] = crew
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := loadAssignments(ctx, r.dbpool, byID); err != nil {
		return nil, err
	}

	return crews, nil
}

func (r *Repository) GetAllCrews() ([]*domain.Crew, error) {
	return r.queryCrews(`SELECT ` + crewColumns + ` FROM crews ORDER BY start_time, id`)
}

func (r *Repository) GetCrewsByEventID(eventID int64) ([]*domain.Crew, error) {
	return r.queryCrews(`SELECT `+crewColumns+` FROM crews WHERE event_id = $1 ORDER BY start_time, id`, eventID)
}

func (r *Repository) GetCrewByID(id int64) (*domain.Crew, error) {
	crews, err := r.queryCrews(`SELECT `+crewColumns+` FROM crews WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(crews) == 0 {
		return nil, sql.ErrNoRows
	}
	return crews[0], nil
}

func (r *Repository) CreateCrew(crew *domain.Crew) error {
	query := `
		INSERT INTO crews (event_id, start_time, end_time, roles, shift_types, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, version
	`

	roles, shiftTypes, err := marshalCrew(crew)
	if err != nil {
		return err
	}

	ctx, cancel := r.queryContext()
	defer cancel()

	args := []any{crew.EventID, crew.StartTime, crew.EndTime, roles, shiftTypes, crew.Description}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&crew.ID, &crew.CreatedAt, &crew.Version); err != nil {
		return err
	}

	crew.Roles = crew.GetRoles()
	if crew.Assignments == nil {
		crew.Assignments = []domain.CrewAssignment{}
	}

	return nil
}

// UpdateCrew saves the crew if nobody changed it since it was loaded. The row
// is locked while the held slots are checked against the new role counts, the
// same lock AssignWorker takes before offering a slot.
func (r *Repository) UpdateCrew(crew *domain.Crew) error {
	ctx, cancel := r.transactionContext()
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	current, err := scanCrew(tx.QueryRowContext(ctx, `SELECT `+crewColumns+` FROM crews WHERE id = $1 FOR UPDATE`, crew.ID))
	if err != nil {
		return err
	}
	if current.Version != crew.Version {
		return sql.ErrNoRows
	}

	if err := loadAssignments(ctx, tx, map[int64]*domain.Crew{current.ID: current}); err != nil {
		return err
	}
	if err := current.SetRoles(crew.Roles); err != nil {
		return err
	}

	query := `
		UPDATE crews
		SET
			start_time = $1,
			end_time = $2,
			roles = $3,
			shift_types = $4,
			description = $5,
			version = version + 1
		WHERE id = $6
		RETURNING version
	`

	roles, shiftTypes, err := marshalCrew(crew)
	if err != nil {
		return err
	}

	args := []any{crew.StartTime, crew.EndTime, roles, shiftTypes, crew.Description, crew.ID}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&crew.Version); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	crew.Roles = crew.GetRoles()
	crew.Assignments = current.Assignments

	return nil
}

func (r *Repository) DeleteCrew(id int64) error {
	ctx, cancel := r.queryContext()
	defer cancel()

	if _, err := r.dbpool.ExecContext(ctx, `DELETE FROM crews WHERE id = $1`, id); err != nil {
		return err
	}

	return nil
}
