package repository

import (
	"encoding/json"
	"time"

	"github.com/showbase-dev/showbase/backend/internal/domain"
)

const workerColumns = `
	id, first_name, last_name, email, phone_number, password_hash, password_is_temp,
	is_admin, is_account_manager, is_active, theme, roles, created_at, version
`

func scanWorker(row scanner) (*domain.Worker, error) {
	worker := &domain.Worker{}
	var roles []byte

	dst := []any{
		&worker.ID,
		&worker.FirstName,
		&worker.LastName,
		&worker.Email,
		&worker.PhoneNumber,
		&worker.PasswordHash,
		&worker.PasswordIsTemp,
		&worker.IsAdmin,
		&worker.IsAccountManager,
		&worker.IsActive,
		&worker.Theme,
		&roles,
		&worker.CreatedAt,
		&worker.Version,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}

	worker.Roles = []string{}
	if len(roles) > 0 {
		if err := json.Unmarshal(roles, &worker.Roles); err != nil {
			return nil, err
		}
	}

	return worker, nil
}

func marshalWorkerRoles(roles []string) (string, error) {
	if roles == nil {
		roles = []string{}
	}
	b, err := json.Marshal(roles)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *Repository) GetWorkerByID(id int64) (*domain.Worker, error) {
	query := `SELECT` + workerColumns + `FROM workers WHERE id = $1`

	ctx, cancel := r.queryContext()
	defer cancel()

	return scanWorker(r.dbpool.QueryRowContext(ctx, query, id))
}

func (r *Repository) GetWorkerByEmail(email string) (*domain.Worker, error) {
	query := `SELECT` + workerColumns + `FROM workers WHERE email = $1`

	ctx, cancel := r.queryContext()
	defer cancel()

	return scanWorker(r.dbpool.QueryRowContext(ctx, query, email))
}

func (r *Repository) GetAllWorkers() ([]*domain.Worker, error) {
	query := `SELECT` + workerColumns + `FROM workers ORDER BY last_name, first_name, id`

	ctx, cancel := r.queryContext()
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	workers := make([]*domain.Worker, 0)
	for rows.Next() {
		worker, err := scanWorker(rows)
		if err != nil {
			return nil, err
		}
		workers = append(workers, worker)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return workers, nil
}

func (r *Repository) GetAccountManagers() ([]*domain.Worker, error) {
	query := `SELECT` + workerColumns + `FROM workers WHERE is_account_manager AND is_active ORDER BY last_name, first_name`

	ctx, cancel := r.queryContext()
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	workers := make([]*domain.Worker, 0)
	for rows.Next() {
		worker, err := scanWorker(rows)
		if err != nil {
			return nil, err
		}
		workers = append(workers, worker)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return workers, nil
}

func (r *Repository) CreateWorker(worker *domain.Worker) error {
	query := `
		INSERT INTO workers (
			first_name, last_name, email, phone_number, password_hash, password_is_temp,
			is_admin, is_account_manager, roles
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, is_active, theme, created_at, version
	`

	roles, err := marshalWorkerRoles(worker.Roles)
	if err != nil {
		return err
	}

	ctx, cancel := r.queryContext()
	defer cancel()

	args := []any{
		worker.FirstName,
		worker.LastName,
		worker.Email,
		worker.PhoneNumber,
		worker.PasswordHash,
		worker.PasswordIsTemp,
		worker.IsAdmin,
		worker.IsAccountManager,
		roles,
	}
	dst := []any{&worker.ID, &worker.IsActive, &worker.Theme, &worker.CreatedAt, &worker.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(dst...); err != nil {
		return err
	}

	return nil
}

func (r *Repository) UpdateWorker(worker *domain.Worker) error {
	query := `
		UPDATE workers
		SET
			first_name = $1,
			last_name = $2,
			email = $3,
			phone_number = $4,
			password_hash = $5,
			password_is_temp = $6,
			is_admin = $7,
			is_account_manager = $8,
			is_active = $9,
			theme = $10,
			roles = $11,
			version = version + 1
		WHERE id = $12 AND version = $13
		RETURNING created_at, version
	`

	roles, err := marshalWorkerRoles(worker.Roles)
	if err != nil {
		return err
	}

	ctx, cancel := r.queryContext()
	defer cancel()

	args := []any{
		worker.FirstName,
		worker.LastName,
		worker.Email,
		worker.PhoneNumber,
		worker.PasswordHash,
		worker.PasswordIsTemp,
		worker.IsAdmin,
		worker.IsAccountManager,
		worker.IsActive,
		worker.Theme,
		roles,
		worker.ID,
		worker.Version,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&worker.CreatedAt, &worker.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) DeleteWorker(id int64) error {
	query := `DELETE FROM workers WHERE id = $1`

	ctx, cancel := r.queryContext()
	defer cancel()

	if _, err := r.dbpool.ExecContext(ctx, query, id); err != nil {
		return err
	}

	return nil
}

func (r *Repository) CheckEmailIfExists(email string) (bool, error) {
	isExists := false

	ctx, cancel := r.queryContext()
	defer cancel()

	query := `SELECT EXISTS (SELECT 1 FROM workers WHERE email = $1)`
	if err := r.dbpool.QueryRowContext(ctx, query, email).Scan(&isExists); err != nil {
		return false, err
	}

	return isExists, nil
}

// GetBusyWorkerIDs returns workers holding an offered or accepted assignment
// whose crew window intersects [start, end).
func (r *Repository) GetBusyWorkerIDs(start, end time.Time) (map[int64]bool, error) {
	query := `
		SELECT DISTINCT ca.worker_id
		FROM crew_assignments ca
		JOIN crews c ON c.id = ca.crew_id
		WHERE ca.status IN ('offered', 'accepted')
			AND c.start_time < $2
			AND c.end_time > $1
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	busy := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		busy[id] = true
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return busy, nil
}

// GetWorkerHours sums shift hours per worker for shifts starting in [start, end).
func (r *Repository) GetWorkerHours(start, end time.Time) (map[int64]float64, error) {
	query := `
		SELECT worker_id, SUM(EXTRACT(EPOCH FROM (end_time - start_time)) / 3600)::float8
		FROM shifts
		WHERE worker_id IS NOT NULL AND start_time >= $1 AND start_time < $2
		GROUP BY worker_id
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hours := make(map[int64]float64)
	for rows.Next() {
		var id int64
		var h float64
		if err := rows.Scan(&id, &h); err != nil {
			return nil, err
		}
		hours[id] = h
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return hours, nil
}
