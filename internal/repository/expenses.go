package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/showbase-dev/showbase/backend/internal/domain"
)

const expenseSelect = `
	SELECT
		x.id,
		x.receipt_number,
		x.date,
		x.event_id,
		e.show_name,
		e.show_number,
		COALESCE(am.first_name || ' ' || am.last_name, ''),
		e.location,
		x.details,
		x.net,
		x.hst,
		x.receipt_filename,
		x.stored_name,
		x.worker_id,
		COALESCE(w.first_name || ' ' || w.last_name, ''),
		x.created_at
	FROM expenses x
	JOIN events e ON e.id = x.event_id
	LEFT JOIN workers w ON w.id = x.worker_id
	LEFT JOIN workers am ON am.id = e.account_manager_id
`

func scanExpense(row scanner) (*domain.Expense, error) {
	expense := &domain.Expense{}
	var workerID sql.NullInt64

	dst := []any{
		&expense.ID,
		&expense.ReceiptNumber,
		&expense.Date,
		&expense.EventID,
		&expense.ShowName,
		&expense.ShowNumber,
		&expense.AccountManager,
		&expense.Location,
		&expense.Details,
		&expense.Net,
		&expense.HST,
		&expense.ReceiptFilename,
		&expense.StoredName,
		&workerID,
		&expense.WorkerName,
		&expense.CreatedAt,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}

	if workerID.Valid {
		expense.WorkerID = &workerID.Int64
	}

	return expense, nil
}

func (r *Repository) queryExpenses(query string, args ...any) ([]*domain.Expense, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := make([]*domain.Expense, 0)
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, expense)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return expenses, nil
}

// GetExpenses lists expenses visible within scope, optionally limited to dates in [from, to).
func (r *Repository) GetExpenses(scope domain.LedgerScope, from, to time.Time) ([]*domain.Expense, error) {
	conds, args := scopeFilter(scope, "x.worker_id", "e.account_manager_id", nil)
	if !from.IsZero() && !to.IsZero() {
		args = append(args, from, to)
		conds = append(conds, fmt.Sprintf("x.date >= $%d AND x.date < $%d", len(args)-1, len(args)))
	}

	return r.queryExpenses(expenseSelect+whereClause(conds)+` ORDER BY x.date, x.id`, args...)
}

func (r *Repository) GetExpensesByEventID(eventID int64) ([]*domain.Expense, error) {
	return r.queryExpenses(expenseSelect+` WHERE x.event_id = $1 ORDER BY x.date, x.id`, eventID)
}

func (r *Repository) GetExpenseByID(id int64) (*domain.Expense, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	return scanExpense(r.dbpool.QueryRowContext(ctx, expenseSelect+` WHERE x.id = $1`, id))
}

func (r *Repository) CreateExpense(expense *domain.Expense) error {
	query := `
		INSERT INTO expenses (receipt_number, date, event_id, details, net, hst, receipt_filename, stored_name, worker_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	args := []any{
		expense.ReceiptNumber,
		expense.Date,
		expense.EventID,
		expense.Details,
		expense.Net,
		expense.HST,
		expense.ReceiptFilename,
		expense.StoredName,
		expense.WorkerID,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&expense.ID, &expense.CreatedAt); err != nil {
		return err
	}

	return nil
}

func (r *Repository) DeleteExpense(id int64) error {
	ctx, cancel := r.queryContext()
	defer cancel()

	if _, err := r.dbpool.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1`, id); err != nil {
		return err
	}

	return nil
}
