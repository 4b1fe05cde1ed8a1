package repository

import (
	"database/sql"

	"github.com/showbase-dev/showbase/backend/internal/domain"
)

func (r *Repository) GetNotesByEventID(eventID int64) ([]*domain.Note, error) {
	query := `
		SELECT
			n.id,
			n.event_id,
			n.worker_id,
			w.first_name || ' ' || w.last_name,
			n.content,
			n.account_manager_only,
			n.account_manager_and_td_only,
			n.created_at
		FROM notes n
		JOIN workers w ON w.id = n.worker_id
		WHERE n.event_id = $1
		ORDER BY n.created_at DESC
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := make([]*domain.Note, 0)
	for rows.Next() {
		note := &domain.Note{}
		dst := []any{
			&note.ID,
			&note.EventID,
			&note.WorkerID,
			&note.AuthorName,
			&note.Content,
			&note.AccountManagerOnly,
			&note.AccountManagerAndTDOnly,
			&note.CreatedAt,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return notes, nil
}

func (r *Repository) CreateNote(note *domain.Note) error {
	query := `
		INSERT INTO notes (event_id, worker_id, content, account_manager_only, account_manager_and_td_only)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	args := []any{note.EventID, note.WorkerID, note.Content, note.AccountManagerOnly, note.AccountManagerAndTDOnly}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&note.ID, &note.CreatedAt); err != nil {
		return err
	}

	return nil
}

const documentColumns = `id, event_id, filename, stored_name, uploaded_by, created_at`

func scanDocument(row scanner) (*domain.Document, error) {
	doc := &domain.Document{}
	var uploadedBy sql.NullInt64

	if err := row.Scan(&doc.ID, &doc.EventID, &doc.Filename, &doc.StoredName, &uploadedBy, &doc.CreatedAt); err != nil {
		return nil, err
	}

	if uploadedBy.Valid {
		doc.UploadedBy = &uploadedBy.Int64
	}

	return doc, nil
}

func (r *Repository) GetDocumentsByEventID(eventID int64) ([]*domain.Document, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE event_id = $1 ORDER BY created_at`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := make([]*domain.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return docs, nil
}

func (r *Repository) GetDocumentByID(id int64) (*domain.Document, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	return scanDocument(r.dbpool.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id))
}

func (r *Repository) CreateDocument(doc *domain.Document) error {
	query := `
		INSERT INTO documents (event_id, filename, stored_name, uploaded_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	if err := r.dbpool.QueryRowContext(ctx, query, doc.EventID, doc.Filename, doc.StoredName, doc.UploadedBy).Scan(&doc.ID, &doc.CreatedAt); err != nil {
		return err
	}

	return nil
}

func (r *Repository) DeleteDocument(id int64) error {
	ctx, cancel := r.queryContext()
	defer cancel()

	if _, err := r.dbpool.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetHelpPosts() ([]*domain.HelpPost, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, `SELECT id, content, created_at FROM help_posts ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := make([]*domain.HelpPost, 0)
	for rows.Next() {
		post := &domain.HelpPost{}
		if err := rows.Scan(&post.ID, &post.Content, &post.CreatedAt); err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return posts, nil
}

func (r *Repository) CreateHelpPost(post *domain.HelpPost) error {
	ctx, cancel := r.queryContext()
	defer cancel()

	query := `INSERT INTO help_posts (content) VALUES ($1) RETURNING id, created_at`
	if err := r.dbpool.QueryRowContext(ctx, query, post.Content).Scan(&post.ID, &post.CreatedAt); err != nil {
		return err
	}

	return nil
}
