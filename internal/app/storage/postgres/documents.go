package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/veltasoft/worksuite/internal/app/domain/document"
)

type documentRow struct {
	ID         string       `db:"id"`
	TenantID   string       `db:"tenant_id"`
	FolderID   string       `db:"folder_id"`
	TemplateID string       `db:"template_id"`
	Title      string       `db:"title"`
	Content    string       `db:"content"`
	Version    int          `db:"version"`
	CreatedBy  string       `db:"created_by"`
	Trashed    bool         `db:"trashed"`
	TrashedAt  sql.NullTime `db:"trashed_at"`
	CreatedAt  time.Time    `db:"created_at"`
	UpdatedAt  time.Time    `db:"updated_at"`
}

func (r documentRow) toDomain() document.Document {
	d := document.Document{
		ID:         r.ID,
		TenantID:   r.TenantID,
		FolderID:   r.FolderID,
		TemplateID: r.TemplateID,
		Title:      r.Title,
		Content:    r.Content,
		Version:    r.Version,
		CreatedBy:  r.CreatedBy,
		Trashed:    r.Trashed,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	if r.TrashedAt.Valid {
		d.TrashedAt = r.TrashedAt.Time
	}
	return d
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

const documentColumns = `id, tenant_id, folder_id, template_id, title, content,
	version, created_by, trashed, trashed_at, created_at, updated_at`

func (s *Store) CreateDocument(ctx context.Context, doc document.Document) (document.Document, error) {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, doc.ID, doc.TenantID, doc.FolderID, doc.TemplateID, doc.Title, doc.Content,
		doc.Version, doc.CreatedBy, doc.Trashed, nullTime(doc.TrashedAt), doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return document.Document{}, err
	}
	return doc, nil
}

func (s *Store) UpdateDocument(ctx context.Context, doc document.Document) (document.Document, error) {
	doc.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		UPDATE documents
		SET folder_id = $2, template_id = $3, title = $4, content = $5, version = $6,
			trashed = $7, trashed_at = $8, updated_at = $9
		WHERE id = $1
	`, doc.ID, doc.FolderID, doc.TemplateID, doc.Title, doc.Content, doc.Version,
		doc.Trashed, nullTime(doc.TrashedAt), doc.UpdatedAt)
	if err != nil {
		return document.Document{}, err
	}
	if err := requireRow(res, "document", doc.ID); err != nil {
		return document.Document{}, err
	}
	return s.GetDocument(ctx, doc.ID)
}

func (s *Store) GetDocument(ctx context.Context, id string) (document.Document, error) {
	var row documentRow
	err := s.db.GetContext(ctx, &row, `
		SELECT `+documentColumns+` FROM documents WHERE id = $1
	`, id)
	if err != nil {
		return document.Document{}, notFound(err, "document", id)
	}
	return row.toDomain(), nil
}

func (s *Store) ListDocuments(ctx context.Context, tenantID string, includeTrashed bool) ([]document.Document, error) {
	var rows []documentRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+documentColumns+` FROM documents
		WHERE tenant_id = $1 AND ($2 OR NOT trashed)
		ORDER BY title, id
	`, tenantID, includeTrashed)
	if err != nil {
		return nil, err
	}
	return documentList(rows), nil
}

func (s *Store) ListDocumentsByFolder(ctx context.Context, folderID string) ([]document.Document, error) {
	var rows []documentRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+documentColumns+` FROM documents
		WHERE folder_id = $1 AND NOT trashed
		ORDER BY title, id
	`, folderID)
	if err != nil {
		return nil, err
	}
	return documentList(rows), nil
}

func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res, "document", id)
}

func (s *Store) CreateVersion(ctx context.Context, v document.Version) (document.Version, error) {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO document_versions (id, document_id, number, content, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, v.ID, v.DocumentID, v.Number, v.Content, v.CreatedBy, v.CreatedAt)
	if err != nil {
		return document.Version{}, err
	}
	return v, nil
}

func (s *Store) GetVersion(ctx context.Context, documentID string, number int) (document.Version, error) {
	var v document.Version
	row := s.db.QueryRowContext(ctx, `
		SELECT id, document_id, number, content, created_by, created_at
		FROM document_versions WHERE document_id = $1 AND number = $2
	`, documentID, number)
	err := row.Scan(&v.ID, &v.DocumentID, &v.Number, &v.Content, &v.CreatedBy, &v.CreatedAt)
	if err != nil {
		return document.Version{}, notFound(err, "version", documentID)
	}
	return v, nil
}

func (s *Store) ListVersions(ctx context.Context, documentID string) ([]document.Version, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, number, content, created_by, created_at
		FROM document_versions WHERE document_id = $1 ORDER BY number
	`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []document.Version
	for rows.Next() {
		var v document.Version
		if err := rows.Scan(&v.ID, &v.DocumentID, &v.Number, &v.Content, &v.CreatedBy, &v.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store) ListTrashedBefore(ctx context.Context, cutoff time.Time) ([]document.Document, error) {
	var rows []documentRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+documentColumns+` FROM documents
		WHERE trashed AND trashed_at < $1
	`, cutoff)
	if err != nil {
		return nil, err
	}
	return documentList(rows), nil
}

func documentList(rows []documentRow) []document.Document {
	out := make([]document.Document, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out
}
