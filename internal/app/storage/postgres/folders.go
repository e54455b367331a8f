package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/veltasoft/worksuite/internal/app/domain/folder"
	"github.com/veltasoft/worksuite/internal/app/domain/template"
)

type folderRow struct {
	ID        string    `db:"id"`
	TenantID  string    `db:"tenant_id"`
	ParentID  string    `db:"parent_id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r folderRow) toDomain() folder.Folder {
	return folder.Folder(r)
}

func (s *Store) CreateFolder(ctx context.Context, f folder.Folder) (folder.Folder, error) {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	f.CreatedAt = now
	f.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO folders (id, tenant_id, parent_id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, f.ID, f.TenantID, f.ParentID, f.Name, f.CreatedAt, f.UpdatedAt)
	if err != nil {
		return folder.Folder{}, err
	}
	return f, nil
}

func (s *Store) UpdateFolder(ctx context.Context, f folder.Folder) (folder.Folder, error) {
	f.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		UPDATE folders SET parent_id = $2, name = $3, updated_at = $4 WHERE id = $1
	`, f.ID, f.ParentID, f.Name, f.UpdatedAt)
	if err != nil {
		return folder.Folder{}, err
	}
	if err := requireRow(res, "folder", f.ID); err != nil {
		return folder.Folder{}, err
	}
	return s.GetFolder(ctx, f.ID)
}

func (s *Store) GetFolder(ctx context.Context, id string) (folder.Folder, error) {
	var row folderRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, tenant_id, parent_id, name, created_at, updated_at
		FROM folders WHERE id = $1
	`, id)
	if err != nil {
		return folder.Folder{}, notFound(err, "folder", id)
	}
	return row.toDomain(), nil
}

func (s *Store) ListFolders(ctx context.Context, tenantID string, parentID string) ([]folder.Folder, error) {
	var rows []folderRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, tenant_id, parent_id, name, created_at, updated_at
		FROM folders WHERE tenant_id = $1 AND parent_id = $2
		ORDER BY name, id
	`, tenantID, parentID)
	if err != nil {
		return nil, err
	}
	out := make([]folder.Folder, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *Store) DeleteFolder(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM folders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res, "folder", id)
}

type templateRow struct {
	ID          string    `db:"id"`
	TenantID    string    `db:"tenant_id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	Body        string    `db:"body"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r templateRow) toDomain() template.Template {
	return template.Template(r)
}

func (s *Store) CreateTemplate(ctx context.Context, t template.Template) (template.Template, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO templates (id, tenant_id, name, description, body, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, t.ID, t.TenantID, t.Name, t.Description, t.Body, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return template.Template{}, err
	}
	return t, nil
}

func (s *Store) UpdateTemplate(ctx context.Context, t template.Template) (template.Template, error) {
	t.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		UPDATE templates SET name = $2, description = $3, body = $4, updated_at = $5
		WHERE id = $1
	`, t.ID, t.Name, t.Description, t.Body, t.UpdatedAt)
	if err != nil {
		return template.Template{}, err
	}
	if err := requireRow(res, "template", t.ID); err != nil {
		return template.Template{}, err
	}
	return s.GetTemplate(ctx, t.ID)
}

func (s *Store) GetTemplate(ctx context.Context, id string) (template.Template, error) {
	var row templateRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, tenant_id, name, description, body, created_at, updated_at
		FROM templates WHERE id = $1
	`, id)
	if err != nil {
		return template.Template{}, notFound(err, "template", id)
	}
	return row.toDomain(), nil
}

func (s *Store) ListTemplates(ctx context.Context, tenantID string) ([]template.Template, error) {
	var rows []templateRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, tenant_id, name, description, body, created_at, updated_at
		FROM templates WHERE tenant_id = $1 ORDER BY name, id
	`, tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]template.Template, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *Store) DeleteTemplate(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM templates WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res, "template", id)
}
