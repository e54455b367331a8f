package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/veltasoft/worksuite/internal/app/domain/sheet"
)

type sheetRow struct {
	ID        string    `db:"id"`
	TenantID  string    `db:"tenant_id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (s *Store) CreateSheet(ctx context.Context, sh sheet.Sheet) (sheet.Sheet, error) {
	if sh.ID == "" {
		sh.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	sh.CreatedAt = now
	sh.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sheets (id, tenant_id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, sh.ID, sh.TenantID, sh.Name, sh.CreatedAt, sh.UpdatedAt)
	if err != nil {
		return sheet.Sheet{}, err
	}
	return sh, nil
}

func (s *Store) GetSheet(ctx context.Context, id string) (sheet.Sheet, error) {
	var row sheetRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, tenant_id, name, created_at, updated_at
		FROM sheets WHERE id = $1
	`, id)
	if err != nil {
		return sheet.Sheet{}, notFound(err, "sheet", id)
	}
	return sheet.Sheet(row), nil
}

func (s *Store) ListSheets(ctx context.Context, tenantID string) ([]sheet.Sheet, error) {
	var rows []sheetRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, tenant_id, name, created_at, updated_at
		FROM sheets WHERE tenant_id = $1 ORDER BY name, id
	`, tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]sheet.Sheet, 0, len(rows))
	for _, r := range rows {
		out = append(out, sheet.Sheet(r))
	}
	return out, nil
}

func (s *Store) DeleteSheet(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sheets WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res, "sheet", id)
}

// PutCells replaces the stored state of the given cells. A cell whose
// input, value and error are all empty is removed.
func (s *Store) PutCells(ctx context.Context, sheetID string, cells []sheet.Cell) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, c := range cells {
		if c.Input == "" && c.Value == "" && c.Err == "" {
			if _, err := tx.ExecContext(ctx, `
				DELETE FROM sheet_cells WHERE sheet_id = $1 AND ref = $2
			`, sheetID, c.Ref); err != nil {
				return err
			}
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO sheet_cells (sheet_id, ref, input, value, err)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (sheet_id, ref)
			DO UPDATE SET input = EXCLUDED.input, value = EXCLUDED.value, err = EXCLUDED.err
		`, sheetID, c.Ref, c.Input, c.Value, c.Err); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) GetCells(ctx context.Context, sheetID string) ([]sheet.Cell, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ref, input, value, err FROM sheet_cells
		WHERE sheet_id = $1 ORDER BY ref
	`, sheetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []sheet.Cell
	for rows.Next() {
		var c sheet.Cell
		if err := rows.Scan(&c.Ref, &c.Input, &c.Value, &c.Err); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
