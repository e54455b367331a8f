package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/veltasoft/worksuite/internal/app/domain/tenant"
)

type tenantRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Plan      string    `db:"plan"`
	Metadata  []byte    `db:"metadata"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r tenantRow) toDomain() tenant.Tenant {
	t := tenant.Tenant{
		ID:        r.ID,
		Name:      r.Name,
		Plan:      r.Plan,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if len(r.Metadata) > 0 {
		_ = json.Unmarshal(r.Metadata, &t.Metadata)
	}
	return t
}

func (s *Store) CreateTenant(ctx context.Context, t tenant.Tenant) (tenant.Tenant, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	metadata, err := json.Marshal(t.Metadata)
	if err != nil {
		return tenant.Tenant{}, err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tenants (id, name, plan, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, t.ID, t.Name, t.Plan, metadata, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return tenant.Tenant{}, err
	}
	return t, nil
}

func (s *Store) UpdateTenant(ctx context.Context, t tenant.Tenant) (tenant.Tenant, error) {
	t.UpdatedAt = time.Now().UTC()

	metadata, err := json.Marshal(t.Metadata)
	if err != nil {
		return tenant.Tenant{}, err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE tenants SET name = $2, plan = $3, metadata = $4, updated_at = $5
		WHERE id = $1
	`, t.ID, t.Name, t.Plan, metadata, t.UpdatedAt)
	if err != nil {
		return tenant.Tenant{}, err
	}
	if err := requireRow(res, "tenant", t.ID); err != nil {
		return tenant.Tenant{}, err
	}
	return s.GetTenant(ctx, t.ID)
}

func (s *Store) GetTenant(ctx context.Context, id string) (tenant.Tenant, error) {
	var row tenantRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, name, plan, metadata, created_at, updated_at
		FROM tenants WHERE id = $1
	`, id)
	if err != nil {
		return tenant.Tenant{}, notFound(err, "tenant", id)
	}
	return row.toDomain(), nil
}

func (s *Store) ListTenants(ctx context.Context) ([]tenant.Tenant, error) {
	var rows []tenantRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, name, plan, metadata, created_at, updated_at
		FROM tenants ORDER BY name, id
	`)
	if err != nil {
		return nil, err
	}
	out := make([]tenant.Tenant, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *Store) DeleteTenant(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tenants WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res, "tenant", id)
}
