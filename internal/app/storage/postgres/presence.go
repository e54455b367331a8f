package postgres

import (
	"context"
	"time"

	"github.com/veltasoft/worksuite/internal/app/domain/presence"
)

func (s *Store) Heartbeat(ctx context.Context, e presence.Entry, ttl time.Duration) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO presence (tenant_id, user_id, resource, seen_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tenant_id, resource, user_id)
		DO UPDATE SET seen_at = EXCLUDED.seen_at, expires_at = EXCLUDED.expires_at
	`, e.TenantID, e.UserID, e.Resource, e.SeenAt, e.ExpiresAt)
	return err
}

// ListActive drops expired rows as a side effect so the table stays small
// without a dedicated cleaner.
func (s *Store) ListActive(ctx context.Context, tenantID, resource string) ([]presence.Entry, error) {
	now := time.Now().UTC()
	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM presence WHERE expires_at <= $1
	`, now); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT tenant_id, user_id, resource, seen_at, expires_at
		FROM presence
		WHERE tenant_id = $1 AND resource = $2 AND expires_at > $3
		ORDER BY user_id
	`, tenantID, resource, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []presence.Entry
	for rows.Next() {
		var e presence.Entry
		if err := rows.Scan(&e.TenantID, &e.UserID, &e.Resource, &e.SeenAt, &e.ExpiresAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) Leave(ctx context.Context, tenantID, userID, resource string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM presence WHERE tenant_id = $1 AND user_id = $2 AND resource = $3
	`, tenantID, userID, resource)
	return err
}
