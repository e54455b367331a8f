package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/veltasoft/worksuite/internal/app/domain/script"
)

type scriptRow struct {
	ID          string    `db:"id"`
	TenantID    string    `db:"tenant_id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	Source      string    `db:"source"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (s *Store) CreateScript(ctx context.Context, sc script.Script) (script.Script, error) {
	if sc.ID == "" {
		sc.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	sc.CreatedAt = now
	sc.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scripts (id, tenant_id, name, description, source, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, sc.ID, sc.TenantID, sc.Name, sc.Description, sc.Source, sc.CreatedAt, sc.UpdatedAt)
	if err != nil {
		return script.Script{}, err
	}
	return sc, nil
}

func (s *Store) UpdateScript(ctx context.Context, sc script.Script) (script.Script, error) {
	sc.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		UPDATE scripts SET name = $2, description = $3, source = $4, updated_at = $5
		WHERE id = $1
	`, sc.ID, sc.Name, sc.Description, sc.Source, sc.UpdatedAt)
	if err != nil {
		return script.Script{}, err
	}
	if err := requireRow(res, "script", sc.ID); err != nil {
		return script.Script{}, err
	}
	return s.GetScript(ctx, sc.ID)
}

func (s *Store) GetScript(ctx context.Context, id string) (script.Script, error) {
	var row scriptRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, tenant_id, name, description, source, created_at, updated_at
		FROM scripts WHERE id = $1
	`, id)
	if err != nil {
		return script.Script{}, notFound(err, "script", id)
	}
	return script.Script(row), nil
}

func (s *Store) ListScripts(ctx context.Context, tenantID string) ([]script.Script, error) {
	var rows []scriptRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, tenant_id, name, description, source, created_at, updated_at
		FROM scripts WHERE tenant_id = $1 ORDER BY name, id
	`, tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]script.Script, 0, len(rows))
	for _, r := range rows {
		out = append(out, script.Script(r))
	}
	return out, nil
}

func (s *Store) DeleteScript(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM scripts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res, "script", id)
}

func (s *Store) RecordExecution(ctx context.Context, ex script.Execution) (script.Execution, error) {
	if ex.ID == "" {
		ex.ID = uuid.NewString()
	}
	if ex.StartedAt.IsZero() {
		ex.StartedAt = time.Now().UTC()
	}
	logs, err := json.Marshal(ex.Logs)
	if err != nil {
		return script.Execution{}, err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO script_executions (id, script_id, status, result, logs, error, duration_us, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, ex.ID, ex.ScriptID, ex.Status, ex.Result, logs, ex.Error, ex.Duration.Microseconds(), ex.StartedAt)
	if err != nil {
		return script.Execution{}, err
	}
	return ex, nil
}

func (s *Store) ListExecutions(ctx context.Context, scriptID string, limit int) ([]script.Execution, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, script_id, status, result, logs, error, duration_us, started_at
		FROM (
			SELECT * FROM script_executions
			WHERE script_id = $1 ORDER BY started_at DESC LIMIT $2
		) recent
		ORDER BY started_at
	`, scriptID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []script.Execution
	for rows.Next() {
		var (
			ex         script.Execution
			logsRaw    []byte
			durationUS int64
		)
		if err := rows.Scan(&ex.ID, &ex.ScriptID, &ex.Status, &ex.Result, &logsRaw, &ex.Error, &durationUS, &ex.StartedAt); err != nil {
			return nil, err
		}
		ex.Duration = time.Duration(durationUS) * time.Microsecond
		if len(logsRaw) > 0 {
			_ = json.Unmarshal(logsRaw, &ex.Logs)
		}
		out = append(out, ex)
	}
	return out, rows.Err()
}
