package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/veltasoft/worksuite/internal/app/domain/report"
)

type reportRow struct {
	ID          string    `db:"id"`
	TenantID    string    `db:"tenant_id"`
	Name        string    `db:"name"`
	Source      string    `db:"source"`
	Selector    string    `db:"selector"`
	Aggregation string    `db:"aggregation"`
	GroupBy     string    `db:"group_by"`
	Schedule    string    `db:"schedule"`
	Enabled     bool      `db:"enabled"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

const reportColumns = `id, tenant_id, name, source, selector, aggregation,
	group_by, schedule, enabled, created_at, updated_at`

func (s *Store) CreateReport(ctx context.Context, def report.Definition) (report.Definition, error) {
	if def.ID == "" {
		def.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	def.CreatedAt = now
	def.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reports (`+reportColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, def.ID, def.TenantID, def.Name, def.Source, def.Selector, def.Aggregation,
		def.GroupBy, def.Schedule, def.Enabled, def.CreatedAt, def.UpdatedAt)
	if err != nil {
		return report.Definition{}, err
	}
	return def, nil
}

func (s *Store) UpdateReport(ctx context.Context, def report.Definition) (report.Definition, error) {
	def.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		UPDATE reports
		SET name = $2, source = $3, selector = $4, aggregation = $5, group_by = $6,
			schedule = $7, enabled = $8, updated_at = $9
		WHERE id = $1
	`, def.ID, def.Name, def.Source, def.Selector, def.Aggregation, def.GroupBy,
		def.Schedule, def.Enabled, def.UpdatedAt)
	if err != nil {
		return report.Definition{}, err
	}
	if err := requireRow(res, "report", def.ID); err != nil {
		return report.Definition{}, err
	}
	return s.GetReport(ctx, def.ID)
}

func (s *Store) GetReport(ctx context.Context, id string) (report.Definition, error) {
	var row reportRow
	err := s.db.GetContext(ctx, &row, `
		SELECT `+reportColumns+` FROM reports WHERE id = $1
	`, id)
	if err != nil {
		return report.Definition{}, notFound(err, "report", id)
	}
	return report.Definition(row), nil
}

func (s *Store) ListReports(ctx context.Context, tenantID string) ([]report.Definition, error) {
	var rows []reportRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+reportColumns+` FROM reports
		WHERE tenant_id = $1 ORDER BY name, id
	`, tenantID)
	if err != nil {
		return nil, err
	}
	return reportList(rows), nil
}

func (s *Store) ListScheduledReports(ctx context.Context) ([]report.Definition, error) {
	var rows []reportRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+reportColumns+` FROM reports
		WHERE enabled AND schedule <> '' ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	return reportList(rows), nil
}

func (s *Store) DeleteReport(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res, "report", id)
}

func (s *Store) RecordRun(ctx context.Context, run report.Run) (report.Run, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	rows, err := json.Marshal(run.Rows)
	if err != nil {
		return report.Run{}, err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO report_runs (id, report_id, status, rows, error, duration_us, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, run.ID, run.ReportID, run.Status, rows, run.Error, run.Duration.Microseconds(), run.StartedAt)
	if err != nil {
		return report.Run{}, err
	}
	return run, nil
}

func (s *Store) ListRuns(ctx context.Context, reportID string, limit int) ([]report.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, report_id, status, rows, error, duration_us, started_at
		FROM (
			SELECT * FROM report_runs
			WHERE report_id = $1 ORDER BY started_at DESC LIMIT $2
		) recent
		ORDER BY started_at
	`, reportID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []report.Run
	for rows.Next() {
		var (
			run        report.Run
			rowsRaw    []byte
			durationUS int64
		)
		if err := rows.Scan(&run.ID, &run.ReportID, &run.Status, &rowsRaw, &run.Error, &durationUS, &run.StartedAt); err != nil {
			return nil, err
		}
		run.Duration = time.Duration(durationUS) * time.Microsecond
		if len(rowsRaw) > 0 {
			_ = json.Unmarshal(rowsRaw, &run.Rows)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func reportList(rows []reportRow) []report.Definition {
	out := make([]report.Definition, 0, len(rows))
	for _, r := range rows {
		out = append(out, report.Definition(r))
	}
	return out
}
