package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/tidwall/gjson"

	"github.com/veltasoft/worksuite/internal/app/domain/report"
	"github.com/veltasoft/worksuite/internal/app/metrics"
	"github.com/veltasoft/worksuite/internal/app/storage"
	"github.com/veltasoft/worksuite/pkg/logger"
)

const executionHistoryPerScript = 50

// Service generates reports by aggregating a field, selected with a gjson
// path, over rows drawn from one of the suite's data sources.
type Service struct {
	store     storage.ReportStore
	documents storage.DocumentStore
	employees storage.EmployeeStore
	scripts   storage.ScriptStore
	log       *logger.Logger
}

// New constructs a report service over the given stores.
func New(store storage.ReportStore, documents storage.DocumentStore, employees storage.EmployeeStore, scripts storage.ScriptStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("reports")
	}
	return &Service{
		store:     store,
		documents: documents,
		employees: employees,
		scripts:   scripts,
		log:       log,
	}
}

// Create registers a report definition.
func (s *Service) Create(ctx context.Context, def report.Definition) (report.Definition, error) {
	if err := validateDefinition(&def); err != nil {
		return report.Definition{}, err
	}
	return s.store.CreateReport(ctx, def)
}

// Update replaces a definition's settings.
func (s *Service) Update(ctx context.Context, def report.Definition) (report.Definition, error) {
	existing, err := s.store.GetReport(ctx, def.ID)
	if err != nil {
		return report.Definition{}, err
	}
	def.TenantID = existing.TenantID
	def.CreatedAt = existing.CreatedAt
	if err := validateDefinition(&def); err != nil {
		return report.Definition{}, err
	}
	return s.store.UpdateReport(ctx, def)
}

// Get returns one definition.
func (s *Service) Get(ctx context.Context, id string) (report.Definition, error) {
	return s.store.GetReport(ctx, id)
}

// List returns a tenant's definitions.
func (s *Service) List(ctx context.Context, tenantID string) ([]report.Definition, error) {
	return s.store.ListReports(ctx, tenantID)
}

// Delete removes a definition and its recorded runs.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.DeleteReport(ctx, id)
}

// Runs returns the most recent runs of a report.
func (s *Service) Runs(ctx context.Context, reportID string, limit int) ([]report.Run, error) {
	if _, err := s.store.GetReport(ctx, reportID); err != nil {
		return nil, err
	}
	return s.store.ListRuns(ctx, reportID, limit)
}

// Run generates the report now and records the outcome.
func (s *Service) Run(ctx context.Context, reportID string) (report.Run, error) {
	def, err := s.store.GetReport(ctx, reportID)
	if err != nil {
		return report.Run{}, err
	}

	started := time.Now().UTC()
	rows, genErr := s.generate(ctx, def)
	run := report.Run{
		ReportID:  def.ID,
		Status:    report.RunSucceeded,
		Rows:      rows,
		Duration:  time.Since(started),
		StartedAt: started,
	}
	if genErr != nil {
		run.Status = report.RunFailed
		run.Error = genErr.Error()
		run.Rows = nil
	}

	recorded, err := s.store.RecordRun(ctx, run)
	if err != nil {
		s.log.WithError(err).WithField("report_id", def.ID).Warn("failed to record report run")
		recorded = run
	}
	metrics.RecordReportRun(run.Status, run.Duration)
	return recorded, genErr
}

func (s *Service) generate(ctx context.Context, def report.Definition) ([]report.Row, error) {
	rows, err := s.sourceRows(ctx, def.TenantID, def.Source)
	if err != nil {
		return nil, fmt.Errorf("load %s rows: %w", def.Source, err)
	}
	return aggregate(rows, def), nil
}

// sourceRows materializes the source records as JSON so gjson selectors
// work uniformly across sources.
func (s *Service) sourceRows(ctx context.Context, tenantID, source string) ([]string, error) {
	switch source {
	case report.SourceDocuments:
		docs, err := s.documents.ListDocuments(ctx, tenantID, false)
		if err != nil {
			return nil, err
		}
		rows := make([]string, 0, len(docs))
		for _, d := range docs {
			rows = append(rows, mustJSON(map[string]interface{}{
				"id":             d.ID,
				"title":          d.Title,
				"folder_id":      d.FolderID,
				"template_id":    d.TemplateID,
				"version":        d.Version,
				"created_by":     d.CreatedBy,
				"content_length": len(d.Content),
			}))
		}
		return rows, nil

	case report.SourceHR:
		emps, err := s.employees.ListEmployees(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		rows := make([]string, 0, len(emps))
		for _, e := range emps {
			rows = append(rows, mustJSON(map[string]interface{}{
				"id":            e.ID,
				"first_name":    e.FirstName,
				"last_name":     e.LastName,
				"department":    e.Department,
				"position":      e.Position,
				"leave_balance": e.LeaveBalance,
				"active":        e.Active,
			}))
		}
		return rows, nil

	case report.SourceAnalytics:
		scripts, err := s.scripts.ListScripts(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		var rows []string
		for _, sc := range scripts {
			execs, err := s.scripts.ListExecutions(ctx, sc.ID, executionHistoryPerScript)
			if err != nil {
				return nil, err
			}
			for _, ex := range execs {
				rows = append(rows, mustJSON(map[string]interface{}{
					"script_id":   sc.ID,
					"script_name": sc.Name,
					"status":      ex.Status,
					"duration_ms": float64(ex.Duration) / float64(time.Millisecond),
				}))
			}
		}
		return rows, nil
	}
	return nil, fmt.Errorf("unknown report source %q", source)
}

// aggregate folds the rows into one output row per group. Rows where the
// selector resolves to nothing are skipped for sum and avg.
func aggregate(rows []string, def report.Definition) []report.Row {
	type bucket struct {
		sum   float64
		count int
	}
	buckets := map[string]*bucket{}
	var order []string

	for _, row := range rows {
		group := ""
		if def.GroupBy != "" {
			group = gjson.Get(row, def.GroupBy).String()
		}

		value := 0.0
		if def.Aggregation != report.AggCount {
			res := gjson.Get(row, def.Selector)
			if !res.Exists() {
				continue
			}
			value = res.Float()
		}

		b, ok := buckets[group]
		if !ok {
			b = &bucket{}
			buckets[group] = b
			order = append(order, group)
		}
		b.sum += value
		b.count++
	}

	out := make([]report.Row, 0, len(order))
	for _, group := range order {
		b := buckets[group]
		row := report.Row{Group: group, Count: b.count}
		switch def.Aggregation {
		case report.AggCount:
			row.Value = float64(b.count)
		case report.AggSum:
			row.Value = b.sum
		case report.AggAvg:
			row.Value = b.sum / float64(b.count)
		}
		out = append(out, row)
	}
	return out
}

func validateDefinition(def *report.Definition) error {
	def.Name = strings.TrimSpace(def.Name)
	if def.Name == "" {
		return fmt.Errorf("name is required")
	}
	switch def.Source {
	case report.SourceDocuments, report.SourceHR, report.SourceAnalytics:
	default:
		return fmt.Errorf("unknown report source %q", def.Source)
	}
	switch def.Aggregation {
	case report.AggCount:
	case report.AggSum, report.AggAvg:
		if def.Selector == "" {
			return fmt.Errorf("%s aggregation requires a selector", def.Aggregation)
		}
	default:
		return fmt.Errorf("unknown aggregation %q", def.Aggregation)
	}
	if def.Schedule != "" {
		if _, err := cron.ParseStandard(def.Schedule); err != nil {
			return fmt.Errorf("invalid schedule %q: %w", def.Schedule, err)
		}
	}
	return nil
}

func mustJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
