package report

import "time"

// Sources a report definition may read from.
const (
	SourceDocuments = "documents"
	SourceHR        = "hr"
	SourceAnalytics = "analytics"
)

// Aggregations supported over the selected field.
const (
	AggCount = "count"
	AggSum   = "sum"
	AggAvg   = "avg"
)

// Run states.
const (
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

// Definition describes a report: where rows come from, which field to
// aggregate (a gjson path into the row), how, and an optional group-by
// path. Schedule is a cron expression; empty means on-demand only.
type Definition struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	Name        string    `json:"name"`
	Source      string    `json:"source"`
	Selector    string    `json:"selector"`
	Aggregation string    `json:"aggregation"`
	GroupBy     string    `json:"group_by,omitempty"`
	Schedule    string    `json:"schedule"`
	Enabled     bool      `json:"enabled"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Row is one output row of a generated report.
type Row struct {
	Group string  `json:"group"`
	Value float64 `json:"value"`
	Count int     `json:"count"`
}

// Run records one generation of a report.
type Run struct {
	ID        string        `json:"id"`
	ReportID  string        `json:"report_id"`
	Status    string        `json:"status"`
	Rows      []Row         `json:"rows"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
	StartedAt time.Time     `json:"started_at"`
}
