package reports

import (
	"context"
	"testing"

	"github.com/veltasoft/worksuite/internal/app/domain/employee"
	"github.com/veltasoft/worksuite/internal/app/domain/report"
	"github.com/veltasoft/worksuite/internal/app/domain/tenant"
	"github.com/veltasoft/worksuite/internal/app/storage/memory"
)

func newTestReports(t *testing.T) (*Service, *memory.Store, string) {
	t.Helper()
	store := memory.New()
	tn, err := store.CreateTenant(context.Background(), tenant.Tenant{Name: "acme"})
	if err != nil {
		t.Fatalf("create tenant: %v", err)
	}
	return New(store, store, store, store, nil), store, tn.ID
}

func seedEmployees(t *testing.T, store *memory.Store, tenantID string) {
	t.Helper()
	ctx := context.Background()
	seed := []employee.Employee{
		{TenantID: tenantID, FirstName: "A", LastName: "A", Department: "eng", LeaveBalance: 10, Active: true},
		{TenantID: tenantID, FirstName: "B", LastName: "B", Department: "eng", LeaveBalance: 20, Active: true},
		{TenantID: tenantID, FirstName: "C", LastName: "C", Department: "sales", LeaveBalance: 5, Active: true},
	}
	for _, e := range seed {
		if _, err := store.CreateEmployee(ctx, e); err != nil {
			t.Fatalf("seed employee: %v", err)
		}
	}
}

func rowsByGroup(rows []report.Row) map[string]report.Row {
	out := make(map[string]report.Row, len(rows))
	for _, r := range rows {
		out[r.Group] = r
	}
	return out
}

func TestValidateDefinition(t *testing.T) {
	svc, _, tenantID := newTestReports(t)
	ctx := context.Background()

	cases := []report.Definition{
		{TenantID: tenantID, Source: report.SourceHR, Aggregation: report.AggCount},
		{TenantID: tenantID, Name: "x", Source: "ledger", Aggregation: report.AggCount},
		{TenantID: tenantID, Name: "x", Source: report.SourceHR, Aggregation: "median"},
		{TenantID: tenantID, Name: "x", Source: report.SourceHR, Aggregation: report.AggSum},
		{TenantID: tenantID, Name: "x", Source: report.SourceHR, Aggregation: report.AggCount, Schedule: "every day"},
	}
	for i, def := range cases {
		if _, err := svc.Create(ctx, def); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}

	ok := report.Definition{
		TenantID:    tenantID,
		Name:        "headcount",
		Source:      report.SourceHR,
		Aggregation: report.AggCount,
		GroupBy:     "department",
		Schedule:    "0 6 * * *",
	}
	if _, err := svc.Create(ctx, ok); err != nil {
		t.Fatalf("create: %v", err)
	}
}

func TestRunCountByDepartment(t *testing.T) {
	svc, store, tenantID := newTestReports(t)
	seedEmployees(t, store, tenantID)
	ctx := context.Background()

	def, err := svc.Create(ctx, report.Definition{
		TenantID:    tenantID,
		Name:        "headcount",
		Source:      report.SourceHR,
		Aggregation: report.AggCount,
		GroupBy:     "department",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	run, err := svc.Run(ctx, def.ID)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if run.Status != report.RunSucceeded {
		t.Fatalf("status %s", run.Status)
	}
	groups := rowsByGroup(run.Rows)
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	if groups["eng"].Value != 2 || groups["sales"].Value != 1 {
		t.Fatalf("unexpected counts %+v", groups)
	}
}

func TestRunSumAndAvg(t *testing.T) {
	svc, store, tenantID := newTestReports(t)
	seedEmployees(t, store, tenantID)
	ctx := context.Background()

	sum, err := svc.Create(ctx, report.Definition{
		TenantID:    tenantID,
		Name:        "balances",
		Source:      report.SourceHR,
		Aggregation: report.AggSum,
		Selector:    "leave_balance",
		GroupBy:     "department",
	})
	if err != nil {
		t.Fatalf("create sum: %v", err)
	}
	run, err := svc.Run(ctx, sum.ID)
	if err != nil {
		t.Fatalf("run sum: %v", err)
	}
	groups := rowsByGroup(run.Rows)
	if groups["eng"].Value != 30 || groups["sales"].Value != 5 {
		t.Fatalf("unexpected sums %+v", groups)
	}

	avg, err := svc.Create(ctx, report.Definition{
		TenantID:    tenantID,
		Name:        "avg balance",
		Source:      report.SourceHR,
		Aggregation: report.AggAvg,
		Selector:    "leave_balance",
	})
	if err != nil {
		t.Fatalf("create avg: %v", err)
	}
	run, err = svc.Run(ctx, avg.ID)
	if err != nil {
		t.Fatalf("run avg: %v", err)
	}
	if len(run.Rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(run.Rows))
	}
	want := (10.0 + 20.0 + 5.0) / 3.0
	if run.Rows[0].Value != want || run.Rows[0].Count != 3 {
		t.Fatalf("avg row %+v, want value %v", run.Rows[0], want)
	}
}

func TestRunRecordsFailure(t *testing.T) {
	svc, store, tenantID := newTestReports(t)
	ctx := context.Background()

	// A definition whose source disappeared from under it.
	def, err := store.CreateReport(ctx, report.Definition{
		TenantID:    tenantID,
		Name:        "broken",
		Source:      "ledger",
		Aggregation: report.AggCount,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	run, err := svc.Run(ctx, def.ID)
	if err == nil {
		t.Fatalf("expected generation error")
	}
	if run.Status != report.RunFailed || run.Error == "" {
		t.Fatalf("unexpected run %+v", run)
	}

	runs, err := svc.Runs(ctx, def.ID, 10)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != report.RunFailed {
		t.Fatalf("failure not recorded: %+v", runs)
	}
}

func TestRunsLimit(t *testing.T) {
	svc, store, tenantID := newTestReports(t)
	seedEmployees(t, store, tenantID)
	ctx := context.Background()

	def, err := svc.Create(ctx, report.Definition{
		TenantID:    tenantID,
		Name:        "headcount",
		Source:      report.SourceHR,
		Aggregation: report.AggCount,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, err := svc.Run(ctx, def.ID); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}

	runs, err := svc.Runs(ctx, def.ID, 2)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}

	if _, err := svc.Runs(ctx, "missing", 2); err == nil {
		t.Fatalf("expected error for unknown report")
	}
}
