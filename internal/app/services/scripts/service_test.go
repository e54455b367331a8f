package scripts

import (
	"context"
	"testing"
	"time"

	"github.com/veltasoft/worksuite/internal/app/domain/script"
	"github.com/veltasoft/worksuite/internal/app/domain/tenant"
	"github.com/veltasoft/worksuite/internal/app/storage/memory"
)

func newTestScript(t *testing.T, source string) (*Service, string) {
	t.Helper()
	store := memory.New()
	tn, err := store.CreateTenant(context.Background(), tenant.Tenant{Name: "acme"})
	if err != nil {
		t.Fatalf("create tenant: %v", err)
	}
	svc := New(store, store, nil)
	svc.AttachExecutor(NewGojaExecutor(time.Second))
	sc, err := svc.Create(context.Background(), script.Script{
		TenantID: tn.ID,
		Name:     "calc",
		Source:   source,
	})
	if err != nil {
		t.Fatalf("create script: %v", err)
	}
	return svc, sc.ID
}

func TestCreateValidation(t *testing.T) {
	store := memory.New()
	svc := New(store, store, nil)
	ctx := context.Background()

	if _, err := svc.Create(ctx, script.Script{Name: "x", Source: "1"}); err == nil {
		t.Fatalf("expected error without tenant")
	}
	if _, err := svc.Create(ctx, script.Script{TenantID: "t", Source: "1"}); err == nil {
		t.Fatalf("expected error without name")
	}
	if _, err := svc.Create(ctx, script.Script{TenantID: "t", Name: "x"}); err == nil {
		t.Fatalf("expected error without source")
	}
}

func TestExecuteRecordsRun(t *testing.T) {
	svc, id := newTestScript(t, `console.log("running"); input.n + 1`)
	ctx := context.Background()

	ex, err := svc.Execute(ctx, id, map[string]any{"n": 41})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if ex.Status != script.StatusSucceeded {
		t.Fatalf("status %s", ex.Status)
	}
	if ex.Result != "42" {
		t.Fatalf("result %q", ex.Result)
	}
	if len(ex.Logs) != 1 || ex.Logs[0] != "running" {
		t.Fatalf("logs %v", ex.Logs)
	}

	runs, err := svc.Executions(ctx, id, 10)
	if err != nil {
		t.Fatalf("executions: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != script.StatusSucceeded {
		t.Fatalf("unexpected runs %+v", runs)
	}
}

func TestExecuteRecordsFailure(t *testing.T) {
	svc, id := newTestScript(t, `throw new Error("boom")`)
	ctx := context.Background()

	ex, err := svc.Execute(ctx, id, nil)
	if err == nil {
		t.Fatalf("expected execution error")
	}
	if ex.Status != script.StatusFailed || ex.Error == "" {
		t.Fatalf("unexpected execution %+v", ex)
	}

	// The failed run is still on record.
	runs, err := svc.Executions(ctx, id, 10)
	if err != nil {
		t.Fatalf("executions: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != script.StatusFailed {
		t.Fatalf("unexpected runs %+v", runs)
	}
}

func TestExecuteWithoutExecutor(t *testing.T) {
	store := memory.New()
	tn, _ := store.CreateTenant(context.Background(), tenant.Tenant{Name: "acme"})
	svc := New(store, store, nil)
	sc, err := svc.Create(context.Background(), script.Script{TenantID: tn.ID, Name: "x", Source: "1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Execute(context.Background(), sc.ID, nil); err == nil {
		t.Fatalf("expected error without executor")
	}
}

func TestUpdateScript(t *testing.T) {
	svc, id := newTestScript(t, `1`)
	ctx := context.Background()

	src := "2 + 2"
	updated, err := svc.Update(ctx, id, nil, nil, &src)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Source != "2 + 2" || updated.Name != "calc" {
		t.Fatalf("unexpected script %+v", updated)
	}

	empty := ""
	if _, err := svc.Update(ctx, id, &empty, nil, nil); err == nil {
		t.Fatalf("expected error for empty name")
	}

	ex, err := svc.Execute(ctx, id, nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if ex.Result != "4" {
		t.Fatalf("result %q, want 4", ex.Result)
	}
}
