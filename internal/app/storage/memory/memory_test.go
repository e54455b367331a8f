package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/veltasoft/worksuite/internal/app/domain/document"
	"github.com/veltasoft/worksuite/internal/app/domain/script"
	"github.com/veltasoft/worksuite/internal/app/domain/sheet"
	"github.com/veltasoft/worksuite/internal/app/domain/tenant"
	"github.com/veltasoft/worksuite/internal/app/storage"
)

func TestCreateAssignsIDs(t *testing.T) {
	store := New()
	ctx := context.Background()

	a, err := store.CreateTenant(ctx, tenant.Tenant{Name: "a"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	b, err := store.CreateTenant(ctx, tenant.Tenant{Name: "b"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("ids not unique: %q %q", a.ID, b.ID)
	}
	if a.CreatedAt.IsZero() || a.UpdatedAt.IsZero() {
		t.Fatalf("timestamps not set: %+v", a)
	}

	if _, err := store.CreateTenant(ctx, tenant.Tenant{ID: a.ID}); err == nil {
		t.Fatalf("expected duplicate id error")
	}
}

func TestNotFoundWrapping(t *testing.T) {
	store := New()
	ctx := context.Background()

	if _, err := store.GetTenant(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("tenant: %v", err)
	}
	if _, err := store.GetDocument(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("document: %v", err)
	}
	if err := store.DeleteScript(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("script: %v", err)
	}
	if _, err := store.GetCells(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("cells: %v", err)
	}
}

func TestDocumentVersions(t *testing.T) {
	store := New()
	ctx := context.Background()

	doc, err := store.CreateDocument(ctx, document.Document{TenantID: "t", Title: "d"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for i := 1; i <= 3; i++ {
		if _, err := store.CreateVersion(ctx, document.Version{DocumentID: doc.ID, Number: i}); err != nil {
			t.Fatalf("version %d: %v", i, err)
		}
	}

	v, err := store.GetVersion(ctx, doc.ID, 2)
	if err != nil {
		t.Fatalf("get version: %v", err)
	}
	if v.Number != 2 {
		t.Fatalf("number %d", v.Number)
	}
	if _, err := store.GetVersion(ctx, doc.ID, 9); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	all, err := store.ListVersions(ctx, doc.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d versions", len(all))
	}

	// Deleting the document drops its versions.
	if err := store.DeleteDocument(ctx, doc.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	all, err = store.ListVersions(ctx, doc.ID)
	if err != nil {
		t.Fatalf("list after delete: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("versions survived delete: %+v", all)
	}
}

func TestPutCellsDropsEmpty(t *testing.T) {
	store := New()
	ctx := context.Background()

	sh, err := store.CreateSheet(ctx, sheet.Sheet{TenantID: "t", Name: "s"})
	if err != nil {
		t.Fatalf("create sheet: %v", err)
	}
	err = store.PutCells(ctx, sh.ID, []sheet.Cell{
		{Ref: "A1", Input: "1", Value: "1"},
		{Ref: "B1", Input: "2", Value: "2"},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.PutCells(ctx, sh.ID, []sheet.Cell{{Ref: "A1"}}); err != nil {
		t.Fatalf("clear: %v", err)
	}

	cells, err := store.GetCells(ctx, sh.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(cells) != 1 || cells[0].Ref != "B1" {
		t.Fatalf("unexpected cells %+v", cells)
	}
}

func TestListExecutionsWindow(t *testing.T) {
	store := New()
	ctx := context.Background()

	sc, err := store.CreateScript(ctx, script.Script{TenantID: "t", Name: "s", Source: "1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for i := 0; i < 5; i++ {
		ex := script.Execution{ScriptID: sc.ID, Status: script.StatusSucceeded, Result: fmt.Sprintf("%d", i)}
		if _, err := store.RecordExecution(ctx, ex); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	last2, err := store.ListExecutions(ctx, sc.ID, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(last2) != 2 || last2[0].Result != "3" || last2[1].Result != "4" {
		t.Fatalf("unexpected window %+v", last2)
	}

	all, err := store.ListExecutions(ctx, sc.ID, 0)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("got %d executions", len(all))
	}
}
