package documents

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/veltasoft/worksuite/internal/app/domain/document"
	"github.com/veltasoft/worksuite/internal/app/domain/folder"
	"github.com/veltasoft/worksuite/internal/app/domain/tenant"
	"github.com/veltasoft/worksuite/internal/app/storage"
	"github.com/veltasoft/worksuite/internal/app/storage/memory"
)

func newTestTenant(t *testing.T, store *memory.Store) tenant.Tenant {
	t.Helper()
	tn, err := store.CreateTenant(context.Background(), tenant.Tenant{Name: "acme"})
	if err != nil {
		t.Fatalf("create tenant: %v", err)
	}
	return tn
}

func TestCreateRecordsInitialVersion(t *testing.T) {
	store := memory.New()
	tn := newTestTenant(t, store)
	svc := New(store, store, store, nil)

	doc, err := svc.Create(context.Background(), document.Document{
		TenantID:  tn.ID,
		Title:     "plan",
		Content:   "v1 body",
		CreatedBy: "alice",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if doc.Version != 1 {
		t.Fatalf("version = %d, want 1", doc.Version)
	}

	versions, err := svc.Versions(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("versions: %v", err)
	}
	if len(versions) != 1 || versions[0].Number != 1 || versions[0].Content != "v1 body" {
		t.Fatalf("unexpected versions %+v", versions)
	}
}

func TestCreateValidation(t *testing.T) {
	store := memory.New()
	svc := New(store, store, store, nil)

	if _, err := svc.Create(context.Background(), document.Document{Title: "x"}); err == nil {
		t.Fatalf("expected error without tenant")
	}
	if _, err := svc.Create(context.Background(), document.Document{TenantID: "t", Title: " "}); err == nil {
		t.Fatalf("expected error without title")
	}
	// Unknown tenant is rejected.
	if _, err := svc.Create(context.Background(), document.Document{TenantID: "ghost", Title: "x"}); err == nil {
		t.Fatalf("expected error for unknown tenant")
	}
}

func TestSaveContentVersioning(t *testing.T) {
	store := memory.New()
	tn := newTestTenant(t, store)
	svc := New(store, store, store, nil)

	doc, err := svc.Create(context.Background(), document.Document{TenantID: tn.ID, Title: "plan", Content: "one"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.SaveContent(context.Background(), doc.ID, "two", "bob")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if updated.Version != 2 || updated.Content != "two" {
		t.Fatalf("unexpected head %+v", updated)
	}

	versions, _ := svc.Versions(context.Background(), doc.ID)
	if len(versions) != 2 {
		t.Fatalf("expected 2 versions, got %d", len(versions))
	}
}

func TestRestoreVersionCopiesForward(t *testing.T) {
	store := memory.New()
	tn := newTestTenant(t, store)
	svc := New(store, store, store, nil)

	doc, _ := svc.Create(context.Background(), document.Document{TenantID: tn.ID, Title: "plan", Content: "one"})
	if _, err := svc.SaveContent(context.Background(), doc.ID, "two", "bob"); err != nil {
		t.Fatalf("save: %v", err)
	}

	restored, err := svc.RestoreVersion(context.Background(), doc.ID, 1, "carol")
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.Content != "one" {
		t.Fatalf("restored content %q", restored.Content)
	}
	// Restoring creates version 3; history is never rewritten.
	if restored.Version != 3 {
		t.Fatalf("restored version %d, want 3", restored.Version)
	}
	versions, _ := svc.Versions(context.Background(), doc.ID)
	if len(versions) != 3 {
		t.Fatalf("expected 3 versions, got %d", len(versions))
	}
}

func TestTrashLifecycle(t *testing.T) {
	store := memory.New()
	tn := newTestTenant(t, store)
	svc := New(store, store, store, nil)

	doc, _ := svc.Create(context.Background(), document.Document{TenantID: tn.ID, Title: "plan", Content: "x"})

	// Active documents cannot be purged.
	if err := svc.Purge(context.Background(), doc.ID); err == nil {
		t.Fatalf("expected purge of active document to fail")
	}

	trashed, err := svc.Trash(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("trash: %v", err)
	}
	if !trashed.Trashed || trashed.TrashedAt.IsZero() {
		t.Fatalf("document not marked trashed: %+v", trashed)
	}

	// Trashed documents reject edits.
	if _, err := svc.SaveContent(context.Background(), doc.ID, "y", "bob"); !errors.Is(err, ErrTrashed) {
		t.Fatalf("expected ErrTrashed, got %v", err)
	}
	if _, err := svc.UpdateMeta(context.Background(), doc.ID, nil, nil); !errors.Is(err, ErrTrashed) {
		t.Fatalf("expected ErrTrashed, got %v", err)
	}

	active, _ := svc.List(context.Background(), tn.ID)
	if len(active) != 0 {
		t.Fatalf("trashed document still listed: %v", active)
	}
	inTrash, _ := svc.ListTrash(context.Background(), tn.ID)
	if len(inTrash) != 1 {
		t.Fatalf("trash listing %v", inTrash)
	}

	restored, err := svc.Restore(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.Trashed {
		t.Fatalf("document still trashed after restore")
	}

	if _, err := svc.Trash(context.Background(), doc.ID); err != nil {
		t.Fatalf("re-trash: %v", err)
	}
	if err := svc.Purge(context.Background(), doc.ID); err != nil {
		t.Fatalf("purge: %v", err)
	}
	if _, err := svc.Get(context.Background(), doc.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found after purge, got %v", err)
	}
}

func TestPurgeTrashedBefore(t *testing.T) {
	store := memory.New()
	tn := newTestTenant(t, store)
	svc := New(store, store, store, nil)

	oldDoc, _ := svc.Create(context.Background(), document.Document{TenantID: tn.ID, Title: "old", Content: "x"})
	newDoc, _ := svc.Create(context.Background(), document.Document{TenantID: tn.ID, Title: "new", Content: "x"})

	if _, err := svc.Trash(context.Background(), oldDoc.ID); err != nil {
		t.Fatalf("trash: %v", err)
	}
	if _, err := svc.Trash(context.Background(), newDoc.ID); err != nil {
		t.Fatalf("trash: %v", err)
	}

	// Backdate the first document's trash timestamp.
	stale, _ := store.GetDocument(context.Background(), oldDoc.ID)
	stale.TrashedAt = time.Now().Add(-48 * time.Hour)
	if _, err := store.UpdateDocument(context.Background(), stale); err != nil {
		t.Fatalf("backdate: %v", err)
	}

	purged, err := svc.PurgeTrashedBefore(context.Background(), time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("purge trashed: %v", err)
	}
	if purged != 1 {
		t.Fatalf("purged %d, want 1", purged)
	}
	if _, err := store.GetDocument(context.Background(), oldDoc.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("old document survived: %v", err)
	}
	if _, err := store.GetDocument(context.Background(), newDoc.ID); err != nil {
		t.Fatalf("recent trash purged early: %v", err)
	}
}

func TestCrossTenantFolderRejected(t *testing.T) {
	store := memory.New()
	tn := newTestTenant(t, store)
	other, _ := store.CreateTenant(context.Background(), tenant.Tenant{Name: "rival"})
	svc := New(store, store, store, nil)

	f, err := store.CreateFolder(context.Background(), folder.Folder{TenantID: other.ID, Name: "theirs"})
	if err != nil {
		t.Fatalf("create folder: %v", err)
	}
	_, err = svc.Create(context.Background(), document.Document{TenantID: tn.ID, Title: "x", FolderID: f.ID})
	if err == nil {
		t.Fatalf("expected cross-tenant folder rejection")
	}
}
