package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/veltasoft/worksuite/internal/app/domain/tenant"
	"github.com/veltasoft/worksuite/internal/app/storage"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return New(sqlx.NewDb(db, "postgres")), mock
}

func TestGetTenant(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT id, name, plan, metadata, created_at, updated_at`).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "plan", "metadata", "created_at", "updated_at"}).
			AddRow("t1", "acme", "pro", []byte(`{"region":"eu"}`), now, now))

	got, err := store.GetTenant(context.Background(), "t1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "acme" || got.Plan != "pro" {
		t.Fatalf("unexpected tenant %+v", got)
	}
	if got.Metadata["region"] != "eu" {
		t.Fatalf("metadata not decoded: %+v", got.Metadata)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetTenantNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT id, name, plan, metadata, created_at, updated_at`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "plan", "metadata", "created_at", "updated_at"}))

	_, err := store.GetTenant(context.Background(), "ghost")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreateTenantGeneratesID(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO tenants`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	created, err := store.CreateTenant(context.Background(), tenant.Tenant{Name: "acme"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("id not generated")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Fatalf("timestamps not set: %+v", created)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateTenantMissingRow(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE tenants SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := store.UpdateTenant(context.Background(), tenant.Tenant{ID: "ghost", Name: "x"})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteTenant(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`DELETE FROM tenants WHERE id`).
		WithArgs("t1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.DeleteTenant(context.Background(), "t1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	mock.ExpectExec(`DELETE FROM tenants WHERE id`).
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.DeleteTenant(context.Background(), "ghost"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
