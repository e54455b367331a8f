// Package postgres implements the storage interfaces on PostgreSQL.
package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/veltasoft/worksuite/internal/app/storage"
)

// Store is a PostgreSQL-backed implementation of the storage interfaces.
// IDs are UUIDs generated on insert.
type Store struct {
	db *sqlx.DB
}

var _ storage.TenantStore = (*Store)(nil)
var _ storage.DocumentStore = (*Store)(nil)
var _ storage.FolderStore = (*Store)(nil)
var _ storage.TemplateStore = (*Store)(nil)
var _ storage.SheetStore = (*Store)(nil)
var _ storage.EmployeeStore = (*Store)(nil)
var _ storage.ScriptStore = (*Store)(nil)
var _ storage.ReportStore = (*Store)(nil)
var _ storage.PresenceStore = (*Store)(nil)

// New wraps an open database handle.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// notFound maps sql.ErrNoRows onto the storage sentinel so callers can
// test with errors.Is regardless of the backing store.
func notFound(err error, kind, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", kind, id, storage.ErrNotFound)
	}
	return err
}

// requireRow converts a zero-rows-affected update into a not-found error.
func requireRow(res sql.Result, kind, id string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, storage.ErrNotFound)
	}
	return nil
}
