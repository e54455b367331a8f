package folders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/veltasoft/worksuite/internal/app/domain/folder"
	"github.com/veltasoft/worksuite/internal/app/storage"
	"github.com/veltasoft/worksuite/pkg/logger"
)

// ErrNotEmpty is returned when deleting a folder that still contains
// documents or subfolders.
var ErrNotEmpty = errors.New("folder is not empty")

// Service manages the folder tree of each tenant.
type Service struct {
	tenants   storage.TenantStore
	documents storage.DocumentStore
	store     storage.FolderStore
	log       *logger.Logger
}

// New constructs a folder service.
func New(tenants storage.TenantStore, documents storage.DocumentStore, store storage.FolderStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("folders")
	}
	return &Service{tenants: tenants, documents: documents, store: store, log: log}
}

// Create adds a folder, optionally under a parent of the same tenant.
func (s *Service) Create(ctx context.Context, tenantID, parentID, name string) (folder.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return folder.Folder{}, fmt.Errorf("name is required")
	}
	if s.tenants != nil {
		if _, err := s.tenants.GetTenant(ctx, tenantID); err != nil {
			return folder.Folder{}, fmt.Errorf("tenant validation failed: %w", err)
		}
	}
	if parentID != "" {
		parent, err := s.store.GetFolder(ctx, parentID)
		if err != nil {
			return folder.Folder{}, fmt.Errorf("parent validation failed: %w", err)
		}
		if parent.TenantID != tenantID {
			return folder.Folder{}, fmt.Errorf("parent folder %s belongs to another tenant", parentID)
		}
	}

	created, err := s.store.CreateFolder(ctx, folder.Folder{TenantID: tenantID, ParentID: parentID, Name: name})
	if err != nil {
		return folder.Folder{}, err
	}
	s.log.WithField("folder_id", created.ID).WithField("tenant_id", tenantID).Info("folder created")
	return created, nil
}

// Get fetches a folder.
func (s *Service) Get(ctx context.Context, id string) (folder.Folder, error) {
	return s.store.GetFolder(ctx, id)
}

// List lists the children of a parent ("" lists tenant roots).
func (s *Service) List(ctx context.Context, tenantID, parentID string) ([]folder.Folder, error) {
	return s.store.ListFolders(ctx, tenantID, parentID)
}

// Rename changes a folder's name.
func (s *Service) Rename(ctx context.Context, id, name string) (folder.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return folder.Folder{}, fmt.Errorf("name is required")
	}
	f, err := s.store.GetFolder(ctx, id)
	if err != nil {
		return folder.Folder{}, err
	}
	f.Name = name
	return s.store.UpdateFolder(ctx, f)
}

// Move reparents a folder. Moving a folder under itself or any of its
// descendants is rejected.
func (s *Service) Move(ctx context.Context, id, newParentID string) (folder.Folder, error) {
	f, err := s.store.GetFolder(ctx, id)
	if err != nil {
		return folder.Folder{}, err
	}
	if newParentID == id {
		return folder.Folder{}, fmt.Errorf("cannot move folder under itself")
	}
	if newParentID != "" {
		parent, err := s.store.GetFolder(ctx, newParentID)
		if err != nil {
			return folder.Folder{}, fmt.Errorf("parent validation failed: %w", err)
		}
		if parent.TenantID != f.TenantID {
			return folder.Folder{}, fmt.Errorf("parent folder %s belongs to another tenant", newParentID)
		}
		// Walk up from the new parent; hitting the moved folder means
		// the target is inside its own subtree.
		cursor := parent
		for cursor.ParentID != "" {
			if cursor.ParentID == id {
				return folder.Folder{}, fmt.Errorf("cannot move folder under its own subtree")
			}
			cursor, err = s.store.GetFolder(ctx, cursor.ParentID)
			if err != nil {
				return folder.Folder{}, err
			}
		}
	}

	f.ParentID = newParentID
	return s.store.UpdateFolder(ctx, f)
}

// Path returns the folder names from the root to the folder.
func (s *Service) Path(ctx context.Context, id string) ([]string, error) {
	f, err := s.store.GetFolder(ctx, id)
	if err != nil {
		return nil, err
	}
	names := []string{f.Name}
	for f.ParentID != "" {
		f, err = s.store.GetFolder(ctx, f.ParentID)
		if err != nil {
			return nil, err
		}
		names = append([]string{f.Name}, names...)
	}
	return names, nil
}

// Delete removes an empty folder.
func (s *Service) Delete(ctx context.Context, id string) error {
	f, err := s.store.GetFolder(ctx, id)
	if err != nil {
		return err
	}

	children, err := s.store.ListFolders(ctx, f.TenantID, id)
	if err != nil {
		return err
	}
	if len(children) > 0 {
		return fmt.Errorf("folder %s: %w", id, ErrNotEmpty)
	}
	if s.documents != nil {
		docs, err := s.documents.ListDocumentsByFolder(ctx, id)
		if err != nil {
			return err
		}
		if len(docs) > 0 {
			return fmt.Errorf("folder %s: %w", id, ErrNotEmpty)
		}
	}

	return s.store.DeleteFolder(ctx, id)
}
