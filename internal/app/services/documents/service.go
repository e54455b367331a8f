package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/veltasoft/worksuite/internal/app/domain/document"
	"github.com/veltasoft/worksuite/internal/app/storage"
	"github.com/veltasoft/worksuite/pkg/logger"
)

// ErrTrashed is returned for operations that are not allowed on documents
// in the trash.
var ErrTrashed = errors.New("document is in the trash")

// Service manages documents, their version history, and the trash.
type Service struct {
	tenants storage.TenantStore
	folders storage.FolderStore
	store   storage.DocumentStore
	log     *logger.Logger
}

// New constructs a document service.
func New(tenants storage.TenantStore, folders storage.FolderStore, store storage.DocumentStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("documents")
	}
	return &Service{tenants: tenants, folders: folders, store: store, log: log}
}

// Create registers a new document. The initial content is stored as
// version 1.
func (s *Service) Create(ctx context.Context, doc document.Document) (document.Document, error) {
	if strings.TrimSpace(doc.TenantID) == "" {
		return document.Document{}, fmt.Errorf("tenant_id is required")
	}
	if strings.TrimSpace(doc.Title) == "" {
		return document.Document{}, fmt.Errorf("title is required")
	}

	if s.tenants != nil {
		if _, err := s.tenants.GetTenant(ctx, doc.TenantID); err != nil {
			return document.Document{}, fmt.Errorf("tenant validation failed: %w", err)
		}
	}
	if doc.FolderID != "" && s.folders != nil {
		f, err := s.folders.GetFolder(ctx, doc.FolderID)
		if err != nil {
			return document.Document{}, fmt.Errorf("folder validation failed: %w", err)
		}
		if f.TenantID != doc.TenantID {
			return document.Document{}, fmt.Errorf("folder %s belongs to another tenant", doc.FolderID)
		}
	}

	doc.Version = 1
	doc.Trashed = false
	created, err := s.store.CreateDocument(ctx, doc)
	if err != nil {
		return document.Document{}, err
	}

	if _, err := s.store.CreateVersion(ctx, document.Version{
		DocumentID: created.ID,
		Number:     1,
		Content:    created.Content,
		CreatedBy:  created.CreatedBy,
	}); err != nil {
		return document.Document{}, fmt.Errorf("record initial version: %w", err)
	}

	s.log.WithField("document_id", created.ID).
		WithField("tenant_id", created.TenantID).
		Info("document created")
	return created, nil
}

// Get fetches a document.
func (s *Service) Get(ctx context.Context, id string) (document.Document, error) {
	return s.store.GetDocument(ctx, id)
}

// List lists a tenant's documents, excluding the trash.
func (s *Service) List(ctx context.Context, tenantID string) ([]document.Document, error) {
	return s.store.ListDocuments(ctx, tenantID, false)
}

// ListTrash lists a tenant's trashed documents.
func (s *Service) ListTrash(ctx context.Context, tenantID string) ([]document.Document, error) {
	all, err := s.store.ListDocuments(ctx, tenantID, true)
	if err != nil {
		return nil, err
	}
	var out []document.Document
	for _, doc := range all {
		if doc.Trashed {
			out = append(out, doc)
		}
	}
	return out, nil
}

// ListByFolder lists the active documents in a folder.
func (s *Service) ListByFolder(ctx context.Context, folderID string) ([]document.Document, error) {
	return s.store.ListDocumentsByFolder(ctx, folderID)
}

// UpdateMeta changes title and folder without touching content.
func (s *Service) UpdateMeta(ctx context.Context, id string, title, folderID *string) (document.Document, error) {
	doc, err := s.store.GetDocument(ctx, id)
	if err != nil {
		return document.Document{}, err
	}
	if doc.Trashed {
		return document.Document{}, ErrTrashed
	}

	if title != nil {
		trimmed := strings.TrimSpace(*title)
		if trimmed == "" {
			return document.Document{}, fmt.Errorf("title cannot be empty")
		}
		doc.Title = trimmed
	}
	if folderID != nil {
		if *folderID != "" && s.folders != nil {
			f, err := s.folders.GetFolder(ctx, *folderID)
			if err != nil {
				return document.Document{}, fmt.Errorf("folder validation failed: %w", err)
			}
			if f.TenantID != doc.TenantID {
				return document.Document{}, fmt.Errorf("folder %s belongs to another tenant", *folderID)
			}
		}
		doc.FolderID = *folderID
	}

	return s.store.UpdateDocument(ctx, doc)
}

// SaveContent stores new content as the next version.
func (s *Service) SaveContent(ctx context.Context, id, content, savedBy string) (document.Document, error) {
	doc, err := s.store.GetDocument(ctx, id)
	if err != nil {
		return document.Document{}, err
	}
	if doc.Trashed {
		return document.Document{}, ErrTrashed
	}

	doc.Content = content
	doc.Version++
	updated, err := s.store.UpdateDocument(ctx, doc)
	if err != nil {
		return document.Document{}, err
	}

	if _, err := s.store.CreateVersion(ctx, document.Version{
		DocumentID: id,
		Number:     updated.Version,
		Content:    content,
		CreatedBy:  savedBy,
	}); err != nil {
		return document.Document{}, fmt.Errorf("record version: %w", err)
	}

	s.log.WithField("document_id", id).
		WithField("version", updated.Version).
		Info("document content saved")
	return updated, nil
}

// Versions lists a document's version history.
func (s *Service) Versions(ctx context.Context, id string) ([]document.Version, error) {
	if _, err := s.store.GetDocument(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListVersions(ctx, id)
}

// RestoreVersion copies an old version's content forward as a new head
// version. History is never rewritten.
func (s *Service) RestoreVersion(ctx context.Context, id string, number int, restoredBy string) (document.Document, error) {
	v, err := s.store.GetVersion(ctx, id, number)
	if err != nil {
		return document.Document{}, err
	}
	return s.SaveContent(ctx, id, v.Content, restoredBy)
}

// Trash soft-deletes a document.
func (s *Service) Trash(ctx context.Context, id string) (document.Document, error) {
	doc, err := s.store.GetDocument(ctx, id)
	if err != nil {
		return document.Document{}, err
	}
	if doc.Trashed {
		return doc, nil
	}
	doc.Trashed = true
	doc.TrashedAt = time.Now().UTC()
	updated, err := s.store.UpdateDocument(ctx, doc)
	if err != nil {
		return document.Document{}, err
	}
	s.log.WithField("document_id", id).Info("document trashed")
	return updated, nil
}

// Restore brings a document back from the trash.
func (s *Service) Restore(ctx context.Context, id string) (document.Document, error) {
	doc, err := s.store.GetDocument(ctx, id)
	if err != nil {
		return document.Document{}, err
	}
	if !doc.Trashed {
		return doc, nil
	}
	doc.Trashed = false
	doc.TrashedAt = time.Time{}
	return s.store.UpdateDocument(ctx, doc)
}

// Purge permanently deletes a trashed document. Active documents must be
// trashed first.
func (s *Service) Purge(ctx context.Context, id string) error {
	doc, err := s.store.GetDocument(ctx, id)
	if err != nil {
		return err
	}
	if !doc.Trashed {
		return fmt.Errorf("document %s is not in the trash", id)
	}
	if err := s.store.DeleteDocument(ctx, id); err != nil {
		return err
	}
	s.log.WithField("document_id", id).Info("document purged")
	return nil
}

// PurgeTrashedBefore permanently deletes documents trashed before the
// cutoff. Returns the number purged.
func (s *Service) PurgeTrashedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	docs, err := s.store.ListTrashedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	purged := 0
	for _, doc := range docs {
		if err := s.store.DeleteDocument(ctx, doc.ID); err != nil {
			s.log.WithError(err).WithField("document_id", doc.ID).Warn("purge trashed document")
			continue
		}
		purged++
	}
	return purged, nil
}
