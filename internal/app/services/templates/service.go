package templates

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/veltasoft/worksuite/internal/app/domain/document"
	"github.com/veltasoft/worksuite/internal/app/domain/template"
	"github.com/veltasoft/worksuite/internal/app/services/documents"
	"github.com/veltasoft/worksuite/internal/app/storage"
	"github.com/veltasoft/worksuite/pkg/logger"
)

var placeholderPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_.-]+)\s*\}\}`)

// Service manages document templates and their instantiation.
type Service struct {
	tenants   storage.TenantStore
	store     storage.TemplateStore
	documents *documents.Service
	log       *logger.Logger
}

// New constructs a template service.
func New(tenants storage.TenantStore, store storage.TemplateStore, docs *documents.Service, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("templates")
	}
	return &Service{tenants: tenants, store: store, documents: docs, log: log}
}

// Create registers a template.
func (s *Service) Create(ctx context.Context, tpl template.Template) (template.Template, error) {
	if strings.TrimSpace(tpl.TenantID) == "" {
		return template.Template{}, fmt.Errorf("tenant_id is required")
	}
	if strings.TrimSpace(tpl.Name) == "" {
		return template.Template{}, fmt.Errorf("name is required")
	}
	if s.tenants != nil {
		if _, err := s.tenants.GetTenant(ctx, tpl.TenantID); err != nil {
			return template.Template{}, fmt.Errorf("tenant validation failed: %w", err)
		}
	}

	created, err := s.store.CreateTemplate(ctx, tpl)
	if err != nil {
		return template.Template{}, err
	}
	s.log.WithField("template_id", created.ID).WithField("tenant_id", created.TenantID).Info("template created")
	return created, nil
}

// Get fetches a template.
func (s *Service) Get(ctx context.Context, id string) (template.Template, error) {
	return s.store.GetTemplate(ctx, id)
}

// List lists a tenant's templates.
func (s *Service) List(ctx context.Context, tenantID string) ([]template.Template, error) {
	return s.store.ListTemplates(ctx, tenantID)
}

// Update overwrites mutable template fields.
func (s *Service) Update(ctx context.Context, id string, name, description, body *string) (template.Template, error) {
	tpl, err := s.store.GetTemplate(ctx, id)
	if err != nil {
		return template.Template{}, err
	}
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return template.Template{}, fmt.Errorf("name cannot be empty")
		}
		tpl.Name = trimmed
	}
	if description != nil {
		tpl.Description = *description
	}
	if body != nil {
		tpl.Body = *body
	}
	return s.store.UpdateTemplate(ctx, tpl)
}

// Delete removes a template. Documents created from it are unaffected.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.DeleteTemplate(ctx, id)
}

// Placeholders lists the distinct placeholder names in a template body.
func Placeholders(body string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range placeholderPattern.FindAllStringSubmatch(body, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	sort.Strings(out)
	return out
}

// Instantiate creates a document from a template, substituting every
// placeholder. All placeholders must be supplied; the error names the
// missing ones.
func (s *Service) Instantiate(ctx context.Context, tenantID, templateID, title, folderID, createdBy string, values map[string]string) (document.Document, error) {
	tpl, err := s.store.GetTemplate(ctx, templateID)
	if err != nil {
		return document.Document{}, err
	}
	if tpl.TenantID != tenantID {
		return document.Document{}, fmt.Errorf("template %s belongs to another tenant", templateID)
	}

	var missing []string
	for _, name := range Placeholders(tpl.Body) {
		if _, ok := values[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return document.Document{}, fmt.Errorf("missing placeholder values: %s", strings.Join(missing, ", "))
	}

	content := placeholderPattern.ReplaceAllStringFunc(tpl.Body, func(m string) string {
		name := placeholderPattern.FindStringSubmatch(m)[1]
		return values[name]
	})

	if strings.TrimSpace(title) == "" {
		title = tpl.Name
	}
	doc, err := s.documents.Create(ctx, document.Document{
		TenantID:   tenantID,
		FolderID:   folderID,
		TemplateID: templateID,
		Title:      title,
		Content:    content,
		CreatedBy:  createdBy,
	})
	if err != nil {
		return document.Document{}, err
	}
	s.log.WithField("template_id", templateID).
		WithField("document_id", doc.ID).
		Info("template instantiated")
	return doc, nil
}
