package tenants

import (
	"context"
	"fmt"
	"strings"

	"github.com/veltasoft/worksuite/internal/app/domain/tenant"
	"github.com/veltasoft/worksuite/internal/app/storage"
	"github.com/veltasoft/worksuite/pkg/logger"
)

// Service manages tenant records.
type Service struct {
	store storage.TenantStore
	log   *logger.Logger
}

// New constructs a tenant service.
func New(store storage.TenantStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("tenants")
	}
	return &Service{store: store, log: log}
}

// Create registers a new tenant.
func (s *Service) Create(ctx context.Context, name, plan string, metadata map[string]string) (tenant.Tenant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return tenant.Tenant{}, fmt.Errorf("name is required")
	}
	if plan == "" {
		plan = "standard"
	}

	created, err := s.store.CreateTenant(ctx, tenant.Tenant{Name: name, Plan: plan, Metadata: metadata})
	if err != nil {
		return tenant.Tenant{}, err
	}
	s.log.WithField("tenant_id", created.ID).Info("tenant created")
	return created, nil
}

// Get fetches a tenant by ID.
func (s *Service) Get(ctx context.Context, id string) (tenant.Tenant, error) {
	return s.store.GetTenant(ctx, id)
}

// List lists all tenants.
func (s *Service) List(ctx context.Context) ([]tenant.Tenant, error) {
	return s.store.ListTenants(ctx)
}

// Update overwrites mutable tenant fields.
func (s *Service) Update(ctx context.Context, id string, name, plan *string, metadata map[string]string) (tenant.Tenant, error) {
	t, err := s.store.GetTenant(ctx, id)
	if err != nil {
		return tenant.Tenant{}, err
	}

	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return tenant.Tenant{}, fmt.Errorf("name cannot be empty")
		}
		t.Name = trimmed
	}
	if plan != nil {
		t.Plan = strings.TrimSpace(*plan)
	}
	if metadata != nil {
		t.Metadata = metadata
	}

	return s.store.UpdateTenant(ctx, t)
}

// Delete removes a tenant record.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteTenant(ctx, id); err != nil {
		return err
	}
	s.log.WithField("tenant_id", id).Info("tenant deleted")
	return nil
}
