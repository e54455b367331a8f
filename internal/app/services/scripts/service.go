package scripts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/veltasoft/worksuite/internal/app/domain/script"
	"github.com/veltasoft/worksuite/internal/app/metrics"
	"github.com/veltasoft/worksuite/internal/app/storage"
	"github.com/veltasoft/worksuite/pkg/logger"
)

// Service manages tenant automation scripts and their execution history.
type Service struct {
	tenants  storage.TenantStore
	store    storage.ScriptStore
	executor Executor
	log      *logger.Logger
}

// New constructs a script service.
func New(tenants storage.TenantStore, store storage.ScriptStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("scripts")
	}
	return &Service{tenants: tenants, store: store, log: log}
}

// AttachExecutor injects the execution backend. Execute fails without one.
func (s *Service) AttachExecutor(exec Executor) {
	s.executor = exec
}

// Create registers a script.
func (s *Service) Create(ctx context.Context, sc script.Script) (script.Script, error) {
	if strings.TrimSpace(sc.TenantID) == "" {
		return script.Script{}, fmt.Errorf("tenant_id is required")
	}
	if strings.TrimSpace(sc.Name) == "" {
		return script.Script{}, fmt.Errorf("name is required")
	}
	if strings.TrimSpace(sc.Source) == "" {
		return script.Script{}, fmt.Errorf("source is required")
	}
	if s.tenants != nil {
		if _, err := s.tenants.GetTenant(ctx, sc.TenantID); err != nil {
			return script.Script{}, fmt.Errorf("tenant validation failed: %w", err)
		}
	}

	created, err := s.store.CreateScript(ctx, sc)
	if err != nil {
		return script.Script{}, err
	}
	s.log.WithField("script_id", created.ID).WithField("tenant_id", created.TenantID).Info("script created")
	return created, nil
}

// Get fetches a script.
func (s *Service) Get(ctx context.Context, id string) (script.Script, error) {
	return s.store.GetScript(ctx, id)
}

// List lists a tenant's scripts.
func (s *Service) List(ctx context.Context, tenantID string) ([]script.Script, error) {
	return s.store.ListScripts(ctx, tenantID)
}

// Update overwrites mutable script fields.
func (s *Service) Update(ctx context.Context, id string, name, description, source *string) (script.Script, error) {
	sc, err := s.store.GetScript(ctx, id)
	if err != nil {
		return script.Script{}, err
	}
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return script.Script{}, fmt.Errorf("name cannot be empty")
		}
		sc.Name = trimmed
	}
	if description != nil {
		sc.Description = *description
	}
	if source != nil {
		if strings.TrimSpace(*source) == "" {
			return script.Script{}, fmt.Errorf("source cannot be empty")
		}
		sc.Source = *source
	}
	return s.store.UpdateScript(ctx, sc)
}

// Delete removes a script and its execution history.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.DeleteScript(ctx, id)
}

// Execute runs a script against a payload and records the outcome.
func (s *Service) Execute(ctx context.Context, id string, payload map[string]any) (script.Execution, error) {
	if s.executor == nil {
		return script.Execution{}, fmt.Errorf("no script executor configured")
	}
	sc, err := s.store.GetScript(ctx, id)
	if err != nil {
		return script.Execution{}, err
	}

	started := time.Now().UTC()
	result, logs, runErr := s.executor.Execute(ctx, sc.Source, payload)

	ex := script.Execution{
		ScriptID:  id,
		Result:    result,
		Logs:      logs,
		Duration:  time.Since(started),
		StartedAt: started,
	}
	switch {
	case runErr == nil:
		ex.Status = script.StatusSucceeded
	case IsTimeout(runErr):
		ex.Status = script.StatusTimeout
		ex.Error = runErr.Error()
	default:
		ex.Status = script.StatusFailed
		ex.Error = runErr.Error()
	}

	recorded, err := s.store.RecordExecution(ctx, ex)
	if err != nil {
		s.log.WithError(err).WithField("script_id", id).Warn("record script execution")
		recorded = ex
	}
	metrics.RecordScriptExecution(ex.Status, ex.Duration)

	s.log.WithField("script_id", id).
		WithField("status", recorded.Status).
		WithField("duration", recorded.Duration).
		Info("script executed")

	if runErr != nil {
		return recorded, runErr
	}
	return recorded, nil
}

// Executions lists a script's recent runs.
func (s *Service) Executions(ctx context.Context, id string, limit int) ([]script.Execution, error) {
	if _, err := s.store.GetScript(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListExecutions(ctx, id, limit)
}
