package app

import (
	"context"
	"fmt"
	"time"

	"github.com/veltasoft/worksuite/internal/app/services/analytics"
	"github.com/veltasoft/worksuite/internal/app/services/collab"
	"github.com/veltasoft/worksuite/internal/app/services/documents"
	"github.com/veltasoft/worksuite/internal/app/services/folders"
	"github.com/veltasoft/worksuite/internal/app/services/hr"
	presencesvc "github.com/veltasoft/worksuite/internal/app/services/presence"
	"github.com/veltasoft/worksuite/internal/app/services/reports"
	"github.com/veltasoft/worksuite/internal/app/services/scripts"
	"github.com/veltasoft/worksuite/internal/app/services/sheets"
	"github.com/veltasoft/worksuite/internal/app/services/templates"
	"github.com/veltasoft/worksuite/internal/app/services/tenants"
	"github.com/veltasoft/worksuite/internal/app/storage"
	"github.com/veltasoft/worksuite/internal/app/storage/memory"
	"github.com/veltasoft/worksuite/internal/app/system"
	"github.com/veltasoft/worksuite/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Tenants   storage.TenantStore
	Documents storage.DocumentStore
	Folders   storage.FolderStore
	Templates storage.TemplateStore
	Sheets    storage.SheetStore
	Employees storage.EmployeeStore
	Scripts   storage.ScriptStore
	Reports   storage.ReportStore
	Presence  storage.PresenceStore
}

// Options tune application behavior. Zero values fall back to defaults.
type Options struct {
	PresenceTTL    time.Duration
	TrashRetention time.Duration
	ScriptTimeout  time.Duration
}

// Application ties domain services together and manages their lifecycle.
type Application struct {
	manager *system.Manager
	log     *logger.Logger

	Tenants   *tenants.Service
	Documents *documents.Service
	Folders   *folders.Service
	Templates *templates.Service
	Collab    *collab.Service
	Sheets    *sheets.Service
	HR        *hr.Service
	Scripts   *scripts.Service
	Analytics *analytics.Service
	Presence  *presencesvc.Service
	Reports   *reports.Service
}

// New builds a fully initialised application with the provided stores.
func New(stores Stores, opts Options, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}

	mem := memory.New()
	if stores.Tenants == nil {
		stores.Tenants = mem
	}
	if stores.Documents == nil {
		stores.Documents = mem
	}
	if stores.Folders == nil {
		stores.Folders = mem
	}
	if stores.Templates == nil {
		stores.Templates = mem
	}
	if stores.Sheets == nil {
		stores.Sheets = mem
	}
	if stores.Employees == nil {
		stores.Employees = mem
	}
	if stores.Scripts == nil {
		stores.Scripts = mem
	}
	if stores.Reports == nil {
		stores.Reports = mem
	}
	if stores.Presence == nil {
		stores.Presence = mem
	}

	manager := system.NewManager()

	tenantService := tenants.New(stores.Tenants, log)
	documentService := documents.New(stores.Tenants, stores.Folders, stores.Documents, log)
	folderService := folders.New(stores.Tenants, stores.Documents, stores.Folders, log)
	templateService := templates.New(stores.Tenants, stores.Templates, documentService, log)
	collabService := collab.New(stores.Documents, log)
	sheetService := sheets.New(stores.Tenants, stores.Sheets, log)
	hrService := hr.New(stores.Tenants, stores.Employees, log)
	scriptService := scripts.New(stores.Tenants, stores.Scripts, log)
	scriptService.AttachExecutor(scripts.NewGojaExecutor(opts.ScriptTimeout))
	analyticsService := analytics.New(log)
	presenceService := presencesvc.New(stores.Presence, opts.PresenceTTL, log)
	reportService := reports.New(stores.Reports, stores.Documents, stores.Employees, stores.Scripts, log)

	background := []system.Service{
		documents.NewSweeper(documentService, opts.TrashRetention, 0, log),
		collab.NewReaper(collabService, 0, 0, log),
		reports.NewScheduler(reportService, stores.Reports, 0, log),
	}
	for _, svc := range background {
		if err := manager.Register(svc); err != nil {
			return nil, fmt.Errorf("register %s: %w", svc.Name(), err)
		}
	}

	return &Application{
		manager:   manager,
		log:       log,
		Tenants:   tenantService,
		Documents: documentService,
		Folders:   folderService,
		Templates: templateService,
		Collab:    collabService,
		Sheets:    sheetService,
		HR:        hrService,
		Scripts:   scriptService,
		Analytics: analyticsService,
		Presence:  presenceService,
		Reports:   reportService,
	}, nil
}

// Attach registers an additional lifecycle-managed service. Call before Start.
func (a *Application) Attach(service system.Service) error {
	return a.manager.Register(service)
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}
