package storage

import (
	"context"
	"time"

	"github.com/veltasoft/worksuite/internal/app/domain/document"
	"github.com/veltasoft/worksuite/internal/app/domain/employee"
	"github.com/veltasoft/worksuite/internal/app/domain/folder"
	"github.com/veltasoft/worksuite/internal/app/domain/presence"
	"github.com/veltasoft/worksuite/internal/app/domain/report"
	"github.com/veltasoft/worksuite/internal/app/domain/script"
	"github.com/veltasoft/worksuite/internal/app/domain/sheet"
	"github.com/veltasoft/worksuite/internal/app/domain/template"
	"github.com/veltasoft/worksuite/internal/app/domain/tenant"
)

// TenantStore persists tenant records.
type TenantStore interface {
	CreateTenant(ctx context.Context, t tenant.Tenant) (tenant.Tenant, error)
	UpdateTenant(ctx context.Context, t tenant.Tenant) (tenant.Tenant, error)
	GetTenant(ctx context.Context, id string) (tenant.Tenant, error)
	ListTenants(ctx context.Context) ([]tenant.Tenant, error)
	DeleteTenant(ctx context.Context, id string) error
}

// DocumentStore persists documents and their version history.
type DocumentStore interface {
	CreateDocument(ctx context.Context, doc document.Document) (document.Document, error)
	UpdateDocument(ctx context.Context, doc document.Document) (document.Document, error)
	GetDocument(ctx context.Context, id string) (document.Document, error)
	ListDocuments(ctx context.Context, tenantID string, includeTrashed bool) ([]document.Document, error)
	ListDocumentsByFolder(ctx context.Context, folderID string) ([]document.Document, error)
	DeleteDocument(ctx context.Context, id string) error

	CreateVersion(ctx context.Context, v document.Version) (document.Version, error)
	GetVersion(ctx context.Context, documentID string, number int) (document.Version, error)
	ListVersions(ctx context.Context, documentID string) ([]document.Version, error)

	ListTrashedBefore(ctx context.Context, cutoff time.Time) ([]document.Document, error)
}

// FolderStore persists the folder tree.
type FolderStore interface {
	CreateFolder(ctx context.Context, f folder.Folder) (folder.Folder, error)
	UpdateFolder(ctx context.Context, f folder.Folder) (folder.Folder, error)
	GetFolder(ctx context.Context, id string) (folder.Folder, error)
	ListFolders(ctx context.Context, tenantID string, parentID string) ([]folder.Folder, error)
	DeleteFolder(ctx context.Context, id string) error
}

// TemplateStore persists document templates.
type TemplateStore interface {
	CreateTemplate(ctx context.Context, t template.Template) (template.Template, error)
	UpdateTemplate(ctx context.Context, t template.Template) (template.Template, error)
	GetTemplate(ctx context.Context, id string) (template.Template, error)
	ListTemplates(ctx context.Context, tenantID string) ([]template.Template, error)
	DeleteTemplate(ctx context.Context, id string) error
}

// SheetStore persists spreadsheets and their cells.
type SheetStore interface {
	CreateSheet(ctx context.Context, s sheet.Sheet) (sheet.Sheet, error)
	GetSheet(ctx context.Context, id string) (sheet.Sheet, error)
	ListSheets(ctx context.Context, tenantID string) ([]sheet.Sheet, error)
	DeleteSheet(ctx context.Context, id string) error

	PutCells(ctx context.Context, sheetID string, cells []sheet.Cell) error
	GetCells(ctx context.Context, sheetID string) ([]sheet.Cell, error)
}

// EmployeeStore persists HR records.
type EmployeeStore interface {
	CreateEmployee(ctx context.Context, e employee.Employee) (employee.Employee, error)
	UpdateEmployee(ctx context.Context, e employee.Employee) (employee.Employee, error)
	GetEmployee(ctx context.Context, id string) (employee.Employee, error)
	ListEmployees(ctx context.Context, tenantID string) ([]employee.Employee, error)

	CreateLeaveRequest(ctx context.Context, lr employee.LeaveRequest) (employee.LeaveRequest, error)
	UpdateLeaveRequest(ctx context.Context, lr employee.LeaveRequest) (employee.LeaveRequest, error)
	GetLeaveRequest(ctx context.Context, id string) (employee.LeaveRequest, error)
	ListLeaveRequests(ctx context.Context, employeeID string) ([]employee.LeaveRequest, error)

	CreateReview(ctx context.Context, r employee.Review) (employee.Review, error)
	GetReview(ctx context.Context, id string) (employee.Review, error)
	ListReviews(ctx context.Context, employeeID string) ([]employee.Review, error)

	// MarkAccrual records that accrual ran for a tenant and month
	// (YYYY-MM). It returns false when the month was already marked.
	MarkAccrual(ctx context.Context, tenantID, month string) (bool, error)
}

// ScriptStore persists scripts and a bounded execution history.
type ScriptStore interface {
	CreateScript(ctx context.Context, s script.Script) (script.Script, error)
	UpdateScript(ctx context.Context, s script.Script) (script.Script, error)
	GetScript(ctx context.Context, id string) (script.Script, error)
	ListScripts(ctx context.Context, tenantID string) ([]script.Script, error)
	DeleteScript(ctx context.Context, id string) error

	RecordExecution(ctx context.Context, ex script.Execution) (script.Execution, error)
	ListExecutions(ctx context.Context, scriptID string, limit int) ([]script.Execution, error)
}

// ReportStore persists report definitions and runs.
type ReportStore interface {
	CreateReport(ctx context.Context, def report.Definition) (report.Definition, error)
	UpdateReport(ctx context.Context, def report.Definition) (report.Definition, error)
	GetReport(ctx context.Context, id string) (report.Definition, error)
	ListReports(ctx context.Context, tenantID string) ([]report.Definition, error)
	ListScheduledReports(ctx context.Context) ([]report.Definition, error)
	DeleteReport(ctx context.Context, id string) error

	RecordRun(ctx context.Context, run report.Run) (report.Run, error)
	ListRuns(ctx context.Context, reportID string, limit int) ([]report.Run, error)
}

// PresenceStore tracks who is active on which resource. Implementations
// expire entries on their own after the heartbeat TTL.
type PresenceStore interface {
	Heartbeat(ctx context.Context, e presence.Entry, ttl time.Duration) error
	ListActive(ctx context.Context, tenantID, resource string) ([]presence.Entry, error)
	Leave(ctx context.Context, tenantID, userID, resource string) error
}
