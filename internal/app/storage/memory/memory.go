package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
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
	"github.com/veltasoft/worksuite/internal/app/storage"
)

// Store is an in-memory implementation of the storage interfaces. It is safe
// for concurrent use and is primarily intended for tests and local
// development.
type Store struct {
	mu     sync.RWMutex
	nextID int64

	tenants       map[string]tenant.Tenant
	documents     map[string]document.Document
	versions      map[string][]document.Version
	folders       map[string]folder.Folder
	templates     map[string]template.Template
	sheets        map[string]sheet.Sheet
	cells         map[string]map[string]sheet.Cell
	employees     map[string]employee.Employee
	leaveRequests map[string]employee.LeaveRequest
	reviews       map[string]employee.Review
	accruals      map[string]bool
	scripts       map[string]script.Script
	executions    map[string][]script.Execution
	reports       map[string]report.Definition
	runs          map[string][]report.Run
	presences     map[string]presence.Entry
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

// New creates an empty store.
func New() *Store {
	return &Store{
		nextID:        1,
		tenants:       make(map[string]tenant.Tenant),
		documents:     make(map[string]document.Document),
		versions:      make(map[string][]document.Version),
		folders:       make(map[string]folder.Folder),
		templates:     make(map[string]template.Template),
		sheets:        make(map[string]sheet.Sheet),
		cells:         make(map[string]map[string]sheet.Cell),
		employees:     make(map[string]employee.Employee),
		leaveRequests: make(map[string]employee.LeaveRequest),
		reviews:       make(map[string]employee.Review),
		accruals:      make(map[string]bool),
		scripts:       make(map[string]script.Script),
		executions:    make(map[string][]script.Execution),
		reports:       make(map[string]report.Definition),
		runs:          make(map[string][]report.Run),
		presences:     make(map[string]presence.Entry),
	}
}

func (s *Store) nextIDLocked() string {
	id := s.nextID
	s.nextID++
	return fmt.Sprintf("%d", id)
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, storage.ErrNotFound)
}

// TenantStore implementation -------------------------------------------------

func (s *Store) CreateTenant(_ context.Context, t tenant.Tenant) (tenant.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == "" {
		t.ID = s.nextIDLocked()
	} else if _, exists := s.tenants[t.ID]; exists {
		return tenant.Tenant{}, fmt.Errorf("tenant %s already exists", t.ID)
	}

	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	t.Metadata = cloneMap(t.Metadata)

	s.tenants[t.ID] = t
	return t, nil
}

func (s *Store) UpdateTenant(_ context.Context, t tenant.Tenant) (tenant.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.tenants[t.ID]
	if !ok {
		return tenant.Tenant{}, notFound("tenant", t.ID)
	}

	t.CreatedAt = original.CreatedAt
	t.UpdatedAt = time.Now().UTC()
	t.Metadata = cloneMap(t.Metadata)

	s.tenants[t.ID] = t
	return t, nil
}

func (s *Store) GetTenant(_ context.Context, id string) (tenant.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tenants[id]
	if !ok {
		return tenant.Tenant{}, notFound("tenant", id)
	}
	t.Metadata = cloneMap(t.Metadata)
	return t, nil
}

func (s *Store) ListTenants(_ context.Context) ([]tenant.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]tenant.Tenant, 0, len(s.tenants))
	for _, t := range s.tenants {
		t.Metadata = cloneMap(t.Metadata)
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) DeleteTenant(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tenants[id]; !ok {
		return notFound("tenant", id)
	}
	delete(s.tenants, id)
	return nil
}

// DocumentStore implementation -----------------------------------------------

func (s *Store) CreateDocument(_ context.Context, doc document.Document) (document.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if doc.ID == "" {
		doc.ID = s.nextIDLocked()
	} else if _, exists := s.documents[doc.ID]; exists {
		return document.Document{}, fmt.Errorf("document %s already exists", doc.ID)
	}

	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	s.documents[doc.ID] = doc
	return doc, nil
}

func (s *Store) UpdateDocument(_ context.Context, doc document.Document) (document.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.documents[doc.ID]
	if !ok {
		return document.Document{}, notFound("document", doc.ID)
	}

	doc.CreatedAt = original.CreatedAt
	doc.UpdatedAt = time.Now().UTC()

	s.documents[doc.ID] = doc
	return doc, nil
}

func (s *Store) GetDocument(_ context.Context, id string) (document.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[id]
	if !ok {
		return document.Document{}, notFound("document", id)
	}
	return doc, nil
}

func (s *Store) ListDocuments(_ context.Context, tenantID string, includeTrashed bool) ([]document.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []document.Document
	for _, doc := range s.documents {
		if doc.TenantID != tenantID {
			continue
		}
		if doc.Trashed && !includeTrashed {
			continue
		}
		out = append(out, doc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ListDocumentsByFolder(_ context.Context, folderID string) ([]document.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []document.Document
	for _, doc := range s.documents {
		if doc.FolderID == folderID && !doc.Trashed {
			out = append(out, doc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[id]; !ok {
		return notFound("document", id)
	}
	delete(s.documents, id)
	delete(s.versions, id)
	return nil
}

func (s *Store) CreateVersion(_ context.Context, v document.Version) (document.Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v.ID == "" {
		v.ID = s.nextIDLocked()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	s.versions[v.DocumentID] = append(s.versions[v.DocumentID], v)
	return v, nil
}

func (s *Store) GetVersion(_ context.Context, documentID string, number int) (document.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, v := range s.versions[documentID] {
		if v.Number == number {
			return v, nil
		}
	}
	return document.Version{}, notFound("version", fmt.Sprintf("%s#%d", documentID, number))
}

func (s *Store) ListVersions(_ context.Context, documentID string) ([]document.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]document.Version, len(s.versions[documentID]))
	copy(out, s.versions[documentID])
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (s *Store) ListTrashedBefore(_ context.Context, cutoff time.Time) ([]document.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []document.Document
	for _, doc := range s.documents {
		if doc.Trashed && doc.TrashedAt.Before(cutoff) {
			out = append(out, doc)
		}
	}
	return out, nil
}

// FolderStore implementation -------------------------------------------------

func (s *Store) CreateFolder(_ context.Context, f folder.Folder) (folder.Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if f.ID == "" {
		f.ID = s.nextIDLocked()
	} else if _, exists := s.folders[f.ID]; exists {
		return folder.Folder{}, fmt.Errorf("folder %s already exists", f.ID)
	}

	now := time.Now().UTC()
	f.CreatedAt = now
	f.UpdatedAt = now

	s.folders[f.ID] = f
	return f, nil
}

func (s *Store) UpdateFolder(_ context.Context, f folder.Folder) (folder.Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.folders[f.ID]
	if !ok {
		return folder.Folder{}, notFound("folder", f.ID)
	}

	f.CreatedAt = original.CreatedAt
	f.UpdatedAt = time.Now().UTC()

	s.folders[f.ID] = f
	return f, nil
}

func (s *Store) GetFolder(_ context.Context, id string) (folder.Folder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.folders[id]
	if !ok {
		return folder.Folder{}, notFound("folder", id)
	}
	return f, nil
}

func (s *Store) ListFolders(_ context.Context, tenantID string, parentID string) ([]folder.Folder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []folder.Folder
	for _, f := range s.folders {
		if f.TenantID == tenantID && f.ParentID == parentID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) DeleteFolder(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.folders[id]; !ok {
		return notFound("folder", id)
	}
	delete(s.folders, id)
	return nil
}

// TemplateStore implementation -----------------------------------------------

func (s *Store) CreateTemplate(_ context.Context, t template.Template) (template.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == "" {
		t.ID = s.nextIDLocked()
	} else if _, exists := s.templates[t.ID]; exists {
		return template.Template{}, fmt.Errorf("template %s already exists", t.ID)
	}

	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	s.templates[t.ID] = t
	return t, nil
}

func (s *Store) UpdateTemplate(_ context.Context, t template.Template) (template.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.templates[t.ID]
	if !ok {
		return template.Template{}, notFound("template", t.ID)
	}

	t.CreatedAt = original.CreatedAt
	t.UpdatedAt = time.Now().UTC()

	s.templates[t.ID] = t
	return t, nil
}

func (s *Store) GetTemplate(_ context.Context, id string) (template.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.templates[id]
	if !ok {
		return template.Template{}, notFound("template", id)
	}
	return t, nil
}

func (s *Store) ListTemplates(_ context.Context, tenantID string) ([]template.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []template.Template
	for _, t := range s.templates {
		if t.TenantID == tenantID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) DeleteTemplate(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.templates[id]; !ok {
		return notFound("template", id)
	}
	delete(s.templates, id)
	return nil
}

// SheetStore implementation --------------------------------------------------

func (s *Store) CreateSheet(_ context.Context, sh sheet.Sheet) (sheet.Sheet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sh.ID == "" {
		sh.ID = s.nextIDLocked()
	} else if _, exists := s.sheets[sh.ID]; exists {
		return sheet.Sheet{}, fmt.Errorf("sheet %s already exists", sh.ID)
	}

	now := time.Now().UTC()
	sh.CreatedAt = now
	sh.UpdatedAt = now

	s.sheets[sh.ID] = sh
	s.cells[sh.ID] = make(map[string]sheet.Cell)
	return sh, nil
}

func (s *Store) GetSheet(_ context.Context, id string) (sheet.Sheet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sh, ok := s.sheets[id]
	if !ok {
		return sheet.Sheet{}, notFound("sheet", id)
	}
	return sh, nil
}

func (s *Store) ListSheets(_ context.Context, tenantID string) ([]sheet.Sheet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []sheet.Sheet
	for _, sh := range s.sheets {
		if sh.TenantID == tenantID {
			out = append(out, sh)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) DeleteSheet(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sheets[id]; !ok {
		return notFound("sheet", id)
	}
	delete(s.sheets, id)
	delete(s.cells, id)
	return nil
}

func (s *Store) PutCells(_ context.Context, sheetID string, cells []sheet.Cell) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sh, ok := s.sheets[sheetID]
	if !ok {
		return notFound("sheet", sheetID)
	}
	grid := s.cells[sheetID]
	if grid == nil {
		grid = make(map[string]sheet.Cell)
		s.cells[sheetID] = grid
	}
	for _, c := range cells {
		if c.Input == "" && c.Value == "" && c.Err == "" {
			delete(grid, c.Ref)
			continue
		}
		grid[c.Ref] = c
	}
	sh.UpdatedAt = time.Now().UTC()
	s.sheets[sheetID] = sh
	return nil
}

func (s *Store) GetCells(_ context.Context, sheetID string) ([]sheet.Cell, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.sheets[sheetID]; !ok {
		return nil, notFound("sheet", sheetID)
	}
	grid := s.cells[sheetID]
	out := make([]sheet.Cell, 0, len(grid))
	for _, c := range grid {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ref < out[j].Ref })
	return out, nil
}

// EmployeeStore implementation -----------------------------------------------

func (s *Store) CreateEmployee(_ context.Context, e employee.Employee) (employee.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		e.ID = s.nextIDLocked()
	} else if _, exists := s.employees[e.ID]; exists {
		return employee.Employee{}, fmt.Errorf("employee %s already exists", e.ID)
	}

	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now

	s.employees[e.ID] = e
	return e, nil
}

func (s *Store) UpdateEmployee(_ context.Context, e employee.Employee) (employee.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.employees[e.ID]
	if !ok {
		return employee.Employee{}, notFound("employee", e.ID)
	}

	e.CreatedAt = original.CreatedAt
	e.UpdatedAt = time.Now().UTC()

	s.employees[e.ID] = e
	return e, nil
}

func (s *Store) GetEmployee(_ context.Context, id string) (employee.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.employees[id]
	if !ok {
		return employee.Employee{}, notFound("employee", id)
	}
	return e, nil
}

func (s *Store) ListEmployees(_ context.Context, tenantID string) ([]employee.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []employee.Employee
	for _, e := range s.employees {
		if e.TenantID == tenantID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastName < out[j].LastName })
	return out, nil
}

func (s *Store) CreateLeaveRequest(_ context.Context, lr employee.LeaveRequest) (employee.LeaveRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if lr.ID == "" {
		lr.ID = s.nextIDLocked()
	}
	if lr.CreatedAt.IsZero() {
		lr.CreatedAt = time.Now().UTC()
	}
	s.leaveRequests[lr.ID] = lr
	return lr, nil
}

func (s *Store) UpdateLeaveRequest(_ context.Context, lr employee.LeaveRequest) (employee.LeaveRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.leaveRequests[lr.ID]
	if !ok {
		return employee.LeaveRequest{}, notFound("leave request", lr.ID)
	}
	lr.CreatedAt = original.CreatedAt
	s.leaveRequests[lr.ID] = lr
	return lr, nil
}

func (s *Store) GetLeaveRequest(_ context.Context, id string) (employee.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lr, ok := s.leaveRequests[id]
	if !ok {
		return employee.LeaveRequest{}, notFound("leave request", id)
	}
	return lr, nil
}

func (s *Store) ListLeaveRequests(_ context.Context, employeeID string) ([]employee.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []employee.LeaveRequest
	for _, lr := range s.leaveRequests {
		if lr.EmployeeID == employeeID {
			out = append(out, lr)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) CreateReview(_ context.Context, r employee.Review) (employee.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == "" {
		r.ID = s.nextIDLocked()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	r.Scores = cloneScores(r.Scores)
	s.reviews[r.ID] = r
	return r, nil
}

func (s *Store) GetReview(_ context.Context, id string) (employee.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reviews[id]
	if !ok {
		return employee.Review{}, notFound("review", id)
	}
	r.Scores = cloneScores(r.Scores)
	return r, nil
}

func (s *Store) ListReviews(_ context.Context, employeeID string) ([]employee.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []employee.Review
	for _, r := range s.reviews {
		if r.EmployeeID == employeeID {
			r.Scores = cloneScores(r.Scores)
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) MarkAccrual(_ context.Context, tenantID, month string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := tenantID + "|" + month
	if s.accruals[key] {
		return false, nil
	}
	s.accruals[key] = true
	return true, nil
}

// ScriptStore implementation -------------------------------------------------

func (s *Store) CreateScript(_ context.Context, sc script.Script) (script.Script, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sc.ID == "" {
		sc.ID = s.nextIDLocked()
	} else if _, exists := s.scripts[sc.ID]; exists {
		return script.Script{}, fmt.Errorf("script %s already exists", sc.ID)
	}

	now := time.Now().UTC()
	sc.CreatedAt = now
	sc.UpdatedAt = now

	s.scripts[sc.ID] = sc
	return sc, nil
}

func (s *Store) UpdateScript(_ context.Context, sc script.Script) (script.Script, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.scripts[sc.ID]
	if !ok {
		return script.Script{}, notFound("script", sc.ID)
	}

	sc.CreatedAt = original.CreatedAt
	sc.UpdatedAt = time.Now().UTC()

	s.scripts[sc.ID] = sc
	return sc, nil
}

func (s *Store) GetScript(_ context.Context, id string) (script.Script, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sc, ok := s.scripts[id]
	if !ok {
		return script.Script{}, notFound("script", id)
	}
	return sc, nil
}

func (s *Store) ListScripts(_ context.Context, tenantID string) ([]script.Script, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []script.Script
	for _, sc := range s.scripts {
		if sc.TenantID == tenantID {
			out = append(out, sc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) DeleteScript(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.scripts[id]; !ok {
		return notFound("script", id)
	}
	delete(s.scripts, id)
	delete(s.executions, id)
	return nil
}

const maxExecutionsPerScript = 50

func (s *Store) RecordExecution(_ context.Context, ex script.Execution) (script.Execution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ex.ID == "" {
		ex.ID = s.nextIDLocked()
	}
	history := append(s.executions[ex.ScriptID], ex)
	if len(history) > maxExecutionsPerScript {
		history = history[len(history)-maxExecutionsPerScript:]
	}
	s.executions[ex.ScriptID] = history
	return ex, nil
}

func (s *Store) ListExecutions(_ context.Context, scriptID string, limit int) ([]script.Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.executions[scriptID]
	if limit <= 0 || limit > len(history) {
		limit = len(history)
	}
	out := make([]script.Execution, limit)
	copy(out, history[len(history)-limit:])
	return out, nil
}

// ReportStore implementation -------------------------------------------------

func (s *Store) CreateReport(_ context.Context, def report.Definition) (report.Definition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if def.ID == "" {
		def.ID = s.nextIDLocked()
	} else if _, exists := s.reports[def.ID]; exists {
		return report.Definition{}, fmt.Errorf("report %s already exists", def.ID)
	}

	now := time.Now().UTC()
	def.CreatedAt = now
	def.UpdatedAt = now

	s.reports[def.ID] = def
	return def, nil
}

func (s *Store) UpdateReport(_ context.Context, def report.Definition) (report.Definition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.reports[def.ID]
	if !ok {
		return report.Definition{}, notFound("report", def.ID)
	}

	def.CreatedAt = original.CreatedAt
	def.UpdatedAt = time.Now().UTC()

	s.reports[def.ID] = def
	return def, nil
}

func (s *Store) GetReport(_ context.Context, id string) (report.Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	def, ok := s.reports[id]
	if !ok {
		return report.Definition{}, notFound("report", id)
	}
	return def, nil
}

func (s *Store) ListReports(_ context.Context, tenantID string) ([]report.Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []report.Definition
	for _, def := range s.reports {
		if def.TenantID == tenantID {
			out = append(out, def)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) ListScheduledReports(_ context.Context) ([]report.Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []report.Definition
	for _, def := range s.reports {
		if def.Enabled && strings.TrimSpace(def.Schedule) != "" {
			out = append(out, def)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) DeleteReport(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reports[id]; !ok {
		return notFound("report", id)
	}
	delete(s.reports, id)
	delete(s.runs, id)
	return nil
}

const maxRunsPerReport = 50

func (s *Store) RecordRun(_ context.Context, run report.Run) (report.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == "" {
		run.ID = s.nextIDLocked()
	}
	history := append(s.runs[run.ReportID], run)
	if len(history) > maxRunsPerReport {
		history = history[len(history)-maxRunsPerReport:]
	}
	s.runs[run.ReportID] = history
	return run, nil
}

func (s *Store) ListRuns(_ context.Context, reportID string, limit int) ([]report.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.runs[reportID]
	if limit <= 0 || limit > len(history) {
		limit = len(history)
	}
	out := make([]report.Run, limit)
	copy(out, history[len(history)-limit:])
	return out, nil
}

// PresenceStore implementation -----------------------------------------------

func presenceKey(tenantID, userID, resource string) string {
	return tenantID + "|" + resource + "|" + userID
}

func (s *Store) Heartbeat(_ context.Context, e presence.Entry, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	e.SeenAt = now
	e.ExpiresAt = now.Add(ttl)
	s.presences[presenceKey(e.TenantID, e.UserID, e.Resource)] = e
	return nil
}

func (s *Store) ListActive(_ context.Context, tenantID, resource string) ([]presence.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	var out []presence.Entry
	for key, e := range s.presences {
		if e.ExpiresAt.Before(now) {
			delete(s.presences, key)
			continue
		}
		if e.TenantID != tenantID {
			continue
		}
		if resource != "" && e.Resource != resource {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (s *Store) Leave(_ context.Context, tenantID, userID, resource string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.presences, presenceKey(tenantID, userID, resource))
	return nil
}

// helpers ---------------------------------------------------------------------

func cloneMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneScores(in map[string]int) map[string]int {
	if in == nil {
		return nil
	}
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
