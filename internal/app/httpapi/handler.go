// Package httpapi exposes the application services as a REST API.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	app "github.com/veltasoft/worksuite/internal/app"
	"github.com/veltasoft/worksuite/internal/app/services/analytics"
	"github.com/veltasoft/worksuite/internal/app/services/collab"
	"github.com/veltasoft/worksuite/internal/app/services/documents"
	"github.com/veltasoft/worksuite/internal/app/services/folders"
	"github.com/veltasoft/worksuite/internal/app/services/hr"
	"github.com/veltasoft/worksuite/internal/app/storage"
	"github.com/veltasoft/worksuite/internal/middleware"
	"github.com/veltasoft/worksuite/internal/platform/health"
	"github.com/veltasoft/worksuite/pkg/logger"
)

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app   *app.Application
	hub   *collab.Hub
	audit *auditLog
	log   *logger.Logger
}

// Options tune the handler.
type Options struct {
	// AuditFile receives audit entries as JSONL when set.
	AuditFile string
	// AuditSize caps the in-memory audit ring.
	AuditSize int
	// Modules toggles optional feature areas. Nil enables everything.
	Modules *Modules
}

// Modules selects which optional route groups are mounted.
type Modules struct {
	Collab    bool
	Sheets    bool
	HR        bool
	Scripts   bool
	Analytics bool
	Reports   bool
}

func allModules() *Modules {
	return &Modules{Collab: true, Sheets: true, HR: true, Scripts: true, Analytics: true, Reports: true}
}

// NewHandler returns a router exposing the REST API.
func NewHandler(application *app.Application, log *logger.Logger, opts Options) (http.Handler, error) {
	if log == nil {
		log = logger.NewDefault("httpapi")
	}
	sink, err := newFileAuditSink(opts.AuditFile)
	if err != nil {
		return nil, err
	}
	modules := opts.Modules
	if modules == nil {
		modules = allModules()
	}

	h := &handler{
		app:   application,
		hub:   collab.NewHub(application.Collab, log),
		audit: newAuditLog(opts.AuditSize, sink),
		log:   log,
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.healthz).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(h.auditMiddleware)

	// Tenant administration.
	api.HandleFunc("/tenants", h.createTenant).Methods(http.MethodPost)
	api.HandleFunc("/tenants", h.listTenants).Methods(http.MethodGet)
	api.HandleFunc("/tenants/{id}", h.getTenant).Methods(http.MethodGet)
	api.HandleFunc("/tenants/{id}", h.updateTenant).Methods(http.MethodPut)
	api.HandleFunc("/tenants/{id}", h.deleteTenant).Methods(http.MethodDelete)

	// Folders.
	api.HandleFunc("/folders", h.createFolder).Methods(http.MethodPost)
	api.HandleFunc("/folders", h.listFolders).Methods(http.MethodGet)
	api.HandleFunc("/folders/{id}", h.getFolder).Methods(http.MethodGet)
	api.HandleFunc("/folders/{id}", h.renameFolder).Methods(http.MethodPut)
	api.HandleFunc("/folders/{id}", h.deleteFolder).Methods(http.MethodDelete)
	api.HandleFunc("/folders/{id}/path", h.folderPath).Methods(http.MethodGet)
	api.HandleFunc("/folders/{id}/move", h.moveFolder).Methods(http.MethodPost)

	// Documents.
	api.HandleFunc("/documents", h.createDocument).Methods(http.MethodPost)
	api.HandleFunc("/documents", h.listDocuments).Methods(http.MethodGet)
	api.HandleFunc("/documents/trash", h.listTrash).Methods(http.MethodGet)
	api.HandleFunc("/documents/{id}", h.getDocument).Methods(http.MethodGet)
	api.HandleFunc("/documents/{id}", h.updateDocument).Methods(http.MethodPut)
	api.HandleFunc("/documents/{id}", h.purgeDocument).Methods(http.MethodDelete)
	api.HandleFunc("/documents/{id}/content", h.saveContent).Methods(http.MethodPut)
	api.HandleFunc("/documents/{id}/versions", h.listVersions).Methods(http.MethodGet)
	api.HandleFunc("/documents/{id}/versions/{number:[0-9]+}", h.getVersion).Methods(http.MethodGet)
	api.HandleFunc("/documents/{id}/versions/{number:[0-9]+}/restore", h.restoreVersion).Methods(http.MethodPost)
	api.HandleFunc("/documents/{id}/trash", h.trashDocument).Methods(http.MethodPost)
	api.HandleFunc("/documents/{id}/restore", h.restoreDocument).Methods(http.MethodPost)

	// Templates.
	api.HandleFunc("/templates", h.createTemplate).Methods(http.MethodPost)
	api.HandleFunc("/templates", h.listTemplates).Methods(http.MethodGet)
	api.HandleFunc("/templates/{id}", h.getTemplate).Methods(http.MethodGet)
	api.HandleFunc("/templates/{id}", h.updateTemplate).Methods(http.MethodPut)
	api.HandleFunc("/templates/{id}", h.deleteTemplate).Methods(http.MethodDelete)
	api.HandleFunc("/templates/{id}/placeholders", h.templatePlaceholders).Methods(http.MethodGet)
	api.HandleFunc("/templates/{id}/instantiate", h.instantiateTemplate).Methods(http.MethodPost)

	// Collaborative editing.
	if modules.Collab {
		api.HandleFunc("/documents/{id}/collab", h.collabSocket).Methods(http.MethodGet)
		api.HandleFunc("/documents/{id}/participants", h.collabParticipants).Methods(http.MethodGet)
	}

	// Spreadsheets.
	if modules.Sheets {
		api.HandleFunc("/sheets", h.createSheet).Methods(http.MethodPost)
		api.HandleFunc("/sheets", h.listSheets).Methods(http.MethodGet)
		api.HandleFunc("/sheets/{id}", h.getSheet).Methods(http.MethodGet)
		api.HandleFunc("/sheets/{id}", h.deleteSheet).Methods(http.MethodDelete)
		api.HandleFunc("/sheets/{id}/cells", h.listCells).Methods(http.MethodGet)
		api.HandleFunc("/sheets/{id}/cells/{ref}", h.getCell).Methods(http.MethodGet)
		api.HandleFunc("/sheets/{id}/cells/{ref}", h.setCell).Methods(http.MethodPut)
		api.HandleFunc("/sheets/{id}/range", h.cellRange).Methods(http.MethodGet)
	}

	// HR.
	if modules.HR {
		api.HandleFunc("/hr/employees", h.createEmployee).Methods(http.MethodPost)
		api.HandleFunc("/hr/employees", h.listEmployees).Methods(http.MethodGet)
		api.HandleFunc("/hr/employees/{id}", h.getEmployee).Methods(http.MethodGet)
		api.HandleFunc("/hr/employees/{id}", h.updateEmployee).Methods(http.MethodPut)
		api.HandleFunc("/hr/employees/{id}/leave", h.listLeave).Methods(http.MethodGet)
		api.HandleFunc("/hr/employees/{id}/reviews", h.createReview).Methods(http.MethodPost)
		api.HandleFunc("/hr/employees/{id}/reviews", h.listReviews).Methods(http.MethodGet)
		api.HandleFunc("/hr/leave", h.requestLeave).Methods(http.MethodPost)
		api.HandleFunc("/hr/leave/{id}/decide", h.decideLeave).Methods(http.MethodPost)
		api.HandleFunc("/hr/accruals", h.runAccrual).Methods(http.MethodPost)
	}

	// Scripts.
	if modules.Scripts {
		api.HandleFunc("/scripts", h.createScript).Methods(http.MethodPost)
		api.HandleFunc("/scripts", h.listScripts).Methods(http.MethodGet)
		api.HandleFunc("/scripts/{id}", h.getScript).Methods(http.MethodGet)
		api.HandleFunc("/scripts/{id}", h.updateScript).Methods(http.MethodPut)
		api.HandleFunc("/scripts/{id}", h.deleteScript).Methods(http.MethodDelete)
		api.HandleFunc("/scripts/{id}/execute", h.executeScript).Methods(http.MethodPost)
		api.HandleFunc("/scripts/{id}/executions", h.listExecutions).Methods(http.MethodGet)
	}

	// Analytics.
	if modules.Analytics {
		api.HandleFunc("/analytics/anomalies", h.detectAnomalies).Methods(http.MethodPost)
		api.HandleFunc("/analytics/forecast", h.forecast).Methods(http.MethodPost)
		api.HandleFunc("/analytics/sentiment", h.sentiment).Methods(http.MethodPost)
	}

	// Reports.
	if modules.Reports {
		api.HandleFunc("/reports", h.createReport).Methods(http.MethodPost)
		api.HandleFunc("/reports", h.listReports).Methods(http.MethodGet)
		api.HandleFunc("/reports/{id}", h.getReport).Methods(http.MethodGet)
		api.HandleFunc("/reports/{id}", h.updateReport).Methods(http.MethodPut)
		api.HandleFunc("/reports/{id}", h.deleteReport).Methods(http.MethodDelete)
		api.HandleFunc("/reports/{id}/run", h.runReport).Methods(http.MethodPost)
		api.HandleFunc("/reports/{id}/runs", h.listRuns).Methods(http.MethodGet)
	}

	// Presence.
	api.HandleFunc("/presence/heartbeat", h.presenceHeartbeat).Methods(http.MethodPost)
	api.HandleFunc("/presence", h.presenceActive).Methods(http.MethodGet)
	api.HandleFunc("/presence/leave", h.presenceLeave).Methods(http.MethodPost)

	// Audit trail.
	api.HandleFunc("/audit", h.listAudit).Methods(http.MethodGet)

	return r, nil
}

func (h *handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, health.Collect(r.Context()))
}

// tenantID returns the caller's tenant scope.
func tenantID(r *http.Request) string {
	return middleware.GetTenantID(r.Context())
}

func userID(r *http.Request) string {
	return middleware.GetUserID(r.Context())
}

// requireAdmin rejects callers without the admin role. Returns false after
// writing the response.
func (h *handler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	if middleware.GetRole(r.Context()) != "admin" {
		writeError(w, http.StatusForbidden, errors.New("admin role required"))
		return false
	}
	return true
}

// scoped verifies the resource belongs to the caller's tenant. Returns
// false after writing the response.
func (h *handler) scoped(w http.ResponseWriter, r *http.Request, resourceTenant string) bool {
	if resourceTenant != tenantID(r) {
		writeError(w, http.StatusForbidden, errors.New("resource belongs to another tenant"))
		return false
	}
	return true
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, documents.ErrTrashed),
		errors.Is(err, folders.ErrNotEmpty),
		errors.Is(err, hr.ErrInsufficientBalance),
		errors.Is(err, hr.ErrOverlappingLeave),
		errors.Is(err, hr.ErrAlreadyDecided):
		return http.StatusConflict
	case errors.Is(err, analytics.ErrInsufficientData):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
