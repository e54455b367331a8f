package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/veltasoft/worksuite/internal/app/domain/document"
	"github.com/veltasoft/worksuite/internal/app/domain/template"
	"github.com/veltasoft/worksuite/internal/app/services/templates"
)

var errVersionNotFound = errors.New("version not found")

// Tenants ---------------------------------------------------------------------

func (h *handler) createTenant(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	var payload struct {
		Name     string            `json:"name"`
		Plan     string            `json:"plan"`
		Metadata map[string]string `json:"metadata"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	created, err := h.app.Tenants.Create(r.Context(), payload.Name, payload.Plan, payload.Metadata)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *handler) listTenants(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	all, err := h.app.Tenants.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, all)
}

func (h *handler) getTenant(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id != tenantID(r) && !h.requireAdmin(w, r) {
		return
	}
	t, err := h.app.Tenants.Get(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *handler) updateTenant(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	var payload struct {
		Name     *string           `json:"name"`
		Plan     *string           `json:"plan"`
		Metadata map[string]string `json:"metadata"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	updated, err := h.app.Tenants.Update(r.Context(), mux.Vars(r)["id"], payload.Name, payload.Plan, payload.Metadata)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *handler) deleteTenant(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	if err := h.app.Tenants.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Folders ---------------------------------------------------------------------

func (h *handler) createFolder(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ParentID string `json:"parent_id"`
		Name     string `json:"name"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	created, err := h.app.Folders.Create(r.Context(), tenantID(r), payload.ParentID, payload.Name)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *handler) listFolders(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.Folders.List(r.Context(), tenantID(r), r.URL.Query().Get("parent_id"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handler) getFolder(w http.ResponseWriter, r *http.Request) {
	f, err := h.app.Folders.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if !h.scoped(w, r, f.TenantID) {
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (h *handler) renameFolder(w http.ResponseWriter, r *http.Request) {
	f, err := h.app.Folders.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if !h.scoped(w, r, f.TenantID) {
		return
	}
	var payload struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	renamed, err := h.app.Folders.Rename(r.Context(), f.ID, payload.Name)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, renamed)
}

func (h *handler) moveFolder(w http.ResponseWriter, r *http.Request) {
	f, err := h.app.Folders.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if !h.scoped(w, r, f.TenantID) {
		return
	}
	var payload struct {
		ParentID string `json:"parent_id"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	moved, err := h.app.Folders.Move(r.Context(), f.ID, payload.ParentID)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, moved)
}

func (h *handler) folderPath(w http.ResponseWriter, r *http.Request) {
	f, err := h.app.Folders.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if !h.scoped(w, r, f.TenantID) {
		return
	}
	path, err := h.app.Folders.Path(r.Context(), f.ID)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"path": path})
}

func (h *handler) deleteFolder(w http.ResponseWriter, r *http.Request) {
	f, err := h.app.Folders.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if !h.scoped(w, r, f.TenantID) {
		return
	}
	if err := h.app.Folders.Delete(r.Context(), f.ID); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Documents -------------------------------------------------------------------

// getScopedDocument loads a document and enforces tenant scope. Returns
// ok=false after writing the response.
func (h *handler) getScopedDocument(w http.ResponseWriter, r *http.Request) (document.Document, bool) {
	doc, err := h.app.Documents.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, statusFor(err), err)
		return document.Document{}, false
	}
	if !h.scoped(w, r, doc.TenantID) {
		return document.Document{}, false
	}
	return doc, true
}

func (h *handler) createDocument(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		FolderID string `json:"folder_id"`
		Title    string `json:"title"`
		Content  string `json:"content"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	created, err := h.app.Documents.Create(r.Context(), document.Document{
		TenantID:  tenantID(r),
		FolderID:  payload.FolderID,
		Title:     payload.Title,
		Content:   payload.Content,
		CreatedBy: userID(r),
	})
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *handler) listDocuments(w http.ResponseWriter, r *http.Request) {
	if folderID := r.URL.Query().Get("folder_id"); folderID != "" {
		f, err := h.app.Folders.Get(r.Context(), folderID)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		if !h.scoped(w, r, f.TenantID) {
			return
		}
		list, err := h.app.Documents.ListByFolder(r.Context(), folderID)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, list)
		return
	}

	list, err := h.app.Documents.List(r.Context(), tenantID(r))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handler) listTrash(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.Documents.ListTrash(r.Context(), tenantID(r))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handler) getDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.getScopedDocument(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *handler) updateDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.getScopedDocument(w, r)
	if !ok {
		return
	}
	var payload struct {
		Title    *string `json:"title"`
		FolderID *string `json:"folder_id"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	updated, err := h.app.Documents.UpdateMeta(r.Context(), doc.ID, payload.Title, payload.FolderID)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *handler) saveContent(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.getScopedDocument(w, r)
	if !ok {
		return
	}
	var payload struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	saved, err := h.app.Documents.SaveContent(r.Context(), doc.ID, payload.Content, userID(r))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (h *handler) listVersions(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.getScopedDocument(w, r)
	if !ok {
		return
	}
	versions, err := h.app.Documents.Versions(r.Context(), doc.ID)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, versions)
}

func (h *handler) getVersion(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.getScopedDocument(w, r)
	if !ok {
		return
	}
	number, _ := strconv.Atoi(mux.Vars(r)["number"])
	versions, err := h.app.Documents.Versions(r.Context(), doc.ID)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	for _, v := range versions {
		if v.Number == number {
			writeJSON(w, http.StatusOK, v)
			return
		}
	}
	writeError(w, http.StatusNotFound, errVersionNotFound)
}

func (h *handler) restoreVersion(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.getScopedDocument(w, r)
	if !ok {
		return
	}
	number, _ := strconv.Atoi(mux.Vars(r)["number"])
	restored, err := h.app.Documents.RestoreVersion(r.Context(), doc.ID, number, userID(r))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, restored)
}

func (h *handler) trashDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.getScopedDocument(w, r)
	if !ok {
		return
	}
	trashed, err := h.app.Documents.Trash(r.Context(), doc.ID)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, trashed)
}

func (h *handler) restoreDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.getScopedDocument(w, r)
	if !ok {
		return
	}
	restored, err := h.app.Documents.Restore(r.Context(), doc.ID)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, restored)
}

func (h *handler) purgeDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.getScopedDocument(w, r)
	if !ok {
		return
	}
	if err := h.app.Documents.Purge(r.Context(), doc.ID); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Templates -------------------------------------------------------------------

func (h *handler) createTemplate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Body        string `json:"body"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	created, err := h.app.Templates.Create(r.Context(), template.Template{
		TenantID:    tenantID(r),
		Name:        payload.Name,
		Description: payload.Description,
		Body:        payload.Body,
	})
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *handler) listTemplates(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.Templates.List(r.Context(), tenantID(r))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handler) getScopedTemplate(w http.ResponseWriter, r *http.Request) (template.Template, bool) {
	tpl, err := h.app.Templates.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, statusFor(err), err)
		return template.Template{}, false
	}
	if !h.scoped(w, r, tpl.TenantID) {
		return template.Template{}, false
	}
	return tpl, true
}

func (h *handler) getTemplate(w http.ResponseWriter, r *http.Request) {
	tpl, ok := h.getScopedTemplate(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, tpl)
}

func (h *handler) updateTemplate(w http.ResponseWriter, r *http.Request) {
	tpl, ok := h.getScopedTemplate(w, r)
	if !ok {
		return
	}
	var payload struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		Body        *string `json:"body"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	updated, err := h.app.Templates.Update(r.Context(), tpl.ID, payload.Name, payload.Description, payload.Body)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *handler) deleteTemplate(w http.ResponseWriter, r *http.Request) {
	tpl, ok := h.getScopedTemplate(w, r)
	if !ok {
		return
	}
	if err := h.app.Templates.Delete(r.Context(), tpl.ID); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) templatePlaceholders(w http.ResponseWriter, r *http.Request) {
	tpl, ok := h.getScopedTemplate(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{
		"placeholders": templates.Placeholders(tpl.Body),
	})
}

func (h *handler) instantiateTemplate(w http.ResponseWriter, r *http.Request) {
	tpl, ok := h.getScopedTemplate(w, r)
	if !ok {
		return
	}
	var payload struct {
		Title    string            `json:"title"`
		FolderID string            `json:"folder_id"`
		Values   map[string]string `json:"values"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	doc, err := h.app.Templates.Instantiate(r.Context(), tenantID(r), tpl.ID, payload.Title, payload.FolderID, userID(r), payload.Values)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}
