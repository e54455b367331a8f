package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/veltasoft/worksuite/internal/app/domain/sheet"
)

func (h *handler) createSheet(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	created, err := h.app.Sheets.Create(r.Context(), tenantID(r), payload.Name)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *handler) listSheets(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.Sheets.List(r.Context(), tenantID(r))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handler) getScopedSheet(w http.ResponseWriter, r *http.Request) (sheet.Sheet, bool) {
	sh, err := h.app.Sheets.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, statusFor(err), err)
		return sheet.Sheet{}, false
	}
	if !h.scoped(w, r, sh.TenantID) {
		return sheet.Sheet{}, false
	}
	return sh, true
}

func (h *handler) getSheet(w http.ResponseWriter, r *http.Request) {
	sh, ok := h.getScopedSheet(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sh)
}

func (h *handler) deleteSheet(w http.ResponseWriter, r *http.Request) {
	sh, ok := h.getScopedSheet(w, r)
	if !ok {
		return
	}
	if err := h.app.Sheets.Delete(r.Context(), sh.ID); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) listCells(w http.ResponseWriter, r *http.Request) {
	sh, ok := h.getScopedSheet(w, r)
	if !ok {
		return
	}
	cells, err := h.app.Sheets.Cells(r.Context(), sh.ID)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, cells)
}

func (h *handler) getCell(w http.ResponseWriter, r *http.Request) {
	sh, ok := h.getScopedSheet(w, r)
	if !ok {
		return
	}
	cell, err := h.app.Sheets.GetCell(r.Context(), sh.ID, mux.Vars(r)["ref"])
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, cell)
}

func (h *handler) setCell(w http.ResponseWriter, r *http.Request) {
	sh, ok := h.getScopedSheet(w, r)
	if !ok {
		return
	}
	var payload struct {
		Input string `json:"input"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	cell, err := h.app.Sheets.SetCell(r.Context(), sh.ID, mux.Vars(r)["ref"], payload.Input)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, cell)
}

func (h *handler) cellRange(w http.ResponseWriter, r *http.Request) {
	sh, ok := h.getScopedSheet(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	cells, err := h.app.Sheets.Range(r.Context(), sh.ID, q.Get("from"), q.Get("to"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, cells)
}
