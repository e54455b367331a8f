package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/veltasoft/worksuite/internal/app/domain/report"
	"github.com/veltasoft/worksuite/internal/app/domain/script"
)

// Scripts ---------------------------------------------------------------------

func (h *handler) createScript(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Source      string `json:"source"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	created, err := h.app.Scripts.Create(r.Context(), script.Script{
		TenantID:    tenantID(r),
		Name:        payload.Name,
		Description: payload.Description,
		Source:      payload.Source,
	})
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *handler) listScripts(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.Scripts.List(r.Context(), tenantID(r))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handler) getScopedScript(w http.ResponseWriter, r *http.Request) (script.Script, bool) {
	sc, err := h.app.Scripts.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, statusFor(err), err)
		return script.Script{}, false
	}
	if !h.scoped(w, r, sc.TenantID) {
		return script.Script{}, false
	}
	return sc, true
}

func (h *handler) getScript(w http.ResponseWriter, r *http.Request) {
	sc, ok := h.getScopedScript(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

func (h *handler) updateScript(w http.ResponseWriter, r *http.Request) {
	sc, ok := h.getScopedScript(w, r)
	if !ok {
		return
	}
	var payload struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		Source      *string `json:"source"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	updated, err := h.app.Scripts.Update(r.Context(), sc.ID, payload.Name, payload.Description, payload.Source)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *handler) deleteScript(w http.ResponseWriter, r *http.Request) {
	sc, ok := h.getScopedScript(w, r)
	if !ok {
		return
	}
	if err := h.app.Scripts.Delete(r.Context(), sc.ID); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) executeScript(w http.ResponseWriter, r *http.Request) {
	sc, ok := h.getScopedScript(w, r)
	if !ok {
		return
	}
	var payload struct {
		Input map[string]any `json:"input"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	execution, err := h.app.Scripts.Execute(r.Context(), sc.ID, payload.Input)
	if err != nil {
		// The execution record carries the failure detail.
		writeJSON(w, http.StatusUnprocessableEntity, execution)
		return
	}
	writeJSON(w, http.StatusOK, execution)
}

func (h *handler) listExecutions(w http.ResponseWriter, r *http.Request) {
	sc, ok := h.getScopedScript(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	list, err := h.app.Scripts.Executions(r.Context(), sc.ID, limit)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Analytics -------------------------------------------------------------------

func (h *handler) detectAnomalies(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Series       []float64 `json:"series"`
		Threshold    float64   `json:"threshold"`
		Jurisdiction string    `json:"jurisdiction"`
		Language     string    `json:"language"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	result, err := h.app.Analytics.DetectAnomalies(payload.Series, payload.Threshold, payload.Jurisdiction, payload.Language)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) forecast(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		History      []float64 `json:"history"`
		Steps        int       `json:"steps"`
		Jurisdiction string    `json:"jurisdiction"`
		Language     string    `json:"language"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	result, err := h.app.Analytics.Forecast(payload.History, payload.Steps, payload.Jurisdiction, payload.Language)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) sentiment(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text     string `json:"text"`
		Language string `json:"language"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, h.app.Analytics.Sentiment(payload.Text, payload.Language))
}

// Reports ---------------------------------------------------------------------

func (h *handler) createReport(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name        string `json:"name"`
		Source      string `json:"source"`
		Selector    string `json:"selector"`
		Aggregation string `json:"aggregation"`
		GroupBy     string `json:"group_by"`
		Schedule    string `json:"schedule"`
		Enabled     bool   `json:"enabled"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	created, err := h.app.Reports.Create(r.Context(), report.Definition{
		TenantID:    tenantID(r),
		Name:        payload.Name,
		Source:      payload.Source,
		Selector:    payload.Selector,
		Aggregation: payload.Aggregation,
		GroupBy:     payload.GroupBy,
		Schedule:    payload.Schedule,
		Enabled:     payload.Enabled,
	})
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *handler) listReports(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.Reports.List(r.Context(), tenantID(r))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handler) getScopedReport(w http.ResponseWriter, r *http.Request) (report.Definition, bool) {
	def, err := h.app.Reports.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, statusFor(err), err)
		return report.Definition{}, false
	}
	if !h.scoped(w, r, def.TenantID) {
		return report.Definition{}, false
	}
	return def, true
}

func (h *handler) getReport(w http.ResponseWriter, r *http.Request) {
	def, ok := h.getScopedReport(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, def)
}

func (h *handler) updateReport(w http.ResponseWriter, r *http.Request) {
	def, ok := h.getScopedReport(w, r)
	if !ok {
		return
	}
	var payload struct {
		Name        string `json:"name"`
		Source      string `json:"source"`
		Selector    string `json:"selector"`
		Aggregation string `json:"aggregation"`
		GroupBy     string `json:"group_by"`
		Schedule    string `json:"schedule"`
		Enabled     bool   `json:"enabled"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	def.Name = payload.Name
	def.Source = payload.Source
	def.Selector = payload.Selector
	def.Aggregation = payload.Aggregation
	def.GroupBy = payload.GroupBy
	def.Schedule = payload.Schedule
	def.Enabled = payload.Enabled
	updated, err := h.app.Reports.Update(r.Context(), def)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *handler) deleteReport(w http.ResponseWriter, r *http.Request) {
	def, ok := h.getScopedReport(w, r)
	if !ok {
		return
	}
	if err := h.app.Reports.Delete(r.Context(), def.ID); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) runReport(w http.ResponseWriter, r *http.Request) {
	def, ok := h.getScopedReport(w, r)
	if !ok {
		return
	}
	run, err := h.app.Reports.Run(r.Context(), def.ID)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, run)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (h *handler) listRuns(w http.ResponseWriter, r *http.Request) {
	def, ok := h.getScopedReport(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := h.app.Reports.Runs(r.Context(), def.ID, limit)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

// Presence --------------------------------------------------------------------

func (h *handler) presenceHeartbeat(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Resource string `json:"resource"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	entry, err := h.app.Presence.Heartbeat(r.Context(), tenantID(r), userID(r), payload.Resource)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *handler) presenceActive(w http.ResponseWriter, r *http.Request) {
	entries, err := h.app.Presence.Active(r.Context(), tenantID(r), r.URL.Query().Get("resource"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *handler) presenceLeave(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Resource string `json:"resource"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.app.Presence.Leave(r.Context(), tenantID(r), userID(r), payload.Resource); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
