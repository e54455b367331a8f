package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/veltasoft/worksuite/internal/app/domain/employee"
)

const dateLayout = "2006-01-02"

func (h *handler) createEmployee(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		FirstName    string  `json:"first_name"`
		LastName     string  `json:"last_name"`
		Email        string  `json:"email"`
		Department   string  `json:"department"`
		Position     string  `json:"position"`
		HireDate     string  `json:"hire_date"`
		LeaveBalance float64 `json:"leave_balance"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	hireDate, err := parseDate(payload.HireDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	created, err := h.app.HR.CreateEmployee(r.Context(), employee.Employee{
		TenantID:     tenantID(r),
		FirstName:    payload.FirstName,
		LastName:     payload.LastName,
		Email:        payload.Email,
		Department:   payload.Department,
		Position:     payload.Position,
		HireDate:     hireDate,
		LeaveBalance: payload.LeaveBalance,
	})
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *handler) listEmployees(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.HR.ListEmployees(r.Context(), tenantID(r))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handler) getScopedEmployee(w http.ResponseWriter, r *http.Request) (employee.Employee, bool) {
	e, err := h.app.HR.GetEmployee(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, statusFor(err), err)
		return employee.Employee{}, false
	}
	if !h.scoped(w, r, e.TenantID) {
		return employee.Employee{}, false
	}
	return e, true
}

func (h *handler) getEmployee(w http.ResponseWriter, r *http.Request) {
	e, ok := h.getScopedEmployee(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *handler) updateEmployee(w http.ResponseWriter, r *http.Request) {
	e, ok := h.getScopedEmployee(w, r)
	if !ok {
		return
	}
	var payload struct {
		Department *string `json:"department"`
		Position   *string `json:"position"`
		Active     *bool   `json:"active"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	updated, err := h.app.HR.UpdateEmployee(r.Context(), e.ID, payload.Department, payload.Position, payload.Active)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *handler) requestLeave(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		EmployeeID string `json:"employee_id"`
		StartDate  string `json:"start_date"`
		EndDate    string `json:"end_date"`
		Reason     string `json:"reason"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	e, err := h.app.HR.GetEmployee(r.Context(), payload.EmployeeID)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if !h.scoped(w, r, e.TenantID) {
		return
	}
	start, err := parseDate(payload.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	end, err := parseDate(payload.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	lr, err := h.app.HR.RequestLeave(r.Context(), e.ID, start, end, payload.Reason)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, lr)
}

func (h *handler) decideLeave(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Approve bool `json:"approve"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	lr, err := h.app.HR.GetLeave(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if !h.scoped(w, r, lr.TenantID) {
		return
	}
	decided, err := h.app.HR.DecideLeave(r.Context(), lr.ID, userID(r), payload.Approve)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, decided)
}

func (h *handler) listLeave(w http.ResponseWriter, r *http.Request) {
	e, ok := h.getScopedEmployee(w, r)
	if !ok {
		return
	}
	list, err := h.app.HR.ListLeave(r.Context(), e.ID)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handler) runAccrual(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Month string  `json:"month"`
		Days  float64 `json:"days"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	accrued, err := h.app.HR.AccrueMonthly(r.Context(), tenantID(r), payload.Month, payload.Days)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"accrued": accrued})
}

func (h *handler) createReview(w http.ResponseWriter, r *http.Request) {
	e, ok := h.getScopedEmployee(w, r)
	if !ok {
		return
	}
	var payload struct {
		Period   string         `json:"period"`
		Scores   map[string]int `json:"scores"`
		Comments string         `json:"comments"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	created, err := h.app.HR.CreateReview(r.Context(), employee.Review{
		TenantID:   e.TenantID,
		EmployeeID: e.ID,
		ReviewerID: userID(r),
		Period:     payload.Period,
		Scores:     payload.Scores,
		Comments:   payload.Comments,
	})
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *handler) listReviews(w http.ResponseWriter, r *http.Request) {
	e, ok := h.getScopedEmployee(w, r)
	if !ok {
		return
	}
	list, err := h.app.HR.ListReviews(r.Context(), e.ID)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func parseDate(raw string) (time.Time, error) {
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", raw)
	}
	return t, nil
}
