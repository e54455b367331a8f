package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/veltasoft/worksuite/internal/app/domain/employee"
)

type employeeRow struct {
	ID           string    `db:"id"`
	TenantID     string    `db:"tenant_id"`
	FirstName    string    `db:"first_name"`
	LastName     string    `db:"last_name"`
	Email        string    `db:"email"`
	Department   string    `db:"department"`
	Position     string    `db:"position"`
	HireDate     time.Time `db:"hire_date"`
	LeaveBalance float64   `db:"leave_balance"`
	Active       bool      `db:"active"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

const employeeColumns = `id, tenant_id, first_name, last_name, email, department,
	position, hire_date, leave_balance, active, created_at, updated_at`

func (s *Store) CreateEmployee(ctx context.Context, e employee.Employee) (employee.Employee, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (`+employeeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, e.ID, e.TenantID, e.FirstName, e.LastName, e.Email, e.Department,
		e.Position, e.HireDate, e.LeaveBalance, e.Active, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return employee.Employee{}, err
	}
	return e, nil
}

func (s *Store) UpdateEmployee(ctx context.Context, e employee.Employee) (employee.Employee, error) {
	e.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		UPDATE employees
		SET first_name = $2, last_name = $3, email = $4, department = $5, position = $6,
			hire_date = $7, leave_balance = $8, active = $9, updated_at = $10
		WHERE id = $1
	`, e.ID, e.FirstName, e.LastName, e.Email, e.Department, e.Position,
		e.HireDate, e.LeaveBalance, e.Active, e.UpdatedAt)
	if err != nil {
		return employee.Employee{}, err
	}
	if err := requireRow(res, "employee", e.ID); err != nil {
		return employee.Employee{}, err
	}
	return s.GetEmployee(ctx, e.ID)
}

func (s *Store) GetEmployee(ctx context.Context, id string) (employee.Employee, error) {
	var row employeeRow
	err := s.db.GetContext(ctx, &row, `
		SELECT `+employeeColumns+` FROM employees WHERE id = $1
	`, id)
	if err != nil {
		return employee.Employee{}, notFound(err, "employee", id)
	}
	return employee.Employee(row), nil
}

func (s *Store) ListEmployees(ctx context.Context, tenantID string) ([]employee.Employee, error) {
	var rows []employeeRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+employeeColumns+` FROM employees
		WHERE tenant_id = $1 ORDER BY last_name, first_name, id
	`, tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]employee.Employee, 0, len(rows))
	for _, r := range rows {
		out = append(out, employee.Employee(r))
	}
	return out, nil
}

type leaveRow struct {
	ID         string       `db:"id"`
	TenantID   string       `db:"tenant_id"`
	EmployeeID string       `db:"employee_id"`
	StartDate  time.Time    `db:"start_date"`
	EndDate    time.Time    `db:"end_date"`
	Days       float64      `db:"days"`
	Reason     string       `db:"reason"`
	Status     string       `db:"status"`
	DecidedBy  string       `db:"decided_by"`
	DecidedAt  sql.NullTime `db:"decided_at"`
	CreatedAt  time.Time    `db:"created_at"`
}

func (r leaveRow) toDomain() employee.LeaveRequest {
	lr := employee.LeaveRequest{
		ID:         r.ID,
		TenantID:   r.TenantID,
		EmployeeID: r.EmployeeID,
		StartDate:  r.StartDate,
		EndDate:    r.EndDate,
		Days:       r.Days,
		Reason:     r.Reason,
		Status:     r.Status,
		DecidedBy:  r.DecidedBy,
		CreatedAt:  r.CreatedAt,
	}
	if r.DecidedAt.Valid {
		lr.DecidedAt = r.DecidedAt.Time
	}
	return lr
}

const leaveColumns = `id, tenant_id, employee_id, start_date, end_date, days,
	reason, status, decided_by, decided_at, created_at`

func (s *Store) CreateLeaveRequest(ctx context.Context, lr employee.LeaveRequest) (employee.LeaveRequest, error) {
	if lr.ID == "" {
		lr.ID = uuid.NewString()
	}
	if lr.CreatedAt.IsZero() {
		lr.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO leave_requests (`+leaveColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, lr.ID, lr.TenantID, lr.EmployeeID, lr.StartDate, lr.EndDate, lr.Days,
		lr.Reason, lr.Status, lr.DecidedBy, nullTime(lr.DecidedAt), lr.CreatedAt)
	if err != nil {
		return employee.LeaveRequest{}, err
	}
	return lr, nil
}

func (s *Store) UpdateLeaveRequest(ctx context.Context, lr employee.LeaveRequest) (employee.LeaveRequest, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE leave_requests
		SET status = $2, decided_by = $3, decided_at = $4
		WHERE id = $1
	`, lr.ID, lr.Status, lr.DecidedBy, nullTime(lr.DecidedAt))
	if err != nil {
		return employee.LeaveRequest{}, err
	}
	if err := requireRow(res, "leave request", lr.ID); err != nil {
		return employee.LeaveRequest{}, err
	}
	return s.GetLeaveRequest(ctx, lr.ID)
}

func (s *Store) GetLeaveRequest(ctx context.Context, id string) (employee.LeaveRequest, error) {
	var row leaveRow
	err := s.db.GetContext(ctx, &row, `
		SELECT `+leaveColumns+` FROM leave_requests WHERE id = $1
	`, id)
	if err != nil {
		return employee.LeaveRequest{}, notFound(err, "leave request", id)
	}
	return row.toDomain(), nil
}

func (s *Store) ListLeaveRequests(ctx context.Context, employeeID string) ([]employee.LeaveRequest, error) {
	var rows []leaveRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+leaveColumns+` FROM leave_requests
		WHERE employee_id = $1 ORDER BY start_date, id
	`, employeeID)
	if err != nil {
		return nil, err
	}
	out := make([]employee.LeaveRequest, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

type reviewRow struct {
	ID         string    `db:"id"`
	TenantID   string    `db:"tenant_id"`
	EmployeeID string    `db:"employee_id"`
	ReviewerID string    `db:"reviewer_id"`
	Period     string    `db:"period"`
	Scores     []byte    `db:"scores"`
	Overall    float64   `db:"overall"`
	Comments   string    `db:"comments"`
	CreatedAt  time.Time `db:"created_at"`
}

func (r reviewRow) toDomain() employee.Review {
	rev := employee.Review{
		ID:         r.ID,
		TenantID:   r.TenantID,
		EmployeeID: r.EmployeeID,
		ReviewerID: r.ReviewerID,
		Period:     r.Period,
		Overall:    r.Overall,
		Comments:   r.Comments,
		CreatedAt:  r.CreatedAt,
	}
	if len(r.Scores) > 0 {
		_ = json.Unmarshal(r.Scores, &rev.Scores)
	}
	return rev
}

func (s *Store) CreateReview(ctx context.Context, r employee.Review) (employee.Review, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	scores, err := json.Marshal(r.Scores)
	if err != nil {
		return employee.Review{}, err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reviews (id, tenant_id, employee_id, reviewer_id, period, scores, overall, comments, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, r.ID, r.TenantID, r.EmployeeID, r.ReviewerID, r.Period, scores, r.Overall, r.Comments, r.CreatedAt)
	if err != nil {
		return employee.Review{}, err
	}
	return r, nil
}

func (s *Store) GetReview(ctx context.Context, id string) (employee.Review, error) {
	var row reviewRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, tenant_id, employee_id, reviewer_id, period, scores, overall, comments, created_at
		FROM reviews WHERE id = $1
	`, id)
	if err != nil {
		return employee.Review{}, notFound(err, "review", id)
	}
	return row.toDomain(), nil
}

func (s *Store) ListReviews(ctx context.Context, employeeID string) ([]employee.Review, error) {
	var rows []reviewRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, tenant_id, employee_id, reviewer_id, period, scores, overall, comments, created_at
		FROM reviews WHERE employee_id = $1 ORDER BY period, id
	`, employeeID)
	if err != nil {
		return nil, err
	}
	out := make([]employee.Review, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// MarkAccrual inserts the accrual marker for the month. A unique violation
// means the month already ran.
func (s *Store) MarkAccrual(ctx context.Context, tenantID, month string) (bool, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO hr_accruals (tenant_id, month, created_at)
		VALUES ($1, $2, $3)
	`, tenantID, month, time.Now().UTC())
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
