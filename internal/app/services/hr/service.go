package hr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/veltasoft/worksuite/internal/app/domain/employee"
	"github.com/veltasoft/worksuite/internal/app/storage"
	"github.com/veltasoft/worksuite/pkg/logger"
)

// Errors surfaced to the API layer.
var (
	ErrInsufficientBalance = errors.New("insufficient leave balance")
	ErrOverlappingLeave    = errors.New("overlapping approved leave")
	ErrAlreadyDecided      = errors.New("leave request already decided")
)

// Service manages employees, leave, and performance reviews.
type Service struct {
	tenants storage.TenantStore
	store   storage.EmployeeStore
	log     *logger.Logger
}

// New constructs an HR service.
func New(tenants storage.TenantStore, store storage.EmployeeStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("hr")
	}
	return &Service{tenants: tenants, store: store, log: log}
}

// CreateEmployee registers an employee profile.
func (s *Service) CreateEmployee(ctx context.Context, e employee.Employee) (employee.Employee, error) {
	if strings.TrimSpace(e.TenantID) == "" {
		return employee.Employee{}, fmt.Errorf("tenant_id is required")
	}
	if strings.TrimSpace(e.FirstName) == "" || strings.TrimSpace(e.LastName) == "" {
		return employee.Employee{}, fmt.Errorf("first_name and last_name are required")
	}
	if strings.TrimSpace(e.Email) == "" {
		return employee.Employee{}, fmt.Errorf("email is required")
	}
	if s.tenants != nil {
		if _, err := s.tenants.GetTenant(ctx, e.TenantID); err != nil {
			return employee.Employee{}, fmt.Errorf("tenant validation failed: %w", err)
		}
	}
	if e.LeaveBalance < 0 {
		return employee.Employee{}, fmt.Errorf("leave balance cannot be negative")
	}
	e.Active = true

	created, err := s.store.CreateEmployee(ctx, e)
	if err != nil {
		return employee.Employee{}, err
	}
	s.log.WithField("employee_id", created.ID).WithField("tenant_id", created.TenantID).Info("employee created")
	return created, nil
}

// GetEmployee fetches an employee.
func (s *Service) GetEmployee(ctx context.Context, id string) (employee.Employee, error) {
	return s.store.GetEmployee(ctx, id)
}

// ListEmployees lists a tenant's employees.
func (s *Service) ListEmployees(ctx context.Context, tenantID string) ([]employee.Employee, error) {
	return s.store.ListEmployees(ctx, tenantID)
}

// UpdateEmployee overwrites mutable profile fields.
func (s *Service) UpdateEmployee(ctx context.Context, id string, department, position *string, active *bool) (employee.Employee, error) {
	e, err := s.store.GetEmployee(ctx, id)
	if err != nil {
		return employee.Employee{}, err
	}
	if department != nil {
		e.Department = strings.TrimSpace(*department)
	}
	if position != nil {
		e.Position = strings.TrimSpace(*position)
	}
	if active != nil {
		e.Active = *active
	}
	return s.store.UpdateEmployee(ctx, e)
}

// leaveDays counts the days in an inclusive date range.
func leaveDays(start, end time.Time) float64 {
	return end.Sub(start).Hours()/24 + 1
}

// RequestLeave files a leave request. The employee must have enough
// balance to cover the range, and the range must not overlap an already
// approved request.
func (s *Service) RequestLeave(ctx context.Context, employeeID string, start, end time.Time, reason string) (employee.LeaveRequest, error) {
	e, err := s.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return employee.LeaveRequest{}, err
	}
	if !e.Active {
		return employee.LeaveRequest{}, fmt.Errorf("employee %s is not active", employeeID)
	}

	start = start.Truncate(24 * time.Hour)
	end = end.Truncate(24 * time.Hour)
	if end.Before(start) {
		return employee.LeaveRequest{}, fmt.Errorf("end date before start date")
	}
	days := leaveDays(start, end)
	if days > e.LeaveBalance {
		return employee.LeaveRequest{}, fmt.Errorf("requested %.0f days with balance %.1f: %w", days, e.LeaveBalance, ErrInsufficientBalance)
	}

	existing, err := s.store.ListLeaveRequests(ctx, employeeID)
	if err != nil {
		return employee.LeaveRequest{}, err
	}
	for _, lr := range existing {
		if lr.Status != employee.LeaveApproved {
			continue
		}
		if !start.After(lr.EndDate) && !end.Before(lr.StartDate) {
			return employee.LeaveRequest{}, fmt.Errorf("range overlaps request %s: %w", lr.ID, ErrOverlappingLeave)
		}
	}

	created, err := s.store.CreateLeaveRequest(ctx, employee.LeaveRequest{
		TenantID:   e.TenantID,
		EmployeeID: employeeID,
		StartDate:  start,
		EndDate:    end,
		Days:       days,
		Reason:     strings.TrimSpace(reason),
		Status:     employee.LeavePending,
	})
	if err != nil {
		return employee.LeaveRequest{}, err
	}
	s.log.WithField("leave_id", created.ID).
		WithField("employee_id", employeeID).
		WithField("days", days).
		Info("leave requested")
	return created, nil
}

// DecideLeave approves or rejects a pending request. Approval deducts the
// days from the employee's balance.
func (s *Service) DecideLeave(ctx context.Context, requestID, decidedBy string, approve bool) (employee.LeaveRequest, error) {
	lr, err := s.store.GetLeaveRequest(ctx, requestID)
	if err != nil {
		return employee.LeaveRequest{}, err
	}
	if lr.Status != employee.LeavePending {
		return employee.LeaveRequest{}, fmt.Errorf("request %s: %w", requestID, ErrAlreadyDecided)
	}

	if approve {
		e, err := s.store.GetEmployee(ctx, lr.EmployeeID)
		if err != nil {
			return employee.LeaveRequest{}, err
		}
		if lr.Days > e.LeaveBalance {
			return employee.LeaveRequest{}, fmt.Errorf("request %s: %w", requestID, ErrInsufficientBalance)
		}
		e.LeaveBalance -= lr.Days
		if _, err := s.store.UpdateEmployee(ctx, e); err != nil {
			return employee.LeaveRequest{}, err
		}
		lr.Status = employee.LeaveApproved
	} else {
		lr.Status = employee.LeaveRejected
	}
	lr.DecidedBy = decidedBy
	lr.DecidedAt = time.Now().UTC()

	updated, err := s.store.UpdateLeaveRequest(ctx, lr)
	if err != nil {
		return employee.LeaveRequest{}, err
	}
	s.log.WithField("leave_id", requestID).
		WithField("status", updated.Status).
		Info("leave decided")
	return updated, nil
}

// GetLeave fetches a single leave request.
func (s *Service) GetLeave(ctx context.Context, id string) (employee.LeaveRequest, error) {
	return s.store.GetLeaveRequest(ctx, id)
}

// ListLeave lists an employee's leave requests.
func (s *Service) ListLeave(ctx context.Context, employeeID string) ([]employee.LeaveRequest, error) {
	return s.store.ListLeaveRequests(ctx, employeeID)
}

// AccrueMonthly adds days to every active employee of a tenant for the
// given month (YYYY-MM). A month is only accrued once; repeated calls are
// no-ops and report zero.
func (s *Service) AccrueMonthly(ctx context.Context, tenantID, month string, days float64) (int, error) {
	if days <= 0 {
		return 0, fmt.Errorf("accrual days must be positive")
	}
	if _, err := time.Parse("2006-01", month); err != nil {
		return 0, fmt.Errorf("month must be YYYY-MM: %w", err)
	}

	fresh, err := s.store.MarkAccrual(ctx, tenantID, month)
	if err != nil {
		return 0, err
	}
	if !fresh {
		return 0, nil
	}

	employees, err := s.store.ListEmployees(ctx, tenantID)
	if err != nil {
		return 0, err
	}
	accrued := 0
	for _, e := range employees {
		if !e.Active {
			continue
		}
		e.LeaveBalance += days
		if _, err := s.store.UpdateEmployee(ctx, e); err != nil {
			s.log.WithError(err).WithField("employee_id", e.ID).Warn("accrue leave")
			continue
		}
		accrued++
	}
	s.log.WithField("tenant_id", tenantID).
		WithField("month", month).
		WithField("employees", accrued).
		Info("monthly leave accrued")
	return accrued, nil
}

// CreateReview records a performance review. Scores must be 1-5; the
// overall score is their mean.
func (s *Service) CreateReview(ctx context.Context, r employee.Review) (employee.Review, error) {
	if _, err := s.store.GetEmployee(ctx, r.EmployeeID); err != nil {
		return employee.Review{}, err
	}
	if strings.TrimSpace(r.Period) == "" {
		return employee.Review{}, fmt.Errorf("period is required")
	}
	if len(r.Scores) == 0 {
		return employee.Review{}, fmt.Errorf("at least one score is required")
	}

	sum := 0
	for name, score := range r.Scores {
		if score < 1 || score > 5 {
			return employee.Review{}, fmt.Errorf("score %q must be between 1 and 5", name)
		}
		sum += score
	}
	r.Overall = float64(sum) / float64(len(r.Scores))

	created, err := s.store.CreateReview(ctx, r)
	if err != nil {
		return employee.Review{}, err
	}
	s.log.WithField("review_id", created.ID).
		WithField("employee_id", created.EmployeeID).
		Info("review recorded")
	return created, nil
}

// ListReviews lists an employee's reviews.
func (s *Service) ListReviews(ctx context.Context, employeeID string) ([]employee.Review, error) {
	return s.store.ListReviews(ctx, employeeID)
}
