package employee

import "time"

// Leave request lifecycle states.
const (
	LeavePending  = "pending"
	LeaveApproved = "approved"
	LeaveRejected = "rejected"
)

// Employee is an HR profile. LeaveBalance is in days.
type Employee struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenant_id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	Department   string    `json:"department"`
	Position     string    `json:"position"`
	HireDate     time.Time `json:"hire_date"`
	LeaveBalance float64   `json:"leave_balance"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// LeaveRequest covers an inclusive date range. Days is derived from the
// range on creation.
type LeaveRequest struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenant_id"`
	EmployeeID string    `json:"employee_id"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	Days       float64   `json:"days"`
	Reason     string    `json:"reason,omitempty"`
	Status     string    `json:"status"`
	DecidedBy  string    `json:"decided_by,omitempty"`
	DecidedAt  time.Time `json:"decided_at,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Review is a performance review for one period. Scores are 1-5 per
// criterion; Overall is their mean.
type Review struct {
	ID         string         `json:"id"`
	TenantID   string         `json:"tenant_id"`
	EmployeeID string         `json:"employee_id"`
	ReviewerID string         `json:"reviewer_id"`
	Period     string         `json:"period"`
	Scores     map[string]int `json:"scores"`
	Overall    float64        `json:"overall"`
	Comments   string         `json:"comments,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}
