package script

import "time"

// Execution states.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusTimeout   = "timeout"
)

// Script is a tenant-registered JavaScript automation.
type Script struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Source      string    `json:"source"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Execution records one run of a script.
type Execution struct {
	ID        string        `json:"id"`
	ScriptID  string        `json:"script_id"`
	Status    string        `json:"status"`
	Result    string        `json:"result"`
	Logs      []string      `json:"logs"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
	StartedAt time.Time     `json:"started_at"`
}
