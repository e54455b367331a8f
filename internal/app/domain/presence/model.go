package presence

import "time"

// Entry marks a user as active on a resource until ExpiresAt. Entries are
// refreshed by heartbeats and lapse on their own.
type Entry struct {
	TenantID  string    `json:"tenant_id"`
	UserID    string    `json:"user_id"`
	Resource  string    `json:"resource"`
	SeenAt    time.Time `json:"seen_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
