package sheet

import "time"

// Sheet is a spreadsheet belonging to a tenant. Cells are sparse and keyed
// by A1-style references.
type Sheet struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Cell holds the raw user input for one cell plus its last computed result.
// Input starting with '=' is a formula; otherwise it is a literal.
type Cell struct {
	Ref   string `json:"ref"`
	Input string `json:"input"`
	Value string `json:"value"`
	Err   string `json:"err,omitempty"`
}
