package document

import "time"

// Document is a rich-text document. Content is the head revision; saved
// revisions are kept as Version rows.
type Document struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenant_id"`
	FolderID   string    `json:"folder_id,omitempty"`
	TemplateID string    `json:"template_id,omitempty"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Version    int       `json:"version"`
	CreatedBy  string    `json:"created_by"`
	Trashed    bool      `json:"trashed"`
	TrashedAt  time.Time `json:"trashed_at,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Version is an immutable snapshot of a document at a version number.
// Numbers are dense and monotonic per document.
type Version struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Number     int       `json:"number"`
	Content    string    `json:"content"`
	CreatedBy  string    `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
}
