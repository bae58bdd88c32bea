package domain

import "time"

// Attachment is a stored file belonging to a project, optionally linked
// to a task. Path points at the byte store; the record and the bytes are
// created and deleted together.
type Attachment struct {
	ID            string    `json:"id"`
	Filename      string    `json:"filename"`
	OriginalName  string    `json:"original_name"`
	MimeType      string    `json:"mime_type"`
	Size          int64     `json:"size"`
	Path          string    `json:"-"`
	ProjectID     string    `json:"project_id"`
	UploadedBy    string    `json:"uploaded_by"`
	TaskID        string    `json:"task_id,omitempty"`
	Description   string    `json:"description,omitempty"`
	IsPublic      bool      `json:"is_public"`
	DownloadCount int       `json:"download_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
