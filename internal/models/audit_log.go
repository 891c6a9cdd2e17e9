package models

// AuditLog records every committed change to a transaction. Entries are
// written inside the same database transaction as the change itself.
type AuditLog struct {
	Base
	Action       string `gorm:"not null" json:"action"`
	ResourceType string `gorm:"not null;index" json:"resource_type"`
	ResourceID   string `gorm:"type:uuid;index" json:"resource_id"`
	Changes      string `json:"changes,omitempty"`
}
