package domain

import "time"

// AuditEntry represents a single audit log record.
type AuditEntry struct {
	ID        string
	Actor     string
	Action    string
	Detail    string
	CreatedAt time.Time
}

// AuditFilter holds filter parameters for querying the audit log.
type AuditFilter struct {
	Actor  *string
	Action *string
	Page   PageRequest
}
