package models

import (
	"time"

	"github.com/google/uuid"
)

// Credential is one API key for the external generation service.
// Stored in api_credentials table. Usage counters are bookkeeping only and
// updated best-effort on every dispatch attempt.
type Credential struct {
	ID         uuid.UUID  `json:"id"`
	KeyValue   string     `json:"-"`
	IsActive   bool       `json:"is_active"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	UsageCount int        `json:"usage_count"`
	ErrorCount int        `json:"error_count"`
}

// Redacted returns the key with all but a short prefix masked, for logs and
// list responses.
func (c *Credential) Redacted() string {
	if len(c.KeyValue) <= 8 {
		return "********"
	}
	return c.KeyValue[:8] + "..."
}
