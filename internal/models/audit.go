package models

import (
	"encoding/json"
	"time"
)

// AuditLog is a security relevant event such as a login or a webhook delivery
type AuditLog struct {
	ID             string          `json:"id" db:"id"`
	OrganizationID *string         `json:"organization_id,omitempty" db:"organization_id"`
	UserID         *string         `json:"user_id,omitempty" db:"user_id"`
	Action         string          `json:"action" db:"action"`
	EntityType     *string         `json:"entity_type,omitempty" db:"entity_type"`
	EntityID       *string         `json:"entity_id,omitempty" db:"entity_id"`
	IPAddress      *string         `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent      *string         `json:"user_agent,omitempty" db:"user_agent"`
	Details        json.RawMessage `json:"details,omitempty" db:"details"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}
