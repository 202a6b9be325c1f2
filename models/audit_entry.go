package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction describes a restriction write
type AuditAction string

const (
	AuditActionRestrict   AuditAction = "restrict"
	AuditActionUnrestrict AuditAction = "unrestrict"
)

// RestrictionAuditEntry records a single restriction insert or delete so
// administrators can reconstruct who changed which denial list and when.
type RestrictionAuditEntry struct {
	ID             uuid.UUID   `json:"id" db:"id"`
	Actor          string      `json:"actor" db:"actor"`
	Scope          string      `json:"scope" db:"scope"` // role id or template id
	PermissionCode string      `json:"permission_code" db:"permission_code"`
	Action         AuditAction `json:"action" db:"action"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the RestrictionAuditEntry model
func (RestrictionAuditEntry) TableName() string {
	return "restriction_audit_log"
}

// NewRestrictionAuditEntry creates a new RestrictionAuditEntry instance
func NewRestrictionAuditEntry(actor, scope, permissionCode string, action AuditAction) *RestrictionAuditEntry {
	return &RestrictionAuditEntry{
		ID:             uuid.New(),
		Actor:          actor,
		Scope:          scope,
		PermissionCode: permissionCode,
		Action:         action,
		CreatedAt:      time.Now(),
	}
}
