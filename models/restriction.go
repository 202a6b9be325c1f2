package models

import (
	"time"

	"github.com/google/uuid"
)

// PermissionState is the direct-polarity view of a permission. Storage uses
// reverse logic (a restriction row's existence denies the code); every API
// boundary translates to this enum so call sites never reason about row
// presence.
type PermissionState string

const (
	PermissionAllowed PermissionState = "allowed"
	PermissionDenied  PermissionState = "denied"
)

// StateFromRestricted translates the presence-based storage polarity
func StateFromRestricted(restricted bool) PermissionState {
	if restricted {
		return PermissionDenied
	}
	return PermissionAllowed
}

// RoleRestriction denies a permission code to a role. The row's existence is
// the denial; there is no enabled flag and no update path, only insert and
// delete.
type RoleRestriction struct {
	ID             uuid.UUID `json:"id" db:"id"`
	RoleID         string    `json:"role_id" db:"role_id"`
	PermissionCode string    `json:"permission_code" db:"permission_code"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	CreatedBy      string    `json:"created_by" db:"created_by"`
}

// TableName returns the table name for the RoleRestriction model
func (RoleRestriction) TableName() string {
	return "role_restrictions"
}

// NewRoleRestriction creates a new RoleRestriction instance
func NewRoleRestriction(roleID, permissionCode, createdBy string) *RoleRestriction {
	return &RoleRestriction{
		ID:             uuid.New(),
		RoleID:         roleID,
		PermissionCode: permissionCode,
		CreatedAt:      time.Now(),
		CreatedBy:      createdBy,
	}
}

// DeniedSet is a set of denied permission codes
type DeniedSet map[string]struct{}

// NewDeniedSet builds a DeniedSet from a code slice
func NewDeniedSet(codes []string) DeniedSet {
	s := make(DeniedSet, len(codes))
	for _, c := range codes {
		s[c] = struct{}{}
	}
	return s
}

// Contains reports whether the code is denied
func (s DeniedSet) Contains(code string) bool {
	_, ok := s[code]
	return ok
}

// Codes returns the denied codes in unspecified order
func (s DeniedSet) Codes() []string {
	codes := make([]string, 0, len(s))
	for c := range s {
		codes = append(codes, c)
	}
	return codes
}

// MergeDenials computes an identity's effective denial set: the union of its
// role's denials and, when a template is assigned, the template's denials.
// Pure function so the two-source reconciliation is testable without a store.
func MergeDenials(roleDenials, templateDenials []string) DeniedSet {
	merged := make(DeniedSet, len(roleDenials)+len(templateDenials))
	for _, c := range roleDenials {
		merged[c] = struct{}{}
	}
	for _, c := range templateDenials {
		merged[c] = struct{}{}
	}
	return merged
}
