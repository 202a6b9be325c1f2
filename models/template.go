package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// PageAccessPrefix namespaces permission codes that gate whole pages. Only
// codes under this prefix are consulted by the request-time gate; templates
// may carry other codes but the gate ignores them.
const PageAccessPrefix = "page_access."

// IsPageAccessCode reports whether the code is in the page-access namespace
func IsPageAccessCode(code string) bool {
	return strings.HasPrefix(code, PageAccessPrefix)
}

// PermissionTemplate is a named, reusable denial profile assignable to an
// individual employee, independent of the employee's role.
type PermissionTemplate struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the PermissionTemplate model
func (PermissionTemplate) TableName() string {
	return "permission_templates"
}

// NewPermissionTemplate creates a new PermissionTemplate instance
func NewPermissionTemplate(name, description string) *PermissionTemplate {
	now := time.Now()
	return &PermissionTemplate{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// PermissionTemplateRestriction denies a permission code to everyone the
// template is assigned to. Same reverse-logic polarity as RoleRestriction.
type PermissionTemplateRestriction struct {
	ID             uuid.UUID `json:"id" db:"id"`
	TemplateID     uuid.UUID `json:"template_id" db:"template_id"`
	PermissionCode string    `json:"permission_code" db:"permission_code"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the PermissionTemplateRestriction model
func (PermissionTemplateRestriction) TableName() string {
	return "permission_template_restrictions"
}

// NewPermissionTemplateRestriction creates a new PermissionTemplateRestriction instance
func NewPermissionTemplateRestriction(templateID uuid.UUID, permissionCode string) *PermissionTemplateRestriction {
	return &PermissionTemplateRestriction{
		ID:             uuid.New(),
		TemplateID:     templateID,
		PermissionCode: permissionCode,
		CreatedAt:      time.Now(),
	}
}
