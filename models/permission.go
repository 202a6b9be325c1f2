package models

import (
	"time"

	"github.com/google/uuid"
)

// ParentType separates the two catalog surfaces: the internal operations
// console ("admin") and the customer-facing storefront ("store").
type ParentType string

const (
	ParentTypeAdmin ParentType = "admin"
	ParentTypeStore ParentType = "store"
)

// Valid reports whether the parent type is a known surface
func (p ParentType) Valid() bool {
	return p == ParentTypeAdmin || p == ParentTypeStore
}

// PermissionType classifies what a permission definition controls
type PermissionType string

const (
	PermissionTypeButton  PermissionType = "button"
	PermissionTypeFeature PermissionType = "feature"
	PermissionTypeView    PermissionType = "view"
)

// Valid reports whether the permission type is a known value
func (p PermissionType) Valid() bool {
	switch p {
	case PermissionTypeButton, PermissionTypeFeature, PermissionTypeView:
		return true
	}
	return false
}

// PermissionCategory groups permission definitions for display
type PermissionCategory struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	Name       string     `json:"name" db:"name"`
	NameEN     string     `json:"name_en" db:"name_en"`
	Icon       string     `json:"icon" db:"icon"`
	SortOrder  int        `json:"sort_order" db:"sort_order"`
	IsActive   bool       `json:"is_active" db:"is_active"`
	ParentType ParentType `json:"parent_type" db:"parent_type"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the PermissionCategory model
func (PermissionCategory) TableName() string {
	return "permission_categories"
}

// NewPermissionCategory creates a new PermissionCategory instance
func NewPermissionCategory(name, nameEN string, parentType ParentType, sortOrder int) *PermissionCategory {
	now := time.Now()
	return &PermissionCategory{
		ID:         uuid.New(),
		Name:       name,
		NameEN:     nameEN,
		SortOrder:  sortOrder,
		IsActive:   true,
		ParentType: parentType,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// PermissionDefinition is a single controllable action or page. Code is the
// stable identifier referenced by restriction rows; restrictions store it as
// data, not as a foreign key.
type PermissionDefinition struct {
	ID             uuid.UUID      `json:"id" db:"id"`
	CategoryID     uuid.UUID      `json:"category_id" db:"category_id"`
	Code           string         `json:"code" db:"code"`
	Name           string         `json:"name" db:"name"`
	Description    string         `json:"description" db:"description"`
	PermissionType PermissionType `json:"permission_type" db:"permission_type"`
	SortOrder      int            `json:"sort_order" db:"sort_order"`
	IsActive       bool           `json:"is_active" db:"is_active"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the PermissionDefinition model
func (PermissionDefinition) TableName() string {
	return "permission_definitions"
}

// NewPermissionDefinition creates a new PermissionDefinition instance
func NewPermissionDefinition(categoryID uuid.UUID, code, name string, permType PermissionType, sortOrder int) *PermissionDefinition {
	now := time.Now()
	return &PermissionDefinition{
		ID:             uuid.New(),
		CategoryID:     categoryID,
		Code:           code,
		Name:           name,
		PermissionType: permType,
		SortOrder:      sortOrder,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
