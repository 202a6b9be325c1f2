package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is the small fixed enumeration of identity roles
type Role string

const (
	// RoleAdmin is the designated administrator role. It is never subject
	// to any restriction regardless of what rows exist.
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
	RoleCustomer Role = "customer"
)

// IsAdministrator reports whether the role bypasses all restrictions
func (r Role) IsAdministrator() bool {
	return r == RoleAdmin
}

// RestrictionScope returns the role-restriction scope the role's denial
// list lives under, and whether one exists. The administrator and
// customer-facing roles have no scope: the administrator bypasses all
// restrictions and customers are never mapped in the restriction table.
func (r Role) RestrictionScope() (string, bool) {
	switch r {
	case RoleManager, RoleEmployee:
		return string(r), true
	}
	return "", false
}

// Valid reports whether the role is one of the known values
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleEmployee, RoleCustomer:
		return true
	}
	return false
}

// Employee is an identity in the operations console. PermissionID optionally
// points at a PermissionTemplate that layers page-access denials under the
// role's denials.
type Employee struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	Name         string     `json:"name" db:"name"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Role         Role       `json:"role" db:"role"`
	PermissionID *uuid.UUID `json:"permission_id,omitempty" db:"permission_id"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Employee model
func (Employee) TableName() string {
	return "employees"
}

// NewEmployee creates a new Employee instance
func NewEmployee(email, name, passwordHash string, role Role) *Employee {
	now := time.Now()
	return &Employee{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// HasTemplate reports whether a permission template is assigned
func (e *Employee) HasTemplate() bool {
	return e.PermissionID != nil
}
