package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/storeops/access-engine/models"
)

// TransactionManager manages database transactions following the GrantPulse pattern
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns the transaction context
	Context() context.Context
}

// DefinitionFilter narrows a permission definition listing
type DefinitionFilter struct {
	CategoryID   *uuid.UUID
	CategoryName string // matches PermissionCategory.NameEN
	ActiveOnly   bool
}

// CatalogRepository handles the permission reference data: categories and
// definitions. Catalog rows are soft-deactivated, never deleted.
type CatalogRepository interface {
	// CreateCategory creates a new permission category
	CreateCategory(ctx context.Context, category *models.PermissionCategory) error

	// UpdateCategory updates a permission category
	UpdateCategory(ctx context.Context, category *models.PermissionCategory) error

	// DeactivateCategory soft-deactivates a category
	DeactivateCategory(ctx context.Context, id uuid.UUID) error

	// ListCategories lists categories for a surface, ordered by sort_order
	ListCategories(ctx context.Context, parentType models.ParentType, activeOnly bool) ([]*models.PermissionCategory, error)

	// CreateDefinition creates a new permission definition
	CreateDefinition(ctx context.Context, def *models.PermissionDefinition) error

	// UpdateDefinition updates a permission definition
	UpdateDefinition(ctx context.Context, def *models.PermissionDefinition) error

	// DeactivateDefinition soft-deactivates a definition
	DeactivateDefinition(ctx context.Context, id uuid.UUID) error

	// ListDefinitions lists definitions matching the filter, ordered by sort_order
	ListDefinitions(ctx context.Context, filter DefinitionFilter) ([]*models.PermissionDefinition, error)

	// CodeExists reports whether an active definition with the code exists
	CodeExists(ctx context.Context, code string) (bool, error)

	// WithTx returns a new repository instance bound to the transaction
	WithTx(tx Transaction) CatalogRepository
}

// RestrictionRepository handles role-scoped restriction rows. Row existence
// denies the code to the role; the only writes are insert and delete.
type RestrictionRepository interface {
	// Exists reports whether a restriction row exists for (role, code)
	Exists(ctx context.Context, roleID, code string) (bool, error)

	// Codes returns all restricted codes for a role
	Codes(ctx context.Context, roleID string) ([]string, error)

	// Insert inserts a restriction row. A duplicate-key violation on
	// (role_id, permission_code) is treated as success: the net state is
	// already correct, so concurrent toggles never surface it.
	Insert(ctx context.Context, restriction *models.RoleRestriction) error

	// Delete removes the restriction row for (role, code).
	// Returns false when no row existed.
	Delete(ctx context.Context, roleID, code string) (bool, error)

	// InsertMissing inserts only the codes not yet restricted for the role,
	// as a single batch. Returns the number of rows inserted.
	InsertMissing(ctx context.Context, roleID string, codes []string, createdBy string) (int, error)

	// DeleteAll removes all given codes for the role as a single batch.
	// Returns the number of rows deleted.
	DeleteAll(ctx context.Context, roleID string, codes []string) (int, error)

	// WithTx returns a new repository instance bound to the transaction
	WithTx(tx Transaction) RestrictionRepository
}

// TemplateRepository handles permission templates and their restriction rows
type TemplateRepository interface {
	// Create creates a new permission template
	Create(ctx context.Context, template *models.PermissionTemplate) error

	// Update updates a permission template
	Update(ctx context.Context, template *models.PermissionTemplate) error

	// Deactivate soft-deactivates a template
	Deactivate(ctx context.Context, id uuid.UUID) error

	// GetByID retrieves a template by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.PermissionTemplate, error)

	// List retrieves templates, optionally only active ones
	List(ctx context.Context, activeOnly bool) ([]*models.PermissionTemplate, error)

	// RestrictionExists reports whether a restriction row exists for (template, code)
	RestrictionExists(ctx context.Context, templateID uuid.UUID, code string) (bool, error)

	// RestrictionCodes returns all restricted codes for a template
	RestrictionCodes(ctx context.Context, templateID uuid.UUID) ([]string, error)

	// PageAccessCodes returns the template's restricted codes narrowed to
	// the page_access. namespace, the only codes the request gate consults
	PageAccessCodes(ctx context.Context, templateID uuid.UUID) ([]string, error)

	// InsertRestriction inserts a template restriction row; duplicate-key
	// violations are treated as success, matching the role store
	InsertRestriction(ctx context.Context, restriction *models.PermissionTemplateRestriction) error

	// DeleteRestriction removes the restriction row for (template, code).
	// Returns false when no row existed.
	DeleteRestriction(ctx context.Context, templateID uuid.UUID, code string) (bool, error)

	// WithTx returns a new repository instance bound to the transaction
	WithTx(tx Transaction) TemplateRepository
}

// EmployeeRepository handles employee identity records
type EmployeeRepository interface {
	// Create creates a new employee
	Create(ctx context.Context, employee *models.Employee) error

	// Update updates an employee
	Update(ctx context.Context, employee *models.Employee) error

	// GetByID retrieves an employee by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.Employee, error)

	// GetByEmail retrieves an employee by email
	GetByEmail(ctx context.Context, email string) (*models.Employee, error)

	// PermissionID returns the employee's assigned template ID, or nil when
	// no template is assigned
	PermissionID(ctx context.Context, employeeID uuid.UUID) (*uuid.UUID, error)

	// AssignTemplate sets or clears the employee's template assignment
	AssignTemplate(ctx context.Context, employeeID uuid.UUID, templateID *uuid.UUID) error

	// List retrieves all employees
	List(ctx context.Context, limit, offset int) ([]*models.Employee, error)

	// WithTx returns a new repository instance bound to the transaction
	WithTx(tx Transaction) EmployeeRepository
}

// AuditRepository records restriction writes
type AuditRepository interface {
	// Insert inserts a new audit entry
	Insert(ctx context.Context, entry *models.RestrictionAuditEntry) error

	// ListByScope retrieves audit entries for a role or template scope with pagination
	ListByScope(ctx context.Context, scope string, limit, offset int) ([]*models.RestrictionAuditEntry, error)

	// WithTx returns a new repository instance bound to the transaction
	WithTx(tx Transaction) AuditRepository
}

// Repositories holds all repository instances
type Repositories struct {
	Catalog      CatalogRepository
	Restrictions RestrictionRepository
	Templates    TemplateRepository
	Employees    EmployeeRepository
	AuditLog     AuditRepository
}
