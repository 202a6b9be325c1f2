package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/storeops/access-engine/models"
	"github.com/storeops/access-engine/repositories"
	"go.uber.org/zap"
)

// EmployeeRepository implements the repositories.EmployeeRepository interface
type EmployeeRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewEmployeeRepository creates a new employee repository
func NewEmployeeRepository(db *DB, logger *zap.Logger) repositories.EmployeeRepository {
	return &EmployeeRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new employee
func (r *EmployeeRepository) Create(ctx context.Context, employee *models.Employee) error {
	query := `
		INSERT INTO employees (id, email, name, password_hash, role, permission_id, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		employee.ID,
		employee.Email,
		employee.Name,
		employee.PasswordHash,
		employee.Role,
		employee.PermissionID,
		employee.IsActive,
		employee.CreatedAt,
		employee.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("employee email already exists: %s", employee.Email)
		}
		return fmt.Errorf("failed to create employee: %w", err)
	}

	r.logger.Debug("employee created", zap.String("id", employee.ID.String()))
	return nil
}

// Update updates an employee
func (r *EmployeeRepository) Update(ctx context.Context, employee *models.Employee) error {
	query := `
		UPDATE employees
		SET email = $2,
		    name = $3,
		    password_hash = $4,
		    role = $5,
		    permission_id = $6,
		    is_active = $7,
		    updated_at = $8
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query,
		employee.ID,
		employee.Email,
		employee.Name,
		employee.PasswordHash,
		employee.Role,
		employee.PermissionID,
		employee.IsActive,
		time.Now(),
	)

	if err != nil {
		return fmt.Errorf("failed to update employee: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("employee not found: %s", employee.ID)
	}

	r.logger.Debug("employee updated", zap.String("id", employee.ID.String()))
	return nil
}

// GetByID retrieves an employee by ID
func (r *EmployeeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Employee, error) {
	query := `
		SELECT id, email, name, password_hash, role, permission_id, is_active, created_at, updated_at
		FROM employees
		WHERE id = $1
	`
	return r.queryEmployee(ctx, query, id)
}

// GetByEmail retrieves an employee by email
func (r *EmployeeRepository) GetByEmail(ctx context.Context, email string) (*models.Employee, error) {
	query := `
		SELECT id, email, name, password_hash, role, permission_id, is_active, created_at, updated_at
		FROM employees
		WHERE email = $1
	`
	return r.queryEmployee(ctx, query, email)
}

// PermissionID returns the employee's assigned template ID, or nil when no
// template is assigned
func (r *EmployeeRepository) PermissionID(ctx context.Context, employeeID uuid.UUID) (*uuid.UUID, error) {
	query := `SELECT permission_id FROM employees WHERE id = $1`

	executor := GetExecutor(ctx, r.db)
	var permissionID *uuid.UUID
	err := executor.QueryRowContext(ctx, query, employeeID).Scan(&permissionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("employee not found: %s", employeeID)
		}
		return nil, fmt.Errorf("failed to get employee template: %w", err)
	}

	return permissionID, nil
}

// AssignTemplate sets or clears the employee's template assignment
func (r *EmployeeRepository) AssignTemplate(ctx context.Context, employeeID uuid.UUID, templateID *uuid.UUID) error {
	query := `UPDATE employees SET permission_id = $2, updated_at = $3 WHERE id = $1`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, employeeID, templateID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to assign template: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("employee not found: %s", employeeID)
	}

	r.logger.Debug("template assigned",
		zap.String("employee_id", employeeID.String()))
	return nil
}

// List retrieves all employees with pagination
func (r *EmployeeRepository) List(ctx context.Context, limit, offset int) ([]*models.Employee, error) {
	query := `
		SELECT id, email, name, password_hash, role, permission_id, is_active, created_at, updated_at
		FROM employees
		ORDER BY email
		LIMIT $1 OFFSET $2
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var employees []*models.Employee
	for rows.Next() {
		employee := &models.Employee{}
		err := rows.Scan(
			&employee.ID,
			&employee.Email,
			&employee.Name,
			&employee.PasswordHash,
			&employee.Role,
			&employee.PermissionID,
			&employee.IsActive,
			&employee.CreatedAt,
			&employee.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, employee)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating employee rows: %w", err)
	}

	return employees, nil
}

// WithTx returns a new repository instance bound to the transaction
func (r *EmployeeRepository) WithTx(tx repositories.Transaction) repositories.EmployeeRepository {
	return &EmployeeRepository{
		db:     r.db,
		logger: r.logger,
	}
}

// queryEmployee is a helper to query a single employee
func (r *EmployeeRepository) queryEmployee(ctx context.Context, query string, arg interface{}) (*models.Employee, error) {
	executor := GetExecutor(ctx, r.db)
	employee := &models.Employee{}

	err := executor.QueryRowContext(ctx, query, arg).Scan(
		&employee.ID,
		&employee.Email,
		&employee.Name,
		&employee.PasswordHash,
		&employee.Role,
		&employee.PermissionID,
		&employee.IsActive,
		&employee.CreatedAt,
		&employee.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("employee not found")
		}
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}

	return employee, nil
}
