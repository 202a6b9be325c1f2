package employee

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/storeops/access-engine/models"
	"github.com/storeops/access-engine/repositories"
	"github.com/storeops/access-engine/services"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// CreateInput carries the fields for registering an employee
type CreateInput struct {
	Email    string
	Name     string
	Password string
	Role     models.Role
}

// Service manages employee identities and credential checks
type Service struct {
	employees repositories.EmployeeRepository
	logger    *zap.Logger
}

// NewService creates a new employee service
func NewService(employees repositories.EmployeeRepository, logger *zap.Logger) *Service {
	return &Service{
		employees: employees,
		logger:    logger,
	}
}

// Create registers a new employee with a bcrypt-hashed password
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Employee, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if !strings.Contains(email, "@") {
		return nil, services.NewDomainError(services.ErrorTypeValidation, "invalid email format", nil).
			WithDetail("email", in.Email)
	}
	if !in.Role.Valid() {
		return nil, services.NewDomainError(services.ErrorTypeValidation, "invalid role", nil).
			WithDetail("role", string(in.Role))
	}
	if len(in.Password) < minPasswordLength {
		return nil, services.NewDomainError(services.ErrorTypeValidation, "password too short", nil).
			WithDetail("min_length", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, services.WrapInternal("failed to hash password", err)
	}

	employee := models.NewEmployee(email, in.Name, string(hash), in.Role)
	if err := s.employees.Create(ctx, employee); err != nil {
		if strings.Contains(err.Error(), "already exists") {
			return nil, services.NewDomainError(services.ErrorTypeConflict, "email already exists", err).
				WithDetail("email", email)
		}
		return nil, services.WrapInternal("failed to create employee", err)
	}

	s.logger.Info("employee created",
		zap.String("id", employee.ID.String()),
		zap.String("role", string(employee.Role)))
	return employee, nil
}

// Authenticate verifies credentials and returns the employee. The same error
// covers unknown email and wrong password so responses don't leak which
// emails exist.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.Employee, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	employee, err := s.employees.GetByEmail(ctx, email)
	if err != nil {
		return nil, services.ErrInvalidCredentials
	}
	if !employee.IsActive {
		return nil, services.ErrEmployeeInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(employee.PasswordHash), []byte(password)); err != nil {
		s.logger.Debug("password mismatch", zap.String("employee_id", employee.ID.String()))
		return nil, services.ErrInvalidCredentials
	}

	return employee, nil
}

// Get retrieves an employee by ID
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Employee, error) {
	employee, err := s.employees.GetByID(ctx, id)
	if err != nil {
		return nil, services.WrapError(services.ErrorTypeNotFound, "employee not found", err)
	}
	return employee, nil
}

// List retrieves employees with pagination
func (s *Service) List(ctx context.Context, limit, offset int) ([]*models.Employee, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	employees, err := s.employees.List(ctx, limit, offset)
	if err != nil {
		return nil, services.WrapInternal("failed to list employees", err)
	}
	return employees, nil
}

// SetActive activates or deactivates an employee account
func (s *Service) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	employee, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	employee.IsActive = active
	if err := s.employees.Update(ctx, employee); err != nil {
		return services.WrapInternal("failed to update employee", err)
	}

	s.logger.Info("employee active flag changed",
		zap.String("id", id.String()),
		zap.Bool("active", active))
	return nil
}

// ChangeRole moves an employee to a different role. Restrictions are scoped
// by role, so the effective permissions change immediately with it.
func (s *Service) ChangeRole(ctx context.Context, id uuid.UUID, role models.Role) (*models.Employee, error) {
	if !role.Valid() {
		return nil, services.NewDomainError(services.ErrorTypeValidation, "invalid role", nil).
			WithDetail("role", string(role))
	}

	employee, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	employee.Role = role
	if err := s.employees.Update(ctx, employee); err != nil {
		return nil, services.WrapInternal("failed to update employee", err)
	}

	return employee, nil
}
