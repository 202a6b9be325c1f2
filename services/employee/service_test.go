package employee

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/storeops/access-engine/models"
	"github.com/storeops/access-engine/repositories"
	"github.com/storeops/access-engine/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// MockEmployeeRepository is a mock implementation of EmployeeRepository
type MockEmployeeRepository struct {
	mock.Mock
}

func (m *MockEmployeeRepository) Create(ctx context.Context, employee *models.Employee) error {
	args := m.Called(ctx, employee)
	return args.Error(0)
}

func (m *MockEmployeeRepository) Update(ctx context.Context, employee *models.Employee) error {
	args := m.Called(ctx, employee)
	return args.Error(0)
}

func (m *MockEmployeeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Employee, error) {
	args := m.Called(ctx, id)
	if employee := args.Get(0); employee != nil {
		return employee.(*models.Employee), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockEmployeeRepository) GetByEmail(ctx context.Context, email string) (*models.Employee, error) {
	args := m.Called(ctx, email)
	if employee := args.Get(0); employee != nil {
		return employee.(*models.Employee), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockEmployeeRepository) PermissionID(ctx context.Context, employeeID uuid.UUID) (*uuid.UUID, error) {
	args := m.Called(ctx, employeeID)
	if id := args.Get(0); id != nil {
		return id.(*uuid.UUID), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockEmployeeRepository) AssignTemplate(ctx context.Context, employeeID uuid.UUID, templateID *uuid.UUID) error {
	args := m.Called(ctx, employeeID, templateID)
	return args.Error(0)
}

func (m *MockEmployeeRepository) List(ctx context.Context, limit, offset int) ([]*models.Employee, error) {
	args := m.Called(ctx, limit, offset)
	if employees := args.Get(0); employees != nil {
		return employees.([]*models.Employee), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockEmployeeRepository) WithTx(tx repositories.Transaction) repositories.EmployeeRepository {
	args := m.Called(tx)
	return args.Get(0).(repositories.EmployeeRepository)
}

func TestCreate(t *testing.T) {
	t.Run("hashes the password and lowercases the email", func(t *testing.T) {
		repo := new(MockEmployeeRepository)
		svc := NewService(repo, zap.NewNop())

		repo.On("Create", mock.Anything, mock.MatchedBy(func(e *models.Employee) bool {
			return e.Email == "clerk@store.test" &&
				e.PasswordHash != "hunter2-longer" &&
				bcrypt.CompareHashAndPassword([]byte(e.PasswordHash), []byte("hunter2-longer")) == nil
		})).Return(nil)

		employee, err := svc.Create(context.Background(), CreateInput{
			Email:    " Clerk@Store.Test ",
			Name:     "Clerk",
			Password: "hunter2-longer",
			Role:     models.RoleEmployee,
		})

		require.NoError(t, err)
		assert.Equal(t, "clerk@store.test", employee.Email)
		repo.AssertExpectations(t)
	})

	t.Run("rejects short passwords", func(t *testing.T) {
		repo := new(MockEmployeeRepository)
		svc := NewService(repo, zap.NewNop())

		_, err := svc.Create(context.Background(), CreateInput{
			Email:    "clerk@store.test",
			Password: "short",
			Role:     models.RoleEmployee,
		})

		assert.True(t, services.IsValidationError(err))
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("rejects unknown role", func(t *testing.T) {
		repo := new(MockEmployeeRepository)
		svc := NewService(repo, zap.NewNop())

		_, err := svc.Create(context.Background(), CreateInput{
			Email:    "clerk@store.test",
			Password: "hunter2-longer",
			Role:     "superuser",
		})

		assert.True(t, services.IsValidationError(err))
	})

	t.Run("duplicate email is a conflict", func(t *testing.T) {
		repo := new(MockEmployeeRepository)
		svc := NewService(repo, zap.NewNop())

		repo.On("Create", mock.Anything, mock.Anything).
			Return(errors.New("employee email already exists: clerk@store.test"))

		_, err := svc.Create(context.Background(), CreateInput{
			Email:    "clerk@store.test",
			Password: "hunter2-longer",
			Role:     models.RoleEmployee,
		})

		assert.True(t, services.IsConflictError(err))
	})
}

func TestAuthenticate(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2-longer"), bcrypt.MinCost)
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		repo := new(MockEmployeeRepository)
		svc := NewService(repo, zap.NewNop())

		stored := models.NewEmployee("clerk@store.test", "Clerk", string(hash), models.RoleEmployee)
		repo.On("GetByEmail", mock.Anything, "clerk@store.test").Return(stored, nil)

		employee, err := svc.Authenticate(context.Background(), "Clerk@Store.Test", "hunter2-longer")
		require.NoError(t, err)
		assert.Equal(t, stored.ID, employee.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		repo := new(MockEmployeeRepository)
		svc := NewService(repo, zap.NewNop())

		stored := models.NewEmployee("clerk@store.test", "Clerk", string(hash), models.RoleEmployee)
		repo.On("GetByEmail", mock.Anything, "clerk@store.test").Return(stored, nil)

		_, err := svc.Authenticate(context.Background(), "clerk@store.test", "wrong")
		assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	})

	t.Run("unknown email reads the same as wrong password", func(t *testing.T) {
		repo := new(MockEmployeeRepository)
		svc := NewService(repo, zap.NewNop())

		repo.On("GetByEmail", mock.Anything, "ghost@store.test").Return(nil, errors.New("employee not found"))

		_, err := svc.Authenticate(context.Background(), "ghost@store.test", "whatever")
		assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	})

	t.Run("deactivated account is forbidden", func(t *testing.T) {
		repo := new(MockEmployeeRepository)
		svc := NewService(repo, zap.NewNop())

		stored := models.NewEmployee("clerk@store.test", "Clerk", string(hash), models.RoleEmployee)
		stored.IsActive = false
		repo.On("GetByEmail", mock.Anything, "clerk@store.test").Return(stored, nil)

		_, err := svc.Authenticate(context.Background(), "clerk@store.test", "hunter2-longer")
		assert.True(t, services.IsForbiddenError(err))
	})
}

func TestChangeRole(t *testing.T) {
	repo := new(MockEmployeeRepository)
	svc := NewService(repo, zap.NewNop())

	stored := models.NewEmployee("clerk@store.test", "Clerk", "hash", models.RoleEmployee)
	repo.On("GetByID", mock.Anything, stored.ID).Return(stored, nil)
	repo.On("Update", mock.Anything, mock.MatchedBy(func(e *models.Employee) bool {
		return e.Role == models.RoleManager
	})).Return(nil)

	employee, err := svc.ChangeRole(context.Background(), stored.ID, models.RoleManager)
	require.NoError(t, err)
	assert.Equal(t, models.RoleManager, employee.Role)
	repo.AssertExpectations(t)
}
