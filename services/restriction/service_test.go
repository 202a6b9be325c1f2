package restriction

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/storeops/access-engine/models"
	"github.com/storeops/access-engine/repositories"
	"github.com/storeops/access-engine/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockRestrictionRepository is a mock implementation of RestrictionRepository
type MockRestrictionRepository struct {
	mock.Mock
}

func (m *MockRestrictionRepository) Exists(ctx context.Context, roleID, code string) (bool, error) {
	args := m.Called(ctx, roleID, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockRestrictionRepository) Codes(ctx context.Context, roleID string) ([]string, error) {
	args := m.Called(ctx, roleID)
	if codes := args.Get(0); codes != nil {
		return codes.([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRestrictionRepository) Insert(ctx context.Context, restriction *models.RoleRestriction) error {
	args := m.Called(ctx, restriction)
	return args.Error(0)
}

func (m *MockRestrictionRepository) Delete(ctx context.Context, roleID, code string) (bool, error) {
	args := m.Called(ctx, roleID, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockRestrictionRepository) InsertMissing(ctx context.Context, roleID string, codes []string, createdBy string) (int, error) {
	args := m.Called(ctx, roleID, codes, createdBy)
	return args.Int(0), args.Error(1)
}

func (m *MockRestrictionRepository) DeleteAll(ctx context.Context, roleID string, codes []string) (int, error) {
	args := m.Called(ctx, roleID, codes)
	return args.Int(0), args.Error(1)
}

func (m *MockRestrictionRepository) WithTx(tx repositories.Transaction) repositories.RestrictionRepository {
	args := m.Called(tx)
	return args.Get(0).(repositories.RestrictionRepository)
}

// MockTemplateRepository is a mock implementation of TemplateRepository
type MockTemplateRepository struct {
	mock.Mock
}

func (m *MockTemplateRepository) Create(ctx context.Context, template *models.PermissionTemplate) error {
	args := m.Called(ctx, template)
	return args.Error(0)
}

func (m *MockTemplateRepository) Update(ctx context.Context, template *models.PermissionTemplate) error {
	args := m.Called(ctx, template)
	return args.Error(0)
}

func (m *MockTemplateRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTemplateRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.PermissionTemplate, error) {
	args := m.Called(ctx, id)
	if template := args.Get(0); template != nil {
		return template.(*models.PermissionTemplate), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTemplateRepository) List(ctx context.Context, activeOnly bool) ([]*models.PermissionTemplate, error) {
	args := m.Called(ctx, activeOnly)
	if templates := args.Get(0); templates != nil {
		return templates.([]*models.PermissionTemplate), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTemplateRepository) RestrictionExists(ctx context.Context, templateID uuid.UUID, code string) (bool, error) {
	args := m.Called(ctx, templateID, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockTemplateRepository) RestrictionCodes(ctx context.Context, templateID uuid.UUID) ([]string, error) {
	args := m.Called(ctx, templateID)
	if codes := args.Get(0); codes != nil {
		return codes.([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTemplateRepository) PageAccessCodes(ctx context.Context, templateID uuid.UUID) ([]string, error) {
	args := m.Called(ctx, templateID)
	if codes := args.Get(0); codes != nil {
		return codes.([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTemplateRepository) InsertRestriction(ctx context.Context, restriction *models.PermissionTemplateRestriction) error {
	args := m.Called(ctx, restriction)
	return args.Error(0)
}

func (m *MockTemplateRepository) DeleteRestriction(ctx context.Context, templateID uuid.UUID, code string) (bool, error) {
	args := m.Called(ctx, templateID, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockTemplateRepository) WithTx(tx repositories.Transaction) repositories.TemplateRepository {
	args := m.Called(tx)
	return args.Get(0).(repositories.TemplateRepository)
}

// MockCatalogRepository is a mock implementation of CatalogRepository
type MockCatalogRepository struct {
	mock.Mock
}

func (m *MockCatalogRepository) CreateCategory(ctx context.Context, category *models.PermissionCategory) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

func (m *MockCatalogRepository) UpdateCategory(ctx context.Context, category *models.PermissionCategory) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

func (m *MockCatalogRepository) DeactivateCategory(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCatalogRepository) ListCategories(ctx context.Context, parentType models.ParentType, activeOnly bool) ([]*models.PermissionCategory, error) {
	args := m.Called(ctx, parentType, activeOnly)
	if categories := args.Get(0); categories != nil {
		return categories.([]*models.PermissionCategory), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCatalogRepository) CreateDefinition(ctx context.Context, def *models.PermissionDefinition) error {
	args := m.Called(ctx, def)
	return args.Error(0)
}

func (m *MockCatalogRepository) UpdateDefinition(ctx context.Context, def *models.PermissionDefinition) error {
	args := m.Called(ctx, def)
	return args.Error(0)
}

func (m *MockCatalogRepository) DeactivateDefinition(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCatalogRepository) ListDefinitions(ctx context.Context, filter repositories.DefinitionFilter) ([]*models.PermissionDefinition, error) {
	args := m.Called(ctx, filter)
	if defs := args.Get(0); defs != nil {
		return defs.([]*models.PermissionDefinition), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCatalogRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockCatalogRepository) WithTx(tx repositories.Transaction) repositories.CatalogRepository {
	args := m.Called(tx)
	return args.Get(0).(repositories.CatalogRepository)
}

// MockAuditRepository is a mock implementation of AuditRepository
type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Insert(ctx context.Context, entry *models.RestrictionAuditEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAuditRepository) ListByScope(ctx context.Context, scope string, limit, offset int) ([]*models.RestrictionAuditEntry, error) {
	args := m.Called(ctx, scope, limit, offset)
	if entries := args.Get(0); entries != nil {
		return entries.([]*models.RestrictionAuditEntry), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuditRepository) WithTx(tx repositories.Transaction) repositories.AuditRepository {
	args := m.Called(tx)
	return args.Get(0).(repositories.AuditRepository)
}

// fakeTxManager runs the transactional function inline
type fakeTxManager struct{}

func (fakeTxManager) Begin(ctx context.Context) (repositories.Transaction, error) {
	return fakeTx{ctx: ctx}, nil
}

func (fakeTxManager) InTransaction(ctx context.Context, fn func(ctx context.Context, tx repositories.Transaction) error) error {
	return fn(ctx, fakeTx{ctx: ctx})
}

type fakeTx struct{ ctx context.Context }

func (fakeTx) Commit() error              { return nil }
func (fakeTx) Rollback() error            { return nil }
func (t fakeTx) Context() context.Context { return t.ctx }

type serviceMocks struct {
	restrictions *MockRestrictionRepository
	templates    *MockTemplateRepository
	catalog      *MockCatalogRepository
	audit        *MockAuditRepository
}

func newService() (*Service, serviceMocks) {
	m := serviceMocks{
		restrictions: new(MockRestrictionRepository),
		templates:    new(MockTemplateRepository),
		catalog:      new(MockCatalogRepository),
		audit:        new(MockAuditRepository),
	}
	svc := NewService(m.restrictions, m.templates, m.catalog, m.audit, fakeTxManager{}, zap.NewNop())
	return svc, m
}

func TestIsRestricted(t *testing.T) {
	t.Run("administrator is never restricted and never queries the store", func(t *testing.T) {
		svc, m := newService()

		restricted, err := svc.IsRestricted(context.Background(), models.RoleAdmin, "reports.export")
		require.NoError(t, err)
		assert.False(t, restricted)
		m.restrictions.AssertNotCalled(t, "Exists", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("role without a restriction scope answers allowed", func(t *testing.T) {
		svc, m := newService()

		restricted, err := svc.IsRestricted(context.Background(), models.RoleCustomer, "reports.export")
		require.NoError(t, err)
		assert.False(t, restricted)
		m.restrictions.AssertNotCalled(t, "Exists", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("row presence is a denial", func(t *testing.T) {
		svc, m := newService()
		m.restrictions.On("Exists", mock.Anything, "employee", "reports.export").Return(true, nil)

		state, err := svc.StateOf(context.Background(), models.RoleEmployee, "reports.export")
		require.NoError(t, err)
		assert.Equal(t, models.PermissionDenied, state)
	})

	t.Run("row absence is the default allow", func(t *testing.T) {
		svc, m := newService()
		m.restrictions.On("Exists", mock.Anything, "manager", "orders.view").Return(false, nil)

		state, err := svc.StateOf(context.Background(), models.RoleManager, "orders.view")
		require.NoError(t, err)
		assert.Equal(t, models.PermissionAllowed, state)
	})
}

func TestToggle(t *testing.T) {
	t.Run("toggling an allowed code denies it", func(t *testing.T) {
		svc, m := newService()
		m.restrictions.On("Exists", mock.Anything, "employee", "reports.export").Return(false, nil)
		m.catalog.On("CodeExists", mock.Anything, "reports.export").Return(true, nil)
		m.restrictions.On("Insert", mock.Anything, mock.MatchedBy(func(r *models.RoleRestriction) bool {
			return r.RoleID == "employee" && r.PermissionCode == "reports.export" && r.CreatedBy == "admin@store.test"
		})).Return(nil)
		m.audit.On("Insert", mock.Anything, mock.MatchedBy(func(e *models.RestrictionAuditEntry) bool {
			return e.Action == models.AuditActionRestrict && e.Scope == "employee"
		})).Return(nil)

		state, err := svc.Toggle(context.Background(), models.RoleEmployee, "reports.export", "admin@store.test")
		require.NoError(t, err)
		assert.Equal(t, models.PermissionDenied, state)
		m.restrictions.AssertExpectations(t)
		m.audit.AssertExpectations(t)
	})

	t.Run("toggling a denied code allows it again", func(t *testing.T) {
		svc, m := newService()
		m.restrictions.On("Exists", mock.Anything, "employee", "reports.export").Return(true, nil)
		m.restrictions.On("Delete", mock.Anything, "employee", "reports.export").Return(true, nil)
		m.audit.On("Insert", mock.Anything, mock.MatchedBy(func(e *models.RestrictionAuditEntry) bool {
			return e.Action == models.AuditActionUnrestrict
		})).Return(nil)

		state, err := svc.Toggle(context.Background(), models.RoleEmployee, "reports.export", "admin@store.test")
		require.NoError(t, err)
		assert.Equal(t, models.PermissionAllowed, state)
	})

	t.Run("administrator restrictions are immutable", func(t *testing.T) {
		svc, _ := newService()

		_, err := svc.Toggle(context.Background(), models.RoleAdmin, "reports.export", "admin@store.test")
		assert.True(t, services.IsForbiddenError(err))
	})

	t.Run("unknown code is rejected at the write boundary", func(t *testing.T) {
		svc, m := newService()
		m.restrictions.On("Exists", mock.Anything, "employee", "reports.exprot").Return(false, nil)
		m.catalog.On("CodeExists", mock.Anything, "reports.exprot").Return(false, nil)

		_, err := svc.Toggle(context.Background(), models.RoleEmployee, "reports.exprot", "admin@store.test")
		assert.True(t, services.IsValidationError(err))
		m.restrictions.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	})

	t.Run("failed audit write does not fail the toggle", func(t *testing.T) {
		svc, m := newService()
		m.restrictions.On("Exists", mock.Anything, "employee", "reports.export").Return(true, nil)
		m.restrictions.On("Delete", mock.Anything, "employee", "reports.export").Return(true, nil)
		m.audit.On("Insert", mock.Anything, mock.Anything).Return(assert.AnError)

		state, err := svc.Toggle(context.Background(), models.RoleEmployee, "reports.export", "admin@store.test")
		require.NoError(t, err)
		assert.Equal(t, models.PermissionAllowed, state)
	})
}

func TestRestrictAll(t *testing.T) {
	t.Run("only codes not yet restricted are inserted and audited", func(t *testing.T) {
		svc, m := newService()

		for _, code := range []string{"a", "b", "c"} {
			m.catalog.On("CodeExists", mock.Anything, code).Return(true, nil)
		}
		m.restrictions.On("Codes", mock.Anything, "employee").Return([]string{"a"}, nil)
		m.restrictions.On("InsertMissing", mock.Anything, "employee", []string{"b", "c"}, "admin@store.test").Return(2, nil)
		m.audit.On("Insert", mock.Anything, mock.Anything).Return(nil).Twice()

		added, err := svc.RestrictAll(context.Background(), models.RoleEmployee, []string{"a", "b", "c"}, "admin@store.test")
		require.NoError(t, err)
		assert.Equal(t, 2, added)
		m.restrictions.AssertExpectations(t)
		m.audit.AssertExpectations(t)
	})

	t.Run("fully restricted batch is a no-op", func(t *testing.T) {
		svc, m := newService()

		for _, code := range []string{"a", "b"} {
			m.catalog.On("CodeExists", mock.Anything, code).Return(true, nil)
		}
		m.restrictions.On("Codes", mock.Anything, "employee").Return([]string{"a", "b"}, nil)

		added, err := svc.RestrictAll(context.Background(), models.RoleEmployee, []string{"a", "b"}, "admin@store.test")
		require.NoError(t, err)
		assert.Equal(t, 0, added)
		m.restrictions.AssertNotCalled(t, "InsertMissing", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("empty batch is rejected", func(t *testing.T) {
		svc, _ := newService()

		_, err := svc.RestrictAll(context.Background(), models.RoleEmployee, nil, "admin@store.test")
		assert.True(t, services.IsValidationError(err))
	})

	t.Run("one unknown code rejects the whole batch", func(t *testing.T) {
		svc, m := newService()

		m.catalog.On("CodeExists", mock.Anything, "a").Return(true, nil)
		m.catalog.On("CodeExists", mock.Anything, "nope").Return(false, nil)

		_, err := svc.RestrictAll(context.Background(), models.RoleEmployee, []string{"a", "nope"}, "admin@store.test")
		assert.True(t, services.IsValidationError(err))
		m.restrictions.AssertNotCalled(t, "InsertMissing", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestUnrestrictAll(t *testing.T) {
	t.Run("only currently restricted codes are deleted", func(t *testing.T) {
		svc, m := newService()

		m.restrictions.On("Codes", mock.Anything, "manager").Return([]string{"a", "c"}, nil)
		m.restrictions.On("DeleteAll", mock.Anything, "manager", []string{"a", "c"}).Return(2, nil)
		m.audit.On("Insert", mock.Anything, mock.Anything).Return(nil).Twice()

		removed, err := svc.UnrestrictAll(context.Background(), models.RoleManager, []string{"a", "b", "c"}, "admin@store.test")
		require.NoError(t, err)
		assert.Equal(t, 2, removed)
	})

	t.Run("nothing restricted means nothing deleted", func(t *testing.T) {
		svc, m := newService()

		m.restrictions.On("Codes", mock.Anything, "manager").Return(nil, nil)

		removed, err := svc.UnrestrictAll(context.Background(), models.RoleManager, []string{"a"}, "admin@store.test")
		require.NoError(t, err)
		assert.Equal(t, 0, removed)
		m.restrictions.AssertNotCalled(t, "DeleteAll", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestEffectiveDenials(t *testing.T) {
	t.Run("administrator has an empty denial set without store queries", func(t *testing.T) {
		svc, m := newService()
		admin := models.NewEmployee("root@store.test", "Root", "hash", models.RoleAdmin)

		denied, err := svc.EffectiveDenials(context.Background(), admin)
		require.NoError(t, err)
		assert.Empty(t, denied)
		m.restrictions.AssertNotCalled(t, "Codes", mock.Anything, mock.Anything)
		m.templates.AssertNotCalled(t, "RestrictionCodes", mock.Anything, mock.Anything)
	})

	t.Run("union of role and template denials", func(t *testing.T) {
		svc, m := newService()
		templateID := uuid.New()
		employee := models.NewEmployee("clerk@store.test", "Clerk", "hash", models.RoleEmployee)
		employee.PermissionID = &templateID

		m.restrictions.On("Codes", mock.Anything, "employee").Return([]string{"reports.export", "orders.cancel"}, nil)
		m.templates.On("RestrictionCodes", mock.Anything, templateID).Return([]string{"orders.cancel", "page_access.reports"}, nil)

		denied, err := svc.EffectiveDenials(context.Background(), employee)
		require.NoError(t, err)
		assert.Len(t, denied, 3)
		assert.True(t, denied.Contains("reports.export"))
		assert.True(t, denied.Contains("orders.cancel"))
		assert.True(t, denied.Contains("page_access.reports"))
	})

	t.Run("no template means role denials only", func(t *testing.T) {
		svc, m := newService()
		employee := models.NewEmployee("clerk@store.test", "Clerk", "hash", models.RoleEmployee)

		m.restrictions.On("Codes", mock.Anything, "employee").Return([]string{"reports.export"}, nil)

		denied, err := svc.EffectiveDenials(context.Background(), employee)
		require.NoError(t, err)
		assert.Len(t, denied, 1)
		m.templates.AssertNotCalled(t, "RestrictionCodes", mock.Anything, mock.Anything)
	})
}
