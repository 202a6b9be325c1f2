package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/storeops/access-engine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTemplateRepositoryPageAccessCodes(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTemplateRepository(db, zap.NewNop())
	templateID := uuid.New()

	t.Run("filters to the page_access namespace in SQL", func(t *testing.T) {
		mock.ExpectQuery(`SELECT permission_code FROM permission_template_restrictions`).
			WithArgs(templateID, "page_access.%").
			WillReturnRows(sqlmock.NewRows([]string{"permission_code"}).
				AddRow("page_access.dashboard").
				AddRow("page_access.reports"))

		codes, err := repo.PageAccessCodes(context.Background(), templateID)
		require.NoError(t, err)
		assert.Equal(t, []string{"page_access.dashboard", "page_access.reports"}, codes)
	})

	t.Run("template with no page codes yields empty", func(t *testing.T) {
		mock.ExpectQuery(`SELECT permission_code FROM permission_template_restrictions`).
			WithArgs(templateID, "page_access.%").
			WillReturnRows(sqlmock.NewRows([]string{"permission_code"}))

		codes, err := repo.PageAccessCodes(context.Background(), templateID)
		require.NoError(t, err)
		assert.Empty(t, codes)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTemplateRepositoryInsertRestriction(t *testing.T) {
	t.Run("duplicate key is a successful no-op", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewTemplateRepository(db, zap.NewNop())

		restriction := models.NewPermissionTemplateRestriction(uuid.New(), "page_access.reports")

		mock.ExpectExec(`INSERT INTO permission_template_restrictions`).
			WillReturnError(&pq.Error{Code: "23505"})

		err := repo.InsertRestriction(context.Background(), restriction)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTemplateRepositoryGetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTemplateRepository(db, zap.NewNop())
	template := models.NewPermissionTemplate("floor-staff", "restricts back-office pages")

	mock.ExpectQuery(`SELECT id, name, description, is_active, created_at, updated_at`).
		WithArgs(template.ID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "is_active", "created_at", "updated_at"}).
			AddRow(template.ID, template.Name, template.Description, template.IsActive, template.CreatedAt, template.UpdatedAt))

	got, err := repo.GetByID(context.Background(), template.ID)
	require.NoError(t, err)
	assert.Equal(t, template.Name, got.Name)
	assert.True(t, got.IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmployeeRepositoryPermissionID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEmployeeRepository(db, zap.NewNop())
	employeeID := uuid.New()
	templateID := uuid.New()

	t.Run("assigned template", func(t *testing.T) {
		mock.ExpectQuery(`SELECT permission_id FROM employees`).
			WithArgs(employeeID).
			WillReturnRows(sqlmock.NewRows([]string{"permission_id"}).AddRow(templateID.String()))

		got, err := repo.PermissionID(context.Background(), employeeID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, templateID, *got)
	})

	t.Run("no template assigned", func(t *testing.T) {
		mock.ExpectQuery(`SELECT permission_id FROM employees`).
			WithArgs(employeeID).
			WillReturnRows(sqlmock.NewRows([]string{"permission_id"}).AddRow(nil))

		got, err := repo.PermissionID(context.Background(), employeeID)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
