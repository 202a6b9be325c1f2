package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/storeops/access-engine/models"
	"github.com/storeops/access-engine/repositories"
	"go.uber.org/zap"
)

// CatalogRepository implements the repositories.CatalogRepository interface
type CatalogRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db *DB, logger *zap.Logger) repositories.CatalogRepository {
	return &CatalogRepository{
		db:     db,
		logger: logger,
	}
}

// CreateCategory creates a new permission category
func (r *CatalogRepository) CreateCategory(ctx context.Context, category *models.PermissionCategory) error {
	query := `
		INSERT INTO permission_categories (id, name, name_en, icon, sort_order, is_active, parent_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		category.ID,
		category.Name,
		category.NameEN,
		category.Icon,
		category.SortOrder,
		category.IsActive,
		category.ParentType,
		category.CreatedAt,
		category.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}

	r.logger.Debug("category created", zap.String("id", category.ID.String()))
	return nil
}

// UpdateCategory updates a permission category
func (r *CatalogRepository) UpdateCategory(ctx context.Context, category *models.PermissionCategory) error {
	query := `
		UPDATE permission_categories
		SET name = $2,
		    name_en = $3,
		    icon = $4,
		    sort_order = $5,
		    is_active = $6,
		    parent_type = $7,
		    updated_at = $8
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query,
		category.ID,
		category.Name,
		category.NameEN,
		category.Icon,
		category.SortOrder,
		category.IsActive,
		category.ParentType,
		time.Now(),
	)

	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("category not found: %s", category.ID)
	}

	r.logger.Debug("category updated", zap.String("id", category.ID.String()))
	return nil
}

// DeactivateCategory soft-deactivates a category
func (r *CatalogRepository) DeactivateCategory(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE permission_categories SET is_active = false, updated_at = $2 WHERE id = $1`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to deactivate category: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("category not found: %s", id)
	}

	r.logger.Debug("category deactivated", zap.String("id", id.String()))
	return nil
}

// ListCategories lists categories for a surface, ordered by sort_order
func (r *CatalogRepository) ListCategories(ctx context.Context, parentType models.ParentType, activeOnly bool) ([]*models.PermissionCategory, error) {
	query := `
		SELECT id, name, name_en, icon, sort_order, is_active, parent_type, created_at, updated_at
		FROM permission_categories
		WHERE parent_type = $1
	`
	if activeOnly {
		query += ` AND is_active = true`
	}
	query += ` ORDER BY sort_order, name_en`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, parentType)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []*models.PermissionCategory
	for rows.Next() {
		category := &models.PermissionCategory{}
		err := rows.Scan(
			&category.ID,
			&category.Name,
			&category.NameEN,
			&category.Icon,
			&category.SortOrder,
			&category.IsActive,
			&category.ParentType,
			&category.CreatedAt,
			&category.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category rows: %w", err)
	}

	return categories, nil
}

// CreateDefinition creates a new permission definition
func (r *CatalogRepository) CreateDefinition(ctx context.Context, def *models.PermissionDefinition) error {
	query := `
		INSERT INTO permission_definitions (id, category_id, code, name, description, permission_type, sort_order, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		def.ID,
		def.CategoryID,
		def.Code,
		def.Name,
		def.Description,
		def.PermissionType,
		def.SortOrder,
		def.IsActive,
		def.CreatedAt,
		def.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("permission code already exists: %s", def.Code)
		}
		return fmt.Errorf("failed to create definition: %w", err)
	}

	r.logger.Debug("definition created",
		zap.String("id", def.ID.String()),
		zap.String("code", def.Code))
	return nil
}

// UpdateDefinition updates a permission definition
func (r *CatalogRepository) UpdateDefinition(ctx context.Context, def *models.PermissionDefinition) error {
	query := `
		UPDATE permission_definitions
		SET category_id = $2,
		    name = $3,
		    description = $4,
		    permission_type = $5,
		    sort_order = $6,
		    is_active = $7,
		    updated_at = $8
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query,
		def.ID,
		def.CategoryID,
		def.Name,
		def.Description,
		def.PermissionType,
		def.SortOrder,
		def.IsActive,
		time.Now(),
	)

	if err != nil {
		return fmt.Errorf("failed to update definition: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("definition not found: %s", def.ID)
	}

	r.logger.Debug("definition updated", zap.String("id", def.ID.String()))
	return nil
}

// DeactivateDefinition soft-deactivates a definition
func (r *CatalogRepository) DeactivateDefinition(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE permission_definitions SET is_active = false, updated_at = $2 WHERE id = $1`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to deactivate definition: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("definition not found: %s", id)
	}

	r.logger.Debug("definition deactivated", zap.String("id", id.String()))
	return nil
}

// ListDefinitions lists definitions matching the filter, ordered by sort_order
func (r *CatalogRepository) ListDefinitions(ctx context.Context, filter repositories.DefinitionFilter) ([]*models.PermissionDefinition, error) {
	query := `
		SELECT d.id, d.category_id, d.code, d.name, d.description, d.permission_type, d.sort_order, d.is_active, d.created_at, d.updated_at
		FROM permission_definitions d
	`

	args := []interface{}{}
	where := ""
	addClause := func(clause string, arg interface{}) {
		args = append(args, arg)
		if where == "" {
			where = " WHERE "
		} else {
			where += " AND "
		}
		where += fmt.Sprintf(clause, len(args))
	}

	if filter.CategoryName != "" {
		query += ` JOIN permission_categories c ON c.id = d.category_id`
		addClause("c.name_en = $%d", filter.CategoryName)
	}
	if filter.CategoryID != nil {
		addClause("d.category_id = $%d", *filter.CategoryID)
	}
	if filter.ActiveOnly {
		if where == "" {
			where = " WHERE "
		} else {
			where += " AND "
		}
		where += "d.is_active = true"
	}

	query += where + ` ORDER BY d.sort_order, d.code`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query definitions: %w", err)
	}
	defer rows.Close()

	var defs []*models.PermissionDefinition
	for rows.Next() {
		def := &models.PermissionDefinition{}
		err := rows.Scan(
			&def.ID,
			&def.CategoryID,
			&def.Code,
			&def.Name,
			&def.Description,
			&def.PermissionType,
			&def.SortOrder,
			&def.IsActive,
			&def.CreatedAt,
			&def.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan definition: %w", err)
		}
		defs = append(defs, def)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating definition rows: %w", err)
	}

	return defs, nil
}

// CodeExists reports whether an active definition with the code exists
func (r *CatalogRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM permission_definitions
			WHERE code = $1 AND is_active = true
		)
	`

	executor := GetExecutor(ctx, r.db)
	var exists bool
	if err := executor.QueryRowContext(ctx, query, code).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check code existence: %w", err)
	}

	return exists, nil
}

// WithTx returns a new repository instance bound to the transaction
func (r *CatalogRepository) WithTx(tx repositories.Transaction) repositories.CatalogRepository {
	return &CatalogRepository{
		db:     r.db,
		logger: r.logger,
	}
}
