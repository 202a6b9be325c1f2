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

// TemplateRepository implements the repositories.TemplateRepository interface
type TemplateRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewTemplateRepository creates a new template repository
func NewTemplateRepository(db *DB, logger *zap.Logger) repositories.TemplateRepository {
	return &TemplateRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new permission template
func (r *TemplateRepository) Create(ctx context.Context, template *models.PermissionTemplate) error {
	query := `
		INSERT INTO permission_templates (id, name, description, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		template.ID,
		template.Name,
		template.Description,
		template.IsActive,
		template.CreatedAt,
		template.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}

	r.logger.Debug("template created", zap.String("id", template.ID.String()))
	return nil
}

// Update updates a permission template
func (r *TemplateRepository) Update(ctx context.Context, template *models.PermissionTemplate) error {
	query := `
		UPDATE permission_templates
		SET name = $2,
		    description = $3,
		    is_active = $4,
		    updated_at = $5
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query,
		template.ID,
		template.Name,
		template.Description,
		template.IsActive,
		time.Now(),
	)

	if err != nil {
		return fmt.Errorf("failed to update template: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("template not found: %s", template.ID)
	}

	r.logger.Debug("template updated", zap.String("id", template.ID.String()))
	return nil
}

// Deactivate soft-deactivates a template
func (r *TemplateRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE permission_templates SET is_active = false, updated_at = $2 WHERE id = $1`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to deactivate template: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("template not found: %s", id)
	}

	r.logger.Debug("template deactivated", zap.String("id", id.String()))
	return nil
}

// GetByID retrieves a template by ID
func (r *TemplateRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.PermissionTemplate, error) {
	query := `
		SELECT id, name, description, is_active, created_at, updated_at
		FROM permission_templates
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	template := &models.PermissionTemplate{}

	err := executor.QueryRowContext(ctx, query, id).Scan(
		&template.ID,
		&template.Name,
		&template.Description,
		&template.IsActive,
		&template.CreatedAt,
		&template.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("template not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}

	return template, nil
}

// List retrieves templates, optionally only active ones
func (r *TemplateRepository) List(ctx context.Context, activeOnly bool) ([]*models.PermissionTemplate, error) {
	query := `
		SELECT id, name, description, is_active, created_at, updated_at
		FROM permission_templates
	`
	if activeOnly {
		query += ` WHERE is_active = true`
	}
	query += ` ORDER BY name`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query templates: %w", err)
	}
	defer rows.Close()

	var templates []*models.PermissionTemplate
	for rows.Next() {
		template := &models.PermissionTemplate{}
		err := rows.Scan(
			&template.ID,
			&template.Name,
			&template.Description,
			&template.IsActive,
			&template.CreatedAt,
			&template.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, template)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating template rows: %w", err)
	}

	return templates, nil
}

// RestrictionExists reports whether a restriction row exists for (template, code)
func (r *TemplateRepository) RestrictionExists(ctx context.Context, templateID uuid.UUID, code string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM permission_template_restrictions
			WHERE template_id = $1 AND permission_code = $2
		)
	`

	executor := GetExecutor(ctx, r.db)
	var exists bool
	if err := executor.QueryRowContext(ctx, query, templateID, code).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check template restriction: %w", err)
	}

	return exists, nil
}

// RestrictionCodes returns all restricted codes for a template
func (r *TemplateRepository) RestrictionCodes(ctx context.Context, templateID uuid.UUID) ([]string, error) {
	query := `
		SELECT permission_code FROM permission_template_restrictions
		WHERE template_id = $1
		ORDER BY permission_code
	`
	return r.queryCodes(ctx, query, templateID)
}

// PageAccessCodes returns the template's restricted codes narrowed to the
// page_access. namespace. The filter runs in SQL so the gate's per-request
// fetch moves as little data as possible.
func (r *TemplateRepository) PageAccessCodes(ctx context.Context, templateID uuid.UUID) ([]string, error) {
	query := `
		SELECT permission_code FROM permission_template_restrictions
		WHERE template_id = $1 AND permission_code LIKE $2
		ORDER BY permission_code
	`
	return r.queryCodes(ctx, query, templateID, models.PageAccessPrefix+"%")
}

// InsertRestriction inserts a template restriction row; duplicate-key
// violations are treated as success, matching the role store
func (r *TemplateRepository) InsertRestriction(ctx context.Context, restriction *models.PermissionTemplateRestriction) error {
	query := `
		INSERT INTO permission_template_restrictions (id, template_id, permission_code, created_at)
		VALUES ($1, $2, $3, $4)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		restriction.ID,
		restriction.TemplateID,
		restriction.PermissionCode,
		restriction.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			r.logger.Debug("template restriction already present, treating insert as no-op",
				zap.String("template_id", restriction.TemplateID.String()),
				zap.String("code", restriction.PermissionCode))
			return nil
		}
		return fmt.Errorf("failed to insert template restriction: %w", err)
	}

	r.logger.Debug("template restriction inserted",
		zap.String("template_id", restriction.TemplateID.String()),
		zap.String("code", restriction.PermissionCode))
	return nil
}

// DeleteRestriction removes the restriction row for (template, code)
func (r *TemplateRepository) DeleteRestriction(ctx context.Context, templateID uuid.UUID, code string) (bool, error) {
	query := `DELETE FROM permission_template_restrictions WHERE template_id = $1 AND permission_code = $2`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, templateID, code)
	if err != nil {
		return false, fmt.Errorf("failed to delete template restriction: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// WithTx returns a new repository instance bound to the transaction
func (r *TemplateRepository) WithTx(tx repositories.Transaction) repositories.TemplateRepository {
	return &TemplateRepository{
		db:     r.db,
		logger: r.logger,
	}
}

// queryCodes is a helper to query permission code lists
func (r *TemplateRepository) queryCodes(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query template restrictions: %w", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("failed to scan template restriction code: %w", err)
		}
		codes = append(codes, code)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating template restriction rows: %w", err)
	}

	return codes, nil
}
