package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/storeops/access-engine/models"
	"github.com/storeops/access-engine/repositories"
	"go.uber.org/zap"
)

// RestrictionRepository implements the repositories.RestrictionRepository interface
type RestrictionRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewRestrictionRepository creates a new restriction repository
func NewRestrictionRepository(db *DB, logger *zap.Logger) repositories.RestrictionRepository {
	return &RestrictionRepository{
		db:     db,
		logger: logger,
	}
}

// isUniqueViolation reports whether the error is a PostgreSQL unique
// constraint violation (SQLSTATE 23505)
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// Exists reports whether a restriction row exists for (role, code)
func (r *RestrictionRepository) Exists(ctx context.Context, roleID, code string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM role_restrictions
			WHERE role_id = $1 AND permission_code = $2
		)
	`

	executor := GetExecutor(ctx, r.db)
	var exists bool
	if err := executor.QueryRowContext(ctx, query, roleID, code).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check restriction: %w", err)
	}

	return exists, nil
}

// Codes returns all restricted codes for a role
func (r *RestrictionRepository) Codes(ctx context.Context, roleID string) ([]string, error) {
	query := `
		SELECT permission_code FROM role_restrictions
		WHERE role_id = $1
		ORDER BY permission_code
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, roleID)
	if err != nil {
		return nil, fmt.Errorf("failed to query restrictions: %w", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("failed to scan restriction code: %w", err)
		}
		codes = append(codes, code)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating restriction rows: %w", err)
	}

	return codes, nil
}

// Insert inserts a restriction row. A duplicate-key violation means a
// concurrent writer already restricted the pair; the net state is correct,
// so it is swallowed rather than surfaced.
func (r *RestrictionRepository) Insert(ctx context.Context, restriction *models.RoleRestriction) error {
	query := `
		INSERT INTO role_restrictions (id, role_id, permission_code, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		restriction.ID,
		restriction.RoleID,
		restriction.PermissionCode,
		restriction.CreatedAt,
		restriction.CreatedBy,
	)

	if err != nil {
		if isUniqueViolation(err) {
			r.logger.Debug("restriction already present, treating insert as no-op",
				zap.String("role_id", restriction.RoleID),
				zap.String("code", restriction.PermissionCode))
			return nil
		}
		return fmt.Errorf("failed to insert restriction: %w", err)
	}

	r.logger.Debug("restriction inserted",
		zap.String("role_id", restriction.RoleID),
		zap.String("code", restriction.PermissionCode))
	return nil
}

// Delete removes the restriction row for (role, code)
func (r *RestrictionRepository) Delete(ctx context.Context, roleID, code string) (bool, error) {
	query := `DELETE FROM role_restrictions WHERE role_id = $1 AND permission_code = $2`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, roleID, code)
	if err != nil {
		return false, fmt.Errorf("failed to delete restriction: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	r.logger.Debug("restriction deleted",
		zap.String("role_id", roleID),
		zap.String("code", code),
		zap.Int64("rows", rowsAffected))
	return rowsAffected > 0, nil
}

// InsertMissing inserts only the codes not yet restricted for the role, as a
// single batch. The set difference is computed first so a bulk restrict of a
// large catalog does not race the unique constraint per row; ON CONFLICT
// covers writers that sneak in between the read and the insert.
func (r *RestrictionRepository) InsertMissing(ctx context.Context, roleID string, codes []string, createdBy string) (int, error) {
	if len(codes) == 0 {
		return 0, nil
	}

	existing, err := r.Codes(ctx, roleID)
	if err != nil {
		return 0, err
	}
	present := make(map[string]struct{}, len(existing))
	for _, c := range existing {
		present[c] = struct{}{}
	}

	var missing []string
	for _, c := range codes {
		if _, ok := present[c]; !ok {
			present[c] = struct{}{} // dedupe the input as well
			missing = append(missing, c)
		}
	}
	if len(missing) == 0 {
		return 0, nil
	}

	ids := make([]string, len(missing))
	for i := range missing {
		ids[i] = uuid.New().String()
	}

	query := `
		INSERT INTO role_restrictions (id, role_id, permission_code, created_at, created_by)
		SELECT unnest($1::uuid[]), $2, unnest($3::text[]), $4, $5
		ON CONFLICT (role_id, permission_code) DO NOTHING
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query,
		pq.Array(ids),
		roleID,
		pq.Array(missing),
		time.Now(),
		createdBy,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to bulk insert restrictions: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	r.logger.Debug("restrictions bulk inserted",
		zap.String("role_id", roleID),
		zap.Int64("rows", rowsAffected))
	return int(rowsAffected), nil
}

// DeleteAll removes all given codes for the role as a single batch
func (r *RestrictionRepository) DeleteAll(ctx context.Context, roleID string, codes []string) (int, error) {
	if len(codes) == 0 {
		return 0, nil
	}

	query := `DELETE FROM role_restrictions WHERE role_id = $1 AND permission_code = ANY($2)`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, roleID, pq.Array(codes))
	if err != nil {
		return 0, fmt.Errorf("failed to bulk delete restrictions: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	r.logger.Debug("restrictions bulk deleted",
		zap.String("role_id", roleID),
		zap.Int64("rows", rowsAffected))
	return int(rowsAffected), nil
}

// WithTx returns a new repository instance bound to the transaction
func (r *RestrictionRepository) WithTx(tx repositories.Transaction) repositories.RestrictionRepository {
	return &RestrictionRepository{
		db:     r.db,
		logger: r.logger,
	}
}
