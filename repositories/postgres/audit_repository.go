package postgres

import (
	"context"
	"fmt"

	"github.com/storeops/access-engine/models"
	"github.com/storeops/access-engine/repositories"
	"go.uber.org/zap"
)

// AuditRepository implements the repositories.AuditRepository interface.
// It may be backed by a separate audit database (see RepositoryFactory).
type AuditRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *DB, logger *zap.Logger) repositories.AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// Insert inserts a new audit entry
func (r *AuditRepository) Insert(ctx context.Context, entry *models.RestrictionAuditEntry) error {
	query := `
		INSERT INTO restriction_audit_log (id, actor, scope, permission_code, action, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		entry.ID,
		entry.Actor,
		entry.Scope,
		entry.PermissionCode,
		entry.Action,
		entry.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}

	r.logger.Debug("audit entry inserted",
		zap.String("scope", entry.Scope),
		zap.String("code", entry.PermissionCode),
		zap.String("action", string(entry.Action)))
	return nil
}

// ListByScope retrieves audit entries for a role or template scope with pagination
func (r *AuditRepository) ListByScope(ctx context.Context, scope string, limit, offset int) ([]*models.RestrictionAuditEntry, error) {
	query := `
		SELECT id, actor, scope, permission_code, action, created_at
		FROM restriction_audit_log
		WHERE scope = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, scope, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.RestrictionAuditEntry
	for rows.Next() {
		entry := &models.RestrictionAuditEntry{}
		err := rows.Scan(
			&entry.ID,
			&entry.Actor,
			&entry.Scope,
			&entry.PermissionCode,
			&entry.Action,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit rows: %w", err)
	}

	return entries, nil
}

// WithTx returns a new repository instance bound to the transaction
func (r *AuditRepository) WithTx(tx repositories.Transaction) repositories.AuditRepository {
	return &AuditRepository{
		db:     r.db,
		logger: r.logger,
	}
}
