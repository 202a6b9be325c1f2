package restriction

import (
	"context"

	"github.com/storeops/access-engine/models"
	"github.com/storeops/access-engine/repositories"
	"github.com/storeops/access-engine/services"
	"go.uber.org/zap"
)

// Service manages role restriction rows. Storage is reverse-logic (a row's
// existence denies the code); the service translates to PermissionState at
// its boundary so callers never see row presence.
//
// The administrator role is answered without touching the store: it is
// allowed everything no matter what rows exist.
type Service struct {
	restrictions repositories.RestrictionRepository
	templates    repositories.TemplateRepository
	catalog      repositories.CatalogRepository
	auditLog     repositories.AuditRepository
	txManager    repositories.TransactionManager
	logger       *zap.Logger
}

// NewService creates a new restriction service
func NewService(
	restrictions repositories.RestrictionRepository,
	templates repositories.TemplateRepository,
	catalog repositories.CatalogRepository,
	auditLog repositories.AuditRepository,
	txManager repositories.TransactionManager,
	logger *zap.Logger,
) *Service {
	return &Service{
		restrictions: restrictions,
		templates:    templates,
		catalog:      catalog,
		auditLog:     auditLog,
		txManager:    txManager,
		logger:       logger,
	}
}

// StateOf returns the permission state for a role and code.
// Reads are tolerant: unknown codes and unmapped roles answer Allowed.
func (s *Service) StateOf(ctx context.Context, role models.Role, code string) (models.PermissionState, error) {
	restricted, err := s.IsRestricted(ctx, role, code)
	if err != nil {
		return "", err
	}
	return models.StateFromRestricted(restricted), nil
}

// IsRestricted reports whether the code is denied to the role
func (s *Service) IsRestricted(ctx context.Context, role models.Role, code string) (bool, error) {
	if role.IsAdministrator() {
		return false, nil
	}

	scope, ok := role.RestrictionScope()
	if !ok {
		// roles without a restriction scope have no denial rows
		return false, nil
	}

	restricted, err := s.restrictions.Exists(ctx, scope, code)
	if err != nil {
		return false, services.WrapInternal("failed to check restriction", err)
	}
	return restricted, nil
}

// Toggle flips the restriction for (role, code) and returns the new state.
// Two toggles always return to the starting state.
func (s *Service) Toggle(ctx context.Context, role models.Role, code, actor string) (models.PermissionState, error) {
	scope, err := s.writableScope(role)
	if err != nil {
		return "", err
	}

	restricted, err := s.restrictions.Exists(ctx, scope, code)
	if err != nil {
		return "", services.WrapInternal("failed to check restriction", err)
	}

	if restricted {
		if err := s.unrestrict(ctx, scope, code, actor); err != nil {
			return "", err
		}
		return models.PermissionAllowed, nil
	}

	if err := s.restrict(ctx, scope, code, actor); err != nil {
		return "", err
	}
	return models.PermissionDenied, nil
}

// Restrict denies the code to the role. Restricting an already-restricted
// code is a no-op.
func (s *Service) Restrict(ctx context.Context, role models.Role, code, actor string) error {
	scope, err := s.writableScope(role)
	if err != nil {
		return err
	}
	return s.restrict(ctx, scope, code, actor)
}

// Unrestrict removes the denial for (role, code). Unrestricting a code that
// was never restricted is a no-op.
func (s *Service) Unrestrict(ctx context.Context, role models.Role, code, actor string) error {
	scope, err := s.writableScope(role)
	if err != nil {
		return err
	}
	return s.unrestrict(ctx, scope, code, actor)
}

// RestrictAll denies every given code to the role as one batch. Codes already
// restricted are skipped, so the batch converges instead of failing halfway.
// Returns the number of denials actually added.
func (s *Service) RestrictAll(ctx context.Context, role models.Role, codes []string, actor string) (int, error) {
	scope, err := s.writableScope(role)
	if err != nil {
		return 0, err
	}
	if len(codes) == 0 {
		return 0, services.ErrEmptyPermissionSet
	}
	if err := s.validateCodes(ctx, codes); err != nil {
		return 0, err
	}

	var added []string
	var inserted int
	err = s.txManager.InTransaction(ctx, func(txCtx context.Context, tx repositories.Transaction) error {
		existing, err := s.restrictions.Codes(txCtx, scope)
		if err != nil {
			return services.WrapInternal("failed to load restrictions", err)
		}
		added = difference(codes, existing)
		if len(added) == 0 {
			return nil
		}

		inserted, err = s.restrictions.InsertMissing(txCtx, scope, added, actor)
		if err != nil {
			return services.WrapInternal("failed to insert restrictions", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	// audit after commit: best-effort, and the audit store may be a
	// different database than the one the transaction ran on
	s.audit(ctx, actor, scope, added, models.AuditActionRestrict)

	s.logger.Info("restrictions added",
		zap.String("scope", scope),
		zap.Int("count", inserted),
		zap.String("actor", actor))
	return inserted, nil
}

// UnrestrictAll removes every given denial for the role as one batch.
// Returns the number of denials actually removed.
func (s *Service) UnrestrictAll(ctx context.Context, role models.Role, codes []string, actor string) (int, error) {
	scope, err := s.writableScope(role)
	if err != nil {
		return 0, err
	}
	if len(codes) == 0 {
		return 0, services.ErrEmptyPermissionSet
	}

	var present []string
	var deleted int
	err = s.txManager.InTransaction(ctx, func(txCtx context.Context, tx repositories.Transaction) error {
		existing, err := s.restrictions.Codes(txCtx, scope)
		if err != nil {
			return services.WrapInternal("failed to load restrictions", err)
		}
		present = intersection(codes, existing)
		if len(present) == 0 {
			return nil
		}

		deleted, err = s.restrictions.DeleteAll(txCtx, scope, present)
		if err != nil {
			return services.WrapInternal("failed to delete restrictions", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.audit(ctx, actor, scope, present, models.AuditActionUnrestrict)

	s.logger.Info("restrictions removed",
		zap.String("scope", scope),
		zap.Int("count", deleted),
		zap.String("actor", actor))
	return deleted, nil
}

// RoleDenials returns the role's denied codes. The administrator role and
// roles without a restriction scope always answer empty, without a query.
func (s *Service) RoleDenials(ctx context.Context, role models.Role) ([]string, error) {
	scope, ok := role.RestrictionScope()
	if !ok {
		return []string{}, nil
	}

	codes, err := s.restrictions.Codes(ctx, scope)
	if err != nil {
		return nil, services.WrapInternal("failed to load restrictions", err)
	}
	if codes == nil {
		codes = []string{}
	}
	return codes, nil
}

// EffectiveDenials computes an employee's effective denial set: the union of
// the role's denials and, when a template is assigned, the template's.
func (s *Service) EffectiveDenials(ctx context.Context, employee *models.Employee) (models.DeniedSet, error) {
	if employee.Role.IsAdministrator() {
		return models.DeniedSet{}, nil
	}

	roleDenials, err := s.RoleDenials(ctx, employee.Role)
	if err != nil {
		return nil, err
	}

	var templateDenials []string
	if employee.HasTemplate() {
		templateDenials, err = s.templates.RestrictionCodes(ctx, *employee.PermissionID)
		if err != nil {
			return nil, services.WrapInternal("failed to load template restrictions", err)
		}
	}

	return models.MergeDenials(roleDenials, templateDenials), nil
}

// writableScope resolves the role's restriction scope for a write.
// The administrator's denial list is immutable; roles without a scope
// cannot carry restrictions at all.
func (s *Service) writableScope(role models.Role) (string, error) {
	if role.IsAdministrator() {
		return "", services.ErrAdminImmutable
	}
	scope, ok := role.RestrictionScope()
	if !ok {
		return "", services.NewDomainError(services.ErrorTypeValidation, "role has no restriction scope", nil).
			WithDetail("role", string(role))
	}
	return scope, nil
}

func (s *Service) restrict(ctx context.Context, scope, code, actor string) error {
	exists, err := s.catalog.CodeExists(ctx, code)
	if err != nil {
		return services.WrapInternal("failed to check code", err)
	}
	if !exists {
		return services.NewDomainError(services.ErrorTypeValidation, "unknown permission code", nil).
			WithDetail("code", code)
	}

	if err := s.restrictions.Insert(ctx, models.NewRoleRestriction(scope, code, actor)); err != nil {
		return services.WrapInternal("failed to insert restriction", err)
	}

	s.audit(ctx, actor, scope, []string{code}, models.AuditActionRestrict)
	return nil
}

func (s *Service) unrestrict(ctx context.Context, scope, code, actor string) error {
	deleted, err := s.restrictions.Delete(ctx, scope, code)
	if err != nil {
		return services.WrapInternal("failed to delete restriction", err)
	}
	if deleted {
		s.audit(ctx, actor, scope, []string{code}, models.AuditActionUnrestrict)
	}
	return nil
}

// validateCodes rejects the whole batch when any code is unknown. Write
// boundaries are strict so typos never become invisible rows; reads stay
// tolerant.
func (s *Service) validateCodes(ctx context.Context, codes []string) error {
	for _, code := range codes {
		exists, err := s.catalog.CodeExists(ctx, code)
		if err != nil {
			return services.WrapInternal("failed to check code", err)
		}
		if !exists {
			return services.NewDomainError(services.ErrorTypeValidation, "unknown permission code", nil).
				WithDetail("code", code)
		}
	}
	return nil
}

// audit records restriction writes best-effort: a failed audit insert is
// logged but never fails the write it describes.
func (s *Service) audit(ctx context.Context, actor, scope string, codes []string, action models.AuditAction) {
	for _, code := range codes {
		entry := models.NewRestrictionAuditEntry(actor, scope, code, action)
		if err := s.auditLog.Insert(ctx, entry); err != nil {
			s.logger.Warn("failed to write audit entry",
				zap.String("scope", scope),
				zap.String("code", code),
				zap.Error(err))
		}
	}
}

func difference(codes, existing []string) []string {
	have := models.NewDeniedSet(existing)
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if !have.Contains(c) {
			out = append(out, c)
		}
	}
	return out
}

func intersection(codes, existing []string) []string {
	have := models.NewDeniedSet(existing)
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if have.Contains(c) {
			out = append(out, c)
		}
	}
	return out
}
