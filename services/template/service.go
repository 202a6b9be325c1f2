package template

import (
	"context"

	"github.com/google/uuid"
	"github.com/storeops/access-engine/models"
	"github.com/storeops/access-engine/repositories"
	"github.com/storeops/access-engine/services"
	"go.uber.org/zap"
)

// Service manages permission templates: named denial profiles assigned to
// individual employees on top of their role's restrictions. It also answers
// the request gate's fine check, the per-employee page-access lookup.
type Service struct {
	templates repositories.TemplateRepository
	employees repositories.EmployeeRepository
	catalog   repositories.CatalogRepository
	auditLog  repositories.AuditRepository
	logger    *zap.Logger
}

// NewService creates a new template service
func NewService(
	templates repositories.TemplateRepository,
	employees repositories.EmployeeRepository,
	catalog repositories.CatalogRepository,
	auditLog repositories.AuditRepository,
	logger *zap.Logger,
) *Service {
	return &Service{
		templates: templates,
		employees: employees,
		catalog:   catalog,
		auditLog:  auditLog,
		logger:    logger,
	}
}

// Create creates a new permission template
func (s *Service) Create(ctx context.Context, name, description string) (*models.PermissionTemplate, error) {
	if name == "" {
		return nil, services.NewDomainError(services.ErrorTypeValidation, "template name is required", nil).
			WithDetail("field", "name")
	}

	template := models.NewPermissionTemplate(name, description)
	if err := s.templates.Create(ctx, template); err != nil {
		return nil, services.WrapInternal("failed to create template", err)
	}

	s.logger.Info("template created",
		zap.String("id", template.ID.String()),
		zap.String("name", template.Name))
	return template, nil
}

// Update renames or re-describes a template
func (s *Service) Update(ctx context.Context, id uuid.UUID, name, description string) (*models.PermissionTemplate, error) {
	if name == "" {
		return nil, services.NewDomainError(services.ErrorTypeValidation, "template name is required", nil).
			WithDetail("field", "name")
	}

	template, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	template.Name = name
	template.Description = description
	if err := s.templates.Update(ctx, template); err != nil {
		return nil, services.WrapInternal("failed to update template", err)
	}

	return template, nil
}

// Deactivate soft-deactivates a template. Employees keep the assignment;
// assignment to new employees is refused while inactive.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	if err := s.templates.Deactivate(ctx, id); err != nil {
		return services.WrapError(services.ErrorTypeNotFound, "template not found", err)
	}

	s.logger.Info("template deactivated", zap.String("id", id.String()))
	return nil
}

// Get retrieves a template by ID
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.PermissionTemplate, error) {
	template, err := s.templates.GetByID(ctx, id)
	if err != nil {
		return nil, services.WrapError(services.ErrorTypeNotFound, "template not found", err)
	}
	return template, nil
}

// List retrieves templates
func (s *Service) List(ctx context.Context, activeOnly bool) ([]*models.PermissionTemplate, error) {
	templates, err := s.templates.List(ctx, activeOnly)
	if err != nil {
		return nil, services.WrapInternal("failed to list templates", err)
	}
	return templates, nil
}

// RestrictionState returns the direct-polarity state of a code on a template
func (s *Service) RestrictionState(ctx context.Context, templateID uuid.UUID, code string) (models.PermissionState, error) {
	restricted, err := s.templates.RestrictionExists(ctx, templateID, code)
	if err != nil {
		return "", services.WrapInternal("failed to check template restriction", err)
	}
	return models.StateFromRestricted(restricted), nil
}

// RestrictionCodes returns all codes a template denies
func (s *Service) RestrictionCodes(ctx context.Context, templateID uuid.UUID) ([]string, error) {
	codes, err := s.templates.RestrictionCodes(ctx, templateID)
	if err != nil {
		return nil, services.WrapInternal("failed to load template restrictions", err)
	}
	if codes == nil {
		codes = []string{}
	}
	return codes, nil
}

// ToggleRestriction flips a code's denial on a template and returns the new
// state. Same involution contract as the role store: two toggles restore the
// starting state.
func (s *Service) ToggleRestriction(ctx context.Context, templateID uuid.UUID, code, actor string) (models.PermissionState, error) {
	if _, err := s.Get(ctx, templateID); err != nil {
		return "", err
	}

	restricted, err := s.templates.RestrictionExists(ctx, templateID, code)
	if err != nil {
		return "", services.WrapInternal("failed to check template restriction", err)
	}

	if restricted {
		deleted, err := s.templates.DeleteRestriction(ctx, templateID, code)
		if err != nil {
			return "", services.WrapInternal("failed to delete template restriction", err)
		}
		if deleted {
			s.audit(ctx, actor, templateID, code, models.AuditActionUnrestrict)
		}
		return models.PermissionAllowed, nil
	}

	exists, err := s.catalog.CodeExists(ctx, code)
	if err != nil {
		return "", services.WrapInternal("failed to check code", err)
	}
	if !exists {
		return "", services.NewDomainError(services.ErrorTypeValidation, "unknown permission code", nil).
			WithDetail("code", code)
	}

	if err := s.templates.InsertRestriction(ctx, models.NewPermissionTemplateRestriction(templateID, code)); err != nil {
		return "", services.WrapInternal("failed to insert template restriction", err)
	}
	s.audit(ctx, actor, templateID, code, models.AuditActionRestrict)
	return models.PermissionDenied, nil
}

// Assign sets or clears an employee's template. A nil templateID clears the
// assignment, leaving only the role's restrictions in effect.
func (s *Service) Assign(ctx context.Context, employeeID uuid.UUID, templateID *uuid.UUID) error {
	if templateID != nil {
		template, err := s.Get(ctx, *templateID)
		if err != nil {
			return err
		}
		if !template.IsActive {
			return services.NewDomainError(services.ErrorTypeValidation, "template is inactive", nil).
				WithDetail("template_id", templateID.String())
		}
	}

	if err := s.employees.AssignTemplate(ctx, employeeID, templateID); err != nil {
		return services.WrapError(services.ErrorTypeNotFound, "employee not found", err)
	}

	if templateID != nil {
		s.logger.Info("template assigned",
			zap.String("employee_id", employeeID.String()),
			zap.String("template_id", templateID.String()))
	} else {
		s.logger.Info("template assignment cleared",
			zap.String("employee_id", employeeID.String()))
	}
	return nil
}

// ResolvePageDenials answers the request gate's fine check: the set of
// page-access codes denied to one employee. An employee without a template
// has nothing denied at this layer. Always fetched fresh, never cached, so a
// toggle in the console takes effect on the employee's next request.
func (s *Service) ResolvePageDenials(ctx context.Context, employeeID uuid.UUID) (models.DeniedSet, error) {
	templateID, err := s.employees.PermissionID(ctx, employeeID)
	if err != nil {
		return nil, services.WrapError(services.ErrorTypeNotFound, "employee not found", err)
	}
	if templateID == nil {
		return models.DeniedSet{}, nil
	}

	codes, err := s.templates.PageAccessCodes(ctx, *templateID)
	if err != nil {
		return nil, services.WrapInternal("failed to load page-access restrictions", err)
	}
	return models.NewDeniedSet(codes), nil
}

func (s *Service) audit(ctx context.Context, actor string, templateID uuid.UUID, code string, action models.AuditAction) {
	entry := models.NewRestrictionAuditEntry(actor, templateID.String(), code, action)
	if err := s.auditLog.Insert(ctx, entry); err != nil {
		s.logger.Warn("failed to write audit entry",
			zap.String("template_id", templateID.String()),
			zap.String("code", code),
			zap.Error(err))
	}
}
