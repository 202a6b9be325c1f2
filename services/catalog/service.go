package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/storeops/access-engine/models"
	"github.com/storeops/access-engine/repositories"
	"github.com/storeops/access-engine/services"
	"go.uber.org/zap"
)

// CategoryInput carries the fields for creating or updating a category
type CategoryInput struct {
	Name       string
	NameEN     string
	Icon       string
	SortOrder  int
	ParentType models.ParentType
}

// DefinitionInput carries the fields for creating or updating a definition
type DefinitionInput struct {
	CategoryID     uuid.UUID
	Code           string
	Name           string
	Description    string
	PermissionType models.PermissionType
	SortOrder      int
}

// CategoryView is a category with its definitions, the shape the console
// renders as one toggle section
type CategoryView struct {
	Category    *models.PermissionCategory     `json:"category"`
	Definitions []*models.PermissionDefinition `json:"definitions"`
}

// Service manages the permission catalog: the reference data every
// restriction row points into. An empty catalog simply means there is
// nothing to restrict; it is never an error.
type Service struct {
	catalog repositories.CatalogRepository
	logger  *zap.Logger
}

// NewService creates a new catalog service
func NewService(catalog repositories.CatalogRepository, logger *zap.Logger) *Service {
	return &Service{
		catalog: catalog,
		logger:  logger,
	}
}

// CreateCategory creates a new permission category
func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (*models.PermissionCategory, error) {
	if in.NameEN == "" {
		return nil, services.NewDomainError(services.ErrorTypeValidation, "category name is required", nil).WithDetail("field", "name_en")
	}
	if !in.ParentType.Valid() {
		return nil, services.NewDomainError(services.ErrorTypeValidation, "invalid parent type", nil).WithDetail("parent_type", string(in.ParentType))
	}

	category := models.NewPermissionCategory(in.Name, in.NameEN, in.ParentType, in.SortOrder)
	category.Icon = in.Icon
	if err := s.catalog.CreateCategory(ctx, category); err != nil {
		return nil, services.WrapInternal("failed to create category", err)
	}

	s.logger.Info("category created",
		zap.String("id", category.ID.String()),
		zap.String("name", category.NameEN))
	return category, nil
}

// UpdateCategory updates an existing category
func (s *Service) UpdateCategory(ctx context.Context, id uuid.UUID, in CategoryInput) (*models.PermissionCategory, error) {
	if !in.ParentType.Valid() {
		return nil, services.NewDomainError(services.ErrorTypeValidation, "invalid parent type", nil).WithDetail("parent_type", string(in.ParentType))
	}

	category := &models.PermissionCategory{
		ID:         id,
		Name:       in.Name,
		NameEN:     in.NameEN,
		Icon:       in.Icon,
		SortOrder:  in.SortOrder,
		IsActive:   true,
		ParentType: in.ParentType,
	}
	if err := s.catalog.UpdateCategory(ctx, category); err != nil {
		return nil, services.WrapError(services.ErrorTypeNotFound, "category not found", err)
	}

	return category, nil
}

// DeactivateCategory soft-deactivates a category. Its definitions stop
// appearing in active listings; existing restriction rows are untouched.
func (s *Service) DeactivateCategory(ctx context.Context, id uuid.UUID) error {
	if err := s.catalog.DeactivateCategory(ctx, id); err != nil {
		return services.WrapError(services.ErrorTypeNotFound, "category not found", err)
	}

	s.logger.Info("category deactivated", zap.String("id", id.String()))
	return nil
}

// ListCategories lists the categories for a console surface
func (s *Service) ListCategories(ctx context.Context, parentType models.ParentType, activeOnly bool) ([]*models.PermissionCategory, error) {
	if !parentType.Valid() {
		return nil, services.NewDomainError(services.ErrorTypeValidation, "invalid parent type", nil).WithDetail("parent_type", string(parentType))
	}

	categories, err := s.catalog.ListCategories(ctx, parentType, activeOnly)
	if err != nil {
		return nil, services.WrapInternal("failed to list categories", err)
	}
	return categories, nil
}

// CreateDefinition creates a new permission definition under a category
func (s *Service) CreateDefinition(ctx context.Context, in DefinitionInput) (*models.PermissionDefinition, error) {
	if in.Code == "" {
		return nil, services.NewDomainError(services.ErrorTypeValidation, "permission code is required", nil).WithDetail("field", "code")
	}
	if !in.PermissionType.Valid() {
		return nil, services.NewDomainError(services.ErrorTypeValidation, "invalid permission type", nil).WithDetail("permission_type", string(in.PermissionType))
	}

	exists, err := s.catalog.CodeExists(ctx, in.Code)
	if err != nil {
		return nil, services.WrapInternal("failed to check code", err)
	}
	if exists {
		return nil, services.NewDomainError(services.ErrorTypeConflict, "permission code already exists", nil).WithDetail("code", in.Code)
	}

	def := models.NewPermissionDefinition(in.CategoryID, in.Code, in.Name, in.PermissionType, in.SortOrder)
	def.Description = in.Description
	if err := s.catalog.CreateDefinition(ctx, def); err != nil {
		return nil, services.WrapInternal("failed to create definition", err)
	}

	s.logger.Info("definition created",
		zap.String("id", def.ID.String()),
		zap.String("code", def.Code))
	return def, nil
}

// UpdateDefinition updates an existing definition. The code is immutable:
// restriction rows reference it by value, so renames would silently detach
// every row pointing at the old code.
func (s *Service) UpdateDefinition(ctx context.Context, id uuid.UUID, in DefinitionInput) (*models.PermissionDefinition, error) {
	if !in.PermissionType.Valid() {
		return nil, services.NewDomainError(services.ErrorTypeValidation, "invalid permission type", nil).WithDetail("permission_type", string(in.PermissionType))
	}

	def := &models.PermissionDefinition{
		ID:             id,
		CategoryID:     in.CategoryID,
		Code:           in.Code,
		Name:           in.Name,
		Description:    in.Description,
		PermissionType: in.PermissionType,
		SortOrder:      in.SortOrder,
		IsActive:       true,
	}
	if err := s.catalog.UpdateDefinition(ctx, def); err != nil {
		return nil, services.WrapError(services.ErrorTypeNotFound, "definition not found", err)
	}

	return def, nil
}

// DeactivateDefinition soft-deactivates a definition
func (s *Service) DeactivateDefinition(ctx context.Context, id uuid.UUID) error {
	if err := s.catalog.DeactivateDefinition(ctx, id); err != nil {
		return services.WrapError(services.ErrorTypeNotFound, "definition not found", err)
	}

	s.logger.Info("definition deactivated", zap.String("id", id.String()))
	return nil
}

// ListDefinitions lists definitions matching the filter
func (s *Service) ListDefinitions(ctx context.Context, filter repositories.DefinitionFilter) ([]*models.PermissionDefinition, error) {
	defs, err := s.catalog.ListDefinitions(ctx, filter)
	if err != nil {
		return nil, services.WrapInternal("failed to list definitions", err)
	}
	return defs, nil
}

// Catalog returns the grouped category/definition view for a surface.
// Categories with no active definitions still appear, with an empty list.
func (s *Service) Catalog(ctx context.Context, parentType models.ParentType) ([]*CategoryView, error) {
	categories, err := s.ListCategories(ctx, parentType, true)
	if err != nil {
		return nil, err
	}

	views := make([]*CategoryView, 0, len(categories))
	for _, category := range categories {
		id := category.ID
		defs, err := s.catalog.ListDefinitions(ctx, repositories.DefinitionFilter{
			CategoryID: &id,
			ActiveOnly: true,
		})
		if err != nil {
			return nil, services.WrapInternal("failed to list definitions", err)
		}
		if defs == nil {
			defs = []*models.PermissionDefinition{}
		}
		views = append(views, &CategoryView{Category: category, Definitions: defs})
	}

	return views, nil
}

// CodeExists reports whether an active definition carries the code
func (s *Service) CodeExists(ctx context.Context, code string) (bool, error) {
	exists, err := s.catalog.CodeExists(ctx, code)
	if err != nil {
		return false, services.WrapInternal("failed to check code", err)
	}
	return exists, nil
}
