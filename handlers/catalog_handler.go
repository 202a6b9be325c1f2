package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/storeops/access-engine/models"
	"github.com/storeops/access-engine/repositories"
	"github.com/storeops/access-engine/services/catalog"
	"github.com/storeops/access-engine/utils"
	"go.uber.org/zap"
)

// CategoryRequest represents a request to create or update a category
type CategoryRequest struct {
	Name       string `json:"name"`
	NameEN     string `json:"name_en" validate:"required"`
	Icon       string `json:"icon,omitempty"`
	SortOrder  int    `json:"sort_order" validate:"gte=0"`
	ParentType string `json:"parent_type" validate:"required,oneof=store admin"`
}

// DefinitionRequest represents a request to create or update a definition
type DefinitionRequest struct {
	CategoryID     uuid.UUID `json:"category_id" validate:"required"`
	Code           string    `json:"code" validate:"required"`
	Name           string    `json:"name" validate:"required"`
	Description    string    `json:"description,omitempty"`
	PermissionType string    `json:"permission_type" validate:"required,oneof=button feature view"`
	SortOrder      int       `json:"sort_order" validate:"gte=0"`
}

// CatalogService defines the catalog operations the handler needs
type CatalogService interface {
	CreateCategory(ctx context.Context, in catalog.CategoryInput) (*models.PermissionCategory, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, in catalog.CategoryInput) (*models.PermissionCategory, error)
	DeactivateCategory(ctx context.Context, id uuid.UUID) error
	CreateDefinition(ctx context.Context, in catalog.DefinitionInput) (*models.PermissionDefinition, error)
	UpdateDefinition(ctx context.Context, id uuid.UUID, in catalog.DefinitionInput) (*models.PermissionDefinition, error)
	DeactivateDefinition(ctx context.Context, id uuid.UUID) error
	ListDefinitions(ctx context.Context, filter repositories.DefinitionFilter) ([]*models.PermissionDefinition, error)
	Catalog(ctx context.Context, parentType models.ParentType) ([]*catalog.CategoryView, error)
}

// CatalogHandler handles permission catalog HTTP requests
type CatalogHandler struct {
	catalog CatalogService
	logger  *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(svc CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog: svc,
		logger:  logger,
	}
}

// HandleGetCatalog handles GET /catalog. The surface query parameter selects
// the console surface, defaulting to the store console.
func (h *CatalogHandler) HandleGetCatalog(w http.ResponseWriter, r *http.Request) {
	parentType := models.ParentTypeStore
	if surface := r.URL.Query().Get("surface"); surface != "" {
		parentType = models.ParentType(surface)
	}

	views, err := h.catalog.Catalog(r.Context(), parentType)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, views)
}

// HandleCreateCategory handles POST /catalog/categories
func (h *CatalogHandler) HandleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	category, err := h.catalog.CreateCategory(r.Context(), catalog.CategoryInput{
		Name:       req.Name,
		NameEN:     req.NameEN,
		Icon:       req.Icon,
		SortOrder:  req.SortOrder,
		ParentType: models.ParentType(req.ParentType),
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteCreated(w, category)
}

// HandleUpdateCategory handles PUT /catalog/categories/{id}
func (h *CatalogHandler) HandleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req CategoryRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	category, err := h.catalog.UpdateCategory(r.Context(), id, catalog.CategoryInput{
		Name:       req.Name,
		NameEN:     req.NameEN,
		Icon:       req.Icon,
		SortOrder:  req.SortOrder,
		ParentType: models.ParentType(req.ParentType),
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, category)
}

// HandleDeactivateCategory handles DELETE /catalog/categories/{id}
func (h *CatalogHandler) HandleDeactivateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeactivateCategory(r.Context(), id); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	utils.WriteNoContent(w)
}

// HandleCreateDefinition handles POST /catalog/definitions
func (h *CatalogHandler) HandleCreateDefinition(w http.ResponseWriter, r *http.Request) {
	var req DefinitionRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	def, err := h.catalog.CreateDefinition(r.Context(), catalog.DefinitionInput{
		CategoryID:     req.CategoryID,
		Code:           req.Code,
		Name:           req.Name,
		Description:    req.Description,
		PermissionType: models.PermissionType(req.PermissionType),
		SortOrder:      req.SortOrder,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteCreated(w, def)
}

// HandleUpdateDefinition handles PUT /catalog/definitions/{id}
func (h *CatalogHandler) HandleUpdateDefinition(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req DefinitionRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	def, err := h.catalog.UpdateDefinition(r.Context(), id, catalog.DefinitionInput{
		CategoryID:     req.CategoryID,
		Code:           req.Code,
		Name:           req.Name,
		Description:    req.Description,
		PermissionType: models.PermissionType(req.PermissionType),
		SortOrder:      req.SortOrder,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, def)
}

// HandleDeactivateDefinition handles DELETE /catalog/definitions/{id}
func (h *CatalogHandler) HandleDeactivateDefinition(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeactivateDefinition(r.Context(), id); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	utils.WriteNoContent(w)
}

// HandleListDefinitions handles GET /catalog/definitions
func (h *CatalogHandler) HandleListDefinitions(w http.ResponseWriter, r *http.Request) {
	filter := repositories.DefinitionFilter{
		CategoryName: r.URL.Query().Get("category"),
		ActiveOnly:   r.URL.Query().Get("include_inactive") != "true",
	}
	if v := r.URL.Query().Get("category_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			_ = utils.WriteBadRequest(w, "invalid category_id", nil)
			return
		}
		filter.CategoryID = &id
	}

	defs, err := h.catalog.ListDefinitions(r.Context(), filter)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, defs)
}
