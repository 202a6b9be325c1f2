package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/storeops/access-engine/middleware"
	"github.com/storeops/access-engine/models"
	"github.com/storeops/access-engine/services/catalog"
	"github.com/storeops/access-engine/utils"
	"go.uber.org/zap"
)

// BatchRestrictionRequest carries the codes for a bulk restriction write
type BatchRestrictionRequest struct {
	Codes []string `json:"codes" validate:"required,min=1,dive,required"`
}

// PermissionStateResponse is the direct-polarity state of one code
type PermissionStateResponse struct {
	Code  string                 `json:"code"`
	State models.PermissionState `json:"state"`
}

// BatchResultResponse reports how many rows a bulk write touched
type BatchResultResponse struct {
	Affected int `json:"affected"`
}

// CategoryStatesResponse is one catalog category with each definition's
// direct-polarity state for the role under view
type CategoryStatesResponse struct {
	Category    *models.PermissionCategory `json:"category"`
	Permissions []PermissionStateResponse  `json:"permissions"`
}

// EffectivePermissionsResponse is what the console's permission cache loads:
// the caller's own denied codes, resolved at fetch time
type EffectivePermissionsResponse struct {
	Role        string    `json:"role"`
	DeniedCodes []string  `json:"denied_codes"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// RestrictionService defines the role restriction operations the handler needs
type RestrictionService interface {
	StateOf(ctx context.Context, role models.Role, code string) (models.PermissionState, error)
	Toggle(ctx context.Context, role models.Role, code, actor string) (models.PermissionState, error)
	RestrictAll(ctx context.Context, role models.Role, codes []string, actor string) (int, error)
	UnrestrictAll(ctx context.Context, role models.Role, codes []string, actor string) (int, error)
	RoleDenials(ctx context.Context, role models.Role) ([]string, error)
	EffectiveDenials(ctx context.Context, employee *models.Employee) (models.DeniedSet, error)
}

// EmployeeReader loads employee records for the effective-permission lookup
type EmployeeReader interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Employee, error)
}

// RestrictionHandler handles role restriction HTTP requests. Responses always
// speak direct polarity; only storage thinks in rows.
type RestrictionHandler struct {
	restrictions RestrictionService
	catalog      CatalogService
	employees    EmployeeReader
	logger       *zap.Logger
}

// NewRestrictionHandler creates a new RestrictionHandler
func NewRestrictionHandler(restrictions RestrictionService, catalogSvc CatalogService, employees EmployeeReader, logger *zap.Logger) *RestrictionHandler {
	return &RestrictionHandler{
		restrictions: restrictions,
		catalog:      catalogSvc,
		employees:    employees,
		logger:       logger,
	}
}

// HandleRoleMatrix handles GET /roles/{role}/permissions: the full catalog
// with each code's state for the role, the shape the console renders as a
// toggle matrix.
func (h *RestrictionHandler) HandleRoleMatrix(w http.ResponseWriter, r *http.Request) {
	role, ok := h.roleParam(w, r)
	if !ok {
		return
	}

	parentType := models.ParentTypeStore
	if surface := r.URL.Query().Get("surface"); surface != "" {
		parentType = models.ParentType(surface)
	}

	views, err := h.catalog.Catalog(r.Context(), parentType)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	denials, err := h.restrictions.RoleDenials(r.Context(), role)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	denied := models.NewDeniedSet(denials)

	matrix := make([]CategoryStatesResponse, 0, len(views))
	for _, view := range views {
		states := make([]PermissionStateResponse, 0, len(view.Definitions))
		for _, def := range view.Definitions {
			states = append(states, PermissionStateResponse{
				Code:  def.Code,
				State: models.StateFromRestricted(denied.Contains(def.Code)),
			})
		}
		matrix = append(matrix, CategoryStatesResponse{
			Category:    view.Category,
			Permissions: states,
		})
	}
	_ = utils.WriteOK(w, matrix)
}

// HandleGetState handles GET /roles/{role}/permissions/{code}
func (h *RestrictionHandler) HandleGetState(w http.ResponseWriter, r *http.Request) {
	role, ok := h.roleParam(w, r)
	if !ok {
		return
	}
	code := chi.URLParam(r, "code")

	state, err := h.restrictions.StateOf(r.Context(), role, code)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, PermissionStateResponse{Code: code, State: state})
}

// HandleToggle handles POST /roles/{role}/permissions/{code}/toggle
func (h *RestrictionHandler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	role, ok := h.roleParam(w, r)
	if !ok {
		return
	}
	code := chi.URLParam(r, "code")

	state, err := h.restrictions.Toggle(r.Context(), role, code, actorFrom(r))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, PermissionStateResponse{Code: code, State: state})
}

// HandleRestrictBatch handles POST /roles/{role}/restrictions
func (h *RestrictionHandler) HandleRestrictBatch(w http.ResponseWriter, r *http.Request) {
	role, ok := h.roleParam(w, r)
	if !ok {
		return
	}
	var req BatchRestrictionRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	added, err := h.restrictions.RestrictAll(r.Context(), role, req.Codes, actorFrom(r))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, BatchResultResponse{Affected: added})
}

// HandleUnrestrictBatch handles POST /roles/{role}/restrictions/remove
func (h *RestrictionHandler) HandleUnrestrictBatch(w http.ResponseWriter, r *http.Request) {
	role, ok := h.roleParam(w, r)
	if !ok {
		return
	}
	var req BatchRestrictionRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	removed, err := h.restrictions.UnrestrictAll(r.Context(), role, req.Codes, actorFrom(r))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, BatchResultResponse{Affected: removed})
}

// HandleMyPermissions handles GET /me/permissions: the caller's effective
// denial set, role and template merged. The console's permission cache loads
// and re-loads from here.
func (h *RestrictionHandler) HandleMyPermissions(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetSessionFromContext(r.Context())
	if claims == nil {
		_ = utils.WriteUnauthorized(w, "")
		return
	}

	employee, err := h.employees.Get(r.Context(), claims.EmployeeID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	denied, err := h.restrictions.EffectiveDenials(r.Context(), employee)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, EffectivePermissionsResponse{
		Role:        string(employee.Role),
		DeniedCodes: denied.Codes(),
		FetchedAt:   time.Now().UTC(),
	})
}

func (h *RestrictionHandler) roleParam(w http.ResponseWriter, r *http.Request) (models.Role, bool) {
	role := models.Role(chi.URLParam(r, "role"))
	if !role.Valid() {
		_ = utils.WriteBadRequest(w, "invalid role", map[string]interface{}{"role": string(role)})
		return "", false
	}
	return role, true
}

// interface guard: the catalog service satisfies what the matrix view needs
var _ CatalogService = (*catalog.Service)(nil)
