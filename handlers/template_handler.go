package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/storeops/access-engine/models"
	"github.com/storeops/access-engine/utils"
	"go.uber.org/zap"
)

// TemplateRequest represents a request to create or update a template
type TemplateRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description,omitempty"`
}

// AssignTemplateRequest assigns or clears an employee's template.
// A null template_id clears the assignment.
type AssignTemplateRequest struct {
	TemplateID *uuid.UUID `json:"template_id"`
}

// TemplateDetailResponse is a template with its denied codes
type TemplateDetailResponse struct {
	Template    *models.PermissionTemplate `json:"template"`
	DeniedCodes []string                   `json:"denied_codes"`
}

// TemplateService defines the template operations the handler needs
type TemplateService interface {
	Create(ctx context.Context, name, description string) (*models.PermissionTemplate, error)
	Update(ctx context.Context, id uuid.UUID, name, description string) (*models.PermissionTemplate, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*models.PermissionTemplate, error)
	List(ctx context.Context, activeOnly bool) ([]*models.PermissionTemplate, error)
	RestrictionCodes(ctx context.Context, templateID uuid.UUID) ([]string, error)
	ToggleRestriction(ctx context.Context, templateID uuid.UUID, code, actor string) (models.PermissionState, error)
	Assign(ctx context.Context, employeeID uuid.UUID, templateID *uuid.UUID) error
}

// TemplateHandler handles permission template HTTP requests
type TemplateHandler struct {
	templates TemplateService
	logger    *zap.Logger
}

// NewTemplateHandler creates a new TemplateHandler
func NewTemplateHandler(templates TemplateService, logger *zap.Logger) *TemplateHandler {
	return &TemplateHandler{
		templates: templates,
		logger:    logger,
	}
}

// HandleList handles GET /templates
func (h *TemplateHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("include_inactive") != "true"

	templates, err := h.templates.List(r.Context(), activeOnly)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, templates)
}

// HandleCreate handles POST /templates
func (h *TemplateHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req TemplateRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	template, err := h.templates.Create(r.Context(), req.Name, req.Description)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteCreated(w, template)
}

// HandleGet handles GET /templates/{id}: the template plus every code it
// denies, the shape the console's template editor loads
func (h *TemplateHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	template, err := h.templates.Get(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	codes, err := h.templates.RestrictionCodes(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, TemplateDetailResponse{
		Template:    template,
		DeniedCodes: codes,
	})
}

// HandleUpdate handles PUT /templates/{id}
func (h *TemplateHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req TemplateRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	template, err := h.templates.Update(r.Context(), id, req.Name, req.Description)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, template)
}

// HandleDeactivate handles DELETE /templates/{id}
func (h *TemplateHandler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.templates.Deactivate(r.Context(), id); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	utils.WriteNoContent(w)
}

// HandleToggleRestriction handles POST /templates/{id}/permissions/{code}/toggle
func (h *TemplateHandler) HandleToggleRestriction(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	code := chi.URLParam(r, "code")

	state, err := h.templates.ToggleRestriction(r.Context(), id, code, actorFrom(r))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, PermissionStateResponse{Code: code, State: state})
}

// HandleAssign handles PUT /employees/{id}/template
func (h *TemplateHandler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req AssignTemplateRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	if err := h.templates.Assign(r.Context(), employeeID, req.TemplateID); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	utils.WriteNoContent(w)
}
