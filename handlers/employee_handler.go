package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/storeops/access-engine/models"
	"github.com/storeops/access-engine/services/employee"
	"github.com/storeops/access-engine/utils"
	"go.uber.org/zap"
)

// CreateEmployeeRequest represents a request to register an employee
type CreateEmployeeRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=admin manager employee customer"`
}

// SetActiveRequest toggles an employee account
type SetActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// ChangeRoleRequest moves an employee to another role
type ChangeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin manager employee customer"`
}

// EmployeeResponse represents an employee in API responses; the password
// hash never leaves the service layer
type EmployeeResponse struct {
	ID         uuid.UUID  `json:"id"`
	Email      string     `json:"email"`
	Name       string     `json:"name"`
	Role       string     `json:"role"`
	TemplateID *uuid.UUID `json:"template_id,omitempty"`
	IsActive   bool       `json:"is_active"`
}

// EmployeeService defines the employee operations the handler needs
type EmployeeService interface {
	Create(ctx context.Context, in employee.CreateInput) (*models.Employee, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Employee, error)
	List(ctx context.Context, limit, offset int) ([]*models.Employee, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	ChangeRole(ctx context.Context, id uuid.UUID, role models.Role) (*models.Employee, error)
}

// EmployeeHandler handles employee management HTTP requests
type EmployeeHandler struct {
	employees EmployeeService
	logger    *zap.Logger
}

// NewEmployeeHandler creates a new EmployeeHandler
func NewEmployeeHandler(employees EmployeeService, logger *zap.Logger) *EmployeeHandler {
	return &EmployeeHandler{
		employees: employees,
		logger:    logger,
	}
}

// HandleCreate handles POST /employees
func (h *EmployeeHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	created, err := h.employees.Create(r.Context(), employee.CreateInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		Role:     models.Role(req.Role),
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteCreated(w, employeeResponse(created))
}

// HandleGet handles GET /employees/{id}
func (h *EmployeeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	found, err := h.employees.Get(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, employeeResponse(found))
}

// HandleList handles GET /employees
func (h *EmployeeHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	employees, err := h.employees.List(r.Context(), limit, offset)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	out := make([]EmployeeResponse, 0, len(employees))
	for _, e := range employees {
		out = append(out, employeeResponse(e))
	}
	_ = utils.WriteOK(w, out)
}

// HandleSetActive handles PUT /employees/{id}/active
func (h *EmployeeHandler) HandleSetActive(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req SetActiveRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	if err := h.employees.SetActive(r.Context(), id, *req.Active); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	utils.WriteNoContent(w)
}

// HandleChangeRole handles PUT /employees/{id}/role
func (h *EmployeeHandler) HandleChangeRole(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req ChangeRoleRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	updated, err := h.employees.ChangeRole(r.Context(), id, models.Role(req.Role))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, employeeResponse(updated))
}

func employeeResponse(e *models.Employee) EmployeeResponse {
	return EmployeeResponse{
		ID:         e.ID,
		Email:      e.Email,
		Name:       e.Name,
		Role:       string(e.Role),
		TemplateID: e.PermissionID,
		IsActive:   e.IsActive,
	}
}
