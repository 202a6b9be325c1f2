package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/storeops/access-engine/auth"
	"github.com/storeops/access-engine/models"
	"github.com/storeops/access-engine/utils"
	"go.uber.org/zap"
)

// LoginRequest represents a login attempt
type LoginRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required"`
	CallbackURL string `json:"callback_url,omitempty"`
}

// LoginResponse represents a successful login
type LoginResponse struct {
	EmployeeID string `json:"employee_id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	RedirectTo string `json:"redirect_to"`
}

// SessionResponse describes the current session
type SessionResponse struct {
	EmployeeID string  `json:"employee_id"`
	Email      string  `json:"email"`
	Role       string  `json:"role"`
	TemplateID *string `json:"template_id,omitempty"`
}

// Authenticator verifies employee credentials
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*models.Employee, error)
}

// AuthHandler handles session login and logout
type AuthHandler struct {
	employees      Authenticator
	sessions       *auth.SessionManager
	defaultLanding string
	logger         *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(employees Authenticator, sessions *auth.SessionManager, defaultLanding string, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		employees:      employees,
		sessions:       sessions,
		defaultLanding: defaultLanding,
		logger:         logger,
	}
}

// HandleLogin handles POST /auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	employee, err := h.employees.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	token, err := h.sessions.Issue(employee)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	http.SetCookie(w, h.sessions.Cookie(token))

	h.logger.Info("employee logged in",
		zap.String("employee_id", employee.ID.String()),
		zap.String("role", string(employee.Role)))

	_ = utils.WriteOK(w, LoginResponse{
		EmployeeID: employee.ID.String(),
		Email:      employee.Email,
		Name:       employee.Name,
		Role:       string(employee.Role),
		RedirectTo: h.redirectTarget(req.CallbackURL),
	})
}

// HandleLogout handles POST /auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.sessions.ClearCookie())
	utils.WriteNoContent(w)
}

// HandleSession handles GET /auth/session: the identity behind the cookie.
// The gate doesn't cover /auth/, so the session is read here directly.
func (h *AuthHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	claims, err := h.sessions.FromRequest(r)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	resp := SessionResponse{
		EmployeeID: claims.EmployeeID.String(),
		Email:      claims.Email,
		Role:       string(claims.Role),
	}
	if claims.PermissionID != nil {
		id := claims.PermissionID.String()
		resp.TemplateID = &id
	}
	_ = utils.WriteOK(w, resp)
}

// redirectTarget picks where login sends the client next. Only same-site
// paths are honored; anything else falls back to the landing page.
func (h *AuthHandler) redirectTarget(callback string) string {
	if strings.HasPrefix(callback, "/") && !strings.HasPrefix(callback, "//") {
		return callback
	}
	return h.defaultLanding
}
