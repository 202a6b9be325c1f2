package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/storeops/access-engine/app"
	"github.com/storeops/access-engine/handlers"
	"github.com/storeops/access-engine/middleware"
	"github.com/storeops/access-engine/models"
)

// SetupRoutes configures all application routes and middleware. The access
// gate wraps everything: route classification decides per path whether a
// session, a role, or a page-access check applies.
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// The gate sits in front of every route; its table marks /auth/ and
	// /health as public
	r.Use(deps.Gate.Handler)

	healthHandler := handlers.NewHealthHandler(deps.DB.DB, deps.Logger)
	authHandler := handlers.NewAuthHandler(
		deps.EmployeeService, deps.Sessions, deps.Config.Gate.DefaultLandingPage, deps.Logger)
	catalogHandler := handlers.NewCatalogHandler(deps.CatalogService, deps.Logger)
	restrictionHandler := handlers.NewRestrictionHandler(
		deps.RestrictionService, deps.CatalogService, deps.EmployeeService, deps.Logger)
	templateHandler := handlers.NewTemplateHandler(deps.TemplateService, deps.Logger)
	employeeHandler := handlers.NewEmployeeHandler(deps.EmployeeService, deps.Logger)
	auditHandler := handlers.NewAuditHandler(deps.AuditRecorder, deps.Logger)

	// Health check endpoints
	r.Get("/health", healthHandler.HandleHealth)
	r.Get("/health/ready", healthHandler.HandleReadiness)

	// Session endpoints
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)
		r.Get("/session", authHandler.HandleSession)
	})

	// API v1 routes. The gate has already required a session for everything
	// under /api/; role gates below narrow the management surfaces.
	r.Route("/api/v1", func(r chi.Router) {
		// The console permission cache loads from here, any role
		r.Get("/me/permissions", restrictionHandler.HandleMyPermissions)

		// Catalog reads are needed by manager screens too; writes are
		// admin only
		manager := middleware.RequireRoles(models.RoleManager)
		admin := middleware.RequireRoles()

		r.With(manager).Get("/catalog", catalogHandler.HandleGetCatalog)
		r.With(manager).Get("/catalog/definitions", catalogHandler.HandleListDefinitions)

		r.With(admin).Post("/catalog/categories", catalogHandler.HandleCreateCategory)
		r.With(admin).Put("/catalog/categories/{id}", catalogHandler.HandleUpdateCategory)
		r.With(admin).Delete("/catalog/categories/{id}", catalogHandler.HandleDeactivateCategory)
		r.With(admin).Post("/catalog/definitions", catalogHandler.HandleCreateDefinition)
		r.With(admin).Put("/catalog/definitions/{id}", catalogHandler.HandleUpdateDefinition)
		r.With(admin).Delete("/catalog/definitions/{id}", catalogHandler.HandleDeactivateDefinition)

		// Role restrictions (admin only)
		r.Route("/roles/{role}", func(r chi.Router) {
			r.Use(middleware.RequireRoles())
			r.Get("/permissions", restrictionHandler.HandleRoleMatrix)
			r.Get("/permissions/{code}", restrictionHandler.HandleGetState)
			r.Post("/permissions/{code}/toggle", restrictionHandler.HandleToggle)
			r.Post("/restrictions", restrictionHandler.HandleRestrictBatch)
			r.Post("/restrictions/remove", restrictionHandler.HandleUnrestrictBatch)
		})

		// Permission templates (admin only)
		r.Route("/templates", func(r chi.Router) {
			r.Use(middleware.RequireRoles())
			r.Get("/", templateHandler.HandleList)
			r.Post("/", templateHandler.HandleCreate)
			r.Get("/{id}", templateHandler.HandleGet)
			r.Put("/{id}", templateHandler.HandleUpdate)
			r.Delete("/{id}", templateHandler.HandleDeactivate)
			r.Post("/{id}/permissions/{code}/toggle", templateHandler.HandleToggleRestriction)
		})

		// Employee management (admin only)
		r.Route("/employees", func(r chi.Router) {
			r.Use(middleware.RequireRoles())
			r.Get("/", employeeHandler.HandleList)
			r.Post("/", employeeHandler.HandleCreate)
			r.Get("/{id}", employeeHandler.HandleGet)
			r.Put("/{id}/active", employeeHandler.HandleSetActive)
			r.Put("/{id}/role", employeeHandler.HandleChangeRole)
			r.Put("/{id}/template", templateHandler.HandleAssign)
		})

		// Audit trail (admin only)
		r.Route("/audit", func(r chi.Router) {
			r.Use(middleware.RequireRoles())
			r.Get("/{scope}", auditHandler.HandleListByScope)
		})
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"endpoint not found"}`))
	})

	return r
}
