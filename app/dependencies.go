package app

import (
	"context"
	"fmt"
	"time"

	"github.com/storeops/access-engine/auth"
	"github.com/storeops/access-engine/config"
	"github.com/storeops/access-engine/middleware"
	"github.com/storeops/access-engine/repositories"
	"github.com/storeops/access-engine/repositories/postgres"
	"github.com/storeops/access-engine/services/audit"
	"github.com/storeops/access-engine/services/catalog"
	"github.com/storeops/access-engine/services/employee"
	"github.com/storeops/access-engine/services/restriction"
	"github.com/storeops/access-engine/services/template"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies following the GrantPulse pattern.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Catalog      repositories.CatalogRepository
	Restrictions repositories.RestrictionRepository
	Templates    repositories.TemplateRepository
	Employees    repositories.EmployeeRepository
	AuditLog     repositories.AuditRepository
	TxManager    repositories.TransactionManager

	// Services
	AuditRecorder      *audit.Recorder
	CatalogService     *catalog.Service
	RestrictionService *restriction.Service
	TemplateService    *template.Service
	EmployeeService    *employee.Service

	// Request gate
	Sessions *auth.SessionManager
	Gate     *middleware.AccessGate
}

// NewDependencies creates and wires up all application dependencies.
// This follows the GrantPulse pattern of centralized dependency injection.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps.initRepositories()
	if err := deps.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	deps.initGate(cfg)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase initializes the PostgreSQL database connection and factory
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	factory, err := postgres.NewRepositoryFactory(cfg, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to create repository factory: %w", err)
	}

	d.RepoFactory = factory
	d.DB = factory.GetDB()

	if err := d.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// Initialize audit schema when using separate audit DB
	if err := factory.InitAuditSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize audit schema: %w", err)
	}

	d.Logger.Info("database connection established",
		zap.String("connection", cfg.Database.LogString()))

	return nil
}

// initRepositories initializes all repository instances
func (d *Dependencies) initRepositories() {
	repos := d.RepoFactory.NewRepositories()

	d.Catalog = repos.Catalog
	d.Restrictions = repos.Restrictions
	d.Templates = repos.Templates
	d.Employees = repos.Employees
	d.AuditLog = repos.AuditLog
	d.TxManager = d.RepoFactory.GetTransactionManager()

	d.Logger.Info("repositories initialized")
}

// initServices wires the domain services over the repositories. The audit
// recorder fronts the audit repository so restriction writes are persisted
// off the request path.
func (d *Dependencies) initServices() error {
	d.AuditRecorder = audit.NewRecorder(d.AuditLog, d.Logger, audit.DefaultConfig())
	if err := d.AuditRecorder.Start(); err != nil {
		return fmt.Errorf("failed to start audit recorder: %w", err)
	}

	d.CatalogService = catalog.NewService(d.Catalog, d.Logger)
	d.RestrictionService = restriction.NewService(
		d.Restrictions, d.Templates, d.Catalog, d.AuditRecorder, d.TxManager, d.Logger)
	d.TemplateService = template.NewService(
		d.Templates, d.Employees, d.Catalog, d.AuditRecorder, d.Logger)
	d.EmployeeService = employee.NewService(d.Employees, d.Logger)

	d.Logger.Info("services initialized")
	return nil
}

// initGate builds the session manager and the access gate in front of every
// route. Cookie Secure flags follow whether the server terminates TLS.
func (d *Dependencies) initGate(cfg *config.Config) {
	secure := cfg.Server.TLS.Enabled
	d.Sessions = auth.NewSessionManager(cfg.Auth, secure)

	d.Gate = middleware.NewAccessGate(
		d.Sessions,
		d.TemplateService,
		middleware.DefaultRouteTable(),
		middleware.NewLastPageCookie(cfg.Gate, secure),
		cfg.Auth,
		cfg.Gate,
		d.Logger,
	)

	d.Logger.Info("access gate initialized",
		zap.Bool("fail_open", cfg.Gate.FailOpen))
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.AuditRecorder != nil {
		if err := d.AuditRecorder.Stop(5 * time.Second); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop audit recorder: %w", err))
		}
	}

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
