package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/storeops/access-engine/models"
	"github.com/storeops/access-engine/services"
	"github.com/storeops/access-engine/utils"
	"go.uber.org/zap"
)

// AuditReader lists restriction audit entries
type AuditReader interface {
	ListByScope(ctx context.Context, scope string, limit, offset int) ([]*models.RestrictionAuditEntry, error)
}

// AuditHandler serves the restriction audit trail
type AuditHandler struct {
	auditLog AuditReader
	logger   *zap.Logger
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(auditLog AuditReader, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{
		auditLog: auditLog,
		logger:   logger,
	}
}

// HandleListByScope handles GET /audit/{scope}. The scope is a role's
// restriction scope or a template ID, matching what the writers record.
func (h *AuditHandler) HandleListByScope(w http.ResponseWriter, r *http.Request) {
	scope := chi.URLParam(r, "scope")
	if scope == "" {
		_ = utils.WriteBadRequest(w, "scope is required", nil)
		return
	}
	limit, offset := pagination(r)

	entries, err := h.auditLog.ListByScope(r.Context(), scope, limit, offset)
	if err != nil {
		HandleServiceError(w, services.WrapInternal("failed to list audit entries", err), h.logger)
		return
	}
	if entries == nil {
		entries = []*models.RestrictionAuditEntry{}
	}
	_ = utils.WriteOK(w, entries)
}
