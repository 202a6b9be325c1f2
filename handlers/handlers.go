package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/storeops/access-engine/middleware"
	"github.com/storeops/access-engine/utils"
	"go.uber.org/zap"
)

// decodeRequest decodes and validates a JSON request body. On failure it
// writes the error response and returns false.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst interface{}, logger *zap.Logger) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		_ = utils.WriteBadRequest(w, "invalid request body", nil)
		return false
	}
	if err := utils.ValidateStruct(dst); err != nil {
		HandleValidationError(w, err, logger)
		return false
	}
	return true
}

// uuidParam parses a UUID path parameter. On failure it writes a 400 and
// returns false.
func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		_ = utils.WriteBadRequest(w, "invalid "+name, map[string]interface{}{name: chi.URLParam(r, name)})
		return uuid.Nil, false
	}
	return id, true
}

// pagination reads limit and offset query parameters with defaults
func pagination(r *http.Request) (limit, offset int) {
	limit = 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			offset = n
		}
	}
	return limit, offset
}

// actorFrom identifies the caller for audit attribution. The gate has already
// verified the session by the time any handler runs.
func actorFrom(r *http.Request) string {
	if claims := middleware.GetSessionFromContext(r.Context()); claims != nil {
		return claims.Email
	}
	return "unknown"
}
