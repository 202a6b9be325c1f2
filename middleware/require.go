package middleware

import (
	"net/http"

	"github.com/storeops/access-engine/models"
	"github.com/storeops/access-engine/utils"
)

// RequireRoles restricts an API subtree to the given roles. It expects the
// access gate to have run first and put the session in the context; the
// administrator always passes.
func RequireRoles(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetSessionFromContext(r.Context())
			if claims == nil {
				_ = utils.WriteUnauthorized(w, "")
				return
			}
			if !claims.Role.IsAdministrator() {
				allowed := false
				for _, role := range roles {
					if claims.Role == role {
						allowed = true
						break
					}
				}
				if !allowed {
					_ = utils.WriteForbidden(w, "")
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
