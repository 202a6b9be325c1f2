package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/storeops/access-engine/auth"
	"github.com/storeops/access-engine/config"
	"github.com/storeops/access-engine/models"
	"github.com/storeops/access-engine/utils"
	"go.uber.org/zap"
)

// SessionReader verifies the session carried by a request
type SessionReader interface {
	FromRequest(r *http.Request) (*auth.SessionClaims, error)
}

// PageDenialResolver returns the page_access codes denied to an employee by
// their assigned template. The gate calls it on every page request so a
// template edit takes effect on the very next navigation.
type PageDenialResolver interface {
	ResolvePageDenials(ctx context.Context, employeeID uuid.UUID) (models.DeniedSet, error)
}

// AccessGate is the request-time authorization middleware. Every request goes
// through three stages: route classification, a coarse role check against the
// session, and for console pages a fine per-employee check fetched fresh from
// storage.
type AccessGate struct {
	sessions SessionReader
	resolver PageDenialResolver
	routes   *RouteTable
	lastPage *LastPageCookie
	logger   *zap.Logger

	loginPath      string
	callbackParam  string
	defaultLanding string
	failOpen       bool
}

// NewAccessGate creates the gate middleware
func NewAccessGate(
	sessions SessionReader,
	resolver PageDenialResolver,
	routes *RouteTable,
	lastPage *LastPageCookie,
	authCfg config.AuthConfig,
	gateCfg config.GateConfig,
	logger *zap.Logger,
) *AccessGate {
	return &AccessGate{
		sessions:       sessions,
		resolver:       resolver,
		routes:         routes,
		lastPage:       lastPage,
		logger:         logger,
		loginPath:      authCfg.LoginPath,
		callbackParam:  authCfg.CallbackParam,
		defaultLanding: gateCfg.DefaultLandingPage,
		failOpen:       gateCfg.FailOpen,
	}
}

// Handler wraps next with the gate
func (g *AccessGate) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rule := g.routes.Classify(r.URL.Path)
		if rule.Class == RoutePublic {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := g.sessions.FromRequest(r)
		if err != nil {
			g.unauthenticated(w, r)
			return
		}

		ctx := WithSession(r.Context(), claims)
		r = r.WithContext(ctx)

		if !rule.allowsRole(claims.Role) {
			g.logger.Info("role refused on route",
				zap.String("path", r.URL.Path),
				zap.String("role", string(claims.Role)),
				zap.String("employee_id", claims.EmployeeID.String()))
			g.refuseRole(w, r)
			return
		}

		// Fine check: only console pages carry a code, and the administrator
		// bypasses it without touching storage.
		if rule.Class == RoutePage && rule.PermissionCode != "" && !claims.Role.IsAdministrator() {
			denied, err := g.resolver.ResolvePageDenials(ctx, claims.EmployeeID)
			if err != nil {
				if !g.failOpen {
					g.logger.Error("page denial fetch failed, refusing",
						zap.String("path", r.URL.Path),
						zap.Error(err))
					g.refusePage(w, r)
					return
				}
				g.logger.Warn("page denial fetch failed, letting request through",
					zap.String("path", r.URL.Path),
					zap.Error(err))
			} else if denied.Contains(rule.PermissionCode) {
				g.logger.Info("page access denied",
					zap.String("path", r.URL.Path),
					zap.String("code", rule.PermissionCode),
					zap.String("employee_id", claims.EmployeeID.String()))
				g.refusePage(w, r)
				return
			}
		}

		// Record the page before the handler writes: headers must go out
		// ahead of the response body.
		if rule.Class == RoutePage && r.Method == http.MethodGet {
			g.lastPage.Record(w, r.URL.Path)
		}

		next.ServeHTTP(w, r)
	})
}

// unauthenticated handles requests with no valid session: API calls get a
// JSON 401, page loads are sent to login with the original URL preserved so
// login can bounce them back.
func (g *AccessGate) unauthenticated(w http.ResponseWriter, r *http.Request) {
	if isAPIRequest(r) {
		utils.WriteUnauthorized(w, "")
		return
	}

	target := g.loginPath + "?" + g.callbackParam + "=" + url.QueryEscape(r.URL.RequestURI())
	http.Redirect(w, r, target, http.StatusFound)
}

// refuseRole handles a coarse role denial. This is terminal: the role has no
// business anywhere near the route, so the session is sent to the site root
// rather than bounced to a fallback page.
func (g *AccessGate) refuseRole(w http.ResponseWriter, r *http.Request) {
	if isAPIRequest(r) {
		utils.WriteForbidden(w, "")
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// refusePage handles a per-employee page denial. Softer than a role refusal:
// the session is sent back to the last page it was allowed onto, so a denied
// navigation lands somewhere the employee can actually use.
func (g *AccessGate) refusePage(w http.ResponseWriter, r *http.Request) {
	if isAPIRequest(r) {
		utils.WriteForbidden(w, "")
		return
	}

	target := g.lastPage.Read(r)
	if target == "" || target == r.URL.Path {
		target = g.defaultLanding
	}
	if target == r.URL.Path {
		// denied from the landing page itself; the root is always safe
		target = "/"
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// isAPIRequest reports whether the request expects a JSON response rather
// than a redirect
func isAPIRequest(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}
