package middleware

import (
	"sort"
	"strings"

	"github.com/storeops/access-engine/models"
)

// RouteClass determines how the access gate treats a path
type RouteClass int

const (
	// RoutePublic passes through the gate untouched
	RoutePublic RouteClass = iota

	// RouteAuthOnly requires a valid session, any role
	RouteAuthOnly

	// RoutePage is a console page: requires a session, an allowed role, and
	// passes the per-employee page-access check when a code is attached
	RoutePage
)

// RouteRule maps a path prefix to its gate treatment. The longest matching
// prefix wins, so specific rules override broad ones regardless of ordering.
type RouteRule struct {
	Prefix string
	Class  RouteClass

	// Roles allowed on the route. Empty means any authenticated role.
	// The administrator always passes regardless of this list.
	Roles []models.Role

	// PermissionCode is the page_access code consulted by the fine check.
	// Empty means the route has no per-employee page gate.
	PermissionCode string
}

// allowsRole reports whether the rule admits the role
func (r *RouteRule) allowsRole(role models.Role) bool {
	if role.IsAdministrator() {
		return true
	}
	if len(r.Roles) == 0 {
		return true
	}
	for _, allowed := range r.Roles {
		if allowed == role {
			return true
		}
	}
	return false
}

// RouteTable classifies request paths by longest prefix match
type RouteTable struct {
	rules []RouteRule
}

// NewRouteTable builds a table from rules, sorted so longer prefixes are
// checked first
func NewRouteTable(rules []RouteRule) *RouteTable {
	sorted := make([]RouteRule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Prefix) > len(sorted[j].Prefix)
	})
	return &RouteTable{rules: sorted}
}

// DefaultRouteTable is the operations console's route map
func DefaultRouteTable() *RouteTable {
	staff := []models.Role{models.RoleManager, models.RoleEmployee}
	managers := []models.Role{models.RoleManager}

	return NewRouteTable([]RouteRule{
		{Prefix: "/auth/", Class: RoutePublic},
		{Prefix: "/health", Class: RoutePublic},
		{Prefix: "/static/", Class: RoutePublic},
		{Prefix: "/favicon.ico", Class: RoutePublic},

		// session required, any role; API role checks happen per route
		{Prefix: "/api/", Class: RouteAuthOnly},
		{Prefix: "/my-orders", Class: RouteAuthOnly},
		{Prefix: "/account", Class: RouteAuthOnly},

		{Prefix: "/dashboard", Class: RoutePage, Roles: staff, PermissionCode: "page_access.dashboard"},
		{Prefix: "/orders", Class: RoutePage, Roles: staff, PermissionCode: "page_access.orders"},
		{Prefix: "/inventory", Class: RoutePage, Roles: staff, PermissionCode: "page_access.inventory"},
		{Prefix: "/customers", Class: RoutePage, Roles: staff, PermissionCode: "page_access.customers"},
		{Prefix: "/reports", Class: RoutePage, Roles: managers, PermissionCode: "page_access.reports"},
		{Prefix: "/settings", Class: RoutePage, Roles: managers, PermissionCode: "page_access.settings"},

		// the admin surface is role-gated only; no employee ever reaches it
		{Prefix: "/admin/", Class: RoutePage, Roles: []models.Role{models.RoleAdmin}},
	})
}

// Classify returns the rule for a path. Paths matching no rule pass as
// public: route classification fails open, and unknown paths are expected
// to 404 downstream rather than be gated.
func (t *RouteTable) Classify(path string) RouteRule {
	for i := range t.rules {
		if strings.HasPrefix(path, t.rules[i].Prefix) {
			return t.rules[i]
		}
	}
	return RouteRule{Class: RoutePublic}
}
