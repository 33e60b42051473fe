package rbac

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/academica-erp/academica/internal/shared"
)

// Middleware wires role authorization for HTTP handlers. It is purely
// role-based; tenant and ownership checks belong to the tenancy layer.
type Middleware struct {
	Logger *slog.Logger
}

// RequireAny ensures the current principal holds one of the named roles.
// An empty role list admits any authenticated principal.
func (m Middleware) RequireAny(roles ...string) func(http.Handler) http.Handler {
	normalized := normalizeRoles(roles)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := shared.PrincipalFromContext(r.Context())
			if principal == nil {
				shared.RespondError(w, m.Logger, shared.Unauthenticated("missing bearer token"))
				return
			}
			if len(normalized) == 0 || hasRole(normalized, principal.Role) {
				next.ServeHTTP(w, r)
				return
			}
			if m.Logger != nil {
				m.Logger.Warn("role denied",
					slog.String("role", principal.Role),
					slog.String("path", r.URL.Path))
			}
			shared.RespondError(w, m.Logger, shared.Forbidden("insufficient role"))
		})
	}
}

func normalizeRoles(roles []string) []string {
	unique := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		role = strings.TrimSpace(strings.ToLower(role))
		if role == "" {
			continue
		}
		unique[role] = struct{}{}
	}
	normalized := make([]string, 0, len(unique))
	for role := range unique {
		normalized = append(normalized, role)
	}
	return normalized
}

func hasRole(allowed []string, role string) bool {
	role = strings.ToLower(role)
	for _, a := range allowed {
		if a == role {
			return true
		}
	}
	return false
}
