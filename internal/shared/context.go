package shared

import "context"

// Principal describes the authenticated caller for the lifetime of a request.
// BranchID is zero only for super admins.
type Principal struct {
	UserID   int64
	Email    string
	Role     string
	BranchID int64
}

// IsSuperAdmin reports whether the principal bypasses tenant scoping.
func (p *Principal) IsSuperAdmin() bool {
	return p != nil && p.Role == RoleSuperAdmin
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context, nil when absent.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}
