package auth

import (
	"context"
)

// Role is the caller's role as asserted by the upstream gateway. Identity and
// role verification happen there; this service only consumes the result.
type Role string

const (
	RoleMember     Role = "MEMBER"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleWarehouse  Role = "WAREHOUSE"
)

// Principal is the authenticated caller of an HTTP request.
type Principal struct {
	MemberID int64
	Role     Role
}

// IsAdmin reports whether the principal may use administrative endpoints.
func (p Principal) IsAdmin() bool {
	switch p.Role {
	case RoleAdmin, RoleSuperAdmin, RoleWarehouse:
		return true
	default:
		return false
	}
}

type contextKey string

const principalKey contextKey = "principal"

// ContextWithPrincipal returns a new context carrying the authenticated caller.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext retrieves the authenticated caller from the context, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	value := ctx.Value(principalKey)
	if value == nil {
		return Principal{}, false
	}
	p, ok := value.(Principal)
	if !ok {
		return Principal{}, false
	}
	if p.MemberID <= 0 {
		return Principal{}, false
	}
	return p, true
}
