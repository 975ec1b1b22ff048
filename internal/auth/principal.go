package auth

import (
	"context"

	"github.com/google/uuid"
)

type Role string

const (
	RolePatient   Role = "patient"
	RoleDoctor    Role = "doctor"
	RoleSecretary Role = "secretary"
	RoleAdmin     Role = "admin"
)

// Principal is the authenticated actor behind a request, as asserted by
// the external identity provider. Queue and ledger operations trust it
// for ownership checks.
type Principal struct {
	ID   uuid.UUID
	Name string
	Role Role
}

// CanManageQueue reports whether the principal may call the next patient.
func (p Principal) CanManageQueue() bool {
	switch p.Role {
	case RoleDoctor, RoleSecretary, RoleAdmin:
		return true
	default:
		return false
	}
}

type contextKey string

const principalKey contextKey = "principal"

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the authenticated principal if present.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}
