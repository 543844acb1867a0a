package usercontext

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
)

const (
	RoleAdmin    = "admin"
	RoleReseller = "reseller"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

// Identity is the authenticated user attached to a request.
type Identity struct {
	ID    snowflake.ID
	Role  string
	Name  string
	Email string
}

func (i Identity) IsAdmin() bool {
	return strings.EqualFold(strings.TrimSpace(i.Role), RoleAdmin)
}

type identityKey struct{}

// WithIdentity stores the authenticated user in the context.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFromContext returns the authenticated user, if set.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	identity, ok := ctx.Value(identityKey{}).(Identity)
	if !ok || identity.ID == 0 {
		return Identity{}, false
	}
	return identity, true
}

// IsAdmin reports whether the context carries an admin identity.
func IsAdmin(ctx context.Context) bool {
	identity, ok := IdentityFromContext(ctx)
	return ok && identity.IsAdmin()
}

// Require returns the request identity or ErrUnauthenticated.
func Require(ctx context.Context) (Identity, error) {
	identity, ok := IdentityFromContext(ctx)
	if !ok {
		return Identity{}, ErrUnauthenticated
	}
	return identity, nil
}

// CanAccess reports whether identity may see data owned by ownerID.
func (i Identity) CanAccess(ownerID snowflake.ID) bool {
	return i.IsAdmin() || (i.ID != 0 && i.ID == ownerID)
}
