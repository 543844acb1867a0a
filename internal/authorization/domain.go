package authorization

import (
	"context"
	"errors"

	"github.com/smallbiznis/cicilan/internal/usercontext"
)

var (
	ErrInvalidActor  = errors.New("invalid_actor")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
	ErrForbidden     = errors.New("forbidden")
)

// Service answers capability questions for authenticated users.
type Service interface {
	Authorize(ctx context.Context, actor usercontext.Identity, object string, action string) error
	RequireRole(ctx context.Context, actor usercontext.Identity, role string) error
}
