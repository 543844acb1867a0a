package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (*User, error)
	GetUser(ctx context.Context, id string) (*User, error)
	ListUsers(ctx context.Context, req ListUsersRequest) ([]User, error)
	UpdateUser(ctx context.Context, id string, req UpdateUserRequest) (*User, error)
	DeleteUser(ctx context.Context, id string) error

	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Logout(ctx context.Context, rawToken string) error
	Authenticate(ctx context.Context, rawToken string) (*Session, *User, error)

	ChangePassword(ctx context.Context, userID string, currentPassword string, newPassword string) error
	ResetPassword(ctx context.Context, userID string) (string, error)
	PurgeExpiredSessions(ctx context.Context, before time.Time) (int64, error)
}

type CreateUserRequest struct {
	Email    string
	Name     string
	Password string
	Role     string
	Phone    string
	Address  string
}

type ListUsersRequest struct {
	Role  string
	Query string
}

// UpdateUserRequest leaves fields untouched when they are nil.
type UpdateUserRequest struct {
	Email   *string
	Name    *string
	Phone   *string
	Address *string
	Role    *string
}

type LoginRequest struct {
	Email     string
	Password  string
	UserAgent string
	IPAddress string
}

type LoginResult struct {
	User      *User
	RawToken  string
	ExpiresAt time.Time
	SessionID snowflake.ID
}
