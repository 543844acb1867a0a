package domain

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
	ErrSessionRevoked     = errors.New("session revoked")
	ErrInvalidSession     = errors.New("invalid session")

	ErrInvalidID        = errors.New("invalid_id")
	ErrInvalidEmail     = errors.New("invalid_email")
	ErrInvalidName      = errors.New("invalid_name")
	ErrInvalidRole      = errors.New("invalid_role")
	ErrWeakPassword     = errors.New("weak_password")
	ErrPasswordReused   = errors.New("password_reused")
	ErrCannotDeleteSelf = errors.New("cannot_delete_self")
)
