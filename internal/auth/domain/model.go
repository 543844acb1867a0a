// Package domain contains core types for the auth service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/cicilan/internal/usercontext"
)

const (
	RoleAdmin    = usercontext.RoleAdmin
	RoleReseller = usercontext.RoleReseller
)

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleReseller
}

// User represents an admin or reseller account.
type User struct {
	ID                  snowflake.ID `json:"id"`
	Email               string       `json:"email"`
	Name                string       `json:"name"`
	Phone               *string      `json:"phone,omitempty"`
	Address             *string      `json:"address,omitempty"`
	Role                string       `json:"role"`
	PasswordHash        string       `json:"-"`
	IsDefault           bool         `json:"isDefault"`
	LastPasswordChanged *time.Time   `json:"lastPasswordChanged,omitempty"`
	CreatedAt           time.Time    `json:"createdAt"`
	UpdatedAt           time.Time    `json:"updatedAt"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

// Identity returns the request identity for the user.
func (u User) Identity() usercontext.Identity {
	return usercontext.Identity{ID: u.ID, Role: u.Role, Name: u.Name, Email: u.Email}
}

// Session represents a persisted login session.
type Session struct {
	ID               snowflake.ID
	UserID           snowflake.ID
	SessionTokenHash string
	UserAgent        string
	IPAddress        string
	ExpiresAt        time.Time
	RevokedAt        *time.Time
	CreatedAt        time.Time
	LastSeenAt       time.Time
}

// TableName sets the database table name.
func (Session) TableName() string { return "sessions" }
