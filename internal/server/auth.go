package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/cicilan/internal/audit/domain"
	authdomain "github.com/smallbiznis/cicilan/internal/auth/domain"
	"github.com/smallbiznis/cicilan/internal/usercontext"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6"`
}

type meResponse struct {
	*authdomain.User
	MustChangePassword bool `json:"mustChangePassword"`
}

func (s *Server) Login(c *gin.Context) {
	var req LoginRequest
	if err := bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	result, err := s.authsvc.Login(c.Request.Context(), authdomain.LoginRequest{
		Email:     email,
		Password:  req.Password,
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		if s.auditSvc != nil {
			_ = s.auditSvc.AuditLog(c.Request.Context(), string(auditdomain.ActorTypeUser), nil, "user.login_failed", "user", nil, map[string]any{
				"email": email,
			})
		}
		AbortWithError(c, err)
		return
	}

	s.sessions.Set(c, result.RawToken, result.ExpiresAt)

	if s.auditSvc != nil {
		userID := result.User.ID.String()
		_ = s.auditSvc.AuditLog(c.Request.Context(), string(auditdomain.ActorTypeUser), &userID, "user.login", "user", &userID, map[string]any{
			"email": email,
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": meResponse{
		User:               result.User,
		MustChangePassword: result.User.IsDefault,
	}})
}

func (s *Server) Logout(c *gin.Context) {
	token, ok := s.sessions.ReadToken(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	if err := s.authsvc.Logout(c.Request.Context(), token); err != nil {
		AbortWithError(c, err)
		return
	}

	s.sessions.Clear(c)
	c.Status(http.StatusNoContent)
}

func (s *Server) Me(c *gin.Context) {
	identity, err := usercontext.Require(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	user, err := s.authsvc.GetUser(c.Request.Context(), identity.ID.String())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": meResponse{
		User:               user,
		MustChangePassword: user.IsDefault || user.LastPasswordChanged == nil,
	}})
}

func (s *Server) ChangePassword(c *gin.Context) {
	identity, err := usercontext.Require(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.changePassword(c, identity.ID.String())
}

// ChangeUserPassword lets a member rotate their own password through the
// members API. Admins reset other members instead.
func (s *Server) ChangeUserPassword(c *gin.Context) {
	identity, err := usercontext.Require(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	if id != identity.ID.String() {
		AbortWithError(c, ErrForbidden)
		return
	}
	s.changePassword(c, id)
}

func (s *Server) changePassword(c *gin.Context, userID string) {
	var req ChangePasswordRequest
	if err := bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.authsvc.ChangePassword(c.Request.Context(), userID, req.CurrentPassword, strings.TrimSpace(req.NewPassword)); err != nil {
		AbortWithError(c, err)
		return
	}

	if s.auditSvc != nil {
		_ = s.auditSvc.AuditLog(c.Request.Context(), string(auditdomain.ActorTypeUser), &userID, "user.password_changed", "user", &userID, nil)
	}

	c.Status(http.StatusNoContent)
}
