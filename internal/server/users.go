package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/cicilan/internal/auth/domain"
	"github.com/smallbiznis/cicilan/internal/providers/email"
	"go.uber.org/zap"
)

type createUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

type updateUserRequest struct {
	Email   *string `json:"email" binding:"omitempty,email"`
	Name    *string `json:"name"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
	Role    *string `json:"role" binding:"omitempty,oneof=admin reseller"`
}

type passwordResetEmail struct {
	Name     string
	Password string
}

func (s *Server) ListUsers(c *gin.Context) {
	var query struct {
		Role  string `form:"role"`
		Query string `form:"q"`
	}
	if err := bindQuery(c, &query); err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.authsvc.ListUsers(c.Request.Context(), authdomain.ListUsersRequest{
		Role:  strings.TrimSpace(query.Role),
		Query: strings.TrimSpace(query.Query),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetUser(c *gin.Context) {
	resp, err := s.authsvc.GetUser(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	role := strings.TrimSpace(req.Role)
	if role == "" {
		role = authdomain.RoleReseller
	}
	resp, err := s.authsvc.CreateUser(c.Request.Context(), authdomain.CreateUserRequest{
		Email:    strings.TrimSpace(req.Email),
		Name:     strings.TrimSpace(req.Name),
		Password: req.Password,
		Role:     role,
		Phone:    strings.TrimSpace(req.Phone),
		Address:  strings.TrimSpace(req.Address),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditTarget(c, "user.create", "user", resp.ID.String(), map[string]any{"email": resp.Email, "role": resp.Role})
	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) UpdateUser(c *gin.Context) {
	var req updateUserRequest
	if err := bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.authsvc.UpdateUser(c.Request.Context(), strings.TrimSpace(c.Param("id")), authdomain.UpdateUserRequest{
		Email:   trimmedPtr(req.Email),
		Name:    trimmedPtr(req.Name),
		Phone:   trimmedPtr(req.Phone),
		Address: trimmedPtr(req.Address),
		Role:    trimmedPtr(req.Role),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditTarget(c, "user.update", "user", resp.ID.String(), map[string]any{"email": resp.Email, "role": resp.Role})
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteUser(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.authsvc.DeleteUser(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditTarget(c, "user.delete", "user", id, nil)
	c.Status(http.StatusNoContent)
}

// ResetUserPassword issues a temporary password, revokes the member's
// sessions and mails the new password to them.
func (s *Server) ResetUserPassword(c *gin.Context) {
	ctx := c.Request.Context()
	id := strings.TrimSpace(c.Param("id"))

	user, err := s.authsvc.GetUser(ctx, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	generated, err := s.authsvc.ResetPassword(ctx, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	notified := true
	msg, err := email.Render(email.TemplatePasswordReset, user.Email, passwordResetEmail{Name: user.Name, Password: generated})
	if err == nil {
		err = s.mailer.Send(ctx, msg)
	}
	if err != nil {
		notified = false
		s.log.Warn("password reset email failed", zap.String("user_id", id), zap.Error(err))
	}

	s.auditTarget(c, "user.password_reset", "user", id, map[string]any{"notified": notified})
	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"password": generated,
		"notified": notified,
	}})
}

func trimmedPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	return &trimmed
}
