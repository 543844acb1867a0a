package server

import (
	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/cicilan/internal/audit/domain"
	"github.com/smallbiznis/cicilan/internal/auditcontext"
	obscontext "github.com/smallbiznis/cicilan/internal/observability/context"
	"github.com/smallbiznis/cicilan/internal/usercontext"
)

const contextUserIDKey = "user_id"

// AuthRequired resolves the session token into the request identity.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := s.sessions.ReadToken(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		_, user, err := s.authsvc.Authenticate(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		identity := user.Identity()
		userID := identity.ID.String()
		actorType := string(auditdomain.ActorTypeUser)

		ctx := usercontext.WithIdentity(c.Request.Context(), identity)
		ctx = auditcontext.WithActor(ctx, actorType, userID)
		ctx = obscontext.WithActor(ctx, actorType, userID)
		c.Request = c.Request.WithContext(ctx)
		c.Set(contextUserIDKey, userID)
		c.Next()
	}
}

// RequireRole gates admin only mutations.
func (s *Server) RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := usercontext.Require(c.Request.Context())
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if err := s.authzSvc.RequireRole(c.Request.Context(), identity, role); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

// authorize checks the capability of the caller's role on object.
func (s *Server) authorize(object, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := usercontext.Require(c.Request.Context())
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if err := s.authzSvc.Authorize(c.Request.Context(), identity, object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}
