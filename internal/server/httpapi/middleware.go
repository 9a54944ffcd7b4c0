package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/avealov/rulehub/internal/server/models"
)

const principalKey = "rulehub.principal"

func extractBearer(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// requireAuth resolves the bearer access token to a user and aborts with 401
// when the token is absent or invalid.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		secret := extractBearer(c)
		if secret == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "unauthorized"})
			return
		}

		user, err := s.auth.ValidateAccess(c.Request.Context(), secret)
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.Set(principalKey, user)
		c.Next()
	}
}

// optionalAuth resolves the bearer token when present but lets anonymous
// requests through; used on public read endpoints where admins see more.
func (s *Server) optionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		secret := extractBearer(c)
		if secret != "" {
			if user, err := s.auth.ValidateAccess(c.Request.Context(), secret); err == nil {
				c.Set(principalKey, user)
			}
		}
		c.Next()
	}
}

// currentUser returns the authenticated principal, or nil on routes behind
// optionalAuth where no valid token was presented.
func currentUser(c *gin.Context) *models.User {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}
