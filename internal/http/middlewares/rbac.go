package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kamaumbugua/userhub/internal/domain/user"
)

// RequireRole must run after Authenticate.
func (m *AuthMiddleware) RequireRole(allowed ...user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := IdentityFromContext(c)

		if !ok {
			abortUnauthorized(c, "unauthorized", "Missing identity context")
			return
		}

		for _, role := range allowed {
			if identity.Role == role {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": gin.H{
				"code":    "forbidden",
				"message": "Insufficient role",
			},
		})
	}
}
