package middlewares

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kamaumbugua/userhub/internal/auth"
	"github.com/kamaumbugua/userhub/internal/config"
	"github.com/kamaumbugua/userhub/internal/domain/user"
	"github.com/kamaumbugua/userhub/internal/session"
)

// Keep these interfaces small so tests can fake them easily.

type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type UserLoader interface {
	GetByID(ctx context.Context, id int64) (user.User, error)
}

type AuthMiddleware struct {
	jwt      TokenVerifier
	users    UserLoader
	sessions *session.Transport
}

func NewAuthMiddleware(jwt TokenVerifier, users UserLoader, sessions *session.Transport) *AuthMiddleware {
	return &AuthMiddleware{
		jwt:      jwt,
		users:    users,
		sessions: sessions,
	}
}

func abortUnauthorized(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// Authenticate reads the session cookie, verifies the token and
// re-fetches the user. The re-fetch is deliberate: there is no server
// side revocation state, so a deleted user's token dies here.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := m.sessions.Token(c)

		if !ok {
			abortUnauthorized(c, "unauthorized", "Authentication required")
			return
		}

		claims, err := m.jwt.Verify(raw)

		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				abortUnauthorized(c, "token_expired", "Session has expired")
				return
			}

			abortUnauthorized(c, "unauthorized", "Invalid session token")
			return
		}

		cctx, cancel := config.WithTimeout(2 * time.Second)
		defer cancel()

		u, err := m.users.GetByID(cctx, claims.UserID)

		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				abortUnauthorized(c, "unauthorized", "Authentication required")
				return
			}

			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": gin.H{
					"code":    "internal_error",
					"message": "Could not authenticate request",
				},
			})
			return
		}

		SetIdentity(c, Identity{
			ID:    u.ID,
			Name:  u.Name,
			Email: u.Email,
			Role:  u.Role,
		})

		c.Next()
	}
}
