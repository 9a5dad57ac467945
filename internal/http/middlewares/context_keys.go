package middlewares

import (
	"github.com/gin-gonic/gin"

	"github.com/kamaumbugua/userhub/internal/domain/user"
)

const (
	CtxIdentity  = "auth.identity"
	CtxRequestID = "request_id"
)

// Identity is the authenticated caller attached to the request context
// by Authenticate. Safe fields only; never the password hash.
type Identity struct {
	ID    int64     `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  user.Role `json:"role"`
}

func (i Identity) IsAdmin() bool {
	return i.Role == user.RoleAdmin
}

func SetIdentity(c *gin.Context, id Identity) {
	c.Set(CtxIdentity, id)
}

// IdentityFromContext is the helper handlers use so they don't need to
// know the magic key.
func IdentityFromContext(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(CtxIdentity)

	if !ok {
		return Identity{}, false
	}

	id, ok := v.(Identity)
	return id, ok
}
