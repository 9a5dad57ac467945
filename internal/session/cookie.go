package session

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// CookieName carries the signed session token verbatim.
const CookieName = "token"

// Transport binds session tokens to HTTP via an HttpOnly cookie.
type Transport struct {
	secure bool
	ttl    time.Duration
}

// NewTransport builds the cookie transport. secure should be true when
// the service is served over TLS so the Secure flag is set.
func NewTransport(secure bool, ttl time.Duration) *Transport {
	return &Transport{
		secure: secure,
		ttl:    ttl,
	}
}

func (t *Transport) Set(ctx *gin.Context, token string) {
	ctx.SetSameSite(http.SameSiteStrictMode)

	ctx.SetCookie(
		CookieName,
		token,
		int(t.ttl.Seconds()),
		"/",
		"",
		t.secure,
		true, // HttpOnly.
	)
}

// Clear instructs the client to discard the cookie immediately. It uses
// the same attributes as Set, otherwise browsers keep the old cookie.
func (t *Transport) Clear(ctx *gin.Context) {
	ctx.SetSameSite(http.SameSiteStrictMode)

	ctx.SetCookie(
		CookieName,
		"",
		-1,
		"/",
		"",
		t.secure,
		true,
	)
}

// Token reads the session cookie; absence is not an error.
func (t *Transport) Token(ctx *gin.Context) (string, bool) {
	raw, err := ctx.Cookie(CookieName)

	if err != nil || raw == "" {
		return "", false
	}

	return raw, true
}
