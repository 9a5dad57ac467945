package middlewares

import (
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kamaumbugua/userhub/internal/shield"
)

// Shield consults the request-protection service before any handler
// runs. decisions may be nil when metrics are not wired.
func Shield(p shield.Protector, decisions *prometheus.CounterVec) gin.HandlerFunc {
	return func(c *gin.Context) {
		d := p.Check(c.Request.Context(), clientIP(c), c.Request.UserAgent())

		if decisions != nil {
			outcome := "allow"
			if !d.Allowed {
				outcome = "deny"
			}
			decisions.WithLabelValues(outcome, d.Reason).Inc()
		}

		if d.Allowed {
			c.Next()
			return
		}

		switch d.Reason {
		case shield.ReasonBot:
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": gin.H{
					"code":    shield.ReasonBot,
					"message": "Automated clients are not allowed.",
				},
			})
		default:
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    shield.ReasonRateLimited,
					"message": "Too many requests. Please try again shortly.",
				},
			})
		}
	}
}

func clientIP(c *gin.Context) string {
	// Gin's ClientIP respects X-Forwarded-For / X-Real-IP if configured.
	ip := c.ClientIP()

	// strip a port if one slipped through

	host, _, err := net.SplitHostPort(ip)

	if err == nil && host != "" {
		return host
	}

	return ip
}
