package shield

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// substrings screened against a lowercased User-Agent
var botMarkers = []string{"bot", "crawler", "spider", "scrapy"}

// LocalProtector is an in-process protector: a token bucket per client
// key plus a simple automated-client screen. Suitable for a single
// instance; use the redis-backed protector behind a load balancer.
type LocalProtector struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	clients map[string]*clientBucket
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewLocalProtector(requests int, window time.Duration) *LocalProtector {
	if requests <= 0 {
		requests = 100
	}

	if window <= 0 {
		window = time.Minute
	}

	return &LocalProtector{
		limit:   rate.Limit(float64(requests) / window.Seconds()),
		burst:   requests,
		clients: make(map[string]*clientBucket),
	}
}

func (p *LocalProtector) Check(_ context.Context, key, userAgent string) Decision {
	if looksAutomated(userAgent) {
		return Deny(ReasonBot)
	}

	now := time.Now()

	p.mu.Lock()

	b, ok := p.clients[key]

	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(p.limit, p.burst)}
		p.clients[key] = b
	}

	b.lastSeen = now

	// opportunistic sweep so the map does not grow unbounded
	if len(p.clients) > 10000 {
		for k, c := range p.clients {
			if now.Sub(c.lastSeen) > 10*time.Minute {
				delete(p.clients, k)
			}
		}
	}

	p.mu.Unlock()

	if !b.limiter.Allow() {
		return Deny(ReasonRateLimited)
	}

	return Allow()
}

func looksAutomated(userAgent string) bool {
	ua := strings.ToLower(strings.TrimSpace(userAgent))

	if ua == "" {
		return true
	}

	for _, marker := range botMarkers {
		if strings.Contains(ua, marker) {
			return true
		}
	}

	return false
}
