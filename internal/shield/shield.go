package shield

import "context"

// Deny reasons surfaced to the HTTP layer.
const (
	ReasonRateLimited = "rate_limited"
	ReasonBot         = "bot_detected"
)

type Decision struct {
	Allowed bool
	Reason  string
}

func Allow() Decision {
	return Decision{Allowed: true}
}

func Deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Protector is the decision interface to the request-protection service.
// Implementations must be safe for concurrent use.
type Protector interface {
	Check(ctx context.Context, key, userAgent string) Decision
}
