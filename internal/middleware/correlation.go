package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// HeaderCorrelationID carries the request's correlation id in both directions.
const HeaderCorrelationID = "X-Correlation-ID"

const (
	headerRequestID        = "X-Request-ID"
	correlationLocal       = "correlation_id"
	maxCorrelationIDLength = 64
)

type correlationIDKey struct{}

// CorrelationID tags every request with an id that is echoed in the response
// header, stored in locals and carried on the user context. Incoming ids that
// are empty, too long or contain characters outside [A-Za-z0-9._:-] are
// replaced with a fresh UUID so they can be logged verbatim.
func CorrelationID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := acceptedCorrelationID(c.Get(HeaderCorrelationID))
		if id == "" {
			id = acceptedCorrelationID(c.Get(headerRequestID))
		}
		if id == "" {
			id = uuid.NewString()
		}

		c.Locals(correlationLocal, id)
		c.Set(HeaderCorrelationID, id)
		c.SetUserContext(ContextWithCorrelation(c.UserContext(), id))

		return c.Next()
	}
}

func acceptedCorrelationID(raw string) string {
	id := strings.TrimSpace(raw)
	if id == "" || len(id) > maxCorrelationIDLength {
		return ""
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.', r == ':':
		default:
			return ""
		}
	}
	// fasthttp reuses header buffers after the handler returns.
	return strings.Clone(id)
}

// CorrelationIDFromContext returns the id stored by ContextWithCorrelation.
func CorrelationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(correlationIDKey{}).(string)
	return id
}

// GetCorrelationID returns the id bound to the active request.
func GetCorrelationID(c *fiber.Ctx) string {
	if c == nil {
		return ""
	}
	if id, ok := c.Locals(correlationLocal).(string); ok {
		return id
	}
	return CorrelationIDFromContext(c.UserContext())
}

// ContextWithCorrelation attaches a correlation id for service-layer logging.
func ContextWithCorrelation(ctx context.Context, correlationID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	correlationID = strings.TrimSpace(correlationID)
	if correlationID == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationIDKey{}, correlationID)
}
