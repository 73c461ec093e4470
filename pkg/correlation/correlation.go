package correlation

import (
	"context"
	"strings"

	"github.com/oklog/ulid/v2"
)

// Header is the HTTP header carrying the correlation id between services.
const Header = "X-Correlation-Id"

// correlationKey is an unexported type for context keys within this package.
type correlationKey struct{}

// FromContext fetches a correlation ID from the context if present.
func FromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if val, ok := ctx.Value(correlationKey{}).(string); ok {
		return val
	}
	return ""
}

// WithID sets the correlation ID onto the context.
func WithID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationKey{}, id)
}

// Ensure guarantees a correlation ID on the context. An inbound id wins over one
// already on the context; a fresh ULID is generated when neither exists.
func Ensure(ctx context.Context, inbound string) (context.Context, string) {
	cid := strings.TrimSpace(inbound)
	if cid == "" {
		cid = FromContext(ctx)
	}
	if cid == "" {
		cid = ulid.Make().String()
	}
	return WithID(ctx, cid), cid
}
