// Package tracer provides a small tracing abstraction used around upstream
// API calls and session transitions.
//
// Implementations:
//   - NoopTracer: for tests and when tracing is disabled
//   - OTelTracer: OpenTelemetry adapter
package tracer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span. A non-nil err marks the span as failed.
	// End must be called exactly once, typically via defer.
	End(err error)

	SetAttributes(attrs ...Attribute)

	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
//
// Example:
//
//	ctx, span := t.Start(ctx, tracer.SpanGatewayLogin, tracer.String(tracer.AttrMode, "production"))
//	defer span.End(err)
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int(key string, value int) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// HashEmail returns a short SHA-256 digest of a normalized email so traces can
// be correlated without carrying the address itself.
func HashEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(email))
	return hex.EncodeToString(hash[:8])
}

// Span names.
const (
	SpanGatewayLogin    = "gateway.login"
	SpanGatewayGetItems = "gateway.get_items"
	SpanHTTPRequest     = "gateway.http"
	SpanSessionLogin    = "session.login"
	SpanListingFetch    = "listing.fetch"
)

// Attribute keys.
const (
	AttrEmailHash    = "user.email_hash"
	AttrMode         = "gateway.mode"
	AttrFallback     = "gateway.fallback"
	AttrBreakerState = "gateway.breaker_state"
	AttrHTTPMethod   = "http.method"
	AttrHTTPPath     = "http.path"
	AttrHTTPStatus   = "http.status_code"
	AttrPage         = "list.page"
	AttrPerPage      = "list.per_page"
	AttrItemCount    = "list.item_count"
)

// Event names.
const (
	EventFallbackServed = "fallback.served"
	EventBreakerOpen    = "breaker.open"
)
