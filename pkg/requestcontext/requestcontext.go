// Package requestcontext carries request-scoped values (request ID, client
// metadata, request time) across layers without importing HTTP middleware.
package requestcontext

import (
	"context"
	"time"
)

type contextKeyRequestID struct{}
type contextKeyClientIP struct{}
type contextKeyUserAgent struct{}
type contextKeyDeviceLabel struct{}
type contextKeyRequestTime struct{}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID{}, requestID)
}

// RequestID returns the request ID, or "" outside an HTTP request.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(contextKeyRequestID{}).(string)
	return id
}

// WithClientMetadata stores the resolved client IP and raw User-Agent.
func WithClientMetadata(ctx context.Context, ip, userAgent string) context.Context {
	ctx = context.WithValue(ctx, contextKeyClientIP{}, ip)
	return context.WithValue(ctx, contextKeyUserAgent{}, userAgent)
}

func ClientIP(ctx context.Context) string {
	ip, _ := ctx.Value(contextKeyClientIP{}).(string)
	return ip
}

func UserAgent(ctx context.Context) string {
	ua, _ := ctx.Value(contextKeyUserAgent{}).(string)
	return ua
}

// WithDeviceLabel stores a display label such as "Chrome on macOS".
func WithDeviceLabel(ctx context.Context, label string) context.Context {
	return context.WithValue(ctx, contextKeyDeviceLabel{}, label)
}

func DeviceLabel(ctx context.Context) string {
	label, _ := ctx.Value(contextKeyDeviceLabel{}).(string)
	return label
}

// WithTime pins the request's notion of "now".
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, contextKeyRequestTime{}, t)
}

// Now returns the pinned request time, falling back to time.Now().
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(contextKeyRequestTime{}).(time.Time); ok {
		return t
	}
	return time.Now()
}
