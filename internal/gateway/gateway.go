// Package gateway talks to the upstream records API. Two strategies implement
// API: Remote calls the network and falls back to static data on failure;
// Fixture never touches the network.
package gateway

import (
	"context"
	"time"
)

//go:generate mockgen -source=gateway.go -destination=mocks/gateway_mock.go -package=mocks -exclude_interfaces=Recorder

// Operation labels used for metrics and logs.
const (
	OperationLogin    = "login"
	OperationGetItems = "get_items"
)

// DefaultFallbackDelay is the artificial latency added to static responses.
const DefaultFallbackDelay = 800 * time.Millisecond

// API is the upstream surface the session and listing stores depend on.
type API interface {
	Login(ctx context.Context, creds Credentials) (*AuthResult, error)
	GetItems(ctx context.Context, query ListQuery) (*ListResponse, error)
}

// Recorder receives gateway measurements. *metrics.Metrics satisfies it.
type Recorder interface {
	IncrementFallback(operation string)
	ObserveUpstreamLatency(operation string, d time.Duration)
	IncrementBreakerChange(breaker, state string)
}

type noopRecorder struct{}

func (noopRecorder) IncrementFallback(string)                     {}
func (noopRecorder) ObserveUpstreamLatency(string, time.Duration) {}
func (noopRecorder) IncrementBreakerChange(string, string)        {}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the production SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
