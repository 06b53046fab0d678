package gateway

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"caremonitor/internal/platform/tracer"
	dErrors "caremonitor/pkg/domain-errors"
	"caremonitor/pkg/platform/circuit"
	"caremonitor/pkg/requestcontext"
)

// Upstream paths on the records API.
const (
	LoginPath = "/login"
	UsersPath = "/users"
)

// Remote is the production API strategy. Any upstream failure is logged and
// answered with static data after the fallback delay, so Login and GetItems
// only fail when the caller's context ends during that delay.
type Remote struct {
	client   *Client
	breaker  *circuit.Breaker
	delay    time.Duration
	sleep    SleepFunc
	logger   *slog.Logger
	recorder Recorder
	tracer   tracer.Tracer
}

// RemoteOption configures a Remote gateway.
type RemoteOption func(*Remote)

func WithFallbackDelay(d time.Duration) RemoteOption {
	return func(r *Remote) {
		r.delay = d
	}
}

// WithSleep replaces the delay implementation. Tests use it to avoid real waits.
func WithSleep(fn SleepFunc) RemoteOption {
	return func(r *Remote) {
		r.sleep = fn
	}
}

func WithBreaker(b *circuit.Breaker) RemoteOption {
	return func(r *Remote) {
		r.breaker = b
	}
}

func WithLogger(logger *slog.Logger) RemoteOption {
	return func(r *Remote) {
		r.logger = logger
	}
}

func WithRecorder(rec Recorder) RemoteOption {
	return func(r *Remote) {
		r.recorder = rec
	}
}

func WithTracer(t tracer.Tracer) RemoteOption {
	return func(r *Remote) {
		r.tracer = t
	}
}

func NewRemote(client *Client, opts ...RemoteOption) *Remote {
	r := &Remote{
		client:   client,
		breaker:  circuit.New("records_api"),
		delay:    DefaultFallbackDelay,
		sleep:    Sleep,
		logger:   slog.Default(),
		recorder: noopRecorder{},
		tracer:   tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Breaker exposes the circuit breaker for health reporting.
func (r *Remote) Breaker() *circuit.Breaker {
	return r.breaker
}

// Login posts creds to the upstream. On any failure it serves FallbackLogin.
func (r *Remote) Login(ctx context.Context, creds Credentials) (result *AuthResult, err error) {
	ctx, span := r.tracer.Start(ctx, tracer.SpanGatewayLogin,
		tracer.String(tracer.AttrMode, "production"),
		tracer.String(tracer.AttrEmailHash, tracer.HashEmail(creds.Email)),
	)
	defer func() { span.End(err) }()

	var resp AuthResult
	callErr := r.call(ctx, OperationLogin, func(ctx context.Context) error {
		return r.client.Post(ctx, LoginPath, creds, nil, &resp)
	})
	if callErr == nil {
		return &resp, nil
	}

	r.logger.WarnContext(ctx, "API login failed, using mock data",
		"error", callErr,
		"request_id", requestcontext.RequestID(ctx),
	)
	span.AddEvent(tracer.EventFallbackServed)
	span.SetAttributes(tracer.Bool(tracer.AttrFallback, true))
	if err := r.fallback(ctx, OperationLogin); err != nil {
		return nil, err
	}
	return FallbackLogin(), nil
}

// GetItems fetches one page of users. On any failure it serves FixtureList.
func (r *Remote) GetItems(ctx context.Context, query ListQuery) (result *ListResponse, err error) {
	query.Normalize()
	ctx, span := r.tracer.Start(ctx, tracer.SpanGatewayGetItems,
		tracer.String(tracer.AttrMode, "production"),
		tracer.Int(tracer.AttrPage, query.Page),
		tracer.Int(tracer.AttrPerPage, query.PerPage),
	)
	defer func() { span.End(err) }()

	var resp ListResponse
	callErr := r.call(ctx, OperationGetItems, func(ctx context.Context) error {
		return r.client.Get(ctx, UsersPath, query.Values(), nil, &resp)
	})
	if callErr == nil {
		span.SetAttributes(tracer.Int(tracer.AttrItemCount, len(resp.Data)))
		return &resp, nil
	}

	r.logger.WarnContext(ctx, "API items fetch failed, using mock data",
		"error", callErr,
		"request_id", requestcontext.RequestID(ctx),
	)
	span.AddEvent(tracer.EventFallbackServed)
	span.SetAttributes(tracer.Bool(tracer.AttrFallback, true))
	if err := r.fallback(ctx, OperationGetItems); err != nil {
		return nil, err
	}
	return FixtureList(), nil
}

// errCircuitOpen is reported when the breaker short-circuits a call.
var errCircuitOpen = errors.New("circuit open: upstream call skipped")

// call runs fn through the breaker and records latency. Client errors (4xx)
// mean the upstream is reachable, so only transport failures and 5xx count
// against the breaker.
func (r *Remote) call(ctx context.Context, operation string, fn func(context.Context) error) error {
	if !r.breaker.Allow() {
		return errCircuitOpen
	}

	start := time.Now()
	err := fn(ctx)
	r.recorder.ObserveUpstreamLatency(operation, time.Since(start))

	var change circuit.StateChange
	if err != nil && countsAsOutage(err) {
		change = r.breaker.RecordFailure()
	} else {
		change = r.breaker.RecordSuccess()
	}

	switch {
	case change.Opened:
		r.recorder.IncrementBreakerChange(r.breaker.Name(), circuit.StateOpen.String())
		r.logger.ErrorContext(ctx, "circuit breaker opened",
			"circuit", r.breaker.Name(),
			"operation", operation,
			"error", err,
		)
	case change.Closed:
		r.recorder.IncrementBreakerChange(r.breaker.Name(), circuit.StateClosed.String())
		r.logger.InfoContext(ctx, "circuit breaker closed",
			"circuit", r.breaker.Name(),
		)
	}
	return err
}

func (r *Remote) fallback(ctx context.Context, operation string) error {
	r.recorder.IncrementFallback(operation)
	if err := r.sleep(ctx, r.delay); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "request ended before fallback data was served")
	}
	return nil
}

func countsAsOutage(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500
	}
	return true
}

var _ API = (*Remote)(nil)
