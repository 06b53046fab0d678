package gateway

import (
	"context"
	"net/http"
	"strconv"
)

// StatusHook reacts to authorization failures reported by the upstream API.
// The web layer installs one per request so it can clear the session and
// choose where the browser goes next.
type StatusHook interface {
	Unauthorized(ctx context.Context)
	Forbidden(ctx context.Context)
}

// StatusHookFuncs adapts plain functions to StatusHook. Nil fields are skipped.
type StatusHookFuncs struct {
	OnUnauthorized func(ctx context.Context)
	OnForbidden    func(ctx context.Context)
}

func (f StatusHookFuncs) Unauthorized(ctx context.Context) {
	if f.OnUnauthorized != nil {
		f.OnUnauthorized(ctx)
	}
}

func (f StatusHookFuncs) Forbidden(ctx context.Context) {
	if f.OnForbidden != nil {
		f.OnForbidden(ctx)
	}
}

type contextKeyToken struct{}
type contextKeyStatusHook struct{}

// WithToken attaches the session token that outbound requests should carry.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, contextKeyToken{}, token)
}

// TokenFromContext returns the session token attached by WithToken.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(contextKeyToken{}).(string)
	return token
}

// WithStatusHook attaches the hook invoked on 401/403 upstream responses.
func WithStatusHook(ctx context.Context, hook StatusHook) context.Context {
	return context.WithValue(ctx, contextKeyStatusHook{}, hook)
}

func statusHookFromContext(ctx context.Context) StatusHook {
	hook, _ := ctx.Value(contextKeyStatusHook{}).(StatusHook)
	return hook
}

// RejectionRecorder counts 401/403 responses. *metrics.Metrics satisfies it.
type RejectionRecorder interface {
	IncrementUpstreamRejected(status string)
}

// AuthTransport decorates every outbound request with the session bearer
// token and routes 401/403 responses to the request's StatusHook. The
// response itself is always returned unchanged.
type AuthTransport struct {
	Base     http.RoundTripper
	Recorder RejectionRecorder
}

// NewAuthTransport wraps base; a nil base means http.DefaultTransport.
func NewAuthTransport(base http.RoundTripper, recorder RejectionRecorder) *AuthTransport {
	return &AuthTransport{Base: base, Recorder: recorder}
}

func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	if token := TokenFromContext(ctx); token != "" {
		// RoundTrippers must not mutate the caller's request.
		req = req.Clone(ctx)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := t.base().RoundTrip(req)
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		if t.Recorder != nil {
			t.Recorder.IncrementUpstreamRejected(strconv.Itoa(resp.StatusCode))
		}
		if hook := statusHookFromContext(ctx); hook != nil {
			if resp.StatusCode == http.StatusUnauthorized {
				hook.Unauthorized(ctx)
			} else {
				hook.Forbidden(ctx)
			}
		}
	}
	return resp, nil
}

func (t *AuthTransport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}
