package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"caremonitor/internal/platform/tracer"
	dErrors "caremonitor/pkg/domain-errors"
)

// maxErrorBody caps how much of a non-2xx response is kept on an APIError.
const maxErrorBody = 64 << 10

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig configures a Client.
type ClientConfig struct {
	BaseURL string
	// APIKey is sent as x-api-key when set.
	APIKey  string
	Timeout time.Duration
	// HTTPClient overrides the default client, which routes through AuthTransport.
	HTTPClient HTTPDoer
	Recorder   RejectionRecorder
	Tracer     tracer.Tracer
}

// Client issues JSON requests against a single base URL.
type Client struct {
	baseURL string
	apiKey  string
	doer    HTTPDoer
	tracer  tracer.Tracer
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	doer := cfg.HTTPClient
	if doer == nil {
		doer = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: NewAuthTransport(nil, cfg.Recorder),
		}
	}
	t := cfg.Tracer
	if t == nil {
		t = tracer.NewNoop()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		doer:    doer,
		tracer:  t,
	}
}

// BaseURL returns the configured base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Get(ctx context.Context, endpoint string, query url.Values, headers http.Header, out any) error {
	return c.do(ctx, http.MethodGet, endpoint, query, nil, headers, out)
}

func (c *Client) Post(ctx context.Context, endpoint string, body any, headers http.Header, out any) error {
	return c.do(ctx, http.MethodPost, endpoint, nil, body, headers, out)
}

func (c *Client) Put(ctx context.Context, endpoint string, body any, headers http.Header, out any) error {
	return c.do(ctx, http.MethodPut, endpoint, nil, body, headers, out)
}

func (c *Client) Patch(ctx context.Context, endpoint string, body any, headers http.Header, out any) error {
	return c.do(ctx, http.MethodPatch, endpoint, nil, body, headers, out)
}

func (c *Client) Delete(ctx context.Context, endpoint string, headers http.Header, out any) error {
	return c.do(ctx, http.MethodDelete, endpoint, nil, nil, headers, out)
}

func (c *Client) do(ctx context.Context, method, endpoint string, query url.Values, body any, headers http.Header, out any) (err error) {
	ctx, span := c.tracer.Start(ctx, tracer.SpanHTTPRequest,
		tracer.String(tracer.AttrHTTPMethod, method),
		tracer.String(tracer.AttrHTTPPath, endpoint),
	)
	defer func() { span.End(err) }()

	target := c.baseURL + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, mErr := json.Marshal(body)
		if mErr != nil {
			return dErrors.Wrap(mErr, dErrors.CodeInternal, "failed to encode request body")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}
	for key, values := range headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return dErrors.Wrap(err, dErrors.CodeTimeout, "upstream request timed out")
		}
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "upstream request failed")
	}
	defer resp.Body.Close()
	span.SetAttributes(tracer.Int(tracer.AttrHTTPStatus, resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{Status: resp.StatusCode, Body: normalizeErrorBody(raw)}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "malformed upstream response")
	}
	return nil
}

// normalizeErrorBody keeps JSON payloads as-is and quotes plain text so the
// APIError body is always valid JSON.
func normalizeErrorBody(raw []byte) json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	if json.Valid(raw) {
		return raw
	}
	quoted, _ := json.Marshal(string(raw))
	return quoted
}
