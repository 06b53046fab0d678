package gateway

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// APIError is returned for any non-2xx upstream response.
// Body holds the raw response payload; its "error" member is either a
// string or an object carrying "error" and/or "message".
type APIError struct {
	Status int
	Body   json.RawMessage
}

func (e *APIError) Error() string {
	if msg := messageFromBody(e.Body); msg != "" {
		return fmt.Sprintf("api error %d: %s", e.Status, msg)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, http.StatusText(e.Status))
}

// NewAPIError builds an APIError whose body is {"error": message}.
func NewAPIError(status int, message string) *APIError {
	body, _ := json.Marshal(map[string]string{"error": message})
	return &APIError{Status: status, Body: body}
}

// ExtractMessage normalizes err into display text. It looks at the error
// payload in order: the payload itself as a string, then its "error"
// member, then its "message" member. A member that is not a string is shown
// as JSON. Anything else yields "" so callers can substitute their own
// generic text.
func ExtractMessage(err error) string {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return ""
	}
	return messageFromBody(apiErr.Body)
}

func messageFromBody(body json.RawMessage) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(trimmed, &text); err == nil {
		return text
	}

	var detail struct {
		Error   json.RawMessage `json:"error"`
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(trimmed, &detail); err != nil {
		// Not JSON at all: plain-text bodies are shown verbatim.
		if trimmed[0] != '{' && trimmed[0] != '[' {
			return string(trimmed)
		}
		return ""
	}
	if msg := displayValue(detail.Error); msg != "" {
		return msg
	}
	return displayValue(detail.Message)
}

// displayValue renders one payload member as text. Strings are returned as
// is and other non-empty values as compact JSON; null, false, 0 and ""
// yield "" so the next member is tried.
func displayValue(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	switch string(raw) {
	case "null", "false":
		return ""
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil && n == 0 {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return ""
	}
	return buf.String()
}
