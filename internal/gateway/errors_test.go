package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	dErrors "caremonitor/pkg/domain-errors"
)

func TestExtractMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "payload is a plain string",
			err:  &APIError{Status: 500, Body: json.RawMessage(`"Server exploded"`)},
			want: "Server exploded",
		},
		{
			name: "error member is a string",
			err:  &APIError{Status: 401, Body: json.RawMessage(`{"error":"Invalid email or password"}`)},
			want: "Invalid email or password",
		},
		{
			name: "message member when error is absent",
			err:  &APIError{Status: 400, Body: json.RawMessage(`{"message":"Missing password"}`)},
			want: "Missing password",
		},
		{
			name: "error wins over message",
			err:  &APIError{Status: 400, Body: json.RawMessage(`{"error":"first","message":"second"}`)},
			want: "first",
		},
		{
			name: "empty error falls through to message",
			err:  &APIError{Status: 400, Body: json.RawMessage(`{"error":"","message":"second"}`)},
			want: "second",
		},
		{
			name: "object member is shown as json",
			err:  &APIError{Status: 400, Body: json.RawMessage(`{"error": {"code": 7}}`)},
			want: `{"code":7}`,
		},
		{
			name: "numeric message",
			err:  &APIError{Status: 400, Body: json.RawMessage(`{"message":404}`)},
			want: "404",
		},
		{
			name: "null and false members fall through",
			err:  &APIError{Status: 400, Body: json.RawMessage(`{"error":null,"message":"second"}`)},
			want: "second",
		},
		{
			name: "falsy members yield empty",
			err:  &APIError{Status: 400, Body: json.RawMessage(`{"error":false,"message":0}`)},
			want: "",
		},
		{
			name: "plain text body",
			err:  &APIError{Status: 502, Body: json.RawMessage(`Bad Gateway`)},
			want: "Bad Gateway",
		},
		{
			name: "empty body",
			err:  &APIError{Status: 503},
			want: "",
		},
		{
			name: "wrapped api error",
			err:  fmt.Errorf("login: %w", NewAPIError(401, "nope")),
			want: "nope",
		},
		{
			name: "non api error",
			err:  dErrors.New(dErrors.CodeUnavailable, "connection refused"),
			want: "",
		},
		{
			name: "nil",
			err:  nil,
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractMessage(tt.err))
		})
	}
}

func TestAPIError_Error(t *testing.T) {
	assert.Equal(t, "api error 401: Invalid email or password", NewAPIError(401, InvalidCredentialsMessage).Error())
	assert.Equal(t, "api error 404: Not Found", (&APIError{Status: 404}).Error())

	var apiErr *APIError
	assert.True(t, errors.As(fmt.Errorf("wrapped: %w", NewAPIError(403, "x")), &apiErr))
	assert.Equal(t, 403, apiErr.Status)
}
