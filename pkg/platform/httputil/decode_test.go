package httputil

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "caremonitor/pkg/domain-errors"
)

type pageRequest struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

func (r *pageRequest) Normalize() {
	if r.Page <= 0 {
		r.Page = 1
	}
	if r.PerPage <= 0 {
		r.PerPage = 12
	}
}

func (r *pageRequest) Validate() error {
	if r.PerPage > 100 {
		return errors.New("per_page must not exceed 100")
	}
	return nil
}

type emailRequest struct {
	Email     string `json:"email"`
	sanitized bool
}

func (r *emailRequest) Sanitize() {
	r.Email = strings.TrimSpace(r.Email)
	r.sanitized = true
}

func (r *emailRequest) Validate() error {
	if r.Email == "" {
		return dErrors.New(dErrors.CodeBadRequest, "email is required")
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestDecodeJSON(t *testing.T) {
	t.Run("decodes body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"page":2,"per_page":6}`))
		w := httptest.NewRecorder()

		req, ok := DecodeJSON[pageRequest](w, r, discardLogger())

		require.True(t, ok)
		assert.Equal(t, 2, req.Page)
		assert.Equal(t, 6, req.PerPage)
	})

	t.Run("malformed body writes bad_request", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{page:`))
		w := httptest.NewRecorder()

		req, ok := DecodeJSON[pageRequest](w, r, discardLogger())

		assert.False(t, ok)
		assert.Nil(t, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "bad_request", decodeError(t, w)["error"])
	})

	t.Run("empty body decodes to zero value", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", http.NoBody)
		w := httptest.NewRecorder()

		req, ok := DecodeJSON[pageRequest](w, r, discardLogger())

		require.True(t, ok)
		assert.Zero(t, req.Page)
	})

	t.Run("unknown field is rejected", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"page":1,"sort":"asc"}`))
		w := httptest.NewRecorder()

		_, ok := DecodeJSON[pageRequest](w, r, discardLogger())

		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("oversized body writes payload_too_large", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"page":1234567}`))
		w := httptest.NewRecorder()
		r.Body = http.MaxBytesReader(w, r.Body, 4)

		_, ok := DecodeJSON[pageRequest](w, r, discardLogger())

		assert.False(t, ok)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Equal(t, "payload_too_large", decodeError(t, w)["error"])
	})
}

func TestDecodeAndPrepare(t *testing.T) {
	t.Run("normalizes defaults", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{}`))
		w := httptest.NewRecorder()

		req, ok := DecodeAndPrepare[pageRequest](w, r, discardLogger())

		require.True(t, ok)
		assert.Equal(t, 1, req.Page)
		assert.Equal(t, 12, req.PerPage)
	})

	t.Run("plain validation error maps to validation_error", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"per_page":500}`))
		w := httptest.NewRecorder()

		_, ok := DecodeAndPrepare[pageRequest](w, r, discardLogger())

		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeError(t, w)
		assert.Equal(t, "validation_error", body["error"])
		assert.Contains(t, body["error_description"], "per_page")
	})

	t.Run("domain error code is preserved", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"email":"   "}`))
		w := httptest.NewRecorder()

		_, ok := DecodeAndPrepare[emailRequest](w, r, discardLogger())

		assert.False(t, ok)
		assert.Equal(t, "bad_request", decodeError(t, w)["error"])
	})

	t.Run("sanitizes before validating", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"email":" test@example.com "}`))
		w := httptest.NewRecorder()

		req, ok := DecodeAndPrepare[emailRequest](w, r, discardLogger())

		require.True(t, ok)
		assert.True(t, req.sanitized)
		assert.Equal(t, "test@example.com", req.Email)
	})
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"unauthorized", dErrors.New(dErrors.CodeUnauthorized, "not signed in"), http.StatusUnauthorized, "unauthorized"},
		{"upstream unavailable", dErrors.New(dErrors.CodeUnavailable, "api down"), http.StatusBadGateway, "upstream_unavailable"},
		{"timeout", dErrors.New(dErrors.CodeTimeout, "slow"), http.StatusGatewayTimeout, "upstream_timeout"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tt.err)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.Equal(t, tt.code, decodeError(t, w)["error"])
		})
	}
}
