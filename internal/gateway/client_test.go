package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	dErrors "caremonitor/pkg/domain-errors"
)

type ClientSuite struct {
	suite.Suite
	srv      *httptest.Server
	handler  http.HandlerFunc
	client   *Client
	lastReq  *http.Request
	lastBody []byte
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.lastReq = r
		s.lastBody, _ = io.ReadAll(r.Body)
		s.handler(w, r)
	}))
	s.client = NewClient(ClientConfig{BaseURL: s.srv.URL + "/api/", APIKey: "reqres-free-v1"})
}

func (s *ClientSuite) TearDownTest() {
	s.srv.Close()
}

func (s *ClientSuite) TestGet_BuildsURLAndHeaders() {
	var out map[string]bool
	err := s.client.Get(context.Background(), "/users", url.Values{"page": {"2"}}, http.Header{"X-Trace": {"abc"}}, &out)

	s.Require().NoError(err)
	s.True(out["ok"])
	s.Equal(http.MethodGet, s.lastReq.Method)
	s.Equal("/api/users", s.lastReq.URL.Path)
	s.Equal("2", s.lastReq.URL.Query().Get("page"))
	s.Equal("reqres-free-v1", s.lastReq.Header.Get("x-api-key"))
	s.Equal("abc", s.lastReq.Header.Get("X-Trace"))
	s.Empty(s.lastReq.Header.Get("Content-Type"))
}

func (s *ClientSuite) TestBodyVerbs_SendJSON() {
	creds := Credentials{Email: "test@example.com", Password: "Test@123"}
	verbs := map[string]func() error{
		http.MethodPost:  func() error { return s.client.Post(context.Background(), "/login", creds, nil, nil) },
		http.MethodPut:   func() error { return s.client.Put(context.Background(), "/users/2", creds, nil, nil) },
		http.MethodPatch: func() error { return s.client.Patch(context.Background(), "/users/2", creds, nil, nil) },
	}
	for method, call := range verbs {
		s.Run(method, func() {
			s.Require().NoError(call())
			s.Equal(method, s.lastReq.Method)
			s.Equal("application/json", s.lastReq.Header.Get("Content-Type"))

			var sent Credentials
			s.Require().NoError(json.Unmarshal(s.lastBody, &sent))
			s.Equal(creds, sent)
		})
	}
}

func (s *ClientSuite) TestDelete_NoContent() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}
	var out map[string]any
	err := s.client.Delete(context.Background(), "/users/2", nil, &out)

	s.Require().NoError(err)
	s.Equal(http.MethodDelete, s.lastReq.Method)
	s.Nil(out)
}

func (s *ClientSuite) TestNon2xx_ReturnsAPIError() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Missing password"}`))
	}
	err := s.client.Post(context.Background(), "/login", Credentials{Email: "eve.holt@reqres.in"}, nil, nil)

	var apiErr *APIError
	s.Require().ErrorAs(err, &apiErr)
	s.Equal(http.StatusBadRequest, apiErr.Status)
	s.Equal("Missing password", ExtractMessage(err))
}

func (s *ClientSuite) TestNon2xx_PlainTextBody() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream maintenance", http.StatusServiceUnavailable)
	}
	err := s.client.Get(context.Background(), "/users", nil, nil, nil)

	s.Equal("upstream maintenance", ExtractMessage(err))
}

func (s *ClientSuite) TestMalformedJSON() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[`))
	}
	var out ListResponse
	err := s.client.Get(context.Background(), "/users", nil, nil, &out)

	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func (s *ClientSuite) TestTransportFailure() {
	s.srv.Close()
	err := s.client.Get(context.Background(), "/users", nil, nil, nil)

	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	s.Empty(ExtractMessage(err))
}

func (s *ClientSuite) TestTimeout() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := s.client.Get(ctx, "/users", nil, nil, nil)

	s.True(dErrors.HasCode(err, dErrors.CodeTimeout))
}

func (s *ClientSuite) TestBaseURLTrimmed() {
	s.Equal(s.srv.URL+"/api", s.client.BaseURL())
}
