package web

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"caremonitor/internal/gateway"
	"caremonitor/internal/gateway/mocks"
	"caremonitor/internal/listing"
	"caremonitor/internal/platform/health"
	"caremonitor/internal/platform/metrics"
	"caremonitor/internal/platform/middleware"
	"caremonitor/internal/session"
)

type RouterSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	api     *mocks.MockAPI
	metrics *metrics.Metrics
	router  http.Handler
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.api = mocks.NewMockAPI(s.ctrl)
	s.router = s.newRouter(s.api)
}

// newRouter wires the full router over api with fresh metrics.
func (s *RouterSuite) newRouter(api gateway.API) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	s.metrics = metrics.NewWithRegisterer(reg)

	handler, err := NewHandler(listing.NewService(api, listing.WithLogger(logger)), logger, true)
	s.Require().NoError(err)
	meta, err := middleware.NewClientMetadata()
	s.Require().NoError(err)

	return NewRouter(RouterConfig{
		Handler:        handler,
		Sessions:       session.NewService(api, session.WithLogger(logger), session.WithMetrics(s.metrics)),
		Health:         health.New("development"),
		Metrics:        s.metrics,
		ClientMetadata: meta,
		Logger:         logger,
		RequestTimeout: 5 * time.Second,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})
}

// remoteAgainst returns a Remote gateway whose upstream always answers status.
func (s *RouterSuite) remoteAgainst(status int) gateway.API {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error":"rejected"}`))
	}))
	s.T().Cleanup(upstream.Close)

	client := gateway.NewClient(gateway.ClientConfig{BaseURL: upstream.URL, Timeout: time.Second})
	return gateway.NewRemote(client, gateway.WithFallbackDelay(0))
}

func newFetchRequest(body string, cookies ...*http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/list/fetch", strings.NewReader(body))
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func cookiesFor(email string) []*http.Cookie {
	return []*http.Cookie{
		{Name: session.TokenCookie, Value: "jwt-" + email},
		{Name: session.EmailCookie, Value: email},
	}
}

func (s *RouterSuite) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *RouterSuite) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return s.do(req)
}

func (s *RouterSuite) postForm(path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return s.do(req)
}

func sessionCookies() []*http.Cookie {
	return []*http.Cookie{
		{Name: session.TokenCookie, Value: "jwt-abc"},
		{Name: session.EmailCookie, Value: "test@example.com"},
	}
}

func cookieNamed(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func flashText(w *httptest.ResponseRecorder) string {
	c := cookieNamed(w, flashCookie)
	if c == nil {
		return ""
	}
	raw, _ := url.QueryUnescape(c.Value)
	_, text, _ := strings.Cut(raw, "|")
	return text
}

func (s *RouterSuite) TestRootRedirectsToLogin() {
	w := s.get("/")
	s.Equal(http.StatusFound, w.Code)
	s.Equal("/login", w.Header().Get("Location"))
}

func (s *RouterSuite) TestLoginPage() {
	s.Run("renders the form for anonymous users", func() {
		w := s.get("/login")
		s.Equal(http.StatusOK, w.Code)
		s.Contains(w.Body.String(), `<form method="post" action="/login"`)
	})

	s.Run("redirects authenticated users to the dashboard", func() {
		w := s.get("/login", sessionCookies()...)
		s.Equal(http.StatusFound, w.Code)
		s.Equal("/dashboard", w.Header().Get("Location"))
	})
}

func (s *RouterSuite) TestLoginValidation() {
	tests := []struct {
		name     string
		email    string
		password string
		messages []string
	}{
		{"empty form", "", "", []string{"Email is required", "Password is required"}},
		{"malformed email", "not-an-email", "Test@123", []string{"Please enter a valid email"}},
		{"short password", "test@example.com", "12345", []string{"Password must be at least 6 characters"}},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			// No Login expectation: validation failures must never reach the gateway.
			w := s.postForm("/login", url.Values{"email": {tt.email}, "password": {tt.password}})

			s.Equal(http.StatusUnprocessableEntity, w.Code)
			for _, msg := range tt.messages {
				s.Contains(w.Body.String(), msg)
			}
			s.Nil(cookieNamed(w, session.TokenCookie))
		})
	}
}

func (s *RouterSuite) TestLoginSuccess() {
	creds := gateway.Credentials{Email: "test@example.com", Password: "Test@123"}
	s.api.EXPECT().Login(gomock.Any(), creds).Return(&gateway.AuthResult{
		Token: "jwt-abc",
		User:  &gateway.User{Email: "test@example.com", Name: "Test User"},
	}, nil)

	w := s.postForm("/login", url.Values{"email": {" test@example.com "}, "password": {"Test@123"}})

	s.Equal(http.StatusSeeOther, w.Code)
	s.Equal("/dashboard", w.Header().Get("Location"))
	s.Require().NotNil(cookieNamed(w, session.TokenCookie))
	s.Equal("jwt-abc", cookieNamed(w, session.TokenCookie).Value)
	s.Equal("test@example.com", cookieNamed(w, session.EmailCookie).Value)
	s.Equal(LoginSucceededMessage, flashText(w))

	dashboard := s.get("/dashboard", append(sessionCookies(), cookieNamed(w, flashCookie))...)
	s.Equal(http.StatusOK, dashboard.Code)
	s.Contains(dashboard.Body.String(), "test@example.com")
	s.Contains(dashboard.Body.String(), LoginSucceededMessage)
}

func (s *RouterSuite) TestLoginFailure() {
	s.api.EXPECT().Login(gomock.Any(), gomock.Any()).
		Return(nil, gateway.NewAPIError(http.StatusUnauthorized, gateway.InvalidCredentialsMessage))

	w := s.postForm("/login", url.Values{"email": {"test@example.com"}, "password": {"wrong-password"}})

	s.Equal(http.StatusUnauthorized, w.Code)
	s.Contains(w.Body.String(), gateway.InvalidCredentialsMessage)
	s.Nil(cookieNamed(w, session.TokenCookie))
}

func (s *RouterSuite) TestGuardRedirectsAnonymous() {
	for _, path := range []string{"/dashboard", "/list", "/profile", "/settings", "/reports"} {
		w := s.get(path)
		s.Equal(http.StatusFound, w.Code, path)
		s.Equal("/login?returnUrl="+url.QueryEscape(path), w.Header().Get("Location"))
	}
}

func (s *RouterSuite) TestListPage() {
	s.Run("renders items and success notice", func() {
		s.api.EXPECT().GetItems(gomock.Any(), gateway.ListQuery{Page: 1, PerPage: 12}).Return(gateway.FixtureList(), nil)

		w := s.get("/list", sessionCookies()...)

		s.Equal(http.StatusOK, w.Code)
		body := w.Body.String()
		s.Contains(body, "John Smith")
		s.Contains(body, "User ID: 1 - john.smith@example.com")
		s.Contains(body, ItemsLoadedMessage)
		s.Contains(body, "Page 1 of 1")
	})

	s.Run("failure keeps stale items and offers retry", func() {
		s.api.EXPECT().GetItems(gomock.Any(), gateway.ListQuery{Page: 2, PerPage: 5}).Return(nil, errors.New("boom"))

		w := s.get("/list?page=2&per_page=5", sessionCookies()...)

		s.Equal(http.StatusOK, w.Code)
		body := w.Body.String()
		s.Contains(body, listing.LoadFailedMessage)
		s.Contains(body, "Retry")
		s.Contains(body, "John Smith")
	})
}

func (s *RouterSuite) TestUnderDevelopmentRoutes() {
	w := s.get("/settings", sessionCookies()...)
	s.Equal(http.StatusFound, w.Code)
	s.Equal("/list", w.Header().Get("Location"))
	s.Equal(`The page "/settings" is currently under development.`, flashText(w))
}

func (s *RouterSuite) TestUnknownPathFlashesAndRedirects() {
	w := s.get("/no/such/page")
	s.Equal(http.StatusFound, w.Code)
	s.Equal("/list", w.Header().Get("Location"))
	s.Equal(`The page "/no/such/page" does not exist.`, flashText(w))
}

func (s *RouterSuite) TestLogout() {
	s.Run("page shows the confirmation dialog", func() {
		w := s.get("/logout", sessionCookies()...)
		s.Equal(http.StatusOK, w.Code)
		s.Contains(w.Body.String(), session.LogoutPrompt.Message)
	})

	s.Run("confirmed clears the session", func() {
		w := s.postForm("/logout", url.Values{"confirm": {"yes"}}, sessionCookies()...)
		s.Equal(http.StatusSeeOther, w.Code)
		s.Equal("/login", w.Header().Get("Location"))
		s.Require().NotNil(cookieNamed(w, session.TokenCookie))
		s.Equal(-1, cookieNamed(w, session.TokenCookie).MaxAge)
		s.Equal(-1, cookieNamed(w, session.EmailCookie).MaxAge)
	})

	s.Run("declined keeps the session", func() {
		w := s.postForm("/logout", url.Values{"confirm": {"no"}}, sessionCookies()...)
		s.Equal(http.StatusSeeOther, w.Code)
		s.Equal("/dashboard", w.Header().Get("Location"))
		s.Nil(cookieNamed(w, session.TokenCookie))
	})
}

func (s *RouterSuite) TestSessionAPI() {
	w := s.get("/api/session", sessionCookies()...)
	s.Equal(http.StatusOK, w.Code)

	var state session.State
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&state))
	s.True(state.IsAuthenticated)
	s.Equal("test@example.com", state.CurrentUser.Email)
}

func (s *RouterSuite) TestListAPI() {
	s.Run("requires a session", func() {
		w := s.get("/api/list")
		s.Equal(http.StatusUnauthorized, w.Code)
	})

	s.Run("fetch then reset", func() {
		s.api.EXPECT().GetItems(gomock.Any(), gateway.ListQuery{Page: 1, PerPage: 12}).Return(gateway.FixtureList(), nil)

		req := httptest.NewRequest(http.MethodPost, "/api/list/fetch", strings.NewReader(`{"page":1}`))
		for _, c := range sessionCookies() {
			req.AddCookie(c)
		}
		w := s.do(req)
		s.Require().Equal(http.StatusOK, w.Code)
		var state listing.State
		s.Require().NoError(json.NewDecoder(w.Body).Decode(&state))
		s.Len(state.Items, 12)

		w = s.get("/api/list", sessionCookies()...)
		s.Require().NoError(json.NewDecoder(w.Body).Decode(&state))
		s.Len(state.Items, 12)

		req = httptest.NewRequest(http.MethodPost, "/api/list/reset", nil)
		for _, c := range sessionCookies() {
			req.AddCookie(c)
		}
		w = s.do(req)
		s.Require().NoError(json.NewDecoder(w.Body).Decode(&state))
		s.Empty(state.Items)
	})

	s.Run("upstream failure maps to 502", func() {
		s.api.EXPECT().GetItems(gomock.Any(), gomock.Any()).Return(nil, gateway.NewAPIError(http.StatusInternalServerError, "maintenance"))

		req := httptest.NewRequest(http.MethodPost, "/api/list/fetch", strings.NewReader(`{}`))
		for _, c := range sessionCookies() {
			req.AddCookie(c)
		}
		w := s.do(req)
		s.Equal(http.StatusBadGateway, w.Code)
		s.Contains(w.Body.String(), "maintenance")
	})

	s.Run("invalid body is rejected", func() {
		req := httptest.NewRequest(http.MethodPost, "/api/list/fetch", strings.NewReader(`{"per_page":1000}`))
		for _, c := range sessionCookies() {
			req.AddCookie(c)
		}
		w := s.do(req)
		s.Equal(http.StatusBadRequest, w.Code)
	})
}

func (s *RouterSuite) TestInfraRoutes() {
	s.Equal(http.StatusOK, s.get("/health/live").Code)

	s.get("/dashboard")
	w := s.get("/metrics")
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "care_monitor_guard_rejections_total 1")
}

func (s *RouterSuite) TestUpstreamUnauthorizedDropsSession() {
	router := s.newRouter(s.remoteAgainst(http.StatusUnauthorized))
	serve := func(req *http.Request) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	s.Run("page redirects to login", func() {
		req := httptest.NewRequest(http.MethodGet, "/list", nil)
		for _, c := range sessionCookies() {
			req.AddCookie(c)
		}
		w := serve(req)

		s.Equal(http.StatusFound, w.Code)
		s.Equal("/login", w.Header().Get("Location"))
		s.Require().NotNil(cookieNamed(w, session.TokenCookie))
		s.Equal(-1, cookieNamed(w, session.TokenCookie).MaxAge)
	})

	s.Run("json fetch answers 401 although the gateway fell back", func() {
		w := serve(newFetchRequest(`{}`, sessionCookies()...))

		s.Equal(http.StatusUnauthorized, w.Code)
		s.Contains(w.Body.String(), "session expired")
		s.Require().NotNil(cookieNamed(w, session.EmailCookie))
		s.Equal(-1, cookieNamed(w, session.EmailCookie).MaxAge)
	})
}

func (s *RouterSuite) TestUpstreamForbiddenRedirectsToDashboard() {
	router := s.newRouter(s.remoteAgainst(http.StatusForbidden))
	serve := func(req *http.Request) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	s.Run("page redirects to dashboard and keeps the session", func() {
		req := httptest.NewRequest(http.MethodGet, "/list", nil)
		for _, c := range sessionCookies() {
			req.AddCookie(c)
		}
		w := serve(req)

		s.Equal(http.StatusFound, w.Code)
		s.Equal("/dashboard", w.Header().Get("Location"))
		s.Nil(cookieNamed(w, session.TokenCookie))
	})

	s.Run("json fetch answers 403", func() {
		w := serve(newFetchRequest(`{}`, sessionCookies()...))

		s.Equal(http.StatusForbidden, w.Code)
		s.Contains(w.Body.String(), "access denied")
	})
}

func (s *RouterSuite) TestListStateIsPerSession() {
	alice := cookiesFor("alice@example.com")
	bob := cookiesFor("bob@example.com")

	private := &gateway.ListResponse{
		Data:    []gateway.RawRecord{{ID: 1, FirstName: "Alice", LastName: "Only", Email: "alice-private@example.com"}},
		Page:    1,
		PerPage: 12,
		Total:   1,
	}
	s.api.EXPECT().GetItems(gomock.Any(), gomock.Any()).Return(private, nil)

	w := s.get("/list", alice...)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "alice-private@example.com")

	var state listing.State
	w = s.get("/api/list", bob...)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&state))
	s.Empty(state.Items)
	s.NotContains(w.Body.String(), "alice-private@example.com")

	w = s.get("/api/list", alice...)
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&state))
	s.Len(state.Items, 1)

	s.Run("reset by another session leaves the list alone", func() {
		req := httptest.NewRequest(http.MethodPost, "/api/list/reset", nil)
		for _, c := range bob {
			req.AddCookie(c)
		}
		s.Equal(http.StatusOK, s.do(req).Code)

		w := s.get("/api/list", alice...)
		s.Require().NoError(json.NewDecoder(w.Body).Decode(&state))
		s.Len(state.Items, 1)
	})

	s.Run("logout discards the session's list", func() {
		w := s.postForm("/logout", url.Values{"confirm": {"yes"}}, alice...)
		s.Require().Equal(http.StatusSeeOther, w.Code)

		w = s.get("/api/list", alice...)
		s.Require().NoError(json.NewDecoder(w.Body).Decode(&state))
		s.Empty(state.Items)
	})
}
