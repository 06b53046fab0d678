package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"caremonitor/internal/gateway"
	"caremonitor/internal/platform/metrics"
	"caremonitor/internal/session"
	dErrors "caremonitor/pkg/domain-errors"
	"caremonitor/pkg/platform/httputil"
	"caremonitor/pkg/requestcontext"
)

// Session opens the browser's session Store and attaches it to the request,
// together with the upstream token and the status hook: an upstream 401
// drops the session and navigates to login, a 403 navigates to the dashboard.
func Session(svc *session.Service, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			nav := &session.Redirect{}
			st := svc.Open(session.NewHTTPJar(w, r), nav, session.FormConfirmer(r))

			ctx := session.NewContext(r.Context(), st, nav)
			ctx = gateway.WithToken(ctx, st.Token())
			ctx = gateway.WithStatusHook(ctx, gateway.StatusHookFuncs{
				OnUnauthorized: func(ctx context.Context) {
					st.Invalidate()
					nav.Navigate(session.LoginPath)
					logger.WarnContext(ctx, "upstream rejected session token",
						"request_id", requestcontext.RequestID(ctx),
					)
				},
				OnForbidden: func(ctx context.Context) {
					nav.Navigate(session.DashboardPath)
					logger.WarnContext(ctx, "upstream denied access",
						"request_id", requestcontext.RequestID(ctx),
					)
				},
			})

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSession redirects requests without both session cookies to the
// login page, carrying the original URI as returnUrl.
func RequireSession(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if authenticated(r.Context()) {
				next.ServeHTTP(w, r)
				return
			}
			countRejection(m)
			target := session.LoginPath + "?returnUrl=" + url.QueryEscape(r.URL.RequestURI())
			http.Redirect(w, r, target, http.StatusFound)
		})
	}
}

// RequireSessionJSON is RequireSession for API routes: it answers 401 JSON.
func RequireSessionJSON(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if authenticated(r.Context()) {
				next.ServeHTTP(w, r)
				return
			}
			countRejection(m)
			httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		})
	}
}

func authenticated(ctx context.Context) bool {
	st := session.FromContext(ctx)
	return st != nil && st.CheckIsAuthenticated()
}

func countRejection(m *metrics.Metrics) {
	if m != nil {
		m.IncrementGuardRejection()
	}
}
