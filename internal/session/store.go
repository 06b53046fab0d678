package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"caremonitor/internal/gateway"
	"caremonitor/internal/platform/broadcast"
	"caremonitor/internal/platform/metrics"
	"caremonitor/internal/platform/privacy"
	"caremonitor/internal/platform/tracer"
	"caremonitor/pkg/requestcontext"
)

// Store is the session state of one browser. Each transition replaces the
// snapshot and publishes it to subscribers.
type Store struct {
	svc       *Service
	jar       CookieJar
	nav       Navigator
	confirmer Confirmer
	hub       *broadcast.Hub[State]

	mu    sync.Mutex
	state State
}

// State returns the current snapshot.
func (st *Store) State() State {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.state.clone()
}

// Subscribe registers fn for this store's transitions.
func (st *Store) Subscribe(fn func(State)) func() {
	return st.hub.Subscribe(fn)
}

func (st *Store) update(mutate func(*State)) {
	st.mu.Lock()
	next := st.state.clone()
	mutate(&next)
	st.state = next
	snapshot := next.clone()
	st.mu.Unlock()

	st.hub.Publish(snapshot)
	st.svc.observers.Publish(snapshot)
}

// Login authenticates creds. On success it writes both session cookies,
// marks the session authenticated and navigates to the dashboard. On failure
// the display message is stored in State.Error and err is returned. Loading
// is cleared on every path.
func (st *Store) Login(ctx context.Context, creds gateway.Credentials) (result *gateway.AuthResult, err error) {
	ctx, span := st.svc.tracer.Start(ctx, tracer.SpanSessionLogin,
		tracer.String(tracer.AttrEmailHash, tracer.HashEmail(creds.Email)),
	)
	defer func() { span.End(err) }()

	st.update(func(s *State) {
		s.IsLoading = true
		s.Error = ""
	})
	defer st.update(func(s *State) { s.IsLoading = false })

	result, err = st.svc.auth.Login(ctx, creds)
	if err != nil {
		msg := gateway.ExtractMessage(err)
		if msg == "" {
			msg = LoginFailedMessage
		}
		st.update(func(s *State) { s.Error = msg })
		st.svc.countLogin(metrics.OutcomeFailure)
		st.svc.logger.WarnContext(ctx, "login failed",
			"error", err,
			"email", privacy.MaskEmail(creds.Email),
			"device", requestcontext.DeviceLabel(ctx),
			"client_ip", privacy.AnonymizeIP(requestcontext.ClientIP(ctx)),
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, err
	}

	email := st.handleLoginSuccess(ctx, result, creds)
	st.svc.countLogin(metrics.OutcomeSuccess)
	st.svc.logger.InfoContext(ctx, "login succeeded",
		"email", privacy.MaskEmail(email),
		"device", requestcontext.DeviceLabel(ctx),
		"client_ip", privacy.AnonymizeIP(requestcontext.ClientIP(ctx)),
		"request_id", requestcontext.RequestID(ctx),
	)
	return result, nil
}

func (st *Store) handleLoginSuccess(ctx context.Context, result *gateway.AuthResult, creds gateway.Credentials) string {
	token := result.Token
	if token == "" {
		token = DefaultToken
	}
	email := creds.Email
	if result.User != nil && result.User.Email != "" {
		email = result.User.Email
	}
	user := &gateway.User{Email: email, Name: DefaultUserName}
	if result.User != nil {
		u := *result.User
		user = &u
	}

	// The two writes are independent; a failure between them is not rolled back.
	now := requestcontext.Now(ctx)
	policy := st.svc.policy
	st.jar.Set(policy.cookie(TokenCookie, token, now))
	st.jar.Set(policy.cookie(EmailCookie, email, now))

	st.update(func(s *State) {
		s.CurrentUser = user
		s.IsAuthenticated = true
	})
	st.nav.Navigate(DashboardPath)
	return email
}

// Logout asks for confirmation. Only when confirmed are both cookies
// deleted, the state cleared and the browser sent to the login page.
func (st *Store) Logout(ctx context.Context) (bool, error) {
	confirmed, err := st.confirmer.Confirm(ctx, LogoutPrompt)
	if err != nil {
		return false, err
	}
	if !confirmed {
		st.svc.countLogout(metrics.OutcomeDeclined)
		return false, nil
	}

	st.clear()
	st.nav.Navigate(LoginPath)
	st.svc.countLogout(metrics.OutcomeConfirmed)
	st.svc.logger.InfoContext(ctx, "logout confirmed",
		"request_id", requestcontext.RequestID(ctx),
	)
	return true, nil
}

// Invalidate drops the session without asking, e.g. after the upstream
// rejected the token. Navigation is left to the caller.
func (st *Store) Invalidate() {
	st.clear()
}

func (st *Store) clear() {
	path := st.svc.policy.Path
	st.jar.Delete(TokenCookie, path)
	st.jar.Delete(EmailCookie, path)
	st.update(func(s *State) {
		s.IsAuthenticated = false
		s.CurrentUser = nil
	})
}

// CheckIsAuthenticated reports whether both session cookies are present.
// When they are, the current user is refreshed from the email cookie.
func (st *Store) CheckIsAuthenticated() bool {
	token := st.jar.Get(TokenCookie)
	email := st.jar.Get(EmailCookie)
	authenticated := token != "" && email != ""

	st.update(func(s *State) {
		if authenticated {
			s.CurrentUser = &gateway.User{Email: email}
		}
		s.IsAuthenticated = authenticated
	})
	return authenticated
}

// checkAuthStatus is the initial check; unlike CheckIsAuthenticated it also
// clears the current user when the cookies are missing.
func (st *Store) checkAuthStatus() {
	token := st.jar.Get(TokenCookie)
	email := st.jar.Get(EmailCookie)

	st.mu.Lock()
	defer st.mu.Unlock()
	if token != "" && email != "" {
		st.state.IsAuthenticated = true
		st.state.CurrentUser = &gateway.User{Email: email}
		return
	}
	st.state.IsAuthenticated = false
	st.state.CurrentUser = nil
}

// GetUserEmail returns the current user's email, else the email cookie, else "".
func (st *Store) GetUserEmail() string {
	st.mu.Lock()
	user := st.state.CurrentUser
	st.mu.Unlock()
	if user != nil && user.Email != "" {
		return user.Email
	}
	return st.jar.Get(EmailCookie)
}

// Token returns the session token cookie, or "".
func (st *Store) Token() string {
	return st.jar.Get(TokenCookie)
}

// Owner is a stable key for state kept per browser session, derived from
// both cookies. It is "" without a session.
func (st *Store) Owner() string {
	token, email := st.jar.Get(TokenCookie), st.jar.Get(EmailCookie)
	if token == "" || email == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(token + "\x00" + email))
	return hex.EncodeToString(sum[:16])
}
