package session

import (
	"net/http"
	"time"

	"caremonitor/internal/gateway"
)

// Cookie names.
const (
	TokenCookie = "auth_token"
	EmailCookie = "user_email"
)

// Navigation targets.
const (
	LoginPath     = "/login"
	DashboardPath = "/dashboard"
)

const (
	// DefaultToken is stored when the upstream returns an empty token.
	DefaultToken = "ABCD"
	// DefaultUserName is used when the login response carries no user.
	DefaultUserName     = "Test User"
	LoginFailedMessage  = "Login failed. Please try again."
	DefaultCookieMaxAge = 7 * 24 * time.Hour
)

// State is an immutable snapshot of one browser's session.
type State struct {
	IsAuthenticated bool          `json:"is_authenticated"`
	IsLoading       bool          `json:"is_loading"`
	Error           string        `json:"error,omitempty"`
	CurrentUser     *gateway.User `json:"current_user,omitempty"`
}

func (s State) clone() State {
	if s.CurrentUser != nil {
		u := *s.CurrentUser
		s.CurrentUser = &u
	}
	return s
}

// CookiePolicy describes how session cookies are written.
type CookiePolicy struct {
	MaxAge   time.Duration
	Path     string
	Domain   string
	Secure   bool
	HTTPOnly bool
	SameSite http.SameSite
}

// DefaultCookiePolicy is seven days, root path, host-only, Secure,
// HttpOnly and SameSite=Strict.
func DefaultCookiePolicy() CookiePolicy {
	return CookiePolicy{
		MaxAge:   DefaultCookieMaxAge,
		Path:     "/",
		Domain:   "",
		Secure:   true,
		HTTPOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}

func (p CookiePolicy) cookie(name, value string, now time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     p.Path,
		Domain:   p.Domain,
		Expires:  now.Add(p.MaxAge),
		MaxAge:   int(p.MaxAge.Seconds()),
		Secure:   p.Secure,
		HttpOnly: p.HTTPOnly,
		SameSite: p.SameSite,
	}
}
