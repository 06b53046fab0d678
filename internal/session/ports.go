package session

import (
	"context"
	"net/http"

	"caremonitor/internal/gateway"
)

//go:generate mockgen -source=ports.go -destination=mocks/ports_mock.go -package=mocks

// CookieJar reads and writes one browser's cookies.
type CookieJar interface {
	Get(name string) string
	Set(cookie *http.Cookie)
	Delete(name, path string)
}

// Navigator records where the browser should go next.
type Navigator interface {
	Navigate(path string)
}

// Confirmer asks the user to confirm a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt Prompt) (bool, error)
}

// Authenticator exchanges credentials for a token. gateway.API satisfies it.
type Authenticator interface {
	Login(ctx context.Context, creds gateway.Credentials) (*gateway.AuthResult, error)
}

// Prompt is the text of a confirmation dialog.
type Prompt struct {
	Title       string
	Message     string
	ConfirmText string
	CancelText  string
}

// LogoutPrompt is shown before a session is ended.
var LogoutPrompt = Prompt{
	Title:       "Confirm Logout",
	Message:     "Are you sure you want to logout?",
	ConfirmText: "Logout",
	CancelText:  "Cancel",
}
