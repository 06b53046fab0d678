package web

import (
	"net/http"
	"net/url"
	"strings"
)

const (
	flashCookie = "flash"
	flashMaxAge = 30
)

// Notice kinds.
const (
	NoticeSuccess = "success"
	NoticeError   = "error"
	NoticeInfo    = "info"
)

// Notice is a transient message shown once.
type Notice struct {
	Kind string
	Text string
}

// setFlash stores n for the next page the browser loads.
func setFlash(w http.ResponseWriter, n Notice, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(n.Kind + "|" + n.Text),
		Path:     "/",
		MaxAge:   flashMaxAge,
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash returns the pending notice, if any, and clears it.
func popFlash(w http.ResponseWriter, r *http.Request) *Notice {
	c, err := r.Cookie(flashCookie)
	if err != nil || c.Value == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Path: "/", MaxAge: -1})

	raw, err := url.QueryUnescape(c.Value)
	if err != nil {
		return nil
	}
	kind, text, ok := strings.Cut(raw, "|")
	if !ok || text == "" {
		return nil
	}
	return &Notice{Kind: kind, Text: text}
}
