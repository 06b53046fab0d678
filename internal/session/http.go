package session

import (
	"context"
	"net/http"
	"sync"
)

// HTTPJar is a CookieJar over one request/response pair. Writes are sent to
// the response and also overlaid on the request cookies, so later reads in
// the same request see them.
type HTTPJar struct {
	w http.ResponseWriter
	r *http.Request

	mu      sync.Mutex
	pending map[string]*http.Cookie
}

func NewHTTPJar(w http.ResponseWriter, r *http.Request) *HTTPJar {
	return &HTTPJar{w: w, r: r, pending: make(map[string]*http.Cookie)}
}

func (j *HTTPJar) Get(name string) string {
	j.mu.Lock()
	c, ok := j.pending[name]
	j.mu.Unlock()
	if ok {
		if c.MaxAge < 0 {
			return ""
		}
		return c.Value
	}
	c, err := j.r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

func (j *HTTPJar) Set(cookie *http.Cookie) {
	j.mu.Lock()
	j.pending[cookie.Name] = cookie
	j.mu.Unlock()
	http.SetCookie(j.w, cookie)
}

func (j *HTTPJar) Delete(name, path string) {
	j.Set(&http.Cookie{
		Name:   name,
		Value:  "",
		Path:   path,
		MaxAge: -1,
	})
}

// Redirect is a Navigator that remembers the last requested path. The
// handler that owns the request performs the actual redirect.
type Redirect struct {
	mu     sync.Mutex
	target string
}

func (n *Redirect) Navigate(path string) {
	n.mu.Lock()
	n.target = path
	n.mu.Unlock()
}

// Target returns the last navigated path, or "".
func (n *Redirect) Target() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.target
}

// ConfirmerFunc adapts a function to Confirmer.
type ConfirmerFunc func(ctx context.Context, prompt Prompt) (bool, error)

func (f ConfirmerFunc) Confirm(ctx context.Context, prompt Prompt) (bool, error) {
	return f(ctx, prompt)
}

// ConfirmField is the form field carrying the user's answer to a Prompt.
const ConfirmField = "confirm"

// FormConfirmer reads the answer from a submitted confirmation form:
// confirm=yes means the user pressed the confirm button.
func FormConfirmer(r *http.Request) Confirmer {
	return ConfirmerFunc(func(_ context.Context, _ Prompt) (bool, error) {
		if err := r.ParseForm(); err != nil {
			return false, err
		}
		return r.PostForm.Get(ConfirmField) == "yes", nil
	})
}

// Always is a Confirmer that answers every prompt with answer.
func Always(answer bool) Confirmer {
	return ConfirmerFunc(func(context.Context, Prompt) (bool, error) {
		return answer, nil
	})
}
