package web

import (
	"net/http"
	"strings"

	"caremonitor/internal/gateway"
	"caremonitor/pkg/validation"
)

// loginForm is the submitted login form.
type loginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func parseLoginForm(r *http.Request) (*loginForm, error) {
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	return &loginForm{
		Email:    r.PostForm.Get("email"),
		Password: r.PostForm.Get("password"),
	}, nil
}

func (f *loginForm) Sanitize() {
	f.Email = strings.TrimSpace(f.Email)
}

func (f *loginForm) Validate() error {
	return validation.Validate(f)
}

var loginMessages = map[string]string{
	"email.required":    "Email is required",
	"email.email":       "Please enter a valid email",
	"password.required": "Password is required",
	"password.min":      "Password must be at least 6 characters",
}

func (f *loginForm) ValidationMessage(key, _ string) (string, bool) {
	msg, ok := loginMessages[key]
	return msg, ok
}

func (f *loginForm) credentials() gateway.Credentials {
	return gateway.Credentials{Email: f.Email, Password: f.Password}
}

// loginView is the data of the login page.
type loginView struct {
	Email  string
	Error  string
	Fields validation.FieldErrors
}

// fetchRequest is the body of POST /api/list/fetch.
type fetchRequest struct {
	Page    int `json:"page" validate:"gte=0"`
	PerPage int `json:"per_page" validate:"gte=0,lte=100"`
}

func (r *fetchRequest) Validate() error {
	return validation.Validate(r)
}

func (r *fetchRequest) query() gateway.ListQuery {
	q := gateway.ListQuery{Page: r.Page, PerPage: r.PerPage}
	q.Normalize()
	return q
}
