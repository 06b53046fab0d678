package gateway

import (
	"net/url"
	"strconv"
)

// Default paging used when a caller does not specify one.
const (
	DefaultPage    = 1
	DefaultPerPage = 12
)

// Credentials is the login form payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// User is the account record returned alongside a login token.
type User struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	ID    int    `json:"id,omitempty"`
}

// AuthResult is the login response.
type AuthResult struct {
	Token string `json:"token"`
	User  *User  `json:"user,omitempty"`
}

// RawRecord is one entry of the upstream listing as delivered on the wire.
type RawRecord struct {
	ID          int    `json:"id"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	Email       string `json:"email,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
	Description string `json:"description,omitempty"`
}

// ListResponse is one page of the upstream listing.
type ListResponse struct {
	Data       []RawRecord `json:"data"`
	Page       int         `json:"page"`
	PerPage    int         `json:"per_page"`
	Total      int         `json:"total"`
	TotalPages int         `json:"total_pages"`
}

// ListQuery selects a listing page.
type ListQuery struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// DefaultListQuery returns page 1 with 12 records per page.
func DefaultListQuery() ListQuery {
	return ListQuery{Page: DefaultPage, PerPage: DefaultPerPage}
}

// Normalize replaces non-positive values with the defaults.
func (q *ListQuery) Normalize() {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.PerPage < 1 {
		q.PerPage = DefaultPerPage
	}
}

// Values renders the query as upstream URL parameters.
func (q ListQuery) Values() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("per_page", strconv.Itoa(q.PerPage))
	return v
}

// ParseListQuery reads page and per_page from URL values, defaulting
// missing or malformed entries.
func ParseListQuery(v url.Values) ListQuery {
	q := DefaultListQuery()
	if p, err := strconv.Atoi(v.Get("page")); err == nil {
		q.Page = p
	}
	if pp, err := strconv.Atoi(v.Get("per_page")); err == nil {
		q.PerPage = pp
	}
	q.Normalize()
	return q
}
