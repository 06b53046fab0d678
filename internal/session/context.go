package session

import "context"

type contextKeyStore struct{}
type contextKeyRedirect struct{}

// NewContext attaches the request's Store and its Redirect navigator.
func NewContext(ctx context.Context, st *Store, nav *Redirect) context.Context {
	ctx = context.WithValue(ctx, contextKeyStore{}, st)
	return context.WithValue(ctx, contextKeyRedirect{}, nav)
}

// FromContext returns the Store attached by NewContext, or nil.
func FromContext(ctx context.Context) *Store {
	st, _ := ctx.Value(contextKeyStore{}).(*Store)
	return st
}

// RedirectFromContext returns the Redirect attached by NewContext, or nil.
func RedirectFromContext(ctx context.Context) *Redirect {
	nav, _ := ctx.Value(contextKeyRedirect{}).(*Redirect)
	return nav
}
