// Package session tracks one browser's authentication state on top of its
// cookie jar.
package session

import (
	"log/slog"

	"caremonitor/internal/platform/broadcast"
	"caremonitor/internal/platform/metrics"
	"caremonitor/internal/platform/tracer"
)

// Service holds the dependencies shared by every Store.
type Service struct {
	auth      Authenticator
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    tracer.Tracer
	policy    CookiePolicy
	observers *broadcast.Hub[State]
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

func WithCookiePolicy(p CookiePolicy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

func NewService(auth Authenticator, opts ...Option) *Service {
	s := &Service{
		auth:   auth,
		logger: slog.Default(),
		tracer: tracer.NewNoop(),
		policy: DefaultCookiePolicy(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.observers = broadcast.New[State]("session", s.logger)
	return s
}

// Observe registers fn for every transition of every Store opened from s.
func (s *Service) Observe(fn func(State)) func() {
	return s.observers.Subscribe(fn)
}

// CookiePolicy returns the policy used for session cookies.
func (s *Service) CookiePolicy() CookiePolicy {
	return s.policy
}

// Open binds a Store to one browser and derives its initial state from the
// cookies it already carries.
func (s *Service) Open(jar CookieJar, nav Navigator, confirmer Confirmer) *Store {
	st := &Store{
		svc:       s,
		jar:       jar,
		nav:       nav,
		confirmer: confirmer,
		hub:       broadcast.New[State]("session.store", s.logger),
	}
	st.checkAuthStatus()
	return st
}

func (s *Service) countLogin(outcome string) {
	if s.metrics != nil {
		s.metrics.IncrementLogin(outcome)
	}
}

func (s *Service) countLogout(outcome string) {
	if s.metrics != nil {
		s.metrics.IncrementLogout(outcome)
	}
}
