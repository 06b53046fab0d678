package gateway

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"caremonitor/internal/platform/tracer"
	dErrors "caremonitor/pkg/domain-errors"
	"caremonitor/pkg/requestcontext"
	"caremonitor/pkg/secrets"
)

// TokenIssuer mints session tokens. *jwttoken.Service satisfies it.
type TokenIssuer interface {
	Issue(ctx context.Context, email, name string) (string, error)
}

// testPasswordHash is computed once; bcrypt is deliberately slow.
var testPasswordHash = secrets.MustHash(TestPassword)

// Fixture is the development API strategy. It never touches the network:
// login checks the single test account and listing always serves the
// static records, each after the fixture delay.
type Fixture struct {
	issuer TokenIssuer
	delay  time.Duration
	sleep  SleepFunc
	logger *slog.Logger
	tracer tracer.Tracer
}

// FixtureOption configures a Fixture gateway.
type FixtureOption func(*Fixture)

func WithFixtureDelay(d time.Duration) FixtureOption {
	return func(f *Fixture) {
		f.delay = d
	}
}

func WithFixtureSleep(fn SleepFunc) FixtureOption {
	return func(f *Fixture) {
		f.sleep = fn
	}
}

func WithFixtureLogger(logger *slog.Logger) FixtureOption {
	return func(f *Fixture) {
		f.logger = logger
	}
}

func WithFixtureTracer(t tracer.Tracer) FixtureOption {
	return func(f *Fixture) {
		f.tracer = t
	}
}

func NewFixture(issuer TokenIssuer, opts ...FixtureOption) *Fixture {
	f := &Fixture{
		issuer: issuer,
		delay:  DefaultFallbackDelay,
		sleep:  Sleep,
		logger: slog.Default(),
		tracer: tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Login accepts only the test account. Any other pair fails with a 401
// APIError carrying InvalidCredentialsMessage.
func (f *Fixture) Login(ctx context.Context, creds Credentials) (result *AuthResult, err error) {
	ctx, span := f.tracer.Start(ctx, tracer.SpanGatewayLogin,
		tracer.String(tracer.AttrMode, "development"),
		tracer.String(tracer.AttrEmailHash, tracer.HashEmail(creds.Email)),
	)
	defer func() { span.End(err) }()

	if !f.matches(creds) {
		f.logger.InfoContext(ctx, "fixture login rejected",
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, NewAPIError(http.StatusUnauthorized, InvalidCredentialsMessage)
	}

	token, err := f.issuer.Issue(ctx, creds.Email, TestUserName)
	if err != nil {
		return nil, err
	}
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	return &AuthResult{
		Token: token,
		User: &User{
			Email: creds.Email,
			ID:    1,
			Name:  TestUserName,
		},
	}, nil
}

// GetItems always serves the static records; query is ignored.
func (f *Fixture) GetItems(ctx context.Context, query ListQuery) (result *ListResponse, err error) {
	ctx, span := f.tracer.Start(ctx, tracer.SpanGatewayGetItems,
		tracer.String(tracer.AttrMode, "development"),
		tracer.Int(tracer.AttrPage, query.Page),
	)
	defer func() { span.End(err) }()

	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	return FixtureList(), nil
}

func (f *Fixture) matches(creds Credentials) bool {
	if creds.Email != TestEmail {
		return false
	}
	return secrets.Verify(creds.Password, testPasswordHash) == nil
}

func (f *Fixture) wait(ctx context.Context) error {
	if err := f.sleep(ctx, f.delay); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "request ended before fixture data was served")
	}
	return nil
}

var _ API = (*Fixture)(nil)
