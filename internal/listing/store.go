// Package listing holds the list view state of each browser session.
package listing

import (
	"context"
	"log/slog"
	"sync"

	"caremonitor/internal/gateway"
	"caremonitor/internal/platform/broadcast"
	"caremonitor/internal/platform/metrics"
	"caremonitor/internal/platform/tracer"
	"caremonitor/pkg/requestcontext"
)

// ItemsFetcher loads one page of records. gateway.API satisfies it.
type ItemsFetcher interface {
	GetItems(ctx context.Context, query gateway.ListQuery) (*gateway.ListResponse, error)
}

// Service opens the list Store of each browser session over shared
// dependencies. State is kept per owner so sessions never see each
// other's records.
type Service struct {
	api       ItemsFetcher
	snapshots SnapshotStore
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    tracer.Tracer
}

// Option configures a Service.
type Option func(*Service)

func WithSnapshotStore(s SnapshotStore) Option {
	return func(svc *Service) {
		svc.snapshots = s
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(svc *Service) {
		svc.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(svc *Service) {
		svc.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(svc *Service) {
		svc.tracer = t
	}
}

func NewService(api ItemsFetcher, opts ...Option) *Service {
	svc := &Service{
		api:       api,
		snapshots: NewMemory(),
		logger:    slog.Default(),
		tracer:    tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Open returns a Store for owner in the initial state. Call Sync to pick up
// what earlier requests of the same session left behind.
func (svc *Service) Open(owner string) *Store {
	return &Store{
		svc:   svc,
		owner: owner,
		hub:   broadcast.New[State]("listing", svc.logger),
		state: InitialState(),
	}
}

// Discard drops owner's persisted state, typically on logout.
func (svc *Service) Discard(ctx context.Context, owner string) error {
	return svc.snapshots.Delete(ctx, owner)
}

// Store owns one session's list State. Fetches are neither de-duplicated
// nor sequenced; the last completed write wins.
type Store struct {
	svc   *Service
	owner string
	hub   *broadcast.Hub[State]

	mu    sync.Mutex
	state State
}

// State returns the current snapshot.
func (st *Store) State() State {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.state.clone()
}

// Subscribe registers fn for every transition.
func (st *Store) Subscribe(fn func(State)) func() {
	return st.hub.Subscribe(fn)
}

// Sync replaces the in-memory state with the owner's persisted snapshot, if
// any. Replicas call it before reading so they observe each other's fetches.
func (st *Store) Sync(ctx context.Context) error {
	state, ok, err := st.svc.snapshots.Load(ctx, st.owner)
	if err != nil || !ok {
		return err
	}
	st.mu.Lock()
	st.state = state
	st.mu.Unlock()
	return nil
}

func (st *Store) replace(ctx context.Context, mutate func(*State)) {
	st.mu.Lock()
	next := st.state.clone()
	mutate(&next)
	st.state = next
	snapshot := next.clone()
	st.mu.Unlock()

	if err := st.svc.snapshots.Save(ctx, st.owner, snapshot); err != nil {
		st.svc.logger.ErrorContext(ctx, "failed to persist list state",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	st.hub.Publish(snapshot)
}

// Fetch loads the page described by query. On failure the error message is
// stored and the previous items are kept. The returned error is the
// gateway's.
func (st *Store) Fetch(ctx context.Context, query gateway.ListQuery) (err error) {
	query.Normalize()
	ctx, span := st.svc.tracer.Start(ctx, tracer.SpanListingFetch,
		tracer.Int(tracer.AttrPage, query.Page),
		tracer.Int(tracer.AttrPerPage, query.PerPage),
	)
	defer func() { span.End(err) }()

	st.replace(ctx, func(s *State) {
		s.Loading = true
		s.Error = ""
	})
	// Persisting the cleared flag must not depend on the caller's deadline.
	defer st.replace(context.WithoutCancel(ctx), func(s *State) { s.Loading = false })

	resp, err := st.svc.api.GetItems(ctx, query)
	if err != nil {
		msg := gateway.ExtractMessage(err)
		if msg == "" {
			msg = LoadFailedMessage
		}
		st.replace(ctx, func(s *State) { s.Error = msg })
		st.countFetch(metrics.OutcomeFailure)
		st.svc.logger.ErrorContext(ctx, "failed to load items",
			"error", err,
			"page", query.Page,
			"request_id", requestcontext.RequestID(ctx),
		)
		return err
	}

	items := NewDisplayItems(resp.Data)
	span.SetAttributes(tracer.Int(tracer.AttrItemCount, len(items)))
	st.replace(ctx, func(s *State) {
		s.Items = items
		s.Error = ""
		s.Page = resp.Page
		s.PerPage = resp.PerPage
		s.Total = resp.Total
		s.TotalPages = resp.TotalPages
	})
	st.countFetch(metrics.OutcomeSuccess)
	return nil
}

// Reset restores the initial empty state in a single replacement.
func (st *Store) Reset(ctx context.Context) {
	st.replace(ctx, func(s *State) { *s = InitialState() })
}

func (st *Store) countFetch(outcome string) {
	if st.svc.metrics != nil {
		st.svc.metrics.IncrementListFetch(outcome)
	}
}
