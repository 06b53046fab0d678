package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"caremonitor/internal/gateway"
	jwttoken "caremonitor/internal/jwt_token"
	"caremonitor/internal/listing"
	"caremonitor/internal/platform/config"
	"caremonitor/internal/platform/health"
	"caremonitor/internal/platform/logger"
	"caremonitor/internal/platform/metrics"
	"caremonitor/internal/platform/middleware"
	"caremonitor/internal/platform/redis"
	"caremonitor/internal/platform/tracer"
	"caremonitor/internal/session"
	"caremonitor/internal/web"
	"caremonitor/pkg/platform/circuit"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 5 * time.Second
	fixtureTokenTTL   = 24 * time.Hour
)

func run(ctx context.Context, cfg config.Server) error {
	log := logger.NewWithWriter(os.Stdout, logger.ParseLevel(cfg.LogLevel))
	slog.SetDefault(log)

	log.Info("initializing care-monitor",
		"addr", cfg.Addr,
		"mode", cfg.Mode,
		"api_url", cfg.APIURL,
		"redis", cfg.RedisURL != "",
	)

	m := metrics.New()
	t := tracer.NewOTel()

	api := newGateway(cfg, log, m, t)

	snapshots, redisClient, err := newSnapshotStore(ctx, cfg)
	if err != nil {
		return err
	}

	sessions := session.NewService(api,
		session.WithLogger(log),
		session.WithMetrics(m),
		session.WithTracer(t),
		session.WithCookiePolicy(cookiePolicy(cfg)),
	)
	lists := listing.NewService(api,
		listing.WithSnapshotStore(snapshots),
		listing.WithLogger(log),
		listing.WithMetrics(m),
		listing.WithTracer(t),
	)
	sessions.Observe(func(s session.State) {
		log.Debug("session state changed",
			"authenticated", s.IsAuthenticated,
			"loading", s.IsLoading,
		)
	})

	handler, err := web.NewHandler(lists, log, cfg.CookieSecure)
	if err != nil {
		return err
	}
	meta, err := middleware.NewClientMetadata(cfg.TrustedProxies...)
	if err != nil {
		return fmt.Errorf("parse trusted proxies: %w", err)
	}

	healthHandler := health.New(string(cfg.Mode))
	if redisClient != nil {
		healthHandler.RegisterCheck("redis", redisClient.Health)
	}

	router := web.NewRouter(web.RouterConfig{
		Handler:        handler,
		Sessions:       sessions,
		Health:         healthHandler,
		Metrics:        m,
		ClientMetadata: meta,
		Logger:         log,
		RequestTimeout: cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if redisClient != nil {
		g.Go(func() error {
			return redisClient.RunPoolStats(gctx, redis.StatsInterval)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server gracefully")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				log.Warn("failed to close redis client", "error", err)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", "error", err)
		return err
	}
	log.Info("server stopped")
	return nil
}

// newGateway picks the API strategy once, at startup.
func newGateway(cfg config.Server, log *slog.Logger, m *metrics.Metrics, t tracer.Tracer) gateway.API {
	if !cfg.IsProduction() {
		issuer := jwttoken.NewService(cfg.TokenSigningKey, fixtureTokenTTL)
		return gateway.NewFixture(issuer,
			gateway.WithFixtureDelay(cfg.FallbackDelay),
			gateway.WithFixtureLogger(log),
			gateway.WithFixtureTracer(t),
		)
	}

	client := gateway.NewClient(gateway.ClientConfig{
		BaseURL:  cfg.APIURL,
		APIKey:   cfg.APIKey,
		Timeout:  cfg.APITimeout,
		Recorder: m,
		Tracer:   t,
	})
	breaker := circuit.New("records_api",
		circuit.WithFailureThreshold(cfg.BreakerFailureThreshold),
		circuit.WithSuccessThreshold(cfg.BreakerSuccessThreshold),
	)
	return gateway.NewRemote(client,
		gateway.WithFallbackDelay(cfg.FallbackDelay),
		gateway.WithBreaker(breaker),
		gateway.WithLogger(log),
		gateway.WithRecorder(m),
		gateway.WithTracer(t),
	)
}

// newSnapshotStore returns the Redis-backed store when a URL is configured,
// otherwise the in-process one. The client is nil without Redis.
func newSnapshotStore(ctx context.Context, cfg config.Server) (listing.SnapshotStore, *redis.Client, error) {
	client, err := redis.New(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	if client == nil {
		return listing.NewMemory(), nil, nil
	}
	return listing.NewRedis(client.Client, listing.DefaultSnapshotTTL), client, nil
}

func cookiePolicy(cfg config.Server) session.CookiePolicy {
	p := session.DefaultCookiePolicy()
	p.Secure = cfg.CookieSecure
	return p
}
