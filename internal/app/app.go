package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/gokatarajesh/codequiz/internal/config"
	"github.com/gokatarajesh/codequiz/internal/fetch"
	"github.com/gokatarajesh/codequiz/internal/logging"
	"github.com/gokatarajesh/codequiz/internal/metrics"
	"github.com/gokatarajesh/codequiz/internal/quiz/ai"
	"github.com/gokatarajesh/codequiz/internal/server"
	"github.com/gokatarajesh/codequiz/internal/session"
	ws "github.com/gokatarajesh/codequiz/pkg/http/ws"
)

// Application aggregates shared infrastructure (generator, sessions, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	redis    *redis.Client
	sessions *session.Manager
	http     *http.Server
}

// New bootstraps the logger, metrics, generator, optional Redis and the HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(os.Stdout, cfg.Name, cfg.Env, cfg.LogLevel)
	logger.Info().Msg("starting application bootstrap")

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	generator, err := ai.New(AIConfig(cfg.AI), logger)
	if err != nil {
		return nil, fmt.Errorf("build generator: %w", err)
	}

	var (
		redisClient *redis.Client
		guard       fetch.Guard = fetch.NewMemoryGuard()
	)
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			_ = redisClient.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		guard = fetch.NewRedisGuard(redisClient, cfg.Redis.LockTTL, logger)
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("attempt guard backed by redis")
	} else {
		logger.Warn().Msg("REDIS_ADDR not set; attempt guard is process-local")
	}

	orchestrator := fetch.NewOrchestrator(generator, m, fetch.Options{TickInterval: cfg.Quiz.ProgressTick}, logger)
	hub := ws.NewHub(logger)

	manager := session.NewManager(orchestrator, guard, session.ManagerOptions{
		Session: session.Options{
			FeedbackDelay:  cfg.Quiz.FeedbackDelay,
			NoticeDuration: cfg.Quiz.NoticeDuration,
			FetchTimeout:   cfg.Quiz.FetchTimeout,
			Notify:         server.SnapshotPublisher(hub, logger),
			Metrics:        m,
		},
		IdleTTL:       cfg.Quiz.SessionIdleTTL,
		OnClose:       hub.CloseSession,
		SweepInterval: cfg.Quiz.SweepInterval,
	}, logger)

	apiServer := server.NewHTTPServer(cfg, logger, reg,
		server.NewSessionHandlers(manager, logger),
		server.NewSessionWSHandler(manager, hub, server.NewUpgrader(cfg.CORS), logger),
	)

	return &Application{
		cfg:      cfg,
		logger:   logger,
		redis:    redisClient,
		sessions: manager,
		http:     apiServer,
	}, nil
}

// AIConfig maps the environment config onto generator settings.
func AIConfig(c config.AI) ai.Config {
	return ai.Config{
		Provider:    c.Provider,
		BaseURL:     c.BaseURL,
		Model:       c.Model,
		APIKey:      c.APIKey,
		Temperature: c.Temperature,
		Timeout:     c.HTTPTimeout,
	}
}

// Run serves HTTP and sweeps idle sessions until ctx is cancelled, then
// shuts everything down.
func (a *Application) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return a.sessions.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info().Msg("shutdown requested")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
		defer cancel()
		if err := a.http.Shutdown(shutdownCtx); err != nil {
			a.logger.Error().Err(err).Msg("http shutdown error")
		}
		return nil
	})

	err := g.Wait()

	if a.redis != nil {
		if cerr := a.redis.Close(); cerr != nil {
			a.logger.Error().Err(cerr).Msg("redis shutdown error")
		}
	}

	a.logger.Info().Msg("shutdown complete")
	return err
}
