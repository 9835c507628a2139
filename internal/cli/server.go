package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"movie-quiz-service/internal/app"
	"movie-quiz-service/internal/config"
	"movie-quiz-service/internal/domain"
	"movie-quiz-service/internal/infra/backend"
	"movie-quiz-service/internal/infra/file"
	"movie-quiz-service/internal/infra/memory"
	pgloader "movie-quiz-service/internal/infra/postgres"
	redisstore "movie-quiz-service/internal/infra/redis"
	"movie-quiz-service/internal/logging"
	"movie-quiz-service/internal/metrics"
	transport "movie-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	m := metrics.New()

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	sessionTTL := config.TTLDuration(cfg.Quiz.SessionTTL, 30*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var loader memory.FlowLoader = memory.NewStaticFlowLoader(domain.DefaultFlow())
	switch {
	case cfg.Quiz.FlowFile != "":
		loader = file.NewFlowLoader(cfg.Quiz.FlowFile)
	case pool != nil:
		loader = pgloader.NewFlowLoader(pool)
	}

	flowTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var flows app.FlowRepository
	if redisClient != nil {
		flows = redisstore.NewFlowRepository(redisClient, loader, flowTTL)
	} else {
		flows = memory.NewFlowRepository(loader, flowTTL)
	}

	var store interface {
		app.SessionRepository
		sessionSweeper
	}
	if redisClient != nil {
		store = redisstore.NewSessionStore(redisClient, config.TTLDuration(cfg.Redis.TTL, sessionTTL))
	} else {
		store = memory.NewSessionStore(sessionTTL)
	}
	go sweepSessions(ctx, store, sweepInterval(sessionTTL), logger.Named("sessions"))

	client := backend.NewClient(backend.Options{
		BaseURL:       cfg.Backend.BaseURL,
		Timeout:       config.TTLDuration(cfg.Backend.Timeout, 10*time.Second),
		RatePerSecond: cfg.Backend.RatePerSecond,
		Burst:         cfg.Backend.Burst,
	}, logger.Named("backend"), m)

	quiz := app.NewQuizService(store, flows, client, logger.Named("quiz"), m)
	quiz.UseDefaultFlow(cfg.Quiz.FlowID)

	handler := transport.NewRouter(transport.Deps{
		Quiz:    quiz,
		Search:  app.NewSearchService(client, logger.Named("search")),
		Metrics: m,
		Logger:  logger.Named("http"),
	})

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// no WriteTimeout: WebSocket connections are long-lived
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting movie quiz service",
			zap.String("port", finalPort),
			zap.String("backend", cfg.Backend.BaseURL),
			zap.Bool("redis", redisClient != nil),
			zap.Bool("postgres", pool != nil),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		logger.Error("failed to start server", zap.Error(err))
		return err
	case <-ctx.Done():
		logger.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

type sessionSweeper interface {
	Sweep(ctx context.Context) int
}

// sweepSessions drops idle sessions every interval until ctx is done.
func sweepSessions(ctx context.Context, store sessionSweeper, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := store.Sweep(ctx); n > 0 {
				logger.Debug("idle sessions swept", zap.Int("count", n))
			}
		}
	}
}

func sweepInterval(ttl time.Duration) time.Duration {
	interval := ttl / 2
	if interval < time.Second {
		return time.Second
	}
	return interval
}
