package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/walk2school/rewards-backend/internal/core/port"
	"github.com/walk2school/rewards-backend/internal/infra/config"
	"github.com/walk2school/rewards-backend/internal/infra/database"
	kafkainfra "github.com/walk2school/rewards-backend/internal/infra/kafka"
	"github.com/walk2school/rewards-backend/internal/infra/logger"
	"github.com/walk2school/rewards-backend/internal/infra/mailer"
	redisinfra "github.com/walk2school/rewards-backend/internal/infra/redis"
	postgresrepo "github.com/walk2school/rewards-backend/internal/repository/postgres"
	redisrepo "github.com/walk2school/rewards-backend/internal/repository/redis"
	"github.com/walk2school/rewards-backend/internal/transport/http/middleware"
	"github.com/walk2school/rewards-backend/internal/transport/http/routes"
	"github.com/walk2school/rewards-backend/internal/usecase"
)

// Application bundles the wired service with its owned connections.
type Application struct {
	cfg    *config.AppConfig
	engine *gin.Engine
	logger *zap.Logger
	pool   *pgxpool.Pool
	redis  *redisinfra.Client
	kafka  *kafkainfra.Producer
}

// New wires configuration into a runnable application: database pool with
// migrations applied, redis-backed rate limiting, the event publisher, the
// mailer, and the full HTTP surface.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init redis: %w", err)
	}

	rateLimitTTL := cfg.Redis.RateLimitTTL
	if rateLimitTTL <= 0 {
		rateLimitTTL = 2 * cfg.RateLimit.WindowDuration
	}
	rateLimitStore := redisrepo.NewRateLimitRepository(redisClient.Client(), redisrepo.SlidingWindowConfig{
		KeyPrefix: cfg.Redis.RateLimitPrefix,
		TTL:       rateLimitTTL,
	})
	rateLimiter := middleware.NewRateLimiter(rateLimitStore, log)

	var kafkaProducer *kafkainfra.Producer
	var eventPublisher port.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			kafkaProducer = producer
			eventPublisher = kafkainfra.NewEventPublisher(producer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	var mail port.Mailer
	if cfg.Mail.Provider == "sendgrid" && cfg.Mail.APIKey != "" {
		mail = mailer.NewSendGridMailer(cfg.Mail.APIKey, log)
	} else {
		log.Info("mail provider not configured, using stub mailer")
		mail = mailer.NewStubMailer(log)
	}
	resetEmails := mailer.NewResetEmailBuilder(
		cfg.Mail.FromAddress,
		cfg.Mail.FromName,
		cfg.Mail.ResetBaseURL,
		int(cfg.Auth.ResetTokenTTL.Minutes()),
	)

	repos := postgresrepo.NewRepositories(pool)

	sessionService := usecase.NewSessionService(repos.Users).
		WithTTL(cfg.Auth.SessionTTL)
	accountService := usecase.NewAccountService(repos.Users, mail, resetEmails, eventPublisher, log).
		WithResetTTL(cfg.Auth.ResetTokenTTL).
		WithMinPasswordLen(cfg.Auth.MinPasswordLen)
	profileService := usecase.NewProfileService(sessionService, repos.Users)
	leaderboardService := usecase.NewLeaderboardService(repos.Users)
	catalogService := usecase.NewCatalogService(sessionService, repos.Shop)
	purchaseService := usecase.NewPurchaseService(sessionService, repos.Shop, repos.Purchases, eventPublisher, log)
	presenceService := usecase.NewPresenceService(sessionService, repos.Users).
		WithWalkingWindow(cfg.Presence.WalkingWindow)

	metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
	if err != nil {
		return nil, fmt.Errorf("init http metrics: %w", err)
	}

	engine := routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		RateLimiter: rateLimiter,
		Metrics:     metrics,
		Database:    pool,
		Cache:       redisClient,
		Services: routes.ServiceSet{
			Sessions:    sessionService,
			Accounts:    accountService,
			Profiles:    profileService,
			Leaderboard: leaderboardService,
			Catalog:     catalogService,
			Purchases:   purchaseService,
			Presence:    presenceService,
		},
	})

	return &Application{
		cfg:    cfg,
		engine: engine,
		logger: log,
		pool:   pool,
		redis:  redisClient,
		kafka:  kafkaProducer,
	}, nil
}

// Run serves HTTP until the context is cancelled, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer a.pool.Close()
	defer func() {
		_ = a.redis.Close()
	}()
	defer func() {
		if a.kafka != nil {
			_ = a.kafka.Close()
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting rewards API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}
