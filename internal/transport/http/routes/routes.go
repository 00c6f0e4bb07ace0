package routes

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/walk2school/rewards-backend/internal/infra/config"
	"github.com/walk2school/rewards-backend/internal/transport/http/handlers"
	"github.com/walk2school/rewards-backend/internal/transport/http/middleware"
	"github.com/walk2school/rewards-backend/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Sessions    *usecase.SessionService
	Accounts    *usecase.AccountService
	Profiles    *usecase.ProfileService
	Leaderboard *usecase.LeaderboardService
	Catalog     *usecase.CatalogService
	Purchases   *usecase.PurchaseService
	Presence    *usecase.PresenceService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	RateLimiter *middleware.RateLimiter
	Metrics     *middleware.HTTPMetrics
	Services    ServiceSet
	Database    DatabaseChecker
	Cache       CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.CORS(deps.Config.App.AllowedOrigins))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler())
	}

	ensureAdmin := middleware.EnsureAdmin(deps.Services.Sessions)

	checks := map[string]handlers.DependencyChecker{}
	if deps.Database != nil {
		checks["database"] = deps.Database.Ping
	}
	if deps.Cache != nil {
		checks["redis"] = deps.Cache.HealthCheck
	}
	healthHandler := handlers.NewHealthHandler(checks)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Ready)

	// Metrics expose internals, so the scraper authenticates like an admin.
	r.GET("/metrics", ensureAdmin, gin.WrapH(promhttp.Handler()))

	authHandler := handlers.NewAuthHandler(deps.Services.Sessions)
	accountHandler := handlers.NewAccountHandler(deps.Services.Accounts)
	passwordHandler := handlers.NewPasswordHandler(deps.Services.Accounts)
	profileHandler := handlers.NewProfileHandler(deps.Services.Profiles)
	leaderboardHandler := handlers.NewLeaderboardHandler(deps.Services.Leaderboard)
	shopHandler := handlers.NewShopHandler(deps.Services.Catalog)
	orderHandler := handlers.NewOrderHandler(deps.Services.Purchases)
	presenceHandler := handlers.NewPresenceHandler(deps.Services.Presence)

	loginLimit := rateLimitRule(deps, "auth_login_ip", deps.Config.RateLimit.LoginMaxAttempts, time.Minute)
	registerLimit := rateLimitRule(deps, "register_ip", deps.Config.RateLimit.RegisterMaxAttempts, time.Minute)
	resetLimit := rateLimitRule(deps, "password_reset_ip", deps.Config.RateLimit.PasswordResetMaxAttempts, time.Hour)
	leaderboardLimit := rateLimitRule(deps, "leaderboard_ip", deps.Config.RateLimit.LeaderboardMaxRequests, time.Minute)

	r.POST("/authenticate", append(loginLimit, authHandler.Authenticate)...)
	r.POST("/authenticate-raw", append(loginLimit, authHandler.AuthenticateRaw)...)
	r.POST("/create-account", append(registerLimit, accountHandler.CreateAccount)...)

	r.POST("/forgot-password", append(resetLimit, passwordHandler.ForgotPassword)...)
	r.GET("/reset-password", passwordHandler.ValidateResetToken)
	r.POST("/reset-password", append(resetLimit, passwordHandler.ResetPassword)...)

	r.POST("/get-data", profileHandler.GetData)
	r.POST("/set-data", profileHandler.SetData)
	r.POST("/get-user-info", profileHandler.GetUserInfo)

	r.GET("/leaderboard", append(leaderboardLimit, leaderboardHandler.Leaderboard)...)

	r.POST("/shop/items", shopHandler.Items)
	r.POST("/add-listing", ensureAdmin, shopHandler.AddListing)
	r.POST("/update-listing", ensureAdmin, shopHandler.UpdateListing)
	r.DELETE("/delete-listing/:name", ensureAdmin, shopHandler.DeleteListing)

	r.POST("/purchase", orderHandler.Purchase)
	r.POST("/get-orders", ensureAdmin, orderHandler.ListOrders)
	r.POST("/fulfill-order", ensureAdmin, orderHandler.FulfillOrder)

	r.POST("/walking-heartbeat", presenceHandler.Heartbeat)
	r.GET("/get-live-walking", presenceHandler.LiveWalking)
	r.GET("/getLocations", presenceHandler.Locations)

	return r
}

func rateLimitRule(deps Dependencies, name string, limit int, fallbackWindow time.Duration) []gin.HandlerFunc {
	if deps.RateLimiter == nil || limit <= 0 {
		return nil
	}

	window := deps.Config.RateLimit.WindowDuration
	if window <= 0 {
		window = fallbackWindow
	}

	rule := middleware.RateLimitRule{
		Name:       name,
		Limit:      limit,
		Window:     window,
		Identifier: middleware.ClientIPIdentifier(),
	}

	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(rule)}
}
