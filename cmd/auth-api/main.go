package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/jh-platform/auth-api/api/swagger"
	"github.com/jh-platform/auth-api/internal/handler"
	"github.com/jh-platform/auth-api/internal/middleware"
	"github.com/jh-platform/auth-api/internal/repository"
	"github.com/jh-platform/auth-api/internal/service"
	"github.com/jh-platform/auth-api/internal/token"
	"github.com/jh-platform/auth-api/pkg/cache"
	"github.com/jh-platform/auth-api/pkg/config"
	"github.com/jh-platform/auth-api/pkg/database"
	"github.com/jh-platform/auth-api/pkg/logger"
	corsmiddleware "github.com/jh-platform/auth-api/pkg/middleware/cors"
	reqidmiddleware "github.com/jh-platform/auth-api/pkg/middleware/requestid"
)

// @title Auth API
// @version 1.0.0
// @description Username/password identity service issuing signed access and refresh tokens
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	users := repository.NewUserRepository(db)

	codec := token.NewCodec(cfg.JWT.Secret)
	validate := validator.New()
	metrics := service.NewMetricsService()
	if !cfg.Metrics.Enabled {
		metrics = nil
	}

	authCfg := service.AuthConfig{
		AccessTokenExpiry:  cfg.JWT.AccessExpiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
	}

	readiness := []handler.ReadinessCheck{
		{Name: "postgres", Check: db.PingContext},
	}

	var authSvc *service.AuthService
	switch cfg.Session.Store {
	case config.SessionStoreRedis:
		redisClient, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to redis", "error", err)
		}
		defer redisClient.Close() //nolint:errcheck
		readiness = append(readiness, handler.ReadinessCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})
		authSvc = service.NewAuthService(users, repository.NewRedisSessionRepository(redisClient), codec, validate, logr, metrics, authCfg)
	default:
		authSvc = service.NewAuthService(users, repository.NewSessionRepository(db), codec, validate, logr, metrics, authCfg)
	}

	authHandler := handler.NewAuthHandler(authSvc, codec, handler.CookieSettings{
		Secure:        cfg.Cookie.Secure,
		Domain:        cfg.Cookie.Domain,
		AccessMaxAge:  int(cfg.JWT.AccessExpiration.Seconds()),
		RefreshMaxAge: int(cfg.JWT.RefreshExpiration.Seconds()),
	})
	metricsHandler := handler.NewMetricsHandler(metrics, readiness...)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.Authenticate(codec))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", metricsHandler.Prometheus)
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	auth := api.Group("/auth")
	auth.POST("/signup", authHandler.Signup)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", authHandler.Logout)
	auth.GET("/user", middleware.RequireUser(), authHandler.Me)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "session_store", cfg.Session.Store)
	if err := r.Run(addr); err != nil && err != http.ErrServerClosed {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
