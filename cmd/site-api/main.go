package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/sitepulse-io/sitepulse-api/api/swagger"
	"github.com/sitepulse-io/sitepulse-api/internal/handler"
	"github.com/sitepulse-io/sitepulse-api/internal/middleware"
	"github.com/sitepulse-io/sitepulse-api/internal/models"
	"github.com/sitepulse-io/sitepulse-api/internal/repository"
	"github.com/sitepulse-io/sitepulse-api/internal/service"
	"github.com/sitepulse-io/sitepulse-api/pkg/cache"
	"github.com/sitepulse-io/sitepulse-api/pkg/config"
	"github.com/sitepulse-io/sitepulse-api/pkg/database"
	"github.com/sitepulse-io/sitepulse-api/pkg/logger"
	corsmiddleware "github.com/sitepulse-io/sitepulse-api/pkg/middleware/cors"
	reqidmiddleware "github.com/sitepulse-io/sitepulse-api/pkg/middleware/requestid"
)

// @title SitePulse API
// @version 1.0.0
// @description Visitor analytics and scheduled notifications for the marketing site
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		cacheSvc = service.NewCacheService(nil, metricsSvc, cfg.Analytics.CacheTTL, logr, false)
	} else {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		defer cacheRepo.Close() //nolint:errcheck
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Analytics.CacheTTL, logr, true)
	}

	visitRepo := repository.NewVisitRepository(db, metricsSvc)
	notificationRepo := repository.NewNotificationRepository(db)
	userRepo := repository.NewUserRepository(db)

	sessionSvc := service.NewSessionService(cfg.Session.CookieName, cfg.Session.CookieTTL)
	trackingSvc := service.NewTrackingService(visitRepo, metricsSvc, cfg.Tracking, logr)
	analyticsSvc := service.NewAnalyticsService(visitRepo, cacheSvc, cfg.Analytics.CacheTTL, cfg.Analytics.RecentLimit, logr)
	notificationSvc := service.NewNotificationService(notificationRepo, cacheSvc, cfg.Notifications.CacheTTL, logr)
	exportSvc := service.NewExportService(analyticsSvc, cfg.Exports.Enabled)
	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "sitepulse-api",
	})

	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	trackingSvc.Start(rootCtx)
	defer trackingSvc.Stop()

	authHandler := handler.NewAuthHandler(authSvc)
	trackingHandler := handler.NewTrackingHandler(trackingSvc, sessionSvc, cfg.Session.CookieSecure)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsSvc, metricsSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	// Public surface used by the marketing site itself.
	api.POST("/track", trackingHandler.Track)
	api.GET("/notifications/current", notificationHandler.Current)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)

	dashboard := api.Group("/dashboard", middleware.JWT(authSvc))
	dashboard.GET("/visitors", analyticsHandler.Visitors)
	dashboard.GET("/visitors/export", exportHandler.Visitors)
	dashboard.GET("/system", analyticsHandler.System)

	admin := api.Group("/admin", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin, models.RoleEditor))
	admin.GET("/notifications", notificationHandler.List)
	admin.GET("/notifications/:id", notificationHandler.Get)
	admin.POST("/notifications",
		middleware.Audit(userRepo, models.AuditActionNotificationCreate, "notification"),
		notificationHandler.Create)
	admin.PUT("/notifications/:id",
		middleware.Audit(userRepo, models.AuditActionNotificationUpdate, "notification"),
		notificationHandler.Update)
	admin.DELETE("/notifications/:id",
		middleware.Audit(userRepo, models.AuditActionNotificationRetire, "notification"),
		notificationHandler.Retire)
	admin.DELETE("/cache", analyticsHandler.FlushCache)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logr.Sugar().Infow("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
