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

	"medidispatch/internal/config"
	"medidispatch/internal/handlers"
	"medidispatch/internal/middleware"
	"medidispatch/internal/repositories/mongodb"
	"medidispatch/internal/services"
	"medidispatch/internal/utils"
	"medidispatch/pkg/cache"
	"medidispatch/pkg/database"
	"medidispatch/pkg/logger"
	"medidispatch/pkg/maps"
	"medidispatch/pkg/push"
	"medidispatch/pkg/sms"
	"medidispatch/pkg/websocket"
	"medidispatch/routes"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real deployments inject environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(&logger.Config{
		Level:  logger.LogLevel(cfg.App.LogLevel),
		Format: cfg.App.LogFormat,
		Output: "stdout",
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	db, err := database.NewMongoDB(&database.DatabaseConfig{
		URI:            cfg.Database.URI,
		Database:       cfg.Database.Database,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SocketTimeout:  cfg.Database.SocketTimeout,
	})
	if err != nil {
		appLogger.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer db.Close()

	if err := database.NewMigrator(db.Database).Up(); err != nil {
		appLogger.Fatalf("Failed to run migrations: %v", err)
	}

	redisCache, err := cache.NewRedisCache(&cache.RedisConfig{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		appLogger.Warnf("Redis unavailable, running without cache: %v", err)
		redisCache = nil
	} else {
		defer redisCache.Close()
	}

	routeProvider := buildRouteProvider(cfg, appLogger)
	pushProvider := buildPushProvider(cfg, appLogger)
	smsProvider := buildSMSProvider(cfg, appLogger)

	wsHandler := websocket.NewHandler()
	hub := wsHandler.GetHub()

	// Repositories
	var repoCache mongodb.CacheService
	if redisCache != nil {
		repoCache = redisCache
	}
	emergencyRepo := mongodb.NewEmergencyRepository(db.Database)
	ambulanceRepo := mongodb.NewAmbulanceRepository(db.Database, repoCache)
	routeRepo := mongodb.NewRouteRepository(db.Database)
	auditRepo := mongodb.NewAuditLogRepository(db.Database)
	notificationRepo := mongodb.NewNotificationRepository(db.Database)
	txRunner := mongodb.NewTxRunner(db)

	// Services
	smsFrom := ""
	if cfg.SMS.Twilio != nil {
		smsFrom = cfg.SMS.Twilio.FromNumber
	}
	notificationService := services.NewNotificationService(
		notificationRepo, pushProvider, smsProvider, hub, appLogger, smsFrom)

	dispatchService := services.NewDispatchService(
		emergencyRepo, ambulanceRepo, routeRepo, auditRepo, txRunner,
		routeProvider, notificationService, hub, appLogger, cfg.Dispatch)

	reconciler := services.NewRouteReconciler(routeRepo, emergencyRepo, dispatchService, appLogger)
	reconcilerCtx, stopReconciler := context.WithCancel(context.Background())
	go reconciler.Start(reconcilerCtx)

	// Handlers
	dispatchHandler := handlers.NewDispatchHandler(dispatchService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.Recovery(appLogger))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.RequestLogger(appLogger))
	router.Use(middleware.CORSMiddleware())

	v1 := router.Group("/api/v1")
	{
		routes.SetupDispatchRoutes(v1, dispatchHandler)
		routes.SetupNotificationRoutes(v1, notificationHandler)
		routes.SetupWebSocketRoutes(v1, wsHandler)
	}

	router.GET("/health", func(c *gin.Context) {
		health := gin.H{
			"status":  "healthy",
			"service": utils.AppName,
			"version": cfg.App.Version,
		}
		if err := db.Ping(); err != nil {
			health["status"] = "degraded"
			health["database"] = err.Error()
			c.JSON(http.StatusServiceUnavailable, health)
			return
		}
		if redisCache != nil {
			if err := redisCache.Ping(c.Request.Context()); err != nil {
				health["status"] = "degraded"
				health["cache"] = err.Error()
			}
		}
		c.JSON(http.StatusOK, health)
	})

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port),
		Handler: router,
	}

	go func() {
		appLogger.Infof("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down")
	stopReconciler()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Errorf("Forced shutdown: %v", err)
	}
}

func buildRouteProvider(cfg *config.Config, log *logger.Logger) maps.RouteProvider {
	if cfg.Maps.GoogleMaps == nil || cfg.Maps.GoogleMaps.APIKey == "" {
		log.Warn("No maps API key configured, routes will use straight-line estimates")
		return nil
	}

	provider, err := maps.NewGoogleMapsProvider(cfg.Maps.GoogleMaps.APIKey)
	if err != nil {
		log.Warnf("Failed to initialize maps provider: %v", err)
		return nil
	}
	return provider
}

func buildPushProvider(cfg *config.Config, log *logger.Logger) push.PushProvider {
	switch cfg.Push.Provider {
	case "apns":
		if cfg.Push.APNS == nil || cfg.Push.APNS.KeyFile == "" {
			log.Warn("APNS not configured, push notifications disabled")
			return nil
		}
		provider, err := push.NewAPNSProvider(
			cfg.Push.APNS.KeyFile, cfg.Push.APNS.KeyID,
			cfg.Push.APNS.TeamID, cfg.Push.APNS.BundleID,
			cfg.Push.APNS.Production)
		if err != nil {
			log.Warnf("Failed to initialize APNS: %v", err)
			return nil
		}
		return provider
	default:
		if cfg.Push.FCM == nil || cfg.Push.FCM.Credentials == "" {
			log.Warn("FCM not configured, push notifications disabled")
			return nil
		}
		provider, err := push.NewFCMProvider(cfg.Push.FCM.Credentials)
		if err != nil {
			log.Warnf("Failed to initialize FCM: %v", err)
			return nil
		}
		return provider
	}
}

func buildSMSProvider(cfg *config.Config, log *logger.Logger) sms.SMSProvider {
	if !cfg.SMS.Enabled {
		return nil
	}

	switch cfg.SMS.Provider {
	case "sns":
		provider, err := sms.NewAWSSNSProvider(cfg.SMS.AWS.Region)
		if err != nil {
			log.Warnf("Failed to initialize SNS: %v", err)
			return nil
		}
		return provider
	default:
		if cfg.SMS.Twilio == nil || cfg.SMS.Twilio.AccountSID == "" {
			log.Warn("Twilio not configured, SMS disabled")
			return nil
		}
		return sms.NewTwilioProvider(
			cfg.SMS.Twilio.AccountSID, cfg.SMS.Twilio.AuthToken, cfg.SMS.Twilio.FromNumber)
	}
}
