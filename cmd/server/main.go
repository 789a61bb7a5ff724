package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/tripzi/tripzi-backend/internal/api"
	"github.com/tripzi/tripzi-backend/internal/cache"
	"github.com/tripzi/tripzi-backend/internal/config"
	"github.com/tripzi/tripzi-backend/internal/core"
	"github.com/tripzi/tripzi-backend/internal/db"
	"github.com/tripzi/tripzi-backend/internal/events"
	"github.com/tripzi/tripzi-backend/internal/firebase"
	"github.com/tripzi/tripzi-backend/internal/middleware"
)

func newLogger(release bool) (*zap.Logger, error) {
	if release {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func main() {
	// .env is a local development convenience; production sets the environment directly.
	if !strings.EqualFold(os.Getenv("GIN_MODE"), "release") {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Println("Warning: Error loading .env file:", err)
		}
	}

	appConfig, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to load application configuration: %v", err)
	}

	zapLogger, err := newLogger(appConfig.IsRelease())
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync()

	initCtx, cancelInit := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelInit()

	// --- Firebase Admin SDK (Firestore, Auth) ---
	clients, err := firebase.Init(initCtx, appConfig, zapLogger)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to initialize Firebase Admin SDK", zap.Error(err))
	}
	defer clients.Close()

	identities, err := firebase.NewIdentityProvider(clients.Auth)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to create identity provider", zap.Error(err))
	}
	verifier, err := firebase.NewTokenVerifier(clients.Auth)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to create token verifier", zap.Error(err))
	}

	// --- Optional shared infrastructure ---
	var rdb *redis.Client
	var sharedOwners cache.OwnerCache
	if appConfig.RedisEnabled() {
		rdb, err = cache.NewRedisClient(initCtx, cache.RedisConfig{
			Address:  appConfig.RedisAddr,
			Password: appConfig.RedisPassword,
			DB:       appConfig.RedisDB,
		})
		if err != nil {
			zapLogger.Fatal("CRITICAL_ERROR: Failed to connect to Redis", zap.Error(err))
		}
		defer rdb.Close()
		sharedOwners = cache.NewRedisOwnerCache(rdb, appConfig.OwnerCacheTTL, zapLogger)
		zapLogger.Info("Redis connected", zap.String("addr", appConfig.RedisAddr))
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if appConfig.RabbitMQURL != "" {
		mq, err := events.NewRabbitMQ(events.RabbitMQConfig{URL: appConfig.RabbitMQURL, Queue: appConfig.EventsQueue}, zapLogger)
		if err != nil {
			zapLogger.Fatal("CRITICAL_ERROR: Failed to connect to RabbitMQ", zap.Error(err))
		}
		publisher = mq
	} else {
		zapLogger.Warn("Onboarding events disabled: RABBITMQ_URL is not configured.")
	}
	defer publisher.Close()

	// --- Repositories ---
	profileRepo, err := db.NewFirestoreProfileRepository(clients.Firestore)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to create profile repository", zap.Error(err))
	}
	publicProfileRepo, err := db.NewFirestorePublicProfileRepository(clients.Firestore)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to create public profile repository", zap.Error(err))
	}
	tripRepo, err := db.NewFirestoreTripRepository(clients.Firestore, zapLogger)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to create trip repository", zap.Error(err))
	}
	auditRepo, err := db.NewFirestoreAuditRepository(clients.Firestore)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to create audit repository", zap.Error(err))
	}

	// --- Services ---
	ownerCaches, err := cache.NewFactory(appConfig.FeedOwnerCacheSize, sharedOwners)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to create owner cache factory", zap.Error(err))
	}
	auditService := core.NewAuditService(auditRepo)
	usernameService := core.NewUsernameService(profileRepo, zapLogger)
	identityService := core.NewIdentityService(identities, profileRepo, zapLogger)
	onboardingService := core.NewOnboardingService(profileRepo, publicProfileRepo, identities, usernameService, auditService, publisher, zapLogger)
	feedService := core.NewFeedService(tripRepo, publicProfileRepo, ownerCaches, appConfig.FeedLimit, zapLogger)

	// --- HTTP ---
	if appConfig.IsRelease() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(middleware.RequestLogger(zapLogger))
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	if appConfig.ClientURL != "" {
		router.Use(middleware.CORSMiddleware(appConfig.ClientURL))
	} else {
		zapLogger.Warn("CORS Middleware SKIPPED: CLIENT_URL is not configured.")
	}

	var limiterClient redis.UniversalClient
	if rdb != nil {
		limiterClient = rdb
	}
	api.SetupRoutes(router, appConfig, zapLogger, verifier, limiterClient,
		identityService, usernameService, onboardingService, feedService)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", appConfig.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zapLogger.Info("Starting HTTP server", zap.String("address", httpServer.Addr), zap.String("ginMode", gin.Mode()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	zapLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	zapLogger.Info("Server exiting gracefully.")
}
