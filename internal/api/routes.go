package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/tripzi/tripzi-backend/internal/config"
	"github.com/tripzi/tripzi-backend/internal/core"
	"github.com/tripzi/tripzi-backend/internal/firebase"
	"github.com/tripzi/tripzi-backend/internal/middleware"
)

// SetupRoutes registers the callable, feed and health routes. Global
// middleware is applied by the caller. A nil rdb disables probe rate limiting.
func SetupRoutes(
	router *gin.Engine,
	appConfig *config.Config,
	logger *zap.Logger,
	verifier firebase.TokenVerifier,
	rdb redis.UniversalClient,
	identityService core.IdentityService,
	usernameService core.UsernameService,
	onboardingService core.OnboardingService,
	feedService core.FeedService,
) {
	authMW := middleware.NewAuthMiddleware(verifier, logger)
	onboardingHandler := NewOnboardingHandler(identityService, usernameService, onboardingService)
	feedHandler := NewFeedHandler(feedService, logger)

	probe := []gin.HandlerFunc{authMW.OptionalAuth()}
	if rdb != nil {
		probe = append(probe, middleware.RateLimiter(rdb, middleware.RateLimitConfig{
			Limit:     appConfig.RateLimitProbes,
			Window:    appConfig.RateLimitWindow,
			Block:     appConfig.RateLimitBlock,
			KeyPrefix: "tripzi:ratelimit:probe",
		}, logger))
	} else {
		logger.Warn("Probe rate limiting disabled: REDIS_ADDR is not configured.")
	}

	callables := router.Group("/v1")
	{
		callables.POST("/checkGoogleUserStatus", append(probe, onboardingHandler.CheckGoogleUserStatus)...)
		callables.POST("/checkUsernameAvailability", append(probe, onboardingHandler.CheckUsernameAvailability)...)
		// Authentication is enforced by the onboarding service itself.
		callables.POST("/completeOnboarding", authMW.OptionalAuth(), onboardingHandler.CompleteOnboarding)
		callables.POST("/recordLogin", authMW.RequireAuth(), onboardingHandler.RecordLogin)
	}

	apiV1 := router.Group("/api/v1", authMW.RequireAuth())
	{
		apiV1.GET("/feed", feedHandler.GetFeed)
		apiV1.GET("/feed/stream", feedHandler.StreamFeed)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, HealthResponse{Status: "UP", Message: "Tripzi backend is healthy."})
	})

	logger.Info("API routes configured successfully under /v1, /api/v1 and /health.")
}
