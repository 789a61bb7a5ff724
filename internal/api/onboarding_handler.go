package api

import (
	"github.com/gin-gonic/gin"

	"github.com/tripzi/tripzi-backend/internal/callable"
	"github.com/tripzi/tripzi-backend/internal/core"
	"github.com/tripzi/tripzi-backend/internal/middleware"
	"github.com/tripzi/tripzi-backend/internal/models"
)

// OnboardingHandler serves the onboarding callables.
type OnboardingHandler struct {
	identities core.IdentityService
	usernames  core.UsernameService
	onboarding core.OnboardingService
}

// NewOnboardingHandler creates a new OnboardingHandler.
func NewOnboardingHandler(identities core.IdentityService, usernames core.UsernameService, onboarding core.OnboardingService) *OnboardingHandler {
	return &OnboardingHandler{identities: identities, usernames: usernames, onboarding: onboarding}
}

// CheckGoogleUserStatus handles POST /v1/checkGoogleUserStatus.
func (h *OnboardingHandler) CheckGoogleUserStatus(c *gin.Context) {
	var req models.CheckGoogleUserStatusRequest
	if err := callable.Bind(c, &req); err != nil {
		callable.WriteError(c, err)
		return
	}
	status, err := h.identities.CheckGoogleUserStatus(c.Request.Context(), req.Email)
	if err != nil {
		callable.WriteError(c, err)
		return
	}
	callable.WriteResult(c, status)
}

// CheckUsernameAvailability handles POST /v1/checkUsernameAvailability.
// An explicit excludeUid wins over the caller's own uid.
func (h *OnboardingHandler) CheckUsernameAvailability(c *gin.Context) {
	var req models.CheckUsernameAvailabilityRequest
	if err := callable.Bind(c, &req); err != nil {
		callable.WriteError(c, err)
		return
	}
	exclude := req.ExcludeUID
	if exclude == "" {
		exclude = middleware.Caller(c).UID
	}
	available, err := h.usernames.IsAvailable(c.Request.Context(), req.Username, exclude)
	if err != nil {
		callable.WriteError(c, err)
		return
	}
	callable.WriteResult(c, models.UsernameAvailability{Available: available})
}

// CompleteOnboarding handles POST /v1/completeOnboarding.
func (h *OnboardingHandler) CompleteOnboarding(c *gin.Context) {
	var req models.CompleteOnboardingRequest
	if err := callable.Bind(c, &req); err != nil {
		callable.WriteError(c, err)
		return
	}
	result, err := h.onboarding.CompleteOnboarding(c.Request.Context(), middleware.Caller(c), req)
	if err != nil {
		callable.WriteError(c, err)
		return
	}
	callable.WriteResult(c, result)
}

// RecordLogin handles POST /v1/recordLogin.
func (h *OnboardingHandler) RecordLogin(c *gin.Context) {
	var req struct{}
	if err := callable.Bind(c, &req); err != nil {
		callable.WriteError(c, err)
		return
	}
	result, err := h.onboarding.RecordLogin(c.Request.Context(), middleware.Caller(c))
	if err != nil {
		callable.WriteError(c, err)
		return
	}
	callable.WriteResult(c, result)
}
