package core

import (
	"context"

	"github.com/tripzi/tripzi-backend/internal/models"
)

// Caller is the verified identity behind a request. UID is empty for
// anonymous callers.
type Caller struct {
	UID       string
	Email     string
	RequestID string
}

// UsernameService answers handle uniqueness questions.
type UsernameService interface {
	// IsAvailable reports whether username is free for excludeUID to take.
	IsAvailable(ctx context.Context, username, excludeUID string) (bool, error)
}

// IdentityService probes the identity provider and profile store together.
type IdentityService interface {
	CheckGoogleUserStatus(ctx context.Context, email string) (*models.GoogleUserStatus, error)
}

// OnboardingService is the single gate between sign-in and the app.
type OnboardingService interface {
	CompleteOnboarding(ctx context.Context, caller Caller, req models.CompleteOnboardingRequest) (*models.OnboardingResult, error)
	RecordLogin(ctx context.Context, caller Caller) (*models.RecordLoginResult, error)
}

// FeedService builds the denormalized trip feed.
type FeedService interface {
	Snapshot(ctx context.Context, viewerID string) (models.FeedView, error)
	// Subscribe calls fn with a fresh view on every change of the recent
	// trips. It blocks until ctx is done or fn returns an error.
	Subscribe(ctx context.Context, viewerID string, fn func(models.FeedView) error) error
}

// AuditService defines the interface for audit logging operations.
type AuditService interface {
	CreateAuditLog(ctx context.Context, logEntry models.AuditLog) error
}
