package db

import (
	"context"
	"time"

	"github.com/tripzi/tripzi-backend/internal/models"
)

// ProfileRepository defines storage operations on users/{uid} documents.
type ProfileRepository interface {
	// GetByID returns ErrNotFound when the document does not exist.
	GetByID(ctx context.Context, userID string) (*models.UserProfile, error)
	// FindIDsByUsername returns at most limit document IDs whose username equals username.
	FindIDsByUsername(ctx context.Context, username string, limit int) ([]string, error)
	// CommitOnboarding writes the profile with merge semantics, claims the
	// username and refreshes the public mirror in one transaction.
	// It returns ErrUsernameTaken when another user with a profile holds the
	// claim; a claim whose owner has no profile is taken over.
	CommitOnboarding(ctx context.Context, write OnboardingWrite) error
	// TouchLastLogin sets lastLoginAt; it returns ErrNotFound for a missing profile.
	TouchLastLogin(ctx context.Context, userID string, at time.Time) error
	// Delete removes the profile and, in the same transaction, the
	// usernames/{username} claim when it belongs to userID.
	Delete(ctx context.Context, userID string) error
}

// PublicProfileRepository defines storage operations on publicProfiles/{uid}.
type PublicProfileRepository interface {
	// GetByIDs fetches up to MaxBatchIDs documents; missing IDs are absent from the result.
	GetByIDs(ctx context.Context, userIDs []string) (map[string]models.PublicProfile, error)
	Delete(ctx context.Context, userID string) error
}

// TripRepository defines read access to the trips collection.
type TripRepository interface {
	// Recent returns the newest trips first.
	Recent(ctx context.Context, limit int) ([]models.Trip, error)
	// SubscribeRecent calls fn with the full result set of Recent every time
	// it changes. It blocks until ctx is done or fn returns an error.
	SubscribeRecent(ctx context.Context, limit int, fn func([]models.Trip) error) error
}

// AuditRepository defines the interface for audit log data storage operations.
type AuditRepository interface {
	Create(ctx context.Context, logEntry models.AuditLog) error
}

// OnboardingWrite is everything CommitOnboarding needs to persist.
type OnboardingWrite struct {
	Profile models.UserProfile
	// StampCreatedAt is true only when the profile did not exist before.
	StampCreatedAt bool
	// ClearDisplayName deletes the deprecated displayName field.
	ClearDisplayName bool
	// PreviousUsername is released when it differs from Profile.Username.
	PreviousUsername string
}
