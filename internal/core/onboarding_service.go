package core

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tripzi/tripzi-backend/internal/db"
	"github.com/tripzi/tripzi-backend/internal/events"
	"github.com/tripzi/tripzi-backend/internal/firebase"
	"github.com/tripzi/tripzi-backend/internal/models"
)

const (
	msgUnderage      = "You must be at least 18 years old to use Tripzi."
	msgUsernameTaken = "This username is already taken."
	msgNoProfile     = "Complete onboarding before recording a login."
)

type onboardingService struct {
	profiles       db.ProfileRepository
	publicProfiles db.PublicProfileRepository
	identities     firebase.IdentityProvider
	usernames      UsernameService
	audit          AuditService
	events         events.Publisher
	logger         *zap.Logger
	now            func() time.Time
}

// NewOnboardingService creates an OnboardingService. A nil publisher
// disables onboarding events.
func NewOnboardingService(
	profiles db.ProfileRepository,
	publicProfiles db.PublicProfileRepository,
	identities firebase.IdentityProvider,
	usernames UsernameService,
	audit AuditService,
	publisher events.Publisher,
	logger *zap.Logger,
) OnboardingService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &onboardingService{
		profiles:       profiles,
		publicProfiles: publicProfiles,
		identities:     identities,
		usernames:      usernames,
		audit:          audit,
		events:         publisher,
		logger:         logger,
		now:            time.Now,
	}
}

// onboardingInput is a request that passed the field validation gate.
type onboardingInput struct {
	name     string
	username string
	gender   string
	bio      string
	dob      time.Time
}

// validateOnboarding checks fields in a fixed order and stops at the first failure.
func validateOnboarding(req models.CompleteOnboardingRequest, now time.Time) (onboardingInput, error) {
	in := onboardingInput{
		name:     strings.TrimSpace(req.Name),
		username: NormalizeUsername(req.Username),
		bio:      strings.TrimSpace(req.Bio),
	}
	if in.name == "" {
		return in, ErrInvalidArgument("name", "name is required.")
	}
	if !IsValidUsername(in.username) {
		return in, ErrInvalidArgument("username", msgInvalidUsername)
	}
	gender, ok := NormalizeGender(req.Gender)
	if !ok {
		return in, ErrInvalidArgument("gender", "gender must be either male or female.")
	}
	in.gender = gender

	raw := strings.TrimSpace(req.DateOfBirth)
	if raw == "" {
		return in, ErrInvalidArgument("dateOfBirth", "dateOfBirth is required.")
	}
	dob, err := ParseDateOfBirth(raw)
	if err != nil {
		return in, ErrInvalidArgument("dateOfBirth", "dateOfBirth must be a valid date.")
	}
	if dob.After(now) {
		return in, ErrInvalidArgument("dateOfBirth", "dateOfBirth cannot be in the future.")
	}
	in.dob = dob
	return in, nil
}

func (s *onboardingService) CompleteOnboarding(ctx context.Context, caller Caller, req models.CompleteOnboardingRequest) (*models.OnboardingResult, error) {
	if caller.UID == "" {
		return nil, ErrUnauthenticated()
	}
	now := s.now().UTC()

	in, err := validateOnboarding(req, now)
	if err != nil {
		return nil, err
	}

	age := CalculateAge(in.dob, now)
	if age < MinimumAge {
		s.rollbackUnderage(ctx, caller, age)
		return nil, ErrFailedPrecondition(msgUnderage)
	}

	available, err := s.usernames.IsAvailable(ctx, in.username, caller.UID)
	if err != nil {
		return nil, AsError(err)
	}
	if !available {
		return nil, ErrAlreadyExists(msgUsernameTaken)
	}

	identity, err := s.identities.GetUser(ctx, caller.UID)
	if err != nil {
		s.logger.Error("identity read failed", zap.String("userId", caller.UID), zap.Error(err))
		return nil, ErrInternal(err)
	}
	existing, err := s.profiles.GetByID(ctx, caller.UID)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		s.logger.Error("profile read failed", zap.String("userId", caller.UID), zap.Error(err))
		return nil, ErrInternal(err)
	}
	created := existing == nil

	write := buildOnboardingWrite(caller, identity, existing, in, now)
	if err := s.profiles.CommitOnboarding(ctx, write); err != nil {
		if errors.Is(err, db.ErrUsernameTaken) {
			return nil, ErrAlreadyExists(msgUsernameTaken)
		}
		s.logger.Error("onboarding commit failed", zap.String("userId", caller.UID), zap.Error(err))
		return nil, ErrInternal(err)
	}

	if err := s.identities.UpdateDisplayName(ctx, caller.UID, in.name); err != nil {
		s.logger.Error("identity display name patch failed", zap.String("userId", caller.UID), zap.Error(err))
		return nil, ErrInternal(err)
	}

	s.publish(ctx, models.OnboardingEvent{
		Type:       models.EventOnboardingCompleted,
		UserID:     caller.UID,
		Email:      write.Profile.Email,
		Name:       in.name,
		Username:   in.username,
		Created:    created,
		OccurredAt: now,
		RequestID:  caller.RequestID,
	})
	s.logger.Info("onboarding completed",
		zap.String("userId", caller.UID), zap.String("username", in.username), zap.Bool("created", created))

	return &models.OnboardingResult{Success: true, Age: age}, nil
}

// buildOnboardingWrite assembles the merge payload. existing is nil on first creation.
func buildOnboardingWrite(caller Caller, identity *models.ExternalIdentity, existing *models.UserProfile, in onboardingInput, now time.Time) db.OnboardingWrite {
	email := identity.Email
	if email == "" {
		email = caller.Email
	}
	photoURL := identity.PhotoURL

	w := db.OnboardingWrite{
		Profile: models.UserProfile{
			UserID:        caller.UID,
			Email:         email,
			Name:          in.name,
			Username:      in.username,
			Gender:        in.gender,
			Bio:           in.bio,
			DateOfBirth:   in.dob,
			AgeVerified:   true,
			AgeVerifiedAt: now,
			UpdatedAt:     now,
			LastLoginAt:   now,
		},
		StampCreatedAt: existing == nil,
	}
	if existing == nil {
		w.Profile.CreatedAt = now
	} else {
		w.ClearDisplayName = true
		w.PreviousUsername = existing.Username
		w.Profile.CreatedAt = existing.CreatedAt
		if photoURL == "" {
			photoURL = existing.PhotoURL
		}
	}
	w.Profile.PhotoURL = photoURL
	return w
}

func (s *onboardingService) RecordLogin(ctx context.Context, caller Caller) (*models.RecordLoginResult, error) {
	if caller.UID == "" {
		return nil, ErrUnauthenticated()
	}
	if err := s.profiles.TouchLastLogin(ctx, caller.UID, s.now().UTC()); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrFailedPrecondition(msgNoProfile)
		}
		s.logger.Error("lastLoginAt refresh failed", zap.String("userId", caller.UID), zap.Error(err))
		return nil, ErrInternal(err)
	}
	return &models.RecordLoginResult{Success: true}, nil
}

// publish is best-effort; failures are logged only.
func (s *onboardingService) publish(ctx context.Context, event models.OnboardingEvent) {
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("onboarding event not published",
			zap.String("type", event.Type), zap.String("userId", event.UserID), zap.Error(err))
	}
}
