package core

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/tripzi/tripzi-backend/internal/db"
	"github.com/tripzi/tripzi-backend/internal/firebase"
	"github.com/tripzi/tripzi-backend/internal/models"
)

type identityService struct {
	identities firebase.IdentityProvider
	profiles   db.ProfileRepository
	logger     *zap.Logger
}

// NewIdentityService creates an IdentityService.
func NewIdentityService(identities firebase.IdentityProvider, profiles db.ProfileRepository, logger *zap.Logger) IdentityService {
	return &identityService{identities: identities, profiles: profiles, logger: logger}
}

// CheckGoogleUserStatus reports whether email has an identity and whether
// that identity has finished onboarding. Provider failures other than
// not-found are reported as Internal.
func (s *identityService) CheckGoogleUserStatus(ctx context.Context, email string) (*models.GoogleUserStatus, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !IsValidEmail(email) {
		return nil, ErrInvalidArgument("email", "email must be a valid email address.")
	}

	identity, err := s.identities.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, firebase.ErrIdentityNotFound) {
			return &models.GoogleUserStatus{}, nil
		}
		s.logger.Error("identity lookup by email failed", zap.Error(err))
		return nil, ErrInternal(err)
	}

	if _, err := s.profiles.GetByID(ctx, identity.UID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return &models.GoogleUserStatus{Existing: false, HasAuth: true}, nil
		}
		s.logger.Error("profile lookup failed", zap.String("userId", identity.UID), zap.Error(err))
		return nil, ErrInternal(err)
	}
	return &models.GoogleUserStatus{Existing: true, HasAuth: true}, nil
}
