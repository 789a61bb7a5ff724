package core

import (
	"context"

	"go.uber.org/zap"

	"github.com/tripzi/tripzi-backend/internal/db"
)

// usernameProbeLimit is enough to find one profile other than the excluded one.
const usernameProbeLimit = 2

const msgInvalidUsername = "username must be 3-20 characters using lowercase letters, numbers or underscores."

type usernameService struct {
	profiles db.ProfileRepository
	logger   *zap.Logger
}

// NewUsernameService creates a UsernameService over the profile store.
func NewUsernameService(profiles db.ProfileRepository, logger *zap.Logger) UsernameService {
	return &usernameService{profiles: profiles, logger: logger}
}

func (s *usernameService) IsAvailable(ctx context.Context, username, excludeUID string) (bool, error) {
	username = NormalizeUsername(username)
	if !IsValidUsername(username) {
		return false, ErrInvalidArgument("username", msgInvalidUsername)
	}

	ids, err := s.profiles.FindIDsByUsername(ctx, username, usernameProbeLimit)
	if err != nil {
		s.logger.Error("username lookup failed", zap.String("username", username), zap.Error(err))
		return false, ErrInternal(err)
	}
	for _, id := range ids {
		if id != excludeUID {
			return false, nil
		}
	}
	return true, nil
}
