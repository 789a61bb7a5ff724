package firebase

import (
	"context"
	"errors"
	"fmt"

	"firebase.google.com/go/v4/auth"

	"github.com/tripzi/tripzi-backend/internal/models"
)

// ErrIdentityNotFound is returned when the identity provider has no such user.
var ErrIdentityNotFound = errors.New("identity not found")

// IdentityProvider is the slice of Firebase Auth the onboarding flow uses.
type IdentityProvider interface {
	GetUserByEmail(ctx context.Context, email string) (*models.ExternalIdentity, error)
	GetUser(ctx context.Context, uid string) (*models.ExternalIdentity, error)
	DeleteUser(ctx context.Context, uid string) error
	UpdateDisplayName(ctx context.Context, uid, displayName string) error
}

// VerifiedToken is what the auth middleware keeps from an ID token.
type VerifiedToken struct {
	UID   string
	Email string
}

// TokenVerifier checks Firebase ID tokens.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*VerifiedToken, error)
}

type authProvider struct {
	client *auth.Client
}

// NewIdentityProvider wraps an Admin SDK auth client.
func NewIdentityProvider(client *auth.Client) (IdentityProvider, error) {
	if client == nil {
		return nil, errors.New("firebase auth client is not initialized for IdentityProvider")
	}
	return &authProvider{client: client}, nil
}

func (p *authProvider) GetUserByEmail(ctx context.Context, email string) (*models.ExternalIdentity, error) {
	rec, err := p.client.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, mapAuthError(err, "email lookup")
	}
	return toIdentity(rec), nil
}

func (p *authProvider) GetUser(ctx context.Context, uid string) (*models.ExternalIdentity, error) {
	rec, err := p.client.GetUser(ctx, uid)
	if err != nil {
		return nil, mapAuthError(err, "uid '"+uid+"'")
	}
	return toIdentity(rec), nil
}

// DeleteUser treats an already-missing user as success.
func (p *authProvider) DeleteUser(ctx context.Context, uid string) error {
	if err := p.client.DeleteUser(ctx, uid); err != nil {
		if auth.IsUserNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to delete identity '%s': %w", uid, err)
	}
	return nil
}

func (p *authProvider) UpdateDisplayName(ctx context.Context, uid, displayName string) error {
	if _, err := p.client.UpdateUser(ctx, uid, (&auth.UserToUpdate{}).DisplayName(displayName)); err != nil {
		return mapAuthError(err, "display name update for '"+uid+"'")
	}
	return nil
}

type authVerifier struct {
	client *auth.Client
}

// NewTokenVerifier wraps an Admin SDK auth client.
func NewTokenVerifier(client *auth.Client) (TokenVerifier, error) {
	if client == nil {
		return nil, errors.New("firebase auth client is not initialized for TokenVerifier")
	}
	return &authVerifier{client: client}, nil
}

func (v *authVerifier) VerifyIDToken(ctx context.Context, idToken string) (*VerifiedToken, error) {
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}
	email, _ := token.Claims["email"].(string)
	return &VerifiedToken{UID: token.UID, Email: email}, nil
}

func mapAuthError(err error, op string) error {
	if auth.IsUserNotFound(err) {
		return fmt.Errorf("%s: %w", op, ErrIdentityNotFound)
	}
	return fmt.Errorf("identity provider %s failed: %w", op, err)
}

func toIdentity(rec *auth.UserRecord) *models.ExternalIdentity {
	if rec == nil || rec.UserInfo == nil {
		return &models.ExternalIdentity{}
	}
	return &models.ExternalIdentity{
		UID:         rec.UID,
		Email:       rec.Email,
		DisplayName: rec.DisplayName,
		PhotoURL:    rec.PhotoURL,
	}
}
