package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/tripzi/tripzi-backend/internal/models"
)

const (
	usersCollection          = "users"
	publicProfilesCollection = "publicProfiles"
	usernamesCollection      = "usernames"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrUsernameTaken is returned when a username claim belongs to another user.
	ErrUsernameTaken = errors.New("username is claimed by another user")
)

// firestoreProfileRepository implements ProfileRepository using Firestore.
type firestoreProfileRepository struct {
	client *firestore.Client
}

// NewFirestoreProfileRepository creates a ProfileRepository backed by client.
func NewFirestoreProfileRepository(client *firestore.Client) (ProfileRepository, error) {
	if client == nil {
		return nil, errors.New("firestore client is not initialized for ProfileRepository")
	}
	return &firestoreProfileRepository{client: client}, nil
}

// GetByID retrieves a profile by Firebase Auth UID.
func (r *firestoreProfileRepository) GetByID(ctx context.Context, userID string) (*models.UserProfile, error) {
	if userID == "" {
		return nil, errors.New("userID cannot be empty for GetByID operation")
	}
	snap, err := r.client.Collection(usersCollection).Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("profile '%s': %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get profile '%s': %w", userID, err)
	}

	var profile models.UserProfile
	if err := snap.DataTo(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile '%s': %w", userID, err)
	}
	profile.UserID = snap.Ref.ID
	return &profile, nil
}

// FindIDsByUsername only loads document references, never profile data.
func (r *firestoreProfileRepository) FindIDsByUsername(ctx context.Context, username string, limit int) ([]string, error) {
	iter := r.client.Collection(usersCollection).
		Where("username", "==", username).
		Select().
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	var ids []string
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query username '%s': %w", username, err)
		}
		ids = append(ids, doc.Ref.ID)
	}
	return ids, nil
}

// CommitOnboarding runs the profile write, the username claim and the
// public mirror refresh in a single transaction.
func (r *firestoreProfileRepository) CommitOnboarding(ctx context.Context, w OnboardingWrite) error {
	p := w.Profile
	if p.UserID == "" || p.Username == "" {
		return errors.New("userID and username are required for CommitOnboarding")
	}

	profileRef := r.client.Collection(usersCollection).Doc(p.UserID)
	publicRef := r.client.Collection(publicProfilesCollection).Doc(p.UserID)
	claimRef := r.client.Collection(usernamesCollection).Doc(p.Username)

	var previousRef *firestore.DocumentRef
	if w.PreviousUsername != "" && w.PreviousUsername != p.Username {
		previousRef = r.client.Collection(usernamesCollection).Doc(w.PreviousUsername)
	}

	return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		// All reads must happen before the first write.
		owner, err := claimOwner(tx, claimRef)
		if err != nil {
			return err
		}
		if owner != "" && owner != p.UserID {
			// A claim whose owner has no profile left is stale and may be taken over.
			held, err := docExists(tx, r.client.Collection(usersCollection).Doc(owner))
			if err != nil {
				return err
			}
			if held {
				return ErrUsernameTaken
			}
		}
		releasePrevious := false
		if previousRef != nil {
			prevOwner, err := claimOwner(tx, previousRef)
			if err != nil {
				return err
			}
			releasePrevious = prevOwner == p.UserID
		}

		if err := tx.Set(claimRef, map[string]interface{}{
			"uid":       p.UserID,
			"updatedAt": p.UpdatedAt,
		}); err != nil {
			return err
		}
		if releasePrevious {
			if err := tx.Delete(previousRef); err != nil {
				return err
			}
		}
		if err := tx.Set(profileRef, profileFields(w), firestore.MergeAll); err != nil {
			return err
		}
		return tx.Set(publicRef, map[string]interface{}{
			"name":      p.Name,
			"username":  p.Username,
			"photoURL":  p.PhotoURL,
			"updatedAt": p.UpdatedAt,
		}, firestore.MergeAll)
	})
}

// TouchLastLogin refreshes lastLoginAt on an existing profile.
func (r *firestoreProfileRepository) TouchLastLogin(ctx context.Context, userID string, at time.Time) error {
	_, err := r.client.Collection(usersCollection).Doc(userID).Update(ctx, []firestore.Update{
		{Path: "lastLoginAt", Value: at},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("profile '%s': %w", userID, ErrNotFound)
		}
		return fmt.Errorf("failed to update lastLoginAt for '%s': %w", userID, err)
	}
	return nil
}

// Delete removes users/{uid} and releases the username claim it holds.
// Deleting a missing document is not an error.
func (r *firestoreProfileRepository) Delete(ctx context.Context, userID string) error {
	if userID == "" {
		return errors.New("userID cannot be empty for Delete operation")
	}
	profileRef := r.client.Collection(usersCollection).Doc(userID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(profileRef)
		if err != nil && status.Code(err) != codes.NotFound {
			return fmt.Errorf("failed to read profile '%s': %w", userID, err)
		}

		var claimRef *firestore.DocumentRef
		if snap != nil && snap.Exists() {
			if username, _ := snap.Data()["username"].(string); username != "" {
				ref := r.client.Collection(usernamesCollection).Doc(username)
				owner, err := claimOwner(tx, ref)
				if err != nil {
					return err
				}
				if owner == userID {
					claimRef = ref
				}
			}
		}

		if claimRef != nil {
			if err := tx.Delete(claimRef); err != nil {
				return err
			}
		}
		return tx.Delete(profileRef)
	})
	if err != nil {
		return fmt.Errorf("failed to delete profile '%s': %w", userID, err)
	}
	return nil
}

// claimOwner returns the uid holding a username claim, or "" when unclaimed.
func claimOwner(tx *firestore.Transaction, ref *firestore.DocumentRef) (string, error) {
	snap, err := tx.Get(ref)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", nil
		}
		return "", fmt.Errorf("failed to read username claim '%s': %w", ref.ID, err)
	}
	if !snap.Exists() {
		return "", nil
	}
	uid, _ := snap.Data()["uid"].(string)
	return uid, nil
}

// docExists reports whether ref exists, reading it inside tx.
func docExists(tx *firestore.Transaction, ref *firestore.DocumentRef) (bool, error) {
	snap, err := tx.Get(ref)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return false, nil
		}
		return false, fmt.Errorf("failed to read '%s': %w", ref.Path, err)
	}
	return snap.Exists(), nil
}

// profileFields builds the merge payload; fields absent from the map are left untouched.
func profileFields(w OnboardingWrite) map[string]interface{} {
	p := w.Profile
	fields := map[string]interface{}{
		"userId":        p.UserID,
		"email":         p.Email,
		"name":          p.Name,
		"username":      p.Username,
		"gender":        p.Gender,
		"bio":           p.Bio,
		"dateOfBirth":   p.DateOfBirth,
		"ageVerified":   p.AgeVerified,
		"ageVerifiedAt": p.AgeVerifiedAt,
		"photoURL":      p.PhotoURL,
		"updatedAt":     p.UpdatedAt,
		"lastLoginAt":   p.LastLoginAt,
	}
	if w.StampCreatedAt {
		fields["createdAt"] = p.CreatedAt
	}
	if w.ClearDisplayName {
		fields["displayName"] = firestore.Delete
	}
	return fields
}
