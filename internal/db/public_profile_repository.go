package db

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"

	"github.com/tripzi/tripzi-backend/internal/models"
)

// MaxBatchIDs bounds a single GetByIDs call, mirroring Firestore's
// "in" filter limit used by the mobile client.
const MaxBatchIDs = 10

// firestorePublicProfileRepository implements PublicProfileRepository using Firestore.
type firestorePublicProfileRepository struct {
	client *firestore.Client
}

// NewFirestorePublicProfileRepository creates a PublicProfileRepository backed by client.
func NewFirestorePublicProfileRepository(client *firestore.Client) (PublicProfileRepository, error) {
	if client == nil {
		return nil, errors.New("firestore client is not initialized for PublicProfileRepository")
	}
	return &firestorePublicProfileRepository{client: client}, nil
}

// GetByIDs batch-reads public profiles. Undecodable documents are skipped.
func (r *firestorePublicProfileRepository) GetByIDs(ctx context.Context, userIDs []string) (map[string]models.PublicProfile, error) {
	if len(userIDs) > MaxBatchIDs {
		return nil, fmt.Errorf("GetByIDs accepts at most %d ids, got %d", MaxBatchIDs, len(userIDs))
	}
	refs := make([]*firestore.DocumentRef, 0, len(userIDs))
	for _, id := range userIDs {
		refs = append(refs, r.client.Collection(publicProfilesCollection).Doc(id))
	}

	snaps, err := r.client.GetAll(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("failed to batch-get public profiles: %w", err)
	}

	out := make(map[string]models.PublicProfile, len(snaps))
	for _, snap := range snaps {
		if snap == nil || !snap.Exists() {
			continue
		}
		var p models.PublicProfile
		if err := snap.DataTo(&p); err != nil {
			continue
		}
		p.UserID = snap.Ref.ID
		out[p.UserID] = p
	}
	return out, nil
}

// Delete removes publicProfiles/{uid}. Deleting a missing document is not an error.
func (r *firestorePublicProfileRepository) Delete(ctx context.Context, userID string) error {
	if _, err := r.client.Collection(publicProfilesCollection).Doc(userID).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete public profile '%s': %w", userID, err)
	}
	return nil
}
