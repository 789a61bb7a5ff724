package db

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"

	"github.com/tripzi/tripzi-backend/internal/models"
)

const tripsCollection = "trips"

// firestoreTripRepository implements TripRepository using Firestore.
type firestoreTripRepository struct {
	client *firestore.Client
	logger *zap.Logger
}

// NewFirestoreTripRepository creates a TripRepository backed by client.
func NewFirestoreTripRepository(client *firestore.Client, logger *zap.Logger) (TripRepository, error) {
	if client == nil {
		return nil, errors.New("firestore client is not initialized for TripRepository")
	}
	return &firestoreTripRepository{client: client, logger: logger}, nil
}

func (r *firestoreTripRepository) recentQuery(limit int) firestore.Query {
	return r.client.Collection(tripsCollection).OrderBy("createdAt", firestore.Desc).Limit(limit)
}

// Recent returns the newest trips first.
func (r *firestoreTripRepository) Recent(ctx context.Context, limit int) ([]models.Trip, error) {
	iter := r.recentQuery(limit).Documents(ctx)
	defer iter.Stop()

	var trips []models.Trip
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate recent trips: %w", err)
		}
		if trip, ok := r.decode(doc); ok {
			trips = append(trips, trip)
		}
	}
	return trips, nil
}

// SubscribeRecent attaches a snapshot listener to the recent-trips query.
func (r *firestoreTripRepository) SubscribeRecent(ctx context.Context, limit int, fn func([]models.Trip) error) error {
	it := r.recentQuery(limit).Snapshots(ctx)
	defer it.Stop()

	for {
		qs, err := it.Next()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("recent trips listener failed: %w", err)
		}
		docs, err := qs.Documents.GetAll()
		if err != nil {
			return fmt.Errorf("failed to read recent trips snapshot: %w", err)
		}
		trips := make([]models.Trip, 0, len(docs))
		for _, doc := range docs {
			if trip, ok := r.decode(doc); ok {
				trips = append(trips, trip)
			}
		}
		if err := fn(trips); err != nil {
			return err
		}
	}
}

// decode logs and skips documents that do not fit models.Trip.
func (r *firestoreTripRepository) decode(doc *firestore.DocumentSnapshot) (models.Trip, bool) {
	var trip models.Trip
	if err := doc.DataTo(&trip); err != nil {
		r.logger.Warn("skipping undecodable trip", zap.String("tripId", doc.Ref.ID), zap.Error(err))
		return models.Trip{}, false
	}
	trip.ID = doc.Ref.ID
	return trip, true
}
