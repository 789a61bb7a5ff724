package core

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tripzi/tripzi-backend/internal/cache"
	"github.com/tripzi/tripzi-backend/internal/db"
	"github.com/tripzi/tripzi-backend/internal/models"
)

// PlaceholderOwnerName is shown for owners whose profile cannot be resolved.
const PlaceholderOwnerName = "Traveler"

type feedService struct {
	trips          db.TripRepository
	publicProfiles db.PublicProfileRepository
	newCache       cache.Factory
	limit          int
	logger         *zap.Logger
}

// NewFeedService creates a FeedService showing the limit most recent trips.
// newCache is called once per Snapshot or Subscribe.
func NewFeedService(trips db.TripRepository, publicProfiles db.PublicProfileRepository, newCache cache.Factory, limit int, logger *zap.Logger) FeedService {
	return &feedService{
		trips:          trips,
		publicProfiles: publicProfiles,
		newCache:       newCache,
		limit:          limit,
		logger:         logger,
	}
}

func (s *feedService) Snapshot(ctx context.Context, viewerID string) (models.FeedView, error) {
	trips, err := s.trips.Recent(ctx, s.limit)
	if err != nil {
		s.logger.Error("recent trips query failed", zap.Error(err))
		return models.FeedView{}, ErrInternal(err)
	}
	return BuildFeedView(s.denormalize(ctx, trips, s.newCache()), viewerID), nil
}

func (s *feedService) Subscribe(ctx context.Context, viewerID string, fn func(models.FeedView) error) error {
	owners := s.newCache()
	return s.trips.SubscribeRecent(ctx, s.limit, func(trips []models.Trip) error {
		return fn(BuildFeedView(s.denormalize(ctx, trips, owners), viewerID))
	})
}

// denormalize attaches an owner to every trip, in query order.
func (s *feedService) denormalize(ctx context.Context, trips []models.Trip, owners cache.OwnerCache) []models.FeedTrip {
	resolved := make(map[string]models.Owner)
	var missing []string
	for _, t := range trips {
		if t.OwnerName != "" || t.OwnerID == "" {
			continue
		}
		if _, seen := resolved[t.OwnerID]; seen {
			continue
		}
		if o, ok := owners.Get(ctx, t.OwnerID); ok {
			resolved[t.OwnerID] = o
			continue
		}
		resolved[t.OwnerID] = models.Owner{} // marks the id as queued
		missing = append(missing, t.OwnerID)
	}

	for id, o := range s.fetchOwners(ctx, missing) {
		resolved[id] = o
		owners.Add(ctx, o)
	}

	out := make([]models.FeedTrip, 0, len(trips))
	for _, t := range trips {
		var owner models.Owner
		switch {
		case t.OwnerName != "":
			owner = models.Owner{ID: t.OwnerID, Name: t.OwnerName, Username: t.OwnerUsername, PhotoURL: t.OwnerPhotoURL}
		case resolved[t.OwnerID].Name != "":
			owner = resolved[t.OwnerID]
		default:
			owner = models.Owner{ID: t.OwnerID, Name: PlaceholderOwnerName}
		}
		out = append(out, models.FeedTrip{Trip: t, Owner: owner})
	}
	return out
}

// fetchOwners reads public profiles in chunks of db.MaxBatchIDs, all chunks
// in flight at once. A failed chunk is logged and its ids stay unresolved.
func (s *feedService) fetchOwners(ctx context.Context, ids []string) map[string]models.Owner {
	chunks := chunkIDs(ids, db.MaxBatchIDs)
	if len(chunks) == 0 {
		return nil
	}

	results := make([]map[string]models.PublicProfile, len(chunks))
	var g errgroup.Group
	for i, chunk := range chunks {
		g.Go(func() error {
			profiles, err := s.publicProfiles.GetByIDs(ctx, chunk)
			if err != nil {
				s.logger.Warn("owner chunk lookup failed", zap.Strings("ownerIds", chunk), zap.Error(err))
				return nil
			}
			results[i] = profiles
			return nil
		})
	}
	_ = g.Wait()

	owners := make(map[string]models.Owner, len(ids))
	for _, profiles := range results {
		for id, p := range profiles {
			owners[id] = ownerFromProfile(id, p)
		}
	}
	return owners
}

func ownerFromProfile(id string, p models.PublicProfile) models.Owner {
	name := p.Name
	if name == "" {
		name = p.DisplayName
	}
	if name == "" {
		name = PlaceholderOwnerName
	}
	return models.Owner{ID: id, Name: name, Username: p.Username, PhotoURL: p.PhotoURL}
}

func chunkIDs(ids []string, size int) [][]string {
	var chunks [][]string
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}

// BuildFeedView derives the two feed views. All keeps query order.
// Available drops the viewer's own trips and full trips.
func BuildFeedView(trips []models.FeedTrip, viewerID string) models.FeedView {
	view := models.FeedView{
		All:       make([]models.FeedTrip, 0, len(trips)),
		Available: make([]models.FeedTrip, 0, len(trips)),
	}
	for _, t := range trips {
		view.All = append(view.All, t)
		if viewerID != "" && t.OwnerID == viewerID {
			continue
		}
		if t.IsFull() {
			continue
		}
		view.Available = append(view.Available, t)
	}
	return view
}
