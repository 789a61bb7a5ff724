package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tripzi/tripzi-backend/internal/cache"
	"github.com/tripzi/tripzi-backend/internal/db"
	"github.com/tripzi/tripzi-backend/internal/firebase"
	"github.com/tripzi/tripzi-backend/internal/models"
)

var errStoreDown = errors.New("store unavailable")

// fakeProfiles is an in-memory db.ProfileRepository with Firestore-like merge writes.
type fakeProfiles struct {
	mu        sync.Mutex
	docs      map[string]models.UserProfile
	claims    map[string]string
	commits   int
	deleted   []string
	findErr   error
	getErr    error
	commitErr error
	deleteErr error
	// beforeCommit runs inside CommitOnboarding ahead of the claim check.
	beforeCommit func(f *fakeProfiles)
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{docs: map[string]models.UserProfile{}, claims: map[string]string{}}
}

func (f *fakeProfiles) GetByID(_ context.Context, uid string) (*models.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	p, ok := f.docs[uid]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &p, nil
}

func (f *fakeProfiles) FindIDsByUsername(_ context.Context, username string, limit int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	var ids []string
	for id, p := range f.docs {
		if p.Username == username && len(ids) < limit {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *fakeProfiles) CommitOnboarding(_ context.Context, w db.OnboardingWrite) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.commitErr != nil {
		return f.commitErr
	}
	if f.beforeCommit != nil {
		f.beforeCommit(f)
	}
	p := w.Profile
	if owner, ok := f.claims[p.Username]; ok && owner != p.UserID {
		if _, held := f.docs[owner]; held {
			return db.ErrUsernameTaken
		}
	}
	f.claims[p.Username] = p.UserID
	if w.PreviousUsername != "" && w.PreviousUsername != p.Username && f.claims[w.PreviousUsername] == p.UserID {
		delete(f.claims, w.PreviousUsername)
	}

	merged := p
	if old, ok := f.docs[p.UserID]; ok {
		merged.DisplayName = old.DisplayName
		if !w.StampCreatedAt {
			merged.CreatedAt = old.CreatedAt
		}
	}
	if w.ClearDisplayName {
		merged.DisplayName = ""
	}
	f.docs[p.UserID] = merged
	f.commits++
	return nil
}

func (f *fakeProfiles) TouchLastLogin(_ context.Context, uid string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.docs[uid]
	if !ok {
		return db.ErrNotFound
	}
	p.LastLoginAt = at
	f.docs[uid] = p
	return nil
}

func (f *fakeProfiles) Delete(_ context.Context, uid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, uid)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if p, ok := f.docs[uid]; ok && f.claims[p.Username] == uid {
		delete(f.claims, p.Username)
	}
	delete(f.docs, uid)
	return nil
}

// fakePublicProfiles records every GetByIDs batch.
type fakePublicProfiles struct {
	mu       sync.Mutex
	docs     map[string]models.PublicProfile
	batches  [][]string
	failWith map[string]error // keyed by the first id of a batch
	deleted  []string
}

func (f *fakePublicProfiles) GetByIDs(_ context.Context, ids []string) (map[string]models.PublicProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, append([]string(nil), ids...))
	if err := f.failWith[ids[0]]; err != nil {
		return nil, err
	}
	out := map[string]models.PublicProfile{}
	for _, id := range ids {
		if p, ok := f.docs[id]; ok {
			p.UserID = id
			out[id] = p
		}
	}
	return out, nil
}

func (f *fakePublicProfiles) Delete(_ context.Context, uid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, uid)
	delete(f.docs, uid)
	return nil
}

// fakeIdentities is an in-memory firebase.IdentityProvider.
type fakeIdentities struct {
	mu       sync.Mutex
	users    map[string]models.ExternalIdentity
	lookup   error
	updated  map[string]string
	deleteFn func(uid string) error
}

func newFakeIdentities(users ...models.ExternalIdentity) *fakeIdentities {
	f := &fakeIdentities{users: map[string]models.ExternalIdentity{}, updated: map[string]string{}}
	for _, u := range users {
		f.users[u.UID] = u
	}
	return f
}

func (f *fakeIdentities) GetUserByEmail(_ context.Context, email string) (*models.ExternalIdentity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookup != nil {
		return nil, f.lookup
	}
	for _, u := range f.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, firebase.ErrIdentityNotFound
}

func (f *fakeIdentities) GetUser(_ context.Context, uid string) (*models.ExternalIdentity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[uid]
	if !ok {
		return nil, firebase.ErrIdentityNotFound
	}
	return &u, nil
}

func (f *fakeIdentities) DeleteUser(_ context.Context, uid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteFn != nil {
		if err := f.deleteFn(uid); err != nil {
			return err
		}
	}
	delete(f.users, uid)
	return nil
}

func (f *fakeIdentities) UpdateDisplayName(_ context.Context, uid, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated[uid] = name
	return nil
}

func (f *fakeIdentities) has(uid string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.users[uid]
	return ok
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []models.AuditLog
}

func (f *fakeAudit) CreateAuditLog(_ context.Context, e models.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, e)
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []models.OnboardingEvent
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, e models.OnboardingEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, e)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func (f *fakePublisher) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, e := range f.events {
		out = append(out, e.Type)
	}
	return out
}

// fakeTrips serves canned batches. SubscribeRecent replays every batch in order.
type fakeTrips struct {
	batches [][]models.Trip
	err     error
}

func (f *fakeTrips) Recent(_ context.Context, limit int) ([]models.Trip, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.batches) == 0 {
		return nil, nil
	}
	trips := f.batches[0]
	if len(trips) > limit {
		trips = trips[:limit]
	}
	return trips, nil
}

func (f *fakeTrips) SubscribeRecent(ctx context.Context, _ int, fn func([]models.Trip) error) error {
	for _, b := range f.batches {
		if err := fn(b); err != nil {
			return err
		}
	}
	<-ctx.Done()
	return ctx.Err()
}

func lruFactory(size int) cache.Factory {
	f, err := cache.NewFactory(size, nil)
	if err != nil {
		panic(err)
	}
	return f
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func nopLogger() *zap.Logger { return zap.NewNop() }
