package models

import "time"

// Trip is a document in the trips collection.
// The owner fields are an optional denormalized copy of the owner's public profile.
type Trip struct {
	ID            string    `json:"id" firestore:"-"`
	OwnerID       string    `json:"userId" firestore:"userId"`
	Title         string    `json:"title" firestore:"title"`
	Destination   string    `json:"destination,omitempty" firestore:"destination,omitempty"`
	Description   string    `json:"description,omitempty" firestore:"description,omitempty"`
	CoverImage    string    `json:"coverImage,omitempty" firestore:"coverImage,omitempty"`
	StartDate     time.Time `json:"startDate,omitempty" firestore:"startDate,omitempty"`
	EndDate       time.Time `json:"endDate,omitempty" firestore:"endDate,omitempty"`
	Participants  []string  `json:"participants,omitempty" firestore:"participants,omitempty"`
	MaxTravelers  int       `json:"maxTravelers,omitempty" firestore:"maxTravelers,omitempty"`
	OwnerName     string    `json:"ownerName,omitempty" firestore:"ownerName,omitempty"`
	OwnerUsername string    `json:"ownerUsername,omitempty" firestore:"ownerUsername,omitempty"`
	OwnerPhotoURL string    `json:"ownerPhotoURL,omitempty" firestore:"ownerPhotoURL,omitempty"`
	CreatedAt     time.Time `json:"createdAt" firestore:"createdAt"`
}

// IsFull reports whether the trip has reached its traveler cap.
// A zero cap means the trip is unbounded.
func (t Trip) IsFull() bool {
	return t.MaxTravelers > 0 && len(t.Participants) >= t.MaxTravelers
}

// Owner is the display data attached to a trip in the feed.
type Owner struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username,omitempty"`
	PhotoURL string `json:"photoURL,omitempty"`
}

// FeedTrip is a trip with its owner resolved.
type FeedTrip struct {
	Trip
	Owner Owner `json:"owner"`
}

// FeedView is one denormalized feed batch.
// Available excludes the viewer's own trips and trips that are full.
type FeedView struct {
	All       []FeedTrip `json:"all"`
	Available []FeedTrip `json:"available"`
}
