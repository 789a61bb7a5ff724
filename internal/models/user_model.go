package models

import "time"

// UserProfile is the Firestore document stored at users/{uid}.
// The Firebase Auth UID is the document ID and is never rewritten.
type UserProfile struct {
	UserID        string    `json:"userId" firestore:"userId"`
	Email         string    `json:"email" firestore:"email"`
	Name          string    `json:"name" firestore:"name"`
	Username      string    `json:"username" firestore:"username"` // lowercase, unique
	Gender        string    `json:"gender" firestore:"gender"`     // "male" | "female"
	Bio           string    `json:"bio,omitempty" firestore:"bio,omitempty"`
	DateOfBirth   time.Time `json:"dateOfBirth" firestore:"dateOfBirth"`
	AgeVerified   bool      `json:"ageVerified" firestore:"ageVerified"`
	AgeVerifiedAt time.Time `json:"ageVerifiedAt" firestore:"ageVerifiedAt"`
	PhotoURL      string    `json:"photoURL,omitempty" firestore:"photoURL,omitempty"`
	CreatedAt     time.Time `json:"createdAt" firestore:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt" firestore:"updatedAt"`
	LastLoginAt   time.Time `json:"lastLoginAt" firestore:"lastLoginAt"`

	// DisplayName is the pre-onboarding field that "name" replaced. It is
	// only read so the commit can tell that a legacy record needs clearing.
	DisplayName string `json:"-" firestore:"displayName,omitempty"`
}

// PublicProfile is the world-readable mirror at publicProfiles/{uid}.
type PublicProfile struct {
	UserID      string    `json:"userId" firestore:"-"`
	Name        string    `json:"name,omitempty" firestore:"name,omitempty"`
	DisplayName string    `json:"displayName,omitempty" firestore:"displayName,omitempty"`
	Username    string    `json:"username,omitempty" firestore:"username,omitempty"`
	PhotoURL    string    `json:"photoURL,omitempty" firestore:"photoURL,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt" firestore:"updatedAt"`
}

// ExternalIdentity is the subset of a Firebase Auth user record the
// service reads. It is owned by the identity provider.
type ExternalIdentity struct {
	UID         string
	Email       string
	DisplayName string
	PhotoURL    string
}
