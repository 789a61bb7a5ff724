package models

import "time"

const (
	EventOnboardingCompleted = "onboarding.completed"
	EventOnboardingRejected  = "onboarding.rejected"
)

// OnboardingEvent is published to the events queue after an onboarding
// attempt reaches a terminal state worth acting on. Email is only set on
// completed events.
type OnboardingEvent struct {
	Type       string    `json:"type"`
	UserID     string    `json:"userId"`
	Email      string    `json:"email,omitempty"`
	Name       string    `json:"name,omitempty"`
	Username   string    `json:"username,omitempty"`
	Created    bool      `json:"created,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
	RequestID  string    `json:"requestId,omitempty"`
}
