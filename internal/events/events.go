package events

import (
	"context"

	"github.com/tripzi/tripzi-backend/internal/models"
)

// Publisher sends onboarding events to the worker.
type Publisher interface {
	Publish(ctx context.Context, event models.OnboardingEvent) error
	Close() error
}

// Handler processes one delivered event. Returning an error requeues nothing;
// the message is rejected and logged.
type Handler func(ctx context.Context, event models.OnboardingEvent) error

// NoopPublisher drops every event. It is used when RABBITMQ_URL is unset.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, models.OnboardingEvent) error { return nil }
func (NoopPublisher) Close() error { return nil }
