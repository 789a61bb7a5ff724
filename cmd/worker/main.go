package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/tripzi/tripzi-backend/internal/config"
	"github.com/tripzi/tripzi-backend/internal/events"
	"github.com/tripzi/tripzi-backend/internal/mailer"
	"github.com/tripzi/tripzi-backend/internal/models"
)

// handler reacts to onboarding events.
type handler struct {
	mail   mailer.Sender
	logger *zap.Logger
}

func (h *handler) handle(_ context.Context, event models.OnboardingEvent) error {
	switch event.Type {
	case models.EventOnboardingCompleted:
		if !event.Created {
			h.logger.Info("profile updated, no welcome mail", zap.String("userId", event.UserID))
			return nil
		}
		if h.mail == nil || event.Email == "" {
			h.logger.Info("welcome mail skipped", zap.String("userId", event.UserID))
			return nil
		}
		subject, body := mailer.WelcomeMessage(event.Name, event.Username)
		if err := h.mail.Send(event.Email, subject, body); err != nil {
			return err
		}
		h.logger.Info("welcome mail sent", zap.String("userId", event.UserID))
	case models.EventOnboardingRejected:
		h.logger.Warn("under-age signup rejected",
			zap.String("userId", event.UserID), zap.String("requestId", event.RequestID), zap.Time("at", event.OccurredAt))
	default:
		h.logger.Warn("ignoring unknown event", zap.String("type", event.Type))
	}
	return nil
}

func main() {
	if !strings.EqualFold(os.Getenv("GIN_MODE"), "release") {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Println("Warning: Error loading .env file:", err)
		}
	}

	appConfig, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to load application configuration: %v", err)
	}
	newLogger := zap.NewDevelopment
	if appConfig.IsRelease() {
		newLogger = zap.NewProduction
	}
	zapLogger, err := newLogger()
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync()

	if appConfig.RabbitMQURL == "" {
		zapLogger.Fatal("CRITICAL_ERROR: RABBITMQ_URL is required for the worker")
	}

	h := &handler{logger: zapLogger}
	if appConfig.SMTPHost != "" {
		m, err := mailer.New(mailer.Config{
			Host: appConfig.SMTPHost,
			Port: appConfig.SMTPPort,
			User: appConfig.SMTPUser,
			Pass: appConfig.SMTPPass,
			From: appConfig.MailFrom,
		})
		if err != nil {
			zapLogger.Fatal("CRITICAL_ERROR: Invalid SMTP configuration", zap.Error(err))
		}
		h.mail = m
	} else {
		zapLogger.Warn("Welcome mail disabled: SMTP_HOST is not configured.")
	}

	mq, err := events.NewRabbitMQ(events.RabbitMQConfig{URL: appConfig.RabbitMQURL, Queue: appConfig.EventsQueue}, zapLogger)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer mq.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := mq.Consume(ctx, h.handle); err != nil && !errors.Is(err, context.Canceled) {
		zapLogger.Error("Worker stopped", zap.Error(err))
		return
	}
	zapLogger.Info("Worker exiting gracefully.")
}
