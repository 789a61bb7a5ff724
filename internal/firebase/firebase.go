package firebase

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/tripzi/tripzi-backend/internal/config"
)

// Clients bundles the Admin SDK clients the binaries share.
type Clients struct {
	App       *firebase.App
	Firestore *firestore.Client
	Auth      *auth.Client
}

// Close releases the Firestore connection. The Auth client holds none.
func (c *Clients) Close() error {
	if c == nil || c.Firestore == nil {
		return nil
	}
	return c.Firestore.Close()
}

// credentialsOption picks a credentials file, then base64 service account
// JSON. It returns nil when Application Default Credentials should be used.
func credentialsOption(cfg *config.Config, logger *zap.Logger) (option.ClientOption, error) {
	switch {
	case cfg.GoogleApplicationCredentials != "":
		if _, err := os.Stat(cfg.GoogleApplicationCredentials); os.IsNotExist(err) {
			logger.Warn("credentials file does not exist", zap.String("path", cfg.GoogleApplicationCredentials))
		}
		logger.Info("Initializing Firebase with credentials file", zap.String("path", cfg.GoogleApplicationCredentials))
		return option.WithCredentialsFile(cfg.GoogleApplicationCredentials), nil
	case cfg.FirebaseServiceAccountJSONBase64 != "":
		jsonKey, err := base64.StdEncoding.DecodeString(cfg.FirebaseServiceAccountJSONBase64)
		if err != nil {
			return nil, errors.New("FIREBASE_SERVICE_ACCOUNT_JSON_BASE64 is not a valid base64 string")
		}
		logger.Info("Initializing Firebase with base64 service account JSON")
		return option.WithCredentialsJSON(jsonKey), nil
	default:
		logger.Info("Initializing Firebase using Application Default Credentials")
		return nil, nil
	}
}

// Init creates the Firebase app and its Firestore and Auth clients.
func Init(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Clients, error) {
	if cfg == nil {
		return nil, errors.New("firebase.Init: config cannot be nil")
	}

	opt, err := credentialsOption(cfg, logger)
	if err != nil {
		return nil, err
	}
	var opts []option.ClientOption
	if opt != nil {
		opts = append(opts, opt)
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase.NewApp: %w", err)
	}

	fs, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("app.Firestore: %w", err)
	}
	authClient, err := app.Auth(ctx)
	if err != nil {
		fs.Close()
		return nil, fmt.Errorf("app.Auth: %w", err)
	}

	logger.Info("Firebase Admin SDK initialized", zap.String("projectId", cfg.FirebaseProjectID))
	return &Clients{App: app, Firestore: fs, Auth: authClient}, nil
}
