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

	"github.com/example/moviecatalog/internal/config"
)

// Clients bundles the Firebase Admin SDK clients used by the service.
type Clients struct {
	App       *firebase.App
	Firestore *firestore.Client
	Auth      *auth.Client
}

// Close releases the Firestore client.
func (c *Clients) Close() error {
	if c == nil || c.Firestore == nil {
		return nil
	}
	return c.Firestore.Close()
}

// credentialsOption picks the credential source: a service account file, a
// base64-encoded service account JSON, or nil for Application Default Credentials.
func credentialsOption(cfg *config.Config, logger *zap.Logger) (option.ClientOption, error) {
	switch {
	case cfg.GoogleApplicationCredentials != "":
		if _, err := os.Stat(cfg.GoogleApplicationCredentials); os.IsNotExist(err) {
			logger.Warn("Credentials file does not exist", zap.String("path", cfg.GoogleApplicationCredentials))
		}
		logger.Info("Initializing Firebase with credentials file", zap.String("path", cfg.GoogleApplicationCredentials))
		return option.WithCredentialsFile(cfg.GoogleApplicationCredentials), nil
	case cfg.FirebaseServiceAccountJSONBase64 != "":
		jsonKey, err := base64.StdEncoding.DecodeString(cfg.FirebaseServiceAccountJSONBase64)
		if err != nil {
			return nil, errors.New("FIREBASE_SERVICE_ACCOUNT_JSON_BASE64 is not a valid base64 string")
		}
		logger.Info("Initializing Firebase with base64 encoded service account JSON")
		return option.WithCredentialsJSON(jsonKey), nil
	default:
		logger.Info("Initializing Firebase using Application Default Credentials")
		return nil, nil
	}
}

// Init initializes the Firebase app and its Firestore and Auth clients.
func Init(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Clients, error) {
	if cfg == nil {
		return nil, errors.New("firebase.Init: config cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	credsOption, err := credentialsOption(cfg, logger)
	if err != nil {
		return nil, err
	}

	var appConfig *firebase.Config
	if cfg.FirebaseProjectID != "" {
		appConfig = &firebase.Config{ProjectID: cfg.FirebaseProjectID}
	}

	var opts []option.ClientOption
	if credsOption != nil {
		opts = append(opts, credsOption)
	}
	app, err := firebase.NewApp(ctx, appConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase.NewApp: %w", err)
	}

	fsClient, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("app.Firestore: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		fsClient.Close()
		return nil, fmt.Errorf("app.Auth: %w", err)
	}

	logger.Info("Firebase Admin SDK initialized", zap.String("projectId", cfg.FirebaseProjectID))
	return &Clients{App: app, Firestore: fsClient, Auth: authClient}, nil
}
