package database

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/FACorreiaa/go-tourease-suggestions/config"
)

// InitFirebase creates the Firebase Admin app. Without a credentials file it
// falls back to Application Default Credentials.
func InitFirebase(ctx context.Context, cfg config.FirebaseConfig, logger *slog.Logger) (*firebase.App, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		logger.InfoContext(ctx, "Initializing Firebase with credentials file", slog.String("file", cfg.CredentialsFile))
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	} else {
		logger.InfoContext(ctx, "Initializing Firebase using Application Default Credentials")
	}

	var fbConfig *firebase.Config
	if cfg.ProjectID != "" {
		fbConfig = &firebase.Config{ProjectID: cfg.ProjectID}
	}

	app, err := firebase.NewApp(ctx, fbConfig, opts...)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to initialize Firebase app", slog.Any("error", err))
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}
	return app, nil
}

func FirestoreClient(ctx context.Context, app *firebase.App) (*firestore.Client, error) {
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return client, nil
}

func AuthClient(ctx context.Context, app *firebase.App) (*auth.Client, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create firebase auth client: %w", err)
	}
	return client, nil
}
