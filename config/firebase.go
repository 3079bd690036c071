package config

import (
	"context"
	"encoding/base64"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

// InitFirebase initializes the Firebase Admin SDK. Without credentials it
// returns a nil app and push/storage features stay disabled.
func InitFirebase(ctx context.Context, cfg *Config, logger *logrus.Logger) (*firebase.App, error) {
	var opt option.ClientOption

	// Check for base64 encoded credentials first
	switch {
	case cfg.FirebaseCredentialsBase64 != "":
		decoded, err := base64.StdEncoding.DecodeString(cfg.FirebaseCredentialsBase64)
		if err != nil {
			return nil, fmt.Errorf("decode firebase credentials: %w", err)
		}
		opt = option.WithCredentialsJSON(decoded)
		logger.Info("Using Firebase credentials from base64 environment variable")
	case cfg.FirebaseCredentialsFile != "":
		opt = option.WithCredentialsFile(cfg.FirebaseCredentialsFile)
		logger.WithField("file", cfg.FirebaseCredentialsFile).Info("Using Firebase credentials file")
	default:
		logger.Info("Firebase credentials not configured, FCM and cloud storage disabled")
		return nil, nil
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{
		ProjectID:     cfg.FirebaseProjectID,
		StorageBucket: cfg.StorageBucket,
	}, opt)
	if err != nil {
		return nil, fmt.Errorf("initializing firebase app: %w", err)
	}
	return app, nil
}
