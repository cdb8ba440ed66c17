package firebase

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/snacktacular/backend/internal/infrastructure/observability"
	"github.com/snacktacular/backend/pkg/config"
)

// Client bundles the Firebase services the backend talks to. Services are
// created lazily so a deployment only needs the APIs it actually uses.
type Client struct {
	app    *firebase.App
	bucket string
}

// NewClient initialises the Firebase app for the configured project
func NewClient(ctx context.Context, cfg *config.FirebaseConfig) (*Client, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{
		ProjectID:     cfg.ProjectID,
		StorageBucket: cfg.StorageBucket,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise firebase app: %w", err)
	}

	observability.GetLogger().Info().Str("project", cfg.ProjectID).Msg("Firebase app initialised")
	return &Client{app: app, bucket: cfg.StorageBucket}, nil
}

// Firestore returns a Firestore client for the project
func (c *Client) Firestore(ctx context.Context) (*firestore.Client, error) {
	client, err := c.app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return client, nil
}

// Auth returns the Firebase Authentication client
func (c *Client) Auth(ctx context.Context) (*auth.Client, error) {
	client, err := c.app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth client: %w", err)
	}
	return client, nil
}

// Messaging returns the Firebase Cloud Messaging client
func (c *Client) Messaging(ctx context.Context) (*messaging.Client, error) {
	client, err := c.app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create messaging client: %w", err)
	}
	return client, nil
}

// Bucket returns the default storage bucket handle and its name
func (c *Client) Bucket(ctx context.Context) (*storage.BucketHandle, string, error) {
	if c.bucket == "" {
		return nil, "", fmt.Errorf("FIREBASE_STORAGE_BUCKET is not configured")
	}
	client, err := c.app.Storage(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create storage client: %w", err)
	}
	bucket, err := client.DefaultBucket()
	if err != nil {
		return nil, "", fmt.Errorf("failed to open storage bucket: %w", err)
	}
	return bucket, c.bucket, nil
}
