package typesense

import (
	"context"
	"fmt"
	"time"

	"github.com/typesense/typesense-go/v2/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/snacktacular/backend/internal/infrastructure/observability"
	"github.com/snacktacular/backend/pkg/config"
	"github.com/snacktacular/backend/pkg/retry"
)

// SpotsCollection holds one search document per spot
const SpotsCollection = "spots"

// Client wraps the Typesense API client used by the spot search adapter
type Client struct {
	client *typesense.Client
}

// Search is optional, so a slow node is given up on quickly
var healthRetry = retry.Config{
	MaxAttempts:     4,
	InitialDelay:    250 * time.Millisecond,
	MaxDelay:        2 * time.Second,
	BackoffFactor:   2,
	MaxTotalTimeout: 15 * time.Second,
}

// NewClient connects to cfg.URL and waits until the node reports healthy
func NewClient(ctx context.Context, cfg *config.TypesenseConfig) (*Client, error) {
	ts := typesense.NewClient(
		typesense.WithServer(cfg.URL),
		typesense.WithAPIKey(cfg.APIKey),
		typesense.WithConnectionTimeout(5*time.Second),
	)

	logger := observability.GetLogger().With().Str("url", cfg.URL).Logger()
	healthy := func() error {
		ok, err := ts.Health(ctx, 2*time.Second)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("node reported unhealthy")
		}
		return nil
	}
	onRetry := func(attempt int, err error, nextDelay time.Duration) {
		logger.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", nextDelay).Msg("Typesense not ready yet")
	}
	if err := retry.DoWithLog(ctx, healthRetry, "Typesense", healthy, onRetry); err != nil {
		return nil, fmt.Errorf("failed to reach Typesense: %w", err)
	}

	logger.Info().Msg("Connected to Typesense")
	return &Client{client: ts}, nil
}

// NewFromTypesense wraps an existing Typesense client without a health check
func NewFromTypesense(client *typesense.Client) *Client {
	return &Client{client: client}
}

func (c *Client) Client() *typesense.Client {
	return c.client
}

// SpotsSchema is the collection schema used for spot search
func SpotsSchema() *api.CollectionSchema {
	return &api.CollectionSchema{
		Name: SpotsCollection,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "name", Type: "string"},
			{Name: "address", Type: "string", Optional: pointer.True()},
			{Name: "location", Type: "geopoint"},
			{Name: "average_rating", Type: "float", Facet: pointer.True()},
			{Name: "number_of_reviews", Type: "int32"},
			{Name: "posting_user_id", Type: "string", Optional: pointer.True()},
		},
		DefaultSortingField: pointer.String("number_of_reviews"),
	}
}

// InitSchema ensures the spots collection exists
func (c *Client) InitSchema(ctx context.Context) error {
	logger := observability.LoggerFromContext(ctx)

	if _, err := c.client.Collection(SpotsCollection).Retrieve(ctx); err == nil {
		logger.Debug().Str("collection", SpotsCollection).Msg("Typesense collection already exists")
		return nil
	}

	if _, err := c.client.Collections().Create(ctx, SpotsSchema()); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	logger.Info().Str("collection", SpotsCollection).Msg("Created Typesense collection")
	return nil
}

// DropSpots deletes the spots collection so the next InitSchema recreates it
// from SpotsSchema. A missing collection is not an error.
func (c *Client) DropSpots(ctx context.Context) error {
	if _, err := c.client.Collection(SpotsCollection).Retrieve(ctx); err != nil {
		return nil
	}
	if _, err := c.client.Collection(SpotsCollection).Delete(ctx); err != nil {
		return fmt.Errorf("failed to drop collection %s: %w", SpotsCollection, err)
	}
	observability.LoggerFromContext(ctx).Info().Str("collection", SpotsCollection).Msg("Dropped Typesense collection")
	return nil
}
