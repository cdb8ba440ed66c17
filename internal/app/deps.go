// Package app wires the configured backends into the ports the services use.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/snacktacular/backend/internal/adapters/auth"
	"github.com/snacktacular/backend/internal/adapters/cache"
	"github.com/snacktacular/backend/internal/adapters/database"
	"github.com/snacktacular/backend/internal/adapters/events"
	"github.com/snacktacular/backend/internal/adapters/notifications"
	"github.com/snacktacular/backend/internal/adapters/search"
	"github.com/snacktacular/backend/internal/adapters/storage"
	"github.com/snacktacular/backend/internal/domain/providers"
	"github.com/snacktacular/backend/internal/infrastructure/clients/firebase"
	"github.com/snacktacular/backend/internal/infrastructure/clients/mongo"
	"github.com/snacktacular/backend/internal/infrastructure/clients/postgres"
	"github.com/snacktacular/backend/internal/infrastructure/clients/redis"
	"github.com/snacktacular/backend/internal/infrastructure/clients/typesense"
	"github.com/snacktacular/backend/internal/infrastructure/observability"
	"github.com/snacktacular/backend/pkg/config"
)

// Deps holds the adapters selected by configuration. Optional ones are nil
// when their backend is disabled.
type Deps struct {
	Store    providers.DocumentStore
	Blobs    providers.BlobStore
	Identity providers.IdentityProvider
	Notifier providers.ReviewNotifier
	Cache    providers.CacheProvider
	Search   *search.TypesenseAdapter

	closers []func() error
}

// Options controls which optional pieces Open builds
type Options struct {
	Metrics *observability.Metrics
	// BlobBaseURL prefixes download URLs of the in-memory blob store
	BlobBaseURL string
	// StoreOnly skips identity, blobs and notifications for batch jobs
	StoreOnly bool
}

// Open connects every backend named in cfg
func Open(ctx context.Context, cfg *config.Config, opts Options) (*Deps, error) {
	logger := observability.GetLogger()
	d := &Deps{}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		client, err := redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Msg("Redis unavailable, continuing without cache and event bus")
		} else {
			redisClient = client
			d.closers = append(d.closers, client.Close)
		}
	}

	var fb *firebase.Client
	if cfg.UsesFirebase() {
		client, err := firebase.NewClient(ctx, &cfg.Firebase)
		if err != nil {
			d.Close()
			return nil, err
		}
		fb = client
	}

	store, err := d.openStore(ctx, cfg, fb, redisClient)
	if err != nil {
		d.Close()
		return nil, err
	}
	d.Store = database.NewInstrumentedStore(store, cfg.Store.Backend, opts.Metrics)

	if redisClient != nil {
		d.Cache = cache.NewRedisAdapter(redisClient, "snacktacular")
	} else {
		d.Cache = cache.NewMemoryCache()
	}

	if cfg.Typesense.Enabled {
		client, err := typesense.NewClient(ctx, &cfg.Typesense)
		if err != nil {
			logger.Warn().Err(err).Msg("Typesense unavailable, search falls back to a scan")
		} else {
			adapter := search.NewTypesenseAdapter(client)
			if err := adapter.InitSchema(ctx); err != nil {
				logger.Warn().Err(err).Msg("Failed to initialise Typesense schema")
			}
			d.Search = adapter
		}
	}

	if opts.StoreOnly {
		return d, nil
	}

	if err := d.openServices(ctx, cfg, fb, opts); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

func (d *Deps) openStore(ctx context.Context, cfg *config.Config, fb *firebase.Client, redisClient *redis.Client) (providers.DocumentStore, error) {
	switch cfg.Store.Backend {
	case config.StoreBackendPostgres:
		client, err := postgres.NewClient(ctx, &cfg.Database)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, client.Close)

		var bus providers.EventBus
		if redisClient != nil {
			redisBus := events.NewRedisEventBus(redisClient)
			d.closers = append(d.closers, redisBus.Close)
			bus = redisBus
		}
		store := database.NewPostgresStore(client, bus)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return store, nil

	case config.StoreBackendMongo:
		client, err := mongo.NewClient(ctx, &cfg.Mongo)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, func() error { return client.Close(context.Background()) })
		store := database.NewMongoStore(client, cfg.Mongo.ChangeStreams)
		if err := store.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		return store, nil

	case config.StoreBackendFirestore:
		client, err := fb.Firestore(ctx)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, client.Close)
		return database.NewFirestoreStore(client), nil

	default:
		return database.NewMemoryStore(), nil
	}
}

func (d *Deps) openServices(ctx context.Context, cfg *config.Config, fb *firebase.Client, opts Options) error {
	logger := observability.GetLogger()

	if fb != nil && cfg.Firebase.StorageBucket != "" {
		bucket, name, err := fb.Bucket(ctx)
		if err != nil {
			return err
		}
		d.Blobs = storage.NewFirebaseBlobStore(bucket, name)
	} else {
		d.Blobs = storage.NewMemoryBlobStore(opts.BlobBaseURL)
	}

	if fb != nil && len(cfg.Auth.StaticTokens) == 0 {
		client, err := fb.Auth(ctx)
		if err != nil {
			return err
		}
		d.Identity = auth.NewFirebaseIdentityProvider(client)
	} else {
		tokens, err := auth.ParseStaticTokens(cfg.Auth.StaticTokens)
		if err != nil {
			return fmt.Errorf("invalid AUTH_STATIC_TOKENS: %w", err)
		}
		if len(tokens) == 0 {
			logger.Warn().Msg("No identity provider configured, every write will be rejected")
		}
		d.Identity = auth.NewStaticIdentityProvider(tokens)
	}

	if fb != nil && cfg.Firebase.Messaging {
		client, err := fb.Messaging(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("FCM unavailable, review notifications disabled")
		} else {
			d.Notifier = notifications.NewFCMReviewNotifier(client)
		}
	}
	return nil
}

// SpotSearch returns the search index as a port, or nil when it is disabled
func (d *Deps) SpotSearch() providers.SpotSearchRepository {
	if d.Search == nil {
		return nil
	}
	return d.Search
}

// Close releases every client Open created, most recent first
func (d *Deps) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}
