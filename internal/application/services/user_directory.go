package services

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/snacktacular/backend/internal/domain/entities"
	"github.com/snacktacular/backend/internal/domain/providers"
	"github.com/snacktacular/backend/internal/infrastructure/observability"
	apperrors "github.com/snacktacular/backend/pkg/errors"
)

const userCacheTTL = 5 * time.Minute

// UserDirectory is a read-only view over the users collection
type UserDirectory struct {
	store   providers.DocumentStore
	cache   providers.CacheProvider
	metrics *observability.Metrics
}

// NewUserDirectory creates a directory. cache may be nil.
func NewUserDirectory(store providers.DocumentStore, cache providers.CacheProvider) *UserDirectory {
	return &UserDirectory{
		store: store,
		cache: cache,
	}
}

// WithMetrics records cache hits and misses on metrics
func (d *UserDirectory) WithMetrics(metrics *observability.Metrics) *UserDirectory {
	d.metrics = metrics
	return d
}

// List returns every user ordered by display name
func (d *UserDirectory) List(ctx context.Context) ([]*entities.SnackUser, error) {
	docs, err := d.store.List(ctx, entities.UsersCollection)
	if err != nil {
		return nil, err
	}

	users := make([]*entities.SnackUser, 0, len(docs))
	for _, doc := range docs {
		users = append(users, entities.SnackUserFromDocument(doc.ID, doc.Data))
	}
	sort.SliceStable(users, func(i, j int) bool {
		return strings.ToLower(users[i].DisplayName) < strings.ToLower(users[j].DisplayName)
	})
	return users, nil
}

// Get returns one user, reading through the cache when configured
func (d *UserDirectory) Get(ctx context.Context, id string) (*entities.SnackUser, error) {
	if id == "" {
		return nil, apperrors.NewValidationError("user id is required")
	}

	logger := observability.LoggerFromContext(ctx)
	key := userCacheKey(id)

	if d.cache != nil {
		if data, err := d.cache.Get(ctx, key); err == nil {
			var user entities.SnackUser
			if err := json.Unmarshal(data, &user); err == nil {
				observability.RecordCacheHit(ctx, d.metrics, "user")
				return &user, nil
			}
		}
		observability.RecordCacheMiss(ctx, d.metrics, "user")
	}

	snap, err := d.store.Get(ctx, entities.UsersCollection, id)
	if err != nil {
		return nil, err
	}
	user := entities.SnackUserFromDocument(snap.ID, snap.Data)

	if d.cache != nil {
		if data, err := json.Marshal(user); err == nil {
			if err := d.cache.Set(ctx, key, data, userCacheTTL); err != nil {
				logger.Warn().Err(err).Str("user_id", id).Msg("Failed to cache user")
			}
		}
	}
	return user, nil
}

func userCacheKey(id string) string {
	return "user:" + id
}
