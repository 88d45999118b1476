package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"push-service/internal/logging"
	"push-service/internal/models"
)

const (
	keyPrefix = "push:pref:"
	// absent marks a user with no stored preferences.
	absent = "null"
)

// PreferenceStore is the authoritative source behind the cache.
type PreferenceStore interface {
	GetPreference(ctx context.Context, userID string) (*models.PreferenceRecord, error)
}

// client is the subset of *redis.Client the cache uses.
type client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// PreferenceCache is a read-through Redis cache in front of a PreferenceStore.
// Redis failures fall through to the store.
type PreferenceCache struct {
	store  PreferenceStore
	rdb    client
	ttl    time.Duration
	logger *logging.Logger
}

func NewPreferenceCache(store PreferenceStore, rdb client, ttl time.Duration, logger *logging.Logger) *PreferenceCache {
	return &PreferenceCache{store: store, rdb: rdb, ttl: ttl, logger: logger}
}

// NewClient connects to Redis and pings it.
func NewClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

func key(userID string) string {
	return keyPrefix + userID
}

func (c *PreferenceCache) GetPreference(ctx context.Context, userID string) (*models.PreferenceRecord, error) {
	val, err := c.rdb.Get(ctx, key(userID)).Result()
	switch {
	case err == nil:
		if val == absent {
			return nil, nil
		}
		var pref models.PreferenceRecord
		if err := json.Unmarshal([]byte(val), &pref); err == nil {
			return &pref, nil
		}
		c.logger.Warnf("Discarding corrupt cached preferences for user %s", userID)
	case !errors.Is(err, redis.Nil):
		c.logger.Warnf("Preference cache read failed for user %s: %v", userID, err)
	}

	pref, err := c.store.GetPreference(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.set(ctx, userID, pref)
	return pref, nil
}

func (c *PreferenceCache) set(ctx context.Context, userID string, pref *models.PreferenceRecord) {
	data := []byte(absent)
	if pref != nil {
		var err error
		if data, err = json.Marshal(pref); err != nil {
			return
		}
	}
	if err := c.rdb.Set(ctx, key(userID), data, c.ttl).Err(); err != nil {
		c.logger.Warnf("Preference cache write failed for user %s: %v", userID, err)
	}
}
