package accounts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	snapshotVersionKey = "accounts:snapshot:version"
	bumpChannel        = "accounts.bump"
)

// SnapshotCache keeps fetched source records in Redis for a short TTL. Only
// the records are cached; ledgers are rebuilt from them on every request.
// A nil *SnapshotCache is valid and always calls the loader.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSnapshotCache instantiates the cache helper.
func NewSnapshotCache(client *redis.Client, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{client: client, ttl: ttl}
}

// Version returns the current snapshot version, initialising when missing.
func (c *SnapshotCache) Version(ctx context.Context) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, snapshotVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.client.Set(ctx, snapshotVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

func (c *SnapshotCache) key(ctx context.Context, kind AccountType, id int64) (string, error) {
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	return strings.Join([]string{"accounts", "snapshot", string(kind), strconv.FormatInt(id, 10), strconv.FormatInt(ver, 10)}, ":"), nil
}

// Bump invalidates every cached snapshot by moving to a new version.
func (c *SnapshotCache) Bump(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	ver, err := c.client.Incr(ctx, snapshotVersionKey).Result()
	if err != nil {
		return err
	}
	return c.client.Publish(ctx, bumpChannel, strconv.FormatInt(ver, 10)).Err()
}

// fetchSnapshot returns the cached snapshot or fills the cache with load.
func fetchSnapshot[T any](ctx context.Context, c *SnapshotCache, kind AccountType, id int64, load func(context.Context) (T, error)) (T, error) {
	if c == nil || c.client == nil {
		return load(ctx)
	}
	var zero T
	key, err := c.key(ctx, kind, id)
	if err != nil {
		return zero, fmt.Errorf("accounts: snapshot key: %w", err)
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var cached T
		if err := json.Unmarshal(payload, &cached); err == nil {
			return cached, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		return zero, fmt.Errorf("accounts: snapshot get: %w", err)
	}

	value, err := load(ctx)
	if err != nil {
		return zero, err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return zero, err
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return zero, fmt.Errorf("accounts: snapshot set: %w", err)
	}
	return value, nil
}
