// Package cache keeps recently computed route metrics in Redis so repeated quotes
// between the same two points skip the routing backend.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/UnknownOlympus/haulage/internal/models"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "haulage:route:"

// NewRedisClient parses a redis:// URL (or a bare host:port) and verifies the connection.
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	opt, err := redis.ParseURL(addr)
	if err != nil {
		opt = &redis.Options{Addr: addr}
	}

	client := redis.NewClient(opt)
	if err = client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

// RouteCache stores one-way route metrics keyed by origin and destination.
type RouteCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewRouteCache creates a cache whose entries expire after ttl. A zero ttl keeps entries forever.
func NewRouteCache(client *redis.Client, ttl time.Duration) *RouteCache {
	return &RouteCache{redis: client, ttl: ttl}
}

// routeKey rounds both points to six decimals (about 11 cm), the precision the providers are queried with.
func routeKey(origin, destination models.Coordinates) string {
	return keyPrefix + origin.String() + ";" + destination.String()
}

// Get returns the cached metrics, or nil when the pair is not cached.
func (rc *RouteCache) Get(ctx context.Context, origin, destination models.Coordinates) (*models.RouteMetrics, error) {
	val, err := rc.redis.Get(ctx, routeKey(origin, destination)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil //nolint:nilnil // a miss is not an error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read route cache: %w", err)
	}

	var metrics models.RouteMetrics
	if err = json.Unmarshal(val, &metrics); err != nil {
		return nil, fmt.Errorf("failed to decode cached route: %w", err)
	}

	return &metrics, nil
}

// Put stores metrics for the pair, replacing any previous entry.
func (rc *RouteCache) Put(
	ctx context.Context,
	origin, destination models.Coordinates,
	metrics models.RouteMetrics,
) error {
	payload, err := json.Marshal(metrics)
	if err != nil {
		return fmt.Errorf("failed to encode route: %w", err)
	}

	if err = rc.redis.Set(ctx, routeKey(origin, destination), payload, rc.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write route cache: %w", err)
	}

	return nil
}
