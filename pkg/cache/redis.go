package cache

import (
	"clipnest-pipeline/dto"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/redis/go-redis/v9"
	"strings"
	"time"
)

const noMatch = "none"

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient creates a new Redis client
func NewRedisClient(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		DB:           db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{client: client, ttl: ttl}, nil
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}

// GetCoordinates looks up a geocode result. found is false on a cache miss;
// a cached negative result returns found=true with nil coordinates.
func (r *RedisCache) GetCoordinates(ctx context.Context, query string) (coords *dto.Coordinates, found bool, err error) {
	val, err := r.client.Get(ctx, geocodeKey(query)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get geocode from Redis: %w", err)
	}

	coords, err = decodeCoordinates(val)
	if err != nil {
		return nil, false, err
	}
	return coords, true, nil
}

// SetCoordinates stores a geocode result; nil stores a negative entry.
func (r *RedisCache) SetCoordinates(ctx context.Context, query string, coords *dto.Coordinates) error {
	val, err := encodeCoordinates(coords)
	if err != nil {
		return err
	}

	if err := r.client.Set(ctx, geocodeKey(query), val, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set geocode in Redis: %w", err)
	}
	return nil
}

func geocodeKey(query string) string {
	return fmt.Sprintf("geocode:%s", strings.ToLower(strings.Join(strings.Fields(query), " ")))
}

func encodeCoordinates(coords *dto.Coordinates) (string, error) {
	if coords == nil {
		return noMatch, nil
	}
	b, err := json.Marshal(coords)
	if err != nil {
		return "", fmt.Errorf("failed to encode coordinates: %w", err)
	}
	return string(b), nil
}

func decodeCoordinates(val string) (*dto.Coordinates, error) {
	if val == noMatch {
		return nil, nil
	}
	var coords dto.Coordinates
	if err := json.Unmarshal([]byte(val), &coords); err != nil {
		return nil, fmt.Errorf("failed to decode cached coordinates: %w", err)
	}
	return &coords, nil
}
