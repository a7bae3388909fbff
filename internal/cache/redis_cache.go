package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/cypherlabdev/odds-reconciler-service/internal/models"
)

// ErrCacheMiss is returned when a key is not cached
var ErrCacheMiss = errors.New("odds not found in cache")

// RedisCache caches the latest de-vigged price per game, platform and outcome
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// RedisCacheConfig holds Redis cache configuration
type RedisCacheConfig struct {
	Addr     string // e.g., "localhost:6379"
	Password string
	DB       int
	TTL      time.Duration // e.g., 15 * time.Minute
}

// NewRedisCache creates a new Redis cache
func NewRedisCache(config RedisCacheConfig, logger zerolog.Logger) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	return &RedisCache{
		client: client,
		ttl:    config.TTL,
		logger: logger.With().Str("component", "redis_cache").Logger(),
	}
}

// key is odds:{game_id}:{platform[-region]}:{market_kind}:{outcome_type}
func key(odds *models.LatestOdds) string {
	return fmt.Sprintf("odds:%s:%s", odds.GameID, odds.CacheKey())
}

// Set caches one latest price
func (c *RedisCache) Set(ctx context.Context, odds *models.LatestOdds) error {
	data, err := json.Marshal(odds)
	if err != nil {
		return fmt.Errorf("failed to marshal odds: %w", err)
	}

	k := key(odds)
	if err := c.client.Set(ctx, k, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set in Redis: %w", err)
	}

	c.logger.Debug().
		Str("key", k).
		Dur("ttl", c.ttl).
		Msg("cached latest odds")

	return nil
}

// Get returns the cached price of one slot
func (c *RedisCache) Get(ctx context.Context, gameID uuid.UUID, slot string) (*models.LatestOdds, error) {
	k := fmt.Sprintf("odds:%s:%s", gameID, slot)

	data, err := c.client.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	} else if err != nil {
		return nil, fmt.Errorf("failed to get from Redis: %w", err)
	}

	var odds models.LatestOdds
	if err := json.Unmarshal(data, &odds); err != nil {
		return nil, fmt.Errorf("failed to unmarshal odds: %w", err)
	}

	return &odds, nil
}

// SetBatch caches many prices in one pipeline
func (c *RedisCache) SetBatch(ctx context.Context, oddsList []*models.LatestOdds) error {
	if len(oddsList) == 0 {
		return nil
	}

	pipe := c.client.Pipeline()

	for _, odds := range oddsList {
		data, err := json.Marshal(odds)
		if err != nil {
			c.logger.Error().Err(err).Str("game_id", odds.GameID.String()).Msg("failed to marshal odds")
			continue
		}
		pipe.Set(ctx, key(odds), data, c.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to execute pipeline: %w", err)
	}

	c.logger.Debug().
		Int("count", len(oddsList)).
		Msg("cached batch of latest odds")

	return nil
}

// GetByGame returns every cached price of a game, ordered by slot
func (c *RedisCache) GetByGame(ctx context.Context, gameID uuid.UUID) ([]*models.LatestOdds, error) {
	pattern := fmt.Sprintf("odds:%s:*", gameID)

	var cursor uint64
	var keys []string

	for {
		var scanKeys []string
		var err error
		scanKeys, cursor, err = c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan keys: %w", err)
		}

		keys = append(keys, scanKeys...)

		if cursor == 0 {
			break
		}
	}

	if len(keys) == 0 {
		return nil, nil
	}
	sort.Strings(keys)

	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get keys: %w", err)
	}

	oddsList := make([]*models.LatestOdds, 0, len(values))
	for i, v := range values {
		// expired between SCAN and MGET
		s, ok := v.(string)
		if !ok {
			continue
		}

		var odds models.LatestOdds
		if err := json.Unmarshal([]byte(s), &odds); err != nil {
			c.logger.Warn().Err(err).Str("key", keys[i]).Msg("failed to unmarshal odds")
			continue
		}
		oddsList = append(oddsList, &odds)
	}

	return oddsList, nil
}

// Ping checks Redis connection
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}
