package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ErrLockTimeout is returned when a key stays held past the acquire timeout
var ErrLockTimeout = errors.New("timed out acquiring lock")

// releaseScript deletes the key only while it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLocker is a key lock shared by every replica using the same Redis
type RedisLocker struct {
	client         *redis.Client
	prefix         string
	ttl            time.Duration
	retryInterval  time.Duration
	acquireTimeout time.Duration
	logger         zerolog.Logger
}

// RedisLockerConfig holds Redis locker configuration
type RedisLockerConfig struct {
	Addr           string
	Password       string
	DB             int
	Prefix         string        // e.g., "lock:"
	TTL            time.Duration // lock lease, e.g., 10 * time.Second
	RetryInterval  time.Duration // e.g., 25 * time.Millisecond
	AcquireTimeout time.Duration // e.g., 5 * time.Second
}

// NewRedisLocker creates a new Redis locker
func NewRedisLocker(config RedisLockerConfig, logger zerolog.Logger) *RedisLocker {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	retry := config.RetryInterval
	if retry <= 0 {
		retry = 25 * time.Millisecond
	}

	return &RedisLocker{
		client:         client,
		prefix:         config.Prefix,
		ttl:            config.TTL,
		retryInterval:  retry,
		acquireTimeout: config.AcquireTimeout,
		logger:         logger.With().Str("component", "redis_locker").Logger(),
	}
}

// Lock acquires key with SET NX PX, retrying until the acquire timeout
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := l.prefix + key
	token := uuid.NewString()

	deadline := time.Now().Add(l.acquireTimeout)
	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", redisKey, err)
		}
		if ok {
			return l.unlockFunc(redisKey, token), nil
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: %s", ErrLockTimeout, redisKey)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retryInterval):
		}
	}
}

func (l *RedisLocker) unlockFunc(redisKey, token string) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := releaseScript.Run(ctx, l.client, []string{redisKey}, token).Err(); err != nil {
			l.logger.Warn().
				Err(err).
				Str("key", redisKey).
				Msg("failed to release lock, it will expire with its lease")
		}
	}
}

// Ping checks Redis connection
func (l *RedisLocker) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (l *RedisLocker) Close() error {
	return l.client.Close()
}
