package watchlist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ErrLockTimeout is returned when a distributed lock could not be acquired in time
var ErrLockTimeout = errors.New("timed out acquiring watchlist lock")

// releaseScript deletes the key only if it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a lock shared by every replica using the same Redis.
// A held lock expires after ttl so a crashed holder cannot block a user forever.
type RedisLocker struct {
	client  redis.UniversalClient
	ttl     time.Duration
	retry   time.Duration
	maxWait time.Duration
	logger  zerolog.Logger
}

// NewRedisLocker creates a RedisLocker
func NewRedisLocker(client redis.UniversalClient, ttl, maxWait time.Duration, logger zerolog.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if maxWait <= 0 {
		maxWait = 5 * time.Second
	}
	return &RedisLocker{
		client:  client,
		ttl:     ttl,
		retry:   25 * time.Millisecond,
		maxWait: maxWait,
		logger:  logger,
	}
}

// Lock acquires key with SET NX PX, polling until maxWait or ctx expires
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	deadline := time.Now().Add(l.maxWait)

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: %s", ErrLockTimeout, key)
		}

		timer := time.NewTimer(l.retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return func() {
		// released with a fresh context so a cancelled request still unlocks
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		released, err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Int64()
		if err != nil {
			// the key stays held until its ttl runs out
			l.logger.Error().Err(err).Str("key", key).Dur("ttl", l.ttl).Msg("failed to release watchlist lock")
			return
		}
		if released == 0 {
			l.logger.Warn().Str("key", key).Dur("ttl", l.ttl).Msg("watchlist lock expired before release")
		}
	}, nil
}
