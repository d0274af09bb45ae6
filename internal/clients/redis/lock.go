package redis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	types "github.com/yungbote/neurobridge-assessment/internal/domain/assessment"
	"github.com/yungbote/neurobridge-assessment/internal/platform/logger"
)

const (
	DefaultLockTTL  = 5 * time.Second
	defaultLockPoll = 20 * time.Millisecond
	lockKeyPrefix   = "assessment:session-lock:"
)

// Deletes the key only while it still holds our token, so an expired lock never releases a newer holder.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SessionLocker is a Redis-backed session lock shared by every replica.
type SessionLocker struct {
	rdb  goredis.UniversalClient
	log  *logger.Logger
	ttl  time.Duration
	poll time.Duration
}

func NewSessionLocker(rdb goredis.UniversalClient, log *logger.Logger, ttl time.Duration) *SessionLocker {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &SessionLocker{
		rdb:  rdb,
		log:  log.With("service", "RedisSessionLocker"),
		ttl:  ttl,
		poll: defaultLockPoll,
	}
}

func (l *SessionLocker) Lock(ctx context.Context, key string) (func(), error) {
	const op = "redis.SessionLocker.Lock"
	k := lockKeyPrefix + key
	token := uuid.NewString()
	for {
		ok, err := l.rdb.SetNX(ctx, k, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, types.PersistenceUnavailable(op, ctx.Err())
			}
			return nil, types.PersistenceUnavailable(op, err)
		}
		if ok {
			return l.unlocker(k, token), nil
		}
		t := time.NewTimer(l.poll)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, types.PersistenceUnavailable(op, ctx.Err())
		case <-t.C:
		}
	}
}

func (l *SessionLocker) unlocker(key, token string) func() {
	released := false
	return func() {
		if released {
			return
		}
		released = true
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.rdb, []string{key}, token).Err(); err != nil && !errors.Is(err, goredis.Nil) {
			l.log.Warn("session lock release failed", "key", key, "error", err)
		}
	}
}
