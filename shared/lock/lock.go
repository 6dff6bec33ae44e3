package lock

//go:generate go run go.uber.org/mock/mockgen -source=./lock.go -destination=./mocks/lock_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"tahaworld/infras/otel"
	"tahaworld/shared/constant"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	keyPrefix         = "lock:"
	otelLockAttribute = "lock.key"
)

var ErrNotHeld = errors.New("lock not held")

// releaseScript deletes the key only while it still carries the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker is a best effort mutual exclusion primitive with expiry.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (token string, acquired bool, err error)
	Release(ctx context.Context, key, token string) error
}

type redisLocker struct {
	client *redis.Client
	otel   otel.Otel
}

func NewRedisLocker(client *redis.Client, otl otel.Otel) Locker {
	return &redisLocker{
		client: client,
		otel:   otl,
	}
}

func (l *redisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (token string, acquired bool, err error) {
	ctx, scope := l.otel.NewScope(ctx, constant.OtelLockScopeName, constant.OtelLockScopeName+".Acquire")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	scope.SetAttribute(otelLockAttribute, key)

	token = uuid.NewString()

	acquired, err = l.client.SetNX(ctx, keyPrefix+key, token, ttl).Result()
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to acquire lock")

		return "", false, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}

	if !acquired {
		return "", false, nil
	}

	return token, true, nil
}

func (l *redisLocker) Release(ctx context.Context, key, token string) (err error) {
	ctx, scope := l.otel.NewScope(ctx, constant.OtelLockScopeName, constant.OtelLockScopeName+".Release")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	scope.SetAttribute(otelLockAttribute, key)

	deleted, err := releaseScript.Run(ctx, l.client, []string{keyPrefix + key}, token).Int()
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to release lock")

		return fmt.Errorf("failed to release lock %s: %w", key, err)
	}

	if deleted == 0 {
		return ErrNotHeld
	}

	return nil
}
