package sessionstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/fellowship/core"
	"github.com/trezcool/fellowship/core/session"
)

const redisKeyPrefix = "fellowship:session:"

// RedisBackend keeps sessions as expiring redis keys.
type RedisBackend struct {
	rdb *redis.Client
}

var _ Backend = (*RedisBackend)(nil)

func NewRedisBackend(rdb *redis.Client) *RedisBackend {
	return &RedisBackend{rdb: rdb}
}

func redisError(err error) error {
	if errors.Is(err, redis.ErrClosed) {
		return ErrBackendClosed
	}
	return err
}

func (b *RedisBackend) Get(ctx context.Context, id string) (session.State, bool, error) {
	data, err := b.rdb.Get(ctx, redisKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return session.State{}, false, nil
	} else if err != nil {
		return session.State{}, false, errors.Wrap(redisError(err), "getting session")
	}
	var st session.State
	if err = json.Unmarshal(data, &st); err != nil {
		return session.State{}, false, errors.Wrap(err, "decoding session")
	}
	return st, true, nil
}

func (b *RedisBackend) Put(ctx context.Context, id string, st session.State, expiresAt time.Time) error {
	ttl := expiresAt.Sub(core.NowFunc())
	if ttl <= 0 {
		return b.Delete(ctx, id)
	}
	data, err := json.Marshal(st)
	if err != nil {
		return errors.Wrap(err, "encoding session")
	}
	return errors.Wrap(redisError(b.rdb.Set(ctx, redisKeyPrefix+id, data, ttl).Err()), "setting session")
}

func (b *RedisBackend) Delete(ctx context.Context, id string) error {
	return errors.Wrap(redisError(b.rdb.Del(ctx, redisKeyPrefix+id).Err()), "deleting session")
}

// Purge is a no-op: redis expires keys itself.
func (b *RedisBackend) Purge(context.Context, time.Time) (int64, error) { return 0, nil }
