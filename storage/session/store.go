package sessionstore

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/fellowship/core"
	"github.com/trezcool/fellowship/core/session"
	"github.com/trezcool/fellowship/storage/database"
)

// Store kinds
const (
	KindCookie   = "cookie"
	KindPostgres = "postgres"
	KindRedis    = "redis"
	KindMemory   = "memory"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open returns the store selected by conf.Session.Store and the closer of its connection.
// Postgres stores are migrated on open.
func Open(ctx context.Context, conf *core.Config) (session.Store, io.Closer, error) {
	switch conf.Session.Store {
	case "", KindCookie:
		st, err := NewCookieStore(conf)
		return st, nopCloser{}, err
	case KindMemory:
		backend := NewInmemBackend()
		st, err := NewServerStore(conf, backend)
		return st, backend, err
	case KindPostgres:
		db, err := database.Open(ctx, conf)
		if err != nil {
			return nil, nil, err
		}
		if err = database.Migrate(db, "up"); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		st, err := NewServerStore(conf, NewPostgresBackend(db))
		return st, db, err
	case KindRedis:
		rdb := redis.NewClient(&redis.Options{Addr: conf.Redis.Address, Password: conf.Redis.Password, DB: conf.Redis.DB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, errors.Wrap(err, "pinging redis")
		}
		st, err := NewServerStore(conf, NewRedisBackend(rdb))
		return st, rdb, err
	default:
		return nil, nil, errors.Errorf("unknown session store %q", conf.Session.Store)
	}
}
