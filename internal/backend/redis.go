package backend

import (
	"context"
	"errors"
	"time"

	"github.com/gomodule/redigo/redis"

	"datastore/internal/key"
	"datastore/internal/store"
)

// NewRedisPool builds a connection pool for the given redis address,
// suitable for NewRedis.
func NewRedisPool(addr string) *redis.Pool {
	return &redis.Pool{
		MaxIdle:     3,
		IdleTimeout: 240 * time.Second,
		DialContext: func(ctx context.Context) (redis.Conn, error) {
			return redis.DialContext(ctx, "tcp", addr)
		},
	}
}

// NewRedis exposes a redis server as a datastore via the foreign-client
// adapter: GET, SET and DEL stand in for get, put and delete, and keys are
// projected through their canonical string form. Queries are unsupported,
// as with any foreign client.
func NewRedis(pool *redis.Pool) (*store.ForeignDatastore, error) {
	if pool == nil {
		return nil, errors.New("redis: connection pool is nil")
	}

	return store.NewForeign(store.ForeignClient{
		Get: func(ctx context.Context, k string) ([]byte, error) {
			conn, err := pool.GetContext(ctx)
			if err != nil {
				return nil, err
			}
			defer conn.Close()

			v, err := redis.Bytes(conn.Do("GET", k))
			if err == redis.ErrNil {
				return nil, store.ErrNotFound
			}
			return v, err
		},
		Put: func(ctx context.Context, k string, v []byte) error {
			conn, err := pool.GetContext(ctx)
			if err != nil {
				return err
			}
			defer conn.Close()

			_, err = conn.Do("SET", k, v)
			return err
		},
		Delete: func(ctx context.Context, k string) error {
			conn, err := pool.GetContext(ctx)
			if err != nil {
				return err
			}
			defer conn.Close()

			n, err := redis.Int(conn.Do("DEL", k))
			if err != nil {
				return err
			}
			if n == 0 {
				return store.ErrNotFound
			}
			return nil
		},
		Key: func(k key.Key) string { return k.String() },
	})
}
