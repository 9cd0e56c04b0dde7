// Package redissnap keeps the store snapshot in a redis hash, one field per storage key.
package redissnap

import (
	"context"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/trezcool/internship/core"
)

type Backend struct {
	rdb *redis.Client
	key string
}

// NewClient connects to the configured redis server.
func NewClient(conf core.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     conf.Addr,
		Password: conf.Password,
		DB:       conf.DB,
	})
}

func New(rdb *redis.Client, prefix string) *Backend {
	return &Backend{rdb: rdb, key: prefix + "snapshot"}
}

func (b *Backend) Load(ctx context.Context) (map[string][]byte, error) {
	fields, err := b.rdb.HGetAll(ctx, b.key).Result()
	if err != nil {
		return nil, errors.Wrap(err, "reading snapshot hash")
	}
	entries := make(map[string][]byte, len(fields))
	for key, val := range fields {
		entries[key] = []byte(val)
	}
	return entries, nil
}

// Save sets every entry in one MULTI/EXEC transaction.
func (b *Backend) Save(ctx context.Context, entries map[string][]byte) error {
	if len(entries) == 0 {
		return nil
	}
	values := make(map[string]interface{}, len(entries))
	for key, data := range entries {
		values[key] = data
	}
	_, err := b.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, b.key, values)
		return nil
	})
	return errors.Wrap(err, "writing snapshot hash")
}

func (b *Backend) Ping(ctx context.Context) error {
	return b.rdb.Ping(ctx).Err()
}
