package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis stores each record as a JSON string that expires after ttl of inactivity.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedis(rdb *redis.Client, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, ttl: ttl}
}

func redisKey(namespace, key string) string {
	return fmt.Sprintf("storefront:state:%s:%s", namespace, key)
}

func (r *Redis) Load(ctx context.Context, namespace, key string) (Record, error) {
	raw, err := r.rdb.Get(ctx, redisKey(namespace, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Record{}, fmt.Errorf("corrupt record %s/%s: %w", namespace, key, err)
	}
	return rec, nil
}

func (r *Redis) Save(ctx context.Context, namespace, key string, rec Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, redisKey(namespace, key), raw, r.ttl).Err()
}

func (r *Redis) Delete(ctx context.Context, namespace, key string) error {
	return r.rdb.Del(ctx, redisKey(namespace, key)).Err()
}
