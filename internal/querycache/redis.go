package querycache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	keyPrefix     = "storefront:query:"
	generationKey = "storefront:query-generation"
)

// Redis is a Cache shared by every storefront replica.
type Redis struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// InitRedis connects and pings the server before handing back a client.
func InitRedis(addr, password string, logger *zap.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established", zap.String("addr", addr))
	return rdb, nil
}

func NewRedis(rdb *redis.Client, logger *zap.Logger) *Redis {
	return &Redis{rdb: rdb, logger: logger}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.rdb.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return b, err
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.rdb.Set(ctx, keyPrefix+key, value, ttl).Err()
}

func (r *Redis) Generation(ctx context.Context) (uint64, error) {
	gen, err := r.rdb.Get(ctx, generationKey).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// SetIfGeneration watches the generation key so an Invalidate from any replica
// between the check and the write aborts the write.
func (r *Redis) SetIfGeneration(ctx context.Context, key string, value []byte, ttl time.Duration, gen uint64) error {
	err := r.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, generationKey).Uint64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != gen {
			return ErrStale
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, keyPrefix+key, value, ttl)
			return nil
		})
		return err
	}, generationKey)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrStale
	}
	return err
}

// Invalidate bumps the generation before deleting, so loads that started
// earlier cannot write their results back.
func (r *Redis) Invalidate(ctx context.Context, prefixes ...string) error {
	if err := r.rdb.Incr(ctx, generationKey).Err(); err != nil {
		return fmt.Errorf("bump generation: %w", err)
	}
	for _, p := range prefixes {
		iter := r.rdb.Scan(ctx, 0, keyPrefix+p+"*", 100).Iterator()
		var keys []string
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("scan %s: %w", p, err)
		}
		if len(keys) == 0 {
			continue
		}
		if err := r.rdb.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("delete %s: %w", p, err)
		}
		r.logger.Debug("Query cache invalidated", zap.String("prefix", p), zap.Int("keys", len(keys)))
	}
	return nil
}
