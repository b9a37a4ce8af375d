package tokenstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/pribylovaa/go-taskboard/internal/models"
)

// Redis хранит половины пары под ключами <prefix>access_token и <prefix>refresh_token.
// Обе записываются и удаляются одной транзакцией (MULTI/EXEC).
type Redis struct {
	rdb    *redis.Client
	prefix string
}

// NewRedis создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
// Если prefix пустой - используется "taskboard:session:".
func NewRedis(ctx context.Context, redisURL, prefix string) (*Redis, error) {
	const op = "tokenstore.NewRedis"

	if prefix == "" {
		prefix = "taskboard:session:"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%s: ping: %w", op, err)
	}

	return &Redis{rdb: rdb, prefix: prefix}, nil
}

func (r *Redis) key(name string) string { return r.prefix + name }

func (r *Redis) Get(ctx context.Context) (models.TokenPair, error) {
	const op = "tokenstore.Redis.Get"

	vals, err := r.rdb.MGet(ctx, r.key(models.AccessTokenKey), r.key(models.RefreshTokenKey)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.TokenPair{}, ErrNotFound
		}

		return models.TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	values := make(map[string]string, 2)
	for i, name := range []string{models.AccessTokenKey, models.RefreshTokenKey} {
		if s, ok := vals[i].(string); ok {
			values[name] = s
		}
	}

	return pairFrom(values)
}

func (r *Redis) Set(ctx context.Context, pair models.TokenPair) error {
	const op = "tokenstore.Redis.Set"

	if !pair.Complete() {
		return fmt.Errorf("%s: %w", op, ErrIncompletePair)
	}

	pipe := r.rdb.TxPipeline()
	for k, v := range valuesOf(pair) {
		pipe.Set(ctx, r.key(k), v, 0)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *Redis) Clear(ctx context.Context) error {
	const op = "tokenstore.Redis.Clear"

	if err := r.rdb.Del(ctx, r.key(models.AccessTokenKey), r.key(models.RefreshTokenKey)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Close закрывает клиент Redis.
func (r *Redis) Close() error { return r.rdb.Close() }
