package session

import (
	"context"
	"errors"
	"time"

	"github.com/alextreichler/shop2host/internal/store"
	"github.com/redis/go-redis/v9"
)

// SQLBackend keeps records in the sessions table.
type SQLBackend struct {
	db *store.Store
}

func NewSQLBackend(db *store.Store) *SQLBackend {
	return &SQLBackend{db: db}
}

func (b *SQLBackend) Load(ctx context.Context, id string) (string, error) {
	data, err := b.db.GetSessionData(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrNotFound
	}
	return data, err
}

func (b *SQLBackend) Save(ctx context.Context, id, data string, expiresAt time.Time) error {
	return b.db.SaveSessionData(ctx, id, data, expiresAt)
}

func (b *SQLBackend) Delete(ctx context.Context, id string) error {
	return b.db.DeleteSession(ctx, id)
}

// RedisBackend keeps records as keys with a TTL, so no purge is needed.
type RedisBackend struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisBackend(client redis.UniversalClient) *RedisBackend {
	return &RedisBackend{client: client, prefix: "shop2host:session:"}
}

func (b *RedisBackend) Load(ctx context.Context, id string) (string, error) {
	data, err := b.client.Get(ctx, b.prefix+id).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return data, err
}

func (b *RedisBackend) Save(ctx context.Context, id, data string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return b.Delete(ctx, id)
	}
	return b.client.Set(ctx, b.prefix+id, data, ttl).Err()
}

func (b *RedisBackend) Delete(ctx context.Context, id string) error {
	return b.client.Del(ctx, b.prefix+id).Err()
}
