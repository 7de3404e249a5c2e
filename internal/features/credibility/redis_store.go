// Package credibility - redis_store.go хранит снимки в Redis:
// ключ credibility:child:<id> со значением JSON и множество credibility:children.
package credibility

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Ключи Redis.
const (
	redisKeyPrefix   = "credibility:child:"
	redisChildrenKey = "credibility:children"
)

// RedisStore - хранилище снимков в Redis. Ключи без TTL: снимок живёт, пока его не перезапишут.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore создаёт хранилище поверх готового клиента.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// NewRedisClient создаёт клиента и проверяет соединение.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis недоступен: %w", err)
	}
	return client, nil
}

func snapshotKey(childID int64) string {
	return redisKeyPrefix + strconv.FormatInt(childID, 10)
}

// Load читает снимок ребёнка.
func (r *RedisStore) Load(ctx context.Context, childID int64) (Snapshot, error) {
	data, err := r.client.Get(ctx, snapshotKey(childID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Snapshot{}, ErrSnapshotNotFound
		}
		return Snapshot{}, fmt.Errorf("ошибка чтения снимка из redis (child_id=%d): %w", childID, err)
	}
	return DecodeSnapshot(data)
}

// Save записывает снимок и добавляет ребёнка в индекс одной транзакцией MULTI/EXEC.
func (r *RedisStore) Save(ctx context.Context, childID int64, snap Snapshot) error {
	data, err := EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, snapshotKey(childID), data, 0)
		pipe.SAdd(ctx, redisChildrenKey, childID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("ошибка записи снимка в redis (child_id=%d): %w", childID, err)
	}
	return nil
}

// ChildIDs возвращает идентификаторы из индекса.
func (r *RedisStore) ChildIDs(ctx context.Context) ([]int64, error) {
	members, err := r.client.SMembers(ctx, redisChildrenKey).Result()
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка детей из redis: %w", err)
	}
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("некорректный id в %s: %q: %w", redisChildrenKey, m, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
