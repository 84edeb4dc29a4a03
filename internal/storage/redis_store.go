package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/palemoky/lingo-monopoly/internal/apperrors"
	"github.com/palemoky/lingo-monopoly/internal/game"
)

const (
	snapshotKeyPrefix = "snapshot:"

	// 快照默认过期时间
	defaultSnapshotExpiration = 2 * time.Hour
)

// RedisStore 会话快照存储，宿主重启后可以从快照恢复进行中的对局
type RedisStore struct {
	client     *redis.Client
	expiration time.Duration
}

// NewRedisStore 创建快照存储；expiration <= 0 时使用默认值
func NewRedisStore(client *redis.Client, expiration time.Duration) *RedisStore {
	if expiration <= 0 {
		expiration = defaultSnapshotExpiration
	}
	return &RedisStore{client: client, expiration: expiration}
}

// SaveSession 实现 engine.SnapshotStore
func (rs *RedisStore) SaveSession(ctx context.Context, s game.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("序列化会话失败: %w", err)
	}
	return rs.client.Set(ctx, snapshotKeyPrefix+s.ID, data, rs.expiration).Err()
}

// LoadSession 实现 engine.SnapshotStore
func (rs *RedisStore) LoadSession(ctx context.Context, sessionID string) (game.Session, error) {
	data, err := rs.client.Get(ctx, snapshotKeyPrefix+sessionID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return game.Session{}, fmt.Errorf("%w: %s", apperrors.ErrSessionNotFound, sessionID)
		}
		return game.Session{}, err
	}

	var s game.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return game.Session{}, fmt.Errorf("反序列化会话失败: %w", err)
	}
	return s, nil
}

// DeleteSession 删除快照
func (rs *RedisStore) DeleteSession(ctx context.Context, sessionID string) error {
	return rs.client.Del(ctx, snapshotKeyPrefix+sessionID).Err()
}

// SessionIDs 返回所有存有快照的会话 ID
func (rs *RedisStore) SessionIDs(ctx context.Context) ([]string, error) {
	var ids []string
	iter := rs.client.Scan(ctx, 0, snapshotKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, iter.Val()[len(snapshotKeyPrefix):])
	}
	return ids, iter.Err()
}
