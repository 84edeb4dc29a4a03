package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/palemoky/lingo-monopoly/internal/apperrors"
	"github.com/palemoky/lingo-monopoly/internal/engine"
	"github.com/palemoky/lingo-monopoly/internal/game"
)

const (
	// Redis key 前缀
	journalKeyPrefix = "journal:"
	journalIndexKey  = "journal:index"
	playerIndexKey   = "journal:player:" // 每个玩家已完成对局的索引，按结束时间排序

	metaSuffix    = ":meta"
	recordsSuffix = ":records"
	finalSuffix   = ":final"
)

// RedisJournal 基于 Redis 的游戏历程。
// 元数据存 hash，记录按顺序追加到 list，结束总结单独存一个 key。
type RedisJournal struct {
	client *redis.Client
	ttl    time.Duration // <= 0 表示不过期
}

// NewRedisJournal 创建 Redis 历程
func NewRedisJournal(client *redis.Client, ttl time.Duration) *RedisJournal {
	return &RedisJournal{client: client, ttl: ttl}
}

func journalKey(sessionID, suffix string) string {
	return journalKeyPrefix + sessionID + suffix
}

func (rj *RedisJournal) expire(ctx context.Context, pipe redis.Pipeliner, keys ...string) {
	if rj.ttl <= 0 {
		return
	}
	for _, k := range keys {
		pipe.Expire(ctx, k, rj.ttl)
	}
}

// Create 实现 engine.Journal。已存在的历程保留原有元数据，重复创建是无害的。
func (rj *RedisJournal) Create(ctx context.Context, meta engine.Meta) error {
	key := journalKey(meta.SessionID, metaSuffix)
	n, err := rj.client.Exists(ctx, key).Result()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	names, err := json.Marshal(meta.PlayerNames)
	if err != nil {
		return fmt.Errorf("序列化玩家列表失败: %w", err)
	}
	startedAt, err := encodeTime(meta.StartedAt)
	if err != nil {
		return fmt.Errorf("序列化开始时间失败: %w", err)
	}

	pipe := rj.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]any{
		"session_id":        meta.SessionID,
		"board_id":          meta.BoardID,
		"player_names":      names,
		"starting_currency": meta.StartingCurrency,
		"started_at":        startedAt,
	})
	rj.expire(ctx, pipe, key)
	pipe.ZAdd(ctx, journalIndexKey, redis.Z{
		Score:  float64(meta.StartedAt.Unix()),
		Member: meta.SessionID,
	})
	_, err = pipe.Exec(ctx)
	return err
}

func (rj *RedisJournal) ensureExists(ctx context.Context, sessionID string) error {
	n, err := rj.client.Exists(ctx, journalKey(sessionID, metaSuffix)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", apperrors.ErrSessionNotFound, sessionID)
	}
	return nil
}

// Append 实现 engine.Journal
func (rj *RedisJournal) Append(ctx context.Context, sessionID string, rec game.ActionRecord) error {
	if err := rj.ensureExists(ctx, sessionID); err != nil {
		return err
	}
	data, err := encodeRecord(rec)
	if err != nil {
		return err
	}

	key := journalKey(sessionID, recordsSuffix)
	pipe := rj.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	rj.expire(ctx, pipe, key)
	_, err = pipe.Exec(ctx)
	return err
}

// Finalize 实现 engine.Journal
func (rj *RedisJournal) Finalize(ctx context.Context, sessionID string, summary engine.FinalSummary) error {
	if err := rj.ensureExists(ctx, sessionID); err != nil {
		return err
	}
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("序列化对局总结失败: %w", err)
	}
	ttl := rj.ttl
	if ttl < 0 {
		ttl = 0
	}

	pipe := rj.client.TxPipeline()
	pipe.Set(ctx, journalKey(sessionID, finalSuffix), data, ttl)
	if summary.Status == game.StatusCompleted {
		for _, p := range summary.Players {
			pipe.ZAdd(ctx, playerIndexKey+p.Name, redis.Z{
				Score:  float64(summary.EndedAt.Unix()),
				Member: sessionID,
			})
		}
	}
	_, err = pipe.Exec(ctx)
	return err
}

// Load 实现 engine.HistoryReader
func (rj *RedisJournal) Load(ctx context.Context, sessionID string) (engine.History, error) {
	fields, err := rj.client.HGetAll(ctx, journalKey(sessionID, metaSuffix)).Result()
	if err != nil {
		return engine.History{}, err
	}
	if len(fields) == 0 {
		return engine.History{}, fmt.Errorf("%w: %s", apperrors.ErrSessionNotFound, sessionID)
	}

	meta, err := parseMeta(fields)
	if err != nil {
		return engine.History{}, err
	}
	h := engine.History{Meta: meta}

	raw, err := rj.client.LRange(ctx, journalKey(sessionID, recordsSuffix), 0, -1).Result()
	if err != nil {
		return engine.History{}, err
	}
	h.Records = make([]game.ActionRecord, 0, len(raw))
	for i, r := range raw {
		rec, err := decodeRecord([]byte(r))
		if err != nil {
			return engine.History{}, fmt.Errorf("record %d: %w", i, err)
		}
		h.Records = append(h.Records, rec)
	}

	data, err := rj.client.Get(ctx, journalKey(sessionID, finalSuffix)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
	case err != nil:
		return engine.History{}, err
	default:
		var final engine.FinalSummary
		if err := json.Unmarshal(data, &final); err != nil {
			return engine.History{}, fmt.Errorf("反序列化对局总结失败: %w", err)
		}
		h.Final = &final
	}
	return h, nil
}

func parseMeta(fields map[string]string) (engine.Meta, error) {
	meta := engine.Meta{
		SessionID: fields["session_id"],
		BoardID:   fields["board_id"],
	}
	if err := json.Unmarshal([]byte(fields["player_names"]), &meta.PlayerNames); err != nil {
		return engine.Meta{}, fmt.Errorf("反序列化玩家列表失败: %w", err)
	}
	currency, err := strconv.Atoi(fields["starting_currency"])
	if err != nil {
		return engine.Meta{}, fmt.Errorf("invalid starting_currency: %w", err)
	}
	meta.StartingCurrency = currency
	if meta.StartedAt, err = decodeTime([]byte(fields["started_at"])); err != nil {
		return engine.Meta{}, fmt.Errorf("invalid started_at: %w", err)
	}
	return meta, nil
}

// RecentSessions 按开始时间倒序返回最近的会话 ID
func (rj *RedisJournal) RecentSessions(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}
	return rj.client.ZRevRange(ctx, journalIndexKey, 0, int64(limit-1)).Result()
}

// PlayerSessions 按结束时间倒序返回该玩家最近完成的对局
func (rj *RedisJournal) PlayerSessions(ctx context.Context, playerName string, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}
	return rj.client.ZRevRange(ctx, playerIndexKey+playerName, 0, int64(limit-1)).Result()
}

// Delete 删除会话的全部历程
func (rj *RedisJournal) Delete(ctx context.Context, sessionID string) error {
	var names []string
	raw, err := rj.client.HGet(ctx, journalKey(sessionID, metaSuffix), "player_names").Result()
	switch {
	case errors.Is(err, redis.Nil):
	case err != nil:
		return err
	default:
		if err := json.Unmarshal([]byte(raw), &names); err != nil {
			return fmt.Errorf("反序列化玩家列表失败: %w", err)
		}
	}

	pipe := rj.client.TxPipeline()
	for _, name := range names {
		pipe.ZRem(ctx, playerIndexKey+name, sessionID)
	}
	pipe.Del(ctx,
		journalKey(sessionID, metaSuffix),
		journalKey(sessionID, recordsSuffix),
		journalKey(sessionID, finalSuffix),
	)
	pipe.ZRem(ctx, journalIndexKey, sessionID)
	_, err = pipe.Exec(ctx)
	return err
}
