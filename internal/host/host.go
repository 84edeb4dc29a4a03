// Package host 把配置、地图、内容源、存储和引擎组装成一个可运行的宿主
package host

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/palemoky/lingo-monopoly/internal/board"
	"github.com/palemoky/lingo-monopoly/internal/config"
	"github.com/palemoky/lingo-monopoly/internal/content"
	"github.com/palemoky/lingo-monopoly/internal/engine"
	"github.com/palemoky/lingo-monopoly/internal/game"
	"github.com/palemoky/lingo-monopoly/internal/logger"
	"github.com/palemoky/lingo-monopoly/internal/storage"
)

const redisPingTimeout = 5 * time.Second

// Host 宿主进程持有的全部组件
type Host struct {
	cfg *config.Config

	redis       *redis.Client // Redis 不可用时为 nil
	journal     *storage.RedisJournal
	snapshots   *storage.RedisStore
	leaderboard *storage.LeaderboardManager
	memory      *engine.MemoryJournal // Redis 不可用时的兜底
	dialogue    *content.DialogueClient

	board  *board.Graph
	engine *engine.Engine
}

// New 按配置创建宿主。Redis 连不上时退回内存历程，不影响游戏。
func New(cfg *config.Config) (*Host, error) {
	g, err := board.LoadFile(cfg.Game.BoardFile)
	if err != nil {
		return nil, fmt.Errorf("加载地图失败: %w", err)
	}
	if _, err := g.StartNode(context.Background(), cfg.Game.BoardID); err != nil {
		return nil, fmt.Errorf("地图 %s 不可用: %w", cfg.Game.BoardID, err)
	}

	deck, err := content.LoadDeck(cfg.Game.ContentFile)
	if err != nil {
		return nil, fmt.Errorf("加载题库失败: %w", err)
	}
	if err := deck.UseTheme(cfg.Game.Theme); err != nil {
		logger.LogWarn("题库没有主题 %s 的词汇，使用全部词汇: %v", cfg.Game.Theme, err)
	}

	h := &Host{cfg: cfg, board: g}

	var dialogue game.ContentProvider
	if cfg.Dialogue.Endpoint != "" {
		h.dialogue = content.NewDialogueClient(cfg.Dialogue.Endpoint, cfg.Dialogue.TimeoutDuration(), cfg.Dialogue.Topic)
		dialogue = h.dialogue
	}
	provider := content.NewProvider(deck, dialogue)

	opts := []engine.Option{engine.WithStartingCurrency(cfg.Game.StartingCurrency)}
	var journal engine.Journal
	if rdb, err := connectRedis(cfg.Redis); err != nil {
		logger.LogWarn("Redis 不可用，游戏历程只保存在内存中: %v", err)
		h.memory = engine.NewMemoryJournal()
		journal = h.memory
	} else {
		h.redis = rdb
		h.journal = storage.NewRedisJournal(rdb, cfg.Redis.JournalTTLDuration())
		h.snapshots = storage.NewRedisStore(rdb, cfg.Redis.JournalTTLDuration())
		h.leaderboard = storage.NewLeaderboardManager(rdb)
		journal = h.journal
		opts = append(opts,
			engine.WithSnapshotStore(h.snapshots),
			engine.WithResultRecorder(h.leaderboard),
		)
	}

	h.engine = engine.New(g, provider, journal, opts...)
	return h, nil
}

func connectRedis(cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis 连接失败: %w", err)
	}
	return rdb, nil
}

// Engine 返回引擎
func (h *Host) Engine() *engine.Engine {
	return h.engine
}

// BoardID 配置中使用的地图
func (h *Host) BoardID() string {
	return h.cfg.Game.BoardID
}

// History 返回历程读取端
func (h *Host) History() engine.HistoryReader {
	if h.journal != nil {
		return h.journal
	}
	return h.memory
}

// RedisJournal Redis 历程，Redis 不可用时为 nil
func (h *Host) RedisJournal() *storage.RedisJournal {
	return h.journal
}

// Snapshots 会话快照，Redis 不可用时为 nil
func (h *Host) Snapshots() *storage.RedisStore {
	return h.snapshots
}

// DeleteSession 删除会话的历程和快照。进行中的会话不能删除。
func (h *Host) DeleteSession(ctx context.Context, sessionID string) error {
	if h.journal == nil {
		return errors.New("删除历程需要 Redis")
	}
	if s, err := h.engine.GetSessionState(sessionID); err == nil && s.Status == game.StatusInProgress {
		return fmt.Errorf("对局 %s 仍在进行中", sessionID)
	}
	return errors.Join(
		h.journal.Delete(ctx, sessionID),
		h.snapshots.DeleteSession(ctx, sessionID),
	)
}

// Leaderboard 排行榜，Redis 不可用时为 nil
func (h *Host) Leaderboard() *storage.LeaderboardManager {
	return h.leaderboard
}

// Close 释放连接
func (h *Host) Close() {
	if h.dialogue != nil {
		h.dialogue.Close()
	}
	if h.redis != nil {
		_ = h.redis.Close()
	}
}
