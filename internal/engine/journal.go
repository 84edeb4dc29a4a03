package engine

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/palemoky/lingo-monopoly/internal/apperrors"
	"github.com/palemoky/lingo-monopoly/internal/game"
)

// Meta 会话创建时的元数据，回放需要它重建初始状态
type Meta struct {
	SessionID        string    `json:"session_id"`
	BoardID          string    `json:"board_id"`
	PlayerNames      []string  `json:"player_names"`
	StartingCurrency int       `json:"starting_currency"`
	StartedAt        time.Time `json:"started_at"`
}

// FinalSummary 对局结束时写入历史的总结
type FinalSummary struct {
	SessionID string             `json:"session_id"`
	Status    game.SessionStatus `json:"status"`
	Winner    *game.Winner       `json:"winner,omitempty"`
	Players   []game.Player      `json:"players"`
	EndedAt   time.Time          `json:"ended_at"`
}

// History 一局的完整历史
type History struct {
	Meta    Meta
	Records []game.ActionRecord
	Final   *FinalSummary
}

// Journal 历史记录的写入端。Create 在第一次需要写记录时调用。
type Journal interface {
	Create(ctx context.Context, meta Meta) error
	Append(ctx context.Context, sessionID string, rec game.ActionRecord) error
	Finalize(ctx context.Context, sessionID string, summary FinalSummary) error
}

// HistoryReader 按会话读取历史
type HistoryReader interface {
	Load(ctx context.Context, sessionID string) (History, error)
}

// SnapshotStore 会话快照存储（可选）
type SnapshotStore interface {
	SaveSession(ctx context.Context, s game.Session) error
	LoadSession(ctx context.Context, sessionID string) (game.Session, error)
}

// SnapshotDeleter 快照存储可选实现；对局归档后快照即被删除
type SnapshotDeleter interface {
	DeleteSession(ctx context.Context, sessionID string) error
}

// ResultRecorder 对局结束后接收结果（例如排行榜）
type ResultRecorder interface {
	RecordResult(ctx context.Context, summary FinalSummary) error
}

// MemoryJournal 进程内的历史记录，用于回放、测试以及 Redis 不可用时的兜底
type MemoryJournal struct {
	mu       sync.RWMutex
	sessions map[string]*History
}

// NewMemoryJournal 创建内存历史
func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{sessions: make(map[string]*History)}
}

// Create 实现 Journal，重复创建是无害的
func (j *MemoryJournal) Create(_ context.Context, meta Meta) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, ok := j.sessions[meta.SessionID]; !ok {
		meta.PlayerNames = slices.Clone(meta.PlayerNames)
		j.sessions[meta.SessionID] = &History{Meta: meta}
	}
	return nil
}

// Append 实现 Journal
func (j *MemoryJournal) Append(_ context.Context, sessionID string, rec game.ActionRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	h, ok := j.sessions[sessionID]
	if !ok {
		return fmt.Errorf("%w: %s", apperrors.ErrSessionNotFound, sessionID)
	}
	h.Records = append(h.Records, rec)
	return nil
}

// Finalize 实现 Journal
func (j *MemoryJournal) Finalize(_ context.Context, sessionID string, summary FinalSummary) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	h, ok := j.sessions[sessionID]
	if !ok {
		return fmt.Errorf("%w: %s", apperrors.ErrSessionNotFound, sessionID)
	}
	h.Final = &summary
	return nil
}

// Load 实现 HistoryReader
func (j *MemoryJournal) Load(_ context.Context, sessionID string) (History, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	h, ok := j.sessions[sessionID]
	if !ok {
		return History{}, fmt.Errorf("%w: %s", apperrors.ErrSessionNotFound, sessionID)
	}
	out := History{Meta: h.Meta, Records: slices.Clone(h.Records)}
	if h.Final != nil {
		f := *h.Final
		out.Final = &f
	}
	return out, nil
}
