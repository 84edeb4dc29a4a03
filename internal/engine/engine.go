// Package engine 是宿主使用的回合引擎：管理会话、串行化指令、写历史记录。
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/palemoky/lingo-monopoly/internal/apperrors"
	"github.com/palemoky/lingo-monopoly/internal/board"
	"github.com/palemoky/lingo-monopoly/internal/game"
	"github.com/palemoky/lingo-monopoly/internal/logger"
)

// DefaultStartingCurrency 默认初始货币
const DefaultStartingCurrency = 1500

// Result 一次指令的结果。JournalErr 非空表示状态已推进但历史写入落后。
type Result struct {
	Session    game.Session
	Outcome    game.Outcome
	JournalErr error
}

// Engine 会话引擎，可被多个 goroutine 同时调用；同一会话的指令严格串行
type Engine struct {
	board     board.Provider
	content   game.ContentProvider
	journal   Journal
	snapshots SnapshotStore
	results   ResultRecorder

	now              func() time.Time
	newID            func() string
	startingCurrency int

	mu       sync.RWMutex
	sessions map[string]*entry
}

// entry 单个会话；mu 在整条指令期间持有
type entry struct {
	mu        sync.Mutex
	session   game.Session
	meta      Meta
	created   bool // 历史中是否已创建
	pending   []game.ActionRecord
	finalized bool
}

// Option 引擎配置项
type Option func(*Engine)

// WithSnapshotStore 每条指令后保存会话快照
func WithSnapshotStore(s SnapshotStore) Option {
	return func(e *Engine) { e.snapshots = s }
}

// WithResultRecorder 对局结束后上报结果
func WithResultRecorder(r ResultRecorder) Option {
	return func(e *Engine) { e.results = r }
}

// WithClock 替换时钟
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator 替换会话 ID 生成器
func WithIDGenerator(gen func() string) Option {
	return func(e *Engine) { e.newID = gen }
}

// WithStartingCurrency 设置初始货币
func WithStartingCurrency(amount int) Option {
	return func(e *Engine) { e.startingCurrency = amount }
}

// New 创建引擎。journal 为 nil 时使用内存历史。
func New(b board.Provider, content game.ContentProvider, journal Journal, opts ...Option) *Engine {
	if journal == nil {
		journal = NewMemoryJournal()
	}
	e := &Engine{
		board:            b,
		content:          content,
		journal:          journal,
		now:              time.Now,
		newID:            uuid.NewString,
		startingCurrency: DefaultStartingCurrency,
		sessions:         make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) env() game.Env {
	return game.Env{Board: e.board, Content: e.content, Now: e.now}
}

// CreateSession 创建会话。历史记录在第一条记录产生时才创建。
func (e *Engine) CreateSession(ctx context.Context, boardID string, names []string) (game.Session, error) {
	return e.create(ctx, Meta{
		SessionID:        e.newID(),
		BoardID:          boardID,
		PlayerNames:      names,
		StartingCurrency: e.startingCurrency,
	})
}

func (e *Engine) create(ctx context.Context, meta Meta) (game.Session, error) {
	s, err := game.NewSession(ctx, e.env(), meta.SessionID, meta.BoardID, meta.PlayerNames, meta.StartingCurrency)
	if err != nil {
		return game.Session{}, err
	}
	if !meta.StartedAt.IsZero() {
		s.StartedAt = meta.StartedAt
	}
	meta.StartedAt = s.StartedAt
	meta.PlayerNames = make([]string, len(s.Players))
	for i, p := range s.Players {
		meta.PlayerNames[i] = p.Name
	}

	e.mu.Lock()
	if _, dup := e.sessions[meta.SessionID]; dup {
		e.mu.Unlock()
		return game.Session{}, fmt.Errorf("session %s already exists", meta.SessionID)
	}
	e.sessions[meta.SessionID] = &entry{session: s, meta: meta}
	e.mu.Unlock()

	logger.WithSession(s.ID).WithFields(logrus.Fields{
		"board":   s.BoardID,
		"players": len(s.Players),
	}).Info("会话已创建")
	e.saveSnapshot(ctx, s)
	return s.Clone(), nil
}

// Resume 从快照恢复会话。会话已在内存中时直接返回当前状态，不覆盖积压的记录。
func (e *Engine) Resume(ctx context.Context, sessionID string) (game.Session, error) {
	if ent, err := e.lookup(sessionID); err == nil {
		ent.mu.Lock()
		defer ent.mu.Unlock()
		return ent.session.Clone(), nil
	}
	if e.snapshots == nil {
		return game.Session{}, fmt.Errorf("%w: no snapshot store", apperrors.ErrSessionNotFound)
	}
	s, err := e.snapshots.LoadSession(ctx, sessionID)
	if err != nil {
		return game.Session{}, err
	}

	ent := &entry{
		session: s,
		meta: Meta{
			SessionID:        s.ID,
			BoardID:          s.BoardID,
			StartingCurrency: e.startingCurrency,
			StartedAt:        s.StartedAt,
		},
		finalized: s.Status != game.StatusInProgress,
	}
	for _, p := range s.Players {
		ent.meta.PlayerNames = append(ent.meta.PlayerNames, p.Name)
	}
	// 历程里已有这局时沿用其元数据；没有时等第一条记录再创建
	if hr, ok := e.journal.(HistoryReader); ok {
		if h, err := hr.Load(ctx, s.ID); err == nil {
			ent.meta = h.Meta
			ent.created = true
			ent.finalized = h.Final != nil
		}
	}

	e.mu.Lock()
	if live, dup := e.sessions[s.ID]; dup {
		e.mu.Unlock()
		live.mu.Lock()
		defer live.mu.Unlock()
		return live.session.Clone(), nil
	}
	e.sessions[s.ID] = ent
	e.mu.Unlock()
	logger.WithSession(s.ID).WithField("journaled", ent.created).Info("会话已从快照恢复")
	return s.Clone(), nil
}

// RollDice 掷骰
func (e *Engine) RollDice(ctx context.Context, sessionID string, playerID, value int) (Result, error) {
	return e.Apply(ctx, sessionID, game.RollDice{PlayerID: playerID, Value: value})
}

// ChoosePath 选择主路线或支线
func (e *Engine) ChoosePath(ctx context.Context, sessionID string, playerID int, alternate bool) (Result, error) {
	return e.Apply(ctx, sessionID, game.ChoosePath{PlayerID: playerID, Alternate: alternate})
}

// ChooseNodeOption 选择落点选项
func (e *Engine) ChooseNodeOption(ctx context.Context, sessionID string, playerID int, opt game.NodeOption) (Result, error) {
	return e.Apply(ctx, sessionID, game.ChooseNodeOption{PlayerID: playerID, Option: opt})
}

// SubmitChallengeAnswer 提交当前挑战的答案
func (e *Engine) SubmitChallengeAnswer(ctx context.Context, sessionID, answer string) (Result, error) {
	return e.Apply(ctx, sessionID, game.SubmitAnswer{Answer: answer})
}

// ForfeitChallenge 放弃当前挑战
func (e *Engine) ForfeitChallenge(ctx context.Context, sessionID string) (Result, error) {
	return e.Apply(ctx, sessionID, game.ForfeitChallenge{})
}

// ScanCard 扫描卡牌
func (e *Engine) ScanCard(ctx context.Context, sessionID string, playerID int, card game.Card) (Result, error) {
	return e.Apply(ctx, sessionID, game.ScanCard{PlayerID: playerID, Card: card})
}

// Acknowledge 确认机会格
func (e *Engine) Acknowledge(ctx context.Context, sessionID string, playerID int) (Result, error) {
	return e.Apply(ctx, sessionID, game.Acknowledge{PlayerID: playerID})
}

// DeclareBankruptcy 宣告破产
func (e *Engine) DeclareBankruptcy(ctx context.Context, sessionID string, playerID int) (Result, error) {
	return e.Apply(ctx, sessionID, game.DeclareBankruptcy{PlayerID: playerID})
}

// Abandon 放弃对局
func (e *Engine) Abandon(ctx context.Context, sessionID string) (Result, error) {
	return e.Apply(ctx, sessionID, game.Abandon{})
}

// Apply 执行一条指令：状态转换、写历史、结束时归档、保存快照
func (e *Engine) Apply(ctx context.Context, sessionID string, ev game.Event) (Result, error) {
	ent, err := e.lookup(sessionID)
	if err != nil {
		return Result{}, err
	}
	ent.mu.Lock()
	defer ent.mu.Unlock()

	log := logger.WithSession(sessionID).WithField("command", ev.Command())

	next, out, err := game.Apply(ctx, ent.session, ev, e.env())
	if err != nil {
		log.WithError(err).Debug("指令被拒绝")
		return Result{}, err
	}
	ent.session = next

	for _, f := range out.Faults {
		log.WithError(f).Warn("地图数据异常，已回退")
	}
	if out.Winner != nil {
		log.WithFields(logrus.Fields{
			"winner": out.Winner.PlayerID,
			"reason": out.Winner.Reason,
		}).Info("🏆 对局结束")
	}

	res := Result{Session: next.Clone(), Outcome: out}
	ent.pending = append(ent.pending, out.Records...)
	res.JournalErr = e.flush(ctx, ent)
	if res.JournalErr != nil {
		log.WithError(res.JournalErr).Warn("历史写入失败，稍后重试")
	}

	if !ent.finalized {
		e.saveSnapshot(ctx, next)
	}
	return res, nil
}

// Flush 重试尚未写入的历史记录以及归档
func (e *Engine) Flush(ctx context.Context, sessionID string) error {
	ent, err := e.lookup(sessionID)
	if err != nil {
		return err
	}
	ent.mu.Lock()
	defer ent.mu.Unlock()
	return e.flush(ctx, ent)
}

// flush 按顺序写入积压记录；失败的记录保留到下一次
func (e *Engine) flush(ctx context.Context, ent *entry) error {
	if len(ent.pending) > 0 && !ent.created {
		if err := e.journal.Create(ctx, ent.meta); err != nil {
			return fmt.Errorf("%w: create: %w", apperrors.ErrJournalWriteFailure, err)
		}
		ent.created = true
	}

	for len(ent.pending) > 0 {
		if err := e.journal.Append(ctx, ent.meta.SessionID, ent.pending[0]); err != nil {
			return fmt.Errorf("%w: append: %w", apperrors.ErrJournalWriteFailure, err)
		}
		ent.pending = ent.pending[1:]
	}

	if ent.session.Status == game.StatusInProgress || ent.finalized {
		return nil
	}
	summary := FinalSummary{
		SessionID: ent.session.ID,
		Status:    ent.session.Status,
		Winner:    ent.session.Winner,
		Players:   ent.session.Clone().Players,
		EndedAt:   ent.session.EndedAt,
	}
	if err := e.journal.Finalize(ctx, ent.meta.SessionID, summary); err != nil {
		return fmt.Errorf("%w: finalize: %w", apperrors.ErrJournalWriteFailure, err)
	}
	ent.finalized = true
	e.dropSnapshot(ctx, ent.meta.SessionID)

	if e.results != nil {
		if err := e.results.RecordResult(ctx, summary); err != nil {
			logger.WithSession(ent.meta.SessionID).WithError(err).Warn("对局结果上报失败")
		}
	}
	return nil
}

// dropSnapshot 归档后的对局不再需要恢复
func (e *Engine) dropSnapshot(ctx context.Context, sessionID string) {
	d, ok := e.snapshots.(SnapshotDeleter)
	if !ok {
		return
	}
	if err := d.DeleteSession(ctx, sessionID); err != nil {
		logger.WithSession(sessionID).WithError(err).Warn("删除会话快照失败")
	}
}

func (e *Engine) saveSnapshot(ctx context.Context, s game.Session) {
	if e.snapshots == nil {
		return
	}
	if err := e.snapshots.SaveSession(ctx, s); err != nil {
		logger.WithSession(s.ID).WithError(err).Warn("保存会话快照失败")
	}
}

// GetSessionState 返回会话状态的深拷贝
func (e *Engine) GetSessionState(sessionID string) (game.Session, error) {
	ent, err := e.lookup(sessionID)
	if err != nil {
		return game.Session{}, err
	}
	ent.mu.Lock()
	defer ent.mu.Unlock()
	return ent.session.Clone(), nil
}

// Sessions 返回所有会话 ID
func (e *Engine) Sessions() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ids := make([]string, 0, len(e.sessions))
	for id := range e.sessions {
		ids = append(ids, id)
	}
	return ids
}

func (e *Engine) lookup(sessionID string) (*entry, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ent, ok := e.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrSessionNotFound, sessionID)
	}
	return ent, nil
}

// IsJournalError 判断错误是否来自历史写入
func IsJournalError(err error) bool {
	return errors.Is(err, apperrors.ErrJournalWriteFailure)
}
