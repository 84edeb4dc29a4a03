package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/palemoky/lingo-monopoly/internal/engine"
	"github.com/palemoky/lingo-monopoly/internal/game"
)

const (
	// Redis key
	playerStatsKey    = "player:stats:"
	leaderboardKey    = "leaderboard:score"
	dailyLeaderboard  = "leaderboard:daily:"
	weeklyLeaderboard = "leaderboard:weekly:"
)

// PlayerStats 玩家统计数据，以玩家名区分（本地对局没有账号体系）
type PlayerStats struct {
	PlayerName string `json:"player_name"`

	// 总计
	TotalGames   int `json:"total_games"`  // 总场次
	Wins         int `json:"wins"`         // 胜场
	Losses       int `json:"losses"`       // 败场
	LapWins      int `json:"lap_wins"`     // 跑满圈数获胜
	Bankruptcies int `json:"bankruptcies"` // 破产次数
	TotalLaps    int `json:"total_laps"`   // 累计圈数

	// 积分
	Score int `json:"score"`

	// 连胜/连败
	CurrentStreak int `json:"current_streak"` // 正数为连胜，负数为连败
	MaxWinStreak  int `json:"max_win_streak"`

	LastPlayedAt int64 `json:"last_played_at"`
	CreatedAt    int64 `json:"created_at"`
}

// 积分规则
const (
	WinByLaps       = 30  // 跑满圈数获胜
	WinByBankruptcy = 20  // 对手全部破产获胜
	LoseScore       = -10 // 失败
	BankruptScore   = -15 // 破产
	LapScore        = 2   // 每圈

	StreakBonus3  = 5  // 3 连胜加成
	StreakBonus5  = 10 // 5 连胜加成
	StreakBonus10 = 20 // 10 连胜加成
)

// LeaderboardKind 排行榜类型
type LeaderboardKind string

const (
	LeaderboardTotal  LeaderboardKind = "total"
	LeaderboardDaily  LeaderboardKind = "daily"
	LeaderboardWeekly LeaderboardKind = "weekly"
)

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	Rank       int     `json:"rank"`
	PlayerName string  `json:"player_name"`
	Score      int     `json:"score"`
	Wins       int     `json:"wins"`
	WinRate    float64 `json:"win_rate"`
}

// GameResult 单个玩家在一局中的结果
type GameResult struct {
	PlayerName string
	IsWinner   bool
	Bankrupt   bool
	Laps       int
	Reason     string // 获胜原因，仅胜者有
}

// LeaderboardManager 排行榜管理器，实现 engine.ResultRecorder
type LeaderboardManager struct {
	redis *redis.Client
	now   func() time.Time
}

// NewLeaderboardManager 创建排行榜管理器
func NewLeaderboardManager(client *redis.Client) *LeaderboardManager {
	return &LeaderboardManager{redis: client, now: time.Now}
}

// RecordResult 实现 engine.ResultRecorder。放弃的对局不计入统计
func (lm *LeaderboardManager) RecordResult(ctx context.Context, summary engine.FinalSummary) error {
	if summary.Status != game.StatusCompleted {
		return nil
	}
	var errs []error
	for _, p := range summary.Players {
		r := GameResult{
			PlayerName: p.Name,
			Bankrupt:   p.Status == game.PlayerBankrupt,
			Laps:       p.LapCount,
		}
		if summary.Winner != nil && summary.Winner.PlayerID == p.ID {
			r.IsWinner = true
			r.Reason = summary.Winner.Reason
		}
		if err := lm.RecordGameResult(ctx, r); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.Name, err))
		}
	}
	return errors.Join(errs...)
}

// GetPlayerStats 获取玩家统计，不存在时返回 nil
func (lm *LeaderboardManager) GetPlayerStats(ctx context.Context, playerName string) (*PlayerStats, error) {
	data, err := lm.redis.Get(ctx, playerStatsKey+playerName).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var stats PlayerStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// SavePlayerStats 保存玩家统计
func (lm *LeaderboardManager) SavePlayerStats(ctx context.Context, stats *PlayerStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return lm.redis.Set(ctx, playerStatsKey+stats.PlayerName, data, 0).Err()
}

func (lm *LeaderboardManager) getOrCreateStats(ctx context.Context, playerName string) (*PlayerStats, error) {
	stats, err := lm.GetPlayerStats(ctx, playerName)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		stats = &PlayerStats{PlayerName: playerName, CreatedAt: lm.now().Unix()}
	}
	return stats, nil
}

// resultScore 更新胜负统计并返回基础积分变化
func resultScore(stats *PlayerStats, r GameResult) int {
	score := r.Laps * LapScore
	switch {
	case r.IsWinner && r.Reason == game.ReasonLaps:
		stats.LapWins++
		score += WinByLaps
	case r.IsWinner:
		score += WinByBankruptcy
	case r.Bankrupt:
		stats.Bankruptcies++
		score += BankruptScore
	default:
		score += LoseScore
	}
	return score
}

// updateWinLossStats 更新胜负统计和连胜/连败
func updateWinLossStats(stats *PlayerStats, isWinner bool) {
	if isWinner {
		stats.Wins++
		stats.CurrentStreak = max(1, stats.CurrentStreak+1)
	} else {
		stats.Losses++
		stats.CurrentStreak = min(-1, stats.CurrentStreak-1)
	}

	if stats.CurrentStreak > stats.MaxWinStreak {
		stats.MaxWinStreak = stats.CurrentStreak
	}
}

// calculateStreakBonus 计算连胜加成
func calculateStreakBonus(streak int) int {
	switch {
	case streak >= 10:
		return StreakBonus10
	case streak >= 5:
		return StreakBonus5
	case streak >= 3:
		return StreakBonus3
	default:
		return 0
	}
}

// RecordGameResult 记录单个玩家的结果并更新排行榜
func (lm *LeaderboardManager) RecordGameResult(ctx context.Context, r GameResult) error {
	stats, err := lm.getOrCreateStats(ctx, r.PlayerName)
	if err != nil {
		return err
	}

	stats.TotalGames++
	stats.TotalLaps += r.Laps
	stats.LastPlayedAt = lm.now().Unix()

	scoreChange := resultScore(stats, r)
	updateWinLossStats(stats, r.IsWinner)
	scoreChange += calculateStreakBonus(stats.CurrentStreak)
	stats.Score = max(0, stats.Score+scoreChange)

	if err := lm.SavePlayerStats(ctx, stats); err != nil {
		return err
	}
	return lm.UpdateLeaderboard(ctx, stats)
}

func (lm *LeaderboardManager) boardKey(kind LeaderboardKind) string {
	now := lm.now()
	switch kind {
	case LeaderboardDaily:
		return dailyLeaderboard + now.Format("2006-01-02")
	case LeaderboardWeekly:
		year, week := now.ISOWeek()
		return fmt.Sprintf("%s%d-W%02d", weeklyLeaderboard, year, week)
	default:
		return leaderboardKey
	}
}

// UpdateLeaderboard 更新总榜、日榜、周榜
func (lm *LeaderboardManager) UpdateLeaderboard(ctx context.Context, stats *PlayerStats) error {
	z := redis.Z{Score: float64(stats.Score), Member: stats.PlayerName}
	dailyKey := lm.boardKey(LeaderboardDaily)
	weeklyKey := lm.boardKey(LeaderboardWeekly)

	pipe := lm.redis.TxPipeline()
	pipe.ZAdd(ctx, leaderboardKey, z)
	pipe.ZAdd(ctx, dailyKey, z)
	pipe.Expire(ctx, dailyKey, 48*time.Hour)
	pipe.ZAdd(ctx, weeklyKey, z)
	pipe.Expire(ctx, weeklyKey, 8*24*time.Hour)
	_, err := pipe.Exec(ctx)
	return err
}

// GetLeaderboard 获取排行榜（从高到低）
func (lm *LeaderboardManager) GetLeaderboard(ctx context.Context, kind LeaderboardKind, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		return nil, nil
	}
	results, err := lm.redis.ZRevRangeWithScores(ctx, lm.boardKey(kind), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(results))
	for _, result := range results {
		name, ok := result.Member.(string)
		if !ok {
			continue
		}
		stats, err := lm.GetPlayerStats(ctx, name)
		if err != nil || stats == nil {
			continue
		}

		winRate := 0.0
		if stats.TotalGames > 0 {
			winRate = float64(stats.Wins) / float64(stats.TotalGames) * 100
		}
		entries = append(entries, LeaderboardEntry{
			Rank:       len(entries) + 1,
			PlayerName: name,
			Score:      int(result.Score),
			Wins:       stats.Wins,
			WinRate:    winRate,
		})
	}
	return entries, nil
}

// GetPlayerRank 获取玩家总榜排名，未上榜返回 -1
func (lm *LeaderboardManager) GetPlayerRank(ctx context.Context, playerName string) (int64, error) {
	rank, err := lm.redis.ZRevRank(ctx, leaderboardKey, playerName).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return -1, nil
		}
		return -1, err
	}
	return rank + 1, nil // Redis 排名从 0 开始
}
