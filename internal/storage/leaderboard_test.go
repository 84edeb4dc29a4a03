package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/lingo-monopoly/internal/engine"
	"github.com/palemoky/lingo-monopoly/internal/game"
)

func newTestLeaderboardManager(t *testing.T) *LeaderboardManager {
	t.Helper()
	client, _ := newTestRedis(t)
	lm := NewLeaderboardManager(client)
	lm.now = func() time.Time { return testStartedAt }
	return lm
}

func TestLeaderboard_RecordGameResult_NewPlayer(t *testing.T) {
	t.Parallel()
	lm := newTestLeaderboardManager(t)
	ctx := context.Background()

	err := lm.RecordGameResult(ctx, GameResult{PlayerName: "小明", IsWinner: true, Laps: 3, Reason: game.ReasonLaps})
	require.NoError(t, err)

	stats, err := lm.GetPlayerStats(ctx, "小明")
	require.NoError(t, err)
	require.NotNil(t, stats)
	assert.Equal(t, 1, stats.TotalGames)
	assert.Equal(t, 1, stats.Wins)
	assert.Equal(t, 1, stats.LapWins)
	assert.Equal(t, 3, stats.TotalLaps)
	assert.Equal(t, WinByLaps+3*LapScore, stats.Score)
	assert.Equal(t, 1, stats.CurrentStreak)
	assert.Equal(t, testStartedAt.Unix(), stats.CreatedAt)
}

func TestLeaderboard_ScoreNeverNegative(t *testing.T) {
	t.Parallel()
	lm := newTestLeaderboardManager(t)
	ctx := context.Background()

	require.NoError(t, lm.RecordGameResult(ctx, GameResult{PlayerName: "小红", Bankrupt: true}))
	require.NoError(t, lm.RecordGameResult(ctx, GameResult{PlayerName: "小红", Laps: 1}))

	stats, err := lm.GetPlayerStats(ctx, "小红")
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Score)
	assert.Equal(t, 2, stats.Losses)
	assert.Equal(t, 1, stats.Bankruptcies)
	assert.Equal(t, -2, stats.CurrentStreak)
}

func TestLeaderboard_StreakBonus(t *testing.T) {
	t.Parallel()
	lm := newTestLeaderboardManager(t)
	ctx := context.Background()

	for range 3 {
		require.NoError(t, lm.RecordGameResult(ctx, GameResult{PlayerName: "p", IsWinner: true, Reason: game.ReasonBankruptcy}))
	}
	stats, err := lm.GetPlayerStats(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, 3*WinByBankruptcy+StreakBonus3, stats.Score)
	assert.Equal(t, 3, stats.MaxWinStreak)
}

func TestLeaderboard_RecordResultFromSummary(t *testing.T) {
	t.Parallel()
	lm := newTestLeaderboardManager(t)
	ctx := context.Background()

	summary := engine.FinalSummary{
		SessionID: "s1",
		Status:    game.StatusCompleted,
		Winner:    &game.Winner{PlayerID: 2, Reason: game.ReasonLaps},
		Players: []game.Player{
			{ID: 1, Name: "小明", LapCount: 1, Status: game.PlayerActive},
			{ID: 2, Name: "小红", LapCount: 3, Status: game.PlayerActive},
			{ID: 3, Name: "小刚", LapCount: 0, Status: game.PlayerBankrupt},
		},
	}
	require.NoError(t, lm.RecordResult(ctx, summary))

	entries, err := lm.GetLeaderboard(ctx, LeaderboardTotal, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "小红", entries[0].PlayerName)
	assert.Equal(t, WinByLaps+3*LapScore, entries[0].Score)
	assert.Equal(t, 0, entries[2].Score)
	assert.Equal(t, 1, entries[0].Rank)
	assert.InDelta(t, 100.0, entries[0].WinRate, 0.001)

	rank, err := lm.GetPlayerRank(ctx, "小红")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rank)
	rank, err = lm.GetPlayerRank(ctx, "nobody")
	require.NoError(t, err)
	assert.Equal(t, int64(-1), rank)

	daily, err := lm.GetLeaderboard(ctx, LeaderboardDaily, 1)
	require.NoError(t, err)
	require.Len(t, daily, 1)
	assert.Equal(t, "小红", daily[0].PlayerName)

	weekly, err := lm.GetLeaderboard(ctx, LeaderboardWeekly, 10)
	require.NoError(t, err)
	assert.NotEmpty(t, weekly)
}

func TestLeaderboard_AbandonedGameIgnored(t *testing.T) {
	t.Parallel()
	lm := newTestLeaderboardManager(t)
	ctx := context.Background()

	require.NoError(t, lm.RecordResult(ctx, engine.FinalSummary{
		Status:  game.StatusAbandoned,
		Players: []game.Player{{ID: 1, Name: "小明"}},
	}))
	stats, err := lm.GetPlayerStats(ctx, "小明")
	require.NoError(t, err)
	assert.Nil(t, stats)
}
