package game

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/lingo-monopoly/internal/apperrors"
)

func schedulerSession(n int) *Session {
	s := &Session{Status: StatusInProgress}
	for i := range n {
		s.Players = append(s.Players, Player{ID: i + 1, Status: PlayerActive})
	}
	s.Players[0].IsCurrentTurn = true
	return s
}

func TestAdvanceTurn_Simple(t *testing.T) {
	t.Parallel()
	s := schedulerSession(3)

	change := AdvanceTurn(s)
	assert.Equal(t, TurnChange{From: 1, To: 2}, change)
	assert.Equal(t, 1, s.CurrentIndex)
	assert.False(t, s.Players[0].IsCurrentTurn)
	assert.True(t, s.Players[1].IsCurrentTurn)

	AdvanceTurn(s)
	change = AdvanceTurn(s)
	assert.Equal(t, 1, change.To, "wraps around")
}

func TestAdvanceTurn_ClearsWholePauseSet(t *testing.T) {
	t.Parallel()
	s := schedulerSession(3)
	s.Players[1].Pause = PauseSet(0).With(PauseRoadConstruction).With(PausePenaltyCard)

	change := AdvanceTurn(s)
	assert.Equal(t, 3, change.To)
	require.Len(t, change.Skipped, 1)
	assert.Equal(t, []PauseCause{PausePenaltyCard, PauseRoadConstruction}, change.Skipped[0].Causes)
	assert.True(t, s.Players[1].Pause.Empty(), "one skip clears every cause")
}

func TestAdvanceTurn_AllOthersPausedReturnsToOriginal(t *testing.T) {
	t.Parallel()
	s := schedulerSession(4)
	for i := 1; i < 4; i++ {
		s.Players[i].Pause = s.Players[i].Pause.With(PausePenaltyCard)
	}

	change := AdvanceTurn(s)
	assert.Equal(t, 1, change.To)
	assert.Len(t, change.Skipped, 3)
	assert.True(t, s.Players[0].IsCurrentTurn)

	// 暂停只持续一次
	change = AdvanceTurn(s)
	assert.Equal(t, 2, change.To)
	assert.Empty(t, change.Skipped)
}

func TestAdvanceTurn_NeverSelectsBankrupt(t *testing.T) {
	t.Parallel()
	s := schedulerSession(4)
	s.Players[2].Status = PlayerBankrupt

	for range 12 {
		AdvanceTurn(s)
		assert.NotEqual(t, 3, s.Players[s.CurrentIndex].ID)
	}
}

func TestAdvanceTurn_BankruptOriginalSecondPass(t *testing.T) {
	t.Parallel()
	s := schedulerSession(3)
	s.Players[0].Status = PlayerBankrupt
	s.Players[1].Pause = s.Players[1].Pause.With(PauseRoadConstruction)
	s.Players[2].Pause = s.Players[2].Pause.With(PausePenaltyCard)

	change := AdvanceTurn(s)
	assert.Equal(t, 2, change.To)
	assert.Len(t, change.Skipped, 2)
	assert.True(t, s.Players[1].IsCurrentTurn)
	assert.False(t, s.Players[0].IsCurrentTurn)
}

func TestBankruptcy_GameContinuesAndSkipsPlayer(t *testing.T) {
	t.Parallel()
	env, _ := newTestEnv(t)
	s := newTestSession(t, env, 3)

	s, out := apply(t, s, DeclareBankruptcy{PlayerID: 1}, env)
	assert.Equal(t, StatusInProgress, s.Status)
	assert.Equal(t, PlayerBankrupt, s.Players[0].Status)
	assert.Equal(t, 2, currentID(s), "the turn passes on when its holder goes bankrupt")
	assert.Equal(t, ActionBankruptcy, out.Records[0].ActionType)
	assert.Equal(t, 1, commandRecords(out))

	for range 6 {
		pid := currentID(s)
		require.NotEqual(t, 1, pid)
		s, _ = apply(t, s, RollDice{PlayerID: pid, Value: 6}, env)
		s = settle(t, s, env, pid)
	}

	_, _, err := Apply(context.Background(), s, DeclareBankruptcy{PlayerID: 1}, env)
	assert.ErrorIs(t, err, apperrors.ErrPlayerBankrupt)
	_, _, err = Apply(context.Background(), s, DeclareBankruptcy{PlayerID: 7}, env)
	assert.ErrorIs(t, err, apperrors.ErrPlayerNotFound)
}

func TestBankruptcy_OutOfTurn(t *testing.T) {
	t.Parallel()
	env, _ := newTestEnv(t)
	s := newTestSession(t, env, 3)

	s, _ = apply(t, s, DeclareBankruptcy{PlayerID: 3}, env)
	assert.Equal(t, 1, currentID(s))
	assert.Equal(t, StatusInProgress, s.Status)
}

func TestBankruptcy_LastPlayerWins(t *testing.T) {
	t.Parallel()
	env, _ := newTestEnv(t)
	s := newTestSession(t, env, 2)
	s, _ = apply(t, s, RollDice{PlayerID: 1, Value: 2}, env)
	require.NotNil(t, s.Challenge)

	s, out := apply(t, s, DeclareBankruptcy{PlayerID: 2}, env)
	assert.Equal(t, StatusCompleted, s.Status)
	require.NotNil(t, s.Winner)
	assert.Equal(t, Winner{PlayerID: 1, Reason: ReasonBankruptcy}, *s.Winner)
	assert.Nil(t, s.Challenge, "in-flight challenge is abandoned")
	assert.Equal(t, ActionVictory, out.Records[len(out.Records)-1].ActionType)
}

func TestShortcutPrivilege_ConsumedByAlternate(t *testing.T) {
	t.Parallel()
	env, _ := newTestEnv(t)
	s := newTestSession(t, env, 2)
	s.Players[0].CurrentNodeID = "T"
	s.Players[0].Shortcut.UnlockedForNextMove = true

	s, out := apply(t, s, RollDice{PlayerID: 1, Value: 2}, env)
	require.NotNil(t, out.PathChoice)
	assert.Nil(t, out.Move)
	assert.Equal(t, PhaseAwaitingPathChoice, s.Phase)
	assert.Equal(t, "R", out.PathChoice.Primary.Destination)
	assert.Equal(t, "B2", out.PathChoice.Alternate.Destination)

	_, _, err := Apply(context.Background(), s, ChoosePath{PlayerID: 2, Alternate: true}, env)
	assert.ErrorIs(t, err, apperrors.ErrNotYourTurn)

	s, out = apply(t, s, ChoosePath{PlayerID: 1, Alternate: true}, env)
	assert.Equal(t, "B2", s.Players[0].CurrentNodeID)
	assert.False(t, s.Players[0].Shortcut.UnlockedForNextMove)
	assert.True(t, out.Move.Alternate)
	assert.Equal(t, 1, commandRecords(out))
	assert.Equal(t, ActionShortcut, out.Records[0].ActionType)
	assert.Nil(t, s.PendingMove)
}

func TestShortcutPrivilege_ConsumedByPrimary(t *testing.T) {
	t.Parallel()
	env, _ := newTestEnv(t)
	s := newTestSession(t, env, 2)
	s.Players[0].CurrentNodeID = "T"
	s.Players[0].Shortcut.UnlockedForNextMove = true

	s, _ = apply(t, s, RollDice{PlayerID: 1, Value: 2}, env)
	s, _ = apply(t, s, ChoosePath{PlayerID: 1, Alternate: false}, env)
	assert.Equal(t, "R", s.Players[0].CurrentNodeID)
	assert.False(t, s.Players[0].Shortcut.UnlockedForNextMove)
}

func TestShortcutPrivilege_ConsumedWithoutBranch(t *testing.T) {
	t.Parallel()
	env, _ := newTestEnv(t)
	s := newTestSession(t, env, 2)
	s.Players[0].Shortcut.UnlockedForNextMove = true

	s, out := apply(t, s, RollDice{PlayerID: 1, Value: 6}, env)
	assert.Nil(t, out.PathChoice)
	assert.False(t, s.Players[0].Shortcut.UnlockedForNextMove)

	_, _, err := Apply(context.Background(), s, ChoosePath{PlayerID: 2}, env)
	assert.ErrorIs(t, err, apperrors.ErrIllegalStateTransition)
}

func TestShortcutNode(t *testing.T) {
	t.Parallel()
	env, _ := newTestEnv(t)
	s := newTestSession(t, env, 2)

	s, out := apply(t, s, RollDice{PlayerID: 1, Value: 7}, env)
	require.NotNil(t, out.NodeChoice)
	assert.Equal(t, []NodeOption{OptionTakeShortcut, OptionDecline}, out.NodeChoice.Options)

	s, out = apply(t, s, ChooseNodeOption{PlayerID: 1, Option: OptionTakeShortcut}, env)
	assert.Equal(t, "S", s.Players[0].CurrentNodeID)
	assert.Equal(t, 1, s.Players[0].LapCount)
	assert.True(t, out.Move.LapCompleted)
	assert.Equal(t, 2, currentID(s))
	assert.Equal(t, 1, commandRecords(out))
}

func TestPauseSet(t *testing.T) {
	t.Parallel()
	var ps PauseSet
	assert.True(t, ps.Empty())
	assert.Equal(t, "none", ps.String())

	ps = ps.With(PauseRoadConstruction)
	assert.True(t, ps.Has(PauseRoadConstruction))
	assert.False(t, ps.Has(PausePenaltyCard))

	ps = ps.With(PausePenaltyCard).With(PausePenaltyCard)
	assert.Equal(t, "penalty_card+road_construction", ps.String())
}
