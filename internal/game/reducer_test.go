package game

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/lingo-monopoly/internal/apperrors"
	"github.com/palemoky/lingo-monopoly/internal/board"
)

func TestNewSession(t *testing.T) {
	t.Parallel()
	env, _ := newTestEnv(t)

	s := newTestSession(t, env, 3)
	assert.Equal(t, StatusInProgress, s.Status)
	assert.Equal(t, PhaseAwaitingRoll, s.Phase)
	assert.Equal(t, 1, currentID(s))
	for i, p := range s.Players {
		assert.Equal(t, i+1, p.ID)
		assert.Equal(t, "S", p.CurrentNodeID)
		assert.Equal(t, testStartingCurrency, p.Currency)
	}
	assertInvariants(t, s)

	_, err := NewSession(context.Background(), env, "x", "test", []string{"solo"}, 0)
	assert.ErrorIs(t, err, apperrors.ErrInvalidPlayerCount)

	_, err = NewSession(context.Background(), env, "x", "test", []string{"a", "b", "c", "d", "e"}, 0)
	assert.ErrorIs(t, err, apperrors.ErrInvalidPlayerCount)

	_, err = NewSession(context.Background(), env, "x", "missing", []string{"a", "b"}, 0)
	assert.ErrorIs(t, err, apperrors.ErrInvalidBoardReference)
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	t.Parallel()
	env, _ := newTestEnv(t)
	s := newTestSession(t, env, 2)
	before := s.Clone()

	next, _ := apply(t, s, RollDice{PlayerID: 1, Value: 6}, env)
	assert.Equal(t, before, s)
	assert.Equal(t, "X", next.Players[0].CurrentNodeID)
}

func TestRollDice_NotYourTurn(t *testing.T) {
	t.Parallel()
	env, _ := newTestEnv(t)
	s := newTestSession(t, env, 2)

	next, out, err := Apply(context.Background(), s, RollDice{PlayerID: 2, Value: 3}, env)
	assert.ErrorIs(t, err, apperrors.ErrNotYourTurn)
	assert.Equal(t, s, next)
	assert.Empty(t, out.Records)
}

func TestRollDice_InvalidDice(t *testing.T) {
	t.Parallel()
	env, _ := newTestEnv(t)
	s := newTestSession(t, env, 2)

	_, _, err := Apply(context.Background(), s, RollDice{PlayerID: 1, Value: 0}, env)
	assert.ErrorIs(t, err, apperrors.ErrInvalidDice)

	_, _, err = Apply(context.Background(), s, RollDice{PlayerID: 9, Value: 1}, env)
	assert.ErrorIs(t, err, apperrors.ErrPlayerNotFound)
}

func TestRollDice_LargeValueIsAccepted(t *testing.T) {
	t.Parallel()
	env, _ := newTestEnv(t)
	s := newTestSession(t, env, 2)

	// 9 步：绕回起点再走一步到 P1
	next, out := apply(t, s, RollDice{PlayerID: 1, Value: 9}, env)
	assert.Equal(t, "P1", next.Players[0].CurrentNodeID)
	require.NotNil(t, out.Move)
	assert.True(t, out.Move.LapCompleted)
	assert.Equal(t, 1, next.Players[0].LapCount)
}

func TestRollDice_SpecialNodeAdvancesTurn(t *testing.T) {
	t.Parallel()
	env, _ := newTestEnv(t)
	s := newTestSession(t, env, 2)

	next, out := apply(t, s, RollDice{PlayerID: 1, Value: 6}, env)
	assert.Equal(t, 2, currentID(next))
	assert.Equal(t, PhaseAwaitingRoll, next.Phase)
	assert.Equal(t, 1, commandRecords(out))

	require.Len(t, out.Records, 2)
	assert.Equal(t, ActionDiceRoll, out.Records[0].ActionType)
	assert.Equal(t, ActionMove, out.Records[1].ActionType)
	assert.Equal(t, "X", out.Records[1].Details["to"])
	require.NotNil(t, out.Turn)
	assert.Equal(t, 1, out.Turn.From)
	assert.Equal(t, 2, out.Turn.To)
}

func TestRollDice_StartNodeCountsLap(t *testing.T) {
	t.Parallel()
	env, _ := newTestEnv(t)
	s := newTestSession(t, env, 2)

	next, out := apply(t, s, RollDice{PlayerID: 1, Value: 8}, env)
	assert.Equal(t, "S", next.Players[0].CurrentNodeID)
	assert.Equal(t, 1, next.Players[0].LapCount)
	assert.True(t, out.Move.LapCompleted)
	assert.Equal(t, 2, currentID(next))
}

func TestLapWin(t *testing.T) {
	t.Parallel()
	env, _ := newTestEnv(t)
	s := newTestSession(t, env, 2)
	s.Players[0].CurrentNodeID = "X"
	s.Players[0].LapCount = 2

	next, out := apply(t, s, RollDice{PlayerID: 1, Value: 3}, env)
	assert.Equal(t, 3, next.Players[0].LapCount)
	assert.Equal(t, StatusCompleted, next.Status)
	require.NotNil(t, next.Winner)
	assert.Equal(t, Winner{PlayerID: 1, Reason: ReasonLaps}, *next.Winner)
	assert.Equal(t, PhaseFinished, next.Phase)
	assert.False(t, next.EndedAt.IsZero())
	assert.Equal(t, out.Winner, next.Winner)

	last := out.Records[len(out.Records)-1]
	assert.Equal(t, ActionVictory, last.ActionType)

	_, _, err := Apply(context.Background(), next, RollDice{PlayerID: 2, Value: 1}, env)
	assert.ErrorIs(t, err, apperrors.ErrGameOver)
	_, _, err = Apply(context.Background(), next, DeclareBankruptcy{PlayerID: 2}, env)
	assert.ErrorIs(t, err, apperrors.ErrGameOver)
}

func TestLapCountNeverDecreases(t *testing.T) {
	t.Parallel()
	env, _ := newTestEnv(t)
	s := newTestSession(t, env, 2)

	laps := []int{0, 0}
	rolls := []int{8, 8, 2, 2, 3, 3, 5, 5}
	for i, v := range rolls {
		pid := currentID(s)
		var err error
		s, _, err = Apply(context.Background(), s, RollDice{PlayerID: pid, Value: v}, env)
		require.NoError(t, err, "roll %d", i)
		s = settle(t, s, env, pid)
		for j, p := range s.Players {
			assert.GreaterOrEqual(t, p.LapCount, laps[j])
			laps[j] = p.LapCount
		}
	}
}

func TestRoadConstructionPausesNextTurn(t *testing.T) {
	t.Parallel()
	env, _ := newTestEnv(t)
	s := newTestSession(t, env, 3)

	s, _ = apply(t, s, RollDice{PlayerID: 1, Value: 4}, env)
	assert.True(t, s.Players[0].Pause.Has(PauseRoadConstruction))
	assert.Equal(t, 2, currentID(s))

	s, _ = apply(t, s, RollDice{PlayerID: 2, Value: 6}, env)
	assert.Equal(t, 3, currentID(s))

	s, out := apply(t, s, RollDice{PlayerID: 3, Value: 6}, env)
	assert.Equal(t, 2, currentID(s))
	assert.True(t, s.Players[0].Pause.Empty())

	require.NotNil(t, out.Turn)
	require.Len(t, out.Turn.Skipped, 1)
	assert.Equal(t, 1, out.Turn.Skipped[0].PlayerID)
	assert.Equal(t, []PauseCause{PauseRoadConstruction}, out.Turn.Skipped[0].Causes)

	var skipped *ActionRecord
	for i := range out.Records {
		if out.Records[i].Details["skipped"] == true {
			skipped = &out.Records[i]
		}
	}
	require.NotNil(t, skipped)
	assert.Equal(t, ActionMove, skipped.ActionType)
	assert.Equal(t, 1, skipped.PlayerID)
}

func TestAbandon(t *testing.T) {
	t.Parallel()
	env, _ := newTestEnv(t)
	s := newTestSession(t, env, 2)
	s, _ = apply(t, s, RollDice{PlayerID: 1, Value: 2}, env)
	require.NotNil(t, s.Challenge)

	s, out := apply(t, s, Abandon{}, env)
	assert.Equal(t, StatusAbandoned, s.Status)
	assert.Nil(t, s.Winner)
	assert.Nil(t, s.Challenge)
	assert.Equal(t, 1, commandRecords(out))
	assert.Equal(t, ActionAbandon, out.Records[0].ActionType)
}

func TestUnknownEventIsIllegal(t *testing.T) {
	t.Parallel()
	env, _ := newTestEnv(t)
	s := newTestSession(t, env, 2)

	_, _, err := Apply(context.Background(), s, nil, env)
	assert.ErrorIs(t, err, apperrors.ErrIllegalStateTransition)
}

func TestInvalidBoardReferenceFallsBack(t *testing.T) {
	t.Parallel()
	env, _ := newTestEnv(t)
	s := newTestSession(t, env, 2)
	s.Players[0].CurrentNodeID = "P1"

	s, out := apply(t, s, ScanCard{PlayerID: 1, Card: Card{Effect: TeleportEffect{Destination: "nowhere"}}}, env)
	assert.Equal(t, "S", s.Players[0].CurrentNodeID)
	require.Len(t, out.Faults, 1)
	assert.ErrorIs(t, out.Faults[0], apperrors.ErrInvalidBoardReference)
}

func TestRollFromUnknownNodeFails(t *testing.T) {
	t.Parallel()
	env, _ := newTestEnv(t)
	s := newTestSession(t, env, 2)
	s.Players[0].CurrentNodeID = "ghost"

	_, _, err := Apply(context.Background(), s, RollDice{PlayerID: 1, Value: 1}, env)
	assert.ErrorIs(t, err, apperrors.ErrInvalidBoardReference)
}

func TestDispatch_GasStationOffersChoice(t *testing.T) {
	t.Parallel()
	env, _ := newTestEnv(t)
	s := newTestSession(t, env, 2)
	node, err := env.Board.GetNode(context.Background(), "test", "G")
	require.NoError(t, err)

	tr := &transition{ctx: context.Background(), env: env, s: &s, out: &Outcome{}}
	require.NoError(t, tr.dispatch(&s.Players[0], node))
	assert.Equal(t, PhaseAwaitingNodeChoice, s.Phase)
	assert.Equal(t, []NodeOption{OptionVocabulary, OptionScenario, OptionDecline}, s.NodeOptions)
}

func TestDispatch_SpecialWithPayload(t *testing.T) {
	t.Parallel()
	env, _ := newTestEnv(t)

	tests := []struct {
		name  string
		node  board.Node
		phase Phase
	}{
		{"challenge payload", board.Node{ID: "X", Type: board.NodeSpecial, Challenge: &board.ChallengePayload{Type: "story"}}, PhaseChallengePending},
		{"chance payload", board.Node{ID: "X", Type: board.NodeSpecial, Chance: &board.ChancePayload{Type: "positive"}}, PhaseAwaitingAcknowledge},
		{"shortcut payload", board.Node{ID: "X", Type: board.NodeSpecial, Shortcut: &board.ShortcutPayload{Target: "S"}}, PhaseAwaitingNodeChoice},
		{"no payload", board.Node{ID: "X", Type: board.NodeSpecial}, PhaseAwaitingRoll},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(t, env, 2)
			tr := &transition{ctx: context.Background(), env: env, s: &s, out: &Outcome{}}
			require.NoError(t, tr.dispatch(&s.Players[0], tt.node))
			assert.Equal(t, tt.phase, s.Phase)
		})
	}
}
