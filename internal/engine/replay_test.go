package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/lingo-monopoly/internal/engine"
	"github.com/palemoky/lingo-monopoly/internal/game"
)

// playToEnd 用固定的策略把对局打完，覆盖掷骰、选路、挑战、卡牌和破产
func playToEnd(t *testing.T, e *engine.Engine, id string) game.Session {
	t.Helper()
	ctx := context.Background()
	rolls := []int{3, 5, 2, 6, 1, 4, 2, 7}

	for step := 0; step < 1000; step++ {
		s, err := e.GetSessionState(id)
		require.NoError(t, err)
		if s.Status != game.StatusInProgress {
			return s
		}
		cur := s.CurrentPlayer()
		require.NotNil(t, cur)
		pid := cur.ID

		if step == 25 && len(s.Players) > 2 && s.Players[2].Active() {
			_, err = e.DeclareBankruptcy(ctx, id, s.Players[2].ID)
			require.NoError(t, err)
			continue
		}

		switch s.Phase {
		case game.PhaseAwaitingRoll:
			switch {
			case step%11 == 5:
				_, err = e.ScanCard(ctx, id, pid, game.Card{ID: "tax", Effect: game.MoneyEffect{Amount: -20}})
			case step%13 == 7:
				_, err = e.ScanCard(ctx, id, pid, game.Card{ID: "back", Effect: game.MoveEffect{Steps: -1}})
			default:
				_, err = e.RollDice(ctx, id, pid, rolls[step%len(rolls)])
			}
		case game.PhaseAwaitingPathChoice:
			_, err = e.ChoosePath(ctx, id, pid, true)
		case game.PhaseAwaitingNodeChoice:
			_, err = e.ChooseNodeOption(ctx, id, pid, s.NodeOptions[step%len(s.NodeOptions)])
		case game.PhaseChallengePending:
			answer := "hello there"
			if s.Challenge.Kind == game.KindVocabulary {
				answer = "pear"
				if step%2 == 0 {
					answer = "Apple"
				}
			}
			_, err = e.SubmitChallengeAnswer(ctx, id, answer)
		case game.PhaseAwaitingAcknowledge:
			if step%3 == 0 {
				target := s.Players[0].ID
				if target == pid {
					target = s.Players[1].ID
				}
				_, err = e.ScanCard(ctx, id, pid, game.Card{ID: "swap", Effect: game.SwapEffect{TargetPlayerID: target}})
				if err == nil {
					continue
				}
			}
			_, err = e.Acknowledge(ctx, id, pid)
		default:
			t.Fatalf("unexpected phase %s", s.Phase)
		}
		require.NoError(t, err, "step %d phase %s", step, s.Phase)
	}
	t.Fatal("game did not finish")
	return game.Session{}
}

func TestReplay_ReproducesFinalState(t *testing.T) {
	t.Parallel()
	for _, players := range []int{2, 3} {
		journal := engine.NewMemoryJournal()
		e := newTestEngine(t, journal)
		ctx := context.Background()

		names := []string{"小明", "小红", "小刚"}[:players]
		s, err := e.CreateSession(ctx, "city", names)
		require.NoError(t, err)

		final := playToEnd(t, e, s.ID)
		require.Equal(t, game.StatusCompleted, final.Status)
		require.NotNil(t, final.Winner)

		h, err := journal.Load(ctx, s.ID)
		require.NoError(t, err)
		require.NotNil(t, h.Final)
		assert.Equal(t, names, h.Meta.PlayerNames)

		replayed, err := e.Replay(ctx, h)
		require.NoError(t, err)
		assert.Equal(t, final.Status, replayed.Status)
		assert.Equal(t, final.Winner, replayed.Winner)
		assert.Equal(t, final.Turn, replayed.Turn)
		assert.Equal(t, final.Players, replayed.Players)
	}
}

func TestReplay_Errors(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, nil)
	ctx := context.Background()

	_, err := e.Replay(ctx, engine.History{})
	assert.Error(t, err)

	h := engine.History{
		Meta: engine.Meta{SessionID: "s1", BoardID: "city", PlayerNames: []string{"a", "b"}, StartingCurrency: 100},
		Records: []game.ActionRecord{
			{ActionType: game.ActionDiceRoll, Details: map[string]any{
				game.DetailCommand: map[string]any{"name": "roll", "player_id": float64(2), "value": float64(3)},
			}},
		},
	}
	_, err = e.Replay(ctx, h)
	assert.Error(t, err, "player 2 cannot roll first")

	h.Records = nil
	replayed, err := e.Replay(ctx, h)
	require.NoError(t, err)
	assert.Equal(t, 100, replayed.Players[0].Currency)
	assert.True(t, replayed.Players[0].IsCurrentTurn)
}
