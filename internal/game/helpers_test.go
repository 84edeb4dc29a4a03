package game

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/lingo-monopoly/internal/board"
)

// 掷骰点数与落点（从起点出发）：1 P1, 2 T, 3 H, 4 R, 5 V, 6 X, 7 K, 8 S
const testBoardYAML = `
boards:
  - id: test
    name: 测试地图
    start_node: S
    nodes:
      - {id: S, name: 起点, type: start}
      - {id: P1, name: 咖啡店, type: property, property: {price: 200, rent: 20}}
      - id: T
        name: 火车站
        type: challenge
        challenge: {type: train, title: 买火车票, reward: 100, penalty: 10}
      - {id: H, name: 机会, type: chance}
      - {id: R, name: 修路, type: stop, stop: road_construction}
      - id: V
        name: 单词
        type: vocabulary
        challenge: {type: vocabulary, title: 问候, reward: 30, penalty: 5}
      - {id: X, name: 公园, type: special}
      - {id: K, name: 小路, type: shortcut, shortcut: {target: S}}
      - {id: B1, name: 铁路一, type: special}
      - {id: B2, name: 铁路二, type: special}
      - {id: G, name: 加油站, type: stop, stop: gas_station}
    edges:
      - {from: S, to: P1}
      - {from: P1, to: T}
      - {from: T, to: H}
      - {from: T, to: B1, type: branch}
      - {from: H, to: R}
      - {from: R, to: V}
      - {from: V, to: X}
      - {from: X, to: K}
      - {from: K, to: S}
      - {from: B1, to: B2}
      - {from: B2, to: X}
`

const testStartingCurrency = 1500

var errBackendDown = errors.New("backend down")

// stubContent 词汇题固定为 hello/你好，对话内容按轮次编号
type stubContent struct {
	calls int
	err   error
}

func (c *stubContent) NextPrompt(_ context.Context, kind ChallengeKind, cc ChallengeContext) (Prompt, error) {
	if c.err != nil {
		return Prompt{}, c.err
	}
	c.calls++
	if kind == KindVocabulary {
		return Prompt{ID: "w-hello", Text: "hello", Accepted: []string{"Hello", "你好"}}, nil
	}
	return Prompt{ID: fmt.Sprintf("%s-%d", kind, cc.Turn+1), Text: fmt.Sprintf("第 %d 句", cc.Turn+1)}, nil
}

func newTestEnv(t *testing.T) (Env, *stubContent) {
	t.Helper()
	g, err := board.Parse([]byte(testBoardYAML))
	require.NoError(t, err)
	content := &stubContent{}
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return Env{
		Board:   g,
		Content: content,
		Now:     func() time.Time { return clock },
	}, content
}

func newTestSession(t *testing.T, env Env, players int) Session {
	t.Helper()
	names := make([]string, players)
	for i := range names {
		names[i] = fmt.Sprintf("P%d", i+1)
	}
	s, err := NewSession(context.Background(), env, "sess-1", "test", names, testStartingCurrency)
	require.NoError(t, err)
	return s
}

func apply(t *testing.T, s Session, ev Event, env Env) (Session, Outcome) {
	t.Helper()
	next, out, err := Apply(context.Background(), s, ev, env)
	require.NoError(t, err)
	assertInvariants(t, next)
	return next, out
}

func currentID(s Session) int {
	if p := s.CurrentPlayer(); p != nil {
		return p.ID
	}
	return 0
}

// assertInvariants 进行中恰好一个当前玩家且未破产；结束后没有当前玩家
func assertInvariants(t *testing.T, s Session) {
	t.Helper()
	holders := 0
	for _, p := range s.Players {
		if p.IsCurrentTurn {
			holders++
			assert.Equal(t, PlayerActive, p.Status, "bankrupt player %d holds the turn", p.ID)
		}
	}
	if s.Status == StatusInProgress {
		assert.Equal(t, 1, holders)
	} else {
		assert.Equal(t, 0, holders)
	}
}

// commandRecords 统计带指令的记录条数
func commandRecords(out Outcome) int {
	n := 0
	for _, r := range out.Records {
		if _, ok := r.Details[DetailCommand]; ok {
			n++
		}
	}
	return n
}

// settle 把落点留下的待处理状态用最简单的方式结束：放弃、确认或认输
func settle(t *testing.T, s Session, env Env, pid int) Session {
	t.Helper()
	switch s.Phase {
	case PhaseAwaitingNodeChoice:
		s, _ = apply(t, s, ChooseNodeOption{PlayerID: pid, Option: OptionDecline}, env)
	case PhaseAwaitingAcknowledge:
		s, _ = apply(t, s, Acknowledge{PlayerID: pid}, env)
	case PhaseChallengePending:
		s, _ = apply(t, s, ForfeitChallenge{}, env)
	case PhaseAwaitingPathChoice:
		s, _ = apply(t, s, ChoosePath{PlayerID: pid}, env)
	}
	return s
}
