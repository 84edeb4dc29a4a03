package game

import (
	"context"
	"fmt"
	"time"

	"github.com/palemoky/lingo-monopoly/internal/apperrors"
	"github.com/palemoky/lingo-monopoly/internal/board"
)

// Env 转换过程中可用的外部依赖
type Env struct {
	Board   board.Provider
	Content ContentProvider
	Now     func() time.Time
}

func (e Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Outcome 一次转换的产出
type Outcome struct {
	Records    []ActionRecord
	Move       *MoveOutcome
	PathChoice *PathChoiceRequired
	NodeChoice *NodeChoice
	Challenge  *ChallengeReport
	Card       *CardEffectResult
	Turn       *TurnChange
	Winner     *Winner
	// Faults 不影响本次转换的数据问题（例如地图引用失效后的回退），供调用方记录
	Faults []error
}

type transition struct {
	ctx context.Context
	env Env
	ev  Event
	s   *Session
	out *Outcome
}

// Apply 对 s 应用事件 ev，返回新状态和产出。
// 出错时返回原状态且不产生任何记录。
func Apply(ctx context.Context, s Session, ev Event, env Env) (Session, Outcome, error) {
	if s.Status != StatusInProgress {
		return s, Outcome{}, apperrors.ErrGameOver
	}
	if env.Board == nil {
		return s, Outcome{}, fmt.Errorf("%w: no board provider", apperrors.ErrInvalidBoardReference)
	}

	next := s.Clone()
	t := &transition{ctx: ctx, env: env, ev: ev, s: &next, out: &Outcome{}}

	var err error
	switch e := ev.(type) {
	case RollDice:
		err = t.rollDice(e)
	case ChoosePath:
		err = t.choosePath(e)
	case ChooseNodeOption:
		err = t.chooseNodeOption(e)
	case SubmitAnswer:
		err = t.submitAnswer(e)
	case ForfeitChallenge:
		err = t.forfeitChallenge()
	case ScanCard:
		err = t.scanCard(e)
	case Acknowledge:
		err = t.acknowledge(e)
	case DeclareBankruptcy:
		err = t.declareBankruptcy(e)
	case Abandon:
		t.abandon()
	default:
		err = fmt.Errorf("%w: unknown event %T", apperrors.ErrIllegalStateTransition, ev)
	}
	if err != nil {
		return s, Outcome{}, err
	}
	return next, *t.out, nil
}

func (t *transition) declareBankruptcy(e DeclareBankruptcy) error {
	p := t.findPlayer(e.PlayerID)
	if p == nil {
		return fmt.Errorf("%w: %d", apperrors.ErrPlayerNotFound, e.PlayerID)
	}
	if !p.Active() {
		return apperrors.ErrPlayerBankrupt
	}

	p.Status = PlayerBankrupt
	p.Pause = 0
	p.Shortcut = ShortcutPrivilege{}
	t.record(p, ActionBankruptcy, fmt.Sprintf("%s 宣告破产", p.Name), t.commandDetails(map[string]any{
		"currency":  p.Currency,
		"node":      p.CurrentNodeID,
		"lap_count": p.LapCount,
	}))

	if t.s.ActiveCount() == 1 {
		for i := range t.s.Players {
			if t.s.Players[i].Active() {
				t.finish(&t.s.Players[i], ReasonBankruptcy)
				break
			}
		}
		return nil
	}
	if p.IsCurrentTurn {
		t.endTurn()
	}
	return nil
}

func (t *transition) abandon() {
	t.closeSession(StatusAbandoned)
	t.record(nil, ActionAbandon, "对局已放弃", t.commandDetails(map[string]any{
		"final_players": playersSummary(t.s.Players),
	}))
}

// finish 宣布胜者；进行中的挑战直接作废
func (t *transition) finish(winner *Player, reason string) {
	if ch := t.s.Challenge; ch != nil && ch.State == ChallengeInProgress {
		t.record(t.s.Player(ch.PlayerID), ActionChallenge, "对局结束，挑战作废", map[string]any{
			"kind":      ch.Kind.String(),
			"node":      ch.NodeID,
			"abandoned": true,
		})
	}
	t.closeSession(StatusCompleted)
	w := Winner{PlayerID: winner.ID, Reason: reason}
	t.s.Winner = &w
	t.out.Winner = &w
	t.record(winner, ActionVictory, fmt.Sprintf("%s 获胜（%s）", winner.Name, reason), map[string]any{
		"reason":        reason,
		"lap_count":     winner.LapCount,
		"final_players": playersSummary(t.s.Players),
	})
}

func (t *transition) closeSession(status SessionStatus) {
	t.s.Status = status
	t.s.EndedAt = t.env.now()
	t.s.Phase = PhaseFinished
	t.s.PendingMove = nil
	t.s.Landed = nil
	t.s.NodeOptions = nil
	t.s.Challenge = nil
	for i := range t.s.Players {
		t.s.Players[i].IsCurrentTurn = false
	}
}

func playersSummary(players []Player) []any {
	out := make([]any, len(players))
	for i, p := range players {
		out[i] = map[string]any{
			"id":        p.ID,
			"name":      p.Name,
			"node":      p.CurrentNodeID,
			"lap_count": p.LapCount,
			"status":    p.Status.String(),
			"currency":  p.Currency,
		}
	}
	return out
}

func (t *transition) record(p *Player, typ ActionType, desc string, details map[string]any) {
	r := ActionRecord{
		Timestamp:   t.env.now(),
		ActionType:  typ,
		Description: desc,
		Details:     details,
	}
	if p != nil {
		r.PlayerID = p.ID
		r.PlayerName = p.Name
	}
	t.out.Records = append(t.out.Records, r)
}

// commandDetails 在详情中附上触发本次转换的指令
func (t *transition) commandDetails(details map[string]any) map[string]any {
	if details == nil {
		details = map[string]any{}
	}
	details[DetailCommand] = EncodeCommand(t.ev)
	return details
}

func (t *transition) fault(err error) {
	t.out.Faults = append(t.out.Faults, err)
}

func (t *transition) illegal(action string) error {
	return fmt.Errorf("%w: cannot %s during %s", apperrors.ErrIllegalStateTransition, action, t.s.Phase)
}

func (t *transition) boardError(err error) error {
	return fmt.Errorf("%w: %v", apperrors.ErrInvalidBoardReference, err)
}

func (t *transition) findPlayer(id int) *Player {
	return t.s.Player(id)
}

// turnHolder 校验 id 对应的玩家持有当前回合
func (t *transition) turnHolder(id int) (*Player, error) {
	p := t.findPlayer(id)
	if p == nil {
		return nil, fmt.Errorf("%w: %d", apperrors.ErrPlayerNotFound, id)
	}
	if !p.IsCurrentTurn {
		return nil, apperrors.ErrNotYourTurn
	}
	return p, nil
}
