package game

import (
	"fmt"
	"strings"
)

// SkippedPlayer 调度时被跳过的玩家
type SkippedPlayer struct {
	PlayerID int
	Causes   []PauseCause
}

// TurnChange 一次回合交接的结果
type TurnChange struct {
	From    int // 玩家 ID
	To      int
	Skipped []SkippedPlayer
}

// AdvanceTurn 把回合交给下一位可行动的玩家。
//
// 从当前玩家的下一位开始检查：破产玩家永远跳过；暂停集合非空的玩家跳过一次
// 并清空整个集合。一整圈都没有可行动的人时，若原玩家仍在局中则交还给他，
// 否则再扫一圈取第一个未破产的玩家（此时暂停已被清空）。
func AdvanceTurn(s *Session) TurnChange {
	n := len(s.Players)
	from := s.CurrentIndex
	change := TurnChange{From: s.Players[from].ID}

	next := -1
	for step := 1; step < n; step++ {
		idx := (from + step) % n
		p := &s.Players[idx]
		if !p.Active() {
			continue
		}
		if !p.Pause.Empty() {
			change.Skipped = append(change.Skipped, SkippedPlayer{PlayerID: p.ID, Causes: p.Pause.Causes()})
			p.Pause = 0
			continue
		}
		next = idx
		break
	}

	if next == -1 {
		if s.Players[from].Active() {
			next = from
		} else {
			for step := 1; step < n; step++ {
				idx := (from + step) % n
				if s.Players[idx].Active() {
					next = idx
					break
				}
			}
		}
	}
	if next == -1 {
		next = from
	}

	for i := range s.Players {
		s.Players[i].IsCurrentTurn = i == next
	}
	s.CurrentIndex = next
	change.To = s.Players[next].ID
	return change
}

// endTurn 结束当前玩家的回合并交给下一位
func (t *transition) endTurn() {
	t.s.PendingMove = nil
	t.s.Landed = nil
	t.s.NodeOptions = nil
	t.s.Challenge = nil

	change := AdvanceTurn(t.s)
	for _, sk := range change.Skipped {
		p := t.s.Player(sk.PlayerID)
		causes := make([]any, len(sk.Causes))
		names := make([]string, len(sk.Causes))
		for i, c := range sk.Causes {
			causes[i] = c.String()
			names[i] = c.String()
		}
		t.record(p, ActionMove, fmt.Sprintf("%s 暂停一回合（%s）", p.Name, strings.Join(names, "、")), map[string]any{
			"skipped": true,
			"causes":  causes,
			"node":    p.CurrentNodeID,
		})
	}

	t.s.Phase = PhaseAwaitingRoll
	t.s.Turn++
	t.out.Turn = &change
}
