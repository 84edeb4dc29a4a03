package game

import (
	"fmt"
	"slices"

	"github.com/palemoky/lingo-monopoly/internal/apperrors"
	"github.com/palemoky/lingo-monopoly/internal/board"
)

// MoveOutcome 一次已提交的移动
type MoveOutcome struct {
	PlayerID     int
	Dice         int
	From         string
	To           string
	Path         []string
	Node         board.Node
	Alternate    bool // 是否走了支线
	LapCompleted bool
	LapCount     int
}

// PathChoiceRequired 持有捷径特权时，需要宿主在两条路线中选择
type PathChoiceRequired struct {
	PlayerID  int
	Dice      int
	Primary   board.Route
	Alternate board.Route
}

func (t *transition) rollDice(e RollDice) error {
	if t.s.Phase != PhaseAwaitingRoll {
		return t.illegal("roll dice")
	}
	p, err := t.turnHolder(e.PlayerID)
	if err != nil {
		return err
	}
	if e.Value <= 0 {
		return fmt.Errorf("%w: %d", apperrors.ErrInvalidDice, e.Value)
	}

	unlocked := p.Shortcut.UnlockedForNextMove
	opts, err := t.env.Board.ComputeMove(t.ctx, t.s.BoardID, p.CurrentNodeID, e.Value, unlocked)
	if err != nil {
		return t.boardError(err)
	}

	t.record(p, ActionDiceRoll, fmt.Sprintf("%s 掷出了 %d 点", p.Name, e.Value), t.commandDetails(map[string]any{
		"dice":              e.Value,
		"from":              p.CurrentNodeID,
		"shortcut_unlocked": unlocked,
	}))

	if unlocked && opts.Alternate != nil {
		t.s.PendingMove = &PendingMove{
			PlayerID:  p.ID,
			Dice:      e.Value,
			Primary:   opts.Primary,
			Alternate: *opts.Alternate,
		}
		t.s.Phase = PhaseAwaitingPathChoice
		t.out.PathChoice = &PathChoiceRequired{
			PlayerID:  p.ID,
			Dice:      e.Value,
			Primary:   opts.Primary,
			Alternate: *opts.Alternate,
		}
		return nil
	}

	p.Shortcut.UnlockedForNextMove = false
	return t.commitMove(p, e.Value, opts.Primary, false)
}

func (t *transition) choosePath(e ChoosePath) error {
	if t.s.Phase != PhaseAwaitingPathChoice || t.s.PendingMove == nil {
		return t.illegal("choose path")
	}
	p, err := t.turnHolder(e.PlayerID)
	if err != nil {
		return err
	}
	pm := *t.s.PendingMove
	route := pm.Primary
	desc := fmt.Sprintf("%s 选择了主路线", p.Name)
	if e.Alternate {
		route = pm.Alternate
		desc = fmt.Sprintf("%s 选择了捷径", p.Name)
	}

	p.Shortcut.UnlockedForNextMove = false
	t.s.PendingMove = nil
	t.record(p, ActionShortcut, desc, t.commandDetails(map[string]any{
		"alternate": e.Alternate,
		"to":        route.Destination,
	}))
	return t.commitMove(p, pm.Dice, route, e.Alternate)
}

// commitMove 落子、计圈、判胜，然后按落点类型分派
func (t *transition) commitMove(p *Player, dice int, route board.Route, alternate bool) error {
	from := p.CurrentNodeID
	node, err := t.resolveNode(route.Destination)
	if err != nil {
		return err
	}
	p.CurrentNodeID = node.ID

	lap, err := t.applyLap(p, route.Path)
	if err != nil {
		return err
	}

	path := make([]any, len(route.Path))
	for i, id := range route.Path {
		path[i] = id
	}
	t.record(p, ActionMove, fmt.Sprintf("%s 移动到 %s", p.Name, nodeLabel(node)), map[string]any{
		"from":          from,
		"to":            node.ID,
		"dice":          dice,
		"path":          path,
		"alternate":     alternate,
		"lap_completed": lap,
		"lap_count":     p.LapCount,
	})
	t.out.Move = &MoveOutcome{
		PlayerID:     p.ID,
		Dice:         dice,
		From:         from,
		To:           node.ID,
		Path:         slices.Clone(route.Path),
		Node:         node,
		Alternate:    alternate,
		LapCompleted: lap,
		LapCount:     p.LapCount,
	}

	if t.checkLapWin(p) {
		return nil
	}
	return t.dispatch(p, node)
}

// applyLap 路线（path[0] 为出发点，不计入）经过或停在起点时圈数加一，每次移动最多一次
func (t *transition) applyLap(p *Player, path []string) (bool, error) {
	if len(path) < 2 {
		return false, nil
	}
	start, err := t.env.Board.StartNode(t.ctx, t.s.BoardID)
	if err != nil {
		return false, t.boardError(err)
	}
	if !slices.Contains(path[1:], start) {
		return false, nil
	}
	p.LapCount++
	return true, nil
}

// jumpPath 传送、换位这类直接落点的路线，原地不动时为空
func jumpPath(from, to string) []string {
	if from == to {
		return nil
	}
	return []string{from, to}
}

// checkLapWin 圈数达标时结束对局
func (t *transition) checkLapWin(p *Player) bool {
	if p.LapCount < LapsToWin {
		return false
	}
	t.finish(p, ReasonLaps)
	return true
}

func nodeLabel(n board.Node) string {
	if n.Name == "" {
		return n.ID
	}
	return fmt.Sprintf("%s(%s)", n.Name, n.ID)
}
