package game

import (
	"fmt"
	"slices"

	"github.com/palemoky/lingo-monopoly/internal/apperrors"
	"github.com/palemoky/lingo-monopoly/internal/board"
)

// NodeChoice 落点提供的可选项
type NodeChoice struct {
	PlayerID int
	NodeID   string
	Options  []NodeOption
}

// dispatch 按落点类型处理
func (t *transition) dispatch(p *Player, node board.Node) error {
	switch node.Type {
	case board.NodeProperty:
		t.offerOptions(p, node, OptionVocabulary, OptionScenario, OptionDecline)
	case board.NodeStop:
		if node.Stop == board.StopRoadConstruction {
			p.Pause = p.Pause.With(PauseRoadConstruction)
			t.endTurn()
			return nil
		}
		t.offerOptions(p, node, OptionVocabulary, OptionScenario, OptionDecline)
	case board.NodeChallenge, board.NodeVocabulary:
		return t.startChallenge(p, node, challengeKindFor(node))
	case board.NodeChance, board.NodeReward:
		t.awaitAcknowledge(node)
	case board.NodeShortcut:
		if node.Shortcut == nil || node.Shortcut.Target == "" {
			t.endTurn()
			return nil
		}
		t.offerOptions(p, node, OptionTakeShortcut, OptionDecline)
	case board.NodeSpecial:
		return t.dispatchPayload(p, node)
	case board.NodeStart:
		t.endTurn()
	default:
		t.fault(fmt.Errorf("%w: node %s has unknown type %v", apperrors.ErrInvalidBoardReference, node.ID, node.Type))
		t.endTurn()
	}
	return nil
}

// dispatchPayload 特殊格按携带的内容处理，没有内容时直接结束回合
func (t *transition) dispatchPayload(p *Player, node board.Node) error {
	switch {
	case node.Challenge != nil:
		return t.startChallenge(p, node, challengeKindFor(node))
	case node.Chance != nil:
		t.awaitAcknowledge(node)
	case node.Shortcut != nil && node.Shortcut.Target != "":
		t.offerOptions(p, node, OptionTakeShortcut, OptionDecline)
	case node.Property != nil:
		t.offerOptions(p, node, OptionVocabulary, OptionScenario, OptionDecline)
	default:
		t.endTurn()
	}
	return nil
}

func (t *transition) offerOptions(p *Player, node board.Node, opts ...NodeOption) {
	t.s.Phase = PhaseAwaitingNodeChoice
	t.s.Landed = &node
	t.s.NodeOptions = opts
	t.out.NodeChoice = &NodeChoice{PlayerID: p.ID, NodeID: node.ID, Options: slices.Clone(opts)}
}

func (t *transition) awaitAcknowledge(node board.Node) {
	t.s.Phase = PhaseAwaitingAcknowledge
	t.s.Landed = &node
}

func (t *transition) chooseNodeOption(e ChooseNodeOption) error {
	if t.s.Phase != PhaseAwaitingNodeChoice || t.s.Landed == nil {
		return t.illegal("choose node option")
	}
	p, err := t.turnHolder(e.PlayerID)
	if err != nil {
		return err
	}
	if !slices.Contains(t.s.NodeOptions, e.Option) {
		return fmt.Errorf("%w: %s", apperrors.ErrInvalidOption, e.Option)
	}
	node := t.s.Landed.Clone()

	switch e.Option {
	case OptionDecline:
		t.record(p, ActionChallenge, fmt.Sprintf("%s 放弃了 %s 的挑战", p.Name, nodeLabel(node)), t.commandDetails(map[string]any{
			"node":   node.ID,
			"option": e.Option.String(),
		}))
		t.endTurn()
		return nil
	case OptionTakeShortcut:
		return t.takeShortcut(p, node)
	}

	kind := KindVocabulary
	if e.Option == OptionScenario {
		kind = KindScenario
	}
	t.record(p, ActionChallenge, fmt.Sprintf("%s 选择了%s挑战", p.Name, kindLabel(kind)), t.commandDetails(map[string]any{
		"node":   node.ID,
		"option": e.Option.String(),
	}))
	return t.startChallenge(p, node, kind)
}

// takeShortcut 沿捷径格直接前往目标，计圈后结束回合
func (t *transition) takeShortcut(p *Player, node board.Node) error {
	from := p.CurrentNodeID
	dest, err := t.resolveNode(node.Shortcut.Target)
	if err != nil {
		return err
	}
	p.CurrentNodeID = dest.ID
	lap, err := t.applyLap(p, jumpPath(from, dest.ID))
	if err != nil {
		return err
	}

	t.record(p, ActionShortcut, fmt.Sprintf("%s 走捷径到达 %s", p.Name, nodeLabel(dest)), t.commandDetails(map[string]any{
		"from":          from,
		"to":            dest.ID,
		"option":        OptionTakeShortcut.String(),
		"lap_completed": lap,
	}))
	t.out.Move = &MoveOutcome{
		PlayerID:     p.ID,
		From:         from,
		To:           dest.ID,
		Path:         []string{from, dest.ID},
		Node:         dest,
		Alternate:    true,
		LapCompleted: lap,
		LapCount:     p.LapCount,
	}

	if t.checkLapWin(p) {
		return nil
	}
	t.endTurn()
	return nil
}

func (t *transition) acknowledge(e Acknowledge) error {
	if t.s.Phase != PhaseAwaitingAcknowledge {
		return t.illegal("acknowledge")
	}
	p, err := t.turnHolder(e.PlayerID)
	if err != nil {
		return err
	}
	nodeID := ""
	if t.s.Landed != nil {
		nodeID = t.s.Landed.ID
	}
	t.record(p, ActionChallenge, fmt.Sprintf("%s 确认了机会格", p.Name), t.commandDetails(map[string]any{
		"node": nodeID,
	}))
	t.endTurn()
	return nil
}
