package game

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/palemoky/lingo-monopoly/internal/apperrors"
	"github.com/palemoky/lingo-monopoly/internal/board"
)

// CardAction 卡牌效果种类
type CardAction int

const (
	CardMove CardAction = iota
	CardTeleport
	CardSkip
	CardSwap
	CardMoney
	CardItem
)

var cardActionNames = map[CardAction]string{
	CardMove:     "move",
	CardTeleport: "teleport",
	CardSkip:     "skip",
	CardSwap:     "swap",
	CardMoney:    "money",
	CardItem:     "item",
}

func (a CardAction) String() string {
	if name, ok := cardActionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("CardAction(%d)", int(a))
}

// Effect 卡牌效果，只能是本包定义的几种
type Effect interface {
	Action() CardAction
	effect()
}

// MoveEffect 相对移动，负数后退
type MoveEffect struct{ Steps int }

// TeleportEffect 传送到指定节点
type TeleportEffect struct{ Destination string }

// SkipEffect 持卡人跳过自己的下一回合
type SkipEffect struct{}

// SwapEffect 与目标玩家交换位置
type SwapEffect struct{ TargetPlayerID int }

// MoneyEffect 增减货币
type MoneyEffect struct{ Amount int }

// ItemEffect 获得道具
type ItemEffect struct{ Item string }

func (MoveEffect) Action() CardAction     { return CardMove }
func (TeleportEffect) Action() CardAction { return CardTeleport }
func (SkipEffect) Action() CardAction     { return CardSkip }
func (SwapEffect) Action() CardAction     { return CardSwap }
func (MoneyEffect) Action() CardAction    { return CardMoney }
func (ItemEffect) Action() CardAction     { return CardItem }

func (MoveEffect) effect()     {}
func (TeleportEffect) effect() {}
func (SkipEffect) effect()     {}
func (SwapEffect) effect()     {}
func (MoneyEffect) effect()    {}
func (ItemEffect) effect()     {}

// Card 扫描到的卡牌
type Card struct {
	ID     string
	Title  string
	Kind   string // reward/penalty/chance
	Effect Effect
}

// NewCard 按卡面上的动作和数值构造卡牌。
// teleport 的目标为 "null" 时表示与其他玩家交换位置。
func NewCard(action, value string, target int) (Card, error) {
	value = strings.TrimSpace(value)
	switch strings.ToLower(strings.TrimSpace(action)) {
	case "move":
		n, err := strconv.Atoi(value)
		if err != nil {
			return Card{}, fmt.Errorf("move card needs a step count: %w", err)
		}
		return Card{Effect: MoveEffect{Steps: n}}, nil
	case "teleport":
		if value == "" || value == "null" {
			return Card{Effect: SwapEffect{TargetPlayerID: target}}, nil
		}
		return Card{Effect: TeleportEffect{Destination: value}}, nil
	case "swap":
		return Card{Effect: SwapEffect{TargetPlayerID: target}}, nil
	case "skip":
		return Card{Effect: SkipEffect{}}, nil
	case "money":
		n, err := strconv.Atoi(value)
		if err != nil {
			return Card{}, fmt.Errorf("money card needs an amount: %w", err)
		}
		return Card{Effect: MoneyEffect{Amount: n}}, nil
	case "item":
		if value == "" {
			return Card{}, errors.New("item card needs an item name")
		}
		return Card{Effect: ItemEffect{Item: value}}, nil
	default:
		return Card{}, fmt.Errorf("unknown card action %q", action)
	}
}

func (c Card) toMap() map[string]any {
	m := map[string]any{"id": c.ID, "title": c.Title, "kind": c.Kind}
	if c.Effect == nil {
		return m
	}
	m["action"] = c.Effect.Action().String()
	switch e := c.Effect.(type) {
	case MoveEffect:
		m["value"] = e.Steps
	case TeleportEffect:
		m["destination"] = e.Destination
	case SwapEffect:
		m["target"] = e.TargetPlayerID
	case MoneyEffect:
		m["value"] = e.Amount
	case ItemEffect:
		m["item"] = e.Item
	case SkipEffect:
	}
	return m
}

func cardFromMap(m map[string]any) (Card, error) {
	if m == nil {
		return Card{}, errors.New("missing card")
	}
	str := func(k string) string { s, _ := m[k].(string); return s }
	c := Card{ID: str("id"), Title: str("title"), Kind: str("kind")}
	switch str("action") {
	case "move":
		c.Effect = MoveEffect{Steps: toInt(m["value"])}
	case "teleport":
		c.Effect = TeleportEffect{Destination: str("destination")}
	case "skip":
		c.Effect = SkipEffect{}
	case "swap":
		c.Effect = SwapEffect{TargetPlayerID: toInt(m["target"])}
	case "money":
		c.Effect = MoneyEffect{Amount: toInt(m["value"])}
	case "item":
		c.Effect = ItemEffect{Item: str("item")}
	default:
		return Card{}, fmt.Errorf("unknown card action %q", str("action"))
	}
	return c, nil
}

// CardEffectResult 卡牌结算结果
type CardEffectResult struct {
	Action         CardAction
	PlayerID       int
	TargetPlayerID int
	From           string
	To             string
	CurrencyDelta  int
	Item           string
	LapCompleted   bool
}

func (t *transition) scanCard(e ScanCard) error {
	if t.s.Phase != PhaseAwaitingRoll && t.s.Phase != PhaseAwaitingAcknowledge {
		return t.illegal("scan card")
	}
	p, err := t.turnHolder(e.PlayerID)
	if err != nil {
		return err
	}
	if e.Card.Effect == nil {
		return fmt.Errorf("%w: card has no effect", apperrors.ErrInvalidOption)
	}

	res := CardEffectResult{Action: e.Card.Effect.Action(), PlayerID: p.ID, From: p.CurrentNodeID}
	recordType := ActionMove
	var desc string

	switch eff := e.Card.Effect.(type) {
	case MoveEffect:
		route, err := t.env.Board.Advance(t.ctx, t.s.BoardID, p.CurrentNodeID, eff.Steps)
		if err != nil {
			return t.boardError(err)
		}
		node, err := t.resolveNode(route.Destination)
		if err != nil {
			return err
		}
		p.CurrentNodeID = node.ID
		// 后退和原地不计圈
		if eff.Steps > 0 {
			if res.LapCompleted, err = t.applyLap(p, route.Path); err != nil {
				return err
			}
		}
		desc = fmt.Sprintf("%s 使用移动卡，移动 %d 步到 %s", p.Name, eff.Steps, node.Name)

	case TeleportEffect:
		node, err := t.resolveNode(eff.Destination)
		if err != nil {
			return err
		}
		from := p.CurrentNodeID
		p.CurrentNodeID = node.ID
		if res.LapCompleted, err = t.applyLap(p, jumpPath(from, node.ID)); err != nil {
			return err
		}
		desc = fmt.Sprintf("%s 使用传送卡，传送到 %s", p.Name, node.Name)

	case SwapEffect:
		if eff.TargetPlayerID == 0 {
			return apperrors.ErrTargetRequired
		}
		target := t.findPlayer(eff.TargetPlayerID)
		if target == nil || target.ID == p.ID || !target.Active() {
			return fmt.Errorf("%w: player %d", apperrors.ErrInvalidTarget, eff.TargetPlayerID)
		}
		from := p.CurrentNodeID
		p.CurrentNodeID, target.CurrentNodeID = target.CurrentNodeID, p.CurrentNodeID
		res.TargetPlayerID = target.ID
		if res.LapCompleted, err = t.applyLap(p, jumpPath(from, p.CurrentNodeID)); err != nil {
			return err
		}
		desc = fmt.Sprintf("%s 与 %s 交换了位置", p.Name, target.Name)

	case SkipEffect:
		p.Pause = p.Pause.With(PausePenaltyCard)
		recordType = ActionChallenge
		desc = fmt.Sprintf("%s 抽到惩罚卡，下一回合暂停", p.Name)

	case MoneyEffect:
		p.Currency += eff.Amount
		res.CurrencyDelta = eff.Amount
		recordType = ActionChallenge
		desc = fmt.Sprintf("%s 货币变动 %+d", p.Name, eff.Amount)

	case ItemEffect:
		p.Items = append(p.Items, eff.Item)
		res.Item = eff.Item
		recordType = ActionChallenge
		desc = fmt.Sprintf("%s 获得道具 %s", p.Name, eff.Item)

	default:
		return fmt.Errorf("%w: unsupported card effect %T", apperrors.ErrInvalidOption, e.Card.Effect)
	}
	res.To = p.CurrentNodeID

	t.record(p, recordType, desc, t.commandDetails(map[string]any{
		"card_action":   res.Action.String(),
		"from":          res.From,
		"to":            res.To,
		"lap_completed": res.LapCompleted,
	}))
	t.out.Card = &res

	if t.checkLapWin(p) {
		return nil
	}
	if t.s.Phase == PhaseAwaitingAcknowledge {
		t.endTurn()
	}
	return nil
}

// resolveNode 查找节点，找不到时回退到地图第一个节点并记录数据故障
func (t *transition) resolveNode(nodeID string) (board.Node, error) {
	node, err := t.env.Board.GetNode(t.ctx, t.s.BoardID, nodeID)
	if err == nil {
		return node, nil
	}
	if !errors.Is(err, board.ErrNodeNotFound) {
		return board.Node{}, t.boardError(err)
	}
	t.fault(fmt.Errorf("%w: %s, falling back to first node: %v", apperrors.ErrInvalidBoardReference, nodeID, err))
	first, ferr := t.env.Board.FirstNode(t.ctx, t.s.BoardID)
	if ferr != nil {
		return board.Node{}, t.boardError(ferr)
	}
	return first, nil
}
