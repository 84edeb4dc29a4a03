package game

import (
	"fmt"
	"strings"
)

// Event 宿主发给引擎的指令
type Event interface {
	// Command 指令名，写入记录用于回放
	Command() string
	args() map[string]any
}

// RollDice 掷骰
type RollDice struct {
	PlayerID int
	Value    int
}

// ChoosePath 在主路线和支线之间选择
type ChoosePath struct {
	PlayerID  int
	Alternate bool
}

// ChooseNodeOption 在落点的可选项中选择
type ChooseNodeOption struct {
	PlayerID int
	Option   NodeOption
}

// SubmitAnswer 提交挑战答案（由挑战所属玩家提交）
type SubmitAnswer struct {
	Answer string
}

// ForfeitChallenge 放弃当前挑战
type ForfeitChallenge struct{}

// ScanCard 扫描实体卡牌
type ScanCard struct {
	PlayerID int
	Card     Card
}

// Acknowledge 确认机会/奖励格（未扫描卡牌）
type Acknowledge struct {
	PlayerID int
}

// DeclareBankruptcy 宣告破产，任何时候都可以
type DeclareBankruptcy struct {
	PlayerID int
}

// Abandon 放弃整局游戏
type Abandon struct{}

func (RollDice) Command() string          { return "roll" }
func (ChoosePath) Command() string        { return "choose_path" }
func (ChooseNodeOption) Command() string  { return "node_option" }
func (SubmitAnswer) Command() string      { return "answer" }
func (ForfeitChallenge) Command() string  { return "forfeit" }
func (ScanCard) Command() string          { return "card" }
func (Acknowledge) Command() string       { return "acknowledge" }
func (DeclareBankruptcy) Command() string { return "bankruptcy" }
func (Abandon) Command() string           { return "abandon" }

func (e RollDice) args() map[string]any {
	return map[string]any{"player_id": e.PlayerID, "value": e.Value}
}

func (e ChoosePath) args() map[string]any {
	return map[string]any{"player_id": e.PlayerID, "alternate": e.Alternate}
}

func (e ChooseNodeOption) args() map[string]any {
	return map[string]any{"player_id": e.PlayerID, "option": e.Option.String()}
}

func (e SubmitAnswer) args() map[string]any {
	return map[string]any{"answer": e.Answer}
}

func (ForfeitChallenge) args() map[string]any { return map[string]any{} }

func (e ScanCard) args() map[string]any {
	return map[string]any{"player_id": e.PlayerID, "card": e.Card.toMap()}
}

func (e Acknowledge) args() map[string]any {
	return map[string]any{"player_id": e.PlayerID}
}

func (e DeclareBankruptcy) args() map[string]any {
	return map[string]any{"player_id": e.PlayerID}
}

func (Abandon) args() map[string]any { return map[string]any{} }

// EncodeCommand 把指令编码为可写入记录详情的 map
func EncodeCommand(ev Event) map[string]any {
	m := ev.args()
	m["name"] = ev.Command()
	return m
}

// DecodeCommand 从记录详情中还原指令
func DecodeCommand(m map[string]any) (Event, error) {
	name, _ := m["name"].(string)
	switch name {
	case "roll":
		return RollDice{PlayerID: toInt(m["player_id"]), Value: toInt(m["value"])}, nil
	case "choose_path":
		alt, _ := m["alternate"].(bool)
		return ChoosePath{PlayerID: toInt(m["player_id"]), Alternate: alt}, nil
	case "node_option":
		s, _ := m["option"].(string)
		opt, err := ParseNodeOption(s)
		if err != nil {
			return nil, err
		}
		return ChooseNodeOption{PlayerID: toInt(m["player_id"]), Option: opt}, nil
	case "answer":
		ans, _ := m["answer"].(string)
		return SubmitAnswer{Answer: ans}, nil
	case "forfeit":
		return ForfeitChallenge{}, nil
	case "card":
		cm, _ := m["card"].(map[string]any)
		c, err := cardFromMap(cm)
		if err != nil {
			return nil, err
		}
		return ScanCard{PlayerID: toInt(m["player_id"]), Card: c}, nil
	case "acknowledge":
		return Acknowledge{PlayerID: toInt(m["player_id"])}, nil
	case "bankruptcy":
		return DeclareBankruptcy{PlayerID: toInt(m["player_id"])}, nil
	case "abandon":
		return Abandon{}, nil
	default:
		return nil, fmt.Errorf("unknown command %q", name)
	}
}

// NodeOption 落点可选项
type NodeOption int

const (
	OptionVocabulary NodeOption = iota
	OptionScenario
	OptionDecline
	OptionTakeShortcut
)

var nodeOptionNames = map[NodeOption]string{
	OptionVocabulary:   "vocabulary",
	OptionScenario:     "scenario",
	OptionDecline:      "decline",
	OptionTakeShortcut: "take_shortcut",
}

func (o NodeOption) String() string {
	if name, ok := nodeOptionNames[o]; ok {
		return name
	}
	return fmt.Sprintf("NodeOption(%d)", int(o))
}

// ParseNodeOption 解析选项名
func ParseNodeOption(s string) (NodeOption, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for o, name := range nodeOptionNames {
		if name == s {
			return o, nil
		}
	}
	return 0, fmt.Errorf("unknown node option %q", s)
}

// toInt 兼容 JSON/protobuf 解码后的数字类型
func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	case float32:
		return int(n)
	default:
		return 0
	}
}
