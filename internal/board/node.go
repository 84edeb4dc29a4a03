// Package board 描述地图节点以及引擎读取地图拓扑所用的接口。
package board

import (
	"context"
	"fmt"
)

// NodeType 节点类型
type NodeType int

const (
	NodeStart NodeType = iota
	NodeProperty
	NodeChallenge
	NodeChance
	NodeSpecial
	NodeShortcut
	NodeStop
	NodeVocabulary
	NodeReward
)

var nodeTypeNames = map[NodeType]string{
	NodeStart:      "start",
	NodeProperty:   "property",
	NodeChallenge:  "challenge",
	NodeChance:     "chance",
	NodeSpecial:    "special",
	NodeShortcut:   "shortcut",
	NodeStop:       "stop",
	NodeVocabulary: "vocabulary",
	NodeReward:     "reward",
}

func (t NodeType) String() string {
	if name, ok := nodeTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("NodeType(%d)", int(t))
}

// ParseNodeType 解析节点类型，"go" 视为起点
func ParseNodeType(s string) (NodeType, error) {
	if s == "go" {
		return NodeStart, nil
	}
	for t, name := range nodeTypeNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown node type %q", s)
}

// MarshalText 以类型名序列化（YAML/JSON 共用）
func (t NodeType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText 支持在地图文件中直接写类型名
func (t *NodeType) UnmarshalText(text []byte) error {
	parsed, err := ParseNodeType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// StopKind 停靠格的种类
type StopKind string

const (
	StopNone             StopKind = ""
	StopGasStation       StopKind = "gas_station"
	StopRoadConstruction StopKind = "road_construction"
)

// ChallengePayload 挑战格内容
type ChallengePayload struct {
	Type    string `yaml:"type" json:"type"` // vocabulary/culture/story/action/train
	Title   string `yaml:"title" json:"title"`
	Content string `yaml:"content" json:"content"`
	Reward  int    `yaml:"reward" json:"reward"`
	Penalty int    `yaml:"penalty" json:"penalty"`
}

// ChancePayload 机会格内容
type ChancePayload struct {
	Type    string `yaml:"type" json:"type"` // positive/negative/neutral
	Title   string `yaml:"title" json:"title"`
	Content string `yaml:"content" json:"content"`
	Effect  string `yaml:"effect" json:"effect"`
}

// ShortcutPayload 捷径格内容
type ShortcutPayload struct {
	Target      string `yaml:"target" json:"target"`
	Description string `yaml:"description" json:"description"`
}

// PropertyPayload 地产格内容
type PropertyPayload struct {
	Price int    `yaml:"price" json:"price"`
	Rent  int    `yaml:"rent" json:"rent"`
	Color string `yaml:"color" json:"color"`
}

// Node 地图节点（引擎只读）
type Node struct {
	ID          string            `yaml:"id" json:"id"`
	Name        string            `yaml:"name" json:"name"`
	Type        NodeType          `yaml:"type" json:"type"`
	Description string            `yaml:"description" json:"description,omitempty"`
	Stop        StopKind          `yaml:"stop" json:"stop,omitempty"`
	Challenge   *ChallengePayload `yaml:"challenge" json:"challenge,omitempty"`
	Chance      *ChancePayload    `yaml:"chance" json:"chance,omitempty"`
	Shortcut    *ShortcutPayload  `yaml:"shortcut" json:"shortcut,omitempty"`
	Property    *PropertyPayload  `yaml:"property" json:"property,omitempty"`
}

// Clone 深拷贝节点
func (n Node) Clone() Node {
	out := n
	if n.Challenge != nil {
		c := *n.Challenge
		out.Challenge = &c
	}
	if n.Chance != nil {
		c := *n.Chance
		out.Chance = &c
	}
	if n.Shortcut != nil {
		s := *n.Shortcut
		out.Shortcut = &s
	}
	if n.Property != nil {
		p := *n.Property
		out.Property = &p
	}
	return out
}

// HasPayload 是否带有任何子内容
func (n Node) HasPayload() bool {
	return n.Challenge != nil || n.Chance != nil || n.Shortcut != nil || n.Property != nil
}

// Route 一次移动的路线，Path 以出发节点开头
type Route struct {
	Destination string
	Path        []string
}

// MoveOptions 掷骰结果：主路线，以及持有捷径特权时可选的支线
type MoveOptions struct {
	Primary   Route
	Alternate *Route
}

// Provider 地图拓扑的只读访问接口
type Provider interface {
	// GetNode 返回节点；不存在时返回 ErrNodeNotFound
	GetNode(ctx context.Context, boardID, nodeID string) (Node, error)
	// ComputeMove 计算掷骰后的目标节点；shortcutUnlocked 为 true 时可能返回支线
	ComputeMove(ctx context.Context, boardID, nodeID string, dice int, shortcutUnlocked bool) (MoveOptions, error)
	// Advance 沿主路线相对移动 steps 步，负数表示后退
	Advance(ctx context.Context, boardID, nodeID string, steps int) (Route, error)
	// StartNode 返回起点节点 ID
	StartNode(ctx context.Context, boardID string) (string, error)
	// FirstNode 返回地图第一个可枚举的节点，用于数据不一致时的兜底
	FirstNode(ctx context.Context, boardID string) (Node, error)
}
