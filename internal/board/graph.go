package board

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// 地图查询错误
var (
	ErrBoardNotFound = errors.New("board not found")
	ErrNodeNotFound  = errors.New("node not found")
)

// EdgeType 连接类型
type EdgeType string

const (
	EdgeNormal      EdgeType = "normal"
	EdgeConditional EdgeType = "conditional"
	EdgeShortcut    EdgeType = "shortcut"
	EdgeBranch      EdgeType = "branch" // 仅在持有捷径特权时可走的支线入口
)

// 主路线选边优先级，数值越小越优先
var edgePriority = map[EdgeType]int{
	EdgeNormal:      0,
	EdgeConditional: 1,
	EdgeShortcut:    2,
	EdgeBranch:      3,
}

// Edge 节点之间的有向连接
type Edge struct {
	From string   `yaml:"from"`
	To   string   `yaml:"to"`
	Type EdgeType `yaml:"type"`
}

// Board 一张地图
type Board struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name"`
	StartNode  string `yaml:"start_node"`
	MaxPlayers int    `yaml:"max_players"`
	Nodes      []Node `yaml:"nodes"`
	Edges      []Edge `yaml:"edges"`

	index    map[string]int
	outgoing map[string][]Edge
	incoming map[string][]Edge
}

// Graph 基于内存的多地图 Provider，通常从 YAML 文件加载
type Graph struct {
	boards map[string]*Board
}

type boardFile struct {
	Boards []Board `yaml:"boards"`
}

// LoadFile 从 YAML 文件加载地图
func LoadFile(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse 解析 YAML 格式的地图定义
func Parse(data []byte) (*Graph, error) {
	var f boardFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("解析地图文件失败: %w", err)
	}
	return NewGraph(f.Boards...)
}

// NewGraph 校验并索引地图
func NewGraph(boards ...Board) (*Graph, error) {
	g := &Graph{boards: make(map[string]*Board, len(boards))}
	for i := range boards {
		b := boards[i]
		if err := b.build(); err != nil {
			return nil, fmt.Errorf("地图 %s: %w", b.ID, err)
		}
		if _, dup := g.boards[b.ID]; dup {
			return nil, fmt.Errorf("地图 %s 重复定义", b.ID)
		}
		g.boards[b.ID] = &b
	}
	return g, nil
}

func (b *Board) build() error {
	if b.ID == "" {
		return errors.New("缺少地图 ID")
	}
	if len(b.Nodes) == 0 {
		return errors.New("地图没有节点")
	}

	b.index = make(map[string]int, len(b.Nodes))
	for i, n := range b.Nodes {
		if n.ID == "" {
			return fmt.Errorf("第 %d 个节点缺少 ID", i)
		}
		if _, dup := b.index[n.ID]; dup {
			return fmt.Errorf("节点 %s 重复定义", n.ID)
		}
		b.index[n.ID] = i
	}
	if _, ok := b.index[b.StartNode]; !ok {
		return fmt.Errorf("起点 %q 不存在", b.StartNode)
	}

	b.outgoing = make(map[string][]Edge)
	b.incoming = make(map[string][]Edge)
	for _, e := range b.Edges {
		if e.Type == "" {
			e.Type = EdgeNormal
		}
		if _, ok := edgePriority[e.Type]; !ok {
			return fmt.Errorf("连接 %s->%s 类型 %q 无效", e.From, e.To, e.Type)
		}
		if _, ok := b.index[e.From]; !ok {
			return fmt.Errorf("连接起点 %s 不存在", e.From)
		}
		if _, ok := b.index[e.To]; !ok {
			return fmt.Errorf("连接终点 %s 不存在", e.To)
		}
		b.outgoing[e.From] = append(b.outgoing[e.From], e)
		b.incoming[e.To] = append(b.incoming[e.To], e)
	}
	return nil
}

func (g *Graph) board(boardID string) (*Board, error) {
	b, ok := g.boards[boardID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBoardNotFound, boardID)
	}
	return b, nil
}

// GetNode 实现 Provider
func (g *Graph) GetNode(_ context.Context, boardID, nodeID string) (Node, error) {
	b, err := g.board(boardID)
	if err != nil {
		return Node{}, err
	}
	i, ok := b.index[nodeID]
	if !ok {
		return Node{}, fmt.Errorf("%w: %s/%s", ErrNodeNotFound, boardID, nodeID)
	}
	return b.Nodes[i].Clone(), nil
}

// ComputeMove 实现 Provider
//
// 主路线每一步按 normal > conditional > shortcut > branch 的优先级选边。
// 持有捷径特权且当前节点有 branch 连接时，额外给出支线：
// 第一步进入支线，其余步数按主路线规则继续。
func (g *Graph) ComputeMove(_ context.Context, boardID, nodeID string, dice int, shortcutUnlocked bool) (MoveOptions, error) {
	b, err := g.board(boardID)
	if err != nil {
		return MoveOptions{}, err
	}
	if _, ok := b.index[nodeID]; !ok {
		return MoveOptions{}, fmt.Errorf("%w: %s/%s", ErrNodeNotFound, boardID, nodeID)
	}
	if dice <= 0 {
		return MoveOptions{}, fmt.Errorf("dice value must be positive, got %d", dice)
	}

	opts := MoveOptions{Primary: b.walkForward(nodeID, dice)}

	if shortcutUnlocked {
		for _, e := range b.outgoing[nodeID] {
			if e.Type != EdgeBranch {
				continue
			}
			alt := b.walkForward(e.To, dice-1)
			alt.Path = append([]string{nodeID}, alt.Path...)
			opts.Alternate = &alt
			break
		}
	}
	return opts, nil
}

// Advance 实现 Provider
func (g *Graph) Advance(_ context.Context, boardID, nodeID string, steps int) (Route, error) {
	b, err := g.board(boardID)
	if err != nil {
		return Route{}, err
	}
	if _, ok := b.index[nodeID]; !ok {
		return Route{}, fmt.Errorf("%w: %s/%s", ErrNodeNotFound, boardID, nodeID)
	}
	if steps >= 0 {
		return b.walkForward(nodeID, steps), nil
	}
	return b.walkBackward(nodeID, -steps), nil
}

// StartNode 实现 Provider
func (g *Graph) StartNode(_ context.Context, boardID string) (string, error) {
	b, err := g.board(boardID)
	if err != nil {
		return "", err
	}
	return b.StartNode, nil
}

// FirstNode 实现 Provider
func (g *Graph) FirstNode(_ context.Context, boardID string) (Node, error) {
	b, err := g.board(boardID)
	if err != nil {
		return Node{}, err
	}
	return b.Nodes[0].Clone(), nil
}

// MaxPlayers 返回地图允许的最大玩家数，未配置时为 0
func (g *Graph) MaxPlayers(boardID string) int {
	if b, ok := g.boards[boardID]; ok {
		return b.MaxPlayers
	}
	return 0
}

// walkForward 沿出边前进，遇到死路时提前停止
func (b *Board) walkForward(from string, steps int) Route {
	cur := from
	path := []string{from}
	for range steps {
		next, ok := pickEdge(b.outgoing[cur], func(e Edge) string { return e.To })
		if !ok {
			break
		}
		cur = next
		path = append(path, cur)
	}
	return Route{Destination: cur, Path: path}
}

// walkBackward 沿入边后退，遇到死路时提前停止
func (b *Board) walkBackward(from string, steps int) Route {
	cur := from
	path := []string{from}
	for range steps {
		prev, ok := pickEdge(b.incoming[cur], func(e Edge) string { return e.From })
		if !ok {
			break
		}
		cur = prev
		path = append(path, cur)
	}
	return Route{Destination: cur, Path: path}
}

// pickEdge 按优先级选出一条边，同优先级取定义顺序中的第一条
func pickEdge(edges []Edge, end func(Edge) string) (string, bool) {
	best := -1
	for i, e := range edges {
		if best == -1 || edgePriority[e.Type] < edgePriority[edges[best].Type] {
			best = i
		}
	}
	if best == -1 {
		return "", false
	}
	return end(edges[best]), true
}
