package board

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 测试地图：S0 -> A -> B -> C -> D -> S0 环路，B 另有 branch 到 X -> Y -> D
const testBoardYAML = `
boards:
  - id: loop
    name: 测试环路
    start_node: S0
    max_players: 4
    nodes:
      - {id: S0, name: 起点, type: go}
      - {id: A, name: 地产, type: property}
      - id: B
        name: 火车站
        type: challenge
        challenge: {type: train, title: 火车挑战, reward: 50, penalty: 20}
      - {id: C, name: 机会, type: chance}
      - {id: D, name: 修路, type: stop, stop: road_construction}
      - {id: X, name: 支线一, type: special}
      - {id: Y, name: 支线二, type: shortcut, shortcut: {target: S0}}
    edges:
      - {from: S0, to: A}
      - {from: A, to: B}
      - {from: B, to: X, type: branch}
      - {from: B, to: C}
      - {from: C, to: D}
      - {from: D, to: S0}
      - {from: X, to: Y, type: conditional}
      - {from: Y, to: D}
`

func newTestGraph(t *testing.T) *Graph {
	t.Helper()
	g, err := Parse([]byte(testBoardYAML))
	require.NoError(t, err)
	return g
}

func TestParse_NodeTypes(t *testing.T) {
	t.Parallel()
	g := newTestGraph(t)
	ctx := context.Background()

	start, err := g.GetNode(ctx, "loop", "S0")
	require.NoError(t, err)
	assert.Equal(t, NodeStart, start.Type)

	b, err := g.GetNode(ctx, "loop", "B")
	require.NoError(t, err)
	require.NotNil(t, b.Challenge)
	assert.Equal(t, "train", b.Challenge.Type)
	assert.Equal(t, 50, b.Challenge.Reward)

	d, err := g.GetNode(ctx, "loop", "D")
	require.NoError(t, err)
	assert.Equal(t, StopRoadConstruction, d.Stop)

	assert.Equal(t, 4, g.MaxPlayers("loop"))
}

func TestGetNode_ReturnsCopy(t *testing.T) {
	t.Parallel()
	g := newTestGraph(t)
	ctx := context.Background()

	b, err := g.GetNode(ctx, "loop", "B")
	require.NoError(t, err)
	b.Challenge.Reward = 999

	again, err := g.GetNode(ctx, "loop", "B")
	require.NoError(t, err)
	assert.Equal(t, 50, again.Challenge.Reward)
}

func TestGetNode_NotFound(t *testing.T) {
	t.Parallel()
	g := newTestGraph(t)
	ctx := context.Background()

	_, err := g.GetNode(ctx, "loop", "ZZ")
	assert.ErrorIs(t, err, ErrNodeNotFound)

	_, err = g.GetNode(ctx, "nope", "S0")
	assert.ErrorIs(t, err, ErrBoardNotFound)
}

func TestComputeMove_PrimaryPrefersNormalEdges(t *testing.T) {
	t.Parallel()
	g := newTestGraph(t)

	opts, err := g.ComputeMove(context.Background(), "loop", "A", 3, false)
	require.NoError(t, err)
	assert.Equal(t, "D", opts.Primary.Destination)
	assert.Equal(t, []string{"A", "B", "C", "D"}, opts.Primary.Path)
	assert.Nil(t, opts.Alternate)
}

func TestComputeMove_AlternateOnlyWithPrivilege(t *testing.T) {
	t.Parallel()
	g := newTestGraph(t)
	ctx := context.Background()

	opts, err := g.ComputeMove(ctx, "loop", "B", 2, false)
	require.NoError(t, err)
	assert.Nil(t, opts.Alternate)

	opts, err = g.ComputeMove(ctx, "loop", "B", 2, true)
	require.NoError(t, err)
	assert.Equal(t, "D", opts.Primary.Destination)
	require.NotNil(t, opts.Alternate)
	assert.Equal(t, "Y", opts.Alternate.Destination)
	assert.Equal(t, []string{"B", "X", "Y"}, opts.Alternate.Path)
}

func TestComputeMove_NoBranchEdge(t *testing.T) {
	t.Parallel()
	g := newTestGraph(t)

	opts, err := g.ComputeMove(context.Background(), "loop", "A", 1, true)
	require.NoError(t, err)
	assert.Nil(t, opts.Alternate)
}

func TestComputeMove_CrossesStart(t *testing.T) {
	t.Parallel()
	g := newTestGraph(t)

	opts, err := g.ComputeMove(context.Background(), "loop", "C", 4, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "D", "S0", "A", "B"}, opts.Primary.Path)
}

func TestComputeMove_InvalidDice(t *testing.T) {
	t.Parallel()
	g := newTestGraph(t)

	_, err := g.ComputeMove(context.Background(), "loop", "A", 0, false)
	assert.Error(t, err)
}

func TestAdvance_Backward(t *testing.T) {
	t.Parallel()
	g := newTestGraph(t)

	route, err := g.Advance(context.Background(), "loop", "A", -2)
	require.NoError(t, err)
	assert.Equal(t, "D", route.Destination)
	assert.Equal(t, []string{"A", "S0", "D"}, route.Path)
}

func TestAdvance_DeadEndStopsEarly(t *testing.T) {
	t.Parallel()
	g, err := NewGraph(Board{
		ID:        "line",
		StartNode: "a",
		Nodes:     []Node{{ID: "a"}, {ID: "b"}},
		Edges:     []Edge{{From: "a", To: "b"}},
	})
	require.NoError(t, err)

	route, err := g.Advance(context.Background(), "line", "a", 5)
	require.NoError(t, err)
	assert.Equal(t, "b", route.Destination)
}

func TestStartAndFirstNode(t *testing.T) {
	t.Parallel()
	g := newTestGraph(t)
	ctx := context.Background()

	start, err := g.StartNode(ctx, "loop")
	require.NoError(t, err)
	assert.Equal(t, "S0", start)

	first, err := g.FirstNode(ctx, "loop")
	require.NoError(t, err)
	assert.Equal(t, "S0", first.ID)
}

func TestNewGraph_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		board Board
	}{
		{"missing id", Board{StartNode: "a", Nodes: []Node{{ID: "a"}}}},
		{"no nodes", Board{ID: "x"}},
		{"bad start", Board{ID: "x", StartNode: "z", Nodes: []Node{{ID: "a"}}}},
		{"duplicate node", Board{ID: "x", StartNode: "a", Nodes: []Node{{ID: "a"}, {ID: "a"}}}},
		{"dangling edge", Board{ID: "x", StartNode: "a", Nodes: []Node{{ID: "a"}}, Edges: []Edge{{From: "a", To: "q"}}}},
		{"bad edge type", Board{ID: "x", StartNode: "a", Nodes: []Node{{ID: "a"}}, Edges: []Edge{{From: "a", To: "a", Type: "warp"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGraph(tt.board)
			assert.Error(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "board.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testBoardYAML), 0o644))

	g, err := LoadFile(path)
	require.NoError(t, err)
	start, err := g.StartNode(context.Background(), "loop")
	require.NoError(t, err)
	assert.Equal(t, "S0", start)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseNodeType(t *testing.T) {
	t.Parallel()

	nt, err := ParseNodeType("go")
	require.NoError(t, err)
	assert.Equal(t, NodeStart, nt)

	nt, err = ParseNodeType("reward")
	require.NoError(t, err)
	assert.Equal(t, NodeReward, nt)

	_, err = ParseNodeType("casino")
	assert.Error(t, err)
}

func TestLoadFile_ShippedTrafficBoard(t *testing.T) {
	g, err := LoadFile(filepath.Join("..", "..", "configs", "board.yaml"))
	require.NoError(t, err)
	ctx := context.Background()

	start, err := g.StartNode(ctx, "traffic")
	require.NoError(t, err)
	assert.Equal(t, "S0", start)
	assert.Equal(t, 4, g.MaxPlayers("traffic"))

	// 外圈一圈 37 步回到起点
	opts, err := g.ComputeMove(ctx, "traffic", "36", 1, false)
	require.NoError(t, err)
	assert.Equal(t, "S0", opts.Primary.Destination)

	// 火车站支线只在持有特权时出现
	opts, err = g.ComputeMove(ctx, "traffic", "18", 2, true)
	require.NoError(t, err)
	assert.Equal(t, "20", opts.Primary.Destination)
	require.NotNil(t, opts.Alternate)
	assert.Equal(t, "38", opts.Alternate.Destination)

	n, err := g.GetNode(ctx, "traffic", "27")
	require.NoError(t, err)
	assert.Equal(t, NodeStop, n.Type)
	assert.Equal(t, StopRoadConstruction, n.Stop)
}
