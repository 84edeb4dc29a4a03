// Package game 实现回合引擎的纯状态转换：移动、回合调度、挑战、卡牌和胜负判定。
//
// 所有转换都通过 Apply 完成：输入旧的 Session 和一个事件，返回新的 Session
// 以及本次产生的记录和结果，旧值保持不变。
package game

import (
	"fmt"
	"time"

	"github.com/palemoky/lingo-monopoly/internal/board"
)

const (
	// LapsToWin 获胜所需圈数
	LapsToWin = 3
	// ScenarioTurnsToPass 情景/火车挑战判定成功所需的对话轮数
	ScenarioTurnsToPass = 3
	// MinPlayers / MaxPlayers 玩家人数范围
	MinPlayers = 2
	MaxPlayers = 4
)

// 胜利原因
const (
	ReasonLaps       = "3 laps"
	ReasonBankruptcy = "opponents bankrupt"
)

// SessionStatus 对局状态
type SessionStatus int

const (
	StatusInProgress SessionStatus = iota
	StatusCompleted
	StatusAbandoned
)

func (s SessionStatus) String() string {
	switch s {
	case StatusInProgress:
		return "in_progress"
	case StatusCompleted:
		return "completed"
	case StatusAbandoned:
		return "abandoned"
	default:
		return fmt.Sprintf("SessionStatus(%d)", int(s))
	}
}

// PlayerStatus 玩家状态
type PlayerStatus int

const (
	PlayerActive PlayerStatus = iota
	PlayerBankrupt
)

func (s PlayerStatus) String() string {
	if s == PlayerBankrupt {
		return "bankrupt"
	}
	return "active"
}

// Phase 回合内的阶段
type Phase int

const (
	PhaseAwaitingRoll        Phase = iota // 等待当前玩家掷骰（或扫描卡牌）
	PhaseAwaitingPathChoice               // 持有捷径特权，等待选择路线
	PhaseAwaitingNodeChoice               // 落在地产/加油站/捷径格，等待选择
	PhaseChallengePending                 // 挑战进行中
	PhaseAwaitingAcknowledge              // 机会/奖励格，等待确认或扫描卡牌
	PhaseFinished                         // 对局结束
)

var phaseNames = map[Phase]string{
	PhaseAwaitingRoll:        "awaiting_roll",
	PhaseAwaitingPathChoice:  "awaiting_path_choice",
	PhaseAwaitingNodeChoice:  "awaiting_node_choice",
	PhaseChallengePending:    "challenge_pending",
	PhaseAwaitingAcknowledge: "awaiting_acknowledge",
	PhaseFinished:            "finished",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// ShortcutPrivilege 一次性的捷径选择权
type ShortcutPrivilege struct {
	UnlockedForNextMove bool `json:"unlocked_for_next_move"`
}

// Player 对局中的玩家
type Player struct {
	ID            int               `json:"id"` // 1..N
	Name          string            `json:"name"`
	CurrentNodeID string            `json:"current_node_id"`
	LapCount      int               `json:"lap_count"`
	Status        PlayerStatus      `json:"status"`
	Currency      int               `json:"currency"`
	Shortcut      ShortcutPrivilege `json:"shortcut"`
	Pause         PauseSet          `json:"pause"`
	IsCurrentTurn bool              `json:"is_current_turn"`
	Items         []string          `json:"items,omitempty"`
}

// Active 是否仍在对局中
func (p *Player) Active() bool {
	return p.Status == PlayerActive
}

// Winner 获胜信息
type Winner struct {
	PlayerID int    `json:"player_id"`
	Reason   string `json:"reason"`
}

// PendingMove 等待选择路线的移动
type PendingMove struct {
	PlayerID  int         `json:"player_id"`
	Dice      int         `json:"dice"`
	Primary   board.Route `json:"primary"`
	Alternate board.Route `json:"alternate"`
}

// Session 一局游戏的完整状态
type Session struct {
	ID        string        `json:"id"`
	BoardID   string        `json:"board_id"`
	Players   []Player      `json:"players"`
	Status    SessionStatus `json:"status"`
	Winner    *Winner       `json:"winner,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	EndedAt   time.Time     `json:"ended_at,omitzero"`

	Phase        Phase        `json:"phase"`
	CurrentIndex int          `json:"current_index"`
	Turn         int          `json:"turn"`
	PendingMove  *PendingMove `json:"pending_move,omitempty"`
	Landed       *board.Node  `json:"landed,omitempty"`
	NodeOptions  []NodeOption `json:"node_options,omitempty"`
	Challenge    *Challenge   `json:"challenge,omitempty"`
}
