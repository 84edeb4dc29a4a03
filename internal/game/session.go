package game

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/palemoky/lingo-monopoly/internal/apperrors"
)

// NewSession 创建一局游戏，所有玩家站在起点，1 号玩家先手
func NewSession(ctx context.Context, env Env, id, boardID string, names []string, startingCurrency int) (Session, error) {
	if len(names) < MinPlayers || len(names) > MaxPlayers {
		return Session{}, fmt.Errorf("%w: got %d", apperrors.ErrInvalidPlayerCount, len(names))
	}
	start, err := env.Board.StartNode(ctx, boardID)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidBoardReference, err)
	}

	players := make([]Player, len(names))
	for i, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			name = fmt.Sprintf("玩家%d", i+1)
		}
		players[i] = Player{
			ID:            i + 1,
			Name:          name,
			CurrentNodeID: start,
			Status:        PlayerActive,
			Currency:      startingCurrency,
		}
	}
	players[0].IsCurrentTurn = true

	return Session{
		ID:        id,
		BoardID:   boardID,
		Players:   players,
		Status:    StatusInProgress,
		StartedAt: env.now(),
		Phase:     PhaseAwaitingRoll,
		Turn:      1,
	}, nil
}

// Clone 深拷贝
func (s Session) Clone() Session {
	out := s
	out.Players = make([]Player, len(s.Players))
	for i, p := range s.Players {
		p.Items = slices.Clone(p.Items)
		out.Players[i] = p
	}
	if s.Winner != nil {
		w := *s.Winner
		out.Winner = &w
	}
	if s.PendingMove != nil {
		pm := *s.PendingMove
		pm.Primary.Path = slices.Clone(pm.Primary.Path)
		pm.Alternate.Path = slices.Clone(pm.Alternate.Path)
		out.PendingMove = &pm
	}
	if s.Landed != nil {
		n := s.Landed.Clone()
		out.Landed = &n
	}
	out.NodeOptions = slices.Clone(s.NodeOptions)
	if s.Challenge != nil {
		c := *s.Challenge
		c.Prompt.Accepted = slices.Clone(c.Prompt.Accepted)
		out.Challenge = &c
	}
	return out
}

// CurrentPlayer 当前回合玩家；对局结束后返回 nil
func (s *Session) CurrentPlayer() *Player {
	if s.Status != StatusInProgress || s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Players) {
		return nil
	}
	return &s.Players[s.CurrentIndex]
}

// Player 按 ID 查找玩家
func (s *Session) Player(id int) *Player {
	for i := range s.Players {
		if s.Players[i].ID == id {
			return &s.Players[i]
		}
	}
	return nil
}

// ActiveCount 未破产的玩家数
func (s *Session) ActiveCount() int {
	n := 0
	for i := range s.Players {
		if s.Players[i].Active() {
			n++
		}
	}
	return n
}
