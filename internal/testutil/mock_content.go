//go:build !production

package testutil

import (
	"context"
	"fmt"

	"github.com/stretchr/testify/mock"

	"github.com/palemoky/lingo-monopoly/internal/game"
)

// MockContentProvider 挑战内容 mock
type MockContentProvider struct {
	mock.Mock
}

func (m *MockContentProvider) NextPrompt(ctx context.Context, kind game.ChallengeKind, cc game.ChallengeContext) (game.Prompt, error) {
	args := m.Called(ctx, kind, cc)
	return args.Get(0).(game.Prompt), args.Error(1)
}

// SimpleContent 不做断言的内容源：词汇题固定为 apple/苹果，对话按轮次编号
type SimpleContent struct {
	Calls int
}

func (c *SimpleContent) NextPrompt(_ context.Context, kind game.ChallengeKind, cc game.ChallengeContext) (game.Prompt, error) {
	c.Calls++
	if kind == game.KindVocabulary {
		return game.Prompt{ID: fmt.Sprintf("word-%d", c.Calls), Text: "苹果", Accepted: []string{"apple", "苹果"}}, nil
	}
	return game.Prompt{ID: fmt.Sprintf("line-%d", c.Calls), Text: fmt.Sprintf("%s #%d", kind, cc.Turn+1)}, nil
}
