package content

import (
	"context"
	"errors"

	"github.com/palemoky/lingo-monopoly/internal/game"
	"github.com/palemoky/lingo-monopoly/internal/logger"
)

// Provider 组合内容源：词汇题来自本地题库；
// 情境和火车站对话优先走对话服务，失败时回退到本地题库。
type Provider struct {
	deck     *Deck
	dialogue game.ContentProvider
}

// NewProvider 创建组合内容源，dialogue 可以为 nil
func NewProvider(deck *Deck, dialogue game.ContentProvider) *Provider {
	return &Provider{deck: deck, dialogue: dialogue}
}

// NextPrompt 实现 game.ContentProvider
func (p *Provider) NextPrompt(ctx context.Context, kind game.ChallengeKind, cc game.ChallengeContext) (game.Prompt, error) {
	if kind != game.KindVocabulary && p.dialogue != nil {
		prompt, err := p.dialogue.NextPrompt(ctx, kind, cc)
		if err == nil {
			return prompt, nil
		}
		if p.deck == nil {
			return game.Prompt{}, err
		}
		logger.WithSession(cc.SessionID).WithError(err).Warn("对话服务不可用，改用本地题库")
	}
	if p.deck == nil {
		return game.Prompt{}, errors.New("no content source configured")
	}
	return p.deck.NextPrompt(ctx, kind, cc)
}
