package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/palemoky/lingo-monopoly/internal/game"
)

var errPromptsExhausted = errors.New("recorded prompts exhausted")

// recordedPrompts 按记录顺序返回历史中保存的挑战内容
type recordedPrompts struct {
	mu      sync.Mutex
	prompts []game.Prompt
	next    int
}

func newRecordedPrompts(records []game.ActionRecord) *recordedPrompts {
	rp := &recordedPrompts{}
	for _, r := range records {
		if p, ok := r.Prompt(); ok {
			rp.prompts = append(rp.prompts, p)
		}
	}
	return rp
}

func (rp *recordedPrompts) NextPrompt(_ context.Context, _ game.ChallengeKind, _ game.ChallengeContext) (game.Prompt, error) {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	if rp.next >= len(rp.prompts) {
		return game.Prompt{}, errPromptsExhausted
	}
	p := rp.prompts[rp.next]
	rp.next++
	return p, nil
}

// Replay 在一个全新的引擎上按顺序重放历史中的指令，返回最终状态。
// 挑战内容使用历史中保存的内容，因此不依赖外部内容源。
func (e *Engine) Replay(ctx context.Context, h History) (game.Session, error) {
	if h.Meta.SessionID == "" {
		return game.Session{}, errors.New("history has no session id")
	}

	fresh := New(e.board, newRecordedPrompts(h.Records), NewMemoryJournal(),
		WithClock(e.now),
		WithStartingCurrency(h.Meta.StartingCurrency),
	)
	if _, err := fresh.create(ctx, h.Meta); err != nil {
		return game.Session{}, fmt.Errorf("replay create: %w", err)
	}

	for i, r := range h.Records {
		ev, ok, err := r.Command()
		if err != nil {
			return game.Session{}, fmt.Errorf("replay record %d: %w", i, err)
		}
		if !ok {
			continue
		}
		if _, err := fresh.Apply(ctx, h.Meta.SessionID, ev); err != nil {
			return game.Session{}, fmt.Errorf("replay record %d (%s): %w", i, ev.Command(), err)
		}
	}
	return fresh.GetSessionState(h.Meta.SessionID)
}
