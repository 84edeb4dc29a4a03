package game

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/palemoky/lingo-monopoly/internal/apperrors"
	"github.com/palemoky/lingo-monopoly/internal/board"
)

// ChallengeKind 挑战种类
type ChallengeKind int

const (
	KindVocabulary ChallengeKind = iota
	KindScenario
	KindTrain
)

func (k ChallengeKind) String() string {
	switch k {
	case KindVocabulary:
		return "vocabulary"
	case KindScenario:
		return "scenario"
	case KindTrain:
		return "train"
	default:
		return fmt.Sprintf("ChallengeKind(%d)", int(k))
	}
}

// ChallengeState 挑战状态：NotStarted → InProgress → Success|Failure
type ChallengeState int

const (
	ChallengeNotStarted ChallengeState = iota
	ChallengeInProgress
	ChallengeSuccess
	ChallengeFailure
)

func (s ChallengeState) String() string {
	switch s {
	case ChallengeNotStarted:
		return "not_started"
	case ChallengeInProgress:
		return "in_progress"
	case ChallengeSuccess:
		return "success"
	case ChallengeFailure:
		return "failure"
	default:
		return fmt.Sprintf("ChallengeState(%d)", int(s))
	}
}

// Challenge 进行中的挑战，结算后即丢弃
type Challenge struct {
	Kind     ChallengeKind  `json:"kind"`
	State    ChallengeState `json:"state"`
	PlayerID int            `json:"player_id"`
	NodeID   string         `json:"node_id"`
	Topic    string         `json:"topic,omitempty"`
	Turns    int            `json:"turns"`
	Prompt   Prompt         `json:"prompt"`
	Reward   int            `json:"reward"`
	Penalty  int            `json:"penalty"`
}

// ChallengeReport 挑战的当前进展或最终结果
type ChallengeReport struct {
	Kind             ChallengeKind
	State            ChallengeState
	PlayerID         int
	Turns            int
	Prompt           *Prompt // 仍在进行时的下一条内容
	CurrencyDelta    int
	ShortcutUnlocked bool
}

// challengeKindFor 由节点挑战内容推导挑战种类
func challengeKindFor(node board.Node) ChallengeKind {
	if node.Challenge == nil {
		if node.Type == board.NodeVocabulary {
			return KindVocabulary
		}
		return KindScenario
	}
	switch node.Challenge.Type {
	case "vocabulary":
		return KindVocabulary
	case "train":
		return KindTrain
	default:
		return KindScenario
	}
}

// NormalizeAnswer 统一全半角、大小写并合并空白
func NormalizeAnswer(s string) string {
	s = norm.NFKC.String(s)
	s = cases.Fold().String(s)
	return strings.Join(strings.Fields(s), " ")
}

// MatchVocabulary 答案与任一可接受形式完全一致（归一化后）
func MatchVocabulary(answer string, accepted []string) bool {
	a := NormalizeAnswer(answer)
	if a == "" {
		return false
	}
	for _, form := range accepted {
		if NormalizeAnswer(form) == a {
			return true
		}
	}
	return false
}

func (t *transition) startChallenge(p *Player, node board.Node, kind ChallengeKind) error {
	ch := Challenge{
		Kind:     kind,
		State:    ChallengeNotStarted,
		PlayerID: p.ID,
		NodeID:   node.ID,
		Topic:    node.Name,
	}
	if c := node.Challenge; c != nil {
		ch.Reward = c.Reward
		ch.Penalty = c.Penalty
		if c.Title != "" {
			ch.Topic = c.Title
		}
	}

	prompt, err := t.fetchPrompt(&ch, "")
	if err != nil {
		return err
	}
	ch.Prompt = prompt
	ch.State = ChallengeInProgress

	t.s.Challenge = &ch
	t.s.Phase = PhaseChallengePending
	t.s.NodeOptions = nil
	t.s.Landed = &node

	t.record(p, ActionChallenge, fmt.Sprintf("%s 开始%s挑战：%s", p.Name, kindLabel(kind), ch.Topic), map[string]any{
		"kind":       kind.String(),
		"node":       node.ID,
		"state":      ch.State.String(),
		DetailPrompt: prompt.toMap(),
	})
	t.out.Challenge = &ChallengeReport{
		Kind:     kind,
		State:    ch.State,
		PlayerID: p.ID,
		Prompt:   &prompt,
	}
	return nil
}

func (t *transition) fetchPrompt(ch *Challenge, lastAnswer string) (Prompt, error) {
	if t.env.Content == nil {
		return Prompt{}, fmt.Errorf("%w: no content provider", apperrors.ErrContentUnavailable)
	}
	prompt, err := t.env.Content.NextPrompt(t.ctx, ch.Kind, ChallengeContext{
		SessionID:  t.s.ID,
		PlayerID:   ch.PlayerID,
		NodeID:     ch.NodeID,
		Topic:      ch.Topic,
		Turn:       ch.Turns,
		LastAnswer: lastAnswer,
	})
	if err != nil {
		return Prompt{}, fmt.Errorf("%w: %v", apperrors.ErrContentUnavailable, err)
	}
	return prompt, nil
}

func (t *transition) submitAnswer(e SubmitAnswer) error {
	ch := t.s.Challenge
	if t.s.Phase != PhaseChallengePending || ch == nil || ch.State != ChallengeInProgress {
		return t.illegal("submit answer")
	}
	answer := strings.TrimSpace(e.Answer)
	if answer == "" {
		return apperrors.ErrEmptyAnswer
	}
	p := t.s.Player(ch.PlayerID)
	if p == nil {
		return apperrors.ErrPlayerNotFound
	}

	details := map[string]any{
		"kind":   ch.Kind.String(),
		"node":   ch.NodeID,
		"answer": answer,
	}

	if ch.Kind == KindVocabulary {
		state := ChallengeFailure
		if MatchVocabulary(answer, ch.Prompt.Accepted) {
			state = ChallengeSuccess
		}
		t.resolveChallenge(p, ch, state, details)
		return nil
	}

	ch.Turns++
	details["turn"] = ch.Turns
	if ch.Turns >= ScenarioTurnsToPass {
		t.resolveChallenge(p, ch, ChallengeSuccess, details)
		return nil
	}

	prompt, err := t.fetchPrompt(ch, answer)
	if err != nil {
		return err
	}
	ch.Prompt = prompt
	details["state"] = ch.State.String()
	details[DetailPrompt] = prompt.toMap()
	t.record(p, ActionChallenge, fmt.Sprintf("%s 完成第 %d 轮对话", p.Name, ch.Turns), t.commandDetails(details))
	t.out.Challenge = &ChallengeReport{
		Kind:     ch.Kind,
		State:    ch.State,
		PlayerID: p.ID,
		Turns:    ch.Turns,
		Prompt:   &prompt,
	}
	return nil
}

func (t *transition) forfeitChallenge() error {
	ch := t.s.Challenge
	if t.s.Phase != PhaseChallengePending || ch == nil || ch.State != ChallengeInProgress {
		return t.illegal("forfeit challenge")
	}
	p := t.s.Player(ch.PlayerID)
	if p == nil {
		return apperrors.ErrPlayerNotFound
	}
	t.resolveChallenge(p, ch, ChallengeFailure, map[string]any{
		"kind":      ch.Kind.String(),
		"node":      ch.NodeID,
		"turn":      ch.Turns,
		"forfeited": true,
	})
	return nil
}

// resolveChallenge 结算奖惩，火车挑战成功时授予捷径特权，然后结束回合
func (t *transition) resolveChallenge(p *Player, ch *Challenge, state ChallengeState, details map[string]any) {
	ch.State = state

	delta := -ch.Penalty
	if state == ChallengeSuccess {
		delta = ch.Reward
		if ch.Kind == KindTrain {
			p.Shortcut.UnlockedForNextMove = true
		}
	}
	p.Currency += delta

	details["state"] = state.String()
	details["currency_delta"] = delta
	details["shortcut_unlocked"] = p.Shortcut.UnlockedForNextMove

	result := "失败"
	if state == ChallengeSuccess {
		result = "成功"
	}
	t.record(p, ActionChallenge, fmt.Sprintf("%s %s挑战%s", p.Name, kindLabel(ch.Kind), result), t.commandDetails(details))
	t.out.Challenge = &ChallengeReport{
		Kind:             ch.Kind,
		State:            state,
		PlayerID:         p.ID,
		Turns:            ch.Turns,
		CurrencyDelta:    delta,
		ShortcutUnlocked: state == ChallengeSuccess && ch.Kind == KindTrain,
	}
	t.endTurn()
}

func kindLabel(k ChallengeKind) string {
	switch k {
	case KindVocabulary:
		return "词汇"
	case KindTrain:
		return "火车"
	default:
		return "情景"
	}
}
