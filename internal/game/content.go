package game

import "context"

// Prompt 挑战内容（单词或一句对话），对引擎来说只用于判定
type Prompt struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Accepted []string `json:"accepted,omitempty"` // 词汇挑战可接受的答案（原文与译文）
}

// ChallengeContext 请求挑战内容时附带的上下文
type ChallengeContext struct {
	SessionID  string
	PlayerID   int
	NodeID     string
	Topic      string // 节点挑战的标题或内容
	Turn       int    // 已完成的对话轮数
	LastAnswer string
}

// ContentProvider 挑战内容来源（词库、对话后端）
type ContentProvider interface {
	NextPrompt(ctx context.Context, kind ChallengeKind, cc ChallengeContext) (Prompt, error)
}

func (p Prompt) toMap() map[string]any {
	accepted := make([]any, len(p.Accepted))
	for i, a := range p.Accepted {
		accepted[i] = a
	}
	return map[string]any{"id": p.ID, "text": p.Text, "accepted": accepted}
}

func promptFromMap(m map[string]any) Prompt {
	p := Prompt{}
	p.ID, _ = m["id"].(string)
	p.Text, _ = m["text"].(string)
	switch acc := m["accepted"].(type) {
	case []any:
		for _, a := range acc {
			if s, ok := a.(string); ok {
				p.Accepted = append(p.Accepted, s)
			}
		}
	case []string:
		p.Accepted = append(p.Accepted, acc...)
	}
	return p
}
