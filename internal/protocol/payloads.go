package protocol

// --- 引擎请求 Payloads ---

// PromptRequestPayload 请求下一句对话
type PromptRequestPayload struct {
	RequestID  string `json:"request_id"`
	Kind       string `json:"kind"` // vocabulary/scenario/train
	SessionID  string `json:"session_id"`
	PlayerID   int    `json:"player_id"`
	NodeID     string `json:"node_id"`
	Topic      string `json:"topic,omitempty"`
	Turn       int    `json:"turn"`                  // 已完成的对话轮数
	LastAnswer string `json:"last_answer,omitempty"` // 玩家上一轮的回答
}

// --- 对话服务响应 Payloads ---

// PromptPayload 对话内容
type PromptPayload struct {
	RequestID string   `json:"request_id"`
	ID        string   `json:"id"`
	Text      string   `json:"text"`
	Accepted  []string `json:"accepted,omitempty"`
}

// ErrorPayload 错误响应
type ErrorPayload struct {
	RequestID string `json:"request_id,omitempty"`
	Code      int    `json:"code"`
	Message   string `json:"message"`
}
