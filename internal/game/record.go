package game

import "time"

// ActionType 记录类型
type ActionType string

const (
	ActionDiceRoll   ActionType = "dice_roll"
	ActionMove       ActionType = "move"
	ActionChallenge  ActionType = "challenge"
	ActionBankruptcy ActionType = "bankruptcy"
	ActionShortcut   ActionType = "shortcut"
	ActionVictory    ActionType = "victory"
	ActionAbandon    ActionType = "abandon"
)

// 记录详情中的保留字段
const (
	DetailCommand = "command" // 触发该记录的宿主指令，每条指令恰好一条
	DetailPrompt  = "prompt"  // 本次从内容源取到的挑战内容
)

// ActionRecord 追加到历史记录的一条动作，写入后不再修改。
// Details 只包含 string/bool/数字/[]any/map[string]any，便于各种存储编码。
type ActionRecord struct {
	Timestamp   time.Time      `json:"timestamp"`
	PlayerID    int            `json:"player_id"`
	PlayerName  string         `json:"player_name"`
	ActionType  ActionType     `json:"action_type"`
	Description string         `json:"description"`
	Details     map[string]any `json:"details,omitempty"`
}

// Command 返回记录携带的宿主指令
func (r ActionRecord) Command() (Event, bool, error) {
	m, ok := r.Details[DetailCommand].(map[string]any)
	if !ok {
		return nil, false, nil
	}
	ev, err := DecodeCommand(m)
	if err != nil {
		return nil, true, err
	}
	return ev, true, nil
}

// Prompt 返回记录携带的挑战内容
func (r ActionRecord) Prompt() (Prompt, bool) {
	m, ok := r.Details[DetailPrompt].(map[string]any)
	if !ok {
		return Prompt{}, false
	}
	return promptFromMap(m), true
}
