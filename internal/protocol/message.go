// Package protocol 定义引擎与情境对话服务之间的 WebSocket 消息
package protocol

import "encoding/json"

// Message 基础消息结构
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MessageType 消息类型
type MessageType string

// 引擎 → 对话服务
const (
	MsgPromptRequest MessageType = "prompt_request" // 请求下一句对话/题目
)

// 对话服务 → 引擎
const (
	MsgPrompt MessageType = "prompt" // 对话内容
	MsgError  MessageType = "error"  // 错误消息
)

// NewMessage 创建一个新消息
func NewMessage(msgType MessageType, payload any) (*Message, error) {
	var data json.RawMessage
	if payload != nil {
		var err error
		data, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	return &Message{
		Type:    msgType,
		Payload: data,
	}, nil
}

// MustNewMessage 创建消息，失败时 panic
func MustNewMessage(msgType MessageType, payload any) *Message {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		panic(err)
	}
	return msg
}

// ParsePayload 解析消息的 Payload 到指定类型
func ParsePayload[T any](msg *Message) (*T, error) {
	var payload T
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// NewErrorMessage 创建错误消息
func NewErrorMessage(requestID string, code int) *Message {
	return MustNewMessage(MsgError, ErrorPayload{
		RequestID: requestID,
		Code:      code,
		Message:   ErrorMessages[code],
	})
}
