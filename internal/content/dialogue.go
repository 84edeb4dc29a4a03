package content

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/palemoky/lingo-monopoly/internal/game"
	"github.com/palemoky/lingo-monopoly/internal/logger"
	"github.com/palemoky/lingo-monopoly/internal/protocol"
	"github.com/palemoky/lingo-monopoly/internal/protocol/codec"
)

const (
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	handshakeTimeout = 10 * time.Second

	defaultRequestTimeout = 10 * time.Second
)

var (
	errClientClosed   = errors.New("dialogue client closed")
	errConnectionLost = errors.New("dialogue connection lost")
)

type promptResult struct {
	prompt game.Prompt
	err    error
}

// link 一条 WebSocket 连接及其上等待响应的请求
type link struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once

	mu      sync.Mutex
	pending map[string]chan promptResult
}

func (l *link) close() {
	l.once.Do(func() {
		close(l.done)
		_ = l.conn.Close()
	})
}

func (l *link) register(id string) chan promptResult {
	ch := make(chan promptResult, 1)
	l.mu.Lock()
	l.pending[id] = ch
	l.mu.Unlock()
	return ch
}

func (l *link) unregister(id string) {
	l.mu.Lock()
	delete(l.pending, id)
	l.mu.Unlock()
}

func (l *link) deliver(id string, res promptResult) {
	l.mu.Lock()
	ch, ok := l.pending[id]
	delete(l.pending, id)
	l.mu.Unlock()
	if ok {
		ch <- res
	}
}

// DialogueClient 情境对话服务客户端。
// 连接在第一次请求时建立，断开后下一次请求会重新连接。
type DialogueClient struct {
	url     string
	timeout time.Duration
	topic   string // 请求未指定话题时使用

	seq atomic.Uint64

	mu     sync.Mutex
	link   *link
	closed bool
}

// NewDialogueClient 创建客户端；timeout <= 0 时使用默认超时
func NewDialogueClient(url string, timeout time.Duration, topic string) *DialogueClient {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &DialogueClient{url: url, timeout: timeout, topic: topic}
}

// connect 返回当前连接，没有则拨号
func (c *DialogueClient) connect(ctx context.Context) (*link, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, errClientClosed
	}
	if c.link != nil {
		return c.link, nil
	}

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return nil, err
	}

	l := &link{
		conn:    conn,
		send:    make(chan []byte, 16),
		done:    make(chan struct{}),
		pending: make(map[string]chan promptResult),
	}
	c.link = l
	go c.readPump(l)
	go c.writePump(l)
	logger.LogInfo("已连接对话服务 %s", c.url)
	return l, nil
}

// drop 关闭连接，等待中的请求由 done 通知失败
func (c *DialogueClient) drop(l *link) {
	l.close()
	c.mu.Lock()
	if c.link == l {
		c.link = nil
	}
	c.mu.Unlock()
}

// NextPrompt 实现 game.ContentProvider
func (c *DialogueClient) NextPrompt(ctx context.Context, kind game.ChallengeKind, cc game.ChallengeContext) (game.Prompt, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	l, err := c.connect(ctx)
	if err != nil {
		return game.Prompt{}, fmt.Errorf("dialogue connect: %w", err)
	}

	topic := cc.Topic
	if topic == "" {
		topic = c.topic
	}
	req := protocol.PromptRequestPayload{
		RequestID:  fmt.Sprintf("%s-%d", cc.SessionID, c.seq.Add(1)),
		Kind:       kind.String(),
		SessionID:  cc.SessionID,
		PlayerID:   cc.PlayerID,
		NodeID:     cc.NodeID,
		Topic:      topic,
		Turn:       cc.Turn,
		LastAnswer: cc.LastAnswer,
	}
	msg, err := protocol.NewMessage(protocol.MsgPromptRequest, req)
	if err != nil {
		return game.Prompt{}, err
	}
	data, err := codec.Encode(msg)
	if err != nil {
		return game.Prompt{}, err
	}

	ch := l.register(req.RequestID)
	defer l.unregister(req.RequestID)

	select {
	case l.send <- data:
	case <-l.done:
		return game.Prompt{}, errConnectionLost
	case <-ctx.Done():
		return game.Prompt{}, fmt.Errorf("dialogue request %s: %w", req.RequestID, ctx.Err())
	}

	select {
	case res := <-ch:
		return res.prompt, res.err
	case <-l.done:
		return game.Prompt{}, errConnectionLost
	case <-ctx.Done():
		return game.Prompt{}, fmt.Errorf("dialogue request %s: %w", req.RequestID, ctx.Err())
	}
}

// Close 关闭客户端
func (c *DialogueClient) Close() {
	c.mu.Lock()
	c.closed = true
	l := c.link
	c.link = nil
	c.mu.Unlock()
	if l != nil {
		_ = l.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		l.close()
	}
}

// readPump 读取响应并交给等待中的请求
func (c *DialogueClient) readPump(l *link) {
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
		}
		c.drop(l)
	}()

	_ = l.conn.SetReadDeadline(time.Now().Add(pongWait))
	l.conn.SetPongHandler(func(string) error {
		_ = l.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := l.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.LogWarn("对话服务连接断开: %v", err)
			}
			return
		}

		msg, err := codec.Decode(data)
		if err != nil {
			logger.LogWarn("对话消息解析错误: %v", err)
			continue
		}
		handleMessage(l, msg)
		codec.PutMessage(msg)
	}
}

func handleMessage(l *link, msg *protocol.Message) {
	switch msg.Type {
	case protocol.MsgPrompt:
		p, err := protocol.ParsePayload[protocol.PromptPayload](msg)
		if err != nil {
			logger.LogWarn("对话内容解析错误: %v", err)
			return
		}
		l.deliver(p.RequestID, promptResult{prompt: game.Prompt{ID: p.ID, Text: p.Text, Accepted: p.Accepted}})
	case protocol.MsgError:
		p, err := protocol.ParsePayload[protocol.ErrorPayload](msg)
		if err != nil {
			logger.LogWarn("错误消息解析错误: %v", err)
			return
		}
		l.deliver(p.RequestID, promptResult{err: fmt.Errorf("dialogue error %d: %s", p.Code, p.Message)})
	default:
		logger.LogWarn("未知的对话消息类型: %s", msg.Type)
	}
}

// writePump 串行写出请求并定时发送 ping
func (c *DialogueClient) writePump(l *link) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
		}
		ticker.Stop()
		c.drop(l)
	}()

	for {
		select {
		case message := <-l.send:
			_ = l.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := l.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = l.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := l.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-l.done:
			return
		}
	}
}
