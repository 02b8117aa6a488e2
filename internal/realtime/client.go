package realtime

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"teamhub/internal/domain"
)

// 包级别的 WebSocket 常量。
const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	// 文档房间转发整文内容，需要比普通聊天大得多的上限。
	maxMessageSize = 256 * 1024

	// 每个客户端发送通道的缓冲区大小。
	sendBufferSize = 256
)

// Client 代表一个连接到 Hub 的、已通过握手认证的 WebSocket 连接。
type Client struct {
	hub         *Hub
	conn        *websocket.Conn // 测试中可以为 nil (不启动读写泵)
	identity    domain.Identity
	connectedAt time.Time
	send        chan []byte   // 用于向此客户端发送消息的缓冲通道
	done        chan struct{} // 注销时由 Hub 关闭。send 永不关闭：
	// 并发的扇出可能仍持有指向此客户端的成员快照。
}

// NewClient 创建一个新的 Client 实例。
func NewClient(hub *Hub, conn *websocket.Conn, identity domain.Identity) *Client {
	return &Client{
		hub:         hub,
		conn:        conn,
		identity:    identity,
		connectedAt: time.Now(),
		send:        make(chan []byte, sendBufferSize),
		done:        make(chan struct{}),
	}
}

// Identity 返回连接的认证身份。
func (c *Client) Identity() domain.Identity { return c.identity }

// UserID 返回连接的用户 ID。
func (c *Client) UserID() uint { return c.identity.ID }

// Run 启动客户端的读写 goroutine。
func (c *Client) Run() {
	go c.WritePump()
	go c.ReadPump()
}

// CloseConn 直接关闭底层连接 (注册失败等场景使用)。
func (c *Client) CloseConn() {
	if c.conn != nil {
		c.conn.Close()
	}
}

// ReadPump 将消息从 WebSocket 连接泵送到 Hub 的事件分发。
// 它在自己的 goroutine 中运行；退出时触发完整的断开清理。
func (c *Client) ReadPump() {
	logCtx := logrus.WithFields(logrus.Fields{"user_id": c.identity.ID, "username": c.identity.Username})
	defer func() {
		c.hub.Unregister(c, "read pump exited")
		c.conn.Close()
		logCtx.Info("readPump exited, client unregistered")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logCtx.WithError(err).Warn("WebSocket read error (unexpected close)")
			} else {
				logCtx.Debug("WebSocket connection closed normally or read error")
			}
			break
		}

		if messageType != websocket.TextMessage {
			logCtx.Debugf("Ignoring non-text message type: %d", messageType)
			continue
		}

		var env Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			logCtx.WithError(err).Warn("Failed to decode event envelope")
			c.hub.sendError(c, "invalid event format")
			continue
		}
		// 分发在读 goroutine 中同步执行：每个连接的事件保持到达顺序，
		// 存储调用只阻塞自己的连接，不持有任何共享锁。
		c.hub.Dispatch(c, env)
	}
}

// WritePump 将消息从 Client 的 send 通道泵送到 WebSocket 连接，
// 并按 pingPeriod 发送 Ping 以探测静默断开的连接。
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	logCtx := logrus.WithFields(logrus.Fields{"user_id": c.identity.ID, "username": c.identity.Username})
	defer func() {
		ticker.Stop()
		c.conn.Close()
		logCtx.Info("writePump exited")
	}()

	for {
		select {
		case <-c.done:
			// Hub 已注销此客户端 (断开或被同一身份的新连接替换)
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logCtx.WithError(err).Warn("Failed to write message to websocket")
				return
			}
			_ = c.conn.SetWriteDeadline(time.Time{})

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logCtx.WithError(err).Warn("Failed to send ping message")
				return
			}
			_ = c.conn.SetWriteDeadline(time.Time{})
		}
	}
}
