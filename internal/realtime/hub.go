package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"teamhub/internal/service"
)

// DefaultTypingTimeout 是输入指示的自动过期时间。
const DefaultTypingTimeout = 2 * time.Second

// Hub 维护所有活跃连接与三份共享可变状态：房间成员表、在线表、
// 输入指示表。所有映射的变更都在 h.mu 下串行化；持锁期间绝不做
// 网络或存储 I/O —— 扇出前先把目标成员列表拷贝出来。
type Hub struct {
	projects  *service.ProjectService
	chat      *service.ChatService
	documents *service.DocumentService

	typingTTL    time.Duration
	historyLimit int

	mu sync.Mutex
	// 所有已注册的连接
	clients map[*Client]bool
	// 按房间路由键组织的连接集合。空房间的键会被删除。
	rooms map[string]map[*Client]bool
	// 在线表，按用户 ID 键控。同一身份的新连接替换旧条目。
	presence map[uint]*presenceEntry
	// 输入指示表：房间 -> 正在输入的用户。
	typing map[string]map[uint]*typingEntry
	// 会话 ID 到房间路由键的映射，在加入 global/dm 房间时登记，
	// 供 send_message 按会话目标反查房间。
	convRooms map[uint]string
	// 活跃文档房间的瞬态状态 (标题 + 待自动保存的最新内容)。
	docs map[uint]*docRoomState
}

// docRoomState 是文档房间的瞬态记录。存储层始终是内容的权威副本；
// 这里只保留最近一次转发的内容，供定时自动保存冲刷。
type docRoomState struct {
	Title    string
	Dirty    bool
	Content  string
	EditorID uint
}

// DirtyDocument 是待自动保存的文档内容快照。
type DirtyDocument struct {
	ProjectID uint
	Content   string
	Title     string
	EditorID  uint
}

// NewHub 创建并返回一个新的 Hub 实例。
// typingTTL <= 0 时使用 DefaultTypingTimeout。
func NewHub(projects *service.ProjectService, chat *service.ChatService, documents *service.DocumentService, typingTTL time.Duration) *Hub {
	if projects == nil {
		panic("ProjectService cannot be nil for Hub")
	}
	if chat == nil {
		panic("ChatService cannot be nil for Hub")
	}
	if documents == nil {
		panic("DocumentService cannot be nil for Hub")
	}
	if typingTTL <= 0 {
		typingTTL = DefaultTypingTimeout
	}
	return &Hub{
		projects:     projects,
		chat:         chat,
		documents:    documents,
		typingTTL:    typingTTL,
		historyLimit: service.DefaultHistoryLimit,
		clients:      make(map[*Client]bool),
		rooms:        make(map[string]map[*Client]bool),
		presence:     make(map[uint]*presenceEntry),
		typing:       make(map[string]map[uint]*typingEntry),
		convRooms:    make(map[uint]string),
		docs:         make(map[uint]*docRoomState),
	}
}

// Dispatch 把一个入站事件路由到对应的处理方法。
// 事件集合是封闭的；未知事件只回送 error_message。
func (h *Hub) Dispatch(c *Client, env Envelope) {
	switch env.Event {
	case EventJoinProject:
		var p ProjectPayload
		if !h.decode(c, env.Data, &p) {
			return
		}
		h.JoinProject(c, p.ProjectID)
	case EventLeaveProject:
		var p ProjectPayload
		if !h.decode(c, env.Data, &p) {
			return
		}
		h.LeaveProject(c, p.ProjectID)
	case EventJoinGlobal:
		h.JoinGlobal(c)
	case EventJoinDM:
		var p JoinDMPayload
		if !h.decode(c, env.Data, &p) {
			return
		}
		h.JoinDM(c, p.UserID)
	case EventSendMessage:
		var p SendMessagePayload
		if !h.decode(c, env.Data, &p) {
			return
		}
		h.SendMessage(c, p)
	case EventTyping:
		var p TypingPayload
		if !h.decode(c, env.Data, &p) {
			return
		}
		h.StartTyping(c, p.RoomID)
	case EventStopTyping:
		var p TypingPayload
		if !h.decode(c, env.Data, &p) {
			return
		}
		h.StopTyping(c, p.RoomID)
	case EventJoinDocument:
		var p ProjectPayload
		if !h.decode(c, env.Data, &p) {
			return
		}
		h.JoinDocument(c, p.ProjectID)
	case EventSendChanges:
		var p SendChangesPayload
		if !h.decode(c, env.Data, &p) {
			return
		}
		h.SendChanges(c, p)
	case EventSaveDocument:
		var p SaveDocumentPayload
		if !h.decode(c, env.Data, &p) {
			return
		}
		h.SaveDocument(c, p)
	case EventLeaveDocument:
		var p ProjectPayload
		if !h.decode(c, env.Data, &p) {
			return
		}
		h.LeaveDocument(c, p.ProjectID)
	default:
		logrus.WithFields(logrus.Fields{"event": env.Event, "user_id": c.UserID()}).
			Warn("Received unknown event")
		h.sendError(c, "unknown event: "+env.Event)
	}
}

// decode 解析事件负载；失败时回送校验错误并返回 false。
func (h *Hub) decode(c *Client, data json.RawMessage, v interface{}) bool {
	if len(data) == 0 {
		h.sendError(c, "missing event payload")
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		logrus.WithError(err).WithField("user_id", c.UserID()).Warn("Failed to decode event payload")
		h.sendError(c, "invalid event payload")
		return false
	}
	return true
}

// --- 房间成员表的底层操作 ---

// addToRoomLocked 将连接加入房间并登记到其在线条目。调用者必须持锁。
// 返回加入前已在房间中的其他连接。
func (h *Hub) addToRoomLocked(c *Client, roomID string) []*Client {
	members, ok := h.rooms[roomID]
	if !ok {
		members = make(map[*Client]bool)
		h.rooms[roomID] = members
	}
	others := make([]*Client, 0, len(members))
	for m := range members {
		if m != c {
			others = append(others, m)
		}
	}
	members[c] = true
	if e, ok := h.presence[c.UserID()]; ok && e.client == c {
		e.rooms[roomID] = true
	}
	return others
}

// removeFromRoomLocked 将连接移出房间。调用者必须持锁。
// 返回剩余成员和该连接此前是否在房间中。房间清空时删除路由键。
func (h *Hub) removeFromRoomLocked(c *Client, roomID string) ([]*Client, bool) {
	members, ok := h.rooms[roomID]
	if !ok || !members[c] {
		return nil, false
	}
	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, roomID)
	}
	if e, ok := h.presence[c.UserID()]; ok && e.client == c {
		delete(e.rooms, roomID)
	}
	remaining := make([]*Client, 0, len(members))
	for m := range members {
		remaining = append(remaining, m)
	}
	return remaining, true
}

// roomMembers 返回房间成员的快照，排除 exclude (可为 nil)。
func (h *Hub) roomMembers(roomID string, exclude *Client) []*Client {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.roomMembersLocked(roomID, exclude)
}

func (h *Hub) roomMembersLocked(roomID string, exclude *Client) []*Client {
	members := h.rooms[roomID]
	out := make([]*Client, 0, len(members))
	for m := range members {
		if m != exclude {
			out = append(out, m)
		}
	}
	return out
}

// IsMember 报告连接当前是否在指定房间中。
func (h *Hub) IsMember(c *Client, roomID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rooms[roomID][c]
}

// --- 扇出 ---

// emit 将事件发送给一组连接。编码一次，逐个非阻塞投递：
// 单个慢客户端的发送队列满时丢弃该客户端的这一帧，不阻塞其他接收者。
func (h *Hub) emit(targets []*Client, event string, payload interface{}) {
	if len(targets) == 0 {
		return
	}
	frame, err := encodeEvent(event, payload)
	if err != nil {
		logrus.WithError(err).WithField("event", event).Error("Failed to encode event")
		return
	}
	for _, c := range targets {
		h.deliver(c, event, frame)
	}
}

// sendEvent 向单个连接发送事件。
func (h *Hub) sendEvent(c *Client, event string, payload interface{}) {
	h.emit([]*Client{c}, event, payload)
}

// sendError 向单个连接回送错误提示。错误只发给发起方，绝不广播。
func (h *Hub) sendError(c *Client, message string) {
	h.sendEvent(c, EventErrorMessage, MessagePayload{Message: message})
}

func (h *Hub) deliver(c *Client, event string, frame []byte) {
	select {
	case c.send <- frame:
	default:
		logrus.WithFields(logrus.Fields{"user_id": c.UserID(), "event": event}).
			Warn("Client send channel full, dropping frame")
	}
}

// Broadcast 将事件发送给房间内除 exclude 外的所有连接。
func (h *Hub) Broadcast(roomID, event string, payload interface{}, exclude *Client) {
	h.emit(h.roomMembers(roomID, exclude), event, payload)
}
