package realtime

import (
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"teamhub/internal/domain"
)

// presenceEntry 是在线表的一个条目，每个身份至多一条。
// 同一身份的第二个连接会替换第一个的跟踪 (旧连接被显式关闭)。
type presenceEntry struct {
	client      *Client
	identity    domain.Identity
	rooms       map[string]bool
	connectedAt time.Time
}

// frameDelivery 是一组在持锁期间算好、解锁后才投递的广播。
type frameDelivery struct {
	targets []*Client
	event   string
	payload interface{}
}

// Register 将已认证的连接登记到 Hub：写入在线表 (替换同一身份的旧
// 条目)、发送欢迎事件，并向所有连接广播刷新后的在线用户列表。
func (h *Hub) Register(c *Client) {
	logCtx := logrus.WithFields(logrus.Fields{"user_id": c.UserID(), "username": c.identity.Username})

	var pending []frameDelivery
	var stale *Client

	h.mu.Lock()
	if e, ok := h.presence[c.UserID()]; ok {
		// 同一身份重连：旧连接的全部状态按断开处理
		stale = e.client
		pending = h.cleanupClientLocked(stale)
		delete(h.clients, stale)
		close(stale.done)
	}
	h.clients[c] = true
	h.presence[c.UserID()] = &presenceEntry{
		client:      c,
		identity:    c.identity,
		rooms:       make(map[string]bool),
		connectedAt: c.connectedAt,
	}
	online := h.onlineSnapshotLocked()
	everyone := h.allClientsLocked()
	h.mu.Unlock()

	if stale != nil {
		stale.CloseConn()
		logCtx.Info("Replaced stale connection for reconnecting user")
	}
	for _, d := range pending {
		h.emit(d.targets, d.event, d.payload)
	}

	h.sendEvent(c, EventWelcome, MessagePayload{Message: "Connected to teamhub realtime server"})
	h.emit(everyone, EventOnlineUsers, OnlineUsersPayload{Users: online})
	logCtx.WithField("online_count", len(online)).Info("Client registered")
}

// Unregister 将连接从 Hub 中移除并执行完整清理：退出所有房间并通知
// 剩余成员、为每个仍标记输入中的房间广播停止输入、删除在线条目、
// 向所有连接广播刷新后的在线列表。清理作为一个逻辑步骤在锁内计算，
// 其他连接不会观察到部分清理的中间状态。
func (h *Hub) Unregister(c *Client, reason string) {
	logCtx := logrus.WithFields(logrus.Fields{"user_id": c.UserID(), "reason": reason})

	h.mu.Lock()
	if !h.clients[c] {
		// 已被同一身份的新连接替换并清理过
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	pending := h.cleanupClientLocked(c)
	close(c.done)
	online := h.onlineSnapshotLocked()
	everyone := h.allClientsLocked()
	h.mu.Unlock()

	for _, d := range pending {
		h.emit(d.targets, d.event, d.payload)
	}
	h.emit(everyone, EventOnlineUsers, OnlineUsersPayload{Users: online})
	logCtx.WithField("online_count", len(online)).Info("Client unregistered")
}

// cleanupClientLocked 释放连接持有的全部房间/输入指示/在线状态，
// 返回需要在解锁后投递的离开与停止输入广播。调用者必须持锁。
func (h *Hub) cleanupClientLocked(c *Client) []frameDelivery {
	var pending []frameDelivery
	uid := c.UserID()

	e, ok := h.presence[uid]
	if !ok || e.client != c {
		return pending
	}

	for roomID := range e.rooms {
		// 房间内残留的输入指示先于离开通知清掉
		if entry, ok := h.typing[roomID][uid]; ok && entry.client == c {
			entry.timer.Stop()
			h.removeTypingLocked(roomID, uid)
			pending = append(pending, frameDelivery{
				targets: h.roomMembersLocked(roomID, c),
				event:   EventUserStopTyping,
				payload: TypingBroadcastPayload{UserID: uid, UserName: e.identity.Username, RoomID: roomID},
			})
		}

		remaining, was := h.removeFromRoomLocked(c, roomID)
		if !was {
			continue
		}
		if pid, isDoc := parseProjectRoom(roomID, "document:"); isDoc {
			pending = append(pending, frameDelivery{
				targets: remaining,
				event:   EventUserLeftDocument,
				payload: DocumentPresencePayload{UserName: e.identity.Username, UserID: uid},
			})
			h.releaseDocStateLocked(pid)
		} else {
			pending = append(pending, frameDelivery{
				targets: remaining,
				event:   EventUserLeft,
				payload: UserLeftPayload{User: e.identity.Username, UserID: uid},
			})
		}
	}

	delete(h.presence, uid)
	return pending
}

// onlineSnapshotLocked 以在线表为唯一事实来源重算在线用户列表。
// 按用户 ID 升序，广播因此是确定性的。调用者必须持锁。
func (h *Hub) onlineSnapshotLocked() []domain.Identity {
	users := make([]domain.Identity, 0, len(h.presence))
	for _, e := range h.presence {
		users = append(users, e.identity)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

func (h *Hub) allClientsLocked() []*Client {
	out := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		out = append(out, c)
	}
	return out
}

// OnlineUsers 返回当前在线用户列表快照 (按用户 ID 升序)。
func (h *Hub) OnlineUsers() []domain.Identity {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.onlineSnapshotLocked()
}
