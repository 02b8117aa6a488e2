package realtime

import (
	"time"

	"github.com/sirupsen/logrus"
)

// typingEntry 记录一个 (用户, 房间) 的输入指示及其过期定时器。
// 定时器在每次新的 typing 事件上重新武装；未被重新武装则恰好触发一次。
// gen 区分定时器的代次：已触发但还在等锁的旧定时器不得清除
// 刚被重新武装的条目。
type typingEntry struct {
	client *Client
	timer  *time.Timer
	gen    uint64
}

// StartTyping 将用户标记为在房间中输入。首次标记时向房间内其他成员
// 广播 user-typing；重复的 typing 事件只重置过期定时器，不再广播。
func (h *Hub) StartTyping(c *Client, roomID string) {
	uid := c.UserID()

	h.mu.Lock()
	if !h.rooms[roomID][c] {
		h.mu.Unlock()
		h.sendError(c, "not a member of this room")
		return
	}

	entries, ok := h.typing[roomID]
	if !ok {
		entries = make(map[uint]*typingEntry)
		h.typing[roomID] = entries
	}

	if entry, already := entries[uid]; already {
		// 重新武装过期定时器
		entry.timer.Stop()
		entry.gen++
		gen := entry.gen
		entry.client = c
		entry.timer = time.AfterFunc(h.typingTTL, func() { h.expireTyping(c, roomID, gen) })
		h.mu.Unlock()
		return
	}

	entry := &typingEntry{client: c, gen: 1}
	entry.timer = time.AfterFunc(h.typingTTL, func() { h.expireTyping(c, roomID, 1) })
	entries[uid] = entry
	others := h.roomMembersLocked(roomID, c)
	h.mu.Unlock()

	h.emit(others, EventUserTyping, TypingBroadcastPayload{
		UserID:   uid,
		UserName: c.identity.Username,
		RoomID:   roomID,
	})
}

// StopTyping 显式清除输入指示。重复调用是 no-op：
// 至多产生一次 user-stop-typing 广播。
func (h *Hub) StopTyping(c *Client, roomID string) {
	uid := c.UserID()

	h.mu.Lock()
	entry, ok := h.typing[roomID][uid]
	if !ok || entry.client != c {
		h.mu.Unlock()
		return
	}
	entry.timer.Stop()
	h.removeTypingLocked(roomID, uid)
	others := h.roomMembersLocked(roomID, c)
	h.mu.Unlock()

	h.emit(others, EventUserStopTyping, TypingBroadcastPayload{
		UserID:   uid,
		UserName: c.identity.Username,
		RoomID:   roomID,
	})
}

// expireTyping 由过期定时器触发，走与显式停止相同的移除与广播路径。
// 只有代次仍然匹配的条目会被清除：触发后才被重新武装或显式停止的
// 定时器在这里变成 no-op。
func (h *Hub) expireTyping(c *Client, roomID string, gen uint64) {
	uid := c.UserID()

	h.mu.Lock()
	entry, ok := h.typing[roomID][uid]
	if !ok || entry.client != c || entry.gen != gen {
		h.mu.Unlock()
		return
	}
	h.removeTypingLocked(roomID, uid)
	others := h.roomMembersLocked(roomID, c)
	h.mu.Unlock()

	logrus.WithFields(logrus.Fields{"user_id": uid, "room_id": roomID}).
		Debug("Typing indicator expired")
	h.emit(others, EventUserStopTyping, TypingBroadcastPayload{
		UserID:   uid,
		UserName: c.identity.Username,
		RoomID:   roomID,
	})
}

// removeTypingLocked 删除输入指示条目，集合清空时删除房间键。
// 调用者必须持锁并已停止定时器。
func (h *Hub) removeTypingLocked(roomID string, uid uint) {
	entries := h.typing[roomID]
	delete(entries, uid)
	if len(entries) == 0 {
		delete(h.typing, roomID)
	}
}

// TypingUsers 返回房间内当前标记为输入中的用户 ID 集合。
func (h *Hub) TypingUsers(roomID string) []uint {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]uint, 0, len(h.typing[roomID]))
	for uid := range h.typing[roomID] {
		out = append(out, uid)
	}
	return out
}
