package realtime

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"teamhub/internal/service"
)

// JoinProject 处理 join_project：项目成员授权 -> 入房 -> 确认与到达
// 通知 -> 历史回放。未授权的连接不会被加入房间。
func (h *Hub) JoinProject(c *Client, projectID uint) {
	logCtx := logrus.WithFields(logrus.Fields{"user_id": c.UserID(), "project_id": projectID})
	ctx := context.Background()

	isMember, err := h.projects.IsMember(ctx, projectID, c.UserID())
	if err != nil {
		h.sendServiceError(c, err, "failed to join project")
		return
	}
	if !isMember {
		logCtx.Warn("Unauthorized project room join rejected")
		h.sendError(c, service.ErrAccessDenied.Error())
		return
	}

	projectName, err := h.projects.GetProjectName(ctx, projectID)
	if err != nil {
		h.sendServiceError(c, err, "failed to join project")
		return
	}

	roomID := ProjectRoomID(projectID)
	h.mu.Lock()
	others := h.addToRoomLocked(c, roomID)
	h.mu.Unlock()

	h.sendEvent(c, EventJoinedProject, JoinedProjectPayload{ProjectID: projectID, ProjectName: projectName})
	h.emit(others, EventUserJoined, UserJoinedPayload{
		User:   c.identity.Username,
		UserID: c.UserID(),
		Email:  c.identity.Email,
	})
	logCtx.WithField("room_id", roomID).Info("Client joined project room")

	h.sendHistory(c, roomID, service.RoomTarget{ProjectID: &projectID}, nil)
}

// LeaveProject 处理 leave_project。离开一个从未加入的房间是 no-op。
func (h *Hub) LeaveProject(c *Client, projectID uint) {
	h.leaveChatRoom(c, ProjectRoomID(projectID))
}

// JoinGlobal 处理 join_global：任何已认证连接都可以加入全站聊天。
func (h *Hub) JoinGlobal(c *Client) {
	ctx := context.Background()

	conv, err := h.chat.FindOrCreateGlobal(ctx)
	if err != nil {
		h.sendServiceError(c, err, "failed to join global chat")
		return
	}

	h.mu.Lock()
	h.convRooms[conv.ID] = GlobalRoomID
	others := h.addToRoomLocked(c, GlobalRoomID)
	h.mu.Unlock()

	h.emit(others, EventUserJoined, UserJoinedPayload{
		User:   c.identity.Username,
		UserID: c.UserID(),
		Email:  c.identity.Email,
	})
	logrus.WithField("user_id", c.UserID()).Info("Client joined global room")

	convID := conv.ID
	h.sendHistory(c, GlobalRoomID, service.RoomTarget{ConversationID: &convID}, &convID)
}

// JoinDM 处理 join_dm：任意两个已认证身份之间都允许私聊。
// 会话由存储层查找或创建，房间键按用户 ID 升序，与方向无关。
func (h *Hub) JoinDM(c *Client, otherUserID uint) {
	logCtx := logrus.WithFields(logrus.Fields{"user_id": c.UserID(), "peer_id": otherUserID})
	ctx := context.Background()

	if otherUserID == 0 || otherUserID == c.UserID() {
		h.sendError(c, "invalid DM target")
		return
	}

	conv, err := h.chat.FindOrCreateDM(ctx, c.UserID(), otherUserID)
	if err != nil {
		h.sendServiceError(c, err, "failed to join DM")
		return
	}

	roomID := DMRoomID(c.UserID(), otherUserID)
	h.mu.Lock()
	h.convRooms[conv.ID] = roomID
	others := h.addToRoomLocked(c, roomID)
	h.mu.Unlock()

	h.emit(others, EventUserJoined, UserJoinedPayload{
		User:   c.identity.Username,
		UserID: c.UserID(),
		Email:  c.identity.Email,
	})
	logCtx.WithField("room_id", roomID).Info("Client joined DM room")

	convID := conv.ID
	h.sendHistory(c, roomID, service.RoomTarget{ConversationID: &convID}, &convID)
}

// SendMessage 处理 send_message：校验 -> 成员检查 -> 持久化 -> 全房间
// 广播。与到达/离开通知不同，消息会回送给发送者本身：客户端依赖这次
// 往返拿到服务端分配的 ID 和时间戳。
func (h *Hub) SendMessage(c *Client, p SendMessagePayload) {
	ctx := context.Background()
	target := service.RoomTarget{ProjectID: p.ProjectID, ConversationID: p.ConversationID}

	roomID, ok := h.resolveRoom(target)
	if !ok {
		h.sendError(c, "join the room before sending messages")
		return
	}
	if !h.IsMember(c, roomID) {
		logrus.WithFields(logrus.Fields{"user_id": c.UserID(), "room_id": roomID}).
			Warn("Message to room the connection has not joined")
		h.sendError(c, "not a member of this room")
		return
	}

	message, err := h.chat.SendMessage(ctx, c.UserID(), target, p.Content)
	if err != nil {
		h.sendServiceError(c, err, "failed to send message")
		return
	}

	// 包含发送者在内的全员扇出
	h.emit(h.roomMembers(roomID, nil), EventReceiveMessage, ReceiveMessagePayload{Message: *message})
}

// resolveRoom 将消息归属映射到房间路由键。会话目标依赖加入时登记的
// convRooms 映射：没有登记说明连接从未加入过该会话的房间。
func (h *Hub) resolveRoom(target service.RoomTarget) (string, bool) {
	if target.ProjectID != nil && target.ConversationID == nil {
		return ProjectRoomID(*target.ProjectID), true
	}
	if target.ConversationID != nil && target.ProjectID == nil {
		h.mu.Lock()
		roomID, ok := h.convRooms[*target.ConversationID]
		h.mu.Unlock()
		return roomID, ok
	}
	return "", false
}

// sendHistory 向加入者单播房间最近的历史消息 (最旧在前)。
// 历史只发给加入者本人，不广播。
func (h *Hub) sendHistory(c *Client, roomID string, target service.RoomTarget, convID *uint) {
	messages, err := h.chat.RecentMessages(context.Background(), target, h.historyLimit)
	if err != nil {
		h.sendServiceError(c, err, "failed to load chat history")
		return
	}
	h.sendEvent(c, EventChatHistory, ChatHistoryPayload{
		RoomID:         roomID,
		ConversationID: convID,
		Messages:       messages,
	})
}

// leaveChatRoom 是聊天类房间 (project/global/dm) 的公共离开路径。
func (h *Hub) leaveChatRoom(c *Client, roomID string) {
	h.mu.Lock()
	// 残留的输入指示随离开一起清除
	var typingStopped bool
	if entry, ok := h.typing[roomID][c.UserID()]; ok && entry.client == c {
		entry.timer.Stop()
		h.removeTypingLocked(roomID, c.UserID())
		typingStopped = true
	}
	remaining, was := h.removeFromRoomLocked(c, roomID)
	h.mu.Unlock()

	if !was {
		return // 从未加入：no-op，不报错也不广播
	}
	if typingStopped {
		h.emit(remaining, EventUserStopTyping, TypingBroadcastPayload{
			UserID:   c.UserID(),
			UserName: c.identity.Username,
			RoomID:   roomID,
		})
	}
	h.emit(remaining, EventUserLeft, UserLeftPayload{User: c.identity.Username, UserID: c.UserID()})
	logrus.WithFields(logrus.Fields{"user_id": c.UserID(), "room_id": roomID}).Info("Client left room")
}

// sendServiceError 将业务层错误映射为回送给发起方的 error_message。
// 校验与授权类错误原样透出；其余只给出通用提示，细节留在服务端日志。
func (h *Hub) sendServiceError(c *Client, err error, generic string) {
	switch {
	case errors.Is(err, service.ErrEmptyMessage),
		errors.Is(err, service.ErrMessageTooLong),
		errors.Is(err, service.ErrInvalidRoomTarget),
		errors.Is(err, service.ErrAccessDenied),
		errors.Is(err, service.ErrProjectNotFound),
		errors.Is(err, service.ErrConversationNotFound),
		errors.Is(err, service.ErrDocumentNotFound),
		errors.Is(err, service.ErrUserNotFound):
		h.sendError(c, err.Error())
	default:
		logrus.WithError(err).WithField("user_id", c.UserID()).Error("Upstream failure handling client event")
		h.sendError(c, generic)
	}
}
