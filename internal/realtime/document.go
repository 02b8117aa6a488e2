package realtime

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"teamhub/internal/service"
)

// JoinDocument 处理 join-document：与项目聊天房间相同的成员授权，
// 通过后懒加载文档、入房、向加入者单播文档当前状态，并向已在房间的
// 编辑者通告新成员。
func (h *Hub) JoinDocument(c *Client, projectID uint) {
	logCtx := logrus.WithFields(logrus.Fields{"user_id": c.UserID(), "project_id": projectID})
	ctx := context.Background()

	isMember, err := h.projects.IsMember(ctx, projectID, c.UserID())
	if err != nil {
		h.sendServiceError(c, err, "failed to join document")
		return
	}
	if !isMember {
		logCtx.Warn("Unauthorized document room join rejected")
		h.sendError(c, service.ErrAccessDenied.Error())
		return
	}

	doc, err := h.documents.LoadOrCreate(ctx, projectID)
	if err != nil {
		h.sendServiceError(c, err, "failed to load document")
		return
	}

	roomID := DocumentRoomID(projectID)
	h.mu.Lock()
	others := h.addToRoomLocked(c, roomID)
	if state, ok := h.docs[projectID]; ok {
		state.Title = doc.Title
	} else {
		h.docs[projectID] = &docRoomState{Title: doc.Title}
	}
	h.mu.Unlock()

	h.sendEvent(c, EventLoadDocument, LoadDocumentPayload{
		Content:     doc.Content,
		Title:       doc.Title,
		Version:     doc.Version,
		LastUpdated: doc.UpdatedAt,
	})
	h.emit(others, EventUserJoinedDocument, DocumentPresencePayload{
		UserName: c.identity.Username,
		UserID:   c.UserID(),
	})
	logCtx.WithField("room_id", roomID).Info("Client joined document room")
}

// SendChanges 处理 send-changes：把整文内容转发给房间内除发送者外的
// 所有编辑者 (最后写入者胜出，不做合并)，并在瞬态状态中记下最新内容
// 供定时自动保存冲刷。转发不触碰存储层。
func (h *Hub) SendChanges(c *Client, p SendChangesPayload) {
	roomID := DocumentRoomID(p.ProjectID)

	h.mu.Lock()
	if !h.rooms[roomID][c] {
		h.mu.Unlock()
		h.sendError(c, "not a member of this document")
		return
	}
	state, ok := h.docs[p.ProjectID]
	if !ok {
		state = &docRoomState{}
		h.docs[p.ProjectID] = state
	}
	state.Dirty = true
	state.Content = p.Delta
	state.EditorID = c.UserID()
	others := h.roomMembersLocked(roomID, c)
	h.mu.Unlock()

	h.emit(others, EventReceiveChanges, ReceiveChangesPayload{
		Delta:     p.Delta,
		UserID:    c.UserID(),
		UserName:  c.identity.Username,
		Timestamp: time.Now(),
	})
}

// SaveDocument 处理 save-document：显式持久化。保存者收到带新版本号
// 的确认，其他编辑者收到不含内容的保存通知 (内容他们已经通过
// receive-changes 拿到了)。
func (h *Hub) SaveDocument(c *Client, p SaveDocumentPayload) {
	roomID := DocumentRoomID(p.ProjectID)
	if !h.IsMember(c, roomID) {
		h.sendError(c, "not a member of this document")
		return
	}

	doc, err := h.documents.Save(context.Background(), p.ProjectID, p.Content, p.Title, c.UserID())
	if err != nil {
		h.sendServiceError(c, err, "failed to save document")
		return
	}

	h.mu.Lock()
	if state, ok := h.docs[p.ProjectID]; ok {
		state.Title = doc.Title
		state.Content = doc.Content
		state.Dirty = false
	}
	others := h.roomMembersLocked(roomID, c)
	h.mu.Unlock()

	h.sendEvent(c, EventDocumentSaved, DocumentSavedPayload{
		Success:     true,
		Version:     doc.Version,
		LastUpdated: doc.UpdatedAt,
	})
	h.emit(others, EventDocumentSavedOther, DocumentSavedOtherPayload{
		UserName:    c.identity.Username,
		Version:     doc.Version,
		LastUpdated: doc.UpdatedAt,
	})
	logrus.WithFields(logrus.Fields{
		"user_id":    c.UserID(),
		"project_id": p.ProjectID,
		"version":    doc.Version,
	}).Info("Document saved explicitly")
}

// LeaveDocument 处理 leave-document。从未加入是 no-op。
func (h *Hub) LeaveDocument(c *Client, projectID uint) {
	roomID := DocumentRoomID(projectID)

	h.mu.Lock()
	remaining, was := h.removeFromRoomLocked(c, roomID)
	if was {
		h.releaseDocStateLocked(projectID)
	}
	h.mu.Unlock()

	if !was {
		return
	}
	h.emit(remaining, EventUserLeftDocument, DocumentPresencePayload{
		UserName: c.identity.Username,
		UserID:   c.UserID(),
	})
	logrus.WithFields(logrus.Fields{"user_id": c.UserID(), "room_id": roomID}).Info("Client left document room")
}

// releaseDocStateLocked 在文档房间清空且没有待冲刷内容时丢弃瞬态状态。
// 脏状态保留到下一次自动保存冲刷，不随最后一个编辑者离开而丢失。
// 调用者必须持锁。
func (h *Hub) releaseDocStateLocked(projectID uint) {
	state, ok := h.docs[projectID]
	if !ok {
		return
	}
	if _, active := h.rooms[DocumentRoomID(projectID)]; active {
		return
	}
	if state.Dirty {
		return
	}
	delete(h.docs, projectID)
}

// DrainDirtyDocuments 取走所有待自动保存的文档内容快照并把它们标记为
// 已冲刷。房间已清空的文档的瞬态状态随冲刷一起释放。由后台自动保存
// 任务周期性调用。
func (h *Hub) DrainDirtyDocuments() []DirtyDocument {
	h.mu.Lock()
	defer h.mu.Unlock()

	var dirty []DirtyDocument
	for pid, state := range h.docs {
		if !state.Dirty {
			continue
		}
		dirty = append(dirty, DirtyDocument{
			ProjectID: pid,
			Content:   state.Content,
			Title:     state.Title,
			EditorID:  state.EditorID,
		})
		state.Dirty = false
		if _, active := h.rooms[DocumentRoomID(pid)]; !active {
			delete(h.docs, pid)
		}
	}
	return dirty
}
