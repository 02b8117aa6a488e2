// Package realtime 实现持久连接服务器的核心：连接注册、房间路由、
// 在线状态与输入指示跟踪、聊天与协作文档的事件扇出。
package realtime

import (
	"encoding/json"
	"time"

	"teamhub/internal/domain"
)

// 入站事件名。事件集合是封闭的：Dispatch 中的 switch 穷举所有事件，
// 未知事件只回送 error_message，不注册任何动态回调表。
const (
	EventJoinProject   = "join_project"
	EventLeaveProject  = "leave_project"
	EventJoinGlobal    = "join_global"
	EventJoinDM        = "join_dm"
	EventSendMessage   = "send_message"
	EventTyping        = "typing"
	EventStopTyping    = "stop-typing"
	EventJoinDocument  = "join-document"
	EventSendChanges   = "send-changes"
	EventSaveDocument  = "save-document"
	EventLeaveDocument = "leave-document"
)

// 出站事件名。
const (
	EventWelcome            = "welcome"
	EventJoinedProject      = "joined_project"
	EventUserJoined         = "user_joined"
	EventUserLeft           = "user_left"
	EventChatHistory        = "chat_history"
	EventReceiveMessage     = "receive_message"
	EventErrorMessage       = "error_message"
	EventOnlineUsers        = "online-users"
	EventUserTyping         = "user-typing"
	EventUserStopTyping     = "user-stop-typing"
	EventLoadDocument       = "load-document"
	EventReceiveChanges     = "receive-changes"
	EventDocumentSaved      = "document-saved"
	EventDocumentSavedOther = "document-saved-by-other"
	EventUserJoinedDocument = "user-joined-document"
	EventUserLeftDocument   = "user-left-document"
)

// Envelope 是 WebSocket 文本帧上的统一消息格式。
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// --- 入站事件负载 ---

// ProjectPayload 携带项目 ID (join_project / leave_project / 文档事件共用)。
type ProjectPayload struct {
	ProjectID uint `json:"projectId"`
}

// JoinDMPayload 携带私聊对端的用户 ID。
type JoinDMPayload struct {
	UserID uint `json:"userId"`
}

// SendMessagePayload 携带消息归属 (项目或会话，二选一) 与内容。
type SendMessagePayload struct {
	ProjectID      *uint  `json:"projectId,omitempty"`
	ConversationID *uint  `json:"conversationId,omitempty"`
	Content        string `json:"content"`
}

// TypingPayload 携带输入指示的目标房间。
type TypingPayload struct {
	RoomID string `json:"roomId"`
}

// SendChangesPayload 携带文档房间的整文内容 (不做 diff，原样转发)。
type SendChangesPayload struct {
	ProjectID uint   `json:"projectId"`
	Delta     string `json:"delta"`
}

// SaveDocumentPayload 携带显式保存的内容与标题。
type SaveDocumentPayload struct {
	ProjectID uint   `json:"projectId"`
	Content   string `json:"content"`
	Title     string `json:"title"`
}

// --- 出站事件负载 ---

// MessagePayload 只包含一个提示信息 (welcome / error_message)。
type MessagePayload struct {
	Message string `json:"message"`
}

// JoinedProjectPayload 是加入项目房间的确认。
type JoinedProjectPayload struct {
	ProjectID   uint   `json:"projectId"`
	ProjectName string `json:"projectName"`
}

// UserJoinedPayload 通知房间有新成员到达。
type UserJoinedPayload struct {
	User   string `json:"user"`
	UserID uint   `json:"userId"`
	Email  string `json:"email"`
}

// UserLeftPayload 通知房间有成员离开。
type UserLeftPayload struct {
	User   string `json:"user"`
	UserID uint   `json:"userId"`
}

// ChatHistoryPayload 向加入者单播房间历史消息 (最旧在前)。
// ConversationID 在会话类房间中携带，客户端发消息时需要它。
type ChatHistoryPayload struct {
	RoomID         string           `json:"roomId"`
	ConversationID *uint            `json:"conversationId,omitempty"`
	Messages       []domain.Message `json:"messages"`
}

// ReceiveMessagePayload 是消息广播，包含持久化后的完整消息。
type ReceiveMessagePayload struct {
	Message domain.Message `json:"message"`
}

// OnlineUsersPayload 是全站在线用户列表快照。
type OnlineUsersPayload struct {
	Users []domain.Identity `json:"users"`
}

// TypingBroadcastPayload 是输入指示的开始/停止广播。
type TypingBroadcastPayload struct {
	UserID   uint   `json:"userId"`
	UserName string `json:"userName"`
	RoomID   string `json:"roomId"`
}

// LoadDocumentPayload 向加入者单播文档当前状态。
type LoadDocumentPayload struct {
	Content     string    `json:"content"`
	Title       string    `json:"title"`
	Version     uint      `json:"version"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// ReceiveChangesPayload 是文档内容变更的转发。
type ReceiveChangesPayload struct {
	Delta     string    `json:"delta"`
	UserID    uint      `json:"userId"`
	UserName  string    `json:"userName"`
	Timestamp time.Time `json:"timestamp"`
}

// DocumentSavedPayload 是保存成功对保存者的确认。
type DocumentSavedPayload struct {
	Success     bool      `json:"success"`
	Version     uint      `json:"version"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// DocumentSavedOtherPayload 通知其他编辑者有人保存了文档 (不重发内容)。
type DocumentSavedOtherPayload struct {
	UserName    string    `json:"userName"`
	Version     uint      `json:"version"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// DocumentPresencePayload 通知文档房间编辑者进入/离开。
type DocumentPresencePayload struct {
	UserName string `json:"userName"`
	UserID   uint   `json:"userId"`
}

// encodeEvent 将事件打包为发往客户端的 JSON 帧。
func encodeEvent(event string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}
