package domain

import "time"

// MaxMessageLength 是聊天消息去除首尾空白后允许的最大长度。
const MaxMessageLength = 2000

// Message 表示一条持久化的聊天消息。
// 不变量：ProjectID 和 ConversationID 必须恰好有一个非空 (由 Service 层保证)。
type Message struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ProjectID      *uint     `gorm:"index:idx_msg_project" json:"projectId,omitempty"`
	ConversationID *uint     `gorm:"index:idx_msg_conversation" json:"conversationId,omitempty"`
	SenderID       uint      `gorm:"index;not null" json:"senderId"`
	Content        string    `gorm:"type:varchar(2000);not null" json:"content"`
	CreatedAt      time.Time `gorm:"autoCreateTime;index" json:"createdAt"`

	Sender User `gorm:"foreignKey:SenderID" json:"sender"`
}
