package domain

import "time"

// 会话类型。
const (
	ConversationGlobal = "global" // 全站聊天，所有用户可见
	ConversationDM     = "dm"     // 两个用户之间的私聊
)

// Conversation 表示项目之外的聊天范围：全局聊天室或两人私聊。
// DM 会话必须且只能有两个参与者 (Service 层保证)。
type Conversation struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Type      string    `gorm:"type:varchar(16);index;not null" json:"type"` // global | dm
	Name      string    `gorm:"type:varchar(100)" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`

	Participants []User `gorm:"many2many:conversation_participants" json:"participants,omitempty"`
}

// HasParticipant 检查用户是否为会话参与者。
// 要求 Participants 已被预加载。
func (c *Conversation) HasParticipant(userID uint) bool {
	for _, p := range c.Participants {
		if p.ID == userID {
			return true
		}
	}
	return false
}
