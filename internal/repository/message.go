package repository

import (
	"context"

	"teamhub/internal/domain"
)

// MessageRepository 定义了聊天消息的存储和检索操作。
type MessageRepository interface {
	// Save 持久化一条消息，并回填数据库生成的 ID、时间戳和 Sender 关联。
	Save(ctx context.Context, message *domain.Message) error

	// FindRecentByProject 返回项目房间最近的 limit 条消息，按创建时间升序 (最旧在前)。
	FindRecentByProject(ctx context.Context, projectID uint, limit int) ([]domain.Message, error)

	// FindRecentByConversation 返回会话最近的 limit 条消息，按创建时间升序 (最旧在前)。
	FindRecentByConversation(ctx context.Context, conversationID uint, limit int) ([]domain.Message, error)
}
