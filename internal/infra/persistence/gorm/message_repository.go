package gormpersistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"teamhub/internal/domain"
)

// GormMessageRepository 是 MessageRepository 接口的 GORM 实现
type GormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository 创建 GormMessageRepository 实例
func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	if db == nil {
		panic("database connection cannot be nil for GormMessageRepository")
	}
	return &GormMessageRepository{db: db}
}

// Save 实现消息持久化，并回填 Sender 关联供广播使用
func (r *GormMessageRepository) Save(ctx context.Context, message *domain.Message) error {
	if err := r.db.WithContext(ctx).Omit("Sender").Create(message).Error; err != nil {
		return fmt.Errorf("gorm: save message (sender: %d): %w", message.SenderID, err)
	}
	// 广播需要发送者的展示信息，持久化后立刻加载关联
	if err := r.db.WithContext(ctx).First(&message.Sender, message.SenderID).Error; err != nil {
		return fmt.Errorf("gorm: load sender %d for message %d: %w", message.SenderID, message.ID, err)
	}
	return nil
}

// FindRecentByProject 实现项目房间的历史消息查询 (最旧在前)
func (r *GormMessageRepository) FindRecentByProject(ctx context.Context, projectID uint, limit int) ([]domain.Message, error) {
	messages, err := r.findRecent(ctx, "project_id = ?", projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("gorm: recent messages for project %d: %w", projectID, err)
	}
	return messages, nil
}

// FindRecentByConversation 实现会话的历史消息查询 (最旧在前)
func (r *GormMessageRepository) FindRecentByConversation(ctx context.Context, conversationID uint, limit int) ([]domain.Message, error) {
	messages, err := r.findRecent(ctx, "conversation_id = ?", conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("gorm: recent messages for conversation %d: %w", conversationID, err)
	}
	return messages, nil
}

// findRecent 取最近 limit 条后反转为升序返回。
// 先按创建时间降序取 limit 条，避免全表扫描旧消息。
func (r *GormMessageRepository) findRecent(ctx context.Context, cond string, id uint, limit int) ([]domain.Message, error) {
	var messages []domain.Message
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Where(cond, id).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	// 反转为最旧在前
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
