package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"teamhub/internal/domain"
	"teamhub/internal/repository"
)

// GormConversationRepository 是 ConversationRepository 接口的 GORM 实现
type GormConversationRepository struct {
	db *gorm.DB
}

// NewGormConversationRepository 创建 GormConversationRepository 实例
func NewGormConversationRepository(db *gorm.DB) *GormConversationRepository {
	if db == nil {
		panic("database connection cannot be nil for GormConversationRepository")
	}
	return &GormConversationRepository{db: db}
}

// FindByID 实现根据会话 ID 查找会话 (预加载参与者)
func (r *GormConversationRepository) FindByID(ctx context.Context, id uint) (*domain.Conversation, error) {
	var conv domain.Conversation
	err := r.db.WithContext(ctx).Preload("Participants").First(&conv, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrConversationNotFound
		}
		return nil, fmt.Errorf("gorm: find conversation by id %d: %w", id, err)
	}
	return &conv, nil
}

// FindOrCreateGlobal 实现全局会话的查找或创建
func (r *GormConversationRepository) FindOrCreateGlobal(ctx context.Context) (*domain.Conversation, error) {
	var conv domain.Conversation
	err := r.db.WithContext(ctx).
		Where("type = ?", domain.ConversationGlobal).
		First(&conv).Error
	if err == nil {
		return &conv, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("gorm: find global conversation: %w", err)
	}

	conv = domain.Conversation{Type: domain.ConversationGlobal, Name: "Global Chat"}
	if err := r.db.WithContext(ctx).Create(&conv).Error; err != nil {
		// 并发创建时唯一的竞争点：另一个实例可能先创建成功，重查一次
		if isDuplicateEntryError(err) {
			if ferr := r.db.WithContext(ctx).Where("type = ?", domain.ConversationGlobal).First(&conv).Error; ferr == nil {
				return &conv, nil
			}
		}
		return nil, fmt.Errorf("gorm: create global conversation: %w", err)
	}
	return &conv, nil
}

// FindOrCreateDM 实现两人私聊会话的查找或创建 (参与者顺序无关)
func (r *GormConversationRepository) FindOrCreateDM(ctx context.Context, userA, userB uint) (*domain.Conversation, error) {
	var conv domain.Conversation

	// 查找恰好包含这两个参与者的 DM 会话
	err := r.db.WithContext(ctx).
		Joins("JOIN conversation_participants cp1 ON cp1.conversation_id = conversations.id AND cp1.user_id = ?", userA).
		Joins("JOIN conversation_participants cp2 ON cp2.conversation_id = conversations.id AND cp2.user_id = ?", userB).
		Where("conversations.type = ?", domain.ConversationDM).
		First(&conv).Error
	if err == nil {
		return &conv, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("gorm: find dm conversation (%d, %d): %w", userA, userB, err)
	}

	// 不存在则在事务中创建会话及其两个参与者
	conv = domain.Conversation{Type: domain.ConversationDM}
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&conv).Error; err != nil {
			return err
		}
		participants := []map[string]interface{}{
			{"conversation_id": conv.ID, "user_id": userA},
			{"conversation_id": conv.ID, "user_id": userB},
		}
		return tx.Table("conversation_participants").Create(participants).Error
	})
	if err != nil {
		return nil, fmt.Errorf("gorm: create dm conversation (%d, %d): %w", userA, userB, err)
	}
	return &conv, nil
}
