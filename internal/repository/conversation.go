package repository

import (
	"context"

	"teamhub/internal/domain"
)

// ConversationRepository 定义了会话 (全局聊天/私聊) 的存储和检索操作。
type ConversationRepository interface {
	// FindByID 根据会话 ID 查找会话，并预加载参与者。
	// 如果会话不存在，返回 repository.ErrConversationNotFound。
	FindByID(ctx context.Context, id uint) (*domain.Conversation, error)

	// FindOrCreateGlobal 返回唯一的全局会话，不存在则创建。
	FindOrCreateGlobal(ctx context.Context) (*domain.Conversation, error)

	// FindOrCreateDM 返回两个用户之间的私聊会话，不存在则创建。
	// 参与者顺序无关：(a,b) 与 (b,a) 返回同一个会话。
	FindOrCreateDM(ctx context.Context, userA, userB uint) (*domain.Conversation, error)
}
