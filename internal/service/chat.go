package service

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"teamhub/internal/domain"
	"teamhub/internal/repository"
)

// DefaultHistoryLimit 是加入房间时回放的历史消息条数。
const DefaultHistoryLimit = 50

// RoomTarget 标识一条消息的归属范围：项目房间或会话。
// 不变量：ProjectID 和 ConversationID 必须恰好有一个非空。
type RoomTarget struct {
	ProjectID      *uint `json:"projectId,omitempty"`
	ConversationID *uint `json:"conversationId,omitempty"`
}

// Valid 检查归属范围是否恰好设置了一个。
func (t RoomTarget) Valid() bool {
	return (t.ProjectID != nil) != (t.ConversationID != nil)
}

// ChatService 负责消息校验、持久化与历史查询。
type ChatService struct {
	messageRepo repository.MessageRepository
	convRepo    repository.ConversationRepository
}

// NewChatService 创建 ChatService 实例。
func NewChatService(messageRepo repository.MessageRepository, convRepo repository.ConversationRepository) *ChatService {
	if messageRepo == nil {
		panic("MessageRepository cannot be nil for ChatService")
	}
	if convRepo == nil {
		panic("ConversationRepository cannot be nil for ChatService")
	}
	return &ChatService{messageRepo: messageRepo, convRepo: convRepo}
}

// SendMessage 校验并持久化一条消息，返回带数据库 ID、时间戳和发送者
// 展示信息的完整消息 (广播依赖这份服务端权威数据)。
// 校验失败返回 ErrEmptyMessage / ErrMessageTooLong / ErrInvalidRoomTarget。
func (s *ChatService) SendMessage(ctx context.Context, senderID uint, target RoomTarget, content string) (*domain.Message, error) {
	logCtx := logrus.WithField("sender_id", senderID)

	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, ErrEmptyMessage
	}
	if len([]rune(trimmed)) > domain.MaxMessageLength {
		return nil, ErrMessageTooLong
	}
	if !target.Valid() {
		return nil, ErrInvalidRoomTarget
	}

	message := &domain.Message{
		ProjectID:      target.ProjectID,
		ConversationID: target.ConversationID,
		SenderID:       senderID,
		Content:        trimmed,
	}
	if err := s.messageRepo.Save(ctx, message); err != nil {
		logCtx.WithError(err).Error("Failed to persist message")
		return nil, ErrInternalServer
	}

	logCtx.WithField("message_id", message.ID).Debug("Message persisted")
	return message, nil
}

// RecentMessages 返回目标房间最近的历史消息，最旧在前。
// limit <= 0 时使用 DefaultHistoryLimit。
func (s *ChatService) RecentMessages(ctx context.Context, target RoomTarget, limit int) ([]domain.Message, error) {
	if !target.Valid() {
		return nil, ErrInvalidRoomTarget
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	var (
		messages []domain.Message
		err      error
	)
	if target.ProjectID != nil {
		messages, err = s.messageRepo.FindRecentByProject(ctx, *target.ProjectID, limit)
	} else {
		messages, err = s.messageRepo.FindRecentByConversation(ctx, *target.ConversationID, limit)
	}
	if err != nil {
		logrus.WithError(err).Error("Failed to fetch recent messages")
		return nil, ErrInternalServer
	}
	return messages, nil
}

// FindOrCreateGlobal 返回全局会话。
func (s *ChatService) FindOrCreateGlobal(ctx context.Context) (*domain.Conversation, error) {
	conv, err := s.convRepo.FindOrCreateGlobal(ctx)
	if err != nil {
		logrus.WithError(err).Error("Failed to find or create global conversation")
		return nil, ErrInternalServer
	}
	return conv, nil
}

// FindOrCreateDM 返回两个用户之间的私聊会话 (顺序无关)。
func (s *ChatService) FindOrCreateDM(ctx context.Context, userA, userB uint) (*domain.Conversation, error) {
	conv, err := s.convRepo.FindOrCreateDM(ctx, userA, userB)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrConversationNotFound
		}
		logrus.WithError(err).WithFields(logrus.Fields{"user_a": userA, "user_b": userB}).
			Error("Failed to find or create DM conversation")
		return nil, ErrInternalServer
	}
	return conv, nil
}
