package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"teamhub/internal/domain"
	"teamhub/internal/repository/mocks"
	"teamhub/internal/service"
)

func newChatService() (*service.ChatService, *mocks.MessageRepository, *mocks.ConversationRepository) {
	messageRepo := new(mocks.MessageRepository)
	convRepo := new(mocks.ConversationRepository)
	return service.NewChatService(messageRepo, convRepo), messageRepo, convRepo
}

func uintPtr(v uint) *uint { return &v }

// --- 测试 SendMessage 方法 ---

func TestChatService_SendMessage_TrimsAndPersists(t *testing.T) {
	chatService, messageRepo, _ := newChatService()
	ctx := context.Background()

	messageRepo.On("Save", ctx, mock.MatchedBy(func(m *domain.Message) bool {
		assert.Equal(t, "hello", m.Content, "内容应去除首尾空白后持久化")
		assert.Equal(t, uint(1), m.SenderID)
		require.NotNil(t, m.ProjectID)
		assert.Equal(t, uint(7), *m.ProjectID)
		assert.Nil(t, m.ConversationID)
		return true
	})).
		Run(func(args mock.Arguments) {
			args.Get(1).(*domain.Message).ID = 42
		}).
		Return(nil).Once()

	msg, err := chatService.SendMessage(ctx, 1, service.RoomTarget{ProjectID: uintPtr(7)}, "  hello  ")

	assert.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, uint(42), msg.ID)
	messageRepo.AssertExpectations(t)
}

func TestChatService_SendMessage_WhitespaceOnlyRejected(t *testing.T) {
	chatService, messageRepo, _ := newChatService()

	_, err := chatService.SendMessage(context.Background(), 1, service.RoomTarget{ProjectID: uintPtr(7)}, "  \n\t  ")

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrEmptyMessage))
	messageRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestChatService_SendMessage_LengthBoundary(t *testing.T) {
	// 恰好达到上限的消息被接受，超出一个字符的被拒绝
	chatService, messageRepo, _ := newChatService()
	ctx := context.Background()

	messageRepo.On("Save", ctx, mock.AnythingOfType("*domain.Message")).Return(nil).Once()

	atLimit := strings.Repeat("a", domain.MaxMessageLength)
	_, err := chatService.SendMessage(ctx, 1, service.RoomTarget{ProjectID: uintPtr(7)}, atLimit)
	assert.NoError(t, err, "恰好 %d 字符的消息应被接受", domain.MaxMessageLength)

	overLimit := strings.Repeat("a", domain.MaxMessageLength+1)
	_, err = chatService.SendMessage(ctx, 1, service.RoomTarget{ProjectID: uintPtr(7)}, overLimit)
	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrMessageTooLong))
	messageRepo.AssertExpectations(t)
}

func TestChatService_SendMessage_LengthCountsRunesNotBytes(t *testing.T) {
	chatService, messageRepo, _ := newChatService()
	ctx := context.Background()

	messageRepo.On("Save", ctx, mock.AnythingOfType("*domain.Message")).Return(nil).Once()

	// 多字节字符按字符数计，不按字节数
	atLimit := strings.Repeat("测", domain.MaxMessageLength)
	_, err := chatService.SendMessage(ctx, 1, service.RoomTarget{ProjectID: uintPtr(7)}, atLimit)

	assert.NoError(t, err)
}

func TestChatService_SendMessage_RequiresExactlyOneTarget(t *testing.T) {
	chatService, messageRepo, _ := newChatService()
	ctx := context.Background()

	// 两个目标都没有
	_, err := chatService.SendMessage(ctx, 1, service.RoomTarget{}, "hello")
	assert.True(t, errors.Is(err, service.ErrInvalidRoomTarget))

	// 两个目标都有
	_, err = chatService.SendMessage(ctx, 1,
		service.RoomTarget{ProjectID: uintPtr(7), ConversationID: uintPtr(5)}, "hello")
	assert.True(t, errors.Is(err, service.ErrInvalidRoomTarget))

	messageRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// --- 测试 RecentMessages 方法 ---

func TestChatService_RecentMessages_ProjectTarget(t *testing.T) {
	chatService, messageRepo, _ := newChatService()
	ctx := context.Background()

	history := []domain.Message{{ID: 1, Content: "old"}, {ID: 2, Content: "new"}}
	messageRepo.On("FindRecentByProject", ctx, uint(7), service.DefaultHistoryLimit).
		Return(history, nil).Once()

	messages, err := chatService.RecentMessages(ctx, service.RoomTarget{ProjectID: uintPtr(7)}, 0)

	assert.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "old", messages[0].Content, "历史应最旧在前")
	messageRepo.AssertExpectations(t)
}

func TestChatService_RecentMessages_ConversationTarget(t *testing.T) {
	chatService, messageRepo, _ := newChatService()
	ctx := context.Background()

	messageRepo.On("FindRecentByConversation", ctx, uint(5), 10).
		Return([]domain.Message{}, nil).Once()

	messages, err := chatService.RecentMessages(ctx, service.RoomTarget{ConversationID: uintPtr(5)}, 10)

	assert.NoError(t, err)
	assert.Empty(t, messages)
	messageRepo.AssertExpectations(t)
}

// --- 测试会话查找 ---

func TestChatService_FindOrCreateDM_PassesThrough(t *testing.T) {
	chatService, _, convRepo := newChatService()
	ctx := context.Background()

	conv := &domain.Conversation{ID: 9, Type: domain.ConversationDM}
	convRepo.On("FindOrCreateDM", ctx, uint(1), uint(2)).Return(conv, nil).Once()

	got, err := chatService.FindOrCreateDM(ctx, 1, 2)

	assert.NoError(t, err)
	assert.Equal(t, uint(9), got.ID)
	convRepo.AssertExpectations(t)
}
