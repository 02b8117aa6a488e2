package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"teamhub/internal/domain"
	"teamhub/internal/repository"
	"teamhub/internal/repository/mocks"
	"teamhub/internal/service"
)

// testEnv 聚合 Hub 和它依赖的全部 Mock 存储库。
// Hub 通过真实的 Service 层驱动，测试只替换存储层。
type testEnv struct {
	hub         *Hub
	userRepo    *mocks.UserRepository
	projectRepo *mocks.ProjectRepository
	messageRepo *mocks.MessageRepository
	convRepo    *mocks.ConversationRepository
	docRepo     *mocks.DocumentRepository
}

func newTestEnv(typingTTL time.Duration) *testEnv {
	userRepo := new(mocks.UserRepository)
	projectRepo := new(mocks.ProjectRepository)
	messageRepo := new(mocks.MessageRepository)
	convRepo := new(mocks.ConversationRepository)
	docRepo := new(mocks.DocumentRepository)

	hub := NewHub(
		service.NewProjectService(projectRepo, userRepo),
		service.NewChatService(messageRepo, convRepo),
		service.NewDocumentService(docRepo),
		typingTTL,
	)
	return &testEnv{
		hub:         hub,
		userRepo:    userRepo,
		projectRepo: projectRepo,
		messageRepo: messageRepo,
		convRepo:    convRepo,
		docRepo:     docRepo,
	}
}

// connect 注册一个测试客户端 (不启动读写泵) 并丢弃注册产生的帧。
func (e *testEnv) connect(id uint, username string) *Client {
	c := NewClient(e.hub, nil, domain.Identity{ID: id, Username: username, Email: username + "@example.com"})
	e.hub.Register(c)
	drainFrames(c)
	return c
}

// expectProject 设置项目存在且 member 是其成员的预期。
func (e *testEnv) expectProject(projectID uint, name string, memberIDs ...uint) {
	e.projectRepo.On("FindByID", mock.Anything, projectID).
		Return(&domain.Project{ID: projectID, Name: name}, nil)
	for _, id := range memberIDs {
		e.projectRepo.On("IsMember", mock.Anything, projectID, id).Return(true, nil)
	}
}

func (e *testEnv) expectNonMember(projectID, userID uint) {
	e.projectRepo.On("IsMember", mock.Anything, projectID, userID).Return(false, nil)
}

func (e *testEnv) expectEmptyProjectHistory(projectID uint) {
	e.messageRepo.On("FindRecentByProject", mock.Anything, projectID, service.DefaultHistoryLimit).
		Return(nil, nil)
}

// joinProject 走完整的 join_project 路径并丢弃加入者收到的确认帧。
func (e *testEnv) joinProject(c *Client, projectID uint) {
	e.hub.JoinProject(c, projectID)
	drainFrames(c)
}

// recvEvent 从客户端发送通道中取出下一帧并解码。
func recvEvent(t *testing.T, c *Client) Envelope {
	t.Helper()
	select {
	case frame := <-c.send:
		var env Envelope
		require.NoError(t, json.Unmarshal(frame, &env))
		return env
	case <-time.After(time.Second):
		t.Fatal("expected a frame but none arrived")
	}
	return Envelope{}
}

// recvEventOfType 跳过其他事件，取出第一个指定类型的帧。
func recvEventOfType(t *testing.T, c *Client, event string) Envelope {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		select {
		case frame := <-c.send:
			var env Envelope
			require.NoError(t, json.Unmarshal(frame, &env))
			if env.Event == event {
				return env
			}
		case <-deadline:
			t.Fatalf("expected a %q frame but none arrived", event)
		}
	}
}

// requireNoEvent 断言客户端在短窗口内没有收到任何帧。
func requireNoEvent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case frame := <-c.send:
		var env Envelope
		_ = json.Unmarshal(frame, &env)
		t.Fatalf("expected no frame but received %q", env.Event)
	case <-time.After(50 * time.Millisecond):
	}
}

func drainFrames(c *Client) {
	for {
		select {
		case <-c.send:
		default:
			return
		}
	}
}

func decodePayload(t *testing.T, env Envelope, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, v))
}

// --- 注册与在线表 ---

func TestHub_Register_SendsWelcomeAndOnlineUsers(t *testing.T) {
	env := newTestEnv(0)
	c := NewClient(env.hub, nil, domain.Identity{ID: 1, Username: "alice"})

	env.hub.Register(c)

	welcome := recvEvent(t, c)
	assert.Equal(t, EventWelcome, welcome.Event)

	online := recvEvent(t, c)
	assert.Equal(t, EventOnlineUsers, online.Event)
	var p OnlineUsersPayload
	decodePayload(t, online, &p)
	require.Len(t, p.Users, 1)
	assert.Equal(t, uint(1), p.Users[0].ID)
}

func TestHub_Register_BroadcastsOnlineUsersToEveryone(t *testing.T) {
	env := newTestEnv(0)
	alice := env.connect(1, "alice")

	bob := NewClient(env.hub, nil, domain.Identity{ID: 2, Username: "bob"})
	env.hub.Register(bob)

	// 已在线的 alice 收到刷新后的列表，按用户 ID 升序
	online := recvEventOfType(t, alice, EventOnlineUsers)
	var p OnlineUsersPayload
	decodePayload(t, online, &p)
	require.Len(t, p.Users, 2)
	assert.Equal(t, uint(1), p.Users[0].ID)
	assert.Equal(t, uint(2), p.Users[1].ID)
}

func TestHub_Register_ReplacesStaleConnectionForSameIdentity(t *testing.T) {
	env := newTestEnv(0)
	first := env.connect(1, "alice")

	second := NewClient(env.hub, nil, domain.Identity{ID: 1, Username: "alice"})
	env.hub.Register(second)

	// 旧连接被注销：done 被关闭
	select {
	case <-first.done:
	case <-time.After(time.Second):
		t.Fatal("stale connection was not shut down")
	}

	// 在线表中该身份只有一条
	online := env.hub.OnlineUsers()
	require.Len(t, online, 1)
	assert.Equal(t, uint(1), online[0].ID)

	// 旧连接再走一次 Unregister 是 no-op (读泵退出时会调用)
	env.hub.Unregister(first, "read pump exited")
	assert.Len(t, env.hub.OnlineUsers(), 1)
}

func TestHub_Unregister_CleansUpRoomsPresenceAndTyping(t *testing.T) {
	env := newTestEnv(time.Minute)
	env.expectProject(7, "Apollo", 1, 2)
	env.expectEmptyProjectHistory(7)

	alice := env.connect(1, "alice")
	bob := env.connect(2, "bob")
	env.joinProject(alice, 7)
	env.joinProject(bob, 7)
	drainFrames(alice)

	env.hub.StartTyping(alice, ProjectRoomID(7))
	drainFrames(bob)

	env.hub.Unregister(alice, "connection dropped")

	// bob 观察到：停止输入、离开通知、刷新后的在线列表
	stop := recvEventOfType(t, bob, EventUserStopTyping)
	var stopPayload TypingBroadcastPayload
	decodePayload(t, stop, &stopPayload)
	assert.Equal(t, uint(1), stopPayload.UserID)

	left := recvEventOfType(t, bob, EventUserLeft)
	var leftPayload UserLeftPayload
	decodePayload(t, left, &leftPayload)
	assert.Equal(t, uint(1), leftPayload.UserID)

	online := recvEventOfType(t, bob, EventOnlineUsers)
	var onlinePayload OnlineUsersPayload
	decodePayload(t, online, &onlinePayload)
	require.Len(t, onlinePayload.Users, 1)
	assert.Equal(t, uint(2), onlinePayload.Users[0].ID)

	// 内部状态完全清空
	assert.False(t, env.hub.IsMember(alice, ProjectRoomID(7)))
	assert.Empty(t, env.hub.TypingUsers(ProjectRoomID(7)))
}

// --- 项目房间 ---

func TestHub_JoinProject_MemberReceivesConfirmationAndHistory(t *testing.T) {
	env := newTestEnv(0)
	env.expectProject(7, "Apollo", 1)
	history := []domain.Message{
		{ID: 1, Content: "first", SenderID: 1},
		{ID: 2, Content: "second", SenderID: 1},
	}
	env.messageRepo.On("FindRecentByProject", mock.Anything, uint(7), service.DefaultHistoryLimit).
		Return(history, nil)

	alice := env.connect(1, "alice")
	env.hub.JoinProject(alice, 7)

	joined := recvEvent(t, alice)
	assert.Equal(t, EventJoinedProject, joined.Event)
	var joinedPayload JoinedProjectPayload
	decodePayload(t, joined, &joinedPayload)
	assert.Equal(t, uint(7), joinedPayload.ProjectID)
	assert.Equal(t, "Apollo", joinedPayload.ProjectName)

	hist := recvEvent(t, alice)
	assert.Equal(t, EventChatHistory, hist.Event)
	var histPayload ChatHistoryPayload
	decodePayload(t, hist, &histPayload)
	assert.Equal(t, ProjectRoomID(7), histPayload.RoomID)
	require.Len(t, histPayload.Messages, 2)
	assert.Equal(t, "first", histPayload.Messages[0].Content, "历史应最旧在前")

	assert.True(t, env.hub.IsMember(alice, ProjectRoomID(7)))
}

func TestHub_JoinProject_NotifiesExistingMembers(t *testing.T) {
	env := newTestEnv(0)
	env.expectProject(7, "Apollo", 1, 2)
	env.expectEmptyProjectHistory(7)

	alice := env.connect(1, "alice")
	bob := env.connect(2, "bob")
	env.joinProject(alice, 7)

	env.hub.JoinProject(bob, 7)

	arrival := recvEventOfType(t, alice, EventUserJoined)
	var p UserJoinedPayload
	decodePayload(t, arrival, &p)
	assert.Equal(t, uint(2), p.UserID)
	assert.Equal(t, "bob", p.User)
}

func TestHub_JoinProject_NonMemberRejectedAndNotAdded(t *testing.T) {
	env := newTestEnv(0)
	env.projectRepo.On("FindByID", mock.Anything, uint(7)).
		Return(&domain.Project{ID: 7, Name: "Apollo"}, nil)
	env.expectNonMember(7, 3)

	eve := env.connect(3, "eve")
	env.hub.JoinProject(eve, 7)

	errEvent := recvEvent(t, eve)
	assert.Equal(t, EventErrorMessage, errEvent.Event)
	assert.False(t, env.hub.IsMember(eve, ProjectRoomID(7)))
}

func TestHub_JoinProject_UnknownProjectReportsNotFound(t *testing.T) {
	env := newTestEnv(0)
	env.projectRepo.On("FindByID", mock.Anything, uint(99)).
		Return(nil, repository.ErrProjectNotFound)

	alice := env.connect(1, "alice")
	env.hub.JoinProject(alice, 99)

	errEvent := recvEvent(t, alice)
	assert.Equal(t, EventErrorMessage, errEvent.Event)
	var p MessagePayload
	decodePayload(t, errEvent, &p)
	assert.Equal(t, service.ErrProjectNotFound.Error(), p.Message)
}

func TestHub_LeaveProject_NotifiesRemainingMembers(t *testing.T) {
	env := newTestEnv(0)
	env.expectProject(7, "Apollo", 1, 2)
	env.expectEmptyProjectHistory(7)

	alice := env.connect(1, "alice")
	bob := env.connect(2, "bob")
	env.joinProject(alice, 7)
	env.joinProject(bob, 7)
	drainFrames(alice)

	env.hub.LeaveProject(alice, 7)

	left := recvEventOfType(t, bob, EventUserLeft)
	var p UserLeftPayload
	decodePayload(t, left, &p)
	assert.Equal(t, uint(1), p.UserID)
	assert.False(t, env.hub.IsMember(alice, ProjectRoomID(7)))
	// alice 仍然在线，离开房间不等于断开
	assert.Len(t, env.hub.OnlineUsers(), 2)
}

func TestHub_LeaveProject_NeverJoinedIsNoOp(t *testing.T) {
	env := newTestEnv(0)
	env.expectProject(7, "Apollo", 2)
	env.expectEmptyProjectHistory(7)

	alice := env.connect(1, "alice")
	bob := env.connect(2, "bob")
	env.joinProject(bob, 7)

	env.hub.LeaveProject(alice, 7)

	requireNoEvent(t, alice)
	requireNoEvent(t, bob)
}

// --- 消息收发 ---

func TestHub_SendMessage_BroadcastsToAllMembersIncludingSender(t *testing.T) {
	env := newTestEnv(0)
	env.expectProject(7, "Apollo", 1, 2)
	env.expectEmptyProjectHistory(7)
	env.messageRepo.On("Save", mock.Anything, mock.AnythingOfType("*domain.Message")).
		Run(func(args mock.Arguments) {
			m := args.Get(1).(*domain.Message)
			m.ID = 42
			m.CreatedAt = time.Now()
			m.Sender = domain.User{ID: m.SenderID, Username: "alice"}
		}).
		Return(nil).Once()

	alice := env.connect(1, "alice")
	bob := env.connect(2, "bob")
	env.joinProject(alice, 7)
	env.joinProject(bob, 7)
	drainFrames(alice)

	pid := uint(7)
	env.hub.SendMessage(alice, SendMessagePayload{ProjectID: &pid, Content: "  hello world  "})

	for _, member := range []*Client{alice, bob} {
		received := recvEventOfType(t, member, EventReceiveMessage)
		var p ReceiveMessagePayload
		decodePayload(t, received, &p)
		assert.Equal(t, uint(42), p.Message.ID, "广播应携带数据库分配的 ID")
		assert.Equal(t, "hello world", p.Message.Content, "内容应去除首尾空白")
		assert.Equal(t, "alice", p.Message.Sender.Username)
	}
}

func TestHub_SendMessage_NonMemberGetsErrorAndNoBroadcast(t *testing.T) {
	env := newTestEnv(0)
	env.expectProject(7, "Apollo", 2)
	env.expectEmptyProjectHistory(7)

	eve := env.connect(3, "eve")
	bob := env.connect(2, "bob")
	env.joinProject(bob, 7)

	pid := uint(7)
	env.hub.SendMessage(eve, SendMessagePayload{ProjectID: &pid, Content: "sneaky"})

	errEvent := recvEvent(t, eve)
	assert.Equal(t, EventErrorMessage, errEvent.Event)
	requireNoEvent(t, bob)
	env.messageRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestHub_SendMessage_ValidationErrorsOnlyReachSender(t *testing.T) {
	env := newTestEnv(0)
	env.expectProject(7, "Apollo", 1, 2)
	env.expectEmptyProjectHistory(7)

	alice := env.connect(1, "alice")
	bob := env.connect(2, "bob")
	env.joinProject(alice, 7)
	env.joinProject(bob, 7)
	drainFrames(alice)

	pid := uint(7)
	env.hub.SendMessage(alice, SendMessagePayload{ProjectID: &pid, Content: "   \n\t  "})

	errEvent := recvEvent(t, alice)
	assert.Equal(t, EventErrorMessage, errEvent.Event)
	var p MessagePayload
	decodePayload(t, errEvent, &p)
	assert.Equal(t, service.ErrEmptyMessage.Error(), p.Message)
	requireNoEvent(t, bob)
}

func TestHub_SendMessage_ConversationTargetRequiresJoin(t *testing.T) {
	env := newTestEnv(0)
	alice := env.connect(1, "alice")

	convID := uint(5)
	env.hub.SendMessage(alice, SendMessagePayload{ConversationID: &convID, Content: "hi"})

	errEvent := recvEvent(t, alice)
	assert.Equal(t, EventErrorMessage, errEvent.Event)
	env.messageRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// --- 全局与私聊房间 ---

func TestHub_JoinGlobal_RepliesHistoryWithConversationID(t *testing.T) {
	env := newTestEnv(0)
	conv := &domain.Conversation{ID: 5, Type: domain.ConversationGlobal}
	env.convRepo.On("FindOrCreateGlobal", mock.Anything).Return(conv, nil)
	env.messageRepo.On("FindRecentByConversation", mock.Anything, uint(5), service.DefaultHistoryLimit).
		Return(nil, nil)

	alice := env.connect(1, "alice")
	env.hub.JoinGlobal(alice)

	hist := recvEventOfType(t, alice, EventChatHistory)
	var p ChatHistoryPayload
	decodePayload(t, hist, &p)
	assert.Equal(t, GlobalRoomID, p.RoomID)
	require.NotNil(t, p.ConversationID)
	assert.Equal(t, uint(5), *p.ConversationID)
	assert.True(t, env.hub.IsMember(alice, GlobalRoomID))
}

func TestHub_JoinDM_RoomKeyIsOrderIndependent(t *testing.T) {
	env := newTestEnv(0)
	conv := &domain.Conversation{ID: 9, Type: domain.ConversationDM}
	env.convRepo.On("FindOrCreateDM", mock.Anything, uint(1), uint(2)).Return(conv, nil)
	env.convRepo.On("FindOrCreateDM", mock.Anything, uint(2), uint(1)).Return(conv, nil)
	env.messageRepo.On("FindRecentByConversation", mock.Anything, uint(9), service.DefaultHistoryLimit).
		Return(nil, nil)

	alice := env.connect(1, "alice")
	bob := env.connect(2, "bob")

	env.hub.JoinDM(alice, 2)
	drainFrames(alice)
	env.hub.JoinDM(bob, 1)

	// 双方落在同一个房间里
	roomID := DMRoomID(2, 1)
	assert.Equal(t, "dm:1:2", roomID)
	assert.True(t, env.hub.IsMember(alice, roomID))
	assert.True(t, env.hub.IsMember(bob, roomID))

	arrival := recvEventOfType(t, alice, EventUserJoined)
	var p UserJoinedPayload
	decodePayload(t, arrival, &p)
	assert.Equal(t, uint(2), p.UserID)
}

func TestHub_JoinDM_SelfTargetRejected(t *testing.T) {
	env := newTestEnv(0)
	alice := env.connect(1, "alice")

	env.hub.JoinDM(alice, 1)

	errEvent := recvEvent(t, alice)
	assert.Equal(t, EventErrorMessage, errEvent.Event)
	env.convRepo.AssertNotCalled(t, "FindOrCreateDM", mock.Anything, mock.Anything, mock.Anything)
}

// --- 事件分发 ---

func TestHub_Dispatch_UnknownEventRepliesError(t *testing.T) {
	env := newTestEnv(0)
	alice := env.connect(1, "alice")

	env.hub.Dispatch(alice, Envelope{Event: "self-destruct"})

	errEvent := recvEvent(t, alice)
	assert.Equal(t, EventErrorMessage, errEvent.Event)
	var p MessagePayload
	decodePayload(t, errEvent, &p)
	assert.Contains(t, p.Message, "unknown event")
}

func TestHub_Dispatch_MalformedPayloadRepliesError(t *testing.T) {
	env := newTestEnv(0)
	alice := env.connect(1, "alice")

	env.hub.Dispatch(alice, Envelope{Event: EventJoinProject, Data: json.RawMessage(`{"projectId":"oops"}`)})

	errEvent := recvEvent(t, alice)
	assert.Equal(t, EventErrorMessage, errEvent.Event)
}

func TestHub_Dispatch_MissingPayloadRepliesError(t *testing.T) {
	env := newTestEnv(0)
	alice := env.connect(1, "alice")

	env.hub.Dispatch(alice, Envelope{Event: EventSendMessage})

	errEvent := recvEvent(t, alice)
	assert.Equal(t, EventErrorMessage, errEvent.Event)
}
