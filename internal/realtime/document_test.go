package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"teamhub/internal/domain"
	"teamhub/internal/repository"
)

func setupDocumentRoom(t *testing.T, env *testEnv) (*Client, *Client) {
	t.Helper()
	env.expectProject(7, "Apollo", 1, 2)
	env.docRepo.On("FindByProjectID", mock.Anything, uint(7)).
		Return(&domain.Document{ID: 3, ProjectID: 7, Title: "Design Notes", Content: "draft", Version: 4}, nil)

	alice := env.connect(1, "alice")
	bob := env.connect(2, "bob")
	env.hub.JoinDocument(alice, 7)
	env.hub.JoinDocument(bob, 7)
	drainFrames(alice)
	drainFrames(bob)
	return alice, bob
}

func TestHub_JoinDocument_SendsCurrentState(t *testing.T) {
	env := newTestEnv(0)
	env.expectProject(7, "Apollo", 1)
	env.docRepo.On("FindByProjectID", mock.Anything, uint(7)).
		Return(&domain.Document{ID: 3, ProjectID: 7, Title: "Design Notes", Content: "draft", Version: 4}, nil)

	alice := env.connect(1, "alice")
	env.hub.JoinDocument(alice, 7)

	load := recvEvent(t, alice)
	assert.Equal(t, EventLoadDocument, load.Event)
	var p LoadDocumentPayload
	decodePayload(t, load, &p)
	assert.Equal(t, "draft", p.Content)
	assert.Equal(t, "Design Notes", p.Title)
	assert.Equal(t, uint(4), p.Version)
	assert.True(t, env.hub.IsMember(alice, DocumentRoomID(7)))
}

func TestHub_JoinDocument_LazyCreatesMissingDocument(t *testing.T) {
	env := newTestEnv(0)
	env.expectProject(7, "Apollo", 1)
	env.docRepo.On("FindByProjectID", mock.Anything, uint(7)).
		Return(nil, repository.ErrDocumentNotFound).Once()
	env.docRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Document")).
		Run(func(args mock.Arguments) {
			doc := args.Get(1).(*domain.Document)
			doc.ID = 9
		}).
		Return(nil).Once()

	alice := env.connect(1, "alice")
	env.hub.JoinDocument(alice, 7)

	load := recvEvent(t, alice)
	assert.Equal(t, EventLoadDocument, load.Event)
	var p LoadDocumentPayload
	decodePayload(t, load, &p)
	assert.Equal(t, domain.DefaultDocumentTitle, p.Title)
	assert.Empty(t, p.Content)
	env.docRepo.AssertExpectations(t)
}

func TestHub_JoinDocument_NonMemberRejected(t *testing.T) {
	env := newTestEnv(0)
	env.projectRepo.On("FindByID", mock.Anything, uint(7)).
		Return(&domain.Project{ID: 7, Name: "Apollo"}, nil)
	env.expectNonMember(7, 3)

	eve := env.connect(3, "eve")
	env.hub.JoinDocument(eve, 7)

	errEvent := recvEvent(t, eve)
	assert.Equal(t, EventErrorMessage, errEvent.Event)
	assert.False(t, env.hub.IsMember(eve, DocumentRoomID(7)))
	env.docRepo.AssertNotCalled(t, "FindByProjectID", mock.Anything, mock.Anything)
}

func TestHub_JoinDocument_NotifiesExistingEditors(t *testing.T) {
	env := newTestEnv(0)
	env.expectProject(7, "Apollo", 1, 2)
	env.docRepo.On("FindByProjectID", mock.Anything, uint(7)).
		Return(&domain.Document{ID: 3, ProjectID: 7, Title: "Design Notes"}, nil)

	alice := env.connect(1, "alice")
	bob := env.connect(2, "bob")
	env.hub.JoinDocument(alice, 7)
	drainFrames(alice)

	env.hub.JoinDocument(bob, 7)

	arrival := recvEventOfType(t, alice, EventUserJoinedDocument)
	var p DocumentPresencePayload
	decodePayload(t, arrival, &p)
	assert.Equal(t, uint(2), p.UserID)
	assert.Equal(t, "bob", p.UserName)
}

func TestHub_SendChanges_RelaysToOthersExcludingSender(t *testing.T) {
	env := newTestEnv(0)
	alice, bob := setupDocumentRoom(t, env)

	env.hub.SendChanges(alice, SendChangesPayload{ProjectID: 7, Delta: "new full content"})

	changes := recvEvent(t, bob)
	assert.Equal(t, EventReceiveChanges, changes.Event)
	var p ReceiveChangesPayload
	decodePayload(t, changes, &p)
	assert.Equal(t, "new full content", p.Delta)
	assert.Equal(t, uint(1), p.UserID)
	assert.Equal(t, "alice", p.UserName)

	// 发送者自己不收到回显
	requireNoEvent(t, alice)

	// 转发不触碰存储层，内容等待自动保存冲刷
	env.docRepo.AssertNotCalled(t, "SaveContent", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	dirty := env.hub.DrainDirtyDocuments()
	require.Len(t, dirty, 1)
	assert.Equal(t, uint(7), dirty[0].ProjectID)
	assert.Equal(t, "new full content", dirty[0].Content)
	assert.Equal(t, uint(1), dirty[0].EditorID)
}

func TestHub_SendChanges_NonMemberRejected(t *testing.T) {
	env := newTestEnv(0)
	_, bob := setupDocumentRoom(t, env)

	eve := env.connect(3, "eve")
	env.hub.SendChanges(eve, SendChangesPayload{ProjectID: 7, Delta: "hijack"})

	errEvent := recvEvent(t, eve)
	assert.Equal(t, EventErrorMessage, errEvent.Event)
	requireNoEvent(t, bob)
	assert.Empty(t, env.hub.DrainDirtyDocuments())
}

func TestHub_SaveDocument_ConfirmsSaverAndNotifiesOthers(t *testing.T) {
	env := newTestEnv(0)
	alice, bob := setupDocumentRoom(t, env)

	savedAt := time.Now()
	env.docRepo.On("SaveContent", mock.Anything, uint(7), "final text", "Design Notes", uint(1)).
		Return(&domain.Document{
			ID: 3, ProjectID: 7, Title: "Design Notes",
			Content: "final text", Version: 5, UpdatedAt: savedAt,
		}, nil).Once()

	env.hub.SaveDocument(alice, SaveDocumentPayload{ProjectID: 7, Content: "final text", Title: "Design Notes"})

	saved := recvEvent(t, alice)
	assert.Equal(t, EventDocumentSaved, saved.Event)
	var savedPayload DocumentSavedPayload
	decodePayload(t, saved, &savedPayload)
	assert.True(t, savedPayload.Success)
	assert.Equal(t, uint(5), savedPayload.Version, "版本号应原子递增")

	other := recvEvent(t, bob)
	assert.Equal(t, EventDocumentSavedOther, other.Event)
	var otherPayload DocumentSavedOtherPayload
	decodePayload(t, other, &otherPayload)
	assert.Equal(t, "alice", otherPayload.UserName)
	assert.Equal(t, uint(5), otherPayload.Version)
}

func TestHub_SaveDocument_ClearsDirtyState(t *testing.T) {
	env := newTestEnv(0)
	alice, bob := setupDocumentRoom(t, env)

	env.hub.SendChanges(alice, SendChangesPayload{ProjectID: 7, Delta: "wip"})
	drainFrames(bob)

	env.docRepo.On("SaveContent", mock.Anything, uint(7), "wip", "Design Notes", uint(1)).
		Return(&domain.Document{ID: 3, ProjectID: 7, Title: "Design Notes", Content: "wip", Version: 5}, nil).Once()
	env.hub.SaveDocument(alice, SaveDocumentPayload{ProjectID: 7, Content: "wip", Title: "Design Notes"})

	// 显式保存之后没有待冲刷的内容
	assert.Empty(t, env.hub.DrainDirtyDocuments())
}

func TestHub_LeaveDocument_NotifiesRemainingEditors(t *testing.T) {
	env := newTestEnv(0)
	alice, bob := setupDocumentRoom(t, env)

	env.hub.LeaveDocument(alice, 7)

	left := recvEvent(t, bob)
	assert.Equal(t, EventUserLeftDocument, left.Event)
	var p DocumentPresencePayload
	decodePayload(t, left, &p)
	assert.Equal(t, uint(1), p.UserID)
	assert.False(t, env.hub.IsMember(alice, DocumentRoomID(7)))
}

func TestHub_LeaveDocument_NeverJoinedIsNoOp(t *testing.T) {
	env := newTestEnv(0)
	_, bob := setupDocumentRoom(t, env)

	eve := env.connect(3, "eve")
	env.hub.LeaveDocument(eve, 7)

	requireNoEvent(t, eve)
	requireNoEvent(t, bob)
}

func TestHub_DrainDirtyDocuments_KeepsDirtyStateWhenRoomEmpties(t *testing.T) {
	env := newTestEnv(0)
	alice, bob := setupDocumentRoom(t, env)

	env.hub.SendChanges(alice, SendChangesPayload{ProjectID: 7, Delta: "unsaved"})
	drainFrames(bob)

	// 所有编辑者离开，未保存的内容仍然等待冲刷
	env.hub.LeaveDocument(alice, 7)
	env.hub.LeaveDocument(bob, 7)

	dirty := env.hub.DrainDirtyDocuments()
	require.Len(t, dirty, 1)
	assert.Equal(t, "unsaved", dirty[0].Content)

	// 冲刷后房间已空，状态被释放
	assert.Empty(t, env.hub.DrainDirtyDocuments())
}

func TestHub_Disconnect_NotifiesDocumentRoom(t *testing.T) {
	env := newTestEnv(0)
	alice, bob := setupDocumentRoom(t, env)

	env.hub.Unregister(alice, "connection dropped")

	left := recvEventOfType(t, bob, EventUserLeftDocument)
	var p DocumentPresencePayload
	decodePayload(t, left, &p)
	assert.Equal(t, uint(1), p.UserID)
}
