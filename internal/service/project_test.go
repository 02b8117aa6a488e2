package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"teamhub/internal/domain"
	"teamhub/internal/repository"
	"teamhub/internal/repository/mocks"
	"teamhub/internal/service"
)

func newProjectService() (*service.ProjectService, *mocks.ProjectRepository, *mocks.UserRepository) {
	projectRepo := new(mocks.ProjectRepository)
	userRepo := new(mocks.UserRepository)
	return service.NewProjectService(projectRepo, userRepo), projectRepo, userRepo
}

func TestProjectService_CreateProject_OwnerBecomesMember(t *testing.T) {
	projectService, projectRepo, _ := newProjectService()
	ctx := context.Background()

	projectRepo.On("Save", ctx, mock.MatchedBy(func(p *domain.Project) bool {
		assert.Equal(t, "Apollo", p.Name)
		assert.Equal(t, uint(1), p.OwnerID)
		return true
	})).
		Run(func(args mock.Arguments) {
			args.Get(1).(*domain.Project).ID = 7
		}).
		Return(nil).Once()
	projectRepo.On("AddMember", ctx, uint(7), uint(1)).Return(nil).Once()

	project, err := projectService.CreateProject(ctx, 1, "Apollo", "moon landing")

	assert.NoError(t, err)
	require.NotNil(t, project)
	assert.Equal(t, uint(7), project.ID)
	projectRepo.AssertExpectations(t)
}

func TestProjectService_IsMember_UnknownProject(t *testing.T) {
	projectService, projectRepo, _ := newProjectService()
	ctx := context.Background()

	projectRepo.On("FindByID", ctx, uint(99)).Return(nil, repository.ErrProjectNotFound).Once()

	_, err := projectService.IsMember(ctx, 99, 1)

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrProjectNotFound))
	projectRepo.AssertNotCalled(t, "IsMember", mock.Anything, mock.Anything, mock.Anything)
}

func TestProjectService_AddMember_InviterMustBeMember(t *testing.T) {
	projectService, projectRepo, _ := newProjectService()
	ctx := context.Background()

	projectRepo.On("FindByID", ctx, uint(7)).Return(&domain.Project{ID: 7}, nil).Once()
	projectRepo.On("IsMember", ctx, uint(7), uint(3)).Return(false, nil).Once()

	err := projectService.AddMember(ctx, 7, 3, 4)

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrAccessDenied))
	projectRepo.AssertNotCalled(t, "AddMember", mock.Anything, mock.Anything, mock.Anything)
}

func TestProjectService_AddMember_DuplicateIsNoOp(t *testing.T) {
	projectService, projectRepo, userRepo := newProjectService()
	ctx := context.Background()

	projectRepo.On("FindByID", ctx, uint(7)).Return(&domain.Project{ID: 7}, nil).Once()
	projectRepo.On("IsMember", ctx, uint(7), uint(1)).Return(true, nil).Once()
	userRepo.On("FindByID", ctx, uint(2)).Return(&domain.User{ID: 2}, nil).Once()
	projectRepo.On("AddMember", ctx, uint(7), uint(2)).Return(repository.ErrDuplicateEntry).Once()

	err := projectService.AddMember(ctx, 7, 1, 2)

	assert.NoError(t, err, "重复加入应当静默成功")
	projectRepo.AssertExpectations(t)
}

func TestProjectService_AddMember_UnknownInvitee(t *testing.T) {
	projectService, projectRepo, userRepo := newProjectService()
	ctx := context.Background()

	projectRepo.On("FindByID", ctx, uint(7)).Return(&domain.Project{ID: 7}, nil).Once()
	projectRepo.On("IsMember", ctx, uint(7), uint(1)).Return(true, nil).Once()
	userRepo.On("FindByID", ctx, uint(99)).Return(nil, repository.ErrUserNotFound).Once()

	err := projectService.AddMember(ctx, 7, 1, 99)

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrUserNotFound))
}

func TestProjectService_GetProjectName(t *testing.T) {
	projectService, projectRepo, _ := newProjectService()
	ctx := context.Background()

	projectRepo.On("FindByID", ctx, uint(7)).Return(&domain.Project{ID: 7, Name: "Apollo"}, nil).Once()

	name, err := projectService.GetProjectName(ctx, 7)

	assert.NoError(t, err)
	assert.Equal(t, "Apollo", name)
}
