package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"teamhub/internal/domain"
	"teamhub/internal/repository"
)

// ProjectService 负责项目管理与成员授权检查。
// IsMember 和 GetProjectName 是实时层加入项目/文档房间时的授权入口。
type ProjectService struct {
	projectRepo repository.ProjectRepository
	userRepo    repository.UserRepository
}

// NewProjectService 创建 ProjectService 实例。
func NewProjectService(projectRepo repository.ProjectRepository, userRepo repository.UserRepository) *ProjectService {
	if projectRepo == nil {
		panic("ProjectRepository cannot be nil for ProjectService")
	}
	if userRepo == nil {
		panic("UserRepository cannot be nil for ProjectService")
	}
	return &ProjectService{projectRepo: projectRepo, userRepo: userRepo}
}

// CreateProject 创建一个新项目，创建者自动成为成员。
func (s *ProjectService) CreateProject(ctx context.Context, ownerID uint, name, description string) (*domain.Project, error) {
	logCtx := logrus.WithFields(logrus.Fields{"owner_id": ownerID, "name": name})

	if name == "" {
		return nil, errors.New("project name is required")
	}

	project := &domain.Project{
		Name:        name,
		Description: description,
		OwnerID:     ownerID,
	}
	if err := s.projectRepo.Save(ctx, project); err != nil {
		logCtx.WithError(err).Error("Failed to save new project")
		return nil, ErrInternalServer
	}

	if err := s.projectRepo.AddMember(ctx, project.ID, ownerID); err != nil {
		logCtx.WithError(err).Error("Failed to add owner as project member")
		return nil, ErrInternalServer
	}

	logCtx.WithField("project_id", project.ID).Info("Project created successfully")
	return project, nil
}

// ListProjects 返回用户参与的所有项目。
func (s *ProjectService) ListProjects(ctx context.Context, userID uint) ([]domain.Project, error) {
	projects, err := s.projectRepo.FindByMember(ctx, userID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to list projects")
		return nil, ErrInternalServer
	}
	return projects, nil
}

// AddMember 将用户加入项目。只有现有成员可以邀请。重复加入是 no-op。
func (s *ProjectService) AddMember(ctx context.Context, projectID, inviterID, userID uint) error {
	logCtx := logrus.WithFields(logrus.Fields{"project_id": projectID, "inviter_id": inviterID, "user_id": userID})

	isMember, err := s.IsMember(ctx, projectID, inviterID)
	if err != nil {
		return err
	}
	if !isMember {
		logCtx.Warn("AddMember rejected: inviter is not a project member")
		return ErrAccessDenied
	}

	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		logCtx.WithError(err).Error("Repository error checking invited user")
		return ErrInternalServer
	}

	if err := s.projectRepo.AddMember(ctx, projectID, userID); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return nil // 已是成员
		}
		logCtx.WithError(err).Error("Failed to add project member")
		return ErrInternalServer
	}
	logCtx.Info("Project member added")
	return nil
}

// IsMember 检查用户是否为项目成员。项目不存在返回 ErrProjectNotFound。
func (s *ProjectService) IsMember(ctx context.Context, projectID, userID uint) (bool, error) {
	if _, err := s.projectRepo.FindByID(ctx, projectID); err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			return false, ErrProjectNotFound
		}
		logrus.WithError(err).WithField("project_id", projectID).Error("Repository error finding project")
		return false, ErrInternalServer
	}
	isMember, err := s.projectRepo.IsMember(ctx, projectID, userID)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{"project_id": projectID, "user_id": userID}).
			Error("Repository error checking project membership")
		return false, ErrInternalServer
	}
	return isMember, nil
}

// GetProjectName 返回项目显示名称，供加入确认事件携带。
func (s *ProjectService) GetProjectName(ctx context.Context, projectID uint) (string, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			return "", ErrProjectNotFound
		}
		logrus.WithError(err).WithField("project_id", projectID).Error("Repository error finding project")
		return "", ErrInternalServer
	}
	return project.Name, nil
}
