package repository

import (
	"context"

	"teamhub/internal/domain"
)

// ProjectRepository 定义了项目数据的存储和检索操作。
type ProjectRepository interface {
	// FindByID 根据项目 ID 查找项目。
	// 如果项目不存在，返回 repository.ErrProjectNotFound。
	FindByID(ctx context.Context, id uint) (*domain.Project, error)

	// FindByMember 查询用户参与的所有项目。
	FindByMember(ctx context.Context, userID uint) ([]domain.Project, error)

	// Save 保存项目信息 (创建或更新)。
	Save(ctx context.Context, project *domain.Project) error

	// AddMember 将用户加入项目成员表。重复加入返回 ErrDuplicateEntry。
	AddMember(ctx context.Context, projectID, userID uint) error

	// IsMember 检查用户是否为项目成员。
	IsMember(ctx context.Context, projectID, userID uint) (bool, error)
}
