package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"teamhub/internal/domain"
	"teamhub/internal/repository"
)

// GormProjectRepository 是 ProjectRepository 接口的 GORM 实现
type GormProjectRepository struct {
	db *gorm.DB
}

// NewGormProjectRepository 创建 GormProjectRepository 实例
func NewGormProjectRepository(db *gorm.DB) *GormProjectRepository {
	if db == nil {
		panic("database connection cannot be nil for GormProjectRepository")
	}
	return &GormProjectRepository{db: db}
}

// FindByID 实现根据项目 ID 查找项目
func (r *GormProjectRepository) FindByID(ctx context.Context, id uint) (*domain.Project, error) {
	var project domain.Project
	err := r.db.WithContext(ctx).First(&project, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrProjectNotFound
		}
		return nil, fmt.Errorf("gorm: find project by id %d: %w", id, err)
	}
	return &project, nil
}

// FindByMember 实现查询用户参与的所有项目
func (r *GormProjectRepository) FindByMember(ctx context.Context, userID uint) ([]domain.Project, error) {
	var projects []domain.Project
	err := r.db.WithContext(ctx).
		Joins("JOIN project_members pm ON pm.project_id = projects.id").
		Where("pm.user_id = ?", userID).
		Order("projects.created_at DESC").
		Find(&projects).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find projects by member %d: %w", userID, err)
	}
	return projects, nil
}

// Save 实现保存项目信息（创建或更新）
func (r *GormProjectRepository) Save(ctx context.Context, project *domain.Project) error {
	err := r.db.WithContext(ctx).Omit("Members").Save(project).Error
	if err != nil {
		if isDuplicateEntryError(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: save project (id: %d, name: %s): %w", project.ID, project.Name, err)
	}
	return nil
}

// AddMember 实现将用户加入项目成员表
func (r *GormProjectRepository) AddMember(ctx context.Context, projectID, userID uint) error {
	member := domain.ProjectMember{ProjectID: projectID, UserID: userID}
	err := r.db.WithContext(ctx).Create(&member).Error
	if err != nil {
		if isDuplicateEntryError(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: add member (project: %d, user: %d): %w", projectID, userID, err)
	}
	return nil
}

// IsMember 实现项目成员资格检查
func (r *GormProjectRepository) IsMember(ctx context.Context, projectID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("gorm: check membership (project: %d, user: %d): %w", projectID, userID, err)
	}
	return count > 0, nil
}
