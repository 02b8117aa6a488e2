package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"teamhub/internal/domain"
	"teamhub/internal/repository"
)

// GormDocumentRepository 是 DocumentRepository 接口的 GORM 实现
type GormDocumentRepository struct {
	db *gorm.DB
}

// NewGormDocumentRepository 创建 GormDocumentRepository 实例
func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	if db == nil {
		panic("database connection cannot be nil for GormDocumentRepository")
	}
	return &GormDocumentRepository{db: db}
}

// FindByProjectID 实现查找项目文档
func (r *GormDocumentRepository) FindByProjectID(ctx context.Context, projectID uint) (*domain.Document, error) {
	var doc domain.Document
	err := r.db.WithContext(ctx).Where("project_id = ?", projectID).First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("gorm: find document for project %d: %w", projectID, err)
	}
	return &doc, nil
}

// Create 实现为项目创建文档
func (r *GormDocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	err := r.db.WithContext(ctx).Create(doc).Error
	if err != nil {
		if isDuplicateEntryError(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: create document for project %d: %w", doc.ProjectID, err)
	}
	return nil
}

// SaveContent 实现内容持久化与版本号的原子递增。
// 行锁保证并发保存时 version 严格每次 +1，最后提交的内容胜出。
func (r *GormDocumentRepository) SaveContent(ctx context.Context, projectID uint, content, title string, editorID uint) (*domain.Document, error) {
	var doc domain.Document
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("project_id = ?", projectID).
			First(&doc).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return repository.ErrDocumentNotFound
			}
			return err
		}
		return tx.Model(&doc).Updates(map[string]interface{}{
			"content":        content,
			"title":          title,
			"last_edited_by": editorID,
			"version":        gorm.Expr("version + ?", 1),
		}).Error
	})
	if err != nil {
		if errors.Is(err, repository.ErrDocumentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("gorm: save document content for project %d: %w", projectID, err)
	}

	// Updates 中的表达式不会回填结构体，重新读取最终版本
	if err := r.db.WithContext(ctx).Where("project_id = ?", projectID).First(&doc).Error; err != nil {
		return nil, fmt.Errorf("gorm: reload document for project %d: %w", projectID, err)
	}
	return &doc, nil
}
