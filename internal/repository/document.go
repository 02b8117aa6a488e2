package repository

import (
	"context"

	"teamhub/internal/domain"
)

// DocumentRepository 定义了协作文档的存储和检索操作。
type DocumentRepository interface {
	// FindByProjectID 查找项目的文档。
	// 如果文档不存在，返回 repository.ErrDocumentNotFound。
	FindByProjectID(ctx context.Context, projectID uint) (*domain.Document, error)

	// Create 为项目创建文档。项目已有文档时返回 ErrDuplicateEntry。
	Create(ctx context.Context, doc *domain.Document) error

	// SaveContent 持久化文档内容并原子地递增版本号 (version += 1)。
	// 返回更新后的文档。文档不存在时返回 ErrDocumentNotFound。
	SaveContent(ctx context.Context, projectID uint, content, title string, editorID uint) (*domain.Document, error)
}
