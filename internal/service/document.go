package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"teamhub/internal/domain"
	"teamhub/internal/repository"
)

// DocumentService 负责协作文档的加载与保存。
// 文档内容的权威副本始终在存储层；实时层只做转发。
type DocumentService struct {
	documentRepo repository.DocumentRepository
}

// NewDocumentService 创建 DocumentService 实例。
func NewDocumentService(documentRepo repository.DocumentRepository) *DocumentService {
	if documentRepo == nil {
		panic("DocumentRepository cannot be nil for DocumentService")
	}
	return &DocumentService{documentRepo: documentRepo}
}

// LoadOrCreate 返回项目的文档，不存在时用默认标题懒创建。
func (s *DocumentService) LoadOrCreate(ctx context.Context, projectID uint) (*domain.Document, error) {
	logCtx := logrus.WithField("project_id", projectID)

	doc, err := s.documentRepo.FindByProjectID(ctx, projectID)
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, repository.ErrDocumentNotFound) {
		logCtx.WithError(err).Error("Repository error loading document")
		return nil, ErrInternalServer
	}

	doc = &domain.Document{
		ProjectID: projectID,
		Title:     domain.DefaultDocumentTitle,
	}
	if err := s.documentRepo.Create(ctx, doc); err != nil {
		// 两个编辑者同时加入时可能并发创建，输掉的一方重新读取即可
		if errors.Is(err, repository.ErrDuplicateEntry) {
			doc, err = s.documentRepo.FindByProjectID(ctx, projectID)
			if err == nil {
				return doc, nil
			}
		}
		logCtx.WithError(err).Error("Failed to create document")
		return nil, ErrInternalServer
	}
	logCtx.WithField("document_id", doc.ID).Info("Document created lazily")
	return doc, nil
}

// Save 持久化文档内容，版本号原子 +1。返回保存后的文档。
func (s *DocumentService) Save(ctx context.Context, projectID uint, content, title string, editorID uint) (*domain.Document, error) {
	logCtx := logrus.WithFields(logrus.Fields{"project_id": projectID, "editor_id": editorID})

	if title == "" {
		title = domain.DefaultDocumentTitle
	}
	if len([]rune(title)) > domain.MaxDocumentTitleLength {
		title = string([]rune(title)[:domain.MaxDocumentTitleLength])
	}
	if len(content) > domain.MaxDocumentContentLength {
		return nil, ErrMessageTooLong
	}

	doc, err := s.documentRepo.SaveContent(ctx, projectID, content, title, editorID)
	if err != nil {
		if errors.Is(err, repository.ErrDocumentNotFound) {
			return nil, ErrDocumentNotFound
		}
		logCtx.WithError(err).Error("Failed to save document")
		return nil, ErrInternalServer
	}

	logCtx.WithField("version", doc.Version).Debug("Document saved")
	return doc, nil
}
