package worker

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"teamhub/internal/realtime"
	"teamhub/internal/service"
)

// DocumentAutosaveHandler 处理周期性的文档自动保存任务。
// 每个周期从 Hub 取走所有未保存的文档内容快照并逐个持久化。
type DocumentAutosaveHandler struct {
	hub             *realtime.Hub
	documentService *service.DocumentService
}

// NewDocumentAutosaveHandler 创建 Handler 实例
func NewDocumentAutosaveHandler(hub *realtime.Hub, documentService *service.DocumentService) *DocumentAutosaveHandler {
	if hub == nil {
		panic("Hub cannot be nil for DocumentAutosaveHandler")
	}
	if documentService == nil {
		panic("DocumentService cannot be nil for DocumentAutosaveHandler")
	}
	return &DocumentAutosaveHandler{
		hub:             hub,
		documentService: documentService,
	}
}

// ProcessTask 实现 asynq.Handler 接口
func (h *DocumentAutosaveHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	taskID := ""
	if rw := t.ResultWriter(); rw != nil {
		taskID = rw.TaskID()
	}
	logCtx := logrus.WithFields(logrus.Fields{
		"task_id":   taskID,
		"task_type": t.Type(),
	})

	dirty := h.hub.DrainDirtyDocuments()
	if len(dirty) == 0 {
		logCtx.Debug("No dirty documents, skipping autosave.")
		return nil
	}
	logCtx.Infof("Autosaving %d dirty documents...", len(dirty))

	failed := 0
	for _, doc := range dirty {
		saveCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		_, err := h.documentService.Save(saveCtx, doc.ProjectID, doc.Content, doc.Title, doc.EditorID)
		cancel()
		if err != nil {
			// 单个文档保存失败只记录，不让整个周期任务重试：
			// 内容仍在存储层的上一个版本，下次编辑会重新标记为脏
			logCtx.WithError(err).WithField("project_id", doc.ProjectID).
				Error("Autosave failed for document")
			failed++
		}
	}

	if failed > 0 {
		logCtx.Errorf("Autosave cycle completed with %d failures out of %d documents.", failed, len(dirty))
		return nil
	}
	logCtx.Info("Autosave cycle completed successfully.")
	return nil
}
