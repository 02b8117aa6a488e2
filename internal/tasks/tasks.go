// Package tasks 定义后台任务类型与负载。
package tasks

import "github.com/hibiken/asynq"

// 任务类型常量
const (
	// TypeDocumentAutosave 是周期性的文档自动保存任务：
	// 把 Hub 中累积的未保存文档内容冲刷到存储层。
	TypeDocumentAutosave = "document:autosave"
)

// NewDocumentAutosaveTask 创建一个文档自动保存任务。
// 任务不携带负载：待保存的内容由 Worker 从 Hub 中取走。
func NewDocumentAutosaveTask() *asynq.Task {
	return asynq.NewTask(TypeDocumentAutosave, nil)
}
