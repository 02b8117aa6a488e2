package domain

import "time"

// 文档默认标题与内容长度上限。
const (
	DefaultDocumentTitle     = "Untitled Document"
	MaxDocumentTitleLength   = 200
	MaxDocumentContentLength = 100000
)

// Document 表示项目的协作文档。每个项目至多一份，按需懒创建。
// Version 在每次保存时原子递增，协作编辑采用最后写入者胜出语义。
type Document struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ProjectID    uint      `gorm:"uniqueIndex:idx_doc_project;not null" json:"projectId"`
	Title        string    `gorm:"type:varchar(200);not null" json:"title"`
	Content      string    `gorm:"type:mediumtext" json:"content"`
	LastEditedBy uint      `gorm:"index" json:"lastEditedBy"`
	Version      uint      `gorm:"not null;default:0" json:"version"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"lastUpdated"`
}
