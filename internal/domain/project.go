package domain

import "time"

// Project 表示一个协作项目。项目同时是聊天房间和协作文档的归属范围。
type Project struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(191);not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	OwnerID     uint      `gorm:"index;not null" json:"ownerId"` // 创建该项目的用户 ID
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updatedAt"`

	Members []User `gorm:"many2many:project_members" json:"members,omitempty"`
}

// ProjectMember 是项目成员关联表。
// 显式声明以便为 (project_id, user_id) 建立唯一索引，成员资格检查走这张表。
type ProjectMember struct {
	ProjectID uint      `gorm:"primaryKey;autoIncrement:false"`
	UserID    uint      `gorm:"primaryKey;autoIncrement:false;index:idx_member_user"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}
