package models

import (
	"time"
)

// Comment 事件讨论区的评论；ParentID 为空表示顶层评论。
// 评论创建后不可编辑、不可删除，Likes 只增不减。
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	ParentID  *uint     `gorm:"index" json:"parent_id"`
	Parent    *Comment  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	EventKey  string    `gorm:"size:255;not null;index" json:"event_key"` // 关联事件的 slug
	Content   string    `gorm:"type:text;not null" json:"content"`
	Likes     int       `gorm:"default:0;not null" json:"likes"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
