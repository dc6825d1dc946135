package models

import (
	"time"
)

// Event 外部数据源的一个事件，Payload 为最近一次抓取的 JSON 快照（整体替换，从不合并）
type Event struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Slug        string     `gorm:"uniqueIndex;size:255;not null" json:"slug"` // 数据源查询键，同时作为评论关联键
	Title       string     `gorm:"not null" json:"title"`
	Category    string     `gorm:"size:100;not null;index" json:"category"`
	SubCategory string     `gorm:"size:100;index" json:"sub_category"` // 空字符串表示无子分类
	Source      string     `gorm:"size:50" json:"source"`              // 数据源名称，如 polymarket
	Payload     string     `gorm:"type:text" json:"payload"`
	UpdatedTime *time.Time `json:"updated_time"` // 最近一次刷新时间，从未刷新为 nil
	CreatedAt   time.Time  `json:"created_at"`
}

// DisplayTitle 标题为空时回退到 slug
func (e Event) DisplayTitle() string {
	if e.Title != "" {
		return e.Title
	}
	return e.Slug
}
