package models

import (
	"time"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;size:64;not null" json:"username"`
	Password  string    `gorm:"not null" json:"-"`                           // bcrypt hash
	Role      string    `gorm:"size:20;default:'user';not null" json:"role"` // user, admin；仅管理员可在库中修改
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsAdmin 是否拥有刷新数据源的权限
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
