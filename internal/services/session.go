package services

import (
	"context"
	"errors"

	"eventboard/internal/logger"
	"eventboard/internal/models"

	"gorm.io/gorm"
)

// Session 当前请求的身份信息，由中间件构造后显式传递给需要身份的调用
type Session struct {
	LoggedIn bool
	UserID   uint
	Username string
	Role     string
}

// Anonymous 未登录会话
func Anonymous() Session {
	return Session{}
}

// IsAdmin 是否为管理员
func (s Session) IsAdmin() bool {
	return s.LoggedIn && s.Role == models.RoleAdmin
}

// Token 跨请求持久化的身份凭据（保存在签名 cookie 中），每次请求都需要重新校验
type Token struct {
	UserID   uint
	Username string
}

// Valid 凭据是否带有完整的身份字段
func (t Token) Valid() bool {
	return t.UserID != 0 && t.Username != ""
}

// SessionManager 管理登录状态的建立、恢复与销毁
type SessionManager struct {
	db *gorm.DB
}

func NewSessionManager(db *gorm.DB) *SessionManager {
	return &SessionManager{db: db}
}

// Restore 根据凭据恢复会话。用户必须仍然存在且 ID 与用户名一致，角色从库中重新读取；
// 任何异常都只会得到匿名会话。
func (m *SessionManager) Restore(ctx context.Context, token Token) Session {
	if !token.Valid() {
		return Anonymous()
	}

	var user models.User
	err := m.db.WithContext(ctx).
		Where("id = ? AND username = ?", token.UserID, token.Username).
		First(&user).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn.Printf("恢复会话失败 (user_id=%d): %v", token.UserID, err)
		}
		return Anonymous()
	}
	return m.Establish(&user)
}

// Establish 以已验证的用户建立会话
func (m *SessionManager) Establish(user *models.User) Session {
	return Session{
		LoggedIn: true,
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	}
}

// TokenFor 会话对应的持久化凭据
func (m *SessionManager) TokenFor(s Session) Token {
	if !s.LoggedIn {
		return Token{}
	}
	return Token{UserID: s.UserID, Username: s.Username}
}

// Destroy 清除会话中的全部身份信息
func (m *SessionManager) Destroy(s *Session) {
	*s = Anonymous()
}
