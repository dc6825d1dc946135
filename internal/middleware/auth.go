package middleware

import (
	"net/http"

	"eventboard/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	SessionKey     = "session"
	UnreadCountKey = "unread_count"

	// cookie 会话中保存的身份字段
	cookieUserID   = "user_id"
	cookieUsername = "username"
)

// LoadSession 从 cookie 中取出凭据，到库中重新校验后把会话放入上下文。
// 校验失败时清除 cookie 中的身份信息，当前请求按匿名处理。
func LoadSession(manager *services.SessionManager, notifications *services.NotificationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		store := sessions.Default(c)
		token := services.Token{}
		if id, ok := store.Get(cookieUserID).(uint); ok {
			token.UserID = id
		}
		if name, ok := store.Get(cookieUsername).(string); ok {
			token.Username = name
		}

		session := services.Anonymous()
		if token.Valid() {
			session = manager.Restore(c.Request.Context(), token)
			if !session.LoggedIn {
				ClearToken(c)
			}
		}
		c.Set(SessionKey, session)

		if session.LoggedIn && notifications != nil {
			if count, err := notifications.UnreadCount(c.Request.Context(), session.UserID); err == nil {
				c.Set(UnreadCountKey, count)
			}
		}
		c.Next()
	}
}

// CurrentSession 当前请求的会话，未经过 LoadSession 时为匿名
func CurrentSession(c *gin.Context) services.Session {
	if v, ok := c.Get(SessionKey); ok {
		if s, ok := v.(services.Session); ok {
			return s
		}
	}
	return services.Anonymous()
}

// SaveToken 登录成功后写入 cookie
func SaveToken(c *gin.Context, token services.Token) error {
	store := sessions.Default(c)
	store.Set(cookieUserID, token.UserID)
	store.Set(cookieUsername, token.Username)
	return store.Save()
}

// ClearToken 登出或凭据失效时清除 cookie 中的身份
func ClearToken(c *gin.Context) {
	store := sessions.Default(c)
	store.Delete(cookieUserID)
	store.Delete(cookieUsername)
	store.Save()
}

// AuthRequired 未登录时跳转到登录页
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !CurrentSession(c).LoggedIn {
			if c.GetHeader("HX-Request") == "true" {
				c.Header("HX-Redirect", "/login")
				c.AbortWithStatus(http.StatusUnauthorized)
				return
			}
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// AdminRequired 仅管理员可访问
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := CurrentSession(c)
		if !session.LoggedIn {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		if !session.IsAdmin() {
			c.String(http.StatusForbidden, "需要管理员权限")
			c.Abort()
			return
		}
		c.Next()
	}
}
