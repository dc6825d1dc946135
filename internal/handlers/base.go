package handlers

import (
	"net/http"

	"eventboard/internal/logger"
	"eventboard/internal/middleware"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// 提示消息类别
const (
	flashSuccess = "success"
	flashWarning = "warning"
)

// Render helper to inject common variables like 'current session'
func Render(c *gin.Context, code int, name string, obj gin.H) {
	if obj == nil {
		obj = gin.H{}
	}

	session := middleware.CurrentSession(c)
	obj["Session"] = session
	if session.LoggedIn {
		obj["CurrentUser"] = session
		if count, ok := c.Get(middleware.UnreadCountKey); ok {
			obj["UnreadCount"] = int(count.(int64))
		} else {
			obj["UnreadCount"] = 0
		}
	}

	store := sessions.Default(c)
	success := store.Flashes(flashSuccess)
	warning := store.Flashes(flashWarning)
	if len(success) > 0 || len(warning) > 0 {
		store.Save()
	}
	obj["FlashSuccess"] = success
	obj["FlashWarning"] = warning

	obj["CurrentPath"] = c.Request.URL.Path

	c.HTML(code, name, obj)
}

// flash 保存一次性提示，下一次页面渲染时展示
func flash(c *gin.Context, kind, message string) {
	store := sessions.Default(c)
	store.AddFlash(message, kind)
	store.Save()
}

// HTMX Redirect helper
func HtmxRedirect(c *gin.Context, path string) {
	c.Header("HX-Redirect", path)
	c.Status(http.StatusOK)
}

// redirect 普通表单提交用 302，HTMX 请求用 HX-Redirect
func redirect(c *gin.Context, path string) {
	if c.GetHeader("HX-Request") == "true" {
		HtmxRedirect(c, path)
		return
	}
	c.Redirect(http.StatusFound, path)
}

// Error helper，页面上带出请求 ID，便于对照日志
func RenderError(c *gin.Context, code int, message string) {
	requestID := middleware.GetRequestID(c)
	logger.Warn.Printf("[%s] %s %s -> %d: %s", requestID, c.Request.Method, c.Request.URL.Path, code, message)
	Render(c, code, "error.html", gin.H{"Title": "出错了", "Error": message, "RequestID": requestID})
}
