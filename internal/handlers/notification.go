package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"eventboard/internal/logger"
	"eventboard/internal/middleware"
	"eventboard/internal/services"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notifications *services.NotificationService
}

func NewNotificationHandler(notifications *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

func (h *NotificationHandler) List(c *gin.Context) {
	session := middleware.CurrentSession(c)

	notifications, err := h.notifications.List(c.Request.Context(), session.UserID)
	if err != nil {
		logger.Error.Printf("加载通知失败 (user=%d): %v", session.UserID, err)
		RenderError(c, http.StatusInternalServerError, services.Message(err))
		return
	}

	Render(c, http.StatusOK, "notification/list.html", gin.H{
		"Title":         "通知",
		"Notifications": notifications,
		"Active":        "notifications",
	})
}

// Read HTMX: 标记单条已读，前端自行去掉未读标记
func (h *NotificationHandler) Read(c *gin.Context) {
	session := middleware.CurrentSession(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	if err := h.notifications.MarkRead(c.Request.Context(), session.UserID, uint(id)); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.Status(http.StatusNotFound)
			return
		}
		logger.Error.Printf("标记通知失败 (id=%d): %v", id, err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Status(http.StatusOK)
}

func (h *NotificationHandler) ReadAll(c *gin.Context) {
	session := middleware.CurrentSession(c)
	if err := h.notifications.MarkAllRead(c.Request.Context(), session.UserID); err != nil {
		logger.Error.Printf("标记全部通知失败 (user=%d): %v", session.UserID, err)
		flash(c, flashWarning, services.Message(err))
	}
	c.Redirect(http.StatusFound, "/notifications")
}
