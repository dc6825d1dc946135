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

type CommentHandler struct {
	events   *services.EventRepository
	comments *services.CommentService
}

func NewCommentHandler(events *services.EventRepository, comments *services.CommentService) *CommentHandler {
	return &CommentHandler{events: events, comments: comments}
}

// Create 发表评论；带 parent_id 时为回复
func (h *CommentHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()
	session := middleware.CurrentSession(c)

	event, err := loadEvent(c, h.events)
	if err != nil {
		flash(c, flashWarning, services.Message(err))
		redirect(c, backURL(c, nil))
		return
	}
	slug := event.Slug
	back := backURL(c, event)

	var parentID *uint
	if raw := c.PostForm("parent_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			flash(c, flashWarning, services.Message(services.ErrCommentNotFound))
			redirect(c, back)
			return
		}
		pid := uint(id)
		parentID = &pid
	}

	if _, err := h.comments.Create(ctx, session.UserID, slug, c.PostForm("content"), parentID); err != nil {
		if errors.Is(err, services.ErrStore) {
			logger.Error.Printf("提交评论失败 (%s): %v", slug, err)
			flash(c, flashWarning, "提交评论失败，请重试")
		} else {
			flash(c, flashWarning, services.Message(err))
		}
		redirect(c, back)
		return
	}

	flash(c, flashSuccess, "✅ 评论已提交！")
	redirect(c, back)
}

// Like 点赞，返回新的点赞数（HTMX 直接替换按钮中的数字）
func (h *CommentHandler) Like(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.String(http.StatusNotFound, services.Message(services.ErrCommentNotFound))
		return
	}

	likes, err := h.comments.Like(c.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.String(http.StatusNotFound, services.Message(err))
			return
		}
		logger.Error.Printf("点赞失败 (comment=%d): %v", id, err)
		c.String(http.StatusInternalServerError, "点赞失败")
		return
	}
	c.String(http.StatusOK, strconv.Itoa(likes))
}

// ListJSON 事件评论树（JSON）
func (h *CommentHandler) ListJSON(c *gin.Context) {
	event, err := loadEvent(c, h.events)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": services.Message(err)})
			return
		}
		logger.Error.Printf("读取事件 %s 失败: %v", c.Param("id"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": services.Message(err)})
		return
	}

	forest, err := h.comments.ListThreaded(c.Request.Context(), event.Slug)
	if err != nil {
		logger.Error.Printf("加载评论失败 (%s): %v", event.Slug, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": services.Message(err)})
		return
	}
	c.JSON(http.StatusOK, forest)
}
