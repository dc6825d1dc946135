package router

import (
	"eventboard/internal/handlers"
	"eventboard/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Handlers 路由依赖的全部处理器
type Handlers struct {
	Auth          *handlers.AuthHandler
	Events        *handlers.EventHandler
	Comments      *handlers.CommentHandler
	Notifications *handlers.NotificationHandler
}

func RegisterRoutes(r *gin.Engine, h Handlers) {
	// 公共路由 (Public Routes)
	r.GET("/signup", h.Auth.ShowRegister) // 注册页面
	r.POST("/signup", h.Auth.Register)    // 提交注册
	r.GET("/login", h.Auth.ShowLogin)     // 登录页面
	r.POST("/login", h.Auth.Login)        // 提交登录
	r.GET("/logout", h.Auth.Logout)       // 退出登录

	r.POST("/comments/:id/like", h.Comments.Like)          // 点赞（匿名可用）
	r.GET("/api/events/:id/comments", h.Comments.ListJSON) // 评论树 JSON

	// 事件路由使用数字 ID：RSS 事件的 slug 是订阅源地址，含 "/"
	// 受保护路由 (Protected Routes)
	authorized := r.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/", h.Events.Index)                                 // 首页 - 分类与事件
		authorized.POST("/e/:id/comments", h.Comments.Create)               // 发表评论/回复
		authorized.GET("/notifications", h.Notifications.List)              // 我的通知列表
		authorized.POST("/notifications/:id/read", h.Notifications.Read)    // 标记单条通知为已读
		authorized.POST("/notifications/read-all", h.Notifications.ReadAll) // 全部通知标记为已读
	}

	// 管理员路由 (Admin Routes)
	admin := r.Group("/")
	admin.Use(middleware.AdminRequired())
	{
		admin.POST("/e/:id/refresh", h.Events.Refresh) // 手动刷新事件数据
	}
}
