package main

import (
	"context"
	"flag"
	"os"

	"eventboard/internal/config"
	"eventboard/internal/db"
	"eventboard/internal/handlers"
	"eventboard/internal/logger"
	"eventboard/internal/middleware"
	"eventboard/internal/models"
	"eventboard/internal/router"
	"eventboard/internal/services"
	"eventboard/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

func main() {
	promote := flag.String("promote", "", "将指定用户设为管理员后退出")
	flag.Parse()

	cfg := config.Load()

	// Initialize Database
	db.Init(cfg.DatabaseURL)
	if cfg.EventsSeedFile != "" {
		if err := db.SeedEvents(db.DB, cfg.EventsSeedFile); err != nil {
			logger.Error.Fatalf("导入事件目录失败: %v", err)
		}
	}

	credentials := services.NewCredentialStore(db.DB)
	if *promote != "" {
		if err := credentials.SetRole(context.Background(), *promote, models.RoleAdmin); err != nil {
			logger.Error.Fatalf("设置管理员失败: %v", err)
		}
		logger.Info.Printf("%s 已设为管理员", *promote)
		os.Exit(0)
	}

	// Services
	sessionManager := services.NewSessionManager(db.DB)
	eventRepo := services.NewEventRepository(db.DB)
	commentService := services.NewCommentService(db.DB, utils.GetCache())
	notificationService := services.NewNotificationService(db.DB)
	providers := services.NewProviderRegistry(
		services.NewPolymarketProvider(cfg.PolymarketBaseURL, cfg.FetchTimeout),
		services.NewRSSProvider(cfg.FetchTimeout),
	)
	renderers := services.DefaultRenderers()

	// Initialize Gin
	r := gin.Default()

	// Setup Sessions
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{Path: "/", MaxAge: 7 * 24 * 3600, HttpOnly: true})
	r.Use(sessions.Sessions("eventboard_session", store))

	// Load Templates using Multitemplate to avoid collision and allow handler names
	r.HTMLRender = router.LoadTemplates(cfg.TemplatesDir)

	// Static Assets
	r.Static("/static", "./web/static")

	// Middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.LoadSession(sessionManager, notificationService))

	router.RegisterRoutes(r, router.Handlers{
		Auth:          handlers.NewAuthHandler(credentials, sessionManager),
		Events:        handlers.NewEventHandler(eventRepo, providers, renderers, commentService),
		Comments:      handlers.NewCommentHandler(eventRepo, commentService),
		Notifications: handlers.NewNotificationHandler(notificationService),
	})

	logger.Info.Printf("数据源: %v", providers.Names())
	logger.Info.Printf("Event browser starting on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error.Fatal(err)
	}
}
