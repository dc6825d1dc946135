package db

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"eventboard/internal/logger"
	"eventboard/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

// Init 按 DATABASE_URL 建立连接并迁移表结构，失败直接退出进程
func Init(databaseURL string) {
	conn, err := Open(databaseURL)
	if err != nil {
		logger.Error.Fatalf("Failed to connect to database: %v", err)
	}
	logger.Info.Println("Database connection established")

	if err := Migrate(conn); err != nil {
		logger.Error.Fatalf("Failed to migrate database: %v", err)
	}
	logger.Info.Println("Database migration completed")

	DB = conn
}

// Open 解析连接串并打开 gorm 连接；sqlite:// 走嵌入式 SQLite，其余按 PostgreSQL 处理
func Open(databaseURL string) (*gorm.DB, error) {
	info, err := ParseDatabaseURL(databaseURL)
	if err != nil {
		return nil, err
	}

	cfg := &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	}

	var dialector gorm.Dialector
	if info.IsSQLite() {
		if dir := filepath.Dir(info.Path); dir != "." && !strings.HasPrefix(info.Path, ":memory:") {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
		dialector = sqlite.Open(info.Path + "?_foreign_keys=on&_busy_timeout=5000")
	} else {
		dialector = postgres.Open(info.PostgresDSN())
	}

	conn, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", info.Scheme, err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	if info.IsSQLite() {
		// SQLite 写锁是库级的，单连接避免 database is locked
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	}
	return conn, nil
}

// Migrate 自动迁移全部模型
func Migrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&models.User{},
		&models.Event{},
		&models.Comment{},
		&models.Notification{},
	)
}
