package db

import (
	"fmt"
	"os"
	"strings"

	"eventboard/internal/logger"
	"eventboard/internal/models"

	"github.com/goccy/go-yaml"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeedEvent 种子文件中的一条事件目录项
type SeedEvent struct {
	Slug        string `yaml:"slug"`
	Title       string `yaml:"title"`
	Category    string `yaml:"category"`
	SubCategory string `yaml:"sub_category"`
	Source      string `yaml:"source"`
}

type seedFile struct {
	Events []SeedEvent `yaml:"events"`
}

// ParseSeed 解析 YAML 事件目录，缺少 slug 或 category 的条目视为错误
func ParseSeed(data []byte) ([]SeedEvent, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("解析事件目录失败: %w", err)
	}
	for i, e := range f.Events {
		if strings.TrimSpace(e.Slug) == "" || strings.TrimSpace(e.Category) == "" {
			return nil, fmt.Errorf("事件目录第 %d 项缺少 slug 或 category", i+1)
		}
	}
	return f.Events, nil
}

// SeedEvents 将事件目录写入 events 表。已存在的 slug 只更新目录字段，不触碰 payload 与刷新时间。
func SeedEvents(conn *gorm.DB, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("读取事件目录失败: %w", err)
	}
	entries, err := ParseSeed(data)
	if err != nil {
		return err
	}

	for _, e := range entries {
		event := models.Event{
			Slug:        e.Slug,
			Title:       e.Title,
			Category:    e.Category,
			SubCategory: e.SubCategory,
			Source:      e.Source,
		}
		err := conn.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "category", "sub_category", "source"}),
		}).Create(&event).Error
		if err != nil {
			return fmt.Errorf("写入事件 %s 失败: %w", e.Slug, err)
		}
	}
	logger.Info.Printf("事件目录已同步，共 %d 项", len(entries))
	return nil
}
