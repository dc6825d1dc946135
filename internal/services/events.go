package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"eventboard/internal/models"

	"gorm.io/gorm"
)

// Category 一个分类及其下的全部子分类（按名称排序，不含空子分类）
type Category struct {
	Name          string
	SubCategories []string
}

// EventRepository events 表的读写
type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

// ListCategories 返回按名称排序的分类列表
func (r *EventRepository) ListCategories(ctx context.Context) ([]Category, error) {
	type row struct {
		Category    string
		SubCategory string
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&models.Event{}).
		Distinct("category", "sub_category").
		Order("category ASC").
		Order("sub_category ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, storeErr("list categories", err)
	}

	var categories []Category
	index := make(map[string]int)
	for _, rec := range rows {
		i, ok := index[rec.Category]
		if !ok {
			i = len(categories)
			index[rec.Category] = i
			categories = append(categories, Category{Name: rec.Category})
		}
		if rec.SubCategory != "" {
			categories[i].SubCategories = append(categories[i].SubCategories, rec.SubCategory)
		}
	}
	for i := range categories {
		sort.Strings(categories[i].SubCategories)
	}
	return categories, nil
}

// ListEvents 列出分类下的事件（按 slug 排序）。subCategory 为 nil 时不按子分类过滤，
// 指向空字符串时只返回没有子分类的事件。
func (r *EventRepository) ListEvents(ctx context.Context, category string, subCategory *string) ([]models.Event, error) {
	query := r.db.WithContext(ctx).Where("category = ?", category)
	if subCategory != nil {
		query = query.Where("sub_category = ?", *subCategory)
	}

	var events []models.Event
	if err := query.Order("slug ASC").Find(&events).Error; err != nil {
		return nil, storeErr("list events", err)
	}
	return events, nil
}

// GetBySlug 按 slug 读取事件
func (r *EventRepository) GetBySlug(ctx context.Context, slug string) (*models.Event, error) {
	var event models.Event
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, storeErr("get event", err)
	}
	return &event, nil
}

// GetByID 按主键读取事件。路由使用数字 ID，slug 可能是含 "/" 的订阅源地址。
func (r *EventRepository) GetByID(ctx context.Context, id uint) (*models.Event, error) {
	var event models.Event
	err := r.db.WithContext(ctx).First(&event, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, storeErr("get event", err)
	}
	return &event, nil
}

// GetLastUpdated 事件最近一次刷新时间；从未刷新或事件不存在时返回 nil
func (r *EventRepository) GetLastUpdated(ctx context.Context, slug string) (*time.Time, error) {
	var event models.Event
	err := r.db.WithContext(ctx).Select("updated_time").Where("slug = ?", slug).First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("get last updated", err)
	}
	return event.UpdatedTime, nil
}

// ReplacePayload 用新快照整体覆盖 payload 与刷新时间（单行更新，无版本校验，后写者胜）
func (r *EventRepository) ReplacePayload(ctx context.Context, slug string, payload []byte, ts time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.Event{}).
		Where("slug = ?", slug).
		Updates(map[string]interface{}{
			"payload":      string(payload),
			"updated_time": ts,
		})
	if res.Error != nil {
		return storeErr("replace payload", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrEventNotFound
	}
	return nil
}
