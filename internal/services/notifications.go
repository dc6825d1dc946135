package services

import (
	"context"

	"eventboard/internal/models"

	"gorm.io/gorm"
)

const notificationPageSize = 50

// NotificationService 站内通知（目前只有评论被回复）
type NotificationService struct {
	db *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// List 最近的通知，新的在前
func (s *NotificationService) List(ctx context.Context, userID uint) ([]models.Notification, error) {
	var notifications []models.Notification
	err := s.db.WithContext(ctx).Preload("Actor").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(notificationPageSize).
		Find(&notifications).Error
	if err != nil {
		return nil, storeErr("list notifications", err)
	}
	return notifications, nil
}

// MarkRead 标记单条通知为已读，只能操作自己的通知
func (s *NotificationService) MarkRead(ctx context.Context, userID, id uint) error {
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if res.Error != nil {
		return storeErr("mark notification read", res.Error)
	}
	if res.RowsAffected == 0 {
		return newError(ErrNotFound, "通知不存在")
	}
	return nil
}

// MarkAllRead 全部标记为已读
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) error {
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error
	if err != nil {
		return storeErr("mark all notifications read", err)
	}
	return nil
}

// UnreadCount 未读通知数
func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, storeErr("count unread notifications", err)
	}
	return count, nil
}
