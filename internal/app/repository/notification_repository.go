package repository

import (
	"github.com/kireiworks/cleaning-backend/internal/app/model"
	"github.com/kireiworks/cleaning-backend/pkg/logger"
	"gorm.io/gorm"
)

type NotificationRepository interface {
	Create(notification *model.Notification) error
	ListForUser(userID uint, unreadOnly bool, limit, offset int) ([]model.Notification, int64, error)
	UnreadCount(userID uint) (int64, error)
	// MarkRead marks one of the user's notifications read; ErrRecordNotFound if it is not theirs
	MarkRead(id, userID uint) error
	MarkAllRead(userID uint) error
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(notification *model.Notification) error {
	if err := r.db.Create(notification).Error; err != nil {
		logger.Error("Failed to create notification", err, map[string]interface{}{
			"user_id": notification.UserID,
			"type":    notification.Type,
		})
		return err
	}
	return nil
}

func (r *notificationRepository) ListForUser(userID uint, unreadOnly bool, limit, offset int) ([]model.Notification, int64, error) {
	query := r.db.Model(&model.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var notifications []model.Notification
	if err := query.Order("created_at DESC").Order("id DESC").Limit(limit).Offset(offset).Find(&notifications).Error; err != nil {
		logger.Error("Failed to list notifications", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, 0, err
	}
	return notifications, total, nil
}

func (r *notificationRepository) UnreadCount(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

func (r *notificationRepository) MarkRead(id, userID uint) error {
	result := r.db.Model(&model.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(userID uint) error {
	return r.db.Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error
}
