package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/model"
)

// NotificationRepository outbox rows
type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	UpdateStatus(ctx context.Context, id, status, errMsg string, sentAt *time.Time) error
}

type notificationRepo struct {
	db *gorm.DB
}

func NewNotificationRepo(db *gorm.DB) NotificationRepository {
	return &notificationRepo{db: db}
}

func (r *notificationRepo) Create(ctx context.Context, n *model.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *notificationRepo) UpdateStatus(ctx context.Context, id, status, errMsg string, sentAt *time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("notification_id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"error":      errMsg,
			"sent_at":    sentAt,
			"updated_at": time.Now().UTC(),
		}).Error
}
