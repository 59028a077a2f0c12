package repository

import (
	"time"

	"crewdesk/internal/models"

	"gorm.io/gorm"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(n *models.Notification) error {
	return r.db.Create(n).Error
}

// ListFilter narrows ListByUserID. Zero values mean "no filter".
type ListFilter struct {
	UnreadOnly bool
	Type       string
	Limit      int
	Offset     int
}

func (r *NotificationRepository) ListByUserID(userID uint, f ListFilter) ([]models.Notification, error) {
	q := r.db.Where("user_id = ?", userID)
	if f.UnreadOnly {
		q = q.Where("`read` = ?", false)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	var list []models.Notification
	err := q.Order("created_at DESC").Limit(limit).Offset(f.Offset).Find(&list).Error
	return list, err
}

func (r *NotificationRepository) GetByID(id uint) (*models.Notification, error) {
	var n models.Notification
	if err := r.db.First(&n, id).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *NotificationRepository) MarkRead(id uint) error {
	return r.db.Model(&models.Notification{}).Where("id = ?", id).Update("read", true).Error
}

// MarkAllRead flips every unread notification for the user. Running it again
// matches zero rows, which is not an error.
func (r *NotificationRepository) MarkAllRead(userID uint) error {
	return r.db.Model(&models.Notification{}).Where("user_id = ? AND `read` = ?", userID, false).Update("read", true).Error
}

func (r *NotificationRepository) UnreadCount(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).Where("user_id = ? AND `read` = ?", userID, false).Count(&count).Error
	return count, err
}

func (r *NotificationRepository) DeleteExpired(now time.Time) (int64, error) {
	res := r.db.Where("expires_at IS NOT NULL AND expires_at < ?", now).Delete(&models.Notification{})
	return res.RowsAffected, res.Error
}
