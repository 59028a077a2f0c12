package repository

import (
	"crewdesk/internal/models"

	"gorm.io/gorm"
)

type PreferenceRepository struct {
	db *gorm.DB
}

func NewPreferenceRepository(db *gorm.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// GetByUserID returns gorm.ErrRecordNotFound when the user never saved
// preferences; callers fall back to the defaults.
func (r *PreferenceRepository) GetByUserID(userID uint) (*models.NotificationPreferences, error) {
	var p models.NotificationPreferences
	if err := r.db.Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PreferenceRepository) Upsert(p *models.NotificationPreferences) error {
	var existing models.NotificationPreferences
	err := r.db.Where("user_id = ?", p.UserID).First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		return r.db.Create(p).Error
	}
	if err != nil {
		return err
	}
	p.ID = existing.ID
	p.CreatedAt = existing.CreatedAt
	return r.db.Save(p).Error
}
