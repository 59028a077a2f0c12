package repository

import (
	"crewdesk/internal/models"

	"gorm.io/gorm"
)

type TemplateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

func (r *TemplateRepository) GetByName(name string) (*models.EmailTemplate, error) {
	var t models.EmailTemplate
	if err := r.db.Where("name = ?", name).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TemplateRepository) List() ([]models.EmailTemplate, error) {
	var list []models.EmailTemplate
	err := r.db.Order("name").Find(&list).Error
	return list, err
}

func (r *TemplateRepository) Upsert(t *models.EmailTemplate) error {
	var existing models.EmailTemplate
	err := r.db.Where("name = ?", t.Name).First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		return r.db.Create(t).Error
	}
	if err != nil {
		return err
	}
	t.ID = existing.ID
	t.CreatedAt = existing.CreatedAt
	return r.db.Save(t).Error
}

func (r *TemplateRepository) DeleteByName(name string) error {
	return r.db.Where("name = ?", name).Delete(&models.EmailTemplate{}).Error
}
