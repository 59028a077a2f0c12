package repository

import (
	"crewdesk/internal/models"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(u *models.User) error {
	return r.db.Create(u).Error
}

func (r *UserRepository) GetByID(id uint) (*models.User, error) {
	var u models.User
	if err := r.db.First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	var u models.User
	if err := r.db.Where("email = ?", email).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) ListActive() ([]models.User, error) {
	var list []models.User
	err := r.db.Where("active = ?", true).Find(&list).Error
	return list, err
}

func (r *UserRepository) ListByRole(role string) ([]models.User, error) {
	var list []models.User
	err := r.db.Where("active = ? AND role = ?", true, role).Find(&list).Error
	return list, err
}

func (r *UserRepository) Update(u *models.User) error {
	return r.db.Save(u).Error
}
