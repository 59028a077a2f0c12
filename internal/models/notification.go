package models

import (
	"time"

	"gorm.io/gorm"
)

type Notification struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	UserID     uint           `gorm:"not null;index" json:"user_id"`
	Type       string         `gorm:"size:50;not null;index" json:"type"`
	Title      string         `gorm:"size:255" json:"title"`
	Message    string         `gorm:"type:text" json:"message"`
	Priority   string         `gorm:"size:20;not null;default:medium" json:"priority"`
	Read       bool           `gorm:"default:false;index" json:"read"`
	Actionable bool           `gorm:"default:false" json:"actionable"`
	ActionLink string         `gorm:"size:512" json:"action_link,omitempty"`
	Metadata   string         `gorm:"type:text" json:"metadata,omitempty"` // JSON bag: project/task/meeting/feedback ids
	ExpiresAt  *time.Time     `gorm:"index" json:"expires_at,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Notification) TableName() string {
	return "notifications"
}
