package models

import (
	"strings"
	"time"
)

// EmailTemplate is a named template with {{variable}} placeholders in the
// subject and HTML body. Variables is a comma-separated list of the names the
// template declares.
type EmailTemplate struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:64;not null" json:"name"`
	Subject   string    `gorm:"size:255;not null" json:"subject"`
	HTMLBody  string    `gorm:"type:text;not null" json:"html_body"`
	Variables string    `gorm:"size:512" json:"variables"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (EmailTemplate) TableName() string {
	return "email_templates"
}

func (t *EmailTemplate) VariableNames() []string {
	if t.Variables == "" {
		return nil
	}
	parts := strings.Split(t.Variables, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
