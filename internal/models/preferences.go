package models

import (
	"time"

	"crewdesk/internal/domain"
)

// ChannelPrefs holds the per-category toggles for one delivery channel.
// Categories group the notification types a user actually reasons about.
type ChannelPrefs struct {
	TaskActivity    bool `json:"task_activity"`    // task_assigned, task_due, task_completed
	ProjectActivity bool `json:"project_activity"` // project_update, project_milestone
	Meetings        bool `json:"meetings"`         // meeting_reminder
	Feedback        bool `json:"feedback"`         // feedback_response
	SystemAlerts    bool `json:"system_alerts"`    // system_alert
	TeamActivity    bool `json:"team_activity"`    // general
}

// For reports whether the channel is enabled for a notification type.
// Unknown types fall into the team-activity bucket.
func (p ChannelPrefs) For(notifType string) bool {
	switch notifType {
	case domain.TypeTaskAssigned, domain.TypeTaskDue, domain.TypeTaskCompleted:
		return p.TaskActivity
	case domain.TypeProjectUpdate, domain.TypeProjectMilestone:
		return p.ProjectActivity
	case domain.TypeMeetingReminder:
		return p.Meetings
	case domain.TypeFeedbackResponse:
		return p.Feedback
	case domain.TypeSystemAlert:
		return p.SystemAlerts
	default:
		return p.TeamActivity
	}
}

// RealTimePrefs adds the socket-channel flags on top of the category toggles.
type RealTimePrefs struct {
	Enabled bool         `json:"enabled"`
	Sound   bool         `json:"sound"`
	Desktop bool         `json:"desktop"`
	Types   ChannelPrefs `json:"types"`
}

type NotificationPreferences struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	UserID    uint          `gorm:"uniqueIndex;not null" json:"user_id"`
	Email     ChannelPrefs  `gorm:"serializer:json;type:text" json:"email"`
	Push      ChannelPrefs  `gorm:"serializer:json;type:text" json:"push"`
	RealTime  RealTimePrefs `gorm:"serializer:json;type:text" json:"real_time"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func (NotificationPreferences) TableName() string {
	return "notification_preferences"
}

func allOn() ChannelPrefs {
	return ChannelPrefs{
		TaskActivity:    true,
		ProjectActivity: true,
		Meetings:        true,
		Feedback:        true,
		SystemAlerts:    true,
		TeamActivity:    true,
	}
}

// DefaultPreferences is the documented fallback used when a user has no stored
// row: everything opt-in except team-activity email.
func DefaultPreferences(userID uint) NotificationPreferences {
	email := allOn()
	email.TeamActivity = false
	return NotificationPreferences{
		UserID: userID,
		Email:  email,
		Push:   allOn(),
		RealTime: RealTimePrefs{
			Enabled: true,
			Sound:   true,
			Desktop: true,
			Types:   allOn(),
		},
	}
}
