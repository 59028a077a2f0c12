package domain

const (
	RoleAdmin   = "ADMIN"
	RoleManager = "MANAGER"
	RoleMember  = "MEMBER"
)

// Notification types
const (
	TypeTaskAssigned     = "task_assigned"
	TypeTaskDue          = "task_due"
	TypeTaskCompleted    = "task_completed"
	TypeProjectUpdate    = "project_update"
	TypeProjectMilestone = "project_milestone"
	TypeMeetingReminder  = "meeting_reminder"
	TypeFeedbackResponse = "feedback_response"
	TypeSystemAlert      = "system_alert"
	TypeGeneral          = "general"
)

// Notification priorities
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

var NotificationTypes = []string{
	TypeTaskAssigned,
	TypeTaskDue,
	TypeTaskCompleted,
	TypeProjectUpdate,
	TypeProjectMilestone,
	TypeMeetingReminder,
	TypeFeedbackResponse,
	TypeSystemAlert,
	TypeGeneral,
}

func ValidNotificationType(t string) bool {
	for _, k := range NotificationTypes {
		if k == t {
			return true
		}
	}
	return false
}

func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}
