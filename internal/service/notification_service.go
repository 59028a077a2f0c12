package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"crewdesk/internal/domain"
	"crewdesk/internal/logger"
	"crewdesk/internal/mail"
	"crewdesk/internal/metrics"
	"crewdesk/internal/models"

	"go.uber.org/zap"
)

// Server->client websocket events.
const (
	EventNotification = "notification"
	EventSummary      = "notification:summary"
)

type notificationStore interface {
	Create(n *models.Notification) error
	MarkRead(id uint) error
	MarkAllRead(userID uint) error
	DeleteExpired(now time.Time) (int64, error)
}

type userDirectory interface {
	GetByID(id uint) (*models.User, error)
	ListActive() ([]models.User, error)
	ListByRole(role string) ([]models.User, error)
}

type channelResolver interface {
	Resolve(userID uint, notifType string) ChannelDecision
}

type connectionRegistry interface {
	IsOnline(userID uint) bool
	PushToUser(userID uint, event string, payload interface{})
}

type mailer interface {
	SendEmail(msg mail.Message) bool
}

// NotificationRequest is one dispatch: one event, one or more recipients.
type NotificationRequest struct {
	Recipients        []uint                 `json:"recipients"`
	Type              string                 `json:"type"`
	Title             string                 `json:"title"`
	Message           string                 `json:"message"`
	Priority          string                 `json:"priority"`
	Actionable        bool                   `json:"actionable"`
	ActionLink        string                 `json:"action_link"`
	Metadata          map[string]interface{} `json:"metadata"`
	ExpiresAt         *time.Time             `json:"expires_at"`
	EmailNotification bool                   `json:"email_notification"`
}

// NotificationService decides and executes delivery channels: real-time push
// to connected sessions, queued replay for offline users, and fire-and-forget
// email. Collaborators are injected so each can be faked in tests.
type NotificationService struct {
	store    notificationStore
	users    userDirectory
	resolver channelResolver
	registry connectionRegistry
	queue    *DeliveryQueue
	mailer   mailer
}

func NewNotificationService(store notificationStore, users userDirectory, resolver channelResolver, registry connectionRegistry, queue *DeliveryQueue, mailer mailer) *NotificationService {
	return &NotificationService{
		store:    store,
		users:    users,
		resolver: resolver,
		registry: registry,
		queue:    queue,
		mailer:   mailer,
	}
}

var ErrNoRecipients = errors.New("notification has no recipients")

// SendNotification fans the request out into one independent record per
// recipient. Each record is persisted before any delivery attempt, so a
// client that receives a push can always fetch the same record. Persistence
// failures are collected and returned; delivery failures are not errors.
func (s *NotificationService) SendNotification(req NotificationRequest) error {
	if len(req.Recipients) == 0 {
		return ErrNoRecipients
	}
	if !domain.ValidNotificationType(req.Type) {
		req.Type = domain.TypeGeneral
	}
	if !domain.ValidPriority(req.Priority) {
		req.Priority = domain.PriorityMedium
	}
	var metadata string
	if req.Metadata != nil {
		b, _ := json.Marshal(req.Metadata)
		metadata = string(b)
	}

	var errs []error
	for _, userID := range req.Recipients {
		n := models.Notification{
			UserID:     userID,
			Type:       req.Type,
			Title:      req.Title,
			Message:    req.Message,
			Priority:   req.Priority,
			Actionable: req.Actionable,
			ActionLink: req.ActionLink,
			Metadata:   metadata,
			ExpiresAt:  req.ExpiresAt,
		}
		if err := s.store.Create(&n); err != nil {
			errs = append(errs, fmt.Errorf("persist notification for user %d: %w", userID, err))
			continue
		}
		metrics.NotificationsDispatched.WithLabelValues(n.Type).Inc()

		decision := s.resolver.Resolve(userID, n.Type)
		if s.registry != nil && s.registry.IsOnline(userID) {
			// Online: real-time push if enabled, and never a queued copy.
			if decision.RealTime {
				s.registry.PushToUser(userID, EventNotification, n)
				metrics.NotificationsPushed.Inc()
			}
		} else {
			s.queue.Enqueue(userID, n)
			metrics.NotificationsQueued.Inc()
		}

		if req.EmailNotification && decision.Email && s.mailer != nil {
			go s.sendEmailCopy(userID, n)
		}
	}
	return errors.Join(errs...)
}

// sendEmailCopy delivers the email rendition of a notification. Failures end
// up in the sender's stats, never in the dispatch result.
func (s *NotificationService) sendEmailCopy(userID uint, n models.Notification) {
	u, err := s.users.GetByID(userID)
	if err != nil || u.Email == "" {
		return
	}
	body := fmt.Sprintf("<h3>%s</h3><p>%s</p>", n.Title, n.Message)
	if n.Actionable && n.ActionLink != "" {
		body += fmt.Sprintf(`<p><a href="%s">View</a></p>`, n.ActionLink)
	}
	s.mailer.SendEmail(mail.Message{
		To:      []string{u.Email},
		Subject: n.Title,
		HTML:    body,
	})
}

// BroadcastToAll sends the request to every active user.
func (s *NotificationService) BroadcastToAll(req NotificationRequest) error {
	users, err := s.users.ListActive()
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	return s.sendToUsers(users, req)
}

// BroadcastToRole sends the request to every active user holding the role.
func (s *NotificationService) BroadcastToRole(role string, req NotificationRequest) error {
	users, err := s.users.ListByRole(role)
	if err != nil {
		return fmt.Errorf("list users by role: %w", err)
	}
	return s.sendToUsers(users, req)
}

func (s *NotificationService) sendToUsers(users []models.User, req NotificationRequest) error {
	if len(users) == 0 {
		return nil
	}
	req.Recipients = make([]uint, 0, len(users))
	for _, u := range users {
		req.Recipients = append(req.Recipients, u.ID)
	}
	return s.SendNotification(req)
}

func (s *NotificationService) MarkNotificationAsRead(id uint) error {
	return s.store.MarkRead(id)
}

func (s *NotificationService) MarkAllNotificationsAsRead(userID uint) error {
	return s.store.MarkAllRead(userID)
}

// HandleConnect replays queued notifications to a user who just connected,
// in original insertion order, followed by a summary event. Wired to the
// hub's connect handler.
func (s *NotificationService) HandleConnect(userID uint) {
	pending := s.queue.Flush(userID)
	if len(pending) == 0 {
		return
	}
	for _, n := range pending {
		s.registry.PushToUser(userID, EventNotification, n)
		metrics.NotificationsPushed.Inc()
	}
	s.registry.PushToUser(userID, EventSummary, map[string]interface{}{
		"replayed": len(pending),
	})
	logger.L().Debug("replayed queued notifications",
		zap.Uint("user_id", userID), zap.Int("count", len(pending)))
}

// RunCleanup deletes expired notifications on a fixed interval until the
// channel closes.
func (s *NotificationService) RunCleanup(interval time.Duration, stop <-chan struct{}) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			deleted, err := s.store.DeleteExpired(time.Now())
			if err != nil {
				logger.L().Error("expired notification sweep failed", zap.Error(err))
				continue
			}
			if deleted > 0 {
				logger.L().Info("expired notifications removed", zap.Int64("count", deleted))
			}
		case <-stop:
			return
		}
	}
}

// Fixed call sites for the application's own events.

func (s *NotificationService) NotifyTaskAssigned(userID uint, taskTitle, projectName string, taskID uint, email bool) error {
	return s.SendNotification(NotificationRequest{
		Recipients:        []uint{userID},
		Type:              domain.TypeTaskAssigned,
		Title:             "New task assigned",
		Message:           fmt.Sprintf("You've been assigned %q in %s", taskTitle, projectName),
		Priority:          domain.PriorityMedium,
		Actionable:        true,
		ActionLink:        fmt.Sprintf("/tasks/%d", taskID),
		Metadata:          map[string]interface{}{"task_id": taskID},
		EmailNotification: email,
	})
}

func (s *NotificationService) NotifyTaskDue(userID uint, taskTitle string, taskID uint, due time.Time) error {
	return s.SendNotification(NotificationRequest{
		Recipients: []uint{userID},
		Type:       domain.TypeTaskDue,
		Title:      "Task due soon",
		Message:    fmt.Sprintf("%q is due %s", taskTitle, due.Format("Jan 2, 15:04")),
		Priority:   domain.PriorityHigh,
		Actionable: true,
		ActionLink: fmt.Sprintf("/tasks/%d", taskID),
		Metadata:   map[string]interface{}{"task_id": taskID},
	})
}

func (s *NotificationService) NotifyTaskCompleted(userID uint, taskTitle, completedBy string, taskID uint) error {
	return s.SendNotification(NotificationRequest{
		Recipients: []uint{userID},
		Type:       domain.TypeTaskCompleted,
		Title:      "Task completed",
		Message:    fmt.Sprintf("%s completed %q", completedBy, taskTitle),
		Priority:   domain.PriorityLow,
		Metadata:   map[string]interface{}{"task_id": taskID},
	})
}

func (s *NotificationService) NotifyProjectUpdate(recipients []uint, projectName, update string, projectID uint) error {
	return s.SendNotification(NotificationRequest{
		Recipients: recipients,
		Type:       domain.TypeProjectUpdate,
		Title:      "Project update: " + projectName,
		Message:    update,
		Priority:   domain.PriorityMedium,
		Metadata:   map[string]interface{}{"project_id": projectID},
	})
}

func (s *NotificationService) NotifyProjectMilestone(recipients []uint, projectName, milestone string, projectID uint) error {
	return s.SendNotification(NotificationRequest{
		Recipients:        recipients,
		Type:              domain.TypeProjectMilestone,
		Title:             "Milestone reached",
		Message:           fmt.Sprintf("%s hit %q", projectName, milestone),
		Priority:          domain.PriorityMedium,
		Metadata:          map[string]interface{}{"project_id": projectID},
		EmailNotification: true,
	})
}

func (s *NotificationService) NotifyMeetingReminder(recipients []uint, meetingTitle string, meetingID uint, startsAt time.Time) error {
	expires := startsAt.Add(time.Hour)
	return s.SendNotification(NotificationRequest{
		Recipients: recipients,
		Type:       domain.TypeMeetingReminder,
		Title:      "Meeting reminder",
		Message:    fmt.Sprintf("%q starts at %s", meetingTitle, startsAt.Format("15:04")),
		Priority:   domain.PriorityHigh,
		Actionable: true,
		ActionLink: fmt.Sprintf("/meetings/%d", meetingID),
		Metadata:   map[string]interface{}{"meeting_id": meetingID},
		ExpiresAt:  &expires,
	})
}

func (s *NotificationService) NotifyFeedbackResponse(userID uint, feedbackID uint) error {
	return s.SendNotification(NotificationRequest{
		Recipients: []uint{userID},
		Type:       domain.TypeFeedbackResponse,
		Title:      "Feedback response",
		Message:    "Someone responded to your feedback",
		Actionable: true,
		ActionLink: fmt.Sprintf("/feedback/%d", feedbackID),
		Metadata:   map[string]interface{}{"feedback_id": feedbackID},
	})
}

// SystemAlert goes to everyone, urgent, with email copies.
func (s *NotificationService) SystemAlert(title, message string) error {
	return s.BroadcastToAll(NotificationRequest{
		Type:              domain.TypeSystemAlert,
		Title:             title,
		Message:           message,
		Priority:          domain.PriorityUrgent,
		EmailNotification: true,
	})
}
