package handler

import (
	"errors"
	"net/http"
	"strconv"

	"crewdesk/internal/domain"
	"crewdesk/internal/middleware"
	"crewdesk/internal/repository"
	"crewdesk/internal/service"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	repo *repository.NotificationRepository
	svc  *service.NotificationService
}

func NewNotificationHandler(repo *repository.NotificationRepository, svc *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{repo: repo, svc: svc}
}

func (h *NotificationHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	f := repository.ListFilter{
		UnreadOnly: c.Query("unread") == "true",
		Type:       c.Query("type"),
		Limit:      limit,
		Offset:     offset,
	}
	list, err := h.repo.ListByUserID(userID, f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": list})
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	count, err := h.repo.UnreadCount(middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	n, err := h.repo.GetByID(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if n.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	if err := h.svc.MarkNotificationAsRead(n.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	if err := h.svc.MarkAllNotificationsAsRead(middleware.GetUserID(c)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Send dispatches a notification to explicit recipients. Admin only.
func (h *NotificationHandler) Send(c *gin.Context) {
	var req service.NotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.svc.SendNotification(req); err != nil {
		if errors.Is(err, service.ErrNoRecipients) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "dispatch incomplete", "detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "dispatched", "recipients": len(req.Recipients)})
}

type BroadcastRequest struct {
	service.NotificationRequest
	Role string `json:"role" binding:"omitempty,oneof=ADMIN MANAGER MEMBER"`
}

// Broadcast sends to every active user, or to one role when given. Admin only.
func (h *NotificationHandler) Broadcast(c *gin.Context) {
	var req BroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var err error
	if req.Role != "" {
		err = h.svc.BroadcastToRole(req.Role, req.NotificationRequest)
	} else {
		err = h.svc.BroadcastToAll(req.NotificationRequest)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "broadcast incomplete", "detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "dispatched"})
}

func (h *NotificationHandler) Types(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"types": domain.NotificationTypes})
}
