package handler

import (
	"errors"
	"net/http"

	"crewdesk/internal/middleware"
	"crewdesk/internal/models"
	"crewdesk/internal/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type PreferenceHandler struct {
	repo *repository.PreferenceRepository
}

func NewPreferenceHandler(repo *repository.PreferenceRepository) *PreferenceHandler {
	return &PreferenceHandler{repo: repo}
}

// Get returns the stored preferences, or the defaults for a user who never
// saved any.
func (h *PreferenceHandler) Get(c *gin.Context) {
	userID := middleware.GetUserID(c)
	p, err := h.repo.GetByUserID(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		def := models.DefaultPreferences(userID)
		c.JSON(http.StatusOK, gin.H{"preferences": def, "stored": false})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"preferences": p, "stored": true})
}

type UpdatePreferencesRequest struct {
	Email    models.ChannelPrefs  `json:"email"`
	Push     models.ChannelPrefs  `json:"push"`
	RealTime models.RealTimePrefs `json:"real_time"`
}

func (h *PreferenceHandler) Update(c *gin.Context) {
	var req UpdatePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p := models.NotificationPreferences{
		UserID:   middleware.GetUserID(c),
		Email:    req.Email,
		Push:     req.Push,
		RealTime: req.RealTime,
	}
	if err := h.repo.Upsert(&p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"preferences": p})
}
