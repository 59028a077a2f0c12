package service

import (
	"errors"

	"crewdesk/internal/models"

	"gorm.io/gorm"
)

type preferenceStore interface {
	GetByUserID(userID uint) (*models.NotificationPreferences, error)
}

// ChannelDecision says which delivery channels fire for one recipient and
// notification type.
type ChannelDecision struct {
	Email    bool `json:"email"`
	Push     bool `json:"push"`
	RealTime bool `json:"real_time"`
}

// PreferenceResolver is read-only: it never mutates stored preferences.
type PreferenceResolver struct {
	store preferenceStore
}

func NewPreferenceResolver(store preferenceStore) *PreferenceResolver {
	return &PreferenceResolver{store: store}
}

// Resolve looks up stored preferences for the user. A user with no stored row
// gets the documented defaults; a failing lookup suppresses every channel
// rather than failing the dispatch.
func (r *PreferenceResolver) Resolve(userID uint, notifType string) ChannelDecision {
	prefs, err := r.store.GetByUserID(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		p := models.DefaultPreferences(userID)
		prefs = &p
	} else if err != nil {
		return ChannelDecision{}
	}
	return Decide(prefs, notifType)
}

// Decide is the channel-suppression rule, kept pure so it can be tested
// without a store.
func Decide(p *models.NotificationPreferences, notifType string) ChannelDecision {
	return ChannelDecision{
		Email:    p.Email.For(notifType),
		Push:     p.Push.For(notifType),
		RealTime: p.RealTime.Enabled && p.RealTime.Types.For(notifType),
	}
}
