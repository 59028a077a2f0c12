package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"crewdesk/internal/domain"
	"crewdesk/internal/mail"
	"crewdesk/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Fakes ---

type fakeStore struct {
	mu       sync.Mutex
	nextID   uint
	created  []models.Notification
	failFor  map[uint]error // userID -> error on Create
	readIDs  map[uint]bool
	allRead  map[uint]int // userID -> MarkAllRead call count
	expDel   int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		failFor: make(map[uint]error),
		readIDs: make(map[uint]bool),
		allRead: make(map[uint]int),
	}
}

func (s *fakeStore) Create(n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failFor[n.UserID]; err != nil {
		return err
	}
	s.nextID++
	n.ID = s.nextID
	s.created = append(s.created, *n)
	return nil
}

func (s *fakeStore) MarkRead(id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readIDs[id] = true
	for i := range s.created {
		if s.created[i].ID == id {
			s.created[i].Read = true
		}
	}
	return nil
}

func (s *fakeStore) MarkAllRead(userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allRead[userID]++
	for i := range s.created {
		if s.created[i].UserID == userID {
			s.created[i].Read = true
		}
	}
	return nil
}

func (s *fakeStore) DeleteExpired(now time.Time) (int64, error) {
	return s.expDel, nil
}

func (s *fakeStore) forUser(userID uint) []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Notification
	for _, n := range s.created {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

type fakeDirectory struct {
	users map[uint]models.User
}

func (d *fakeDirectory) GetByID(id uint) (*models.User, error) {
	if u, ok := d.users[id]; ok {
		return &u, nil
	}
	return nil, errors.New("not found")
}

func (d *fakeDirectory) ListActive() ([]models.User, error) {
	var out []models.User
	for _, u := range d.users {
		out = append(out, u)
	}
	return out, nil
}

func (d *fakeDirectory) ListByRole(role string) ([]models.User, error) {
	var out []models.User
	for _, u := range d.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

type fakeResolver struct {
	decisions map[uint]ChannelDecision
	fallback  ChannelDecision
}

func (r *fakeResolver) Resolve(userID uint, notifType string) ChannelDecision {
	if d, ok := r.decisions[userID]; ok {
		return d
	}
	return r.fallback
}

type pushedEvent struct {
	UserID  uint
	Event   string
	Payload interface{}
}

type fakeRegistry struct {
	mu     sync.Mutex
	online map[uint]bool
	pushes []pushedEvent
}

func (r *fakeRegistry) IsOnline(userID uint) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.online[userID]
}

func (r *fakeRegistry) PushToUser(userID uint, event string, payload interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pushes = append(r.pushes, pushedEvent{UserID: userID, Event: event, Payload: payload})
}

func (r *fakeRegistry) pushesFor(userID uint) []pushedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []pushedEvent
	for _, p := range r.pushes {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (m *fakeMailer) SendEmail(msg mail.Message) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return true
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func allOnDecision() ChannelDecision {
	return ChannelDecision{Email: true, Push: true, RealTime: true}
}

func newService(store *fakeStore, dir *fakeDirectory, res *fakeResolver, reg *fakeRegistry, m *fakeMailer) (*NotificationService, *DeliveryQueue) {
	queue := NewDeliveryQueue()
	return NewNotificationService(store, dir, res, reg, queue, m), queue
}

// --- Tests ---

func TestSendNotificationFanOut(t *testing.T) {
	store := newFakeStore()
	reg := &fakeRegistry{online: map[uint]bool{}}
	svc, _ := newService(store, &fakeDirectory{}, &fakeResolver{fallback: allOnDecision()}, reg, nil)

	err := svc.SendNotification(NotificationRequest{
		Recipients: []uint{1, 2, 3},
		Type:       domain.TypeProjectUpdate,
		Title:      "Sprint review moved",
		Message:    "Now Thursday 14:00",
		Priority:   domain.PriorityMedium,
	})
	require.NoError(t, err)

	require.Len(t, store.created, 3)
	seen := map[uint]bool{}
	for _, n := range store.created {
		assert.Equal(t, domain.TypeProjectUpdate, n.Type)
		assert.Equal(t, "Sprint review moved", n.Title)
		assert.Equal(t, "Now Thursday 14:00", n.Message)
		assert.Equal(t, domain.PriorityMedium, n.Priority)
		seen[n.UserID] = true
	}
	assert.Len(t, seen, 3, "one independent record per recipient")
}

func TestSendNotificationNoRecipients(t *testing.T) {
	svc, _ := newService(newFakeStore(), &fakeDirectory{}, &fakeResolver{}, &fakeRegistry{online: map[uint]bool{}}, nil)
	err := svc.SendNotification(NotificationRequest{Type: domain.TypeGeneral})
	assert.ErrorIs(t, err, ErrNoRecipients)
}

func TestSendNotificationDefaultsTypeAndPriority(t *testing.T) {
	store := newFakeStore()
	svc, _ := newService(store, &fakeDirectory{}, &fakeResolver{fallback: allOnDecision()}, &fakeRegistry{online: map[uint]bool{}}, nil)

	require.NoError(t, svc.SendNotification(NotificationRequest{
		Recipients: []uint{1},
		Type:       "not-a-type",
		Priority:   "extreme",
	}))
	require.Len(t, store.created, 1)
	assert.Equal(t, domain.TypeGeneral, store.created[0].Type)
	assert.Equal(t, domain.PriorityMedium, store.created[0].Priority)
}

func TestOnlineRecipientGetsPushNotQueue(t *testing.T) {
	store := newFakeStore()
	reg := &fakeRegistry{online: map[uint]bool{7: true}}
	svc, queue := newService(store, &fakeDirectory{}, &fakeResolver{fallback: allOnDecision()}, reg, nil)

	require.NoError(t, svc.SendNotification(NotificationRequest{
		Recipients: []uint{7},
		Type:       domain.TypeTaskAssigned,
		Title:      "t",
	}))

	pushes := reg.pushesFor(7)
	require.Len(t, pushes, 1)
	assert.Equal(t, EventNotification, pushes[0].Event)
	assert.Equal(t, 0, queue.Len(7), "online delivery must not also queue")
}

func TestOfflineRecipientQueuedAndReplayedInOrder(t *testing.T) {
	store := newFakeStore()
	reg := &fakeRegistry{online: map[uint]bool{}}
	svc, queue := newService(store, &fakeDirectory{}, &fakeResolver{fallback: allOnDecision()}, reg, nil)

	for _, title := range []string{"first", "second", "third"} {
		require.NoError(t, svc.SendNotification(NotificationRequest{
			Recipients: []uint{9},
			Type:       domain.TypeGeneral,
			Title:      title,
		}))
	}
	assert.Empty(t, reg.pushesFor(9))
	assert.Equal(t, 3, queue.Len(9))

	svc.HandleConnect(9)

	pushes := reg.pushesFor(9)
	require.Len(t, pushes, 4, "three replays plus a summary")
	for i, want := range []string{"first", "second", "third"} {
		assert.Equal(t, EventNotification, pushes[i].Event)
		n := pushes[i].Payload.(models.Notification)
		assert.Equal(t, want, n.Title)
	}
	assert.Equal(t, EventSummary, pushes[3].Event)
	assert.Equal(t, 0, queue.Len(9), "queue empty after flush")

	// A second connect replays nothing.
	svc.HandleConnect(9)
	assert.Len(t, reg.pushesFor(9), 4)
}

func TestMixedRecipientScenario(t *testing.T) {
	// u1 online, email off; u2 offline, email on.
	store := newFakeStore()
	dir := &fakeDirectory{users: map[uint]models.User{
		1: {ID: 1, Email: "u1@example.com"},
		2: {ID: 2, Email: "u2@example.com"},
	}}
	res := &fakeResolver{decisions: map[uint]ChannelDecision{
		1: {Email: false, Push: true, RealTime: true},
		2: {Email: true, Push: true, RealTime: true},
	}}
	reg := &fakeRegistry{online: map[uint]bool{1: true}}
	mailer := &fakeMailer{}
	svc, queue := newService(store, dir, res, reg, mailer)

	require.NoError(t, svc.SendNotification(NotificationRequest{
		Recipients:        []uint{1, 2},
		Type:              domain.TypeTaskAssigned,
		Title:             "Task assigned",
		EmailNotification: true,
	}))

	assert.Len(t, reg.pushesFor(1), 1, "u1 gets exactly one real-time push")
	assert.Equal(t, 0, queue.Len(1))
	assert.Empty(t, reg.pushesFor(2))
	assert.Equal(t, 1, queue.Len(2), "u2 gets one queued record")

	assert.Eventually(t, func() bool { return mailer.count() == 1 }, time.Second, 10*time.Millisecond)
	mailer.mu.Lock()
	defer mailer.mu.Unlock()
	assert.Equal(t, []string{"u2@example.com"}, mailer.sent[0].To, "only u2 receives email")
}

func TestPersistFailureSurfacedButFanOutContinues(t *testing.T) {
	store := newFakeStore()
	store.failFor[2] = errors.New("db down")
	reg := &fakeRegistry{online: map[uint]bool{}}
	svc, queue := newService(store, &fakeDirectory{}, &fakeResolver{fallback: allOnDecision()}, reg, nil)

	err := svc.SendNotification(NotificationRequest{
		Recipients: []uint{1, 2, 3},
		Type:       domain.TypeGeneral,
		Title:      "t",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user 2")
	assert.Len(t, store.created, 2, "other recipients still persisted")
	assert.Equal(t, 0, queue.Len(2), "failed persist is never delivered")
}

func TestBroadcastToRole(t *testing.T) {
	store := newFakeStore()
	dir := &fakeDirectory{users: map[uint]models.User{
		1: {ID: 1, Role: domain.RoleManager},
		2: {ID: 2, Role: domain.RoleMember},
		3: {ID: 3, Role: domain.RoleManager},
	}}
	svc, _ := newService(store, dir, &fakeResolver{fallback: allOnDecision()}, &fakeRegistry{online: map[uint]bool{}}, nil)

	require.NoError(t, svc.BroadcastToRole(domain.RoleManager, NotificationRequest{
		Type:  domain.TypeProjectMilestone,
		Title: "v2 shipped",
	}))
	require.Len(t, store.created, 2)
	for _, n := range store.created {
		assert.NotEqual(t, uint(2), n.UserID)
	}
}

func TestBroadcastToAllEmptyDirectory(t *testing.T) {
	svc, _ := newService(newFakeStore(), &fakeDirectory{}, &fakeResolver{}, &fakeRegistry{online: map[uint]bool{}}, nil)
	assert.NoError(t, svc.BroadcastToAll(NotificationRequest{Type: domain.TypeSystemAlert, Title: "t"}))
}

func TestMarkAllReadIdempotent(t *testing.T) {
	store := newFakeStore()
	svc, _ := newService(store, &fakeDirectory{}, &fakeResolver{fallback: allOnDecision()}, &fakeRegistry{online: map[uint]bool{}}, nil)

	require.NoError(t, svc.SendNotification(NotificationRequest{
		Recipients: []uint{5, 5},
		Type:       domain.TypeGeneral,
		Title:      "t",
	}))

	require.NoError(t, svc.MarkAllNotificationsAsRead(5))
	for _, n := range store.forUser(5) {
		assert.True(t, n.Read)
	}
	require.NoError(t, svc.MarkAllNotificationsAsRead(5))
	for _, n := range store.forUser(5) {
		assert.True(t, n.Read)
	}
	assert.Equal(t, 2, store.allRead[5])
}

func TestRealTimeDisabledSuppressesOnlinePush(t *testing.T) {
	store := newFakeStore()
	res := &fakeResolver{fallback: ChannelDecision{Email: true, Push: true, RealTime: false}}
	reg := &fakeRegistry{online: map[uint]bool{4: true}}
	svc, queue := newService(store, &fakeDirectory{}, res, reg, nil)

	require.NoError(t, svc.SendNotification(NotificationRequest{
		Recipients: []uint{4},
		Type:       domain.TypeGeneral,
		Title:      "t",
	}))
	assert.Len(t, store.created, 1, "record persists regardless of channels")
	assert.Empty(t, reg.pushesFor(4))
	assert.Equal(t, 0, queue.Len(4), "online user is never queued")
}
