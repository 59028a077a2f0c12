package ws

import (
	"encoding/json"
	"sync"

	"crewdesk/internal/metrics"
)

// Event is the envelope for every server->client message.
type Event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Client represents a single WebSocket session bound to a user.
type Client struct {
	UserID    uint
	SessionID string
	Role      string
	Send      chan []byte
	hub       *Hub
	mu        sync.Mutex
	closed    bool
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
	if c.hub != nil {
		c.hub.unregister(c)
	}
}

// Hub tracks live sessions per user. A user is online iff they have at least
// one registered session; closing one tab must not mark a user with a second
// tab offline.
type Hub struct {
	mu     sync.RWMutex
	byUser map[uint]map[string]*Client

	// onConnect fires after a session registers, so queued notifications can
	// be replayed to the user.
	onConnect func(userID uint)
}

func NewHub() *Hub {
	return &Hub{
		byUser: make(map[uint]map[string]*Client),
	}
}

// SetConnectHandler installs the reconnect callback. Must be called before the
// hub starts accepting connections.
func (h *Hub) SetConnectHandler(fn func(userID uint)) {
	h.onConnect = fn
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	c.hub = h
	if h.byUser[c.UserID] == nil {
		h.byUser[c.UserID] = make(map[string]*Client)
	}
	h.byUser[c.UserID][c.SessionID] = c
	fn := h.onConnect
	h.mu.Unlock()
	metrics.ConnectedSessions.Inc()
	if fn != nil {
		fn(c.UserID)
	}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m := h.byUser[c.UserID]; m != nil {
		if _, ok := m[c.SessionID]; ok {
			metrics.ConnectedSessions.Dec()
		}
		delete(m, c.SessionID)
		if len(m) == 0 {
			delete(h.byUser, c.UserID)
		}
	}
}

func (h *Hub) IsOnline(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byUser[userID]) > 0
}

func (h *Hub) ConnectionCount(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byUser[userID])
}

func (h *Hub) OnlineUsers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byUser)
}

// PushToUser sends an event to every live session of the user. Sessions whose
// send buffer is full are skipped; a slow tab does not block dispatch.
func (h *Hub) PushToUser(userID uint, event string, payload interface{}) {
	data, _ := json.Marshal(Event{Event: event, Data: payload})
	h.mu.RLock()
	m := h.byUser[userID]
	clients := make([]*Client, 0, len(m))
	for _, c := range m {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		select {
		case c.Send <- data:
		default:
		}
	}
}

// Broadcast sends an event to every connected session.
func (h *Hub) Broadcast(event string, payload interface{}) {
	data, _ := json.Marshal(Event{Event: event, Data: payload})
	h.mu.RLock()
	var clients []*Client
	for _, m := range h.byUser {
		for _, c := range m {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()
	for _, c := range clients {
		select {
		case c.Send <- data:
		default:
		}
	}
}
