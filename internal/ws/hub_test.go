package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(userID uint, session string) *Client {
	return &Client{
		UserID:    userID,
		SessionID: session,
		Send:      make(chan []byte, 8),
	}
}

func TestHubMultipleSessionsPerUser(t *testing.T) {
	h := NewHub()
	tab1 := newTestClient(1, "s1")
	tab2 := newTestClient(1, "s2")

	h.Register(tab1)
	h.Register(tab2)
	assert.True(t, h.IsOnline(1))
	assert.Equal(t, 2, h.ConnectionCount(1))

	tab1.Close()
	assert.True(t, h.IsOnline(1), "closing one tab keeps the user online")
	assert.Equal(t, 1, h.ConnectionCount(1))

	tab2.Close()
	assert.False(t, h.IsOnline(1))
	assert.Equal(t, 0, h.ConnectionCount(1))
}

func TestHubPushToUserReachesAllSessions(t *testing.T) {
	h := NewHub()
	tab1 := newTestClient(1, "s1")
	tab2 := newTestClient(1, "s2")
	other := newTestClient(2, "s3")
	h.Register(tab1)
	h.Register(tab2)
	h.Register(other)

	h.PushToUser(1, "notification", map[string]string{"title": "hi"})

	for _, c := range []*Client{tab1, tab2} {
		select {
		case raw := <-c.Send:
			var ev Event
			require.NoError(t, json.Unmarshal(raw, &ev))
			assert.Equal(t, "notification", ev.Event)
		default:
			t.Fatalf("session %s did not receive the push", c.SessionID)
		}
	}
	assert.Empty(t, other.Send, "other users receive nothing")
}

func TestHubBroadcast(t *testing.T) {
	h := NewHub()
	a := newTestClient(1, "s1")
	b := newTestClient(2, "s2")
	h.Register(a)
	h.Register(b)

	h.Broadcast("notification", "all hands")
	assert.Len(t, a.Send, 1)
	assert.Len(t, b.Send, 1)
	assert.Equal(t, 2, h.OnlineUsers())
}

func TestHubConnectHandlerFires(t *testing.T) {
	h := NewHub()
	var got []uint
	h.SetConnectHandler(func(userID uint) { got = append(got, userID) })

	h.Register(newTestClient(7, "s1"))
	h.Register(newTestClient(7, "s2"))
	assert.Equal(t, []uint{7, 7}, got, "every session connect triggers a replay check")
}

func TestHubCloseIsIdempotent(t *testing.T) {
	h := NewHub()
	c := newTestClient(1, "s1")
	h.Register(c)
	c.Close()
	c.Close() // second close must not panic on the closed channel
	assert.False(t, h.IsOnline(1))
}

func TestHubFullSendBufferDoesNotBlock(t *testing.T) {
	h := NewHub()
	c := &Client{UserID: 1, SessionID: "s1", Send: make(chan []byte)} // unbuffered, no reader
	h.Register(c)
	done := make(chan struct{})
	go func() {
		h.PushToUser(1, "notification", "x")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("push blocked on a slow session")
	}
}
