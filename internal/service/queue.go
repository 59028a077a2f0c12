package service

import (
	"sync"

	"crewdesk/internal/metrics"
	"crewdesk/internal/models"
)

// DeliveryQueue holds notifications for offline users until they reconnect.
// Process-local and unbounded; entries are lost on restart.
type DeliveryQueue struct {
	mu     sync.Mutex
	byUser map[uint][]models.Notification
}

func NewDeliveryQueue() *DeliveryQueue {
	return &DeliveryQueue{byUser: make(map[uint][]models.Notification)}
}

func (q *DeliveryQueue) Enqueue(userID uint, n models.Notification) {
	q.mu.Lock()
	q.byUser[userID] = append(q.byUser[userID], n)
	q.mu.Unlock()
	metrics.DeliveryQueueDepth.Inc()
}

// Flush removes and returns the user's queued notifications in insertion
// order. The queue for that user is empty afterwards.
func (q *DeliveryQueue) Flush(userID uint) []models.Notification {
	q.mu.Lock()
	pending := q.byUser[userID]
	delete(q.byUser, userID)
	q.mu.Unlock()
	metrics.DeliveryQueueDepth.Sub(float64(len(pending)))
	return pending
}

func (q *DeliveryQueue) Len(userID uint) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.byUser[userID])
}

func (q *DeliveryQueue) TotalLen() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	total := 0
	for _, pending := range q.byUser {
		total += len(pending)
	}
	return total
}
