package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kelsos/rotki-client/internal/logger"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notification is a user-visible message about something that happened in
// the background.
type Notification struct {
	ID       uuid.UUID
	Title    string
	Message  string
	Severity Severity
	// Display asks the interface to surface the notification right away.
	Display   bool
	Category  string
	CreatedAt time.Time
}

// Notifier accepts notifications.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(n Notification)

func (f NotifierFunc) Notify(n Notification) {
	f(n)
}

// Center keeps the most recent notifications and fans them out to subscribers.
type Center struct {
	mu          sync.RWMutex
	limit       int
	items       []Notification
	subscribers []chan Notification
}

// NewCenter creates a center keeping at most limit notifications.
func NewCenter(limit int) *Center {
	if limit <= 0 {
		limit = 100
	}
	return &Center{limit: limit}
}

// Notify records the notification, logs it and forwards it to subscribers.
// Subscribers that are not keeping up miss notifications instead of blocking.
func (c *Center) Notify(n Notification) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	if n.Severity == "" {
		n.Severity = SeverityInfo
	}

	switch n.Severity {
	case SeverityError:
		logger.Error("%s: %s", n.Title, n.Message)
	case SeverityWarning:
		logger.Warn("%s: %s", n.Title, n.Message)
	default:
		logger.Info("%s: %s", n.Title, n.Message)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, n)
	if len(c.items) > c.limit {
		c.items = c.items[len(c.items)-c.limit:]
	}

	// sends never block, and holding the lock keeps unsubscribe from closing
	// a channel mid send
	for _, ch := range c.subscribers {
		select {
		case ch <- n:
		default:
		}
	}
}

// Subscribe returns a channel receiving every new notification and a function
// that ends the subscription.
func (c *Center) Subscribe(buffer int) (<-chan Notification, func()) {
	ch := make(chan Notification, buffer)

	c.mu.Lock()
	c.subscribers = append(c.subscribers, ch)
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			for i, sub := range c.subscribers {
				if sub == ch {
					c.subscribers = append(c.subscribers[:i], c.subscribers[i+1:]...)
					break
				}
			}
			close(ch)
		})
	}
}

// All returns the recorded notifications, oldest first.
func (c *Center) All() []Notification {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Notification(nil), c.items...)
}

// Dismiss removes a notification by id.
func (c *Center) Dismiss(id uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, n := range c.items {
		if n.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}

// Clear removes all recorded notifications.
func (c *Center) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
}
