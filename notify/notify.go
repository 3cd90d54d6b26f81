// Package notify keeps short-lived user notifications (toasts) per browser
// session until they are rendered or expire.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL matches how long an error toast stays on screen
const DefaultTTL = 4 * time.Second

// Stable IDs for notifications that must never stack
const (
	ServerErrorID       = "server-error"
	ConnectionTimeoutID = "connection-timeout"
)

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
)

// Notification is a single toast
type Notification struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func ServerError() Notification {
	return Notification{ID: ServerErrorID, Kind: KindError, Message: "Server error. Please try again later."}
}

func ConnectionTimeout() Notification {
	return Notification{ID: ConnectionTimeoutID, Kind: KindError, Message: "Connection timed out. Check your internet."}
}

func Success(message string) Notification {
	return Notification{Kind: KindSuccess, Message: message}
}

func Error(message string) Notification {
	return Notification{Kind: KindError, Message: message}
}

// Notifier accepts notifications for one browser session
type Notifier interface {
	Notify(n Notification)
}

// Center holds live notifications of every browser session
type Center struct {
	mu        sync.Mutex
	ttl       time.Duration
	now       func() time.Time
	bySession map[string][]Notification
}

// NewCenter creates a center whose notifications live for ttl. A zero ttl uses DefaultTTL.
func NewCenter(ttl time.Duration) *Center {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Center{
		ttl:       ttl,
		now:       time.Now,
		bySession: make(map[string][]Notification),
	}
}

// SetClock replaces time.Now
func (c *Center) SetClock(now func() time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

// Notify adds n for sessionID. A live notification with the same ID is
// replaced in place rather than duplicated. Notifications without an ID get a
// fresh one, so they never collapse. The ID used is returned.
func (c *Center) Notify(sessionID string, n Notification) string {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	n.ExpiresAt = now.Add(c.ttl)
	live := c.prune(sessionID, now)
	for i := range live {
		if live[i].ID == n.ID {
			live[i] = n
			return n.ID
		}
	}
	c.bySession[sessionID] = append(live, n)
	return n.ID
}

// Live returns the unexpired notifications of sessionID without consuming them
func (c *Center) Live(sessionID string) []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	live := c.prune(sessionID, c.now())
	return append([]Notification(nil), live...)
}

// Drain returns the unexpired notifications of sessionID and forgets them
func (c *Center) Drain(sessionID string) []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	live := c.prune(sessionID, c.now())
	delete(c.bySession, sessionID)
	return live
}

// Sweep drops expired notifications of every session, including sessions
// that never rendered them
func (c *Center) Sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for sessionID := range c.bySession {
		c.prune(sessionID, now)
	}
}

// Len returns the number of sessions with live notifications
func (c *Center) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.bySession)
}

// For binds the center to one browser session
func (c *Center) For(sessionID string) Notifier {
	return sessionNotifier{center: c, sessionID: sessionID}
}

// prune drops expired notifications. Must be called with mu held.
func (c *Center) prune(sessionID string, now time.Time) []Notification {
	current := c.bySession[sessionID]
	live := current[:0]
	for _, n := range current {
		if now.Before(n.ExpiresAt) {
			live = append(live, n)
		}
	}
	if len(live) == 0 {
		delete(c.bySession, sessionID)
		return nil
	}
	c.bySession[sessionID] = live
	return live
}

type sessionNotifier struct {
	center    *Center
	sessionID string
}

func (s sessionNotifier) Notify(n Notification) {
	s.center.Notify(s.sessionID, n)
}
