package config

import "time"

type SessionConfig interface {
	GetSessionCookieMaxAge() time.Duration
	GetNotificationTTL() time.Duration
	GetWatchTimeout() time.Duration
	GetSessionIdleTimeout() time.Duration
}

type Session struct{}

var _ SessionConfig = Session{}

func (Session) GetSessionCookieMaxAge() time.Duration {
	return GetDuration("SESSION_COOKIE_MAX_AGE", 7*24*time.Hour)
}

// GetNotificationTTL is how long a transient notification stays live (and de-duplicates repeats)
func (Session) GetNotificationTTL() time.Duration {
	return GetDuration("NOTIFY_TTL", 4*time.Second)
}

// GetWatchTimeout bounds how long a session watch request is held open
func (Session) GetWatchTimeout() time.Duration {
	return GetDuration("SESSION_WATCH_TIMEOUT", 25*time.Second)
}

// GetSessionIdleTimeout is how long an unused browser session stays loaded in memory
func (Session) GetSessionIdleTimeout() time.Duration {
	return GetDuration("SESSION_IDLE_TIMEOUT", 30*time.Minute)
}
