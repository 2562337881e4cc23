package session

import (
	"errors"
	"time"
)

// Timer supplies the current time and derives session expirations from configuration.
type Timer struct {
	ttl             time.Duration
	refreshFraction float64
	now             func() time.Time
}

// NewTimer validates ttl > 0 and 0 < refreshFraction < 1.
func NewTimer(ttl time.Duration, refreshFraction float64) (*Timer, error) {
	if ttl <= 0 {
		return nil, errors.New("session ttl must be positive")
	}
	if refreshFraction <= 0 || refreshFraction >= 1 {
		return nil, errors.New("session refresh threshold must be between 0 and 1, exclusive")
	}
	return &Timer{ttl: ttl, refreshFraction: refreshFraction, now: time.Now}, nil
}

// WithClock returns a copy of the timer reading time from now.
func (t *Timer) WithClock(now func() time.Time) *Timer {
	c := *t
	c.now = now
	return &c
}

// Now returns the current UTC time truncated to the precision postgres stores.
func (t *Timer) Now() time.Time {
	return t.now().UTC().Truncate(time.Microsecond)
}

// AccessExpiration is the expiration granted by a creation or renewal happening now.
func (t *Timer) AccessExpiration() time.Time {
	return t.Now().Add(t.ttl)
}

// RefreshTriggerInterval is the remaining lifetime below which a session gets renewed.
func (t *Timer) RefreshTriggerInterval() time.Duration {
	return time.Duration(float64(t.ttl) * t.refreshFraction)
}

func (t *Timer) TTL() time.Duration {
	return t.ttl
}
