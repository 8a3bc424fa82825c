package domain

import "time"

const (
	DefaultMinSessionDuration = 5 * time.Minute
	DefaultMaxSessionDuration = 30 * time.Minute
	DefaultSessionDuration    = 15 * time.Minute
)

// Session is the durable record of an authenticated login.
type Session struct {
	Token     string    `json:"token"`
	AccountID string    `json:"account"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	// Login is true for credential logins and false once renewed.
	Login bool `json:"login"`
}

// Alive reports whether start <= now < end.
func (s *Session) Alive(now time.Time) bool {
	return !now.Before(s.Start) && now.Before(s.End)
}

// Snapshot returns the cacheable copy of s.
func (s *Session) Snapshot() SessionSnapshot {
	return SessionSnapshot{
		AccountID: s.AccountID,
		Token:     s.Token,
		Start:     s.Start,
		End:       s.End,
		Login:     s.Login,
	}
}

// SessionSnapshot is a cached, non-authoritative copy of a Session.
// Its JSON form is the wire format of the session cache.
type SessionSnapshot struct {
	AccountID string    `json:"account"`
	Token     string    `json:"token"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Login     bool      `json:"login"`
}

// Alive reports whether start <= now < end.
func (s SessionSnapshot) Alive(now time.Time) bool {
	return !now.Before(s.Start) && now.Before(s.End)
}

// DurationPolicy enumerates the allowed session durations: whole minutes
// between Min and Max inclusive.
type DurationPolicy struct {
	Min     time.Duration
	Max     time.Duration
	Default time.Duration
}

// DefaultDurationPolicy allows 5 to 30 minutes and defaults to 15.
func DefaultDurationPolicy() DurationPolicy {
	return DurationPolicy{
		Min:     DefaultMinSessionDuration,
		Max:     DefaultMaxSessionDuration,
		Default: DefaultSessionDuration,
	}
}

// Validate returns ErrDurationOutOfBounds unless d is allowed.
func (p DurationPolicy) Validate(d time.Duration) error {
	if d%time.Minute != 0 || d < p.Min || d > p.Max {
		return ErrDurationOutOfBounds
	}
	return nil
}

// Resolve maps a zero duration to the default and validates the result.
func (p DurationPolicy) Resolve(d time.Duration) (time.Duration, error) {
	if d == 0 {
		d = p.Default
	}
	if err := p.Validate(d); err != nil {
		return 0, err
	}
	return d, nil
}
