package service

import "time"

// Clock supplies the current time. Injected so expiry and block-window
// arithmetic can be tested without sleeping.
type Clock interface {
	Now() time.Time
}

// UTCClock is the production clock. All timestamps in the system are UTC.
type UTCClock struct{}

func (UTCClock) Now() time.Time {
	return time.Now().UTC()
}
