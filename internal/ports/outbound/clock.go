package outbound

import "time"

// Clock supplies the current time for expiry comparisons. Injected so
// tests can drive time deterministically.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock used in production
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
