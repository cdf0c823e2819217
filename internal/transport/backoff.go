package transport

import "time"

// backoff produces the reconnect delay schedule: each failure doubles
// the delay up to a cap, and the first successful connection resets it.
type backoff struct {
	initial time.Duration
	max     time.Duration
	current time.Duration
}

func newBackoff(initial, max time.Duration) *backoff {
	return &backoff{initial: initial, max: max, current: initial}
}

// Next returns the delay to wait before the next attempt and advances
// the schedule. The returned delays are monotonically non-decreasing
// until Reset is called.
func (b *backoff) Next() time.Duration {
	d := b.current
	b.current *= 2
	if b.current > b.max {
		b.current = b.max
	}
	return d
}

// Reset returns the schedule to the initial delay.
func (b *backoff) Reset() {
	b.current = b.initial
}
