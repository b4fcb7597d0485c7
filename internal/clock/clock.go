package clock

import "time"

// Clock abstracts wall time so due-date defaults are testable.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
