// Package clock provides the timer primitive used by the shell scheduler.
package clock

import "time"

// Timer is a pending callback that can be stopped.
type Timer interface {
	// Stop prevents the timer from firing. It reports whether the call stopped the
	// timer, false if it already fired or was stopped.
	Stop() bool
}

// Clock schedules callbacks.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

// Real returns a Clock backed by the time package.
func Real() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
