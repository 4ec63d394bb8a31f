package search

import "time"

// Timer is a scheduled callback that can be cancelled before it fires.
// *time.Timer satisfies it.
type Timer interface {
	Stop() bool
}

// Scheduler runs a callback once after a delay.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// WallClock schedules callbacks on real timers. Callbacks run on their own
// goroutine, which is why Controller serialises access to its state.
type WallClock struct{}

// AfterFunc implements Scheduler with time.AfterFunc.
func (WallClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

var _ Scheduler = WallClock{}
