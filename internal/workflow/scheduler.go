package workflow

import "time"

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Scheduler runs a callback after a delay.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type clockScheduler struct{}

func (clockScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
