package copilot

import (
	"time"

	"github.com/benbjohnson/clock"
)

// Task is a handle to one scheduled callback.
type Task interface {
	// Cancel stops the callback if it has not fired yet and reports whether
	// it did so.
	Cancel() bool
}

// Scheduler runs fn once after d.
type Scheduler interface {
	Schedule(d time.Duration, fn func()) Task
}

type clockScheduler struct {
	clock clock.Clock
}

// NewClockScheduler schedules on c. Pass clock.New() in production and a
// clock.NewMock() in tests.
func NewClockScheduler(c clock.Clock) Scheduler {
	return &clockScheduler{clock: c}
}

func (s *clockScheduler) Schedule(d time.Duration, fn func()) Task {
	return clockTask{timer: s.clock.AfterFunc(d, fn)}
}

type clockTask struct {
	timer *clock.Timer
}

func (t clockTask) Cancel() bool {
	return t.timer.Stop()
}
