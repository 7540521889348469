package eventloop

import (
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
)

// deadlineTask is a cooperative, poll-based sleep: a direct task that
// re-yields Ready until clock.Now() reaches its deadline, then
// resolves Done. Grounded on timeout.go's duration enforcement, but
// using clockz.Clock instead of context.WithTimeout since the runtime
// has no goroutines to race — this is not a preemption or
// deadlock-detection mechanism, just a timer a composite can wait
// alongside other slots.
type deadlineTask struct {
	Base
	clock    clockz.Clock
	deadline time.Time
}

// resolveClock defaults a nil clock to clockz.RealClock, mirroring
// the teacher connectors' getClock() lazy-default pattern.
func resolveClock(clock clockz.Clock) clockz.Clock {
	if clock == nil {
		return clockz.RealClock
	}
	return clock
}

// DeadlineTask builds a task that resolves Done once after has
// elapsed on clock. A nil clock defaults to clockz.RealClock.
func DeadlineTask(clock clockz.Clock, after time.Duration) Task {
	clock = resolveClock(clock)
	return &deadlineTask{Base: NewBase("deadline"), clock: clock, deadline: clock.Now().Add(after)}
}

func (t *deadlineTask) Step(ex *Executor, _ []any) StepResult {
	if t.clock.Now().Before(t.deadline) {
		return ReadyResult(false)
	}
	capitan.Info(noCtx, SignalDeadlineReached, FieldTimestamp.Field(float64(t.clock.Now().UnixNano())/1e9))
	return DoneResult(nil)
}
