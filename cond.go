package eventloop

import (
	"github.com/zoobzio/capitan"
	"github.com/zoobzio/hookz"
)

// CondEvent is the payload delivered to ConditionVariable hook
// subscribers.
type CondEvent struct {
	Name string
}

const (
	HookCondNotifyOne = hookz.Key("condvar.notify-one")
	HookCondNotifyAll = hookz.Key("condvar.notify-all")
)

// ConditionVariable is a two-stage direct-task primitive: a FIFO wait
// queue paired with the mutex its waiters hold.
type ConditionVariable struct {
	name  string
	queue *FIFOWaker
	hooks *hookz.Hooks[CondEvent]
}

// NewConditionVariable returns a condition variable with the given
// debug name.
func NewConditionVariable(name string) *ConditionVariable {
	return &ConditionVariable{name: name, queue: NewFIFOWaker(), hooks: hookz.New[CondEvent]()}
}

// Hooks exposes the condition variable's hook registry.
func (c *ConditionVariable) Hooks() *hookz.Hooks[CondEvent] { return c.hooks }

// Close releases the hook registry's resources.
func (c *ConditionVariable) Close() { c.hooks.Close() }

// NotifyOne wakes the earliest waiter, if any.
func (c *ConditionVariable) NotifyOne(ex *Executor) {
	capitan.Info(noCtx, SignalCondNotified, FieldTaskName.Field(c.name))
	c.hooks.Emit(noCtx, HookCondNotifyOne, CondEvent{Name: c.name})
	c.queue.WakeOne(ex)
}

// NotifyAll wakes every waiter.
func (c *ConditionVariable) NotifyAll(ex *Executor) {
	capitan.Info(noCtx, SignalCondNotified, FieldTaskName.Field(c.name))
	c.hooks.Emit(noCtx, HookCondNotifyAll, CondEvent{Name: c.name})
	c.queue.WakeAll(ex)
}

// condWaitTask is the two-stage wait: stage 0 releases the mutex and
// parks on the condition variable's own queue; stage 1, once woken,
// re-acquires the mutex as a child and auto-completes when that child
// does — the task itself never returns Done directly.
type condWaitTask struct {
	Base
	cond  *ConditionVariable
	mutex *Mutex
	stage int
}

// Wait builds a task that atomically releases mutex and suspends on
// cond, reacquiring mutex before resuming the caller.
func Wait(cond *ConditionVariable, mutex *Mutex) Task {
	return &condWaitTask{Base: NewBase("condvar-wait"), cond: cond, mutex: mutex}
}

func (t *condWaitTask) Step(ex *Executor, _ []any) StepResult {
	switch t.stage {
	case 0:
		if !t.mutex.queue.HasWaiters() {
			t.mutex.isAcquired = false
		} else {
			t.mutex.queue.WakeOne(ex)
		}
		t.stage = 1
		return WaitOnWaker(t.cond.queue, false)
	case 1:
		return WaitOnChildren([]Task{AcquireTask(t.mutex)}, true)
	default:
		panic(InvariantViolation{Reason: "condWaitTask.Step: invalid stage"})
	}
}
