package eventloop

import (
	"github.com/zoobzio/capitan"
	"github.com/zoobzio/hookz"
)

// MutexEvent is the payload delivered to Mutex hook subscribers.
type MutexEvent struct {
	Name string
}

const (
	HookMutexAcquired = hookz.Key("mutex.acquired")
	HookMutexReleased = hookz.Key("mutex.released")
)

// Mutex is a direct-task mutual exclusion primitive: a flag plus a FIFO
// wait queue, with no locking of its own — the executor is the only
// thing ever touching it.
type Mutex struct {
	name       string
	isAcquired bool
	queue      *FIFOWaker
	hooks      *hookz.Hooks[MutexEvent]
}

// NewMutex returns an unacquired mutex with the given debug name.
func NewMutex(name string) *Mutex {
	return &Mutex{name: name, queue: NewFIFOWaker(), hooks: hookz.New[MutexEvent]()}
}

// Hooks exposes the mutex's hook registry for external subscribers.
func (m *Mutex) Hooks() *hookz.Hooks[MutexEvent] { return m.hooks }

// Close releases the hook registry's resources.
func (m *Mutex) Close() { m.hooks.Close() }

// AcquireTask is a direct task: it either observes the mutex free, flips
// it, and returns Done, or parks on the mutex's queue.
type acquireTask struct {
	Base
	mutex  *Mutex
	parked bool
}

// AcquireTask builds a task that acquires mutex, suspending on its
// queue until the lock is free or transferred to it.
func AcquireTask(mutex *Mutex) Task {
	return &acquireTask{Base: NewBase("mutex-acquire"), mutex: mutex}
}

func (t *acquireTask) Step(ex *Executor, _ []any) StepResult {
	// A task only ever gets woken off mutex.queue via a transfer path
	// (releaseTask, or a condition-variable wait releasing the mutex),
	// which hands ownership directly to the woken waiter without
	// clearing isAcquired — so resumption here means
	// "you now own the lock," not "recheck and maybe requeue."
	if t.parked {
		capitan.Info(noCtx, SignalMutexAcquired, FieldTaskName.Field(t.mutex.name))
		t.mutex.hooks.Emit(noCtx, HookMutexAcquired, MutexEvent{Name: t.mutex.name})
		return DoneResult(nil)
	}
	if !t.mutex.isAcquired {
		t.mutex.isAcquired = true
		capitan.Info(noCtx, SignalMutexAcquired, FieldTaskName.Field(t.mutex.name))
		t.mutex.hooks.Emit(noCtx, HookMutexAcquired, MutexEvent{Name: t.mutex.name})
		return DoneResult(nil)
	}
	t.parked = true
	return WaitOnWaker(t.mutex.queue, false)
}

// releaseTask clears the flag if nobody is waiting, or otherwise wakes
// exactly one waiter without clearing it — transferring ownership
// directly to that waiter rather than racing every waiter to reacquire.
type releaseTask struct {
	Base
	mutex *Mutex
}

// ReleaseTask builds a task that releases mutex.
func ReleaseTask(mutex *Mutex) Task {
	return &releaseTask{Base: NewBase("mutex-release"), mutex: mutex}
}

func (t *releaseTask) Step(ex *Executor, _ []any) StepResult {
	if !t.mutex.queue.HasWaiters() {
		t.mutex.isAcquired = false
		capitan.Info(noCtx, SignalMutexReleased, FieldTaskName.Field(t.mutex.name))
	} else {
		capitan.Info(noCtx, SignalMutexTransfer, FieldTaskName.Field(t.mutex.name))
		t.mutex.queue.WakeOne(ex)
	}
	t.mutex.hooks.Emit(noCtx, HookMutexReleased, MutexEvent{Name: t.mutex.name})
	return DoneResult(nil)
}
