package eventloop

import "github.com/zoobzio/capitan"

// Semaphore is an N-slot FIFO gate, generalized from workerpool.go's
// acquire/release slot counting into a direct task pair over the task
// protocol instead of a goroutine pool.
type Semaphore struct {
	name  string
	free  int
	queue *FIFOWaker
}

// NewSemaphore returns a semaphore starting with slots free permits.
func NewSemaphore(name string, slots int) *Semaphore {
	return &Semaphore{name: name, free: slots, queue: NewFIFOWaker()}
}

// semaphoreAcquireTask takes a free slot, or parks on the semaphore's
// queue until SemaphoreRelease hands one over.
type semaphoreAcquireTask struct {
	Base
	sem    *Semaphore
	parked bool
}

// SemaphoreAcquire builds a task that takes one permit from sem.
func SemaphoreAcquire(sem *Semaphore) Task {
	return &semaphoreAcquireTask{Base: NewBase("semaphore-acquire"), sem: sem}
}

func (t *semaphoreAcquireTask) Step(ex *Executor, _ []any) StepResult {
	// Mirrors mutex.go's acquireTask: a task parked on sem.queue is only
	// ever woken via the release task's direct hand-off, which doesn't
	// touch free — so resumption itself means the permit is now held.
	if t.parked {
		capitan.Info(noCtx, SignalSemaphoreTaken, FieldTaskName.Field(t.sem.name), FieldSleepCount.Field(t.sem.free))
		return DoneResult(nil)
	}
	if t.sem.free > 0 {
		t.sem.free--
		capitan.Info(noCtx, SignalSemaphoreTaken, FieldTaskName.Field(t.sem.name), FieldSleepCount.Field(t.sem.free))
		return DoneResult(nil)
	}
	t.parked = true
	return WaitOnWaker(t.sem.queue, false)
}

// semaphoreReleaseTask returns a permit, waking one waiter if the
// queue is non-empty instead of incrementing the free count — the same
// direct hand-off ReleaseTask uses for a Mutex, so a released permit never
// races a freshly arriving Acquire for the same slot.
type semaphoreReleaseTask struct {
	Base
	sem *Semaphore
}

// SemaphoreRelease builds a task that returns one permit to sem.
func SemaphoreRelease(sem *Semaphore) Task {
	return &semaphoreReleaseTask{Base: NewBase("semaphore-release"), sem: sem}
}

func (t *semaphoreReleaseTask) Step(ex *Executor, _ []any) StepResult {
	if t.sem.queue.HasWaiters() {
		t.sem.queue.WakeOne(ex)
	} else {
		t.sem.free++
	}
	capitan.Info(noCtx, SignalSemaphoreFreed, FieldTaskName.Field(t.sem.name), FieldSleepCount.Field(t.sem.free))
	return DoneResult(nil)
}
