package eventloop

// Waker is the capability that parks and later resumes sleeping tasks.
// Implementations never run task logic themselves; they only decide which
// parked node(s) to hand back to the Executor.
type Waker interface {
	// HasWaiters reports whether at least one task is currently parked on
	// this waker.
	HasWaiters() bool
	// AddWaiter registers node with this waker. Called only by
	// sleepingList.park at the moment a task suspends.
	AddWaiter(node *SleepingTask)
	// WakeOne returns the earliest-registered waiter (FIFO wakers) or the
	// sole waiter (single-task wakers) to the executor's runnable set.
	// No-op if there are no waiters.
	WakeOne(ex *Executor)
	// WakeAll returns every waiter to the runnable set, in the waker's
	// insertion order.
	WakeAll(ex *Executor)
}

// FIFOWaker is an ordered queue of sleeping nodes. wake_one pops the
// front; wake_all drains front-to-back.
type FIFOWaker struct {
	queue []*SleepingTask
}

// NewFIFOWaker returns an empty FIFO-ordered waker.
func NewFIFOWaker() *FIFOWaker {
	return &FIFOWaker{}
}

func (w *FIFOWaker) HasWaiters() bool { return len(w.queue) > 0 }

func (w *FIFOWaker) AddWaiter(node *SleepingTask) {
	w.queue = append(w.queue, node)
}

func (w *FIFOWaker) WakeOne(ex *Executor) {
	if len(w.queue) == 0 {
		return
	}
	node := w.queue[0]
	w.queue = w.queue[1:]
	ex.wakeSleepingTask(node)
}

func (w *FIFOWaker) WakeAll(ex *Executor) {
	pending := w.queue
	w.queue = nil
	for _, node := range pending {
		ex.wakeSleepingTask(node)
	}
}

// SingleWaker holds at most one waiter, ever. AddWaiter panics with an
// InvariantViolation if the slot is already occupied, or if it has
// already fired once — a plain SingleWaker is single-use by design,
// matching the fan-in Counter's waker, which is allocated fresh for
// exactly one Wait(ChildTasks) call and never reused. Use
// ReusableSingleWaker for a slot that re-arms after waking.
type SingleWaker struct {
	waiter *SleepingTask
	spent  bool
}

// NewSingleWaker returns an empty, single-use single-task waker.
func NewSingleWaker() *SingleWaker {
	return &SingleWaker{}
}

func (w *SingleWaker) HasWaiters() bool { return w.waiter != nil }

func (w *SingleWaker) AddWaiter(node *SleepingTask) {
	if w.waiter != nil || w.spent {
		panic(InvariantViolation{Reason: "SingleWaker.AddWaiter: slot already occupied or spent"})
	}
	w.waiter = node
}

func (w *SingleWaker) WakeOne(ex *Executor) {
	if w.waiter == nil {
		return
	}
	node := w.waiter
	w.waiter = nil
	w.spent = true
	ex.wakeSleepingTask(node)
}

func (w *SingleWaker) WakeAll(ex *Executor) { w.WakeOne(ex) }

// ReusableSingleWaker is a SingleWaker whose slot is cleared (not
// permanently spent) on wake, so a subsequent AddWaiter succeeds.
type ReusableSingleWaker struct {
	waiter *SleepingTask
}

// NewReusableSingleWaker returns an empty, re-armable single-task waker.
func NewReusableSingleWaker() *ReusableSingleWaker {
	return &ReusableSingleWaker{}
}

func (w *ReusableSingleWaker) HasWaiters() bool { return w.waiter != nil }

func (w *ReusableSingleWaker) AddWaiter(node *SleepingTask) {
	if w.waiter != nil {
		panic(InvariantViolation{Reason: "ReusableSingleWaker.AddWaiter: slot already occupied"})
	}
	w.waiter = node
}

func (w *ReusableSingleWaker) WakeOne(ex *Executor) {
	if w.waiter == nil {
		return
	}
	node := w.waiter
	w.waiter = nil
	ex.wakeSleepingTask(node)
}

func (w *ReusableSingleWaker) WakeAll(ex *Executor) { w.WakeOne(ex) }
