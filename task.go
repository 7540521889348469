package eventloop

import "github.com/zoobzio/capitan"

// Task is a stepwise unit of work. Implementations embed Base (directly
// or through a composite/coroutine helper) to satisfy the unexported
// taskState method — Task is intentionally not meant to be implemented
// from outside this package except by embedding Base, mirroring the
// "capability set plus inline state struct" shape the design notes call
// for rather than open subclassing.
type Task interface {
	// Step advances the task by one unit of work. childReturns holds the
	// return values of any children the task previously awaited via
	// WaitOnChildren, in input order; it is nil otherwise.
	Step(ex *Executor, childReturns []any) StepResult

	taskState() *TaskState
}

// TaskState is the per-task attributes the executor manages on every
// task regardless of construction style: a debug name, completion
// callbacks, the parent's return-value sink, and the buffer children
// fill in when this task awaits them.
type TaskState struct {
	name         string
	onDone       []func(ex *Executor)
	parentSink   *any
	childReturns []any
}

// Base is the embeddable carrier satisfying Task's state requirements.
// Direct tasks embed Base and implement Step; Base itself implements
// nothing beyond taskState and Name.
type Base struct {
	state TaskState
}

// NewBase returns a Base carrying the given debug name.
func NewBase(name string) Base {
	return Base{state: TaskState{name: name}}
}

func (b *Base) taskState() *TaskState { return &b.state }

// Name returns the task's debug name.
func (b *Base) Name() string { return b.state.name }

// onDoneFire runs every registered on-done callback, in registration
// order, then clears the list.
func (s *TaskState) onDoneFire(ex *Executor) {
	callbacks := s.onDone
	s.onDone = nil
	for _, cb := range callbacks {
		cb(ex)
	}
}

// addOnDone appends a completion callback.
func (s *TaskState) addOnDone(cb func(ex *Executor)) {
	s.onDone = append(s.onDone, cb)
}

// deliverReturn writes value into the parent sink, if one is set, per
// the invariant that a Done emission transfers ownership of the return
// value into the parent's sink exactly once.
func (s *TaskState) deliverReturn(value any) {
	if s.parentSink != nil {
		*s.parentSink = value
	}
}

// Counter is the shared fan-in cell created when a task suspends on
// WaitOnChildren. Each child's completion decrements it; the final
// decrement wakes the counter's waker, resuming (or destroying) the
// parent. The counter takes sole ownership of the waker it holds.
type Counter struct {
	remaining int
	waker     Waker
}

func newCounter(numChildren int, waker Waker) *Counter {
	return &Counter{remaining: numChildren, waker: waker}
}

// decrement is attached as an on-done callback on each awaited child. The
// child that drives remaining to zero is, by construction, the last
// child to complete by executor order — not necessarily the last child
// in input order.
func (c *Counter) decrement(ex *Executor) {
	c.remaining--
	if c.remaining == 0 {
		capitan.Info(noCtx, SignalCounterFired)
		c.waker.WakeOne(ex)
	}
}
