package eventloop

import (
	"context"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// noCtx is used at the handful of call sites inside the runtime that
// emit a capitan signal outside of any caller-supplied context — the
// runtime itself never threads a context through Task.Step, keeping all
// state explicit on the Executor value rather than global, while still
// giving capitan a context to attach to.
var noCtx = context.Background()

// Observability constants for the Executor.
const (
	MetricStepsRun       = metricz.Key("executor.steps.total")
	MetricTasksSubmitted = metricz.Key("executor.tasks.submitted.total")
	MetricTasksCompleted = metricz.Key("executor.tasks.completed.total")
	MetricTasksParked    = metricz.Key("executor.tasks.parked.total")
	MetricTasksWoken     = metricz.Key("executor.tasks.woken.total")
	MetricSleepingAtExit = metricz.Key("executor.sleeping.at_exit") // Gauge

	SpanStep        = tracez.Key("executor.step")
	SpanSlotAdvance = tracez.Key("executor.composite.slot-advance")
)

// StepStatus reports the outcome of one Executor.Step call.
type StepStatus int

const (
	// StepDone means there is no more work: both the runnable deque and
	// the sleeping list are empty.
	StepDone StepStatus = iota
	// StepDoneWithTasksSleeping means the runnable deque is empty but
	// tasks remain parked on wakers that may never fire.
	StepDoneWithTasksSleeping
	// StepMoreToGo means at least one task remains runnable.
	StepMoreToGo
)

// Executor is the single-threaded scheduler: a runnable deque plus the
// sleeping-task list, driven one step at a time.
type Executor struct {
	runnable []Task
	sleeping *sleepingList

	metrics *metricz.Registry
	tracer  *tracez.Tracer
}

// NewExecutor returns an idle executor with its own observability
// registry and tracer.
func NewExecutor() *Executor {
	metrics := metricz.New()
	metrics.Counter(MetricStepsRun)
	metrics.Counter(MetricTasksSubmitted)
	metrics.Counter(MetricTasksCompleted)
	metrics.Counter(MetricTasksParked)
	metrics.Counter(MetricTasksWoken)
	metrics.Gauge(MetricSleepingAtExit)

	return &Executor{
		sleeping: newSleepingList(),
		metrics:  metrics,
		tracer:   tracez.New(),
	}
}

// Metrics exposes the executor's metric registry.
func (ex *Executor) Metrics() *metricz.Registry { return ex.metrics }

// Tracer exposes the executor's tracer.
func (ex *Executor) Tracer() *tracez.Tracer { return ex.tracer }

// Submit adds task to the back of the runnable deque.
func (ex *Executor) Submit(task Task) {
	ex.runnable = append(ex.runnable, task)
	ex.metrics.Counter(MetricTasksSubmitted).Inc()
	capitan.Info(noCtx, SignalTaskSubmitted, FieldTaskName.Field(task.taskState().name))
}

// pushFront pushes task to the front of the runnable deque.
func (ex *Executor) pushFront(task Task) {
	ex.runnable = append([]Task{task}, ex.runnable...)
}

// pushBack pushes task to the back of the runnable deque.
func (ex *Executor) pushBack(task Task) {
	ex.runnable = append(ex.runnable, task)
}

// wakeSleepingTask splices node out of the sleeping list, then either
// fires its on-done callbacks and drops it (destroy_on_wake) or
// resubmits it to the runnable deque.
func (ex *Executor) wakeSleepingTask(node *SleepingTask) {
	ex.sleeping.remove(node)
	ex.metrics.Counter(MetricTasksWoken).Inc()
	task := node.task
	capitan.Info(noCtx, SignalTaskWoken, FieldTaskName.Field(task.taskState().name))
	if node.destroyOnWake {
		capitan.Info(noCtx, SignalTaskAutoDone, FieldTaskName.Field(task.taskState().name))
		task.taskState().onDoneFire(ex)
		return
	}
	ex.pushBack(task)
}

// park suspends task on waker, registering the disposal policy derived
// from the Wait result that triggered the suspension.
func (ex *Executor) park(task Task, waker Waker, destroyOnWake bool) {
	ex.metrics.Counter(MetricTasksParked).Inc()
	capitan.Info(noCtx, SignalTaskParked,
		FieldTaskName.Field(task.taskState().name),
		FieldSleepCount.Field(ex.sleeping.len()+1),
	)
	ex.sleeping.park(task, waker, destroyOnWake)
}

// RunUntilCompletion drives Step until no more runnable work exists. It
// returns the number of tasks still parked on shutdown — a leak report;
// the executor reports this but does not forcibly destroy the tasks.
func (ex *Executor) RunUntilCompletion() int {
	for {
		switch ex.Step() {
		case StepDone:
			ex.metrics.Gauge(MetricSleepingAtExit).Set(0)
			capitan.Info(noCtx, SignalExecutorIdle)
			return 0
		case StepDoneWithTasksSleeping:
			n := ex.sleeping.len()
			ex.metrics.Gauge(MetricSleepingAtExit).Set(float64(n))
			capitan.Warn(noCtx, SignalExecutorLeaked, FieldSleepCount.Field(n))
			return n
		case StepMoreToGo:
			continue
		}
	}
}

// Step runs exactly one unit of scheduling work: popping the front
// runnable task (if any) and dispatching its StepResult.
func (ex *Executor) Step() StepStatus {
	if len(ex.runnable) == 0 {
		if ex.sleeping.empty() {
			return StepDone
		}
		return StepDoneWithTasksSleeping
	}

	task := ex.runnable[0]
	ex.runnable = ex.runnable[1:]

	ctx, span := ex.tracer.StartSpan(noCtx, SpanStep)
	state := task.taskState()
	childReturns := state.childReturns
	state.childReturns = nil
	result := task.Step(ex, childReturns)
	span.Finish()
	_ = ctx

	ex.metrics.Counter(MetricStepsRun).Inc()
	ex.dispatch(task, result)

	if len(ex.runnable) == 0 && ex.sleeping.empty() {
		return StepDone
	}
	return StepMoreToGo
}

// dispatch interprets one StepResult and mutates executor state
// accordingly.
func (ex *Executor) dispatch(task Task, result StepResult) {
	switch result.Kind {
	case KindDone:
		for _, child := range result.Spawn {
			ex.pushBack(child)
		}
		ex.finishTask(task, result.ReturnValue)

	case KindReady:
		for _, child := range result.Spawn {
			ex.pushBack(child)
		}
		if result.HighPriority {
			ex.pushFront(task)
		} else {
			ex.pushBack(task)
		}

	case KindWait:
		ex.dispatchWait(task, result)

	case KindCompositeWait:
		ex.dispatchCompositeWait(task, result)

	default:
		panic(InvariantViolation{Reason: "Executor.dispatch: unrecognised StepResult kind"})
	}
}

// dispatchWait handles a leaf Wait: either parking on a waker directly,
// or allocating the fan-in Counter protocol for WaitOnChildren.
func (ex *Executor) dispatchWait(task Task, result StepResult) {
	if result.WaitFor.Waker != nil {
		ex.park(task, result.WaitFor.Waker, result.TaskAutoDone)
		return
	}

	children := result.WaitFor.Children
	if len(children) == 0 {
		// Spec: an empty child-wait is treated as Done on next iteration.
		ex.pushFront(task)
		return
	}

	ex.fanIn(task, children, result.TaskAutoDone)
}

// fanIn allocates a fresh single-task waker and Counter, wires each
// child's sink to the parent's child-return buffer, attaches the shared
// counter's decrement to every child's on-done callbacks, enqueues the
// children, and parks the parent.
func (ex *Executor) fanIn(parent Task, children []Task, autoDone bool) {
	state := parent.taskState()
	state.childReturns = make([]any, len(children))

	waker := NewSingleWaker()
	counter := newCounter(len(children), waker)

	for i := len(children) - 1; i >= 0; i-- {
		child := children[i]
		childState := child.taskState()
		childState.parentSink = &state.childReturns[i]
		childState.addOnDone(counter.decrement)
	}

	for _, child := range children {
		ex.pushBack(child)
	}

	ex.park(parent, waker, autoDone)
}

// dispatchCompositeWait re-pushes the composite itself as Ready (partial
// sleep) or withholds it entirely (full sleep), parking a transient
// helper task in its place. The helper is always resumed via Step,
// never fired through the destroy-on-wake onDone
// path — its own disposition (flip to Ready vs Done) is driven by the
// leaf's declared TaskAutoDone, which is orthogonal to how the helper
// itself is scheduled back onto the deque.
func (ex *Executor) dispatchCompositeWait(composite Task, result StepResult) {
	inner := result.Inner
	if inner == nil || inner.Kind != KindWait {
		panic(InvariantViolation{Reason: "Executor.dispatchCompositeWait: Inner must be a Wait"})
	}

	var helper *wakeHelper
	if result.AllSiblingsSleeping {
		helper = newFullWakeHelper(composite, result.StatusChain, result.leaf, inner.TaskAutoDone)
	} else {
		ex.pushFront(composite)
		helper = newPartialWakeHelper(result.StatusChain, result.leaf, inner.TaskAutoDone)
	}

	if inner.WaitFor.Waker != nil {
		ex.park(helper, inner.WaitFor.Waker, false)
	} else {
		ex.fanIn(helper, inner.WaitFor.Children, false)
	}
}

// finishTask delivers a Done task's return value to its parent sink (if
// any), fires its on-done callbacks, and releases it.
func (ex *Executor) finishTask(task Task, returnValue any) {
	ex.metrics.Counter(MetricTasksCompleted).Inc()
	state := task.taskState()
	capitan.Info(noCtx, SignalTaskDone, FieldTaskName.Field(state.name))
	state.deliverReturn(returnValue)
	state.onDoneFire(ex)
}
