package eventloop

// Kind discriminates the StepResult sum. A task's Step method always
// returns exactly one of these.
type Kind int

const (
	// KindDone means the task is finished.
	KindDone Kind = iota
	// KindReady means the task yields but remains runnable.
	KindReady
	// KindWait means the task suspends on a Waker or a set of children.
	KindWait
	// KindCompositeWait is used exclusively by composite tasks to carry a
	// leaf Wait up through nested composites.
	KindCompositeWait
)

func (k Kind) String() string {
	switch k {
	case KindDone:
		return "Done"
	case KindReady:
		return "Ready"
	case KindWait:
		return "Wait"
	case KindCompositeWait:
		return "CompositeWait"
	default:
		return "Unknown"
	}
}

// WaitFor names what a Wait result suspends on: exactly one of a Waker or
// a list of child tasks to fan in on.
type WaitFor struct {
	Waker    Waker
	Children []Task
}

// SubtaskStatusRef is an opaque handle a composite leaves on the
// CompositeWait status chain so the executor's wake helper can flip the
// right slot without the composite itself being reachable.
type SubtaskStatusRef struct {
	status *SubtaskStatus
}

// Flip transitions the referenced slot to either Ready or Done.
func (r SubtaskStatusRef) Flip(done bool) {
	if done {
		*r.status = StatusDone
	} else {
		*r.status = StatusReady
	}
}

// StepResult is the tagged union a Task.Step call returns. Exactly one
// group of fields is meaningful, selected by Kind; the rest are zero.
// This is deliberately a flat struct, not an interface hierarchy — see
// the package's design notes on avoiding open-ended subclassing for sum
// types.
type StepResult struct {
	Kind Kind

	// Done fields.
	ReturnValue any
	Spawn       []Task

	// Ready fields.
	HighPriority bool
	// Spawn is shared with Done above.

	// Wait fields.
	WaitFor       WaitFor
	TaskAutoDone  bool // true: task_auto_done, false: task_not_done

	// CompositeWait fields.
	AllSiblingsSleeping bool
	RootWaker           Waker
	StatusChain         []SubtaskStatusRef
	Inner               *StepResult // always Kind == KindWait

	// leaf is the real sub-task whose own Wait this CompositeWait carries,
	// so the executor's wake helper can forward fanned-in child-return
	// values back onto it. Unexported: only Independent, in this
	// package, ever constructs a CompositeWait; other composites pass
	// one through unchanged.
	leaf Task
}

// DoneResult builds a Done step-result. spawn is scheduled as daemons on
// the runnable deque; returnValue is delivered to the parent sink, if any.
func DoneResult(returnValue any, spawn ...Task) StepResult {
	return StepResult{Kind: KindDone, ReturnValue: returnValue, Spawn: spawn}
}

// ReadyResult builds a Ready step-result. highPriority pushes the task to
// the front of the runnable deque instead of the back.
func ReadyResult(highPriority bool, spawn ...Task) StepResult {
	return StepResult{Kind: KindReady, HighPriority: highPriority, Spawn: spawn}
}

// WaitOnWaker suspends the task on waker. autoDone means the task is
// semantically complete at suspension and should be destroyed, not
// resumed, once the wait fires.
func WaitOnWaker(waker Waker, autoDone bool) StepResult {
	return StepResult{
		Kind:         KindWait,
		WaitFor:      WaitFor{Waker: waker},
		TaskAutoDone: autoDone,
	}
}

// WaitOnChildren suspends the task until every child in children has
// completed, fanning their return values into the task's child-return
// buffer in input order.
func WaitOnChildren(children []Task, autoDone bool) StepResult {
	return StepResult{
		Kind:         KindWait,
		WaitFor:      WaitFor{Children: children},
		TaskAutoDone: autoDone,
	}
}
