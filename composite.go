package eventloop

import "github.com/zoobzio/capitan"

// SubtaskStatus is an Independent slot's lifecycle state.
type SubtaskStatus int

const (
	StatusReady SubtaskStatus = iota
	StatusWaiting
	StatusDone
)

func (s SubtaskStatus) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusWaiting:
		return "waiting"
	case StatusDone:
		return "done"
	default:
		return "unknown"
	}
}

// stepChild reads and clears t's child-return buffer and steps it —
// the same read-then-clear a composite's own Step receives from the
// Executor, replicated here because composites invoke their slots'
// Step methods directly rather than through Executor.Step. Every slot
// advance gets its own span, nested under the Executor.Step span that
// drove the composite itself.
func stepChild(ex *Executor, t Task) StepResult {
	state := t.taskState()
	childReturns := state.childReturns
	state.childReturns = nil
	_, span := ex.tracer.StartSpan(noCtx, SpanSlotAdvance)
	result := t.Step(ex, childReturns)
	span.Finish()
	return result
}

// ---------------------------------------------------------------------
// Concat: sequential composition.
// ---------------------------------------------------------------------

type concatTask struct {
	Base
	slots  []Task
	cursor int

	// awaitingCursor tracks which slot a forwarded, non-auto-done Wait
	// belongs to, so a resumed Step only forwards childReturns onto the
	// slot that actually asked for them — not onto whatever slot the
	// cursor has since advanced to (the auto-done "consumed immediately"
	// path always advances the cursor without ever re-stepping the
	// consumed slot).
	awaitingCursor int
}

// Concat runs tasks one after another on the same slot, in order. It
// forwards each slot's Wait directly — Concat has no concurrently
// running siblings, so there is nothing to interleave while one slot
// blocks, unlike Independent.
func Concat(tasks ...Task) Task {
	return &concatTask{Base: NewBase("concat"), slots: tasks, awaitingCursor: -1}
}

func (c *concatTask) Step(ex *Executor, childReturns []any) StepResult {
	current := c.slots[c.cursor]
	if childReturns != nil && c.awaitingCursor == c.cursor {
		current.taskState().childReturns = childReturns
	}
	c.awaitingCursor = -1

	result := stepChild(ex, current)
	switch result.Kind {
	case KindDone:
		ex.finishTask(current, result.ReturnValue)
		c.cursor++
		if c.cursor == len(c.slots) {
			return DoneResult(result.ReturnValue, result.Spawn...)
		}
		return ReadyResult(false, result.Spawn...)

	case KindReady:
		return ReadyResult(result.HighPriority, result.Spawn...)

	case KindWait:
		if result.TaskAutoDone {
			ex.finishTask(current, nil)
			c.cursor++
			forwarded := result
			forwarded.TaskAutoDone = false
			return forwarded
		}
		c.awaitingCursor = c.cursor
		return result

	case KindCompositeWait:
		// The slot is itself a nested composite; Concat has no siblings
		// of its own to add to the chain, so it passes the wait through
		// unchanged.
		return result

	default:
		panic(InvariantViolation{Reason: "Concat.Step: unrecognised child StepResult kind"})
	}
}

// ---------------------------------------------------------------------
// Independent: parallel composition on one executor.
// ---------------------------------------------------------------------

type independentTask struct {
	Base
	slots     []Task
	statuses  []SubtaskStatus
	selfWaker Waker // retained for StepResult.RootWaker fidelity; the
	// executor's wake-helper closures, not this waker, actually drive
	// resumption — see DESIGN.md.
}

// Independent runs tasks concurrently on the same single-threaded
// executor: each step advances the first ready slot, letting the
// others wait their turn.
func Independent(tasks ...Task) Task {
	return &independentTask{
		Base:      NewBase("independent"),
		slots:     tasks,
		statuses:  make([]SubtaskStatus, len(tasks)),
		selfWaker: NewReusableSingleWaker(),
	}
}

func (ind *independentTask) Step(ex *Executor, childReturns []any) StepResult {
	readyIdx := -1
	for i, st := range ind.statuses {
		if st == StatusReady {
			readyIdx = i
			break
		}
	}

	if readyIdx == -1 {
		if ind.allDone() {
			return DoneResult(nil)
		}
		// Nothing ready this instant, but a waiting slot may flip back to
		// ready via its own wake helper without this composite being told
		// directly. Staying runnable (rather than re-emitting a
		// CompositeWait here) avoids double-registering a single-use
		// waker that an earlier slot transition already parked a helper
		// on; see DESIGN.md's note on Independent's escalation rule.
		return ReadyResult(false)
	}

	current := ind.slots[readyIdx]
	if childReturns != nil {
		current.taskState().childReturns = childReturns
	}
	result := stepChild(ex, current)

	switch result.Kind {
	case KindDone:
		ex.finishTask(current, result.ReturnValue)
		ind.statuses[readyIdx] = StatusDone
		capitan.Info(noCtx, SignalCompositeSlot,
			FieldSlotIndex.Field(readyIdx), FieldSlotStatus.Field(StatusDone.String()))
		return ReadyResult(false, result.Spawn...)

	case KindReady:
		return ReadyResult(result.HighPriority, result.Spawn...)

	case KindWait:
		ind.statuses[readyIdx] = StatusWaiting
		capitan.Info(noCtx, SignalCompositeSlot,
			FieldSlotIndex.Field(readyIdx), FieldSlotStatus.Field(StatusWaiting.String()))
		ref := SubtaskStatusRef{status: &ind.statuses[readyIdx]}
		inner := result
		return ind.emitCompositeWait([]SubtaskStatusRef{ref}, &inner, current)

	case KindCompositeWait:
		ind.statuses[readyIdx] = StatusWaiting
		ref := SubtaskStatusRef{status: &ind.statuses[readyIdx]}
		chain := append(append([]SubtaskStatusRef{}, result.StatusChain...), ref)
		return ind.emitCompositeWait(chain, result.Inner, result.leaf)

	default:
		panic(InvariantViolation{Reason: "Independent.Step: unrecognised child StepResult kind"})
	}
}

func (ind *independentTask) allDone() bool {
	for _, st := range ind.statuses {
		if st != StatusDone {
			return false
		}
	}
	return true
}

func (ind *independentTask) emitCompositeWait(chain []SubtaskStatusRef, inner *StepResult, leaf Task) StepResult {
	allResting := true
	for _, st := range ind.statuses {
		if st == StatusReady {
			allResting = false
			break
		}
	}
	return StepResult{
		Kind:                KindCompositeWait,
		AllSiblingsSleeping: allResting,
		RootWaker:           ind.selfWaker,
		StatusChain:         chain,
		Inner:               inner,
		leaf:                leaf,
	}
}

// ---------------------------------------------------------------------
// Choice: dynamic next-task selection.
// ---------------------------------------------------------------------

type choiceTask struct {
	Base
	current  Task
	next     func(prev any) Task
	awaiting bool
}

// Choice runs first to completion, then calls next with its return
// value to decide what (if anything) runs next; next returning nil
// ends the chain. Unlike Concat's fixed slot list, the sequence is
// decided dynamically from each step's result.
func Choice(first Task, next func(prev any) Task) Task {
	return &choiceTask{Base: NewBase("choice"), current: first, next: next}
}

func (c *choiceTask) Step(ex *Executor, childReturns []any) StepResult {
	if c.awaiting {
		if childReturns != nil {
			c.current.taskState().childReturns = childReturns
		}
		c.awaiting = false
	}
	if c.current == nil {
		// The router ended the chain at an auto-done wait.
		return DoneResult(nil)
	}

	result := stepChild(ex, c.current)
	switch result.Kind {
	case KindDone:
		ex.finishTask(c.current, result.ReturnValue)
		next := c.next(result.ReturnValue)
		if next == nil {
			return DoneResult(result.ReturnValue, result.Spawn...)
		}
		c.current = next
		return ReadyResult(false, result.Spawn...)

	case KindReady:
		return ReadyResult(result.HighPriority, result.Spawn...)

	case KindWait:
		if result.TaskAutoDone {
			ex.finishTask(c.current, nil)
			// The router has no return value to work from at an
			// auto-done wait; it is invoked with nil, and the chain
			// continues on whichever task it names (or ends on nil).
			c.current = c.next(nil)
			forwarded := result
			forwarded.TaskAutoDone = false
			return forwarded
		}
		c.awaiting = true
		return result

	case KindCompositeWait:
		return result

	default:
		panic(InvariantViolation{Reason: "Choice.Step: unrecognised child StepResult kind"})
	}
}

// ---------------------------------------------------------------------
// Wake helpers.
// ---------------------------------------------------------------------

// wakeHelper is the transient task parked in place of a composite's
// blocked leaf. It is always resumed via Step (never fired through the
// destroy-on-wake onDone path), so it can run its flip-and-resubmit
// logic exactly once, uniformly, regardless of the leaf's own declared
// disposition.
type wakeHelper struct {
	Base
	chain        []SubtaskStatusRef
	leaf         Task // the blocked sub-task; receives fanned-in child returns
	leafAutoDone bool
	composite    Task // non-nil only for the full-sleep variant
}

func newPartialWakeHelper(chain []SubtaskStatusRef, leaf Task, leafAutoDone bool) *wakeHelper {
	return &wakeHelper{Base: NewBase("composite-wake-helper"), chain: chain, leaf: leaf, leafAutoDone: leafAutoDone}
}

func newFullWakeHelper(composite Task, chain []SubtaskStatusRef, leaf Task, leafAutoDone bool) *wakeHelper {
	return &wakeHelper{Base: NewBase("composite-wake-helper"), chain: chain, leaf: leaf, leafAutoDone: leafAutoDone, composite: composite}
}

func (h *wakeHelper) Step(ex *Executor, childReturns []any) StepResult {
	if len(childReturns) > 0 && h.leaf != nil {
		h.leaf.taskState().childReturns = childReturns
	}
	if len(h.chain) > 0 {
		h.chain[0].Flip(h.leafAutoDone)
		for _, ref := range h.chain[1:] {
			ref.Flip(false)
		}
	}
	if h.composite != nil {
		ex.pushBack(h.composite)
	}
	return DoneResult(nil)
}
