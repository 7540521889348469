package eventloop

// CoroutineResult is the Done return value of a coroutine task whose
// body reports an error. Value mirrors whatever the body returned;
// Err is the body's non-nil error. A body that returns a nil error
// resolves Done with its bare value instead.
type CoroutineResult struct {
	Value any
	Err   error
}

// CoroutineHandle is what a coroutine body uses to suspend itself. Go
// has no stackless coroutines, so the adapter stands one up with a
// goroutine plus a hand-off channel pair: at any instant exactly one of
// the frame goroutine or the executor goroutine is running, the other
// blocked on a channel receive — cooperative, never concurrent, the one
// part of the runtime that genuinely needs two goroutines to exist at
// all while preserving the single-active-task scheduling model.
type CoroutineHandle struct {
	ex       *Executor
	resumeCh chan []any
	yieldCh  chan coroutineMsg
}

type coroutineMsg struct {
	result      StepResult
	done        bool
	returnValue any
	err         error
	panicVal    any
}

// Executor returns the executor driving this step. The adapter
// refreshes this field before resuming the frame on every Step call, so
// fetching it never itself suspends the frame — there is no channel
// round-trip involved; reading the executor reference never produces a
// step-result of its own.
func (h *CoroutineHandle) Executor() *Executor { return h.ex }

// Yield hands result to the executor and blocks the frame goroutine
// until the task is next stepped, returning whatever child-return
// buffer that step carries.
func (h *CoroutineHandle) Yield(result StepResult) []any {
	h.yieldCh <- coroutineMsg{result: result}
	return <-h.resumeCh
}

// AwaitChild suspends until child completes, returning its declared
// return value (nil if child's task is void-returning).
func (h *CoroutineHandle) AwaitChild(child Task) any {
	returns := h.Yield(WaitOnChildren([]Task{child}, false))
	if len(returns) == 0 {
		return nil
	}
	return returns[0]
}

// coroutineTask adapts a suspending function into the Task protocol.
type coroutineTask struct {
	Base
	handle  *CoroutineHandle
	body    func(*CoroutineHandle) (any, error)
	started bool
}

// RunCoroutine wraps body as a Task. Each yield inside body produces a
// StepResult; body's final return produces the task's Done.
func RunCoroutine(name string, body func(*CoroutineHandle) (any, error)) Task {
	return &coroutineTask{
		Base: NewBase(name),
		handle: &CoroutineHandle{
			resumeCh: make(chan []any),
			yieldCh:  make(chan coroutineMsg),
		},
		body: body,
	}
}

func (t *coroutineTask) Step(ex *Executor, childReturns []any) StepResult {
	t.handle.ex = ex

	if !t.started {
		t.started = true
		go func() {
			defer func() {
				if r := recover(); r != nil {
					t.handle.yieldCh <- coroutineMsg{panicVal: r}
				}
			}()
			value, err := t.body(t.handle)
			t.handle.yieldCh <- coroutineMsg{done: true, returnValue: value, err: err}
		}()
	} else {
		t.handle.resumeCh <- childReturns
	}

	msg := <-t.handle.yieldCh
	if msg.panicVal != nil {
		panic(msg.panicVal)
	}
	if msg.done {
		if msg.err != nil {
			return DoneResult(CoroutineResult{Value: msg.returnValue, Err: msg.err})
		}
		return DoneResult(msg.returnValue)
	}
	return msg.result
}
