// Package eventloop implements a single-threaded cooperative task runtime:
// a scheduler plus a task-composition algebra for structured concurrency
// over one shared executor, without OS threads.
//
// # Overview
//
// A Task is a stepwise unit of work. The Executor interleaves tasks,
// parks them on named Wakers, resumes them when those wakers fire, and
// propagates return values up a parent/child tree. Three construction
// styles share the same StepResult protocol:
//
//   - direct tasks: hand-written state machines (see Mutex, ConditionVariable)
//   - compositional tasks: Concat and Independent combinators
//   - coroutine tasks: suspending functions built on RunCoroutine
//
// # Core Concepts
//
//	type Task interface {
//	    Step(ex *Executor, childReturns []any) StepResult
//	}
//
// Every step returns exactly one StepResult variant: Done, Ready, Wait, or
// CompositeWait. The Executor's step loop is the only place these are
// interpreted; see Executor.Step.
//
// # Design Philosophy
//
//   - The executor owns everything; nothing here touches goroutines except
//     the coroutine adapter's single hand-off goroutine per frame.
//   - Composite tasks let a single sub-task sleep without blocking its
//     siblings (CompositeWait / partial wake); only once every slot sleeps
//     does the composite itself leave the runnable deque.
//   - Synchronization primitives (Mutex, ConditionVariable) are ordinary
//     tasks built from the waker/park protocol, not executor built-ins.
package eventloop
