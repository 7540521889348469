package eventloop

import (
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
)

// retryTask wraps a child-task factory, re-attempting on failure after
// an exponential-backoff DeadlineTask, up to a maximum attempt count.
// Grounded on retry.go + backoff.go's attempt/exhausted/succeeded signal
// triad, generalized from "retry a Chainable call" to "retry a Task".
type retryTask struct {
	Base
	factory      func(attempt int) Task
	maxAttempts  int
	clock        clockz.Clock
	baseDelay    time.Duration
	attempt      int
	current      Task
	backoffPhase bool
}

// RetryTask builds a task that runs factory(1), factory(2), ... up to
// maxAttempts times, waiting baseDelay*2^(n-1) between attempts,
// stopping at the first attempt whose Done return value is an Outcome
// with a nil Err (or isn't an Outcome at all — treated as success).
func RetryTask(factory func(attempt int) Task, maxAttempts int, clock clockz.Clock, baseDelay time.Duration) Task {
	return &retryTask{
		Base:        NewBase("retry"),
		factory:     factory,
		maxAttempts: maxAttempts,
		clock:       resolveClock(clock),
		baseDelay:   baseDelay,
	}
}

func backoffDelay(base time.Duration, attempt int) time.Duration {
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
	}
	return d
}

func (t *retryTask) Step(ex *Executor, childReturns []any) StepResult {
	if t.current == nil {
		t.attempt = 1
		t.current = t.factory(t.attempt)
		t.backoffPhase = false
	}
	if childReturns != nil {
		t.current.taskState().childReturns = childReturns
	}

	result := stepChild(ex, t.current)
	switch result.Kind {
	case KindDone:
		ex.finishTask(t.current, result.ReturnValue)

		if t.backoffPhase {
			t.attempt++
			t.current = t.factory(t.attempt)
			t.backoffPhase = false
			capitan.Info(noCtx, SignalRetryAttempt, FieldAttempt.Field(t.attempt), FieldMaxAttempts.Field(t.maxAttempts))
			return ReadyResult(false)
		}

		outcome, failed := result.ReturnValue.(Outcome)
		if !failed || outcome.Err == nil {
			capitan.Info(noCtx, SignalRetrySucceeded, FieldAttempt.Field(t.attempt))
			return DoneResult(result.ReturnValue)
		}
		if t.attempt >= t.maxAttempts {
			capitan.Warn(noCtx, SignalRetryExhausted, FieldAttempt.Field(t.attempt), FieldMaxAttempts.Field(t.maxAttempts))
			return DoneResult(result.ReturnValue)
		}

		t.current = DeadlineTask(t.clock, backoffDelay(t.baseDelay, t.attempt))
		t.backoffPhase = true
		return ReadyResult(false)

	case KindReady:
		return ReadyResult(result.HighPriority, result.Spawn...)

	case KindWait:
		if result.TaskAutoDone {
			ex.finishTask(t.current, nil)
			forwarded := result
			forwarded.TaskAutoDone = false
			return forwarded
		}
		return result

	case KindCompositeWait:
		return result

	default:
		panic(InvariantViolation{Reason: "RetryTask.Step: unrecognised child StepResult kind"})
	}
}
