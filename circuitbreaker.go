package eventloop

import (
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
	"github.com/zoobzio/hookz"
)

type gateState int

const (
	gateClosed gateState = iota
	gateOpen
	gateHalfOpen
)

// CircuitGateEvent is the payload delivered to CircuitBreaker hook
// subscribers.
type CircuitGateEvent struct {
	State gateState
}

const (
	HookGateOpened   = hookz.Key("circuitgate.opened")
	HookGateClosed   = hookz.Key("circuitgate.closed")
	HookGateHalfOpen = hookz.Key("circuitgate.half-open")
)

// CircuitBreaker is the long-lived state the closed/open/half-open
// machine from circuitbreaker.go needs to persist across many gated
// calls — the gate task itself is one-shot (it Done's after one
// factory run), so the breaker, not the task, is what survives between
// submissions.
type CircuitBreaker struct {
	failureThreshold int
	resetTimeout     time.Duration
	clock            clockz.Clock
	hooks            *hookz.Hooks[CircuitGateEvent]

	state               gateState
	consecutiveFailures int
	openedAt            time.Time
}

// NewCircuitBreaker returns a closed breaker that opens after
// failureThreshold consecutive failures and stays open for
// resetTimeout before allowing a half-open trial.
func NewCircuitBreaker(failureThreshold int, resetTimeout time.Duration, clock clockz.Clock) *CircuitBreaker {
	return &CircuitBreaker{
		failureThreshold: failureThreshold,
		resetTimeout:     resetTimeout,
		clock:            resolveClock(clock),
		hooks:            hookz.New[CircuitGateEvent](),
	}
}

// Hooks exposes the breaker's hook registry for external subscribers.
func (b *CircuitBreaker) Hooks() *hookz.Hooks[CircuitGateEvent] { return b.hooks }

// Close releases the hook registry's resources.
func (b *CircuitBreaker) Close() { b.hooks.Close() }

// Gate builds a one-shot task that runs factory() through the breaker:
// rejected immediately (Outcome.Err a *GateError) while open and
// within the reset window, otherwise run and the breaker's state
// updated from the child's Outcome.
func (b *CircuitBreaker) Gate(factory func() Task) Task {
	return &circuitGateTask{Base: NewBase("circuitgate"), breaker: b, factory: factory}
}

type circuitGateTask struct {
	Base
	breaker *CircuitBreaker
	factory func() Task
	current Task
}

func (t *circuitGateTask) Step(ex *Executor, childReturns []any) StepResult {
	b := t.breaker
	if t.current == nil {
		if b.state == gateOpen {
			if b.clock.Now().Before(b.openedAt.Add(b.resetTimeout)) {
				capitan.Info(noCtx, SignalGateRejected, FieldState.Field("open"))
				return DoneResult(Outcome{Err: &GateError{Gate: "circuitgate", Reason: "open"}})
			}
			b.state = gateHalfOpen
			capitan.Info(noCtx, SignalGateHalfOpen)
			b.hooks.Emit(noCtx, HookGateHalfOpen, CircuitGateEvent{State: b.state})
		}
		t.current = t.factory()
	}
	if childReturns != nil {
		t.current.taskState().childReturns = childReturns
	}

	result := stepChild(ex, t.current)
	switch result.Kind {
	case KindDone:
		ex.finishTask(t.current, result.ReturnValue)

		outcome, failed := result.ReturnValue.(Outcome)
		if failed && outcome.Err != nil {
			b.consecutiveFailures++
			if b.state == gateHalfOpen || b.consecutiveFailures >= b.failureThreshold {
				b.state = gateOpen
				b.openedAt = b.clock.Now()
				capitan.Warn(noCtx, SignalGateOpened, FieldAttempt.Field(b.consecutiveFailures))
				b.hooks.Emit(noCtx, HookGateOpened, CircuitGateEvent{State: b.state})
			}
			return DoneResult(result.ReturnValue)
		}

		b.consecutiveFailures = 0
		if b.state == gateHalfOpen {
			b.state = gateClosed
			capitan.Info(noCtx, SignalGateClosed)
			b.hooks.Emit(noCtx, HookGateClosed, CircuitGateEvent{State: b.state})
		}
		return DoneResult(result.ReturnValue)

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
		panic(InvariantViolation{Reason: "CircuitGate.Step: unrecognised child StepResult kind"})
	}
}
