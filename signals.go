package eventloop

import "github.com/zoobzio/capitan"

// Signal constants for runtime lifecycle events.
// Signals follow the pattern: <component>.<event>.
const (
	SignalTaskSubmitted   capitan.Signal = "task.submitted"
	SignalTaskDone        capitan.Signal = "task.done"
	SignalTaskParked      capitan.Signal = "task.parked"
	SignalTaskWoken       capitan.Signal = "task.woken"
	SignalTaskAutoDone    capitan.Signal = "task.auto-done"
	SignalExecutorIdle    capitan.Signal = "executor.idle"
	SignalExecutorLeaked  capitan.Signal = "executor.sleeping-tasks-leaked"
	SignalCounterFired    capitan.Signal = "counter.fired"
	SignalCompositeSlot   capitan.Signal = "composite.slot-transition"
	SignalMutexAcquired   capitan.Signal = "mutex.acquired"
	SignalMutexReleased   capitan.Signal = "mutex.released"
	SignalMutexTransfer   capitan.Signal = "mutex.transferred"
	SignalCondNotified    capitan.Signal = "condvar.notified"
	SignalSemaphoreTaken  capitan.Signal = "semaphore.taken"
	SignalSemaphoreFreed  capitan.Signal = "semaphore.freed"
	SignalDeadlineReached capitan.Signal = "deadline.reached"
	SignalRetryAttempt    capitan.Signal = "retry.attempt"
	SignalRetryExhausted  capitan.Signal = "retry.exhausted"
	SignalRetrySucceeded  capitan.Signal = "retry.succeeded"
	SignalGateOpened      capitan.Signal = "circuitgate.opened"
	SignalGateClosed      capitan.Signal = "circuitgate.closed"
	SignalGateHalfOpen    capitan.Signal = "circuitgate.half-open"
	SignalGateRejected    capitan.Signal = "circuitgate.rejected"
	SignalRateThrottled   capitan.Signal = "rategate.throttled"
	SignalRateAllowed     capitan.Signal = "rategate.allowed"
)

// Common field keys using capitan's primitive key types, shared across
// every component so emitted events stay consistently shaped.
var (
	FieldTaskName    = capitan.NewStringKey("task_name")
	FieldWakerKind   = capitan.NewStringKey("waker_kind")
	FieldSleepCount  = capitan.NewIntKey("sleep_count")
	FieldSlotIndex   = capitan.NewIntKey("slot_index")
	FieldSlotStatus  = capitan.NewStringKey("slot_status")
	FieldAttempt     = capitan.NewIntKey("attempt")
	FieldMaxAttempts = capitan.NewIntKey("max_attempts")
	FieldState       = capitan.NewStringKey("state")
	FieldError       = capitan.NewStringKey("error")
	FieldTimestamp   = capitan.NewFloat64Key("timestamp")
)
