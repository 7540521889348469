package eventloop

import (
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
	"github.com/zoobzio/hookz"
)

// RateLimiterEvent is the payload delivered to RateLimiter hook
// subscribers.
type RateLimiterEvent struct {
	Dropped bool
}

const (
	HookRateAllowed   = hookz.Key("rategate.allowed")
	HookRateThrottled = hookz.Key("rategate.throttled")
)

// RateLimiter is a token bucket refilled by elapsed clockz time,
// generalized from ratelimiter.go's per-call throttling to per-Step
// throttling.
type RateLimiter struct {
	capacity   float64
	refillRate float64 // tokens per second
	clock      clockz.Clock
	hooks      *hookz.Hooks[RateLimiterEvent]

	tokens     float64
	lastRefill time.Time
}

// NewRateLimiter returns a full bucket of the given capacity, refilling
// at refillRate tokens per second.
func NewRateLimiter(capacity, refillRate float64, clock clockz.Clock) *RateLimiter {
	clock = resolveClock(clock)
	return &RateLimiter{
		capacity:   capacity,
		refillRate: refillRate,
		clock:      clock,
		hooks:      hookz.New[RateLimiterEvent](),
		tokens:     capacity,
		lastRefill: clock.Now(),
	}
}

// Hooks exposes the limiter's hook registry for external subscribers.
func (r *RateLimiter) Hooks() *hookz.Hooks[RateLimiterEvent] { return r.hooks }

// Close releases the hook registry's resources.
func (r *RateLimiter) Close() { r.hooks.Close() }

func (r *RateLimiter) refill() {
	now := r.clock.Now()
	elapsed := now.Sub(r.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}
	r.tokens += elapsed * r.refillRate
	if r.tokens > r.capacity {
		r.tokens = r.capacity
	}
	r.lastRefill = now
}

func (r *RateLimiter) take() bool {
	r.refill()
	if r.tokens < 1 {
		return false
	}
	r.tokens--
	return true
}

// rateGateTask is a one-shot task that takes a token from limiter, in
// either wait mode (re-yields Ready until one is available) or drop
// mode (resolves Done with an Outcome.Err immediately if none is
// available).
type rateGateTask struct {
	Base
	limiter *RateLimiter
	drop    bool
}

// RateGate builds a task that waits for a token from limiter before
// resolving Done(nil).
func RateGate(limiter *RateLimiter) Task {
	return &rateGateTask{Base: NewBase("rategate"), limiter: limiter}
}

// RateGateDrop builds a task that resolves Done immediately: Done(nil)
// if a token was available, or Done(Outcome{Err: *GateError}) if the
// bucket was empty — the cooperative equivalent of ratelimiter.go's
// drop mode.
func RateGateDrop(limiter *RateLimiter) Task {
	return &rateGateTask{Base: NewBase("rategate-drop"), limiter: limiter, drop: true}
}

func (t *rateGateTask) Step(ex *Executor, _ []any) StepResult {
	if t.limiter.take() {
		capitan.Info(noCtx, SignalRateAllowed)
		t.limiter.hooks.Emit(noCtx, HookRateAllowed, RateLimiterEvent{})
		return DoneResult(nil)
	}
	if t.drop {
		capitan.Info(noCtx, SignalRateThrottled, FieldState.Field("dropped"))
		t.limiter.hooks.Emit(noCtx, HookRateThrottled, RateLimiterEvent{Dropped: true})
		return DoneResult(Outcome{Err: &GateError{Gate: "rategate", Reason: "throttled"}})
	}
	capitan.Info(noCtx, SignalRateThrottled, FieldState.Field("waiting"))
	return ReadyResult(false)
}
