package eventloop

import (
	"context"
	"testing"
	"time"

	"github.com/zoobzio/clockz"
)

func TestRateGate(t *testing.T) {
	t.Run("RateGate waits for a refill instead of failing", func(t *testing.T) {
		clock := clockz.NewFakeClock()
		limiter := NewRateLimiter(1, 10, clock) // 1 token capacity, 10/sec refill
		defer limiter.Close()
		ex := NewExecutor()

		ex.Submit(RateGate(limiter))
		ex.RunUntilCompletion() // drains the initial token

		var final any
		ex.Submit(&captureTask{Base: NewBase("root"), child: RateGate(limiter), out: &final})

		for i := 0; i < 10; i++ {
			if status := ex.Step(); status != StepMoreToGo {
				t.Fatalf("expected the second RateGate to keep waiting before refill, got %v at iteration %d", status, i)
			}
		}

		clock.Advance(100 * time.Millisecond) // 10/sec * 0.1s = 1 token
		leaked := ex.RunUntilCompletion()
		if leaked != 0 {
			t.Fatalf("expected no leaks, got %d", leaked)
		}
		if final != nil {
			t.Fatalf("expected RateGate to resolve Done(nil), got %v", final)
		}
	})

	t.Run("RateGateDrop fails fast instead of waiting", func(t *testing.T) {
		clock := clockz.NewFakeClock()
		limiter := NewRateLimiter(1, 1, clock)
		defer limiter.Close()
		ex := NewExecutor()

		ex.Submit(RateGateDrop(limiter))
		ex.RunUntilCompletion() // drains the initial token

		var final any
		ex.Submit(&captureTask{Base: NewBase("root"), child: RateGateDrop(limiter), out: &final})
		leaked := ex.RunUntilCompletion()
		if leaked != 0 {
			t.Fatalf("expected no leaks, got %d", leaked)
		}

		outcome, ok := final.(Outcome)
		if !ok || outcome.Err == nil {
			t.Fatalf("expected a throttled Outcome, got %v", final)
		}
	})

	t.Run("emits hook events on allow and throttle", func(t *testing.T) {
		clock := clockz.NewFakeClock()
		limiter := NewRateLimiter(1, 1, clock)
		defer limiter.Close()
		ex := NewExecutor()

		var allowed, throttled int
		if _, err := limiter.Hooks().Hook(HookRateAllowed, func(_ context.Context, _ RateLimiterEvent) error {
			allowed++
			return nil
		}); err != nil {
			t.Fatalf("unexpected error registering allowed hook: %v", err)
		}
		if _, err := limiter.Hooks().Hook(HookRateThrottled, func(_ context.Context, _ RateLimiterEvent) error {
			throttled++
			return nil
		}); err != nil {
			t.Fatalf("unexpected error registering throttled hook: %v", err)
		}

		ex.Submit(RateGate(limiter))
		ex.RunUntilCompletion()
		ex.Submit(RateGateDrop(limiter))
		ex.RunUntilCompletion()

		if allowed != 1 {
			t.Errorf("expected 1 allowed hook fire, got %d", allowed)
		}
		if throttled != 1 {
			t.Errorf("expected 1 throttled hook fire, got %d", throttled)
		}
	})
}
