package eventloop

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/zoobzio/clockz"
)

func TestCircuitBreaker(t *testing.T) {
	t.Run("stays closed and passes calls through on success", func(t *testing.T) {
		ex := NewExecutor()
		breaker := NewCircuitBreaker(3, time.Second, clockz.NewFakeClock())
		defer breaker.Close()
		calls := 0

		for i := 0; i < 5; i++ {
			var final any
			gate := breaker.Gate(func() Task {
				calls++
				return &echoTask{Base: NewBase("call"), value: Outcome{Value: i}}
			})
			ex.Submit(&captureTask{Base: NewBase("root"), child: gate, out: &final})
			ex.RunUntilCompletion()

			outcome, ok := final.(Outcome)
			if !ok || outcome.Err != nil {
				t.Fatalf("expected a successful Outcome on call %d, got %v", i, final)
			}
		}
		if calls != 5 {
			t.Fatalf("expected 5 calls, got %d", calls)
		}
		if breaker.state != gateClosed {
			t.Fatalf("expected the breaker to remain closed, got %v", breaker.state)
		}
	})

	t.Run("opens after the failure threshold and rejects without calling the factory", func(t *testing.T) {
		ex := NewExecutor()
		breaker := NewCircuitBreaker(3, time.Second, clockz.NewFakeClock())
		defer breaker.Close()
		calls := 0
		failingFactory := func() Task {
			calls++
			return &echoTask{Base: NewBase("call"), value: Outcome{Err: errors.New("service error")}}
		}

		for i := 0; i < 3; i++ {
			var final any
			ex.Submit(&captureTask{Base: NewBase("root"), child: breaker.Gate(failingFactory), out: &final})
			ex.RunUntilCompletion()
		}
		if calls != 3 {
			t.Fatalf("expected 3 calls before opening, got %d", calls)
		}
		if breaker.state != gateOpen {
			t.Fatalf("expected the breaker to be open, got %v", breaker.state)
		}

		var final any
		ex.Submit(&captureTask{Base: NewBase("root"), child: breaker.Gate(failingFactory), out: &final})
		ex.RunUntilCompletion()
		if calls != 3 {
			t.Fatalf("expected the factory to not be called while open, got %d calls", calls)
		}
		outcome, ok := final.(Outcome)
		if !ok || outcome.Err == nil {
			t.Fatalf("expected a rejection Outcome, got %v", final)
		}
		var gateErr *GateError
		if !errors.As(outcome.Err, &gateErr) || gateErr.Reason != "open" {
			t.Fatalf("expected a GateError with reason 'open', got %v", outcome.Err)
		}
	})

	t.Run("half-opens after the reset timeout and closes again on success", func(t *testing.T) {
		clock := clockz.NewFakeClock()
		ex := NewExecutor()
		breaker := NewCircuitBreaker(1, 100*time.Millisecond, clock)
		defer breaker.Close()

		failOnce := func() Task {
			return &echoTask{Base: NewBase("call"), value: Outcome{Err: errors.New("fail")}}
		}
		var final any
		ex.Submit(&captureTask{Base: NewBase("root"), child: breaker.Gate(failOnce), out: &final})
		ex.RunUntilCompletion()
		if breaker.state != gateOpen {
			t.Fatalf("expected the breaker to open after 1 failure, got %v", breaker.state)
		}

		clock.Advance(100 * time.Millisecond)

		succeed := func() Task {
			return &echoTask{Base: NewBase("call"), value: Outcome{Value: "ok"}}
		}
		final = nil
		ex.Submit(&captureTask{Base: NewBase("root"), child: breaker.Gate(succeed), out: &final})
		ex.RunUntilCompletion()

		outcome, ok := final.(Outcome)
		if !ok || outcome.Err != nil {
			t.Fatalf("expected the half-open trial to succeed, got %v", final)
		}
		if breaker.state != gateClosed {
			t.Fatalf("expected the breaker to close after a successful trial, got %v", breaker.state)
		}
	})

	t.Run("emits hook events on open, half-open, and close", func(t *testing.T) {
		clock := clockz.NewFakeClock()
		ex := NewExecutor()
		breaker := NewCircuitBreaker(1, 100*time.Millisecond, clock)
		defer breaker.Close()

		var opened, halfOpened, closed int
		if _, err := breaker.Hooks().Hook(HookGateOpened, func(_ context.Context, _ CircuitGateEvent) error {
			opened++
			return nil
		}); err != nil {
			t.Fatalf("unexpected error registering opened hook: %v", err)
		}
		if _, err := breaker.Hooks().Hook(HookGateHalfOpen, func(_ context.Context, _ CircuitGateEvent) error {
			halfOpened++
			return nil
		}); err != nil {
			t.Fatalf("unexpected error registering half-open hook: %v", err)
		}
		if _, err := breaker.Hooks().Hook(HookGateClosed, func(_ context.Context, _ CircuitGateEvent) error {
			closed++
			return nil
		}); err != nil {
			t.Fatalf("unexpected error registering closed hook: %v", err)
		}

		fail := func() Task { return &echoTask{Base: NewBase("call"), value: Outcome{Err: errors.New("fail")}} }
		ex.Submit(breaker.Gate(fail))
		ex.RunUntilCompletion()

		clock.Advance(100 * time.Millisecond)
		succeed := func() Task { return &echoTask{Base: NewBase("call"), value: Outcome{Value: "ok"}} }
		ex.Submit(breaker.Gate(succeed))
		ex.RunUntilCompletion()

		if opened != 1 {
			t.Errorf("expected 1 opened hook fire, got %d", opened)
		}
		if halfOpened != 1 {
			t.Errorf("expected 1 half-open hook fire, got %d", halfOpened)
		}
		if closed != 1 {
			t.Errorf("expected 1 closed hook fire, got %d", closed)
		}
	})
}
