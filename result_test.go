package eventloop

import "testing"

func TestStepResultConstructors(t *testing.T) {
	t.Run("DoneResult carries return value and spawn", func(t *testing.T) {
		spawn := &echoTask{Base: NewBase("spawn")}
		result := DoneResult(42, spawn)
		if result.Kind != KindDone {
			t.Fatalf("expected KindDone, got %s", result.Kind)
		}
		if result.ReturnValue != 42 {
			t.Errorf("expected return value 42, got %v", result.ReturnValue)
		}
		if len(result.Spawn) != 1 || result.Spawn[0] != spawn {
			t.Errorf("expected spawn to carry the given task")
		}
	})

	t.Run("ReadyResult carries priority", func(t *testing.T) {
		result := ReadyResult(true)
		if result.Kind != KindReady {
			t.Fatalf("expected KindReady, got %s", result.Kind)
		}
		if !result.HighPriority {
			t.Error("expected HighPriority to be true")
		}
	})

	t.Run("WaitOnWaker carries the waker and auto-done flag", func(t *testing.T) {
		waker := NewFIFOWaker()
		result := WaitOnWaker(waker, true)
		if result.Kind != KindWait {
			t.Fatalf("expected KindWait, got %s", result.Kind)
		}
		if result.WaitFor.Waker != waker {
			t.Error("expected WaitFor.Waker to be the given waker")
		}
		if !result.TaskAutoDone {
			t.Error("expected TaskAutoDone to be true")
		}
	})

	t.Run("WaitOnChildren carries the child list", func(t *testing.T) {
		child := &echoTask{Base: NewBase("child")}
		result := WaitOnChildren([]Task{child}, false)
		if result.Kind != KindWait {
			t.Fatalf("expected KindWait, got %s", result.Kind)
		}
		if len(result.WaitFor.Children) != 1 || result.WaitFor.Children[0] != child {
			t.Error("expected WaitFor.Children to carry the given child")
		}
	})
}

func TestSubtaskStatusRefFlip(t *testing.T) {
	status := StatusWaiting
	ref := SubtaskStatusRef{status: &status}

	ref.Flip(false)
	if status != StatusReady {
		t.Errorf("expected StatusReady after Flip(false), got %s", status)
	}

	ref.Flip(true)
	if status != StatusDone {
		t.Errorf("expected StatusDone after Flip(true), got %s", status)
	}
}

// echoTask is a minimal direct task used across tests: it resolves Done
// with a fixed value on its first Step.
type echoTask struct {
	Base
	value any
	ran   bool
}

func (t *echoTask) Step(_ *Executor, _ []any) StepResult {
	t.ran = true
	return DoneResult(t.value)
}
