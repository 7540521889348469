package eventloop

import "testing"

func TestSemaphore(t *testing.T) {
	t.Run("allows up to its slot count concurrently", func(t *testing.T) {
		ex := NewExecutor()
		sem := NewSemaphore("s", 2)

		var order []string
		ex.Submit(&namedDoneTask{task: SemaphoreAcquire(sem), name: "a", order: &order})
		ex.Submit(&namedDoneTask{task: SemaphoreAcquire(sem), name: "b", order: &order})
		leaked := ex.RunUntilCompletion()

		if leaked != 0 {
			t.Fatalf("expected no leaks, got %d", leaked)
		}
		if len(order) != 2 {
			t.Fatalf("expected both acquires to succeed immediately, got %v", order)
		}
		if sem.free != 0 {
			t.Fatalf("expected 0 free slots, got %d", sem.free)
		}
	})

	t.Run("a third acquirer waits for a release via direct transfer", func(t *testing.T) {
		ex := NewExecutor()
		sem := NewSemaphore("s", 1)

		ex.Submit(SemaphoreAcquire(sem))
		ex.RunUntilCompletion()

		var order []string
		ex.Submit(&namedDoneTask{task: SemaphoreAcquire(sem), name: "third", order: &order})
		status := ex.Step()
		for status == StepMoreToGo {
			status = ex.Step()
		}
		if status != StepDoneWithTasksSleeping {
			t.Fatalf("expected the third acquirer to park, got %v", status)
		}
		if len(order) != 0 {
			t.Fatal("expected the third acquirer to not yet have completed")
		}

		ex.Submit(SemaphoreRelease(sem))
		leaked := ex.RunUntilCompletion()
		if leaked != 0 {
			t.Fatalf("expected no leaks, got %d", leaked)
		}
		if len(order) != 1 || order[0] != "third" {
			t.Fatalf("expected the third acquirer to complete via transfer, got %v", order)
		}
		if sem.free != 0 {
			t.Fatalf("expected the transferred permit to stay held (free count untouched), got %d", sem.free)
		}
	})
}
