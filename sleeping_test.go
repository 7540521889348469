package eventloop

import "testing"

func TestSleepingList(t *testing.T) {
	t.Run("starts empty with a sentinel head", func(t *testing.T) {
		l := newSleepingList()
		if !l.empty() {
			t.Fatal("expected a fresh list to be empty")
		}
		if l.len() != 0 {
			t.Fatalf("expected len 0, got %d", l.len())
		}
		if l.head.task != nil {
			t.Error("expected the sentinel's task to be nil")
		}
		if l.head.prev != nil {
			t.Error("expected the sentinel's prev to be nil")
		}
	})

	t.Run("park and remove round-trip", func(t *testing.T) {
		l := newSleepingList()
		waker := NewFIFOWaker()
		task := &echoTask{Base: NewBase("a")}

		node := l.park(task, waker, true)
		if l.empty() {
			t.Fatal("expected the list to be non-empty after park")
		}
		if l.len() != 1 {
			t.Fatalf("expected len 1, got %d", l.len())
		}
		if node.Task() != task {
			t.Error("expected the node to carry the parked task")
		}
		if !waker.HasWaiters() {
			t.Error("expected park to register the node with the waker")
		}

		l.remove(node)
		if !l.empty() {
			t.Error("expected the list to be empty after remove")
		}
		if l.len() != 0 {
			t.Fatalf("expected len 0 after remove, got %d", l.len())
		}
	})

	t.Run("park inserts at the front, multiple nodes splice correctly", func(t *testing.T) {
		l := newSleepingList()
		waker := NewFIFOWaker()

		n1 := l.park(&echoTask{Base: NewBase("1")}, waker, false)
		n2 := l.park(&echoTask{Base: NewBase("2")}, waker, false)
		n3 := l.park(&echoTask{Base: NewBase("3")}, waker, false)
		if l.len() != 3 {
			t.Fatalf("expected len 3, got %d", l.len())
		}

		// Removing a middle node must preserve the chain around it.
		l.remove(n2)
		if l.len() != 2 {
			t.Fatalf("expected len 2 after removing the middle node, got %d", l.len())
		}
		if n3.next != n1 || n1.prev != n3 {
			t.Error("expected n3 and n1 to be spliced together after removing n2")
		}

		l.remove(n1)
		l.remove(n3)
		if !l.empty() {
			t.Error("expected the list to be empty after removing all nodes")
		}
	})
}
