package eventloop

// SleepingTask is an intrusive doubly-linked node holding a suspended
// task and its disposal policy. The list's head is a sentinel with
// Task == nil and Prev == nil; DestroyOnWake is meaningless on the
// sentinel.
type SleepingTask struct {
	prev, next    *SleepingTask
	task          Task
	destroyOnWake bool
}

// Task returns the suspended task owned by this node, or nil for the
// sentinel.
func (s *SleepingTask) Task() Task { return s.task }

// sleepingList is the executor's sentinel-headed doubly linked list of
// parked tasks. park inserts at the front; wake splices a node out
// in O(1).
type sleepingList struct {
	head SleepingTask // sentinel: head.task == nil, head.prev == nil
	size int
}

func newSleepingList() *sleepingList {
	l := &sleepingList{}
	l.head.next = nil
	l.head.prev = nil
	return l
}

func (l *sleepingList) empty() bool { return l.head.next == nil }

func (l *sleepingList) len() int { return l.size }

// park inserts a new node at the front of the list and registers it with
// waker so a future wake_one/wake_all can find it.
func (l *sleepingList) park(task Task, waker Waker, destroyOnWake bool) *SleepingTask {
	node := &SleepingTask{task: task, destroyOnWake: destroyOnWake}
	node.next = l.head.next
	node.prev = &l.head
	if l.head.next != nil {
		l.head.next.prev = node
	}
	l.head.next = node
	l.size++
	waker.AddWaiter(node)
	return node
}

// remove splices node out of the list. Safe to call at most once per
// node; calling it twice on an already-removed node is a caller bug.
func (l *sleepingList) remove(node *SleepingTask) {
	if node.prev != nil {
		node.prev.next = node.next
	}
	if node.next != nil {
		node.next.prev = node.prev
	}
	node.prev = nil
	node.next = nil
	l.size--
}
