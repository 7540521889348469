package eventloop

import "github.com/zoobzio/capitan"

// MemoCache is a keyed result cache, grounded on cache.go's keyed
// result cache generalized from caching a `Chainable` call's output to
// caching a Task's Done return value.
type MemoCache struct {
	entries map[any]any
}

// NewMemoCache returns an empty cache.
func NewMemoCache() *MemoCache {
	return &MemoCache{entries: make(map[any]any)}
}

// onceKey is the sentinel key MemoizeOnce uses, so "run exactly once"
// is just the zero-argument case of the same keyed cache.
type onceKey struct{}

type memoizeTask struct {
	Base
	cache   *MemoCache
	key     any
	factory func() Task
	current Task
}

// MemoizeTask builds a task that runs factory() the first time key is
// seen on cache and caches its Done return value; every later call with
// the same key resolves Done immediately with the cached value.
func MemoizeTask(cache *MemoCache, key any, factory func() Task) Task {
	return &memoizeTask{Base: NewBase("memoize"), cache: cache, key: key, factory: factory}
}

// MemoizeOnce builds a task whose factory runs at most once across the
// lifetime of cache, regardless of how many times it's submitted — the
// sync.Once shape as the zero-argument case of MemoizeTask.
func MemoizeOnce(cache *MemoCache, factory func() Task) Task {
	return MemoizeTask(cache, onceKey{}, factory)
}

func (t *memoizeTask) Step(ex *Executor, childReturns []any) StepResult {
	if t.current == nil {
		if cached, ok := t.cache.entries[t.key]; ok {
			capitan.Info(noCtx, SignalCompositeSlot, FieldSlotStatus.Field("memo-hit"))
			return DoneResult(cached)
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
		t.cache.entries[t.key] = result.ReturnValue
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
		panic(InvariantViolation{Reason: "MemoizeTask.Step: unrecognised child StepResult kind"})
	}
}
