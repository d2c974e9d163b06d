package pool

import "sync"

// gcLock is the pool's global shared/exclusive lock. Producers hold it in
// shared mode while creating or reading terms; the collector holds it in
// exclusive mode for the duration of a mark-sweep cycle.
//
// Acquisition returns a guard whose Release is idempotent, so guards can
// be released early and still deferred on every exit path. Acquiring
// exclusive mode from code already holding shared mode deadlocks; the
// collector is therefore only invoked from contexts that hold neither
// mode (see Session.afterCreate and Pool.Collect).
type gcLock struct {
	mu sync.RWMutex
}

// Guard releases a lock acquisition exactly once.
type Guard struct {
	release func()
}

// Release releases the underlying lock mode. Safe to call more than once.
func (g *Guard) Release() {
	if g.release != nil {
		g.release()
		g.release = nil
	}
}

// Shared acquires the lock in shared mode, blocking only while the
// collector holds exclusive mode.
func (l *gcLock) Shared() *Guard {
	l.mu.RLock()
	return &Guard{release: l.mu.RUnlock}
}

// Exclusive acquires the lock in exclusive mode, blocking until every
// shared holder has released.
func (l *gcLock) Exclusive() *Guard {
	l.mu.Lock()
	return &Guard{release: l.mu.Unlock}
}
