package pool

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Session is the producer-facing front end of a pool. Every term a
// session creates (or explicitly protects) is held in the session's
// protection set, which is registered with the collector as a root
// provider; the terms therefore survive collection until released or
// until the session is closed.
//
// A session may be shared between goroutines, but the intended shape is
// one session per producer, mirroring the pool's per-thread ancestry.
// Creation acquires the pool lock in shared mode, so sessions on
// different goroutines create terms concurrently.
//
// A closed session accepts no further operations: constructors that
// return an error fail with SESSION_CLOSED, the rest panic. A term
// created through a closed session would have no root and its record
// could be reclaimed and rewritten under the caller, so this is a
// contract violation, not a recoverable condition.
type Session struct {
	pool *Pool
	id   string
	reg  *Registration

	mu      sync.Mutex
	terms   map[*Term]int   // protection refcounts
	symbols map[*Symbol]int // refs to give back on Close
	closed  bool

	// credit counts fresh insertions until the next occupancy check.
	credit int
}

// NewSession opens a session on the pool. Callers must Close it on all
// exit paths; an unclosed session pins every term it ever created.
func (p *Pool) NewSession() *Session {
	s := &Session{
		pool:    p,
		id:      uuid.NewString(),
		terms:   make(map[*Term]int),
		symbols: make(map[*Symbol]int),
		credit:  p.policy.CreationInterval,
	}
	s.reg = p.registry.add(s)

	slog.Debug("session opened", "session", s.id)
	return s
}

// ID returns the session's diagnostic identifier.
func (s *Session) ID() string { return s.id }

// Close releases every term and symbol the session protects and
// deregisters its protection set. Idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	syms := s.symbols
	s.terms = nil
	s.symbols = nil
	s.mu.Unlock()

	for sym, n := range syms {
		sym.refs.Add(int64(-n))
	}
	s.reg.Close()

	slog.Debug("session closed", "session", s.id)
}

// checkOpen reports closure as a SESSION_CLOSED error.
func (s *Session) checkOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return sessionClosed()
	}
	return nil
}

// mustBeOpen panics on a closed session.
func (s *Session) mustBeOpen() {
	if err := s.checkOpen(); err != nil {
		panic(err)
	}
}

// MarkRoots implements RootProvider over the session's protection set.
func (s *Session) MarkRoots(m *Marker) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for t := range s.terms {
		m.MarkTerm(t)
	}
	return nil
}

// RootCount implements RootProvider.
func (s *Session) RootCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.terms)
}

// InternSymbol returns the canonical symbol for (name, arity), creating
// it if absent. The symbol's refcount is incremented; the session gives
// the reference back on Close, or earlier via ReleaseSymbol. Panics on a
// closed session.
func (s *Session) InternSymbol(name string, arity int) *Symbol {
	guard := s.pool.lock.Shared()
	defer guard.Release()

	sym := s.pool.symbols.intern(name, arity)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		// Give the intern reference straight back; a reference the
		// session cannot record on Close would pin the symbol forever.
		sym.refs.Add(-1)
		panic(sessionClosed())
	}
	s.symbols[sym]++
	s.mu.Unlock()
	return sym
}

// ReleaseSymbol gives back one of the session's references to sym before
// Close would.
func (s *Session) ReleaseSymbol(sym *Symbol) {
	s.mu.Lock()
	if s.closed || s.symbols[sym] == 0 {
		s.mu.Unlock()
		return
	}
	s.symbols[sym]--
	if s.symbols[sym] == 0 {
		delete(s.symbols, sym)
	}
	s.mu.Unlock()

	sym.refs.Add(-1)
}

// MakeApplication hash-conses sym applied to args. len(args) must equal
// the symbol's arity; otherwise the call fails with ARITY_MISMATCH and no
// term is created. Fails with SESSION_CLOSED on a closed session.
func (s *Session) MakeApplication(sym *Symbol, args ...*Term) (*Term, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	guard := s.pool.lock.Shared()
	defer guard.Release()

	t, inserted, err := s.pool.internApplication(sym, args)
	if err != nil {
		return nil, err
	}
	s.retain(t)
	guard.Release()

	s.afterCreate(inserted)
	return t, nil
}

// MakeConstant hash-conses an application of a zero-arity symbol interned
// from name.
func (s *Session) MakeConstant(name string) *Term {
	sym := s.InternSymbol(name, 0)
	t, err := s.MakeApplication(sym)
	if err != nil {
		// A zero-arity symbol always matches zero args; the only error
		// left is closed-session misuse, which panics like the other
		// plain constructors.
		panic(err)
	}
	return t
}

// MakeListCons hash-conses the list cell [head | tail]. Panics on a
// closed session.
func (s *Session) MakeListCons(head, tail *Term) *Term {
	s.mustBeOpen()

	guard := s.pool.lock.Shared()
	defer guard.Release()

	t, inserted := s.pool.internList(head, tail)
	s.retain(t)
	guard.Release()

	s.afterCreate(inserted)
	return t
}

// MakeList hash-conses a proper list of the given elements.
func (s *Session) MakeList(elems ...*Term) *Term {
	s.mustBeOpen()

	t := s.pool.emptyList
	for i := len(elems) - 1; i >= 0; i-- {
		t = s.MakeListCons(elems[i], t)
	}
	return t
}

// EmptyList returns the pool's empty-list sentinel.
func (s *Session) EmptyList() *Term { return s.pool.emptyList }

// MakeInt hash-conses an integer leaf. Panics on a closed session.
func (s *Session) MakeInt(v int64) *Term {
	s.mustBeOpen()

	guard := s.pool.lock.Shared()
	defer guard.Release()

	t, inserted := s.pool.internInt(v)
	s.retain(t)
	guard.Release()

	s.afterCreate(inserted)
	return t
}

// MakeString hash-conses a string leaf. Panics on a closed session.
func (s *Session) MakeString(text string) *Term {
	s.mustBeOpen()

	guard := s.pool.lock.Shared()
	defer guard.Release()

	t, inserted := s.pool.internString(text)
	s.retain(t)
	guard.Release()

	s.afterCreate(inserted)
	return t
}

// Protect adds a protection reference for a term obtained elsewhere (an
// Argument of a rooted term, a term handed over by another session). The
// term must be live at the time of the call. Panics on a closed session.
func (s *Session) Protect(t *Term) {
	s.mustBeOpen()

	guard := s.pool.lock.Shared()
	defer guard.Release()
	s.retain(t)
}

// Release drops one protection reference. A term whose references reach
// zero in every session, and which no root provider or live term reaches,
// is reclaimed by the next collection cycle. On a closed session Release
// is a no-op: Close already released everything.
func (s *Session) Release(t *Term) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.terms[t] == 0 {
		return
	}
	s.terms[t]--
	if s.terms[t] == 0 {
		delete(s.terms, t)
	}
}

// retain records a protection reference. The empty-list sentinel is a
// permanent root and is never tracked.
//
// Callers check for closure before acquiring the shared guard; finding
// the session closed here means Close raced a creation, and the term in
// hand would be unrooted. Panic rather than hand it back.
func (s *Session) retain(t *Term) {
	if t.tag == TagEmptyList {
		return
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		panic(sessionClosed())
	}
	s.terms[t]++
	s.mu.Unlock()
}

// afterCreate burns creation credit and, when it runs out, checks the
// occupancy trigger. Called after the shared guard is released, since the
// collector needs exclusive mode.
func (s *Session) afterCreate(inserted bool) {
	if !inserted {
		return
	}
	s.mu.Lock()
	s.credit--
	due := s.credit <= 0
	if due {
		s.credit = s.pool.policy.CreationInterval
	}
	s.mu.Unlock()

	if due {
		s.pool.maybeCollect()
	}
}
