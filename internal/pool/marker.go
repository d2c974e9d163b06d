package pool

// Marker seeds and drives the reachability trace of a collection cycle.
// Root providers push the references they hold; the collector then drains
// the stack iteratively, so traversal depth is bounded by memory rather
// than the call stack (deep lists must not overflow).
//
// A Marker is owned by the collector for the duration of one cycle and
// must not be retained beyond the MarkRoots call it is passed to.
type Marker struct {
	epoch uint32
	terms []*Term
	syms  []*Symbol
}

// MarkTerm records a term as reachable. Marking nil or an already-marked
// term is a no-op.
func (m *Marker) MarkTerm(t *Term) {
	if t != nil && t.mark.Load() != m.epoch {
		m.terms = append(m.terms, t)
	}
}

// MarkSymbol records a symbol as reachable.
func (m *Marker) MarkSymbol(s *Symbol) {
	if s != nil && s.mark.Load() != m.epoch {
		m.syms = append(m.syms, s)
	}
}

// drain traces reachability from everything pushed so far: pop a term,
// stamp it, push its immediate children (arguments, list head and tail,
// head symbol), repeat until both stacks are empty.
func (m *Marker) drain() {
	for len(m.terms) > 0 || len(m.syms) > 0 {
		if n := len(m.syms); n > 0 {
			s := m.syms[n-1]
			m.syms = m.syms[:n-1]
			s.mark.Store(m.epoch)
			continue
		}

		n := len(m.terms)
		t := m.terms[n-1]
		m.terms = m.terms[:n-1]
		if t.mark.Load() == m.epoch {
			continue
		}
		t.mark.Store(m.epoch)

		if t.sym != nil {
			m.MarkSymbol(t.sym)
		}
		for _, arg := range t.args {
			m.MarkTerm(arg)
		}
	}
}
