package pool

import (
	"sync"
	"sync/atomic"

	"golang.org/x/text/unicode/norm"
)

// Symbol is an interned function symbol. Two Intern calls with the same
// (name, arity) key return the same *Symbol, so symbol equality is pointer
// equality. The pointer is stable between creation and reclamation.
//
// A symbol's refcount is adjusted atomically by Protect/Release. Dropping
// the count to zero does not free the record; a refcount-zero symbol that
// is also unreferenced by any live term is reclaimed at the next sweep.
type Symbol struct {
	name  string
	arity int
	id    uint64

	refs atomic.Int64
	mark atomic.Uint32 // epoch stamp, see marker.go
}

// Name returns the symbol's name.
func (s *Symbol) Name() string { return s.name }

// Arity returns the number of arguments applications of this symbol carry.
// Arity is fixed at creation and never mutated.
func (s *Symbol) Arity() int { return s.arity }

type symbolKey struct {
	name  string
	arity int
}

// symbolTable interns (name, arity) pairs. Creation happens under the
// pool's shared lock plus the table's own mutex; removal happens only
// during a sweep under the exclusive lock.
type symbolTable struct {
	mu      sync.Mutex
	symbols map[symbolKey]*Symbol
	nextID  atomic.Uint64
}

func newSymbolTable() *symbolTable {
	return &symbolTable{symbols: make(map[symbolKey]*Symbol)}
}

// intern returns the canonical symbol for (name, arity), creating it if
// absent, and increments its refcount. Names are NFC-normalized so that
// canonically-equal spellings resolve to one record.
func (t *symbolTable) intern(name string, arity int) *Symbol {
	key := symbolKey{name: norm.NFC.String(name), arity: arity}

	t.mu.Lock()
	sym, ok := t.symbols[key]
	if !ok {
		sym = &Symbol{name: key.name, arity: arity, id: t.nextID.Add(1)}
		t.symbols[key] = sym
	}
	t.mu.Unlock()

	sym.refs.Add(1)
	return sym
}

// len returns the number of interned symbols.
func (t *symbolTable) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.symbols)
}

// sweep removes every symbol that is unmarked and has refcount zero.
// Caller holds the exclusive lock. Returns the number reclaimed.
func (t *symbolTable) sweep(epoch uint32) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	swept := 0
	for key, sym := range t.symbols {
		if sym.mark.Load() != epoch && sym.refs.Load() <= 0 {
			delete(t.symbols, key)
			swept++
		}
	}
	return swept
}

// roots marks every symbol with a positive refcount. Caller holds the
// exclusive lock.
func (t *symbolTable) roots(m *Marker) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, sym := range t.symbols {
		if sym.refs.Load() > 0 {
			m.MarkSymbol(sym)
		}
	}
}
