package pool

import (
	"log/slog"
	"sync/atomic"
)

// Policy tunes the automatic collection heuristics. The exact occupancy
// trigger is deliberately configurable rather than a baked-in constant.
type Policy struct {
	// CollectFloor is the minimum live-term count before automatic
	// collection is considered.
	CollectFloor int

	// GrowthFactor scales the live count after a sweep to produce the next
	// trigger threshold: threshold = max(CollectFloor, GrowthFactor*live).
	// The factor provides hysteresis so back-to-back cycles cannot thrash.
	GrowthFactor float64

	// CreationInterval is the number of fresh insertions a session performs
	// between occupancy checks. Checks are cheap but not free; the interval
	// keeps them off the per-creation fast path.
	CreationInterval int

	// Shards is the number of term-table shards. Zero means the default.
	Shards int
}

// DefaultPolicy returns the default collection policy.
func DefaultPolicy() Policy {
	return Policy{
		CollectFloor:     1000,
		GrowthFactor:     2.0,
		CreationInterval: 1000,
		Shards:           defaultShards,
	}
}

// Option configures a Pool.
type Option func(*Pool)

// WithPolicy sets the collection policy. Zero fields fall back to the
// defaults.
func WithPolicy(policy Policy) Option {
	return func(p *Pool) {
		def := DefaultPolicy()
		if policy.CollectFloor <= 0 {
			policy.CollectFloor = def.CollectFloor
		}
		if policy.GrowthFactor <= 1 {
			policy.GrowthFactor = def.GrowthFactor
		}
		if policy.CreationInterval <= 0 {
			policy.CreationInterval = def.CreationInterval
		}
		if policy.Shards <= 0 {
			policy.Shards = def.Shards
		}
		p.policy = policy
	}
}

// WithAutomaticCollection sets the initial automatic-collection flag.
// The default is enabled.
func WithAutomaticCollection(enabled bool) Option {
	return func(p *Pool) {
		p.auto.Store(enabled)
	}
}

// Pool is the process-wide term pool: the symbol table, the hash-consing
// term store, the global shared/exclusive lock, the root registry, and
// the collector. Construct one with New and inject it into whatever needs
// terms; producers go through sessions (see NewSession).
type Pool struct {
	lock     gcLock
	symbols  *symbolTable
	terms    *termTable
	registry *rootRegistry

	emptyList *Term

	policy    Policy
	auto      atomic.Bool
	threshold atomic.Int64

	// epoch is the mark stamp of the current cycle. Only the collector
	// writes it, under the exclusive lock.
	epoch uint32

	collections      atomic.Uint64
	sweptTerms       atomic.Uint64
	sweptSymbols     atomic.Uint64
	providerFailures atomic.Uint64
}

// New creates an empty pool containing only the empty-list sentinel.
func New(opts ...Option) *Pool {
	p := &Pool{
		symbols:  newSymbolTable(),
		registry: newRootRegistry(),
		policy:   DefaultPolicy(),
	}
	p.auto.Store(true)

	for _, opt := range opts {
		opt(p)
	}

	p.terms = newTermTable(p.policy.Shards)
	p.threshold.Store(int64(p.policy.CollectFloor))

	p.emptyList, _ = p.terms.intern(emptyListKey(), func(t *Term) {
		t.tag = TagEmptyList
	})
	return p
}

// EmptyList returns the unique empty-list sentinel. Every call returns
// the same term; the sentinel is a permanent root and is never swept.
func (p *Pool) EmptyList() *Term { return p.emptyList }

// ProtectSymbol atomically increments the symbol's refcount, keeping it
// alive across sweeps.
func (p *Pool) ProtectSymbol(s *Symbol) {
	s.refs.Add(1)
}

// ReleaseSymbol atomically decrements the symbol's refcount. Dropping to
// zero does not free the record; it becomes collectible at the next
// sweep. Releasing below zero is a contract violation.
func (p *Pool) ReleaseSymbol(s *Symbol) {
	s.refs.Add(-1)
}

// RegisterRootProvider adds the provider to the process-wide root
// registry. The returned registration deregisters the provider when
// closed; registrants must close it on all exit paths.
func (p *Pool) RegisterRootProvider(provider RootProvider) *Registration {
	return p.registry.add(provider)
}

// SetAutomaticCollection toggles opportunistic collection. When enabled,
// pool growth past the policy threshold triggers a cycle at the next safe
// point; when disabled, collection happens only on explicit Collect.
func (p *Pool) SetAutomaticCollection(enabled bool) {
	p.auto.Store(enabled)
}

// AutomaticCollection reports whether automatic collection is enabled.
func (p *Pool) AutomaticCollection() bool {
	return p.auto.Load()
}

// Collect runs one full mark-sweep cycle. It blocks until every shared
// holder has drained, traces reachability from the root registry and all
// refcounted symbols, then sweeps unmarked entries from both tables.
//
// A root provider failure aborts the cycle before any sweep: the pool is
// left unchanged, the exclusive lock is released, and the error is
// returned wrapped with code ROOT_PROVIDER_FAILED.
func (p *Pool) Collect() error {
	guard := p.lock.Exclusive()
	defer guard.Release()
	return p.collectLocked()
}

// collectLocked runs the cycle body. Caller holds the exclusive lock.
func (p *Pool) collectLocked() error {
	p.epoch++

	// RootCount is advisory; it sizes the seed stack, nothing more.
	regs := p.registry.snapshot()
	roots := 1
	for _, reg := range regs {
		roots += reg.provider.RootCount()
	}
	if roots < 1 {
		roots = 1
	}
	m := &Marker{epoch: p.epoch, terms: make([]*Term, 0, roots)}

	// Builtin roots survive unconditionally.
	m.MarkTerm(p.emptyList)
	p.symbols.roots(m)

	for _, reg := range regs {
		if err := reg.provider.MarkRoots(m); err != nil {
			p.providerFailures.Add(1)
			slog.Warn("collection cycle aborted", "registration", reg.id, "error", err)
			return &Error{
				Code:    ErrCodeRootProviderFailed,
				Message: "root provider failed; cycle aborted",
				Err:     err,
			}
		}
	}

	m.drain()

	sweptTerms := p.terms.sweep(p.epoch)
	sweptSymbols := p.symbols.sweep(p.epoch)

	live := p.terms.size.Load()
	threshold := int64(float64(live) * p.policy.GrowthFactor)
	if floor := int64(p.policy.CollectFloor); threshold < floor {
		threshold = floor
	}
	p.threshold.Store(threshold)

	p.collections.Add(1)
	p.sweptTerms.Add(uint64(sweptTerms))
	p.sweptSymbols.Add(uint64(sweptSymbols))

	slog.Debug("collection cycle complete",
		"swept_terms", sweptTerms,
		"swept_symbols", sweptSymbols,
		"live", live,
		"next_threshold", threshold,
	)
	return nil
}

// maybeCollect runs a cycle if automatic collection is enabled and pool
// occupancy has crossed the policy threshold. Callers must hold neither
// lock mode.
func (p *Pool) maybeCollect() {
	if !p.auto.Load() || p.terms.size.Load() < p.threshold.Load() {
		return
	}
	if err := p.Collect(); err != nil {
		slog.Warn("automatic collection failed", "error", err)
	}
}

// internApplication hash-conses an application term. Caller holds the
// shared lock.
func (p *Pool) internApplication(sym *Symbol, args []*Term) (*Term, bool, error) {
	if len(args) != sym.arity {
		return nil, false, arityMismatch(sym.name, sym.arity, len(args))
	}

	// Copy so later caller mutation of the slice cannot reach the term.
	own := make([]*Term, len(args))
	copy(own, args)

	t, inserted := p.terms.intern(applKey(sym, own), func(t *Term) {
		t.tag = TagApplication
		t.sym = sym
		t.args = own
	})
	return t, inserted, nil
}

// internList hash-conses a list cons cell. Caller holds the shared lock.
func (p *Pool) internList(head, tail *Term) (*Term, bool) {
	return p.terms.intern(listKey(head, tail), func(t *Term) {
		t.tag = TagList
		t.args = []*Term{head, tail}
	})
}

// internInt hash-conses an integer leaf. Caller holds the shared lock.
func (p *Pool) internInt(v int64) (*Term, bool) {
	return p.terms.intern(intKey(v), func(t *Term) {
		t.tag = TagInt
		t.num = v
	})
}

// internString hash-conses a string leaf. Caller holds the shared lock.
func (p *Pool) internString(s string) (*Term, bool) {
	return p.terms.intern(stringKey(s), func(t *Term) {
		t.tag = TagString
		t.text = s
	})
}
