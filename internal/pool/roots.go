package pool

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// RootProvider is implemented by any external owner of term or symbol
// references that live outside session bookkeeping (terms cached in an
// external data structure, for example). The collector calls MarkRoots at
// the start of every cycle; the provider must mark every reference it
// holds, or those terms may be swept.
type RootProvider interface {
	// MarkRoots marks every term and symbol the provider holds. Returning
	// an error aborts the collection cycle before any sweep is applied.
	MarkRoots(m *Marker) error

	// RootCount returns the approximate number of references the provider
	// holds. Advisory only: the collector uses it to pre-size the mark
	// stack, so an inaccurate count costs reallocation, never correctness.
	RootCount() int
}

// Registration is the scoped handle returned by RegisterRootProvider.
// Closing it deregisters the provider; Close is idempotent and must be
// called on every exit path of the registrant.
type Registration struct {
	id       string
	registry *rootRegistry
	provider RootProvider

	once sync.Once
}

// ID returns the registration's diagnostic identifier.
func (r *Registration) ID() string { return r.id }

// Close deregisters the provider. A collection cycle already in progress
// may still observe the provider one final time.
func (r *Registration) Close() {
	r.once.Do(func() {
		r.registry.remove(r.id)
		slog.Debug("root provider deregistered", "registration", r.id)
	})
}

// rootRegistry is the process-wide set of registered root providers.
// Its mutex only guards membership; providers are invoked on a snapshot
// so registrants may Close concurrently with a running cycle.
type rootRegistry struct {
	mu        sync.Mutex
	providers map[string]*Registration
}

func newRootRegistry() *rootRegistry {
	return &rootRegistry{providers: make(map[string]*Registration)}
}

func (rr *rootRegistry) add(p RootProvider) *Registration {
	reg := &Registration{
		id:       uuid.NewString(),
		registry: rr,
		provider: p,
	}

	rr.mu.Lock()
	rr.providers[reg.id] = reg
	rr.mu.Unlock()

	slog.Debug("root provider registered", "registration", reg.id, "roots", p.RootCount())
	return reg
}

func (rr *rootRegistry) remove(id string) {
	rr.mu.Lock()
	delete(rr.providers, id)
	rr.mu.Unlock()
}

// snapshot returns the current registrations in no particular order.
func (rr *rootRegistry) snapshot() []*Registration {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	regs := make([]*Registration, 0, len(rr.providers))
	for _, reg := range rr.providers {
		regs = append(regs, reg)
	}
	return regs
}

func (rr *rootRegistry) len() int {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	return len(rr.providers)
}
