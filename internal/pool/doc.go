// Package pool implements a concurrent, hash-consed term pool with a
// mark-sweep collector.
//
// The pool stores symbolic terms (function applications, list cells, the
// empty-list sentinel, integer and string leaves) over interned function
// symbols. Hash-consing guarantees that no two structurally equal terms
// coexist, so structural equality between live terms reduces to pointer
// equality.
//
// Thread-safety model:
//   - Producers create terms through a Session, which acquires the pool's
//     lock in shared mode. Any number of sessions may create concurrently.
//   - Collect() acquires the lock in exclusive mode and runs a full
//     mark-sweep cycle over both the term table and the symbol table.
//   - External owners of term references register a RootProvider so the
//     collector can find references held outside session bookkeeping.
//
// INVARIANTS:
//   - No duplicate structurally-equal terms exist simultaneously.
//   - An application's argument count always equals its symbol's arity.
//   - A term reachable from a registration or a live session handle is
//     never swept.
//   - Terms are immutable after creation; only refcounts and mark stamps
//     change.
package pool
