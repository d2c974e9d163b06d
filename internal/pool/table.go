package pool

import (
	"encoding/binary"
	"hash/fnv"
	"sync"
	"sync/atomic"
)

// defaultShards is the default number of term-table shards. Creation
// serializes only within a shard, so concurrent producers touching
// different content keys proceed in parallel under the shared lock.
const defaultShards = 16

// termTable is the hash-consing store. Terms are keyed by a content key
// over (tag, symbol identity, argument identities, scalar payload); since
// arguments are already-canonical terms, computing the key is O(arity)
// regardless of term depth.
//
// Reclaimed records go to a shared free list and are reused by later
// creations, keeping Capacity stable across collect/create cycles.
type termTable struct {
	shards []termShard

	// free is the shared free list of reclaimed records. Sweeping pushes,
	// creation pops; a record freed in one shard is reusable in any other.
	freeMu sync.Mutex
	free   []*Term

	size      atomic.Int64 // live entries across all shards
	freeCount atomic.Int64 // reclaimed records available for reuse
	nextID    atomic.Uint64
}

type termShard struct {
	mu    sync.Mutex
	terms map[string]*Term
}

func newTermTable(shards int) *termTable {
	if shards <= 0 {
		shards = defaultShards
	}
	t := &termTable{shards: make([]termShard, shards)}
	for i := range t.shards {
		t.shards[i].terms = make(map[string]*Term)
	}
	return t
}

func (tt *termTable) shard(key string) *termShard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return &tt.shards[h.Sum32()%uint32(len(tt.shards))]
}

// intern returns the canonical term for key, creating it via build if
// absent. The second result reports whether a new term was inserted.
// Caller holds the pool's shared (or exclusive) lock.
func (tt *termTable) intern(key string, build func(t *Term)) (*Term, bool) {
	s := tt.shard(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.terms[key]; ok {
		return t, false
	}

	t := tt.takeFree()
	if t == nil {
		t = &Term{}
	}

	t.key = key
	t.id = tt.nextID.Add(1)
	t.sym = nil
	t.args = nil
	t.num = 0
	t.text = ""
	build(t)

	s.terms[key] = t
	tt.size.Add(1)
	return t, true
}

// sweep removes every unmarked term, recycling its record into the free
// list. Caller holds the exclusive lock. Returns the number reclaimed.
func (tt *termTable) sweep(epoch uint32) int {
	swept := 0
	var freed []*Term
	for i := range tt.shards {
		s := &tt.shards[i]
		s.mu.Lock()
		for key, t := range s.terms {
			if t.mark.Load() == epoch {
				continue
			}
			delete(s.terms, key)
			// Drop references so reclaimed subgraphs are not pinned.
			t.sym = nil
			t.args = nil
			t.text = ""
			t.key = ""
			freed = append(freed, t)
			swept++
		}
		s.mu.Unlock()
	}

	tt.freeMu.Lock()
	tt.free = append(tt.free, freed...)
	tt.freeMu.Unlock()

	tt.freeCount.Add(int64(swept))
	tt.size.Add(int64(-swept))
	return swept
}

// takeFree pops a reclaimed record, or returns nil when none is
// available.
func (tt *termTable) takeFree() *Term {
	tt.freeMu.Lock()
	defer tt.freeMu.Unlock()

	n := len(tt.free)
	if n == 0 {
		return nil
	}
	t := tt.free[n-1]
	tt.free[n-1] = nil
	tt.free = tt.free[:n-1]
	tt.freeCount.Add(-1)
	return t
}

// Content keys. The leading byte is the tag; identities and payloads
// follow in varint encoding. Keys are compared bytewise, never decoded.

func applKey(sym *Symbol, args []*Term) string {
	buf := make([]byte, 0, 2+10*(len(args)+1))
	buf = append(buf, byte(TagApplication))
	buf = binary.AppendUvarint(buf, sym.id)
	for _, a := range args {
		buf = binary.AppendUvarint(buf, a.id)
	}
	return string(buf)
}

func listKey(head, tail *Term) string {
	buf := make([]byte, 0, 24)
	buf = append(buf, byte(TagList))
	buf = binary.AppendUvarint(buf, head.id)
	buf = binary.AppendUvarint(buf, tail.id)
	return string(buf)
}

func emptyListKey() string {
	return string([]byte{byte(TagEmptyList)})
}

func intKey(v int64) string {
	buf := make([]byte, 0, 12)
	buf = append(buf, byte(TagInt))
	buf = binary.AppendVarint(buf, v)
	return string(buf)
}

func stringKey(s string) string {
	buf := make([]byte, 0, 1+len(s))
	buf = append(buf, byte(TagString))
	buf = append(buf, s...)
	return string(buf)
}
