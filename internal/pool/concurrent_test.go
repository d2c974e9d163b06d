package pool

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcurrentInterningYieldsOneTerm(t *testing.T) {
	const workers = 16

	p := New(WithAutomaticCollection(false))

	var (
		start   sync.WaitGroup
		done    sync.WaitGroup
		results [workers]*Term
	)
	start.Add(1)
	done.Add(workers)

	for i := 0; i < workers; i++ {
		go func(i int) {
			defer done.Done()
			sess := p.NewSession()
			defer sess.Close()

			start.Wait()
			f := sess.InternSymbol("f", 2)
			term, err := sess.MakeApplication(f, sess.MakeInt(1), sess.MakeInt(2))
			assert.NoError(t, err)
			results[i] = term
		}(i)
	}

	start.Done()
	done.Wait()

	for i := 1; i < workers; i++ {
		assert.Same(t, results[0], results[i], "all workers observe the one canonical term")
	}
	// Exactly sentinel + 1 + 2 + f(1,2).
	assert.Equal(t, 4, p.Size())
}

func TestConcurrentSymbolInterning(t *testing.T) {
	const workers = 16

	p := New(WithAutomaticCollection(false))

	var (
		done    sync.WaitGroup
		results [workers]*Symbol
	)
	done.Add(workers)

	for i := 0; i < workers; i++ {
		go func(i int) {
			defer done.Done()
			sess := p.NewSession()
			defer sess.Close()
			results[i] = sess.InternSymbol("shared", 3)
		}(i)
	}
	done.Wait()

	for i := 1; i < workers; i++ {
		assert.Same(t, results[0], results[i])
	}
	assert.Equal(t, 1, p.symbols.len())
}

func TestConcurrentCreationWithCollector(t *testing.T) {
	const workers = 8

	policy := DefaultPolicy()
	policy.CollectFloor = 64
	policy.CreationInterval = 16
	p := New(WithPolicy(policy))

	var done sync.WaitGroup
	done.Add(workers)
	for i := 0; i < workers; i++ {
		go func(seed int64) {
			defer done.Done()
			sess := p.NewSession()
			defer sess.Close()

			rng := rand.New(rand.NewSource(seed))
			term, err := sess.Random(rng, DefaultRandomSpec(500))
			if !assert.NoError(t, err) {
				return
			}

			// Everything this session built must still be reachable and
			// well-formed regardless of interleaved collection cycles.
			assert.True(t, term.IsApplication())
		}(int64(i))
	}
	done.Wait()

	require.NoError(t, p.Collect())
	assert.Equal(t, 1, p.Size(), "all sessions closed; only the sentinel survives")
}

func TestConcurrentExplicitCollects(t *testing.T) {
	p := New(WithAutomaticCollection(false))

	var done sync.WaitGroup
	done.Add(4)
	for i := 0; i < 2; i++ {
		go func(seed int64) {
			defer done.Done()
			sess := p.NewSession()
			defer sess.Close()
			rng := rand.New(rand.NewSource(seed))
			_, err := sess.Random(rng, DefaultRandomSpec(200))
			assert.NoError(t, err)
		}(int64(i))
	}
	for i := 0; i < 2; i++ {
		go func() {
			defer done.Done()
			for j := 0; j < 10; j++ {
				assert.NoError(t, p.Collect())
			}
		}()
	}
	done.Wait()
}
