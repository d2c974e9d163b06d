package pool

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomTermIsWellFormed(t *testing.T) {
	p := New(WithAutomaticCollection(false))
	sess := p.NewSession()
	defer sess.Close()

	rng := rand.New(rand.NewSource(1))
	term, err := sess.Random(rng, DefaultRandomSpec(100))
	require.NoError(t, err)

	require.True(t, term.IsApplication())
	assert.Equal(t, term.Symbol().Arity(), term.Arity())
}

func TestRandomIsDeterministicPerSeed(t *testing.T) {
	p := New(WithAutomaticCollection(false))
	sess := p.NewSession()
	defer sess.Close()

	t1, err := sess.Random(rand.New(rand.NewSource(7)), DefaultRandomSpec(50))
	require.NoError(t, err)
	t2, err := sess.Random(rand.New(rand.NewSource(7)), DefaultRandomSpec(50))
	require.NoError(t, err)

	assert.Same(t, t1, t2, "same seed, same canonical term")
}

func TestRandomSharesSubterms(t *testing.T) {
	p := New(WithAutomaticCollection(false))
	sess := p.NewSession()
	defer sess.Close()

	_, err := sess.Random(rand.New(rand.NewSource(3)), DefaultRandomSpec(1000))
	require.NoError(t, err)

	// 1000 iterations and 4 constants, but hash-consing keeps the table
	// far smaller than the raw construction count would suggest.
	assert.Less(t, p.Size(), 1005)
}

func TestRandomRejectsEmptySpec(t *testing.T) {
	p := New(WithAutomaticCollection(false))
	sess := p.NewSession()
	defer sess.Close()

	_, err := sess.Random(rand.New(rand.NewSource(1)), RandomSpec{})
	assert.Error(t, err)
}
