package pool

import (
	"fmt"
	"math/rand"
)

// RandomSpec describes the shape of randomly generated terms: a set of
// function symbols with their arities, a set of constant names, and the
// number of construction iterations. Later iterations draw arguments from
// earlier results, so generated terms share subterms heavily, which is
// exactly the workload hash-consing is for.
type RandomSpec struct {
	Symbols    []RandomSymbol
	Constants  []string
	Iterations int
}

// RandomSymbol is one candidate head symbol.
type RandomSymbol struct {
	Name  string
	Arity int
}

// DefaultRandomSpec returns a small generation spec used by the CLI
// benchmark and stress tests.
func DefaultRandomSpec(iterations int) RandomSpec {
	return RandomSpec{
		Symbols: []RandomSymbol{
			{Name: "f", Arity: 2},
			{Name: "g", Arity: 1},
			{Name: "h", Arity: 3},
		},
		Constants:  []string{"a", "b", "c", "d"},
		Iterations: iterations,
	}
}

// Random builds a random term through the session. The result is the term
// produced by the final iteration; every intermediate subterm stays
// protected by the session until released or closed.
func (s *Session) Random(rng *rand.Rand, spec RandomSpec) (*Term, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if len(spec.Constants) == 0 || len(spec.Symbols) == 0 || spec.Iterations <= 0 {
		return nil, fmt.Errorf("random spec needs symbols, constants and iterations")
	}

	subterms := make([]*Term, 0, len(spec.Constants)+spec.Iterations)
	for _, name := range spec.Constants {
		subterms = append(subterms, s.MakeConstant(name))
	}

	var result *Term
	for i := 0; i < spec.Iterations; i++ {
		pick := spec.Symbols[rng.Intn(len(spec.Symbols))]
		sym := s.InternSymbol(pick.Name, pick.Arity)

		args := make([]*Term, pick.Arity)
		for j := range args {
			args[j] = subterms[rng.Intn(len(subterms))]
		}

		t, err := s.MakeApplication(sym, args...)
		if err != nil {
			return nil, err
		}
		subterms = append(subterms, t)
		result = t
	}
	return result, nil
}
