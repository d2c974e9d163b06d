package pool

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseApplication(t *testing.T) {
	p := New(WithAutomaticCollection(false))
	sess := p.NewSession()
	defer sess.Close()

	term, err := sess.Parse("f(g(a),b)")
	require.NoError(t, err)

	assert.Equal(t, "f", term.Symbol().Name())
	assert.Equal(t, 2, term.Symbol().Arity())

	arg0, err := term.Argument(0)
	require.NoError(t, err)
	assert.Equal(t, "g", arg0.Symbol().Name())

	arg1, err := term.Argument(1)
	require.NoError(t, err)
	assert.Equal(t, "b", arg1.Symbol().Name())
}

func TestParseYieldsCanonicalTerms(t *testing.T) {
	p := New(WithAutomaticCollection(false))
	sess := p.NewSession()
	defer sess.Close()

	t1, err := sess.Parse("f(1,2)")
	require.NoError(t, err)

	f := sess.InternSymbol("f", 2)
	t2, err := sess.MakeApplication(f, sess.MakeInt(1), sess.MakeInt(2))
	require.NoError(t, err)

	assert.Same(t, t1, t2, "parsed and constructed terms share one record")
}

func TestParseWhitespace(t *testing.T) {
	p := New(WithAutomaticCollection(false))
	sess := p.NewSession()
	defer sess.Close()

	t1, err := sess.Parse(" f( 1 , [ 2 , 3 ] ) ")
	require.NoError(t, err)
	assert.Equal(t, "f(1,[2,3])", t1.String())
}

func TestParseLists(t *testing.T) {
	p := New(WithAutomaticCollection(false))
	sess := p.NewSession()
	defer sess.Close()

	proper, err := sess.Parse("[1,2]")
	require.NoError(t, err)
	assert.Same(t, proper, sess.MakeList(sess.MakeInt(1), sess.MakeInt(2)))

	empty, err := sess.Parse("[]")
	require.NoError(t, err)
	assert.Same(t, empty, sess.EmptyList())

	improper, err := sess.Parse("[1|x]")
	require.NoError(t, err)
	tail, err := improper.Tail()
	require.NoError(t, err)
	assert.True(t, tail.IsApplication())
}

func TestParseQuotedAtoms(t *testing.T) {
	p := New(WithAutomaticCollection(false))
	sess := p.NewSession()
	defer sess.Close()

	// A bare quoted atom is a string leaf.
	str, err := sess.Parse(`"hello"`)
	require.NoError(t, err)
	assert.True(t, str.IsString())
	assert.Equal(t, "hello", str.Text())

	// A quoted atom followed by '(' heads an application.
	appl, err := sess.Parse(`"odd name"(1)`)
	require.NoError(t, err)
	assert.True(t, appl.IsApplication())
	assert.Equal(t, "odd name", appl.Symbol().Name())
}

func TestParseDeepTermIterative(t *testing.T) {
	p := New(WithAutomaticCollection(false))
	sess := p.NewSession()
	defer sess.Close()

	// Nested applications deep enough to break a recursive parser.
	var sb strings.Builder
	const depth = 100_000
	for i := 0; i < depth; i++ {
		sb.WriteString("g(")
	}
	sb.WriteString("a")
	for i := 0; i < depth; i++ {
		sb.WriteString(")")
	}

	term, err := sess.Parse(sb.String())
	require.NoError(t, err)
	assert.Equal(t, "g", term.Symbol().Name())
}

func TestParseErrors(t *testing.T) {
	p := New(WithAutomaticCollection(false))
	sess := p.NewSession()
	defer sess.Close()

	cases := []struct {
		name  string
		input string
	}{
		{"empty input", ""},
		{"unclosed application", "f(1,2"},
		{"unclosed list", "[1,2"},
		{"bare separator", ","},
		{"trailing input", "f(1,2)x"},
		{"mismatched closer", "f(1,2]"},
		{"bar outside list", "f(1|2)"},
		{"double bar", "[1|2|3]"},
		{"bar without tail", "[1|]"},
		{"leading bar", "[|1]"},
		{"unterminated string", `"abc`},
		{"dangling minus", "-"},
		{"stray character", "f(1,2);"},
		{"empty argument list", "f()"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := sess.Parse(tc.input)
			require.Error(t, err)
			assert.True(t, IsCode(err, ErrCodeParse), "want PARSE_ERROR, got %v", err)
		})
	}
}

func TestParseIntBounds(t *testing.T) {
	p := New(WithAutomaticCollection(false))
	sess := p.NewSession()
	defer sess.Close()

	term, err := sess.Parse("9223372036854775807")
	require.NoError(t, err)
	assert.Equal(t, int64(9223372036854775807), term.Int())

	_, err = sess.Parse("9223372036854775808")
	require.Error(t, err)
	assert.True(t, IsCode(err, ErrCodeParse))
}
