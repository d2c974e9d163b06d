package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario_Valid(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/build_and_render.yaml")
	require.NoError(t, err)

	assert.Equal(t, "build_and_render", scenario.Name)
	assert.NotEmpty(t, scenario.Description)
	assert.Len(t, scenario.Steps, 6)
	assert.Len(t, scenario.Assertions, 4)

	assert.Equal(t, OpOpenSession, scenario.Steps[0].Op)
	assert.Equal(t, "s1", scenario.Steps[0].Session)
	assert.Equal(t, "f(1,2)", scenario.Steps[1].Text)
	assert.Equal(t, []string{"t1"}, scenario.Steps[3].Args)
}

func TestLoadScenario_FileNotFound(t *testing.T) {
	_, err := LoadScenario("testdata/scenarios/does_not_exist.yaml")
	assert.Error(t, err)
}

func TestLoadScenario_UnknownFieldRejected(t *testing.T) {
	path := writeScenario(t, `
name: typo
description: "unknown field"
steps:
  - op: open_session
    session: s1
assertion:
  - type: pool_size
    count: 1
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "assertion")
}

func TestLoadScenario_MissingName(t *testing.T) {
	path := writeScenario(t, `
description: "no name"
steps:
  - op: open_session
    session: s1
assertions:
  - type: pool_size
    count: 1
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
}

func TestLoadScenario_UnknownOp(t *testing.T) {
	path := writeScenario(t, `
name: bad_op
description: "unknown op"
steps:
  - op: frobnicate
    session: s1
assertions:
  - type: pool_size
    count: 1
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown op")
}

func TestLoadScenario_StepRequiresSession(t *testing.T) {
	path := writeScenario(t, `
name: no_session
description: "parse without session"
steps:
  - op: parse
    text: "f(1)"
    var: t1
assertions:
  - type: pool_size
    count: 1
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session is required")
}

func TestLoadScenario_AssertionValidation(t *testing.T) {
	cases := []struct {
		name      string
		assertion string
		want      string
	}{
		{
			name:      "unknown type",
			assertion: "  - type: trace_contains\n",
			want:      "unknown assertion type",
		},
		{
			name:      "term_text without var",
			assertion: "  - type: term_text\n    text: \"f(1)\"\n",
			want:      "var is required",
		},
		{
			name:      "identical with one var",
			assertion: "  - type: identical\n    vars: [t1]\n",
			want:      "at least two vars",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeScenario(t, `
name: bad_assertion
description: "assertion validation"
steps:
  - op: open_session
    session: s1
assertions:
`+tc.assertion)
			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}
