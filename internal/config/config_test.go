package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFullPolicy(t *testing.T) {
	c, err := Load(filepath.Join("testdata", "policy.cue"))
	require.NoError(t, err)

	assert.Equal(t, 500, c.CollectFloor)
	assert.Equal(t, 1.5, c.GrowthFactor)
	assert.Equal(t, 64, c.CreationInterval)
	assert.Equal(t, 8, c.Shards)
	assert.False(t, c.AutoCollect)
}

func TestParseAppliesDefaults(t *testing.T) {
	c, err := Parse([]byte(`collect_floor: 250`), "inline.cue")
	require.NoError(t, err)

	assert.Equal(t, 250, c.CollectFloor)
	assert.Equal(t, 2.0, c.GrowthFactor, "omitted fields take schema defaults")
	assert.Equal(t, 1000, c.CreationInterval)
	assert.Equal(t, 16, c.Shards)
	assert.True(t, c.AutoCollect)
}

func TestParseEmptyUsesAllDefaults(t *testing.T) {
	c, err := Parse([]byte(``), "inline.cue")
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestParseRejectsOutOfRangeValues(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"zero floor", `collect_floor: 0`},
		{"shrinking growth factor", `growth_factor: 0.5`},
		{"negative interval", `creation_interval: -1`},
		{"zero shards", `shards: 0`},
		{"wrong type", `auto_collect: "yes"`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.src), "inline.cue")
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "does-not-exist.cue"))
	assert.Error(t, err)
}

func TestOptionsRoundTrip(t *testing.T) {
	c := Default()
	c.CollectFloor = 123

	policy := c.Policy()
	assert.Equal(t, 123, policy.CollectFloor)
	assert.Len(t, c.Options(), 2)
}
