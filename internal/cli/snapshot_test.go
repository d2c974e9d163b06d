package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotCommand_SaveLoadRoundTrip(t *testing.T) {
	db := filepath.Join(t.TempDir(), "terms.db")

	out, err := execute(t, "snapshot", "save", "--db", db, "--name", "rules", `pair("x",[f(1,2),g(a)])`)
	require.NoError(t, err)
	assert.Contains(t, out, `rules: pair("x",[f(1,2),g(a)])`)

	out, err = execute(t, "snapshot", "load", "--db", db, "--name", "rules")
	require.NoError(t, err)
	assert.Contains(t, out, `rules: pair("x",[f(1,2),g(a)])`)
}

func TestSnapshotCommand_LoadMissing(t *testing.T) {
	db := filepath.Join(t.TempDir(), "terms.db")

	_, err := execute(t, "snapshot", "load", "--db", db, "--name", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load snapshot")
}

func TestSnapshotCommand_RequiresFlags(t *testing.T) {
	_, err := execute(t, "snapshot", "save", "f(1)")
	require.Error(t, err)
}

func TestSnapshotCommand_SaveParseError(t *testing.T) {
	db := filepath.Join(t.TempDir(), "terms.db")

	_, err := execute(t, "snapshot", "save", "--db", db, "--name", "bad", "f(")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}
