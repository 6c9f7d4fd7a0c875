package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sextantlabs/sextant/beacon-chain/forkchoice/protoarray/scenarios"
	"github.com/sextantlabs/sextant/testing/assert"
	"github.com/sextantlabs/sextant/testing/require"
	"gopkg.in/yaml.v2"
)

func TestWriteSuite_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	def := scenarios.Votes()

	path, err := writeSuite(dir, def)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "votes.yaml"), path)

	out, err := os.ReadFile(path)
	require.NoError(t, err)
	decoded := new(scenarios.Definition)
	require.NoError(t, yaml.Unmarshal(out, decoded))
	require.DeepEqual(t, def, decoded)
}

func TestWriteSuite_AllNamesAreDistinct(t *testing.T) {
	seen := make(map[string]bool)
	for _, def := range scenarios.All() {
		require.Equal(t, false, seen[def.Name], "duplicate suite name %s", def.Name)
		seen[def.Name] = true
	}
}
