package scenarios

import (
	"context"
	"testing"

	"github.com/sextantlabs/sextant/testing/assert"
	"github.com/sextantlabs/sextant/testing/require"
	"gopkg.in/yaml.v2"
)

func TestSuites_Run(t *testing.T) {
	for _, def := range All() {
		def := def
		t.Run(def.Name, func(t *testing.T) {
			require.NoError(t, def.Run(context.Background()))
		})
	}
}

func TestDefinition_YAMLRoundTrip(t *testing.T) {
	for _, def := range All() {
		def := def
		t.Run(def.Name, func(t *testing.T) {
			out, err := yaml.Marshal(def)
			require.NoError(t, err)

			decoded := new(Definition)
			require.NoError(t, yaml.Unmarshal(out, decoded))
			require.DeepEqual(t, def, decoded)

			// The decoded vector drives the engine just as well.
			require.NoError(t, decoded.Run(context.Background()))
		})
	}
}

func TestRoot_YAML(t *testing.T) {
	r := getRoot(41)
	out, err := yaml.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, "\"0x000000000000000000000000000000000000000000000000000000000000002a\"\n", string(out))

	var decoded Root
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	assert.Equal(t, r, decoded)
}

func TestRun_RejectsUnknownOperation(t *testing.T) {
	def := &Definition{
		Name:                "bogus",
		JustifiedCheckpoint: *checkpointAt(1, 0),
		FinalizedCheckpoint: *checkpointAt(1, 0),
		Operations:          []*Operation{{Op: "warp_time"}},
	}
	require.ErrorContains(t, "unknown operation", def.Run(context.Background()))
}
