package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radiosim/radiosim/sim/scenario"
)

func TestDefaultScenario_RoundTripsAndBuilds(t *testing.T) {
	// GIVEN the emitted starter scenario
	var buf bytes.Buffer
	require.NoError(t, writeDefaultScenario(&buf))

	// WHEN parsed back with strict field checking
	sc, err := scenario.Parse(buf.Bytes())
	require.NoError(t, err)

	// THEN it validates and builds a runnable simulator
	require.NoError(t, sc.Validate())
	horizon := int64(2_000_000)
	rt, err := scenario.Build(sc, scenario.BuildOptions{HorizonUs: &horizon})
	require.NoError(t, err)
	assert.Equal(t, len(DefaultScenario().Radios), rt.Simulator.Registry().Len())
	rt.Run()
	assert.Greater(t, rt.Simulator.Metrics().Transmissions, 0)
}
