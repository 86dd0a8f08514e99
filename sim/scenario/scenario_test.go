package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radiosim/radiosim/sim"
	"github.com/radiosim/radiosim/sim/trace"
)

const fullScenario = `
version: "1"
seed: 3
horizon_us: 1000000
propagation:
  transmit_range: 20
radios:
  - id: 1
    position: {x: 0, y: 0}
    channel: 26
    traffic: {process: constant, interval_us: 100000, airtime_us: 2000}
  - id: 2
    position: {x: 5, y: 0}
    channel: 26
  - id: 3
    position: {x: 500, y: 0, z: 2}
    powered: false
    base_rssi: -90
links:
  - {src: 1, dst: 3, channel: -1, ratio: 1, rssi: -60, lqi: 110}
  - {src: 1, dst: 9, channel: -1, ratio: 1, rssi: -60, lqi: 110}
links_file: links.csv
mobility:
  file: positions.dat
  wrap: false
events:
  - {at_us: 500000, kind: "on", radio: 3}
  - {at_us: 600000, kind: channel, radio: 2, channel: 11}
  - {at_us: 700000, kind: add, radio: 9, position: {x: 1, y: 1}}
  - {at_us: 800000, kind: remove_link, radio: 0, link: {src: 2, dst: 1, channel: -1}}
`

// writeScenario lays out a scenario with its companion files in one dir.
func writeScenario(t *testing.T, body string, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAndBuild_FullScenario(t *testing.T) {
	// GIVEN a scenario with links, a link file, mobility and events
	path := writeScenario(t, fullScenario, map[string]string{
		"links.csv":     "src,dst,channel,ratio,rssi,lqi\n2,1,-1,0.7,-75,90\n",
		"positions.dat": "# idx t x y\n0 0.1 2 0\n",
	})
	sc, err := Load(path)
	require.NoError(t, err)

	// WHEN built
	rt, err := Build(sc, BuildOptions{})
	require.NoError(t, err)
	s := rt.Simulator

	// THEN radios, parameters and links reflect the file
	assert.Equal(t, 3, s.Registry().Len())
	assert.Equal(t, 20.0, s.Medium().Params().TransmitRange)
	assert.Equal(t, 20.0, s.Medium().Params().InterferenceRange)
	r3, ok := s.Registry().Radio(3)
	require.True(t, ok)
	assert.False(t, r3.IsOn())
	assert.Equal(t, -90.0, r3.BaseRSSI())
	assert.Equal(t, 2.0, r3.Position().Z)
	assert.Len(t, s.Medium().Links().Links(), 2)
	require.Len(t, rt.Editor.Pending(), 1)
	require.NotNil(t, rt.Player)

	// WHEN run to the horizon
	rt.Run()

	// THEN events, mobility and traffic all took effect
	assert.True(t, r3.IsOn())
	r2, _ := s.Registry().Radio(2)
	assert.Equal(t, 11, r2.Channel())
	_, ok = s.Registry().Radio(9)
	assert.True(t, ok)
	assert.Empty(t, rt.Editor.Pending())
	_, ok = s.Medium().Links().Link(1, 9, sim.ChannelAny)
	assert.True(t, ok)
	_, ok = s.Medium().Links().Link(2, 1, sim.ChannelAny)
	assert.False(t, ok)
	r1, _ := s.Registry().Radio(1)
	assert.Equal(t, 2.0, r1.Position().X)
	assert.Equal(t, 1, rt.Player.Applied())
	assert.Equal(t, 11, s.Metrics().Transmissions)
}

func TestBuild_OptionsOverrideScenario(t *testing.T) {
	sc, err := Parse([]byte("seed: 1\nhorizon_us: 50\nradios:\n  - {id: 0, position: {x: 0, y: 0}}\n"))
	require.NoError(t, err)
	seed, horizon := int64(77), int64(9000)

	rt, err := Build(sc, BuildOptions{Seed: &seed, HorizonUs: &horizon, TraceLevel: trace.TraceLevelConnections})
	require.NoError(t, err)

	assert.Equal(t, sim.SimulationKey(77), rt.Simulator.RNG().Key())
	assert.Equal(t, int64(9000), rt.Simulator.Horizon())
	assert.NotNil(t, rt.Simulator.Trace())
	assert.Nil(t, rt.Player)
}

func TestBuild_GatewayThreshold(t *testing.T) {
	sc, err := Parse([]byte(`
gateway: {max_id: 2}
radios:
  - {id: 0, position: {x: 0, y: 0}}
  - {id: 1, position: {x: 900, y: 0}}
`))
	require.NoError(t, err)

	rt, err := Build(sc, BuildOptions{})
	require.NoError(t, err)

	r0, _ := rt.Simulator.Registry().Radio(0)
	r1, _ := rt.Simulator.Registry().Radio(1)
	assert.True(t, rt.Simulator.Medium().IsGateway(r0, r1))
}

func TestBuild_MissingLinksFile(t *testing.T) {
	path := writeScenario(t, "links_file: absent.csv\n", nil)
	sc, err := Load(path)
	require.NoError(t, err)

	_, err = Build(sc, BuildOptions{})
	assert.Error(t, err)
}

func TestParse_RejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("radioz: []\n"))
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestScenario_Params_Overrides(t *testing.T) {
	sc, err := Parse([]byte("propagation:\n  transmit_range: 30\n  interference_range: 45\n  co_channel_rejection: -6\n"))
	require.NoError(t, err)

	p := sc.Params()

	assert.Equal(t, 30.0, p.TransmitRange)
	assert.Equal(t, 45.0, p.InterferenceRange)
	assert.Equal(t, -6.0, p.CoChannelRejection)
	assert.Equal(t, sim.DefaultParams().MinRSSI, p.MinRSSI)
}

func TestScenario_Validate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad version", "version: \"2\"\n"},
		{"negative horizon", "horizon_us: -1\n"},
		{"bad propagation", "propagation: {transmit_range: 0}\n"},
		{"negative gateway", "gateway: {max_id: -1}\n"},
		{"bad trace", "trace: decisions\n"},
		{"duplicate radio", "radios:\n  - {id: 1}\n  - {id: 1}\n"},
		{"bad radio channel", "radios:\n  - {id: 1, channel: -4}\n"},
		{"bad traffic", "radios:\n  - {id: 1, traffic: {process: burst}}\n"},
		{"self link", "links:\n  - {src: 1, dst: 1, ratio: 1}\n"},
		{"mobility without file", "mobility: {wrap: true}\n"},
		{"unknown event", "events:\n  - {at_us: 1, kind: explode, radio: 1}\n"},
		{"negative event time", "events:\n  - {at_us: -1, kind: \"off\", radio: 1}\n"},
		{"channel event without channel", "events:\n  - {at_us: 1, kind: channel, radio: 1}\n"},
		{"base_rssi event without value", "events:\n  - {at_us: 1, kind: base_rssi, radio: 1}\n"},
		{"set_link without link", "events:\n  - {at_us: 1, kind: set_link}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc, err := Parse([]byte(tt.yaml))
			require.NoError(t, err)
			assert.Error(t, sc.Validate())
		})
	}
}

func TestScenario_Validate_AcceptsMinimal(t *testing.T) {
	sc, err := Parse([]byte("radios:\n  - {id: 0}\n"))
	require.NoError(t, err)
	assert.NoError(t, sc.Validate())
}

func TestBuild_ActionOnMissingRadioWarnsAndContinues(t *testing.T) {
	sc, err := Parse([]byte(`
radios:
  - {id: 0, position: {x: 0, y: 0}}
events:
  - {at_us: 10, kind: "off", radio: 42}
  - {at_us: 20, kind: "off", radio: 0}
  - {at_us: 30, kind: remove, radio: 0}
`))
	require.NoError(t, err)
	rt, err := Build(sc, BuildOptions{})
	require.NoError(t, err)

	rt.Run()

	assert.Equal(t, 0, rt.Simulator.Registry().Len())
	assert.Equal(t, int64(30), rt.Simulator.Clock())
}
