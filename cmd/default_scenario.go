package cmd

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/radiosim/radiosim/sim"
	"github.com/radiosim/radiosim/sim/scenario"
)

// DefaultScenario returns a small starter network: two gateways, a ring
// of sensors around them and one directed link overriding distance.
func DefaultScenario() *scenario.Scenario {
	ch := 26
	traffic := &sim.TrafficConfig{Process: "poisson", IntervalUs: 500_000, AirtimeUs: 4_000}
	sc := &scenario.Scenario{
		Version:   "1",
		Seed:      42,
		HorizonUs: 60_000_000,
		Gateway:   scenario.GatewaySpec{MaxID: 2},
		Trace:     "connections",
	}
	sc.Radios = append(sc.Radios,
		scenario.RadioSpec{ID: 0, Position: sim.Position{X: 0, Y: 0}, Channel: &ch},
		scenario.RadioSpec{ID: 1, Position: sim.Position{X: 50, Y: 0}, Channel: &ch},
	)
	offsets := []sim.Position{{X: 4, Y: 0}, {X: 0, Y: 6}, {X: -5, Y: 3}, {X: 3, Y: -7}}
	for i, off := range offsets {
		sc.Radios = append(sc.Radios, scenario.RadioSpec{
			ID:       i + 2,
			Position: off,
			Channel:  &ch,
			Traffic:  traffic,
		})
	}
	sc.Links = []sim.Link{{Src: 5, Dst: 1, Channel: sim.ChannelAny, Ratio: 0.9, RSSI: -80, LQI: 105}}
	return sc
}

func writeDefaultScenario(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(DefaultScenario()); err != nil {
		return fmt.Errorf("encode scenario: %w", err)
	}
	return enc.Close()
}

// defaultScenarioCmd prints a starter scenario
var defaultScenarioCmd = &cobra.Command{
	Use:   "default-scenario",
	Short: "Print a starter scenario YAML",
	Run: func(cmd *cobra.Command, args []string) {
		if err := writeDefaultScenario(cmd.OutOrStdout()); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(defaultScenarioCmd)
}
