package cmd

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/radiosim/radiosim/sim"
)

var (
	prrMin      float64 // Lowest RSSI in the table
	prrMax      float64 // Highest RSSI in the table
	prrStep     float64 // Table increment
	prrDistance bool    // Tabulate over distance instead of RSSI
)

// printPRRTable writes PRR for RSSI values from lo to hi inclusive.
func printPRRTable(w io.Writer, p sim.Params, lo, hi, step float64) error {
	if step <= 0 {
		return fmt.Errorf("step must be positive, got %g", step)
	}
	if hi < lo {
		return fmt.Errorf("max %g is below min %g", hi, lo)
	}
	fmt.Fprintf(w, "%-10s %-8s\n", "rssi_dbm", "prr")
	for i := 0; ; i++ {
		rssi := lo + float64(i)*step
		if rssi > hi+1e-9 {
			break
		}
		fmt.Fprintf(w, "%-10.2f %-8.6f\n", rssi, p.PRR(rssi))
	}
	return nil
}

// printDistanceTable writes mean RSSI and PRR for distances from lo to hi.
func printDistanceTable(w io.Writer, p sim.Params, lo, hi, step float64) error {
	if step <= 0 {
		return fmt.Errorf("step must be positive, got %g", step)
	}
	if lo < 0 || hi < lo {
		return fmt.Errorf("invalid distance range [%g, %g]", lo, hi)
	}
	fmt.Fprintf(w, "%-10s %-10s %-8s\n", "distance", "mean_rssi", "prr")
	for i := 0; ; i++ {
		d := lo + float64(i)*step
		if d > hi+1e-9 {
			break
		}
		fmt.Fprintf(w, "%-10.2f %-10.2f %-8.6f\n", d, p.MeanRSSI(d), p.SuccessProbability(d))
	}
	return nil
}

// prrCmd prints the reception curve of the default propagation model
var prrCmd = &cobra.Command{
	Use:   "prr",
	Short: "Print the packet reception ratio curve",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		p := sim.DefaultParams()
		var err error
		if prrDistance {
			lo, hi := prrMin, prrMax
			if !cmd.Flags().Changed("min") {
				lo = 0
			}
			if !cmd.Flags().Changed("max") {
				hi = p.TransmitRange
			}
			err = printDistanceTable(cmd.OutOrStdout(), p, lo, hi, prrStep)
		} else {
			err = printPRRTable(cmd.OutOrStdout(), p, prrMin, prrMax, prrStep)
		}
		if err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

func init() {
	prrCmd.Flags().Float64Var(&prrMin, "min", -100, "Lowest value in the table")
	prrCmd.Flags().Float64Var(&prrMax, "max", -40, "Highest value in the table")
	prrCmd.Flags().Float64Var(&prrStep, "step", 1, "Table increment")
	prrCmd.Flags().BoolVar(&prrDistance, "distance", false, "Tabulate mean RSSI and PRR over distance")
	rootCmd.AddCommand(prrCmd)
}
