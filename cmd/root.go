package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/radiosim/radiosim/internal/observability"
	"github.com/radiosim/radiosim/sim/scenario"
	"github.com/radiosim/radiosim/sim/trace"
)

var (
	// CLI flags for the run command
	scenarioPath      string // Path to the scenario YAML
	seed              int64  // Seed override for all random draws
	simulationHorizon int64  // Horizon override (in microseconds)
	logLevel          string // Log verbosity level
	traceLevel        string // Decision trace level (none, connections)
	traceDBPath       string // SQLite file receiving the decision trace
	resultsPath       string // JSON file receiving the metrics
	metricsAddr       string // Address serving /metrics and /summary after the run
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "radiosim",
	Short: "Discrete-event simulator for a logistic-loss wireless radio medium",
}

// setupLogging applies the --log flag.
func setupLogging() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// runCmd executes the simulation described by a scenario file
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a radio medium scenario",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		sc, err := scenario.Load(scenarioPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		opts := scenario.BuildOptions{TraceLevel: trace.TraceLevel(traceLevel)}
		if cmd.Flags().Changed("seed") {
			opts.Seed = &seed
		}
		if cmd.Flags().Changed("horizon") {
			opts.HorizonUs = &simulationHorizon
		}
		if traceDBPath != "" && opts.TraceLevel == "" {
			opts.TraceLevel = trace.TraceLevelConnections
		}

		registry := prometheus.NewRegistry()
		collector, err := observability.NewMediumCollector(registry)
		if err != nil {
			logrus.Fatalf("metrics: %v", err)
		}
		opts.Recorder = collector

		rt, err := scenario.Build(sc, opts)
		if err != nil {
			logrus.Fatalf("invalid scenario: %v", err)
		}

		logrus.Infof("Starting simulation with %d radios, seed=%d, horizon=%dus",
			rt.Simulator.Registry().Len(), rt.Simulator.RNG().Key(), rt.Simulator.Horizon())
		startTime := time.Now()
		rt.Run()
		logrus.Infof("Simulation wall time: %v", time.Since(startTime))

		s := rt.Simulator
		s.Metrics().Print(os.Stdout)
		if rt.Player != nil {
			fmt.Printf("Mobility             : %d moves applied, %d skipped, %d wraps\n",
				rt.Player.Applied(), rt.Player.Skipped(), rt.Player.Periods())
		}
		summary := trace.Summarize(s.Trace())
		if s.Trace() != nil {
			printTraceSummary(os.Stdout, summary)
		}

		if resultsPath != "" {
			if err := s.Metrics().SaveResults(resultsPath); err != nil {
				logrus.Fatalf("%v", err)
			}
		}
		if traceDBPath != "" {
			if err := writeTraceDB(cmd.Context(), traceDBPath, s.Trace()); err != nil {
				logrus.Fatalf("%v", err)
			}
			logrus.Infof("Wrote decision trace to %s", traceDBPath)
		}

		if metricsAddr != "" {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			router := newMetricsRouter(collector, s.Metrics(), summary)
			logrus.Infof("Serving metrics on %s (Ctrl-C to exit)", metricsAddr)
			if err := serveMetrics(ctx, metricsAddr, router); err != nil {
				logrus.Fatalf("metrics server: %v", err)
			}
		}

		logrus.Info("Simulation complete.")
	},
}

func writeTraceDB(ctx context.Context, path string, st *trace.SimulationTrace) error {
	if ctx == nil {
		ctx = context.Background()
	}
	db, err := trace.OpenSQLite(path)
	if err != nil {
		return err
	}
	defer db.Close()
	return trace.ExportSQLite(ctx, db, st)
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")

	runCmd.Flags().StringVar(&scenarioPath, "scenario", "", "Path to the scenario YAML file")
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Seed override for reception draws, noise and traffic")
	runCmd.Flags().Int64Var(&simulationHorizon, "horizon", 0, "Simulation horizon override (in microseconds)")
	runCmd.Flags().StringVar(&traceLevel, "trace", "", "Decision trace level (none, connections)")
	runCmd.Flags().StringVar(&traceDBPath, "trace-db", "", "Write the decision trace to this SQLite file")
	runCmd.Flags().StringVar(&resultsPath, "results", "", "Write metrics as JSON to this file")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "After the run, serve /metrics and /summary on this address")
	_ = runCmd.MarkFlagRequired("scenario")

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
