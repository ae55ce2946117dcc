package cmd

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/epidemic-sim/epidemic-sim/sim"
	"github.com/epidemic-sim/epidemic-sim/sim/report"
)

var (
	// CLI flags shared across commands
	seed         int64  // Master seed; replicate streams are derived from it
	logLevel     string // Log verbosity level
	scenarioPath string // Scenario YAML file (empty = documented baseline)
	horizon      int    // Simulation horizon in days
	replicates   int    // Number of independent stochastic replicates
	workers      int    // Max concurrent replicates (0 = one worker per replicate)
	statistic    string // Aggregation statistic across replicates: mean or median
	outPath      string // Aggregate CSV output path (empty = skip)
	runsOutPath  string // Per-replicate CSV output path (empty = skip)

	// CLI flags for ad hoc overrides without a scenario file
	initS         int64 // Initial susceptible count
	initI         int64 // Initial infectious count
	deterministic bool  // Disable all stochastic draws
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "epidemic-sim",
	Short: "Discrete-time stochastic compartment simulator for epidemic scenarios",
}

// buildConfig assembles the effective config from the scenario file (if
// any) and CLI overrides.
func buildConfig() (sim.Config, string, error) {
	cfg := sim.DefaultConfig(seed)
	label := "baseline"
	if scenarioPath != "" {
		loaded, loadedLabel, err := LoadScenario(scenarioPath, seed)
		if err != nil {
			return sim.Config{}, "", err
		}
		cfg, label = loaded, loadedLabel
	}
	if cmdFlagChanged("horizon") {
		cfg.Horizon = horizon
	}
	if cmdFlagChanged("replicates") {
		cfg.Replicates = replicates
	}
	if cmdFlagChanged("workers") {
		cfg.Workers = workers
	}
	if cmdFlagChanged("statistic") {
		cfg.Statistic = sim.Statistic(statistic)
	}
	if cmdFlagChanged("initial-s") {
		cfg.Initial.S = initS
	}
	if cmdFlagChanged("initial-i") {
		cfg.Initial.I = initI
	}
	if deterministic {
		cfg.Flags = sim.Flags{}
	}
	cfg.KeepRuns = cfg.KeepRuns || runsOutPath != ""
	return cfg, label, nil
}

// runCmd executes one scenario and writes its aggregate series
var runCmd *cobra.Command

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one epidemic scenario",
		Run: func(cmd *cobra.Command, args []string) {
			setUpLogging()

			cfg, label, err := buildConfig()
			if err != nil {
				logrus.Fatalf("Could not build scenario config: %v", err)
			}

			logrus.Infof("Starting scenario %q: horizon=%d days, replicates=%d, workers=%d, seed=%d",
				label, cfg.Horizon, cfg.Replicates, cfg.Workers, cfg.Seed)
			startTime := time.Now()

			batch, err := sim.Run(&cfg)
			if err != nil {
				logrus.Fatalf("Scenario %q failed: %v", label, err)
			}
			logrus.Infof("Scenario %q complete in %v (batch %s)", label, time.Since(startTime), batch.BatchID)

			final := batch.Aggregated.Series[len(batch.Aggregated.Series)-1]
			logrus.Infof("Final %s state: S=%.0f E=%.0f I=%.0f Q=%.0f H=%.0f R=%.0f F=%.0f",
				batch.Aggregated.Statistic, final[0], final[1], final[2], final[3], final[4], final[5], final[6])

			if outPath != "" {
				if err := report.SaveAggregate(outPath, label, batch.Aggregated, cfg.Params.Hospital.Capacity.At(0)); err != nil {
					logrus.Fatalf("Could not write aggregate output: %v", err)
				}
				logrus.Infof("Aggregate series written to %s", outPath)
			}
			if runsOutPath != "" {
				if err := report.SaveRuns(runsOutPath, batch.Runs); err != nil {
					logrus.Fatalf("Could not write per-replicate output: %v", err)
				}
				logrus.Infof("Per-replicate series written to %s", runsOutPath)
			}
		},
	}
}

func setUpLogging() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// cmdFlagChanged reports whether the user set a flag explicitly, so CLI
// overrides only replace scenario-file values when actually given.
func cmdFlagChanged(name string) bool {
	f := runCmd.Flags().Lookup(name)
	return f != nil && f.Changed
}

func init() {
	runCmd = newRunCmd()

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log verbosity (debug, info, warn, error)")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 42, "master random seed")

	runCmd.Flags().StringVar(&scenarioPath, "scenario", "", "scenario YAML file (default: documented baseline)")
	runCmd.Flags().IntVar(&horizon, "horizon", 366, "simulation horizon in days")
	runCmd.Flags().IntVar(&replicates, "replicates", 8, "number of stochastic replicates")
	runCmd.Flags().IntVar(&workers, "workers", 4, "max concurrent replicates (0 = one per replicate)")
	runCmd.Flags().StringVar(&statistic, "statistic", "mean", "aggregation across replicates: mean or median")
	runCmd.Flags().Int64Var(&initS, "initial-s", 99970, "initial susceptible count")
	runCmd.Flags().Int64Var(&initI, "initial-i", 3, "initial infectious count")
	runCmd.Flags().BoolVar(&deterministic, "deterministic", false, "use expected values for every transition")
	runCmd.Flags().StringVar(&outPath, "out", "aggregate.csv", "aggregate CSV output path")
	runCmd.Flags().StringVar(&runsOutPath, "runs-out", "", "per-replicate CSV output path (implies keeping runs)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(compareCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Fatal(err)
	}
}
