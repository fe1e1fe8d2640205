package main

import (
	"fmt"
	"os"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/san-kum/pidlab/internal/config"
	"github.com/san-kum/pidlab/internal/logging"
)

var (
	dataDir string
	verbose bool
	log     = logr.Discard()
	flush   = func() {}

	// run configuration flags, applied over preset and config file
	dt         float64
	duration   float64
	seed       int64
	noise      float64
	initValue  float64
	integrator string
	controller string
	backend    string
	kp         float64
	ki         float64
	kd         float64
	setpoint   float64
	sampleMs   float64
	outMin     float64
	outMax     float64
	direction  string
	outputMode string
	manualOut  float64
	configFile string
	preset     string
	saveConfig string

	runs       int
	speed      float64
	benchIters int

	sweepKp      []float64
	sweepKi      []float64
	sweepKd      []float64
	sweepMetric  string
	sweepTop     int
	sweepWorkers int

	svgWidth  int
	svgHeight int
	svgOut    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "pidlab",
		Short:         "discrete PID controller lab",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, f, err := logging.New(verbose)
			if err != nil {
				return err
			}
			log, flush = l, f
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			flush()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".pidlab", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log controller diagnostics")

	runCmd := &cobra.Command{
		Use:   "run [plant]",
		Short: "run a closed-loop simulation and save it",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().IntVar(&runs, "runs", 1, "repeat over consecutive seeds (needs --noise)")
	runCmd.Flags().StringVar(&saveConfig, "save-config", "", "write the resolved config to this yaml file")

	liveCmd := &cobra.Command{
		Use:   "live [plant]",
		Short: "run interactively and tune the controller",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addConfigFlags(liveCmd)
	liveCmd.Flags().Float64Var(&speed, "speed", 1.0, "simulated seconds per wall-clock second")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "step response and error spectrum of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export a run trace as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "render a run as an SVG chart",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().IntVar(&svgWidth, "width", 800, "image width (px)")
	exportSVGCmd.Flags().IntVar(&svgHeight, "height", 450, "image height (px)")
	exportSVGCmd.Flags().StringVarP(&svgOut, "output", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets [plant]",
		Short: "list available presets",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plants := []string{"motor", "heater", "cooler", "spring_mass"}
			if len(args) == 1 {
				plants = args[:1]
			}
			for _, plant := range plants {
				presets := config.ListPresets(plant)
				if len(presets) == 0 {
					fmt.Printf("no presets for plant: %s\n", plant)
					continue
				}
				fmt.Printf("presets for %s:\n", plant)
				for _, p := range presets {
					fmt.Printf("  %s\n", p)
				}
			}
			return nil
		},
	}

	compareCmd := &cobra.Command{
		Use:   "compare [plant]",
		Short: "run the same loop with the float and fixed-point backends",
		Args:  cobra.MaximumNArgs(1),
		RunE:  compareBackends,
	}
	addConfigFlags(compareCmd)

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "measure controller throughput per backend",
		Args:  cobra.NoArgs,
		RunE:  benchBackends,
	}
	benchCmd.Flags().IntVar(&benchIters, "iterations", 1_000_000, "controller ticks per backend")

	sweepCmd := &cobra.Command{
		Use:   "sweep [plant]",
		Short: "score the loop over a grid of gains",
		Args:  cobra.MaximumNArgs(1),
		RunE:  sweepGains,
	}
	addConfigFlags(sweepCmd)
	sweepCmd.Flags().Float64SliceVar(&sweepKp, "grid-kp", nil, "kp values (default: 5 points around --kp)")
	sweepCmd.Flags().Float64SliceVar(&sweepKi, "grid-ki", nil, "ki values (default: 5 points around --ki)")
	sweepCmd.Flags().Float64SliceVar(&sweepKd, "grid-kd", nil, "kd values")
	sweepCmd.Flags().StringVar(&sweepMetric, "metric", "iae", "metric to rank by (ascending)")
	sweepCmd.Flags().IntVar(&sweepTop, "top", 10, "rows to print (0 for all)")
	sweepCmd.Flags().IntVar(&sweepWorkers, "workers", 0, "concurrent simulations (default GOMAXPROCS)")

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, analyzeCmd,
		exportCSVCmd, exportJSONCmd, exportSVGCmd, presetsCmd, compareCmd,
		benchCmd, sweepCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		flush()
		os.Exit(1)
	}
}

func addConfigFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset configuration")
	f.Float64Var(&dt, "dt", config.DefaultDt, "simulation timestep (s)")
	f.Float64Var(&duration, "time", config.DefaultDuration, "duration (s)")
	f.Int64Var(&seed, "seed", 0, "random seed for measurement noise")
	f.Float64Var(&noise, "noise", 0, "measurement noise standard deviation")
	f.Float64Var(&initValue, "init", 0, "initial measured value")
	f.StringVar(&integrator, "integrator", "rk4", "integrator (euler, rk4)")
	f.StringVar(&controller, "controller", "pid", "controller (pid, manual, none)")
	f.StringVar(&backend, "backend", config.BackendFloat, "numeric backend (float, fixed)")
	f.Float64Var(&kp, "kp", config.DefaultKp, "proportional gain")
	f.Float64Var(&ki, "ki", config.DefaultKi, "integral gain (1/s)")
	f.Float64Var(&kd, "kd", 0, "derivative gain (s)")
	f.Float64Var(&setpoint, "setpoint", config.DefaultSetpoint, "setpoint")
	f.Float64Var(&sampleMs, "sample-ms", config.DefaultSampleMs, "controller sample period (ms)")
	f.Float64Var(&outMin, "out-min", -config.DefaultOutLimit, "output lower limit")
	f.Float64Var(&outMax, "out-max", config.DefaultOutLimit, "output upper limit")
	f.StringVar(&direction, "direction", "direct", "controller direction (direct, reverse)")
	f.StringVar(&outputMode, "mode", "non-accumulating", "output mode (non-accumulating, accumulating)")
	f.Float64Var(&manualOut, "manual", 0, "fixed output for the manual controller")
}
