package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/pidlab/internal/analysis"
	"github.com/san-kum/pidlab/internal/config"
	"github.com/san-kum/pidlab/internal/dynamo"
	"github.com/san-kum/pidlab/internal/experiment"
	"github.com/san-kum/pidlab/internal/fixed"
	"github.com/san-kum/pidlab/internal/pid"
	"github.com/san-kum/pidlab/internal/storage"
	"github.com/san-kum/pidlab/internal/viz"
)

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	if saveConfig != "" {
		if err := config.Save(saveConfig, cfg); err != nil {
			return err
		}
	}

	registry := experiment.NewRegistry()
	if runs > 1 {
		return runEnsemble(cmd.Context(), registry, cfg)
	}

	exp, err := experiment.Build(registry, cfg, log)
	if err != nil {
		return err
	}

	fmt.Printf("running %s simulation (%s backend)...\n", cfg.Plant, cfg.Backend)
	start := time.Now()
	result, err := exp.Run(cmd.Context())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)
	log.V(1).Info("simulation finished", "steps", result.StepsTaken, "elapsed", elapsed)

	for _, e := range result.Errors {
		fmt.Fprintf(os.Stderr, "warning: %v\n", e)
	}

	var step *analysis.StepInfo
	if cfg.Controller == "pid" {
		if info, err := experiment.Analyze(result); err == nil {
			step = &info
		}
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(cfg, result, step)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	fmt.Printf("final: %.4f\n", exp.Plant.Measure(result.Final))
	printMetrics(result.Metrics)
	if step != nil {
		printStep(*step)
	}
	return nil
}

func runEnsemble(ctx context.Context, registry *experiment.Registry, cfg *config.Config) error {
	if cfg.Noise == 0 {
		return fmt.Errorf("--runs needs measurement noise; every seed would give the same run")
	}

	results, err := experiment.RunEnsemble(ctx, registry, cfg, runs, log)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tIAE\tOVERSHOOT\tEFFORT")
	var sum, sumSq float64
	for i, res := range results {
		iae := res.Metrics["iae"]
		sum += iae
		sumSq += iae * iae
		fmt.Fprintf(w, "%d\t%.4f\t%.4f\t%.4f\n", cfg.Seed+int64(i), iae, res.Metrics["max_overshoot"], res.Metrics["control_effort"])
	}
	if err := w.Flush(); err != nil {
		return err
	}

	n := float64(len(results))
	mean := sum / n
	std := math.Sqrt(math.Max(sumSq/n-mean*mean, 0))
	fmt.Printf("\niae: mean %.4f, std %.4f over %d runs\n", mean, std, len(results))
	return nil
}

func printMetrics(metrics map[string]float64) {
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, metrics[name])
	}
}

func printStep(info analysis.StepInfo) {
	fmt.Println("\nstep response:")
	if info.Rose {
		fmt.Printf("  rise time:     %.4fs\n", info.RiseTime)
	} else {
		fmt.Println("  rise time:     did not reach 90%")
	}
	fmt.Printf("  overshoot:     %.2f%% (peak %.4f at %.4fs)\n", info.Overshoot, info.Peak, info.PeakTime)
	if info.Settled {
		fmt.Printf("  settling time: %.4fs\n", info.SettlingTime)
	} else {
		fmt.Println("  settling time: not settled")
	}
	fmt.Printf("  steady error:  %.6f\n", info.SteadyStateError)
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	if speed <= 0 {
		return fmt.Errorf("speed must be positive, got %v", speed)
	}

	exp, err := experiment.Build(experiment.NewRegistry(), cfg, log)
	if err != nil {
		return err
	}

	// 30 frames per second of wall-clock time
	stepsPerFrame := int(math.Round(speed / (30 * cfg.Dt)))
	m := viz.NewModel(exp, stepsPerFrame)

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func compareBackends(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	if cfg.Controller != "pid" {
		return fmt.Errorf("compare needs the pid controller, got %q", cfg.Controller)
	}

	registry := experiment.NewRegistry()
	backends := []string{config.BackendFloat, config.BackendFixed}
	results := make([]*dynamo.Result, len(backends))

	fmt.Printf("comparing backends for %s (dt=%.4f, duration=%.1fs)\n\n", cfg.Plant, cfg.Dt, cfg.Duration)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BACKEND\tFINAL\tIAE\tOVERSHOOT\tSETTLING\tTIME")

	for i, name := range backends {
		c := *cfg
		c.Backend = name
		exp, err := experiment.Build(registry, &c, log)
		if err != nil {
			return err
		}

		start := time.Now()
		res, err := exp.Run(cmd.Context())
		if err != nil {
			return err
		}
		elapsed := time.Since(start)
		results[i] = res

		settling := "-"
		if info, err := experiment.Analyze(res); err == nil && info.Settled {
			settling = fmt.Sprintf("%.4fs", info.SettlingTime)
		}
		fmt.Fprintf(w, "%s\t%.6f\t%.6f\t%.6f\t%s\t%v\n", name, exp.Plant.Measure(res.Final),
			res.Metrics["iae"], res.Metrics["max_overshoot"], settling, elapsed.Round(time.Microsecond))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	maxDiff := 0.0
	a, b := results[0].Samples, results[1].Samples
	for i := 0; i < len(a) && i < len(b); i++ {
		maxDiff = math.Max(maxDiff, math.Abs(a[i].Trace.Output-b[i].Trace.Output))
	}
	fmt.Printf("\nmax output difference: %.6f (fixed-point resolution %g)\n", maxDiff, fixed.Resolution)
	return nil
}

func benchBackends(cmd *cobra.Command, args []string) error {
	if benchIters <= 0 {
		return fmt.Errorf("iterations must be positive, got %d", benchIters)
	}

	fmt.Printf("benchmarking %d controller ticks per backend\n\n", benchIters)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BACKEND\tTIME\tNS/TICK\tTICKS/SEC")

	for _, b := range []struct {
		name string
		run  func(n int) (time.Duration, error)
	}{
		{config.BackendFloat, benchRun[pid.Float]},
		{config.BackendFixed, benchRun[fixed.Q16]},
	} {
		elapsed, err := b.run(benchIters)
		if err != nil {
			return err
		}
		perTick := float64(elapsed.Nanoseconds()) / float64(benchIters)
		fmt.Fprintf(w, "%s\t%v\t%.1f\t%.0f\n", b.name, elapsed.Round(time.Microsecond),
			perTick, float64(benchIters)/elapsed.Seconds())
	}
	return w.Flush()
}

// benchRun drives a controller with a slowly varying synthetic measurement.
func benchRun[T pid.Number[T]](n int) (time.Duration, error) {
	var zero T
	num := func(v float64) T { return zero.FromFloat(v) }

	ctrl, err := pid.New(pid.Config[T]{
		Kp: num(2), Ki: num(1), Kd: num(0.5),
		SamplePeriod: 10 * time.Millisecond,
		OutMin:       num(-100),
		OutMax:       num(100),
		Setpoint:     num(50),
	})
	if err != nil {
		return 0, err
	}

	inputs := make([]T, 256)
	for i := range inputs {
		inputs[i] = num(50 + 10*math.Sin(float64(i)*2*math.Pi/float64(len(inputs))))
	}

	var sink T
	start := time.Now()
	for i := 0; i < n; i++ {
		sink = ctrl.Run(inputs[i%len(inputs)])
	}
	elapsed := time.Since(start)
	log.V(1).Info("bench finished", "last", sink.Float64(), "ticks", ctrl.RunCount())
	return elapsed, nil
}

func header(s string) string {
	return s + "\n" + strings.Repeat("-", len(s))
}
