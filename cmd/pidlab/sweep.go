package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/pidlab/internal/experiment"
	"github.com/san-kum/pidlab/internal/optim"
)

func sweepGains(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	if cfg.Controller != "pid" {
		return fmt.Errorf("sweep needs the pid controller, got %q", cfg.Controller)
	}

	names := []string{"kp", "ki"}
	ranges := [][]float64{
		gridOrDefault(sweepKp, cfg.PID.Kp),
		gridOrDefault(sweepKi, cfg.PID.Ki),
	}
	if len(sweepKd) > 0 {
		names = append(names, "kd")
		ranges = append(ranges, sweepKd)
	}

	search := optim.NewGridSearch(names, ranges)
	if sweepWorkers > 0 {
		search.SetWorkers(sweepWorkers)
	}
	fmt.Printf("sweeping %d gain combinations for %s (metric %s)...\n", search.Size(), cfg.Plant, sweepMetric)

	start := time.Now()
	cands, err := search.Search(cmd.Context(), experiment.NewRegistry(), cfg, sweepMetric, log)
	if err != nil {
		return err
	}
	fmt.Printf("completed in %v, %d of %d points scored\n\n",
		time.Since(start).Round(time.Millisecond), len(cands), search.Size())

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tKP\tKI\tKD\t"+sweepMetric)
	for i, c := range cands {
		if sweepTop > 0 && i >= sweepTop {
			break
		}
		kd, ok := c.Params["kd"]
		if !ok {
			kd = cfg.PID.Kd
		}
		fmt.Fprintf(w, "%d\t%g\t%g\t%g\t%.6f\n", i+1, c.Params["kp"], c.Params["ki"], kd, c.Score)
	}
	return w.Flush()
}

// gridOrDefault spans a decade around center when no explicit grid is given.
func gridOrDefault(values []float64, center float64) []float64 {
	if len(values) > 0 {
		return values
	}
	if center <= 0 {
		return optim.Linspace(0, 1, 5)
	}
	return optim.Linspace(center/4, center*2.5, 5)
}
