package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/pidlab/internal/analysis"
	"github.com/san-kum/pidlab/internal/export"
	"github.com/san-kum/pidlab/internal/storage"
)

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPLANT\tBACKEND\tTIME\tDURATION\tKP\tKI\tKD\tIAE")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2fs\t%g\t%g\t%g\t%.4f\n",
			run.ID,
			run.Plant,
			run.Backend,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Config.Duration,
			run.Config.PID.Kp,
			run.Config.PID.Ki,
			run.Config.PID.Kd,
			run.Metrics["iae"],
		)
	}

	return w.Flush()
}

func loadRun(runID string) (*storage.RunMetadata, []storage.TracePoint, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	trace, err := st.LoadTrace(runID)
	if err != nil {
		return nil, nil, err
	}
	if len(trace) == 0 {
		return nil, nil, fmt.Errorf("run %s has no samples", runID)
	}
	return meta, trace, nil
}

func column(trace []storage.TracePoint, fn func(storage.TracePoint) float64) []float64 {
	out := make([]float64, len(trace))
	for i, p := range trace {
		out[i] = fn(p)
	}
	return out
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, trace, err := loadRun(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("plant: %s (%s backend)\n", meta.Plant, meta.Backend)
	fmt.Printf("samples: %d\n\n", len(trace))

	measured := column(trace, func(p storage.TracePoint) float64 { return p.Measured })
	sp := column(trace, func(p storage.TracePoint) float64 { return p.Setpoint })
	fmt.Println(asciigraph.PlotMany([][]float64{measured, sp},
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.SeriesColors(asciigraph.Green, asciigraph.Red),
		asciigraph.Caption("measured vs setpoint"),
	))
	fmt.Println()

	fmt.Println(asciigraph.Plot(column(trace, func(p storage.TracePoint) float64 { return p.Output }),
		asciigraph.Height(8),
		asciigraph.Width(80),
		asciigraph.Caption("controller output"),
	))
	fmt.Println()

	terms := [][]float64{
		column(trace, func(p storage.TracePoint) float64 { return p.P }),
		column(trace, func(p storage.TracePoint) float64 { return p.I }),
		column(trace, func(p storage.TracePoint) float64 { return p.D }),
	}
	fmt.Println(asciigraph.PlotMany(terms,
		asciigraph.Height(8),
		asciigraph.Width(80),
		asciigraph.SeriesColors(asciigraph.Blue, asciigraph.Yellow, asciigraph.Magenta),
		asciigraph.Caption("p (blue), i (yellow), d (magenta)"),
	))
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, trace, err := loadRun(args[0])
	if err != nil {
		return err
	}

	fmt.Println(header("analysis: " + meta.ID))

	times := column(trace, func(p storage.TracePoint) float64 { return p.Time })
	measured := column(trace, func(p storage.TracePoint) float64 { return p.Measured })
	final := trace[len(trace)-1].Setpoint
	if info, err := analysis.StepResponse(times, measured, measured[0], final, 0.02); err == nil {
		printStep(info)
	} else {
		fmt.Printf("\nstep response: %v\n", err)
	}

	errSeries := column(trace, func(p storage.TracePoint) float64 { return p.Setpoint - p.Measured })
	sampleRate := 1 / meta.Config.Dt
	ps := analysis.PowerSpectrum(errSeries)
	if len(ps) < 8 {
		return nil
	}

	plotData := ps[:len(ps)/4]
	fmt.Println()
	fmt.Println(asciigraph.Plot(plotData,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption("error power spectrum"),
	))
	fmt.Println()

	freq, power := analysis.DominantFrequency(errSeries, sampleRate)
	fmt.Printf("dominant frequency: %.3f hz (power %.4g)\n", freq, power)
	if freq > 0 {
		fmt.Printf("period: %.3f s\n", 1.0/freq)
	}
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	trace, err := st.LoadTrace(args[0])
	if err != nil {
		return err
	}
	return storage.WriteCSV(os.Stdout, trace)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, trace, err := loadRun(args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, meta, trace)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	_, trace, err := loadRun(args[0])
	if err != nil {
		return err
	}

	if svgOut == "" {
		return export.TraceSVG(os.Stdout, trace, svgWidth, svgHeight)
	}

	f, err := os.Create(svgOut)
	if err != nil {
		return err
	}
	if err := export.TraceSVG(f, trace, svgWidth, svgHeight); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", svgOut)
	return nil
}
