// Package export renders stored runs to standalone image formats.
package export

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/san-kum/pidlab/internal/storage"
)

var ErrTooFewPoints = errors.New("need at least two trace points")

const (
	background    = "#0a0a0a"
	measuredColor = "#00ff00"
	setpointColor = "#ff5555"
	outputColor   = "#5599ff"
)

// Series is one polyline of a chart.
type Series struct {
	Name   string
	Color  string
	Values []float64
}

// TraceSVG draws a run as two stacked panels: measured against setpoint on
// top, controller output below.
func TraceSVG(w io.Writer, trace []storage.TracePoint, width, height int) error {
	if len(trace) < 2 {
		return ErrTooFewPoints
	}

	times := make([]float64, len(trace))
	measured := make([]float64, len(trace))
	setpoint := make([]float64, len(trace))
	output := make([]float64, len(trace))
	for i, p := range trace {
		times[i] = p.Time
		measured[i] = p.Measured
		setpoint[i] = p.Setpoint
		output[i] = p.Output
	}

	top := height * 2 / 3
	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)

	panel(&sb, times, []Series{
		{Name: "setpoint", Color: setpointColor, Values: setpoint},
		{Name: "measured", Color: measuredColor, Values: measured},
	}, 0, float64(width), float64(top))
	panel(&sb, times, []Series{
		{Name: "output", Color: outputColor, Values: output},
	}, float64(top), float64(width), float64(height-top))

	sb.WriteString("</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

// panel draws series sharing one y range into the band starting at y0.
func panel(sb *strings.Builder, times []float64, series []Series, y0, width, height float64) {
	minX, maxX := bounds(times)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, s := range series {
		lo, hi := bounds(s.Values)
		minY = math.Min(minY, lo)
		maxY = math.Max(maxY, hi)
	}

	rangeX := maxX - minX
	if rangeX == 0 {
		rangeX = 1
	}
	rangeY := maxY - minY
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	rangeY *= 1.2

	fmt.Fprintf(sb, `<line x1="0" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#333333"/>
`, y0+height, width, y0+height)

	for _, s := range series {
		fmt.Fprintf(sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="`, s.Color)
		for i, v := range s.Values {
			x := (times[i] - minX) / rangeX * width
			y := y0 + height - (v-minY)/rangeY*height
			if i == 0 {
				fmt.Fprintf(sb, "M%.1f,%.1f", x, y)
			} else {
				fmt.Fprintf(sb, " L%.1f,%.1f", x, y)
			}
		}
		fmt.Fprintf(sb, "\"><title>%s</title></path>\n", s.Name)
	}
}

func bounds(v []float64) (lo, hi float64) {
	lo, hi = v[0], v[0]
	for _, x := range v[1:] {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	return lo, hi
}
