package export

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/san-kum/pidlab/internal/storage"
)

func TestTraceSVG(t *testing.T) {
	trace := []storage.TracePoint{
		{Time: 0, Measured: 0, Setpoint: 1, Output: 2},
		{Time: 0.5, Measured: 0.6, Setpoint: 1, Output: 1},
		{Time: 1, Measured: 1, Setpoint: 1, Output: 0.2},
	}

	var buf bytes.Buffer
	if err := TraceSVG(&buf, trace, 400, 300); err != nil {
		t.Fatalf("render failed: %v", err)
	}

	svg := buf.String()
	if !strings.HasPrefix(svg, "<?xml") {
		t.Error("expected xml prolog")
	}
	if !strings.Contains(svg, `width="400" height="300"`) {
		t.Error("expected requested dimensions")
	}
	if n := strings.Count(svg, "<path"); n != 3 {
		t.Errorf("expected 3 paths, got %d", n)
	}
	for _, name := range []string{"measured", "setpoint", "output"} {
		if !strings.Contains(svg, "<title>"+name+"</title>") {
			t.Errorf("missing %s series", name)
		}
	}
	if !strings.HasSuffix(svg, "</svg>\n") {
		t.Error("expected closing svg tag")
	}
}

func TestTraceSVGFlatSeries(t *testing.T) {
	trace := []storage.TracePoint{
		{Time: 0, Measured: 5, Setpoint: 5},
		{Time: 1, Measured: 5, Setpoint: 5},
	}

	var buf bytes.Buffer
	if err := TraceSVG(&buf, trace, 100, 90); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if strings.Contains(buf.String(), "NaN") {
		t.Error("flat series must not produce NaN coordinates")
	}
}

func TestTraceSVGTooShort(t *testing.T) {
	var buf bytes.Buffer
	err := TraceSVG(&buf, []storage.TracePoint{{Time: 0}}, 100, 100)
	if !errors.Is(err, ErrTooFewPoints) {
		t.Errorf("expected ErrTooFewPoints, got %v", err)
	}
	if buf.Len() != 0 {
		t.Error("nothing should be written on error")
	}
}
