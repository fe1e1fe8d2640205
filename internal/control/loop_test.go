package control

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/go-logr/logr"

	"github.com/san-kum/pidlab/internal/dynamo"
	"github.com/san-kum/pidlab/internal/fixed"
	"github.com/san-kum/pidlab/internal/pid"
)

func proportional() Tuning {
	return Tuning{
		Kp:           1,
		SamplePeriod: 100 * time.Millisecond,
		OutMin:       -100,
		OutMax:       100,
		Setpoint:     10,
	}
}

func TestLoopHoldsBetweenSamples(t *testing.T) {
	loop, err := New[pid.Float](proportional(), logr.Discard())
	if err != nil {
		t.Fatal(err)
	}

	steps := []struct {
		measured, t, want float64
	}{
		{0, 0, 10},
		{5, 0.05, 10},
		{5, 0.0999999999, 5},
		{8, 0.15, 5},
		{8, 0.2, 2},
	}
	for _, s := range steps {
		u := loop.Compute(s.measured, s.t)
		if u[0] != s.want {
			t.Errorf("t=%v: expected output %v, got %v", s.t, s.want, u[0])
		}
	}
	if n := loop.Controller().RunCount(); n != 3 {
		t.Errorf("expected 3 controller ticks, got %d", n)
	}
}

func TestLoopFixedBackend(t *testing.T) {
	loop, err := New[fixed.Q16](proportional(), logr.Discard())
	if err != nil {
		t.Fatal(err)
	}
	if u := loop.Compute(2.5, 0); u[0] != 7.5 {
		t.Errorf("expected 7.5, got %v", u[0])
	}
}

func TestLoopRejectsBadTuning(t *testing.T) {
	tu := proportional()
	tu.OutMin, tu.OutMax = 5, 5
	if _, err := New[pid.Float](tu, logr.Discard()); !errors.Is(err, pid.ErrInvalidLimits) {
		t.Errorf("expected ErrInvalidLimits, got %v", err)
	}
}

func TestLoopTrace(t *testing.T) {
	tu := proportional()
	tu.Ki = 1
	loop, _ := New[pid.Float](tu, logr.Discard())
	loop.Compute(4, 0)

	tr := loop.Trace()
	if tr.Setpoint != 10 || tr.P != 6 {
		t.Errorf("unexpected trace %+v", tr)
	}
	if math.Abs(tr.I-0.6) > 1e-12 {
		t.Errorf("expected integral 0.6, got %v", tr.I)
	}
	if tr.Output != tr.P+tr.I+tr.D {
		t.Errorf("output %v should equal sum of terms", tr.Output)
	}
}

func TestLoopSetParam(t *testing.T) {
	loop, _ := New[pid.Float](proportional(), logr.Discard())

	if err := loop.SetParam("kp", 2); err != nil {
		t.Fatal(err)
	}
	if err := loop.SetParam("sample_ms", 200); err != nil {
		t.Fatal(err)
	}
	if err := loop.SetParam("reverse", 1); err != nil {
		t.Fatal(err)
	}

	p := loop.GetParams()
	if p["kp"] != 2 || p["sample_ms"] != 200 || p["reverse"] != 1 {
		t.Errorf("unexpected params %v", p)
	}
	if loop.Controller().Direction() != pid.Reverse {
		t.Error("direction should be reverse")
	}

	if err := loop.SetParam("ki", -1); !errors.Is(err, pid.ErrNegativeGain) {
		t.Errorf("expected ErrNegativeGain, got %v", err)
	}
	if err := loop.SetParam("gain", 1); !errors.Is(err, dynamo.ErrUnknownParameter) {
		t.Errorf("expected ErrUnknownParameter, got %v", err)
	}
}

func TestLoopReset(t *testing.T) {
	tu := proportional()
	tu.Direction = pid.Reverse
	loop, _ := New[pid.Float](tu, logr.Discard())
	loop.Compute(0, 0)
	loop.Compute(0, 0.1)

	if err := loop.Reset(); err != nil {
		t.Fatal(err)
	}
	if n := loop.Controller().RunCount(); n != 0 {
		t.Errorf("expected run count 0 after reset, got %d", n)
	}
	if got := loop.Tuning(); got != tu {
		t.Errorf("tuning changed by reset: %+v", got)
	}
	if u := loop.Compute(0, 0.12); u[0] != -10 {
		t.Errorf("expected immediate reverse tick -10, got %v", u[0])
	}
}

func TestManualAndNone(t *testing.T) {
	m := NewManual(3)
	if u := m.Compute(100, 0); u[0] != 3 {
		t.Errorf("expected held output 3, got %v", u[0])
	}
	if err := m.SetParam("output", 7); err != nil || m.Trace().Output != 7 {
		t.Errorf("manual output not updated: %v", err)
	}

	n := NewNone(2)
	if u := n.Compute(1, 0); len(u) != 2 || u[0] != 0 || u[1] != 0 {
		t.Errorf("expected zero control, got %v", u)
	}
}

func TestLoopKeepsRateWithCoarseStep(t *testing.T) {
	loop, err := New[pid.Float](proportional(), logr.Discard())
	if err != nil {
		t.Fatal(err)
	}

	// 30 ms steps never land on a 100 ms boundary
	const dt = 0.03
	for i := 0; i < 100; i++ {
		loop.Compute(5, float64(i)*dt)
	}
	if n := loop.Controller().RunCount(); n != 30 {
		t.Errorf("expected 30 controller ticks in 3s, got %d", n)
	}
}

func TestLoopRescheduleAfterReset(t *testing.T) {
	loop, err := New[pid.Float](proportional(), logr.Discard())
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		loop.Compute(5, float64(i)*0.03)
	}
	if err := loop.Reset(); err != nil {
		t.Fatal(err)
	}

	// the grid restarts at the first tick after a reset
	loop.Compute(5, 0)
	loop.Compute(5, 0.09)
	loop.Compute(5, 0.12)
	if n := loop.Controller().RunCount(); n != 2 {
		t.Errorf("expected 2 ticks after reset, got %d", n)
	}
}
