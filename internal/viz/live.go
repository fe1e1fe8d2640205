package viz

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/pidlab/internal/config"
	"github.com/san-kum/pidlab/internal/dynamo"
	"github.com/san-kum/pidlab/internal/experiment"
)

const (
	historyCapacity = 600
	frameInterval   = time.Second / 30
	plotWidth       = 64
)

type TickMsg time.Time

// resetter is implemented by controllers that can clear their history.
type resetter interface {
	Reset() error
}

// Model is the live closed-loop view.
type Model struct {
	name       string
	plant      dynamo.Plant
	integrator dynamo.Integrator
	controller dynamo.Controller
	cfg        *config.Config

	state, initialState dynamo.State
	t, dt               float64
	stepsPerFrame       int
	rng                 *rand.Rand
	last                dynamo.Sample

	running       bool
	params        map[string]float64
	initialParams map[string]float64
	paramKeys     []string
	selected      int
	err           error

	measured []float64
	setpoint []float64
	output   []float64
}

// NewModel wraps a built experiment. stepsPerFrame simulation steps run per
// UI tick; the simulated clock therefore advances stepsPerFrame*dt per frame.
func NewModel(exp *experiment.Experiment, stepsPerFrame int) Model {
	if stepsPerFrame < 1 {
		stepsPerFrame = 1
	}

	params := make(map[string]float64)
	if c, ok := exp.Controller.(dynamo.Configurable); ok {
		for k, v := range c.GetParams() {
			params[k] = v
		}
	}
	keys := make([]string, 0, len(params))
	initialParams := make(map[string]float64, len(params))
	for k, v := range params {
		initialParams[k] = v
		if k != "reverse" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	return Model{
		name:          fmt.Sprintf("%s / %s", exp.Config.Plant, exp.Config.Backend),
		plant:         exp.Plant,
		integrator:    exp.Integrator,
		controller:    exp.Controller,
		cfg:           exp.Config,
		state:         exp.X0.Clone(),
		initialState:  exp.X0.Clone(),
		dt:            exp.SimConfig.Dt,
		stepsPerFrame: stepsPerFrame,
		rng:           rand.New(rand.NewSource(exp.SimConfig.Seed)),
		running:       true,
		params:        params,
		initialParams: initialParams,
		paramKeys:     keys,
		measured:      make([]float64, 0, historyCapacity),
		setpoint:      make([]float64, 0, historyCapacity),
		output:        make([]float64, 0, historyCapacity),
	}
}

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "tab":
			m.cycleParam()
		case "up", "k":
			m.adjustParam(1.1)
		case "down", "j":
			m.adjustParam(0.9)
		case "d":
			m.toggleDirection()
		}
	case TickMsg:
		if m.running {
			for i := 0; i < m.stepsPerFrame && m.err == nil; i++ {
				m.step()
			}
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) cycleParam() {
	if len(m.paramKeys) == 0 {
		return
	}
	m.selected = (m.selected + 1) % len(m.paramKeys)
}

func (m *Model) setParam(key string, val float64) {
	c, ok := m.controller.(dynamo.Configurable)
	if !ok {
		return
	}
	if err := c.SetParam(key, val); err != nil {
		m.err = err
		return
	}
	m.err = nil
	m.params[key] = val
}

func (m *Model) adjustParam(factor float64) {
	if len(m.paramKeys) == 0 {
		return
	}
	key := m.paramKeys[m.selected]
	val := m.params[key] * factor
	if val == 0 && factor > 1 {
		val = 0.1
	}
	m.setParam(key, val)
}

func (m *Model) toggleDirection() {
	if _, ok := m.params["reverse"]; !ok {
		return
	}
	m.setParam("reverse", 1-m.params["reverse"])
}

// step advances the loop by one simulation step, mirroring dynamo.Simulator.
func (m *Model) step() {
	y := m.plant.Measure(m.state)
	if m.cfg.Noise > 0 {
		y += m.cfg.Noise * m.rng.NormFloat64()
	}
	u := m.controller.Compute(y, m.t)

	smp := dynamo.Sample{Time: m.t, State: m.state, Measured: y, Control: u}
	if tr, ok := m.controller.(dynamo.Traced); ok {
		smp.Trace = tr.Trace()
	}
	m.last = smp

	next := m.integrator.Step(m.plant, m.state, u, m.t, m.dt)
	if !next.IsValid() {
		m.err = fmt.Errorf("t=%.3f: %w", m.t, dynamo.ErrInvalidState)
		m.running = false
		return
	}
	m.state = next
	m.t += m.dt

	m.measured = push(m.measured, y)
	m.setpoint = push(m.setpoint, smp.Trace.Setpoint)
	out := 0.0
	if len(u) > 0 {
		out = u[0]
	}
	m.output = push(m.output, out)
}

func push(buf []float64, v float64) []float64 {
	buf = append(buf, v)
	if len(buf) > historyCapacity {
		buf = buf[1:]
	}
	return buf
}

// reset restores the initial plant state and controller parameters.
func (m *Model) reset() {
	m.t = 0
	m.state = m.initialState.Clone()
	m.rng = rand.New(rand.NewSource(m.cfg.Seed))
	m.measured = m.measured[:0]
	m.setpoint = m.setpoint[:0]
	m.output = m.output[:0]
	m.last = dynamo.Sample{}
	m.err = nil
	for k, v := range m.initialParams {
		m.setParam(k, v)
	}
	if r, ok := m.controller.(resetter); ok {
		if err := r.Reset(); err != nil {
			m.err = err
		}
	}
}

func (m Model) View() string {
	var plots strings.Builder
	plots.WriteString(headerStyle.Render(strings.ToUpper(m.name)) + "  ")
	if m.running {
		plots.WriteString(statusRunning.Render("RUNNING"))
	} else {
		plots.WriteString(statusPaused.Render("PAUSED"))
	}
	plots.WriteString("\n\n")

	if len(m.measured) > 1 {
		tracking := asciigraph.PlotMany([][]float64{m.measured, m.setpoint},
			asciigraph.Height(12),
			asciigraph.Width(plotWidth),
			asciigraph.SeriesColors(asciigraph.Green, asciigraph.Red),
			asciigraph.Caption("measured (green) vs setpoint (red)"))
		output := asciigraph.Plot(m.output,
			asciigraph.Height(5),
			asciigraph.Width(plotWidth),
			asciigraph.Caption("controller output"))
		plots.WriteString(panelStyle.Render(tracking) + "\n")
		plots.WriteString(panelStyle.Render(output))
	} else {
		plots.WriteString(paramStyle.Render("waiting for samples"))
	}

	stats := m.statsView()
	return lipgloss.JoinHorizontal(lipgloss.Top, plots.String(), statsStyle.Render(stats))
}

func (m Model) statsView() string {
	var s strings.Builder
	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}

	row("Time", fmt.Sprintf("%.2fs", m.t))
	row("Measured", fmt.Sprintf("%.3f", m.last.Measured))
	row("Setpoint", fmt.Sprintf("%.3f", m.last.Trace.Setpoint))
	row("Output", fmt.Sprintf("%.3f", m.last.Trace.Output))
	row("P / I / D", fmt.Sprintf("%.2f / %.2f / %.2f", m.last.Trace.P, m.last.Trace.I, m.last.Trace.D))
	if m.cfg.Controller == "pid" {
		s.WriteString(OutputBar(m.last.Trace.Output, m.cfg.PID.OutMin, m.cfg.PID.OutMax, 24) + "\n")
	}
	if rev, ok := m.params["reverse"]; ok {
		dir := "direct"
		if rev != 0 {
			dir = "reverse"
		}
		row("Direction", dir)
	}

	s.WriteString("\nPARAMETERS\n")
	if len(m.paramKeys) == 0 {
		s.WriteString(paramStyle.Render("  (none)") + "\n")
	}
	for i, k := range m.paramKeys {
		line := fmt.Sprintf("%-10s %.4g", k, m.params[k])
		if i == m.selected {
			s.WriteString(activeParamStyle.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + paramStyle.Render(line) + "\n")
		}
	}

	if m.err != nil {
		s.WriteString("\n" + barHigh.Render(m.err.Error()) + "\n")
	}
	s.WriteString(helpStyle.Render("SP:Pause R:Reset Q:Quit\nTab:Select ↑↓:Tune D:Direction"))
	return s.String()
}
