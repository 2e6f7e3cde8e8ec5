package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/springlayout/internal/dynamo"
	"github.com/san-kum/springlayout/internal/sim"
)

const (
	canvasWidth     = 60
	canvasHeight    = 24
	historyCapacity = 600
	maxStepsPerTick = 64
)

type TickMsg time.Time

// Builder creates a fresh simulator for cfg. The live view calls it on
// start, on reset and whenever a parameter is tuned.
type Builder func(cfg dynamo.Config) (*sim.Simulator, error)

type param struct {
	name string
	ref  func(*dynamo.Config) *float64
}

var tunable = []param{
	{"time step", func(c *dynamo.Config) *float64 { return &c.TimeStep }},
	{"drag", func(c *dynamo.Config) *float64 { return &c.Drag }},
	{"theta", func(c *dynamo.Config) *float64 { return &c.Theta }},
	{"repulsion", func(c *dynamo.Config) *float64 { return &c.Repulsion }},
	{"spring", func(c *dynamo.Config) *float64 { return &c.SpringCoefficient }},
	{"centering", func(c *dynamo.Config) *float64 { return &c.Centering }},
}

// Model is a bubbletea model that steps a layout and draws it on a braille
// canvas next to an energy chart.
type Model struct {
	title    string
	build    Builder
	cfg      dynamo.Config
	initial  dynamo.Config
	sim      *sim.Simulator
	canvas   *Canvas
	fps      int
	maxSteps int

	running       bool
	stepsPerTick  int
	energy        []float64
	last          dynamo.StepStats
	err           error
	selected      int
	showHelp      bool
	pauseOnSettle bool
}

// NewModel builds the first simulator. maxSteps <= 0 runs until quit.
func NewModel(title string, cfg dynamo.Config, build Builder, fps, maxSteps int) (Model, error) {
	s, err := build(cfg)
	if err != nil {
		return Model{}, err
	}
	if fps <= 0 {
		fps = 30
	}
	return Model{
		title:         title,
		build:         build,
		cfg:           cfg,
		initial:       cfg,
		sim:           s,
		canvas:        NewCanvas(canvasWidth, canvasHeight),
		fps:           fps,
		maxSteps:      maxSteps,
		running:       true,
		stepsPerTick:  1,
		energy:        make([]float64, 0, historyCapacity),
		pauseOnSettle: true,
	}, nil
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "n":
			if !m.running {
				m.step()
			}
		case "r":
			m.cfg = m.initial
			m.rebuild()
		case "tab":
			m.selected = (m.selected + 1) % len(tunable)
		case "up", "k":
			m.tune(1.05)
		case "down", "j":
			m.tune(1 / 1.05)
		case "+", "=":
			m.stepsPerTick = min(m.stepsPerTick*2, maxStepsPerTick)
		case "-", "_":
			m.stepsPerTick = max(m.stepsPerTick/2, 1)
		case "c":
			m.pauseOnSettle = !m.pauseOnSettle
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			for i := 0; i < m.stepsPerTick && m.running; i++ {
				m.step()
			}
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) step() {
	if m.maxSteps > 0 && m.sim.Steps() >= m.maxSteps {
		m.running = false
		return
	}
	stats, err := m.sim.Step()
	if err != nil {
		m.err = err
		m.running = false
		return
	}
	m.last = stats
	m.energy = append(m.energy, stats.Energy)
	if len(m.energy) > historyCapacity {
		m.energy = m.energy[1:]
	}
	if stats.Converged && m.pauseOnSettle {
		m.running = false
	}
}

// tune scales the selected parameter and restarts the layout. A value the
// configuration rejects is reported and discarded.
func (m *Model) tune(factor float64) {
	next := m.cfg
	p := tunable[m.selected].ref(&next)
	*p *= factor
	if err := next.Validate(); err != nil {
		m.err = err
		return
	}
	m.cfg = next
	m.rebuild()
}

func (m *Model) rebuild() {
	s, err := m.build(m.cfg)
	if err != nil {
		m.err = err
		return
	}
	m.sim = s
	m.err = nil
	m.last = dynamo.StepStats{}
	m.energy = m.energy[:0]
	m.running = true
}

func (m Model) status() string {
	health := m.sim.Health()
	switch {
	case m.err != nil:
		return StatusUnstable.Render("ERROR")
	case !health.OK():
		return StatusUnstable.Render(fmt.Sprintf("UNSTABLE (%d)", len(health.Unstable)))
	case m.sim.Converged():
		return StatusConverged.Render("CONVERGED")
	case !m.running:
		return StatusPaused.Render("PAUSED")
	}
	return StatusRunning.Render("RUNNING")
}

func (m Model) View() string {
	DrawLayout(m.canvas, m.sim.Bodies(), m.sim.Springs())
	canvasView := Panel.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(Title.Render(strings.ToUpper(m.title)) + "\n")
	s.WriteString(m.status() + "\n\n")

	if len(m.energy) > 1 {
		chart := asciigraph.Plot(m.energy,
			asciigraph.Height(6),
			asciigraph.Width(32),
			asciigraph.Caption("kinetic energy"))
		s.WriteString(Chart.Render(chart) + "\n\n")
	} else {
		s.WriteString(Sparkline(m.energy, 32) + "\n\n")
	}

	row := func(label, value string) {
		s.WriteString(MetricLabel.Render(label) + MetricValue.Render(value) + "\n")
	}
	row("Step", fmt.Sprintf("%d", m.sim.Steps()))
	row("Energy", fmt.Sprintf("%.4g", m.last.Energy))
	row("Mean move", fmt.Sprintf("%.4g", m.last.Displacement))
	row("Max move", fmt.Sprintf("%.4g", m.last.MaxDisplacement))
	row("Nodes", fmt.Sprintf("%d", m.sim.Graph().NodeCount()))
	row("Links", fmt.Sprintf("%d", m.sim.Graph().LinkCount()))
	row("Speed", fmt.Sprintf("%d/frame", m.stepsPerTick))
	if m.maxSteps > 0 {
		s.WriteString(ProgressBar(float64(m.sim.Steps())/float64(m.maxSteps), 24) + "\n")
	}
	if r := m.sim.Health().Recoveries; r > 0 {
		row("Resets", fmt.Sprintf("%d", r))
	}

	s.WriteString("\n" + Subtle.Render("PARAMETERS") + "\n")
	for i, p := range tunable {
		line := fmt.Sprintf("%-10s %.4g", p.name, *p.ref(&m.cfg))
		if i == m.selected {
			s.WriteString(Selected.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + Subtle.Render(line) + "\n")
		}
	}
	if m.err != nil {
		s.WriteString("\n" + StatusUnstable.Render(m.err.Error()) + "\n")
	}
	s.WriteString("\n" + KeyHint.Render("space:pause n:step r:reset q:quit ?:help"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, Panel.Render(s.String()))
	if m.showHelp {
		return Panel.Render(helpText) + "\n" + mainView
	}
	return mainView
}

const helpText = `space   pause or resume
n       single step while paused
r       restart with the initial parameters
tab     select parameter
up/k    raise parameter 5% and restart
down/j  lower parameter 5% and restart
+/-     double or halve steps per frame
c       toggle pause on convergence
q       quit`

// Run starts the live view on the alternate screen and blocks until the
// user quits. It returns the final model.
func Run(m Model) (Model, error) {
	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return m, err
	}
	return final.(Model), nil
}

// Simulator returns the simulator currently shown.
func (m Model) Simulator() *sim.Simulator { return m.sim }
