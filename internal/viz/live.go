package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/quadfield/internal/control"
	"github.com/san-kum/quadfield/internal/dynamo"
	"github.com/san-kum/quadfield/internal/quad"
	"github.com/san-kum/quadfield/internal/sim"
)

const (
	canvasW         = 72
	canvasH         = 22
	historyCapacity = 600
	trailCapacity   = 400
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(40)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	alertStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

// Model drives the simulation interactively: top-down view of the obstacle
// field and trajectory, with a stats sidebar and a repulsion history graph.
type Model struct {
	sim   *sim.Simulator
	label string

	x0     dynamo.State
	x      dynamo.State
	cmd    control.Command
	force  r3.Vec
	active []r3.Vec
	t, dt  float64

	running   bool
	done      bool
	diverged  bool
	showHelp  bool
	stepsTick int

	canvas    *Canvas
	vp        Viewport
	trail     []r3.Vec
	forceHist []float64
}

func NewModel(s *sim.Simulator, x0 dynamo.State, dt float64, label string) Model {
	scene := append([]r3.Vec{}, s.Grid().Points()...)
	scene = append(scene, s.Route().Waypoints()...)
	scene = append(scene, quad.Decode(x0).Pos)

	// Step enough substeps per frame to track wall-clock time at 30 fps.
	steps := int(1.0 / (30 * dt))
	if steps < 1 {
		steps = 1
	}

	m := Model{
		sim:       s,
		label:     label,
		x0:        x0.Clone(),
		x:         x0.Clone(),
		dt:        dt,
		running:   true,
		stepsTick: steps,
		canvas:    NewCanvas(canvasW, canvasH),
		vp:        NewViewport(scene, 1.0, canvasW, canvasH),
		trail:     make([]r3.Vec, 0, trailCapacity),
		forceHist: make([]float64, 0, historyCapacity),
	}
	m.prime()
	return m
}

func (m *Model) prime() {
	m.cmd, m.force, m.active = m.sim.Prime(m.x, m.dt)
}

func (m Model) Init() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			if !m.done && !m.diverged {
				m.running = !m.running
			}
		case "r":
			m.reset()
		case "?":
			m.showHelp = !m.showHelp
		}
		return m, nil

	case TickMsg:
		if m.running && !m.done && !m.diverged {
			m.advance()
		}
		return m, tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
	}
	return m, nil
}

func (m *Model) advance() {
	for i := 0; i < m.stepsTick; i++ {
		nx, ncmd, force, active, err := m.sim.Step(m.x, m.cmd, m.t, m.dt)
		if err != nil {
			m.diverged = true
			m.running = false
			return
		}
		m.x = nx
		m.t += m.dt
		m.cmd, m.force, m.active = ncmd, force, active

		pos := quad.Decode(m.x).Pos
		m.trail = append(m.trail, pos)
		if len(m.trail) > trailCapacity {
			m.trail = m.trail[1:]
		}
		m.forceHist = append(m.forceHist, r3.Norm(force))
		if len(m.forceHist) > historyCapacity {
			m.forceHist = m.forceHist[1:]
		}

		if m.sim.Route().Done(pos) {
			m.done = true
			m.running = false
			return
		}
	}
}

func (m *Model) reset() {
	m.x = m.x0.Clone()
	m.t = 0
	m.done = false
	m.diverged = false
	m.running = true
	m.trail = m.trail[:0]
	m.forceHist = m.forceHist[:0]
	m.prime()
}

func (m Model) View() string {
	m.canvas.Clear()

	for _, p := range m.sim.Grid().Points() {
		x, y := m.vp.Project(p)
		m.canvas.Set(x, y)
	}

	for _, wp := range m.sim.Route().Waypoints() {
		drawMarker(m.canvas, m.vp, wp, 2)
	}

	for _, p := range m.trail {
		x, y := m.vp.Project(p)
		m.canvas.Set(x, y)
	}

	// In-range points get a heavier marker than the rest of the cloud.
	for _, p := range m.active {
		drawMarker(m.canvas, m.vp, p, 1)
	}

	veh := quad.Decode(m.x)
	drawMarker(m.canvas, m.vp, veh.Pos, 3)

	// Force arrow, scaled so small forces stay visible.
	if f := r3.Norm(m.force); f > 1e-9 {
		tip := r3.Add(veh.Pos, r3.Scale(1.5/f, m.force))
		x0, y0 := m.vp.Project(veh.Pos)
		x1, y1 := m.vp.Project(tip)
		m.canvas.DrawLine(x0, y0, x1, y1)
	}

	left := canvasStyle.Render(m.canvas.String())
	right := statsStyle.Render(m.stats())
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)

	help := "space pause  r reset  ? help  q quit"
	if m.showHelp {
		help = "space toggles the run, r restarts from the initial state,\n? hides this text, q quits. Waypoints and the vehicle are\ndrawn as crosses, obstacle points in range as small crosses;\nthe line from the vehicle is the repulsive force direction."
	}
	return body + "\n" + helpStyle.Render(help)
}

func (m Model) stats() string {
	veh := quad.Decode(m.x)

	var b strings.Builder
	b.WriteString(headerStyle.Render(m.label) + "\n")

	status := "running"
	switch {
	case m.diverged:
		status = alertStyle.Render("diverged")
	case m.done:
		status = "route complete"
	case !m.running:
		status = "paused"
	}
	row(&b, "status", status)
	row(&b, "t", fmt.Sprintf("%.2f s", m.t))
	row(&b, "policy", m.sim.Cascade().Policy().String())
	row(&b, "pos", fmtVec(veh.Pos))
	row(&b, "vel", fmtVec(veh.Vel))
	row(&b, "thrust", fmt.Sprintf("%.2f N", r3.Norm(m.cmd.Thrust)))
	row(&b, "repulse", fmt.Sprintf("%.3f", r3.Norm(m.force)))
	row(&b, "active", fmt.Sprintf("%d", len(m.active)))
	row(&b, "waypoint", fmt.Sprintf("%d/%d", m.sim.Route().Index()+1, m.sim.Route().Len()))

	if len(m.forceHist) > 2 {
		graph := asciigraph.Plot(m.forceHist,
			asciigraph.Height(6),
			asciigraph.Width(30),
			asciigraph.Caption("repulsive force"))
		b.WriteString(graphStyle.Render(graph))
	}
	return b.String()
}

func row(b *strings.Builder, label, value string) {
	b.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
}

func fmtVec(v r3.Vec) string {
	return fmt.Sprintf("%.2f %.2f %.2f", v.X, v.Y, v.Z)
}

func drawMarker(c *Canvas, vp Viewport, p r3.Vec, size int) {
	x, y := vp.Project(p)
	for d := -size; d <= size; d++ {
		c.Set(x+d, y)
		c.Set(x, y+d)
	}
}

// Run starts the interactive view and blocks until it quits.
func Run(s *sim.Simulator, x0 dynamo.State, dt float64, label string) error {
	p := tea.NewProgram(NewModel(s, x0, dt, label))
	_, err := p.Run()
	return err
}
