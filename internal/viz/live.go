package viz

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/bugsim/internal/dynamo"
	"github.com/san-kum/bugsim/internal/model"
)

const (
	historyCapacity = 600
	sparkWidth      = 48
	paramWindow     = 7
)

type TickMsg time.Time

// Group is a named sum of compartments drawn as one sparkline.
type Group struct {
	Name    string
	Indices []int
}

func DefaultGroups() []Group {
	return []Group{
		{Name: "hosts", Indices: model.HostIndices},
		{Name: "infected", Indices: model.InfectedIndices},
		{Name: "eggs", Indices: []int{model.E}},
		{Name: "adults", Indices: []int{model.A, model.Ao}},
		{Name: "P_I", Indices: []int{model.PI}},
	}
}

// LiveModel steps the model on every frame and keeps a rolling history of
// each group.
type LiveModel struct {
	integrator    dynamo.Integrator
	sys           *model.System
	params        model.Params
	initialParams model.Params
	paramKeys     []string
	selected      int
	state         dynamo.State
	initialState  dynamo.State
	t, dt         float64
	stepsPerFrame int
	frame         time.Duration
	running       bool
	keys          KeyMap
	help          help.Model
	err           error
	groups        []Group
	history       [][]float64
}

// NewLiveModel prepares a live view. stepsPerFrame integration steps are
// taken on every tick at fps frames per second.
func NewLiveModel(p model.Params, integ dynamo.Integrator, x0 dynamo.State, dt float64, stepsPerFrame, fps int) LiveModel {
	if stepsPerFrame < 1 {
		stepsPerFrame = 1
	}
	if fps < 1 {
		fps = 30
	}
	groups := DefaultGroups()
	m := LiveModel{
		integrator:    integ,
		sys:           model.NewSystem(p),
		params:        p,
		initialParams: p,
		paramKeys:     model.ParamNames(),
		state:         x0.Clone(),
		initialState:  x0.Clone(),
		dt:            dt,
		stepsPerFrame: stepsPerFrame,
		frame:         time.Second / time.Duration(fps),
		running:       true,
		keys:          DefaultKeyMap(),
		help:          newHelp(),
		groups:        groups,
		history:       make([][]float64, len(groups)),
	}
	m.record()
	return m
}

func newHelp() help.Model {
	h := help.New()
	h.Styles.ShortDesc = KeyHint
	h.Styles.FullDesc = KeyHint
	return h
}

func (m LiveModel) tick() tea.Cmd {
	return tea.Tick(m.frame, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m LiveModel) Init() tea.Cmd { return m.tick() }

// Update handles input events and steps the simulation.
func (m LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Pause):
			if m.err == nil {
				m.running = !m.running
			}
		case key.Matches(msg, m.keys.Reset):
			m.reset()
		case key.Matches(msg, m.keys.Next):
			m.selected = (m.selected + 1) % len(m.paramKeys)
		case key.Matches(msg, m.keys.Up):
			m.adjustParam(1.05)
		case key.Matches(msg, m.keys.Down):
			m.adjustParam(0.95)
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
	case TickMsg:
		if m.running {
			for i := 0; i < m.stepsPerFrame && m.running; i++ {
				m.step()
			}
		}
		return m, m.tick()
	}
	return m, nil
}

// step advances the simulation by one integration step and pauses on a
// non-finite state.
func (m *LiveModel) step() {
	next := m.integrator.Step(m.sys, m.state, m.t, m.dt)
	if !next.IsValid() {
		m.err = &dynamo.SimulationError{Time: m.t, State: m.state.Clone(), Wrapped: dynamo.ErrInvalidState}
		m.running = false
		return
	}
	m.state = next
	m.t += m.dt
	m.record()
}

func (m *LiveModel) record() {
	for gi, g := range m.groups {
		total := 0.0
		for _, i := range g.Indices {
			total += m.state[i]
		}
		h := append(m.history[gi], total)
		if len(h) > historyCapacity {
			h = h[1:]
		}
		m.history[gi] = h
	}
}

// adjustParam scales the selected parameter and rebuilds the system so the
// previous parameter set is never mutated.
func (m *LiveModel) adjustParam(factor float64) {
	key := m.paramKeys[m.selected]
	val, err := m.params.Get(key)
	if err != nil {
		return
	}
	p, err := m.params.With(key, val*factor)
	if err != nil {
		return
	}
	m.params = p
	m.sys = model.NewSystem(p)
}

// reset restores the initial state and parameters.
func (m *LiveModel) reset() {
	m.t = 0
	m.state = m.initialState.Clone()
	m.params = m.initialParams
	m.sys = model.NewSystem(m.params)
	m.err = nil
	m.running = true
	for i := range m.history {
		m.history[i] = m.history[i][:0]
	}
	m.record()
}

func (m LiveModel) Time() float64               { return m.t }
func (m LiveModel) State() dynamo.State         { return m.state }
func (m LiveModel) Params() model.Params        { return m.params }
func (m LiveModel) Running() bool               { return m.running }
func (m LiveModel) Err() error                  { return m.err }
func (m LiveModel) History(group int) []float64 { return m.history[group] }

// View renders the TUI interface.
func (m LiveModel) View() string {
	var s strings.Builder

	status := StatusRunning.Render("RUNNING")
	switch {
	case m.err != nil:
		status = NegativeValue.Render("HALTED: " + m.err.Error())
	case !m.running:
		status = StatusPaused.Render("PAUSED")
	}
	s.WriteString(HeaderStyle.Render("SQUASH BUG") + "\n")
	s.WriteString(status + "\n\n")
	s.WriteString(MetricLabel.Render("time ") + MetricValue.Render(fmt.Sprintf("%.2f", m.t)) + "\n\n")

	for gi, g := range m.groups {
		h := m.history[gi]
		last := 0.0
		if len(h) > 0 {
			last = h[len(h)-1]
		}
		s.WriteString(MetricLabel.Render(fmt.Sprintf("%-9s", g.Name)))
		s.WriteString(SparklineChart(h, sparkWidth))
		s.WriteString(" " + MetricValue.Render(fmt.Sprintf("%10.3f", last)) + "\n")
	}

	if h := m.history[1]; len(h) > 1 {
		chart := asciigraph.Plot(h, asciigraph.Height(6), asciigraph.Width(sparkWidth), asciigraph.Caption("infected"))
		s.WriteString("\n" + chart + "\n")
	}

	left := s.String()
	right := GlassPanel.Render(m.viewParams())
	view := lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right)

	return view + "\n\n" + m.help.View(m.keys)
}

func (m LiveModel) viewParams() string {
	var s strings.Builder
	s.WriteString("PARAMETERS\n")

	lo := m.selected - paramWindow/2
	if lo < 0 {
		lo = 0
	}
	hi := min(lo+paramWindow, len(m.paramKeys))
	lo = max(hi-paramWindow, 0)

	for i := lo; i < hi; i++ {
		k := m.paramKeys[i]
		val, _ := m.params.Get(k)
		initial, _ := m.initialParams.Get(k)
		ratio := 0.5
		if initial != 0 {
			ratio = val / (2 * initial)
		}
		line := fmt.Sprintf("%-5s %s %.4g", k, ProgressBar(ratio, 10), val)
		if i == m.selected {
			s.WriteString(ActiveParam.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + line + "\n")
		}
	}
	return strings.TrimRight(s.String(), "\n")
}
