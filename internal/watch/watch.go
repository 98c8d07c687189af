// Package watch runs the simulation inside a live terminal view: energies
// plotted as they evolve, neighbor list activity on the side.
package watch

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/raghav-m/mdcore/internal/compute"
	"github.com/raghav-m/mdcore/internal/sim"
)

const (
	stepsPerTick    = 5
	historyCapacity = 400
	graphHeight     = 8
	graphWidth      = 60
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

type Model struct {
	runner *sim.Runner
	dt     float64
	steps  int

	timestep uint64
	running  bool
	done     bool

	totalHistory []float64
	potential    float64
	kinetic      float64
}

func NewModel(runner *sim.Runner, dt float64, steps int) Model {
	return Model{
		runner:       runner,
		dt:           dt,
		steps:        steps,
		running:      true,
		totalHistory: make([]float64, 0, historyCapacity),
	}
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
			m.running = !m.running
		}
	case TickMsg:
		if m.running && !m.done {
			for i := 0; i < stepsPerTick && !m.done; i++ {
				m.potential, m.kinetic = m.runner.Step(m.timestep)
				m.timestep++
				if int(m.timestep) >= m.steps {
					m.done = true
				}
			}
			m.totalHistory = append(m.totalHistory, m.potential+m.kinetic)
			if len(m.totalHistory) > historyCapacity {
				m.totalHistory = m.totalHistory[1:]
			}
		}
		return m, tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
	}
	return m, nil
}

func (m Model) View() string {
	var s strings.Builder
	s.WriteString(headerStyle.Render("MDCORE LIVE") + "\n")

	status := "RUNNING"
	if m.done {
		status = "DONE"
	} else if !m.running {
		status = "PAUSED"
	}
	s.WriteString(status + "\n\n")

	if len(m.totalHistory) > 1 {
		chart := asciigraph.Plot(m.totalHistory,
			asciigraph.Height(graphHeight),
			asciigraph.Width(graphWidth),
			asciigraph.Caption("total energy"),
		)
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	s.WriteString(labelStyle.Render("time") + valueStyle.Render(fmt.Sprintf("%.3f", float64(m.timestep)*m.dt)) + "\n")
	s.WriteString(labelStyle.Render("step") + valueStyle.Render(fmt.Sprintf("%d / %d", m.timestep, m.steps)) + "\n")
	s.WriteString(labelStyle.Render("potential") + valueStyle.Render(fmt.Sprintf("%.6f", m.potential)) + "\n")
	s.WriteString(labelStyle.Render("kinetic") + valueStyle.Render(fmt.Sprintf("%.6f", m.kinetic)) + "\n")

	nstats := m.runner.NeighborStats()
	s.WriteString(labelStyle.Render("rebuilds") + valueStyle.Render(fmt.Sprintf("%d (+%d forced)", nstats.Updates, nstats.ForcedUpdates)) + "\n")

	backend := compute.GetBackend()
	if backend.Available() {
		s.WriteString(labelStyle.Render("backend") + valueStyle.Render(backend.Name()) + "\n")
	} else {
		s.WriteString(labelStyle.Render("backend") + valueStyle.Render("host") + "\n")
	}

	s.WriteString(helpStyle.Render("space: pause  q: quit"))
	return s.String()
}
