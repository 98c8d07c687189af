// Package report renders run summaries for the terminal: a styled stats
// block and ascii plots of the energy series.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/raghav-m/mdcore/internal/neighbor"
	"github.com/raghav-m/mdcore/internal/sim"
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(16)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(1, 2)
)

const (
	graphHeight = 10
	graphWidth  = 72
)

// Summary renders the result of a completed run, including the neighbor list
// statistics that drove it.
func Summary(result *sim.Result, nstats neighbor.Stats) string {
	var s strings.Builder

	s.WriteString(headerStyle.Render("RUN SUMMARY") + "\n")
	writeRow(&s, "steps", fmt.Sprintf("%d", result.StepsTaken))
	writeRow(&s, "energy drift", fmt.Sprintf("%.3e", result.EnergyDrift))
	if n := len(result.Total); n > 0 {
		writeRow(&s, "final energy", fmt.Sprintf("%.6f", result.Total[n-1]))
	}
	for name, val := range result.Metrics {
		writeRow(&s, name, fmt.Sprintf("%.4f", val))
	}

	s.WriteString("\n")
	s.WriteString(headerStyle.Render("NEIGHBOR LIST") + "\n")
	writeRow(&s, "strategy", nstats.Strategy)
	writeRow(&s, "rebuilds", fmt.Sprintf("%d", nstats.Updates))
	writeRow(&s, "forced", fmt.Sprintf("%d", nstats.ForcedUpdates))
	writeRow(&s, "n_neigh", fmt.Sprintf("%d / %.2f / %d", nstats.NNeighMin, nstats.NNeighAvg, nstats.NNeighMax))
	if nstats.Binned {
		writeRow(&s, "bin occupancy", fmt.Sprintf("%d / %.2f / %d", nstats.BinsMin, nstats.BinsAvg, nstats.BinsMax))
	}

	return panelStyle.Render(s.String())
}

// EnergyPlot draws the total energy series; a flat line here is what a
// healthy NVE run looks like.
func EnergyPlot(result *sim.Result) string {
	if len(result.Total) < 2 {
		return ""
	}
	graph := asciigraph.Plot(result.Total,
		asciigraph.Height(graphHeight),
		asciigraph.Width(graphWidth),
		asciigraph.Caption("total energy"),
	)
	return graphStyle.Render(graph)
}

// EnergyBreakdown plots potential and kinetic energy on one chart.
func EnergyBreakdown(result *sim.Result) string {
	if len(result.Total) < 2 {
		return ""
	}
	graph := asciigraph.PlotMany([][]float64{result.Potential, result.Kinetic},
		asciigraph.Height(graphHeight),
		asciigraph.Width(graphWidth),
		asciigraph.Caption("potential / kinetic"),
	)
	return graphStyle.Render(graph)
}

func writeRow(s *strings.Builder, label, value string) {
	s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
}
