package sim

import "github.com/raghav-m/mdcore/internal/particle"

// Metric accumulates a scalar over the run, sampled once per step.
type Metric interface {
	Name() string
	Observe(pd *particle.Data, timestep uint64)
	Value() float64
	Reset()
}

// Observer gets a read-only look at the system after every step.
type Observer interface {
	OnStep(pd *particle.Data, timestep uint64, potential, kinetic float64)
}

// Result collects the per-step energy series and final metrics of a run.
type Result struct {
	Times     []float64
	Potential []float64
	Kinetic   []float64
	Total     []float64

	Metrics     map[string]float64
	StepsTaken  int
	EnergyDrift float64
}
