// Package sim drives an NVE molecular dynamics run: the velocity Verlet loop,
// periodic particle reordering for cache locality, energy bookkeeping and
// pluggable metrics and observers.
package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/raghav-m/mdcore/internal/forces"
	"github.com/raghav-m/mdcore/internal/integrate"
	"github.com/raghav-m/mdcore/internal/neighbor"
	"github.com/raghav-m/mdcore/internal/particle"
)

type Runner struct {
	pd    *particle.Data
	nlist *neighbor.List
	lj    *forces.LJ
	step  *integrate.Verlet

	// SortEvery > 0 reorders particles by cell every that many steps. The
	// neighbor list notices the reorder and refreshes itself.
	SortEvery int

	metrics   []Metric
	observers []Observer
}

func NewRunner(pd *particle.Data, nlist *neighbor.List, lj *forces.LJ, dt float64) (*Runner, error) {
	step, err := integrate.NewVerlet(pd, nlist, lj, dt)
	if err != nil {
		return nil, err
	}
	return &Runner{pd: pd, nlist: nlist, lj: lj, step: step}, nil
}

func (r *Runner) AddMetric(m Metric)     { r.metrics = append(r.metrics, m) }
func (r *Runner) AddObserver(o Observer) { r.observers = append(r.observers, o) }

// Run advances the system by steps timesteps, sampling energies after every
// step. A canceled context returns the partial result along with ctx.Err().
func (r *Runner) Run(ctx context.Context, steps int) (*Result, error) {
	if steps <= 0 {
		return nil, fmt.Errorf("sim: steps must be positive, got %d", steps)
	}

	for _, m := range r.metrics {
		m.Reset()
	}

	result := &Result{
		Times:     make([]float64, 0, steps+1),
		Potential: make([]float64, 0, steps+1),
		Kinetic:   make([]float64, 0, steps+1),
		Total:     make([]float64, 0, steps+1),
		Metrics:   make(map[string]float64),
	}

	r.nlist.Compute(0)
	r.lj.Compute()
	r.sample(result, 0)
	e0 := result.Total[0]

	for ts := uint64(0); ts < uint64(steps); ts++ {
		select {
		case <-ctx.Done():
			r.finish(result, e0)
			return result, ctx.Err()
		default:
		}

		if r.SortEvery > 0 && ts > 0 && ts%uint64(r.SortEvery) == 0 {
			r.pd.SortByCell(r.nlist.RCut()+r.nlist.RBuff(), ts)
		}

		r.step.Step(ts)
		result.StepsTaken++

		pe := r.lj.PotentialEnergy()
		ke := forces.KineticEnergy(r.pd)
		result.Times = append(result.Times, float64(ts+1)*r.step.Dt)
		result.Potential = append(result.Potential, pe)
		result.Kinetic = append(result.Kinetic, ke)
		result.Total = append(result.Total, pe+ke)

		for _, m := range r.metrics {
			m.Observe(r.pd, ts+1)
		}
		for _, obs := range r.observers {
			obs.OnStep(r.pd, ts+1, pe, ke)
		}
	}

	r.finish(result, e0)
	return result, nil
}

// Step advances a single timestep and reports the energies. Used by the live
// watch view, which owns its own loop.
func (r *Runner) Step(timestep uint64) (potential, kinetic float64) {
	if timestep == 0 {
		r.nlist.Compute(0)
		r.lj.Compute()
	}
	r.step.Step(timestep)
	return r.lj.PotentialEnergy(), forces.KineticEnergy(r.pd)
}

// NeighborStats exposes the underlying list statistics for reporting.
func (r *Runner) NeighborStats() neighbor.Stats { return r.nlist.Stats() }

func (r *Runner) sample(result *Result, t float64) {
	pe := r.lj.PotentialEnergy()
	ke := forces.KineticEnergy(r.pd)
	result.Times = append(result.Times, t)
	result.Potential = append(result.Potential, pe)
	result.Kinetic = append(result.Kinetic, ke)
	result.Total = append(result.Total, pe+ke)
}

func (r *Runner) finish(result *Result, e0 float64) {
	if n := len(result.Total); n > 0 && e0 != 0 {
		result.EnergyDrift = math.Abs(result.Total[n-1]-e0) / math.Abs(e0)
	}
	for _, m := range r.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}
