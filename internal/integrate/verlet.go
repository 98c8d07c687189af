// Package integrate advances particle positions and velocities in time.
// Velocity Verlet is the only scheme offered: it is symplectic, so total
// energy stays bounded over long NVE runs instead of drifting.
package integrate

import (
	"fmt"

	"github.com/raghav-m/mdcore/internal/forces"
	"github.com/raghav-m/mdcore/internal/neighbor"
	"github.com/raghav-m/mdcore/internal/particle"
)

// Verlet steps particle data under Lennard-Jones forces with unit masses.
// The neighbor list is refreshed after the drift, before the closing kick,
// so forces always see positions consistent with the list.
type Verlet struct {
	Dt float64

	pd    *particle.Data
	nlist *neighbor.List
	lj    *forces.LJ
}

// NewVerlet wires the integrator to the particle data, its neighbor list and
// the force compute. The forces must already hold values for the starting
// configuration; call lj.Compute once before the first Step.
func NewVerlet(pd *particle.Data, nlist *neighbor.List, lj *forces.LJ, dt float64) (*Verlet, error) {
	if dt <= 0 {
		return nil, fmt.Errorf("integrate: dt must be positive, got %g", dt)
	}
	return &Verlet{Dt: dt, pd: pd, nlist: nlist, lj: lj}, nil
}

// Step advances the system from timestep to timestep+1:
// half kick with the stored forces, drift with wrapping, neighbor list and
// force refresh, then the closing half kick.
func (v *Verlet) Step(timestep uint64) {
	dt := v.Dt
	halfDt := 0.5 * dt
	bx := v.pd.Box()
	fx, fy, fz := v.lj.Forces()

	a := v.pd.Acquire()
	for i := 0; i < a.N; i++ {
		a.VX[i] += fx[i] * halfDt
		a.VY[i] += fy[i] * halfDt
		a.VZ[i] += fz[i] * halfDt

		a.X[i], a.Y[i], a.Z[i] = bx.Wrap(a.X[i]+a.VX[i]*dt, a.Y[i]+a.VY[i]*dt, a.Z[i]+a.VZ[i]*dt)
	}
	v.pd.Release()

	v.nlist.Compute(timestep + 1)
	v.lj.Compute()

	fx, fy, fz = v.lj.Forces()
	a = v.pd.Acquire()
	for i := 0; i < a.N; i++ {
		a.VX[i] += fx[i] * halfDt
		a.VY[i] += fy[i] * halfDt
		a.VZ[i] += fz[i] * halfDt
	}
	v.pd.Release()
}
