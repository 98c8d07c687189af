// Package forces evaluates short-range pairwise forces over the neighbor
// list. Only the Lennard-Jones potential is implemented; anything
// longer-ranged than the cutoff is out of scope for this engine.
package forces

import (
	"fmt"

	"github.com/raghav-m/mdcore/internal/compute"
	"github.com/raghav-m/mdcore/internal/neighbor"
	"github.com/raghav-m/mdcore/internal/particle"
)

// LJ computes Lennard-Jones forces and potential energy. Masses are unity, so
// forces double as accelerations.
type LJ struct {
	Epsilon float64
	Sigma   float64
	RCut    float64

	pd      *particle.Data
	nlist   *neighbor.List
	backend compute.Backend

	fx, fy, fz []float64
	potential  float64
}

// NewLJ wires a force compute to the particle data and its neighbor list.
// The force cutoff may not exceed the list's base cutoff: the buffer skin
// belongs to the displacement check, and a cutoff reaching into it lets a
// pair drift into force range without ever tripping a rebuild.
func NewLJ(pd *particle.Data, nlist *neighbor.List, epsilon, sigma, rCut float64) (*LJ, error) {
	if epsilon <= 0 || sigma <= 0 || rCut <= 0 {
		return nil, fmt.Errorf("forces: LJ parameters must be positive: eps=%g sigma=%g r_cut=%g",
			epsilon, sigma, rCut)
	}
	if rCut > nlist.RCut() {
		return nil, fmt.Errorf("forces: r_cut %g exceeds neighbor list cutoff %g",
			rCut, nlist.RCut())
	}

	n := pd.N()
	return &LJ{
		Epsilon: epsilon,
		Sigma:   sigma,
		RCut:    rCut,
		pd:      pd,
		nlist:   nlist,
		backend: compute.GetBackend(),
		fx:      make([]float64, n),
		fy:      make([]float64, n),
		fz:      make([]float64, n),
	}, nil
}

// Compute fills the per-particle force arrays from current positions. The
// neighbor list must already be up to date for this timestep.
func (lj *LJ) Compute() {
	a := lj.pd.AcquireReadOnly()
	defer lj.pd.Release()

	bx := lj.pd.Box()
	full := lj.nlist.Mode() == neighbor.Full

	if lj.backend.Available() {
		out := lj.backend.LJForces(compute.ForceInput{
			X: a.X, Y: a.Y, Z: a.Z,
			List:    lj.nlist.DeviceList(),
			Full:    full,
			Box:     bx,
			Epsilon: lj.Epsilon,
			Sigma:   lj.Sigma,
			RCut:    lj.RCut,
		})
		lj.fx, lj.fy, lj.fz = out.FX, out.FY, out.FZ
		lj.potential = out.Potential
		return
	}

	for i := range lj.fx {
		lj.fx[i], lj.fy[i], lj.fz[i] = 0, 0, 0
	}
	lj.potential = 0

	rows := lj.nlist.List()
	rcutsq := lj.RCut * lj.RCut
	sigsq := lj.Sigma * lj.Sigma

	for i := 0; i < a.N; i++ {
		xi, yi, zi := a.X[i], a.Y[i], a.Z[i]

		for _, j := range rows[i] {
			dx, dy, dz := bx.MinImage(xi-a.X[j], yi-a.Y[j], zi-a.Z[j])
			rsq := dx*dx + dy*dy + dz*dz
			// Neighbor rows reach r_cut+r_buff; the buffer shell feels no
			// force.
			if rsq >= rcutsq || rsq == 0 {
				continue
			}

			sr2 := sigsq / rsq
			sr6 := sr2 * sr2 * sr2
			sr12 := sr6 * sr6
			fOverR := 24 * lj.Epsilon * (2*sr12 - sr6) / rsq
			pair := 4 * lj.Epsilon * (sr12 - sr6)

			lj.fx[i] += fOverR * dx
			lj.fy[i] += fOverR * dy
			lj.fz[i] += fOverR * dz

			if full {
				// Both directions present: each side accumulates its own
				// half of the pair energy.
				lj.potential += pair / 2
			} else {
				lj.fx[j] -= fOverR * dx
				lj.fy[j] -= fOverR * dy
				lj.fz[j] -= fOverR * dz
				lj.potential += pair
			}
		}
	}
}

// Forces returns the force arrays from the last Compute. Shared, not copied.
func (lj *LJ) Forces() (fx, fy, fz []float64) {
	return lj.fx, lj.fy, lj.fz
}

// PotentialEnergy returns the total potential energy from the last Compute.
func (lj *LJ) PotentialEnergy() float64 { return lj.potential }

// KineticEnergy sums (1/2) v^2 over all particles (unit masses).
func KineticEnergy(pd *particle.Data) float64 {
	a := pd.AcquireReadOnly()
	defer pd.Release()

	ke := 0.0
	for i := 0; i < a.N; i++ {
		ke += 0.5 * (a.VX[i]*a.VX[i] + a.VY[i]*a.VY[i] + a.VZ[i]*a.VZ[i])
	}
	return ke
}
