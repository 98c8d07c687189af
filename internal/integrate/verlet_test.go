package integrate

import (
	"math"
	"testing"

	"github.com/raghav-m/mdcore/internal/box"
	"github.com/raghav-m/mdcore/internal/forces"
	"github.com/raghav-m/mdcore/internal/neighbor"
	"github.com/raghav-m/mdcore/internal/particle"
)

func setup(t *testing.T, pos [][3]float64, l float64) (*particle.Data, *neighbor.List, *forces.LJ) {
	t.Helper()
	d, err := particle.New(len(pos), box.NewCubic(l))
	if err != nil {
		t.Fatalf("particle data: %v", err)
	}
	a := d.Acquire()
	for i, p := range pos {
		a.X[i], a.Y[i], a.Z[i] = p[0], p[1], p[2]
	}
	d.Release()

	nl, err := neighbor.New(d, 3.0, 0.4)
	if err != nil {
		t.Fatalf("neighbor list: %v", err)
	}
	nl.Compute(0)
	lj, err := forces.NewLJ(d, nl, 1.0, 1.0, 3.0)
	if err != nil {
		t.Fatalf("lj: %v", err)
	}
	lj.Compute()
	return d, nl, lj
}

func TestVerletValidation(t *testing.T) {
	d, nl, lj := setup(t, [][3]float64{{5, 5, 5}, {6.5, 5, 5}}, 20)
	if _, err := NewVerlet(d, nl, lj, 0); err == nil {
		t.Error("zero dt accepted")
	}
	if _, err := NewVerlet(d, nl, lj, 0.005); err != nil {
		t.Errorf("valid dt rejected: %v", err)
	}
}

// A dimer started at rest inside the attractive well must conserve total
// energy over many steps. This exercises the whole loop: drift, wrap, list
// refresh and both kicks.
func TestVerletEnergyConservation(t *testing.T) {
	d, nl, lj := setup(t, [][3]float64{{5, 5, 5}, {6.5, 5, 5}}, 20)
	v, err := NewVerlet(d, nl, lj, 0.002)
	if err != nil {
		t.Fatalf("new verlet: %v", err)
	}

	e0 := lj.PotentialEnergy() + forces.KineticEnergy(d)
	for ts := uint64(0); ts < 2000; ts++ {
		v.Step(ts)
	}
	e1 := lj.PotentialEnergy() + forces.KineticEnergy(d)

	if math.Abs(e1-e0) > 1e-4*math.Abs(e0) {
		t.Errorf("energy drifted: %g -> %g", e0, e1)
	}
}

// Free flight: with no partner in range, a particle must travel in a straight
// line and wrap through the periodic boundary.
func TestVerletDriftAndWrap(t *testing.T) {
	d, nl, lj := setup(t, [][3]float64{{9.0, 5, 5}}, 10)
	a := d.Acquire()
	a.VX[0] = 1.0
	d.Release()

	v, _ := NewVerlet(d, nl, lj, 0.1)
	for ts := uint64(0); ts < 20; ts++ {
		v.Step(ts)
	}

	a = d.AcquireReadOnly()
	defer d.Release()
	// 9.0 + 2.0 of travel wraps to 1.0.
	if math.Abs(a.X[0]-1.0) > 1e-9 {
		t.Errorf("expected wrapped position 1.0, got %g", a.X[0])
	}
	if math.Abs(a.VX[0]-1.0) > 1e-12 {
		t.Errorf("free particle changed speed: %g", a.VX[0])
	}
}

// Momentum is conserved because the pair forces obey Newton's third law.
func TestVerletMomentumConservation(t *testing.T) {
	d, nl, lj := setup(t, [][3]float64{{5, 5, 5}, {6.2, 5, 5}, {5.6, 6.1, 5}}, 20)
	a := d.Acquire()
	a.VX[0], a.VY[1], a.VZ[2] = 0.3, -0.2, 0.1
	d.Release()

	v, _ := NewVerlet(d, nl, lj, 0.002)
	for ts := uint64(0); ts < 500; ts++ {
		v.Step(ts)
	}

	a = d.AcquireReadOnly()
	defer d.Release()
	var px, py, pz float64
	for i := 0; i < a.N; i++ {
		px += a.VX[i]
		py += a.VY[i]
		pz += a.VZ[i]
	}
	if math.Abs(px-0.3) > 1e-10 || math.Abs(py+0.2) > 1e-10 || math.Abs(pz-0.1) > 1e-10 {
		t.Errorf("momentum drifted: (%g,%g,%g)", px, py, pz)
	}
}
