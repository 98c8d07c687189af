package sim

import (
	"math"

	"github.com/raghav-m/mdcore/internal/particle"
)

// Temperature tracks the running mean of the instantaneous kinetic
// temperature, T = 2 KE / (3 N) in reduced units with unit masses.
type Temperature struct {
	sum   float64
	count int
}

func (m *Temperature) Name() string { return "temperature" }

func (m *Temperature) Observe(pd *particle.Data, timestep uint64) {
	a := pd.AcquireReadOnly()
	defer pd.Release()

	ke := 0.0
	for i := 0; i < a.N; i++ {
		ke += 0.5 * (a.VX[i]*a.VX[i] + a.VY[i]*a.VY[i] + a.VZ[i]*a.VZ[i])
	}
	m.sum += 2 * ke / (3 * float64(a.N))
	m.count++
}

func (m *Temperature) Value() float64 {
	if m.count == 0 {
		return 0
	}
	return m.sum / float64(m.count)
}

func (m *Temperature) Reset() { m.sum, m.count = 0, 0 }

// MaxSpeed records the largest particle speed seen during the run. A runaway
// value is the usual first sign of a too-large timestep.
type MaxSpeed struct {
	max float64
}

func (m *MaxSpeed) Name() string { return "max_speed" }

func (m *MaxSpeed) Observe(pd *particle.Data, timestep uint64) {
	a := pd.AcquireReadOnly()
	defer pd.Release()

	for i := 0; i < a.N; i++ {
		v2 := a.VX[i]*a.VX[i] + a.VY[i]*a.VY[i] + a.VZ[i]*a.VZ[i]
		if v2 > m.max*m.max {
			m.max = math.Sqrt(v2)
		}
	}
}

func (m *MaxSpeed) Value() float64 { return m.max }
func (m *MaxSpeed) Reset()         { m.max = 0 }

// MaxDisplacement tracks the largest minimum-imaged distance any particle has
// traveled from where it sat at the first observation, keyed by tag so
// reorders do not confuse it.
type MaxDisplacement struct {
	x0, y0, z0 []float64
	max        float64
}

func (m *MaxDisplacement) Name() string { return "max_displacement" }

func (m *MaxDisplacement) Observe(pd *particle.Data, timestep uint64) {
	a := pd.AcquireReadOnly()
	defer pd.Release()

	if len(m.x0) != a.N {
		m.x0 = make([]float64, a.N)
		m.y0 = make([]float64, a.N)
		m.z0 = make([]float64, a.N)
		for i := 0; i < a.N; i++ {
			t := a.Tag[i]
			m.x0[t], m.y0[t], m.z0[t] = a.X[i], a.Y[i], a.Z[i]
		}
		return
	}

	bx := pd.Box()
	for i := 0; i < a.N; i++ {
		t := a.Tag[i]
		dx, dy, dz := bx.MinImage(a.X[i]-m.x0[t], a.Y[i]-m.y0[t], a.Z[i]-m.z0[t])
		if d2 := dx*dx + dy*dy + dz*dz; d2 > m.max*m.max {
			m.max = math.Sqrt(d2)
		}
	}
}

func (m *MaxDisplacement) Value() float64 { return m.max }

func (m *MaxDisplacement) Reset() {
	m.x0, m.y0, m.z0 = nil, nil, nil
	m.max = 0
}
