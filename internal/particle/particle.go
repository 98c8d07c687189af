// Package particle owns the per-particle arrays of the simulation: positions,
// velocities, forces are kept elsewhere. Identity is split into a stable tag
// assigned at creation and a transient index into the arrays; the index may
// change when particles are reordered for cache locality, and the RTag table
// maps tags back to current indices at all times.
package particle

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/raghav-m/mdcore/internal/box"
)

// Arrays is a scoped view of the particle data. Views obtained through
// AcquireReadOnly must not be written through.
type Arrays struct {
	X, Y, Z    []float64
	VX, VY, VZ []float64
	Tag        []int
	RTag       []int
	N          int
}

// Data holds the particle arrays and the current simulation box.
type Data struct {
	n          int
	x, y, z    []float64
	vx, vy, vz []float64
	tag, rtag  []int

	bx         box.Box
	acquired   bool
	lastSorted uint64
	sortCount  uint64
}

// New allocates particle data for n particles in the given box. Tags are
// assigned 0..n-1 matching the initial indices.
func New(n int, bx box.Box) (*Data, error) {
	if n <= 0 {
		return nil, fmt.Errorf("particle: count must be positive, got %d", n)
	}
	if err := bx.Validate(); err != nil {
		return nil, err
	}

	d := &Data{
		n:  n,
		x:  make([]float64, n),
		y:  make([]float64, n),
		z:  make([]float64, n),
		vx: make([]float64, n),
		vy: make([]float64, n),
		vz: make([]float64, n),

		tag:  make([]int, n),
		rtag: make([]int, n),
		bx:   bx,
	}
	for i := 0; i < n; i++ {
		d.tag[i] = i
		d.rtag[i] = i
	}
	return d, nil
}

// NewLattice places n particles on a cubic lattice filling the box and seeds
// velocities uniformly in [-v,v] per component with the net momentum removed,
// where v = sqrt(temperature). Masses are unity throughout the engine.
func NewLattice(n int, bx box.Box, temperature float64, seed int64) (*Data, error) {
	d, err := New(n, bx)
	if err != nil {
		return nil, err
	}

	cells := int(math.Ceil(math.Cbrt(float64(n))))
	lx, ly, lz := bx.Lengths()
	ax := lx / float64(cells)
	ay := ly / float64(cells)
	az := lz / float64(cells)

	for i := 0; i < n; i++ {
		ix := i % cells
		iy := (i / cells) % cells
		iz := i / (cells * cells)
		d.x[i] = bx.XLo + (float64(ix)+0.5)*ax
		d.y[i] = bx.YLo + (float64(iy)+0.5)*ay
		d.z[i] = bx.ZLo + (float64(iz)+0.5)*az
	}

	rng := rand.New(rand.NewSource(seed))
	v := math.Sqrt(temperature)
	var px, py, pz float64
	for i := 0; i < n; i++ {
		d.vx[i] = v * (2*rng.Float64() - 1)
		d.vy[i] = v * (2*rng.Float64() - 1)
		d.vz[i] = v * (2*rng.Float64() - 1)
		px += d.vx[i]
		py += d.vy[i]
		pz += d.vz[i]
	}
	for i := 0; i < n; i++ {
		d.vx[i] -= px / float64(n)
		d.vy[i] -= py / float64(n)
		d.vz[i] -= pz / float64(n)
	}

	return d, nil
}

func (d *Data) N() int { return d.n }

// Box returns the current simulation box. Callers must not cache it across
// timesteps: the box is mutable.
func (d *Data) Box() box.Box { return d.bx }

// SetBox replaces the simulation box, e.g. when rescaling.
func (d *Data) SetBox(bx box.Box) error {
	if err := bx.Validate(); err != nil {
		return err
	}
	d.bx = bx
	return nil
}

// AcquireReadOnly grants scoped read access to the particle arrays. Every
// acquisition must be paired with exactly one Release.
func (d *Data) AcquireReadOnly() Arrays {
	return d.Acquire()
}

// Acquire grants scoped read-write access to the particle arrays.
func (d *Data) Acquire() Arrays {
	if d.acquired {
		panic("particle: nested acquire")
	}
	d.acquired = true
	return Arrays{
		X: d.x, Y: d.y, Z: d.z,
		VX: d.vx, VY: d.vy, VZ: d.vz,
		Tag: d.tag, RTag: d.rtag,
		N: d.n,
	}
}

// Release ends the current acquisition.
func (d *Data) Release() {
	if !d.acquired {
		panic("particle: release without acquire")
	}
	d.acquired = false
}

// LastSortedTimestep reports the timestep of the most recent reorder.
func (d *Data) LastSortedTimestep() uint64 { return d.lastSorted }

// SortCount reports how many reorders have happened over the lifetime of the
// data. The neighbor list compares it against the count it last consumed to
// detect that its index-keyed table went stale; unlike the timestep it
// distinguishes a reorder at timestep zero from no reorder at all.
func (d *Data) SortCount() uint64 { return d.sortCount }

// SortByCell reorders particles in cell-major order for cache locality:
// particles in the same spatial cell of width cellWidth become contiguous in
// the arrays. Tags travel with their particles and RTag is rebuilt, so
// RTag[Tag[i]] == i holds before and after.
func (d *Data) SortByCell(cellWidth float64, timestep uint64) {
	if d.acquired {
		panic("particle: sort while acquired")
	}

	lx, ly, lz := d.bx.Lengths()
	mx := int(lx / cellWidth)
	my := int(ly / cellWidth)
	mz := int(lz / cellWidth)
	if mx == 0 {
		mx = 1
	}
	if my == 0 {
		my = 1
	}
	if mz == 0 {
		mz = 1
	}

	key := func(i int) int {
		ib := int((d.x[i] - d.bx.XLo) / lx * float64(mx))
		jb := int((d.y[i] - d.bx.YLo) / ly * float64(my))
		kb := int((d.z[i] - d.bx.ZLo) / lz * float64(mz))
		if ib >= mx {
			ib = mx - 1
		}
		if jb >= my {
			jb = my - 1
		}
		if kb >= mz {
			kb = mz - 1
		}
		return ib*(my*mz) + jb*mz + kb
	}

	order := make([]int, d.n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return key(order[a]) < key(order[b])
	})

	d.permute(order)
	d.lastSorted = timestep
	d.sortCount++
}

// permute applies the given old-index order to every array and rebuilds RTag.
func (d *Data) permute(order []int) {
	for _, s := range [][]float64{d.x, d.y, d.z, d.vx, d.vy, d.vz} {
		tmp := make([]float64, d.n)
		for newIdx, oldIdx := range order {
			tmp[newIdx] = s[oldIdx]
		}
		copy(s, tmp)
	}

	tmp := make([]int, d.n)
	for newIdx, oldIdx := range order {
		tmp[newIdx] = d.tag[oldIdx]
	}
	copy(d.tag, tmp)

	for i, t := range d.tag {
		d.rtag[t] = i
	}
}
