package neighbor

import (
	"github.com/raghav-m/mdcore/internal/box"
	"github.com/raghav-m/mdcore/internal/particle"
)

// strategy builds neighbor candidates into table, one row per particle index.
// Rows are pre-cleared by the caller. Half mode stores each pair once with
// i < j; full mode stores both directions.
type strategy interface {
	name() string
	build(a particle.Arrays, bx box.Box, excl *exclusionTable, rmax float64, mode StorageMode, table [][]int)
}

// directStrategy is the all-pairs reference implementation. The other
// strategies must match its output as an unordered pair set.
type directStrategy struct{}

func (directStrategy) name() string { return "direct" }

func (directStrategy) build(a particle.Arrays, bx box.Box, excl *exclusionTable, rmax float64, mode StorageMode, table [][]int) {
	rmaxsq := rmax * rmax

	for i := 0; i < a.N; i++ {
		xi, yi, zi := a.X[i], a.Y[i], a.Z[i]
		e := excl.of(a.Tag[i])

		for j := i + 1; j < a.N; j++ {
			tj := a.Tag[j]
			if e[0] == tj || e[1] == tj || e[2] == tj || e[3] == tj {
				continue
			}

			dx, dy, dz := bx.MinImage(a.X[j]-xi, a.Y[j]-yi, a.Z[j]-zi)
			if dx*dx+dy*dy+dz*dz < rmaxsq {
				table[i] = append(table[i], j)
				if mode == Full {
					table[j] = append(table[j], i)
				}
			}
		}
	}
}

// unrolledStrategy runs the direct scan four candidates at a time: the
// displacement, wrap, and cutoff predicate are evaluated for a whole lane
// batch before any survivor is appended. Same inclusion predicate, same
// resulting pair set.
type unrolledStrategy struct{}

func (unrolledStrategy) name() string { return "unrolled" }

func (unrolledStrategy) build(a particle.Arrays, bx box.Box, excl *exclusionTable, rmax float64, mode StorageMode, table [][]int) {
	rmaxsq := rmax * rmax
	lx, ly, lz := bx.Lengths()
	hx, hy, hz := lx/2, ly/2, lz/2

	for i := 0; i < a.N; i++ {
		xi, yi, zi := a.X[i], a.Y[i], a.Z[i]
		e := excl.of(a.Tag[i])

		j := i + 1
		for ; j+3 < a.N; j += 4 {
			var rsq [4]float64
			for k := 0; k < 4; k++ {
				dx := pullback(a.X[j+k]-xi, lx, hx)
				dy := pullback(a.Y[j+k]-yi, ly, hy)
				dz := pullback(a.Z[j+k]-zi, lz, hz)
				rsq[k] = dx*dx + dy*dy + dz*dz
			}

			for k := 0; k < 4; k++ {
				if rsq[k] >= rmaxsq {
					continue
				}
				tj := a.Tag[j+k]
				if e[0] == tj || e[1] == tj || e[2] == tj || e[3] == tj {
					continue
				}
				table[i] = append(table[i], j+k)
				if mode == Full {
					table[j+k] = append(table[j+k], i)
				}
			}
		}

		// remainder lanes
		for ; j < a.N; j++ {
			dx := pullback(a.X[j]-xi, lx, hx)
			dy := pullback(a.Y[j]-yi, ly, hy)
			dz := pullback(a.Z[j]-zi, lz, hz)
			if dx*dx+dy*dy+dz*dz >= rmaxsq {
				continue
			}
			tj := a.Tag[j]
			if e[0] == tj || e[1] == tj || e[2] == tj || e[3] == tj {
				continue
			}
			table[i] = append(table[i], j)
			if mode == Full {
				table[j] = append(table[j], i)
			}
		}
	}
}

// pullback is the single-wrap minimum-image fold for one component, written
// in the masked form the lane loop wants.
func pullback(d, l, half float64) float64 {
	var down, up float64
	if d >= half {
		down = l
	}
	if d < -half {
		up = l
	}
	return d + up - down
}
