package neighbor

import (
	"github.com/raghav-m/mdcore/internal/box"
	"github.com/raghav-m/mdcore/internal/parallel"
	"github.com/raghav-m/mdcore/internal/particle"
)

// binnedStrategy prunes candidates with uniform spatial cells sized at least
// r_cut + r_buff per axis, so neighbors can only live in a particle's own
// cell or the 26 surrounding ones. The cell partition is a pruning heuristic
// only: distances are still minimum-imaged through the box, never through
// cell boundaries.
//
// Two phases per rebuild. Binning copies each particle's index, coordinates,
// and tag into its cell, so the list pass streams each candidate cell
// sequentially instead of gathering positions through random index lookups.
// The bin arrays are transient: cleared and refilled every rebuild from the
// current box, never reused across timesteps.
type binnedStrategy struct {
	mx, my, mz       int
	bins             [][]int
	binX, binY, binZ [][]float64
	binTag           [][]int
}

func newBinnedStrategy() *binnedStrategy {
	return &binnedStrategy{}
}

func (s *binnedStrategy) name() string { return "binned" }

func (s *binnedStrategy) build(a particle.Arrays, bx box.Box, excl *exclusionTable, rmax float64, mode StorageMode, table [][]int) {
	s.updateBins(a, bx, rmax)
	s.buildFromBins(a, bx, excl, rmax, mode, table)
}

// minListChunk is the per-goroutine particle count below which the list pass
// runs inline.
const minListChunk = 256

func (s *binnedStrategy) updateBins(a particle.Arrays, bx box.Box, rmax float64) {
	lx, ly, lz := bx.Lengths()

	// Cell counts per axis, clamped so a box smaller than the interaction
	// radius still gets one cell.
	s.mx = int(lx / rmax)
	s.my = int(ly / rmax)
	s.mz = int(lz / rmax)
	if s.mx == 0 {
		s.mx = 1
	}
	if s.my == 0 {
		s.my = 1
	}
	if s.mz == 0 {
		s.mz = 1
	}

	ncell := s.mx * s.my * s.mz
	if len(s.bins) != ncell {
		s.bins = make([][]int, ncell)
		s.binX = make([][]float64, ncell)
		s.binY = make([][]float64, ncell)
		s.binZ = make([][]float64, ncell)
		s.binTag = make([][]int, ncell)
	}
	for i := 0; i < ncell; i++ {
		s.bins[i] = s.bins[i][:0]
		s.binX[i] = s.binX[i][:0]
		s.binY[i] = s.binY[i][:0]
		s.binZ[i] = s.binZ[i][:0]
		s.binTag[i] = s.binTag[i][:0]
	}

	scalex := float64(s.mx) / lx
	scaley := float64(s.my) / ly
	scalez := float64(s.mz) / lz

	for n := 0; n < a.N; n++ {
		ib := int((a.X[n] - bx.XLo) * scalex)
		jb := int((a.Y[n] - bx.YLo) * scaley)
		kb := int((a.Z[n] - bx.ZLo) * scalez)

		// A coordinate exactly at the upper box boundary belongs to bin 0 of
		// the next periodic image.
		if ib == s.mx {
			ib = 0
		}
		if jb == s.my {
			jb = 0
		}
		if kb == s.mz {
			kb = 0
		}

		bin := ib*(s.my*s.mz) + jb*s.mz + kb
		s.bins[bin] = append(s.bins[bin], n)
		s.binX[bin] = append(s.binX[bin], a.X[n])
		s.binY[bin] = append(s.binY[bin], a.Y[n])
		s.binZ[bin] = append(s.binZ[bin], a.Z[n])
		s.binTag[bin] = append(s.binTag[bin], a.Tag[n])
	}
}

func (s *binnedStrategy) buildFromBins(a particle.Arrays, bx box.Box, excl *exclusionTable, rmax float64, mode StorageMode, table [][]int) {
	rmaxsq := rmax * rmax
	lx, ly, lz := bx.Lengths()
	scalex := float64(s.mx) / lx
	scaley := float64(s.my) / ly
	scalez := float64(s.mz) / lz

	// With fewer than three cells on an axis the +1 and -1 stencil offsets
	// alias the same cell; deduplicate so no candidate is visited twice.
	xOff := stencilOffsets(s.mx)
	yOff := stencilOffsets(s.my)
	zOff := stencilOffsets(s.mz)

	// Each particle writes only its own table row: under half mode the pair
	// is emitted by the owner with the smaller index, under full mode each
	// side emits its own direction. No cross-row writes, so the pass is
	// parallel per particle chunk.
	parallel.For(a.N, minListChunk, func(start, end int) {
		for n := start; n < end; n++ {
			xn, yn, zn := a.X[n], a.Y[n], a.Z[n]
			e := excl.of(a.Tag[n])

			ib := int((xn - bx.XLo) * scalex)
			jb := int((yn - bx.YLo) * scaley)
			kb := int((zn - bx.ZLo) * scalez)
			if ib == s.mx {
				ib = 0
			}
			if jb == s.my {
				jb = 0
			}
			if kb == s.mz {
				kb = 0
			}

			for _, di := range xOff {
				ci := wrapCell(ib+di, s.mx)
				for _, dj := range yOff {
					cj := wrapCell(jb+dj, s.my)
					for _, dk := range zOff {
						ck := wrapCell(kb+dk, s.mz)

						bin := ci*(s.my*s.mz) + cj*s.mz + ck
						binList := s.bins[bin]
						binX := s.binX[bin]
						binY := s.binY[bin]
						binZ := s.binZ[bin]
						binTag := s.binTag[bin]

						for t := range binList {
							m := binList[t]
							if m == n {
								continue
							}
							if mode != Full && n >= m {
								continue
							}

							dx, dy, dz := bx.MinImage(binX[t]-xn, binY[t]-yn, binZ[t]-zn)
							if dx*dx+dy*dy+dz*dz >= rmaxsq {
								continue
							}

							tm := binTag[t]
							if e[0] == tm || e[1] == tm || e[2] == tm || e[3] == tm {
								continue
							}

							table[n] = append(table[n], m)
						}
					}
				}
			}
		}
	})
}

// binStats reports min/max/mean cell occupancy from the last build.
func (s *binnedStrategy) binStats() (min, max int, avg float64) {
	if len(s.bins) == 0 {
		return 0, 0, 0
	}
	min = len(s.bins[0])
	for _, b := range s.bins {
		if len(b) < min {
			min = len(b)
		}
		if len(b) > max {
			max = len(b)
		}
		avg += float64(len(b))
	}
	avg /= float64(len(s.bins))
	return min, max, avg
}

func stencilOffsets(m int) []int {
	switch {
	case m >= 3:
		return []int{-1, 0, 1}
	case m == 2:
		return []int{-1, 0}
	default:
		return []int{0}
	}
}

func wrapCell(c, m int) int {
	if c < 0 {
		return c + m
	}
	if c >= m {
		return c - m
	}
	return c
}
