// Package box models the periodic rectangular simulation domain and the
// minimum-image convention used for all pair displacements.
package box

import (
	"errors"
	"fmt"
)

// ErrDegenerate indicates a box with hi <= lo on some axis. A degenerate box
// is a configuration bug, never a recoverable condition.
var ErrDegenerate = errors.New("box: degenerate extent (hi <= lo)")

// Box is a periodic rectangular domain. The bounds are mutable over the life
// of a simulation (rescaling), so consumers must re-read the box from the
// particle data every timestep rather than cache it.
type Box struct {
	XLo, XHi float64
	YLo, YHi float64
	ZLo, ZHi float64
}

// NewCubic returns a cubic box [0, l) on every axis.
func NewCubic(l float64) Box {
	return Box{0, l, 0, l, 0, l}
}

// Validate returns ErrDegenerate if any axis has zero or negative extent.
func (b Box) Validate() error {
	if b.XHi <= b.XLo || b.YHi <= b.YLo || b.ZHi <= b.ZLo {
		return fmt.Errorf("%w: [%g,%g)x[%g,%g)x[%g,%g)",
			ErrDegenerate, b.XLo, b.XHi, b.YLo, b.YHi, b.ZLo, b.ZHi)
	}
	return nil
}

// Lengths returns the edge lengths of the box.
func (b Box) Lengths() (lx, ly, lz float64) {
	return b.XHi - b.XLo, b.YHi - b.YLo, b.ZHi - b.ZLo
}

// Volume returns the box volume.
func (b Box) Volume() float64 {
	lx, ly, lz := b.Lengths()
	return lx * ly * lz
}

// MinImage wraps the displacement (dx,dy,dz) into [-L/2, L/2) on each axis.
// Only a single wrap is applied per axis: between neighbor-list rebuilds the
// skin policy guarantees no particle strays more than one image from the box,
// so separations beyond a full box length never occur at this layer.
func (b Box) MinImage(dx, dy, dz float64) (float64, float64, float64) {
	lx, ly, lz := b.Lengths()

	if dx >= lx/2 {
		dx -= lx
	} else if dx < -lx/2 {
		dx += lx
	}

	if dy >= ly/2 {
		dy -= ly
	} else if dy < -ly/2 {
		dy += ly
	}

	if dz >= lz/2 {
		dz -= lz
	} else if dz < -lz/2 {
		dz += lz
	}

	return dx, dy, dz
}

// Wrap folds an absolute position back into the box, again assuming the
// position is at most one image away.
func (b Box) Wrap(x, y, z float64) (float64, float64, float64) {
	lx, ly, lz := b.Lengths()

	if x >= b.XHi {
		x -= lx
	} else if x < b.XLo {
		x += lx
	}

	if y >= b.YHi {
		y -= ly
	} else if y < b.YLo {
		y += ly
	}

	if z >= b.ZHi {
		z -= lz
	} else if z < b.ZLo {
		z += lz
	}

	return x, y, z
}
