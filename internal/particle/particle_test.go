package particle

import (
	"math"
	"testing"

	"github.com/raghav-m/mdcore/internal/box"
)

func TestNewValidation(t *testing.T) {
	if _, err := New(0, box.NewCubic(10)); err == nil {
		t.Error("expected error for zero particles")
	}
	if _, err := New(8, box.Box{XLo: 0, XHi: 0, YLo: 0, YHi: 1, ZLo: 0, ZHi: 1}); err == nil {
		t.Error("expected error for degenerate box")
	}
}

func TestAcquireRelease(t *testing.T) {
	d, err := New(4, box.NewCubic(10))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	a := d.AcquireReadOnly()
	if a.N != 4 || len(a.X) != 4 || len(a.Tag) != 4 {
		t.Errorf("unexpected array shape: N=%d", a.N)
	}
	d.Release()

	defer func() {
		if recover() == nil {
			t.Error("expected panic on unbalanced release")
		}
	}()
	d.Release()
}

func TestNestedAcquirePanics(t *testing.T) {
	d, _ := New(2, box.NewCubic(5))
	d.Acquire()
	defer d.Release()

	defer func() {
		if recover() == nil {
			t.Error("expected panic on nested acquire")
		}
	}()
	d.Acquire()
}

func TestSortByCellPreservesIdentity(t *testing.T) {
	bx := box.NewCubic(10)
	d, err := NewLattice(27, bx, 1.0, 42)
	if err != nil {
		t.Fatalf("lattice: %v", err)
	}

	// Remember each tag's position before the reorder.
	a := d.AcquireReadOnly()
	posByTag := make(map[int][3]float64, a.N)
	for i := 0; i < a.N; i++ {
		posByTag[a.Tag[i]] = [3]float64{a.X[i], a.Y[i], a.Z[i]}
	}
	d.Release()

	d.SortByCell(2.5, 7)

	if d.LastSortedTimestep() != 7 {
		t.Errorf("expected lastSorted 7, got %d", d.LastSortedTimestep())
	}
	if d.SortCount() != 1 {
		t.Errorf("expected sort count 1, got %d", d.SortCount())
	}

	a = d.AcquireReadOnly()
	defer d.Release()

	for i := 0; i < a.N; i++ {
		if a.RTag[a.Tag[i]] != i {
			t.Fatalf("rtag broken: tag %d at index %d, rtag says %d", a.Tag[i], i, a.RTag[a.Tag[i]])
		}
		want := posByTag[a.Tag[i]]
		if a.X[i] != want[0] || a.Y[i] != want[1] || a.Z[i] != want[2] {
			t.Fatalf("tag %d lost its position after sort", a.Tag[i])
		}
	}
}

func TestLatticeInBoxZeroMomentum(t *testing.T) {
	bx := box.NewCubic(8)
	d, err := NewLattice(64, bx, 1.5, 1)
	if err != nil {
		t.Fatalf("lattice: %v", err)
	}

	a := d.AcquireReadOnly()
	defer d.Release()

	var px, py, pz float64
	for i := 0; i < a.N; i++ {
		if a.X[i] < bx.XLo || a.X[i] >= bx.XHi ||
			a.Y[i] < bx.YLo || a.Y[i] >= bx.YHi ||
			a.Z[i] < bx.ZLo || a.Z[i] >= bx.ZHi {
			t.Fatalf("particle %d outside box: (%g,%g,%g)", i, a.X[i], a.Y[i], a.Z[i])
		}
		px += a.VX[i]
		py += a.VY[i]
		pz += a.VZ[i]
	}

	if math.Abs(px) > 1e-9 || math.Abs(py) > 1e-9 || math.Abs(pz) > 1e-9 {
		t.Errorf("net momentum not removed: (%g,%g,%g)", px, py, pz)
	}
}
