package neighbor

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func rebuilds(l *List) uint64 {
	st := l.Stats()
	return st.Updates + st.ForcedUpdates
}

func hasPair(table [][]int, i, j int) bool {
	for _, m := range table[i] {
		if m == j {
			return true
		}
	}
	for _, m := range table[j] {
		if m == i {
			return true
		}
	}
	return false
}

func TestNewValidation(t *testing.T) {
	d := newData(t, 10, [][3]float64{{1, 1, 1}, {2, 2, 2}})

	if _, err := New(d, -1.0, 0.2); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("negative r_cut: expected ErrInvalidConfiguration, got %v", err)
	}
	if _, err := New(d, 1.0, -0.2); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("negative r_buff: expected ErrInvalidConfiguration, got %v", err)
	}
	if _, err := New(d, 1.0, 0.2); err != nil {
		t.Errorf("valid radii rejected: %v", err)
	}
}

func TestComputeIdempotentPerTimestep(t *testing.T) {
	d := randData(t, 50, 8.0, 7)
	l, err := New(d, 1.0, 0.2)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	l.Compute(5)
	before := rebuilds(l)
	first := make([][]int, len(l.List()))
	for i, r := range l.List() {
		first[i] = append([]int(nil), r...)
	}

	l.Compute(5)
	if got := rebuilds(l); got != before {
		t.Errorf("second Compute at same timestep rebuilt: %d -> %d", before, got)
	}

	second := l.List()
	for i := range first {
		if len(first[i]) != len(second[i]) {
			t.Fatalf("row %d changed length", i)
		}
		for k := range first[i] {
			if first[i][k] != second[i][k] {
				t.Fatalf("row %d changed content", i)
			}
		}
	}
}

func TestNoRebuildWithoutMotion(t *testing.T) {
	d := randData(t, 50, 8.0, 8)
	l, _ := New(d, 1.0, 0.2)

	l.Compute(0)
	n := rebuilds(l)

	for ts := uint64(1); ts <= 10; ts++ {
		l.Compute(ts)
	}
	if got := rebuilds(l); got != n {
		t.Errorf("static particles caused rebuilds: %d -> %d", n, got)
	}
}

// Skin soundness: two particles starting outside r_cut+r_buff drift toward
// each other. At every step, any pair truly inside r_cut must be in the list,
// and no rebuild may happen before someone has moved r_buff/2.
func TestSkinSoundness(t *testing.T) {
	const rCut, rBuff = 1.0, 0.2
	d := newData(t, 10, [][3]float64{
		{1.0, 5, 5},
		{2.25, 5, 5}, // separation 1.25, just outside r_cut+r_buff
	})
	l, _ := New(d, rCut, rBuff)
	l.Compute(0)

	if rebuilds(l) != 1 {
		t.Fatalf("expected exactly the initial rebuild, got %d", rebuilds(l))
	}

	const step = 0.02
	for ts := uint64(1); ts <= 15; ts++ {
		a := d.Acquire()
		a.X[0] += step
		a.X[1] -= step
		dist := a.X[1] - a.X[0]
		d.Release()

		l.Compute(ts)

		if dist < rCut && !hasPair(l.List(), 0, 1) {
			t.Fatalf("step %d: pair at distance %.3f inside cutoff but missing", ts, dist)
		}

		// Below r_buff/2 of per-particle travel the initial list must still
		// be in use.
		if ts <= 4 && rebuilds(l) != 1 {
			t.Fatalf("step %d: rebuild before r_buff/2 of travel", ts)
		}
	}

	if rebuilds(l) < 2 {
		t.Error("expected at least one displacement-triggered rebuild")
	}
}

func TestZeroSkinAlwaysRebuilds(t *testing.T) {
	d := newData(t, 10, [][3]float64{
		{1.0, 5, 5},
		{3.0, 5, 5},
	})
	l, _ := New(d, 1.0, 0.0)
	l.Compute(0)

	if hasPair(l.List(), 0, 1) {
		t.Fatal("pair inside cutoff before motion?")
	}

	// Tiny motion would never trip the displacement check; with a zero-width
	// skin the list must refresh anyway.
	a := d.Acquire()
	a.X[1] = 1.5
	d.Release()

	l.Compute(1)
	if !hasPair(l.List(), 0, 1) {
		t.Error("zero-width skin did not rebuild on its own")
	}
}

func TestEveryDefersDisplacementCheck(t *testing.T) {
	d := newData(t, 10, [][3]float64{
		{1.0, 5, 5},
		{3.0, 5, 5},
	})
	l, _ := New(d, 1.0, 0.2)
	l.SetEvery(5)
	l.Compute(0)

	a := d.Acquire()
	a.X[1] = 1.5 // far beyond r_buff/2
	d.Release()

	for ts := uint64(1); ts < 5; ts++ {
		l.Compute(ts)
		if hasPair(l.List(), 0, 1) {
			t.Fatalf("step %d: rebuild ran before the check cadence", ts)
		}
	}

	l.Compute(5)
	if !hasPair(l.List(), 0, 1) {
		t.Error("cadence reached but no rebuild")
	}
	if l.LastRebuild() != 5 {
		t.Errorf("expected rebuild at step 5, got %d", l.LastRebuild())
	}
}

func TestSetRCutDeferredAndValidated(t *testing.T) {
	d := newData(t, 10, [][3]float64{
		{1.0, 5, 5},
		{2.5, 5, 5},
	})
	l, _ := New(d, 1.0, 0.2)
	l.Compute(0)

	if hasPair(l.List(), 0, 1) {
		t.Fatal("pair at 1.5 inside r_cut+r_buff=1.2?")
	}

	if err := l.SetRCut(-2, 0.2); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration, got %v", err)
	}

	if err := l.SetRCut(2.0, 0.2); err != nil {
		t.Fatalf("set r_cut: %v", err)
	}
	// Deferred: the table is untouched until the next Compute.
	if hasPair(l.List(), 0, 1) {
		t.Error("SetRCut took effect before Compute")
	}

	l.Compute(1)
	if !hasPair(l.List(), 0, 1) {
		t.Error("new cutoff not applied at next Compute")
	}
}

func TestStorageModeSwitchForcesRebuild(t *testing.T) {
	d := randData(t, 80, 6.0, 11)
	l, _ := New(d, 1.0, 0.2)
	l.Compute(0)
	half := pairSetHalf(t, l.List())

	l.SetStorageMode(Full)
	l.Compute(0) // same timestep: forced update must still go through
	full := pairSetFull(t, l.List())

	samePairs(t, full, half, "full vs half duality")
}

func TestReorderForcesRebuild(t *testing.T) {
	d := randData(t, 60, 8.0, 12)
	l, _ := New(d, 1.0, 0.2)
	if err := l.SetStrategy("binned"); err != nil {
		t.Fatalf("set strategy: %v", err)
	}
	l.Compute(0)

	d.SortByCell(1.2, 3)
	l.Compute(3)

	if l.LastRebuild() != 3 {
		t.Fatalf("reorder did not force a rebuild, last rebuild %d", l.LastRebuild())
	}

	// The rebuilt table must match ground truth on the new indices.
	got := pairSetHalf(t, l.List())
	excl := newExclusionTable(d.N())
	want := pairSetHalf(t, runStrategy(t, directStrategy{}, d, excl, 1.2, Half))
	samePairs(t, got, want, "post-reorder table")
}

func TestReorderAtTimestepZeroForcesRebuild(t *testing.T) {
	// A sort at timestep 0 reports the same LastSortedTimestep as no sort at
	// all; the reorder count must still flag the stale table.
	d := randData(t, 60, 8.0, 17)
	l, _ := New(d, 1.0, 0.2)
	l.Compute(0)

	d.SortByCell(1.2, 0)
	l.Compute(0)

	if st := l.Stats(); st.ForcedUpdates != 2 {
		t.Fatalf("timestep-zero reorder not detected: %d forced updates, want 2", st.ForcedUpdates)
	}

	got := pairSetHalf(t, l.List())
	excl := newExclusionTable(d.N())
	want := pairSetHalf(t, runStrategy(t, directStrategy{}, d, excl, 1.2, Half))
	samePairs(t, got, want, "table after timestep-zero reorder")
}

func TestExclusionsSurviveReorder(t *testing.T) {
	// Exclusions are keyed by tag, so they must keep holding after indices
	// are reshuffled.
	d := newData(t, 10, [][3]float64{
		{9.5, 9.5, 9.5},
		{9.8, 9.5, 9.5},
		{0.5, 0.5, 0.5},
	})
	l, _ := New(d, 1.0, 0.2)
	if err := l.AddExclusion(0, 1); err != nil {
		t.Fatalf("add exclusion: %v", err)
	}

	d.SortByCell(1.2, 1) // moves the pair to different indices
	l.Compute(1)

	a := d.AcquireReadOnly()
	i0, i1 := a.RTag[0], a.RTag[1]
	d.Release()

	if hasPair(l.List(), i0, i1) {
		t.Error("excluded pair reappeared after reorder")
	}
}

func TestExclusionCapacityAndRange(t *testing.T) {
	d := randData(t, 8, 10.0, 13)
	l, _ := New(d, 1.0, 0.2)

	for _, other := range []int{1, 2, 3, 4} {
		if err := l.AddExclusion(0, other); err != nil {
			t.Fatalf("exclusion %d: %v", other, err)
		}
	}

	if err := l.AddExclusion(0, 5); !errors.Is(err, ErrExclusionListFull) {
		t.Errorf("fifth exclusion: expected ErrExclusionListFull, got %v", err)
	}
	// The failed add must not have touched the partner's row either.
	e, err := l.Exclusions(5)
	if err != nil {
		t.Fatalf("exclusions lookup: %v", err)
	}
	if e != [4]int{ExcludeEmpty, ExcludeEmpty, ExcludeEmpty, ExcludeEmpty} {
		t.Errorf("failed add left a partial entry: %v", e)
	}

	if err := l.AddExclusion(0, 8); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("tag == N: expected ErrOutOfRange, got %v", err)
	}
	if err := l.AddExclusion(-1, 2); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("negative tag: expected ErrOutOfRange, got %v", err)
	}

	// Symmetry of successful adds.
	e, _ = l.Exclusions(1)
	if e[0] != 0 {
		t.Errorf("exclusion not symmetric: tag 1 has %v", e)
	}
}

func TestEstimateNNeigh(t *testing.T) {
	d := randData(t, 100, 10.0, 14)
	l, _ := New(d, 1.0, 0.2)

	want := 100.0 / 1000.0 * 4.0 / 3.0 * math.Pi * 1.2 * 1.2 * 1.2
	if got := l.EstimateNNeigh(); math.Abs(got-want) > 1e-12 {
		t.Errorf("estimate %g, want %g", got, want)
	}
}

func TestSetStrategyUnknown(t *testing.T) {
	d := randData(t, 4, 10.0, 15)
	l, _ := New(d, 1.0, 0.2)
	if err := l.SetStrategy("octree"); !errors.Is(err, ErrUnknownStrategy) {
		t.Errorf("expected ErrUnknownStrategy, got %v", err)
	}
}

func TestPrintStats(t *testing.T) {
	d := randData(t, 30, 6.0, 16)
	l, _ := New(d, 1.0, 0.2)
	l.SetStrategy("binned")
	l.Compute(0)

	var sb strings.Builder
	l.PrintStats(&sb)
	out := sb.String()
	for _, want := range []string{"binned", "updates", "n_neigh", "bins"} {
		if !strings.Contains(out, want) {
			t.Errorf("stats output missing %q:\n%s", want, out)
		}
	}
}
