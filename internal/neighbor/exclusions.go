package neighbor

import "fmt"

// ExcludeEmpty marks an unused exclusion slot. Tags are never negative, so
// the sentinel can be compared against candidate tags without a guard.
const ExcludeEmpty = -1

// maxExclusions is the fixed per-particle exclusion capacity, enough for the
// bonded partners short-range force fields exclude. Overflowing it is an
// explicit error, never silent growth.
const maxExclusions = 4

// exclusionTable stores, per tag, the tags whose pairs must never enter the
// neighbor list. Symmetric by construction: add inserts into both rows.
type exclusionTable struct {
	entries [][maxExclusions]int
}

func newExclusionTable(n int) *exclusionTable {
	t := &exclusionTable{entries: make([][maxExclusions]int, n)}
	for i := range t.entries {
		t.entries[i] = [maxExclusions]int{ExcludeEmpty, ExcludeEmpty, ExcludeEmpty, ExcludeEmpty}
	}
	return t
}

// add records the symmetric exclusion (tag1, tag2). Both rows are checked for
// a free slot before either is written, so a failed add leaves the table
// untouched. Duplicate pairs are the caller's responsibility.
func (t *exclusionTable) add(tag1, tag2 int) error {
	n := len(t.entries)
	if tag1 < 0 || tag1 >= n || tag2 < 0 || tag2 >= n {
		return fmt.Errorf("%w: exclusion (%d,%d) with %d particles", ErrOutOfRange, tag1, tag2, n)
	}

	s1 := t.freeSlot(tag1)
	s2 := t.freeSlot(tag2)
	if s1 < 0 {
		return fmt.Errorf("%w: tag %d", ErrExclusionListFull, tag1)
	}
	if s2 < 0 {
		return fmt.Errorf("%w: tag %d", ErrExclusionListFull, tag2)
	}

	t.entries[tag1][s1] = tag2
	t.entries[tag2][s2] = tag1
	return nil
}

func (t *exclusionTable) freeSlot(tag int) int {
	for s, e := range t.entries[tag] {
		if e == ExcludeEmpty {
			return s
		}
	}
	return -1
}

// of returns the exclusion row for a tag. Membership is a four-way compare
// against the returned array on the hot path.
func (t *exclusionTable) of(tag int) [maxExclusions]int {
	return t.entries[tag]
}

// snapshot copies the table into the layout device builds consume.
func (t *exclusionTable) snapshot() [][maxExclusions]int {
	out := make([][maxExclusions]int, len(t.entries))
	copy(out, t.entries)
	return out
}
