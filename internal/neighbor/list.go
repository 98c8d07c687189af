package neighbor

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"github.com/raghav-m/mdcore/internal/compute"
	"github.com/raghav-m/mdcore/internal/particle"
)

// StorageMode selects the neighbor table layout.
type StorageMode int

const (
	// Half stores each pair once, owned by the smaller index.
	Half StorageMode = iota
	// Full stores both directions of each pair.
	Full
)

func (m StorageMode) String() string {
	switch m {
	case Half:
		return "half"
	case Full:
		return "full"
	default:
		return fmt.Sprintf("StorageMode(%d)", int(m))
	}
}

// Location tracks which physical copy of the table is authoritative.
type Location int

const (
	// LocHost: host copy authoritative, device copy stale.
	LocHost Location = iota
	// LocMirrored: host and device copies both valid.
	LocMirrored
	// LocDevice: device copy authoritative, host copy stale.
	LocDevice
)

func (l Location) String() string {
	switch l {
	case LocHost:
		return "host"
	case LocMirrored:
		return "mirrored"
	case LocDevice:
		return "device"
	default:
		return fmt.Sprintf("Location(%d)", int(l))
	}
}

// List is the neighbor list. It owns the exclusion table, the staleness
// detector's position snapshot, and the host/device mirror coordination.
type List struct {
	pd    *particle.Data
	rCut  float64
	rBuff float64
	mode  StorageMode
	strat strategy
	every uint64

	excl  *exclusionTable
	table [][]int

	// position snapshot at the last rebuild, owned by the staleness check
	lastX, lastY, lastZ []float64
	lastRebuild         uint64
	forceUpd            bool
	sortsSeen           uint64

	computedOnce bool
	lastComputed uint64

	updates       uint64
	forcedUpdates uint64

	loc     Location
	backend compute.Backend
	dev     *compute.DeviceList
}

// New allocates a neighbor list for the given particle data. The list is not
// computed until Compute is called; the storage mode defaults to half and the
// build strategy to direct.
func New(pd *particle.Data, rCut, rBuff float64) (*List, error) {
	if rCut < 0 || rBuff < 0 {
		return nil, fmt.Errorf("%w: r_cut=%g r_buff=%g", ErrInvalidConfiguration, rCut, rBuff)
	}

	n := pd.N()
	backend := compute.GetBackend()
	l := &List{
		pd:       pd,
		rCut:     rCut,
		rBuff:    rBuff,
		mode:     Half,
		strat:    directStrategy{},
		excl:     newExclusionTable(n),
		table:    make([][]int, n),
		lastX:    make([]float64, n),
		lastY:    make([]float64, n),
		lastZ:    make([]float64, n),
		forceUpd: true,
		loc:      LocHost,
		backend:  backend,
		dev:      backend.AllocList(n),
	}
	return l, nil
}

// SetStrategy selects the build strategy: "direct", "unrolled", or "binned".
func (l *List) SetStrategy(name string) error {
	switch name {
	case "direct":
		l.strat = directStrategy{}
	case "unrolled":
		l.strat = unrolledStrategy{}
	case "binned":
		l.strat = newBinnedStrategy()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
	l.forceUpd = true
	return nil
}

func (l *List) Strategy() string    { return l.strat.name() }
func (l *List) RCut() float64       { return l.rCut }
func (l *List) RBuff() float64      { return l.rBuff }
func (l *List) Mode() StorageMode   { return l.mode }
func (l *List) Location() Location  { return l.loc }
func (l *List) LastRebuild() uint64 { return l.lastRebuild }

// SetEvery sets the number of timesteps to wait after a rebuild before the
// displacement check runs again. Zero checks every step.
func (l *List) SetEvery(every uint64) { l.every = every }

// SetRCut replaces the cutoff and buffer radii. The change is deferred: it
// takes hold at the next Compute, which is forced to rebuild.
func (l *List) SetRCut(rCut, rBuff float64) error {
	if rCut < 0 || rBuff < 0 {
		return fmt.Errorf("%w: r_cut=%g r_buff=%g", ErrInvalidConfiguration, rCut, rBuff)
	}
	l.rCut = rCut
	l.rBuff = rBuff
	l.ForceUpdate()
	return nil
}

// SetStorageMode switches between half and full layouts, taking effect at the
// next Compute.
func (l *List) SetStorageMode(mode StorageMode) {
	l.mode = mode
	l.ForceUpdate()
}

// AddExclusion marks the pair (tag1, tag2) as never-neighbors, symmetrically.
// The pair disappears from the table at the next Compute.
func (l *List) AddExclusion(tag1, tag2 int) error {
	if err := l.excl.add(tag1, tag2); err != nil {
		return err
	}
	l.ForceUpdate()
	return nil
}

// Exclusions returns the excluded tags of the given tag; unused slots hold
// ExcludeEmpty.
func (l *List) Exclusions(tag int) ([4]int, error) {
	if tag < 0 || tag >= l.pd.N() {
		return [4]int{}, fmt.Errorf("%w: tag %d with %d particles", ErrOutOfRange, tag, l.pd.N())
	}
	return l.excl.of(tag), nil
}

// ForceUpdate makes the next Compute rebuild unconditionally.
func (l *List) ForceUpdate() { l.forceUpd = true }

// Compute brings the list up to date for the given timestep. Idempotent per
// timestep: repeated calls at the same step do nothing unless an update has
// been forced in between.
func (l *List) Compute(timestep uint64) {
	l.checkSortUpdate()

	if l.computedOnce && timestep == l.lastComputed && !l.forceUpd {
		return
	}

	if l.needsUpdating(timestep) {
		l.rebuild()
	}

	l.computedOnce = true
	l.lastComputed = timestep
}

// checkSortUpdate forces a rebuild when the particle data has been reordered
// since we last looked: the table is keyed by index, and a reorder
// invalidates every row. Reorders are counted rather than timestamped so a
// sort at timestep zero, or a second sort within one timestep, is still seen.
func (l *List) checkSortUpdate() {
	if sc := l.pd.SortCount(); sc > l.sortsSeen {
		l.sortsSeen = sc
		l.forceUpd = true
	}
}

// needsUpdating decides whether the table is stale. On a rebuild decision it
// snapshots current positions and records the timestep; the snapshot is
// overwritten wholesale, never patched.
func (l *List) needsUpdating(timestep uint64) bool {
	if timestep < l.lastRebuild+l.every && !l.forceUpd && l.rBuff >= 1e-6 {
		return false
	}

	a := l.pd.AcquireReadOnly()
	defer l.pd.Release()

	result := false
	switch {
	// Zero-width skin degenerates to rebuilding every step.
	case l.rBuff < 1e-6:
		l.forceUpd = false
		l.updates++
		result = true

	case l.forceUpd:
		l.forceUpd = false
		l.forcedUpdates++
		result = true

	case len(l.lastX) != a.N:
		// Particle count changed since the snapshot was taken.
		l.lastX = make([]float64, a.N)
		l.lastY = make([]float64, a.N)
		l.lastZ = make([]float64, a.N)
		l.forcedUpdates++
		result = true

	default:
		bx := l.pd.Box()
		if err := bx.Validate(); err != nil {
			panic(err)
		}

		// A particle must travel at least r_buff/2 before any pair can have
		// escaped the buffer margin.
		maxsq := (l.rBuff / 2) * (l.rBuff / 2)
		for i := 0; i < a.N; i++ {
			dx, dy, dz := bx.MinImage(a.X[i]-l.lastX[i], a.Y[i]-l.lastY[i], a.Z[i]-l.lastZ[i])
			if dx*dx+dy*dy+dz*dz >= maxsq {
				l.updates++
				result = true
				break
			}
		}
	}

	if result {
		copy(l.lastX, a.X)
		copy(l.lastY, a.Y)
		copy(l.lastZ, a.Z)
		l.lastRebuild = timestep
	}

	return result
}

// rebuild clears and fully repopulates the table from current positions. No
// incremental patching: a rebuild is always from scratch.
func (l *List) rebuild() {
	a := l.pd.AcquireReadOnly()
	defer l.pd.Release()

	bx := l.pd.Box()
	if err := bx.Validate(); err != nil {
		panic(err)
	}

	if len(l.table) != a.N {
		l.table = make([][]int, a.N)
		l.dev = l.backend.AllocList(a.N)
	}

	rmax := l.rCut + l.rBuff

	if l.backend.Available() {
		// Device-side rebuild: the device copy becomes authoritative and the
		// host copy is stale until someone reads it.
		l.backend.BuildList(l.dev, compute.BuildInput{
			X: a.X, Y: a.Y, Z: a.Z,
			Tag:        a.Tag,
			Exclusions: l.excl.snapshot(),
			Box:        bx,
			RMaxSq:     rmax * rmax,
			Full:       l.mode == Full,
		})
		l.loc = LocDevice
		return
	}

	for i := range l.table {
		l.table[i] = l.table[i][:0]
	}
	l.strat.build(a, bx, l.excl, rmax, l.mode, l.table)
	l.loc = LocHost
}

// List returns the host-side neighbor table, row per particle index. When the
// device copy is authoritative it is copied down first; afterwards both
// copies are valid until the next device-side rebuild.
func (l *List) List() [][]int {
	switch l.loc {
	case LocHost, LocMirrored:
		return l.table
	case LocDevice:
		l.table = l.backend.DownloadList(l.dev)
		l.loc = LocMirrored
		return l.table
	default:
		panic(fmt.Sprintf("neighbor: unrecognized storage location %d", int(l.loc)))
	}
}

// DeviceList returns the device-side table handle, copying up first if only
// the host copy is valid.
func (l *List) DeviceList() *compute.DeviceList {
	switch l.loc {
	case LocHost:
		l.backend.UploadList(l.dev, l.table)
		l.loc = LocMirrored
		return l.dev
	case LocMirrored, LocDevice:
		return l.dev
	default:
		panic(fmt.Sprintf("neighbor: unrecognized storage location %d", int(l.loc)))
	}
}

// EstimateNNeigh gives a mean-field estimate of neighbors per particle from
// the global number density and the cutoff+buffer sphere. O(1); can be badly
// wrong for clustered systems.
func (l *List) EstimateNNeigh() float64 {
	bx := l.pd.Box()
	nDens := float64(l.pd.N()) / bx.Volume()
	rmax := l.rCut + l.rBuff
	return nDens * 4.0 / 3.0 * math.Pi * rmax * rmax * rmax
}

// Stats summarizes rebuild activity and table shape, diagnostics only.
type Stats struct {
	Updates       uint64
	ForcedUpdates uint64
	LastRebuild   uint64
	Strategy      string
	Mode          StorageMode
	Location      Location

	NNeighMin int
	NNeighMax int
	NNeighAvg float64

	Binned  bool
	BinsMin int
	BinsMax int
	BinsAvg float64
}

// Stats gathers the current statistics. The table is read through List, so a
// device-resident table is copied down first; Location reports the state
// after that copy.
func (l *List) Stats() Stats {
	rows := l.List()

	st := Stats{
		Updates:       l.updates,
		ForcedUpdates: l.forcedUpdates,
		LastRebuild:   l.lastRebuild,
		Strategy:      l.strat.name(),
		Mode:          l.mode,
		Location:      l.loc,
	}
	if len(rows) > 0 {
		st.NNeighMin = len(rows[0])
		for _, r := range rows {
			if len(r) < st.NNeighMin {
				st.NNeighMin = len(r)
			}
			if len(r) > st.NNeighMax {
				st.NNeighMax = len(r)
			}
			st.NNeighAvg += float64(len(r))
		}
		st.NNeighAvg /= float64(len(rows))
	}

	if b, ok := l.strat.(*binnedStrategy); ok {
		st.Binned = true
		st.BinsMin, st.BinsMax, st.BinsAvg = b.binStats()
	}

	return st
}

// PrintStats writes the statistics in a plain tabular form. The format is
// diagnostic only and carries no compatibility promise.
func (l *List) PrintStats(w io.Writer) {
	st := l.Stats()
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "strategy\t%s (%s mode, %s)\n", st.Strategy, st.Mode, st.Location)
	fmt.Fprintf(tw, "updates\t%d (%d forced)\n", st.Updates, st.ForcedUpdates)
	fmt.Fprintf(tw, "n_neigh\tmin %d / max %d / avg %.2f\n", st.NNeighMin, st.NNeighMax, st.NNeighAvg)
	fmt.Fprintf(tw, "estimate\t%.2f neighbors/particle\n", l.EstimateNNeigh())
	if st.Binned {
		fmt.Fprintf(tw, "bins\tmin %d / max %d / avg %.2f\n", st.BinsMin, st.BinsMax, st.BinsAvg)
	}
	tw.Flush()
}
