package compute

import "github.com/raghav-m/mdcore/internal/box"

// DeviceList is an opaque handle to a backend-resident neighbor table.
// Backends without a real device keep the rows in the host shadow.
type DeviceList struct {
	n      int
	rows   [][]int
	handle uintptr
}

// N returns the number of particle rows the list was allocated for.
func (d *DeviceList) N() int { return d.n }

// BuildInput bundles everything a device-side neighbor rebuild needs.
// Exclusions is indexed by tag; unused slots hold -1, which never matches a
// real tag.
type BuildInput struct {
	X, Y, Z    []float64
	Tag        []int
	Exclusions [][4]int
	Box        box.Box
	RMaxSq     float64
	Full       bool
}

// ForceInput bundles a Lennard-Jones force evaluation over a device list.
type ForceInput struct {
	X, Y, Z        []float64
	List           *DeviceList
	Full           bool
	Box            box.Box
	Epsilon, Sigma float64
	RCut           float64
}

// ForceOutput carries per-particle forces and the total potential energy.
type ForceOutput struct {
	FX, FY, FZ []float64
	Potential  float64
}

// Backend is the accelerator contract. Upload and download are
// unconditionally correctness-preserving but expensive; callers elide them
// through the neighbor package's location state machine.
type Backend interface {
	Name() string
	Available() bool
	Cleanup()

	AllocList(n int) *DeviceList
	UploadList(d *DeviceList, rows [][]int)
	DownloadList(d *DeviceList) [][]int
	BuildList(d *DeviceList, in BuildInput)
	LJForces(in ForceInput) ForceOutput
}

var activeBackend Backend

func init() {
	activeBackend = AutoSelectBackend()
}

func SetBackend(b Backend) {
	if activeBackend != nil {
		activeBackend.Cleanup()
	}
	activeBackend = b
}

func GetBackend() Backend {
	return activeBackend
}

func AutoSelectBackend() Backend {
	return NewCUDABackend()
}
