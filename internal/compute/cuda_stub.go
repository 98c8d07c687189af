//go:build !cuda

package compute

// CUDABackend without the cuda build tag: reports unavailable and runs every
// operation against a host-side shadow of the device list. This keeps the
// offload code paths exercisable on machines without a GPU.
type CUDABackend struct{}

func NewCUDABackend() *CUDABackend {
	return &CUDABackend{}
}

func (c *CUDABackend) Name() string    { return "cuda (not available)" }
func (c *CUDABackend) Available() bool { return false }
func (c *CUDABackend) Cleanup()        {}

func (c *CUDABackend) AllocList(n int) *DeviceList {
	return &DeviceList{n: n, rows: make([][]int, n)}
}

func (c *CUDABackend) UploadList(d *DeviceList, rows [][]int) {
	d.n = len(rows)
	d.rows = copyRows(rows)
}

func (c *CUDABackend) DownloadList(d *DeviceList) [][]int {
	return copyRows(d.rows)
}

func (c *CUDABackend) BuildList(d *DeviceList, in BuildInput) {
	d.n = len(in.X)
	d.rows = HostBuild(in)
}

func (c *CUDABackend) LJForces(in ForceInput) ForceOutput {
	return hostLJForces(in, in.List.rows)
}
