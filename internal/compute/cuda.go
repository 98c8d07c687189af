//go:build cuda

package compute

/*
#cgo CFLAGS: -I/opt/cuda/include
#cgo LDFLAGS: -L/opt/cuda/lib64 -L${SRCDIR} -lcudart -lkernels -lstdc++
#include <stdlib.h>

extern int cuda_device_count();
extern const char* cuda_device_name_get();
extern unsigned long nlist_alloc(int n, int height);
extern void nlist_free(unsigned long handle);
extern void nlist_copy_htod(unsigned long handle, unsigned int* flat, int n, int height);
extern void nlist_copy_dtoh(unsigned long handle, unsigned int* flat, int n, int height);
extern void nlist_build_gpu(unsigned long handle, float* x, float* y, float* z,
	unsigned int* tag, int* excl, int n, float lx, float ly, float lz,
	float rmaxsq, int full);
extern void lj_forces_gpu(unsigned long handle, float* x, float* y, float* z,
	float* fx, float* fy, float* fz, float* pe, int n,
	float lx, float ly, float lz, float eps, float sigma, float rcut, int full);
*/
import "C"
import "unsafe"

// defaultHeight is the initial per-particle capacity of the device table; the
// table is regrown when a rebuild overflows it.
const defaultHeight = 64

type CUDABackend struct {
	available  bool
	deviceName string
	height     int
}

func NewCUDABackend() *CUDABackend {
	count := int(C.cuda_device_count())
	name := ""
	if count > 0 {
		name = C.GoString(C.cuda_device_name_get())
	}
	return &CUDABackend{
		available:  count > 0,
		deviceName: name,
		height:     defaultHeight,
	}
}

func (c *CUDABackend) Name() string {
	if c.available {
		return "cuda (" + c.deviceName + ")"
	}
	return "cuda (not available)"
}

func (c *CUDABackend) Available() bool { return c.available }
func (c *CUDABackend) Cleanup()        {}

func (c *CUDABackend) AllocList(n int) *DeviceList {
	d := &DeviceList{n: n, rows: make([][]int, n)}
	if c.available {
		d.handle = uintptr(C.nlist_alloc(C.int(n), C.int(c.height)))
	}
	return d
}

func (c *CUDABackend) UploadList(d *DeviceList, rows [][]int) {
	d.n = len(rows)
	d.rows = copyRows(rows)
	if !c.available {
		return
	}

	c.regrow(d, rows)
	flat := c.flatten(rows)
	C.nlist_copy_htod(C.ulong(d.handle), (*C.uint)(unsafe.Pointer(&flat[0])),
		C.int(d.n), C.int(c.height))
}

func (c *CUDABackend) DownloadList(d *DeviceList) [][]int {
	if !c.available {
		return copyRows(d.rows)
	}

	flat := make([]uint32, d.n*(c.height+1))
	C.nlist_copy_dtoh(C.ulong(d.handle), (*C.uint)(unsafe.Pointer(&flat[0])),
		C.int(d.n), C.int(c.height))

	rows := make([][]int, d.n)
	for i := 0; i < d.n; i++ {
		size := int(flat[i])
		for j := 0; j < size; j++ {
			rows[i] = append(rows[i], int(flat[(j+1)*d.n+i]))
		}
	}
	d.rows = copyRows(rows)
	return rows
}

func (c *CUDABackend) BuildList(d *DeviceList, in BuildInput) {
	if !c.available {
		d.n = len(in.X)
		d.rows = HostBuild(in)
		return
	}

	n := len(in.X)
	d.n = n
	x, y, z := toF32(in.X), toF32(in.Y), toF32(in.Z)
	tag := make([]uint32, n)
	for i, t := range in.Tag {
		tag[i] = uint32(t)
	}
	excl := make([]int32, 4*len(in.Exclusions))
	for t, e := range in.Exclusions {
		for k := 0; k < 4; k++ {
			excl[t*4+k] = int32(e[k])
		}
	}

	lx, ly, lz := in.Box.Lengths()
	full := 0
	if in.Full {
		full = 1
	}
	C.nlist_build_gpu(C.ulong(d.handle),
		(*C.float)(unsafe.Pointer(&x[0])), (*C.float)(unsafe.Pointer(&y[0])),
		(*C.float)(unsafe.Pointer(&z[0])),
		(*C.uint)(unsafe.Pointer(&tag[0])), (*C.int)(unsafe.Pointer(&excl[0])),
		C.int(n), C.float(lx), C.float(ly), C.float(lz),
		C.float(in.RMaxSq), C.int(full))
}

func (c *CUDABackend) LJForces(in ForceInput) ForceOutput {
	if !c.available {
		return hostLJForces(in, in.List.rows)
	}

	n := len(in.X)
	x, y, z := toF32(in.X), toF32(in.Y), toF32(in.Z)
	fx := make([]float32, n)
	fy := make([]float32, n)
	fz := make([]float32, n)
	var pe float32

	lx, ly, lz := in.Box.Lengths()
	full := 0
	if in.Full {
		full = 1
	}
	C.lj_forces_gpu(C.ulong(in.List.handle),
		(*C.float)(unsafe.Pointer(&x[0])), (*C.float)(unsafe.Pointer(&y[0])),
		(*C.float)(unsafe.Pointer(&z[0])),
		(*C.float)(unsafe.Pointer(&fx[0])), (*C.float)(unsafe.Pointer(&fy[0])),
		(*C.float)(unsafe.Pointer(&fz[0])), (*C.float)(unsafe.Pointer(&pe)),
		C.int(n), C.float(lx), C.float(ly), C.float(lz),
		C.float(in.Epsilon), C.float(in.Sigma), C.float(in.RCut), C.int(full))

	return ForceOutput{FX: toF64(fx), FY: toF64(fy), FZ: toF64(fz), Potential: float64(pe)}
}

// regrow reallocates the device table 10% above the tallest row when the
// current height overflows.
func (c *CUDABackend) regrow(d *DeviceList, rows [][]int) {
	maxH := 0
	for _, r := range rows {
		if len(r) > maxH {
			maxH = len(r)
		}
	}
	if maxH <= c.height {
		return
	}
	C.nlist_free(C.ulong(d.handle))
	c.height = int(float64(maxH) * 1.1)
	d.handle = uintptr(C.nlist_alloc(C.int(d.n), C.int(c.height)))
}

// flatten packs ragged rows into the pitched layout the kernels expect: the
// first n entries hold row sizes, entry (j+1)*n+i holds neighbor j of row i.
func (c *CUDABackend) flatten(rows [][]int) []uint32 {
	n := len(rows)
	flat := make([]uint32, n*(c.height+1))
	for i, r := range rows {
		flat[i] = uint32(len(r))
		for j, v := range r {
			flat[(j+1)*n+i] = uint32(v)
		}
	}
	return flat
}

func toF32(s []float64) []float32 {
	out := make([]float32, len(s))
	for i, v := range s {
		out[i] = float32(v)
	}
	return out
}

func toF64(s []float32) []float64 {
	out := make([]float64, len(s))
	for i, v := range s {
		out[i] = float64(v)
	}
	return out
}
