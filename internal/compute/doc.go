// Package compute provides the accelerator backend used to offload
// neighbor-table storage and short-range force evaluation.
//
// The package auto-selects the best available backend at init:
//
//   - CUDA: device-resident neighbor table and Lennard-Jones kernels
//   - none: host-only fallback (the stub reports Available() == false and
//     keeps a host-side shadow so offload paths stay runnable in tests)
//
// Build with CUDA support:
//
//	go build -tags cuda ./...
//
// Which physical copy of the neighbor table is authoritative is not decided
// here: the neighbor package tracks that with an explicit location state
// machine and calls UploadList/DownloadList only on the transitions that
// actually require a copy.
package compute
