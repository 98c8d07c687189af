// Package neighbor maintains the pair neighbor relation of the simulation:
// which particle pairs sit within r_cut + r_buff of each other under periodic
// boundaries, minus excluded (bonded) pairs.
//
// The table is rebuilt lazily. Each timestep the staleness detector compares
// every particle's displacement since the last rebuild against half the
// buffer skin: a pair can only sneak inside the cutoff undetected if the two
// particles jointly close more than r_buff, and each contributes at least
// r_buff/2 of that, so checking per-particle displacement is sound.
//
// Three interchangeable build strategies implement one contract and must
// produce the same unordered pair set:
//
//   - direct: all-pairs O(N^2) reference scan
//   - unrolled: the same scan batching four candidates per iteration
//   - binned: O(N) uniform cell lists with a 27-cell periodic stencil
//
// When an accelerator backend is available the rebuild runs device-side and
// the host copy goes stale; an explicit location state machine (host /
// mirrored / device) decides which copy is authoritative and elides redundant
// transfers.
package neighbor
