// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package arena

// This file documents the memory-ordering vocabulary every container in
// this package is built on. The vocabulary itself — relaxed, acquire,
// release, acq-rel and seq-cst typed loads/stores/compare-and-exchange —
// is supplied by [code.hybscloud.com/atomix] (Uint32, Uint64, Int64,
// Bool, Uintptr and the generic Pointer[T]) and used directly by every
// container; this package adds no wrapper around it.
//
// Two conventions recur throughout the containers:
//
//   - acquireLoad: a load whose result will be dereferenced, or that
//     gates observing a peer's prior writes, uses LoadAcquire (or the
//     Acquire half of an AcqRel compare-and-exchange).
//   - relaxedRead/relaxedWrite: a load or store used only to detect
//     change — an approximate counter, a self-owned cached index — uses
//     LoadRelaxed/StoreRelaxed and carries no synchronizes-with edge.
//
// See each container's file for where the line falls.

// pad is cache-line padding, placed between atomic fields that are
// written by different goroutines to prevent false sharing.
type pad [64]byte

// alignUp rounds n up to the next multiple of align, which must be a
// power of two. Used by [Arena.Alloc] to satisfy the 8-byte alignment
// every arena-resident struct requires.
func alignUp(n, align uint64) uint64 {
	return (n + align - 1) &^ (align - 1)
}
