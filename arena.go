// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package arena

import (
	"unsafe"

	"code.hybscloud.com/atomix"
)

// DefaultArenaSize is the baseline arena size: 1000 pages of 4 KiB.
const DefaultArenaSize = 1000 * 4096

// arenaAlign is the alignment every Alloc call rounds up to. All
// arena-resident structs in this package declare their largest field as
// 8 bytes or less, so 8-byte alignment is always sufficient.
const arenaAlign = 8

// Arena is a bounded, append-only region shared between a producer and a
// consumer context. It hands out node storage to every container in this
// package via [Arena.Alloc] and never reclaims it: [Arena.Free] is a
// documented no-op.
//
// Because an address is never reused during the arena's lifetime, every
// CAS-based algorithm built on top of it gets de-facto ABA safety without
// hazard pointers or epoch reclamation — the allocator is the arena's
// only safe-memory-reclamation story, by design.
//
// Arena is safe for concurrent use: Alloc only ever advances a relaxed
// fetch-add counter, so any number of producers may allocate concurrently.
type Arena struct {
	buf  []byte
	next atomix.Uint64
	size uint64
}

// New creates an arena of the given size in bytes. A size of 0 selects
// [DefaultArenaSize].
func New(size int) *Arena {
	if size <= 0 {
		size = DefaultArenaSize
	}
	return &Arena{
		buf:  make([]byte, size),
		size: uint64(size),
	}
}

// Alloc reserves n bytes from the arena and returns a pointer to the
// start of the reservation, or nil if the arena is exhausted. The
// reservation is always 8-byte aligned regardless of n.
//
// Alloc is concurrent-safe: the bump offset advances via a relaxed
// fetch-add, so concurrent callers each receive a disjoint region. The
// resulting memory is not zeroed beyond what make([]byte, size) already
// guarantees at arena creation; callers that reuse a returned address
// within a single allocation (they never will, since addresses are never
// reused) would need to zero it themselves.
func (a *Arena) Alloc(n uintptr) unsafe.Pointer {
	size := alignUp(uint64(n), arenaAlign)
	if size == 0 {
		size = arenaAlign
	}
	newOff := a.next.AddRelaxed(size)
	startOff := newOff - size
	if newOff > a.size {
		return nil
	}
	return unsafe.Pointer(&a.buf[startOff])
}

// Free is a no-op: the arena performs no reclamation. Stronger
// safe-memory-reclamation, if a caller needs address reuse, is an
// external concern this package deliberately does not provide.
func (a *Arena) Free(unsafe.Pointer) {}

// Cap returns the arena's total capacity in bytes.
func (a *Arena) Cap() int {
	return int(a.size)
}

// Used returns the number of bytes allocated so far, including padding
// introduced by alignment. The value is approximate under concurrent
// allocation (a relaxed read of the same counter [Arena.Alloc] advances).
func (a *Arena) Used() int {
	used := a.next.LoadRelaxed()
	if used > a.size {
		return int(a.size)
	}
	return int(used)
}

// allocOne allocates and returns a zero-valued *T from the arena, or nil
// on exhaustion. Every container's node-allocation path goes through
// this helper.
func allocOne[T any](a *Arena) *T {
	var zero T
	raw := a.Alloc(unsafe.Sizeof(zero))
	if raw == nil {
		return nil
	}
	return (*T)(raw)
}
