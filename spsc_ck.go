// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package arena

import (
	"unsafe"

	"code.hybscloud.com/atomix"
)

// SPSCCKHead is the per-container head record for a bounded
// single-producer single-consumer ring following the CK library's index
// discipline: the producer tracks its own p_tail plus a cached view of
// the consumer's head (p_cachedHead), and the consumer tracks its own
// c_head plus a cached view of the producer's tail (c_cachedTail). Each
// side only re-reads the peer's index — paying a cross-core load — once
// its cached view is exhausted, reducing cache-line traffic versus
// re-reading the peer on every call (contrast [SPSCFollyHead]).
//
// The capacity passed to [SPSCCKInit] is the usable capacity; the
// physical slot count, stored in the capacity field, is that value plus
// one, with one slot always unused so full and empty remain
// distinguishable.
type SPSCCKHead struct {
	_           pad
	cHead       atomix.Uint64 // consumer's published read position
	_           pad
	pCachedHead uint64        // producer's cached view of cHead
	_           pad
	pTail       atomix.Uint64 // producer's published write position
	_           pad
	cCachedTail uint64        // consumer's cached view of pTail
	_           pad
	slots       []KV
	capacity    uint64 // physical slot count (usable capacity + 1)
}

// SPSCCKMetadata describes the CK-style SPSC ring container.
func SPSCCKMetadata() Metadata {
	return Metadata{
		Name:            "spsc-ck",
		Description:     "SPSC bounded ring, CK library index discipline (p_tail/c_head)",
		NodeSize:        unsafe.Sizeof(KV{}),
		RequiresLocking: false,
	}
}

// SPSCCKInit allocates capacity+1 physical slots from a for a ring with
// the given usable capacity (capacity >= 1).
func SPSCCKInit(a *Arena, h *SPSCCKHead, capacity int) Result {
	if capacity < 1 {
		return Invalid
	}
	size := capacity + 1
	raw := a.Alloc(unsafe.Sizeof(KV{}) * uintptr(size))
	if raw == nil {
		return NoMem
	}
	h.slots = unsafe.Slice((*KV)(raw), size)
	h.capacity = uint64(size)
	h.cHead.StoreRelaxed(0)
	h.pTail.StoreRelaxed(0)
	h.pCachedHead = 0
	h.cCachedTail = 0
	return Success
}

// SPSCCKInsert adds (key, value) to the ring. Sole producer only.
func SPSCCKInsert(h *SPSCCKHead, key, value uint64) Result {
	tail := h.pTail.LoadRelaxed()
	next := tail + 1
	if next == h.capacity {
		next = 0
	}
	if next == h.pCachedHead {
		h.pCachedHead = h.cHead.LoadAcquire()
		if next == h.pCachedHead {
			return Full
		}
	}
	h.slots[tail] = KV{Key: key, Value: value}
	h.pTail.StoreRelease(next)
	return Success
}

// SPSCCKPop removes and returns the oldest element into out. Sole
// consumer only.
func SPSCCKPop(h *SPSCCKHead, out *KV) Result {
	head := h.cHead.LoadRelaxed()
	if head == h.cCachedTail {
		h.cCachedTail = h.pTail.LoadAcquire()
		if head == h.cCachedTail {
			return NotFound
		}
	}
	*out = h.slots[head]
	next := head + 1
	if next == h.capacity {
		next = 0
	}
	h.cHead.StoreRelease(next)
	return Success
}

// SPSCCKSearch performs a linear scan of the currently occupied slots.
// Intended for tests; the result may be stale the instant it's returned
// under concurrent use.
func SPSCCKSearch(h *SPSCCKHead, key uint64) Result {
	head := h.cHead.LoadAcquire()
	tail := h.pTail.LoadAcquire()
	for i := head; i != tail; {
		if h.slots[i].Key == key {
			return Success
		}
		i++
		if i == h.capacity {
			i = 0
		}
	}
	return NotFound
}

// SPSCCKVerify checks that the indices are in range.
func SPSCCKVerify(h *SPSCCKHead) Result {
	head := h.cHead.LoadAcquire()
	tail := h.pTail.LoadAcquire()
	if head >= h.capacity || tail >= h.capacity {
		return Corrupt
	}
	return Success
}

// Cap returns the number of elements the ring can hold.
func (h *SPSCCKHead) Cap() int {
	return int(h.capacity) - 1
}
