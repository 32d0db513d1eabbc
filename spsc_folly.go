// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package arena

import (
	"unsafe"

	"code.hybscloud.com/atomix"
)

// SPSCFollyHead is the per-container head record for a bounded
// single-producer single-consumer ring following folly's
// ProducerConsumerQueue discipline: size is the number of physical
// slots (arbitrary, >= 2) and exactly one slot is always left unused so
// that full and empty remain distinguishable without a separate count.
//
// Unlike [SPSCCKHead], the producer and consumer do not cache each
// other's index — every boundary check re-reads the peer index directly.
// That makes this the "plain" sibling of the two SPSC rings; see
// [SPSCCKHead] for the cached-index variant.
type SPSCFollyHead struct {
	records  []KV
	size     uint32
	_        pad
	readIdx  atomix.Uint32
	_        pad
	writeIdx atomix.Uint32
}

// SPSCFollyMetadata describes the folly-style SPSC ring container.
func SPSCFollyMetadata() Metadata {
	return Metadata{
		Name:            "spsc-folly",
		Description:     "SPSC bounded ring, folly ProducerConsumerQueue discipline",
		NodeSize:        unsafe.Sizeof(KV{}),
		RequiresLocking: false,
	}
}

// SPSCFollyInit allocates a size-slot ring from a. size must be >= 2;
// one slot is always left unused, so the ring holds at most size-1
// elements.
func SPSCFollyInit(a *Arena, h *SPSCFollyHead, size int) Result {
	if size < 2 {
		return Invalid
	}
	raw := a.Alloc(unsafe.Sizeof(KV{}) * uintptr(size))
	if raw == nil {
		return NoMem
	}
	h.records = unsafe.Slice((*KV)(raw), size)
	h.size = uint32(size)
	h.readIdx.StoreRelaxed(0)
	h.writeIdx.StoreRelaxed(0)
	return Success
}

// SPSCFollyInsert adds (key, value) to the ring. Sole producer only.
// Returns Full if the ring has no free slot.
func SPSCFollyInsert(h *SPSCFollyHead, key, value uint64) Result {
	cur := h.writeIdx.LoadRelaxed()
	next := cur + 1
	if next == h.size {
		next = 0
	}
	if next == h.readIdx.LoadAcquire() {
		return Full
	}
	h.records[cur] = KV{Key: key, Value: value}
	h.writeIdx.StoreRelease(next)
	return Success
}

// SPSCFollyPop removes and returns the oldest element into out. Sole
// consumer only. Returns NotFound if the ring is empty.
func SPSCFollyPop(h *SPSCFollyHead, out *KV) Result {
	cur := h.readIdx.LoadRelaxed()
	w := h.writeIdx.LoadAcquire()
	if cur == w {
		return NotFound
	}
	*out = h.records[cur]
	next := cur + 1
	if next == h.size {
		next = 0
	}
	h.readIdx.StoreRelease(next)
	return Success
}

// SPSCFollySearch performs a linear scan of the currently occupied
// slots. Intended for tests; safe to call from either party but the
// result may be stale the instant it's returned under concurrent use.
func SPSCFollySearch(h *SPSCFollyHead, key uint64) Result {
	r := h.readIdx.LoadAcquire()
	w := h.writeIdx.LoadAcquire()
	for i := r; i != w; {
		if h.records[i].Key == key {
			return Success
		}
		i++
		if i == h.size {
			i = 0
		}
	}
	return NotFound
}

// SPSCFollyVerify checks that the indices are in range and reports
// Success unconditionally otherwise: a ring buffer has no further
// structural invariant to check beyond index bounds.
func SPSCFollyVerify(h *SPSCFollyHead) Result {
	r := h.readIdx.LoadAcquire()
	w := h.writeIdx.LoadAcquire()
	if r >= h.size || w >= h.size {
		return Corrupt
	}
	return Success
}

// Cap returns the number of elements the ring can hold (size-1).
func (h *SPSCFollyHead) Cap() int {
	return int(h.size) - 1
}
