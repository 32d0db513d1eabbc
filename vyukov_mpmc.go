// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package arena

import (
	"unsafe"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// vyukovMPMCMaxRetries bounds the CAS retry loops below.
const vyukovMPMCMaxRetries = 4096

type vyukovSlot struct {
	sequence atomix.Uint64
	kv       KV
	_        pad
}

// VyukovMPMCHead is the per-container head record for a bounded
// multi-producer multi-consumer queue using Vyukov's per-slot sequence
// number discipline. Capacity is a fixed power of two; buffer and mask
// are set once at [VyukovMPMCInit] and never change afterward.
type VyukovMPMCHead struct {
	_            pad
	EnqueuePos   atomix.Uint64
	_            pad
	DequeuePos   atomix.Uint64
	_            pad
	buffer       []vyukovSlot
	bufferMask   uint64
	Count        atomix.Uint64
}

// VyukovMPMCMetadata describes the Vyukov bounded MPMC queue container.
func VyukovMPMCMetadata() Metadata {
	return Metadata{
		Name:            "vyukov-mpmc",
		Description:     "Vyukov bounded MPMC array queue with per-slot sequence numbers",
		NodeSize:        unsafe.Sizeof(vyukovSlot{}),
		RequiresLocking: false,
	}
}

// VyukovMPMCInit allocates a capacity-slot buffer from a and initializes
// it. capacity must be a power of two and at least 2; any other value
// returns Invalid and leaves h untouched. Capacity 1 is rejected even
// though it is technically a power of two: with a single slot, the
// sequence-diff check that distinguishes empty from full collides with
// itself after the first insert.
func VyukovMPMCInit(a *Arena, h *VyukovMPMCHead, capacity int) Result {
	if capacity < 2 || capacity&(capacity-1) != 0 {
		return Invalid
	}
	n := uint64(capacity)
	raw := a.Alloc(unsafe.Sizeof(vyukovSlot{}) * uintptr(n))
	if raw == nil {
		return NoMem
	}
	buf := unsafe.Slice((*vyukovSlot)(raw), n)
	for i := range buf {
		buf[i].sequence.StoreRelaxed(uint64(i))
	}
	h.buffer = buf
	h.bufferMask = n - 1
	h.EnqueuePos.StoreRelaxed(0)
	h.DequeuePos.StoreRelaxed(0)
	h.Count.StoreRelaxed(0)
	return Success
}

// VyukovMPMCInsert enqueues (key, value). Safe for any number of
// concurrent producers.
//
// The position CAS uses Relaxed on both success and failure, per the
// algorithm's open question on whether Acquire-on-failure is needed: it
// is not, because the subsequent acquire-load of the slot's sequence
// number (taken before the CAS, and re-taken on retry) is what actually
// gates the data write, not the position CAS itself.
func VyukovMPMCInsert(h *VyukovMPMCHead, key, value uint64) Result {
	sw := spin.Wait{}
	for range vyukovMPMCMaxRetries {
		pos := h.EnqueuePos.LoadRelaxed()
		slot := &h.buffer[pos&h.bufferMask]
		seq := slot.sequence.LoadAcquire()
		diff := int64(seq) - int64(pos)

		switch {
		case diff == 0:
			if h.EnqueuePos.CompareAndSwapRelaxed(pos, pos+1) {
				slot.kv = KV{Key: key, Value: value}
				slot.sequence.StoreRelease(pos + 1)
				h.Count.AddRelaxed(1)
				return Success
			}
		case diff < 0:
			return Full
		}
		sw.Once()
	}
	return Invalid
}

// VyukovMPMCPop dequeues the oldest element into out. Safe for any
// number of concurrent consumers.
func VyukovMPMCPop(h *VyukovMPMCHead, out *KV) Result {
	sw := spin.Wait{}
	for range vyukovMPMCMaxRetries {
		pos := h.DequeuePos.LoadRelaxed()
		slot := &h.buffer[pos&h.bufferMask]
		seq := slot.sequence.LoadAcquire()
		diff := int64(seq) - int64(pos+1)

		switch {
		case diff == 0:
			if h.DequeuePos.CompareAndSwapRelaxed(pos, pos+1) {
				*out = slot.kv
				slot.sequence.StoreRelease(pos + h.bufferMask + 1)
				h.Count.AddRelaxed(^uint64(0))
				return Success
			}
		case diff < 0:
			return NotFound
		}
		sw.Once()
	}
	return Invalid
}

// VyukovMPMCSearch scans the currently occupied slots for key. Best
// effort under concurrent producers/consumers: a slot observed mid-flight
// is simply skipped, so a concurrent Search may miss an element that is
// being inserted or report one that is being popped.
func VyukovMPMCSearch(h *VyukovMPMCHead, key uint64) Result {
	deq := h.DequeuePos.LoadAcquire()
	enq := h.EnqueuePos.LoadAcquire()
	for pos := deq; pos != enq; pos++ {
		slot := &h.buffer[pos&h.bufferMask]
		if slot.sequence.LoadAcquire() != pos+1 {
			continue
		}
		if slot.kv.Key == key {
			return Success
		}
	}
	return NotFound
}

// VyukovMPMCVerify checks that the enqueue/dequeue positions and Count
// are mutually consistent. Intended for use at quiescence, after all
// concurrent operations have returned.
func VyukovMPMCVerify(h *VyukovMPMCHead) Result {
	enq := h.EnqueuePos.LoadAcquire()
	deq := h.DequeuePos.LoadAcquire()
	if deq > enq {
		return Corrupt
	}
	if enq-deq != h.Count.LoadRelaxed() {
		return Corrupt
	}
	return Success
}

// Cap returns the queue's usable capacity.
func (h *VyukovMPMCHead) Cap() int {
	return int(h.bufferMask + 1)
}
