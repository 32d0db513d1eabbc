// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package arena

import (
	"unsafe"

	"code.hybscloud.com/atomix"
)

type mpscNode struct {
	next atomix.Pointer[mpscNode]
	kv   KV
}

// MPSCLinkedHead is the per-container head record for Vyukov's unbounded
// multi-producer single-consumer linked queue.
//
// Head is the producer-published tail: every producer exchanges its new
// node into Head and then links the previous occupant's next field. Tail
// is the consumer's private cursor — only the consumer goroutine ever
// reads or writes it, so it is a plain, non-atomic field. A permanent
// stub node keeps Tail non-nil for the container's whole lifetime.
type MPSCLinkedHead struct {
	arena *Arena
	Head  atomix.Pointer[mpscNode]
	tail  *mpscNode
	stub  *mpscNode
	Count atomix.Uint64
}

// MPSCLinkedMetadata describes the Vyukov MPSC linked queue container.
func MPSCLinkedMetadata() Metadata {
	return Metadata{
		Name:            "mpsc-linked",
		Description:     "Vyukov unbounded wait-free-producer MPSC linked queue",
		NodeSize:        unsafe.Sizeof(mpscNode{}),
		RequiresLocking: false,
	}
}

// MPSCLinkedInit installs the permanent stub node. Call exactly once
// before any Insert/Pop; not itself concurrency-safe.
func MPSCLinkedInit(a *Arena, h *MPSCLinkedHead) Result {
	stub := allocOne[mpscNode](a)
	if stub == nil {
		return NoMem
	}
	h.arena = a
	h.stub = stub
	h.Head.StoreRelease(stub)
	h.tail = stub
	h.Count.StoreRelaxed(0)
	return Success
}

// MPSCLinkedInsert enqueues (key, value). Wait-free: every producer
// completes in two steps regardless of contention from other producers.
// Safe for any number of concurrent producers.
func MPSCLinkedInsert(h *MPSCLinkedHead, key, value uint64) Result {
	n := allocOne[mpscNode](h.arena)
	if n == nil {
		return NoMem
	}
	n.kv = KV{Key: key, Value: value}

	prev := h.Head.SwapAcqRel(n)
	prev.next.StoreRelease(n)
	h.Count.AddRelaxed(1)
	return Success
}

// MPSCLinkedPop dequeues the oldest element into out. Single consumer
// only: concurrent callers of Pop produce undefined behavior.
//
// Between a producer's exchange into Head and its following release-store
// into the previous tail's next field, the queue is transiently
// "stalled": Head has advanced but the prior tail's next is still nil.
// Pop recognizes this window and returns Busy rather than NotFound so the
// caller retries instead of concluding the queue is empty.
func MPSCLinkedPop(h *MPSCLinkedHead, out *KV) Result {
	tail := h.tail
	next := tail.next.LoadAcquire()
	if next == nil {
		if h.Head.LoadAcquire() == tail {
			return NotFound
		}
		return Busy
	}
	*out = next.kv
	h.tail = next
	h.Count.AddRelaxed(^uint64(0))
	return Success
}

// MPSCLinkedSearch performs a linear scan for key among currently
// reachable elements, starting from the consumer's current tail.
// Intended for tests and introspection; single-consumer callers only.
func MPSCLinkedSearch(h *MPSCLinkedHead, key uint64) Result {
	for n := h.tail.next.LoadAcquire(); n != nil; n = n.next.LoadAcquire() {
		if n.kv.Key == key {
			return Success
		}
	}
	return NotFound
}

// MPSCLinkedVerify checks the stub invariant and that the number of
// nodes reachable from the consumer's tail matches Count. Intended for
// use after a complete drain and quiescence.
func MPSCLinkedVerify(h *MPSCLinkedHead) Result {
	if h.tail == nil || h.stub == nil {
		return Corrupt
	}
	var n uint64
	for cur := h.tail.next.LoadAcquire(); cur != nil; cur = cur.next.LoadAcquire() {
		n++
	}
	if n != h.Count.LoadRelaxed() {
		return Corrupt
	}
	return Success
}
