// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package arena

import (
	"unsafe"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// msQueueMaxRetries bounds every CAS retry loop below. Exceeding it
// returns Invalid rather than spinning forever, per the "bounded retry
// instead of unbounded loops" design rule every container in this
// package follows.
const msQueueMaxRetries = 256

type msNode struct {
	next atomix.Pointer[msNode]
	kv   KV
}

// MSQueueHead is the per-container head record for a Michael–Scott
// unbounded MPMC FIFO queue. head always points at a permanent dummy
// node; real data lives at head.next and beyond. tail may lag head by a
// bounded number of nodes and is helped forward by whichever thread
// notices the lag. arena is captured at Init so Insert can allocate
// nodes without an *Arena parameter on every call.
type MSQueueHead struct {
	arena *Arena
	head  atomix.Pointer[msNode]
	tail  atomix.Pointer[msNode]
	Count atomix.Uint64
}

// MSQueueMetadata describes the Michael–Scott queue container.
func MSQueueMetadata() Metadata {
	return Metadata{
		Name:            "ms-queue",
		Description:     "Michael–Scott unbounded lock-free MPMC FIFO",
		NodeSize:        unsafe.Sizeof(msNode{}),
		RequiresLocking: false,
	}
}

// MSQueueInit installs the permanent dummy node. It must be called
// exactly once, before any Insert/Pop, and is not itself concurrency-safe.
func MSQueueInit(a *Arena, h *MSQueueHead) Result {
	dummy := allocOne[msNode](a)
	if dummy == nil {
		return NoMem
	}
	h.arena = a
	h.head.StoreRelease(dummy)
	h.tail.StoreRelease(dummy)
	h.Count.StoreRelaxed(0)
	return Success
}

// MSQueueInsert enqueues (key, value). Safe for any number of concurrent
// producers.
func MSQueueInsert(h *MSQueueHead, key, value uint64) Result {
	n := allocOne[msNode](h.arena)
	if n == nil {
		return NoMem
	}
	n.kv = KV{Key: key, Value: value}

	sw := spin.Wait{}
	for range msQueueMaxRetries {
		tail := h.tail.LoadAcquire()
		next := tail.next.LoadAcquire()
		if next != nil {
			// tail lags; help it forward and retry regardless of outcome.
			h.tail.CompareAndSwapAcqRel(tail, next)
			sw.Once()
			continue
		}
		if tail.next.CompareAndSwapAcqRel(nil, n) {
			h.tail.CompareAndSwapAcqRel(tail, n)
			h.Count.AddRelaxed(1)
			return Success
		}
		sw.Once()
	}
	return Invalid
}

// MSQueuePop dequeues the oldest element into out. Safe for any number
// of concurrent consumers.
func MSQueuePop(h *MSQueueHead, out *KV) Result {
	sw := spin.Wait{}
	for range msQueueMaxRetries {
		head := h.head.LoadAcquire()
		tail := h.tail.LoadAcquire()
		next := head.next.LoadAcquire()

		if h.head.LoadAcquire() != head {
			sw.Once()
			continue
		}
		if next == nil {
			return NotFound
		}
		if head == tail {
			// tail lags the real last node; help it forward and retry.
			h.tail.CompareAndSwapAcqRel(tail, next)
			sw.Once()
			continue
		}
		kv := next.kv
		if h.head.CompareAndSwapAcqRel(head, next) {
			*out = kv
			h.Count.AddRelaxed(^uint64(0))
			return Success
		}
		sw.Once()
	}
	return Invalid
}

// MSQueueSearch performs a linear scan for key among currently reachable
// elements. The result may be stale the instant it's returned under
// concurrent modification; it is intended for tests and introspection.
func MSQueueSearch(h *MSQueueHead, key uint64) Result {
	head := h.head.LoadAcquire()
	for n := head.next.LoadAcquire(); n != nil; n = n.next.LoadAcquire() {
		if n.kv.Key == key {
			return Success
		}
	}
	return NotFound
}

// MSQueueVerify checks the dummy-head invariant and that the number of
// reachable data nodes matches Count. Intended for use after a complete
// drain and quiescence; under concurrent mutation the check can race the
// very structure it inspects.
func MSQueueVerify(h *MSQueueHead) Result {
	head := h.head.LoadAcquire()
	if head == nil {
		return Corrupt
	}
	var n uint64
	for cur := head.next.LoadAcquire(); cur != nil; cur = cur.next.LoadAcquire() {
		n++
	}
	if n != h.Count.LoadRelaxed() {
		return Corrupt
	}
	return Success
}
