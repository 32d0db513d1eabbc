// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package arena

import (
	"unsafe"

	"code.hybscloud.com/atomix"
)

// ListNode is one element of a [List]. pprev always points at the arena
// location holding the predecessor's next field (or at [ListHead.first]
// for the first node), letting [ListVerify] confirm the chain without a
// second traversal.
type ListNode struct {
	next  atomix.Pointer[ListNode]
	pprev *atomix.Pointer[ListNode]
	kv    KV
}

// ListHead is the per-container head record for an ordered doubly-linked
// list. First is the address of the first data node (there is no
// separate dummy node); Count is an approximate relaxed counter.
//
// List is not internally concurrency-safe against mixed writers: callers
// must serialize Insert/Delete externally. Concurrent Search/Verify
// against a single writer is safe because linkage always becomes visible
// through a single release-store. arena is captured at Init so Insert
// can allocate nodes without an *Arena parameter on every call.
type ListHead struct {
	arena *Arena
	first atomix.Pointer[ListNode]
	Count atomix.Uint64
}

// ListMetadata describes the doubly-linked list container.
func ListMetadata() Metadata {
	return Metadata{
		Name:            "list",
		Description:     "externally-serialized doubly-linked ordered sequence",
		NodeSize:        unsafe.Sizeof(ListNode{}),
		RequiresLocking: true,
	}
}

// ListInit resets h to an empty list backed by a.
func ListInit(a *Arena, h *ListHead) {
	h.arena = a
	h.first.StoreRelease(nil)
	h.Count.StoreRelaxed(0)
}

// ListInsert appends (key, value) at the tail of the list. Callers must
// serialize concurrent Insert/Delete calls externally; concurrent readers
// observe the new node only after the release-store that links it in.
func ListInsert(h *ListHead, key, value uint64) Result {
	n := allocOne[ListNode](h.arena)
	if n == nil {
		return NoMem
	}
	n.kv = KV{Key: key, Value: value}

	first := h.first.LoadRelaxed()
	if first == nil {
		n.pprev = &h.first
		h.first.StoreRelease(n)
		h.Count.AddRelaxed(1)
		return Success
	}

	cur := first
	for {
		next := cur.next.LoadRelaxed()
		if next == nil {
			break
		}
		cur = next
	}
	n.pprev = &cur.next
	cur.next.StoreRelease(n)
	h.Count.AddRelaxed(1)
	return Success
}

// ListSearch reports whether key is present in the list.
func ListSearch(h *ListHead, key uint64) Result {
	for n := h.first.LoadAcquire(); n != nil; n = n.next.LoadAcquire() {
		if n.kv.Key == key {
			return Success
		}
	}
	return NotFound
}

// ListPop removes and returns the first element of the list.
func ListPop(h *ListHead, out *KV) Result {
	first := h.first.LoadAcquire()
	if first == nil {
		return NotFound
	}
	*out = first.kv
	next := first.next.LoadAcquire()
	if next != nil {
		next.pprev = &h.first
	}
	h.first.StoreRelease(next)
	h.Count.AddRelaxed(^uint64(0))
	return Success
}

// ListDelete removes the first node with the given key.
func ListDelete(h *ListHead, key uint64) Result {
	for n := h.first.LoadAcquire(); n != nil; n = n.next.LoadAcquire() {
		if n.kv.Key != key {
			continue
		}
		next := n.next.LoadAcquire()
		n.pprev.StoreRelease(next)
		if next != nil {
			next.pprev = n.pprev
		}
		h.Count.AddRelaxed(^uint64(0))
		return Success
	}
	return NotFound
}

// ListVerify walks the list checking that every node's pprev points at
// the arena location holding its predecessor's next field (or at
// h.first for the head node), and that the traversal length matches
// h.Count.
func ListVerify(h *ListHead) Result {
	var n uint64
	expectedPrev := &h.first
	for cur := h.first.LoadAcquire(); cur != nil; cur = cur.next.LoadAcquire() {
		if cur.pprev != expectedPrev {
			return Corrupt
		}
		expectedPrev = &cur.next
		n++
	}
	if n != h.Count.LoadRelaxed() {
		return Corrupt
	}
	return Success
}
