// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package arena

import (
	"unsafe"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

const (
	bstMaxRetries     = 4096
	bstMaxDepth       = 256
	bstVerifyMaxNodes = 1 << 20
)

// bstKind discriminates a BSTLeaf from a BSTInternal through their
// shared leading header field, the same way a isLeaf flag on a node
// struct lets callers classify a child pointer before casting it.
type bstKind uint8

const (
	bstKindLeaf bstKind = iota
	bstKindInternal
)

type bstNodeHeader struct {
	kind bstKind
}

// BSTLeaf holds one key/value pair. key is fixed at creation; value may
// be overwritten in place under the insert-or-update policy, so it is an
// atomix field rather than a plain uint64.
type BSTLeaf struct {
	header bstNodeHeader
	key    uint64
	value  atomix.Uint64
}

// updateState is the low 2-bit tag packed into an internal node's update
// word alongside a descriptor pointer.
type updateState uint8

const (
	updateClean updateState = iota
	updateIFlag
	updateDFlag
	updateMark
)

// BSTInternal is a routing node. key is the smallest key routed to the
// right subtree. left and right hold raw child pointers — to a BSTLeaf
// or another BSTInternal, disambiguated via the child's header — rather
// than atomix.Pointer[T], because a child slot alternates between the
// two concrete types over the node's lifetime. update packs a pending
// operation's descriptor address (insertInfo or deleteInfo, arena
// allocated and therefore 8-byte aligned, leaving the low 2 bits free)
// with an updateState tag.
type BSTInternal struct {
	header bstNodeHeader
	key    uint64
	left   atomix.Uint64
	right  atomix.Uint64
	update atomix.Uint64
}

// BSTHead is the per-container head record for the EFRB non-blocking
// binary search tree. arena is captured at Init so Insert/Delete can
// allocate descriptors and nodes without an *Arena parameter on every
// call, matching the insert(head, key, value) / delete(head, key)
// contract shared by every container.
type BSTHead struct {
	arena *Arena
	root  *BSTInternal
	Count atomix.Uint64
}

// BSTMetadata describes the EFRB BST container.
func BSTMetadata() Metadata {
	return Metadata{
		Name:            "bst-efrb",
		Description:     "EFRB leaf-oriented non-blocking binary search tree",
		NodeSize:        unsafe.Sizeof(BSTInternal{}),
		RequiresLocking: false,
	}
}

// BSTInit installs a root internal node routed on SentinelKey2 with
// sentinel leaf children S1 (SentinelKey1) and S2 (SentinelKey2). User
// keys must satisfy key < SentinelKey1.
func BSTInit(a *Arena, h *BSTHead) Result {
	root := allocOne[BSTInternal](a)
	s1 := allocOne[BSTLeaf](a)
	s2 := allocOne[BSTLeaf](a)
	if root == nil || s1 == nil || s2 == nil {
		return NoMem
	}
	s1.header.kind = bstKindLeaf
	s1.key = SentinelKey1
	s1.value.StoreRelaxed(0)

	s2.header.kind = bstKindLeaf
	s2.key = SentinelKey2
	s2.value.StoreRelaxed(0)

	root.header.kind = bstKindInternal
	root.key = SentinelKey2
	root.left.StoreRelaxed(bstWord(unsafe.Pointer(s1)))
	root.right.StoreRelaxed(bstWord(unsafe.Pointer(s2)))
	root.update.StoreRelaxed(makeUpdate(nil, updateClean))

	h.arena = a
	h.root = root
	h.Count.StoreRelaxed(0)
	return Success
}

func bstWord(p unsafe.Pointer) uint64          { return uint64(uintptr(p)) }
func bstChildKind(w uint64) bstKind            { return (*bstNodeHeader)(unsafe.Pointer(uintptr(w))).kind }
func bstChildLeaf(w uint64) *BSTLeaf           { return (*BSTLeaf)(unsafe.Pointer(uintptr(w))) }
func bstChildInternal(w uint64) *BSTInternal   { return (*BSTInternal)(unsafe.Pointer(uintptr(w))) }

func makeUpdate(p unsafe.Pointer, s updateState) uint64 {
	return uint64(uintptr(p)) | uint64(s)
}
func updatePtr(u uint64) unsafe.Pointer { return unsafe.Pointer(uintptr(u &^ 3)) }
func getState(u uint64) updateState     { return updateState(u & 3) }

// bstContext is the result of a search: the grandparent/parent/leaf
// triple plus the update words observed at gp and p, and which child
// slot (left=false, right=true) each step descended through. valid is
// false when the search hit a flagged ancestor or exceeded the depth
// bound and the caller should retry.
type bstContext struct {
	gp, p       *BSTInternal
	l           *BSTLeaf
	updP, updGP uint64
	pRightOfGP  bool
	lRightOfP   bool
	valid       bool
}

// bstSearch traverses from root acquire-loading every child and every
// parent's update word. If an ancestor is mid-delete (DFlag or Mark) the
// search aborts rather than risk reading through a pointer that is about
// to be unlinked; the caller retries.
func bstSearch(root *BSTInternal, key uint64) bstContext {
	var ctx bstContext

	p := root
	updP := p.update.LoadAcquire()
	if getState(updP) == updateDFlag || getState(updP) == updateMark {
		return ctx
	}
	goRight := key >= p.key
	var cur uint64
	if goRight {
		cur = p.right.LoadAcquire()
	} else {
		cur = p.left.LoadAcquire()
	}

	var gp *BSTInternal
	var updGP uint64
	var pRightOfGP bool

	for depth := 0; bstChildKind(cur) == bstKindInternal; depth++ {
		if depth >= bstMaxDepth {
			return ctx
		}
		gp, updGP, pRightOfGP = p, updP, goRight

		p = bstChildInternal(cur)
		updP = p.update.LoadAcquire()
		if getState(updP) == updateDFlag || getState(updP) == updateMark {
			return ctx
		}
		goRight = key >= p.key
		if goRight {
			cur = p.right.LoadAcquire()
		} else {
			cur = p.left.LoadAcquire()
		}
	}

	ctx.gp, ctx.updGP, ctx.pRightOfGP = gp, updGP, pRightOfGP
	ctx.p, ctx.updP = p, updP
	ctx.l = bstChildLeaf(cur)
	ctx.lRightOfP = goRight
	ctx.valid = true
	return ctx
}

// insertInfo is the descriptor published while an insert is in flight.
type insertInfo struct {
	parent      *BSTInternal
	newInternal *BSTInternal
	oldLeaf     *BSTLeaf
	rightChild  bool // oldLeaf is parent's right child
}

// deleteInfo is the descriptor published while a delete is in flight.
type deleteInfo struct {
	gp, p      *BSTInternal
	l          *BSTLeaf
	pRightOfGP bool
	lRightOfP  bool
	updP       uint64
}

// BSTInsert applies the insert-or-update policy for kv: if kv.Key is
// already present its value is overwritten in place, otherwise a new
// leaf is spliced in under cooperative helping. Safe for any number of
// concurrent inserters, deleters and searchers.
func BSTInsert(h *BSTHead, kv KV) Result {
	key, value := kv.Key, kv.Value
	if key >= SentinelKey1 {
		return Invalid
	}
	sw := spin.Wait{}
	for i := 0; i < bstMaxRetries; i++ {
		ctx := bstSearch(h.root, key)
		if !ctx.valid {
			sw.Once()
			continue
		}
		if ctx.l.key == key {
			ctx.l.value.StoreRelease(value)
			return Success
		}
		if getState(ctx.updP) != updateClean {
			bstHelp(ctx.updP)
			sw.Once()
			continue
		}

		newLeaf := allocOne[BSTLeaf](h.arena)
		newInternal := allocOne[BSTInternal](h.arena)
		info := allocOne[insertInfo](h.arena)
		if newLeaf == nil || newInternal == nil || info == nil {
			return NoMem
		}
		newLeaf.header.kind = bstKindLeaf
		newLeaf.key = key
		newLeaf.value.StoreRelaxed(value)

		l := ctx.l
		newInternal.header.kind = bstKindInternal
		if key < l.key {
			newInternal.key = l.key
			newInternal.left.StoreRelaxed(bstWord(unsafe.Pointer(newLeaf)))
			newInternal.right.StoreRelaxed(bstWord(unsafe.Pointer(l)))
		} else {
			newInternal.key = key
			newInternal.left.StoreRelaxed(bstWord(unsafe.Pointer(l)))
			newInternal.right.StoreRelaxed(bstWord(unsafe.Pointer(newLeaf)))
		}
		newInternal.update.StoreRelaxed(makeUpdate(nil, updateClean))

		info.parent = ctx.p
		info.newInternal = newInternal
		info.oldLeaf = l
		info.rightChild = ctx.lRightOfP

		want := makeUpdate(unsafe.Pointer(info), updateIFlag)
		if ctx.p.update.CompareAndSwapAcqRel(ctx.updP, want) {
			bstHelpInsert(info)
			h.Count.AddRelaxed(1)
			return Success
		}
		bstHelp(ctx.p.update.LoadAcquire())
		sw.Once()
	}
	return Busy
}

// bstHelpInsert completes a flagged insert: swings the parent's child
// pointer from the old leaf to the new internal node, then clears the
// flag. Idempotent — safe to call from the inserting thread or from any
// helper that observed the IFlag.
func bstHelpInsert(info *insertInfo) {
	field := &info.parent.left
	if info.rightChild {
		field = &info.parent.right
	}
	field.CompareAndSwapAcqRel(bstWord(unsafe.Pointer(info.oldLeaf)), bstWord(unsafe.Pointer(info.newInternal)))

	want := makeUpdate(unsafe.Pointer(info), updateIFlag)
	info.parent.update.CompareAndSwapAcqRel(want, makeUpdate(unsafe.Pointer(info), updateClean))
}

// BSTDelete removes key if present. Safe for any number of concurrent
// deleters, inserters and searchers.
func BSTDelete(h *BSTHead, key uint64) Result {
	if key >= SentinelKey1 {
		return Invalid
	}
	sw := spin.Wait{}
	for i := 0; i < bstMaxRetries; i++ {
		ctx := bstSearch(h.root, key)
		if !ctx.valid {
			sw.Once()
			continue
		}
		if ctx.l.key != key {
			return NotFound
		}
		if getState(ctx.updGP) != updateClean {
			bstHelp(ctx.updGP)
			sw.Once()
			continue
		}
		if getState(ctx.updP) != updateClean {
			bstHelp(ctx.updP)
			sw.Once()
			continue
		}

		info := allocOne[deleteInfo](h.arena)
		if info == nil {
			return NoMem
		}
		info.gp, info.p, info.l = ctx.gp, ctx.p, ctx.l
		info.pRightOfGP, info.lRightOfP = ctx.pRightOfGP, ctx.lRightOfP
		info.updP = ctx.updP

		want := makeUpdate(unsafe.Pointer(info), updateDFlag)
		if ctx.gp.update.CompareAndSwapAcqRel(ctx.updGP, want) {
			if bstHelpDelete(info) {
				h.Count.AddRelaxed(^uint64(0))
				return Success
			}
			sw.Once()
			continue
		}
		bstHelp(ctx.gp.update.LoadAcquire())
		sw.Once()
	}
	return Busy
}

// bstHelpDelete marks p for removal and, on success, finishes the
// splice via help_marked. On mark failure it helps whatever blocked it
// and backtracks gp's flag so the caller can retry from scratch.
// Returns true if the delete committed.
func bstHelpDelete(info *deleteInfo) bool {
	markWant := makeUpdate(unsafe.Pointer(info), updateMark)
	marked := info.p.update.CompareAndSwapAcqRel(info.updP, markWant)
	if !marked && info.p.update.LoadAcquire() == markWant {
		marked = true
	}
	if marked {
		bstHelpMarked(info)
		return true
	}

	bstHelp(info.p.update.LoadAcquire())
	dWant := makeUpdate(unsafe.Pointer(info), updateDFlag)
	info.gp.update.CompareAndSwapAcqRel(dWant, makeUpdate(unsafe.Pointer(info), updateClean))
	return false
}

// bstHelpMarked swings gp's child pointer from p to l's sibling,
// completing a marked delete, then clears gp's flag. Idempotent.
func bstHelpMarked(info *deleteInfo) {
	siblingWord := info.p.right.LoadAcquire()
	if info.lRightOfP {
		siblingWord = info.p.left.LoadAcquire()
	}
	field := &info.gp.left
	if info.pRightOfGP {
		field = &info.gp.right
	}
	field.CompareAndSwapAcqRel(bstWord(unsafe.Pointer(info.p)), siblingWord)

	want := makeUpdate(unsafe.Pointer(info), updateDFlag)
	info.gp.update.CompareAndSwapAcqRel(want, makeUpdate(unsafe.Pointer(info), updateClean))
}

// bstHelp dispatches on an update word's state to the matching helper.
// Safe to call with a Clean word (no-op via the switch default).
func bstHelp(update uint64) {
	switch getState(update) {
	case updateIFlag:
		bstHelpInsert((*insertInfo)(updatePtr(update)))
	case updateDFlag:
		bstHelpDelete((*deleteInfo)(updatePtr(update)))
	case updateMark:
		bstHelpMarked((*deleteInfo)(updatePtr(update)))
	}
}

// BSTSearch reports whether key is present.
func BSTSearch(h *BSTHead, key uint64) Result {
	sw := spin.Wait{}
	for i := 0; i < bstMaxRetries; i++ {
		ctx := bstSearch(h.root, key)
		if !ctx.valid {
			sw.Once()
			continue
		}
		if ctx.l.key == key {
			return Success
		}
		return NotFound
	}
	return Busy
}

// bstVerifyFrame is one entry of BSTVerify's explicit DFS stack: the raw
// child word plus the open key range it must satisfy.
type bstVerifyFrame struct {
	word  uint64
	hasLo bool
	lo    uint64 // inclusive
	hasHi bool
	hi    uint64 // exclusive
}

// BSTVerify walks the whole tree with a bounded explicit stack, checking
// the BST ordering property, leaf/internal alternation, and that the
// count of non-sentinel leaves matches head.Count. Intended for use
// after a quiescent point; concurrent mutation during Verify can produce
// a false Corrupt.
func BSTVerify(h *BSTHead) Result {
	if h.root == nil {
		return Corrupt
	}
	stack := make([]bstVerifyFrame, 0, 64)
	stack = append(stack, bstVerifyFrame{word: bstWord(unsafe.Pointer(h.root))})

	var leaves uint64
	visited := 0
	for len(stack) > 0 {
		visited++
		if visited > bstVerifyMaxNodes {
			return Corrupt
		}
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.word == 0 {
			return Corrupt
		}

		switch bstChildKind(f.word) {
		case bstKindLeaf:
			l := bstChildLeaf(f.word)
			if f.hasLo && l.key < f.lo {
				return Corrupt
			}
			if f.hasHi && l.key >= f.hi {
				return Corrupt
			}
			if l.key != SentinelKey1 && l.key != SentinelKey2 {
				leaves++
			}
		case bstKindInternal:
			n := bstChildInternal(f.word)
			if f.hasLo && n.key < f.lo {
				return Corrupt
			}
			if f.hasHi && n.key >= f.hi {
				return Corrupt
			}
			left := bstVerifyFrame{word: n.left.LoadAcquire(), hasLo: f.hasLo, lo: f.lo, hasHi: true, hi: n.key}
			right := bstVerifyFrame{word: n.right.LoadAcquire(), hasLo: true, lo: n.key, hasHi: f.hasHi, hi: f.hi}
			stack = append(stack, left, right)
		default:
			return Corrupt
		}
	}
	if leaves != h.Count.LoadRelaxed() {
		return Corrupt
	}
	return Success
}
