// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package arena

// KV is the fixed key-value record every container stores.
//
// Key is opaque to the core except where a container imposes ordering
// (the BST) or reserves a sentinel range (see [SentinelKey1],
// [SentinelKey2]). Both fields are 64-bit so the record's layout is
// identical regardless of which side of the arena boundary reads it.
type KV struct {
	Key   uint64
	Value uint64
}

// Reserved key range for the EFRB BST's sentinel leaves. Only keys below
// SentinelKey1 may be inserted by callers; SentinelKey1 and SentinelKey2
// are reachable at every point in the tree's lifetime and bound every
// in-order traversal from above.
const (
	SentinelKey1 uint64 = 1<<64 - 2
	SentinelKey2 uint64 = 1<<64 - 1
)

// Result is the closed outcome enum every public operation returns.
//
// Results are not errors in the Go sense — they are not meant to be
// wrapped, wrapped again, or propagated up a call stack. A caller branches
// on the value directly. See [ResultToErr] to bridge into the error idiom.
type Result uint8

const (
	// Success indicates the operation completed and any side effect is
	// visible to subsequent operations.
	Success Result = iota
	// NotFound indicates a dequeue on an empty container, a search miss,
	// or a delete of an absent key.
	NotFound
	// Full indicates a bounded container rejected an insert.
	Full
	// NoMem indicates the arena allocator is exhausted.
	NoMem
	// Exists indicates an insert found an existing key where the
	// container forbids duplicates.
	Exists
	// Busy indicates a transient state (a stalled MPSC producer, a
	// flagged BST update) — the caller should retry.
	Busy
	// Invalid indicates a precondition violation (nil head, a capacity
	// that isn't a power of two, a reserved key) or an exhausted bounded
	// retry count.
	Invalid
	// Corrupt indicates Verify detected a broken invariant.
	Corrupt
)

// String renders the Result's name, used in log lines and ResultToErr.
func (r Result) String() string {
	switch r {
	case Success:
		return "Success"
	case NotFound:
		return "NotFound"
	case Full:
		return "Full"
	case NoMem:
		return "NoMem"
	case Exists:
		return "Exists"
	case Busy:
		return "Busy"
	case Invalid:
		return "Invalid"
	case Corrupt:
		return "Corrupt"
	default:
		return "Result(?)"
	}
}

// Metadata is immutable per-container introspection data used by tests
// and callers that need to report on a container without depending on its
// concrete type.
type Metadata struct {
	// Name is the container's short identifier, e.g. "ms-queue".
	Name string
	// Description is a one-line summary of the algorithm.
	Description string
	// NodeSize is the size in bytes of one arena-allocated node, or the
	// per-slot size for array-backed containers. Used to estimate arena
	// consumption ahead of time.
	NodeSize uintptr
	// RequiresLocking is true only for containers that are not
	// internally concurrency-safe (currently: [ListHead]).
	RequiresLocking bool
}
