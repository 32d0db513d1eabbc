// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package arena provides concurrent, arena-backed in-memory data structures.
//
// The package models a producer/consumer relationship over a single
// contiguous, append-only memory region (the [Arena]): one side inserts
// entries, the other pops, searches, deletes or verifies them, and no
// copies cross the boundary beyond the KV payload itself. Every container
// lives entirely inside an Arena and is reachable from a single head
// record.
//
// # Containers
//
//   - List: externally-serialized doubly-linked ordered sequence.
//   - MSQueue: Michael–Scott unbounded MPMC FIFO.
//   - VyukovMPMC: bounded MPMC array queue with per-slot sequence numbers.
//   - MPSCLinked: Vyukov-style unbounded MPSC linked queue.
//   - SPSCFolly: bounded SPSC ring, Folly ProducerConsumerQueue discipline.
//   - SPSCCK: bounded SPSC ring, CK library index discipline.
//   - EFRB BST: leaf-oriented non-blocking binary search tree.
//
// # Quick start
//
//	a := arena.New(0) // default region: 1000 pages of 4 KiB
//	var h arena.MSQueueHead
//	arena.MSQueueInit(a, &h)
//
//	arena.MSQueueInsert(&h, 1, 100)
//	var out arena.KV
//	if r := arena.MSQueuePop(&h, &out); r == arena.Success {
//	    fmt.Println(out.Key, out.Value)
//	}
//
// # Result contract
//
// Every public operation returns exactly one value of the closed [Result]
// enum. Results are not errors: callers branch on the enum value directly.
// [ErrWouldBlock] and the Is* helpers exist only to let Result-based code
// interoperate with the error-based idiom used by
// [code.hybscloud.com/iox] elsewhere in this ecosystem.
//
// # Memory ordering
//
// Every atomic field is one of the explicit-ordering types from
// [code.hybscloud.com/atomix]. A load that gates a subsequent dereference,
// or that must observe a peer's prior writes, is always Acquire (or
// stronger); a load used only to detect change (an approximate counter) is
// Relaxed. See each container's file for the exact protocol.
//
// # Concurrency classes
//
//   - List: single-writer, externally serialized.
//   - MSQueue, VyukovMPMC: MPMC, lock-free.
//   - MPSCLinked: multi-producer (wait-free), single consumer.
//   - SPSCFolly, SPSCCK: exactly one producer, one consumer.
//   - EFRB BST: MPMC, lock-free with cooperative helping.
//
// Violating a container's concurrency class is undefined behavior; the
// core does not enforce it.
//
// # Reclamation
//
// The arena never reuses an address during its lifetime: Free is a
// no-op. This gives every CAS-based algorithm here de-facto ABA safety
// without hazard pointers or epoch reclamation. If a caller needs address
// reuse, they must add their own safe-memory-reclamation scheme; it is
// explicitly outside this package's contract.
//
// # Race detection
//
// Go's race detector cannot observe happens-before relationships
// established purely through atomix's acquire/release memory ordering on
// separate variables (it tracks explicit synchronization primitives
// instead). Concurrency-heavy tests are excluded under -race via
// [RaceEnabled] and //go:build race / !race pairs. For correctness
// verification beyond stress testing, use a model checker (TLA+, SPIN) or
// manual memory-model analysis.
package arena
