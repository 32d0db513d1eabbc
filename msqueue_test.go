// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package arena_test

import (
	"sort"
	"sync"
	"testing"

	"code.hybscloud.com/arena"
)

func TestMSQueueBasicFIFO(t *testing.T) {
	a := arena.New(0)
	var h arena.MSQueueHead
	if r := arena.MSQueueInit(a, &h); r != arena.Success {
		t.Fatalf("MSQueueInit: got %v, want Success", r)
	}

	if r := arena.MSQueuePop(&h, &arena.KV{}); r != arena.NotFound {
		t.Fatalf("MSQueuePop on empty: got %v, want NotFound", r)
	}

	for i := uint64(0); i < 5; i++ {
		if r := arena.MSQueueInsert(&h, i, i*2); r != arena.Success {
			t.Fatalf("MSQueueInsert(%d): got %v, want Success", i, r)
		}
	}

	var out arena.KV
	for i := uint64(0); i < 5; i++ {
		if r := arena.MSQueuePop(&h, &out); r != arena.Success {
			t.Fatalf("MSQueuePop(%d): got %v, want Success", i, r)
		}
		if out.Key != i || out.Value != i*2 {
			t.Fatalf("MSQueuePop(%d): got (%d,%d), want (%d,%d)", i, out.Key, out.Value, i, i*2)
		}
	}
	if r := arena.MSQueueVerify(&h); r != arena.Success {
		t.Fatalf("MSQueueVerify: got %v, want Success", r)
	}
}

// TestMSQueuePingPong exercises a single producer racing a single
// consumer and checks every enqueued value is dequeued exactly once, in
// some order (the MS queue guarantees FIFO across concurrent producers,
// but here there is exactly one of each so the order must be exact).
func TestMSQueuePingPong(t *testing.T) {
	if arena.RaceEnabled {
		t.Skip("skip: linearizability test requires concurrent access")
	}

	a := arena.New(0)
	var h arena.MSQueueHead
	arena.MSQueueInit(a, &h)

	const n = 2000
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := uint64(0); i < n; i++ {
			spinUntilSuccess(func() arena.Result { return arena.MSQueueInsert(&h, i, i) })
		}
	}()

	var out arena.KV
	for i := uint64(0); i < n; i++ {
		spinUntilSuccess(func() arena.Result { return arena.MSQueuePop(&h, &out) })
		if out.Key != i {
			t.Fatalf("pop %d: got key %d, want %d (FIFO violated)", i, out.Key, i)
		}
	}
	<-done
	if r := arena.MSQueueVerify(&h); r != arena.Success {
		t.Fatalf("MSQueueVerify: got %v, want Success", r)
	}
}

// TestMSQueueMultiProducer checks that with several concurrent producers
// and one consumer, every value makes it through exactly once.
func TestMSQueueMultiProducer(t *testing.T) {
	if arena.RaceEnabled {
		t.Skip("skip: linearizability test requires concurrent access")
	}

	const producers = 8
	const perProducer = 500
	const total = producers * perProducer

	a := arena.New(0)
	var h arena.MSQueueHead
	arena.MSQueueInit(a, &h)

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				key := uint64(p*perProducer + i)
				spinUntilSuccess(func() arena.Result { return arena.MSQueueInsert(&h, key, key) })
			}
		}(p)
	}

	seen := make([]uint64, 0, total)
	var out arena.KV
	for len(seen) < total {
		if arena.MSQueuePop(&h, &out) == arena.Success {
			seen = append(seen, out.Key)
		}
	}
	wg.Wait()

	sort.Slice(seen, func(i, j int) bool { return seen[i] < seen[j] })
	for i, k := range seen {
		if k != uint64(i) {
			t.Fatalf("missing or duplicate key: seen[%d]=%d, want %d", i, k, i)
		}
	}
	if r := arena.MSQueueVerify(&h); r != arena.Success {
		t.Fatalf("MSQueueVerify: got %v, want Success", r)
	}
}
