// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package arena_test

import (
	"testing"

	"code.hybscloud.com/arena"
)

func TestListInsertPopFIFO(t *testing.T) {
	a := arena.New(0)
	var h arena.ListHead
	arena.ListInit(a, &h)

	for i := uint64(0); i < 4; i++ {
		if r := arena.ListInsert(&h, i, i*10); r != arena.Success {
			t.Fatalf("ListInsert(%d): got %v, want Success", i, r)
		}
	}

	var out arena.KV
	for i := uint64(0); i < 4; i++ {
		if r := arena.ListPop(&h, &out); r != arena.Success {
			t.Fatalf("ListPop(%d): got %v, want Success", i, r)
		}
		if out.Key != i || out.Value != i*10 {
			t.Fatalf("ListPop(%d): got (%d,%d), want (%d,%d)", i, out.Key, out.Value, i, i*10)
		}
	}
	if r := arena.ListPop(&h, &out); r != arena.NotFound {
		t.Fatalf("ListPop on empty: got %v, want NotFound", r)
	}
}

func TestListSearchAndDelete(t *testing.T) {
	a := arena.New(0)
	var h arena.ListHead
	arena.ListInit(a, &h)

	for i := uint64(0); i < 5; i++ {
		arena.ListInsert(&h, i, i)
	}

	if r := arena.ListSearch(&h, 3); r != arena.Success {
		t.Fatalf("ListSearch(3): got %v, want Success", r)
	}
	if r := arena.ListSearch(&h, 99); r != arena.NotFound {
		t.Fatalf("ListSearch(99): got %v, want NotFound", r)
	}

	if r := arena.ListDelete(&h, 3); r != arena.Success {
		t.Fatalf("ListDelete(3): got %v, want Success", r)
	}
	if r := arena.ListDelete(&h, 3); r != arena.NotFound {
		t.Fatalf("ListDelete(3) twice: got %v, want NotFound", r)
	}
	if r := arena.ListSearch(&h, 3); r != arena.NotFound {
		t.Fatalf("ListSearch(3) after delete: got %v, want NotFound", r)
	}

	if r := arena.ListVerify(&h); r != arena.Success {
		t.Fatalf("ListVerify: got %v, want Success", r)
	}
}

func TestListDeleteTailUpdatesPprev(t *testing.T) {
	a := arena.New(0)
	var h arena.ListHead
	arena.ListInit(a, &h)

	for i := uint64(0); i < 3; i++ {
		arena.ListInsert(&h, i, i)
	}
	if r := arena.ListDelete(&h, 2); r != arena.Success {
		t.Fatalf("ListDelete(2): got %v, want Success", r)
	}
	// re-insert to exercise the next field the delete just cleared through
	// the removed tail's pprev
	if r := arena.ListInsert(&h, 3, 3); r != arena.Success {
		t.Fatalf("ListInsert(3): got %v, want Success", r)
	}
	if r := arena.ListVerify(&h); r != arena.Success {
		t.Fatalf("ListVerify after delete+insert: got %v, want Success", r)
	}
}
