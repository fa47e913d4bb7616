package rbtree

import (
	"math/rand"
	"testing"
)

type kv struct {
	key uint64
	val string
}

func kvKey(e kv) uint64 { return e.key }

func TestInsertLookupBasic(t *testing.T) {
	tr := New(kvKey, nil, func(a, b kv) bool { return a.val == b.val })

	values := []kv{{5, "e"}, {3, "c"}, {8, "h"}, {1, "a"}, {4, "d"}}
	for _, v := range values {
		tr.Insert(v)
	}
	if tr.Len() != len(values) {
		t.Fatalf("len = %d, want %d", tr.Len(), len(values))
	}
	for _, v := range values {
		got, ok := tr.Lookup(v.key)
		if !ok || got.val != v.val {
			t.Fatalf("lookup(%d) = %v, %v; want %q", v.key, got, ok, v.val)
		}
	}
	if _, ok := tr.Lookup(999); ok {
		t.Fatal("lookup of a missing key should miss")
	}
}

func TestInsertCollisionReplacesAndDeallocs(t *testing.T) {
	var deallocated []string
	dealloc := func(v kv) { deallocated = append(deallocated, v.val) }
	equal := func(a, b kv) bool { return a.val == b.val }
	tr := New(kvKey, dealloc, equal)

	tr.Insert(kv{1, "first"})
	tr.Insert(kv{1, "second"})

	if tr.Len() != 1 {
		t.Fatalf("len = %d, want 1 after a same-key insert", tr.Len())
	}
	got, ok := tr.Lookup(1)
	if !ok || got.val != "second" {
		t.Fatalf("lookup(1) = %v, %v; want %q", got, ok, "second")
	}
	if len(deallocated) != 1 || deallocated[0] != "first" {
		t.Fatalf("deallocated = %v, want [first]", deallocated)
	}
}

func TestInsertSameKeySameValueIsNoop(t *testing.T) {
	calls := 0
	dealloc := func(v kv) { calls++ }
	tr := New(kvKey, dealloc, func(a, b kv) bool { return a.val == b.val })

	tr.Insert(kv{1, "x"})
	tr.Insert(kv{1, "x"})

	if calls != 0 {
		t.Fatalf("dealloc called %d times, want 0 for an identical reinsert", calls)
	}
}

func TestRemove(t *testing.T) {
	tr := New(kvKey, nil, nil)
	for i := uint64(0); i < 20; i++ {
		tr.Insert(kv{i, "v"})
	}
	for i := uint64(0); i < 20; i += 2 {
		if !tr.Remove(kv{key: i}) {
			t.Fatalf("Remove(%d) = false, want true", i)
		}
	}
	if tr.Len() != 10 {
		t.Fatalf("len = %d, want 10", tr.Len())
	}
	for i := uint64(0); i < 20; i++ {
		_, ok := tr.Lookup(i)
		want := i%2 == 1
		if ok != want {
			t.Fatalf("lookup(%d) present = %v, want %v", i, ok, want)
		}
	}
	if tr.Remove(kv{key: 1000}) {
		t.Fatal("Remove of an absent key should return false")
	}
}

func TestInorderIterAscending(t *testing.T) {
	tr := New(kvKey, nil, nil)
	keys := []uint64{50, 30, 70, 10, 40, 60, 90, 20, 80}
	for _, k := range keys {
		tr.Insert(kv{k, "v"})
	}

	it := tr.InorderIter()
	var prev uint64
	count := 0
	for {
		v, ok := it.Next()
		if !ok {
			break
		}
		if count > 0 && v.key < prev {
			t.Fatalf("inorder iteration out of order at %d after %d", v.key, prev)
		}
		prev = v.key
		count++
	}
	if count != len(keys) {
		t.Fatalf("iterated %d values, want %d", count, len(keys))
	}
}

// Ordered-map invariant (spec §8): after any sequence of inserts/removes,
// Verify reports a positive black height and in-order traversal stays
// ascending.
func TestVerifyHoldsAfterRandomMutations(t *testing.T) {
	tr := New(kvKey, nil, nil)
	rng := rand.New(rand.NewSource(1))
	present := map[uint64]bool{}

	for i := 0; i < 500; i++ {
		k := uint64(rng.Intn(200))
		if rng.Intn(2) == 0 {
			tr.Insert(kv{k, "v"})
			present[k] = true
		} else {
			tr.Remove(kv{key: k})
			delete(present, k)
		}

		if bh := tr.Verify(nil); bh <= 0 {
			t.Fatalf("iteration %d: Verify returned %d, want a positive black height", i, bh)
		}
	}

	if tr.Len() != len(present) {
		t.Fatalf("len = %d, want %d", tr.Len(), len(present))
	}
	for k, want := range present {
		_, ok := tr.Lookup(k)
		if ok != want {
			t.Fatalf("lookup(%d) = %v, want %v", k, ok, want)
		}
	}
}

func TestVerifyEmptyTree(t *testing.T) {
	tr := New(kvKey, nil, nil)
	if bh := tr.Verify(nil); bh != 1 {
		t.Fatalf("Verify on an empty tree = %d, want 1", bh)
	}
}
