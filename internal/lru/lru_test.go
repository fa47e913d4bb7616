package lru

import "testing"

// LRU overfill (spec §8 scenario 5).
func TestOverfillEvictsOldest(t *testing.T) {
	c := New[int](30, 100)
	for la := 100; la < 200; la++ {
		c.Insert(uint32(la), la)
	}
	if c.Size() != 100 {
		t.Fatalf("size = %d, want 100", c.Size())
	}

	c.Insert(200, 200)
	if c.Size() != 100 {
		t.Fatalf("size after overfill = %d, want 100", c.Size())
	}
	if _, ok := c.GetQuiet(100); ok {
		t.Fatal("LA 100 should have been evicted")
	}
	if youngest, ok := c.YoungestLA(); !ok || youngest != 200 {
		t.Fatalf("youngest = %d, %v; want 200", youngest, ok)
	}
	if oldest, ok := c.OldestLA(); !ok || oldest != 101 {
		t.Fatalf("oldest = %d, %v; want 101", oldest, ok)
	}
}

// Cache mid-bucket insert ordering (spec §8 scenario 6).
func TestBucketChainStaysAscending(t *testing.T) {
	c := New[int](10, 100)
	for _, la := range []uint32{42, 12, 32} {
		c.Insert(la, int(la))
	}

	idx := c.bucketIndex(42)
	if idx != c.bucketIndex(12) || idx != c.bucketIndex(32) {
		t.Fatalf("test assumes 12, 32, 42 share bucket %d", idx)
	}

	var order []uint32
	for e := c.buckets[idx]; e != nil; e = e.bucketNext {
		order = append(order, e.la)
	}
	want := []uint32{12, 32, 42}
	if len(order) != len(want) {
		t.Fatalf("bucket chain = %v, want %v", order, want)
	}
	for i, la := range want {
		if order[i] != la {
			t.Fatalf("bucket chain = %v, want %v", order, want)
		}
	}
}

func TestGetQuietDoesNotDisturbRecency(t *testing.T) {
	c := New[int](10, 10)
	c.Insert(1, 1)
	c.Insert(2, 2)
	c.Insert(3, 3)

	beforeOldest, _ := c.OldestLA()
	beforeYoungest, _ := c.YoungestLA()

	if _, ok := c.GetQuiet(1); !ok {
		t.Fatal("expected a hit for LA 1")
	}

	afterOldest, _ := c.OldestLA()
	afterYoungest, _ := c.YoungestLA()
	if beforeOldest != afterOldest || beforeYoungest != afterYoungest {
		t.Fatal("get_quiet must not change oldest/youngest")
	}
}

func TestZeroMaxSizeAlwaysMisses(t *testing.T) {
	c := New[int](10, 0)
	c.Insert(1, 1)
	if c.Size() != 0 {
		t.Fatalf("size = %d, want 0 with max_size disabled", c.Size())
	}
	if _, ok := c.Get(1); ok {
		t.Fatal("a disabled cache must never hit")
	}
}
