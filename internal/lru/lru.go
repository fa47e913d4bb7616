// Package lru implements the bounded, replaceable object cache spec §4.C
// describes: a bucketed hash table keyed by logical address, backed by a
// doubly linked recency list with explicit oldest/youngest ends.
//
// Unlike the read set (rbtree), this structure is bounded and entries may
// be silently evicted; it exists purely as a fast path in front of the
// address map, grounded on the pack's disk-entry LRU cache shape (a
// bucketed index plus an explicit recency order) rather than on
// container/list, since spec §4.C specifies the back-references (each
// entry holds a pointer to its own recency node) explicitly.
package lru

// Entry is one cached (LA, value) pair.
type Entry[V any] struct {
	la    uint32
	value V

	bucketNext, bucketPrev *Entry[V]
	older, younger         *Entry[V]
}

// Cache is a fixed-capacity LRU keyed by a 32-bit logical address.
type Cache[V any] struct {
	buckets     []*Entry[V]
	bucketCount int
	maxSize     int
	size        int
	oldest      *Entry[V]
	youngest    *Entry[V]
}

// New constructs a cache with the given bucket count (ideally a prime near
// capacity, default 1021) and maximum size.
func New[V any](bucketCount, maxSize int) *Cache[V] {
	if bucketCount <= 0 {
		bucketCount = 1
	}
	return &Cache[V]{
		buckets:     make([]*Entry[V], bucketCount),
		bucketCount: bucketCount,
		maxSize:     maxSize,
	}
}

// Size returns the number of cached entries.
func (c *Cache[V]) Size() int { return c.size }

// OldestLA and YoungestLA expose the recency list's ends, used by
// diagnostics and by the eviction-order tests spec §8 scenario 5 and 6
// describe.
func (c *Cache[V]) OldestLA() (uint32, bool) {
	if c.oldest == nil {
		return 0, false
	}
	return c.oldest.la, true
}

func (c *Cache[V]) YoungestLA() (uint32, bool) {
	if c.youngest == nil {
		return 0, false
	}
	return c.youngest.la, true
}

func (c *Cache[V]) bucketIndex(la uint32) int {
	return int(la % uint32(c.bucketCount))
}

// Insert adds or replaces the entry for la, making it the youngest. If the
// insert pushes size past maxSize, entries are evicted from the oldest end
// until size == maxSize.
func (c *Cache[V]) Insert(la uint32, value V) {
	if c.maxSize <= 0 {
		return
	}
	if e := c.find(la); e != nil {
		e.value = value
		c.touch(e)
		return
	}

	e := &Entry[V]{la: la, value: value}
	c.bucketInsertOrdered(e)
	c.pushYoungest(e)
	c.size++

	for c.size > c.maxSize && c.oldest != nil {
		c.removeEntry(c.oldest)
	}
}

// bucketInsertOrdered links e into its bucket chain keeping LAs in
// ascending order (spec §4.C, tested by §8 "cache bucket order").
func (c *Cache[V]) bucketInsertOrdered(e *Entry[V]) {
	idx := c.bucketIndex(e.la)
	head := c.buckets[idx]

	if head == nil || head.la > e.la {
		e.bucketNext = head
		if head != nil {
			head.bucketPrev = e
		}
		c.buckets[idx] = e
		return
	}

	cur := head
	for cur.bucketNext != nil && cur.bucketNext.la < e.la {
		cur = cur.bucketNext
	}
	e.bucketNext = cur.bucketNext
	if cur.bucketNext != nil {
		cur.bucketNext.bucketPrev = e
	}
	cur.bucketNext = e
	e.bucketPrev = cur
}

func (c *Cache[V]) find(la uint32) *Entry[V] {
	idx := c.bucketIndex(la)
	for cur := c.buckets[idx]; cur != nil; cur = cur.bucketNext {
		if cur.la == la {
			return cur
		}
		if cur.la > la {
			break
		}
	}
	return nil
}

// Get returns the cached value for la, moving it to the youngest end of
// the recency list on a hit.
func (c *Cache[V]) Get(la uint32) (V, bool) {
	e := c.find(la)
	if e == nil {
		var zero V
		return zero, false
	}
	c.touch(e)
	return e.value, true
}

// GetQuiet is Get without disturbing recency order.
func (c *Cache[V]) GetQuiet(la uint32) (V, bool) {
	e := c.find(la)
	if e == nil {
		var zero V
		return zero, false
	}
	return e.value, true
}

// RemoveAt evicts the entry for la, if present. A miss is a no-op.
func (c *Cache[V]) RemoveAt(la uint32) {
	if e := c.find(la); e != nil {
		c.removeEntry(e)
	}
}

func (c *Cache[V]) touch(e *Entry[V]) {
	if e == c.youngest {
		return
	}
	c.unlinkRecency(e)
	c.pushYoungest(e)
}

func (c *Cache[V]) pushYoungest(e *Entry[V]) {
	e.older = c.youngest
	e.younger = nil
	if c.youngest != nil {
		c.youngest.younger = e
	}
	c.youngest = e
	if c.oldest == nil {
		c.oldest = e
	}
}

func (c *Cache[V]) unlinkRecency(e *Entry[V]) {
	if e.older != nil {
		e.older.younger = e.younger
	} else if c.oldest == e {
		c.oldest = e.younger
	}
	if e.younger != nil {
		e.younger.older = e.older
	} else if c.youngest == e {
		c.youngest = e.older
	}
	e.older, e.younger = nil, nil
}

func (c *Cache[V]) unlinkBucket(e *Entry[V]) {
	idx := c.bucketIndex(e.la)
	if e.bucketPrev != nil {
		e.bucketPrev.bucketNext = e.bucketNext
	} else {
		c.buckets[idx] = e.bucketNext
	}
	if e.bucketNext != nil {
		e.bucketNext.bucketPrev = e.bucketPrev
	}
	e.bucketPrev, e.bucketNext = nil, nil
}

func (c *Cache[V]) removeEntry(e *Entry[V]) {
	c.unlinkBucket(e)
	c.unlinkRecency(e)
	c.size--
}
