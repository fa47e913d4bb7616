package rbtree

import "log/slog"

// Verify walks the tree and checks the red-black invariants: no red node
// has a red child, every root-to-nil-leaf path has the same black height,
// and keys appear in ascending order under in-order traversal. It returns
// the black height on success, or 0 and logs the violation kind on any
// failure (spec §4.B, §8).
func (t *Tree[V]) Verify(logger *slog.Logger) int {
	if logger == nil {
		logger = slog.Default()
	}
	if t.root != nil && t.root.color != black {
		logger.Warn("rbtree verify failed", "violation", "root_not_black")
		return 0
	}

	var orderViolation bool
	var walk func(n *node[V]) int
	walk = func(n *node[V]) int {
		if n == nil {
			return 1
		}
		if isRed(n) && (isRed(n.left) || isRed(n.right)) {
			logger.Warn("rbtree verify failed", "violation", "red_red", "key", n.key)
			return -1
		}
		leftHeight := walk(n.left)
		if leftHeight < 0 {
			return -1
		}
		rightHeight := walk(n.right)
		if rightHeight < 0 {
			return -1
		}
		if leftHeight != rightHeight {
			logger.Warn("rbtree verify failed", "violation", "black_height_mismatch", "key", n.key)
			return -1
		}
		if n.color == black {
			return leftHeight + 1
		}
		return leftHeight
	}

	bh := walk(t.root)
	if bh < 0 {
		return 0
	}

	it := t.InorderIter()
	prevSet := false
	var prev uint64
	for {
		v, ok := it.Next()
		if !ok {
			break
		}
		k := t.keyFunc(v)
		if prevSet && k < prev {
			orderViolation = true
			break
		}
		prev = k
		prevSet = true
	}
	if orderViolation {
		logger.Warn("rbtree verify failed", "violation", "out_of_order")
		return 0
	}

	if bh == 0 {
		return 1
	}
	return bh
}
