// SPDX-License-Identifier: MIT

// Package tree implements the AVL-balanced tree of leaf bit blocks that
// underlies both the dynamic bit vector and the dynamic
// balanced-parentheses tree. Every node carries the aggregates both
// layers need (subtree size, ones count, total/min excess); the DBV
// façade simply never reads the excess fields.
package tree

import (
	"errors"
	"fmt"
	"iter"

	"github.com/moritzpotthoff/AdvancedDataStructures/internal/block"
)

// node is either a leaf (block != nil) or an inner node with exactly
// two children. Aggregates describe the node's own subtree, derived
// from its children rather than duplicated top-down, so there is a
// single source of truth for each value.
type node struct {
	leaf        *block.Block
	left, right *node

	height      int
	size        int
	ones        int
	totalExcess int
	minExcess   int
	minTimes    int
}

func (n *node) isLeaf() bool { return n.leaf != nil }

func height(n *node) int {
	if n == nil {
		return 0
	}
	return n.height
}

func newLeafNode(b *block.Block) *node {
	n := &node{leaf: b}
	n.recompute()
	return n
}

func newInnerNode(left, right *node) *node {
	n := &node{left: left, right: right}
	n.recompute()
	return n
}

func (n *node) recompute() {
	if n.isLeaf() {
		n.size = n.leaf.Len()
		n.ones = n.leaf.PopCount()
		n.totalExcess, n.minExcess, n.minTimes = n.leaf.RecomputeExcess()
		n.height = 1
		return
	}
	n.size = n.left.size + n.right.size
	n.ones = n.left.ones + n.right.ones
	n.totalExcess = n.left.totalExcess + n.right.totalExcess
	rightMin := n.left.totalExcess + n.right.minExcess
	switch {
	case n.left.minExcess < rightMin:
		n.minExcess, n.minTimes = n.left.minExcess, n.left.minTimes
	case n.left.minExcess > rightMin:
		n.minExcess, n.minTimes = rightMin, n.right.minTimes
	default:
		n.minExcess, n.minTimes = n.left.minExcess, n.left.minTimes+n.right.minTimes
	}
	n.height = 1 + max(height(n.left), height(n.right))
}

func balanceFactor(n *node) int {
	return height(n.left) - height(n.right)
}

func rotateLeft(n *node) *node {
	r := n.right
	n.right = r.left
	r.left = n
	n.recompute()
	r.recompute()
	return r
}

func rotateRight(n *node) *node {
	l := n.left
	n.left = l.right
	l.right = n
	n.recompute()
	l.recompute()
	return l
}

// rebalance restores AVL balance. Aggregates are always recomputed
// from children rather than carried as deltas, so each rotation only
// needs the new children in place. A single rotation suffices when the
// heavy child leans the same way as n; when it leans the other way, the
// child is rotated first (the classic double-rotation case).
func rebalance(n *node) *node {
	switch bf := balanceFactor(n); {
	case bf > 1:
		if balanceFactor(n.left) < 0 {
			n.left = rotateLeft(n.left)
		}
		return rotateRight(n)
	case bf < -1:
		if balanceFactor(n.right) > 0 {
			n.right = rotateRight(n.right)
		}
		return rotateLeft(n)
	default:
		return n
	}
}

// Tree is an AVL tree of bit blocks supporting the full DBV/DBP
// operation set in O(log n).
type Tree struct {
	root *node
}

// New returns an empty tree (a single empty leaf).
func New() *Tree {
	return &Tree{root: newLeafNode(block.New())}
}

// Build constructs a balanced tree directly from an initial bit
// sequence, distributing it evenly across leaves instead of inserting
// bit by bit.
func Build(bits []bool) *Tree {
	if len(bits) == 0 {
		return New()
	}
	return &Tree{root: buildBalanced(splitIntoLeaves(bits))}
}

func splitIntoLeaves(bits []bool) []*node {
	total := len(bits)
	if total <= block.Capacity {
		b := block.New()
		b.BulkAssign(bits)
		return []*node{newLeafNode(b)}
	}
	numLeaves := (total + block.Capacity - 1) / block.Capacity
	base := total / numLeaves
	extra := total % numLeaves
	leaves := make([]*node, 0, numLeaves)
	pos := 0
	for i := 0; i < numLeaves; i++ {
		n := base
		if i < extra {
			n++
		}
		b := block.New()
		b.BulkAssign(bits[pos : pos+n])
		leaves = append(leaves, newLeafNode(b))
		pos += n
	}
	return leaves
}

func buildBalanced(leaves []*node) *node {
	if len(leaves) == 1 {
		return leaves[0]
	}
	mid := len(leaves) / 2
	return newInnerNode(buildBalanced(leaves[:mid]), buildBalanced(leaves[mid:]))
}

// Len returns the total number of bits in the tree.
func (t *Tree) Len() int { return t.root.size }

// Ones returns the total number of 1-bits in the tree.
func (t *Tree) Ones() int { return t.root.ones }

// Access returns the bit at position i.
func (t *Tree) Access(i int) bool { return access(t.root, i) }

func access(n *node, i int) bool {
	if n.isLeaf() {
		return n.leaf.Test(i)
	}
	if i < n.left.size {
		return access(n.left, i)
	}
	return access(n.right, i-n.left.size)
}

// Rank1 returns the number of 1-bits in [0, limit).
func (t *Tree) Rank1(limit int) int { return rank1(t.root, limit) }

func rank1(n *node, limit int) int {
	if limit <= 0 {
		return 0
	}
	if limit >= n.size {
		return n.ones
	}
	if n.isLeaf() {
		return n.leaf.Rank1(limit)
	}
	if limit <= n.left.size {
		return rank1(n.left, limit)
	}
	return n.left.ones + rank1(n.right, limit-n.left.size)
}

// Select1 returns the position of the j-th (1-indexed) 1-bit.
// Select1(0) is 0, matching the DBP convention.
func (t *Tree) Select1(j int) int {
	if j == 0 {
		return 0
	}
	return select1(t.root, j)
}

func select1(n *node, j int) int {
	if n.isLeaf() {
		return n.leaf.Select1(j)
	}
	if j <= n.left.ones {
		return select1(n.left, j)
	}
	return n.left.size + select1(n.right, j-n.left.ones)
}

// Select0 returns the position of the j-th (1-indexed) 0-bit.
func (t *Tree) Select0(j int) int {
	if j == 0 {
		return 0
	}
	return select0(t.root, j)
}

func select0(n *node, j int) int {
	if n.isLeaf() {
		return n.leaf.Select0(j)
	}
	leftZeros := n.left.size - n.left.ones
	if j <= leftZeros {
		return select0(n.left, j)
	}
	return n.left.size + select0(n.right, j-leftZeros)
}

// Insert places bit at position i, 0 <= i <= Len().
func (t *Tree) Insert(i int, bit bool) {
	t.root = insert(t.root, i, bit)
}

func insert(n *node, i int, bit bool) *node {
	if n.isLeaf() {
		n.leaf.Insert(i, bit)
		if n.leaf.Len() < block.MaxBits {
			n.recompute()
			return n
		}
		right := newLeafNode(n.leaf.Split())
		n.recompute()
		return newInnerNode(n, right)
	}
	if i <= n.left.size {
		n.left = insert(n.left, i, bit)
	} else {
		n.right = insert(n.right, i-n.left.size, bit)
	}
	n.recompute()
	return rebalance(n)
}

// Flip toggles the bit at i and returns its previous value.
func (t *Tree) Flip(i int) bool {
	return flip(t.root, i)
}

func flip(n *node, i int) bool {
	if n.isLeaf() {
		prev := n.leaf.Flip(i)
		n.recompute()
		return prev
	}
	var prev bool
	if i < n.left.size {
		prev = flip(n.left, i)
	} else {
		prev = flip(n.right, i-n.left.size)
	}
	n.recompute()
	return prev
}

// Delete removes the bit at position i.
func (t *Tree) Delete(i int) {
	newRoot, _ := deleteAt(t.root, i)
	t.root = newRoot
}

// deleteAt returns the (possibly restructured) subtree and whether it
// is a leaf that just dropped below MinBits. Underflow is always
// resolved by the immediate parent in fixUnderflow; it is never
// propagated further, so the root is the only leaf ever allowed to
// sit below MinBits (when the whole tree fits in one block).
func deleteAt(n *node, i int) (*node, bool) {
	if n.isLeaf() {
		n.leaf.Delete(i)
		n.recompute()
		return n, n.leaf.Len() < block.MinBits
	}
	var underflow bool
	if i < n.left.size {
		n.left, underflow = deleteAt(n.left, i)
	} else {
		n.right, underflow = deleteAt(n.right, i-n.left.size)
	}
	if underflow {
		return fixUnderflow(n), false
	}
	n.recompute()
	return rebalance(n), false
}

// fixUnderflow repairs the single underflowed leaf child of n, either
// by combining it with an adjacent leaf (merge or steal) or, if its
// sibling is itself a subtree, by borrowing the nearest leaf from that
// subtree first.
func fixUnderflow(n *node) *node {
	var underflowed, sibling *node
	var underflowedIsLeft bool
	switch {
	case n.left.isLeaf() && n.left.leaf.Len() < block.MinBits:
		underflowed, sibling, underflowedIsLeft = n.left, n.right, true
	case n.right.isLeaf() && n.right.leaf.Len() < block.MinBits:
		underflowed, sibling, underflowedIsLeft = n.right, n.left, false
	default:
		panic("tree: fixUnderflow called without an underflowed leaf child")
	}

	if sibling.isLeaf() {
		return mergeOrSteal(underflowed, sibling, underflowedIsLeft)
	}

	var remaining *node
	var borrowed *block.Block
	if underflowedIsLeft {
		remaining, borrowed = extractLeftmostLeaf(sibling)
	} else {
		remaining, borrowed = extractRightmostLeaf(sibling)
	}
	merged := mergeOrSteal(underflowed, newLeafNode(borrowed), underflowedIsLeft)
	if remaining == nil {
		return merged
	}
	if underflowedIsLeft {
		return rebalance(newInnerNode(merged, remaining))
	}
	return rebalance(newInnerNode(remaining, merged))
}

// mergeOrSteal combines an underflowed leaf with an adjacent leaf,
// either fully merging them into one block or, if that would exceed
// MaxBits, stealing just enough bits to bring both back to at least
// MinBits.
func mergeOrSteal(a, b *node, aIsLeft bool) *node {
	var left, right *block.Block
	if aIsLeft {
		left, right = a.leaf, b.leaf
	} else {
		left, right = b.leaf, a.leaf
	}
	if left.Len()+right.Len() <= block.MaxBits {
		left.AppendBlock(right, false)
		return newLeafNode(left)
	}
	if left.Len() < block.MinBits {
		moved := right.TakePrefix(block.MinBits - left.Len())
		left.AppendBlock(moved, false)
	} else {
		moved := left.TakeSuffix(block.MinBits - right.Len())
		right.AppendBlock(moved, true)
	}
	return newInnerNode(newLeafNode(left), newLeafNode(right))
}

// extractLeftmostLeaf splices the leftmost leaf out of n's subtree,
// returning the remaining subtree (nil if n was that one leaf) and
// the extracted block.
func extractLeftmostLeaf(n *node) (*node, *block.Block) {
	if n.isLeaf() {
		return nil, n.leaf
	}
	newLeft, leaf := extractLeftmostLeaf(n.left)
	if newLeft == nil {
		return n.right, leaf
	}
	n.left = newLeft
	n.recompute()
	return rebalance(n), leaf
}

// extractRightmostLeaf is the mirror of extractLeftmostLeaf.
func extractRightmostLeaf(n *node) (*node, *block.Block) {
	if n.isLeaf() {
		return nil, n.leaf
	}
	newRight, leaf := extractRightmostLeaf(n.right)
	if newRight == nil {
		return n.left, leaf
	}
	n.right = newRight
	n.recompute()
	return rebalance(n), leaf
}

// ForwardSearch finds the leftmost position j > i where the excess
// relative to i equals d. ok is false if no such position exists.
func (t *Tree) ForwardSearch(i, d int) (j int, ok bool) {
	achieved, pos := fwdSearch(t.root, i, d)
	return pos, achieved == d
}

func fwdSearch(n *node, rel, d int) (achieved, pos int) {
	// rel == -1 means the whole subtree is in play: the local excess
	// curve it scans is exactly the one minExcess was computed over,
	// so if that minimum already exceeds d, d can't occur anywhere in
	// here and the subtree can be skipped without visiting a single
	// leaf.
	if rel == -1 && n.minExcess > d {
		return n.totalExcess, n.size
	}
	if n.isLeaf() {
		return n.leaf.ForwardBlock(rel, d)
	}
	if rel < n.left.size {
		achieved, pos = fwdSearch(n.left, rel, d)
		if achieved == d {
			return d, pos
		}
		remaining := d - achieved
		achieved2, pos2 := fwdSearch(n.right, -1, remaining)
		if achieved2 == remaining {
			return d, n.left.size + pos2
		}
		return achieved + achieved2, n.left.size + pos2
	}
	achieved, pos = fwdSearch(n.right, rel-n.left.size, d)
	return achieved, n.left.size + pos
}

// BackwardSearch finds the rightmost position j <= i where the excess
// relative to i (scanning backwards) equals d. ok is false if no such
// position exists.
func (t *Tree) BackwardSearch(i, d int) (j int, ok bool) {
	achieved, pos := bwdSearch(t.root, i, d)
	return pos, achieved == d
}

func bwdSearch(n *node, rel, d int) (achieved, pos int) {
	// rel == n.size-1 means the whole subtree is in play, scanned back
	// to front. The values a full backward scan can hit are exactly
	// {excess(j) - totalExcess : j in [0,size-1]}, whose minimum is
	// bounded below by min(0, minExcess) - totalExcess (minExcess only
	// covers excess(1..size), so this is a safe underestimate rather
	// than the exact minimum). If d falls below that bound it can't be
	// hit anywhere in the subtree.
	if rel == n.size-1 {
		floor := n.minExcess
		if floor > 0 {
			floor = 0
		}
		if d < floor-n.totalExcess {
			return -n.totalExcess, -1
		}
	}
	if n.isLeaf() {
		return n.leaf.BackwardBlock(rel, d)
	}
	if rel >= n.left.size {
		localRel := rel - n.left.size
		achieved, pos = bwdSearch(n.right, localRel, d)
		if achieved == d {
			return d, n.left.size + pos
		}
		remaining := d - achieved
		achieved2, pos2 := bwdSearch(n.left, n.left.size-1, remaining)
		if achieved2 == remaining {
			return d, pos2
		}
		return achieved + achieved2, pos2
	}
	return bwdSearch(n.left, rel, d)
}

// RangeMinExcess returns the minimum excess and the total excess over
// the inclusive range [lo, hi].
func (t *Tree) RangeMinExcess(lo, hi int) (min, total int) {
	return minRange(t.root, lo, hi)
}

func minRange(n *node, lo, hi int) (min, total int) {
	if lo == 0 && hi == n.size-1 {
		return n.minExcess, n.totalExcess
	}
	if n.isLeaf() {
		return n.leaf.MinBlock(lo, hi)
	}
	switch {
	case hi < n.left.size:
		return minRange(n.left, lo, hi)
	case lo >= n.left.size:
		return minRange(n.right, lo-n.left.size, hi-n.left.size)
	default:
		lMin, lTotal := minRange(n.left, lo, n.left.size-1)
		rMin, rTotal := minRange(n.right, 0, hi-n.left.size)
		shifted := lTotal + rMin
		if lMin <= shifted {
			return lMin, lTotal + rTotal
		}
		return shifted, lTotal + rTotal
	}
}

// RangeMinCount returns the number of positions in [lo, hi] achieving
// the minimum excess of that range.
func (t *Tree) RangeMinCount(lo, hi int) int {
	min, _ := t.RangeMinExcess(lo, hi)
	return minCountRange(t.root, lo, hi, min)
}

func minCountRange(n *node, lo, hi, target int) int {
	if lo == 0 && hi == n.size-1 {
		if n.minExcess == target {
			return n.minTimes
		}
		return 0
	}
	if n.isLeaf() {
		_, count := n.leaf.MinCountBlock(lo, hi, target)
		return count
	}
	switch {
	case hi < n.left.size:
		return minCountRange(n.left, lo, hi, target)
	case lo >= n.left.size:
		return minCountRange(n.right, lo-n.left.size, hi-n.left.size, target)
	default:
		left := minCountRange(n.left, lo, n.left.size-1, target)
		_, lTotal := minRange(n.left, lo, n.left.size-1)
		right := minCountRange(n.right, 0, hi-n.left.size, target-lTotal)
		return left + right
	}
}

// RangeMinSelect returns the position of the t-th (1-indexed)
// occurrence of the minimum excess within [lo, hi].
func (t *Tree) RangeMinSelect(lo, hi, occurrence int) int {
	min, _ := t.RangeMinExcess(lo, hi)
	return minSelectRange(t.root, lo, hi, occurrence, min)
}

func minSelectRange(n *node, lo, hi, t, target int) int {
	if n.isLeaf() {
		return n.leaf.MinSelectBlock(lo, hi, t, target)
	}
	switch {
	case hi < n.left.size:
		return minSelectRange(n.left, lo, hi, t, target)
	case lo >= n.left.size:
		return n.left.size + minSelectRange(n.right, lo-n.left.size, hi-n.left.size, t, target)
	default:
		leftCount := minCountRange(n.left, lo, n.left.size-1, target)
		if t <= leftCount {
			return minSelectRange(n.left, lo, n.left.size-1, t, target)
		}
		_, lTotal := minRange(n.left, lo, n.left.size-1)
		return n.left.size + minSelectRange(n.right, 0, hi-n.left.size, t-leftCount, target-lTotal)
	}
}

// All yields every bit in order, leaf by leaf.
func (t *Tree) All() iter.Seq[bool] {
	return func(yield func(bool) bool) {
		var walk func(n *node) bool
		walk = func(n *node) bool {
			if n.isLeaf() {
				for i := 0; i < n.leaf.Len(); i++ {
					if !yield(n.leaf.Test(i)) {
						return false
					}
				}
				return true
			}
			if !walk(n.left) {
				return false
			}
			return walk(n.right)
		}
		walk(t.root)
	}
}

// SizeBits estimates the tree's memory footprint in bits: packed
// payload in the leaves plus per-node/per-leaf struct overhead.
func (t *Tree) SizeBits() int {
	return sizeBits(t.root)
}

const pointerBits = 64

func sizeBits(n *node) int {
	if n.isLeaf() {
		return pointerBits /* leaf pointer itself */ + n.leaf.SizeBits()
	}
	const innerOverheadBits = 2*pointerBits + 5*32 // left/right pointers + int fields
	return innerOverheadBits + sizeBits(n.left) + sizeBits(n.right)
}

var errInvariant = errors.New("tree: invariant violation")

// Validate recomputes every aggregate from scratch and checks AVL
// balance and leaf-size bounds, for use by tests and internal/validate.
func (t *Tree) Validate() error {
	_, err := validate(t.root, true)
	return err
}

func validate(n *node, isRoot bool) (*node, error) {
	if n.isLeaf() {
		if !isRoot {
			if n.leaf.Len() < block.MinBits || n.leaf.Len() > block.MaxBits {
				return nil, fmt.Errorf("%w: non-root leaf length %d out of [%d,%d]", errInvariant, n.leaf.Len(), block.MinBits, block.MaxBits)
			}
		} else if n.leaf.Len() > block.MaxBits {
			return nil, fmt.Errorf("%w: root leaf length %d exceeds %d", errInvariant, n.leaf.Len(), block.MaxBits)
		}
		want := newLeafNode(n.leaf)
		if *want != *n {
			return nil, fmt.Errorf("%w: leaf aggregates stale", errInvariant)
		}
		return n, nil
	}
	if _, err := validate(n.left, false); err != nil {
		return nil, err
	}
	if _, err := validate(n.right, false); err != nil {
		return nil, err
	}
	if bf := balanceFactor(n); bf > 1 || bf < -1 {
		return nil, fmt.Errorf("%w: balance factor %d", errInvariant, bf)
	}
	want := newInnerNode(n.left, n.right)
	if want.size != n.size || want.ones != n.ones || want.totalExcess != n.totalExcess ||
		want.minExcess != n.minExcess || want.minTimes != n.minTimes || want.height != n.height {
		return nil, fmt.Errorf("%w: inner node aggregates stale", errInvariant)
	}
	return n, nil
}
