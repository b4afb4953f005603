// SPDX-License-Identifier: MIT

// Package balancedparens implements a dynamic balanced-parentheses
// tree on top of internal/tree: insert_child, delete_node, i-th
// child, parent, subtree_size and degree, all in O(log n).
//
// Every public method accepts and returns preorder node numbers
// (0 = root). Internally all work is done in bit-position space; the
// translation between the two happens once, at the boundary of each
// method, via Select1/Rank1 on the underlying tree.
package balancedparens

import (
	"errors"
	"fmt"

	"github.com/moritzpotthoff/AdvancedDataStructures/internal/profiler"
	"github.com/moritzpotthoff/AdvancedDataStructures/internal/tree"
)

var (
	// ErrNoSuchNode is returned when a preorder number does not name
	// an existing node.
	ErrNoSuchNode = errors.New("balancedparens: no such node")
	// ErrRootHasNoParent is returned by Parent(0).
	ErrRootHasNoParent = errors.New("balancedparens: root has no parent")
	// ErrChildIndexOutOfRange is returned by Child/InsertChild when t
	// or i doesn't name a valid child slot.
	ErrChildIndexOutOfRange = errors.New("balancedparens: child index out of range")
	// ErrDeleteRoot is returned by DeleteNode(0).
	ErrDeleteRoot = errors.New("balancedparens: cannot delete the root")
)

// Tree is a dynamic balanced-parentheses tree.
type Tree struct {
	t *tree.Tree

	// Profiler times the operations below; it defaults to a no-op and
	// can be swapped for profiler.NewBasic() to collect timings.
	Profiler profiler.Profiler
}

// New returns a tree containing only the root, "()".
func New() *Tree {
	return &Tree{t: tree.Build([]bool{true, false}), Profiler: profiler.Noop{}}
}

func (bp *Tree) posOf(preorder int) (int, error) {
	if preorder < 0 || preorder >= bp.t.Ones() {
		return 0, fmt.Errorf("%w: preorder=%d", ErrNoSuchNode, preorder)
	}
	return bp.t.Select1(preorder + 1), nil
}

func (bp *Tree) preorderOf(pos int) int {
	return bp.t.Rank1(pos+1) - 1
}

func (bp *Tree) close(pos int) int {
	j, ok := bp.t.ForwardSearch(pos, -1)
	if !ok {
		panic("balancedparens: unmatched opening parenthesis")
	}
	return j
}

// NodeCount returns the total number of nodes in the tree.
func (bp *Tree) NodeCount() int { return bp.t.Ones() }

// Degree returns the number of direct children of node v.
func (bp *Tree) Degree(v int) (int, error) {
	defer bp.Profiler.Start(profiler.Search)()
	pos, err := bp.posOf(v)
	if err != nil {
		return 0, err
	}
	return bp.degreeAt(pos), nil
}

func (bp *Tree) degreeAt(pos int) int {
	c := bp.close(pos)
	if c-2 < pos {
		return 0
	}
	return bp.t.RangeMinCount(pos, c-2)
}

// Child returns the preorder number of the t-th (1-indexed) direct
// child of node v.
func (bp *Tree) Child(v, t int) (int, error) {
	defer bp.Profiler.Start(profiler.Search)()
	pos, err := bp.posOf(v)
	if err != nil {
		return 0, err
	}
	c := bp.close(pos)
	deg := bp.degreeAt(pos)
	if t < 1 || t > deg {
		return 0, fmt.Errorf("%w: child(%d,%d), degree %d", ErrChildIndexOutOfRange, v, t, deg)
	}
	childPos := bp.t.RangeMinSelect(pos, c-2, t) + 1
	return bp.preorderOf(childPos), nil
}

// Parent returns the preorder number of v's parent.
func (bp *Tree) Parent(v int) (int, error) {
	defer bp.Profiler.Start(profiler.Search)()
	pos, err := bp.posOf(v)
	if err != nil {
		return 0, err
	}
	if pos == 0 {
		return 0, ErrRootHasNoParent
	}
	j, ok := bp.t.BackwardSearch(pos, -2)
	if !ok {
		panic("balancedparens: unmatched closing parenthesis during enclose")
	}
	return bp.preorderOf(j), nil
}

// SubtreeSize returns the number of nodes in v's subtree, including v
// itself.
func (bp *Tree) SubtreeSize(v int) (int, error) {
	defer bp.Profiler.Start(profiler.Search)()
	pos, err := bp.posOf(v)
	if err != nil {
		return 0, err
	}
	c := bp.close(pos)
	return (c - pos + 1) / 2, nil
}

// InsertChild inserts a new i-th (1-indexed) child of node v, which
// captures the next k of v's existing children (i, i+1, ..., i+k-1)
// as its own children. The new opening paren goes at child(v,i) if i
// is within v's current degree, else at close(v); the new closing
// paren goes at child(v,i+k) if that is within range, else at
// close(v). The closing paren is inserted first so the opening
// paren's index is still valid afterward.
func (bp *Tree) InsertChild(v, i, k int) error {
	defer bp.Profiler.Start(profiler.Insert)()
	if k < 0 {
		return fmt.Errorf("%w: insertChild(%d,%d,%d), negative child count", ErrChildIndexOutOfRange, v, i, k)
	}
	pos, err := bp.posOf(v)
	if err != nil {
		return err
	}
	c := bp.close(pos)
	deg := bp.degreeAt(pos)
	if i < 1 || i > deg+1 {
		return fmt.Errorf("%w: insertChild(%d,%d,%d), degree %d", ErrChildIndexOutOfRange, v, i, k, deg)
	}

	closePos := c
	if i+k <= deg {
		closePos = bp.t.RangeMinSelect(pos, c-2, i+k) + 1
	}
	openPos := c
	if i <= deg {
		openPos = bp.t.RangeMinSelect(pos, c-2, i) + 1
	}

	bp.t.Insert(closePos, false)
	bp.t.Insert(openPos, true)
	return nil
}

// DeleteNode removes node v, splicing its children (if any) into its
// parent in v's former place. The root cannot be deleted.
func (bp *Tree) DeleteNode(v int) error {
	defer bp.Profiler.Start(profiler.Delete)()
	if v == 0 {
		return ErrDeleteRoot
	}
	pos, err := bp.posOf(v)
	if err != nil {
		return err
	}
	c := bp.close(pos)
	bp.t.Delete(c)
	bp.t.Delete(pos)
	return nil
}

// Size returns the tree's memory footprint in bits.
func (bp *Tree) Size() int { return bp.t.SizeBits() }

// Validate checks the underlying tree's AVL and leaf-size invariants.
func (bp *Tree) Validate() error { return bp.t.Validate() }
