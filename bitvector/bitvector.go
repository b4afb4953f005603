// SPDX-License-Identifier: MIT

// Package bitvector implements a dynamic succinct bit vector: access,
// rank, select, insert, delete and flip at arbitrary positions, all in
// O(log n), backed by the AVL tree of leaf blocks in internal/tree.
package bitvector

import (
	"errors"
	"fmt"

	"github.com/moritzpotthoff/AdvancedDataStructures/internal/profiler"
	"github.com/moritzpotthoff/AdvancedDataStructures/internal/tree"
)

var (
	// ErrIndexOutOfRange is returned when a position argument falls
	// outside the bit vector's valid bounds for that operation.
	ErrIndexOutOfRange = errors.New("bitvector: index out of range")
	// ErrRankNotFound is returned by Select when fewer than j bits of
	// the requested value exist.
	ErrRankNotFound = errors.New("bitvector: select rank not found")
)

// BitVector is a dynamic bit vector supporting insert and delete.
type BitVector struct {
	t *tree.Tree

	// Profiler times Insert, Delete, Rank and Select (Access and Flip
	// are not timed); it defaults to a no-op and can be swapped for
	// profiler.NewBasic() to collect timings.
	Profiler profiler.Profiler
}

// New returns an empty bit vector.
func New() *BitVector {
	return &BitVector{t: tree.New(), Profiler: profiler.Noop{}}
}

// FromBits builds a bit vector already containing the given bits,
// more efficiently than inserting them one at a time.
func FromBits(bits []bool) *BitVector {
	return &BitVector{t: tree.Build(bits), Profiler: profiler.Noop{}}
}

// Len returns the number of bits currently stored.
func (v *BitVector) Len() int { return v.t.Len() }

// Access returns the bit at position i.
func (v *BitVector) Access(i int) (bool, error) {
	if i < 0 || i >= v.t.Len() {
		return false, fmt.Errorf("%w: access(%d), length %d", ErrIndexOutOfRange, i, v.t.Len())
	}
	return v.t.Access(i), nil
}

// Rank returns the number of bits equal to bit in the prefix [0, i).
func (v *BitVector) Rank(i int, bit bool) (int, error) {
	defer v.Profiler.Start(profiler.Rank)()
	if i < 0 || i > v.t.Len() {
		return 0, fmt.Errorf("%w: rank(%d), length %d", ErrIndexOutOfRange, i, v.t.Len())
	}
	ones := v.t.Rank1(i)
	if bit {
		return ones, nil
	}
	return i - ones, nil
}

// Select returns the position of the j-th (1-indexed) occurrence of
// bit.
func (v *BitVector) Select(j int, bit bool) (int, error) {
	defer v.Profiler.Start(profiler.Select)()
	if j <= 0 {
		return 0, fmt.Errorf("%w: select(%d)", ErrIndexOutOfRange, j)
	}
	var pos int
	if bit {
		pos = v.t.Select1(j)
	} else {
		pos = v.t.Select0(j)
	}
	if pos >= v.t.Len() {
		return 0, fmt.Errorf("%w: select(%d, %v)", ErrRankNotFound, j, bit)
	}
	return pos, nil
}

// Insert places bit at position i, shifting [i, Len()) back by one.
func (v *BitVector) Insert(i int, bit bool) error {
	defer v.Profiler.Start(profiler.Insert)()
	if i < 0 || i > v.t.Len() {
		return fmt.Errorf("%w: insert(%d), length %d", ErrIndexOutOfRange, i, v.t.Len())
	}
	v.t.Insert(i, bit)
	return nil
}

// Delete removes the bit at position i.
func (v *BitVector) Delete(i int) error {
	defer v.Profiler.Start(profiler.Delete)()
	if i < 0 || i >= v.t.Len() {
		return fmt.Errorf("%w: delete(%d), length %d", ErrIndexOutOfRange, i, v.t.Len())
	}
	v.t.Delete(i)
	return nil
}

// Flip toggles the bit at position i and returns its previous value.
func (v *BitVector) Flip(i int) (bool, error) {
	if i < 0 || i >= v.t.Len() {
		return false, fmt.Errorf("%w: flip(%d), length %d", ErrIndexOutOfRange, i, v.t.Len())
	}
	return v.t.Flip(i), nil
}

// Size returns the vector's memory footprint in bits.
func (v *BitVector) Size() int { return v.t.SizeBits() }

// Validate checks the underlying tree's AVL and leaf-size invariants.
func (v *BitVector) Validate() error { return v.t.Validate() }
