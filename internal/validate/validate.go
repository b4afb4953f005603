// SPDX-License-Identifier: MIT

// Package validate provides a brute-force reference bit vector, built
// on an entirely different representation than internal/block and
// internal/tree, for cross-checking rank/select/excess results in
// tests. It deliberately does not share any code with the product
// structures: a shared bug would otherwise pass unnoticed.
package validate

import "github.com/bits-and-blooms/bitset"

// Oracle is a naive, resizable bit vector used only by tests.
type Oracle struct {
	bits   *bitset.BitSet
	length uint
}

// NewOracle returns an empty oracle.
func NewOracle() *Oracle {
	return &Oracle{bits: bitset.New(0)}
}

// FromBits seeds the oracle with an initial bit sequence.
func FromBits(initial []bool) *Oracle {
	o := NewOracle()
	for _, bit := range initial {
		o.Insert(o.length, bit)
	}
	return o
}

func (o *Oracle) Len() int { return int(o.length) }

func (o *Oracle) Test(i int) bool { return o.bits.Test(uint(i)) }

// Insert shifts every bit at position >= i up by one and sets bit i.
func (o *Oracle) Insert(i uint, bit bool) {
	for j := o.length; j > i; j-- {
		o.bits.SetTo(j, o.bits.Test(j-1))
	}
	o.bits.SetTo(i, bit)
	o.length++
}

// Delete shifts every bit at position > i down by one.
func (o *Oracle) Delete(i uint) bool {
	removed := o.bits.Test(i)
	for j := i; j < o.length-1; j++ {
		o.bits.SetTo(j, o.bits.Test(j+1))
	}
	o.bits.SetTo(o.length-1, false)
	o.length--
	return removed
}

// Flip toggles the bit at i and returns its previous value.
func (o *Oracle) Flip(i uint) bool {
	prev := o.bits.Test(i)
	o.bits.SetTo(i, !prev)
	return prev
}

// Rank1 returns the number of 1-bits in [0, limit).
func (o *Oracle) Rank1(limit int) int {
	count := 0
	for i := 0; i < limit; i++ {
		if o.bits.Test(uint(i)) {
			count++
		}
	}
	return count
}

// Select1 returns the position of the j-th (1-indexed) 1-bit, or the
// oracle's length if there is no such bit.
func (o *Oracle) Select1(j int) int {
	if j == 0 {
		return 0
	}
	count := 0
	for i := uint(0); i < o.length; i++ {
		if o.bits.Test(i) {
			count++
			if count == j {
				return int(i)
			}
		}
	}
	return int(o.length)
}

// Select0 is the zero-bit analog of Select1.
func (o *Oracle) Select0(j int) int {
	if j == 0 {
		return 0
	}
	count := 0
	for i := uint(0); i < o.length; i++ {
		if !o.bits.Test(i) {
			count++
			if count == j {
				return int(i)
			}
		}
	}
	return int(o.length)
}

// Excess returns the balanced-parentheses excess of the prefix
// [0, upTo), treating a 1-bit as +1 and a 0-bit as -1.
func (o *Oracle) Excess(upTo int) int {
	e := 0
	for i := 0; i < upTo; i++ {
		if o.bits.Test(uint(i)) {
			e++
		} else {
			e--
		}
	}
	return e
}
