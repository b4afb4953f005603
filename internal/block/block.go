// SPDX-License-Identifier: MIT

// Package block implements the leaf storage of the dynamic bit vector:
// a bounded-length sequence of bits packed into 64-bit words, with
// word-granularity insert/delete/flip and the rank/select/excess
// primitives the tree above it needs.
//
// Bits are stored MSB-first within each word: bit i lives in word
// i/WordBits, at bit position WordBits-1-(i%WordBits) of that word.
// Unused bits past Len() in the final word are always zero, so a
// word-wide bits.OnesCount64 is always safe to use for popcount.
package block

import "math/bits"

const (
	// WordBits is the machine word size used for packing, w in the spec.
	WordBits = 64
	// Capacity is the target leaf size b = w^2.
	Capacity = WordBits * WordBits
	// MaxBits is the size at which a leaf splits.
	MaxBits = 2 * Capacity
	// MinBits is the minimum steady-state leaf size, b/2.
	MinBits = Capacity / 2
)

// Block is a packed bit sequence bounded by [MinBits, MaxBits], except
// transiently during split/merge or when it is the sole leaf of a tree
// smaller than MinBits.
type Block struct {
	words  []uint64
	length int
}

// New returns an empty block.
func New() *Block {
	return &Block{words: make([]uint64, 1)}
}

// Len returns the number of bits currently stored.
func (b *Block) Len() int {
	return b.length
}

func wordsNeeded(length int) int {
	n := (length + WordBits - 1) / WordBits
	if n == 0 {
		n = 1
	}
	return n
}

func headMask(bitPos int) uint64 {
	if bitPos == 0 {
		return 0
	}
	return ^uint64(0) << uint(WordBits-bitPos)
}

func tailMaskFrom(bitPos int) uint64 {
	if bitPos == 0 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(WordBits-bitPos)) - 1
}

func tailMaskExcl(bitPos int) uint64 {
	n := WordBits - bitPos - 1
	if n <= 0 {
		return 0
	}
	return (uint64(1) << uint(n)) - 1
}

// Test reads the bit at position i.
func (b *Block) Test(i int) bool {
	w := i / WordBits
	off := uint(WordBits-1) - uint(i%WordBits)
	return (b.words[w]>>off)&1 != 0
}

func (b *Block) setBit(i int, bit bool) {
	w := i / WordBits
	off := uint(WordBits-1) - uint(i%WordBits)
	if bit {
		b.words[w] |= uint64(1) << off
	} else {
		b.words[w] &^= uint64(1) << off
	}
}

// Flip toggles the bit at i and returns its previous value.
func (b *Block) Flip(i int) bool {
	prev := b.Test(i)
	b.setBit(i, !prev)
	return prev
}

// clearTail zeroes the unused bits past length in the final word and
// drops any words beyond that, restoring the zero-tail invariant.
func (b *Block) clearTail() {
	need := wordsNeeded(b.length)
	if need < len(b.words) {
		b.words = b.words[:need]
	}
	if b.length == 0 {
		b.words[0] = 0
		return
	}
	if bitPos := b.length % WordBits; bitPos != 0 {
		b.words[need-1] &= headMask(bitPos)
	}
}

// Insert places bit at position i, shifting bits [i, length) back by
// one. i must be in [0, length].
func (b *Block) Insert(i int, bit bool) {
	if i < 0 || i > b.length {
		panic("block: insert index out of range")
	}
	b.length++
	if need := wordsNeeded(b.length); need > len(b.words) {
		b.words = append(b.words, 0)
	}
	if i == b.length-1 {
		b.setBit(i, bit)
		return
	}
	wIdx := i / WordBits
	bitPos := i % WordBits
	lastWord := (b.length - 1) / WordBits

	carry := b.Test(wIdx*WordBits + WordBits - 1)
	word := b.words[wIdx]
	head := word &^ tailMaskFrom(bitPos)
	tail := word & tailMaskFrom(bitPos)
	b.words[wIdx] = head | (tail >> 1)
	b.setBit(i, bit)

	for w := wIdx + 1; w <= lastWord; w++ {
		newCarry := b.Test(w*WordBits + WordBits - 1)
		b.words[w] >>= 1
		if carry {
			b.words[w] |= uint64(1) << (WordBits - 1)
		}
		carry = newCarry
	}
	b.clearTail()
}

// Delete removes the bit at position i, shifting [i+1, length) forward
// by one, and returns the removed value.
func (b *Block) Delete(i int) bool {
	if i < 0 || i >= b.length {
		panic("block: delete index out of range")
	}
	removed := b.Test(i)
	lastWord := (b.length - 1) / WordBits
	wIdx := i / WordBits
	bitPos := i % WordBits

	if wIdx == lastWord {
		b.shiftHeadLeft(wIdx, bitPos)
	} else {
		carry := b.Test(lastWord * WordBits)
		b.words[lastWord] <<= 1
		for w := lastWord - 1; w > wIdx; w-- {
			newCarry := b.Test(w * WordBits)
			b.words[w] <<= 1
			if carry {
				b.words[w] |= 1
			}
			carry = newCarry
		}
		b.shiftHeadLeft(wIdx, bitPos)
		if carry {
			b.words[wIdx] |= 1
		}
	}
	b.length--
	b.clearTail()
	return removed
}

// shiftHeadLeft deletes the bit at bitPos within word wIdx, shifting
// everything after it in the same word left by one.
func (b *Block) shiftHeadLeft(wIdx, bitPos int) {
	word := b.words[wIdx]
	head := word & headMask(bitPos)
	tail := word & tailMaskExcl(bitPos)
	b.words[wIdx] = head | (tail << 1)
}

// Rank1 returns the number of 1-bits in [0, limit).
func (b *Block) Rank1(limit int) int {
	if limit <= 0 {
		return 0
	}
	if limit > b.length {
		limit = b.length
	}
	full := limit / WordBits
	count := 0
	for w := 0; w < full; w++ {
		count += bits.OnesCount64(b.words[w])
	}
	if rem := limit % WordBits; rem != 0 {
		word := b.words[full] & headMask(rem)
		count += bits.OnesCount64(word)
	}
	return count
}

// PopCount returns the total number of 1-bits in the block.
func (b *Block) PopCount() int {
	return b.Rank1(b.length)
}

// Select1 returns the position of the j-th (1-indexed) 1-bit, or
// length if fewer than j ones are present. Select1(0) is 0 by the
// DBP convention.
func (b *Block) Select1(j int) int {
	if j == 0 {
		return 0
	}
	count := 0
	for w := 0; w*WordBits < b.length; w++ {
		c := bits.OnesCount64(b.words[w])
		if count+c >= j {
			for i := w * WordBits; i < b.length; i++ {
				if b.Test(i) {
					count++
					if count == j {
						return i
					}
				}
			}
			break
		}
		count += c
	}
	return b.length
}

// Select0 returns the position of the j-th (1-indexed) 0-bit, or
// length if fewer than j zeros are present.
func (b *Block) Select0(j int) int {
	if j == 0 {
		return 0
	}
	count := 0
	for w := 0; w*WordBits < b.length; w++ {
		wordLen := WordBits
		if w*WordBits+wordLen > b.length {
			wordLen = b.length - w*WordBits
		}
		c := wordLen - bits.OnesCount64(b.words[w])
		if count+c >= j {
			for i := w * WordBits; i < b.length; i++ {
				if !b.Test(i) {
					count++
					if count == j {
						return i
					}
				}
			}
			break
		}
		count += c
	}
	return b.length
}

// RecomputeExcess scans the whole block and returns (totalExcess,
// minExcess, minTimes), where excess treats a 1-bit as +1 and a
// 0-bit as -1.
func (b *Block) RecomputeExcess() (total, min, minTimes int) {
	excess := 0
	min = 1 << 30
	for i := 0; i < b.length; i++ {
		if b.Test(i) {
			excess++
		} else {
			excess--
		}
		switch {
		case excess < min:
			min = excess
			minTimes = 1
		case excess == min:
			minTimes++
		}
	}
	return excess, min, minTimes
}

// ForwardBlock scans right from just after i for the first position
// where the local excess (relative to i) equals d. It returns (d,
// index) on a hit, or (achieved, length) if d is never reached within
// the block, where achieved is the local excess accumulated over
// (i, length).
func (b *Block) ForwardBlock(i, d int) (achieved, index int) {
	excess := 0
	j := i + 1
	for ; j < b.length; j++ {
		if b.Test(j) {
			excess++
		} else {
			excess--
		}
		if excess == d {
			return d, j
		}
	}
	return excess, j
}

// BackwardBlock scans left from i for the largest position where the
// local excess (relative to i, with bit contributions negated as in
// the backward-search convention) equals d. It returns (d, index) on
// a hit, or (achieved, -1) on a miss.
func (b *Block) BackwardBlock(i, d int) (achieved, index int) {
	excess := 0
	for j := i; j >= 0; j-- {
		if !b.Test(j) {
			excess++
		} else {
			excess--
		}
		if excess == d {
			return d, j
		}
	}
	return excess, -1
}

// MinBlock returns the minimum local excess over the inclusive range
// [i, j], together with the total local excess over that range.
func (b *Block) MinBlock(i, j int) (min, total int) {
	excess := 0
	min = 1 << 30
	for k := i; k <= j; k++ {
		if b.Test(k) {
			excess++
		} else {
			excess--
		}
		if excess < min {
			min = excess
		}
	}
	return min, excess
}

// MinSelectBlock returns the position of the t-th (1-indexed)
// occurrence of local excess value target within [i, j].
func (b *Block) MinSelectBlock(i, j, t, target int) int {
	excess := 0
	for k := i; k <= j; k++ {
		if b.Test(k) {
			excess++
		} else {
			excess--
		}
		if excess == target {
			t--
			if t == 0 {
				return k
			}
		}
	}
	panic("block: minSelect occurrence not found")
}

// MinCountBlock returns the total local excess over [i, j] and the
// number of positions where that local excess equals target.
func (b *Block) MinCountBlock(i, j, target int) (total, count int) {
	excess := 0
	for k := i; k <= j; k++ {
		if b.Test(k) {
			excess++
		} else {
			excess--
		}
		if excess == target {
			count++
		}
	}
	return excess, count
}

// Split moves the upper half of this block's bits into a new block,
// shrinking the receiver to its lower half. Used when a leaf grows to
// MaxBits.
func (b *Block) Split() *Block {
	mid := b.length / 2
	right := New()
	right.length = b.length - mid
	right.words = make([]uint64, wordsNeeded(right.length))
	for i := 0; i < right.length; i++ {
		right.setBit(i, b.Test(mid+i))
	}
	b.length = mid
	b.clearTail()
	right.clearTail()
	return right
}

// AppendBlock absorbs other's bits, either in front of or behind this
// block's own bits. Used when merging an underflowed leaf with a
// sibling.
func (b *Block) AppendBlock(other *Block, atStart bool) {
	newLength := b.length + other.length
	merged := make([]uint64, wordsNeeded(newLength))
	out := &Block{words: merged, length: 0}
	if atStart {
		for i := 0; i < other.length; i++ {
			out.appendBit(other.Test(i))
		}
		for i := 0; i < b.length; i++ {
			out.appendBit(b.Test(i))
		}
	} else {
		for i := 0; i < b.length; i++ {
			out.appendBit(b.Test(i))
		}
		for i := 0; i < other.length; i++ {
			out.appendBit(other.Test(i))
		}
	}
	b.words = out.words
	b.length = out.length
	b.clearTail()
}

func (b *Block) appendBit(bit bool) {
	b.length++
	if need := wordsNeeded(b.length); need > len(b.words) {
		b.words = append(b.words, 0)
	}
	b.setBit(b.length-1, bit)
}

// TakePrefix removes the first n bits from the block and returns them
// as a new block, preserving order in both halves.
func (b *Block) TakePrefix(n int) *Block {
	all := b.Bits()
	taken := New()
	taken.BulkAssign(all[:n])
	b.length = 0
	b.words = make([]uint64, 1)
	b.BulkAssign(all[n:])
	return taken
}

// TakeSuffix removes the last n bits from the block and returns them
// as a new block, preserving order in both halves.
func (b *Block) TakeSuffix(n int) *Block {
	all := b.Bits()
	split := len(all) - n
	taken := New()
	taken.BulkAssign(all[split:])
	b.length = 0
	b.words = make([]uint64, 1)
	b.BulkAssign(all[:split])
	return taken
}

// BulkAssign fills an empty block with bits and returns the number of
// 1-bits assigned. Used during bulk construction of a fresh tree and
// by TakePrefix/TakeSuffix to rebuild both halves.
func (b *Block) BulkAssign(bits []bool) int {
	if b.length != 0 {
		panic("block: bulk-assign into non-empty leaf")
	}
	b.length = len(bits)
	b.words = make([]uint64, wordsNeeded(b.length))
	for i, bit := range bits {
		b.setBit(i, bit)
	}
	b.clearTail()
	return b.PopCount()
}

// Bits materializes the block's contents, for tests and diagnostics.
func (b *Block) Bits() []bool {
	out := make([]bool, b.length)
	for i := range out {
		out[i] = b.Test(i)
	}
	return out
}

// SizeBits returns the number of bits this block occupies in memory:
// the packed word payload plus the struct's own bookkeeping fields.
func (b *Block) SizeBits() int {
	const overheadBits = WordBits /* length */ + 3*WordBits /* slice header */
	return overheadBits + len(b.words)*WordBits
}
