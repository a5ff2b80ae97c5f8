package hwio

import "fmt"

// NumBits is the size of the CPU address space.
const NumBits = 0x10000

// Bitset is a set of bus addresses. The zero value is empty.
type Bitset [NumBits / 64]uint64

// Test reports whether i is in the set.
func (b *Bitset) Test(i uint) bool {
	return b[i/64]&(1<<(i%64)) != 0
}

// SetRange adds all addresses in [start, end) to the set.
func (b *Bitset) SetRange(start, end uint) {
	b.apply(start, end, func(w *uint64, mask uint64) { *w |= mask })
}

// ClearRange removes all addresses in [start, end) from the set.
func (b *Bitset) ClearRange(start, end uint) {
	b.apply(start, end, func(w *uint64, mask uint64) { *w &^= mask })
}

// Reset empties the set.
func (b *Bitset) Reset() { clear(b[:]) }

// apply calls fn with the mask of the bits of [start, end) for each word
// overlapping that range.
func (b *Bitset) apply(start, end uint, fn func(w *uint64, mask uint64)) {
	if start >= end || end > NumBits {
		panic(fmt.Sprintf("invalid range [%d, %d)", start, end))
	}
	for i := start; i < end; {
		lo := i % 64
		hi := min(64, lo+(end-i))
		mask := ^uint64(0) << lo
		if hi < 64 {
			mask &= (1 << hi) - 1
		}
		fn(&b[i/64], mask)
		i += hi - lo
	}
}
