package usermem

import (
	"fmt"
	"math"
)

const (
	// PageSize is the mapping granularity.
	PageSize = 4096

	// WordSize is the size of one element crossing the boundary.
	WordSize = 4

	// MinAddr is the lowest address ever handed out by Map.
	MinAddr Addr = 0x10000
)

// Addr is a virtual address inside a caller's address space.
type Addr uint64

// IsNull reports whether the address is the null address.
func (a Addr) IsNull() bool {
	return a == 0
}

// String formats the address in hex.
func (a Addr) String() string {
	return fmt.Sprintf("0x%x", uint64(a))
}

// AddLength returns a+length and whether the addition stayed in range.
func (a Addr) AddLength(length uint64) (Addr, bool) {
	if length > math.MaxUint64-uint64(a) {
		return 0, false
	}
	return a + Addr(length), true
}

// RoundUp rounds the address up to the next page boundary.
func (a Addr) RoundUp() (Addr, bool) {
	end, ok := a.AddLength(PageSize - 1)
	if !ok {
		return 0, false
	}
	return end &^ (PageSize - 1), true
}

// IsPageAligned reports whether the address sits on a page boundary.
func (a Addr) IsPageAligned() bool {
	return a%PageSize == 0
}

// Range is the half-open interval [Start, End).
type Range struct {
	Start Addr
	End   Addr
}

// WordRange returns the range covering count words starting at addr.
func WordRange(addr Addr, count int) (Range, bool) {
	if count < 0 || uint64(count) > math.MaxUint64/WordSize {
		return Range{}, false
	}
	end, ok := addr.AddLength(uint64(count) * WordSize)
	if !ok {
		return Range{}, false
	}
	return Range{Start: addr, End: end}, true
}

// Length returns the number of bytes in the range.
func (r Range) Length() uint64 {
	return uint64(r.End - r.Start)
}

// Contains reports whether other lies entirely inside r.
func (r Range) Contains(other Range) bool {
	return other.Start >= r.Start && other.End <= r.End
}

func (r Range) String() string {
	return fmt.Sprintf("[%s, %s)", r.Start, r.End)
}
