// Package kmem provides the service-owned memory the privileged side works
// in. Memory comes from an Arena with a fixed byte budget; running out of
// budget is reported, never waited on.
package kmem

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
	"sync"
	"sync/atomic"
)

const (
	// WordSize is the size in bytes of one int32 word.
	WordSize = 4

	// minClassShift is the smallest pooled size class (64 words).
	minClassShift = 6
	// maxClassShift is the largest pooled size class (1M words); bigger
	// blocks are allocated and dropped without pooling.
	maxClassShift = 20
)

var (
	ErrOutOfMemory = errors.New("arena out of memory")
	ErrInvalidSize = errors.New("invalid allocation size")
)

// Block is one service-owned allocation. Words has exactly the requested
// length. A Block must not be used after it has been freed.
type Block struct {
	Words []int32

	id      uint64
	bytes   uint64
	backing []int32
	class   int
	freed   atomic.Bool
}

// Bytes returns the number of budget bytes the block holds.
func (b *Block) Bytes() uint64 {
	return b.bytes
}

// Stats is a snapshot of arena accounting.
type Stats struct {
	Capacity     uint64 `json:"capacity"`
	InUse        uint64 `json:"in_use"`
	Peak         uint64 `json:"peak"`
	Allocs       uint64 `json:"allocs"`
	Frees        uint64 `json:"frees"`
	Live         uint64 `json:"live"`
	FailedAllocs uint64 `json:"failed_allocs"`
	DoubleFrees  uint64 `json:"double_frees"`
}

// Arena hands out zeroed int32 blocks against a byte budget.
type Arena struct {
	capacity uint64

	mu           sync.Mutex
	inUse        uint64
	peak         uint64
	allocs       uint64
	frees        uint64
	failedAllocs uint64
	doubleFrees  uint64
	live         map[uint64]*Block

	pools [maxClassShift + 1]sync.Pool
}

// NewArena creates an arena with a budget of capacity bytes.
func NewArena(capacity uint64) *Arena {
	a := &Arena{
		capacity: capacity,
		live:     make(map[uint64]*Block),
	}
	for shift := minClassShift; shift <= maxClassShift; shift++ {
		words := 1 << shift
		a.pools[shift].New = func() any {
			buf := make([]int32, words)
			return &buf
		}
	}
	return a
}

// Alloc reserves count words of budget and returns a zeroed block.
func (a *Arena) Alloc(count int) (*Block, error) {
	if count < 0 {
		a.recordFailure()
		return nil, fmt.Errorf("%w: %d words", ErrInvalidSize, count)
	}
	if uint64(count) > math.MaxUint64/WordSize {
		a.recordFailure()
		return nil, fmt.Errorf("%w: %d words overflows", ErrOutOfMemory, count)
	}
	size := uint64(count) * WordSize

	a.mu.Lock()
	if size > a.capacity || a.inUse > a.capacity-size {
		a.failedAllocs++
		inUse := a.inUse
		a.mu.Unlock()
		return nil, fmt.Errorf("%w: need %d bytes, %d of %d in use", ErrOutOfMemory, size, inUse, a.capacity)
	}
	a.inUse += size
	a.peak = max(a.peak, a.inUse)
	a.allocs++
	id := a.allocs
	a.mu.Unlock()

	b := &Block{id: id, bytes: size, class: -1}
	if shift := classFor(count); shift >= 0 {
		buf := a.pools[shift].Get().(*[]int32)
		b.backing = *buf
		b.class = shift
		b.Words = b.backing[:count]
		clear(b.Words)
	} else {
		b.Words = make([]int32, count)
	}

	a.mu.Lock()
	a.live[id] = b
	a.mu.Unlock()
	return b, nil
}

// Free returns the block's budget to the arena. Freeing a block twice, or a
// block from another arena, is counted as a double free and otherwise
// ignored.
func (a *Arena) Free(b *Block) {
	if b == nil {
		return
	}
	if b.freed.Swap(true) {
		a.mu.Lock()
		a.doubleFrees++
		a.mu.Unlock()
		return
	}

	a.mu.Lock()
	if a.live[b.id] != b {
		a.doubleFrees++
		a.mu.Unlock()
		return
	}
	delete(a.live, b.id)
	a.inUse -= b.bytes
	a.frees++
	a.mu.Unlock()

	if b.class >= 0 {
		backing := b.backing
		a.pools[b.class].Put(&backing)
	}
	b.Words = nil
	b.backing = nil
}

// Stats returns a snapshot of the arena accounting.
func (a *Arena) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()

	return Stats{
		Capacity:     a.capacity,
		InUse:        a.inUse,
		Peak:         a.peak,
		Allocs:       a.allocs,
		Frees:        a.frees,
		Live:         uint64(len(a.live)),
		FailedAllocs: a.failedAllocs,
		DoubleFrees:  a.doubleFrees,
	}
}

// Capacity returns the byte budget.
func (a *Arena) Capacity() uint64 {
	return a.capacity
}

func (a *Arena) recordFailure() {
	a.mu.Lock()
	a.failedAllocs++
	a.mu.Unlock()
}

// classFor returns the pool shift for count words, or -1 when the block is
// too large to pool.
func classFor(count int) int {
	if count <= 1<<minClassShift {
		return minClassShift
	}
	shift := bits.Len(uint(count - 1))
	if shift > maxClassShift {
		return -1
	}
	return shift
}
