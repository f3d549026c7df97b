package usermem

import (
	"encoding/binary"
	"fmt"
	"sort"
	"sync"
)

// Boundary is the pair of primitives the privileged side uses to move data
// across the trust boundary. *AddressSpace implements it.
type Boundary interface {
	// CopyIn fills dst from caller memory starting at src.
	CopyIn(dst []int32, src Addr) error
	// CopyOut writes src into caller memory starting at dst.
	CopyOut(dst Addr, src []int32) error
}

// Mapping describes one mapped region.
type Mapping struct {
	Range Range
	Prot  Prot
}

type mapping struct {
	Mapping
	data []byte
}

// AddressSpace is the memory of one calling process.
type AddressSpace struct {
	mu       sync.RWMutex
	mappings []*mapping // sorted by start, non-overlapping
	mapped   uint64
	limit    uint64
}

// NewAddressSpace creates an empty address space that can hold up to limit
// bytes of mappings. A zero limit means unlimited.
func NewAddressSpace(limit uint64) *AddressSpace {
	return &AddressSpace{limit: limit}
}

// Map creates a new zero-filled mapping of at least length bytes and returns
// its start address. Consecutive mappings are separated by an unmapped
// guard page.
func (as *AddressSpace) Map(length uint64, prot Prot) (Addr, error) {
	if length == 0 {
		return 0, fmt.Errorf("%w: zero length", ErrInvalidMapping)
	}
	size, ok := Addr(length).RoundUp()
	if !ok {
		return 0, fmt.Errorf("%w: length %d overflows", ErrInvalidMapping, length)
	}

	as.mu.Lock()
	defer as.mu.Unlock()

	if as.limit != 0 && (uint64(size) > as.limit || as.mapped > as.limit-uint64(size)) {
		return 0, fmt.Errorf("%w: mapping %d bytes with %d of %d in use", ErrNoMemory, size, as.mapped, as.limit)
	}

	start, ok := as.findGap(uint64(size))
	if !ok {
		return 0, fmt.Errorf("%w: no gap for %d bytes", ErrNoMemory, size)
	}

	m := &mapping{
		Mapping: Mapping{Range: Range{Start: start, End: start + size}, Prot: prot},
		data:    make([]byte, size),
	}
	as.insert(m)
	as.mapped += uint64(size)
	return start, nil
}

// Unmap removes the mapping that starts at addr.
func (as *AddressSpace) Unmap(addr Addr) error {
	as.mu.Lock()
	defer as.mu.Unlock()

	i, ok := as.indexOf(addr)
	if !ok {
		return fmt.Errorf("%w: no mapping starts at %s", ErrInvalidMapping, addr)
	}
	as.mapped -= as.mappings[i].Range.Length()
	as.mappings = append(as.mappings[:i], as.mappings[i+1:]...)
	return nil
}

// UnmapAll removes every mapping.
func (as *AddressSpace) UnmapAll() {
	as.mu.Lock()
	defer as.mu.Unlock()

	as.mappings = nil
	as.mapped = 0
}

// Protect changes the protection of the mapping that starts at addr.
func (as *AddressSpace) Protect(addr Addr, prot Prot) error {
	as.mu.Lock()
	defer as.mu.Unlock()

	i, ok := as.indexOf(addr)
	if !ok {
		return fmt.Errorf("%w: no mapping starts at %s", ErrInvalidMapping, addr)
	}
	as.mappings[i].Prot = prot
	return nil
}

// Mappings returns a snapshot of all mappings in address order.
func (as *AddressSpace) Mappings() []Mapping {
	as.mu.RLock()
	defer as.mu.RUnlock()

	out := make([]Mapping, len(as.mappings))
	for i, m := range as.mappings {
		out[i] = m.Mapping
	}
	return out
}

// Mapped returns the number of bytes currently mapped.
func (as *AddressSpace) Mapped() uint64 {
	as.mu.RLock()
	defer as.mu.RUnlock()
	return as.mapped
}

// Store writes values at addr as the owning process.
func (as *AddressSpace) Store(addr Addr, values []int32) error {
	as.mu.Lock()
	defer as.mu.Unlock()

	buf, err := as.resolve(AccessWrite, addr, len(values), false)
	if err != nil {
		return err
	}
	encode(buf, values)
	return nil
}

// Load reads count values at addr as the owning process.
func (as *AddressSpace) Load(addr Addr, count int) ([]int32, error) {
	as.mu.RLock()
	defer as.mu.RUnlock()

	buf, err := as.resolve(AccessRead, addr, count, false)
	if err != nil {
		return nil, err
	}
	out := make([]int32, count)
	decode(buf, out)
	return out, nil
}

// CopyIn implements Boundary. Nothing is written to dst unless the whole
// source range is mapped and readable.
func (as *AddressSpace) CopyIn(dst []int32, src Addr) error {
	as.mu.RLock()
	defer as.mu.RUnlock()

	buf, err := as.resolve(AccessRead, src, len(dst), true)
	if err != nil {
		return err
	}
	decode(buf, dst)
	return nil
}

// CopyOut implements Boundary. Caller memory is left untouched unless the
// whole destination range is mapped and writable.
func (as *AddressSpace) CopyOut(dst Addr, src []int32) error {
	as.mu.Lock()
	defer as.mu.Unlock()

	buf, err := as.resolve(AccessWrite, dst, len(src), true)
	if err != nil {
		return err
	}
	encode(buf, src)
	return nil
}

// resolve returns the bytes backing the word range at addr. Map keeps a
// guard page between mappings, so a valid range lies inside exactly one of
// them. When checkProt is set that mapping must also allow the access.
// Callers hold as.mu.
func (as *AddressSpace) resolve(access Access, addr Addr, count int, checkProt bool) ([]byte, error) {
	if addr.IsNull() {
		return nil, fault(access, addr, count, "null address")
	}
	r, ok := WordRange(addr, count)
	if !ok {
		return nil, fault(access, addr, count, "range overflows address space")
	}
	if r.Length() == 0 {
		return nil, nil
	}

	i := sort.Search(len(as.mappings), func(i int) bool {
		return as.mappings[i].Range.End > r.Start
	})
	if i >= len(as.mappings) || as.mappings[i].Range.Start > r.Start {
		return nil, fault(access, addr, count, fmt.Sprintf("%s is not mapped", r.Start))
	}
	m := as.mappings[i]
	if !m.Range.Contains(r) {
		return nil, fault(access, addr, count, fmt.Sprintf("%s is not mapped", m.Range.End))
	}
	if checkProt {
		if access == AccessRead && !m.Prot.CanRead() {
			return nil, fault(access, addr, count, fmt.Sprintf("mapping %s is %s", m.Range, m.Prot))
		}
		if access == AccessWrite && !m.Prot.CanWrite() {
			return nil, fault(access, addr, count, fmt.Sprintf("mapping %s is %s", m.Range, m.Prot))
		}
	}

	off := uint64(r.Start - m.Range.Start)
	return m.data[off : off+r.Length()], nil
}

// findGap returns the lowest address at or above MinAddr where size bytes
// fit, keeping a guard page after every existing mapping.
func (as *AddressSpace) findGap(size uint64) (Addr, bool) {
	candidate := MinAddr
	for _, m := range as.mappings {
		end, ok := candidate.AddLength(size)
		if !ok {
			return 0, false
		}
		if end+PageSize <= m.Range.Start {
			return candidate, true
		}
		next, ok := m.Range.End.AddLength(PageSize)
		if !ok {
			return 0, false
		}
		candidate = max(candidate, next)
	}
	if _, ok := candidate.AddLength(size); !ok {
		return 0, false
	}
	return candidate, true
}

func (as *AddressSpace) insert(m *mapping) {
	i := sort.Search(len(as.mappings), func(i int) bool {
		return as.mappings[i].Range.Start > m.Range.Start
	})
	as.mappings = append(as.mappings, nil)
	copy(as.mappings[i+1:], as.mappings[i:])
	as.mappings[i] = m
}

func (as *AddressSpace) indexOf(addr Addr) (int, bool) {
	i := sort.Search(len(as.mappings), func(i int) bool {
		return as.mappings[i].Range.Start >= addr
	})
	if i < len(as.mappings) && as.mappings[i].Range.Start == addr {
		return i, true
	}
	return 0, false
}

// encode writes values into buf as little-endian words.
func encode(buf []byte, values []int32) {
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*WordSize:], uint32(v))
	}
}

func decode(buf []byte, out []int32) {
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(buf[i*WordSize:]))
	}
}
