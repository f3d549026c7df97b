// Package proc tracks the calling processes known to the service and the
// address space each one owns.
package proc

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/GriffinCanCode/sortcall/internal/kernel/usermem"
)

// FirstPID is the first PID handed out by a Table.
const FirstPID uint32 = 1000

var (
	ErrNoSuchProcess = errors.New("no such process")
	ErrTableFull     = errors.New("process table full")
)

// Process is a caller with its own memory.
type Process struct {
	PID        uint32
	Name       string
	InstanceID uuid.UUID
	Space      *usermem.AddressSpace
	StartedAt  time.Time
}

// Info is the externally visible description of a process.
type Info struct {
	PID        uint32    `json:"pid"`
	Name       string    `json:"name"`
	InstanceID string    `json:"instance_id"`
	Mapped     uint64    `json:"mapped_bytes"`
	StartedAt  time.Time `json:"started_at"`
}

// Info returns a snapshot of the process.
func (p *Process) Info() Info {
	return Info{
		PID:        p.PID,
		Name:       p.Name,
		InstanceID: p.InstanceID.String(),
		Mapped:     p.Space.Mapped(),
		StartedAt:  p.StartedAt,
	}
}

// Table is a concurrency-safe process table.
type Table struct {
	mu       sync.RWMutex
	procs    map[uint32]*Process
	nextPID  uint32
	memLimit uint64
	maxProcs int
}

// NewTable creates a table whose processes may each map up to memLimit
// bytes. maxProcs bounds the number of live processes; zero means
// unbounded.
func NewTable(memLimit uint64, maxProcs int) *Table {
	return &Table{
		procs:    make(map[uint32]*Process),
		nextPID:  FirstPID,
		memLimit: memLimit,
		maxProcs: maxProcs,
	}
}

// Spawn registers a new process with an empty address space.
func (t *Table) Spawn(name string) (*Process, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.maxProcs > 0 && len(t.procs) >= t.maxProcs {
		return nil, fmt.Errorf("%w: %d processes", ErrTableFull, len(t.procs))
	}

	p := &Process{
		PID:        t.nextPID,
		Name:       name,
		InstanceID: uuid.New(),
		Space:      usermem.NewAddressSpace(t.memLimit),
		StartedAt:  time.Now(),
	}
	t.procs[p.PID] = p
	t.nextPID++
	return p, nil
}

// Get looks up a live process.
func (t *Table) Get(pid uint32) (*Process, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	p, ok := t.procs[pid]
	if !ok {
		return nil, fmt.Errorf("%w: pid %d", ErrNoSuchProcess, pid)
	}
	return p, nil
}

// Kill removes a process and tears down its address space.
func (t *Table) Kill(pid uint32) error {
	t.mu.Lock()
	p, ok := t.procs[pid]
	delete(t.procs, pid)
	t.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: pid %d", ErrNoSuchProcess, pid)
	}
	p.Space.UnmapAll()
	return nil
}

// List returns all live processes ordered by PID.
func (t *Table) List() []Info {
	t.mu.RLock()
	out := make([]Info, 0, len(t.procs))
	for _, p := range t.procs {
		out = append(out, p.Info())
	}
	t.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].PID < out[j].PID })
	return out
}

// Len returns the number of live processes.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.procs)
}
