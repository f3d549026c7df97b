package syscall

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/sortcall/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/sortcall/internal/kernel/proc"
	"github.com/GriffinCanCode/sortcall/internal/shared/id"
)

// Number is a syscall number.
type Number int

// SysSortDescending sorts a caller buffer of int32 in descending order.
const SysSortDescending Number = 333

func (n Number) String() string {
	return strconv.Itoa(int(n))
}

var (
	ErrNoSuchSyscall = errors.New("no such syscall")
	ErrArgCount      = errors.New("wrong number of syscall arguments")
	ErrDuplicate     = errors.New("syscall number already registered")
)

// Call is one invocation handed to a handler.
type Call struct {
	ID      id.CallID
	Number  Number
	Name    string
	Process *proc.Process
	Args    []int64
	Logger  *zap.Logger
	Span    *tracing.Span
}

// Outcome is what a handler reports back.
type Outcome struct {
	Ret    int64
	Status string
	OK     bool
}

// HandlerFunc runs one syscall.
type HandlerFunc func(ctx context.Context, c *Call) Outcome

// Entry describes a registered syscall.
type Entry struct {
	Name    string
	Argc    int
	Handler HandlerFunc
}

// Info is the externally visible description of a registered syscall.
type Info struct {
	Number Number `json:"nr"`
	Name   string `json:"name"`
	Argc   int    `json:"argc"`
}

// table is the syscall registry. Register may run while calls are in flight.
type table struct {
	mu      sync.RWMutex
	entries map[Number]Entry
}

func newTable() *table {
	return &table{entries: make(map[Number]Entry)}
}

func (t *table) register(nr Number, e Entry) error {
	if e.Handler == nil || e.Name == "" {
		return fmt.Errorf("syscall %d: entry needs a name and a handler", nr)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if prev, ok := t.entries[nr]; ok {
		return fmt.Errorf("%w: %d is %s", ErrDuplicate, nr, prev.Name)
	}
	t.entries[nr] = e
	return nil
}

func (t *table) lookup(nr Number) (Entry, error) {
	t.mu.RLock()
	e, ok := t.entries[nr]
	t.mu.RUnlock()

	if !ok {
		return Entry{}, fmt.Errorf("%w: %d", ErrNoSuchSyscall, nr)
	}
	return e, nil
}

func (t *table) list() []Info {
	t.mu.RLock()
	out := make([]Info, 0, len(t.entries))
	for nr, e := range t.entries {
		out = append(out, Info{Number: nr, Name: e.Name, Argc: e.Argc})
	}
	t.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}
