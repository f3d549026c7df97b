package sortcall

import (
	"errors"

	"github.com/GriffinCanCode/sortcall/internal/kernel/kmem"
	"github.com/GriffinCanCode/sortcall/internal/kernel/usermem"
)

// Allocator supplies and reclaims service-owned working buffers.
// *kmem.Arena implements it.
type Allocator interface {
	Alloc(count int) (*kmem.Block, error)
	Free(b *kmem.Block)
}

// Stage is a step of the linear invocation state machine.
type Stage int

const (
	StageInit Stage = iota
	StageCopiedIn
	StageSorted
	StageCopiedOut
	StageReleased
)

func (s Stage) String() string {
	switch s {
	case StageInit:
		return "init"
	case StageCopiedIn:
		return "copied_in"
	case StageSorted:
		return "sorted"
	case StageCopiedOut:
		return "copied_out"
	case StageReleased:
		return "released"
	default:
		return "unknown"
	}
}

// Event reports progress of one invocation. On success Stage is the stage
// just reached. A failure event carries a non-zero Status and names the stage
// that was being attempted when the call broke; Err is the cause.
type Event struct {
	Stage  Stage
	Status Status
	Err    error
	Addr   usermem.Addr
	Count  int
	Bytes  uint64
}

// Observer receives invocation events synchronously.
type Observer func(Event)

var errNoBoundary = errors.New("no caller memory attached")

// Service sorts caller buffers in service-owned memory. It holds no
// per-call state and is safe for concurrent use when its Allocator is.
type Service struct {
	alloc Allocator
}

// New creates a Service drawing working buffers from alloc.
func New(alloc Allocator) *Service {
	return &Service{alloc: alloc}
}

// Invoke sorts count int32 values at addr in the caller memory reached
// through b, descending, and reports the outcome.
func (s *Service) Invoke(b usermem.Boundary, addr usermem.Addr, count int) Status {
	return s.Trace(b, addr, count, nil)
}

// Trace is Invoke with an observer notified at every stage.
func (s *Service) Trace(b usermem.Boundary, addr usermem.Addr, count int, observe Observer) (status Status) {
	emit := func(e Event) {
		if observe != nil {
			e.Addr, e.Count = addr, count
			observe(e)
		}
	}

	emit(Event{Stage: StageInit})

	switch {
	case addr.IsNull():
		emit(Event{Stage: StageInit, Status: InvalidArgument, Err: ErrInvalidArgument})
		return InvalidArgument
	case count < 0:
		emit(Event{Stage: StageInit, Status: InvalidArgument, Err: ErrInvalidArgument})
		return InvalidArgument
	case b == nil:
		emit(Event{Stage: StageInit, Status: InvalidArgument, Err: errNoBoundary})
		return InvalidArgument
	case count == 0:
		return Success
	}

	// Transfer in.
	block, err := s.alloc.Alloc(count)
	if err != nil {
		emit(Event{Stage: StageCopiedIn, Status: AllocationFailure, Err: err})
		return AllocationFailure
	}
	defer func() {
		s.alloc.Free(block)
		emit(Event{Stage: StageReleased, Status: status, Bytes: block.Bytes()})
	}()

	if err := b.CopyIn(block.Words, addr); err != nil {
		emit(Event{Stage: StageCopiedIn, Status: BoundaryCopyInFailure, Err: err, Bytes: block.Bytes()})
		return BoundaryCopyInFailure
	}
	emit(Event{Stage: StageCopiedIn, Bytes: block.Bytes()})

	SortDescending(block.Words)
	emit(Event{Stage: StageSorted, Bytes: block.Bytes()})

	// Transfer out.
	if err := b.CopyOut(addr, block.Words); err != nil {
		emit(Event{Stage: StageCopiedOut, Status: BoundaryCopyOutFailure, Err: err, Bytes: block.Bytes()})
		return BoundaryCopyOutFailure
	}
	emit(Event{Stage: StageCopiedOut, Bytes: block.Bytes()})

	return Success
}
