package syscall

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/sortcall/internal/infrastructure/logging"
	"github.com/GriffinCanCode/sortcall/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/sortcall/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/sortcall/internal/kernel/kmem"
	"github.com/GriffinCanCode/sortcall/internal/kernel/proc"
	"github.com/GriffinCanCode/sortcall/internal/kernel/sortcall"
	"github.com/GriffinCanCode/sortcall/internal/shared/id"
)

// Result is what the caller of a syscall sees.
type Result struct {
	CallID string `json:"call_id"`
	Ret    int64  `json:"ret"`
	Status string `json:"status"`
}

// Options carries the optional collaborators of a Dispatcher.
type Options struct {
	Logger  *zap.Logger
	Metrics *monitoring.Metrics
	Tracer  *tracing.Tracer
}

// Dispatcher routes syscalls from processes to their handlers.
type Dispatcher struct {
	procs   *proc.Table
	arena   *kmem.Arena
	sorter  *sortcall.Service
	calls   *table
	logger  *zap.Logger
	metrics *monitoring.Metrics
	tracer  *tracing.Tracer
}

// NewDispatcher creates a dispatcher over procs whose service calls draw
// working memory from arena. sort_descending is registered.
func NewDispatcher(procs *proc.Table, arena *kmem.Arena, opts Options) *Dispatcher {
	d := &Dispatcher{
		procs:   procs,
		arena:   arena,
		sorter:  sortcall.New(arena),
		calls:   newTable(),
		logger:  logging.OrNop(opts.Logger).Named("syscall"),
		metrics: opts.Metrics,
		tracer:  opts.Tracer,
	}

	// Cannot fail on an empty table
	_ = d.Register(SysSortDescending, Entry{
		Name:    "sort_descending",
		Argc:    2,
		Handler: d.sysSortDescending,
	})

	return d
}

// Register adds a syscall. Numbers cannot be reused.
func (d *Dispatcher) Register(nr Number, e Entry) error {
	return d.calls.register(nr, e)
}

// Syscalls lists the registered syscalls ordered by number.
func (d *Dispatcher) Syscalls() []Info {
	return d.calls.list()
}

// ArenaStats reports the accounting of the service-owned arena.
func (d *Dispatcher) ArenaStats() kmem.Stats {
	return d.arena.Stats()
}

// Execute runs syscall nr on behalf of pid.
func (d *Dispatcher) Execute(ctx context.Context, pid uint32, nr Number, args []int64) (Result, error) {
	entry, err := d.calls.lookup(nr)
	if err != nil {
		d.dispatchFailed("unknown", "no_such_syscall", err, pid, nr)
		return Result{}, err
	}
	if len(args) != entry.Argc {
		err := fmt.Errorf("%w: %s takes %d, got %d", ErrArgCount, entry.Name, entry.Argc, len(args))
		d.dispatchFailed(entry.Name, "arg_count", err, pid, nr)
		return Result{}, err
	}
	p, err := d.procs.Get(pid)
	if err != nil {
		d.dispatchFailed(entry.Name, "no_such_process", err, pid, nr)
		return Result{}, err
	}

	call := &Call{
		ID:      id.NewCallID(),
		Number:  nr,
		Name:    entry.Name,
		Process: p,
		Args:    args,
	}
	call.Logger = d.logger.With(zap.String("call_id", call.ID.String()), logging.PID(pid))
	call.Logger = call.Logger.With(logging.Syscall(entry.Name, int(nr))...)

	if d.tracer != nil {
		var span *tracing.Span
		span, ctx = d.tracer.StartSpan(ctx, entry.Name)
		span.SetTag("call_id", call.ID.String())
		span.SetTag("pid", strconv.FormatUint(uint64(pid), 10))
		call.Span = span
		defer func() {
			span.Finish()
			d.tracer.Submit(span)
		}()
	}

	timer := monitoring.NewTimer(d.metrics, entry.Name)
	out := entry.Handler(ctx, call)
	elapsed := timer.Stop(out.Status, out.OK)

	if call.Span != nil {
		call.Span.SetTag("status", out.Status)
		call.Span.SetTag("ret", strconv.FormatInt(out.Ret, 10))
	}
	call.Logger.Debug("syscall returned",
		zap.Int64("ret", out.Ret),
		zap.String("status", out.Status),
		zap.Duration("elapsed", elapsed),
	)

	return Result{CallID: call.ID.String(), Ret: out.Ret, Status: out.Status}, nil
}

func (d *Dispatcher) dispatchFailed(name, kind string, err error, pid uint32, nr Number) {
	if d.metrics != nil {
		d.metrics.RecordSyscallError(name, kind)
	}
	level := d.logger.Warn
	if errors.Is(err, ErrNoSuchSyscall) {
		level = d.logger.Error
	}
	level("syscall dispatch failed", logging.PID(pid), zap.Int("nr", int(nr)), zap.Error(err))
}
