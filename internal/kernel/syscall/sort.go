package syscall

import (
	"context"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/sortcall/internal/infrastructure/logging"
	"github.com/GriffinCanCode/sortcall/internal/kernel/sortcall"
	"github.com/GriffinCanCode/sortcall/internal/kernel/usermem"
)

// sysSortDescending handles sort_descending(addr, count).
func (d *Dispatcher) sysSortDescending(_ context.Context, c *Call) Outcome {
	addr := usermem.Addr(uint64(c.Args[0]))
	count := int(c.Args[1])

	log := c.Logger.With(logging.Addr(addr), logging.Count(count))
	log.Info("sort_descending called")

	status := d.sorter.Trace(c.Process.Space, addr, count, func(e sortcall.Event) {
		d.observeSort(c, log, e)
	})

	if d.metrics != nil {
		d.metrics.ObserveSortSize(count)
		d.metrics.SetArenaStats(d.arena.Stats())
	}

	return Outcome{Ret: status.Code(), Status: status.String(), OK: status.OK()}
}

func (d *Dispatcher) observeSort(c *Call, log *zap.Logger, e sortcall.Event) {
	if c.Span != nil {
		fields := map[string]interface{}{"bytes": e.Bytes}
		if !e.Status.OK() {
			fields["status"] = e.Status.String()
		}
		c.Span.Log(e.Stage.String(), fields)
	}

	switch {
	case e.Stage == sortcall.StageReleased:
		log.Debug("working buffer released", zap.Uint64("bytes", e.Bytes), zap.Stringer("status", e.Status))
	case e.Status == sortcall.InvalidArgument:
		if e.Addr.IsNull() {
			log.Warn("received null from caller")
		} else {
			log.Warn("rejected invalid argument", zap.Error(e.Err))
		}
	case e.Status == sortcall.AllocationFailure:
		log.Error("working buffer allocation failed", zap.Error(e.Err))
	case e.Status == sortcall.BoundaryCopyInFailure:
		log.Error("failed to copy data from caller memory", zap.Uint64("bytes", e.Bytes), zap.Error(e.Err))
	case e.Status == sortcall.BoundaryCopyOutFailure:
		log.Error("failed to copy data to caller memory", zap.Error(e.Err))
	case e.Stage == sortcall.StageCopiedIn:
		log.Info("allocated and filled working buffer", zap.Uint64("bytes", e.Bytes))
	case e.Stage == sortcall.StageSorted:
		log.Info("sort finished")
	case e.Stage == sortcall.StageCopiedOut:
		log.Info("copied sorted buffer to caller memory")
	}
}
