package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/GriffinCanCode/sortcall/internal/client"
	"github.com/GriffinCanCode/sortcall/internal/infrastructure/logging"
	"github.com/GriffinCanCode/sortcall/internal/kernel/sortcall"
)

const sortDescendingNr = 333

var errNotSorted = errors.New("result is not the descending permutation of the input")

func main() {
	addr := flag.String("addr", "http://localhost:8000", "Service base URL")
	rounds := flag.Int("rounds", 3, "Number of randomized rounds")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "Random seed")
	rps := flag.Float64("rps", 0, "Client rate limit in requests per second (0 = unlimited)")
	dev := flag.Bool("dev", false, "Development logging")
	flag.Parse()

	logger := logging.FromSettings("info", *dev)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := client.DefaultConfig(*addr)
	cfg.RateLimit = *rps
	cfg.Logger = logger.Logger

	d := &driver{
		client: client.New(cfg),
		rng:    rand.New(rand.NewPCG(*seed, *seed)),
		logger: logger.Logger,
	}

	logger.Info("driver starting", zap.String("addr", *addr), zap.Int("rounds", *rounds), zap.Uint64("seed", *seed))
	if err := d.run(ctx, *rounds); err != nil {
		logger.Fatal("driver failed", zap.Error(err))
	}
}

type driver struct {
	client    *client.Client
	rng       *rand.Rand
	logger    *zap.Logger
	latencies []float64
}

func (d *driver) run(ctx context.Context, rounds int) error {
	for i := 0; i < rounds; i++ {
		if err := d.round(ctx, i); err != nil {
			return fmt.Errorf("round %d: %w", i, err)
		}
	}

	status, err := d.nullCall(ctx)
	if err != nil {
		return fmt.Errorf("null call: %w", err)
	}
	d.logger.Info("null call returned",
		zap.Int64("ret", status.Code()),
		zap.Stringer("status", status),
		zap.Bool("expected", status == sortcall.InvalidArgument),
	)

	d.summarize()
	return nil
}

// round sorts one random buffer through a fresh process.
func (d *driver) round(ctx context.Context, n int) (err error) {
	values := make([]int32, 256+d.rng.IntN(256))
	for i := range values {
		values[i] = d.rng.Int32N(1000)
	}

	p, err := d.client.Spawn(ctx, fmt.Sprintf("driver-%d", n))
	if err != nil {
		return err
	}
	defer func() {
		if kerr := d.client.Kill(ctx, p.PID); kerr != nil && err == nil {
			err = kerr
		}
	}()

	addr, err := d.client.Mmap(ctx, p.PID, uint64(len(values))*4, "rw")
	if err != nil {
		return err
	}
	if err := d.client.Store(ctx, p.PID, addr, values); err != nil {
		return err
	}

	start := time.Now()
	res, err := d.client.Syscall(ctx, p.PID, sortDescendingNr, int64(addr), int64(len(values)))
	if err != nil {
		return err
	}
	d.latencies = append(d.latencies, float64(time.Since(start).Microseconds())/1000)

	status, _ := sortcall.StatusFromCode(res.Ret)
	if !status.OK() {
		return fmt.Errorf("sort_descending returned %d (%s)", res.Ret, res.Status)
	}

	got, err := d.client.Load(ctx, p.PID, addr, len(values))
	if err != nil {
		return err
	}
	if !slices.Equal(got, expected(values)) {
		return errNotSorted
	}

	d.logger.Info("round finished",
		logging.PID(p.PID),
		logging.Count(len(values)),
		zap.String("call_id", res.CallID),
		zap.Int32("max", got[0]),
		zap.Int32("min", got[len(got)-1]),
	)
	return nil
}

// nullCall invokes the syscall with a null address.
func (d *driver) nullCall(ctx context.Context) (sortcall.Status, error) {
	p, err := d.client.Spawn(ctx, "driver-null")
	if err != nil {
		return 0, err
	}
	defer func() {
		if err := d.client.Kill(ctx, p.PID); err != nil {
			d.logger.Warn("failed to kill process", logging.PID(p.PID), zap.Error(err))
		}
	}()

	res, err := d.client.Syscall(ctx, p.PID, sortDescendingNr, 0, 4)
	if err != nil {
		return 0, err
	}
	status, ok := sortcall.StatusFromCode(res.Ret)
	if !ok {
		return status, fmt.Errorf("unknown status code %d", res.Ret)
	}
	return status, nil
}

func (d *driver) summarize() {
	if len(d.latencies) == 0 {
		return
	}
	sorted := slices.Clone(d.latencies)
	slices.Sort(sorted)

	stddev := 0.0
	if len(sorted) > 1 {
		stddev = stat.StdDev(sorted, nil)
	}
	d.logger.Info("latency summary",
		zap.Int("calls", len(sorted)),
		zap.Float64("mean_ms", round3(stat.Mean(sorted, nil))),
		zap.Float64("stddev_ms", round3(stddev)),
		zap.Float64("p50_ms", round3(stat.Quantile(0.5, stat.Empirical, sorted, nil))),
		zap.Float64("p95_ms", round3(stat.Quantile(0.95, stat.Empirical, sorted, nil))),
	)
}

// expected is values sorted descending.
func expected(values []int32) []int32 {
	out := slices.Clone(values)
	slices.Sort(out)
	slices.Reverse(out)
	return out
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
