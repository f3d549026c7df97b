// Package heartbeat runs a periodic background timer that counts its own
// expirations.
//
// Each tick increments a counter, logs the new value and fans it out to
// subscribers. The timer is explicitly started and stopped; it is unrelated
// to the sort service and shares no state with it.
package heartbeat

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/sortcall/internal/infrastructure/logging"
	"github.com/GriffinCanCode/sortcall/internal/infrastructure/monitoring"
)

// DefaultInterval is the tick period when none is configured.
const DefaultInterval = 500 * time.Millisecond

var ErrRunning = errors.New("heartbeat already running")

// Timer is a restartable periodic counter.
type Timer struct {
	interval time.Duration
	logger   *zap.Logger
	metrics  *monitoring.Metrics

	count atomic.Int64

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	subs   map[int]chan int64
	nextID int
}

// New creates a stopped timer. A non-positive interval selects
// DefaultInterval. metrics may be nil.
func New(interval time.Duration, logger *zap.Logger, metrics *monitoring.Metrics) *Timer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Timer{
		interval: interval,
		logger:   logging.OrNop(logger).Named("heartbeat"),
		metrics:  metrics,
		subs:     make(map[int]chan int64),
	}
}

// Interval returns the tick period.
func (t *Timer) Interval() time.Duration {
	return t.interval
}

// Start arms the timer. It runs until Stop is called or ctx is done.
func (t *Timer) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancel != nil {
		return ErrRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.done = make(chan struct{})

	go t.run(ctx, t.done)

	t.logger.Info("heartbeat loaded", zap.Duration("interval", t.interval))
	return nil
}

// Stop disarms the timer and waits for the loop to exit. Subscriber channels
// are closed on the way out. Stopping a stopped timer is a no-op. The count is
// kept across restarts.
func (t *Timer) Stop() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel, t.done = nil, nil
	t.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done

	t.logger.Info("heartbeat removed", zap.Int64("count", t.Count()))
}

// Running reports whether the timer is armed.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancel != nil
}

// Count returns the number of expirations so far.
func (t *Timer) Count() int64 {
	return t.count.Load()
}

// Subscribe returns a channel receiving the count after every tick. Slow
// subscribers miss ticks instead of blocking the timer. The channel is closed
// when the timer stops or when the returned func is called, whichever comes
// first.
func (t *Timer) Subscribe(buffer int) (<-chan int64, func()) {
	ch := make(chan int64, max(buffer, 1))

	t.mu.Lock()
	subID := t.nextID
	t.nextID++
	t.subs[subID] = ch
	t.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			if _, ok := t.subs[subID]; ok {
				delete(t.subs, subID)
				close(ch)
			}
		})
	}
}

func (t *Timer) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer t.closeSubscribers()

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.tick()
		}
	}
}

func (t *Timer) tick() {
	n := t.count.Add(1)
	t.logger.Info("timer expired", zap.Int64("count", n))
	if t.metrics != nil {
		t.metrics.IncHeartbeat()
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for _, ch := range t.subs {
		select {
		case ch <- n:
		default:
		}
	}
}

func (t *Timer) closeSubscribers() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for subID, ch := range t.subs {
		delete(t.subs, subID)
		close(ch)
	}
}
