package heartbeat

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/GriffinCanCode/sortcall/internal/infrastructure/monitoring"
)

func TestTimerCountsTicks(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	metrics := monitoring.NewMetrics()
	timer := New(5*time.Millisecond, zap.New(core), metrics)

	require.NoError(t, timer.Start(context.Background()))
	assert.True(t, timer.Running())

	require.Eventually(t, func() bool { return timer.Count() >= 3 }, time.Second, time.Millisecond)
	timer.Stop()
	assert.False(t, timer.Running())

	stopped := timer.Count()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, timer.Count(), "no ticks after Stop")

	assert.Equal(t, float64(stopped), testutil.ToFloat64(metrics.HeartbeatTicks))
	assert.Equal(t, int(stopped), logs.FilterMessage("timer expired").Len())
	assert.Equal(t, 1, logs.FilterMessage("heartbeat loaded").Len())
	assert.Equal(t, 1, logs.FilterMessage("heartbeat removed").Len())
}

func TestTimerStartTwice(t *testing.T) {
	timer := New(time.Hour, nil, nil)
	require.NoError(t, timer.Start(context.Background()))
	defer timer.Stop()

	assert.ErrorIs(t, timer.Start(context.Background()), ErrRunning)
}

func TestTimerRestartKeepsCount(t *testing.T) {
	timer := New(2*time.Millisecond, nil, nil)

	require.NoError(t, timer.Start(context.Background()))
	require.Eventually(t, func() bool { return timer.Count() >= 1 }, time.Second, time.Millisecond)
	timer.Stop()
	timer.Stop()

	first := timer.Count()
	require.NoError(t, timer.Start(context.Background()))
	require.Eventually(t, func() bool { return timer.Count() > first }, time.Second, time.Millisecond)
	timer.Stop()
}

func TestTimerStopsWithContext(t *testing.T) {
	timer := New(time.Millisecond, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, timer.Start(ctx))

	cancel()
	timer.Stop()
	assert.False(t, timer.Running())
}

func TestSubscribe(t *testing.T) {
	timer := New(2*time.Millisecond, nil, nil)
	ticks, unsubscribe := timer.Subscribe(8)

	require.NoError(t, timer.Start(context.Background()))
	defer timer.Stop()

	select {
	case n := <-ticks:
		assert.GreaterOrEqual(t, n, int64(1))
	case <-time.After(time.Second):
		t.Fatal("no tick delivered")
	}

	unsubscribe()
	unsubscribe()
	for range ticks {
		// drain until closed
	}
}

func TestStopClosesSubscribers(t *testing.T) {
	timer := New(time.Millisecond, nil, nil)
	ticks, unsubscribe := timer.Subscribe(1)

	require.NoError(t, timer.Start(context.Background()))
	timer.Stop()

	closed := make(chan struct{})
	go func() {
		for range ticks {
		}
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("subscriber channel left open after Stop")
	}
	assert.NotPanics(t, unsubscribe)

	// A restarted timer serves new subscribers
	again, unsubscribeAgain := timer.Subscribe(1)
	defer unsubscribeAgain()
	require.NoError(t, timer.Start(context.Background()))
	defer timer.Stop()

	select {
	case _, ok := <-again:
		assert.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("no tick delivered after restart")
	}
}

func TestDefaultInterval(t *testing.T) {
	assert.Equal(t, DefaultInterval, New(0, nil, nil).Interval())
}
