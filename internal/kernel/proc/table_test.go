package proc

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/sortcall/internal/kernel/usermem"
)

func TestSpawnAssignsSequentialPIDs(t *testing.T) {
	tbl := NewTable(0, 0)

	p1, err := tbl.Spawn("driver")
	require.NoError(t, err)
	p2, err := tbl.Spawn("driver")
	require.NoError(t, err)

	assert.Equal(t, FirstPID, p1.PID)
	assert.Equal(t, FirstPID+1, p2.PID)
	assert.NotEqual(t, p1.InstanceID, p2.InstanceID)
	assert.NotSame(t, p1.Space, p2.Space)
	assert.Equal(t, 2, tbl.Len())
}

func TestGetAndKill(t *testing.T) {
	tbl := NewTable(0, 0)
	p, err := tbl.Spawn("x")
	require.NoError(t, err)

	_, err = p.Space.Map(usermem.PageSize, usermem.ProtReadWrite)
	require.NoError(t, err)

	got, err := tbl.Get(p.PID)
	require.NoError(t, err)
	assert.Same(t, p, got)

	require.NoError(t, tbl.Kill(p.PID))
	assert.Zero(t, p.Space.Mapped(), "kill unmaps everything")

	_, err = tbl.Get(p.PID)
	assert.ErrorIs(t, err, ErrNoSuchProcess)
	assert.ErrorIs(t, tbl.Kill(p.PID), ErrNoSuchProcess)
}

func TestSpawnRespectsLimits(t *testing.T) {
	tbl := NewTable(usermem.PageSize, 1)
	p, err := tbl.Spawn("a")
	require.NoError(t, err)

	_, err = tbl.Spawn("b")
	assert.ErrorIs(t, err, ErrTableFull)

	_, err = p.Space.Map(2*usermem.PageSize, usermem.ProtReadWrite)
	assert.ErrorIs(t, err, usermem.ErrNoMemory)
}

func TestListIsOrdered(t *testing.T) {
	tbl := NewTable(0, 0)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := tbl.Spawn("worker")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	infos := tbl.List()
	require.Len(t, infos, 10)
	for i := 1; i < len(infos); i++ {
		assert.Less(t, infos[i-1].PID, infos[i].PID)
	}
	assert.Equal(t, "worker", infos[0].Name)
	assert.NotEmpty(t, infos[0].InstanceID)
}
