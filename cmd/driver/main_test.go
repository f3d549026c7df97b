package main

import (
	"context"
	"math/rand/v2"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	api "github.com/GriffinCanCode/sortcall/internal/api/http"
	"github.com/GriffinCanCode/sortcall/internal/client"
	"github.com/GriffinCanCode/sortcall/internal/kernel/kmem"
	"github.com/GriffinCanCode/sortcall/internal/kernel/proc"
	"github.com/GriffinCanCode/sortcall/internal/kernel/syscall"
)

func TestDriverRun(t *testing.T) {
	gin.SetMode(gin.TestMode)
	procs := proc.NewTable(1<<20, 0)
	arena := kmem.NewArena(1 << 20)
	router := gin.New()
	api.NewHandlers(procs, syscall.NewDispatcher(procs, arena, syscall.Options{}), nil, nil, nil).Register(router)
	srv := httptest.NewServer(router)
	defer srv.Close()

	core, logs := observer.New(zapcore.InfoLevel)
	d := &driver{
		client: client.New(client.DefaultConfig(srv.URL)),
		rng:    rand.New(rand.NewPCG(1, 2)),
		logger: zap.New(core),
	}

	require.NoError(t, d.run(context.Background(), 3))

	assert.Equal(t, 3, logs.FilterMessage("round finished").Len())
	null := logs.FilterMessage("null call returned").All()
	require.Len(t, null, 1)
	assert.Equal(t, int64(22), null[0].ContextMap()["ret"])
	assert.Equal(t, true, null[0].ContextMap()["expected"])
	assert.Equal(t, 1, logs.FilterMessage("latency summary").Len())

	assert.Zero(t, procs.Len())
	assert.Zero(t, arena.Stats().InUse)
	assert.Equal(t, uint64(3), arena.Stats().Allocs)
}

func TestExpected(t *testing.T) {
	assert.Equal(t, []int32{9, 5, 5, 1}, expected([]int32{5, 1, 9, 5}))
	assert.Empty(t, expected(nil))
}
