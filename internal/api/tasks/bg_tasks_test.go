package tasks

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	bgTasks := New(slog.Default(), 3, 10)
	bgTasks.Run()
	var runned atomic.Int32
	for range 5 {
		assert.True(t, bgTasks.Add(func() { runned.Add(1) }))
	}
	require.NoError(t, bgTasks.Shutdown(context.Background()))
	assert.Equal(t, int32(5), runned.Load())
	assert.True(t, bgTasks.IsEmpty())
}

func TestPanicDoesNotKillWorker(t *testing.T) {
	bgTasks := New(slog.Default(), 1, 10)
	bgTasks.Run()
	var runned atomic.Bool
	bgTasks.Add(func() { panic("boom") })
	bgTasks.Add(func() { runned.Store(true) })
	require.NoError(t, bgTasks.Shutdown(context.Background()))
	assert.True(t, runned.Load())
}

func TestAddAfterShutdown(t *testing.T) {
	bgTasks := New(slog.Default(), 1, 1)
	bgTasks.Run()
	require.NoError(t, bgTasks.Shutdown(context.Background()))
	assert.False(t, bgTasks.Add(func() {}))
	assert.NoError(t, bgTasks.Shutdown(context.Background()))
}

func TestShutdownTimeout(t *testing.T) {
	bgTasks := New(slog.Default(), 1, 1)
	bgTasks.Run()
	release := make(chan struct{})
	bgTasks.Add(func() { <-release })
	defer close(release)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, bgTasks.Shutdown(ctx), context.DeadlineExceeded)
}

func TestAddDropsWhenQueueFull(t *testing.T) {
	bgTasks := New(slog.Default(), 1, 1)
	release := make(chan struct{})
	// workers are not running yet, so the queue holds exactly one task
	assert.True(t, bgTasks.Add(func() { <-release }))
	assert.False(t, bgTasks.Add(func() {}))
	close(release)
	bgTasks.Run()
	require.NoError(t, bgTasks.Shutdown(context.Background()))
}
