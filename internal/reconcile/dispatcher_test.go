package reconcile

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDispatcher_RunsEveryTask(t *testing.T) {
	d := NewDispatcher(zap.NewNop().Sugar(), 2, 1, time.Second)

	var ran int32
	block := make(chan struct{})
	for i := 0; i < 10; i++ {
		d.Enqueue(Task{Name: "count", Run: func(ctx context.Context) error {
			<-block
			atomic.AddInt32(&ran, 1)
			return nil
		}})
	}
	close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, d.Close(ctx))
	assert.Equal(t, int32(10), atomic.LoadInt32(&ran))
}

func TestDispatcher_RecoversPanics(t *testing.T) {
	d := NewDispatcher(zap.NewNop().Sugar(), 1, 4, time.Second)

	var after int32
	d.Enqueue(Task{Name: "boom", Run: func(ctx context.Context) error { panic("boom") }})
	d.Enqueue(Task{Name: "after", Run: func(ctx context.Context) error {
		atomic.StoreInt32(&after, 1)
		return nil
	}})

	require.NoError(t, d.Close(context.Background()))
	assert.Equal(t, int32(1), atomic.LoadInt32(&after))
}

func TestDispatcher_DropsAfterClose(t *testing.T) {
	d := NewDispatcher(zap.NewNop().Sugar(), 1, 1, time.Second)
	require.NoError(t, d.Close(context.Background()))

	var ran int32
	d.Enqueue(Task{Name: "late", Run: func(ctx context.Context) error {
		atomic.StoreInt32(&ran, 1)
		return nil
	}})
	assert.Zero(t, atomic.LoadInt32(&ran))
	assert.NoError(t, d.Close(context.Background()))
}

func TestDispatcher_CloseHonoursDeadline(t *testing.T) {
	d := NewDispatcher(zap.NewNop().Sugar(), 1, 1, time.Minute)
	release := make(chan struct{})
	defer close(release)
	d.Enqueue(Task{Name: "slow", Run: func(ctx context.Context) error {
		<-release
		return nil
	}})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Close(ctx), context.DeadlineExceeded)
}
