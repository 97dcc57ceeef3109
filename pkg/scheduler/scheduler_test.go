package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAddRejectsBadSpec(t *testing.T) {
	r := New(zap.NewNop())
	err := r.Add("broken", "every now and then", func(context.Context) error { return nil })
	assert.Error(t, err)
}

func TestScheduledJobDoesNotOverlap(t *testing.T) {
	r := New(zap.NewNop())

	var running, maxRunning, runs int32
	require.NoError(t, r.Add("slow", "@every 1s", func(ctx context.Context) error {
		n := atomic.AddInt32(&running, 1)
		defer atomic.AddInt32(&running, -1)
		for {
			m := atomic.LoadInt32(&maxRunning)
			if n <= m || atomic.CompareAndSwapInt32(&maxRunning, m, n) {
				break
			}
		}
		atomic.AddInt32(&runs, 1)
		time.Sleep(2500 * time.Millisecond)
		return nil
	}))

	r.Start()
	time.Sleep(4500 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, r.Stop(ctx))

	assert.EqualValues(t, 1, atomic.LoadInt32(&maxRunning))
	assert.GreaterOrEqual(t, atomic.LoadInt32(&runs), int32(1))
}

func TestRunNowLogsFailures(t *testing.T) {
	r := New(zap.NewNop())
	done := make(chan struct{})

	r.RunNow("failing", func(context.Context) error { return errors.New("boom") })
	r.RunNow("ok", func(ctx context.Context) error {
		close(done)
		return nil
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job did not run")
	}
}
