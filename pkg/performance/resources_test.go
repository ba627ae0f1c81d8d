package performance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestResourceMonitorUsage(t *testing.T) {
	rm, err := NewResourceMonitor()
	require.NoError(t, err)

	u := rm.Usage()
	assert.Positive(t, u.GoroutineCount)
	assert.Equal(t, u.MemoryRSS, rm.PeakRSS())
	assert.NotEmpty(t, u.Fields())
}

func TestResourceMonitorWatchStops(t *testing.T) {
	rm, err := NewResourceMonitor()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		rm.Watch(ctx, 5*time.Millisecond, zaptest.NewLogger(t))
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestThroughput(t *testing.T) {
	assert.Equal(t, 100.0, Throughput(200, 2*time.Second))
	assert.Zero(t, Throughput(10, 0))
}
