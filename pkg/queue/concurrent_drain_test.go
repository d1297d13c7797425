package queue

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConcurrentDrainerDispatchesEveryMessage(t *testing.T) {
	paths := testPaths(t)
	cfg := Config{IndexInitialBytes: 64 * 1024, DataInitialBytes: 1024 * 1024, MaxConsumers: 2}
	prod := mustProducer(t, paths, cfg)
	defer prod.Close()
	for i := 0; i < 5; i++ {
		require.NoError(t, prod.Publish([]byte("m")))
	}

	c := mustConsumer(t, paths, cfg.MaxConsumers)
	defer c.Close()
	require.NoError(t, c.RegisterConsumer("drainer", 0))

	d, err := NewConcurrentDrainer(c, 2)
	require.NoError(t, err)
	defer d.Release()

	var mu sync.Mutex
	count := 0
	n, err := d.DrainAll(func(msg []byte) {
		mu.Lock()
		count++
		mu.Unlock()
	})
	require.NoError(t, err)
	require.Equal(t, 5, n)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count == 5
	}, time.Second, 10*time.Millisecond)
}

func TestConcurrentDrainerStopsAtNoMsgAvailable(t *testing.T) {
	paths := testPaths(t)
	cfg := Config{IndexInitialBytes: 64 * 1024, DataInitialBytes: 1024 * 1024, MaxConsumers: 2}
	prod := mustProducer(t, paths, cfg)
	defer prod.Close()

	c := mustConsumer(t, paths, cfg.MaxConsumers)
	defer c.Close()
	require.NoError(t, c.RegisterConsumer("empty", 0))

	d, err := NewConcurrentDrainer(c, 2)
	require.NoError(t, err)
	defer d.Release()

	n, err := d.DrainAll(func([]byte) {})
	require.NoError(t, err)
	require.Equal(t, 0, n)
}
