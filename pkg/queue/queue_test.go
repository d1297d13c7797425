package queue

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testPaths(t *testing.T) Paths {
	t.Helper()
	dir := t.TempDir()
	return Paths{
		IndexPath:   filepath.Join(dir, "index.mm"),
		DataPath:    filepath.Join(dir, "data.mm"),
		ControlPath: filepath.Join(dir, "control.mm"),
		NewSemName:  "mmqueue_test_new",
		RegSemName:  "mmqueue_test_reg",
	}
}

func mustProducer(t *testing.T, paths Paths, cfg Config) *Queue {
	t.Helper()
	q, err := InitProducer(cfg, paths)
	require.NoError(t, err)
	return q
}

func mustConsumer(t *testing.T, paths Paths, maxConsumers uint32) *Queue {
	t.Helper()
	q, err := AttachConsumer(paths, maxConsumers)
	require.NoError(t, err)
	return q
}

// Scenario 1: Smoke.
func TestSmokePublishAndDrain(t *testing.T) {
	paths := testPaths(t)
	cfg := Config{IndexInitialBytes: 64 * 1024, DataInitialBytes: 1024 * 1024, MaxConsumers: 4}
	prod := mustProducer(t, paths, cfg)
	defer prod.Close()

	require.NoError(t, prod.Publish([]byte("hello")))
	require.NoError(t, prod.Publish([]byte("world")))

	c1 := mustConsumer(t, paths, cfg.MaxConsumers)
	defer c1.Close()
	require.NoError(t, c1.RegisterConsumer("c1", 0))

	m1, err := c1.Drain()
	require.NoError(t, err)
	require.Equal(t, "hello", string(m1))

	m2, err := c1.Drain()
	require.NoError(t, err)
	require.Equal(t, "world", string(m2))

	_, err = c1.Drain()
	require.ErrorIs(t, err, ErrNoMsgAvailable)
}

// Scenario 2: Late join.
func TestLateJoinStartsAtGivenSeq(t *testing.T) {
	paths := testPaths(t)
	cfg := Config{IndexInitialBytes: 64 * 1024, DataInitialBytes: 1024 * 1024, MaxConsumers: 4}
	prod := mustProducer(t, paths, cfg)
	defer prod.Close()
	require.NoError(t, prod.Publish([]byte("hello")))
	require.NoError(t, prod.Publish([]byte("world")))

	c2 := mustConsumer(t, paths, cfg.MaxConsumers)
	defer c2.Close()
	require.NoError(t, c2.RegisterConsumer("c2", 1))

	m, err := c2.Drain()
	require.NoError(t, err)
	require.Equal(t, "world", string(m))

	_, err = c2.Drain()
	require.ErrorIs(t, err, ErrNoMsgAvailable)
}

// Scenario 3: Growth.
func TestGrowthAcrossTwentyMessages(t *testing.T) {
	paths := testPaths(t)
	cfg := Config{IndexInitialBytes: 4096, DataInitialBytes: 4096, MaxConsumers: 2}
	prod := mustProducer(t, paths, cfg)
	defer prod.Close()

	msg := make([]byte, 1024)
	for i := range msg {
		msg[i] = byte(i)
	}
	for i := 0; i < 20; i++ {
		msg[0] = byte(i)
		require.NoError(t, prod.Publish(msg))
	}

	c := mustConsumer(t, paths, cfg.MaxConsumers)
	defer c.Close()
	require.NoError(t, c.RegisterConsumer("grower", 0))

	seen := make(map[byte]bool)
	for i := 0; i < 20; i++ {
		m, err := c.Drain()
		require.NoError(t, err)
		require.Len(t, m, 1024)
		seen[m[0]] = true
	}
	require.Len(t, seen, 20)

	_, err := c.Drain()
	require.ErrorIs(t, err, ErrNoMsgAvailable)
	require.GreaterOrEqual(t, prod.data.Size(), int64(4096))
}

// A consumer attached before the producer grows index/data must miss the
// entries written past its own (unremapped) mapping rather than panic, per
// DESIGN.md's re-attach open question.
func TestDrainMissesGrowthBeyondConsumerMapping(t *testing.T) {
	paths := testPaths(t)
	cfg := Config{IndexInitialBytes: 4096, DataInitialBytes: 4096, MaxConsumers: 2}
	prod := mustProducer(t, paths, cfg)
	defer prod.Close()

	require.NoError(t, prod.Publish([]byte("before-growth")))

	c := mustConsumer(t, paths, cfg.MaxConsumers)
	defer c.Close()
	require.NoError(t, c.RegisterConsumer("early-attach", 0))

	m, err := c.Drain()
	require.NoError(t, err)
	require.Equal(t, "before-growth", string(m))

	msg := make([]byte, 1024)
	for i := 0; i < 20; i++ {
		require.NoError(t, prod.Publish(msg))
	}
	require.GreaterOrEqual(t, prod.data.Size(), int64(4096*2))

	sawMiss := false
	for i := 0; i < 20; i++ {
		_, err := c.Drain()
		if errors.Is(err, ErrNoMsgAvailable) {
			sawMiss = true
			break
		}
		require.NoError(t, err)
	}
	require.True(t, sawMiss, "consumer should miss entries written past its original mapping instead of panicking")
}

// Scenario 4: Re-register preserves slot state across detach/re-attach.
func TestReregisterPreservesLastSeq(t *testing.T) {
	paths := testPaths(t)
	cfg := Config{IndexInitialBytes: 64 * 1024, DataInitialBytes: 1024 * 1024, MaxConsumers: 4}
	prod := mustProducer(t, paths, cfg)
	defer prod.Close()
	require.NoError(t, prod.Publish([]byte("m0")))
	require.NoError(t, prod.Publish([]byte("m1")))

	c1a := mustConsumer(t, paths, cfg.MaxConsumers)
	require.NoError(t, c1a.RegisterConsumer("c1", 0))
	m, err := c1a.Drain()
	require.NoError(t, err)
	require.Equal(t, "m0", string(m))
	require.NoError(t, c1a.Close())

	c1b := mustConsumer(t, paths, cfg.MaxConsumers)
	defer c1b.Close()
	require.NoError(t, c1b.RegisterConsumer("c1", 0))
	m, err = c1b.Drain()
	require.NoError(t, err)
	require.Equal(t, "m1", string(m))
}

// Scenario 5: Notify count — covered in depth by internal/sema's own
// TestCountingSemanticsNMinusM; here we check Wait observes a post.
func TestWaitObservesPublish(t *testing.T) {
	paths := testPaths(t)
	cfg := Config{IndexInitialBytes: 64 * 1024, DataInitialBytes: 1024 * 1024, MaxConsumers: 2}
	prod := mustProducer(t, paths, cfg)
	defer prod.Close()

	c := mustConsumer(t, paths, cfg.MaxConsumers)
	defer c.Close()

	err := c.WaitTimeout(10 * time.Millisecond)
	require.ErrorIs(t, err, ErrTimedOut)

	require.NoError(t, prod.Publish([]byte("x")))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, c.Wait(ctx))
}

// Scenario 6: Sanity rejection.
func TestAttachRejectsCorruptHeader(t *testing.T) {
	paths := testPaths(t)
	cfg := Config{IndexInitialBytes: 64 * 1024, DataInitialBytes: 1024 * 1024, MaxConsumers: 2}
	prod := mustProducer(t, paths, cfg)
	ih := prod.ih()
	ih.magic = 0xBAD
	require.NoError(t, prod.Close())

	_, err := AttachConsumer(paths, cfg.MaxConsumers)
	require.Error(t, err)
	var qerr *Error
	require.True(t, errors.As(err, &qerr))
	require.Equal(t, CodeIndexSanity, qerr.Code)
}

func TestRegisterConsumerSlotsFull(t *testing.T) {
	paths := testPaths(t)
	cfg := Config{IndexInitialBytes: 64 * 1024, DataInitialBytes: 1024 * 1024, MaxConsumers: 1}
	prod := mustProducer(t, paths, cfg)
	defer prod.Close()

	c1 := mustConsumer(t, paths, cfg.MaxConsumers)
	defer c1.Close()
	require.NoError(t, c1.RegisterConsumer("only", 0))

	c2 := mustConsumer(t, paths, cfg.MaxConsumers)
	defer c2.Close()
	err := c2.RegisterConsumer("other", 0)
	require.ErrorIs(t, err, ErrConsumerSlotFull)
}

func TestCloseIsIdempotent(t *testing.T) {
	paths := testPaths(t)
	cfg := Config{IndexInitialBytes: 64 * 1024, DataInitialBytes: 1024 * 1024, MaxConsumers: 1}
	prod := mustProducer(t, paths, cfg)
	require.NoError(t, prod.Close())
	require.NoError(t, prod.Close())
}
