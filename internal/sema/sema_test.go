package sema

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPostThenWaitSucceeds(t *testing.T) {
	var word uint32
	s := Init(&word, "/test_new", 0)

	s.Post()
	require.NoError(t, s.Wait(context.Background()))
	require.EqualValues(t, 0, s.Value())
}

func TestWaitTimeoutExpires(t *testing.T) {
	var word uint32
	s := Init(&word, "/test_new", 0)

	ok, err := s.WaitTimeout(5 * time.Millisecond)
	require.False(t, ok)
	require.ErrorIs(t, err, ErrTimedOut)
}

func TestWaitTimeoutSucceedsWhenPosted(t *testing.T) {
	var word uint32
	s := Init(&word, "/test_new", 0)

	go func() {
		time.Sleep(2 * time.Millisecond)
		s.Post()
	}()

	ok, err := s.WaitTimeout(500 * time.Millisecond)
	require.True(t, ok)
	require.NoError(t, err)
}

func TestCountingSemanticsNMinusM(t *testing.T) {
	var word uint32
	s := Init(&word, "/test_new", 0)

	const n = 50
	for i := 0; i < n; i++ {
		s.Post()
	}

	const m = 20
	for i := 0; i < m; i++ {
		require.NoError(t, s.Wait(context.Background()))
	}

	require.EqualValues(t, n-m, s.Value())
}

func TestBinaryMutexDiscipline(t *testing.T) {
	var word uint32
	mutex := Init(&word, "/test_reg", 1)

	var shared int
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, mutex.Wait(context.Background()))
			shared++
			mutex.Post()
		}()
	}
	wg.Wait()
	require.Equal(t, 100, shared)
	require.EqualValues(t, 1, mutex.Value())
}

func TestWaitRespectsContextCancellation(t *testing.T) {
	var word uint32
	s := Init(&word, "/test_new", 0)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(2 * time.Millisecond)
		cancel()
	}()

	err := s.Wait(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestOpenSharesCountWithInit(t *testing.T) {
	var word uint32
	producer := Init(&word, "/test_new", 0)
	consumer := Open(&word, "/test_new")

	producer.Post()
	require.True(t, consumer.TryWait())
}
