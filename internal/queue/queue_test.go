package queue

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestQueueFIFO(t *testing.T) {
	q := New[int]()
	for i := 0; i < 5; i++ {
		require.True(t, q.Push(i))
	}
	require.Equal(t, 5, q.Len())

	for i := 0; i < 5; i++ {
		v, ok := q.TryPop()
		require.True(t, ok)
		require.Equal(t, i, v)
	}
	_, ok := q.TryPop()
	require.False(t, ok)
}

func TestPopWaitTimesOut(t *testing.T) {
	q := New[string]()

	start := time.Now()
	_, ok := q.PopWait(20 * time.Millisecond)
	require.False(t, ok)
	require.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestPopWaitWakesOnPush(t *testing.T) {
	q := New[string]()

	go func() {
		time.Sleep(10 * time.Millisecond)
		q.Push("frame")
	}()

	v, ok := q.PopWait(2 * time.Second)
	require.True(t, ok)
	require.Equal(t, "frame", v)
}

func TestCloseUnblocksConsumer(t *testing.T) {
	q := New[int]()

	done := make(chan bool)
	go func() {
		_, ok := q.PopWait(time.Minute)
		done <- ok
	}()

	time.Sleep(10 * time.Millisecond)
	q.Close()

	select {
	case ok := <-done:
		require.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("consumer not woken by Close")
	}
	require.False(t, q.Push(1))
}

func TestConcurrentProducersKeepEveryItem(t *testing.T) {
	q := New[int]()

	var wg sync.WaitGroup
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 250; i++ {
				q.Push(i)
			}
		}()
	}
	wg.Wait()

	count := 0
	for {
		if _, ok := q.PopWait(5 * time.Millisecond); !ok {
			break
		}
		count++
	}
	require.Equal(t, 1000, count)
}
