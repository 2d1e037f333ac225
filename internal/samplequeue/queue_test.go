package samplequeue

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tstenner/liblsl/internal/model"
)

func TestPush_FansOutToAllCursors(t *testing.T) {
	q := New()
	c1 := q.NewConsumer(4)
	c2 := q.NewConsumer(4)

	q.Push(model.Sample{Timestamp: 1, Values: []float32{1}})

	s1, ok1 := c1.Pop()
	s2, ok2 := c2.Pop()
	require.True(t, ok1)
	require.True(t, ok2)
	assert.Equal(t, 1.0, s1.Timestamp)
	assert.Equal(t, 1.0, s2.Timestamp)
}

func TestCursor_FIFOOrder(t *testing.T) {
	q := New()
	c := q.NewConsumer(100)

	for i := 0; i < 50; i++ {
		q.Push(model.Sample{Timestamp: float64(i), Values: []float32{float32(i)}})
	}

	for i := 0; i < 50; i++ {
		s, ok := c.Pop()
		require.True(t, ok)
		assert.Equal(t, float64(i), s.Timestamp)
	}
}

func TestCursor_BackpressureDropsOldest(t *testing.T) {
	q := New()
	c := q.NewConsumer(3)

	for i := 0; i < 10; i++ {
		q.Push(model.Sample{Timestamp: float64(i)})
	}

	// Only the latest 3 survive; producer was never blocked.
	var got []float64
	for i := 0; i < 3; i++ {
		s, ok := c.Pop()
		require.True(t, ok)
		got = append(got, s.Timestamp)
	}
	assert.Equal(t, []float64{7, 8, 9}, got)
	assert.EqualValues(t, 7, c.Dropped())
}

func TestTotalDropped_SumsAcrossCursors(t *testing.T) {
	q := New()
	c1 := q.NewConsumer(2)
	c2 := q.NewConsumer(5)

	for i := 0; i < 5; i++ {
		q.Push(model.Sample{Timestamp: float64(i)})
	}

	assert.EqualValues(t, 3, c1.Dropped())
	assert.EqualValues(t, 0, c2.Dropped())
	assert.EqualValues(t, 3, q.TotalDropped())
}

func TestCursor_PopBlocksUntilPush(t *testing.T) {
	q := New()
	c := q.NewConsumer(4)

	done := make(chan model.Sample, 1)
	go func() {
		s, ok := c.Pop()
		if ok {
			done <- s
		}
	}()

	select {
	case <-done:
		t.Fatal("Pop returned before any Push")
	case <-time.After(20 * time.Millisecond):
	}

	q.Push(model.Sample{Timestamp: 42})

	select {
	case s := <-done:
		assert.Equal(t, 42.0, s.Timestamp)
	case <-time.After(time.Second):
		t.Fatal("Pop never returned after Push")
	}
}

func TestCursor_CloseUnblocksPop(t *testing.T) {
	q := New()
	c := q.NewConsumer(4)

	var wg sync.WaitGroup
	wg.Add(1)
	var gotOK bool
	go func() {
		defer wg.Done()
		_, gotOK = c.Pop()
	}()

	time.Sleep(10 * time.Millisecond)
	c.Close()
	wg.Wait()

	assert.False(t, gotOK)
	assert.Equal(t, 0, q.NumConsumers())
}

func TestPushPing_WakesCursorsAsIgnorable(t *testing.T) {
	q := New()
	c := q.NewConsumer(4)

	q.PushPing(123.0)

	s, ok := c.Pop()
	require.True(t, ok)
	assert.True(t, s.IsPing)
}

func TestCloseAll_ClosesEveryCursor(t *testing.T) {
	q := New()
	c1 := q.NewConsumer(4)
	c2 := q.NewConsumer(4)

	q.CloseAll()

	_, ok1 := c1.Pop()
	_, ok2 := c2.Pop()
	assert.False(t, ok1)
	assert.False(t, ok2)
	assert.Equal(t, 0, q.NumConsumers())
}

func TestProducerNeverBlocksUnderLoad(t *testing.T) {
	q := New()
	c := q.NewConsumer(1000)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10000; i++ {
			q.Push(model.Sample{Timestamp: float64(i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("producer stalled pushing 10000 samples")
	}

	var last float64 = -1
	for {
		s, ok := c.Pop()
		if !ok {
			break
		}
		assert.Greater(t, s.Timestamp, last)
		last = s.Timestamp
		if c.count == 0 {
			break
		}
	}
}
