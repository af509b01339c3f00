package hub

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recv[T any](t *testing.T, s *Subscription[T]) T {
	t.Helper()
	select {
	case v, ok := <-s.C():
		require.True(t, ok, "subscription closed")
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for value")
	}
	var zero T
	return zero
}

func assertEmpty[T any](t *testing.T, s *Subscription[T]) {
	t.Helper()
	select {
	case v := <-s.C():
		t.Fatalf("unexpected value %v", v)
	default:
	}
}

func TestHub_BroadcastToAllSubscribers(t *testing.T) {
	h := New[string](8)
	a := h.Subscribe()
	b := h.Subscribe()

	n := h.Publish("moved")
	assert.Equal(t, 2, n)
	assert.Equal(t, "moved", recv(t, a))
	assert.Equal(t, "moved", recv(t, b))

	late := h.Subscribe()
	assertEmpty(t, late)

	h.Publish("again")
	assert.Equal(t, "again", recv(t, late))
}

func TestHub_NoSubscribers(t *testing.T) {
	h := New[int](4)
	assert.Equal(t, 0, h.Publish(1))
	assert.Equal(t, uint64(1), h.Published())
}

func TestHub_DropOldestOnOverflow(t *testing.T) {
	h := New[int](3)
	slow := h.Subscribe()
	fast := h.Subscribe()

	for i := 1; i <= 5; i++ {
		h.Publish(i)
		assert.Equal(t, i, recv(t, fast))
	}

	assert.Equal(t, 3, recv(t, slow))
	assert.Equal(t, 4, recv(t, slow))
	assert.Equal(t, 5, recv(t, slow))
	assertEmpty(t, slow)

	assert.Equal(t, uint64(2), slow.Dropped())
	assert.Equal(t, uint64(0), fast.Dropped())
	assert.Equal(t, uint64(2), h.Dropped())
}

func TestHub_PublishNeverBlocks(t *testing.T) {
	h := New[int](1)
	_ = h.Subscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10000; i++ {
			h.Publish(i)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a stalled subscriber")
	}
}

func TestHub_OrderPerPublisher(t *testing.T) {
	h := New[int](1000)
	s := h.Subscribe()
	for i := 0; i < 500; i++ {
		h.Publish(i)
	}
	for i := 0; i < 500; i++ {
		assert.Equal(t, i, recv(t, s))
	}
}

func TestSubscription_Close(t *testing.T) {
	h := New[int](4)
	s := h.Subscribe()
	require.Equal(t, 1, h.Len())

	s.Close()
	s.Close()
	assert.Equal(t, 0, h.Len())
	_, ok := <-s.C()
	assert.False(t, ok)
	assert.Equal(t, 0, h.Publish(1))
}

func TestHub_Close(t *testing.T) {
	h := New[int](4)
	a := h.Subscribe()
	h.Close()
	h.Close()

	_, ok := <-a.C()
	assert.False(t, ok)
	assert.Equal(t, 0, h.Publish(1))

	b := h.Subscribe()
	_, ok = <-b.C()
	assert.False(t, ok)
	b.Close()
}

func TestHub_ConcurrentPublishSubscribe(t *testing.T) {
	h := New[int](16)
	var wg sync.WaitGroup
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				h.Publish(i)
			}
		}()
	}
	for c := 0; c < 4; c++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := h.Subscribe()
			defer s.Close()
			for i := 0; i < 100; i++ {
				select {
				case <-s.C():
				case <-time.After(10 * time.Millisecond):
				}
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, uint64(4000), h.Published())
}
