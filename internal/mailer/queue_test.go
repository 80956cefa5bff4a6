package mailer

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue()
	defer q.Close()

	for i := 0; i < 5; i++ {
		q.Enqueue(Message{To: fmt.Sprintf("user%d@example.com", i), Subject: "s", Body: "b"})
	}

	for i := 0; i < 5; i++ {
		select {
		case msg := <-q.Messages():
			assert.Equal(t, fmt.Sprintf("user%d@example.com", i), msg.To)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for message %d", i)
		}
	}
}

func TestQueue_EnqueueNeverBlocks(t *testing.T) {
	q := NewQueue()
	defer q.Close()

	// No consumer attached; every enqueue must still return.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			q.Enqueue(Message{To: "a@example.com"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("enqueue blocked without a consumer")
	}

	// The pump holds at most one message in flight.
	assert.GreaterOrEqual(t, q.Len(), 999)
}

func TestQueue_ConcurrentProducers(t *testing.T) {
	q := NewQueue()
	defer q.Close()

	const producers = 10
	const perProducer = 100

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Enqueue(Message{To: fmt.Sprintf("p%d-%d@example.com", p, i)})
			}
		}(p)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for i := 0; i < producers*perProducer; i++ {
		select {
		case msg := <-q.Messages():
			require.False(t, seen[msg.To], "duplicate delivery of %s", msg.To)
			seen[msg.To] = true
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out after %d messages", i)
		}
	}
	assert.Len(t, seen, producers*perProducer)
}

func TestQueue_CloseClosesConsumerChannel(t *testing.T) {
	q := NewQueue()
	q.Close()

	select {
	case _, ok := <-q.Messages():
		assert.False(t, ok, "channel should be closed")
	case <-time.After(time.Second):
		t.Fatal("channel not closed after Close")
	}
}

func TestQueue_EnqueueAfterCloseIsDropped(t *testing.T) {
	q := NewQueue()
	q.Close()

	q.Enqueue(Message{To: "late@example.com"})

	assert.Equal(t, 0, q.Len())
}

func TestQueue_CloseIsIdempotent(t *testing.T) {
	q := NewQueue()
	q.Close()
	assert.NotPanics(t, func() { q.Close() })
}
