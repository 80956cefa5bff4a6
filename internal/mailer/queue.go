package mailer

import (
	"log/slog"
	"sync"
)

// Queue is an unbounded FIFO buffer of Messages. Enqueue never blocks,
// so request latency stays independent of mail transport health; the
// cost is unbounded memory if the worker falls behind. Safe for
// concurrent producers with a single consuming loop.
type Queue struct {
	mu     sync.Mutex
	buf    []Message
	closed bool

	notify chan struct{}
	out    chan Message
	done   chan struct{}
}

// NewQueue creates an open queue and starts its pump goroutine.
func NewQueue() *Queue {
	q := &Queue{
		notify: make(chan struct{}, 1),
		out:    make(chan Message),
		done:   make(chan struct{}),
	}
	go q.pump()
	return q
}

// Enqueue appends a message and returns immediately. Enqueue on a
// closed queue is a silent drop.
func (q *Queue) Enqueue(msg Message) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		slog.Debug("mail queue closed, dropping message", "to", msg.To)
		return
	}
	q.buf = append(q.buf, msg)
	depth := len(q.buf)
	q.mu.Unlock()

	recordQueueDepth(depth)

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Messages returns the consuming side of the queue. The channel closes
// promptly after Close; messages still buffered at that point are lost.
func (q *Queue) Messages() <-chan Message {
	return q.out
}

// Len reports the number of buffered messages not yet handed to the
// consumer.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buf)
}

// Close stops intake and wakes the pump. Idempotent.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	dropped := len(q.buf)
	q.buf = nil
	q.mu.Unlock()

	close(q.done)

	if dropped > 0 {
		slog.Info("mail queue closed with undelivered messages", "dropped", dropped)
	}
}

// pump moves messages from the buffer to the out channel one at a time,
// preserving insertion order. The notify channel has capacity 1, so a
// signal sent while the pump is mid-handoff is retained and no wakeup
// is lost.
func (q *Queue) pump() {
	defer close(q.out)

	for {
		msg, ok := q.next()
		if !ok {
			select {
			case <-q.notify:
				continue
			case <-q.done:
				return
			}
		}

		select {
		case q.out <- msg:
		case <-q.done:
			return
		}
	}
}

func (q *Queue) next() (Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.buf) == 0 {
		return Message{}, false
	}
	msg := q.buf[0]
	q.buf = q.buf[1:]
	recordQueueDepth(len(q.buf))
	return msg, true
}
