package mailer

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Sender performs one network delivery of a message. Implementations
// may fail transiently; the worker owns the retry policy.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SenderFactory returns a fresh Sender for one delivery attempt. The
// worker acquires a new transport per attempt rather than holding one
// across its lifetime, so per-connection lifecycle rules the transport
// imposes are respected.
type SenderFactory func() Sender

// WorkerConfig contains delivery worker configuration.
type WorkerConfig struct {
	// MaxAttempts is the delivery attempt budget per message.
	MaxAttempts int
	// BackoffUnit scales the linear backoff: the wait after attempt n
	// is 2*n*BackoffUnit. Tests shrink it; production leaves the default.
	BackoffUnit time.Duration
}

// DefaultWorkerConfig returns the fixed production retry policy:
// three attempts with 2s/4s waits between them.
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		MaxAttempts: 3,
		BackoffUnit: time.Second,
	}
}

// Worker drains the queue and delivers messages one at a time. Retries
// on one message delay everything behind it; that head-of-line blocking
// is accepted for this best-effort pipeline.
type Worker struct {
	config  WorkerConfig
	queue   *Queue
	senders SenderFactory

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewWorker creates a delivery worker. Zero config fields fall back to
// the defaults.
func NewWorker(config WorkerConfig, queue *Queue, senders SenderFactory) *Worker {
	defaults := DefaultWorkerConfig()
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = defaults.MaxAttempts
	}
	if config.BackoffUnit <= 0 {
		config.BackoffUnit = defaults.BackoffUnit
	}
	return &Worker{
		config:  config,
		queue:   queue,
		senders: senders,
		stopCh:  make(chan struct{}),
	}
}

// Start launches the consumer goroutine.
func (w *Worker) Start(ctx context.Context) {
	slog.Info("starting mail worker",
		"max_attempts", w.config.MaxAttempts,
		"backoff_unit", w.config.BackoffUnit,
	)

	w.wg.Add(1)
	go w.run(ctx)
}

// Stop signals the worker and waits for the in-flight message, if any,
// to be abandoned or finished.
func (w *Worker) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	slog.Info("mail worker stopped")
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case msg, ok := <-w.queue.Messages():
			if !ok {
				return
			}
			w.deliver(ctx, msg)
		}
	}
}

// deliver attempts one message up to MaxAttempts times. Failure after
// the last attempt is fatal to this message only: it is logged and
// dropped, never requeued.
func (w *Worker) deliver(ctx context.Context, msg Message) {
	for attempt := 1; attempt <= w.config.MaxAttempts; attempt++ {
		start := time.Now()
		sender := w.senders()

		err := sender.Send(ctx, msg)
		if err == nil {
			recordDelivery("sent")
			recordSendDuration(time.Since(start))
			slog.Info("email sent", "to", msg.To, "attempt", attempt)
			return
		}

		slog.Warn("email send failed",
			"to", msg.To,
			"attempt", attempt,
			"max_attempts", w.config.MaxAttempts,
			"error", err,
		)

		if attempt == w.config.MaxAttempts {
			recordDelivery("dropped")
			slog.Error("email permanently failed", "to", msg.To, "attempts", attempt)
			return
		}

		recordDelivery("retried")
		if !w.wait(ctx, time.Duration(2*attempt)*w.config.BackoffUnit) {
			// Shutting down mid-backoff; the message gets no further attempts.
			return
		}
	}
}

// wait sleeps for d or until shutdown. Returns false when cancelled.
func (w *Worker) wait(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	case <-w.stopCh:
		return false
	}
}
