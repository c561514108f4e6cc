package gojob

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-leadtable/core"
)

type Poller interface {
	Poll(ctx context.Context, req core.PollRequest) ([]core.EnrichedEvent, error)
}

type PollWorker struct {
	dequeuer   core.JobDequeuer
	poller     Poller
	sink       core.EventSink
	hook       core.JobWorkerHook
	retryDelay time.Duration

	mu       sync.Mutex
	attempts map[string]int
}

type PollWorkerOption func(*PollWorker)

func WithPollHook(hook core.JobWorkerHook) PollWorkerOption {
	return func(w *PollWorker) {
		w.hook = hook
	}
}

// WithPollRetryDelay requeues failed polls after delay. Without it a failed
// poll is nacked as failed and the next scheduled poll picks up the work.
func WithPollRetryDelay(delay time.Duration) PollWorkerOption {
	return func(w *PollWorker) {
		if delay > 0 {
			w.retryDelay = delay
		}
	}
}

func NewPollWorker(dequeuer core.JobDequeuer, poller Poller, sink core.EventSink, opts ...PollWorkerOption) (*PollWorker, error) {
	if dequeuer == nil {
		return nil, fmt.Errorf("gojob: dequeuer is required")
	}
	if poller == nil {
		return nil, fmt.Errorf("gojob: poller is required")
	}
	worker := &PollWorker{
		dequeuer:   dequeuer,
		poller:     poller,
		sink:       sink,
		attempts:   map[string]int{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(worker)
		}
	}
	return worker, nil
}

// RunOnce processes a single delivery. Poll failures nack the delivery and
// are returned; malformed jobs are dead-lettered.
func (w *PollWorker) RunOnce(ctx context.Context) error {
	delivery, err := w.dequeuer.Dequeue(ctx)
	if err != nil {
		return err
	}
	if delivery == nil {
		return nil
	}
	msg := delivery.Message()
	startedAt := time.Now().UTC()
	attempt := w.nextAttempt(msg)
	event := core.JobWorkerEvent{Message: msg, Attempt: attempt, StartedAt: startedAt}
	w.emitHook(ctx, "start", event)

	req, err := core.PollRequestFromJob(msg)
	if err != nil {
		w.forget(msg)
		event.Err, event.Duration = err, time.Since(startedAt)
		w.emitHook(ctx, "failure", event)
		if nackErr := delivery.Nack(ctx, core.JobNackOptions{DeadLetter: true, Reason: core.ErrorMessage(err)}); nackErr != nil {
			return nackErr
		}
		return err
	}

	if err := w.poll(ctx, req); err != nil {
		event.Err, event.Duration, event.Delay = err, time.Since(startedAt), w.retryDelay
		stage := "failure"
		if w.retryDelay > 0 {
			stage = "retry"
		}
		w.emitHook(ctx, stage, event)
		opts := core.JobNackOptions{Delay: w.retryDelay, Requeue: w.retryDelay > 0, Reason: core.ErrorMessage(err)}
		var nackErr error
		if adapter, ok := delivery.(*DeliveryAdapter); ok {
			nackErr = adapter.NackForAttempt(ctx, opts, attempt)
			if adapter.policy.exhausted(attempt) {
				w.forget(msg)
			}
		} else {
			nackErr = delivery.Nack(ctx, opts)
		}
		if nackErr != nil {
			return nackErr
		}
		return err
	}

	w.forget(msg)
	event.Duration = time.Since(startedAt)
	w.emitHook(ctx, "success", event)
	return delivery.Ack(ctx)
}

func (w *PollWorker) poll(ctx context.Context, req core.PollRequest) error {
	events, err := w.poller.Poll(ctx, req)
	if err != nil {
		return err
	}
	if w.sink == nil {
		return nil
	}
	for _, event := range events {
		if err := w.sink.Emit(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

func (w *PollWorker) emitHook(ctx context.Context, stage string, event core.JobWorkerEvent) {
	if w.hook == nil {
		return
	}
	switch stage {
	case "start":
		w.hook.OnStart(ctx, event)
	case "success":
		w.hook.OnSuccess(ctx, event)
	case "retry":
		w.hook.OnRetry(ctx, event)
	default:
		w.hook.OnFailure(ctx, event)
	}
}

func (w *PollWorker) nextAttempt(msg *core.JobExecutionMessage) int {
	key := attemptKey(msg)
	w.mu.Lock()
	defer w.mu.Unlock()
	w.attempts[key]++
	return w.attempts[key]
}

func (w *PollWorker) forget(msg *core.JobExecutionMessage) {
	key := attemptKey(msg)
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.attempts, key)
}

func attemptKey(msg *core.JobExecutionMessage) string {
	if msg == nil {
		return ""
	}
	if key := strings.TrimSpace(msg.IdempotencyKey); key != "" {
		return key
	}
	return strings.TrimSpace(msg.JobID)
}
