package gojob

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-ledger/core"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	"github.com/goliatone/go-job/queue/worker"
	glog "github.com/goliatone/go-logger/glog"
)

const (
	JobIDOutboxDispatch = "ledger.outbox.dispatch"

	ParamBatchSize = "batch_size"
)

// RetryPolicy defines queue retry bounds to avoid unbounded retry loops.
type RetryPolicy struct {
	MaxAttempts     int
	MaxDelay        time.Duration
	DeadLetterOnMax bool
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     5,
		MaxDelay:        time.Minute,
		DeadLetterOnMax: true,
	}
}

// NormalizeAttempt enforces bounded retry behavior for a nack operation.
func (p RetryPolicy) NormalizeAttempt(opts queue.NackOptions, attempt int) queue.NackOptions {
	out := opts
	out.Reason = strings.TrimSpace(out.Reason)
	if out.Delay < 0 {
		out.Delay = 0
	}
	if p.MaxDelay > 0 && out.Delay > p.MaxDelay {
		out.Delay = p.MaxDelay
	}
	if out.DeadLetter {
		out.Requeue = false
	}
	if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
		out.Requeue = false
		if p.DeadLetterOnMax || out.DeadLetter {
			out.DeadLetter = true
		}
	}
	if !out.Requeue && !out.DeadLetter {
		out.Requeue = true
	}
	return out
}

// NewOutboxDispatchMessage builds the execution message for one outbox sweep.
// A zero batch size defers to the dispatcher's configured batch size.
func NewOutboxDispatchMessage(batchSize int, idempotencyKey string) *job.ExecutionMessage {
	params := map[string]any{}
	if batchSize > 0 {
		params[ParamBatchSize] = batchSize
	}
	msg := &job.ExecutionMessage{
		JobID:          JobIDOutboxDispatch,
		ScriptPath:     JobIDOutboxDispatch,
		Parameters:     params,
		IdempotencyKey: strings.TrimSpace(idempotencyKey),
	}
	if msg.IdempotencyKey != "" {
		msg.DedupPolicy = job.DeduplicationPolicy("drop")
	}
	return msg
}

// EnqueueOutboxDispatch schedules an outbox sweep on a go-job queue.
func EnqueueOutboxDispatch(ctx context.Context, enqueuer queue.Enqueuer, batchSize int, idempotencyKey string) error {
	if enqueuer == nil {
		return fmt.Errorf("gojob: enqueuer is not configured")
	}
	return enqueuer.Enqueue(ctx, NewOutboxDispatchMessage(batchSize, idempotencyKey))
}

// BatchSize reads the batch size parameter. Queue backends that round-trip
// parameters through JSON hand numbers back as float64 or strings.
func BatchSize(msg *job.ExecutionMessage) (int, error) {
	if msg == nil {
		return 0, fmt.Errorf("gojob: execution message is required")
	}
	raw, ok := msg.Parameters[ParamBatchSize]
	if !ok || raw == nil {
		return 0, nil
	}
	var size int
	switch value := raw.(type) {
	case int:
		size = value
	case int64:
		size = int(value)
	case float64:
		size = int(value)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return 0, fmt.Errorf("gojob: invalid %s %q", ParamBatchSize, value)
		}
		size = parsed
	default:
		return 0, fmt.Errorf("gojob: invalid %s type %T", ParamBatchSize, raw)
	}
	if size < 0 {
		return 0, fmt.Errorf("gojob: %s must not be negative", ParamBatchSize)
	}
	return size, nil
}

// OutboxJob runs outbox sweeps delivered through a go-job queue. Per-event
// failures are rescheduled by the dispatcher itself, so the job is only
// nacked when the sweep could not claim anything at all.
type OutboxJob struct {
	dispatcher *core.OutboxDispatcher
	policy     RetryPolicy
	hook       worker.Hook
	logger     glog.Logger
	now        func() time.Time
}

type OutboxJobOption func(*OutboxJob)

func WithRetryPolicy(policy RetryPolicy) OutboxJobOption {
	return func(j *OutboxJob) {
		j.policy = policy
	}
}

func WithWorkerHook(hook worker.Hook) OutboxJobOption {
	return func(j *OutboxJob) {
		if hook != nil {
			j.hook = hook
		}
	}
}

func WithLogger(logger glog.Logger) OutboxJobOption {
	return func(j *OutboxJob) {
		if logger != nil {
			j.logger = logger
		}
	}
}

func NewOutboxJob(dispatcher *core.OutboxDispatcher, opts ...OutboxJobOption) (*OutboxJob, error) {
	if dispatcher == nil {
		return nil, fmt.Errorf("gojob: outbox dispatcher is required")
	}
	j := &OutboxJob{
		dispatcher: dispatcher,
		policy:     DefaultRetryPolicy(),
		logger:     glog.Nop(),
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(j)
		}
	}
	return j, nil
}

// Run executes a single sweep for the given message.
func (j *OutboxJob) Run(ctx context.Context, msg *job.ExecutionMessage) (core.DispatchStats, error) {
	if j == nil || j.dispatcher == nil {
		return core.DispatchStats{}, fmt.Errorf("gojob: outbox job is not configured")
	}
	if msg == nil {
		return core.DispatchStats{}, fmt.Errorf("gojob: execution message is required")
	}
	if id := strings.TrimSpace(msg.JobID); id != JobIDOutboxDispatch {
		return core.DispatchStats{}, fmt.Errorf("gojob: unexpected job id %q", id)
	}
	batchSize, err := BatchSize(msg)
	if err != nil {
		return core.DispatchStats{}, err
	}
	return j.dispatcher.DispatchPending(ctx, batchSize)
}

// Process runs the sweep carried by delivery and settles it. attempt is the
// 1-based delivery attempt reported by the worker.
func (j *OutboxJob) Process(ctx context.Context, delivery queue.Delivery, attempt int) (core.DispatchStats, error) {
	if delivery == nil {
		return core.DispatchStats{}, fmt.Errorf("gojob: delivery is required")
	}
	msg := delivery.Message()
	event := worker.Event{
		Message:   msg,
		Delivery:  delivery,
		Attempt:   attempt,
		StartedAt: j.now(),
	}
	j.onStart(ctx, event)

	stats, err := j.Run(ctx, msg)
	event.Duration = j.now().Sub(event.StartedAt)
	if err != nil && stats.Claimed == 0 {
		event.Err = err
		nack := j.policy.NormalizeAttempt(queue.NackOptions{
			Delay:   retryDelay(attempt),
			Requeue: true,
			Reason:  err.Error(),
		}, attempt)
		event.Delay = nack.Delay
		if nack.Requeue {
			j.onRetry(ctx, event)
		} else {
			j.onFailure(ctx, event)
		}
		if nackErr := delivery.Nack(ctx, nack); nackErr != nil {
			return stats, fmt.Errorf("gojob: nack outbox dispatch: %w", nackErr)
		}
		return stats, err
	}

	if err != nil {
		j.logger.Warn("outbox sweep delivered partially",
			"job_id", JobIDOutboxDispatch,
			"claimed", stats.Claimed,
			"retried", stats.Retried,
			"failed", stats.Failed,
			"error", err,
		)
	}
	if ackErr := delivery.Ack(ctx); ackErr != nil {
		return stats, fmt.Errorf("gojob: ack outbox dispatch: %w", ackErr)
	}
	j.onSuccess(ctx, event)
	return stats, nil
}

// ProcessNext dequeues one delivery and processes it.
func (j *OutboxJob) ProcessNext(ctx context.Context, dequeuer queue.Dequeuer, attempt int) (core.DispatchStats, error) {
	if dequeuer == nil {
		return core.DispatchStats{}, fmt.Errorf("gojob: dequeuer is not configured")
	}
	delivery, err := dequeuer.Dequeue(ctx)
	if err != nil {
		return core.DispatchStats{}, err
	}
	return j.Process(ctx, delivery, attempt)
}

func (j *OutboxJob) onStart(ctx context.Context, event worker.Event) {
	if j.hook != nil {
		j.hook.OnStart(ctx, event)
	}
}

func (j *OutboxJob) onSuccess(ctx context.Context, event worker.Event) {
	if j.hook != nil {
		j.hook.OnSuccess(ctx, event)
	}
}

func (j *OutboxJob) onFailure(ctx context.Context, event worker.Event) {
	j.logger.Error("outbox dispatch job failed",
		"job_id", JobIDOutboxDispatch,
		"attempt", event.Attempt,
		"error", event.Err,
	)
	if j.hook != nil {
		j.hook.OnFailure(ctx, event)
	}
}

func (j *OutboxJob) onRetry(ctx context.Context, event worker.Event) {
	if j.hook != nil {
		j.hook.OnRetry(ctx, event)
	}
}

func retryDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 10 {
		attempt = 10
	}
	return time.Duration(1<<(attempt-1)) * time.Second
}

// MetricsHook reports worker lifecycle events as ledger metrics.
type MetricsHook struct {
	recorder core.MetricsRecorder
}

func NewMetricsHook(recorder core.MetricsRecorder) *MetricsHook {
	if recorder == nil {
		recorder = core.NopMetricsRecorder{}
	}
	return &MetricsHook{recorder: recorder}
}

func (h *MetricsHook) OnStart(ctx context.Context, event worker.Event) {
	h.count(ctx, "started", event)
}

func (h *MetricsHook) OnSuccess(ctx context.Context, event worker.Event) {
	h.count(ctx, "succeeded", event)
	h.recorder.ObserveHistogram(ctx, "ledger.job.duration_ms", float64(event.Duration.Milliseconds()), tagsFor(event))
}

func (h *MetricsHook) OnFailure(ctx context.Context, event worker.Event) {
	h.count(ctx, "failed", event)
}

func (h *MetricsHook) OnRetry(ctx context.Context, event worker.Event) {
	h.count(ctx, "retried", event)
}

func (h *MetricsHook) count(ctx context.Context, outcome string, event worker.Event) {
	if h == nil || h.recorder == nil {
		return
	}
	tags := tagsFor(event)
	tags["outcome"] = outcome
	h.recorder.IncCounter(ctx, "ledger.job.total", 1, tags)
}

func tagsFor(event worker.Event) map[string]string {
	message := event.Message
	if message == nil && event.Delivery != nil {
		message = event.Delivery.Message()
	}
	jobID := "unknown"
	if message != nil && strings.TrimSpace(message.JobID) != "" {
		jobID = strings.TrimSpace(message.JobID)
	}
	return map[string]string{"job_id": jobID}
}

var _ worker.Hook = (*MetricsHook)(nil)
