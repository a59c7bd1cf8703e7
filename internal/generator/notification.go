package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/timetable-engine/pkg/jobs"
)

// Notification is the value generate() emits once per semester tag after a
// run completes (§4.9): what ran, how it scored, and when.
type Notification struct {
	Algorithm string    `json:"algorithm"`
	Semester  string    `json:"semester"`
	HardCost  float64   `json:"hard_cost"`
	SoftCost  float64   `json:"soft_cost"`
	CreatedAt time.Time `json:"created_at"`
}

// NotificationSink is the external collaborator generate() hands its
// results to. An in-memory sink is enough for tests; RedisSink is the
// reference deployment's implementation, grounded in pkg/cache's client.
type NotificationSink interface {
	Notify(ctx context.Context, n Notification) error
}

// MemorySink collects notifications in process memory, for tests and
// single-shot CLI runs that don't need a durable feed.
type MemorySink struct {
	Notifications []Notification
}

// NewMemorySink constructs an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Notify(_ context.Context, n Notification) error {
	s.Notifications = append(s.Notifications, n)
	return nil
}

// RedisSink pushes notifications onto a capped Redis list, mirroring how
// pkg/cache already backs the latest_score memoization.
type RedisSink struct {
	client *redis.Client
	key    string
	maxLen int64
}

// NewRedisSink constructs a RedisSink writing to the given list key.
func NewRedisSink(client *redis.Client, key string) *RedisSink {
	if key == "" {
		key = "timetable:notifications"
	}
	return &RedisSink{client: client, key: key, maxLen: 500}
}

func (s *RedisSink) Notify(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, s.key, payload)
	pipe.LTrim(ctx, s.key, 0, s.maxLen-1)
	_, err = pipe.Exec(ctx)
	return err
}

// jobNotifyType tags the jobs.Job payload a QueuedSink enqueues.
const jobNotifyType = "notification.deliver"

// QueuedSink decouples notification delivery from generate()'s persistence
// loop, using the same worker-pool/retry shape as pkg/jobs elsewhere in
// this codebase. A transient Redis or webhook hiccup delivering one
// semester's notification no longer stalls runOne for the rest.
type QueuedSink struct {
	queue *jobs.Queue
	inner NotificationSink
}

// NewQueuedSink wraps inner in a retrying background queue and starts it
// immediately. Callers should defer Close to drain outstanding jobs.
func NewQueuedSink(inner NotificationSink, cfg jobs.QueueConfig) *QueuedSink {
	q := &QueuedSink{inner: inner}
	q.queue = jobs.NewQueue("notification-delivery", q.deliver, cfg)
	q.queue.Start(context.Background())
	return q
}

func (q *QueuedSink) deliver(ctx context.Context, job jobs.Job) error {
	n, ok := job.Payload.(Notification)
	if !ok {
		return fmt.Errorf("notification queue: unexpected payload type %T", job.Payload)
	}
	return q.inner.Notify(ctx, n)
}

// Notify enqueues n for background delivery. The returned error reflects
// whether the job was accepted, not whether delivery eventually succeeds.
func (q *QueuedSink) Notify(_ context.Context, n Notification) error {
	return q.queue.Enqueue(jobs.Job{
		ID:      fmt.Sprintf("%s:%s", n.Semester, n.Algorithm),
		Type:    jobNotifyType,
		Payload: n,
	})
}

// Close stops the background queue, waiting for in-flight deliveries.
func (q *QueuedSink) Close() {
	q.queue.Stop()
}
