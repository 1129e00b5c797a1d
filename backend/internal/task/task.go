// Package task runs named operations at or after an absolute time.
// There is no cancel: handlers re-check their preconditions when they fire.
package task

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shinystaratnight/endless-backend-sub001/backend/pkg/redis"
)

// Task one scheduled invocation
type Task struct {
	ID   string            `json:"id"`
	Name string            `json:"name"`
	Args map[string]string `json:"args,omitempty"`
	At   time.Time         `json:"at"`
}

// Scheduler hands an operation to the queue
type Scheduler interface {
	Schedule(ctx context.Context, name string, args map[string]string, at time.Time) error
}

// Queue stores tasks until they are due
type Queue interface {
	Push(ctx context.Context, t Task) error
	PopDue(ctx context.Context, now time.Time, limit int64) ([]Task, error)
}

// ── scheduler ──

type queueScheduler struct {
	queue Queue
}

// NewScheduler schedules onto q
func NewScheduler(q Queue) Scheduler {
	return &queueScheduler{queue: q}
}

func (s *queueScheduler) Schedule(ctx context.Context, name string, args map[string]string, at time.Time) error {
	return s.queue.Push(ctx, Task{ID: uuid.NewString(), Name: name, Args: args, At: at.UTC()})
}

// ── Redis queue ──

// RedisQueue keeps tasks as JSON members of one sorted set
type RedisQueue struct {
	client *redis.Client
	key    string
}

func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	return &RedisQueue{client: client, key: key}
}

func (q *RedisQueue) Push(ctx context.Context, t Task) error {
	body, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return q.client.EnqueueAt(ctx, q.key, string(body), t.At)
}

// PopDue drops members that fail to decode; they could never run
func (q *RedisQueue) PopDue(ctx context.Context, now time.Time, limit int64) ([]Task, error) {
	items, err := q.client.PopDue(ctx, q.key, now, limit)
	if err != nil {
		return nil, err
	}
	tasks := make([]Task, 0, len(items))
	for _, item := range items {
		var t Task
		if err := json.Unmarshal([]byte(item), &t); err != nil {
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// ── in-process queue ──

// MemoryQueue is an in-process Queue for tests and single-node runs without Redis
type MemoryQueue struct {
	mu    sync.Mutex
	tasks []Task
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{}
}

func (q *MemoryQueue) Push(_ context.Context, t Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, t)
	sort.SliceStable(q.tasks, func(i, j int) bool { return q.tasks[i].At.Before(q.tasks[j].At) })
	return nil
}

func (q *MemoryQueue) PopDue(_ context.Context, now time.Time, limit int64) ([]Task, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := 0
	for n < len(q.tasks) && !q.tasks[n].At.After(now) && int64(n) < limit {
		n++
	}
	due := append([]Task(nil), q.tasks[:n]...)
	q.tasks = q.tasks[n:]
	return due, nil
}

// Len counts queued tasks
func (q *MemoryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}
