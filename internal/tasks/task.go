// Package tasks dispatches analysis work off the request path.
//
// Two dispatchers are provided: an in-process goroutine Pool and a Redis list queue
// consumed by separate worker processes. Both follow the same supervision policy: a
// failed or panicking task is logged and kept as a dead letter. Nothing is retried
// automatically; dead letters in Redis can be replayed.
package tasks

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind names the handler a task is routed to.
type Kind string

const (
	KindMarketAnalysis Kind = "market_analysis"
	KindCodeAnalysis   Kind = "code_analysis"
)

// Task is one unit of background work for a project.
type Task struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"kind"`
	ProjectID  string    `json:"project_id"`
	Payload    string    `json:"payload"`
	Attempt    int       `json:"attempt"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// NewTask creates a first-attempt task.
func NewTask(kind Kind, projectID, payload string) Task {
	return Task{
		ID:         uuid.New().String(),
		Kind:       kind,
		ProjectID:  projectID,
		Payload:    payload,
		Attempt:    1,
		EnqueuedAt: time.Now().UTC(),
	}
}

// DeadLetter is a task that failed, with the reason.
type DeadLetter struct {
	Task     Task      `json:"task"`
	Error    string    `json:"error"`
	FailedAt time.Time `json:"failed_at"`
}

// Dispatcher hands a task to background execution without waiting for it to run.
type Dispatcher interface {
	Dispatch(ctx context.Context, t Task) error
}

// Handler executes a task.
type Handler func(ctx context.Context, t Task) error

// UnknownKindError is returned for a task with no registered handler.
type UnknownKindError struct {
	Kind Kind
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("no handler registered for task kind %q", e.Kind)
}

// PanicError reports a handler that panicked.
type PanicError struct {
	Value any
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task handler panicked: %v", e.Value)
}

// Registry routes tasks to handlers by kind.
type Registry struct {
	mu       sync.RWMutex
	handlers map[Kind]Handler
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[Kind]Handler)}
}

// Register sets the handler for kind, replacing any previous one.
func (r *Registry) Register(kind Kind, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[kind] = h
}

// Kinds returns the number of registered kinds.
func (r *Registry) Kinds() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}

// Handle runs the handler for t. A panic in the handler is returned as a *PanicError.
func (r *Registry) Handle(ctx context.Context, t Task) (err error) {
	r.mu.RLock()
	h, ok := r.handlers[t.Kind]
	r.mu.RUnlock()
	if !ok {
		return &UnknownKindError{Kind: t.Kind}
	}

	defer func() {
		if v := recover(); v != nil {
			err = &PanicError{Value: v, Stack: string(debug.Stack())}
		}
	}()
	return h(ctx, t)
}

// execute runs t under a context detached from the dispatcher's caller and bounded by timeout.
func execute(registry *Registry, t Task, timeout time.Duration) error {
	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	err := registry.Handle(ctx, t)
	if err != nil {
		log.Printf("[DISPATCH] task=%s kind=%s project_id=%s attempt=%d failed after %v: %v",
			t.ID, t.Kind, t.ProjectID, t.Attempt, time.Since(start).Round(time.Millisecond), err)
		return err
	}
	log.Printf("[DISPATCH] task=%s kind=%s project_id=%s done in %v",
		t.ID, t.Kind, t.ProjectID, time.Since(start).Round(time.Millisecond))
	return nil
}
