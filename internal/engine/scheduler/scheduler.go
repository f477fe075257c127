// Package scheduler tracks discovery tasks: deferred pipe work that must settle before
// the declared graph can be resolved.
package scheduler

import (
	"context"

	"go.trai.ch/neja/internal/core/domain"
)

// TaskStatus represents the status of a discovery task.
type TaskStatus string

const (
	// StatusPending indicates the task is waiting behind earlier work on its item.
	StatusPending TaskStatus = "Pending"
	// StatusRunning indicates the task is currently executing.
	StatusRunning TaskStatus = "Running"
	// StatusCompleted indicates the task has finished successfully.
	StatusCompleted TaskStatus = "Completed"
	// StatusFailed indicates the task returned an error.
	StatusFailed TaskStatus = "Failed"
)

// StartFunc begins a pipe invocation. It may finish synchronously or return a Deferred.
type StartFunc func(ctx context.Context) (domain.Deferred, error)

type task struct {
	chain  *chain
	start  StartFunc
	run    domain.Deferred
	status TaskStatus
	err    error
}

func (t *task) settled() bool {
	return t.status == StatusCompleted || t.status == StatusFailed
}

// chain serializes the work attached to one item.
type chain struct {
	queue   []*task
	running bool
}

// Scheduler queues pipe work per item and drains the global discovery list.
// Work runs on the caller's goroutine; the Scheduler is not safe for concurrent use.
type Scheduler struct {
	chains  map[*domain.FileItem]*chain
	pending []*task
}

// NewScheduler creates an empty Scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{
		chains: make(map[*domain.FileItem]*chain),
	}
}

func (s *Scheduler) chainFor(item *domain.FileItem) *chain {
	c, ok := s.chains[item]
	if !ok {
		c = &chain{}
		s.chains[item] = c
	}
	return c
}

// Submit attaches work to item. If nothing is outstanding for item, start runs immediately
// and only a returned Deferred is queued. Otherwise start is queued behind the outstanding work.
// Every queued task is also added to the discovery list.
func (s *Scheduler) Submit(ctx context.Context, item *domain.FileItem, start StartFunc) error {
	c := s.chainFor(item)
	if len(c.queue) == 0 {
		deferred, err := start(ctx)
		if err != nil {
			return err
		}
		if deferred == nil {
			return nil
		}
		s.enqueue(c, &task{chain: c, run: deferred, status: StatusPending})
		return nil
	}
	s.enqueue(c, &task{chain: c, start: start, status: StatusPending})
	return nil
}

func (s *Scheduler) enqueue(c *chain, t *task) {
	c.queue = append(c.queue, t)
	s.pending = append(s.pending, t)
}

// Outstanding returns the number of discovery tasks that have not settled.
func (s *Scheduler) Outstanding() int {
	n := 0
	for _, c := range s.chains {
		n += len(c.queue)
	}
	return n
}

// Busy reports whether item has outstanding work.
func (s *Scheduler) Busy(item *domain.FileItem) bool {
	c, ok := s.chains[item]
	return ok && len(c.queue) > 0
}

// Drain settles discovery tasks until a pass starts with an empty list.
// Tasks enqueued while a pass runs are picked up by the next pass.
// Drain may be called from inside a running task; work on chains that an
// outer frame is executing is left for that frame.
func (s *Scheduler) Drain(ctx context.Context) error {
	var skipped []*task
	defer func() {
		if len(skipped) > 0 {
			s.pending = append(skipped, s.pending...)
		}
	}()

	for len(s.pending) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch := s.pending
		s.pending = nil

		progressed := false
		for _, t := range batch {
			if t.settled() {
				continue
			}
			if t.chain.running {
				skipped = append(skipped, t)
				continue
			}
			progressed = true
			if err := s.settle(ctx, t); err != nil {
				return err
			}
		}
		if !progressed {
			break
		}
	}
	return nil
}

// Settle runs the outstanding work of a single item.
func (s *Scheduler) Settle(ctx context.Context, item *domain.FileItem) error {
	c, ok := s.chains[item]
	if !ok || c.running || len(c.queue) == 0 {
		return nil
	}
	return s.settle(ctx, c.queue[len(c.queue)-1])
}

// settle runs t's chain up to and including t.
func (s *Scheduler) settle(ctx context.Context, t *task) error {
	c := t.chain
	for !t.settled() && len(c.queue) > 0 {
		if err := s.step(ctx, c, c.queue[0]); err != nil {
			return err
		}
	}
	return t.err
}

func (s *Scheduler) step(ctx context.Context, c *chain, t *task) error {
	c.running = true
	t.status = StatusRunning

	err := ctx.Err()
	if err == nil {
		err = t.execute(ctx)
	}

	c.running = false
	c.queue = c.queue[1:]
	if err != nil {
		t.status = StatusFailed
		t.err = err
		return err
	}
	t.status = StatusCompleted
	return nil
}

func (t *task) execute(ctx context.Context) error {
	if t.start == nil {
		return t.run(ctx)
	}
	deferred, err := t.start(ctx)
	if err != nil || deferred == nil {
		return err
	}
	return deferred(ctx)
}
