// Package dispatch provides deferred-execution primitives implementing ports.Scheduler.
//
// Tasks posted to a scheduler never run on the caller's stack; they run later,
// one at a time, in the order they were posted.
package dispatch

import (
	"context"
	"sync"

	"go.uber.org/atomic"
)

// Serial runs posted tasks on a single background goroutine in FIFO order.
type Serial struct {
	mu     sync.Mutex
	cond   *sync.Cond
	tasks  []func()
	closed bool
	done   chan struct{}
	ran    atomic.Int64
}

// NewSerial starts a Serial scheduler. Call Close to stop it.
func NewSerial() *Serial {
	s := &Serial{done: make(chan struct{})}
	s.cond = sync.NewCond(&s.mu)
	go s.loop()
	return s
}

// Post enqueues a task. Tasks posted after Close are dropped.
func (s *Serial) Post(task func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.tasks = append(s.tasks, task)
	s.cond.Signal()
}

func (s *Serial) loop() {
	defer close(s.done)
	for {
		s.mu.Lock()
		for len(s.tasks) == 0 && !s.closed {
			s.cond.Wait()
		}
		if len(s.tasks) == 0 && s.closed {
			s.mu.Unlock()
			return
		}
		task := s.tasks[0]
		s.tasks[0] = nil
		s.tasks = s.tasks[1:]
		s.mu.Unlock()

		task()
		s.ran.Inc()
	}
}

// Sync blocks until every task posted before the call has run.
func (s *Serial) Sync(ctx context.Context) error {
	marker := make(chan struct{})
	s.Post(func() { close(marker) })
	select {
	case <-marker:
		return nil
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Executed returns the number of tasks run so far.
func (s *Serial) Executed() int64 {
	return s.ran.Load()
}

// Close drains already-posted tasks and stops the worker.
func (s *Serial) Close() {
	s.mu.Lock()
	s.closed = true
	s.cond.Broadcast()
	s.mu.Unlock()
	<-s.done
}

// Manual queues tasks until RunPending is called. Intended for deterministic tests.
type Manual struct {
	mu    sync.Mutex
	tasks []func()
}

// NewManual creates an empty Manual scheduler.
func NewManual() *Manual {
	return &Manual{}
}

func (m *Manual) Post(task func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = append(m.tasks, task)
}

// Pending returns the number of queued tasks.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// RunPending runs queued tasks, including ones posted while running, until the queue is empty.
// It returns the number of tasks run.
func (m *Manual) RunPending() int {
	n := 0
	for {
		m.mu.Lock()
		if len(m.tasks) == 0 {
			m.mu.Unlock()
			return n
		}
		task := m.tasks[0]
		m.tasks = m.tasks[1:]
		m.mu.Unlock()
		task()
		n++
	}
}
