package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/makeasinger/studio/internal/model"
)

// ErrSchedulerStopped is returned when scheduling after shutdown
var ErrSchedulerStopped = errors.New("scheduler stopped")

// Tick is one pending poll of one job. It is a plain value so it can be
// handed to an out-of-process queue and come back unchanged.
type Tick struct {
	Kind     model.JobKind `json:"kind"`
	JobID    int64         `json:"job_id"`
	TaskID   string        `json:"task_id"`
	Attempt  int           `json:"attempt"`
	Recovery bool          `json:"recovery"`
	Token    string        `json:"token"`
}

// TickHandler runs a single tick to completion
type TickHandler func(ctx context.Context, tick Tick)

// Scheduler invokes the registered handler with tick after delay
type Scheduler interface {
	Schedule(ctx context.Context, delay time.Duration, tick Tick) error
	SetHandler(h TickHandler)
}

// LocalScheduler runs ticks on in-process timers. Pending timers are lost on
// restart; recovery re-attaches pollers at startup.
type LocalScheduler struct {
	mu      sync.Mutex
	handler TickHandler
	timers  map[*time.Timer]struct{}
	stopped bool
	wg      sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc
}

// NewLocalScheduler creates a timer-based scheduler
func NewLocalScheduler() *LocalScheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &LocalScheduler{
		timers: make(map[*time.Timer]struct{}),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (s *LocalScheduler) SetHandler(h TickHandler) {
	s.mu.Lock()
	s.handler = h
	s.mu.Unlock()
}

// Schedule arms a timer for tick. ctx only bounds the call itself; the tick
// runs under the scheduler's own context, which Stop cancels.
func (s *LocalScheduler) Schedule(_ context.Context, delay time.Duration, tick Tick) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return ErrSchedulerStopped
	}

	s.wg.Add(1)
	var t *time.Timer
	t = time.AfterFunc(delay, func() {
		defer s.wg.Done()

		s.mu.Lock()
		delete(s.timers, t)
		h, stopped := s.handler, s.stopped
		s.mu.Unlock()

		if stopped || h == nil {
			return
		}
		h(s.ctx, tick)
	})
	s.timers[t] = struct{}{}
	return nil
}

// Pending returns the number of armed timers
func (s *LocalScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop disarms all timers and waits for running ticks to return
func (s *LocalScheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	for t := range s.timers {
		if t.Stop() {
			s.wg.Done()
		}
		delete(s.timers, t)
	}
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}
