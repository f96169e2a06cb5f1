package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TaskTypePollTick = "poll:tick"
	PollQueue        = "poll"
)

// AsynqScheduler stores ticks as delayed asynq tasks in redis. The asynq
// server feeds them back through ProcessTask.
type AsynqScheduler struct {
	client  *asynq.Client
	handler TickHandler
}

// NewAsynqScheduler creates a scheduler backed by an asynq client
func NewAsynqScheduler(client *asynq.Client) *AsynqScheduler {
	return &AsynqScheduler{client: client}
}

func (s *AsynqScheduler) SetHandler(h TickHandler) {
	s.handler = h
}

func (s *AsynqScheduler) Schedule(ctx context.Context, delay time.Duration, tick Tick) error {
	task, err := newPollTickTask(tick)
	if err != nil {
		return err
	}

	// A failed tick is retried by the poller itself; asynq must not replay it.
	_, err = s.client.EnqueueContext(ctx, task,
		asynq.Queue(PollQueue),
		asynq.ProcessIn(delay),
		asynq.MaxRetry(0),
		asynq.Retention(time.Hour),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue poll tick: %w", err)
	}
	return nil
}

// ProcessTask handles poll:tick tasks
func (s *AsynqScheduler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var tick Tick
	if err := json.Unmarshal(t.Payload(), &tick); err != nil {
		return fmt.Errorf("failed to unmarshal poll tick: %w: %w", err, asynq.SkipRetry)
	}
	if s.handler != nil {
		s.handler(ctx, tick)
	}
	return nil
}

func newPollTickTask(tick Tick) (*asynq.Task, error) {
	data, err := json.Marshal(tick)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal poll tick: %w", err)
	}
	return asynq.NewTask(TaskTypePollTick, data), nil
}
