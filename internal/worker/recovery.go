package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/makeasinger/studio/internal/model"
	"github.com/makeasinger/studio/internal/store"
)

// InterruptedMessage is recorded on jobs that never got an external task id
const InterruptedMessage = "Job was interrupted before task creation"

// JobPoller starts poll chains
type JobPoller interface {
	PollGeneration(ctx context.Context, id int64, taskID string, recovery bool) bool
	PollStemSeparation(ctx context.Context, id int64, taskID string, recovery bool) bool
}

// RecoveryStore marks unrecoverable jobs and lists the non-terminal ones
type RecoveryStore interface {
	SetGenerationErrored(ctx context.Context, id int64, message string) error
	SetStemErrored(ctx context.Context, id int64, message string) error
	GetPendingGenerations(ctx context.Context) ([]*model.Generation, error)
	GetPendingStemSeparations(ctx context.Context) ([]*model.StemSeparation, error)
}

var _ RecoveryStore = (store.Store)(nil)

// RecoveryResult counts what a recovery pass did
type RecoveryResult struct {
	Resumed     int
	Interrupted int
}

func (r *RecoveryResult) add(o RecoveryResult) {
	r.Resumed += o.Resumed
	r.Interrupted += o.Interrupted
}

// Recovery re-attaches pollers to jobs left in flight by a previous run
type Recovery struct {
	store  RecoveryStore
	poller JobPoller
	logger *slog.Logger
}

func NewRecovery(st RecoveryStore, poller JobPoller, logger *slog.Logger) *Recovery {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recovery{
		store:  st,
		poller: poller,
		logger: logger.With(slog.String("component", "recovery")),
	}
}

// Run loads every non-terminal job and recovers it. It is meant to run once at startup.
func (r *Recovery) Run(ctx context.Context) (RecoveryResult, error) {
	var total RecoveryResult

	generations, err := r.store.GetPendingGenerations(ctx)
	if err != nil {
		return total, fmt.Errorf("load pending generations: %w", err)
	}
	total.add(r.RecoverGenerations(ctx, generations))

	stems, err := r.store.GetPendingStemSeparations(ctx)
	if err != nil {
		return total, fmt.Errorf("load pending stem separations: %w", err)
	}
	total.add(r.RecoverStemSeparations(ctx, stems))

	r.logger.Info("recovery finished", slog.Int("resumed", total.Resumed), slog.Int("interrupted", total.Interrupted))
	return total, nil
}

// RecoverGenerations operates only on the jobs it is handed
func (r *Recovery) RecoverGenerations(ctx context.Context, jobs []*model.Generation) RecoveryResult {
	var res RecoveryResult
	for _, g := range jobs {
		log := r.logger.With(slog.String("job_kind", string(model.JobKindGeneration)), slog.Int64("job_id", g.ID))
		if g.TaskID == nil || *g.TaskID == "" {
			if err := r.store.SetGenerationErrored(ctx, g.ID, InterruptedMessage); err != nil {
				log.Error("failed to mark interrupted generation", slog.Any("error", err))
				continue
			}
			log.Warn("generation interrupted before task creation")
			res.Interrupted++
			continue
		}
		if r.poller.PollGeneration(ctx, g.ID, *g.TaskID, true) {
			res.Resumed++
		}
	}
	return res
}

func (r *Recovery) RecoverStemSeparations(ctx context.Context, jobs []*model.StemSeparation) RecoveryResult {
	var res RecoveryResult
	for _, s := range jobs {
		log := r.logger.With(slog.String("job_kind", string(model.JobKindStem)), slog.Int64("job_id", s.ID))
		if s.TaskID == nil || *s.TaskID == "" {
			if err := r.store.SetStemErrored(ctx, s.ID, InterruptedMessage); err != nil {
				log.Error("failed to mark interrupted stem separation", slog.Any("error", err))
				continue
			}
			log.Warn("stem separation interrupted before task creation")
			res.Interrupted++
			continue
		}
		if r.poller.PollStemSeparation(ctx, s.ID, *s.TaskID, true) {
			res.Resumed++
		}
	}
	return res
}
