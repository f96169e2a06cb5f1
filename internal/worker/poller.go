package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/makeasinger/studio/internal/client"
	"github.com/makeasinger/studio/internal/config"
	"github.com/makeasinger/studio/internal/mapper"
	"github.com/makeasinger/studio/internal/model"
	"github.com/makeasinger/studio/internal/store"
)

const (
	DefaultInterval    = 5 * time.Second
	DefaultMaxAttempts = 120

	GenerationTimeoutMessage = "Generation timed out"
	StemTimeoutMessage       = "Stem separation timed out"
)

// JobStore is the persistence the poller writes through
type JobStore interface {
	store.GenerationStore
	store.StemStore
}

// Broadcaster pushes job events to live clients
type Broadcaster interface {
	BroadcastGeneration(eventType model.EventType, generationID int64, payload model.GenerationPayload)
	BroadcastStem(eventType model.EventType, stem *model.StemSeparation, payload model.StemPayload)
}

// CompletionListener is told about each generation stored as complete
type CompletionListener interface {
	GenerationCompleted(ctx context.Context, id int64)
}

// Poller drives generation and stem separation jobs to a terminal state.
// Each job is a chain of ticks; a tick is scheduled only after the previous
// one has finished, so ticks of one job never overlap.
type Poller struct {
	store       JobStore
	api         client.MusicGenerator
	hub         Broadcaster
	scheduler   Scheduler
	registry    *Registry
	interval    time.Duration
	maxAttempts int
	logger      *slog.Logger

	mu          sync.RWMutex
	completions CompletionListener
}

// NewPoller creates a poller and registers it as the scheduler's tick handler
func NewPoller(st JobStore, api client.MusicGenerator, hub Broadcaster, scheduler Scheduler, cfg config.PollerConfig, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	p := &Poller{
		store:       st,
		api:         api,
		hub:         hub,
		scheduler:   scheduler,
		registry:    NewRegistry(),
		interval:    cfg.Interval,
		maxAttempts: cfg.MaxAttempts,
		logger:      logger.With(slog.String("component", "poller")),
	}
	scheduler.SetHandler(p.RunTick)
	return p
}

// SetCompletionListener registers l to run after each generation completes.
// It runs inside the final tick. Set it before polling starts so recovered
// jobs are covered too.
func (p *Poller) SetCompletionListener(l CompletionListener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completions = l
}

func (p *Poller) completionListener() CompletionListener {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.completions
}

// PollGeneration starts polling a generation in the background. A job that
// already has an active poller is left alone.
func (p *Poller) PollGeneration(ctx context.Context, id int64, taskID string, recovery bool) bool {
	return p.start(ctx, model.JobKindGeneration, id, taskID, recovery)
}

// PollStemSeparation starts polling a stem separation in the background
func (p *Poller) PollStemSeparation(ctx context.Context, id int64, taskID string, recovery bool) bool {
	return p.start(ctx, model.JobKindStem, id, taskID, recovery)
}

// Cancel stops the job's poller. Its next tick is dropped.
func (p *Poller) Cancel(kind model.JobKind, id int64) bool {
	ok := p.registry.Cancel(kind, id)
	if ok {
		p.logger.Info("poller cancelled", slog.String("job_kind", string(kind)), slog.Int64("job_id", id))
	}
	return ok
}

// Active reports whether the job is being polled
func (p *Poller) Active(kind model.JobKind, id int64) bool {
	return p.registry.Active(kind, id)
}

// ActiveCount returns the number of running poll chains
func (p *Poller) ActiveCount() int {
	return p.registry.Len()
}

func (p *Poller) start(ctx context.Context, kind model.JobKind, id int64, taskID string, recovery bool) bool {
	token, ok := p.registry.Acquire(kind, id)
	if !ok {
		p.logger.Debug("poller already active", slog.String("job_kind", string(kind)), slog.Int64("job_id", id))
		return false
	}

	tick := Tick{Kind: kind, JobID: id, TaskID: taskID, Attempt: 1, Recovery: recovery, Token: token}
	p.tickLogger(tick).Info("polling started")

	if err := p.scheduler.Schedule(ctx, p.interval, tick); err != nil {
		p.registry.Release(kind, id, token)
		p.tickLogger(tick).Error("failed to schedule first poll", slog.Any("error", err))
		return false
	}
	return true
}

// RunTick executes one poll of one job and schedules the next one if needed.
// It never returns an error: every outcome ends up in storage and on the hub.
func (p *Poller) RunTick(ctx context.Context, tick Tick) {
	if !p.registry.Owns(tick.Kind, tick.JobID, tick.Token) {
		p.tickLogger(tick).Debug("dropping tick of inactive poller")
		return
	}
	log := p.tickLogger(tick)

	var (
		done bool
		err  error
		fail func(message string)
	)
	switch tick.Kind {
	case model.JobKindGeneration:
		done, err = p.generationTick(ctx, tick, log)
		fail = func(message string) { p.failGeneration(ctx, tick.JobID, message, log) }
	case model.JobKindStem:
		var stem *model.StemSeparation
		stem, done, err = p.stemTick(ctx, tick, log)
		if stem == nil {
			stem = &model.StemSeparation{ID: tick.JobID}
		}
		fail = func(message string) { p.failStem(ctx, stem, message, log) }
	default:
		log.Error("unknown job kind")
		p.registry.Release(tick.Kind, tick.JobID, tick.Token)
		return
	}

	switch {
	case errors.Is(err, store.ErrNotFound):
		log.Info("job no longer exists, polling stopped")
	case err != nil && tick.Attempt < p.maxAttempts:
		log.Warn("poll failed, retrying", slog.Any("error", err))
		p.next(ctx, tick, log)
		return
	case err != nil:
		log.Error("poll failed, attempts exhausted", slog.Any("error", err))
		fail(err.Error())
	case done:
	case tick.Attempt < p.maxAttempts:
		p.next(ctx, tick, log)
		return
	default:
		log.Warn("polling timed out")
		fail(timeoutMessage(tick.Kind))
	}
	p.registry.Release(tick.Kind, tick.JobID, tick.Token)
}

func (p *Poller) next(ctx context.Context, tick Tick, log *slog.Logger) {
	tick.Attempt++
	if err := p.scheduler.Schedule(ctx, p.interval, tick); err != nil {
		log.Error("failed to schedule next poll", slog.Any("error", err))
		p.registry.Release(tick.Kind, tick.JobID, tick.Token)
	}
}

// generationTick reports done once the job reached a terminal state
func (p *Poller) generationTick(ctx context.Context, tick Tick, log *slog.Logger) (bool, error) {
	details, err := p.api.GetGenerationDetails(ctx, tick.TaskID)
	if err != nil {
		return false, fmt.Errorf("get generation details: %w", err)
	}

	if details.Code != client.CodeSuccess {
		log.Warn("status check rejected", slog.Int("code", details.Code), slog.String("msg", details.Msg))
		return true, p.terminateGeneration(ctx, tick.JobID, pollRejectionMessage(details.Code, details.Msg))
	}

	data := details.Data
	status := ""
	if data != nil {
		status = data.Status
	}
	log.Debug("generation status", slog.String("status", status))

	if client.GenerationErrorStatuses[status] {
		message := status
		if data.ErrorMessage != nil && *data.ErrorMessage != "" {
			message = *data.ErrorMessage
		}
		log.Warn("generation failed", slog.String("status", status), slog.String("error_message", message))
		return true, p.terminateGeneration(ctx, tick.JobID, message)
	}

	if status == client.StatusSuccess {
		if completion := mapper.MapGenerationCompletion(data); completion != nil {
			if err := p.store.SetGenerationCompleted(ctx, tick.JobID, completion.Track1, completion.Track2, completion.ResponseData); err != nil {
				return false, err
			}
			p.hub.BroadcastGeneration(model.EventGenerationComplete, tick.JobID, completion.Payload)
			log.Info("generation completed")
			if l := p.completionListener(); l != nil {
				l.GenerationCompleted(ctx, tick.JobID)
			}
			return true, nil
		}
		log.Debug("success reported without both tracks, still waiting")
	}

	progress := mapper.MapGenerationProgress(data)
	if err := p.store.SetGenerationStatus(ctx, tick.JobID, progress.Status); err != nil {
		return false, err
	}
	if u := progress.TrackUpdate; u != nil {
		if err := p.store.UpdateGenerationTracks(ctx, tick.JobID, u.Track1, u.Track2, nil); err != nil {
			return false, err
		}
		p.hub.BroadcastGeneration(model.EventGenerationUpdate, tick.JobID, u.Payload)
		return false, nil
	}
	p.hub.BroadcastGeneration(model.EventGenerationUpdate, tick.JobID, progress.Payload)
	return false, nil
}

// pollRejectionMessage keeps the stored error message non-empty when the
// wrapper rejects a status check without saying why
func pollRejectionMessage(code int, msg string) string {
	if msg != "" {
		return msg
	}
	return fmt.Sprintf("status check rejected (code %d)", code)
}

// terminateGeneration marks the job errored from inside a tick. A storage
// failure here is returned so the tick is retried.
func (p *Poller) terminateGeneration(ctx context.Context, id int64, message string) error {
	if err := p.store.SetGenerationErrored(ctx, id, message); err != nil {
		return err
	}
	p.hub.BroadcastGeneration(model.EventGenerationError, id, model.GenerationPayload{
		Status:       model.GenerationError,
		ErrorMessage: message,
	})
	return nil
}

func (p *Poller) failGeneration(ctx context.Context, id int64, message string, log *slog.Logger) {
	if err := p.terminateGeneration(ctx, id, message); err != nil {
		log.Error("failed to mark generation as failed", slog.Any("error", err))
	}
}

// stemTick loads the separation first; its parent and variant ids key every event
func (p *Poller) stemTick(ctx context.Context, tick Tick, log *slog.Logger) (*model.StemSeparation, bool, error) {
	stem, err := p.store.GetStemSeparation(ctx, tick.JobID)
	if err != nil {
		return nil, false, err
	}

	details, err := p.api.GetStemDetails(ctx, tick.TaskID)
	if err != nil {
		return stem, false, fmt.Errorf("get stem details: %w", err)
	}

	if details.Code != client.CodeSuccess {
		log.Warn("status check rejected", slog.Int("code", details.Code), slog.String("msg", details.Msg))
		return stem, true, p.terminateStem(ctx, stem, pollRejectionMessage(details.Code, details.Msg))
	}

	data := details.Data
	status := ""
	if data != nil {
		status = data.SuccessFlag
	}
	log.Debug("stem separation status", slog.String("status", status))

	if client.StemErrorStatuses[status] {
		message := status
		if data.ErrorMessage != nil && *data.ErrorMessage != "" {
			message = *data.ErrorMessage
		}
		log.Warn("stem separation failed", slog.String("status", status), slog.String("error_message", message))
		return stem, true, p.terminateStem(ctx, stem, message)
	}

	if status == client.StatusSuccess {
		if completion := mapper.MapStemCompletion(data); completion != nil {
			if err := p.store.SetStemCompleted(ctx, stem.ID, completion.Fields, completion.ResponseData); err != nil {
				return stem, false, err
			}
			p.hub.BroadcastStem(model.EventStemComplete, stem, completion.Payload)
			log.Info("stem separation completed")
			return stem, true, nil
		}
		log.Debug("success reported without response data, still waiting")
	}

	if err := p.store.SetStemStatus(ctx, stem.ID, model.StemProcessing); err != nil {
		return stem, false, err
	}
	p.hub.BroadcastStem(model.EventStemUpdate, stem, model.StemPayload{Status: model.StemProcessing})
	return stem, false, nil
}

func (p *Poller) terminateStem(ctx context.Context, stem *model.StemSeparation, message string) error {
	if err := p.store.SetStemErrored(ctx, stem.ID, message); err != nil {
		return err
	}
	p.hub.BroadcastStem(model.EventStemError, stem, model.StemPayload{
		Status:       model.StemError,
		ErrorMessage: message,
	})
	return nil
}

func (p *Poller) failStem(ctx context.Context, stem *model.StemSeparation, message string, log *slog.Logger) {
	if err := p.terminateStem(ctx, stem, message); err != nil {
		log.Error("failed to mark stem separation as failed", slog.Any("error", err))
	}
}

func (p *Poller) tickLogger(tick Tick) *slog.Logger {
	return p.logger.With(
		slog.String("job_kind", string(tick.Kind)),
		slog.Int64("job_id", tick.JobID),
		slog.String("task_id", tick.TaskID),
		slog.Int("attempt", tick.Attempt),
		slog.Bool("recovery", tick.Recovery),
	)
}

func timeoutMessage(kind model.JobKind) string {
	if kind == model.JobKindStem {
		return StemTimeoutMessage
	}
	return GenerationTimeoutMessage
}
