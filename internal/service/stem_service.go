package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/makeasinger/studio/internal/client"
	"github.com/makeasinger/studio/internal/model"
	"github.com/makeasinger/studio/internal/store"
)

// StemService creates stem separation jobs against finished generation variants
type StemService struct {
	store  store.Store
	api    client.MusicGenerator
	hub    Broadcaster
	poller JobPoller
	logger *slog.Logger
}

func NewStemService(st store.Store, api client.MusicGenerator, hub Broadcaster, poller JobPoller, logger *slog.Logger) *StemService {
	if logger == nil {
		logger = slog.Default()
	}
	return &StemService{
		store:  st,
		api:    api,
		hub:    hub,
		poller: poller,
		logger: logger.With(slog.String("component", "stem-service")),
	}
}

// Create starts a separation of one variant. The parent generation must have
// an external task and own the audio id.
func (s *StemService) Create(ctx context.Context, generationID int64, req *model.CreateStemSeparationRequest) (*model.StemSeparation, error) {
	parent, err := s.store.GetGeneration(ctx, generationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	if parent.TaskID == nil || *parent.TaskID == "" {
		return nil, ErrNotStarted
	}
	if !parent.HasAudio(req.AudioID) {
		return nil, ErrUnknownAudio
	}

	stem, err := s.store.CreateStemSeparation(ctx, model.NewStemSeparation{
		GenerationID: generationID,
		AudioID:      req.AudioID,
		Type:         req.Type,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create stem separation: %w", err)
	}

	resp, err := s.api.SeparateStems(ctx, &client.SeparationRequest{
		TaskID:  *parent.TaskID,
		AudioID: req.AudioID,
		Type:    string(req.Type),
	})
	taskID, err := acceptedTaskID(resp, err)
	if err != nil {
		s.rejectStem(ctx, stem, err)
		return stem, fmt.Errorf("failed to start stem separation: %w", err)
	}

	if err := s.store.SetStemTaskStarted(ctx, stem.ID, taskID); err != nil {
		err = fmt.Errorf("failed to record task id: %w", err)
		s.rejectStem(ctx, stem, err)
		return nil, err
	}
	stem.TaskID = &taskID
	stem.Status = model.StemProcessing

	s.hub.BroadcastStem(model.EventStemUpdate, stem, model.StemPayload{
		Status: model.StemProcessing,
		TaskID: taskID,
	})
	s.poller.PollStemSeparation(context.WithoutCancel(ctx), stem.ID, taskID, false)

	s.logger.Info("stem separation started",
		slog.Int64("job_id", stem.ID),
		slog.Int64("generation_id", generationID),
		slog.String("task_id", taskID),
	)
	return stem, nil
}

func (s *StemService) rejectStem(ctx context.Context, stem *model.StemSeparation, cause error) {
	message := rejectionMessage(cause)
	if err := s.store.SetStemErrored(ctx, stem.ID, message); err != nil {
		s.logger.Error("failed to mark stem separation as failed", slog.Int64("job_id", stem.ID), slog.Any("error", err))
	}
	stem.Status = model.StemError
	stem.ErrorMessage = &message

	s.hub.BroadcastStem(model.EventStemError, stem, model.StemPayload{
		Status:       model.StemError,
		ErrorMessage: message,
	})
	s.logger.Warn("stem separation rejected", slog.Int64("job_id", stem.ID), slog.Any("error", cause))
}

func (s *StemService) Get(ctx context.Context, id int64) (*model.StemSeparation, error) {
	st, err := s.store.GetStemSeparation(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrJobNotFound
	}
	return st, err
}

// ListByGeneration returns the separations of one generation
func (s *StemService) ListByGeneration(ctx context.Context, generationID int64) ([]*model.StemSeparation, error) {
	if _, err := s.store.GetGeneration(ctx, generationID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	stems, err := s.store.ListStemSeparations(ctx, generationID)
	if err != nil {
		return nil, err
	}
	if stems == nil {
		stems = []*model.StemSeparation{}
	}
	return stems, nil
}

func (s *StemService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteStemSeparation(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrJobNotFound
		}
		return err
	}
	s.poller.Cancel(model.JobKindStem, id)
	return nil
}
