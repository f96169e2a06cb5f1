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

// GenerationService creates generation jobs and hands them to the poller
type GenerationService struct {
	store   store.Store
	api     client.MusicGenerator
	hub     Broadcaster
	poller  JobPoller
	archive ArchivePurger
	model   string
	logger  *slog.Logger
}

func NewGenerationService(st store.Store, api client.MusicGenerator, hub Broadcaster, poller JobPoller, defaultModel string, logger *slog.Logger) *GenerationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &GenerationService{
		store:  st,
		api:    api,
		hub:    hub,
		poller: poller,
		model:  defaultModel,
		logger: logger.With(slog.String("component", "generation-service")),
	}
}

// SetArchive makes Delete remove the generation's archived audio too
func (s *GenerationService) SetArchive(a ArchivePurger) {
	s.archive = a
}

// Create persists a pending generation and starts it on the external API.
// A rejected start leaves the job in error and returns it with the error.
func (s *GenerationService) Create(ctx context.Context, req *model.CreateGenerationRequest) (*model.Generation, error) {
	if req.ProjectID != nil {
		if _, err := s.store.GetProject(ctx, *req.ProjectID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, ErrProjectNotFound
			}
			return nil, err
		}
	}

	modelName := req.Model
	if modelName == "" {
		modelName = s.model
	}

	g, err := s.store.CreateGeneration(ctx, model.NewGeneration{
		ProjectID:    req.ProjectID,
		Prompt:       req.Prompt,
		Style:        req.Style,
		Title:        req.Title,
		Instrumental: req.Instrumental,
		Model:        modelName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create generation: %w", err)
	}

	resp, err := s.api.Generate(ctx, &client.GenerateRequest{
		Prompt:       req.Prompt,
		Style:        req.Style,
		Title:        req.Title,
		CustomMode:   req.Style != "" || req.Title != "",
		Instrumental: req.Instrumental,
		Model:        modelName,
		NegativeTags: req.NegativeTags,
	})
	taskID, err := acceptedTaskID(resp, err)
	if err != nil {
		s.rejectGeneration(ctx, g, err)
		return g, fmt.Errorf("failed to start generation: %w", err)
	}

	if err := s.store.SetGenerationTaskStarted(ctx, g.ID, taskID); err != nil {
		err = fmt.Errorf("failed to record task id: %w", err)
		s.rejectGeneration(ctx, g, err)
		return nil, err
	}
	g.TaskID = &taskID
	g.Status = model.GenerationProcessing

	s.hub.BroadcastGeneration(model.EventGenerationUpdate, g.ID, model.GenerationPayload{
		Status: model.GenerationProcessing,
		TaskID: taskID,
	})
	s.poller.PollGeneration(context.WithoutCancel(ctx), g.ID, taskID, false)

	s.logger.Info("generation started", slog.Int64("job_id", g.ID), slog.String("task_id", taskID))
	return g, nil
}

func (s *GenerationService) rejectGeneration(ctx context.Context, g *model.Generation, cause error) {
	message := rejectionMessage(cause)
	if err := s.store.SetGenerationErrored(ctx, g.ID, message); err != nil {
		s.logger.Error("failed to mark generation as failed", slog.Int64("job_id", g.ID), slog.Any("error", err))
	}
	g.Status = model.GenerationError
	g.ErrorMessage = &message

	s.hub.BroadcastGeneration(model.EventGenerationError, g.ID, model.GenerationPayload{
		Status:       model.GenerationError,
		ErrorMessage: message,
	})
	s.logger.Warn("generation rejected", slog.Int64("job_id", g.ID), slog.Any("error", cause))
}

func (s *GenerationService) Get(ctx context.Context, id int64) (*model.Generation, error) {
	g, err := s.store.GetGeneration(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrJobNotFound
	}
	return g, err
}

func (s *GenerationService) List(ctx context.Context, projectID *int64) ([]*model.Generation, error) {
	gens, err := s.store.ListGenerations(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if gens == nil {
		gens = []*model.Generation{}
	}
	return gens, nil
}

// Delete removes the generation and stops its pollers, including those of its
// stem separations, which storage removes along with it.
func (s *GenerationService) Delete(ctx context.Context, id int64) error {
	stems, err := s.store.ListStemSeparations(ctx, id)
	if err != nil {
		return err
	}
	var archives []*model.AudioArchive
	if s.archive != nil {
		if archives, err = s.store.ListArchives(ctx, id); err != nil {
			return err
		}
	}

	if err := s.store.DeleteGeneration(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrJobNotFound
		}
		return err
	}

	s.poller.Cancel(model.JobKindGeneration, id)
	for _, st := range stems {
		s.poller.Cancel(model.JobKindStem, st.ID)
	}
	if len(archives) > 0 {
		s.archive.Purge(ctx, archives)
	}
	return nil
}

// Archives lists the stored copies of a generation's variants
func (s *GenerationService) Archives(ctx context.Context, id int64) ([]*model.AudioArchive, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	list, err := s.store.ListArchives(ctx, id)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*model.AudioArchive{}
	}
	return list, nil
}

// acceptedTaskID turns a start response into the new task id or a rejection
func acceptedTaskID(resp *client.TaskResponse, err error) (string, error) {
	if err != nil {
		return "", err
	}
	if resp.Code != client.CodeSuccess {
		return "", &client.APIError{Code: resp.Code, Msg: resp.Msg}
	}
	if resp.Data == nil || resp.Data.TaskID == "" {
		return "", &client.APIError{Code: resp.Code, Msg: "response did not include a task id"}
	}
	return resp.Data.TaskID, nil
}

func rejectionMessage(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Msg != "" {
		return apiErr.Msg
	}
	return err.Error()
}
