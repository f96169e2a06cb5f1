package service

import (
	"context"
	"errors"

	"github.com/makeasinger/studio/internal/model"
	"github.com/makeasinger/studio/internal/store"
)

// AnnotationService stores per-variant ratings and notes
type AnnotationService struct {
	store store.Store
	hub   Broadcaster
}

func NewAnnotationService(st store.Store, hub Broadcaster) *AnnotationService {
	return &AnnotationService{store: st, hub: hub}
}

// Upsert replaces the annotation of one variant and notifies live clients
func (s *AnnotationService) Upsert(ctx context.Context, generationID int64, audioID string, req *model.AnnotationRequest) (*model.Annotation, error) {
	g, err := s.store.GetGeneration(ctx, generationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	if !g.HasAudio(audioID) {
		return nil, ErrUnknownAudio
	}

	a, err := s.store.UpsertAnnotation(ctx, &model.Annotation{
		GenerationID: generationID,
		AudioID:      audioID,
		Rating:       req.Rating,
		Favorite:     req.Favorite,
		Notes:        req.Notes,
		Labels:       req.Labels,
	})
	if err != nil {
		return nil, err
	}

	s.hub.BroadcastAnnotation(a)
	return a, nil
}

func (s *AnnotationService) Get(ctx context.Context, generationID int64, audioID string) (*model.Annotation, error) {
	a, err := s.store.GetAnnotation(ctx, generationID, audioID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	return a, err
}

func (s *AnnotationService) List(ctx context.Context, generationID int64) ([]*model.Annotation, error) {
	list, err := s.store.ListAnnotations(ctx, generationID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*model.Annotation{}
	}
	return list, nil
}
