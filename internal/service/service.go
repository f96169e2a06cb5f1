package service

import (
	"context"
	"errors"

	"github.com/makeasinger/studio/internal/model"
)

var (
	ErrJobNotFound     = errors.New("job not found")
	ErrProjectNotFound = errors.New("project not found")
	ErrNotFound        = errors.New("resource not found")
	ErrNotStarted      = errors.New("generation has no external task yet")
	ErrUnknownAudio    = errors.New("audio id is not a variant of this generation")
)

// Broadcaster pushes events to live clients
type Broadcaster interface {
	BroadcastGeneration(eventType model.EventType, generationID int64, payload model.GenerationPayload)
	BroadcastStem(eventType model.EventType, stem *model.StemSeparation, payload model.StemPayload)
	BroadcastAnnotation(a *model.Annotation)
}

// JobPoller starts and cancels poll chains
type JobPoller interface {
	PollGeneration(ctx context.Context, id int64, taskID string, recovery bool) bool
	PollStemSeparation(ctx context.Context, id int64, taskID string, recovery bool) bool
	Cancel(kind model.JobKind, id int64) bool
}

// ArchivePurger removes archived audio after its generation is deleted
type ArchivePurger interface {
	Purge(ctx context.Context, archives []*model.AudioArchive)
}
