package store

import (
	"context"
	"errors"

	"github.com/makeasinger/studio/internal/model"
)

var ErrNotFound = errors.New("resource not found")

// GenerationStore persists generation jobs. Status setters are single-purpose;
// there is no combined status/result setter.
type GenerationStore interface {
	CreateGeneration(ctx context.Context, in model.NewGeneration) (*model.Generation, error)
	GetGeneration(ctx context.Context, id int64) (*model.Generation, error)
	ListGenerations(ctx context.Context, projectID *int64) ([]*model.Generation, error)
	DeleteGeneration(ctx context.Context, id int64) error

	SetGenerationTaskStarted(ctx context.Context, id int64, taskID string) error
	SetGenerationStatus(ctx context.Context, id int64, status model.GenerationStatus) error
	SetGenerationErrored(ctx context.Context, id int64, message string) error
	SetGenerationCompleted(ctx context.Context, id int64, track1, track2 model.CompletedTrack, responseData string) error
	UpdateGenerationTracks(ctx context.Context, id int64, track1, track2 model.ProvisionalTrack, responseData *string) error
	GetPendingGenerations(ctx context.Context) ([]*model.Generation, error)
}

// StemStore persists stem separation jobs
type StemStore interface {
	CreateStemSeparation(ctx context.Context, in model.NewStemSeparation) (*model.StemSeparation, error)
	GetStemSeparation(ctx context.Context, id int64) (*model.StemSeparation, error)
	ListStemSeparations(ctx context.Context, generationID int64) ([]*model.StemSeparation, error)
	DeleteStemSeparation(ctx context.Context, id int64) error

	SetStemTaskStarted(ctx context.Context, id int64, taskID string) error
	SetStemStatus(ctx context.Context, id int64, status model.StemStatus) error
	SetStemErrored(ctx context.Context, id int64, message string) error
	SetStemCompleted(ctx context.Context, id int64, fields model.StemURLs, responseData string) error
	GetPendingStemSeparations(ctx context.Context) ([]*model.StemSeparation, error)
}

// ProjectStore persists projects
type ProjectStore interface {
	CreateProject(ctx context.Context, name, description string) (*model.Project, error)
	GetProject(ctx context.Context, id int64) (*model.Project, error)
	ListProjects(ctx context.Context) ([]*model.Project, error)
	UpdateProject(ctx context.Context, id int64, name, description string) (*model.Project, error)
	DeleteProject(ctx context.Context, id int64) error
}

// AnnotationStore persists per-variant annotations
type AnnotationStore interface {
	UpsertAnnotation(ctx context.Context, a *model.Annotation) (*model.Annotation, error)
	GetAnnotation(ctx context.Context, generationID int64, audioID string) (*model.Annotation, error)
	ListAnnotations(ctx context.Context, generationID int64) ([]*model.Annotation, error)
}

// ArchiveStore records variants copied to object storage
type ArchiveStore interface {
	RecordArchive(ctx context.Context, a *model.AudioArchive) (*model.AudioArchive, error)
	ListArchives(ctx context.Context, generationID int64) ([]*model.AudioArchive, error)
}

// Store is the data access interface. All database operations go through here.
type Store interface {
	GenerationStore
	StemStore
	ProjectStore
	AnnotationStore
	ArchiveStore
	Ping(ctx context.Context) error
	Close() error
}
