package model

// GenerationStatus is the internal lifecycle state of a generation job
type GenerationStatus string

const (
	GenerationPending      GenerationStatus = "pending"
	GenerationProcessing   GenerationStatus = "processing"
	GenerationTextSuccess  GenerationStatus = "text_success"
	GenerationFirstSuccess GenerationStatus = "first_success"
	GenerationSuccess      GenerationStatus = "success"
	GenerationError        GenerationStatus = "error"
)

// PendingGenerationStatuses are the non-terminal generation states picked up by recovery
var PendingGenerationStatuses = []GenerationStatus{
	GenerationPending, GenerationProcessing, GenerationTextSuccess, GenerationFirstSuccess,
}

// IsTerminal reports whether no further polling happens from this state
func (s GenerationStatus) IsTerminal() bool {
	return s == GenerationSuccess || s == GenerationError
}

// StemStatus is the internal lifecycle state of a stem separation job
type StemStatus string

const (
	StemPending    StemStatus = "pending"
	StemProcessing StemStatus = "processing"
	StemSuccess    StemStatus = "success"
	StemError      StemStatus = "error"
)

// PendingStemStatuses are the non-terminal stem separation states picked up by recovery
var PendingStemStatuses = []StemStatus{StemPending, StemProcessing}

// IsTerminal reports whether no further polling happens from this state
func (s StemStatus) IsTerminal() bool {
	return s == StemSuccess || s == StemError
}

// SeparationType selects which stems the external API produces
type SeparationType string

const (
	SeparationVocal SeparationType = "separate_vocal"
	SeparationStems SeparationType = "split_stem"
)

// JobKind distinguishes the two pollable job types
type JobKind string

const (
	JobKindGeneration JobKind = "generation"
	JobKindStem       JobKind = "stem_separation"
)
