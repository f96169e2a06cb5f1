package model

import "time"

// Generation is a music generation job. The external API always renders a pair of tracks.
type Generation struct {
	ID           int64            `json:"id"`
	ProjectID    *int64           `json:"project_id,omitempty"`
	Prompt       string           `json:"prompt"`
	Style        string           `json:"style,omitempty"`
	Title        string           `json:"title,omitempty"`
	Instrumental bool             `json:"instrumental"`
	Model        string           `json:"model"`
	TaskID       *string          `json:"task_id,omitempty"`
	Status       GenerationStatus `json:"status"`
	ErrorMessage *string          `json:"error_message,omitempty"`
	Track1       Track            `json:"track1"`
	Track2       Track            `json:"track2"`
	ResponseData *string          `json:"response_data,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// Track holds the result fields of one rendered variant. Fields fill in as the job progresses.
type Track struct {
	AudioID   *string  `json:"id,omitempty"`
	StreamURL *string  `json:"stream_url,omitempty"`
	AudioURL  *string  `json:"audio_url,omitempty"`
	ImageURL  *string  `json:"image_url,omitempty"`
	Duration  *float64 `json:"duration,omitempty"`
}

// CompletedTrack is a fully rendered variant as written on success
type CompletedTrack struct {
	AudioID   string
	StreamURL string
	AudioURL  string
	ImageURL  string
	Duration  float64
}

// ProvisionalTrack is the preview data available before completion. Empty fields leave stored values untouched.
type ProvisionalTrack struct {
	AudioID   string
	StreamURL string
	ImageURL  string
}

// NewGeneration holds the user input for a new generation
type NewGeneration struct {
	ProjectID    *int64
	Prompt       string
	Style        string
	Title        string
	Instrumental bool
	Model        string
}

// HasAudio reports whether audioID is one of the generation's two variants
func (g *Generation) HasAudio(audioID string) bool {
	for _, t := range []Track{g.Track1, g.Track2} {
		if t.AudioID != nil && *t.AudioID == audioID {
			return true
		}
	}
	return false
}
