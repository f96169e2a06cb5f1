package model

import "time"

// AudioArchive is a copy of one rendered variant kept in object storage.
// Provider CDN links expire; the archived URL does not.
type AudioArchive struct {
	ID           int64     `json:"id"`
	GenerationID int64     `json:"generation_id"`
	AudioID      string    `json:"audio_id"`
	ObjectKey    string    `json:"object_key"`
	URL          string    `json:"url"`
	SizeBytes    int64     `json:"size_bytes"`
	CreatedAt    time.Time `json:"created_at"`
}
