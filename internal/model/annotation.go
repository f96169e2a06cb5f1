package model

import "time"

// Annotation is the user's rating and notes on one variant of a generation
type Annotation struct {
	ID           int64     `json:"id"`
	GenerationID int64     `json:"generation_id"`
	AudioID      string    `json:"audio_id"`
	Rating       int       `json:"rating"`
	Favorite     bool      `json:"favorite"`
	Notes        string    `json:"notes"`
	Labels       []string  `json:"labels"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
