package model

import "time"

// StemSeparation is a stem/vocal separation job run against one variant of a generation
type StemSeparation struct {
	ID           int64          `json:"id"`
	GenerationID int64          `json:"generation_id"`
	AudioID      string         `json:"audio_id"`
	Type         SeparationType `json:"type"`
	TaskID       *string        `json:"task_id,omitempty"`
	Status       StemStatus     `json:"status"`
	ErrorMessage *string        `json:"error_message,omitempty"`
	StemURLs
	ResponseData *string   `json:"response_data,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// StemURLs are the named outputs of a separation. A given separation type only fills a subset.
type StemURLs struct {
	OriginURL        *string `json:"origin_url"`
	InstrumentalURL  *string `json:"instrumental_url"`
	VocalURL         *string `json:"vocal_url"`
	BackingVocalsURL *string `json:"backing_vocals_url"`
	DrumsURL         *string `json:"drums_url"`
	BassURL          *string `json:"bass_url"`
	GuitarURL        *string `json:"guitar_url"`
	KeyboardURL      *string `json:"keyboard_url"`
	PercussionURL    *string `json:"percussion_url"`
	StringsURL       *string `json:"strings_url"`
	SynthURL         *string `json:"synth_url"`
	FxURL            *string `json:"fx_url"`
	BrassURL         *string `json:"brass_url"`
	WoodwindsURL     *string `json:"woodwinds_url"`
}

// NewStemSeparation holds the input for a new separation job
type NewStemSeparation struct {
	GenerationID int64
	AudioID      string
	Type         SeparationType
}
