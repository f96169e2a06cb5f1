package model

// EventType names a live-update message pushed to connected clients
type EventType string

const (
	EventGenerationUpdate   EventType = "generation_update"
	EventGenerationComplete EventType = "generation_complete"
	EventGenerationError    EventType = "generation_error"
	EventStemUpdate         EventType = "stem_separation_update"
	EventStemComplete       EventType = "stem_separation_complete"
	EventStemError          EventType = "stem_separation_error"
	EventAnnotationUpdate   EventType = "annotation_update"
	EventConnected          EventType = "connected"
)

// Event is the envelope written to every connected client
type Event struct {
	Type             EventType `json:"type"`
	GenerationID     int64     `json:"generation_id,omitempty"`
	StemSeparationID int64     `json:"stem_separation_id,omitempty"`
	AudioID          string    `json:"audio_id,omitempty"`
	Data             any       `json:"data,omitempty"`
}

// GenerationPayload carries the partial generation fields of a generation event
type GenerationPayload struct {
	Status       GenerationStatus `json:"status"`
	TaskID       string           `json:"task_id,omitempty"`
	ErrorMessage string           `json:"error_message,omitempty"`
	Track1       *TrackPayload    `json:"track1,omitempty"`
	Track2       *TrackPayload    `json:"track2,omitempty"`
	ResponseData string           `json:"response_data,omitempty"`
}

// TrackPayload is the public view of one variant inside an event
type TrackPayload struct {
	ID        string  `json:"id,omitempty"`
	StreamURL string  `json:"stream_url,omitempty"`
	AudioURL  string  `json:"audio_url,omitempty"`
	ImageURL  string  `json:"image_url,omitempty"`
	Duration  float64 `json:"duration,omitempty"`
}

// StemPayload carries the partial fields of a stem separation event.
// On completion every URL field is present, absent stems as explicit null.
type StemPayload struct {
	Status       StemStatus `json:"status"`
	TaskID       string     `json:"task_id,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	*StemURLs
	ResponseData string `json:"response_data,omitempty"`
}

// AnnotationPayload carries the changed annotation fields
type AnnotationPayload struct {
	Rating   int      `json:"rating"`
	Favorite bool     `json:"favorite"`
	Notes    string   `json:"notes"`
	Labels   []string `json:"labels"`
}
