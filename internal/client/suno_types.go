package client

import "fmt"

// CodeSuccess is the wrapper-level code of an accepted request
const CodeSuccess = 200

// External generation statuses
const (
	StatusPending             = "PENDING"
	StatusTextSuccess         = "TEXT_SUCCESS"
	StatusFirstSuccess        = "FIRST_SUCCESS"
	StatusSuccess             = "SUCCESS"
	StatusCreateTaskFailed    = "CREATE_TASK_FAILED"
	StatusGenerateAudioFailed = "GENERATE_AUDIO_FAILED"
	StatusCallbackException   = "CALLBACK_EXCEPTION"
	StatusSensitiveWordError  = "SENSITIVE_WORD_ERROR"
)

// GenerationErrorStatuses terminate a generation job immediately
var GenerationErrorStatuses = map[string]bool{
	StatusCreateTaskFailed:    true,
	StatusGenerateAudioFailed: true,
	StatusCallbackException:   true,
	StatusSensitiveWordError:  true,
}

// StemErrorStatuses terminate a stem separation job immediately
var StemErrorStatuses = map[string]bool{
	StatusCreateTaskFailed:    true,
	StatusGenerateAudioFailed: true,
	StatusCallbackException:   true,
}

// GenerateRequest starts a music generation task
type GenerateRequest struct {
	Prompt       string `json:"prompt"`
	Style        string `json:"style,omitempty"`
	Title        string `json:"title,omitempty"`
	CustomMode   bool   `json:"customMode"`
	Instrumental bool   `json:"instrumental"`
	Model        string `json:"model"`
	NegativeTags string `json:"negativeTags,omitempty"`
	CallBackURL  string `json:"callBackUrl,omitempty"`
}

// SeparationRequest starts a stem separation task against one rendered variant
type SeparationRequest struct {
	TaskID      string `json:"taskId"`
	AudioID     string `json:"audioId"`
	Type        string `json:"type"`
	CallBackURL string `json:"callBackUrl,omitempty"`
}

// TaskResponse is returned by the task-creating endpoints
type TaskResponse struct {
	Code int       `json:"code"`
	Msg  string    `json:"msg"`
	Data *TaskData `json:"data"`
}

// TaskData holds the id of the created external task
type TaskData struct {
	TaskID string `json:"taskId"`
}

// GenerationDetails is the status envelope for a generation task
type GenerationDetails struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data *GenerationData `json:"data"`
}

// GenerationData is the task-level state of a generation
type GenerationData struct {
	TaskID       string              `json:"taskId"`
	Status       string              `json:"status"`
	ErrorMessage *string             `json:"errorMessage,omitempty"`
	Response     *GenerationResponse `json:"response,omitempty"`
}

// GenerationResponse carries the rendered tracks, positionally ordered
type GenerationResponse struct {
	Tracks []TrackData `json:"sunoData"`
}

// TrackData is one rendered variant as reported by the API
type TrackData struct {
	ID             string  `json:"id"`
	AudioURL       string  `json:"audioUrl"`
	StreamAudioURL string  `json:"streamAudioUrl"`
	ImageURL       string  `json:"imageUrl"`
	Duration       float64 `json:"duration"`
	Title          string  `json:"title,omitempty"`
	Tags           string  `json:"tags,omitempty"`
}

// StemDetails is the status envelope for a stem separation task
type StemDetails struct {
	Code int       `json:"code"`
	Msg  string    `json:"msg"`
	Data *StemData `json:"data"`
}

// StemData is the task-level state of a stem separation
type StemData struct {
	TaskID       string    `json:"taskId"`
	MusicID      string    `json:"musicId,omitempty"`
	SuccessFlag  string    `json:"successFlag"`
	ErrorMessage *string   `json:"errorMessage,omitempty"`
	Response     *StemURLs `json:"response,omitempty"`
}

// StemURLs are the separated outputs. Absent stems are omitted by the API.
type StemURLs struct {
	OriginURL        *string `json:"originUrl,omitempty"`
	InstrumentalURL  *string `json:"instrumentalUrl,omitempty"`
	VocalURL         *string `json:"vocalUrl,omitempty"`
	BackingVocalsURL *string `json:"backingVocalsUrl,omitempty"`
	DrumsURL         *string `json:"drumsUrl,omitempty"`
	BassURL          *string `json:"bassUrl,omitempty"`
	GuitarURL        *string `json:"guitarUrl,omitempty"`
	KeyboardURL      *string `json:"keyboardUrl,omitempty"`
	PercussionURL    *string `json:"percussionUrl,omitempty"`
	StringsURL       *string `json:"stringsUrl,omitempty"`
	SynthURL         *string `json:"synthUrl,omitempty"`
	FxURL            *string `json:"fxUrl,omitempty"`
	BrassURL         *string `json:"brassUrl,omitempty"`
	WoodwindsURL     *string `json:"woodwindsUrl,omitempty"`
}

// CreditsResponse reports the remaining account credits
type CreditsResponse struct {
	Code int     `json:"code"`
	Msg  string  `json:"msg"`
	Data float64 `json:"data"`
}

// APIError is a wrapper-level rejection (non-success code in a 2xx response)
type APIError struct {
	Code int
	Msg  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("suno API rejected request (code %d): %s", e.Code, e.Msg)
}
