package mapper

import (
	"encoding/json"

	"github.com/makeasinger/studio/internal/client"
	"github.com/makeasinger/studio/internal/model"
)

var progressStatuses = map[string]model.GenerationStatus{
	client.StatusPending:      model.GenerationProcessing,
	client.StatusTextSuccess:  model.GenerationTextSuccess,
	client.StatusFirstSuccess: model.GenerationFirstSuccess,
}

// GenerationCompletion is the full result of a finished generation
type GenerationCompletion struct {
	Track1       model.CompletedTrack
	Track2       model.CompletedTrack
	ResponseData string
	Payload      model.GenerationPayload
}

// GenerationProgress is the decision for a generation that has not finished yet.
// TrackUpdate is set only when early preview URLs are available.
type GenerationProgress struct {
	Status      model.GenerationStatus
	TrackUpdate *TrackUpdate
	Payload     model.GenerationPayload
}

// TrackUpdate holds provisional track fields to merge into the stored record
type TrackUpdate struct {
	Track1  model.ProvisionalTrack
	Track2  model.ProvisionalTrack
	Payload model.GenerationPayload
}

// MapGenerationCompletion returns nil unless the payload carries both tracks of the pair,
// whatever status the wrapper claims.
func MapGenerationCompletion(data *client.GenerationData) *GenerationCompletion {
	tracks := tracksOf(data)
	if len(tracks) < 2 {
		return nil
	}

	t1 := completedTrack(tracks[0])
	t2 := completedTrack(tracks[1])
	raw := serialize(data)

	return &GenerationCompletion{
		Track1:       t1,
		Track2:       t2,
		ResponseData: raw,
		Payload: model.GenerationPayload{
			Status:       model.GenerationSuccess,
			Track1:       completedPayload(t1),
			Track2:       completedPayload(t2),
			ResponseData: raw,
		},
	}
}

// MapGenerationProgress maps an in-flight external status. Unknown statuses map to processing.
func MapGenerationProgress(data *client.GenerationData) GenerationProgress {
	external := ""
	if data != nil {
		external = data.Status
	}

	status, ok := progressStatuses[external]
	if !ok {
		status = model.GenerationProcessing
	}

	progress := GenerationProgress{
		Status:  status,
		Payload: model.GenerationPayload{Status: status},
	}

	if external != client.StatusTextSuccess && external != client.StatusFirstSuccess {
		return progress
	}

	tracks := tracksOf(data)
	if !hasStreamURL(tracks) {
		return progress
	}

	t1 := provisionalTrack(tracks, 0)
	t2 := provisionalTrack(tracks, 1)
	progress.TrackUpdate = &TrackUpdate{
		Track1: t1,
		Track2: t2,
		Payload: model.GenerationPayload{
			Status: status,
			Track1: provisionalPayload(t1),
			Track2: provisionalPayload(t2),
		},
	}
	return progress
}

func tracksOf(data *client.GenerationData) []client.TrackData {
	if data == nil || data.Response == nil {
		return nil
	}
	return data.Response.Tracks
}

func hasStreamURL(tracks []client.TrackData) bool {
	for _, t := range tracks {
		if t.StreamAudioURL != "" {
			return true
		}
	}
	return false
}

func completedTrack(t client.TrackData) model.CompletedTrack {
	return model.CompletedTrack{
		AudioID:   t.ID,
		StreamURL: t.StreamAudioURL,
		AudioURL:  t.AudioURL,
		ImageURL:  t.ImageURL,
		Duration:  t.Duration,
	}
}

func provisionalTrack(tracks []client.TrackData, i int) model.ProvisionalTrack {
	if i >= len(tracks) {
		return model.ProvisionalTrack{}
	}
	return model.ProvisionalTrack{
		AudioID:   tracks[i].ID,
		StreamURL: tracks[i].StreamAudioURL,
		ImageURL:  tracks[i].ImageURL,
	}
}

func completedPayload(t model.CompletedTrack) *model.TrackPayload {
	return &model.TrackPayload{
		ID:        t.AudioID,
		StreamURL: t.StreamURL,
		AudioURL:  t.AudioURL,
		ImageURL:  t.ImageURL,
		Duration:  t.Duration,
	}
}

func provisionalPayload(t model.ProvisionalTrack) *model.TrackPayload {
	if t == (model.ProvisionalTrack{}) {
		return nil
	}
	return &model.TrackPayload{
		ID:        t.AudioID,
		StreamURL: t.StreamURL,
		ImageURL:  t.ImageURL,
	}
}

// serialize keeps a copy of the raw payload for auditing. These types always marshal.
func serialize(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
