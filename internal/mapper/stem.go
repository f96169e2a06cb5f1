package mapper

import (
	"github.com/makeasinger/studio/internal/client"
	"github.com/makeasinger/studio/internal/model"
)

// StemCompletion is the full result of a finished stem separation
type StemCompletion struct {
	Fields       model.StemURLs
	ResponseData string
	Payload      model.StemPayload
}

// MapStemCompletion returns nil when the payload has no response data, which means the
// separation is not actually complete yet.
func MapStemCompletion(data *client.StemData) *StemCompletion {
	if data == nil || data.Response == nil {
		return nil
	}

	r := data.Response
	fields := model.StemURLs{
		OriginURL:        present(r.OriginURL),
		InstrumentalURL:  present(r.InstrumentalURL),
		VocalURL:         present(r.VocalURL),
		BackingVocalsURL: present(r.BackingVocalsURL),
		DrumsURL:         present(r.DrumsURL),
		BassURL:          present(r.BassURL),
		GuitarURL:        present(r.GuitarURL),
		KeyboardURL:      present(r.KeyboardURL),
		PercussionURL:    present(r.PercussionURL),
		StringsURL:       present(r.StringsURL),
		SynthURL:         present(r.SynthURL),
		FxURL:            present(r.FxURL),
		BrassURL:         present(r.BrassURL),
		WoodwindsURL:     present(r.WoodwindsURL),
	}
	raw := serialize(data)

	payloadFields := fields
	return &StemCompletion{
		Fields:       fields,
		ResponseData: raw,
		Payload: model.StemPayload{
			Status:       model.StemSuccess,
			StemURLs:     &payloadFields,
			ResponseData: raw,
		},
	}
}

// present normalizes empty strings to absent
func present(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}
