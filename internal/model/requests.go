package model

// CreateGenerationRequest starts a new generation
type CreateGenerationRequest struct {
	ProjectID    *int64 `json:"project_id" validate:"omitempty,min=1"`
	Prompt       string `json:"prompt" validate:"required,max=5000"`
	Style        string `json:"style" validate:"omitempty,max=1000"`
	Title        string `json:"title" validate:"omitempty,max=100"`
	Instrumental bool   `json:"instrumental"`
	Model        string `json:"model" validate:"omitempty,oneof=V3_5 V4 V4_5 V4_5PLUS V5"`
	NegativeTags string `json:"negative_tags" validate:"omitempty,max=200"`
}

// CreateStemSeparationRequest starts a separation of one variant of a generation
type CreateStemSeparationRequest struct {
	AudioID string         `json:"audio_id" validate:"required"`
	Type    SeparationType `json:"type" validate:"required,oneof=separate_vocal split_stem"`
}

// ProjectRequest creates or renames a project
type ProjectRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=120"`
	Description string `json:"description" validate:"max=2000"`
}

// AnnotationRequest replaces the annotation of one variant
type AnnotationRequest struct {
	Rating   int      `json:"rating" validate:"min=0,max=5"`
	Favorite bool     `json:"favorite"`
	Notes    string   `json:"notes" validate:"max=5000"`
	Labels   []string `json:"labels" validate:"omitempty,max=20,dive,min=1,max=40"`
}
