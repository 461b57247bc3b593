package models

// Prompt modes select the system prompt of AI calls
const (
	ModeDefault = "default"
	ModeAudio   = "audio"
)

// SolveRequest asks for a step-by-step solution of one exercise
type SolveRequest struct {
	ExerciseText string `json:"exerciseText" validate:"required"`
	APIKey       string `json:"apiKey,omitempty"`
	ModelID      string `json:"modelId,omitempty"`
	Mode         string `json:"mode,omitempty" validate:"omitempty,oneof=default audio"`
}

// FeedbackExercise is one exercise of a completed section as sent by the client
type FeedbackExercise struct {
	Topic             string `json:"tema"`
	Statement         string `json:"enunciado"`
	SupplementaryText string `json:"ejercicio,omitempty"`
}

// FeedbackRequest asks for feedback on a completed section.
// Responses are matched to exercises by index.
type FeedbackRequest struct {
	Exercises    []FeedbackExercise `json:"exercises" validate:"required,min=1"`
	Responses    []string           `json:"responses"`
	APIKey       string             `json:"apiKey,omitempty"`
	ModelID      string             `json:"modelId,omitempty"`
	CustomPrompt string             `json:"customPrompt,omitempty"`
	Mode         string             `json:"mode,omitempty" validate:"omitempty,oneof=default audio"`
}
