package models

const (
	DefaultPomodoroMinutes = 25
	DefaultMaxTimeMinutes  = 10
	DefaultGroqModelID     = "llama-3.1-8b-instant"
	DefaultFeedbackPrompt  = "Eres un profesor de matemáticas experto. Analiza la respuesta del estudiante y proporciona retroalimentación constructiva con explicaciones claras y ejemplos cuando sea necesario."
)

// Settings is the singleton user preferences record
type Settings struct {
	ID              int     `json:"id"`
	PomodoroMinutes int     `json:"pomodoroMinutes"`
	MaxTimeMinutes  int     `json:"maxTimeMinutes"`
	GroqAPIKey      *string `json:"groqApiKey"`
	GroqModelID     string  `json:"groqModelId"`
	FeedbackPrompt  string  `json:"feedbackPrompt"`
	CurrentSection  int     `json:"currentSection"`
	CurrentExercise int     `json:"currentExercise"`
}

// DefaultSettings returns the settings record used before any update
func DefaultSettings() Settings {
	return Settings{
		ID:              1,
		PomodoroMinutes: DefaultPomodoroMinutes,
		MaxTimeMinutes:  DefaultMaxTimeMinutes,
		GroqModelID:     DefaultGroqModelID,
		FeedbackPrompt:  DefaultFeedbackPrompt,
		CurrentSection:  1,
		CurrentExercise: 0,
	}
}

// SettingsPatch is a partial settings update. Nil fields are left unchanged.
type SettingsPatch struct {
	PomodoroMinutes *int    `json:"pomodoroMinutes,omitempty" validate:"omitempty,min=1,max=180"`
	MaxTimeMinutes  *int    `json:"maxTimeMinutes,omitempty" validate:"omitempty,min=1,max=180"`
	GroqAPIKey      *string `json:"groqApiKey,omitempty"`
	GroqModelID     *string `json:"groqModelId,omitempty" validate:"omitempty,min=1"`
	FeedbackPrompt  *string `json:"feedbackPrompt,omitempty"`
	CurrentSection  *int    `json:"currentSection,omitempty" validate:"omitempty,min=1"`
	CurrentExercise *int    `json:"currentExercise,omitempty" validate:"omitempty,min=0"`
}

// Apply merges the non-nil fields of p into s
func (p SettingsPatch) Apply(s *Settings) {
	if p.PomodoroMinutes != nil {
		s.PomodoroMinutes = *p.PomodoroMinutes
	}
	if p.MaxTimeMinutes != nil {
		s.MaxTimeMinutes = *p.MaxTimeMinutes
	}
	if p.GroqAPIKey != nil {
		key := *p.GroqAPIKey
		s.GroqAPIKey = &key
	}
	if p.GroqModelID != nil {
		s.GroqModelID = *p.GroqModelID
	}
	if p.FeedbackPrompt != nil {
		s.FeedbackPrompt = *p.FeedbackPrompt
	}
	if p.CurrentSection != nil {
		s.CurrentSection = *p.CurrentSection
	}
	if p.CurrentExercise != nil {
		s.CurrentExercise = *p.CurrentExercise
	}
}
