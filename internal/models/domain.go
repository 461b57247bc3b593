package models

// DifficultyTier is the heuristic difficulty of a section
type DifficultyTier string

const (
	DifficultyBasic        DifficultyTier = "basico"
	DifficultyIntermediate DifficultyTier = "intermedio"
	DifficultyAdvanced     DifficultyTier = "avanzado"
)

// SectionDomainInfo describes the estimated topic domain of one section.
// It is derived from the current exercise set and never persisted.
type SectionDomainInfo struct {
	SectionID       int            `json:"sectionId"`
	DomainLabel     string         `json:"domain"`
	Topics          []string       `json:"topics"`
	DifficultyTier  DifficultyTier `json:"difficulty"`
	ProgressPercent int            `json:"progress"`
	ExerciseCount   int            `json:"exerciseCount"`
	Prerequisites   []int          `json:"prerequisites"`
}
