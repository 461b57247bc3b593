package exercises

import (
	"regexp"

	"github.com/terra-clan/math-practice/internal/models"
)

// DefaultSectionKey groups entries that carry no section information
const DefaultSectionKey = "default"

var sectionToken = regexp.MustCompile(`(?i)secci[oó]n\s*\d+`)

// SectionKey derives the grouping key of a raw entry.
// Precedence: explicit label, then source file, then a "Sección N" token in the topic.
func SectionKey(raw models.RawExerciseEntry) string {
	if raw.SectionLabel != "" {
		return raw.SectionLabel
	}
	if raw.SourceFileTag != "" {
		return raw.SourceFileTag
	}
	if token := sectionToken.FindString(raw.Topic); token != "" {
		return token
	}
	return DefaultSectionKey
}

// Process turns raw entries into exercises. Section ids are dense from 1 in
// first-seen key order; order is a zero-based counter within each section.
func Process(raw []models.RawExerciseEntry) []models.NewExercise {
	sectionIDs := make(map[string]int)
	next := 1
	for _, entry := range raw {
		key := SectionKey(entry)
		if _, ok := sectionIDs[key]; !ok {
			sectionIDs[key] = next
			next++
		}
	}

	result := make([]models.NewExercise, 0, len(raw))
	orders := make(map[int]int, len(sectionIDs))
	for _, entry := range raw {
		sectionID := sectionIDs[SectionKey(entry)]

		supplementary := entry.SupplementaryText
		if supplementary == "" {
			supplementary = string(entry.ExternalID)
		}

		result = append(result, models.NewExercise{
			SectionID:         sectionID,
			Topic:             entry.Topic,
			Statement:         entry.Statement,
			SupplementaryText: supplementary,
			Order:             orders[sectionID],
		})
		orders[sectionID]++
	}

	return result
}

// DefaultExercises is the content served when no section file yields any exercise
func DefaultExercises() []models.NewExercise {
	return []models.NewExercise{
		{
			SectionID:         1,
			Topic:             "Preparación para el cálculo",
			Statement:         "Calcular la pendiente de la recta a partir de su gráfica.",
			SupplementaryText: "Gráfica que pasa por (0, 2) y (2, 0).",
			Order:             0,
		},
		{
			SectionID:         1,
			Topic:             "Preparación para el cálculo",
			Statement:         "Escribir la ecuación de la recta que pase por el punto y que sea paralela a la recta dada.",
			SupplementaryText: "Punto: (3, 2), Recta: 4x - 2y = 3",
			Order:             1,
		},
		{
			SectionID:         2,
			Topic:             "Funciones y Gráficas",
			Statement:         "Realice un boceto de la gráfica de la función.",
			SupplementaryText: "y = -(2^x)",
			Order:             0,
		},
	}
}
