package bkt

import (
	"reflect"
	"testing"

	"github.com/terra-clan/math-practice/internal/models"
)

func exercisesWith(sectionID int, statements ...string) []*models.Exercise {
	result := make([]*models.Exercise, 0, len(statements))
	for i, s := range statements {
		result = append(result, &models.Exercise{
			ID:        i + 1,
			SectionID: sectionID,
			Topic:     "Tema",
			Statement: s,
			Order:     i,
		})
	}
	return result
}

func TestDomain(t *testing.T) {
	c := NewClassifier(nil)

	tests := []struct {
		name       string
		statements []string
		want       string
	}{
		{"derivada three times", []string{"Derivada de x", "otra DERIVADA", "la derivada"}, "Cálculo Diferencial"},
		{"no keywords", []string{"nada que ver"}, FallbackDomain},
		// área counts for both Cálculo Integral and Geometría; the earlier entry wins
		{"tie goes to earlier domain", []string{"el área"}, "Cálculo Integral"},
		{"accented keyword", []string{"Resolver la ECUACIÓN"}, "Álgebra"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Domain(exercisesWith(1, tt.statements...)); got != tt.want {
				t.Errorf("Domain() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDomain_UsesTopicAndSupplementaryText(t *testing.T) {
	c := NewClassifier(nil)
	exercises := []*models.Exercise{
		{SectionID: 1, Topic: "Trigonometría: seno y coseno", Statement: "", SupplementaryText: "ángulo de 30 grados"},
	}
	if got := c.Domain(exercises); got != "Trigonometría" {
		t.Errorf("Domain() = %q, want Trigonometría", got)
	}
}

func TestDomain_TopicCountsOncePerExercise(t *testing.T) {
	c := NewClassifier(nil)
	exercises := []*models.Exercise{
		{SectionID: 1, Topic: "Integral", Statement: "Calcular la derivada de x"},
		{SectionID: 1, Topic: "Integral", Statement: "Hallar la derivada de x^2"},
		{SectionID: 1, Topic: "Integral", Statement: "Resolver"},
	}
	// three topic hits outweigh two statement hits
	if got := c.Domain(exercises); got != "Cálculo Integral" {
		t.Errorf("Domain() = %q, want Cálculo Integral", got)
	}
}

func TestDifficulty(t *testing.T) {
	tests := []struct {
		name       string
		statements []string
		want       models.DifficultyTier
	}{
		{"two advanced one intermediate", []string{"Optimizar el área", "Derivar y resolver"}, models.DifficultyAdvanced},
		{"one intermediate only", []string{"Demostrar la propiedad"}, models.DifficultyIntermediate},
		{"all zero", []string{"sin palabras clave"}, models.DifficultyBasic},
		{"intermediate ties basic", []string{"calcular y resolver"}, models.DifficultyBasic},
		{"advanced ties intermediate above basic", []string{"modelar y aplicar"}, models.DifficultyIntermediate},
		{"advanced ties intermediate ties basic", []string{"modelar, aplicar, evaluar"}, models.DifficultyBasic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Difficulty(exercisesWith(1, tt.statements...)); got != tt.want {
				t.Errorf("Difficulty() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDifficulty_IgnoresSupplementaryText(t *testing.T) {
	exercises := []*models.Exercise{
		{SectionID: 1, Statement: "Encontrar x", SupplementaryText: "optimizar optimizar optimizar"},
	}
	if got := Difficulty(exercises); got != models.DifficultyBasic {
		t.Errorf("Difficulty() = %q, want basico", got)
	}
}

func TestProgress(t *testing.T) {
	five := []string{"a", "b", "c", "d", "e"}
	if got := Progress(exercisesWith(1, five...)); got != 70 {
		t.Errorf("Progress(5 plain) = %d, want 70", got)
	}

	withTrigger := append([]string{}, five...)
	withTrigger[2] = "Hallar la INTEGRAL definida"
	if got := Progress(exercisesWith(1, withTrigger...)); got != 84 {
		t.Errorf("Progress(5 with trigger) = %d, want 84", got)
	}

	many := make([]string, 40)
	if got := Progress(exercisesWith(1, many...)); got != 95 {
		t.Errorf("Progress(40) = %d, want 95", got)
	}

	if got := Progress(nil); got != 60 {
		t.Errorf("Progress(0) = %d, want 60", got)
	}
}

func TestClassify(t *testing.T) {
	exercises := []*models.Exercise{
		{ID: 1, SectionID: 2, Topic: "Límites", Statement: "Calcular la derivada"},
		{ID: 2, SectionID: 1, Topic: "Repaso", Statement: "Repaso de fundamentos"},
		{ID: 3, SectionID: 2, Topic: "Derivadas", Statement: "Derivar f(x)"},
		{ID: 4, SectionID: 2, Topic: "Límites", Statement: "Evaluar el límite"},
	}

	got := NewClassifier(nil).Classify(exercises)
	if len(got) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(got))
	}

	if got[0].SectionID != 1 || got[1].SectionID != 2 {
		t.Fatalf("sections not sorted by id: %+v", got)
	}

	prep := got[0]
	if prep.DomainLabel != "Preparación" {
		t.Errorf("section 1 domain = %q, want Preparación", prep.DomainLabel)
	}
	if len(prep.Prerequisites) != 0 || prep.Prerequisites == nil {
		t.Errorf("expected empty non-nil prerequisites, got %v", prep.Prerequisites)
	}

	calc := got[1]
	if calc.DomainLabel != "Cálculo Diferencial" {
		t.Errorf("section 2 domain = %q, want Cálculo Diferencial", calc.DomainLabel)
	}
	if !reflect.DeepEqual(calc.Topics, []string{"Límites", "Derivadas"}) {
		t.Errorf("unexpected topics: %v", calc.Topics)
	}
	if calc.ExerciseCount != 3 {
		t.Errorf("exerciseCount = %d, want 3", calc.ExerciseCount)
	}
	// 60 + 6 = 66, x1.2 for "derivar" = 79.2
	if calc.ProgressPercent != 79 {
		t.Errorf("progress = %d, want 79", calc.ProgressPercent)
	}
	if !reflect.DeepEqual(calc.Prerequisites, []int{1, 2, 3}) {
		t.Errorf("unexpected prerequisites: %v", calc.Prerequisites)
	}
}

type fixedScorer struct{ scores []DomainScore }

func (f fixedScorer) Score(string) []DomainScore { return f.scores }

func TestClassifier_CustomScorer(t *testing.T) {
	c := NewClassifier(fixedScorer{scores: []DomainScore{{"A", 1}, {"B", 3}, {"C", 3}}})
	if got := c.Domain(exercisesWith(1, "x")); got != "B" {
		t.Errorf("Domain() = %q, want B", got)
	}
}
