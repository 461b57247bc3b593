// Package bkt estimates per-section topic domain, difficulty and progress.
// Despite the name, the estimates come from keyword heuristics, not a
// knowledge-tracing model.
package bkt

import (
	"math"
	"sort"
	"strings"

	"github.com/terra-clan/math-practice/internal/models"
)

// FallbackDomain is returned when no domain keyword matches
const FallbackDomain = "Matemáticas Generales"

const (
	progressBaseline   = 60
	progressPerItem    = 2
	progressCeiling    = 95
	progressMultiplier = 1.2
)

var progressTriggers = []string{"derivar", "integral"}

// DomainScore is the score of one candidate domain
type DomainScore struct {
	Domain string
	Score  int
}

// Scorer scores a lowercase text against candidate domains.
// Results are returned in declaration order, which decides ties.
type Scorer interface {
	Score(text string) []DomainScore
}

// KeywordTable is an ordered list of domains and the keywords that indicate them
type KeywordTable []DomainKeywords

// DomainKeywords lists the keywords of one domain
type DomainKeywords struct {
	Domain   string
	Keywords []string
}

// DefaultDomains is the built-in domain keyword table
var DefaultDomains = KeywordTable{
	{Domain: "Álgebra", Keywords: []string{"ecuación", "variable", "polinomio", "factorización", "raíz"}},
	{Domain: "Cálculo Diferencial", Keywords: []string{"derivada", "límite", "continuidad", "tangente", "razón de cambio"}},
	{Domain: "Cálculo Integral", Keywords: []string{"integral", "área", "volumen", "antiderivada"}},
	{Domain: "Geometría", Keywords: []string{"recta", "círculo", "triángulo", "área", "perímetro", "coordenadas"}},
	{Domain: "Trigonometría", Keywords: []string{"seno", "coseno", "tangente", "ángulo", "radianes"}},
	{Domain: "Funciones", Keywords: []string{"función", "dominio", "rango", "gráfica", "transformación"}},
	{Domain: "Preparación", Keywords: []string{"preparación", "repaso", "básico", "fundamentos"}},
}

var difficultyKeywords = map[models.DifficultyTier][]string{
	models.DifficultyBasic:        {"calcular", "encontrar", "graficar", "evaluar"},
	models.DifficultyIntermediate: {"demostrar", "aplicar", "resolver", "analizar"},
	models.DifficultyAdvanced:     {"optimizar", "integrar", "derivar", "modelar"},
}

// Section ids a domain builds on
var prerequisites = map[string][]int{
	"Preparación":         {},
	"Álgebra":             {1},
	"Funciones":           {1, 2},
	"Cálculo Diferencial": {1, 2, 3},
	"Cálculo Integral":    {1, 2, 3, 4},
	"Geometría":           {1},
	"Trigonometría":       {1, 2},
}

// KeywordScorer counts keyword occurrences per domain
type KeywordScorer struct {
	table KeywordTable
}

// NewKeywordScorer creates a scorer over table
func NewKeywordScorer(table KeywordTable) *KeywordScorer {
	return &KeywordScorer{table: table}
}

// Score implements Scorer
func (s *KeywordScorer) Score(text string) []DomainScore {
	scores := make([]DomainScore, 0, len(s.table))
	for _, entry := range s.table {
		scores = append(scores, DomainScore{
			Domain: entry.Domain,
			Score:  countKeywords(text, entry.Keywords),
		})
	}
	return scores
}

// Classifier derives SectionDomainInfo from exercises
type Classifier struct {
	scorer Scorer
}

// NewClassifier creates a classifier. A nil scorer uses the default keyword table.
func NewClassifier(scorer Scorer) *Classifier {
	if scorer == nil {
		scorer = NewKeywordScorer(DefaultDomains)
	}
	return &Classifier{scorer: scorer}
}

// Classify returns one entry per section that has exercises, by ascending section id
func (c *Classifier) Classify(exercises []*models.Exercise) []models.SectionDomainInfo {
	groups := make(map[int][]*models.Exercise)
	for _, ex := range exercises {
		groups[ex.SectionID] = append(groups[ex.SectionID], ex)
	}

	sectionIDs := make([]int, 0, len(groups))
	for id := range groups {
		sectionIDs = append(sectionIDs, id)
	}
	sort.Ints(sectionIDs)

	result := make([]models.SectionDomainInfo, 0, len(sectionIDs))
	for _, id := range sectionIDs {
		result = append(result, c.ClassifySection(id, groups[id]))
	}
	return result
}

// ClassifySection derives the info of one section from its exercises
func (c *Classifier) ClassifySection(sectionID int, exercises []*models.Exercise) models.SectionDomainInfo {
	domain := c.Domain(exercises)

	prereqs := prerequisites[domain]
	if prereqs == nil {
		prereqs = []int{}
	}

	return models.SectionDomainInfo{
		SectionID:       sectionID,
		DomainLabel:     domain,
		Topics:          distinctTopics(exercises),
		DifficultyTier:  Difficulty(exercises),
		ProgressPercent: Progress(exercises),
		ExerciseCount:   len(exercises),
		Prerequisites:   append([]int(nil), prereqs...),
	}
}

// Domain returns the best-scoring domain over topic, statement and
// supplementary text. Earlier domains win ties.
func (c *Classifier) Domain(exercises []*models.Exercise) string {
	var b strings.Builder
	// The topic is repeated per exercise, so a section's shared topic weighs
	// in once for each of its exercises.
	for _, ex := range exercises {
		b.WriteString(ex.Topic)
		b.WriteByte(' ')
		b.WriteString(ex.Statement)
		b.WriteByte(' ')
		b.WriteString(ex.SupplementaryText)
		b.WriteByte(' ')
	}

	best := FallbackDomain
	bestScore := 0
	for _, s := range c.scorer.Score(strings.ToLower(b.String())) {
		if s.Score > bestScore {
			best = s.Domain
			bestScore = s.Score
		}
	}
	return best
}

// Difficulty tiers a section from its statements only.
// Advanced must beat both others; otherwise intermediate must beat basic.
// Anything else is basic, even when advanced and intermediate tie above zero.
func Difficulty(exercises []*models.Exercise) models.DifficultyTier {
	text := statementsText(exercises)

	basic := countKeywords(text, difficultyKeywords[models.DifficultyBasic])
	inter := countKeywords(text, difficultyKeywords[models.DifficultyIntermediate])
	adv := countKeywords(text, difficultyKeywords[models.DifficultyAdvanced])

	if adv > inter && adv > basic {
		return models.DifficultyAdvanced
	}
	if inter > basic {
		return models.DifficultyIntermediate
	}
	return models.DifficultyBasic
}

// Progress is a synthetic completion estimate: (60 + 2n) scaled by 1.2 when
// any statement mentions a trigger keyword, rounded and capped at 95
func Progress(exercises []*models.Exercise) int {
	multiplier := 1.0
	for _, ex := range exercises {
		statement := strings.ToLower(ex.Statement)
		if containsAny(statement, progressTriggers) {
			multiplier = progressMultiplier
			break
		}
	}

	raw := float64(progressBaseline+progressPerItem*len(exercises)) * multiplier
	progress := int(math.Round(raw))
	if progress > progressCeiling {
		progress = progressCeiling
	}
	return progress
}

func statementsText(exercises []*models.Exercise) string {
	statements := make([]string, 0, len(exercises))
	for _, ex := range exercises {
		statements = append(statements, ex.Statement)
	}
	return strings.ToLower(strings.Join(statements, " "))
}

func distinctTopics(exercises []*models.Exercise) []string {
	seen := make(map[string]bool)
	topics := make([]string, 0)
	for _, ex := range exercises {
		if seen[ex.Topic] {
			continue
		}
		seen[ex.Topic] = true
		topics = append(topics, ex.Topic)
	}
	return topics
}

// countKeywords sums non-overlapping occurrences of every keyword in text.
// text must already be lowercase.
func countKeywords(text string, keywords []string) int {
	total := 0
	for _, kw := range keywords {
		total += strings.Count(text, kw)
	}
	return total
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
