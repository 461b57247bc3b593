package exercises

import (
	"reflect"
	"testing"

	"github.com/terra-clan/math-practice/internal/models"
)

func TestSectionKey_Precedence(t *testing.T) {
	tests := []struct {
		name string
		raw  models.RawExerciseEntry
		want string
	}{
		{
			name: "explicit label wins",
			raw:  models.RawExerciseEntry{SectionLabel: "Seccion 9", SourceFileTag: "a.json", Topic: "Sección 2"},
			want: "Seccion 9",
		},
		{
			name: "source file over topic token",
			raw:  models.RawExerciseEntry{SourceFileTag: "a.json", Topic: "Sección 2: Límites"},
			want: "a.json",
		},
		{
			name: "topic token with accent",
			raw:  models.RawExerciseEntry{Topic: "Repaso - Sección 3 derivadas"},
			want: "Sección 3",
		},
		{
			name: "topic token case insensitive without space",
			raw:  models.RawExerciseEntry{Topic: "seccion4"},
			want: "seccion4",
		},
		{
			name: "fallback",
			raw:  models.RawExerciseEntry{Topic: "Funciones"},
			want: DefaultSectionKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SectionKey(tt.raw); got != tt.want {
				t.Errorf("SectionKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProcess_SectionIDsAndOrder(t *testing.T) {
	raw := []models.RawExerciseEntry{
		{Topic: "A", Statement: "a0", SourceFileTag: "1_a.json"},
		{Topic: "B", Statement: "b0", SourceFileTag: "2_b.json"},
		{Topic: "A", Statement: "a1", SourceFileTag: "1_a.json"},
		{Topic: "C", Statement: "", SectionLabel: "Seccion 9", ExternalID: "ex-3"},
		{Topic: "B", Statement: "b1", SourceFileTag: "2_b.json", SupplementaryText: "y = x"},
		{Topic: "A", Statement: "a2", SourceFileTag: "1_a.json"},
	}

	got := Process(raw)
	if len(got) != len(raw) {
		t.Fatalf("expected %d exercises, got %d", len(raw), len(got))
	}

	wantSection := []int{1, 2, 1, 3, 2, 1}
	wantOrder := []int{0, 0, 1, 0, 1, 2}
	for i, ex := range got {
		if ex.SectionID != wantSection[i] {
			t.Errorf("exercise %d: sectionId = %d, want %d", i, ex.SectionID, wantSection[i])
		}
		if ex.Order != wantOrder[i] {
			t.Errorf("exercise %d: order = %d, want %d", i, ex.Order, wantOrder[i])
		}
	}

	// Empty statements are kept and the external id fills in missing supplementary text
	if got[3].Statement != "" || got[3].SupplementaryText != "ex-3" {
		t.Errorf("unexpected exercise 3: %+v", got[3])
	}
	if got[4].SupplementaryText != "y = x" {
		t.Errorf("expected supplementary text kept, got %q", got[4].SupplementaryText)
	}
}

func TestProcess_OrderIsContiguousPerSection(t *testing.T) {
	var raw []models.RawExerciseEntry
	for i := 0; i < 30; i++ {
		raw = append(raw, models.RawExerciseEntry{
			Topic:         "T",
			SourceFileTag: []string{"x.json", "y.json", "z.json"}[i%3],
		})
	}

	seen := make(map[int][]int)
	for _, ex := range Process(raw) {
		seen[ex.SectionID] = append(seen[ex.SectionID], ex.Order)
	}

	if len(seen) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(seen))
	}
	for sectionID, orders := range seen {
		for i, order := range orders {
			if order != i {
				t.Errorf("section %d: orders %v are not 0..n-1", sectionID, orders)
				break
			}
		}
	}
}

func TestProcess_Deterministic(t *testing.T) {
	raw := []models.RawExerciseEntry{
		{Topic: "Sección 2 intro"},
		{Topic: "otro"},
		{Topic: "Sección 1"},
		{Topic: "Sección 2 más"},
	}

	first := Process(raw)
	second := Process(raw)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Process is not deterministic:\n%+v\n%+v", first, second)
	}

	// first-seen key order: "Sección 2" -> 1, "default" -> 2, "Sección 1" -> 3
	if first[0].SectionID != 1 || first[1].SectionID != 2 || first[2].SectionID != 3 || first[3].SectionID != 1 {
		t.Errorf("unexpected section assignment: %+v", first)
	}
}

func TestProcess_Empty(t *testing.T) {
	if got := Process(nil); len(got) != 0 {
		t.Errorf("expected no exercises, got %d", len(got))
	}
}

func TestDefaultExercises(t *testing.T) {
	defaults := DefaultExercises()
	if len(defaults) != 3 {
		t.Fatalf("expected 3 default exercises, got %d", len(defaults))
	}
	if defaults[2].SectionID != 2 || defaults[2].Order != 0 {
		t.Errorf("unexpected third default exercise: %+v", defaults[2])
	}
}
