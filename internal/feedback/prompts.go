package feedback

import (
	"fmt"
	"strings"

	"github.com/terra-clan/math-practice/internal/models"
)

const (
	systemPromptDefault = `Genera una demostración correcta usando expresiones como $\sqrt{x}$ o $\sqrt[n]{x}$ o $\lim_{x \to 0} x$ o $\sin(x)$ o $\cos(x)$ o $\log{x}$ o $\frac{a}{b}$ según corresponda`

	systemPromptAudio = `Imagina que eres un profesor explicando en voz alta a un estudiante. Habla con un tono directo y claro, como si grabaras un podcast educativo. Demuestra paso a paso. Usa frases como "la raíz cuadrada de x" en vez de símbolos LaTeX. Evita etiquetas HTML.`

	solvePrefix = "Por favor, resuelve el siguiente ejercicio de matemáticas paso a paso:\n\n"

	feedbackIntro = "He completado una sección de ejercicios de matemáticas. Por favor, proporciona retroalimentación sobre mi progreso:\n\n"

	feedbackInstructions = "Por favor, proporciona:\n" +
		"1. Retroalimentación general sobre mi comprensión\n" +
		"2. Áreas que debo mejorar\n" +
		"3. Sugerencias para seguir estudiando\n" +
		"4. Usa LaTeX para fórmulas matemáticas cuando sea necesario (formato $formula$ para inline y $$formula$$ para display).\n"

	noResponse = "Sin respuesta"
)

// SystemPrompt returns the system prompt of a mode
func SystemPrompt(mode string) string {
	if mode == models.ModeAudio {
		return systemPromptAudio
	}
	return systemPromptDefault
}

// SolvePrompt builds the user prompt asking for a worked solution
func SolvePrompt(exerciseText string) string {
	return solvePrefix + exerciseText
}

// SectionFeedbackPrompt builds the user prompt for a completed section.
// A blank custom prompt falls back to the built-in introduction and instructions.
func SectionFeedbackPrompt(exercises []models.FeedbackExercise, responses []string, customPrompt string) string {
	custom := strings.TrimSpace(customPrompt) != ""

	var b strings.Builder
	if custom {
		b.WriteString(customPrompt)
		b.WriteString("\n\nEjercicios y respuestas:\n")
	} else {
		b.WriteString(feedbackIntro)
	}

	for i, ex := range exercises {
		response := noResponse
		if i < len(responses) && responses[i] != "" {
			response = responses[i]
		}

		fmt.Fprintf(&b, "Ejercicio %d: %s\n", i+1, ex.Topic)
		fmt.Fprintf(&b, "Enunciado: %s\n", ex.Statement)
		if ex.SupplementaryText != "" {
			fmt.Fprintf(&b, "Ejercicio: %s\n", ex.SupplementaryText)
		}
		fmt.Fprintf(&b, "Mi respuesta: %s\n\n", response)
	}

	if !custom {
		b.WriteString(feedbackInstructions)
	}

	return b.String()
}
