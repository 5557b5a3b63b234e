package quiz

import (
	"fmt"
	"strings"
)

// BuildPrompt renders the generation prompt for cfg. Callers must run
// cfg.Validate first; a prompt-mode config without a topic is not rejected here.
func BuildPrompt(cfg Config) string {
	builder := strings.Builder{}

	builder.WriteString("Generate a ")
	builder.WriteString(string(cfg.Difficulty))
	builder.WriteString(" level programming quiz in ")
	builder.WriteString(cfg.Language)
	if cfg.Mode == ModePrompt {
		builder.WriteString(fmt.Sprintf(" about %q", cfg.Topic))
	}
	builder.WriteString(". ")

	builder.WriteString(fmt.Sprintf("Provide %d multiple-choice questions. ", TargetQuestionCount))
	builder.WriteString("For each question, include the question text, 4 options (A, B, C, D), ")
	builder.WriteString("and the correct answer (e.g., \"A\", \"B\", \"C\", or \"D\"). ")
	builder.WriteString("Format the output as a JSON array of objects, where each object has \"question\", ")
	builder.WriteString("\"options\" (an array of strings), and \"correctAnswer\" (a string). ")
	builder.WriteString("Ensure the options are clearly labeled A, B, C, D within the option string itself ")
	builder.WriteString("(e.g., \"A. Option 1\", \"B. Option 2\"). ")
	builder.WriteString("Wrap your response in triple backticks like ```json ... ```")

	return builder.String()
}
