package quiz

import (
	"fmt"
	"strings"
)

// TargetQuestionCount is how many questions a prompt asks the model for.
const TargetQuestionCount = 20

// Difficulty levels accepted from the quiz form.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Mode selects between a general quiz and a topic-scoped one.
type Mode string

const (
	ModeDefault Mode = "default"
	ModePrompt  Mode = "prompt"
)

// OptionKeys is the fixed letter sequence matched against CorrectAnswer.
var OptionKeys = []string{"A", "B", "C", "D"}

// Config is the generation request supplied once per session.
type Config struct {
	Language   string     `json:"language"`
	Difficulty Difficulty `json:"difficulty"`
	Mode       Mode       `json:"mode"`
	Topic      string     `json:"topic,omitempty"`
}

// Validate reports every missing or unsupported parameter as a ConfigError.
func (c Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.Language) == "" {
		missing = append(missing, "language")
	}
	if c.Difficulty == "" {
		missing = append(missing, "difficulty")
	}
	if c.Mode == "" {
		missing = append(missing, "mode")
	}
	if c.Mode == ModePrompt && strings.TrimSpace(c.Topic) == "" {
		missing = append(missing, "topic")
	}
	if len(missing) > 0 {
		return &Error{
			Kind:    KindConfig,
			Message: "quiz parameters are missing: " + strings.Join(missing, ", "),
			Detail:  strings.Join(missing, ", "),
			Err:     ErrMissingParameter,
		}
	}

	switch c.Difficulty {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
	default:
		return &Error{
			Kind:    KindConfig,
			Message: fmt.Sprintf("unsupported difficulty %q", c.Difficulty),
			Err:     ErrUnsupportedParameter,
		}
	}
	switch c.Mode {
	case ModeDefault, ModePrompt:
	default:
		return &Error{
			Kind:    KindConfig,
			Message: fmt.Sprintf("unsupported quiz mode %q", c.Mode),
			Err:     ErrUnsupportedParameter,
		}
	}
	return nil
}

// Title renders the quiz header, e.g. "Custom AI Quiz: Go - Advanced (generics)".
func (c Config) Title() string {
	kind := "Default Quiz"
	if c.Mode == ModePrompt {
		kind = "Custom AI Quiz"
	}
	title := fmt.Sprintf("%s: %s - %s", kind, c.Language, capitalize(string(c.Difficulty)))
	if c.Mode == ModePrompt {
		title += " (" + c.Topic + ")"
	}
	return title
}

// LoadingText describes the generation in progress.
func (c Config) LoadingText() string {
	if c.Mode == ModePrompt {
		return fmt.Sprintf("Creating a custom quiz about %q", c.Topic)
	}
	return fmt.Sprintf("Generating a %s level %s quiz", c.Difficulty, c.Language)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Question is a validated multiple-choice record.
type Question struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
}

// CorrectOption returns the option text labelled by CorrectAnswer, or "" when
// the letter is outside A-D.
func (q Question) CorrectOption() string {
	for i, key := range OptionKeys {
		if key == q.CorrectAnswer && i < len(q.Options) {
			return q.Options[i]
		}
	}
	return ""
}

// Set is the ordered question sequence driving one session.
type Set []Question

// IsOptionKey reports whether letter is one of A-D.
func IsOptionKey(letter string) bool {
	for _, key := range OptionKeys {
		if key == letter {
			return true
		}
	}
	return false
}
