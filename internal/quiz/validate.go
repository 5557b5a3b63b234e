package quiz

import (
	"fmt"
)

// Validate turns a parsed payload into a Set. Any malformed element rejects
// the whole payload. The correctAnswer letter domain is not checked here.
func Validate(v any) (Set, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, structureError(ErrNotArray, "parsed data is not an array of quiz questions")
	}
	if len(items) == 0 {
		return nil, structureError(ErrEmptyQuiz, "parsed data is empty")
	}

	set := make(Set, 0, len(items))
	for i, item := range items {
		q, err := validateQuestion(item)
		if err != nil {
			return nil, structureError(err, fmt.Sprintf(
				"generated quiz data has an invalid structure at question %d: %v. "+
					`Each question must have "question", "options" (array of 4), and "correctAnswer"`, i+1, err))
		}
		set = append(set, q)
	}
	return set, nil
}

func validateQuestion(item any) (Question, error) {
	obj, ok := item.(map[string]any)
	if !ok {
		return Question{}, ErrNotObject
	}

	text, _ := obj["question"].(string)
	if text == "" {
		return Question{}, ErrMissingQuestion
	}

	rawOptions, ok := obj["options"].([]any)
	if !ok || len(rawOptions) != len(OptionKeys) {
		return Question{}, ErrBadOptions
	}
	options := make([]string, 0, len(rawOptions))
	for _, opt := range rawOptions {
		switch o := opt.(type) {
		case string:
			options = append(options, o)
		case float64, bool:
			options = append(options, fmt.Sprint(o))
		default:
			return Question{}, ErrBadOptions
		}
	}

	answer, _ := obj["correctAnswer"].(string)
	if answer == "" {
		return Question{}, ErrMissingCorrectAnswer
	}

	return Question{
		Question:      text,
		Options:       options,
		CorrectAnswer: answer,
	}, nil
}

func structureError(err error, msg string) *Error {
	return &Error{Kind: KindStructure, Message: msg, Err: err}
}
