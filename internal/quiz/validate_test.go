package quiz

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func question(text, answer string, options ...string) map[string]any {
	opts := make([]any, 0, len(options))
	for _, o := range options {
		opts = append(opts, o)
	}
	q := map[string]any{"question": text, "options": opts}
	if answer != "" {
		q["correctAnswer"] = answer
	}
	return q
}

func fourOptions() []string {
	return []string{"A. one", "B. two", "C. three", "D. four"}
}

func TestValidateRejectsMalformedPayloads(t *testing.T) {
	cases := []struct {
		name    string
		payload any
		want    error
	}{
		{"not an array", map[string]any{"questions": []any{}}, ErrNotArray},
		{"empty array", []any{}, ErrEmptyQuiz},
		{"element not object", []any{"question?"}, ErrNotObject},
		{"missing question", []any{question("", "A", fourOptions()...)}, ErrMissingQuestion},
		{"three options", []any{question("q", "A", "A. x", "B. y", "C. z")}, ErrBadOptions},
		{"missing correct answer", []any{question("q", "", fourOptions()...)}, ErrMissingCorrectAnswer},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			set, err := Validate(tc.payload)
			assert.Nil(t, set)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
			assert.Equal(t, KindStructure, KindOf(err))
		})
	}
}

func TestValidateIsAtomic(t *testing.T) {
	payload := []any{
		question("good", "A", fourOptions()...),
		question("bad", "B", "A. x"),
	}

	set, err := Validate(payload)
	assert.Nil(t, set)
	assert.ErrorIs(t, err, ErrBadOptions)
}

func TestValidateKeepsOrder(t *testing.T) {
	const n = 7
	payload := make([]any, 0, n)
	for i := 0; i < n; i++ {
		payload = append(payload, question(fmt.Sprintf("q%d", i), OptionKeys[i%4], fourOptions()...))
	}

	set, err := Validate(payload)
	require.NoError(t, err)
	require.Len(t, set, n)
	for i, q := range set {
		assert.Equal(t, fmt.Sprintf("q%d", i), q.Question)
		assert.Equal(t, OptionKeys[i%4], q.CorrectAnswer)
		assert.Equal(t, fourOptions(), q.Options)
	}
}

func TestValidateAcceptsOutOfDomainLetter(t *testing.T) {
	set, err := Validate([]any{question("q", "E", fourOptions()...)})
	require.NoError(t, err)
	assert.Equal(t, "", set[0].CorrectOption())
}

func TestValidateAfterExtraction(t *testing.T) {
	raw := "Here:\n```json\n[{“question”: “What is 2+2?”, “options”: [“A. 3”, “B. 4”, “C. 5”, “D. 22”], “correctAnswer”: “B”}]\n```"

	v, err := ParseJSON(ExtractJSON(raw))
	require.NoError(t, err)
	set, err := Validate(v)
	require.NoError(t, err)
	require.Len(t, set, 1)
	assert.Equal(t, "B. 4", set[0].CorrectOption())
}

func TestValidateOptionEntries(t *testing.T) {
	set, err := Validate([]any{map[string]any{
		"question":      "Which are truthy?",
		"options":       []any{"A. yes", float64(42), true, "D. none"},
		"correctAnswer": "A",
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"A. yes", "42", "true", "D. none"}, set[0].Options)

	for name, bad := range map[string]any{
		"null":   nil,
		"object": map[string]any{"text": "C. x"},
		"array":  []any{"C. x"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Validate([]any{map[string]any{
				"question":      "q",
				"options":       []any{"A. a", "B. b", bad, "D. d"},
				"correctAnswer": "A",
			}})
			assert.ErrorIs(t, err, ErrBadOptions)
		})
	}
}
