package quiz

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var jsonFence = regexp.MustCompile("(?s)```json[ \\t]*\\r?\\n(.*?)```")

var quoteNormalizer = strings.NewReplacer(
	"“", `"`,
	"”", `"`,
	"‘", "'",
	"’", "'",
)

// ExtractJSON isolates the JSON span inside a model reply. It never fails:
// a ```json fence wins, then the first '[' through the last ']', then the
// whole text. Typographic quotes are straightened afterwards.
func ExtractJSON(raw string) string {
	span := strings.TrimSpace(raw)

	if m := jsonFence.FindStringSubmatch(raw); m != nil {
		span = m[1]
	} else if start, end := strings.Index(raw, "["), strings.LastIndex(raw, "]"); start >= 0 && end > start {
		span = raw[start : end+1]
	}

	return strings.TrimSpace(quoteNormalizer.Replace(span))
}

// ParseJSON strictly decodes text into generic JSON values.
func ParseJSON(text string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, &Error{
			Kind:    KindParse,
			Message: fmt.Sprintf("the response was not valid JSON. Details: %v", err),
			Detail:  text,
			Err:     err,
		}
	}
	return v, nil
}
