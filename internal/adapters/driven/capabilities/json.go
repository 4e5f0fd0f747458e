package capabilities

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/custodia-labs/airportai/internal/core/domain"
)

var fenceRe = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)```")

// extractJSON returns the JSON object embedded in an LLM response.
// It accepts bare JSON, fenced code blocks and prose around a single object.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if m := fenceRe.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
	}
	if strings.HasPrefix(text, "{") || strings.HasPrefix(text, "[") {
		return text
	}
	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return text
	}
	closer := "}"
	if text[start] == '[' {
		closer = "]"
	}
	end := strings.LastIndex(text, closer)
	if end <= start {
		return text
	}
	return text[start : end+1]
}

// decodeJSON decodes the JSON in text into out, zeroing out first so a
// retried attempt never sees a previous attempt's fields. Any failure wraps
// domain.ErrMalformedResponse so the retry policy treats it as transient.
func decodeJSON(text string, out any) error {
	if out == nil {
		return nil
	}
	if rv := reflect.ValueOf(out); rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv.Elem().SetZero()
	}
	raw := extractJSON(text)
	if raw == "" {
		return fmt.Errorf("%w: empty response", domain.ErrMalformedResponse)
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	return nil
}

// compact renders v as single-line JSON for prompt embedding.
func compact(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
