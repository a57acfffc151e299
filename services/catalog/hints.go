package catalog

import (
	"fmt"
	"strings"
)

// FieldHint selects the inspector input for a config field.
type FieldHint string

const (
	HintShortText FieldHint = "short-text"
	HintLongText  FieldHint = "long-text"
	HintBoolean   FieldHint = "boolean"
	HintNumber    FieldHint = "number"
)

// field names that get a multi-line editor when no hint was declared
var longTextNames = []string{"body", "message", "data", "content", "prompt"}

func (h FieldHint) Valid() bool {
	switch h {
	case HintShortText, HintLongText, HintBoolean, HintNumber:
		return true
	}
	return false
}

// Accepts reports whether v has the runtime type the hint expects.
func (h FieldHint) Accepts(v any) bool {
	switch v.(type) {
	case bool:
		return h == HintBoolean
	case float64:
		return h == HintNumber
	case string:
		return h == HintShortText || h == HintLongText
	}
	return false
}

// InferHint derives a hint from a field's name and value. It is only used for
// config that was saved without a template reference.
func InferHint(name string, v any) FieldHint {
	switch v.(type) {
	case bool:
		return HintBoolean
	case float64, int, int64:
		return HintNumber
	}

	lower := strings.ToLower(name)
	for _, n := range longTextNames {
		if strings.Contains(lower, n) {
			return HintLongText
		}
	}
	return HintShortText
}

// NormalizeValue converts v into one of the config value types
// (string, float64, bool). A nil value becomes the empty string.
func NormalizeValue(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string, bool, float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int32:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case uint:
		return float64(t), nil
	case uint64:
		return float64(t), nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
}
