// Package sanitize turns loosely-typed records from untrusted sources (oracle output,
// uploaded JSON, historically malformed persisted data) into fully-typed entities.
// Every function in this package is total: malformed input yields defaults, never a panic
// or an error.
package sanitize

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// placeholderPattern matches template artifacts such as "[X]", "[50]%" or "[Date]"
// that models leave behind when they have no real value to fill in.
var placeholderPattern = regexp.MustCompile(`\[(?:[xXyYzZ]|[dD]ate|\d+)?\]%?`)

// Record is a loosely-typed JSON object
type Record = map[string]any

// ToText coerces any value into trimmed text with placeholder tokens removed.
// Sequences are joined with newlines.
func ToText(value any) string {
	var text string
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		text = v
	case []string:
		text = strings.Join(v, "\n")
	case []any:
		lines := make([]string, 0, len(v))
		for _, item := range v {
			lines = append(lines, scalar(item))
		}
		text = strings.Join(lines, "\n")
	default:
		text = scalar(v)
	}
	// Removing one token can expose another, as in "[[x]]".
	for {
		stripped := placeholderPattern.ReplaceAllString(text, "")
		if stripped == text {
			break
		}
		text = stripped
	}
	return strings.TrimSpace(text)
}

// ToList returns value as a sequence, or an empty non-nil slice when it is not one.
func ToList(value any) []any {
	switch v := value.(type) {
	case []any:
		return v
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	case []Record:
		out := make([]any, len(v))
		for i, r := range v {
			out[i] = r
		}
		return out
	default:
		return []any{}
	}
}

// ToSkillSet coerces a sequence of skill-like values into trimmed, non-empty names.
// Exact duplicates are dropped keeping first-seen order; comparison is case-sensitive,
// so "React" and "react" are distinct skills.
func ToSkillSet(value any) []string {
	items := ToList(value)
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		name := strings.TrimSpace(skillName(item))
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// ToStrings coerces a sequence into scalar strings, dropping empties.
func ToStrings(value any) []string {
	items := ToList(value)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := strings.TrimSpace(scalar(item)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func skillName(item any) string {
	switch v := item.(type) {
	case string:
		return v
	case Record:
		for _, key := range []string{"name", "skill", "value"} {
			if s := strings.TrimSpace(scalar(v[key])); s != "" {
				return s
			}
		}
		// Fall back to the first value; keys are sorted so the choice is stable.
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		if len(keys) > 0 {
			return scalar(v[keys[0]])
		}
		return ""
	default:
		return scalar(v)
	}
}

// scalar renders a single value as text without placeholder stripping
func scalar(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case json.Number:
		return v.String()
	case fmt.Stringer:
		return v.String()
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// text is the non-description field coercion: scalar form, trimmed
func text(value any) string {
	return strings.TrimSpace(scalar(value))
}

// asRecord returns value as a record, or an empty record when it is not one
func asRecord(value any) Record {
	if r, ok := value.(Record); ok && r != nil {
		return r
	}
	return Record{}
}

// number extracts a numeric value, accepting numeric strings
func number(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// clampScore rounds value into the 0-100 range
func clampScore(value float64) int {
	switch {
	case value != value: // NaN
		return 0
	case value < 0:
		return 0
	case value > 100:
		return 100
	default:
		return int(value + 0.5)
	}
}

// Unwrap returns the value under the first present key when raw is a record
// envelope such as {"questions": [...]}, and raw itself otherwise.
func Unwrap(raw any, keys ...string) any {
	rec, ok := raw.(map[string]any)
	if !ok {
		return raw
	}
	if v := first(rec, keys...); v != nil {
		return v
	}
	return raw
}
