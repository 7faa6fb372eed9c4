package dto

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/promata/reservas-gateway/internal/query"
)

// Raw is a backend payload decoded without a fixed shape.
type Raw = map[string]any

// pick returns the first non-null value among keys, mirroring a chain of "??".
func pick(raw Raw, keys ...string) any {
	for _, key := range keys {
		if value, ok := raw[key]; ok && value != nil {
			return value
		}
	}
	return nil
}

func rawObject(value any) Raw {
	if obj, ok := value.(map[string]any); ok {
		return obj
	}
	return nil
}

func rawList(value any) []any {
	if list, ok := value.([]any); ok {
		return list
	}
	return nil
}

func toFloat(value any) *float64 {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return nil
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func toInt(value any) *int {
	f := toFloat(value)
	if f == nil || *f != math.Trunc(*f) || math.Abs(*f) > math.MaxInt32 {
		return nil
	}
	n := int(*f)
	return &n
}

func toBool(value any) *bool {
	switch v := value.(type) {
	case bool:
		return &v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true":
			b := true
			return &b
		case "false":
			b := false
			return &b
		}
	}
	return nil
}

func toString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		return ""
	}
}

func toStringPtr(value any) *string {
	s, ok := value.(string)
	if !ok {
		return nil
	}
	return &s
}

// toDocument formats a valid CPF as 000.000.000-00 and keeps any other document as sent.
func toDocument(value any) *string {
	doc := toStringPtr(value)
	if doc == nil || !query.IsValidCPF(*doc) {
		return doc
	}
	masked := query.MaskCPF(*doc)
	return &masked
}

func toStrings(value any) []string {
	list := rawList(value)
	if list == nil {
		if typed, ok := value.([]string); ok {
			return append([]string{}, typed...)
		}
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

func parseDate(value string) (time.Time, bool) {
	trimmed := strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// toDate keeps the backend's date string when it parses, else nil.
func toDate(value any) *string {
	s, ok := value.(string)
	if !ok {
		return nil
	}
	if _, ok := parseDate(s); !ok {
		return nil
	}
	trimmed := strings.TrimSpace(s)
	return &trimmed
}

func formatInt(n int) string {
	return strconv.Itoa(n)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
