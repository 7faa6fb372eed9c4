package query

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Kind enumerates the value types a filter field accepts.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindBool
	KindEnum
	KindStringList
	KindEnumList
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindEnum:
		return "enum"
	case KindStringList:
		return "string list"
	case KindEnumList:
		return "enum list"
	default:
		return "unknown"
	}
}

// Field declares one optional filter key.
type Field struct {
	Key     string
	Kind    Kind
	Rule    string
	Enum    []string
	Default any
}

// Schema is the declaration of a resource's filter object.
type Schema struct {
	Name   string
	Fields []Field
}

// Extend returns a new schema holding the receiver's fields followed by extra.
// Fields in extra replace same-key fields of the receiver.
func (s Schema) Extend(name string, extra ...Field) Schema {
	fields := make([]Field, 0, len(s.Fields)+len(extra))
	override := make(map[string]struct{}, len(extra))
	for _, f := range extra {
		override[f.Key] = struct{}{}
	}
	for _, f := range s.Fields {
		if _, ok := override[f.Key]; ok {
			continue
		}
		fields = append(fields, f)
	}
	fields = append(fields, extra...)
	return Schema{Name: name, Fields: fields}
}

// Field looks up a field declaration by key.
func (s Schema) Field(key string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// FilterError reports a filter value that does not satisfy its schema.
type FilterError struct {
	Schema string
	Key    string
	Reason string
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("invalid %s filter %q: %s", e.Schema, e.Key, e.Reason)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// SafeParseFilters drops nil values, validates what remains against schema and serializes
// it to a query string. It returns "" when no key survives.
func SafeParseFilters(raw Values, schema Schema) (string, error) {
	parsed, err := Parse(raw, schema)
	if err != nil {
		return "", err
	}
	return BuildQueryParams(OmitNil(parsed)), nil
}

// Parse validates raw against schema. Unknown keys are stripped and defaults are applied to
// absent keys.
func Parse(raw Values, schema Schema) (Values, error) {
	present := OmitNil(raw)
	result := make(Values, len(schema.Fields))

	for _, field := range schema.Fields {
		value, ok := present[field.Key]
		if !ok {
			if field.Default != nil {
				result[field.Key] = field.Default
			}
			continue
		}

		coerced, err := field.check(deref(value))
		if err != nil {
			return nil, &FilterError{Schema: schema.Name, Key: field.Key, Reason: err.Error()}
		}
		if field.Rule != "" {
			if err := validate.Var(coerced, field.Rule); err != nil {
				return nil, &FilterError{Schema: schema.Name, Key: field.Key, Reason: err.Error()}
			}
		}
		result[field.Key] = coerced
	}

	return result, nil
}

// MustSafeParseFilters panics on invalid filters. Intended for filters built from constants.
func MustSafeParseFilters(raw Values, schema Schema) string {
	out, err := SafeParseFilters(raw, schema)
	if err != nil {
		panic(err)
	}
	return out
}

func (f Field) check(value any) (any, error) {
	switch f.Kind {
	case KindString:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", value)
		}
		return s, nil
	case KindInt:
		return toInt(value)
	case KindBool:
		b, ok := value.(bool)
		if !ok {
			return nil, fmt.Errorf("expected bool, got %T", value)
		}
		return b, nil
	case KindEnum:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", value)
		}
		if !contains(f.Enum, s) {
			return nil, fmt.Errorf("%q is not one of %s", s, strings.Join(f.Enum, ","))
		}
		return s, nil
	case KindStringList, KindEnumList:
		list, err := toStringList(value)
		if err != nil {
			return nil, err
		}
		if f.Kind == KindEnumList {
			for _, item := range list {
				if !contains(f.Enum, item) {
					return nil, fmt.Errorf("%q is not one of %s", item, strings.Join(f.Enum, ","))
				}
			}
		}
		return list, nil
	default:
		return nil, fmt.Errorf("unsupported kind %s", f.Kind)
	}
}

func toInt(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int8:
		return int(v), nil
	case int16:
		return int(v), nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case uint:
		return int(v), nil
	case uint32:
		return int(v), nil
	case uint64:
		return int(v), nil
	case float32:
		return floatToInt(float64(v))
	case float64:
		return floatToInt(v)
	default:
		return 0, fmt.Errorf("expected number, got %T", value)
	}
}

func floatToInt(v float64) (int, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		return 0, fmt.Errorf("expected integer, got %v", v)
	}
	return int(v), nil
}

func toStringList(value any) ([]string, error) {
	switch v := value.(type) {
	case []string:
		return append([]string(nil), v...), nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected string list item, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected list, got %T", value)
	}
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}

// FromURLValues coerces an inbound query string into typed filter values. Keys unknown to
// the schema are ignored, blank values are treated as absent.
func FromURLValues(schema Schema, values url.Values) (Values, error) {
	result := Values{}
	for _, field := range schema.Fields {
		raw, ok := values[field.Key]
		if !ok {
			continue
		}
		items := make([]string, 0, len(raw))
		for _, item := range raw {
			for _, part := range strings.Split(item, ",") {
				if trimmed := strings.TrimSpace(part); trimmed != "" {
					items = append(items, trimmed)
				}
			}
		}
		if len(items) == 0 {
			continue
		}

		switch field.Kind {
		case KindStringList, KindEnumList:
			result[field.Key] = items
		case KindInt:
			n, err := strconv.Atoi(items[0])
			if err != nil {
				return nil, &FilterError{Schema: schema.Name, Key: field.Key, Reason: "expected integer"}
			}
			result[field.Key] = n
		case KindBool:
			b, err := strconv.ParseBool(items[0])
			if err != nil {
				return nil, &FilterError{Schema: schema.Name, Key: field.Key, Reason: "expected boolean"}
			}
			result[field.Key] = b
		default:
			result[field.Key] = strings.TrimSpace(raw[0])
		}
	}
	return result, nil
}
