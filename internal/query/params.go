package query

import (
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Values is a loosely-typed filter object keyed by query parameter name.
type Values map[string]any

// IsNil reports whether the value is nil or a nil pointer, map, slice or interface.
func IsNil(value any) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}

// OmitBy returns a copy of values without the entries matched by predicate.
func OmitBy(values Values, predicate func(key string, value any) bool) Values {
	result := make(Values, len(values))
	for key, value := range values {
		if predicate(key, value) {
			continue
		}
		result[key] = value
	}
	return result
}

// OmitNil drops every nil-valued key.
func OmitNil(values Values) Values {
	return OmitBy(values, func(_ string, value any) bool { return IsNil(value) })
}

// BuildQueryParams serializes values into a query string. Array values repeat their key,
// scalars are emitted once. An empty object yields "" and any other object yields a string
// starting with "?", even when every entry is an empty array.
func BuildQueryParams(values Values) string {
	if len(values) == 0 {
		return ""
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		value := deref(values[key])
		rv := reflect.ValueOf(value)
		if value != nil && (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) {
			for i := 0; i < rv.Len(); i++ {
				parts = append(parts, encodePair(key, rv.Index(i).Interface()))
			}
			continue
		}
		parts = append(parts, encodePair(key, value))
	}

	return "?" + strings.Join(parts, "&")
}

func encodePair(key string, value any) string {
	return url.QueryEscape(key) + "=" + url.QueryEscape(formatScalar(value))
}

func formatScalar(value any) string {
	switch v := deref(value).(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

func deref(value any) any {
	if value == nil {
		return nil
	}
	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	return rv.Interface()
}
