package jsondoc

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	floatPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
	intPrefix   = regexp.MustCompile(`^[+-]?\d+`)
)

// ToNumber converts numbers and fully numeric strings to a finite float64.
func ToNumber(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case json.Number:
		var err error
		if f, err = strconv.ParseFloat(n.String(), 64); err != nil {
			return 0, false
		}
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		var err error
		if f, err = strconv.ParseFloat(s, 64); err != nil {
			return 0, false
		}
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ParseFloat reads the longest leading decimal number of v's string form,
// so "12.5 USD" yields 12.5.
func ParseFloat(v any) (float64, bool) {
	if f, ok := ToNumber(v); ok {
		if _, isString := v.(string); !isString {
			return f, true
		}
	}
	s, ok := v.(string)
	if !ok {
		return 0, false
	}
	m := floatPrefix.FindString(strings.TrimLeft(s, " \t\r\n"))
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ParseInt reads the leading integer of v's string form, truncating any fraction.
func ParseInt(v any) (int64, bool) {
	var s string
	switch n := v.(type) {
	case string:
		s = n
	case json.Number:
		s = n.String()
	case nil, bool, *Object, []any:
		return 0, false
	default:
		f, ok := ToNumber(v)
		if !ok {
			return 0, false
		}
		return int64(f), true
	}
	m := intPrefix.FindString(strings.TrimLeft(s, " \t\r\n"))
	if m == "" {
		return 0, false
	}
	i, err := strconv.ParseInt(m, 10, 64)
	if err != nil {
		return 0, false
	}
	return i, true
}

// String renders v the way it would appear as plain text.
func String(v any) string {
	switch n := v.(type) {
	case nil:
		return "null"
	case string:
		return n
	case json.Number:
		if f, err := strconv.ParseFloat(n.String(), 64); err == nil {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
		return n.String()
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(n, 10)
	case int:
		return strconv.Itoa(n)
	case bool:
		return strconv.FormatBool(n)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// IsTruthy reports whether v would be treated as present by a display
// default: nil, "", false and 0 are not.
func IsTruthy(v any) bool {
	switch n := v.(type) {
	case nil:
		return false
	case string:
		return n != ""
	case bool:
		return n
	}
	if f, ok := ToNumber(v); ok {
		return f != 0
	}
	return true
}
