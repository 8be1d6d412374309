package provider

import (
	"math"
	"strconv"
	"strings"
)

// ExtractInt normalizes an integer field from various API response formats.
//
// TheSportsDB returns round numbers as strings ("4"), as JSON numbers, or as
// null/"" when unknown. This handles all of them.
//
// Returns ok=false if not extractable or not a whole number.
func ExtractInt(val interface{}) (int, bool) {
	if val == nil {
		return 0, false
	}

	switch v := val.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false
		}
		if n, err := strconv.Atoi(s); err == nil {
			return n, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) {
			return int(f), true
		}
		return 0, false
	default:
		return 0, false
	}
}

// ExtractString returns a trimmed string for string-like values. Numbers are
// formatted without a trailing ".0"; anything else yields "".
func ExtractString(val interface{}) string {
	switch v := val.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		return ""
	}
}
